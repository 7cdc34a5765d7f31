// Package tracker refreshes every tracked product in bounded concurrent
// groups, records the new price and notifies subscribers of changes.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/valeevte/PriceTracker/internal/notify"
	"github.com/valeevte/PriceTracker/internal/pricing"
	"github.com/valeevte/PriceTracker/internal/products"
)

// ErrNoProducts is returned when the store yields no usable product list.
var ErrNoProducts = errors.New("no products fetched")

var errUnusable = errors.New("extractor returned no usable price")

// Extractor reads the current state of a product page. It must be safe for
// concurrent use.
type Extractor interface {
	Fetch(ctx context.Context, url string) (*products.Scraped, error)
}

// Store is the product persistence the tracker needs.
type Store interface {
	ReadAll(ctx context.Context) ([]*products.Product, error)
	Upsert(ctx context.Context, p *products.Product) (*products.Product, error)
}

// Notifier renders and delivers notifications.
type Notifier interface {
	Render(info products.Info, kind notify.Kind) (notify.Content, error)
	Send(ctx context.Context, c notify.Content, to []string) error
}

// Config configures a Tracker.
type Config struct {
	// ChunkSize is the number of products refreshed concurrently. Default: 10.
	ChunkSize int `yaml:"chunk_size"`
	// DiscountThreshold is the discount percent that raises THRESHOLD_MET.
	// Default: notify.DefaultDiscountThreshold.
	DiscountThreshold float64 `yaml:"discount_threshold"`
}

func (c *Config) defaults() {
	if c.ChunkSize <= 0 {
		c.ChunkSize = 10
	}
	if c.DiscountThreshold <= 0 {
		c.DiscountThreshold = notify.DefaultDiscountThreshold
	}
}

// Tracker is the batch refresh orchestrator.
type Tracker struct {
	store      Store
	extractor  Extractor
	notifier   Notifier
	classifier notify.Classifier
	config     Config
	logger     *slog.Logger
	now        func() time.Time
}

// New creates a Tracker.
func New(store Store, extractor Extractor, notifier Notifier, cfg Config, logger *slog.Logger) *Tracker {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		store:      store,
		extractor:  extractor,
		notifier:   notifier,
		classifier: notify.Classifier{DiscountThreshold: cfg.DiscountThreshold},
		config:     cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// Run refreshes every tracked product once. It fails only when the product
// list cannot be loaded; per-product failures are reported in the summary.
//
// Groups of ChunkSize products run one after another; members of a group
// run concurrently and the next group starts once all of them finish.
func (t *Tracker) Run(ctx context.Context) (*RunSummary, error) {
	summary := &RunSummary{RunID: uuid.NewString(), StartedAt: t.now().UTC()}

	all, err := t.store.ReadAll(ctx)
	if err == nil && all == nil {
		err = ErrNoProducts
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get all products: %w", err)
	}

	t.logger.Info("tracker: run started", "run_id", summary.RunID, "products", len(all), "chunk_size", t.config.ChunkSize)

	for _, group := range Chunk(all, t.config.ChunkSize) {
		if err := ctx.Err(); err != nil {
			for _, p := range group {
				summary.add(Outcome{URL: p.URL, State: StateFailed, Stage: StageExtract, Err: err})
			}
			continue
		}
		for _, o := range t.runGroup(ctx, group) {
			summary.add(o)
		}
	}

	summary.FinishedAt = t.now().UTC()
	t.logger.Info("tracker: run finished",
		"run_id", summary.RunID,
		"processed", summary.Processed,
		"succeeded", summary.Succeeded,
		"failed", summary.Failed,
		"notifications", summary.NotificationsSent,
		"duration", summary.FinishedAt.Sub(summary.StartedAt),
	)
	return summary, nil
}

// runGroup processes every product of group concurrently and waits for all.
// Outcomes are returned in group order.
func (t *Tracker) runGroup(ctx context.Context, group []*products.Product) []Outcome {
	outcomes := make([]Outcome, len(group))
	var wg sync.WaitGroup
	for i, p := range group {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = t.refresh(ctx, p)
		}()
	}
	wg.Wait()
	return outcomes
}

// refresh drives one product through extract, persist, classify and notify.
func (t *Tracker) refresh(ctx context.Context, prev *products.Product) (out Outcome) {
	out = Outcome{URL: prev.URL, State: StatePending}
	stage := StageExtract
	defer func() {
		if r := recover(); r != nil {
			out = t.fail(out, stage, fmt.Errorf("panic: %v", r))
		}
	}()

	scraped, err := t.extractor.Fetch(ctx, prev.URL)
	if err == nil && (scraped == nil || !pricing.Usable(scraped.CurrentPrice)) {
		err = errUnusable
	}
	if err != nil {
		return t.fail(out, StageExtract, err)
	}
	out.State = StateExtracted

	stage = StagePersist
	record := prev.Merge(scraped, prev.PriceHistory)
	pricing.Apply(record, scraped.CurrentPrice, t.now().UTC())
	updated, err := t.store.Upsert(ctx, record)
	if err != nil {
		return t.fail(out, StagePersist, err)
	}
	out.State = StatePersisted

	out.Kind = t.classifier.Classify(prev, scraped)
	out.State = StateClassified

	recipients := t.classifier.Recipients(out.Kind, prev, scraped, updated)
	if out.Kind == notify.None || len(recipients) == 0 {
		out.State = StateSkippedNotify
		return out
	}

	stage = StageNotify
	content, err := t.notifier.Render(updated.Info(), out.Kind)
	if err != nil {
		return t.fail(out, StageNotify, err)
	}
	if err := t.notifier.Send(ctx, content, recipients); err != nil {
		return t.fail(out, StageNotify, err)
	}
	out.State = StateNotified
	t.logger.Debug("tracker: notified", "url", prev.URL, "kind", out.Kind, "recipients", len(recipients))
	return out
}

func (t *Tracker) fail(out Outcome, stage Stage, err error) Outcome {
	t.logger.Warn("tracker: product failed", "url", out.URL, "stage", stage, "error", err)
	out.State = StateFailed
	out.Stage = stage
	out.Err = err
	return out
}
