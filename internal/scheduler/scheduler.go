// Package scheduler runs the tracker on a timer and on demand, one run at a
// time, under a wall-clock budget.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/valeevte/PriceTracker/internal/tracker"
)

// ErrRunInProgress is returned by RunNow while another run is active.
var ErrRunInProgress = errors.New("scheduler: run already in progress")

// Runner performs one refresh run.
type Runner interface {
	Run(ctx context.Context) (*tracker.RunSummary, error)
}

// SummarySink records finished runs.
type SummarySink interface {
	SaveSummary(ctx context.Context, s *tracker.RunSummary) error
}

// Config configures the scheduler.
type Config struct {
	// Interval between timed runs. Zero disables the timer.
	Interval time.Duration `yaml:"interval"`
	// MaxDuration is the wall-clock budget of one run. Default: 60s.
	MaxDuration time.Duration `yaml:"max_duration"`
}

func (c *Config) defaults() {
	if c.MaxDuration <= 0 {
		c.MaxDuration = 60 * time.Second
	}
}

// Trigger serializes runs and applies the run budget.
type Trigger struct {
	runner Runner
	sink   SummarySink
	config Config
	logger *slog.Logger
	mu     sync.Mutex
}

// NewTrigger creates a Trigger. sink may be nil.
func NewTrigger(runner Runner, sink SummarySink, cfg Config, logger *slog.Logger) *Trigger {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Trigger{runner: runner, sink: sink, config: cfg, logger: logger}
}

// RunNow performs a run unless one is already active.
func (t *Trigger) RunNow(ctx context.Context) (*tracker.RunSummary, error) {
	if !t.mu.TryLock() {
		return nil, ErrRunInProgress
	}
	defer t.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, t.config.MaxDuration)
	defer cancel()

	summary, err := t.runner.Run(ctx)
	if err != nil {
		return nil, err
	}
	if t.sink != nil {
		// The run context may have expired; recording the summary gets its own.
		saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := t.sink.SaveSummary(saveCtx, summary); err != nil {
			t.logger.Warn("scheduler: save summary", "run_id", summary.RunID, "error", err)
		}
	}
	return summary, nil
}

// Run triggers a run immediately and then every Interval until ctx is
// cancelled. It returns at once if Interval is zero.
func Run(ctx context.Context, t *Trigger) {
	interval := t.config.Interval
	if interval <= 0 {
		t.logger.Info("scheduler: timer disabled")
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	t.logger.Info("scheduler: started", "interval", interval)

	t.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("scheduler: stopping due to context cancelled")
			return
		case <-ticker.C:
			t.tick(ctx)
		}
	}
}

func (t *Trigger) tick(ctx context.Context) {
	if _, err := t.RunNow(ctx); err != nil {
		if errors.Is(err, ErrRunInProgress) {
			t.logger.Info("scheduler: skipping tick, previous run still active")
			return
		}
		t.logger.Error("scheduler: run failed", "error", err)
	}
}
