// Package cache keeps the most recent run summary in Redis so any instance
// of the HTTP surface can report it.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/valeevte/PriceTracker/internal/tracker"
)

// ErrNoRun is returned when no summary has been stored yet.
var ErrNoRun = errors.New("cache: no run recorded")

// Config is the Redis connection configuration.
type Config struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

const (
	lastRunKey = "pricetracker:run:last"
	runTTL     = 7 * 24 * time.Hour
)

// RunStore records run summaries.
type RunStore struct {
	client *redis.Client
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, cfg Config) (*RunStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RunStore{client: client}, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client) *RunStore {
	return &RunStore{client: client}
}

// SaveSummary stores s as the last run.
func (r *RunStore) SaveSummary(ctx context.Context, s *tracker.RunSummary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, lastRunKey, data, runTTL).Err()
}

// LastSummary returns the most recently stored summary.
func (r *RunStore) LastSummary(ctx context.Context) (*tracker.RunSummary, error) {
	data, err := r.client.Get(ctx, lastRunKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoRun
	}
	if err != nil {
		return nil, err
	}
	var s tracker.RunSummary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode run summary: %w", err)
	}
	return &s, nil
}

func (r *RunStore) Close() error {
	return r.client.Close()
}
