package cache

import (
	"context"
	"sync"

	"github.com/valeevte/PriceTracker/internal/tracker"
)

// Memory keeps the last summary in process. Used when Redis is not configured.
type Memory struct {
	mu   sync.RWMutex
	last *tracker.RunSummary
}

func (m *Memory) SaveSummary(_ context.Context, s *tracker.RunSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.last = s
	return nil
}

func (m *Memory) LastSummary(context.Context) (*tracker.RunSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.last == nil {
		return nil, ErrNoRun
	}
	return m.last, nil
}
