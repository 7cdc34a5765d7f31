package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/valeevte/PriceTracker/internal/notify"
	"github.com/valeevte/PriceTracker/internal/tracker"
)

func newRunStore(t *testing.T) (*RunStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rs := NewWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { rs.Close() })
	return rs, mr
}

func TestMemory(t *testing.T) {
	var m Memory
	ctx := context.Background()
	if _, err := m.LastSummary(ctx); !errors.Is(err, ErrNoRun) {
		t.Fatalf("empty: got %v", err)
	}
	if err := m.SaveSummary(ctx, &tracker.RunSummary{RunID: "r1", Processed: 3}); err != nil {
		t.Fatal(err)
	}
	s, err := m.LastSummary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if s.RunID != "r1" || s.Processed != 3 {
		t.Errorf("summary: %+v", s)
	}
}

func TestNewUnreachable(t *testing.T) {
	if _, err := New(context.Background(), Config{Addr: "127.0.0.1:1"}); err == nil {
		t.Fatal("expected connection error")
	}
}

func TestRunStoreRoundTrip(t *testing.T) {
	rs, mr := newRunStore(t)
	ctx := context.Background()

	if _, err := rs.LastSummary(ctx); !errors.Is(err, ErrNoRun) {
		t.Fatalf("empty: got %v", err)
	}

	in := &tracker.RunSummary{
		RunID:             "r2",
		Processed:         4,
		Succeeded:         3,
		Failed:            1,
		NotificationsSent: 2,
		Kinds:             map[notify.Kind]int{notify.PriceDrop: 2},
		Failures:          []tracker.Failure{{URL: "https://shop.test/a", Stage: tracker.StageExtract, Error: "timeout"}},
	}
	if err := rs.SaveSummary(ctx, in); err != nil {
		t.Fatal(err)
	}
	if ttl := mr.TTL(lastRunKey); ttl != runTTL {
		t.Errorf("ttl: %v", ttl)
	}

	got, err := rs.LastSummary(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got.RunID != "r2" || got.Failed != 1 || got.Kinds[notify.PriceDrop] != 2 {
		t.Errorf("summary: %+v", got)
	}
	if len(got.Failures) != 1 || got.Failures[0].Stage != tracker.StageExtract {
		t.Errorf("failures: %+v", got.Failures)
	}

	mr.FastForward(runTTL)
	if _, err := rs.LastSummary(ctx); !errors.Is(err, ErrNoRun) {
		t.Errorf("expired: got %v", err)
	}
}

func TestRunStoreCorruptValue(t *testing.T) {
	rs, mr := newRunStore(t)
	if err := mr.Set(lastRunKey, "{not json"); err != nil {
		t.Fatal(err)
	}
	_, err := rs.LastSummary(context.Background())
	if err == nil || errors.Is(err, ErrNoRun) {
		t.Fatalf("got %v, want decode error", err)
	}
}
