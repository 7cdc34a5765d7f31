//go:build integration

package products

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/valeevte/PriceTracker/internal/database"
)

// Run with: DB_USER=... DB_HOST=... DB_PORT=... DB_NAME=... go test -tags integration ./internal/products/
func openPostgresRepo(t *testing.T) *Repository {
	t.Helper()
	var cfg database.DBConfig
	cfg.ApplyEnv()
	if !cfg.Complete() {
		t.Skip("DB_* not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	return NewRepository(pool)
}

func uniqueURL(t *testing.T) string {
	return fmt.Sprintf("https://shop.test/%s/%d", t.Name(), time.Now().UnixNano())
}

func TestPostgresUpsertAndHistory(t *testing.T) {
	repo := openPostgresRepo(t)
	ctx := context.Background()
	url := uniqueURL(t)

	first, err := repo.Upsert(ctx, sample(url, 100))
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	t.Cleanup(func() {
		repo.db.Exec(context.Background(), `DELETE FROM products WHERE id = $1`, first.ID)
	})

	target := 70.0
	if _, err := repo.AddSubscriber(ctx, first.ID, Subscriber{Email: "a@example.com", TargetPrice: &target}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	next := sample(url, 80)
	next.PriceHistory = append(first.PriceHistory, PricePoint{Price: 80, ObservedAt: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)})
	next.LowestPrice = 80
	second, err := repo.Upsert(ctx, next)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("id changed: %d -> %d", first.ID, second.ID)
	}
	if len(second.Users) != 1 || second.Users[0].TargetPrice == nil || *second.Users[0].TargetPrice != 70 {
		t.Errorf("subscribers not preserved: %+v", second.Users)
	}

	hist, err := repo.GetPriceHistory(ctx, first.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(hist) != 2 || hist[1].Price != 80 || !hist[1].ObservedAt.Equal(next.PriceHistory[1].ObservedAt) {
		t.Errorf("history: %+v", hist)
	}

	byURL, err := repo.GetProductByURL(ctx, url)
	if err != nil || byURL.ID != first.ID || byURL.LowestPrice != 80 {
		t.Errorf("by url: %+v, %v", byURL, err)
	}
}

func TestPostgresSubscribeUnknownProduct(t *testing.T) {
	repo := openPostgresRepo(t)
	_, err := repo.AddSubscriber(context.Background(), -1, Subscriber{Email: "a@example.com"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}
