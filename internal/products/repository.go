package products

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the durable product store used by the HTTP handlers.
type Store interface {
	ReadAll(ctx context.Context) ([]*Product, error)
	Upsert(ctx context.Context, p *Product) (*Product, error)
	GetProductByID(ctx context.Context, id int) (*Product, error)
	GetProductByURL(ctx context.Context, url string) (*Product, error)
	GetPriceHistory(ctx context.Context, id int) ([]PricePoint, error)
	AddSubscriber(ctx context.Context, productID int, s Subscriber) (*Product, error)
}

// Repository is the Postgres Store.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const productColumns = `id, url, currency, image, title, current_price, original_price, discount_rate,
       category, reviews_count, stars, is_out_of_stock, description, price_history,
       lowest_price, highest_price, average_price, created_at, updated_at`

func scanPG(row pgx.Row) (*Product, error) {
	var p Product
	var hist []byte
	err := row.Scan(&p.ID, &p.URL, &p.Currency, &p.Image, &p.Title, &p.CurrentPrice, &p.OriginalPrice,
		&p.DiscountRate, &p.Category, &p.ReviewsCount, &p.Stars, &p.IsOutOfStock, &p.Description, &hist,
		&p.LowestPrice, &p.HighestPrice, &p.AveragePrice, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(hist, &p.PriceHistory); err != nil {
		return nil, fmt.Errorf("decode price history for %s: %w", p.URL, err)
	}
	return &p, nil
}

// ReadAll returns every product with its subscribers, ordered by id.
func (r *Repository) ReadAll(ctx context.Context) ([]*Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	res := []*Product{}
	byID := map[int]*Product{}
	for rows.Next() {
		p, err := scanPG(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
		byID[p.ID] = p
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	subs, err := r.db.Query(ctx, `
SELECT product_id, email, target_price
FROM product_subscribers
ORDER BY product_id, created_at, email`)
	if err != nil {
		return nil, err
	}
	defer subs.Close()
	for subs.Next() {
		var id int
		var s Subscriber
		if err := subs.Scan(&id, &s.Email, &s.TargetPrice); err != nil {
			return nil, err
		}
		if p, ok := byID[id]; ok {
			p.Users = append(p.Users, s)
		}
	}
	return res, subs.Err()
}

// Upsert writes p keyed by URL, creating the row if needed. Subscribers are
// never written; the returned product carries the stored ones.
func (r *Repository) Upsert(ctx context.Context, p *Product) (*Product, error) {
	hist, err := json.Marshal(nonNilHistory(p.PriceHistory))
	if err != nil {
		return nil, fmt.Errorf("encode price history: %w", err)
	}
	row := r.db.QueryRow(ctx, `
INSERT INTO products (url, currency, image, title, current_price, original_price, discount_rate,
                      category, reviews_count, stars, is_out_of_stock, description, price_history,
                      lowest_price, highest_price, average_price)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
ON CONFLICT (url) DO UPDATE SET
    currency = EXCLUDED.currency,
    image = EXCLUDED.image,
    title = EXCLUDED.title,
    current_price = EXCLUDED.current_price,
    original_price = EXCLUDED.original_price,
    discount_rate = EXCLUDED.discount_rate,
    category = EXCLUDED.category,
    reviews_count = EXCLUDED.reviews_count,
    stars = EXCLUDED.stars,
    is_out_of_stock = EXCLUDED.is_out_of_stock,
    description = EXCLUDED.description,
    price_history = EXCLUDED.price_history,
    lowest_price = EXCLUDED.lowest_price,
    highest_price = EXCLUDED.highest_price,
    average_price = EXCLUDED.average_price,
    updated_at = now()
RETURNING `+productColumns,
		p.URL, p.Currency, p.Image, p.Title, p.CurrentPrice, p.OriginalPrice, p.DiscountRate,
		p.Category, p.ReviewsCount, p.Stars, p.IsOutOfStock, p.Description, string(hist),
		p.LowestPrice, p.HighestPrice, p.AveragePrice)
	out, err := scanPG(row)
	if err != nil {
		return nil, err
	}
	if out.Users, err = r.subscribers(ctx, out.ID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) GetProductByID(ctx context.Context, id int) (*Product, error) {
	p, err := scanPG(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if p.Users, err = r.subscribers(ctx, id); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repository) GetProductByURL(ctx context.Context, url string) (*Product, error) {
	p, err := scanPG(r.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE url = $1`, url))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if p.Users, err = r.subscribers(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *Repository) GetPriceHistory(ctx context.Context, id int) ([]PricePoint, error) {
	var hist []byte
	err := r.db.QueryRow(ctx, `SELECT price_history FROM products WHERE id = $1`, id).Scan(&hist)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var out []PricePoint
	if err := json.Unmarshal(hist, &out); err != nil {
		return nil, fmt.Errorf("decode price history: %w", err)
	}
	return out, nil
}

// AddSubscriber adds s to the product, updating the target price if the
// email is already subscribed.
func (r *Repository) AddSubscriber(ctx context.Context, productID int, s Subscriber) (*Product, error) {
	_, err := r.db.Exec(ctx, `
INSERT INTO product_subscribers (product_id, email, target_price)
VALUES ($1, $2, $3)
ON CONFLICT (product_id, email) DO UPDATE SET target_price = EXCLUDED.target_price`,
		productID, s.Email, s.TargetPrice)
	if err != nil {
		var fk interface{ SQLState() string }
		if errors.As(err, &fk) && fk.SQLState() == "23503" {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r.GetProductByID(ctx, productID)
}

func (r *Repository) subscribers(ctx context.Context, productID int) ([]Subscriber, error) {
	rows, err := r.db.Query(ctx, `
SELECT email, target_price FROM product_subscribers
WHERE product_id = $1
ORDER BY created_at, email`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Subscriber
	for rows.Next() {
		var s Subscriber
		if err := rows.Scan(&s.Email, &s.TargetPrice); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func nonNilHistory(h []PricePoint) []PricePoint {
	if h == nil {
		return []PricePoint{}
	}
	return h
}

var (
	_ Store = (*Repository)(nil)
	_ Store = (*SQLiteRepository)(nil)
)
