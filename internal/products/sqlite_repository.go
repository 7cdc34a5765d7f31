package products

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// SQLiteRepository is the embedded Store, used for single-node deployments
// and tests.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

func scanSQLite(row interface{ Scan(...any) error }) (*Product, error) {
	var p Product
	var hist string
	var created, updated int64
	err := row.Scan(&p.ID, &p.URL, &p.Currency, &p.Image, &p.Title, &p.CurrentPrice, &p.OriginalPrice,
		&p.DiscountRate, &p.Category, &p.ReviewsCount, &p.Stars, &p.IsOutOfStock, &p.Description, &hist,
		&p.LowestPrice, &p.HighestPrice, &p.AveragePrice, &created, &updated)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(hist), &p.PriceHistory); err != nil {
		return nil, fmt.Errorf("decode price history for %s: %w", p.URL, err)
	}
	p.CreatedAt = time.UnixMilli(created).UTC()
	p.UpdatedAt = time.UnixMilli(updated).UTC()
	return &p, nil
}

func (r *SQLiteRepository) ReadAll(ctx context.Context) ([]*Product, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, err
	}
	res := []*Product{}
	byID := map[int]*Product{}
	for rows.Next() {
		p, err := scanSQLite(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		res = append(res, p)
		byID[p.ID] = p
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	subs, err := r.db.QueryContext(ctx, `
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
		var target sql.NullFloat64
		if err := subs.Scan(&id, &s.Email, &target); err != nil {
			return nil, err
		}
		if target.Valid {
			v := target.Float64
			s.TargetPrice = &v
		}
		if p, ok := byID[id]; ok {
			p.Users = append(p.Users, s)
		}
	}
	return res, subs.Err()
}

func (r *SQLiteRepository) Upsert(ctx context.Context, p *Product) (*Product, error) {
	hist, err := json.Marshal(nonNilHistory(p.PriceHistory))
	if err != nil {
		return nil, fmt.Errorf("encode price history: %w", err)
	}
	now := r.now().UnixMilli()
	row := r.db.QueryRowContext(ctx, `
INSERT INTO products (url, currency, image, title, current_price, original_price, discount_rate,
                      category, reviews_count, stars, is_out_of_stock, description, price_history,
                      lowest_price, highest_price, average_price, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (url) DO UPDATE SET
    currency = excluded.currency,
    image = excluded.image,
    title = excluded.title,
    current_price = excluded.current_price,
    original_price = excluded.original_price,
    discount_rate = excluded.discount_rate,
    category = excluded.category,
    reviews_count = excluded.reviews_count,
    stars = excluded.stars,
    is_out_of_stock = excluded.is_out_of_stock,
    description = excluded.description,
    price_history = excluded.price_history,
    lowest_price = excluded.lowest_price,
    highest_price = excluded.highest_price,
    average_price = excluded.average_price,
    updated_at = excluded.updated_at
RETURNING `+productColumns,
		p.URL, p.Currency, p.Image, p.Title, p.CurrentPrice, p.OriginalPrice, p.DiscountRate,
		p.Category, p.ReviewsCount, p.Stars, p.IsOutOfStock, p.Description, string(hist),
		p.LowestPrice, p.HighestPrice, p.AveragePrice, now, now)
	out, err := scanSQLite(row)
	if err != nil {
		return nil, err
	}
	if out.Users, err = r.subscribers(ctx, out.ID); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *SQLiteRepository) GetProductByID(ctx context.Context, id int) (*Product, error) {
	p, err := scanSQLite(r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if p.Users, err = r.subscribers(ctx, id); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *SQLiteRepository) GetProductByURL(ctx context.Context, url string) (*Product, error) {
	p, err := scanSQLite(r.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE url = ?`, url))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if p.Users, err = r.subscribers(ctx, p.ID); err != nil {
		return nil, err
	}
	return p, nil
}

func (r *SQLiteRepository) GetPriceHistory(ctx context.Context, id int) ([]PricePoint, error) {
	var hist string
	err := r.db.QueryRowContext(ctx, `SELECT price_history FROM products WHERE id = ?`, id).Scan(&hist)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var out []PricePoint
	if err := json.Unmarshal([]byte(hist), &out); err != nil {
		return nil, fmt.Errorf("decode price history: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) AddSubscriber(ctx context.Context, productID int, s Subscriber) (*Product, error) {
	var exists int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM products WHERE id = ?`, productID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	_, err = r.db.ExecContext(ctx, `
INSERT INTO product_subscribers (product_id, email, target_price, created_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (product_id, email) DO UPDATE SET target_price = excluded.target_price`,
		productID, s.Email, s.TargetPrice, r.now().UnixMilli())
	if err != nil {
		return nil, err
	}
	return r.GetProductByID(ctx, productID)
}

func (r *SQLiteRepository) subscribers(ctx context.Context, productID int) ([]Subscriber, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT email, target_price FROM product_subscribers
WHERE product_id = ?
ORDER BY created_at, email`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Subscriber
	for rows.Next() {
		var s Subscriber
		var target sql.NullFloat64
		if err := rows.Scan(&s.Email, &target); err != nil {
			return nil, err
		}
		if target.Valid {
			v := target.Float64
			s.TargetPrice = &v
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
