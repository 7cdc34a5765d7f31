package products

import (
	"errors"
	"time"
)

// ErrNotFound is returned when no product matches the lookup key.
var ErrNotFound = errors.New("product not found")

// PricePoint is one observation in a product's price history.
type PricePoint struct {
	Price      float64   `json:"price"`
	ObservedAt time.Time `json:"observed_at"`
}

// Subscriber is a user who receives notifications for a product.
// TargetPrice is optional; when set, the user is alerted once the price falls to it.
type Subscriber struct {
	Email       string   `json:"email"`
	TargetPrice *float64 `json:"target_price,omitempty"`
}

// Product is a tracked marketplace item, addressed by URL.
type Product struct {
	ID            int          `json:"id"`
	URL           string       `json:"url"`
	Currency      string       `json:"currency"`
	Image         string       `json:"image,omitempty"`
	Title         string       `json:"title"`
	CurrentPrice  float64      `json:"current_price"`
	OriginalPrice float64      `json:"original_price"`
	DiscountRate  float64      `json:"discount_rate"`
	Category      string       `json:"category,omitempty"`
	ReviewsCount  int          `json:"reviews_count"`
	Stars         float64      `json:"stars"`
	IsOutOfStock  bool         `json:"is_out_of_stock"`
	Description   string       `json:"description,omitempty"`
	PriceHistory  []PricePoint `json:"price_history"`
	LowestPrice   float64      `json:"lowest_price"`
	HighestPrice  float64      `json:"highest_price"`
	AveragePrice  float64      `json:"average_price"`
	Users         []Subscriber `json:"users"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// Scraped is what the extractor observed on a product page.
type Scraped struct {
	URL           string
	Currency      string
	Image         string
	Title         string
	CurrentPrice  float64
	OriginalPrice float64
	DiscountRate  float64
	Category      string
	ReviewsCount  int
	Stars         float64
	IsOutOfStock  bool
	Description   string
}

// Info is the minimal product description carried into a notification.
type Info struct {
	Title    string
	URL      string
	Price    float64
	Currency string
}

// Emails returns the subscriber addresses in subscription order.
func (p *Product) Emails() []string {
	out := make([]string, 0, len(p.Users))
	for _, u := range p.Users {
		out = append(out, u.Email)
	}
	return out
}

// Info returns the notification view of p.
func (p *Product) Info() Info {
	return Info{Title: p.Title, URL: p.URL, Price: p.CurrentPrice, Currency: p.Currency}
}

// Merge builds the replacement record for an existing product from a fresh
// observation. Identity, subscribers and creation time come from p.
func (p *Product) Merge(s *Scraped, history []PricePoint) *Product {
	return &Product{
		ID:            p.ID,
		URL:           p.URL,
		Currency:      s.Currency,
		Image:         s.Image,
		Title:         s.Title,
		CurrentPrice:  s.CurrentPrice,
		OriginalPrice: s.OriginalPrice,
		DiscountRate:  s.DiscountRate,
		Category:      s.Category,
		ReviewsCount:  s.ReviewsCount,
		Stars:         s.Stars,
		IsOutOfStock:  s.IsOutOfStock,
		Description:   s.Description,
		PriceHistory:  history,
		Users:         p.Users,
		CreatedAt:     p.CreatedAt,
	}
}
