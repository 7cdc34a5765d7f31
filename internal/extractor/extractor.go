// Package extractor fetches a product page and reads its price and
// descriptive metadata.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/valeevte/PriceTracker/internal/products"
)

// ErrNoPrice is returned when the page was fetched but no price was found.
var ErrNoPrice = errors.New("extractor: no price found")

// Config configures the extractor.
type Config struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
	// MaxBytes caps the response body. Default: 5MB.
	MaxBytes int64 `yaml:"max_bytes"`
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 20 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = "Mozilla/5.0 (X11; Linux x86_64) PriceTracker/1.0"
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 5 * 1024 * 1024
	}
}

// Extractor reads product pages over HTTP. Safe for concurrent use.
type Extractor struct {
	client *http.Client
	config Config
}

// New creates an Extractor.
func New(cfg Config) *Extractor {
	cfg.defaults()
	return &Extractor{
		client: &http.Client{Timeout: cfg.Timeout},
		config: cfg,
	}
}

// Fetch downloads url and extracts the product observed there.
func (e *Extractor) Fetch(ctx context.Context, url string) (*products.Scraped, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("User-Agent", e.config.UserAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("http %d", resp.StatusCode)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, e.config.MaxBytes))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return Parse(doc, url)
}

// Parse extracts a product from a parsed page.
func Parse(doc *html.Node, url string) (*products.Scraped, error) {
	p := page{doc}

	current := p.price(
		byClass("priceToPay", "a-offscreen"),
		byClass("apexPriceToPay", "a-offscreen"),
		byID("priceblock_ourprice"),
		byID("priceblock_dealprice"),
		byClass("a-price", "a-offscreen"),
		byMeta("itemprop", "price"),
		byMeta("property", "product:price:amount"),
		byMeta("property", "og:price:amount"),
	)
	if current <= 0 {
		return nil, ErrNoPrice
	}
	original := p.price(
		byClass("a-text-price", "a-offscreen"),
		byID("listPrice"),
		byID("priceblock_listprice"),
	)
	if original <= 0 {
		original = current
	}

	s := &products.Scraped{
		URL:           url,
		Title:         firstNonEmpty(p.text(byID("productTitle")), p.meta("property", "og:title"), p.title()),
		CurrentPrice:  current,
		OriginalPrice: original,
		Currency:      firstNonEmpty(p.text(byClass("a-price-symbol")), p.meta("property", "product:price:currency"), p.meta("itemprop", "priceCurrency")),
		Image:         firstNonEmpty(p.attr(byID("landingImage"), "data-old-hires"), p.attr(byID("imgBlkFront"), "src"), p.meta("property", "og:image")),
		Category:      lastCrumb(p.text(byID("wayfinding-breadcrumbs_feature_div"))),
		Description:   firstNonEmpty(p.text(byID("feature-bullets")), p.meta("name", "description")),
		IsOutOfStock:  outOfStock(p.text(byID("availability"))),
		DiscountRate:  percent(p.text(byClass("savingsPercentage"))),
		Stars:         rating(p.text(byID("acrPopover"))),
		ReviewsCount:  count(p.text(byID("acrCustomerReviewText"))),
	}
	if s.DiscountRate == 0 && original > current {
		s.DiscountRate = roundPercent((original - current) / original * 100)
	}
	return s, nil
}

func outOfStock(availability string) bool {
	a := strings.ToLower(availability)
	return strings.Contains(a, "currently unavailable") || strings.Contains(a, "out of stock")
}

// lastCrumb returns the deepest entry of a "A › B › C" breadcrumb.
func lastCrumb(trail string) string {
	parts := strings.Split(trail, "›")
	return strings.TrimSpace(parts[len(parts)-1])
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
