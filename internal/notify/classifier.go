// Package notify decides which price changes are worth telling subscribers
// about, renders the message and delivers it.
package notify

import "github.com/valeevte/PriceTracker/internal/products"

// Kind is the notification category for a product change.
type Kind string

const (
	None         Kind = "NONE"
	Welcome      Kind = "WELCOME"
	PriceDrop    Kind = "PRICE_DROP"
	LowestEver   Kind = "LOWEST_EVER"
	BackInStock  Kind = "BACK_IN_STOCK"
	ThresholdMet Kind = "THRESHOLD_MET"
)

// DefaultDiscountThreshold is the discount percentage that triggers ThresholdMet.
const DefaultDiscountThreshold = 40

// Classifier compares a stored product with a fresh observation.
// The zero value uses DefaultDiscountThreshold.
type Classifier struct {
	// DiscountThreshold in percent; <= 0 means DefaultDiscountThreshold.
	DiscountThreshold float64
}

// Classify returns the notification kind for the change from prev to cur.
//
// Precedence when several conditions hold:
// LowestEver > BackInStock > PriceDrop > ThresholdMet.
func (c Classifier) Classify(prev *products.Product, cur *products.Scraped) Kind {
	if prev == nil || cur == nil {
		return None
	}
	dropped := prev.CurrentPrice > 0 && cur.CurrentPrice < prev.CurrentPrice

	switch {
	case prev.LowestPrice > 0 && cur.CurrentPrice > 0 && cur.CurrentPrice <= prev.LowestPrice &&
		(prev.CurrentPrice == 0 || dropped):
		return LowestEver
	case prev.IsOutOfStock && !cur.IsOutOfStock:
		return BackInStock
	case dropped:
		return PriceDrop
	case len(TargetsCrossed(prev, cur)) > 0 || c.discountCrossed(prev, cur):
		return ThresholdMet
	}
	return None
}

func (c Classifier) threshold() float64 {
	if c.DiscountThreshold <= 0 {
		return DefaultDiscountThreshold
	}
	return c.DiscountThreshold
}

func (c Classifier) discountCrossed(prev *products.Product, cur *products.Scraped) bool {
	t := c.threshold()
	return cur.DiscountRate >= t && prev.DiscountRate < t
}

// TargetsCrossed returns the subscribers whose target price was reached by
// cur while prev was still above it.
func TargetsCrossed(prev *products.Product, cur *products.Scraped) []products.Subscriber {
	var out []products.Subscriber
	for _, u := range prev.Users {
		if u.TargetPrice == nil {
			continue
		}
		t := *u.TargetPrice
		if cur.CurrentPrice > 0 && cur.CurrentPrice <= t && (prev.CurrentPrice == 0 || prev.CurrentPrice > t) {
			out = append(out, u)
		}
	}
	return out
}

// Recipients returns the addresses that should receive a kind notification
// for updated. ThresholdMet raised only by per-user targets goes to those
// users alone; every other kind goes to all subscribers.
func (c Classifier) Recipients(kind Kind, prev *products.Product, cur *products.Scraped, updated *products.Product) []string {
	if kind == None {
		return nil
	}
	if kind == ThresholdMet && !c.discountCrossed(prev, cur) {
		crossed := TargetsCrossed(prev, cur)
		emails := make([]string, 0, len(crossed))
		for _, u := range crossed {
			emails = append(emails, u.Email)
		}
		return emails
	}
	return updated.Emails()
}
