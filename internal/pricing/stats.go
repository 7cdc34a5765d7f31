// Package pricing folds price observations into history aggregates.
//
// Sums are accumulated in decimal to avoid float drift over long histories.
// The average is rounded to two places, half away from zero, then clamped
// into [Lowest, Highest] so sub-cent prices cannot push it out of range.
package pricing

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/valeevte/PriceTracker/internal/products"
)

// AveragePlaces is the number of decimal places kept in Stats.Average.
const AveragePlaces = 2

// Usable reports whether price can enter a history: finite and positive.
func Usable(price float64) bool {
	return price > 0 && !math.IsInf(price, 0) && !math.IsNaN(price)
}

// Stats are the aggregates derived from a full price history.
type Stats struct {
	Lowest  float64
	Highest float64
	Average float64
}

// Summarize computes the aggregates of history. An empty history yields zero Stats.
func Summarize(history []products.PricePoint) Stats {
	if len(history) == 0 {
		return Stats{}
	}

	lowest := history[0].Price
	highest := history[0].Price
	sum := decimal.Zero
	for _, p := range history {
		if p.Price < lowest {
			lowest = p.Price
		}
		if p.Price > highest {
			highest = p.Price
		}
		sum = sum.Add(decimal.NewFromFloat(p.Price))
	}

	avg, _ := sum.Div(decimal.NewFromInt(int64(len(history)))).Round(AveragePlaces).Float64()
	if avg < lowest {
		avg = lowest
	}
	if avg > highest {
		avg = highest
	}
	return Stats{Lowest: lowest, Highest: highest, Average: avg}
}

// Append returns a new history with price observed at ts added at the end.
// The input slice is never modified.
func Append(history []products.PricePoint, price float64, ts time.Time) []products.PricePoint {
	out := make([]products.PricePoint, len(history), len(history)+1)
	copy(out, history)
	return append(out, products.PricePoint{Price: price, ObservedAt: ts})
}

// Apply appends the observation to p's history and refreshes its aggregates.
func Apply(p *products.Product, price float64, ts time.Time) {
	p.PriceHistory = Append(p.PriceHistory, price, ts)
	st := Summarize(p.PriceHistory)
	p.LowestPrice = st.Lowest
	p.HighestPrice = st.Highest
	p.AveragePrice = st.Average
}
