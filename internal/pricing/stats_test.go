package pricing

import (
	"math"
	"testing"
	"time"

	"github.com/valeevte/PriceTracker/internal/products"
)

func history(prices ...float64) []products.PricePoint {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]products.PricePoint, len(prices))
	for i, p := range prices {
		out[i] = products.PricePoint{Price: p, ObservedAt: base.Add(time.Duration(i) * time.Hour)}
	}
	return out
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		want   Stats
	}{
		{"single", []float64{42.5}, Stats{42.5, 42.5, 42.5}},
		{"rise after dip", []float64{100, 90, 95}, Stats{90, 100, 95}},
		{"rounded average", []float64{10, 10, 10.01}, Stats{10, 10.01, 10}},
		{"half rounds away from zero", []float64{1.00, 1.01}, Stats{1, 1.01, 1.01}},
		{"empty", nil, Stats{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Summarize(history(tt.prices...))
			if got != tt.want {
				t.Errorf("Summarize(%v) = %+v, want %+v", tt.prices, got, tt.want)
			}
		})
	}
}

func TestSummarizeBounds(t *testing.T) {
	cases := [][]float64{
		{1.004, 1.004, 1.004},
		{0.001, 0.002},
		{99.99, 0.01, 50, 12345.67},
		{3, 3, 3, 3, 3, 3, 3},
	}
	for _, c := range cases {
		st := Summarize(history(c...))
		if !(st.Lowest <= st.Average && st.Average <= st.Highest) {
			t.Errorf("%v: bounds violated: %+v", c, st)
		}
		for _, p := range c {
			if p < st.Lowest || p > st.Highest {
				t.Errorf("%v: price %v outside [%v, %v]", c, p, st.Lowest, st.Highest)
			}
		}
	}
}

func TestAppendDoesNotAlias(t *testing.T) {
	h := make([]products.PricePoint, 1, 8)
	h[0] = products.PricePoint{Price: 1}

	a := Append(h, 2, time.Now())
	b := Append(h, 3, time.Now())
	if a[1].Price != 2 || b[1].Price != 3 {
		t.Fatalf("shared backing array: a=%v b=%v", a, b)
	}
	if len(h) != 1 {
		t.Fatalf("input modified: %v", h)
	}
}

func TestApply(t *testing.T) {
	p := &products.Product{PriceHistory: history(100, 90)}
	Apply(p, 95, time.Now())

	if len(p.PriceHistory) != 3 || p.PriceHistory[2].Price != 95 {
		t.Fatalf("history: %+v", p.PriceHistory)
	}
	if p.LowestPrice != 90 || p.HighestPrice != 100 || p.AveragePrice != 95 {
		t.Errorf("aggregates: low=%v high=%v avg=%v", p.LowestPrice, p.HighestPrice, p.AveragePrice)
	}
}

func TestUsable(t *testing.T) {
	for _, v := range []float64{0, -1, math.Inf(1), math.Inf(-1), math.NaN()} {
		if Usable(v) {
			t.Errorf("Usable(%v) = true", v)
		}
	}
	if !Usable(0.01) {
		t.Error("Usable(0.01) = false")
	}
}
