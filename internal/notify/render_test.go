package notify

import (
	"context"
	"strings"
	"testing"

	"github.com/valeevte/PriceTracker/internal/products"
)

func TestRender(t *testing.T) {
	info := products.Info{
		Title:    "Noise Cancelling Headphones, Wireless",
		URL:      "https://shop.example.com/dp/B0001",
		Price:    199.5,
		Currency: "$",
	}
	for _, kind := range []Kind{Welcome, PriceDrop, LowestEver, BackInStock, ThresholdMet} {
		t.Run(string(kind), func(t *testing.T) {
			c, err := Render(info, kind)
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(c.Subject, "Noise Cancelling Hea...") {
				t.Errorf("subject: %q", c.Subject)
			}
			if !strings.Contains(c.Body, info.URL) {
				t.Errorf("body missing url: %q", c.Body)
			}
		})
	}
}

func TestRenderPrice(t *testing.T) {
	c, err := Render(products.Info{Title: "Lamp", URL: "https://x.test/lamp", Price: 9.5, Currency: "€"}, PriceDrop)
	if err != nil {
		t.Fatal(err)
	}
	if c.Subject != "Price Drop Alert for Lamp" {
		t.Errorf("subject: %q", c.Subject)
	}
	if !strings.Contains(c.Body, "€9.50") {
		t.Errorf("body: %q", c.Body)
	}
}

func TestRenderEscapes(t *testing.T) {
	c, err := Render(products.Info{Title: "<b>x</b>", URL: "https://x.test"}, BackInStock)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(c.Body, "<b>x</b>") {
		t.Errorf("title not escaped: %q", c.Body)
	}
}

func TestRenderUnknownKind(t *testing.T) {
	if _, err := Render(products.Info{}, None); err == nil {
		t.Error("expected error for NONE")
	}
}

type recordingSender struct {
	to []string
}

func (r *recordingSender) Send(_ context.Context, _ Content, to []string) error {
	r.to = append(r.to, to...)
	return nil
}

func TestNotifierDelegates(t *testing.T) {
	rs := &recordingSender{}
	n := NewNotifier(rs)
	c, err := n.Render(products.Info{Title: "T", URL: "https://x.test"}, Welcome)
	if err != nil {
		t.Fatal(err)
	}
	if err := n.Send(context.Background(), c, []string{"a@example.com"}); err != nil {
		t.Fatal(err)
	}
	if len(rs.to) != 1 {
		t.Errorf("sent to %v", rs.to)
	}
}

func TestNewMailerRequiresHost(t *testing.T) {
	if _, err := NewMailer(MailConfig{}); err == nil {
		t.Error("expected error without host")
	}
}
