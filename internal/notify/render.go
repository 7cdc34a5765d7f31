package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/valeevte/PriceTracker/internal/products"
)

// Content is a rendered notification ready for delivery.
type Content struct {
	Subject string
	Body    string
}

const titleLimit = 20

var subjects = map[Kind]string{
	Welcome:      "Welcome to Price Tracking for %s",
	PriceDrop:    "Price Drop Alert for %s",
	LowestEver:   "Lowest Price Alert for %s",
	BackInStock:  "%s is now back in stock!",
	ThresholdMet: "Discount Alert for %s",
}

var bodies = template.Must(template.New("mail").Parse(`
{{define "WELCOME"}}<div>
  <h2>Welcome to PriceTracker</h2>
  <p>You are now tracking {{.Title}}.</p>
  <p>We will email you when the price drops, hits a new low, or the item is back in stock.</p>
  <p><a href="{{.URL}}" target="_blank" rel="noopener noreferrer">View the product</a></p>
</div>{{end}}
{{define "PRICE_DROP"}}<div>
  <h4>The price of {{.Title}} dropped to {{.Price}}.</h4>
  <p><a href="{{.URL}}" target="_blank" rel="noopener noreferrer">Check it out</a>.</p>
</div>{{end}}
{{define "LOWEST_EVER"}}<div>
  <h4>{{.Title}} has reached its lowest price ever: {{.Price}}.</h4>
  <p>Grab the product <a href="{{.URL}}" target="_blank" rel="noopener noreferrer">here</a> now.</p>
</div>{{end}}
{{define "BACK_IN_STOCK"}}<div>
  <h4>{{.Title}} is now restocked.</h4>
  <p>Grab yours <a href="{{.URL}}" target="_blank" rel="noopener noreferrer">here</a> before it runs out again.</p>
</div>{{end}}
{{define "THRESHOLD_MET"}}<div>
  <h4>{{.Title}} is now available at {{.Price}}, within your alert range.</h4>
  <p>Grab it right away from <a href="{{.URL}}" target="_blank" rel="noopener noreferrer">here</a>.</p>
</div>{{end}}
`))

type view struct {
	Title string
	URL   string
	Price string
}

// Render builds the subject and HTML body for info under kind.
func Render(info products.Info, kind Kind) (Content, error) {
	subject, ok := subjects[kind]
	if !ok {
		return Content{}, fmt.Errorf("render: unsupported notification kind %q", kind)
	}
	short := shortTitle(info.Title)

	v := view{Title: short, URL: info.URL, Price: formatPrice(info.Price, info.Currency)}
	var buf bytes.Buffer
	if err := bodies.ExecuteTemplate(&buf, string(kind), v); err != nil {
		return Content{}, fmt.Errorf("render %s: %w", kind, err)
	}
	return Content{Subject: fmt.Sprintf(subject, short), Body: buf.String()}, nil
}

func shortTitle(title string) string {
	r := []rune(title)
	if len(r) <= titleLimit {
		return title
	}
	return string(r[:titleLimit]) + "..."
}

func formatPrice(price float64, currency string) string {
	return fmt.Sprintf("%s%.2f", currency, price)
}
