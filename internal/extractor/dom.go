package extractor

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// step matches one element along a descendant path.
type step func(n *html.Node) bool

// selector is a descendant path of steps. When attr is set the value is
// read from that attribute of the last match instead of its text.
type selector struct {
	path []step
	attr string
}

func byClass(classes ...string) selector {
	s := selector{}
	for _, c := range classes {
		s.path = append(s.path, func(n *html.Node) bool { return hasClass(n, c) })
	}
	return s
}

func byID(id string) selector {
	return selector{path: []step{func(n *html.Node) bool { return getAttr(n, "id") == id }}}
}

func byMeta(key, val string) selector {
	return selector{
		path: []step{func(n *html.Node) bool {
			return n.DataAtom == atom.Meta && getAttr(n, key) == val
		}},
		attr: "content",
	}
}

type page struct {
	doc *html.Node
}

func (p page) find(sel selector) *html.Node {
	return findPath(p.doc, sel.path)
}

func findPath(root *html.Node, path []step) *html.Node {
	if len(path) == 0 {
		return root
	}
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if n == root || !path[0](n) {
			return true
		}
		if m := findPath(n, path[1:]); m != nil {
			found = m
			return false
		}
		return true
	})
	return found
}

// walk visits element nodes depth-first until fn returns false.
func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if n.Type == html.ElementNode && !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func (p page) value(sel selector) string {
	n := p.find(sel)
	if n == nil {
		return ""
	}
	if sel.attr != "" {
		return strings.TrimSpace(getAttr(n, sel.attr))
	}
	return collectText(n)
}

func (p page) text(sel selector) string { return p.value(sel) }

func (p page) attr(sel selector, name string) string {
	sel.attr = name
	return p.value(sel)
}

func (p page) meta(key, val string) string { return p.value(byMeta(key, val)) }

func (p page) title() string {
	var title string
	walk(p.doc, func(n *html.Node) bool {
		if n.DataAtom == atom.Title {
			title = collectText(n)
			return false
		}
		return true
	})
	return title
}

// price returns the first positive price among sels.
func (p page) price(sels ...selector) float64 {
	for _, sel := range sels {
		if v := parsePrice(p.value(sel)); v > 0 {
			return v
		}
	}
	return 0
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(getAttr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func getAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func collectText(n *html.Node) string {
	var sb strings.Builder
	var rec func(*html.Node)
	rec = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.DataAtom == atom.Script || n.DataAtom == atom.Style) {
			return
		}
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			rec(c)
		}
	}
	rec(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

// numberToken returns the first run of digits and separators in s.
func numberToken(s string) string {
	start := strings.IndexAny(s, "0123456789")
	if start < 0 {
		return ""
	}
	end := start
	for end < len(s) && strings.IndexByte("0123456789.,", s[end]) >= 0 {
		end++
	}
	return strings.TrimRight(s[start:end], ".,")
}

// parsePrice reads a price such as "$1,299.99", "1.299,99 €" or "19".
// The right-most separator followed by one or two digits is the decimal point.
func parsePrice(s string) float64 {
	tok := numberToken(s)
	if tok == "" {
		return 0
	}
	i := strings.LastIndexAny(tok, ".,")
	intPart, frac := tok, ""
	if i >= 0 && len(tok)-i-1 <= 2 {
		intPart, frac = tok[:i], tok[i+1:]
	}
	intPart = strings.NewReplacer(",", "", ".", "").Replace(intPart)
	if intPart == "" {
		intPart = "0"
	}
	num := intPart
	if frac != "" {
		num += "." + frac
	}
	d, err := decimal.NewFromString(num)
	if err != nil {
		return 0
	}
	f, _ := d.Float64()
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return 0
	}
	return f
}

func percent(s string) float64 {
	return parsePrice(s)
}

func rating(s string) float64 {
	return parsePrice(s)
}

func count(s string) int {
	tok := strings.NewReplacer(",", "", ".", "").Replace(numberToken(s))
	d, err := decimal.NewFromString(tok)
	if err != nil {
		return 0
	}
	return int(d.IntPart())
}

func roundPercent(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(0).Float64()
	return f
}
