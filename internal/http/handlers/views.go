package handlers

import (
	"fmt"
	"strings"

	html "github.com/gofiber/template/html/v2"
	"github.com/shopspring/decimal"

	"freshbasket/internal/domain"
	"freshbasket/internal/draft"
	"freshbasket/internal/listing"
)

// NewEngine loads the page templates from dir with the helpers the draft
// forms and list pagers use.
func NewEngine(dir string) *html.Engine {
	engine := html.New(dir, ".html")
	engine.AddFuncMap(map[string]any{
		"field":    field,
		"checked":  checked,
		"list":     func(d draft.Draft, name string) []any { return d.List(draft.Flat(name)) },
		"joined":   joined,
		"path":     func(list string, i int, key string) string { return draft.Indexed(list, i, key).String() },
		"money":    money,
		"pages":    func(info domain.PageInfo) []int { return listing.Window(info, 5) },
		"prev":     func(info domain.PageInfo) int { return info.Page - 1 },
		"next":     func(info domain.PageInfo) int { return info.Page + 1 },
		"selected": func(a, b string) bool {
			return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
		},
		"opid":    func(op string, i int) string { return fmt.Sprintf("%s:%d", op, i) },
		"pageURL": func(base string, q listing.Query, page int) string {
			q.Page = page
			return listURL(base, q)
		},
	})
	return engine
}

func field(d draft.Draft, name string) string {
	p, err := draft.ParsePath(name)
	if err != nil {
		return ""
	}
	return d.String(p)
}

func checked(d draft.Draft, name string) bool {
	p, err := draft.ParsePath(name)
	if err != nil {
		return false
	}
	v, _ := d.Get(p)
	b, _ := v.(bool)
	return b
}

func joined(d draft.Draft, name string) string {
	p, err := draft.ParsePath(name)
	if err != nil {
		return ""
	}
	return strings.Join(d.Strings(p), ", ")
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
