// Package listing holds the list/table controller shared by every admin
// screen: filters, pagination and fetch sequencing.
package listing

import (
	"strings"

	"freshbasket/internal/domain"
)

// Tri-state filter values.
const (
	All      = "all"
	Active   = "active"
	Inactive = "inactive"
	Yes      = "true"
	No       = "false"
	Pending  = "pending"
	Approved = "approved"
)

// Attribute keys a Record may expose.
const (
	AttrCategory     = "category"
	AttrStatus       = "status"
	AttrShowOnHome   = "showOnHome"
	AttrMainCategory = "mainCategory"
	AttrBusinessType = "businessType"
	AttrApproval     = "approval"
)

// Record is one row of a list screen as seen by Filter.
type Record interface {
	// SearchText returns the fields the free-text search matches against.
	SearchText() []string
	// Attr returns the attribute value for key; ok is false when the entity
	// has no such attribute.
	Attr(key string) (value string, ok bool)
}

// Filter is the set of criteria on a list screen. Empty or "all" criteria are
// ignored; the rest are combined with AND.
type Filter struct {
	Search       string
	Category     string
	Status       string // all | active | inactive
	ShowOnHome   string // all | true | false
	MainCategory string
	BusinessType string
	Approval     string // all | pending | approved
}

func (f Filter) criteria() map[string]string {
	out := map[string]string{}
	add := func(k, v string) {
		v = strings.TrimSpace(v)
		if v != "" && v != All {
			out[k] = v
		}
	}
	add(AttrCategory, f.Category)
	add(AttrStatus, f.Status)
	add(AttrShowOnHome, f.ShowOnHome)
	add(AttrMainCategory, f.MainCategory)
	add(AttrBusinessType, f.BusinessType)
	add(AttrApproval, f.Approval)
	return out
}

// Match reports whether r passes every active criterion. A criterion on an
// attribute the record does not carry does not apply to it.
func (f Filter) Match(r Record) bool {
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		hit := false
		for _, s := range r.SearchText() {
			if strings.Contains(strings.ToLower(s), q) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	for k, want := range f.criteria() {
		got, ok := r.Attr(k)
		if ok && got != want {
			return false
		}
	}
	return true
}

func (f Filter) IsZero() bool {
	return strings.TrimSpace(f.Search) == "" && len(f.criteria()) == 0
}

// Apply returns the items matching f, preserving order.
func Apply[T Record](items []T, f Filter) []T {
	if f.IsZero() {
		return items
	}
	out := make([]T, 0, len(items))
	for _, it := range items {
		if f.Match(it) {
			out = append(out, it)
		}
	}
	return out
}

func activeAttr(b bool) string {
	if b {
		return Active
	}
	return Inactive
}

func boolAttr(b bool) string {
	if b {
		return Yes
	}
	return No
}

// Product rows.
type Product domain.Product

func (p Product) SearchText() []string {
	return []string{p.Name, p.SKU, p.Brand, p.Barcode}
}

func (p Product) Attr(key string) (string, bool) {
	switch key {
	case AttrCategory:
		return p.Category.ID, true
	case AttrStatus:
		return activeAttr(p.IsActive), true
	}
	return "", false
}

type Category domain.Category

func (c Category) SearchText() []string { return []string{c.Name, c.MainCategory} }

func (c Category) Attr(key string) (string, bool) {
	switch key {
	case AttrStatus:
		return activeAttr(c.IsActive), true
	case AttrShowOnHome:
		return boolAttr(c.ShowOnHome), true
	case AttrMainCategory:
		return c.MainCategory, true
	}
	return "", false
}

type InventoryItem domain.InventoryItem

func (i InventoryItem) SearchText() []string { return []string{i.ItemName, i.Category} }

func (i InventoryItem) Attr(key string) (string, bool) {
	if key == AttrCategory {
		return i.Category, true
	}
	return "", false
}

type Merchant domain.MerchantEnquiry

func (m Merchant) SearchText() []string {
	return []string{m.BusinessName, m.ContactPerson, m.Email, m.Phone}
}

func (m Merchant) Attr(key string) (string, bool) {
	switch key {
	case AttrBusinessType:
		return m.BusinessType, true
	case AttrApproval:
		if m.Approved {
			return Approved, true
		}
		return Pending, true
	}
	return "", false
}

type User domain.User

func (u User) SearchText() []string { return []string{u.Name, u.Email} }

func (u User) Attr(key string) (string, bool) {
	if key == AttrStatus {
		return activeAttr(bool(u.Status)), true
	}
	return "", false
}
