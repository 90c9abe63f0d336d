package draft

import (
	"errors"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"freshbasket/internal/pricing"
)

// Derivation keeps a discount field in step with its mrp and price siblings.
// Scope is a nested object ("pricing") or, with List set, a list of records
// ("variants").
type Derivation struct {
	Scope    string
	List     bool
	MRP      string
	Price    string
	Discount string
}

func (dv Derivation) discountPath() Path {
	if dv.List {
		return Indexed(dv.Scope, Each, dv.Discount)
	}
	return Nested(dv.Scope, dv.Discount)
}

// Schema describes one entity's draft: its blank template and how fields are
// treated on edit and on submit.
type Schema struct {
	Name     string
	Template func() Draft
	// Rows holds blank records appended to record lists such as variants.
	Rows      map[string]func() map[string]any
	Required  []Path
	Numbers   []Path
	Integers  []Path
	Booleans  []Path
	Lists     []Path // string lists; blank entries are dropped on submit
	Delimited []Path // string lists edited as one comma separated input
	Derived   []Derivation
	Server    []string // server-assigned keys, never sent back
}

func (s *Schema) isDerived(p Path) bool {
	for _, dv := range s.Derived {
		if p.Matches(dv.discountPath()) {
			return true
		}
	}
	return false
}

func (s *Schema) in(paths []Path, p Path) bool {
	for _, q := range paths {
		if p.Matches(q) {
			return true
		}
	}
	return false
}

// Form is the controller behind an add or edit screen.
type Form struct {
	schema *Schema
	draft  Draft
}

func New(s *Schema) *Form { return &Form{schema: s, draft: s.Template()} }

// Load starts editing an existing record.
func Load(s *Schema, d Draft) *Form {
	if d == nil {
		d = s.Template()
	}
	return &Form{schema: s, draft: d}
}

func (f *Form) Schema() *Schema { return f.schema }
func (f *Form) Draft() Draft { return f.draft }
func (f *Form) Reset() { f.draft = f.schema.Template() }

// Set updates one field and recomputes derived fields that depend on it.
func (f *Form) Set(p Path, v any) error {
	if f.schema.isDerived(p) {
		return fmt.Errorf("%w: %s", ErrDerivedField, p)
	}
	next, err := f.draft.Set(p, v)
	if err != nil {
		return err
	}
	f.draft = f.derive(next, p)
	return nil
}

func (f *Form) derive(d Draft, changed Path) Draft {
	for _, dv := range f.schema.Derived {
		var mrpPath, pricePath, outPath Path
		switch {
		case !dv.List && changed.kind == KindNested && changed.parent == dv.Scope:
			mrpPath, pricePath, outPath = Nested(dv.Scope, dv.MRP), Nested(dv.Scope, dv.Price), Nested(dv.Scope, dv.Discount)
		case dv.List && changed.kind == KindIndexed && changed.parent == dv.Scope:
			i := changed.index
			mrpPath, pricePath, outPath = Indexed(dv.Scope, i, dv.MRP), Indexed(dv.Scope, i, dv.Price), Indexed(dv.Scope, i, dv.Discount)
		default:
			continue
		}
		if changed.key != dv.MRP && changed.key != dv.Price {
			continue
		}
		mv, _ := d.Get(mrpPath)
		pv, _ := d.Get(pricePath)
		mrp, ok1 := pricing.Number(mv)
		price, ok2 := pricing.Number(pv)
		if !ok1 || !ok2 {
			continue
		}
		pct, ok := pricing.Discount(mrp, price)
		if !ok {
			continue
		}
		if next, err := d.Set(outPath, pct); err == nil {
			d = next
		}
	}
	return d
}

// Apply copies submitted form values into the draft. Names outside the
// template, derived fields and malformed names are skipped. Boolean fields
// absent from values are unchecked checkboxes and become false.
func (f *Form) Apply(values url.Values) error {
	known := f.schema.Template()
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		p, err := ParsePath(k)
		if err != nil {
			continue
		}
		if _, ok := known[p.Root()]; !ok || f.schema.isDerived(p) {
			continue
		}
		raw := values.Get(k)
		switch {
		case f.schema.in(f.schema.Booleans, p):
			err = f.Set(p, true)
		case f.schema.in(f.schema.Delimited, p):
			err = f.SetDelimited(p, raw)
		default:
			err = f.Set(p, raw)
		}
		if errors.Is(err, ErrIndex) {
			continue
		}
		if err != nil {
			return err
		}
	}

	for _, b := range f.schema.Booleans {
		for _, p := range expand(f.draft, b) {
			if _, ok := values[p.String()]; ok {
				continue
			}
			if err := f.Set(p, false); err != nil && !errors.Is(err, ErrIndex) {
				return err
			}
		}
	}
	return nil
}

// AddItem appends an empty entry to a string list (e.g. one more highlight row).
func (f *Form) AddItem(list Path) error { return f.append(list, "") }

func (f *Form) RemoveItem(list Path, i int) error {
	next, err := f.draft.Remove(list, i)
	if err != nil {
		return err
	}
	f.draft = next
	return nil
}

// AddRow appends the schema's blank record to a record list.
func (f *Form) AddRow(list string) error {
	mk, ok := f.schema.Rows[list]
	if !ok {
		return fmt.Errorf("%w: %s has no row template", ErrPath, list)
	}
	return f.append(Flat(list), mk())
}

func (f *Form) RemoveRow(list string, i int) error { return f.RemoveItem(Flat(list), i) }

func (f *Form) append(list Path, v any) error {
	next, err := f.draft.Append(list, v)
	if err != nil {
		return err
	}
	f.draft = next
	return nil
}

// SetDelimited stores a comma separated input as a list of trimmed entries.
func (f *Form) SetDelimited(p Path, s string) error {
	var items []any
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	if items == nil {
		items = []any{}
	}
	return f.Set(p, items)
}

func (f *Form) Delimited(p Path) string { return strings.Join(f.draft.Strings(p), ", ") }

// AddChip commits a chip-input entry to the list at p.
func (f *Form) AddChip(p Path, raw string, limit int) (bool, error) {
	next, ok := AddChip(f.draft.Strings(p), raw, limit)
	if !ok {
		return false, nil
	}
	return true, f.Set(p, toAny(next))
}

func (f *Form) RemoveChip(p Path, i int) error {
	return f.Set(p, toAny(RemoveChip(f.draft.Strings(p), i)))
}

// PopChip drops the last chip of the list at p.
func (f *Form) PopChip(p Path) error {
	return f.Set(p, toAny(PopChip(f.draft.Strings(p))))
}

// Missing lists required fields that are absent or blank.
func (f *Form) Missing() []string {
	var out []string
	for _, p := range f.schema.Required {
		for _, cp := range expand(f.draft, p) {
			v, ok := f.draft.Get(cp)
			if !ok || v == nil {
				out = append(out, cp.String())
				continue
			}
			if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
				out = append(out, cp.String())
			}
		}
	}
	return out
}

// Validate reports missing required fields as ErrValidation.
func (f *Form) Validate() error {
	if missing := f.Missing(); len(missing) > 0 {
		return fmt.Errorf("%w: %s required", ErrValidation, strings.Join(missing, ", "))
	}
	return nil
}

// Payload is the request body for create/update: numeric fields coerced to
// numbers, blank list entries dropped, server-assigned keys removed.
func (f *Form) Payload() (map[string]any, error) {
	out := f.draft.Clone()
	for _, k := range f.schema.Server {
		delete(out, k)
	}
	var errs []error
	for _, p := range f.schema.Numbers {
		errs = append(errs, coerce(out, p, false)...)
	}
	for _, p := range f.schema.Integers {
		errs = append(errs, coerce(out, p, true)...)
	}
	for _, p := range append(append([]Path(nil), f.schema.Lists...), f.schema.Delimited...) {
		v, ok := out.Get(p)
		if !ok || v == nil {
			continue
		}
		list, ok := v.([]any)
		if !ok {
			continue
		}
		clean := make([]any, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					clean = append(clean, s)
				}
			}
		}
		put(out, p, clean)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrValidation, errors.Join(errs...))
	}
	return out, nil
}

func coerce(d Draft, p Path, integer bool) []error {
	var errs []error
	for _, cp := range expand(d, p) {
		v, ok := d.Get(cp)
		if !ok {
			continue
		}
		var n float64
		switch x := v.(type) {
		case float64:
			n = x
		case int:
			n = float64(x)
		case string:
			// a blank number field is sent as 0
			if x = strings.TrimSpace(x); x != "" {
				parsed, err := strconv.ParseFloat(x, 64)
				if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
					errs = append(errs, fmt.Errorf("%s must be a number", cp))
					continue
				}
				n = parsed
			}
		case nil:
		default:
			continue
		}
		if integer {
			put(d, cp, int(math.Trunc(n)))
		} else {
			put(d, cp, n)
		}
	}
	return errs
}

// expand resolves an Each path against the current list length.
func expand(d Draft, p Path) []Path {
	if p.kind != KindIndexed || p.index != Each {
		return []Path{p}
	}
	list := d.List(Flat(p.parent))
	out := make([]Path, 0, len(list))
	for i := range list {
		out = append(out, p.At(i))
	}
	return out
}

// put writes in place; only used on deep copies.
func put(d Draft, p Path, v any) {
	switch p.kind {
	case KindFlat:
		d[p.key] = v
	case KindNested:
		if sub, ok := d[p.parent].(map[string]any); ok {
			sub[p.key] = v
		}
	case KindIndexed:
		list, ok := d[p.parent].([]any)
		if !ok || p.index < 0 || p.index >= len(list) {
			return
		}
		if p.key == "" {
			list[p.index] = v
		} else if elem, ok := list[p.index].(map[string]any); ok {
			elem[p.key] = v
		}
	}
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func formatNumber(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
