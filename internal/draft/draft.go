// Package draft holds in-memory copies of records being created or edited.
//
// A Draft is a JSON-shaped tree (map[string]any, []any and scalars). Updates
// never mutate a Draft in place: Set returns a new top-level map and clones
// exactly the sub-object or list element on the path, so untouched siblings
// keep their identity.
package draft

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrPath         = errors.New("invalid field path")
	ErrShape        = errors.New("field has unexpected shape")
	ErrIndex        = errors.New("list index out of range")
	ErrDerivedField = errors.New("field is derived and cannot be edited")
	ErrValidation   = errors.New("validation failed")
)

type Draft map[string]any

// FromJSON decodes a record as returned by the API.
func FromJSON(b []byte) (Draft, error) {
	var d Draft
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, err
	}
	if d == nil {
		d = Draft{}
	}
	return d, nil
}

// FromValue converts any JSON-encodable record (struct or map) into a Draft.
func FromValue(v any) (Draft, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return FromJSON(b)
}

func (d Draft) Get(p Path) (any, bool) {
	switch p.kind {
	case KindFlat:
		v, ok := d[p.key]
		return v, ok
	case KindNested:
		sub, ok := d[p.parent].(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := sub[p.key]
		return v, ok
	case KindIndexed:
		list, ok := d[p.parent].([]any)
		if !ok || p.index < 0 || p.index >= len(list) {
			return nil, false
		}
		if p.key == "" {
			return list[p.index], true
		}
		elem, ok := list[p.index].(map[string]any)
		if !ok {
			return nil, false
		}
		v, ok := elem[p.key]
		return v, ok
	}
	return nil, false
}

// String returns the field as text for form inputs.
func (d Draft) String(p Path) string {
	v, ok := d.Get(p)
	if !ok || v == nil {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case float64:
		return formatNumber(x)
	default:
		return fmt.Sprint(x)
	}
}

// Set returns a copy of d with the field at p replaced by v.
func (d Draft) Set(p Path, v any) (Draft, error) {
	out := cloneMap(d)
	switch p.kind {
	case KindFlat:
		if p.key == "" {
			return d, ErrPath
		}
		out[p.key] = v
	case KindNested:
		var sub map[string]any
		switch cur := d[p.parent].(type) {
		case map[string]any:
			sub = cloneMap(cur)
		case nil:
			sub = map[string]any{}
		default:
			return d, fmt.Errorf("%w: %s is not an object", ErrShape, p.parent)
		}
		sub[p.key] = v
		out[p.parent] = sub
	case KindIndexed:
		list, ok := d[p.parent].([]any)
		if !ok {
			return d, fmt.Errorf("%w: %s is not a list", ErrShape, p.parent)
		}
		if p.index < 0 || p.index >= len(list) {
			return d, fmt.Errorf("%w: %s", ErrIndex, p)
		}
		next := append([]any(nil), list...)
		if p.key == "" {
			next[p.index] = v
		} else {
			elem, ok := list[p.index].(map[string]any)
			if !ok {
				return d, fmt.Errorf("%w: %s element is not an object", ErrShape, p.parent)
			}
			elem = cloneMap(elem)
			elem[p.key] = v
			next[p.index] = elem
		}
		out[p.parent] = next
	default:
		return d, ErrPath
	}
	return out, nil
}

// List returns the list at a Flat or Nested path.
func (d Draft) List(p Path) []any {
	v, _ := d.Get(p)
	list, _ := v.([]any)
	return list
}

// Strings returns the list at p as strings.
func (d Draft) Strings(p Path) []string {
	list := d.List(p)
	out := make([]string, 0, len(list))
	for _, v := range list {
		if s, ok := v.(string); ok {
			out = append(out, s)
		} else if v != nil {
			out = append(out, fmt.Sprint(v))
		}
	}
	return out
}

// Append returns a copy of d with v appended to the list at p.
func (d Draft) Append(p Path, v any) (Draft, error) {
	if p.kind == KindIndexed {
		return d, ErrPath
	}
	cur, ok := d.Get(p)
	var list []any
	if ok && cur != nil {
		if list, ok = cur.([]any); !ok {
			return d, fmt.Errorf("%w: %s is not a list", ErrShape, p)
		}
	}
	next := make([]any, len(list), len(list)+1)
	copy(next, list)
	return d.Set(p, append(next, v))
}

// Remove returns a copy of d without element i of the list at p.
func (d Draft) Remove(p Path, i int) (Draft, error) {
	if p.kind == KindIndexed {
		return d, ErrPath
	}
	list := d.List(p)
	if i < 0 || i >= len(list) {
		return d, fmt.Errorf("%w: %s[%d]", ErrIndex, p, i)
	}
	next := make([]any, 0, len(list)-1)
	next = append(next, list[:i]...)
	next = append(next, list[i+1:]...)
	return d.Set(p, next)
}

// Clone deep-copies d.
func (d Draft) Clone() Draft {
	return deepCopy(map[string]any(d)).(map[string]any)
}

func (d Draft) JSON() ([]byte, error) { return json.Marshal(map[string]any(d)) }

func cloneMap[M ~map[string]any](m M) M {
	out := make(M, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

func deepCopy(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, vv := range x {
			out[k] = deepCopy(vv)
		}
		return out
	case Draft:
		return deepCopy(map[string]any(x))
	case []any:
		out := make([]any, len(x))
		for i, vv := range x {
			out[i] = deepCopy(vv)
		}
		return out
	default:
		return v
	}
}
