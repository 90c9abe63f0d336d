package draft

import (
	"fmt"
	"strconv"
	"strings"
)

type Kind int

const (
	KindFlat Kind = iota
	KindNested
	KindIndexed
)

// Each addresses every element of a list in schema paths.
const Each = -1

// Path addresses one field of a draft. It is built with Flat, Nested, Indexed
// or Item and resolved by Draft.Get / Draft.Set.
type Path struct {
	kind   Kind
	parent string // nested parent object or indexed list
	key    string // field name; empty for a primitive list item
	index  int
}

func Flat(key string) Path { return Path{kind: KindFlat, key: key} }

func Nested(parent, key string) Path { return Path{kind: KindNested, parent: parent, key: key} }

func Indexed(list string, index int, key string) Path {
	return Path{kind: KindIndexed, parent: list, index: index, key: key}
}

// Item addresses a primitive element of a top-level list (e.g. highlights[2]).
func Item(list string, index int) Path { return Indexed(list, index, "") }

func (p Path) Kind() Kind { return p.kind }
func (p Path) Parent() string { return p.parent }
func (p Path) Key() string { return p.key }
func (p Path) Index() int { return p.index }
func (p Path) IsItem() bool { return p.kind == KindIndexed && p.key == "" }
func (p Path) Root() string {
	if p.kind == KindFlat {
		return p.key
	}
	return p.parent
}

// At pins an Each path to one element.
func (p Path) At(i int) Path {
	p.index = i
	return p
}

// Matches reports whether p equals q, treating Each in q as a wildcard.
func (p Path) Matches(q Path) bool {
	if p.kind != q.kind || p.parent != q.parent || p.key != q.key {
		return false
	}
	return p.kind != KindIndexed || q.index == Each || p.index == q.index
}

// String renders the path as an HTML form field name.
func (p Path) String() string {
	switch p.kind {
	case KindNested:
		return p.parent + "." + p.key
	case KindIndexed:
		idx := "*"
		if p.index != Each {
			idx = strconv.Itoa(p.index)
		}
		s := p.parent + "[" + idx + "]"
		if p.key != "" {
			s += "." + p.key
		}
		return s
	default:
		return p.key
	}
}

// ParsePath converts a form field name into a Path:
//
//	name               Flat("name")
//	pricing.mrp        Nested("pricing", "mrp")
//	variants[2].price  Indexed("variants", 2, "price")
//	highlights[0]      Item("highlights", 0)
func ParsePath(name string) (Path, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Path{}, fmt.Errorf("%w: empty field name", ErrPath)
	}
	if open := strings.IndexByte(name, '['); open >= 0 {
		end := strings.IndexByte(name, ']')
		if end < open || open == 0 {
			return Path{}, fmt.Errorf("%w: %q", ErrPath, name)
		}
		idx, err := strconv.Atoi(name[open+1 : end])
		if err != nil || idx < 0 {
			return Path{}, fmt.Errorf("%w: bad index in %q", ErrPath, name)
		}
		rest := name[end+1:]
		switch {
		case rest == "":
			return Item(name[:open], idx), nil
		case strings.HasPrefix(rest, ".") && len(rest) > 1 && !strings.ContainsAny(rest[1:], ".[]"):
			return Indexed(name[:open], idx, rest[1:]), nil
		default:
			return Path{}, fmt.Errorf("%w: %q", ErrPath, name)
		}
	}
	parts := strings.Split(name, ".")
	switch {
	case len(parts) == 1:
		return Flat(name), nil
	case len(parts) == 2 && parts[0] != "" && parts[1] != "":
		return Nested(parts[0], parts[1]), nil
	default:
		return Path{}, fmt.Errorf("%w: %q", ErrPath, name)
	}
}
