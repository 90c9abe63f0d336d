package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"freshbasket/internal/draft"
	"freshbasket/internal/session"
	"freshbasket/internal/validate"
)

// Form actions posted by the edit screens' submit buttons.
const (
	OpSave          = "save"
	OpAddRow        = "add-row"        // add-row:<list>
	OpRemoveRow     = "remove-row"     // remove-row:<list>:<i>
	OpAddVariant    = "add-variant"    // add-variant
	OpRemoveVariant = "remove-variant" // remove-variant:<i>
	OpAddTag        = "add-tag"        // reads the "tag" input
	OpRemoveTag     = "remove-tag"     // remove-tag:<i>
	OpEnter         = "enter"          // default button: commits a typed tag, else saves
	OpPopTag        = "pop-tag"
)

const maxTags = 20

var ErrUnknownOp = errors.New("unknown form action")

// Forms persists drafts between requests of one editing session.
type Forms struct {
	Drafts session.Drafts
}

// Open returns the stored draft for key or, when none exists, a fresh form
// from seed (nil seed means the schema template).
func (f *Forms) Open(ctx context.Context, sid, key string, s *draft.Schema, seed func() (draft.Draft, error)) (*draft.Form, error) {
	b, err := f.Drafts.LoadDraft(ctx, sid, key)
	switch {
	case err == nil:
		d, derr := draft.FromJSON(b)
		if derr == nil {
			return draft.Load(s, d), nil
		}
	case !errors.Is(err, session.ErrNoDraft):
		return nil, err
	}
	return f.Start(ctx, sid, key, s, seed)
}

// Start discards any stored draft for key and begins again from seed.
func (f *Forms) Start(ctx context.Context, sid, key string, s *draft.Schema, seed func() (draft.Draft, error)) (*draft.Form, error) {
	var form *draft.Form
	if seed == nil {
		form = draft.New(s)
	} else {
		d, err := seed()
		if err != nil {
			return nil, err
		}
		form = draft.Load(s, d)
	}
	if err := f.Save(ctx, sid, key, form); err != nil {
		return nil, err
	}
	return form, nil
}

func (f *Forms) Save(ctx context.Context, sid, key string, form *draft.Form) error {
	b, err := form.Draft().JSON()
	if err != nil {
		return err
	}
	return f.Drafts.SaveDraft(ctx, sid, key, b)
}

func (f *Forms) Discard(ctx context.Context, sid, key string) error {
	return f.Drafts.DeleteDraft(ctx, sid, key)
}

// ApplyOp copies the posted values into form and performs op. It reports
// whether op asks for the record to be submitted.
func ApplyOp(form *draft.Form, op string, values url.Values) (submit bool, err error) {
	if err := form.Apply(values); err != nil {
		return false, err
	}
	parts := strings.Split(op, ":")
	arg := func(i int) (int, error) {
		if len(parts) <= i {
			return 0, fmt.Errorf("%w: %s", ErrUnknownOp, op)
		}
		n, ok := validate.Index(parts[i])
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnknownOp, op)
		}
		return n, nil
	}
	list := func() (draft.Path, error) {
		if len(parts) < 2 || parts[1] == "tags" || !isList(form.Schema(), parts[1]) {
			return draft.Path{}, fmt.Errorf("%w: %s", ErrUnknownOp, op)
		}
		return draft.Flat(parts[1]), nil
	}

	switch parts[0] {
	case "", OpSave:
		return true, nil
	case OpEnter:
		if strings.TrimSpace(values.Get("tag")) == "" {
			return true, nil
		}
		return false, addTag(form, values.Get("tag"))
	case OpAddRow:
		p, err := list()
		if err != nil {
			return false, err
		}
		return false, form.AddItem(p)
	case OpRemoveRow:
		p, err := list()
		if err != nil {
			return false, err
		}
		i, err := arg(2)
		if err != nil {
			return false, err
		}
		return false, form.RemoveItem(p, i)
	case OpAddVariant:
		return false, form.AddRow("variants")
	case OpRemoveVariant:
		i, err := arg(1)
		if err != nil {
			return false, err
		}
		return false, form.RemoveRow("variants", i)
	case OpAddTag:
		return false, addTag(form, values.Get("tag"))
	case OpPopTag:
		return false, form.PopChip(draft.Flat("tags"))
	case OpRemoveTag:
		i, err := arg(1)
		if err != nil {
			return false, err
		}
		return false, form.RemoveChip(draft.Flat("tags"), i)
	}
	return false, fmt.Errorf("%w: %s", ErrUnknownOp, op)
}

// addTag commits a typed tag. Blank input is ignored; a rejected tag is
// reported so the user sees why it did not appear.
func addTag(form *draft.Form, raw string) error {
	tag := strings.TrimSpace(raw)
	if tag == "" {
		return nil
	}
	added, err := form.AddChip(draft.Flat("tags"), tag, maxTags)
	if err != nil || added {
		return err
	}
	return fmt.Errorf("%w: tag %q not added (duplicate, contains a comma, or more than %d tags)", draft.ErrValidation, tag, maxTags)
}

func isList(s *draft.Schema, name string) bool {
	for _, p := range s.Lists {
		if p.Kind() == draft.KindFlat && p.Key() == name {
			return true
		}
	}
	return false
}
