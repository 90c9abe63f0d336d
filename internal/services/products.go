package services

import (
	"context"
	"errors"
	"net/url"
	"sort"

	"freshbasket/internal/api"
	"freshbasket/internal/domain"
	"freshbasket/internal/draft"
	"freshbasket/internal/listing"
)

// ErrStale is returned for a list fetch overtaken by a newer one from the
// same session and screen.
var ErrStale = errors.New("superseded by a newer request")

// NewProductKey is the draft key of the add-product form.
const NewProductKey = "product:new"

func ProductKey(id string) string { return "product:" + id }

type ProductService struct {
	API   *api.Client
	Forms *Forms
	Seq   *listing.Sequencers
}

func NewProductService(client *api.Client, forms *Forms, seq *listing.Sequencers) *ProductService {
	return &ProductService{API: client, Forms: forms, Seq: seq}
}

// List fetches one server page. Only the newest fetch per session is applied.
func (s *ProductService) List(ctx context.Context, sid, cred string, q listing.Query) (api.Page[domain.Product], error) {
	tk := s.Seq.For(sid + ":products").Begin(ctx)
	defer tk.Done()
	page, err := s.API.ListProducts(tk.Context(), cred, q)
	if !tk.Current() {
		return api.Page[domain.Product]{}, ErrStale
	}
	return page, err
}

// Categories returns the category choices for the product form, by order.
func (s *ProductService) Categories(ctx context.Context, cred string) ([]domain.Category, error) {
	cats, err := s.API.ListCategories(ctx, cred)
	if err != nil {
		return nil, err
	}
	SortCategories(cats)
	return cats, nil
}

func (s *ProductService) OpenNew(ctx context.Context, sid string) (*draft.Form, error) {
	return s.Forms.Open(ctx, sid, NewProductKey, ProductSchema, nil)
}

// StartEdit loads the product from the API into a fresh draft.
func (s *ProductService) StartEdit(ctx context.Context, sid, cred, id string) (*draft.Form, error) {
	return s.Forms.Start(ctx, sid, ProductKey(id), ProductSchema, func() (draft.Draft, error) {
		rec, err := s.API.GetProduct(ctx, cred, id)
		if err != nil {
			return nil, err
		}
		return normalizeProduct(draft.Draft(rec)), nil
	})
}

// OpenEdit resumes an edit in progress, loading the product if needed.
func (s *ProductService) OpenEdit(ctx context.Context, sid, cred, id string) (*draft.Form, error) {
	return s.Forms.Open(ctx, sid, ProductKey(id), ProductSchema, func() (draft.Draft, error) {
		rec, err := s.API.GetProduct(ctx, cred, id)
		if err != nil {
			return nil, err
		}
		return normalizeProduct(draft.Draft(rec)), nil
	})
}

// Edit applies one posted action to a product form. When the action is a
// save, the form is validated and sent; a create that succeeds leaves a
// blank form that keeps the chosen category, an update that succeeds drops
// the draft. Failures keep the draft as edited.
func (s *ProductService) Edit(ctx context.Context, sid, cred, id string, form *draft.Form, op string, values url.Values) (saved bool, err error) {
	key := NewProductKey
	if id != "" {
		key = ProductKey(id)
	}
	submit, err := ApplyOp(form, op, values)
	if err != nil || !submit {
		if serr := s.Forms.Save(ctx, sid, key, form); serr != nil {
			return false, serr
		}
		return false, err
	}
	if err := s.submit(ctx, cred, id, form); err != nil {
		if serr := s.Forms.Save(ctx, sid, key, form); serr != nil {
			return false, serr
		}
		return false, err
	}
	if id != "" {
		return true, s.Forms.Discard(ctx, sid, key)
	}
	category := form.Draft().String(draft.Flat("category"))
	form.Reset()
	_ = form.Set(draft.Flat("category"), category)
	return true, s.Forms.Save(ctx, sid, key, form)
}

func (s *ProductService) submit(ctx context.Context, cred, id string, form *draft.Form) error {
	if err := form.Validate(); err != nil {
		return err
	}
	payload, err := form.Payload()
	if err != nil {
		return err
	}
	if id == "" {
		return s.API.CreateProduct(ctx, cred, payload)
	}
	return s.API.UpdateProduct(ctx, cred, id, payload)
}

func (s *ProductService) Discard(ctx context.Context, sid, id string) error {
	key := NewProductKey
	if id != "" {
		key = ProductKey(id)
	}
	return s.Forms.Discard(ctx, sid, key)
}

func (s *ProductService) Delete(ctx context.Context, cred, id string) error {
	return s.API.DeleteProduct(ctx, cred, id)
}

func (s *ProductService) Count(ctx context.Context, cred string) (int, error) {
	return s.API.ProductCount(ctx, cred)
}

// All walks every server page; used by the export.
func (s *ProductService) All(ctx context.Context, cred string, f listing.Filter) ([]domain.Product, error) {
	var out []domain.Product
	q := listing.Query{Page: 1, Limit: listing.LargePage, Filter: f}
	for {
		page, err := s.API.ListProducts(ctx, cred, q)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Items...)
		if !page.Info.HasNextPage || len(page.Items) == 0 {
			return out, nil
		}
		q.Page++
	}
}

// normalizeProduct stores an embedded category reference as its id, which is
// what the form selects and the API accepts.
func normalizeProduct(d draft.Draft) draft.Draft {
	if ref, ok := d["category"].(map[string]any); ok {
		id, _ := ref["_id"].(string)
		if next, err := d.Set(draft.Flat("category"), id); err == nil {
			d = next
		}
	}
	return d
}

// SortCategories orders categories by their display order, then name.
func SortCategories(cats []domain.Category) {
	sort.SliceStable(cats, func(i, j int) bool {
		if cats[i].Order != cats[j].Order {
			return cats[i].Order < cats[j].Order
		}
		return cats[i].Name < cats[j].Name
	})
}
