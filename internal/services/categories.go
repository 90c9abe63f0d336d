package services

import (
	"context"
	"fmt"
	"net/url"

	"freshbasket/internal/api"
	"freshbasket/internal/domain"
	"freshbasket/internal/draft"
	"freshbasket/internal/listing"
)

const NewCategoryKey = "category:new"

func CategoryKey(id string) string { return "category:" + id }

// CategoryView is one client-side page of categories.
type CategoryView struct {
	Items []domain.Category
	Info  domain.PageInfo
	Total int
}

// CategoryService serves the category screen. Categories are a small
// collection: fetched whole, filtered and paged in memory.
type CategoryService struct {
	API   *api.Client
	Forms *Forms
	Seq   *listing.Sequencers
}

func NewCategoryService(client *api.Client, forms *Forms, seq *listing.Sequencers) *CategoryService {
	return &CategoryService{API: client, Forms: forms, Seq: seq}
}

func (s *CategoryService) List(ctx context.Context, sid, cred string, f listing.Filter, page, size int) (CategoryView, error) {
	tk := s.Seq.For(sid + ":categories").Begin(ctx)
	defer tk.Done()
	cats, err := s.API.ListCategories(tk.Context(), cred)
	if !tk.Current() {
		return CategoryView{}, ErrStale
	}
	if err != nil {
		return CategoryView{}, err
	}
	SortCategories(cats)
	rows := make([]listing.Category, len(cats))
	for i, c := range cats {
		rows[i] = listing.Category(c)
	}
	matched := listing.Apply(rows, f)
	pageRows, info := listing.Paginate(matched, page, size)
	out := make([]domain.Category, len(pageRows))
	for i, r := range pageRows {
		out[i] = domain.Category(r)
	}
	return CategoryView{Items: out, Info: info, Total: len(cats)}, nil
}

func (s *CategoryService) find(ctx context.Context, cred, id string) (draft.Draft, error) {
	cats, err := s.API.ListCategories(ctx, cred)
	if err != nil {
		return nil, err
	}
	for _, c := range cats {
		if c.ID == id {
			return draft.FromValue(c)
		}
	}
	return nil, &api.APIError{Status: 404, Message: fmt.Sprintf("Category %s not found", id)}
}

func (s *CategoryService) OpenNew(ctx context.Context, sid string) (*draft.Form, error) {
	return s.Forms.Open(ctx, sid, NewCategoryKey, CategorySchema, nil)
}

func (s *CategoryService) StartEdit(ctx context.Context, sid, cred, id string) (*draft.Form, error) {
	return s.Forms.Start(ctx, sid, CategoryKey(id), CategorySchema, func() (draft.Draft, error) {
		return s.find(ctx, cred, id)
	})
}

func (s *CategoryService) OpenEdit(ctx context.Context, sid, cred, id string) (*draft.Form, error) {
	return s.Forms.Open(ctx, sid, CategoryKey(id), CategorySchema, func() (draft.Draft, error) {
		return s.find(ctx, cred, id)
	})
}

// Save applies the posted form and creates or updates the category. The
// draft is dropped on success and kept on failure.
func (s *CategoryService) Save(ctx context.Context, sid, cred, id string, form *draft.Form, values url.Values) error {
	key := NewCategoryKey
	if id != "" {
		key = CategoryKey(id)
	}
	err := form.Apply(values)
	if err == nil {
		err = form.Validate()
	}
	var payload map[string]any
	if err == nil {
		payload, err = form.Payload()
	}
	if err == nil {
		if id == "" {
			err = s.API.CreateCategory(ctx, cred, payload)
		} else {
			err = s.API.UpdateCategory(ctx, cred, id, payload)
		}
	}
	if err != nil {
		if serr := s.Forms.Save(ctx, sid, key, form); serr != nil {
			return serr
		}
		return err
	}
	return s.Forms.Discard(ctx, sid, key)
}

func (s *CategoryService) Discard(ctx context.Context, sid, id string) error {
	key := NewCategoryKey
	if id != "" {
		key = CategoryKey(id)
	}
	return s.Forms.Discard(ctx, sid, key)
}

func (s *CategoryService) Delete(ctx context.Context, cred, id string) error {
	return s.API.DeleteCategory(ctx, cred, id)
}
