package services

import (
	"context"
	"net/url"

	"freshbasket/internal/api"
	"freshbasket/internal/domain"
	"freshbasket/internal/draft"
	"freshbasket/internal/listing"
)

const NewInventoryKey = "inventory:new"

// Stock level thresholds for legacy inventory rows.
const lowStock = 5

// InventoryRow is a legacy inventory item with its stock level.
type InventoryRow struct {
	domain.InventoryItem
	Level string
}

type InventoryView struct {
	Rows []InventoryRow
	Info domain.PageInfo
}

// InventoryService serves the legacy inventory screens. Inventory items are
// a separate record type from products and are never converted into them.
type InventoryService struct {
	API   *api.Client
	Forms *Forms
	Seq   *listing.Sequencers
}

func NewInventoryService(client *api.Client, forms *Forms, seq *listing.Sequencers) *InventoryService {
	return &InventoryService{API: client, Forms: forms, Seq: seq}
}

// StockLevel maps a quantity onto in_stock / limited / out_of_stock.
func StockLevel(qty int) string {
	switch {
	case qty >= lowStock:
		return domain.StockInStock
	case qty > 0:
		return domain.StockLimited
	default:
		return domain.StockOutOfStock
	}
}

func (s *InventoryService) List(ctx context.Context, sid, cred string, f listing.Filter, page, size int) (InventoryView, error) {
	tk := s.Seq.For(sid + ":inventory").Begin(ctx)
	defer tk.Done()
	items, err := s.API.ListInventory(tk.Context(), cred)
	if !tk.Current() {
		return InventoryView{}, ErrStale
	}
	if err != nil {
		return InventoryView{}, err
	}
	rows := make([]listing.InventoryItem, len(items))
	for i, it := range items {
		rows[i] = listing.InventoryItem(it)
	}
	pageRows, info := listing.Paginate(listing.Apply(rows, f), page, size)
	out := make([]InventoryRow, len(pageRows))
	for i, r := range pageRows {
		out[i] = InventoryRow{InventoryItem: domain.InventoryItem(r), Level: StockLevel(r.StockQuantity)}
	}
	return InventoryView{Rows: out, Info: info}, nil
}

func (s *InventoryService) OpenNew(ctx context.Context, sid string) (*draft.Form, error) {
	return s.Forms.Open(ctx, sid, NewInventoryKey, InventorySchema, nil)
}

// Add submits the add-inventory form; success clears it.
func (s *InventoryService) Add(ctx context.Context, sid, cred string, form *draft.Form, values url.Values) error {
	err := form.Apply(values)
	if err == nil {
		err = form.Validate()
	}
	var payload map[string]any
	if err == nil {
		payload, err = form.Payload()
	}
	if err == nil {
		err = s.API.AddInventory(ctx, cred, payload)
	}
	if err != nil {
		if serr := s.Forms.Save(ctx, sid, NewInventoryKey, form); serr != nil {
			return serr
		}
		return err
	}
	form.Reset()
	return s.Forms.Discard(ctx, sid, NewInventoryKey)
}

// UpdateStock changes the quantity of one item.
func (s *InventoryService) UpdateStock(ctx context.Context, cred string, item domain.InventoryItem, qty int) error {
	return s.API.UpdateInventory(ctx, cred, item.ID, map[string]any{
		"itemName":      item.ItemName,
		"category":      item.Category,
		"price":         item.Price,
		"stockquantity": qty,
	})
}

// Find returns the item with id from the full list.
func (s *InventoryService) Find(ctx context.Context, cred, id string) (domain.InventoryItem, error) {
	items, err := s.API.ListInventory(ctx, cred)
	if err != nil {
		return domain.InventoryItem{}, err
	}
	for _, it := range items {
		if it.ID == id {
			return it, nil
		}
	}
	return domain.InventoryItem{}, &api.APIError{Status: 404, Message: "Inventory item not found"}
}

func (s *InventoryService) Delete(ctx context.Context, cred, id string) error {
	return s.API.DeleteInventory(ctx, cred, id)
}
