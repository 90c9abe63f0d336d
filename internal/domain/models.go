package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// Stock statuses.
const (
	StockInStock    = "in_stock"
	StockOutOfStock = "out_of_stock"
	StockLimited    = "limited"
)

var StockStatuses = []string{StockInStock, StockOutOfStock, StockLimited}

type UnitOption struct {
	Value string
	Label string
}

var UnitOptions = []UnitOption{
	{"kg", "Kilogram"},
	{"liter", "Liter"},
	{"pack", "Pack"},
	{"piece", "Piece"},
	{"g", "Gram"},
	{"ml", "Milliliter"},
	{"unit", "Unit"},
	{"dozen", "Dozen"},
	{"other", "Other"},
}

var MainCategories = []string{
	"Grocery & Kitchen",
	"Snacks & Drinks",
	"Beauty & Personal Care",
	"Household Essentials",
	"Health & Wellness",
}

var BusinessTypes = []string{"Grocery Store", "Supermarket", "Farm", "Wholesaler", "Bakery", "Other"}

type Pricing struct {
	MRP             float64 `json:"mrp"`
	SellingPrice    float64 `json:"sellingPrice"`
	DiscountPercent float64 `json:"discountPercent"`
	OfferTag        string  `json:"offerTag"`
}

type Tax struct {
	GSTRate         float64 `json:"gstRate"`
	IncludedInPrice bool    `json:"includedInPrice"`
}

type Stock struct {
	Quantity int    `json:"quantity"`
	Status   string `json:"status"` // in_stock | out_of_stock | limited
}

type Delivery struct {
	IsInstant             bool     `json:"isInstant"`
	DeliveryTimeInMinutes int      `json:"deliveryTimeInMinutes"`
	Zones                 []string `json:"zones"`
}

// Variant is owned by its Product and has no identity of its own.
type Variant struct {
	Label           string  `json:"label"`
	Price           float64 `json:"price"`
	MRP             float64 `json:"mrp"`
	Stock           int     `json:"stock"`
	Unit            string  `json:"unit"`
	Image           string  `json:"image"`
	SellerID        string  `json:"sellerId"`
	DiscountPercent float64 `json:"discountPercent,omitempty"`
}

// CategoryRef is the product's category reference. List responses embed
// {_id,name}; write payloads carry the bare id.
type CategoryRef struct {
	ID   string `json:"_id"`
	Name string `json:"name,omitempty"`
}

func (r *CategoryRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*r = CategoryRef{}
		return nil
	}
	if b[0] == '"' {
		var id string
		if err := json.Unmarshal(b, &id); err != nil {
			return err
		}
		*r = CategoryRef{ID: id}
		return nil
	}
	type plain CategoryRef
	var p plain
	if err := json.Unmarshal(b, &p); err != nil {
		return err
	}
	*r = CategoryRef(p)
	return nil
}

func (r CategoryRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.ID)
}

type Product struct {
	ID             string      `json:"_id,omitempty"`
	SKU            string      `json:"sku"`
	Barcode        string      `json:"barcode"`
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	Brand          string      `json:"brand"`
	Highlights     []string    `json:"highlights"`
	Images         []string    `json:"images"`
	Thumbnail      string      `json:"thumbnail"`
	Tags           []string    `json:"tags"`
	SearchKeywords []string    `json:"searchKeywords"`
	Category       CategoryRef `json:"category"`
	Pricing        Pricing     `json:"pricing"`
	Tax            Tax         `json:"tax"`
	Stock          Stock       `json:"stock"`
	Delivery       Delivery    `json:"delivery"`
	Variants       []Variant   `json:"variants"`
	IsActive       bool        `json:"isActive"`
	IsFeatured     bool        `json:"isFeatured"`
	CreatedAt      *time.Time  `json:"createdAt,omitempty"`
	UpdatedAt      *time.Time  `json:"updatedAt,omitempty"`
}

type Category struct {
	ID           string `json:"_id,omitempty"`
	Name         string `json:"name"`
	MainCategory string `json:"mainCategory"`
	Image        string `json:"image"`
	IsActive     bool   `json:"isActive"`
	ShowOnHome   bool   `json:"showOnHome"`
	Order        int    `json:"order"`
}

// InventoryItem is the legacy stock record. It is a separate context from
// Product: itemName/stockquantity/price do not map onto name/stock/pricing.
type InventoryItem struct {
	ID            string     `json:"_id,omitempty"`
	ItemName      string     `json:"itemName"`
	Category      string     `json:"category"`
	StockQuantity int        `json:"stockquantity"`
	Price         float64    `json:"price"`
	AddedAt       *time.Time `json:"addedAt,omitempty"`
}

type MerchantEnquiry struct {
	ID            string     `json:"_id,omitempty"`
	BusinessName  string     `json:"businessName"`
	BusinessType  string     `json:"businessType"`
	ContactPerson string     `json:"contactPerson"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	Address       string     `json:"address"`
	Message       string     `json:"message,omitempty"`
	Approved      bool       `json:"approved"`
	CreatedAt     *time.Time `json:"createdAt,omitempty"`
}

type User struct {
	ID        string     `json:"_id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Status    Status     `json:"status"`
	CreatedAt *time.Time `json:"createdAt,omitempty"`
}

// Status is a user's active flag. The API has sent both booleans and
// "active"/"inactive" strings.
type Status bool

func (s *Status) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch x := v.(type) {
	case bool:
		*s = Status(x)
	case string:
		*s = Status(x == "active" || x == "true")
	default:
		*s = false
	}
	return nil
}

func (s Status) String() string {
	if s {
		return "active"
	}
	return "inactive"
}

// PageInfo is the server pagination envelope.
type PageInfo struct {
	Total       int  `json:"total"`
	Page        int  `json:"page"`
	Limit       int  `json:"limit"`
	TotalPages  int  `json:"totalPages"`
	HasNextPage bool `json:"hasNextPage"`
	HasPrevPage bool `json:"hasPrevPage"`
}
