package services

import (
	"freshbasket/internal/domain"
	"freshbasket/internal/draft"
)

// Product form. Discount fields are derived from mrp and price.
var ProductSchema = &draft.Schema{
	Name: "product",
	Template: func() draft.Draft {
		return draft.Draft{
			"name":           "",
			"description":    "",
			"brand":          "",
			"sku":            "",
			"barcode":        "",
			"category":       "",
			"thumbnail":      "",
			"highlights":     []any{""},
			"images":         []any{""},
			"searchKeywords": []any{""},
			"tags":           []any{},
			"pricing":        map[string]any{"mrp": 0.0, "sellingPrice": 0.0, "discountPercent": 0.0, "offerTag": ""},
			"tax":            map[string]any{"gstRate": 0.0, "includedInPrice": true},
			"stock":          map[string]any{"quantity": 0.0, "status": domain.StockInStock},
			"delivery":       map[string]any{"isInstant": true, "deliveryTimeInMinutes": 0.0, "zones": []any{}},
			"variants":       []any{newVariant()},
			"isActive":       true,
			"isFeatured":     false,
		}
	},
	Rows: map[string]func() map[string]any{"variants": newVariant},
	Required: []draft.Path{
		draft.Flat("name"),
		draft.Flat("sku"),
		draft.Flat("category"),
		draft.Flat("thumbnail"),
		draft.Nested("stock", "status"),
		draft.Nested("pricing", "mrp"),
		draft.Nested("pricing", "sellingPrice"),
		draft.Indexed("variants", draft.Each, "label"),
		draft.Indexed("variants", draft.Each, "unit"),
	},
	Numbers: []draft.Path{
		draft.Nested("pricing", "mrp"),
		draft.Nested("pricing", "sellingPrice"),
		draft.Nested("pricing", "discountPercent"),
		draft.Nested("tax", "gstRate"),
		draft.Indexed("variants", draft.Each, "price"),
		draft.Indexed("variants", draft.Each, "mrp"),
	},
	Integers: []draft.Path{
		draft.Nested("stock", "quantity"),
		draft.Nested("delivery", "deliveryTimeInMinutes"),
		draft.Indexed("variants", draft.Each, "stock"),
	},
	Booleans: []draft.Path{
		draft.Flat("isActive"),
		draft.Flat("isFeatured"),
		draft.Nested("tax", "includedInPrice"),
		draft.Nested("delivery", "isInstant"),
	},
	Lists:     []draft.Path{draft.Flat("highlights"), draft.Flat("images"), draft.Flat("searchKeywords"), draft.Flat("tags")},
	Delimited: []draft.Path{draft.Nested("delivery", "zones")},
	Derived: []draft.Derivation{
		{Scope: "pricing", MRP: "mrp", Price: "sellingPrice", Discount: "discountPercent"},
		{Scope: "variants", List: true, MRP: "mrp", Price: "price", Discount: "discountPercent"},
	},
	Server: []string{"createdAt", "updatedAt", "__v"},
}

func newVariant() map[string]any {
	return map[string]any{"label": "", "price": 0.0, "mrp": 0.0, "stock": 0.0, "unit": "kg", "image": "", "sellerId": ""}
}

var CategorySchema = &draft.Schema{
	Name: "category",
	Template: func() draft.Draft {
		return draft.Draft{
			"name":         "",
			"mainCategory": "",
			"image":        "",
			"isActive":     true,
			"showOnHome":   false,
			"order":        0.0,
		}
	},
	Required: []draft.Path{draft.Flat("name"), draft.Flat("mainCategory")},
	Integers: []draft.Path{draft.Flat("order")},
	Booleans: []draft.Path{draft.Flat("isActive"), draft.Flat("showOnHome")},
	Server:   []string{"_id", "createdAt", "updatedAt", "__v"},
}

// Legacy inventory item form.
var InventorySchema = &draft.Schema{
	Name: "inventory",
	Template: func() draft.Draft {
		return draft.Draft{"itemName": "", "category": "", "stockquantity": "", "price": ""}
	},
	Required: []draft.Path{draft.Flat("itemName"), draft.Flat("category"), draft.Flat("stockquantity"), draft.Flat("price")},
	Numbers:  []draft.Path{draft.Flat("price")},
	Integers: []draft.Path{draft.Flat("stockquantity")},
}

// Public business registration form.
var MerchantSchema = &draft.Schema{
	Name: "merchant",
	Template: func() draft.Draft {
		return draft.Draft{
			"businessName":  "",
			"contactPerson": "",
			"email":         "",
			"phone":         "",
			"businessType":  "",
			"address":       "",
			"message":       "",
		}
	},
	Required: []draft.Path{
		draft.Flat("businessName"),
		draft.Flat("contactPerson"),
		draft.Flat("email"),
		draft.Flat("phone"),
		draft.Flat("businessType"),
		draft.Flat("address"),
	},
}
