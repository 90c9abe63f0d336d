package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"freshbasket/internal/api"
	"freshbasket/internal/config"
	"freshbasket/internal/draft"
	"freshbasket/internal/listing"
	"freshbasket/internal/services"
	"freshbasket/internal/session"
)

// fakeAPI records requests and answers from a route table.
type fakeAPI struct {
	mu     sync.Mutex
	bodies map[string]map[string]any
	routes map[string]func(w http.ResponseWriter, r *http.Request)
	hits   atomic.Int32
}

func newFake(t *testing.T) (*fakeAPI, *api.Client) {
	t.Helper()
	f := &fakeAPI{bodies: map[string]map[string]any{}, routes: map[string]func(http.ResponseWriter, *http.Request){}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		key := r.Method + " " + r.URL.Path
		if b, _ := io.ReadAll(r.Body); len(b) > 0 {
			var m map[string]any
			_ = json.Unmarshal(b, &m)
			f.mu.Lock()
			f.bodies[key] = m
			f.mu.Unlock()
		}
		if h, ok := f.routes[key]; ok {
			h(w, r)
			return
		}
		reply(w, 404, map[string]any{"message": "no route " + key})
	}))
	t.Cleanup(srv.Close)
	return f, api.New(config.APIConfig{BaseURL: srv.URL, AuthMode: "bearer", Timeout: 2 * time.Second, PageSize: 10})
}

func (f *fakeAPI) body(key string) map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bodies[key]
}

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ok(v any) func(http.ResponseWriter, *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) { reply(w, 200, v) }
}

func productService(client *api.Client) (*services.ProductService, *session.MemoryStore) {
	store := session.NewMemoryStore()
	return services.NewProductService(client, &services.Forms{Drafts: store}, listing.NewSequencers()), store
}

func TestAddProductFlow(t *testing.T) {
	fake, client := newFake(t)
	fake.routes["POST /admin/products"] = ok(map[string]any{"success": true})
	svc, _ := productService(client)
	ctx := context.Background()

	form, err := svc.OpenNew(ctx, "sid")
	if err != nil {
		t.Fatal(err)
	}
	vals := url.Values{
		"name":                 {"Organic Apples"},
		"sku":                  {"APL-1"},
		"category":             {"c1"},
		"thumbnail":            {"https://img/apple.jpg"},
		"stock.status":         {"in_stock"},
		"stock.quantity":       {"40"},
		"pricing.mrp":          {"100"},
		"pricing.sellingPrice": {"80"},
		"highlights[0]":        {"Crisp"},
		"variants[0].label":    {"1kg"},
		"variants[0].unit":     {"kg"},
		"variants[0].mrp":      {"120"},
		"variants[0].price":    {"90"},
		"variants[0].stock":    {"5"},
		"tag":                  {"organic"},
	}

	// add a blank highlight row and a tag; nothing is sent yet
	for _, op := range []string{"add-row:highlights", "add-tag"} {
		saved, err := svc.Edit(ctx, "sid", "tok", "", form, op, vals)
		if err != nil || saved {
			t.Fatalf("%s: saved=%v err=%v", op, saved, err)
		}
	}
	if fake.hits.Load() != 0 {
		t.Fatal("editing must not call the API")
	}
	if got := form.Draft().Strings(draft.Flat("tags")); len(got) != 1 || got[0] != "organic" {
		t.Fatalf("tags %v", got)
	}

	// resume from the stored draft, as the next request would
	form, err = svc.OpenNew(ctx, "sid")
	if err != nil {
		t.Fatal(err)
	}
	if got := len(form.Draft().List(draft.Flat("highlights"))); got != 2 {
		t.Fatalf("stored draft lost the new row: %d", got)
	}
	vals.Set("tags[0]", "organic")
	vals.Del("tag")
	saved, err := svc.Edit(ctx, "sid", "tok", "", form, "save", vals)
	if err != nil || !saved {
		t.Fatalf("save: %v %v", saved, err)
	}

	body := fake.body("POST /admin/products")
	pricing := body["pricing"].(map[string]any)
	if pricing["mrp"] != 100.0 || pricing["discountPercent"] != 20.0 {
		t.Fatalf("pricing %v", pricing)
	}
	if hl := body["highlights"].([]any); len(hl) != 1 || hl[0] != "Crisp" {
		t.Fatalf("blank highlight sent: %v", hl)
	}
	v := body["variants"].([]any)[0].(map[string]any)
	if v["discountPercent"] != 25.0 || v["stock"] != 5.0 {
		t.Fatalf("variant %v", v)
	}

	// create clears the form but keeps the category
	form, _ = svc.OpenNew(ctx, "sid")
	if form.Draft().String(draft.Flat("name")) != "" || form.Draft().String(draft.Flat("category")) != "c1" {
		t.Fatalf("after create: %v", form.Draft())
	}
}

func TestMissingFieldsBlockSubmit(t *testing.T) {
	fake, client := newFake(t)
	svc, _ := productService(client)
	form, _ := svc.OpenNew(context.Background(), "sid")
	_, err := svc.Edit(context.Background(), "sid", "tok", "", form, "save", url.Values{"name": {"Pears"}})
	if !errors.Is(err, draft.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
	if fake.hits.Load() != 0 {
		t.Fatal("validation failures must not reach the API")
	}
	form, _ = svc.OpenNew(context.Background(), "sid")
	if form.Draft().String(draft.Flat("name")) != "Pears" {
		t.Fatal("draft must survive a failed submit")
	}
}

func TestEditWithoutChangesReproducesRecord(t *testing.T) {
	fake, client := newFake(t)
	record := map[string]any{
		"_id": "p1", "name": "Milk", "sku": "MLK", "description": "", "brand": "", "barcode": "",
		"category":  map[string]any{"_id": "c1", "name": "Dairy"},
		"thumbnail": "t.jpg", "highlights": []any{"Fresh"}, "images": []any{"a.jpg"}, "searchKeywords": []any{"milk"},
		"tags":     []any{"dairy"},
		"pricing":  map[string]any{"mrp": 60, "sellingPrice": 54, "discountPercent": 10, "offerTag": ""},
		"tax":      map[string]any{"gstRate": 5, "includedInPrice": true},
		"stock":    map[string]any{"quantity": 12, "status": "in_stock"},
		"delivery": map[string]any{"isInstant": true, "deliveryTimeInMinutes": 30, "zones": []any{"north"}},
		"variants": []any{map[string]any{"label": "1L", "price": 54, "mrp": 60, "stock": 3, "unit": "liter", "image": "", "sellerId": "", "discountPercent": 10}},
		"isActive": true, "isFeatured": false,
		"createdAt": "2024-01-01T00:00:00Z", "updatedAt": "2024-01-02T00:00:00Z", "__v": 0,
	}
	fake.routes["GET /admin/products/p1"] = ok(map[string]any{"product": record})
	fake.routes["PUT /admin/products/p1"] = ok(map[string]any{"success": true})
	svc, store := productService(client)
	ctx := context.Background()

	form, err := svc.StartEdit(ctx, "sid", "tok", "p1")
	if err != nil {
		t.Fatal(err)
	}
	// the edit page posts back exactly what it rendered
	vals := url.Values{}
	for _, p := range []string{"name", "sku", "description", "brand", "barcode", "category", "thumbnail",
		"highlights[0]", "images[0]", "searchKeywords[0]", "tags[0]",
		"pricing.mrp", "pricing.sellingPrice", "pricing.offerTag", "tax.gstRate", "tax.includedInPrice",
		"stock.quantity", "stock.status", "delivery.deliveryTimeInMinutes", "delivery.isInstant", "delivery.zones",
		"variants[0].label", "variants[0].price", "variants[0].mrp", "variants[0].stock", "variants[0].unit",
		"variants[0].image", "variants[0].sellerId", "isActive"} {
		path, _ := draft.ParsePath(p)
		if p == "delivery.zones" {
			vals.Set(p, form.Delimited(path))
			continue
		}
		vals.Set(p, form.Draft().String(path))
	}
	saved, err := svc.Edit(ctx, "sid", "tok", "p1", form, "save", vals)
	if err != nil || !saved {
		t.Fatalf("save: %v %v", saved, err)
	}

	want := map[string]any{}
	for k, v := range record {
		want[k] = v
	}
	delete(want, "createdAt")
	delete(want, "updatedAt")
	delete(want, "__v")
	want["category"] = "c1"
	wb, _ := json.Marshal(want)
	var wantNorm map[string]any
	_ = json.Unmarshal(wb, &wantNorm)
	gb, _ := json.Marshal(fake.body("PUT /admin/products/p1"))
	wb2, _ := json.Marshal(wantNorm)
	if string(gb) != string(wb2) {
		t.Fatalf("round trip mismatch\n got %s\nwant %s", gb, wb2)
	}
	if _, err := store.LoadDraft(ctx, "sid", services.ProductKey("p1")); !errors.Is(err, session.ErrNoDraft) {
		t.Fatal("successful update must drop the draft")
	}
}

func TestUpdateFailureKeepsDraftAndMessage(t *testing.T) {
	fake, client := newFake(t)
	fake.routes["GET /admin/products/p1"] = ok(map[string]any{"_id": "p1", "name": "Milk", "sku": "M", "category": "c1",
		"thumbnail": "t", "stock": map[string]any{"status": "in_stock"}, "pricing": map[string]any{"mrp": 10, "sellingPrice": 9},
		"variants": []any{map[string]any{"label": "1L", "unit": "liter"}}})
	fake.routes["PUT /admin/products/p1"] = func(w http.ResponseWriter, r *http.Request) {
		reply(w, 400, map[string]any{"message": "SKU already exists"})
	}
	svc, _ := productService(client)
	ctx := context.Background()
	form, err := svc.StartEdit(ctx, "sid", "tok", "p1")
	if err != nil {
		t.Fatal(err)
	}
	_, err = svc.Edit(ctx, "sid", "tok", "p1", form, "save", url.Values{
		"name": {"Milk 2"}, "sku": {"M"}, "category": {"c1"}, "thumbnail": {"t"}, "stock.status": {"in_stock"},
		"pricing.mrp": {"10"}, "pricing.sellingPrice": {"9"}, "variants[0].label": {"1L"}, "variants[0].unit": {"liter"},
	})
	if api.Message(err, "") != "SKU already exists" {
		t.Fatalf("got %v", err)
	}
	form, _ = svc.OpenEdit(ctx, "sid", "tok", "p1")
	if form.Draft().String(draft.Flat("name")) != "Milk 2" {
		t.Fatal("failed update must keep the edited draft")
	}
}

func TestTokenInvalidSurfacesUnauthorized(t *testing.T) {
	fake, client := newFake(t)
	fake.routes["GET /products/count"] = ok(map[string]any{"tokenValid": false})
	fake.routes["GET /admin/users/count"] = ok(map[string]any{"count": 3})
	dash := &services.DashboardService{API: client}
	if _, err := dash.Stats(context.Background(), "tok"); !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
}

func TestCategoriesSortedFilteredPaged(t *testing.T) {
	fake, client := newFake(t)
	fake.routes["GET /admin/categories"] = ok(map[string]any{"categories": []map[string]any{
		{"_id": "a", "name": "Zeta", "order": 3, "isActive": true, "showOnHome": true, "mainCategory": "Snacks & Drinks"},
		{"_id": "b", "name": "Alpha", "order": 1, "isActive": true, "showOnHome": false, "mainCategory": "Grocery & Kitchen"},
		{"_id": "c", "name": "Beta", "order": 2, "isActive": false, "showOnHome": true, "mainCategory": "Grocery & Kitchen"},
	}})
	store := session.NewMemoryStore()
	svc := services.NewCategoryService(client, &services.Forms{Drafts: store}, listing.NewSequencers())

	view, err := svc.List(context.Background(), "sid", "tok", listing.Filter{}, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(view.Items) != 3 || view.Items[0].ID != "b" || view.Items[2].ID != "a" {
		t.Fatalf("order: %+v", view.Items)
	}
	view, _ = svc.List(context.Background(), "sid", "tok", listing.Filter{Status: listing.Active, ShowOnHome: listing.Yes}, 1, 10)
	if len(view.Items) != 1 || view.Items[0].ID != "a" {
		t.Fatalf("filter: %+v", view.Items)
	}
}

func TestCategoryCreate(t *testing.T) {
	fake, client := newFake(t)
	fake.routes["POST /admin/categories"] = ok(map[string]any{"success": true})
	store := session.NewMemoryStore()
	svc := services.NewCategoryService(client, &services.Forms{Drafts: store}, listing.NewSequencers())
	ctx := context.Background()
	form, _ := svc.OpenNew(ctx, "sid")
	err := svc.Save(ctx, "sid", "tok", "", form, url.Values{
		"name": {"Fruits"}, "mainCategory": {"Grocery & Kitchen"}, "order": {"4"}, "isActive": {"on"},
	})
	if err != nil {
		t.Fatal(err)
	}
	body := fake.body("POST /admin/categories")
	if body["order"] != 4.0 || body["isActive"] != true || body["showOnHome"] != false {
		t.Fatalf("body %v", body)
	}
}

func TestInventoryAddAndLevels(t *testing.T) {
	fake, client := newFake(t)
	fake.routes["POST /inventory/add"] = ok(map[string]any{"success": true})
	fake.routes["GET /inventory/all"] = ok(map[string]any{"success": true, "inventory": []map[string]any{
		{"_id": "i1", "itemName": "Rice", "category": "grains", "stockquantity": 0, "price": 50},
		{"_id": "i2", "itemName": "Oil", "category": "oils", "stockquantity": 3, "price": 120},
		{"_id": "i3", "itemName": "Salt", "category": "grains", "stockquantity": 9, "price": 20},
	}})
	store := session.NewMemoryStore()
	svc := services.NewInventoryService(client, &services.Forms{Drafts: store}, listing.NewSequencers())
	ctx := context.Background()

	form, _ := svc.OpenNew(ctx, "sid")
	if err := svc.Add(ctx, "sid", "tok", form, url.Values{
		"itemName": {"Sugar"}, "category": {"grains"}, "stockquantity": {"12"}, "price": {"45.5"},
	}); err != nil {
		t.Fatal(err)
	}
	body := fake.body("POST /inventory/add")
	if body["stockquantity"] != 12.0 || body["price"] != 45.5 {
		t.Fatalf("body %v", body)
	}

	view, err := svc.List(ctx, "sid", "tok", listing.Filter{Category: "grains"}, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(view.Rows) != 2 || view.Rows[0].Level != "out_of_stock" || view.Rows[1].Level != "in_stock" {
		t.Fatalf("rows %+v", view.Rows)
	}
	if services.StockLevel(3) != "limited" {
		t.Fatal("low stock level")
	}
}

func TestMerchantRegisterValidatesLocally(t *testing.T) {
	fake, client := newFake(t)
	fake.routes["POST /merchants"] = func(w http.ResponseWriter, r *http.Request) {
		reply(w, 409, map[string]any{"message": "Email already registered"})
	}
	svc := services.NewMerchantService(client, listing.NewSequencers())
	form, err := svc.Register(context.Background(), url.Values{"businessName": {"Green Farm"}})
	if !errors.Is(err, draft.ErrValidation) || fake.hits.Load() != 0 {
		t.Fatalf("got %v after %d calls", err, fake.hits.Load())
	}
	if form.Draft().String(draft.Flat("businessName")) != "Green Farm" {
		t.Fatal("typed values must be kept")
	}
	_, err = svc.Register(context.Background(), url.Values{
		"businessName": {"Green Farm"}, "contactPerson": {"Asha"}, "email": {"asha@farm.in"},
		"phone": {"+91 98765 43210"}, "businessType": {"Farm"}, "address": {"Village road"},
	})
	if !errors.Is(err, api.ErrDuplicateEmail) {
		t.Fatalf("want ErrDuplicateEmail, got %v", err)
	}
}

func TestUsersPagerFromCount(t *testing.T) {
	fake, client := newFake(t)
	fake.routes["GET /admin/users"] = ok(map[string]any{"users": []map[string]any{{"_id": "u1", "name": "A", "status": true}}})
	fake.routes["GET /admin/users/count"] = ok(map[string]any{"count": 35})
	svc := services.NewUserService(client, listing.NewSequencers())
	page, err := svc.List(context.Background(), "sid", "tok", listing.Query{Page: 2, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if page.Info.TotalPages != 4 || page.Info.Page != 2 || !page.Info.HasNextPage {
		t.Fatalf("info %+v", page.Info)
	}
}

func TestUsersSearchKeepsListTotals(t *testing.T) {
	fake, client := newFake(t)
	var counts atomic.Int32
	fake.routes["GET /admin/users"] = ok(map[string]any{
		"users":      []map[string]any{{"_id": "u7", "name": "Asha", "status": true}},
		"pagination": map[string]any{"total": 1, "page": 1, "limit": 10, "totalPages": 1},
	})
	fake.routes["GET /admin/users/count"] = func(w http.ResponseWriter, r *http.Request) {
		counts.Add(1)
		reply(w, 200, map[string]any{"count": 57})
	}
	svc := services.NewUserService(client, listing.NewSequencers())
	q := listing.Query{Page: 1, Limit: 10, Filter: listing.Filter{Search: "asha"}}
	page, err := svc.List(context.Background(), "sid", "tok", q)
	if err != nil {
		t.Fatal(err)
	}
	if page.Info.Total != 1 || page.Info.TotalPages != 1 || page.Info.HasNextPage {
		t.Fatalf("search must keep the filtered totals, got %+v", page.Info)
	}
	if n := counts.Load(); n != 0 {
		t.Fatalf("count endpoint called %d times for a search", n)
	}
}

func TestApplyOpRejectsUnknownActions(t *testing.T) {
	form := draft.New(services.ProductSchema)
	for _, op := range []string{"explode", "add-row:name", "add-row:tags", "remove-variant:x"} {
		if _, err := services.ApplyOp(form, op, url.Values{}); !errors.Is(err, services.ErrUnknownOp) {
			t.Fatalf("%s: got %v", op, err)
		}
	}
	if _, err := services.ApplyOp(form, "remove-variant:0", url.Values{}); err != nil {
		t.Fatal(err)
	}
	if n := len(form.Draft().List(draft.Flat("variants"))); n != 0 {
		t.Fatalf("variants %d", n)
	}
}

func TestEnterAddsTypedTagElseSubmits(t *testing.T) {
	form := draft.New(services.ProductSchema)
	tags := draft.Flat("tags")

	submit, err := services.ApplyOp(form, services.OpEnter, url.Values{"tag": {" fresh "}})
	if err != nil || submit {
		t.Fatalf("enter with a tag: submit=%v err=%v", submit, err)
	}
	if got := form.Draft().Strings(tags); len(got) != 1 || got[0] != "fresh" {
		t.Fatalf("tags %v", got)
	}
	submit, err = services.ApplyOp(form, services.OpEnter, url.Values{"tag": {"  "}})
	if err != nil || !submit {
		t.Fatalf("enter without a tag: submit=%v err=%v", submit, err)
	}

	if _, err := services.ApplyOp(form, services.OpAddTag, url.Values{"tag": {"fresh"}}); !errors.Is(err, draft.ErrValidation) {
		t.Fatalf("duplicate tag: got %v", err)
	}
	if _, err := services.ApplyOp(form, services.OpAddTag, url.Values{"tag": {"organic"}}); err != nil {
		t.Fatal(err)
	}
	if _, err := services.ApplyOp(form, services.OpPopTag, url.Values{}); err != nil {
		t.Fatal(err)
	}
	if got := form.Draft().Strings(tags); len(got) != 1 || got[0] != "fresh" {
		t.Fatalf("after pop: %v", got)
	}
}
