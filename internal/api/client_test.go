package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"freshbasket/internal/config"
	"freshbasket/internal/domain"
	"freshbasket/internal/listing"
)

func newClient(t *testing.T, mode string, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(config.APIConfig{BaseURL: srv.URL + "/", AuthMode: mode, Cookie: "connect.sid", Timeout: 2 * time.Second, PageSize: 10})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestBearerCredentialAndQuery(t *testing.T) {
	c := newClient(t, AuthBearer, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/products" || r.Method != http.MethodGet {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("auth header %q", got)
		}
		q := r.URL.Query()
		if q.Get("page") != "2" || q.Get("limit") != "10" || q.Get("category") != "c1" || q.Get("status") != "active" {
			t.Errorf("query %v", q)
		}
		writeJSON(w, 200, map[string]any{
			"products":   []map[string]any{{"_id": "p1", "name": "Milk", "category": map[string]any{"_id": "c1", "name": "Dairy"}}},
			"pagination": map[string]any{"total": 11, "page": 2, "limit": 10, "totalPages": 2, "hasNextPage": false, "hasPrevPage": true},
		})
	})
	page, err := c.ListProducts(context.Background(), "tok", listing.Query{Page: 2, Limit: 10, Filter: listing.Filter{Category: "c1", Status: "active"}})
	if err != nil {
		t.Fatal(err)
	}
	if len(page.Items) != 1 || page.Items[0].Category.ID != "c1" || page.Items[0].Category.Name != "Dairy" {
		t.Fatalf("items %+v", page.Items)
	}
	if page.Info.TotalPages != 2 || !page.Info.HasPrevPage {
		t.Fatalf("info %+v", page.Info)
	}
}

func TestPageInfoComputedWhenMissing(t *testing.T) {
	c := newClient(t, AuthBearer, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{"users": []map[string]any{{"_id": "u1", "status": "active"}}, "total": 25})
	})
	page, err := c.ListUsers(context.Background(), "tok", listing.Query{Page: 3, Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if page.Info.TotalPages != 3 || page.Info.HasNextPage || !page.Info.HasPrevPage {
		t.Fatalf("info %+v", page.Info)
	}
	if !bool(page.Items[0].Status) {
		t.Fatal("status string not decoded")
	}
}

func TestCookieModeLoginAndAttach(t *testing.T) {
	c := newClient(t, AuthCookie, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/admin/auth/login":
			http.SetCookie(w, &http.Cookie{Name: "connect.sid", Value: "s%3Aabc", Path: "/", HttpOnly: true})
			writeJSON(w, 200, map[string]any{"message": "ok"})
		case "/products/count":
			ck, err := r.Cookie("connect.sid")
			if err != nil || ck.Value != "s%3Aabc" {
				writeJSON(w, 401, map[string]any{"tokenValid": false})
				return
			}
			if r.Header.Get("Authorization") != "" {
				t.Errorf("cookie mode must not send a bearer header")
			}
			writeJSON(w, 200, map[string]any{"count": 42})
		}
	})
	cred, err := c.Login(context.Background(), "a@b.co", "pw")
	if err != nil {
		t.Fatal(err)
	}
	if cred != "s%3Aabc" {
		t.Fatalf("cred %q", cred)
	}
	n, err := c.ProductCount(context.Background(), cred)
	if err != nil || n != 42 {
		t.Fatalf("count %d %v", n, err)
	}
}

func TestLoginFailureShowsServerMessage(t *testing.T) {
	c := newClient(t, AuthBearer, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 401, map[string]any{"message": "Invalid credentials"})
	})
	_, err := c.Login(context.Background(), "a@b.co", "bad")
	var ae *APIError
	if !errors.As(err, &ae) || ae.Message != "Invalid credentials" {
		t.Fatalf("want APIError, got %v", err)
	}
	if errors.Is(err, ErrUnauthorized) {
		t.Fatal("login failure is not a session expiry")
	}
}

func TestTokenValidFalseIsUnauthorized(t *testing.T) {
	c := newClient(t, AuthBearer, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{"tokenValid": false, "message": "jwt expired"})
	})
	if _, err := c.UserCount(context.Background(), "old"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized, got %v", err)
	}
	c = newClient(t, AuthBearer, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	if err := c.DeleteProduct(context.Background(), "old", "p1"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("want ErrUnauthorized on 401, got %v", err)
	}
}

func TestBusinessErrorMessage(t *testing.T) {
	c := newClient(t, AuthBearer, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			writeJSON(w, 400, map[string]any{"message": "SKU already used"})
			return
		}
		writeJSON(w, 500, map[string]any{})
	})
	err := c.UpdateProduct(context.Background(), "tok", "p1", map[string]any{"name": "x"})
	if got := Message(err, "x"); got != "SKU already used" {
		t.Fatalf("message %q", got)
	}
	err = c.CreateProduct(context.Background(), "tok", map[string]any{})
	if got := Message(err, "x"); got != "Failed to add product" {
		t.Fatalf("fallback message %q", got)
	}
}

func TestSuccessFalseIsBusinessError(t *testing.T) {
	c := newClient(t, AuthBearer, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{"success": false})
	})
	_, err := c.ListInventory(context.Background(), "tok")
	var ae *APIError
	if !errors.As(err, &ae) || ae.Message != "Failed to load inventory" {
		t.Fatalf("got %v", err)
	}
}

func TestPayloadSentAsJSON(t *testing.T) {
	var got map[string]any
	c := newClient(t, AuthBearer, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/admin/categories/c1" || r.Method != http.MethodPut {
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content type %q", ct)
		}
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &got)
		writeJSON(w, 200, map[string]any{"success": true})
	})
	err := c.UpdateCategory(context.Background(), "tok", "c1", map[string]any{"name": "Fruits", "order": 2})
	if err != nil {
		t.Fatal(err)
	}
	if got["name"] != "Fruits" || got["order"] != 2.0 {
		t.Fatalf("body %v", got)
	}
}

func TestDuplicateMerchantEmail(t *testing.T) {
	c := newClient(t, AuthBearer, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Errorf("registration is public")
		}
		writeJSON(w, 409, map[string]any{"message": "Email already registered"})
	})
	err := c.RegisterMerchant(context.Background(), domain.MerchantEnquiry{Email: "x@y.z"})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("got %v", err)
	}
}

func TestNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL
	srv.Close()
	c := New(config.APIConfig{BaseURL: base, Timeout: time.Second})
	_, err := c.ListCategories(context.Background(), "tok")
	if !errors.Is(err, ErrNetwork) {
		t.Fatalf("want ErrNetwork, got %v", err)
	}
	if Message(err, "x") != "Network error. Please try again." {
		t.Fatal("network errors get a generic message")
	}
}

func TestCanceledContextMakesNoRequest(t *testing.T) {
	var hits atomic.Int32
	c := newClient(t, AuthBearer, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		writeJSON(w, 200, map[string]any{})
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.ListCategories(ctx, "tok"); !errors.Is(err, ErrNetwork) {
		t.Fatalf("got %v", err)
	}
	if hits.Load() != 0 {
		t.Fatal("request sent despite canceled context")
	}
}

func TestGetProductUnwrapsEnvelope(t *testing.T) {
	c := newClient(t, AuthBearer, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]any{"product": map[string]any{"_id": "p1", "name": "Eggs"}})
	})
	rec, err := c.GetProduct(context.Background(), "tok", "p1")
	if err != nil || rec["name"] != "Eggs" {
		t.Fatalf("%v %v", rec, err)
	}
}

func TestCookieValue(t *testing.T) {
	cases := map[string]string{
		"connect.sid=s%3Aabc; Path=/; HttpOnly": "s%3Aabc",
		"connect.sid=a=b":                       "a=b",
		"":                                      "",
	}
	for raw, want := range cases {
		if got := cookieValue("connect.sid", raw); got != want {
			t.Fatalf("%q: got %q want %q", raw, got, want)
		}
	}
}
