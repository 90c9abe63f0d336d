package handlers_test

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func withCategories(h *harness) {
	h.api.routes["GET /admin/categories"] = reply(http.StatusOK, map[string]any{"categories": []map[string]any{
		{"_id": "c1", "name": "Fruits"},
	}})
}

func TestProductListRenders(t *testing.T) {
	h := newHarness(t, 10)
	withCategories(h)
	h.api.routes["GET /admin/products"] = reply(http.StatusOK, map[string]any{
		"products": []map[string]any{{"_id": "p1", "name": "Alphonso Mango", "sku": "MNG-1"}},
		"total":    1,
	})
	sid := h.login(t, "tok")

	resp := h.get(t, "/admin/products?search=mango", sid)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if s := body(t, resp); !strings.Contains(s, "Alphonso Mango") {
		t.Fatalf("product missing from list; body=%s", s)
	}
}

func TestProductListPastLastPageRedirects(t *testing.T) {
	h := newHarness(t, 10)
	h.api.routes["GET /admin/products"] = reply(http.StatusOK, map[string]any{
		"products": []map[string]any{}, "total": 12, "totalPages": 2,
	})
	sid := h.login(t, "tok")

	resp := h.get(t, "/admin/products?page=5", sid)
	if resp.StatusCode != fiber.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); !strings.Contains(loc, "page=2") {
		t.Fatalf("expected last page, got %q", loc)
	}
}

func TestProductAddRowDoesNotSave(t *testing.T) {
	h := newHarness(t, 10)
	withCategories(h)
	sid := h.login(t, "tok")

	resp := h.post(t, "/admin/products/new", url.Values{
		"op":            {"add-row:highlights"},
		"name":          {"Apple"},
		"highlights[0]": {"Crisp"},
	}, sid)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	s := body(t, resp)
	if !strings.Contains(s, `name="highlights[1]"`) {
		t.Fatalf("new highlight row missing; body=%s", s)
	}
	if !strings.Contains(s, `value="Apple"`) || !strings.Contains(s, `value="Crisp"`) {
		t.Fatalf("typed values lost; body=%s", s)
	}
	if n := h.api.count("POST /admin/products"); n != 0 {
		t.Fatalf("add-row must not create, got %d calls", n)
	}

	// the draft survives a reload of the form
	resp = h.get(t, "/admin/products/new", sid)
	if s := body(t, resp); !strings.Contains(s, `value="Crisp"`) {
		t.Fatalf("draft not kept; body=%s", s)
	}
}

func TestProductEnterInTagFieldAddsTag(t *testing.T) {
	h := newHarness(t, 10)
	withCategories(h)
	sid := h.login(t, "tok")

	resp := h.post(t, "/admin/products/new", url.Values{"op": {"enter"}, "name": {"Apple"}, "tag": {"seasonal"}}, sid)
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	s := body(t, resp)
	if !strings.Contains(s, `name="tags[0]" value="seasonal"`) {
		t.Fatalf("tag chip missing; body=%s", s)
	}
	if n := h.api.count("POST /admin/products"); n != 0 {
		t.Fatalf("enter in the tag field must not create, got %d calls", n)
	}
}

func TestProductSaveMissingFields(t *testing.T) {
	h := newHarness(t, 10)
	withCategories(h)
	sid := h.login(t, "tok")

	resp := h.post(t, "/admin/products/new", url.Values{"op": {"save"}, "name": {"Apple"}}, sid)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if s := body(t, resp); !strings.Contains(s, "Please check the form") {
		t.Fatalf("validation message missing; body=%s", s)
	}
	if n := h.api.count("POST /admin/products"); n != 0 {
		t.Fatalf("incomplete form must not be sent, got %d calls", n)
	}
}

func TestProductUnknownOpRejected(t *testing.T) {
	h := newHarness(t, 10)
	withCategories(h)
	sid := h.login(t, "tok")

	resp := h.post(t, "/admin/products/new", url.Values{"op": {"drop-table"}}, sid)
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if s := body(t, resp); !strings.Contains(s, "That action is not available.") {
		t.Fatalf("expected action error; body=%s", s)
	}
}

func TestDeleteStepsBackFromEmptiedPage(t *testing.T) {
	h := newHarness(t, 10)
	h.api.routes["DELETE /admin/products/p1"] = reply(http.StatusOK, map[string]any{"success": true})
	sid := h.login(t, "tok")

	resp := h.post(t, "/admin/products/p1/delete", url.Values{
		"page": {"3"}, "rows": {"1"}, "limit": {"10"}, "search": {"apple"},
	}, sid)
	if resp.StatusCode != fiber.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	loc := resp.Header.Get("Location")
	if !strings.Contains(loc, "page=2") || !strings.Contains(loc, "search=apple") {
		t.Fatalf("expected previous page with filters, got %q", loc)
	}
	if n := h.api.count("DELETE /admin/products/p1"); n != 1 {
		t.Fatalf("expected one delete call, got %d", n)
	}
}

func TestDeleteKeepsPageWithRowsLeft(t *testing.T) {
	h := newHarness(t, 10)
	h.api.routes["DELETE /admin/products/p1"] = reply(http.StatusOK, map[string]any{"success": true})
	sid := h.login(t, "tok")

	resp := h.post(t, "/admin/products/p1/delete", url.Values{"page": {"3"}, "rows": {"4"}}, sid)
	if loc := resp.Header.Get("Location"); !strings.Contains(loc, "page=3") {
		t.Fatalf("expected same page, got %q", loc)
	}
}
