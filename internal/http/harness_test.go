package handlers_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"freshbasket/internal/api"
	"freshbasket/internal/config"
	"freshbasket/internal/http/handlers"
	applog "freshbasket/internal/log"
	"freshbasket/internal/session"
)

// remote is a stand-in for the grocery REST API. Requests without a route
// get fallback, or a 404 when it is nil.
type remote struct {
	mu       sync.Mutex
	hits     map[string]int
	routes   map[string]http.HandlerFunc
	fallback http.HandlerFunc
}

func (r *remote) count(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hits[key]
}

func (r *remote) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, v := range r.hits {
		n += v
	}
	return n
}

func reply(status int, v any) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	}
}

type harness struct {
	app   *fiber.App
	api   *remote
	store *session.MemoryStore
	logs  *observer.ObservedLogs
	csrf  string
}

func newHarness(t *testing.T, loginMax int) *harness {
	t.Helper()
	rm := &remote{hits: map[string]int{}, routes: map[string]http.HandlerFunc{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		rm.mu.Lock()
		rm.hits[key]++
		h, ok := rm.routes[key]
		if !ok {
			h = rm.fallback
		}
		rm.mu.Unlock()
		if h == nil {
			reply(http.StatusNotFound, map[string]any{"message": "no route"})(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	core, logs := observer.New(zapcore.DebugLevel)
	applog.SetLogger(zap.New(core))
	t.Cleanup(func() { applog.SetLogger(nil) })

	client := api.New(config.APIConfig{BaseURL: srv.URL, AuthMode: "bearer", Timeout: 2 * time.Second, PageSize: 10})
	store := session.NewMemoryStore()
	guard := session.NewGuard(store, config.SessionConfig{CookieName: "sid", TTL: time.Hour})
	deps := handlers.NewDeps(client, store, guard)

	app := fiber.New(fiber.Config{
		Views:        handlers.NewEngine("../../web/templates"),
		ErrorHandler: handlers.ErrorHandler,
	})
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB
	app.Use(requestid.New())
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		ContextKey:     "csrf",
		ErrorHandler:   handlers.CSRFError,
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})
	deps.Mount(app, limiter.New(limiter.Config{Max: loginMax, Expiration: time.Minute}))

	h := &harness{app: app, api: rm, store: store, logs: logs}
	resp := h.get(t, session.LoginPath)
	for _, c := range resp.Cookies() {
		if c.Name == "csrf_" {
			h.csrf = c.Value
		}
	}
	if h.csrf == "" {
		t.Fatal("csrf token missing")
	}
	return h
}

// login stores a credential for a new session and returns its cookie.
func (h *harness) login(t *testing.T, cred string) *http.Cookie {
	t.Helper()
	if err := h.store.Set(context.Background(), "s1", cred); err != nil {
		t.Fatal(err)
	}
	return &http.Cookie{Name: "sid", Value: "s1"}
}

func (h *harness) get(t *testing.T, path string, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := h.app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func (h *harness) post(t *testing.T, path string, form url.Values, cookies ...*http.Cookie) *http.Response {
	t.Helper()
	form.Set("csrf", h.csrf)
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: "csrf_", Value: h.csrf})
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := h.app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func body(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func cookie(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}
