package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"freshbasket/internal/api"
	"freshbasket/internal/config"
	"freshbasket/internal/http/handlers"
	applog "freshbasket/internal/log"
	"freshbasket/internal/repos"
	"freshbasket/internal/session"
)

func main() {
	cfg := config.Load()

	zl, err := applog.New(cfg.Logger, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync()
	applog.SetLogger(zl)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	backend, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		zl.Fatal("could not open session store", zap.String("store", cfg.Session.Store), zap.Error(err))
	}
	defer closeBackend()

	guard := session.NewGuard(backend, cfg.Session)
	deps := handlers.NewDeps(api.New(cfg.API), backend, guard)
	go sweepLists(ctx, deps, cfg.Session.TTL)

	app := fiber.New(fiber.Config{
		Views:        handlers.NewEngine(cfg.Server.TemplateDir),
		ErrorHandler: handlers.ErrorHandler,
	})
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/static/")
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   cfg.Session.Secure,
		ContextKey:     "csrf",
		ErrorHandler:   handlers.CSRFError,
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})

	app.Static("/static", cfg.Server.StaticDir)
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	deps.Mount(app, limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}))

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Page not found"})
	})

	go func() {
		addr := ":" + strings.TrimPrefix(cfg.Server.Port, ":")
		zl.Info("starting http server", zap.String("addr", addr), zap.String("api", cfg.API.BaseURL))
		if err := app.Listen(addr); err != nil {
			zl.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	zl.Info("shutting down server")
	cancel()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		zl.Error("shutdown", zap.Error(err))
	}
	zl.Info("server stopped")
}

// openBackend connects the credential and draft store named by
// SESSION_STORE.
func openBackend(ctx context.Context, cfg config.Config) (session.Backend, func(), error) {
	if cfg.Session.Store == "redis" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pctx, pcancel := context.WithTimeout(ctx, 5*time.Second)
		defer pcancel()
		if err := rdb.Ping(pctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, err
		}
		applog.L().Info("connected to redis", zap.String("addr", cfg.Redis.Addr))
		return session.NewRedisStore(rdb, cfg.Session.TTL), func() { _ = rdb.Close() }, nil
	}

	db, err := repos.OpenDB(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		return nil, nil, err
	}
	applog.L().Info("opened session database", zap.String("driver", cfg.DB.Driver))
	store := session.NewSQLStore(db, cfg.Session.TTL)
	go sweep(ctx, store, time.Hour)
	return store, func() { _ = db.Close() }, nil
}

// sweep drops expired sessions and their drafts until ctx ends.
func sweep(ctx context.Context, store *session.SQLStore, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := store.Sweep(ctx)
			if err != nil {
				applog.L().Warn("session sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				applog.L().Info("expired sessions removed", zap.Int64("count", n))
			}
		}
	}
}

// sweepLists drops list sequencers of sessions that lapsed without a logout.
func sweepLists(ctx context.Context, deps *handlers.Deps, ttl time.Duration) {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := deps.Sweep(ttl); n > 0 {
				applog.L().Debug("idle list sequencers removed", zap.Int("count", n))
			}
		}
	}
}
