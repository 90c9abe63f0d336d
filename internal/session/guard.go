package session

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"freshbasket/internal/config"
	applog "freshbasket/internal/log"
)

const (
	LoginPath = "/admin/login"

	localSID        = "sid"
	localCredential = "credential"
)

// Guard gates the admin screens on a stored credential.
type Guard struct {
	store  Store
	cookie string
	secure bool
	ttl    time.Duration
	now    func() time.Time
	onEnd  func(sid string)
}

func NewGuard(store Store, cfg config.SessionConfig) *Guard {
	name := cfg.CookieName
	if name == "" {
		name = "sid"
	}
	return &Guard{store: store, cookie: name, secure: cfg.Secure, ttl: cfg.TTL, now: time.Now}
}

// OnEnd registers fn to run with the id of every session that ends, whether
// by logout or by its credential going away. Set it before serving.
func (g *Guard) OnEnd(fn func(sid string)) { g.onEnd = fn }

func (g *Guard) ended(sid string) {
	if sid != "" && g.onEnd != nil {
		g.onEnd(sid)
	}
}

// Require lets the request through only when the session holds a credential
// that is not known to be expired. Otherwise it redirects to the login page
// without touching the API.
func (g *Guard) Require() fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies(g.cookie)
		if sid == "" {
			return c.Redirect(LoginPath)
		}
		cred, err := g.store.Get(c.UserContext(), sid)
		if errors.Is(err, ErrNoCredential) || cred == "" {
			g.ended(sid)
			return c.Redirect(LoginPath)
		}
		if err != nil {
			applog.Error(c, "session.lookup.fail", err, nil)
			return err
		}
		if Expired(cred, g.now()) {
			applog.Security(c, "session.token.expired", nil)
			return g.Expire(c)
		}
		c.Locals(localSID, sid)
		c.Locals(localCredential, cred)
		return c.Next()
	}
}

// Start binds a fresh session id to credential and sets the cookie.
func (g *Guard) Start(c *fiber.Ctx, credential string) error {
	if old := c.Cookies(g.cookie); old != "" {
		_ = g.store.Clear(c.UserContext(), old)
		g.ended(old)
	}
	sid := uuid.NewString()
	if err := g.store.Set(c.UserContext(), sid, credential); err != nil {
		return err
	}
	c.Cookie(&fiber.Cookie{
		Name:     g.cookie,
		Value:    sid,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   g.secure,
		Expires:  g.now().Add(g.ttl),
	})
	c.Locals(localSID, sid)
	c.Locals(localCredential, credential)
	return nil
}

// End forgets the session and expires the cookie.
func (g *Guard) End(c *fiber.Ctx) error {
	sid := c.Cookies(g.cookie)
	var err error
	if sid != "" {
		err = g.store.Clear(c.UserContext(), sid)
		g.ended(sid)
	}
	c.Cookie(&fiber.Cookie{
		Name:     g.cookie,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   g.secure,
		Expires:  g.now().Add(-time.Hour),
	})
	return err
}

// Expire handles a credential the API rejected: the session is cleared and
// the browser sent to the login page. Callers must stop issuing requests.
func (g *Guard) Expire(c *fiber.Ctx) error {
	if err := g.End(c); err != nil {
		applog.Error(c, "session.clear.fail", err, nil)
	}
	SetFlash(c, FlashError, "Your session has expired. Please log in again.")
	return c.Redirect(LoginPath)
}

// SessionID returns the session cookie of any request, guarded or not.
func (g *Guard) SessionID(c *fiber.Ctx) string { return c.Cookies(g.cookie) }

// Lookup returns the credential stored for sid.
func (g *Guard) Lookup(ctx context.Context, sid string) (string, error) {
	return g.store.Get(ctx, sid)
}

// SID returns the session id of a guarded request.
func SID(c *fiber.Ctx) string {
	s, _ := c.Locals(localSID).(string)
	return s
}

// Credential returns the credential of a guarded request.
func Credential(c *fiber.Ctx) string {
	s, _ := c.Locals(localCredential).(string)
	return s
}

// Authenticated reports whether the request passed the guard.
func Authenticated(c *fiber.Ctx) bool { return Credential(c) != "" }
