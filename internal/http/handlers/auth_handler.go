package handlers

import (
	"github.com/gofiber/fiber/v2"

	"freshbasket/internal/api"
	"freshbasket/internal/log"
	"freshbasket/internal/services"
	"freshbasket/internal/session"
)

type AuthHandler struct {
	Auth  *services.AuthService
	Guard *session.Guard
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, "login", fiber.Map{"Err": "", "Email": ""})
}

// POST /admin/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	email := c.FormValue("email")
	cred, err := h.Auth.Login(c.UserContext(), email, c.FormValue("password"))
	if err != nil {
		msg := api.Message(err, "Invalid email or password")
		log.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": err.Error()})
		return render(c.Status(fiber.StatusUnauthorized), "login", fiber.Map{"Err": msg, "Email": email})
	}
	if err := h.Guard.Start(c, cred); err != nil {
		log.Error(c, "auth.session.fail", err, nil)
		return render(c.Status(fiber.StatusInternalServerError), "login", fiber.Map{
			"Err": "Could not start a session. Please try again.", "Email": email,
		})
	}
	log.Audit(c, "auth.login.success", map[string]any{"email": email})
	return c.Redirect("/admin")
}

// POST /admin/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := h.Guard.SessionID(c)
	if sid != "" {
		if cred, ok := h.credential(c, sid); ok {
			if err := h.Auth.Logout(c.UserContext(), cred); err != nil {
				log.Info(c, "auth.logout.remote.fail", map[string]any{"error": err.Error()})
			}
		}
	}
	if err := h.Guard.End(c); err != nil {
		log.Error(c, "auth.logout.clear.fail", err, nil)
	}
	log.Audit(c, "auth.logout", nil)
	return c.Redirect(session.LoginPath)
}

func (h *AuthHandler) credential(c *fiber.Ctx, sid string) (string, bool) {
	if cred := session.Credential(c); cred != "" {
		return cred, true
	}
	cred, err := h.Guard.Lookup(c.UserContext(), sid)
	return cred, err == nil && cred != ""
}
