package handlers

import (
	"github.com/gofiber/fiber/v2"

	"freshbasket/internal/session"
)

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	data["Admin"] = session.Authenticated(c)
	if f, ok := session.TakeFlash(c); ok {
		data["Flash"] = f
	}
	// Pick up the token the CSRF middleware put into Locals
	tok, _ := c.Locals("CSRFToken").(string)
	if tok == "" {
		tok = c.Cookies("csrf_")
	}
	if tok != "" {
		data["CSRFToken"] = tok
	}
	return c.Render(tmpl, data)
}

// message renders the shared message page with status.
func message(c *fiber.Ctx, status int, msg string) error {
	return render(c.Status(status), "notfound", fiber.Map{"Message": msg})
}

// back redirects to path with a one-shot notification.
func back(c *fiber.Ctx, path, kind, msg string) error {
	session.SetFlash(c, kind, msg)
	return c.Redirect(path)
}
