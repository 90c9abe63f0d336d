package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	applog "freshbasket/internal/log"
)

// ErrorHandler is the app-wide fallback: it logs the real error and shows a
// generic page so nothing internal reaches the browser.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	applog.Error(c, "server.error", err, map[string]any{"status": code})
	msg := "Something went wrong. Please try again."
	switch code {
	case fiber.StatusNotFound:
		msg = "Page not found"
	case fiber.StatusRequestEntityTooLarge:
		msg = "The submitted form is too large."
	}
	if rerr := c.Status(code).Render("notfound", fiber.Map{"Message": msg}); rerr != nil {
		return c.Status(code).SendString(msg)
	}
	return nil
}

// CSRFError answers a post whose token is missing or stale.
func CSRFError(c *fiber.Ctx, _ error) error {
	applog.Security(c, "csrf.fail", nil)
	return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
}
