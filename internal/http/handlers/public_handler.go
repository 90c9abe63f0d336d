package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"freshbasket/internal/api"
	"freshbasket/internal/domain"
	"freshbasket/internal/draft"
	"freshbasket/internal/log"
	"freshbasket/internal/services"
)

// PublicHandler serves the storefront pages.
type PublicHandler struct {
	Merchants *services.MerchantService
}

func (h *PublicHandler) Home(c *fiber.Ctx) error {
	return render(c, "home", fiber.Map{"MainCategories": domain.MainCategories})
}

func (h *PublicHandler) Terms(c *fiber.Ctx) error   { return render(c, "terms", nil) }
func (h *PublicHandler) Privacy(c *fiber.Ctx) error { return render(c, "privacy", nil) }

// GET /register-business
func (h *PublicHandler) RegisterForm(c *fiber.Ctx) error {
	return h.registerPage(c, fiber.StatusOK, draft.New(services.MerchantSchema), "", false)
}

// POST /register-business
func (h *PublicHandler) Register(c *fiber.Ctx) error {
	form, err := h.Merchants.Register(c.UserContext(), formValues(c))
	switch {
	case err == nil:
		log.Audit(c, "merchant.register", map[string]any{"business": c.FormValue("businessName")})
		return h.registerPage(c, fiber.StatusOK, draft.New(services.MerchantSchema), "", true)
	case errors.Is(err, draft.ErrValidation):
		log.Security(c, "validation.fail", map[string]any{"form": "merchant", "error": err.Error()})
		return h.registerPage(c, fiber.StatusBadRequest, form, formError(err, ""), false)
	case errors.Is(err, api.ErrDuplicateEmail):
		log.Info(c, "merchant.register.duplicate", nil)
		return h.registerPage(c, fiber.StatusConflict, form, api.Message(err, ""), false)
	}
	log.Error(c, "merchant.register.fail", err, nil)
	return h.registerPage(c, statusOf(err), form, api.Message(err, "Registration failed. Please try again."), false)
}

func (h *PublicHandler) registerPage(c *fiber.Ctx, status int, form *draft.Form, errMsg string, done bool) error {
	return render(c.Status(status), "register_business", fiber.Map{
		"Draft":         form.Draft(),
		"BusinessTypes": domain.BusinessTypes,
		"Err":           errMsg,
		"Done":          done,
	})
}
