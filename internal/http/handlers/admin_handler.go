package handlers

import (
	"github.com/gofiber/fiber/v2"

	"freshbasket/internal/domain"
	applog "freshbasket/internal/log"
	"freshbasket/internal/services"
	"freshbasket/internal/session"
)

const (
	merchantsPath = "/admin/merchants"
	usersPath     = "/admin/users"
)

// AdminHandler serves the dashboard and the read-mostly admin lists.
type AdminHandler struct {
	screen
	Dashboard *services.DashboardService
	Merchants *services.MerchantService
	Users     *services.UserService
}

// GET /admin
func (h *AdminHandler) Home(c *fiber.Ctx) error {
	stats, err := h.Dashboard.Stats(c.UserContext(), session.Credential(c))
	if err != nil {
		return h.failed(c, "admin.dashboard", err, "Failed to load dashboard")
	}
	return render(c, "admin_dashboard", fiber.Map{"Stats": stats})
}

// GET /admin/merchants
func (h *AdminHandler) MerchantsPage(c *fiber.Ctx) error {
	q := listQuery(c, h.Merchants.API.PageSize())
	page, err := h.Merchants.List(c.UserContext(), session.SID(c), session.Credential(c), q)
	if err != nil {
		return h.failed(c, "admin.merchants.list", err, "Failed to fetch merchant enquiries")
	}
	if page.Info.TotalPages > 0 && q.Page > page.Info.TotalPages {
		q.Page = page.Info.TotalPages
		return c.Redirect(listURL(merchantsPath, q))
	}
	return render(c, "admin_merchants", fiber.Map{
		"Merchants":     page.Items,
		"Info":          page.Info,
		"Base":          merchantsPath,
		"Query":         q,
		"Rows":          len(page.Items),
		"BusinessTypes": domain.BusinessTypes,
	})
}

// GET /admin/merchants/:id/delete
func (h *AdminHandler) ConfirmDeleteMerchant(c *fiber.Ctx) error {
	id, ok := validID(c)
	if !ok {
		return message(c, fiber.StatusNotFound, "Enquiry not found")
	}
	return confirmDelete(c, "enquiry", c.Query("name"), merchantsPath+"/"+id+"/delete", merchantsPath)
}

// POST /admin/merchants/:id/delete
func (h *AdminHandler) DeleteMerchant(c *fiber.Ctx) error {
	id, ok := validID(c)
	if !ok {
		return message(c, fiber.StatusNotFound, "Enquiry not found")
	}
	next := afterDelete(c, merchantsPath)
	if err := h.Merchants.Delete(c.UserContext(), session.Credential(c), id); err != nil {
		return h.failedTo(c, next, "admin.merchants.delete", err, "Failed to delete enquiry")
	}
	applog.Audit(c, "admin.merchants.delete", map[string]any{"id": id})
	return back(c, next, session.FlashSuccess, "Enquiry deleted successfully")
}

// GET /admin/users
func (h *AdminHandler) UsersPage(c *fiber.Ctx) error {
	q := listQuery(c, h.Users.API.PageSize())
	page, err := h.Users.List(c.UserContext(), session.SID(c), session.Credential(c), q)
	if err != nil {
		return h.failed(c, "admin.users.list", err, "Failed to fetch users")
	}
	if page.Info.TotalPages > 0 && q.Page > page.Info.TotalPages {
		q.Page = page.Info.TotalPages
		return c.Redirect(listURL(usersPath, q))
	}
	return render(c, "admin_users", fiber.Map{"Users": page.Items, "Info": page.Info, "Query": q, "Base": usersPath})
}
