package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"freshbasket/internal/api"
	"freshbasket/internal/domain"
	"freshbasket/internal/draft"
	"freshbasket/internal/log"
	"freshbasket/internal/services"
	"freshbasket/internal/session"
)

const categoriesPath = "/admin/categories"

type CategoryHandler struct {
	screen
	Categories *services.CategoryService
}

// GET /admin/categories
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	q := listQuery(c, h.Categories.API.PageSize())
	view, err := h.Categories.List(c.UserContext(), session.SID(c), session.Credential(c), q.Filter, q.Page, q.Limit)
	if err != nil {
		return h.failed(c, "admin.categories.list", err, "Failed to fetch categories")
	}
	q.Page = view.Info.Page
	return render(c, "admin_categories", fiber.Map{
		"Categories":     view.Items,
		"Info":           view.Info,
		"Total":          view.Total,
		"Base":           categoriesPath,
		"Query":          q,
		"Rows":           len(view.Items),
		"MainCategories": domain.MainCategories,
	})
}

// GET /admin/categories/new
func (h *CategoryHandler) New(c *fiber.Ctx) error {
	form, err := h.Categories.OpenNew(c.UserContext(), session.SID(c))
	if err != nil {
		return h.failed(c, "admin.categories.new", err, "Could not open the category form")
	}
	return h.form(c, fiber.StatusOK, "", form, "")
}

// POST /admin/categories/new
func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	ctx, sid := c.UserContext(), session.SID(c)
	form, err := h.Categories.OpenNew(ctx, sid)
	if err != nil {
		return h.failed(c, "admin.categories.new", err, "Could not open the category form")
	}
	if err := h.Categories.Save(ctx, sid, session.Credential(c), "", form, formValues(c)); err != nil {
		return h.saveFailed(c, "admin.categories.create", "", form, err, "Failed to add category")
	}
	log.Audit(c, "admin.categories.create", map[string]any{"name": c.FormValue("name")})
	return back(c, categoriesPath, session.FlashSuccess, "Category added successfully")
}

// GET /admin/categories/:id/edit
func (h *CategoryHandler) Edit(c *fiber.Ctx) error {
	id, ok := validID(c)
	if !ok {
		return message(c, fiber.StatusNotFound, "Category not found")
	}
	form, err := h.Categories.StartEdit(c.UserContext(), session.SID(c), session.Credential(c), id)
	if err != nil {
		return h.failed(c, "admin.categories.load", err, "Failed to fetch category")
	}
	return h.form(c, fiber.StatusOK, id, form, "")
}

// POST /admin/categories/:id/edit
func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	id, ok := validID(c)
	if !ok {
		return message(c, fiber.StatusNotFound, "Category not found")
	}
	ctx, sid, cred := c.UserContext(), session.SID(c), session.Credential(c)
	form, err := h.Categories.OpenEdit(ctx, sid, cred, id)
	if err != nil {
		return h.failed(c, "admin.categories.load", err, "Failed to fetch category")
	}
	if err := h.Categories.Save(ctx, sid, cred, id, form, formValues(c)); err != nil {
		return h.saveFailed(c, "admin.categories.update", id, form, err, "Failed to update category")
	}
	log.Audit(c, "admin.categories.update", map[string]any{"id": id})
	return back(c, categoriesPath, session.FlashSuccess, "Category updated successfully")
}

// GET /admin/categories/:id/delete
func (h *CategoryHandler) ConfirmDelete(c *fiber.Ctx) error {
	id, ok := validID(c)
	if !ok {
		return message(c, fiber.StatusNotFound, "Category not found")
	}
	return confirmDelete(c, "category", c.Query("name"), categoriesPath+"/"+id+"/delete", categoriesPath)
}

// POST /admin/categories/:id/delete
func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	id, ok := validID(c)
	if !ok {
		return message(c, fiber.StatusNotFound, "Category not found")
	}
	next := afterDelete(c, categoriesPath)
	if err := h.Categories.Delete(c.UserContext(), session.Credential(c), id); err != nil {
		return h.failedTo(c, next, "admin.categories.delete", err, "Failed to delete category")
	}
	if err := h.Categories.Discard(c.UserContext(), session.SID(c), id); err != nil {
		log.Error(c, "admin.categories.discard.fail", err, map[string]any{"id": id})
	}
	log.Audit(c, "admin.categories.delete", map[string]any{"id": id})
	return back(c, next, session.FlashSuccess, "Category deleted successfully")
}

func (h *CategoryHandler) form(c *fiber.Ctx, status int, id string, form *draft.Form, errMsg string) error {
	return render(c.Status(status), "admin_category_form", fiber.Map{
		"ID":             id,
		"Draft":          form.Draft(),
		"MainCategories": domain.MainCategories,
		"Err":            errMsg,
	})
}

func (h *CategoryHandler) saveFailed(c *fiber.Ctx, action, id string, form *draft.Form, err error, fallback string) error {
	if errors.Is(err, api.ErrUnauthorized) {
		log.Security(c, "session.rejected", map[string]any{"action": action})
		return h.Guard.Expire(c)
	}
	log.Error(c, action+".fail", err, map[string]any{"id": id})
	return h.form(c, statusOf(err), id, form, formError(err, fallback))
}
