package handlers

import (
	"bytes"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"freshbasket/internal/api"
	"freshbasket/internal/domain"
	"freshbasket/internal/draft"
	"freshbasket/internal/export"
	"freshbasket/internal/log"
	"freshbasket/internal/services"
	"freshbasket/internal/session"
)

const productsPath = "/admin/products"

type ProductHandler struct {
	screen
	Products *services.ProductService
}

// GET /admin/products
func (h *ProductHandler) List(c *fiber.Ctx) error {
	q := listQuery(c, h.Products.API.PageSize())
	cred := session.Credential(c)
	page, err := h.Products.List(c.UserContext(), session.SID(c), cred, q)
	if err != nil {
		return h.failed(c, "admin.products.list", err, "Failed to fetch products")
	}
	if page.Info.TotalPages > 0 && q.Page > page.Info.TotalPages {
		q.Page = page.Info.TotalPages
		return c.Redirect(listURL(productsPath, q))
	}
	cats, err := h.Products.Categories(c.UserContext(), cred)
	if err != nil {
		return h.failed(c, "admin.categories.list", err, "Failed to fetch categories")
	}
	return render(c, "admin_products", fiber.Map{
		"Products":   page.Items,
		"Info":       page.Info,
		"Base":       productsPath,
		"Query":      q,
		"Rows":       len(page.Items),
		"Categories": cats,
	})
}

// GET /admin/products/export.xlsx
func (h *ProductHandler) Export(c *fiber.Ctx) error {
	q := listQuery(c, h.Products.API.PageSize())
	products, err := h.Products.All(c.UserContext(), session.Credential(c), q.Filter)
	if err != nil {
		return h.failed(c, "admin.products.export", err, "Failed to export products")
	}
	var buf bytes.Buffer
	if err := export.Products(&buf, products); err != nil {
		log.Error(c, "admin.products.export.fail", err, nil)
		return message(c, fiber.StatusInternalServerError, "Failed to export products")
	}
	log.Audit(c, "admin.products.export", map[string]any{"count": len(products)})
	c.Set(fiber.HeaderContentType, export.ContentType)
	c.Attachment(export.Filename(time.Now()))
	return c.Send(buf.Bytes())
}

// GET /admin/products/new
func (h *ProductHandler) New(c *fiber.Ctx) error {
	ctx, sid := c.UserContext(), session.SID(c)
	if c.Query("discard") != "" {
		if err := h.Products.Discard(ctx, sid, ""); err != nil {
			log.Error(c, "admin.products.discard.fail", err, nil)
		}
	}
	form, err := h.Products.OpenNew(ctx, sid)
	if err != nil {
		return h.failed(c, "admin.products.new", err, "Could not open the product form")
	}
	return h.form(c, fiber.StatusOK, "", form, "")
}

// POST /admin/products/new
func (h *ProductHandler) Add(c *fiber.Ctx) error {
	ctx, sid := c.UserContext(), session.SID(c)
	form, err := h.Products.OpenNew(ctx, sid)
	if err != nil {
		return h.failed(c, "admin.products.new", err, "Could not open the product form")
	}
	op := c.FormValue("op")
	saved, err := h.Products.Edit(ctx, sid, session.Credential(c), "", form, op, formValues(c))
	if err != nil {
		return h.editFailed(c, "admin.products.create", "", form, err, "Failed to add product")
	}
	if !saved {
		return h.form(c, fiber.StatusOK, "", form, "")
	}
	log.Audit(c, "admin.products.create", map[string]any{"name": c.FormValue("name"), "sku": c.FormValue("sku")})
	return back(c, productsPath+"/new", session.FlashSuccess, "Product added successfully")
}

// GET /admin/products/:id/edit
func (h *ProductHandler) Edit(c *fiber.Ctx) error {
	id, ok := validID(c)
	if !ok {
		return message(c, fiber.StatusNotFound, "Product not found")
	}
	form, err := h.Products.StartEdit(c.UserContext(), session.SID(c), session.Credential(c), id)
	if err != nil {
		return h.failed(c, "admin.products.load", err, "Failed to fetch product")
	}
	return h.form(c, fiber.StatusOK, id, form, "")
}

// POST /admin/products/:id/edit
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	id, ok := validID(c)
	if !ok {
		return message(c, fiber.StatusNotFound, "Product not found")
	}
	ctx, sid, cred := c.UserContext(), session.SID(c), session.Credential(c)
	form, err := h.Products.OpenEdit(ctx, sid, cred, id)
	if err != nil {
		return h.failed(c, "admin.products.load", err, "Failed to fetch product")
	}
	saved, err := h.Products.Edit(ctx, sid, cred, id, form, c.FormValue("op"), formValues(c))
	if err != nil {
		return h.editFailed(c, "admin.products.update", id, form, err, "Failed to update product")
	}
	if !saved {
		return h.form(c, fiber.StatusOK, id, form, "")
	}
	log.Audit(c, "admin.products.update", map[string]any{"id": id})
	return back(c, productsPath, session.FlashSuccess, "Product updated successfully")
}

// GET /admin/products/:id/delete
func (h *ProductHandler) ConfirmDelete(c *fiber.Ctx) error {
	id, ok := validID(c)
	if !ok {
		return message(c, fiber.StatusNotFound, "Product not found")
	}
	return confirmDelete(c, "product", c.Query("name"), productsPath+"/"+id+"/delete", productsPath)
}

// POST /admin/products/:id/delete
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	id, ok := validID(c)
	if !ok {
		return message(c, fiber.StatusNotFound, "Product not found")
	}
	next := afterDelete(c, productsPath)
	if err := h.Products.Delete(c.UserContext(), session.Credential(c), id); err != nil {
		return h.failedTo(c, next, "admin.products.delete", err, "Failed to delete product")
	}
	if err := h.Products.Discard(c.UserContext(), session.SID(c), id); err != nil {
		log.Error(c, "admin.products.discard.fail", err, map[string]any{"id": id})
	}
	log.Audit(c, "admin.products.delete", map[string]any{"id": id})
	return back(c, next, session.FlashSuccess, "Product deleted successfully")
}

func (h *ProductHandler) form(c *fiber.Ctx, status int, id string, form *draft.Form, errMsg string) error {
	cats, err := h.Products.Categories(c.UserContext(), session.Credential(c))
	if err != nil {
		return h.failed(c, "admin.categories.list", err, "Failed to fetch categories")
	}
	return render(c.Status(status), "admin_product_form", fiber.Map{
		"ID":         id,
		"Draft":      form.Draft(),
		"Categories": cats,
		"Statuses":   domain.StockStatuses,
		"Units":      domain.UnitOptions,
		"Err":        errMsg,
	})
}

// editFailed re-renders the form with what was typed and why it was not saved.
func (h *ProductHandler) editFailed(c *fiber.Ctx, action, id string, form *draft.Form, err error, fallback string) error {
	if errors.Is(err, api.ErrUnauthorized) {
		log.Security(c, "session.rejected", map[string]any{"action": action})
		return h.Guard.Expire(c)
	}
	if errors.Is(err, draft.ErrValidation) || errors.Is(err, services.ErrUnknownOp) {
		log.Security(c, "validation.fail", map[string]any{"form": "product", "error": err.Error()})
	} else {
		log.Error(c, action+".fail", err, map[string]any{"id": id})
	}
	return h.form(c, statusOf(err), id, form, formError(err, fallback))
}

// confirmDelete renders the delete confirmation for one row, carrying the
// list state so the list can step back a page afterwards.
func confirmDelete(c *fiber.Ctx, kind, name, action, cancel string) error {
	state := fiber.Map{}
	for _, k := range []string{"page", "limit", "rows", "search", "category", "status", "showOnHome", "mainCategory", "businessType", "approval"} {
		state[k] = c.Query(k)
	}
	return render(c, "confirm_delete", fiber.Map{
		"Kind":   kind,
		"Name":   name,
		"Action": action,
		"Cancel": cancel,
		"State":  state,
	})
}
