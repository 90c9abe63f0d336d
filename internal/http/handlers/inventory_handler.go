package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"freshbasket/internal/api"
	"freshbasket/internal/draft"
	"freshbasket/internal/log"
	"freshbasket/internal/services"
	"freshbasket/internal/session"
)

const inventoryPath = "/admin/inventory"

// InventoryHandler serves the legacy stock screens.
type InventoryHandler struct {
	screen
	Inventory *services.InventoryService
}

// GET /admin/inventory
func (h *InventoryHandler) List(c *fiber.Ctx) error {
	q := listQuery(c, h.Inventory.API.PageSize())
	view, err := h.Inventory.List(c.UserContext(), session.SID(c), session.Credential(c), q.Filter, q.Page, q.Limit)
	if err != nil {
		return h.failed(c, "admin.inventory.list", err, "Failed to fetch inventory")
	}
	q.Page = view.Info.Page
	return render(c, "admin_inventory", fiber.Map{
		"Items": view.Rows,
		"Info":  view.Info,
		"Base":  inventoryPath,
		"Query": q,
		"Rows":  len(view.Rows),
	})
}

// GET /admin/inventory/new
func (h *InventoryHandler) New(c *fiber.Ctx) error {
	form, err := h.Inventory.OpenNew(c.UserContext(), session.SID(c))
	if err != nil {
		return h.failed(c, "admin.inventory.new", err, "Could not open the inventory form")
	}
	return h.form(c, fiber.StatusOK, form, "")
}

// POST /admin/inventory/new
func (h *InventoryHandler) Add(c *fiber.Ctx) error {
	ctx, sid := c.UserContext(), session.SID(c)
	form, err := h.Inventory.OpenNew(ctx, sid)
	if err != nil {
		return h.failed(c, "admin.inventory.new", err, "Could not open the inventory form")
	}
	if err := h.Inventory.Add(ctx, sid, session.Credential(c), form, formValues(c)); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			log.Security(c, "session.rejected", map[string]any{"action": "admin.inventory.add"})
			return h.Guard.Expire(c)
		}
		log.Error(c, "admin.inventory.add.fail", err, nil)
		return h.form(c, statusOf(err), form, formError(err, "Failed to add item"))
	}
	log.Audit(c, "admin.inventory.add", map[string]any{"item": c.FormValue("itemName")})
	return back(c, inventoryPath, session.FlashSuccess, "Item added successfully")
}

// POST /admin/inventory/:id/stock
func (h *InventoryHandler) UpdateStock(c *fiber.Ctx) error {
	id, ok := validID(c)
	if !ok {
		return message(c, fiber.StatusNotFound, "Item not found")
	}
	qty, err := strconv.Atoi(c.FormValue("qty"))
	if err != nil || qty < 0 {
		log.Security(c, "validation.fail", map[string]any{"field": "qty"})
		return back(c, inventoryPath, session.FlashError, "Enter a valid quantity")
	}
	ctx, cred := c.UserContext(), session.Credential(c)
	item, err := h.Inventory.Find(ctx, cred, id)
	if err == nil {
		err = h.Inventory.UpdateStock(ctx, cred, item, qty)
	}
	if err != nil {
		return h.failedTo(c, inventoryPath, "admin.inventory.save", err, "Failed to update item")
	}
	log.Audit(c, "admin.inventory.save", map[string]any{"id": id, "qty": qty})
	return back(c, inventoryPath, session.FlashSuccess, "Stock updated")
}

// GET /admin/inventory/:id/delete
func (h *InventoryHandler) ConfirmDelete(c *fiber.Ctx) error {
	id, ok := validID(c)
	if !ok {
		return message(c, fiber.StatusNotFound, "Item not found")
	}
	return confirmDelete(c, "item", c.Query("name"), inventoryPath+"/"+id+"/delete", inventoryPath)
}

// POST /admin/inventory/:id/delete
func (h *InventoryHandler) Delete(c *fiber.Ctx) error {
	id, ok := validID(c)
	if !ok {
		return message(c, fiber.StatusNotFound, "Item not found")
	}
	next := afterDelete(c, inventoryPath)
	if err := h.Inventory.Delete(c.UserContext(), session.Credential(c), id); err != nil {
		return h.failedTo(c, next, "admin.inventory.delete", err, "Failed to delete item")
	}
	log.Audit(c, "admin.inventory.delete", map[string]any{"id": id})
	return back(c, next, session.FlashSuccess, "Item deleted successfully")
}

func (h *InventoryHandler) form(c *fiber.Ctx, status int, form *draft.Form, errMsg string) error {
	return render(c.Status(status), "admin_inventory_form", fiber.Map{"Draft": form.Draft(), "Err": errMsg})
}
