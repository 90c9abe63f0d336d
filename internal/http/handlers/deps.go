package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"freshbasket/internal/api"
	"freshbasket/internal/listing"
	"freshbasket/internal/services"
	"freshbasket/internal/session"
)

type Deps struct {
	Guard      *session.Guard
	Auth       *AuthHandler
	Admin      *AdminHandler
	Products   *ProductHandler
	Categories *CategoryHandler
	Inventory  *InventoryHandler
	Public     *PublicHandler

	seq *listing.Sequencers
}

func NewDeps(client *api.Client, backend session.Backend, guard *session.Guard) *Deps {
	seq := listing.NewSequencers()
	guard.OnEnd(func(sid string) { seq.Forget(sid + ":") })
	forms := &services.Forms{Drafts: backend}
	merchants := services.NewMerchantService(client, seq)
	s := screen{Guard: guard}

	return &Deps{
		Guard: guard,
		Auth:  &AuthHandler{Auth: &services.AuthService{API: client}, Guard: guard},
		Admin: &AdminHandler{
			screen:    s,
			Dashboard: &services.DashboardService{API: client},
			Merchants: merchants,
			Users:     services.NewUserService(client, seq),
		},
		Products:   &ProductHandler{screen: s, Products: services.NewProductService(client, forms, seq)},
		Categories: &CategoryHandler{screen: s, Categories: services.NewCategoryService(client, forms, seq)},
		Inventory:  &InventoryHandler{screen: s, Inventory: services.NewInventoryService(client, forms, seq)},
		Public:     &PublicHandler{Merchants: merchants},
		seq:        seq,
	}
}

// Sweep drops list sequencers of sessions idle for longer than idle.
func (d *Deps) Sweep(idle time.Duration) int { return d.seq.Sweep(idle) }

// Mount registers the storefront and back-office routes. loginLimit guards
// the login POST.
func (d *Deps) Mount(app *fiber.App, loginLimit fiber.Handler) {
	app.Get("/", d.Public.Home)
	app.Get("/terms", d.Public.Terms)
	app.Get("/privacy", d.Public.Privacy)
	app.Get("/register-business", d.Public.RegisterForm)
	app.Post("/register-business", d.Public.Register)

	app.Get(session.LoginPath, d.Auth.LoginForm)
	app.Post(session.LoginPath, loginLimit, d.Auth.Login)
	app.Post("/admin/logout", d.Auth.Logout)

	admin := app.Group("/admin", d.Guard.Require())
	admin.Get("/", d.Admin.Home)

	admin.Get("/products", d.Products.List)
	admin.Get("/products/export.xlsx", d.Products.Export)
	admin.Get("/products/new", d.Products.New)
	admin.Post("/products/new", d.Products.Add)
	admin.Get("/products/:id/edit", d.Products.Edit)
	admin.Post("/products/:id/edit", d.Products.Update)
	admin.Get("/products/:id/delete", d.Products.ConfirmDelete)
	admin.Post("/products/:id/delete", d.Products.Delete)

	admin.Get("/categories", d.Categories.List)
	admin.Get("/categories/new", d.Categories.New)
	admin.Post("/categories/new", d.Categories.Create)
	admin.Get("/categories/:id/edit", d.Categories.Edit)
	admin.Post("/categories/:id/edit", d.Categories.Update)
	admin.Get("/categories/:id/delete", d.Categories.ConfirmDelete)
	admin.Post("/categories/:id/delete", d.Categories.Delete)

	admin.Get("/inventory", d.Inventory.List)
	admin.Get("/inventory/new", d.Inventory.New)
	admin.Post("/inventory/new", d.Inventory.Add)
	admin.Post("/inventory/:id/stock", d.Inventory.UpdateStock)
	admin.Get("/inventory/:id/delete", d.Inventory.ConfirmDelete)
	admin.Post("/inventory/:id/delete", d.Inventory.Delete)

	admin.Get("/merchants", d.Admin.MerchantsPage)
	admin.Get("/merchants/:id/delete", d.Admin.ConfirmDeleteMerchant)
	admin.Post("/merchants/:id/delete", d.Admin.DeleteMerchant)
	admin.Get("/users", d.Admin.UsersPage)
}
