package api

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"freshbasket/internal/domain"
	"freshbasket/internal/listing"
)

// Page is one server page of a collection.
type Page[T any] struct {
	Items []T
	Info  domain.PageInfo
}

// pageBody accepts both a nested pagination object and top-level totals.
type pageBody struct {
	Pagination *domain.PageInfo `json:"pagination"`
	Total      int              `json:"total"`
	TotalPages int              `json:"totalPages"`
	Page       int              `json:"page"`
}

func (b pageBody) info(q listing.Query, n int) domain.PageInfo {
	if b.Pagination != nil && b.Pagination.TotalPages > 0 {
		return *b.Pagination
	}
	page := q.Page
	if b.Page > 0 {
		page = b.Page
	}
	total := b.Total
	if total == 0 {
		total = n
	}
	info := listing.Info(total, page, q.Limit)
	if b.TotalPages > 0 {
		info.TotalPages = b.TotalPages
		info.HasNextPage = info.Page < info.TotalPages
	}
	return info
}

type countBody struct {
	Count int `json:"count"`
}

// Login exchanges admin credentials for the credential to store: the token
// in bearer mode, the API session cookie value in cookie mode.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var body struct {
		Token string `json:"token"`
	}
	resp, err := c.do(ctx, call{
		method:   fiber.MethodPost,
		path:     "/admin/auth/login",
		body:     map[string]string{"email": email, "password": password},
		public:   true,
		fallback: "Login failed",
	}, &body)
	if err != nil {
		return "", err
	}
	cred := body.Token
	if c.mode == AuthCookie {
		cred = resp.setCookie
	}
	if cred == "" {
		return "", &APIError{Status: resp.status, Message: "Login failed"}
	}
	return cred, nil
}

func (c *Client) Logout(ctx context.Context, cred string) error {
	_, err := c.do(ctx, call{method: fiber.MethodPost, path: "/admin/auth/logout", cred: cred}, nil)
	return err
}

func (c *Client) ListProducts(ctx context.Context, cred string, q listing.Query) (Page[domain.Product], error) {
	var body struct {
		pageBody
		Products []domain.Product `json:"products"`
	}
	if _, err := c.do(ctx, call{
		method: fiber.MethodGet, path: "/admin/products", query: q.Values(), cred: cred,
		fallback: "Failed to fetch products",
	}, &body); err != nil {
		return Page[domain.Product]{}, err
	}
	return Page[domain.Product]{Items: body.Products, Info: body.info(q, len(body.Products))}, nil
}

// GetProduct returns the stored record as raw JSON fields so that an edit
// form can send back everything it did not touch.
func (c *Client) GetProduct(ctx context.Context, cred, id string) (map[string]any, error) {
	var body map[string]any
	if _, err := c.do(ctx, call{
		method: fiber.MethodGet, path: idPath("/admin/products", id), cred: cred,
		fallback: "Failed to fetch product",
	}, &body); err != nil {
		return nil, err
	}
	if inner, ok := body["product"].(map[string]any); ok {
		return inner, nil
	}
	return body, nil
}

func (c *Client) CreateProduct(ctx context.Context, cred string, payload map[string]any) error {
	_, err := c.do(ctx, call{
		method: fiber.MethodPost, path: "/admin/products", cred: cred, body: payload,
		fallback: "Failed to add product",
	}, nil)
	return err
}

func (c *Client) UpdateProduct(ctx context.Context, cred, id string, payload map[string]any) error {
	_, err := c.do(ctx, call{
		method: fiber.MethodPut, path: idPath("/admin/products", id), cred: cred, body: payload,
		fallback: "Failed to update product",
	}, nil)
	return err
}

func (c *Client) DeleteProduct(ctx context.Context, cred, id string) error {
	_, err := c.do(ctx, call{
		method: fiber.MethodDelete, path: idPath("/admin/products", id), cred: cred,
		fallback: "Failed to delete product",
	}, nil)
	return err
}

func (c *Client) ProductCount(ctx context.Context, cred string) (int, error) {
	var body countBody
	_, err := c.do(ctx, call{
		method: fiber.MethodGet, path: "/products/count", cred: cred,
		fallback: "Failed to fetch count",
	}, &body)
	return body.Count, err
}

func (c *Client) ListCategories(ctx context.Context, cred string) ([]domain.Category, error) {
	var body struct {
		Categories []domain.Category `json:"categories"`
	}
	if _, err := c.do(ctx, call{
		method: fiber.MethodGet, path: "/admin/categories", cred: cred,
		fallback: "Failed to fetch categories",
	}, &body); err != nil {
		return nil, err
	}
	return body.Categories, nil
}

func (c *Client) CreateCategory(ctx context.Context, cred string, payload map[string]any) error {
	_, err := c.do(ctx, call{
		method: fiber.MethodPost, path: "/admin/categories", cred: cred, body: payload,
		fallback: "Failed to save category",
	}, nil)
	return err
}

func (c *Client) UpdateCategory(ctx context.Context, cred, id string, payload map[string]any) error {
	_, err := c.do(ctx, call{
		method: fiber.MethodPut, path: idPath("/admin/categories", id), cred: cred, body: payload,
		fallback: "Failed to save category",
	}, nil)
	return err
}

func (c *Client) DeleteCategory(ctx context.Context, cred, id string) error {
	_, err := c.do(ctx, call{
		method: fiber.MethodDelete, path: idPath("/admin/categories", id), cred: cred,
		fallback: "Failed to delete category",
	}, nil)
	return err
}

func (c *Client) ListInventory(ctx context.Context, cred string) ([]domain.InventoryItem, error) {
	var body struct {
		Inventory []domain.InventoryItem `json:"inventory"`
	}
	if _, err := c.do(ctx, call{
		method: fiber.MethodGet, path: "/inventory/all", cred: cred,
		fallback: "Failed to load inventory",
	}, &body); err != nil {
		return nil, err
	}
	return body.Inventory, nil
}

func (c *Client) AddInventory(ctx context.Context, cred string, payload map[string]any) error {
	_, err := c.do(ctx, call{
		method: fiber.MethodPost, path: "/inventory/add", cred: cred, body: payload,
		fallback: "Failed to add inventory item. Please try again.",
	}, nil)
	return err
}

func (c *Client) UpdateInventory(ctx context.Context, cred, id string, payload map[string]any) error {
	_, err := c.do(ctx, call{
		method: fiber.MethodPut, path: idPath("/inventory", id), cred: cred, body: payload,
		fallback: "Failed to update inventory item",
	}, nil)
	return err
}

func (c *Client) DeleteInventory(ctx context.Context, cred, id string) error {
	_, err := c.do(ctx, call{
		method: fiber.MethodDelete, path: idPath("/inventory", id), cred: cred,
		fallback: "Failed to delete inventory item",
	}, nil)
	return err
}

func (c *Client) ListMerchants(ctx context.Context, cred string, q listing.Query) (Page[domain.MerchantEnquiry], error) {
	var body struct {
		pageBody
		Merchants []domain.MerchantEnquiry `json:"merchants"`
	}
	if _, err := c.do(ctx, call{
		method: fiber.MethodGet, path: "/admin/merchants/enquiries", query: q.Values(), cred: cred,
		fallback: "Failed to fetch merchants",
	}, &body); err != nil {
		return Page[domain.MerchantEnquiry]{}, err
	}
	return Page[domain.MerchantEnquiry]{Items: body.Merchants, Info: body.info(q, len(body.Merchants))}, nil
}

func (c *Client) DeleteMerchant(ctx context.Context, cred, id string) error {
	_, err := c.do(ctx, call{
		method: fiber.MethodDelete, path: idPath("/admin/merchants/enquiries", id), cred: cred,
		fallback: "Failed to delete merchant",
	}, nil)
	return err
}

// RegisterMerchant submits the public business registration form.
func (c *Client) RegisterMerchant(ctx context.Context, m domain.MerchantEnquiry) error {
	_, err := c.do(ctx, call{
		method: fiber.MethodPost, path: "/merchants", body: m, public: true,
		fallback: "Registration failed. Please try again.",
	}, nil)
	var ae *APIError
	if errors.As(err, &ae) && (ae.Status == fiber.StatusConflict || isDuplicate(ae.Message)) {
		return ErrDuplicateEmail
	}
	return err
}

func isDuplicate(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "already") || strings.Contains(m, "duplicate") || strings.Contains(m, "exists")
}

func (c *Client) ListUsers(ctx context.Context, cred string, q listing.Query) (Page[domain.User], error) {
	var body struct {
		pageBody
		Users []domain.User `json:"users"`
	}
	if _, err := c.do(ctx, call{
		method: fiber.MethodGet, path: "/admin/users", query: q.Values(), cred: cred,
		fallback: "Failed to fetch users",
	}, &body); err != nil {
		return Page[domain.User]{}, err
	}
	return Page[domain.User]{Items: body.Users, Info: body.info(q, len(body.Users))}, nil
}

func (c *Client) UserCount(ctx context.Context, cred string) (int, error) {
	var body countBody
	_, err := c.do(ctx, call{
		method: fiber.MethodGet, path: "/admin/users/count", cred: cred,
		fallback: "Failed to fetch total users count",
	}, &body)
	return body.Count, err
}
