// Package api is the client for the remote grocery REST API. It owns the
// endpoint set, attaches the admin credential and maps responses onto the
// error taxonomy in errors.go.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"freshbasket/internal/config"
)

const (
	AuthBearer = "bearer"
	AuthCookie = "cookie"
)

// Client is safe for concurrent use.
type Client struct {
	base     string
	mode     string
	cookie   string
	timeout  time.Duration
	pageSize int
}

func New(cfg config.APIConfig) *Client {
	mode := cfg.AuthMode
	if mode != AuthCookie {
		mode = AuthBearer
	}
	return &Client{
		base:     strings.TrimRight(cfg.BaseURL, "/"),
		mode:     mode,
		cookie:   cfg.Cookie,
		timeout:  cfg.Timeout,
		pageSize: cfg.PageSize,
	}
}

func (c *Client) PageSize() int { return c.pageSize }

// envelope carries the fields every response may include.
type envelope struct {
	Message    string `json:"message"`
	Error      string `json:"error"`
	TokenValid *bool  `json:"tokenValid"`
	Success    *bool  `json:"success"`
}

type response struct {
	status    int
	body      []byte
	setCookie string
}

type call struct {
	method string
	path   string
	query  url.Values
	cred   string
	body   any
	// public calls carry no credential, so a 401 is a business error.
	public bool
	// fallback is the message used when the server sends none.
	fallback string
}

func (c *Client) send(ctx context.Context, cl call) (response, error) {
	if err := ctx.Err(); err != nil {
		return response{}, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	timeout := c.timeout
	if dl, ok := ctx.Deadline(); ok {
		left := time.Until(dl)
		if left <= 0 {
			return response{}, fmt.Errorf("%w: %w", ErrNetwork, context.DeadlineExceeded)
		}
		if timeout <= 0 || left < timeout {
			timeout = left
		}
	}

	u := c.base + cl.path
	if len(cl.query) > 0 {
		u += "?" + cl.query.Encode()
	}

	a := fiber.AcquireAgent()
	req := a.Request()
	req.Header.SetMethod(cl.method)
	req.SetRequestURI(u)
	a.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)
	if cl.cred != "" {
		if c.mode == AuthCookie {
			a.Cookie(c.cookie, cl.cred)
		} else {
			a.Set(fiber.HeaderAuthorization, "Bearer "+cl.cred)
		}
	}
	if cl.body != nil {
		a.JSON(cl.body)
	}
	if timeout > 0 {
		a.Timeout(timeout)
	}
	resp := fiber.AcquireResponse()
	defer fiber.ReleaseResponse(resp)
	a.SetResponse(resp)

	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		return response{}, fmt.Errorf("%w: %s %s: %w", ErrNetwork, cl.method, cl.path, err)
	}
	status, body, errs := a.Bytes()
	if len(errs) > 0 {
		return response{}, fmt.Errorf("%w: %s %s: %w", ErrNetwork, cl.method, cl.path, errors.Join(errs...))
	}

	out := response{status: status, body: body}
	if c.mode == AuthCookie && c.cookie != "" {
		out.setCookie = cookieValue(c.cookie, string(resp.Header.PeekCookie(c.cookie)))
	}
	return out, nil
}

// do sends cl and decodes a successful body into out (when non-nil).
func (c *Client) do(ctx context.Context, cl call, out any) (response, error) {
	resp, err := c.send(ctx, cl)
	if err != nil {
		return resp, err
	}
	var env envelope
	if len(resp.body) > 0 {
		_ = json.Unmarshal(resp.body, &env)
	}
	if !cl.public && (resp.status == fiber.StatusUnauthorized || (env.TokenValid != nil && !*env.TokenValid)) {
		return resp, ErrUnauthorized
	}
	if resp.status >= 400 || (env.Success != nil && !*env.Success) {
		msg := env.Message
		if msg == "" {
			msg = env.Error
		}
		if msg == "" {
			msg = cl.fallback
		}
		return resp, &APIError{Status: resp.status, Message: msg}
	}
	if out != nil && len(resp.body) > 0 {
		if err := json.Unmarshal(resp.body, out); err != nil {
			return resp, fmt.Errorf("%w: decode %s: %w", ErrNetwork, cl.path, err)
		}
	}
	return resp, nil
}

// cookieValue extracts the value of cookie name from a Set-Cookie header.
func cookieValue(name, raw string) string {
	pair, _, _ := strings.Cut(raw, ";")
	pair = strings.TrimSpace(pair)
	return strings.TrimPrefix(pair, name+"=")
}

func idPath(prefix, id string) string { return prefix + "/" + url.PathEscape(id) }
