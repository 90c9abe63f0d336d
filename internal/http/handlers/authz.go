package handlers

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"freshbasket/internal/api"
	"freshbasket/internal/draft"
	"freshbasket/internal/listing"
	applog "freshbasket/internal/log"
	"freshbasket/internal/services"
	"freshbasket/internal/session"
	"freshbasket/internal/validate"
)

// screen holds what every guarded admin handler shares.
type screen struct {
	Guard *session.Guard
}

// failed turns an error from a list or page load into a response. A rejected
// credential ends the session; a superseded fetch renders nothing.
func (s screen) failed(c *fiber.Ctx, action string, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrStale):
		return c.SendStatus(fiber.StatusNoContent)
	case errors.Is(err, api.ErrUnauthorized):
		applog.Security(c, "session.rejected", map[string]any{"action": action})
		return s.Guard.Expire(c)
	}
	applog.Error(c, action+".fail", err, nil)
	return message(c, statusOf(err), api.Message(err, fallback))
}

// failedTo reports a failed mutation as a flash on the page at path.
func (s screen) failedTo(c *fiber.Ctx, path, action string, err error, fallback string) error {
	if errors.Is(err, api.ErrUnauthorized) {
		applog.Security(c, "session.rejected", map[string]any{"action": action})
		return s.Guard.Expire(c)
	}
	applog.Error(c, action+".fail", err, nil)
	return back(c, path, session.FlashError, api.Message(err, fallback))
}

func statusOf(err error) int {
	var ae *api.APIError
	switch {
	case errors.As(err, &ae) && ae.Status >= 400 && ae.Status < 600:
		return ae.Status
	case errors.Is(err, api.ErrNetwork):
		return fiber.StatusBadGateway
	case errors.Is(err, draft.ErrValidation), errors.Is(err, services.ErrUnknownOp):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

// formValues returns the posted fields without the csrf token and action.
func formValues(c *fiber.Ctx) url.Values {
	vals := url.Values{}
	c.Request().PostArgs().VisitAll(func(k, v []byte) {
		key := string(k)
		if key == "csrf" || key == "op" {
			return
		}
		vals.Add(key, string(v))
	})
	return vals
}

// listQuery reads the pager and filter inputs of a list screen. Unknown
// values fall back to "all"; a missing limit falls back to size.
func listQuery(c *fiber.Ctx, size int) listing.Query {
	q, ok := validate.Q(c.Query("search"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "search"})
		q = ""
	}
	tri := []string{listing.All, listing.Active, listing.Inactive}
	yn := []string{listing.All, listing.Yes, listing.No}
	f := listing.Filter{
		Search:       q,
		Status:       validate.OneOf(c.Query("status"), tri, listing.All),
		ShowOnHome:   validate.OneOf(c.Query("showOnHome"), yn, listing.All),
		Approval:     validate.OneOf(c.Query("approval"), []string{listing.All, listing.Pending, listing.Approved}, listing.All),
		BusinessType: c.Query("businessType"),
		MainCategory: c.Query("mainCategory"),
	}
	if cat := c.Query("category"); cat != "" && cat != listing.All {
		if id, ok := validate.ID(cat); ok {
			f.Category = id
		}
	}
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil {
		limit = size
	}
	return listing.Query{Page: validate.Page(c.Query("page")), Limit: listing.PageSize(limit), Filter: f}
}

// listURL is the list screen at base showing q.
func listURL(base string, q listing.Query) string {
	v := url.Values{}
	v.Set("page", strconv.Itoa(listing.NormalizePage(q.Page)))
	v.Set("limit", strconv.Itoa(listing.PageSize(q.Limit)))
	set := func(k, s string) {
		if s != "" && s != listing.All {
			v.Set(k, s)
		}
	}
	set("search", q.Filter.Search)
	set("category", q.Filter.Category)
	set("status", q.Filter.Status)
	set("showOnHome", q.Filter.ShowOnHome)
	set("mainCategory", q.Filter.MainCategory)
	set("businessType", q.Filter.BusinessType)
	set("approval", q.Filter.Approval)
	return base + "?" + v.Encode()
}

// afterDelete is the list page to return to once a row was deleted. The
// confirm form posts the list state and how many rows the page showed.
func afterDelete(c *fiber.Ctx, base string) string {
	q := listing.Query{
		Page:  validate.Page(c.FormValue("page")),
		Limit: listing.PageSize(atoi(c.FormValue("limit"))),
		Filter: listing.Filter{
			Search:       c.FormValue("search"),
			Category:     c.FormValue("category"),
			Status:       c.FormValue("status"),
			ShowOnHome:   c.FormValue("showOnHome"),
			MainCategory: c.FormValue("mainCategory"),
			BusinessType: c.FormValue("businessType"),
			Approval:     c.FormValue("approval"),
		},
	}
	q.Page = listing.AfterDelete(q.Page, atoi(c.FormValue("rows"))-1)
	return listURL(base, q)
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// validID reads the :id route parameter.
func validID(c *fiber.Ctx) (string, bool) {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "id"})
	}
	return id, ok
}

// formError is the message shown above a form that could not be saved.
func formError(err error, fallback string) string {
	if errors.Is(err, draft.ErrValidation) {
		return "Please check the form: " + strings.TrimPrefix(err.Error(), draft.ErrValidation.Error()+": ")
	}
	if errors.Is(err, services.ErrUnknownOp) {
		return "That action is not available."
	}
	return api.Message(err, fallback)
}
