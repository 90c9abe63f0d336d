package listing

import (
	"net/url"
	"strconv"
	"strings"

	"freshbasket/internal/domain"
)

// Allowed fixed page sizes.
const (
	SmallPage = 10
	LargePage = 20
)

// NormalizePage clamps a requested 1-indexed page.
func NormalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// PageSize maps anything other than 20 to 10.
func PageSize(size int) int {
	if size == LargePage {
		return LargePage
	}
	return SmallPage
}

// Paginate slices an in-memory collection. Pages past the end are clamped to
// the last page.
func Paginate[T any](items []T, page, size int) ([]T, domain.PageInfo) {
	total := len(items)
	info := Info(total, page, size)
	if info.Page > info.TotalPages {
		info = Info(total, info.TotalPages, size)
	}
	start := (info.Page - 1) * info.Limit
	end := start + info.Limit
	if end > total {
		end = total
	}
	if start >= total {
		return []T{}, info
	}
	return items[start:end], info
}

// Info computes the pagination envelope for total rows.
func Info(total, page, size int) domain.PageInfo {
	size = PageSize(size)
	page = NormalizePage(page)
	pages := (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	return domain.PageInfo{
		Total:       total,
		Page:        page,
		Limit:       size,
		TotalPages:  pages,
		HasNextPage: page < pages,
		HasPrevPage: page > 1,
	}
}

// AfterDelete returns the page to show once a row was deleted from page,
// where remaining is how many rows page still holds.
func AfterDelete(page, remaining int) int {
	if remaining <= 0 && page > 1 {
		return page - 1
	}
	return NormalizePage(page)
}

// Query is a server-paginated list request.
type Query struct {
	Page   int
	Limit  int
	Filter Filter
}

// Values encodes q as the API's query parameters.
func (q Query) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(NormalizePage(q.Page)))
	v.Set("limit", strconv.Itoa(PageSize(q.Limit)))
	set := func(k, s string) {
		s = strings.TrimSpace(s)
		if s != "" && s != All {
			v.Set(k, s)
		}
	}
	set("search", q.Filter.Search)
	set("category", q.Filter.Category)
	set("status", q.Filter.Status)
	set("businessType", q.Filter.BusinessType)
	if q.Filter.Approval != "" && q.Filter.Approval != All {
		v.Set("status", q.Filter.Approval)
	}
	return v
}

// Window returns up to width page numbers centred on the current page.
func Window(info domain.PageInfo, width int) []int {
	if width <= 0 || width > info.TotalPages {
		width = info.TotalPages
	}
	start := info.Page - width/2
	if start > info.TotalPages-width+1 {
		start = info.TotalPages - width + 1
	}
	if start < 1 {
		start = 1
	}
	out := make([]int, 0, width)
	for i := start; i < start+width; i++ {
		out = append(out, i)
	}
	return out
}
