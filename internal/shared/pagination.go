package shared

import "math"

// DefaultPageSize is used when neither the request nor the server supplies one.
const DefaultPageSize = 10

// Pagination contains metadata for paginated listings.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// NewPagination computes pagination metadata, deriving Pages from total.
func NewPagination(page, limit, total int) Pagination {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if page <= 0 {
		page = 1
	}
	if total < 0 {
		total = 0
	}
	pages := int(math.Ceil(float64(total) / float64(limit)))
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}

// HasPrev reports whether a previous page exists.
func (p Pagination) HasPrev() bool { return p.Page > 1 }

// HasNext reports whether a following page exists.
func (p Pagination) HasNext() bool { return p.Page < p.Pages }

// PrevPage returns the previous page number, clamped at 1.
func (p Pagination) PrevPage() int {
	if p.Page <= 1 {
		return 1
	}
	return p.Page - 1
}

// NextPage returns the next page number, clamped at Pages.
func (p Pagination) NextPage() int {
	if p.Page >= p.Pages {
		return p.Page
	}
	return p.Page + 1
}

// FirstItem is the 1-based index of the first record on the page.
func (p Pagination) FirstItem() int {
	if p.Total == 0 {
		return 0
	}
	return (p.Page-1)*p.Limit + 1
}

// LastItem is the 1-based index of the last record on the page.
func (p Pagination) LastItem() int {
	last := p.Page * p.Limit
	if last > p.Total {
		return p.Total
	}
	return last
}
