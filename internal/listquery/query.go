// Package listquery holds the search, filter and paging state that drives a
// collection read.
package listquery

import (
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/welfaredesk/welfaredesk/internal/shared"
)

// FilterAll is the sentinel filter value meaning "no restriction".
const FilterAll = "all"

// Query is the per-page list state: search text, filters and paging cursor.
type Query struct {
	Page    int
	Limit   int
	Search  string
	Filters map[string]string
}

// New returns a query on page 1 with the given page size.
func New(limit int) Query {
	if limit <= 0 {
		limit = shared.DefaultPageSize
	}
	return Query{Page: 1, Limit: limit, Filters: map[string]string{}}
}

// Normalize clamps page and limit to their minimums.
func (q Query) Normalize() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = shared.DefaultPageSize
	}
	if q.Filters == nil {
		q.Filters = map[string]string{}
	}
	return q
}

// Active reports whether a filter value restricts the result set.
func Active(value string) bool {
	value = strings.TrimSpace(value)
	return value != "" && value != FilterAll
}

// ActiveFilters returns the filters that survive sanitization.
func (q Query) ActiveFilters() map[string]string {
	out := make(map[string]string, len(q.Filters))
	for k, v := range q.Filters {
		if Active(v) {
			out[k] = strings.TrimSpace(v)
		}
	}
	return out
}

// Params composes the request parameters for a collection read. Filters equal
// to "all" or empty are omitted.
func (q Query) Params() url.Values {
	q = q.Normalize()
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("search", q.Search)
	for k, v := range q.ActiveFilters() {
		params.Set(k, v)
	}
	return params
}

// WithPage returns a copy positioned on page.
func (q Query) WithPage(page int) Query {
	q.Filters = q.copyFilters()
	q.Page = page
	return q.Normalize()
}

// Filter returns the raw value of a filter, or "all" when unset.
func (q Query) Filter(key string) string {
	if v, ok := q.Filters[key]; ok && v != "" {
		return v
	}
	return FilterAll
}

// Encode renders the query as a URL query string for links, keeping keys in a
// stable order.
func (q Query) Encode() string {
	return q.Params().Encode()
}

// PageURL returns the query string for the given page with all else equal.
func (q Query) PageURL(page int) string {
	return q.WithPage(page).Encode()
}

// FilterKeys lists active filter names in sorted order.
func (q Query) FilterKeys() []string {
	active := q.ActiveFilters()
	keys := make([]string, 0, len(active))
	for k := range active {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (q Query) copyFilters() map[string]string {
	out := make(map[string]string, len(q.Filters))
	for k, v := range q.Filters {
		out[k] = v
	}
	return out
}

// MaxLimit caps the page size a client may ask for.
const MaxLimit = 100

// FromRequest parses page, limit, search and the named filters from r's URL.
func FromRequest(r *http.Request, filterKeys []string, defaultLimit int) Query {
	return FromValues(r.URL.Query(), filterKeys, defaultLimit)
}

// FromValues is FromRequest over already parsed values, e.g. a query string
// carried through a form.
func FromValues(values url.Values, filterKeys []string, defaultLimit int) Query {
	q := New(defaultLimit)
	if page, err := strconv.Atoi(values.Get("page")); err == nil {
		q.Page = page
	}
	if limit, err := strconv.Atoi(values.Get("limit")); err == nil {
		q.Limit = min(limit, MaxLimit)
	}
	q.Search = strings.TrimSpace(values.Get("search"))
	for _, key := range filterKeys {
		if v := strings.TrimSpace(values.Get(key)); v != "" {
			q.Filters[key] = v
		}
	}
	return q.Normalize()
}
