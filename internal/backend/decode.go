package backend

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/welfaredesk/welfaredesk/internal/shared"
)

// Page is one decoded page of a collection.
type Page[T any] struct {
	Records    []T
	Pagination shared.Pagination
}

// wirePagination accepts both naming schemes the backend has used.
type wirePagination struct {
	CurrentPage    *int `json:"currentPage"`
	Page           *int `json:"page"`
	RecordsPerPage *int `json:"recordsPerPage"`
	Limit          *int `json:"limit"`
	TotalRecords   *int `json:"totalRecords"`
	Total          *int `json:"total"`
	TotalPages     *int `json:"totalPages"`
	Pages          *int `json:"pages"`
}

type envelope struct {
	Data       json.RawMessage `json:"data"`
	Pagination *wirePagination `json:"pagination"`
}

// DecodePage decodes a collection read. Accepted shapes, outermost first:
//
//	{"data": {"data": [...], "pagination": {...}}}
//	{"data": [...], "pagination": {...}}
//	[...]
//
// limit is the page size that was requested; it seeds the pagination that is
// synthesized when the server omits it.
func DecodePage[T any](body []byte, limit int) (Page[T], error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return Page[T]{}, ErrEmptyBody
	}

	var (
		data json.RawMessage
		wire *wirePagination
	)
	if trimmed[0] == '[' {
		data = trimmed
	} else {
		var outer envelope
		if err := json.Unmarshal(trimmed, &outer); err != nil {
			return Page[T]{}, fmt.Errorf("backend: decode page: %w", err)
		}
		data, wire = bytes.TrimSpace(outer.Data), outer.Pagination
		if len(data) > 0 && data[0] == '{' {
			var inner envelope
			if err := json.Unmarshal(data, &inner); err != nil {
				return Page[T]{}, fmt.Errorf("backend: decode page: %w", err)
			}
			data = bytes.TrimSpace(inner.Data)
			if inner.Pagination != nil {
				wire = inner.Pagination
			}
		}
	}

	records := []T{}
	if len(data) > 0 && !bytes.Equal(data, []byte("null")) {
		if err := json.Unmarshal(data, &records); err != nil {
			return Page[T]{}, fmt.Errorf("backend: decode records: %w", err)
		}
	}
	return Page[T]{Records: records, Pagination: resolvePagination(wire, limit, len(records))}, nil
}

func resolvePagination(wire *wirePagination, limit, count int) shared.Pagination {
	if limit <= 0 {
		limit = shared.DefaultPageSize
	}
	if wire == nil {
		return shared.NewPagination(1, limit, count)
	}
	page := firstOf(1, wire.CurrentPage, wire.Page)
	perPage := firstOf(limit, wire.RecordsPerPage, wire.Limit)
	total := firstOf(0, wire.TotalRecords, wire.Total)
	derived := shared.NewPagination(page, perPage, total)
	derived.Pages = firstOf(derived.Pages, wire.TotalPages, wire.Pages)
	return derived
}

func firstOf(fallback int, values ...*int) int {
	for _, v := range values {
		if v != nil {
			return *v
		}
	}
	return fallback
}

// DecodeRecord decodes a single record, either bare or wrapped in {"data": ...}.
func DecodeRecord[T any](body []byte) (T, error) {
	var out T
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return out, ErrEmptyBody
	}
	var outer struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &outer); err == nil {
		if inner := bytes.TrimSpace(outer.Data); len(inner) > 0 && inner[0] == '{' {
			trimmed = inner
		}
	}
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return out, fmt.Errorf("backend: decode record: %w", err)
	}
	return out, nil
}

// Option is one entry of a dropdown lookup.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// DecodeOptions decodes a dropdown list, bare or wrapped in {"data": [...]}.
func DecodeOptions(body []byte) ([]Option, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return []Option{}, nil
	}
	if trimmed[0] == '{' {
		var outer struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &outer); err != nil {
			return nil, fmt.Errorf("backend: decode options: %w", err)
		}
		trimmed = bytes.TrimSpace(outer.Data)
		if len(trimmed) == 0 {
			return []Option{}, nil
		}
	}
	options := []Option{}
	if err := json.Unmarshal(trimmed, &options); err != nil {
		return nil, fmt.Errorf("backend: decode options: %w", err)
	}
	return options, nil
}
