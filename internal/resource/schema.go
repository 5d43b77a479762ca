// Package resource holds the generic list/form/delete workflow shared by every
// record page.
package resource

import (
	"github.com/welfaredesk/welfaredesk/internal/rbac"
)

// Record is implemented by every record type served by the admin.
type Record[T any] interface {
	// RecordID returns the server-assigned identifier, empty before creation.
	RecordID() string
	// EditForm returns a copy normalized for the edit form, e.g. timestamps
	// truncated to dates.
	EditForm() T
}

// FieldKind selects the input rendered for a field.
type FieldKind string

const (
	KindText        FieldKind = "text"
	KindTextarea    FieldKind = "textarea"
	KindNumber      FieldKind = "number"
	KindDate        FieldKind = "date"
	KindTel         FieldKind = "tel"
	KindEmail       FieldKind = "email"
	KindSelect      FieldKind = "select"
	KindLookup      FieldKind = "lookup"
	KindMultiLookup FieldKind = "multilookup"
)

// Field describes one editable field of a record.
type Field struct {
	Name     string
	Label    string
	Kind     FieldKind
	Options  []string
	Lookup   string
	Required bool
	// Listed fields appear as columns of the list table and in exports.
	Listed bool
}

// IsLookup reports whether the field takes its options from a dropdown entity.
func (f Field) IsLookup() bool {
	return f.Kind == KindLookup || f.Kind == KindMultiLookup
}

// Filter is a list filter rendered as a select next to the search box.
type Filter struct {
	Key     string
	Label   string
	Options []string
}

// Schema binds a record type to its module, backend collection and form layout.
type Schema[T any] struct {
	// Name is the URL segment, e.g. "cbucbo".
	Name string
	// Title is the plural page heading.
	Title string
	// Singular is used in notices, e.g. "CBU/CBO group".
	Singular   string
	Module     rbac.Module
	Collection string
	Filters    []Filter
	Fields     []Field
	Defaults   func() T
}

// New returns a record filled with the schema defaults.
func (s Schema[T]) New() T {
	if s.Defaults != nil {
		return s.Defaults()
	}
	var zero T
	return zero
}

// FilterKeys lists the filter parameter names in declaration order.
func (s Schema[T]) FilterKeys() []string {
	keys := make([]string, 0, len(s.Filters))
	for _, f := range s.Filters {
		keys = append(keys, f.Key)
	}
	return keys
}

// ListFields returns the fields shown as list columns.
func (s Schema[T]) ListFields() []Field {
	var out []Field
	for _, f := range s.Fields {
		if f.Listed {
			out = append(out, f)
		}
	}
	return out
}

// Lookups returns the distinct dropdown entities the form depends on.
func (s Schema[T]) Lookups() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, f := range s.Fields {
		if !f.IsLookup() || f.Lookup == "" {
			continue
		}
		if _, ok := seen[f.Lookup]; ok {
			continue
		}
		seen[f.Lookup] = struct{}{}
		out = append(out, f.Lookup)
	}
	return out
}

// Field returns the field named name.
func (s Schema[T]) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
