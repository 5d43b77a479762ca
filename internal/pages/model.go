package pages

import (
	"net/url"

	"github.com/welfaredesk/welfaredesk/internal/backend"
	"github.com/welfaredesk/welfaredesk/internal/listquery"
	"github.com/welfaredesk/welfaredesk/internal/rbac"
	"github.com/welfaredesk/welfaredesk/internal/resource"
	"github.com/welfaredesk/welfaredesk/internal/shared"
)

// SchemaView is the type-erased part of a schema that templates need.
type SchemaView struct {
	Name       string
	Title      string
	Singular   string
	Module     rbac.Module
	Filters    []resource.Filter
	Fields     []resource.Field
	ListFields []resource.Field
}

// Base returns the list URL.
func (s SchemaView) Base() string { return "/" + s.Name }

// Row is one record flattened to form values.
type Row struct {
	ID     string
	Values url.Values
}

// ListPage is rendered by pages/resource_list.html.
type ListPage struct {
	Schema     SchemaView
	Rows       []Row
	Pagination shared.Pagination
	Query      listquery.Query
	Options    map[string][]backend.Option
	Notices    []resource.Notice
}

// FormPage is rendered by pages/resource_form.html.
type FormPage struct {
	Schema         SchemaView
	Mode           resource.Modal
	RecordID       string
	Values         url.Values
	Errors         map[string]string
	Options        map[string][]backend.Option
	IdempotencyKey string
	ReturnQuery    string
	Notices        []resource.Notice
}

// Action returns the form target.
func (p FormPage) Action() string {
	if p.Mode == resource.ModalEdit {
		return p.Schema.Base() + "/" + url.PathEscape(p.RecordID)
	}
	return p.Schema.Base()
}

// ViewPage is rendered by pages/resource_view.html.
type ViewPage struct {
	Schema      SchemaView
	Row         Row
	Options     map[string][]backend.Option
	ReturnQuery string
}

// ConfirmPage is rendered by pages/resource_confirm.html.
type ConfirmPage struct {
	Schema       SchemaView
	Row          Row
	Options      map[string][]backend.Option
	ConfirmToken string
	ReturnQuery  string
}

// ExportPage is rendered by pages/resource_pdf.html.
type ExportPage struct {
	Schema  SchemaView
	Rows    []Row
	Options map[string][]backend.Option
	Query   listquery.Query
	Total   int
}
