package audit

import (
	"time"

	"github.com/welfaredesk/welfaredesk/internal/rbac"
)

// Entry is one mutation to record.
type Entry struct {
	ActorID    string
	ActorEmail string
	Module     rbac.Module
	Action     rbac.Action
	Entity     string
	EntityID   string
	Meta       map[string]any
	At         time.Time
}

// TimelineFilters narrows the audit timeline.
type TimelineFilters struct {
	From     time.Time
	To       time.Time
	Actor    string
	Module   string
	Entity   string
	Action   string
	Page     int
	PageSize int
}

// TimelineRow is one row of the audit timeline.
type TimelineRow struct {
	At       time.Time
	ActorID  string
	Actor    string
	Module   string
	Action   string
	Entity   string
	EntityID string
}

// PagingInfo is look-ahead paging: HasNext is known without counting rows.
type PagingInfo struct {
	Page     int
	HasNext  bool
	PageSize int
	PrevPage int
	NextPage int
}

// FiltersViewModel echoes the filters back to the form.
type FiltersViewModel struct {
	From   time.Time
	To     time.Time
	Actor  string
	Module string
	Entity string
	Action string
}

// ViewModel is the data of the audit page.
type ViewModel struct {
	Filters FiltersViewModel
	Rows    []TimelineRow
	Paging  PagingInfo
	Modules []rbac.Module
	Actions []rbac.Action
	Query   string
}
