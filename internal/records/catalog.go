// Package records defines the record types managed by the admin and the
// schema that drives each page.
package records

import (
	"slices"

	"github.com/welfaredesk/welfaredesk/internal/rbac"
)

// Entry summarises one record page for navigation and the dashboard.
type Entry struct {
	Name    string
	Title   string
	Module  rbac.Module
	Lookups []string
}

// Catalog lists every record page in navigation order.
func Catalog() []Entry {
	return []Entry{
		{Name: LeprosySchema.Name, Title: LeprosySchema.Title, Module: LeprosySchema.Module, Lookups: LeprosySchema.Lookups()},
		{Name: AspirantSchema.Name, Title: AspirantSchema.Title, Module: AspirantSchema.Module, Lookups: AspirantSchema.Lookups()},
		{Name: DropoutSchema.Name, Title: DropoutSchema.Title, Module: DropoutSchema.Module, Lookups: DropoutSchema.Lookups()},
		{Name: GroupLeaderSchema.Name, Title: GroupLeaderSchema.Title, Module: GroupLeaderSchema.Module, Lookups: GroupLeaderSchema.Lookups()},
		{Name: StudyCenterSchema.Name, Title: StudyCenterSchema.Title, Module: StudyCenterSchema.Module, Lookups: StudyCenterSchema.Lookups()},
		{Name: CBUCBOSchema.Name, Title: CBUCBOSchema.Title, Module: CBUCBOSchema.Module, Lookups: CBUCBOSchema.Lookups()},
		{Name: EntitlementSchema.Name, Title: EntitlementSchema.Title, Module: EntitlementSchema.Module, Lookups: EntitlementSchema.Lookups()},
		{Name: LegalAidSchema.Name, Title: LegalAidSchema.Title, Module: LegalAidSchema.Module, Lookups: LegalAidSchema.Lookups()},
	}
}

// ByModule groups the catalog by module.
func ByModule() map[rbac.Module][]Entry {
	out := make(map[rbac.Module][]Entry)
	for _, e := range Catalog() {
		out[e.Module] = append(out[e.Module], e)
	}
	return out
}

// LookupEntities are the dropdown entities referenced by record forms.
var LookupEntities = []string{"teachers", "group-leaders", "sc-students", "cbucbo"}

// LookupAccess maps each dropdown entity to the view permissions of the record
// pages whose forms use it. Anyone who can open such a page may read the
// options.
func LookupAccess() map[string][]string {
	out := make(map[string][]string)
	for _, e := range Catalog() {
		perm := rbac.Permission(e.Module, rbac.ActionView)
		for _, entity := range e.Lookups {
			if !slices.Contains(out[entity], perm) {
				out[entity] = append(out[entity], perm)
			}
		}
	}
	return out
}
