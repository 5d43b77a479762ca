package records

import (
	"github.com/welfaredesk/welfaredesk/internal/rbac"
	"github.com/welfaredesk/welfaredesk/internal/resource"
)

// GroupLeader is a volunteer who leads a CBU/CBO group and a study center.
type GroupLeader struct {
	ID            string `json:"id,omitempty" form:"-"`
	Name          string `json:"name" form:"name" validate:"required"`
	Gender        string `json:"gender" form:"gender" validate:"required,oneof=Male Female Other"`
	ContactNo     string `json:"contactNo" form:"contactNo" validate:"required,numeric,len=10"`
	Email         string `json:"email" form:"email" validate:"omitempty,email"`
	Village       string `json:"village" form:"village"`
	Qualification string `json:"qualification" form:"qualification"`
	GroupID       string `json:"groupId" form:"groupId"`
	JoiningDate   string `json:"joiningDate" form:"joiningDate" validate:"omitempty,datetime=2006-01-02"`
	Status        string `json:"status" form:"status" validate:"required,oneof=Active Inactive"`
}

func (r GroupLeader) RecordID() string { return r.ID }

func (r GroupLeader) EditForm() GroupLeader {
	r.JoiningDate = dateOnly(r.JoiningDate)
	return r
}

// GroupLeaderSchema describes the group leaders page.
var GroupLeaderSchema = resource.Schema[GroupLeader]{
	Name:       "group-leaders",
	Title:      "Group Leaders",
	Singular:   "group leader",
	Module:     rbac.ModuleEducation,
	Collection: "/group-leaders",
	Filters: []resource.Filter{
		{Key: "status", Label: "Status", Options: activeStatuses},
	},
	Fields: []resource.Field{
		{Name: "name", Label: "Name", Kind: resource.KindText, Required: true, Listed: true},
		{Name: "gender", Label: "Gender", Kind: resource.KindSelect, Options: genders, Required: true, Listed: true},
		{Name: "contactNo", Label: "Contact number", Kind: resource.KindTel, Required: true, Listed: true},
		{Name: "email", Label: "Email", Kind: resource.KindEmail},
		{Name: "village", Label: "Village", Kind: resource.KindText, Listed: true},
		{Name: "qualification", Label: "Qualification", Kind: resource.KindText},
		{Name: "groupId", Label: "CBU/CBO group", Kind: resource.KindLookup, Lookup: "cbucbo"},
		{Name: "joiningDate", Label: "Joining date", Kind: resource.KindDate},
		{Name: "status", Label: "Status", Kind: resource.KindSelect, Options: activeStatuses, Required: true, Listed: true},
	},
	Defaults: func() GroupLeader {
		return GroupLeader{Gender: "Female", Status: "Active"}
	},
}
