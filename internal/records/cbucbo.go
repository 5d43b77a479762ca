package records

import (
	"github.com/welfaredesk/welfaredesk/internal/rbac"
	"github.com/welfaredesk/welfaredesk/internal/resource"
)

// CBUCBO is a community-based unit or organisation registered in a ward.
type CBUCBO struct {
	ID            string `json:"id,omitempty" form:"-"`
	GroupID       string `json:"groupId" form:"groupId" validate:"required"`
	GroupName     string `json:"groupName" form:"groupName" validate:"required"`
	GroupType     string `json:"groupType" form:"groupType" validate:"required,oneof=CBU CBO"`
	WardNo        string `json:"wardNo" form:"wardNo" validate:"required"`
	TotalMembers  string `json:"totalMembers" form:"totalMembers" validate:"required,numeric"`
	GroupLeader   string `json:"groupLeader" form:"groupLeader" validate:"required"`
	ContactNo     string `json:"contactNo" form:"contactNo" validate:"required,numeric,len=10"`
	FormationDate string `json:"formationDate" form:"formationDate" validate:"omitempty,datetime=2006-01-02"`
	Address       string `json:"address" form:"address"`
	Activities    string `json:"activities" form:"activities"`
	Status        string `json:"status" form:"status" validate:"required,oneof=Active Inactive"`
}

func (r CBUCBO) RecordID() string { return r.ID }

func (r CBUCBO) EditForm() CBUCBO {
	r.FormationDate = dateOnly(r.FormationDate)
	return r
}

var wards = []string{"Ward 1", "Ward 2", "Ward 3", "Ward 4", "Ward 5", "Ward 6", "Ward 7", "Ward 8"}

// CBUCBOSchema describes the CBU/CBO groups page.
var CBUCBOSchema = resource.Schema[CBUCBO]{
	Name:       "cbucbo",
	Title:      "CBU/CBO Groups",
	Singular:   "CBU/CBO group",
	Module:     rbac.ModuleSocialJustice,
	Collection: "/cbucbo",
	Filters: []resource.Filter{
		{Key: "groupType", Label: "Group type", Options: []string{"CBU", "CBO"}},
		{Key: "status", Label: "Status", Options: activeStatuses},
		{Key: "wardNo", Label: "Ward", Options: wards},
	},
	Fields: []resource.Field{
		{Name: "groupId", Label: "Group ID", Kind: resource.KindText, Required: true, Listed: true},
		{Name: "groupName", Label: "Group name", Kind: resource.KindText, Required: true, Listed: true},
		{Name: "groupType", Label: "Group type", Kind: resource.KindSelect, Options: []string{"CBU", "CBO"}, Required: true, Listed: true},
		{Name: "wardNo", Label: "Ward", Kind: resource.KindSelect, Options: wards, Required: true, Listed: true},
		{Name: "totalMembers", Label: "Total members", Kind: resource.KindNumber, Required: true, Listed: true},
		{Name: "groupLeader", Label: "Group leader", Kind: resource.KindText, Required: true},
		{Name: "contactNo", Label: "Contact number", Kind: resource.KindTel, Required: true},
		{Name: "formationDate", Label: "Formation date", Kind: resource.KindDate},
		{Name: "address", Label: "Address", Kind: resource.KindTextarea},
		{Name: "activities", Label: "Activities", Kind: resource.KindTextarea},
		{Name: "status", Label: "Status", Kind: resource.KindSelect, Options: activeStatuses, Required: true, Listed: true},
	},
	Defaults: func() CBUCBO {
		return CBUCBO{GroupType: "CBU", Status: "Active"}
	},
}
