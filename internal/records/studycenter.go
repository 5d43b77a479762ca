package records

import (
	"github.com/welfaredesk/welfaredesk/internal/rbac"
	"github.com/welfaredesk/welfaredesk/internal/resource"
)

// StudyCenter is an evening study center run by a teacher and a group leader
// for enrolled SC students.
type StudyCenter struct {
	ID            string   `json:"id,omitempty" form:"-"`
	CenterName    string   `json:"centerName" form:"centerName" validate:"required"`
	CenterCode    string   `json:"centerCode" form:"centerCode" validate:"required"`
	Address       string   `json:"address" form:"address" validate:"required"`
	TeacherID     string   `json:"teacherId" form:"teacherId" validate:"required"`
	GroupLeaderID string   `json:"groupLeaderId" form:"groupLeaderId"`
	StudentIDs    []string `json:"studentIds" form:"studentIds"`
	StartDate     string   `json:"startDate" form:"startDate" validate:"omitempty,datetime=2006-01-02"`
	Timing        string   `json:"timing" form:"timing"`
	Status        string   `json:"status" form:"status" validate:"required,oneof=Active Inactive"`
}

func (r StudyCenter) RecordID() string { return r.ID }

func (r StudyCenter) EditForm() StudyCenter {
	r.StartDate = dateOnly(r.StartDate)
	r.StudentIDs = append([]string{}, r.StudentIDs...)
	return r
}

// StudyCenterSchema describes the study centers page.
var StudyCenterSchema = resource.Schema[StudyCenter]{
	Name:       "study-centers",
	Title:      "Study Centers",
	Singular:   "study center",
	Module:     rbac.ModuleEducation,
	Collection: "/study-centers",
	Filters: []resource.Filter{
		{Key: "status", Label: "Status", Options: activeStatuses},
	},
	Fields: []resource.Field{
		{Name: "centerCode", Label: "Center code", Kind: resource.KindText, Required: true, Listed: true},
		{Name: "centerName", Label: "Center name", Kind: resource.KindText, Required: true, Listed: true},
		{Name: "address", Label: "Address", Kind: resource.KindTextarea, Required: true},
		{Name: "teacherId", Label: "Teacher", Kind: resource.KindLookup, Lookup: "teachers", Required: true, Listed: true},
		{Name: "groupLeaderId", Label: "Group leader", Kind: resource.KindLookup, Lookup: "group-leaders", Listed: true},
		{Name: "studentIds", Label: "Students", Kind: resource.KindMultiLookup, Lookup: "sc-students"},
		{Name: "startDate", Label: "Start date", Kind: resource.KindDate},
		{Name: "timing", Label: "Timing", Kind: resource.KindText},
		{Name: "status", Label: "Status", Kind: resource.KindSelect, Options: activeStatuses, Required: true, Listed: true},
	},
	Defaults: func() StudyCenter {
		return StudyCenter{StudentIDs: []string{}, Status: "Active"}
	},
}
