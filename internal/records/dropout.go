package records

import (
	"github.com/welfaredesk/welfaredesk/internal/rbac"
	"github.com/welfaredesk/welfaredesk/internal/resource"
)

// Dropout is a child who left school before completing their class.
type Dropout struct {
	ID          string `json:"id,omitempty" form:"-"`
	StudentName string `json:"studentName" form:"studentName" validate:"required"`
	Gender      string `json:"gender" form:"gender" validate:"required,oneof=Male Female Other"`
	Age         string `json:"age" form:"age" validate:"required,numeric"`
	Class       string `json:"class" form:"class" validate:"required"`
	SchoolName  string `json:"schoolName" form:"schoolName" validate:"required"`
	DropoutYear string `json:"dropoutYear" form:"dropoutYear" validate:"omitempty,numeric,len=4"`
	Reason      string `json:"reason" form:"reason"`
	ParentName  string `json:"parentName" form:"parentName"`
	ContactNo   string `json:"contactNo" form:"contactNo" validate:"omitempty,numeric,len=10"`
	Address     string `json:"address" form:"address"`
	Status      string `json:"status" form:"status" validate:"required,oneof=Dropped Counselling Re-enrolled"`
}

func (r Dropout) RecordID() string { return r.ID }

func (r Dropout) EditForm() Dropout { return r }

var dropoutStatus = []string{"Dropped", "Counselling", "Re-enrolled"}

// DropoutSchema describes the school dropouts page.
var DropoutSchema = resource.Schema[Dropout]{
	Name:       "dropouts",
	Title:      "Dropouts",
	Singular:   "dropout record",
	Module:     rbac.ModuleEducation,
	Collection: "/dropouts",
	Filters: []resource.Filter{
		{Key: "gender", Label: "Gender", Options: genders},
		{Key: "status", Label: "Status", Options: dropoutStatus},
	},
	Fields: []resource.Field{
		{Name: "studentName", Label: "Student name", Kind: resource.KindText, Required: true, Listed: true},
		{Name: "gender", Label: "Gender", Kind: resource.KindSelect, Options: genders, Required: true, Listed: true},
		{Name: "age", Label: "Age", Kind: resource.KindNumber, Required: true, Listed: true},
		{Name: "class", Label: "Class", Kind: resource.KindText, Required: true, Listed: true},
		{Name: "schoolName", Label: "School", Kind: resource.KindText, Required: true, Listed: true},
		{Name: "dropoutYear", Label: "Dropout year", Kind: resource.KindNumber},
		{Name: "reason", Label: "Reason", Kind: resource.KindTextarea},
		{Name: "parentName", Label: "Parent name", Kind: resource.KindText},
		{Name: "contactNo", Label: "Contact number", Kind: resource.KindTel},
		{Name: "address", Label: "Address", Kind: resource.KindTextarea},
		{Name: "status", Label: "Status", Kind: resource.KindSelect, Options: dropoutStatus, Required: true, Listed: true},
	},
	Defaults: func() Dropout {
		return Dropout{Gender: "Male", Status: "Dropped"}
	},
}
