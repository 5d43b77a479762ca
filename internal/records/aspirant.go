package records

import (
	"github.com/welfaredesk/welfaredesk/internal/rbac"
	"github.com/welfaredesk/welfaredesk/internal/resource"
)

// Aspirant is a student preparing for a competitive examination.
type Aspirant struct {
	ID             string `json:"id,omitempty" form:"-"`
	Name           string `json:"name" form:"name" validate:"required"`
	FatherName     string `json:"fatherName" form:"fatherName"`
	Gender         string `json:"gender" form:"gender" validate:"required,oneof=Male Female Other"`
	DateOfBirth    string `json:"dateOfBirth" form:"dateOfBirth" validate:"omitempty,datetime=2006-01-02"`
	Category       string `json:"category" form:"category" validate:"required,oneof=SC ST OBC General"`
	ExamName       string `json:"examName" form:"examName" validate:"required"`
	ExamDate       string `json:"examDate" form:"examDate" validate:"omitempty,datetime=2006-01-02"`
	Qualification  string `json:"qualification" form:"qualification"`
	ContactNo      string `json:"contactNo" form:"contactNo" validate:"required,numeric,len=10"`
	Address        string `json:"address" form:"address"`
	CoachingCenter string `json:"coachingCenter" form:"coachingCenter"`
	Status         string `json:"status" form:"status" validate:"required,oneof=Preparing Appeared Qualified 'Not Qualified'"`
}

func (r Aspirant) RecordID() string { return r.ID }

func (r Aspirant) EditForm() Aspirant {
	r.DateOfBirth = dateOnly(r.DateOfBirth)
	r.ExamDate = dateOnly(r.ExamDate)
	return r
}

var (
	categories     = []string{"SC", "ST", "OBC", "General"}
	exams          = []string{"UPSC", "SSC", "Banking", "Railways", "State PSC", "Police", "Other"}
	aspirantStatus = []string{"Preparing", "Appeared", "Qualified", "Not Qualified"}
	genders        = []string{"Male", "Female", "Other"}
	activeStatuses = []string{"Active", "Inactive"}
)

// AspirantSchema describes the competitive exam aspirants page.
var AspirantSchema = resource.Schema[Aspirant]{
	Name:       "aspirants",
	Title:      "Competitive Exam Aspirants",
	Singular:   "aspirant",
	Module:     rbac.ModuleEducation,
	Collection: "/competitive-exam-aspirants",
	Filters: []resource.Filter{
		{Key: "category", Label: "Category", Options: categories},
		{Key: "examName", Label: "Exam", Options: exams},
		{Key: "status", Label: "Status", Options: aspirantStatus},
	},
	Fields: []resource.Field{
		{Name: "name", Label: "Name", Kind: resource.KindText, Required: true, Listed: true},
		{Name: "fatherName", Label: "Father's name", Kind: resource.KindText},
		{Name: "gender", Label: "Gender", Kind: resource.KindSelect, Options: genders, Required: true, Listed: true},
		{Name: "dateOfBirth", Label: "Date of birth", Kind: resource.KindDate},
		{Name: "category", Label: "Category", Kind: resource.KindSelect, Options: categories, Required: true, Listed: true},
		{Name: "examName", Label: "Exam", Kind: resource.KindSelect, Options: exams, Required: true, Listed: true},
		{Name: "examDate", Label: "Exam date", Kind: resource.KindDate},
		{Name: "qualification", Label: "Qualification", Kind: resource.KindText},
		{Name: "contactNo", Label: "Contact number", Kind: resource.KindTel, Required: true, Listed: true},
		{Name: "address", Label: "Address", Kind: resource.KindTextarea},
		{Name: "coachingCenter", Label: "Coaching center", Kind: resource.KindText},
		{Name: "status", Label: "Status", Kind: resource.KindSelect, Options: aspirantStatus, Required: true, Listed: true},
	},
	Defaults: func() Aspirant {
		return Aspirant{Gender: "Male", Category: "SC", Status: "Preparing"}
	},
}
