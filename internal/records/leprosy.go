package records

import (
	"github.com/welfaredesk/welfaredesk/internal/rbac"
	"github.com/welfaredesk/welfaredesk/internal/resource"
)

// Leprosy is a registered leprosy patient and their treatment progress.
type Leprosy struct {
	ID              string `json:"id,omitempty" form:"-"`
	PatientName     string `json:"patientName" form:"patientName" validate:"required"`
	Age             string `json:"age" form:"age" validate:"required,numeric"`
	Gender          string `json:"gender" form:"gender" validate:"required,oneof=Male Female Other"`
	RegistrationNo  string `json:"registrationNo" form:"registrationNo" validate:"required"`
	DiagnosisDate   string `json:"diagnosisDate" form:"diagnosisDate" validate:"required,datetime=2006-01-02"`
	LeprosyType     string `json:"leprosyType" form:"leprosyType" validate:"required,oneof=PB MB"`
	TreatmentStatus string `json:"treatmentStatus" form:"treatmentStatus" validate:"required,oneof='Under Treatment' Completed Defaulted 'Released From Treatment'"`
	DisabilityGrade string `json:"disabilityGrade" form:"disabilityGrade" validate:"omitempty,oneof=0 1 2"`
	HealthCenter    string `json:"healthCenter" form:"healthCenter"`
	ContactNo       string `json:"contactNo" form:"contactNo" validate:"omitempty,numeric,len=10"`
	Address         string `json:"address" form:"address"`
}

func (r Leprosy) RecordID() string { return r.ID }

func (r Leprosy) EditForm() Leprosy {
	r.DiagnosisDate = dateOnly(r.DiagnosisDate)
	return r
}

var treatmentStatus = []string{"Under Treatment", "Completed", "Defaulted", "Released From Treatment"}

// LeprosySchema describes the leprosy cases page.
var LeprosySchema = resource.Schema[Leprosy]{
	Name:       "leprosy",
	Title:      "Leprosy Cases",
	Singular:   "leprosy case",
	Module:     rbac.ModuleHealth,
	Collection: "/leprosy-cases",
	Filters: []resource.Filter{
		{Key: "leprosyType", Label: "Type", Options: []string{"PB", "MB"}},
		{Key: "treatmentStatus", Label: "Treatment", Options: treatmentStatus},
	},
	Fields: []resource.Field{
		{Name: "registrationNo", Label: "Registration number", Kind: resource.KindText, Required: true, Listed: true},
		{Name: "patientName", Label: "Patient name", Kind: resource.KindText, Required: true, Listed: true},
		{Name: "age", Label: "Age", Kind: resource.KindNumber, Required: true, Listed: true},
		{Name: "gender", Label: "Gender", Kind: resource.KindSelect, Options: genders, Required: true},
		{Name: "diagnosisDate", Label: "Diagnosis date", Kind: resource.KindDate, Required: true},
		{Name: "leprosyType", Label: "Type", Kind: resource.KindSelect, Options: []string{"PB", "MB"}, Required: true, Listed: true},
		{Name: "treatmentStatus", Label: "Treatment status", Kind: resource.KindSelect, Options: treatmentStatus, Required: true, Listed: true},
		{Name: "disabilityGrade", Label: "Disability grade", Kind: resource.KindSelect, Options: []string{"0", "1", "2"}},
		{Name: "healthCenter", Label: "Health center", Kind: resource.KindText},
		{Name: "contactNo", Label: "Contact number", Kind: resource.KindTel},
		{Name: "address", Label: "Address", Kind: resource.KindTextarea},
	},
	Defaults: func() Leprosy {
		return Leprosy{Gender: "Male", LeprosyType: "PB", TreatmentStatus: "Under Treatment"}
	},
}
