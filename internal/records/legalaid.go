package records

import (
	"github.com/welfaredesk/welfaredesk/internal/rbac"
	"github.com/welfaredesk/welfaredesk/internal/resource"
)

// LegalAid is a case handled through the legal aid cell.
type LegalAid struct {
	ID              string `json:"id,omitempty" form:"-"`
	CaseNo          string `json:"caseNo" form:"caseNo" validate:"required"`
	ApplicantName   string `json:"applicantName" form:"applicantName" validate:"required"`
	CaseType        string `json:"caseType" form:"caseType" validate:"required"`
	Court           string `json:"court" form:"court"`
	FilingDate      string `json:"filingDate" form:"filingDate" validate:"omitempty,datetime=2006-01-02"`
	NextHearingDate string `json:"nextHearingDate" form:"nextHearingDate" validate:"omitempty,datetime=2006-01-02"`
	Lawyer          string `json:"lawyer" form:"lawyer"`
	Status          string `json:"status" form:"status" validate:"required,oneof=Open 'In Progress' Closed"`
	ContactNo       string `json:"contactNo" form:"contactNo" validate:"omitempty,numeric,len=10"`
	Description     string `json:"description" form:"description"`
}

func (r LegalAid) RecordID() string { return r.ID }

func (r LegalAid) EditForm() LegalAid {
	r.FilingDate = dateOnly(r.FilingDate)
	r.NextHearingDate = dateOnly(r.NextHearingDate)
	return r
}

var (
	caseTypes      = []string{"Civil", "Criminal", "Family", "Land", "Labour", "Atrocity"}
	legalAidStatus = []string{"Open", "In Progress", "Closed"}
)

// LegalAidSchema describes the legal aid cases page.
var LegalAidSchema = resource.Schema[LegalAid]{
	Name:       "legal-aid",
	Title:      "Legal Aid Cases",
	Singular:   "legal aid case",
	Module:     rbac.ModuleSocialJustice,
	Collection: "/legal-aid-cases",
	Filters: []resource.Filter{
		{Key: "caseType", Label: "Case type", Options: caseTypes},
		{Key: "status", Label: "Status", Options: legalAidStatus},
	},
	Fields: []resource.Field{
		{Name: "caseNo", Label: "Case number", Kind: resource.KindText, Required: true, Listed: true},
		{Name: "applicantName", Label: "Applicant", Kind: resource.KindText, Required: true, Listed: true},
		{Name: "caseType", Label: "Case type", Kind: resource.KindSelect, Options: caseTypes, Required: true, Listed: true},
		{Name: "court", Label: "Court", Kind: resource.KindText},
		{Name: "filingDate", Label: "Filing date", Kind: resource.KindDate},
		{Name: "nextHearingDate", Label: "Next hearing", Kind: resource.KindDate, Listed: true},
		{Name: "lawyer", Label: "Lawyer", Kind: resource.KindText},
		{Name: "status", Label: "Status", Kind: resource.KindSelect, Options: legalAidStatus, Required: true, Listed: true},
		{Name: "contactNo", Label: "Contact number", Kind: resource.KindTel},
		{Name: "description", Label: "Description", Kind: resource.KindTextarea},
	},
	Defaults: func() LegalAid {
		return LegalAid{CaseType: "Civil", Status: "Open"}
	},
}
