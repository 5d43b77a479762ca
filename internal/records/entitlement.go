package records

import (
	"github.com/welfaredesk/welfaredesk/internal/rbac"
	"github.com/welfaredesk/welfaredesk/internal/resource"
)

// Entitlement is an application for a government welfare scheme.
type Entitlement struct {
	ID              string `json:"id,omitempty" form:"-"`
	BeneficiaryName string `json:"beneficiaryName" form:"beneficiaryName" validate:"required"`
	Scheme          string `json:"scheme" form:"scheme" validate:"required"`
	EntitlementType string `json:"entitlementType" form:"entitlementType"`
	ApplicationDate string `json:"applicationDate" form:"applicationDate" validate:"required,datetime=2006-01-02"`
	Amount          string `json:"amount" form:"amount" validate:"omitempty,number"`
	Status          string `json:"status" form:"status" validate:"required,oneof=Applied 'Under Review' Approved Rejected Disbursed"`
	ContactNo       string `json:"contactNo" form:"contactNo" validate:"omitempty,numeric,len=10"`
	Address         string `json:"address" form:"address"`
	Remarks         string `json:"remarks" form:"remarks"`
}

func (r Entitlement) RecordID() string { return r.ID }

func (r Entitlement) EditForm() Entitlement {
	r.ApplicationDate = dateOnly(r.ApplicationDate)
	return r
}

var (
	schemes           = []string{"Old Age Pension", "Widow Pension", "Disability Pension", "Scholarship", "Housing", "Ration Card"}
	entitlementStatus = []string{"Applied", "Under Review", "Approved", "Rejected", "Disbursed"}
)

// EntitlementSchema describes the entitlements page.
var EntitlementSchema = resource.Schema[Entitlement]{
	Name:       "entitlements",
	Title:      "Entitlements",
	Singular:   "entitlement",
	Module:     rbac.ModuleSocialJustice,
	Collection: "/entitlements",
	Filters: []resource.Filter{
		{Key: "scheme", Label: "Scheme", Options: schemes},
		{Key: "status", Label: "Status", Options: entitlementStatus},
	},
	Fields: []resource.Field{
		{Name: "beneficiaryName", Label: "Beneficiary", Kind: resource.KindText, Required: true, Listed: true},
		{Name: "scheme", Label: "Scheme", Kind: resource.KindSelect, Options: schemes, Required: true, Listed: true},
		{Name: "entitlementType", Label: "Entitlement type", Kind: resource.KindText},
		{Name: "applicationDate", Label: "Application date", Kind: resource.KindDate, Required: true, Listed: true},
		{Name: "amount", Label: "Amount", Kind: resource.KindNumber, Listed: true},
		{Name: "status", Label: "Status", Kind: resource.KindSelect, Options: entitlementStatus, Required: true, Listed: true},
		{Name: "contactNo", Label: "Contact number", Kind: resource.KindTel},
		{Name: "address", Label: "Address", Kind: resource.KindTextarea},
		{Name: "remarks", Label: "Remarks", Kind: resource.KindTextarea},
	},
	Defaults: func() Entitlement {
		return Entitlement{Status: "Applied"}
	},
}
