// Package validationtest holds lead form fixtures shared by the server and
// client test suites so both boundaries are checked against the same cases.
package validationtest

import (
	"github.com/suar-net/leadintake/internal/model"
	"github.com/suar-net/leadintake/internal/validation"
)

// ValidForm returns a form that satisfies every rule.
func ValidForm() model.LeadForm {
	return model.LeadForm{
		Name:         "Asha Rao",
		Phone:        "+919876543210",
		MonthlyBill:  "4000",
		PropertyType: "Residential",
	}
}

// Case is a form that breaks exactly one field rule.
type Case struct {
	Name  string
	Form  model.LeadForm
	Field string
	Code  validation.Code
}

func with(mutate func(*model.LeadForm)) model.LeadForm {
	f := ValidForm()
	mutate(&f)
	return f
}

// SingleFieldCases lists forms that each violate a single field.
func SingleFieldCases() []Case {
	return []Case{
		{"name empty", with(func(f *model.LeadForm) { f.Name = "" }), "name", validation.CodeTooShort},
		{"name one char", with(func(f *model.LeadForm) { f.Name = "A" }), "name", validation.CodeTooShort},
		{"phone leading zero", with(func(f *model.LeadForm) { f.Phone = "0123456789" }), "phone", validation.CodeInvalidFormat},
		{"phone letters", with(func(f *model.LeadForm) { f.Phone = "98765abcde" }), "phone", validation.CodeInvalidFormat},
		{"phone too long", with(func(f *model.LeadForm) { f.Phone = "+1234567890123456" }), "phone", validation.CodeInvalidFormat},
		{"phone single digit", with(func(f *model.LeadForm) { f.Phone = "7" }), "phone", validation.CodeInvalidFormat},
		{"bill empty", with(func(f *model.LeadForm) { f.MonthlyBill = "" }), "monthlyBill", validation.CodeEmpty},
		{"bill blank", with(func(f *model.LeadForm) { f.MonthlyBill = "   " }), "monthlyBill", validation.CodeEmpty},
		{"bill not numeric", with(func(f *model.LeadForm) { f.MonthlyBill = "lots" }), "monthlyBill", validation.CodeNotNumeric},
		{"bill 499", with(func(f *model.LeadForm) { f.MonthlyBill = "499" }), "monthlyBill", validation.CodeTooLow},
		{"bill 1000001", with(func(f *model.LeadForm) { f.MonthlyBill = "1000001" }), "monthlyBill", validation.CodeUnrealistic},
		{"property unknown", with(func(f *model.LeadForm) { f.PropertyType = "Farm" }), "propertyType", validation.CodeInvalidOption},
		{"property lowercase", with(func(f *model.LeadForm) { f.PropertyType = "residential" }), "propertyType", validation.CodeInvalidOption},
		{"property empty", with(func(f *model.LeadForm) { f.PropertyType = "" }), "propertyType", validation.CodeInvalidOption},
	}
}
