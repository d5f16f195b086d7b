package validation_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suar-net/leadintake/internal/model"
	"github.com/suar-net/leadintake/internal/validation"
	"github.com/suar-net/leadintake/internal/validation/validationtest"
)

func TestValidate_AcceptsValidForm(t *testing.T) {
	sub, err := validation.Validate(validationtest.ValidForm())
	require.NoError(t, err)

	want := &model.LeadSubmission{
		Name:         "Asha Rao",
		Phone:        "+919876543210",
		MonthlyBill:  4000,
		PropertyType: model.PropertyResidential,
	}
	if diff := cmp.Diff(want, sub); diff != "" {
		t.Fatalf("submission mismatch (-want +got):\n%s", diff)
	}
}

func TestValidate_SingleFieldViolations(t *testing.T) {
	for _, tc := range validationtest.SingleFieldCases() {
		t.Run(tc.Name, func(t *testing.T) {
			sub, err := validation.Validate(tc.Form)
			require.Error(t, err)
			assert.Nil(t, sub)
			assert.True(t, errors.Is(err, validation.ErrInvalidInput))

			var fe validation.FieldErrors
			require.True(t, errors.As(err, &fe))
			assert.Equal(t, []string{tc.Field}, fe.Fields())
			require.Len(t, fe[tc.Field], 1)
			assert.Equal(t, tc.Code, fe[tc.Field][0].Code)
		})
	}
}

func TestValidate_ReportsEveryFailingField(t *testing.T) {
	_, err := validation.Validate(model.LeadForm{
		Name:         "A",
		Phone:        "0123",
		MonthlyBill:  "abc",
		PropertyType: "Castle",
	})

	var fe validation.FieldErrors
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, []string{"monthlyBill", "name", "phone", "propertyType"}, fe.Fields())
	assert.True(t, fe.Has("name", validation.CodeTooShort))
	assert.True(t, fe.Has("phone", validation.CodeInvalidFormat))
	assert.True(t, fe.Has("monthlyBill", validation.CodeNotNumeric))
	assert.True(t, fe.Has("propertyType", validation.CodeInvalidOption))

	msgs := fe.Messages()
	assert.Equal(t, []string{"Must be a number."}, msgs["monthlyBill"])
	assert.Contains(t, err.Error(), "name: Name must be at least 2 characters.")
}

func TestValidate_MonthlyBillBoundaries(t *testing.T) {
	tests := []struct {
		bill string
		code validation.Code
	}{
		{"499", validation.CodeTooLow},
		{"500", ""},
		{"1000000", ""},
		{"1000001", validation.CodeUnrealistic},
		{"499.99", validation.CodeTooLow},
		{" 750 ", ""},
		{"1e3", ""},
		{"NaN", validation.CodeNotNumeric},
		{"0x1F4", ""},
		{"0X1f3", validation.CodeTooLow},
		{"0b111110100", ""},
		{"0o764", ""},
		{"0xFFFFFFFFFFFFFFFFFF", validation.CodeUnrealistic},
		{"0x", validation.CodeNotNumeric},
		{"-0x1F4", validation.CodeNotNumeric},
		{"0x1p9", validation.CodeNotNumeric},
		{"1e400", validation.CodeUnrealistic},
		{"-1e400", validation.CodeTooLow},
		{"Infinity", validation.CodeUnrealistic},
		{"-Infinity", validation.CodeTooLow},
		{"inf", validation.CodeNotNumeric},
		{"1_000", validation.CodeNotNumeric},
		{"750.", ""},
		{"+750", ""},
		{".5e4", ""},
	}

	for _, tt := range tests {
		t.Run(tt.bill, func(t *testing.T) {
			form := validationtest.ValidForm()
			form.MonthlyBill = model.FormValue(tt.bill)
			_, err := validation.Validate(form)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			var fe validation.FieldErrors
			require.True(t, errors.As(err, &fe))
			assert.True(t, fe.Has("monthlyBill", tt.code), "got %v", fe)
		})
	}
}

func TestValidate_PhoneBoundaries(t *testing.T) {
	tests := []struct {
		phone string
		valid bool
	}{
		{"+919870331729", true},
		{"12345", true},
		{"12", true},
		{"123456789012345", true},
		{"1234567890123456", false},
		{"0123456789", false},
		{"+0123456789", false},
		{"+91 98703 31729", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			form := validationtest.ValidForm()
			form.Phone = model.FormValue(tt.phone)
			_, err := validation.Validate(form)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, validation.ErrInvalidInput)
			}
		})
	}
}

func TestValidate_PropertyTypes(t *testing.T) {
	for _, pt := range model.PropertyTypes {
		form := validationtest.ValidForm()
		form.PropertyType = model.FormValue(pt)
		sub, err := validation.Validate(form)
		require.NoError(t, err)
		assert.Equal(t, pt, sub.PropertyType)
	}
}

func TestField(t *testing.T) {
	assert.NoError(t, validation.Field("name", "Ravi"))
	assert.NoError(t, validation.Field("monthlyBill", "2500"))

	err := validation.Field("monthlyBill", "120")
	var v validation.Violation
	require.True(t, errors.As(err, &v))
	assert.Equal(t, validation.CodeTooLow, v.Code)

	err = validation.Field("propertyType", "Barn")
	require.True(t, errors.As(err, &v))
	assert.Equal(t, validation.CodeInvalidOption, v.Code)

	assert.Error(t, validation.Field("email", "a@b.c"))
}

func TestConstantsMatchRules(t *testing.T) {
	form := validationtest.ValidForm()

	form.MonthlyBill = "500"
	_, err := validation.Validate(form)
	assert.NoError(t, err, "MinBill=%d", validation.MinBill)

	form.MonthlyBill = "1000000"
	_, err = validation.Validate(form)
	assert.NoError(t, err, "MaxBill=%d", validation.MaxBill)

	assert.Error(t, validation.Field("name", "x"), "MinNameLength=%d", validation.MinNameLength)
	assert.NoError(t, validation.Field("name", "xy"))
}
