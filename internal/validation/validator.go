package validation

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/suar-net/leadintake/internal/model"
)

const (
	MinNameLength = 2
	MinBill       = 500
	MaxBill       = 1_000_000
)

var phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

// leadRules is the one definition of the lead schema. Tag thresholds must match
// the exported constants above.
type leadRules struct {
	Name         string `json:"name" validate:"min=2"`
	Phone        string `json:"phone" validate:"phone"`
	MonthlyBill  string `json:"monthlyBill" validate:"filled,amount,amount_gte=500,amount_lte=1000000"`
	PropertyType string `json:"propertyType" validate:"oneof=Residential Commercial Industrial"`
}

// violations maps "field/tag" to the violation reported for it.
var violations = map[string]Violation{
	"name/min":               {CodeTooShort, "Name must be at least 2 characters."},
	"phone/phone":            {CodeInvalidFormat, "Please enter a valid phone number."},
	"monthlyBill/filled":     {CodeEmpty, "Please enter a bill amount."},
	"monthlyBill/amount":     {CodeNotNumeric, "Must be a number."},
	"monthlyBill/amount_gte": {CodeTooLow, "Bill amount is too low to qualify for solar ROI estimation."},
	"monthlyBill/amount_lte": {CodeUnrealistic, "Please enter a realistic bill amount."},
	"propertyType/oneof":     {CodeInvalidOption, "Please select a valid property type."},
}

// Validator evaluates lead forms against the shared schema. It is safe for
// concurrent use.
type Validator struct {
	validate *validator.Validate
	tags     map[string]string
}

var defaultValidator = New()

// New builds a Validator with the lead-specific rules registered.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	mustRegister(v, "phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	mustRegister(v, "filled", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	mustRegister(v, "amount", func(fl validator.FieldLevel) bool {
		_, ok := parseAmount(fl.Field().String())
		return ok
	})
	mustRegister(v, "amount_gte", func(fl validator.FieldLevel) bool {
		return compareAmount(fl, func(amount, limit float64) bool { return amount >= limit })
	})
	mustRegister(v, "amount_lte", func(fl validator.FieldLevel) bool {
		return compareAmount(fl, func(amount, limit float64) bool { return amount <= limit })
	})

	tags := make(map[string]string)
	rt := reflect.TypeOf(leadRules{})
	for i := 0; i < rt.NumField(); i++ {
		f := rt.Field(i)
		tags[f.Tag.Get("json")] = f.Tag.Get("validate")
	}

	return &Validator{validate: v, tags: tags}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("validation: register %q: %v", tag, err))
	}
}

// Validate checks form with the package default Validator.
func Validate(form model.LeadForm) (*model.LeadSubmission, error) {
	return defaultValidator.Validate(form)
}

// Field checks a single field value with the package default Validator.
func Field(field, value string) error {
	return defaultValidator.Field(field, value)
}

// Validate checks every field of form independently. On failure the returned
// error is a FieldErrors naming each failing field.
func (v *Validator) Validate(form model.LeadForm) (*model.LeadSubmission, error) {
	rules := leadRules{
		Name:         string(form.Name),
		Phone:        string(form.Phone),
		MonthlyBill:  string(form.MonthlyBill),
		PropertyType: string(form.PropertyType),
	}

	if err := v.validate.Struct(rules); err != nil {
		return nil, toFieldErrors(err)
	}

	amount, _ := parseAmount(rules.MonthlyBill)
	return &model.LeadSubmission{
		Name:         rules.Name,
		Phone:        rules.Phone,
		MonthlyBill:  amount,
		PropertyType: model.PropertyType(rules.PropertyType),
	}, nil
}

// Field checks one field by its JSON name and returns the first Violation, or
// nil when the value is acceptable.
func (v *Validator) Field(field, value string) error {
	tag, ok := v.tags[field]
	if !ok {
		return fmt.Errorf("validation: unknown field %q", field)
	}
	err := v.validate.Var(value, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	return violationFor(field, verrs[0].Tag())
}

func toFieldErrors(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fe := make(FieldErrors)
	for _, e := range verrs {
		fe.add(e.Field(), violationFor(e.Field(), e.Tag()))
	}
	return fe
}

func violationFor(field, tag string) Violation {
	if v, ok := violations[field+"/"+tag]; ok {
		return v
	}
	return Violation{Code: Code(tag), Message: fmt.Sprintf("Field '%s' failed on the '%s' rule", field, tag)}
}

var decimalPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

// parseAmount reads a bill amount the way a browser coerces a number input:
// decimal notation, unsigned 0x/0o/0b integers and Infinity. Values too
// large for a float64 become ±Inf so they fail the range rules, not the
// numeric one.
func parseAmount(raw string) (float64, bool) {
	s := strings.TrimSpace(raw)
	switch s {
	case "":
		return 0, false
	case "Infinity", "+Infinity":
		return math.Inf(1), true
	case "-Infinity":
		return math.Inf(-1), true
	}

	if base := integerBase(s); base != 0 {
		n, err := strconv.ParseUint(s[2:], base, 64)
		if err != nil {
			if errors.Is(err, strconv.ErrRange) {
				return math.Inf(1), true
			}
			return 0, false
		}
		return float64(n), true
	}

	if !decimalPattern.MatchString(s) {
		return 0, false
	}
	amount, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	return amount, true
}

func integerBase(s string) int {
	if len(s) < 3 || s[0] != '0' {
		return 0
	}
	switch s[1] {
	case 'x', 'X':
		return 16
	case 'o', 'O':
		return 8
	case 'b', 'B':
		return 2
	}
	return 0
}

func compareAmount(fl validator.FieldLevel, ok func(amount, limit float64) bool) bool {
	amount, parsed := parseAmount(fl.Field().String())
	if !parsed {
		return false
	}
	limit, err := strconv.ParseFloat(fl.Param(), 64)
	if err != nil {
		panic(fmt.Sprintf("validation: bad amount limit %q", fl.Param()))
	}
	return ok(amount, limit)
}
