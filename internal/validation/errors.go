package validation

import (
	"errors"
	"sort"
	"strings"
)

// ErrInvalidInput is matched by every FieldErrors value through errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// Code identifies which rule a field value broke.
type Code string

const (
	CodeTooShort      Code = "TooShort"
	CodeInvalidFormat Code = "InvalidFormat"
	CodeEmpty         Code = "Empty"
	CodeNotNumeric    Code = "NotNumeric"
	CodeTooLow        Code = "TooLow"
	CodeUnrealistic   Code = "Unrealistic"
	CodeInvalidOption Code = "InvalidOption"
)

// Violation is a single broken rule with the message shown to the user.
type Violation struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
}

func (v Violation) Error() string { return v.Message }

// FieldErrors maps a form field (JSON name) to the rules it broke.
type FieldErrors map[string][]Violation

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for _, field := range fe.Fields() {
		for _, v := range fe[field] {
			parts = append(parts, field+": "+v.Message)
		}
	}
	return ErrInvalidInput.Error() + ": " + strings.Join(parts, ", ")
}

func (fe FieldErrors) Is(target error) bool { return target == ErrInvalidInput }

// Fields returns the failing field names in sorted order.
func (fe FieldErrors) Fields() []string {
	fields := make([]string, 0, len(fe))
	for field := range fe {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return fields
}

// Messages flattens the violations into the field -> reasons shape used on the wire.
func (fe FieldErrors) Messages() map[string][]string {
	out := make(map[string][]string, len(fe))
	for field, violations := range fe {
		for _, v := range violations {
			out[field] = append(out[field], v.Message)
		}
	}
	return out
}

// Has reports whether field broke the rule identified by code.
func (fe FieldErrors) Has(field string, code Code) bool {
	for _, v := range fe[field] {
		if v.Code == code {
			return true
		}
	}
	return false
}

func (fe FieldErrors) add(field string, v Violation) {
	fe[field] = append(fe[field], v)
}
