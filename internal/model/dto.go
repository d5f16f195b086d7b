package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FormValue is a form field as typed by the user. It decodes from a JSON string,
// a JSON number (kept as its literal text) or null.
type FormValue string

func (v *FormValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = ""
		return nil
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = FormValue(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("form value must be a string or number, got %s", data)
	}
	*v = FormValue(n.String())
	return nil
}

// LeadForm is the raw lead-intake payload, as produced by the contact form.
type LeadForm struct {
	Name         FormValue `json:"name"`
	Phone        FormValue `json:"phone"`
	MonthlyBill  FormValue `json:"monthlyBill"`
	PropertyType FormValue `json:"propertyType"`
}

// DTOLeadAccepted is the body of a successful lead-intake response.
type DTOLeadAccepted struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// DTOError is the body of every failed response. Details is only set on schema rejections.
type DTOError struct {
	Error   string              `json:"error"`
	Details map[string][]string `json:"details,omitempty"`
}

type DTOStatus struct {
	Status string `json:"status"`
}
