package model

import "time"

type PropertyType string

const (
	PropertyResidential PropertyType = "Residential"
	PropertyCommercial  PropertyType = "Commercial"
	PropertyIndustrial  PropertyType = "Industrial"
)

// PropertyTypes lists the accepted property types in display order.
var PropertyTypes = []PropertyType{PropertyResidential, PropertyCommercial, PropertyIndustrial}

// LeadSubmission is a lead form that satisfied every field rule.
type LeadSubmission struct {
	Name         string       `json:"name"`
	Phone        string       `json:"phone"`
	MonthlyBill  float64      `json:"monthlyBill"`
	PropertyType PropertyType `json:"propertyType"`
}

// Lead is a sanitized submission accepted for processing.
type Lead struct {
	ID         string         `json:"id"`
	Submission LeadSubmission `json:"submission"`
	Identity   string         `json:"identity"`
	ReceivedAt time.Time      `json:"received_at"`
}
