package main

import (
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/suar-net/leadintake/internal/model"
	"github.com/suar-net/leadintake/internal/validation"
)

var errInterrupted = errors.New("leadctl: interrupted")

// prompter asks the user for one value at a time.
type prompter interface {
	Input(message, help string, validate func(string) error) (string, error)
	Select(message string, options []string) (string, error)
	Confirm(message string, def bool) (bool, error)
}

type surveyPrompter struct{}

func (surveyPrompter) Input(message, help string, validate func(string) error) (string, error) {
	var out string
	prompt := &survey.Input{Message: message, Help: help}
	var opts []survey.AskOpt
	if validate != nil {
		opts = append(opts, survey.WithValidator(func(ans interface{}) error {
			s, _ := ans.(string)
			return validate(s)
		}))
	}
	if err := survey.AskOne(prompt, &out, opts...); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (surveyPrompter) Select(message string, options []string) (string, error) {
	var out string
	prompt := &survey.Select{Message: message, Options: options}
	if err := survey.AskOne(prompt, &out); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (surveyPrompter) Confirm(message string, def bool) (bool, error) {
	var out bool
	prompt := &survey.Confirm{Message: message, Default: def}
	if err := survey.AskOne(prompt, &out); err != nil {
		return false, translateSurveyErr(err)
	}
	return out, nil
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return errInterrupted
	}
	return err
}

// fieldCheck validates one answer with the same rules the server applies.
func fieldCheck(field string) func(string) error {
	return func(value string) error {
		return validation.Field(field, value)
	}
}

// collectForm asks for every lead field, re-asking until each answer passes
// its field rules. prefill answers are used as-is when valid.
func collectForm(p prompter, prefill model.LeadForm) (model.LeadForm, error) {
	form := prefill

	inputs := []struct {
		field   string
		message string
		help    string
		dst     *model.FormValue
	}{
		{"name", "Full name", "At least 2 characters.", &form.Name},
		{"phone", "Phone number", "Digits only, optional leading +, e.g. +919876543210.", &form.Phone},
		{"monthlyBill", "Average monthly electricity bill", "Between 500 and 1000000.", &form.MonthlyBill},
	}
	for _, in := range inputs {
		if *in.dst != "" && validation.Field(in.field, string(*in.dst)) == nil {
			continue
		}
		answer, err := p.Input(in.message, in.help, fieldCheck(in.field))
		if err != nil {
			return model.LeadForm{}, fmt.Errorf("ask %s: %w", in.field, err)
		}
		*in.dst = model.FormValue(answer)
	}

	if form.PropertyType == "" || validation.Field("propertyType", string(form.PropertyType)) != nil {
		options := make([]string, len(model.PropertyTypes))
		for i, pt := range model.PropertyTypes {
			options[i] = string(pt)
		}
		answer, err := p.Select("Property type", options)
		if err != nil {
			return model.LeadForm{}, fmt.Errorf("ask propertyType: %w", err)
		}
		form.PropertyType = model.FormValue(answer)
	}

	return form, nil
}
