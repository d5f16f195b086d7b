// Command leadctl submits a solar audit request from the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/suar-net/leadintake/internal/client"
	"github.com/suar-net/leadintake/internal/model"
)

func main() {
	baseURL := flag.String("url", envOr("LEADCTL_URL", "http://localhost:8080"), "base URL of the lead-intake service")
	path := flag.String("path", client.DefaultPath, "intake endpoint path")
	timeout := flag.Duration("timeout", 15*time.Second, "request timeout")
	verbose := flag.Bool("v", false, "print client state changes")
	var prefill model.LeadForm
	flag.Var((*formFlag)(&prefill.Name), "name", "full name")
	flag.Var((*formFlag)(&prefill.Phone), "phone", "phone number")
	flag.Var((*formFlag)(&prefill.MonthlyBill), "bill", "monthly electricity bill")
	flag.Var((*formFlag)(&prefill.PropertyType), "property", "Residential, Commercial or Industrial")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []client.Option{client.WithPath(*path)}
	if *verbose {
		opts = append(opts, client.WithObserver(func(from, to client.State) {
			fmt.Fprintf(os.Stderr, "state: %s -> %s\n", from, to)
		}))
	}
	opts = append(opts, client.WithAfterFunc(func(time.Duration, func()) client.Timer { return noopTimer{} }))

	c, err := client.New(*baseURL, opts...)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	if err := run(ctx, c, surveyPrompter{}, prefill, *timeout, os.Stdout); err != nil {
		if !errors.Is(err, errInterrupted) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// run collects a lead and submits it, offering a retry after each failure.
func run(ctx context.Context, c *client.Client, p prompter, prefill model.LeadForm, timeout time.Duration, out io.Writer) error {
	form := prefill
	for {
		var err error
		form, err = collectForm(p, form)
		if err != nil {
			return err
		}

		reqCtx, cancel := context.WithTimeout(ctx, timeout)
		accepted, err := c.Submit(reqCtx, form)
		cancel()
		if err == nil {
			fmt.Fprintln(out, accepted.Message)
			return nil
		}

		report(out, err)
		again, askErr := p.Confirm("Try again?", true)
		if askErr != nil {
			return askErr
		}
		if !again {
			return err
		}
		c.Retry()
		form = keepValid(form, client.FieldErrors(err))
	}
}

func report(out io.Writer, err error) {
	details := client.FieldErrors(err)

	var se *client.SubmissionError
	switch {
	case errors.As(err, &se):
		fmt.Fprintf(out, "Submission failed: %s\n", se.Message)
		if se.RateLimited() && se.RetryAfter > 0 {
			fmt.Fprintf(out, "Please wait %s before trying again.\n", se.RetryAfter)
		}
	case details == nil:
		fmt.Fprintf(out, "Submission failed: %v\n", err)
	default:
		fmt.Fprintln(out, "Please fix the following:")
	}

	fields := make([]string, 0, len(details))
	for f := range details {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		for _, msg := range details[f] {
			fmt.Fprintf(out, "  %s: %s\n", f, msg)
		}
	}
}

// keepValid clears the answers the server or validator complained about so
// only those are asked again.
func keepValid(form model.LeadForm, details map[string][]string) model.LeadForm {
	for field := range details {
		switch field {
		case "name":
			form.Name = ""
		case "phone":
			form.Phone = ""
		case "monthlyBill":
			form.MonthlyBill = ""
		case "propertyType":
			form.PropertyType = ""
		}
	}
	return form
}

type formFlag model.FormValue

func (f *formFlag) String() string     { return string(*f) }
func (f *formFlag) Set(v string) error { *f = formFlag(v); return nil }

type noopTimer struct{}

func (noopTimer) Stop() bool { return false }

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
