package client

import (
	"errors"
	"fmt"
	"time"
)

// ErrBusy is returned by Submit while a submission is in flight or its
// success notice is still showing.
var ErrBusy = errors.New("client: submission in progress")

// SubmissionError is a non-2xx answer from the intake endpoint.
type SubmissionError struct {
	Status     int
	Message    string
	Details    map[string][]string
	RetryAfter time.Duration
}

func (e *SubmissionError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("client: submission failed with status %d", e.Status)
	}
	return fmt.Sprintf("client: submission failed with status %d: %s", e.Status, e.Message)
}

// RateLimited reports whether the server asked the client to back off.
func (e *SubmissionError) RateLimited() bool {
	return e.Status == 429
}
