// Package sanitize strips markup from user-supplied text before it is trusted.
//
// Output is HTML-escaped plain text: tags are removed (script and style
// content included), entities are decoded until nothing more can be stripped,
// and the result is escaped exactly once. Sanitizing an already sanitized
// value returns it unchanged.
package sanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/suar-net/leadintake/internal/model"
)

// maxPasses bounds the strip/decode loop for nested or multiply-encoded payloads.
const maxPasses = 8

type Sanitizer struct {
	policy *bluemonday.Policy
}

var (
	defaultOnce      sync.Once
	defaultSanitizer *Sanitizer
)

func New() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

// Default returns a process-wide Sanitizer. bluemonday policies are safe for
// concurrent use once built.
func Default() *Sanitizer {
	defaultOnce.Do(func() {
		defaultSanitizer = New()
	})
	return defaultSanitizer
}

// Text returns the plain text left once all markup is gone, not escaped.
func (s *Sanitizer) Text(raw string) string {
	text := raw
	for i := 0; i < maxPasses; i++ {
		next := html.UnescapeString(s.policy.Sanitize(text))
		if next == text {
			return text
		}
		text = next
	}
	// Still changing after maxPasses: drop anything that could open a tag or entity.
	return strings.Map(func(r rune) rune {
		switch r {
		case '<', '>', '&':
			return -1
		}
		return r
	}, text)
}

// Sanitize returns raw with all markup removed, escaped for any HTML context.
func (s *Sanitizer) Sanitize(raw string) string {
	return html.EscapeString(s.Text(raw))
}

// Plain turns a Sanitize result back into the plain text it encodes, for
// stores and channels that are not HTML. Plain(Sanitize(x)) == Text(x).
func Plain(sanitized string) string {
	return html.UnescapeString(sanitized)
}

// Submission sanitizes every text field of an already validated submission.
func (s *Sanitizer) Submission(sub model.LeadSubmission) model.LeadSubmission {
	sub.Name = s.Sanitize(sub.Name)
	sub.Phone = s.Sanitize(sub.Phone)
	sub.PropertyType = model.PropertyType(s.Sanitize(string(sub.PropertyType)))
	return sub
}
