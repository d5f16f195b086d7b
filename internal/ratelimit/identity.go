package ratelimit

import (
	"net/http"
	"strings"
)

const (
	DefaultIdentityHeader = "X-Forwarded-For"

	// FallbackIdentity is shared by every client that declares no origin, so
	// unidentified clients split a single quota instead of escaping limiting.
	FallbackIdentity = "anonymous"
)

// IdentityFunc extracts the rate-limit identity from a request.
type IdentityFunc func(r *http.Request) string

// IdentityFromHeader keys clients by the first entry of a client-declared
// origin header such as X-Forwarded-For.
func IdentityFromHeader(header string) IdentityFunc {
	if header == "" {
		header = DefaultIdentityHeader
	}
	return func(r *http.Request) string {
		v := r.Header.Get(header)
		if v == "" {
			return FallbackIdentity
		}
		first := strings.TrimSpace(strings.SplitN(v, ",", 2)[0])
		if first == "" {
			return FallbackIdentity
		}
		return first
	}
}
