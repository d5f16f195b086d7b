// Package ratelimit gates the lead-intake endpoint per client identity.
//
// The default policy is a fixed window: the first request from an identity
// opens a window, up to Limit requests are allowed inside it, and the window
// restarts once it is older than its length. Across a window edge a client can
// get up to twice the limit through; that is the accepted price of O(1) state
// per identity. State lives in process memory only.
package ratelimit

import (
	"fmt"
	"strings"
	"time"

	"github.com/suar-net/leadintake/internal/config"
)

const (
	DefaultLimit  = 5
	DefaultWindow = 60 * time.Second

	PolicyFixed = "fixed"
	PolicyToken = "token"
)

// Limiter decides whether one more request from identity may proceed.
// Allow is called exactly once per incoming request.
type Limiter interface {
	Allow(identity string) bool
}

// RetryAfterer is implemented by limiters that can suggest how long a denied
// client should wait.
type RetryAfterer interface {
	RetryAfter() time.Duration
}

type options struct {
	now func() time.Time
}

type Option func(*options)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New builds the limiter selected by cfg.Policy.
func New(cfg config.RateLimitConfig, opts ...Option) (Limiter, error) {
	limit, window := cfg.Requests, cfg.Window
	if limit <= 0 {
		limit = DefaultLimit
	}
	if window <= 0 {
		window = DefaultWindow
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Policy)) {
	case "", PolicyFixed:
		return NewFixedWindow(limit, window, opts...), nil
	case PolicyToken:
		return NewTokenBucket(limit, window, opts...), nil
	default:
		return nil, fmt.Errorf("ratelimit: unknown policy %q", cfg.Policy)
	}
}
