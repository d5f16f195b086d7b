// Package client submits leads to the intake endpoint and tracks the
// submission the way the contact form does: validate locally, submit once,
// show success briefly, then return to Idle.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/suar-net/leadintake/internal/model"
	"github.com/suar-net/leadintake/internal/validation"
)

const (
	DefaultPath       = "/lead-intake"
	DefaultResetDelay = 5 * time.Second

	maxResponseBytes = 1 << 20
)

// Timer is the part of *time.Timer the client needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d.
type AfterFunc func(d time.Duration, f func()) Timer

func timeAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

type Client struct {
	endpoint   string
	path       string
	http       *http.Client
	validator  *validation.Validator
	resetDelay time.Duration
	afterFunc  AfterFunc
	observer   Observer

	mu      sync.Mutex
	state   State
	timer   Timer
	lastErr error
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithPath(path string) Option {
	return func(c *Client) { c.path = "/" + strings.TrimLeft(path, "/") }
}

func WithResetDelay(d time.Duration) Option {
	return func(c *Client) { c.resetDelay = d }
}

func WithAfterFunc(f AfterFunc) Option {
	return func(c *Client) { c.afterFunc = f }
}

func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// New returns an Idle client posting to baseURL + DefaultPath unless WithPath
// says otherwise.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("client: parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("client: base url %q must be http or https", baseURL)
	}
	c := &Client{
		path:       DefaultPath,
		http:       &http.Client{Timeout: 15 * time.Second},
		validator:  validation.New(),
		resetDelay: DefaultResetDelay,
		afterFunc:  timeAfterFunc,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.endpoint = strings.TrimRight(u.String(), "/") + c.path
	return c, nil
}

func (c *Client) Endpoint() string { return c.endpoint }

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Err returns the error of the last failed submission, if the client is Failed.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateFailed {
		return nil
	}
	return c.lastErr
}

// Submit validates form and, when it is valid, posts it. Invalid forms return
// validation.FieldErrors without any request and leave the state unchanged.
func (c *Client) Submit(ctx context.Context, form model.LeadForm) (*model.DTOLeadAccepted, error) {
	c.mu.Lock()
	if c.state == StateSubmitting || c.state == StateSuccess {
		c.mu.Unlock()
		return nil, ErrBusy
	}
	sub, err := c.validator.Validate(form)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}
	from := c.setState(StateSubmitting, nil)
	c.mu.Unlock()
	c.notify(from, StateSubmitting)

	accepted, err := c.post(ctx, sub)

	c.mu.Lock()
	if err != nil {
		from = c.setState(StateFailed, err)
		c.mu.Unlock()
		c.notify(from, StateFailed)
		return nil, err
	}
	from = c.setState(StateSuccess, nil)
	c.timer = c.afterFunc(c.resetDelay, c.resetAfterSuccess)
	c.mu.Unlock()
	c.notify(from, StateSuccess)
	return accepted, nil
}

// Retry returns a Failed client to Idle. It reports whether it did anything.
func (c *Client) Retry() bool {
	c.mu.Lock()
	if c.state != StateFailed {
		c.mu.Unlock()
		return false
	}
	from := c.setState(StateIdle, nil)
	c.mu.Unlock()
	c.notify(from, StateIdle)
	return true
}

// Close cancels a pending success reset.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Client) resetAfterSuccess() {
	c.mu.Lock()
	if c.state != StateSuccess {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	from := c.setState(StateIdle, nil)
	c.mu.Unlock()
	c.notify(from, StateIdle)
}

// setState must be called with mu held.
func (c *Client) setState(to State, err error) State {
	from := c.state
	c.state = to
	c.lastErr = err
	return from
}

func (c *Client) notify(from, to State) {
	if c.observer != nil && from != to {
		c.observer(from, to)
	}
}

func (c *Client) post(ctx context.Context, sub *model.LeadSubmission) (*model.DTOLeadAccepted, error) {
	payload, err := json.Marshal(sub)
	if err != nil {
		return nil, fmt.Errorf("client: encode lead: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("client: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("client: post lead: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("client: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, submissionError(resp, body)
	}

	var accepted model.DTOLeadAccepted
	if err := json.Unmarshal(body, &accepted); err != nil {
		return nil, fmt.Errorf("client: decode response: %w", err)
	}
	if !accepted.Success {
		return nil, &SubmissionError{Status: resp.StatusCode, Message: accepted.Message}
	}
	return &accepted, nil
}

func submissionError(resp *http.Response, body []byte) error {
	se := &SubmissionError{Status: resp.StatusCode}

	var dto model.DTOError
	if err := json.Unmarshal(body, &dto); err == nil {
		se.Message = dto.Error
		se.Details = dto.Details
	}
	if se.Message == "" {
		se.Message = http.StatusText(resp.StatusCode)
	}
	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
		se.RetryAfter = time.Duration(secs) * time.Second
	}
	return se
}

// FieldErrors extracts the per-field breakdown from a Submit error, whether
// it came from local validation or from the server.
func FieldErrors(err error) map[string][]string {
	var fe validation.FieldErrors
	if errors.As(err, &fe) {
		return fe.Messages()
	}
	var se *SubmissionError
	if errors.As(err, &se) {
		return se.Details
	}
	return nil
}
