package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/suar-net/leadintake/internal/metrics"
	"github.com/suar-net/leadintake/internal/model"
	"github.com/suar-net/leadintake/internal/ratelimit"
	"github.com/suar-net/leadintake/internal/sanitize"
	"github.com/suar-net/leadintake/internal/validation"
	"github.com/suar-net/leadintake/pkg/logging"
)

// LeadAcceptor receives sanitized leads. Accept must return once the lead is
// accepted for processing; persistence and notification may finish later.
type LeadAcceptor interface {
	Accept(ctx context.Context, lead *model.Lead) error
}

// AcceptorFunc adapts a function to LeadAcceptor.
type AcceptorFunc func(ctx context.Context, lead *model.Lead) error

func (f AcceptorFunc) Accept(ctx context.Context, lead *model.Lead) error {
	return f(ctx, lead)
}

// IntakeRequest is one inbound lead-intake call.
type IntakeRequest struct {
	Identity  string
	RequestID string
	Body      io.Reader
}

// Outcome is where a request left the pipeline. Reached is the last step it
// completed before State. Err is nil only for Accepted; for Rejected it is a
// validation.FieldErrors.
type Outcome struct {
	State   State
	Reached State
	Lead    *model.Lead
	Err     error
}

type LeadService struct {
	limiter   ratelimit.Limiter
	validator *validation.Validator
	sanitizer *sanitize.Sanitizer
	acceptor  LeadAcceptor
	stats     ratelimit.StatsRecorder
	metrics   *metrics.IntakeMetrics
	logger    *logging.Logger
	now       func() time.Time
	newID     func() string
}

type Option func(*LeadService)

func WithStats(stats ratelimit.StatsRecorder) Option {
	return func(s *LeadService) { s.stats = stats }
}

func WithMetrics(m *metrics.IntakeMetrics) Option {
	return func(s *LeadService) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *LeadService) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *LeadService) { s.newID = newID }
}

func NewLeadService(limiter ratelimit.Limiter, acceptor LeadAcceptor, logger *logging.Logger, opts ...Option) *LeadService {
	if logger == nil {
		logger = logging.Default()
	}
	s := &LeadService{
		limiter:   limiter,
		validator: validation.New(),
		sanitizer: sanitize.Default(),
		acceptor:  acceptor,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Intake runs one request through rate check, parsing, schema validation,
// sanitization and acceptance. It never panics; unexpected faults come back
// as StateInternalError.
func (s *LeadService) Intake(ctx context.Context, req IntakeRequest) (out Outcome) {
	start := s.now()
	log := s.logger.With("request_id", req.RequestID, "identity", req.Identity)
	reached := StateReceived

	defer func() {
		if rec := recover(); rec != nil {
			log.Errorw("lead intake panicked", "panic", rec)
			out = Outcome{State: StateInternalError, Err: fmt.Errorf("panic: %v", rec)}
		}
		out.Reached = reached
		s.metrics.ObserveOutcome(out.State.String(), s.now().Sub(start).Seconds())
		s.logOutcome(log, out)
	}()

	if !s.allow(ctx, req.Identity) {
		return Outcome{State: StateRateLimited, Err: ErrRateLimited}
	}
	reached = StateRateChecked

	form, err := decodeForm(req.Body)
	if err != nil {
		return Outcome{State: StateMalformedPayload, Err: fmt.Errorf("%w: %v", ErrMalformedPayload, err)}
	}

	sub, err := s.validator.Validate(form)
	if err != nil {
		if errors.Is(err, ErrSchemaViolation) {
			return Outcome{State: StateRejected, Err: err}
		}
		return Outcome{State: StateInternalError, Err: err}
	}
	reached = StateSchemaValidated

	clean := s.sanitizer.Submission(*sub)
	// Stripping markup can leave too little of the name to be a name.
	if err := s.validator.Field("name", s.sanitizer.Text(clean.Name)); err != nil {
		var v validation.Violation
		if errors.As(err, &v) {
			return Outcome{State: StateRejected, Err: validation.FieldErrors{"name": {v}}}
		}
		return Outcome{State: StateInternalError, Err: err}
	}
	reached = StateSanitized

	lead := &model.Lead{
		ID:         s.newID(),
		Submission: clean,
		Identity:   req.Identity,
		ReceivedAt: start.UTC(),
	}
	if err := s.acceptor.Accept(ctx, lead); err != nil {
		return Outcome{State: StateInternalError, Err: fmt.Errorf("accept lead %s: %w", lead.ID, err)}
	}

	return Outcome{State: StateAccepted, Lead: lead}
}

// decodeForm reads exactly one JSON object; anything after it makes the
// payload malformed.
func decodeForm(r io.Reader) (model.LeadForm, error) {
	var form model.LeadForm
	dec := json.NewDecoder(r)
	if err := dec.Decode(&form); err != nil {
		return model.LeadForm{}, err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		if err == nil {
			return model.LeadForm{}, errors.New("unexpected data after JSON object")
		}
		return model.LeadForm{}, fmt.Errorf("unexpected data after JSON object: %v", err)
	}
	return form, nil
}

func (s *LeadService) allow(ctx context.Context, identity string) bool {
	allowed := s.limiter.Allow(identity)
	s.metrics.ObserveLimit(allowed)
	if s.stats != nil {
		d := ratelimit.Decision{Identity: identity, Allowed: allowed, At: s.now()}
		if err := s.stats.Record(ctx, d); err != nil {
			s.logger.Warnw("failed to record rate limit decision", "error", err)
		}
	}
	return allowed
}

func (s *LeadService) logOutcome(log *logging.Logger, out Outcome) {
	state := out.State.String()
	log = log.With("reached", out.Reached.String())
	switch out.State {
	case StateAccepted:
		log.Infow("lead accepted", "state", state, "lead_id", out.Lead.ID,
			"property_type", out.Lead.Submission.PropertyType)
	case StateRejected:
		var fe validation.FieldErrors
		if errors.As(out.Err, &fe) {
			log.Infow("lead rejected", "state", state, "fields", fe.Fields())
		}
	case StateRateLimited:
		log.Warnw("lead intake rate limited", "state", state)
	case StateMalformedPayload:
		log.Infow("malformed lead payload", "state", state, "error", out.Err)
	default:
		log.Errorw("lead intake failed", "state", state, "error", out.Err)
	}
}
