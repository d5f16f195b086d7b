package handler

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/suar-net/leadintake/internal/model"
	"github.com/suar-net/leadintake/internal/ratelimit"
	"github.com/suar-net/leadintake/internal/service"
	"github.com/suar-net/leadintake/internal/validation"
	"github.com/suar-net/leadintake/pkg/logging"
)

const (
	MessageAccepted    = "Thank you! Your free audit request has been received."
	MessageInvalid     = "Invalid input"
	MessageRateLimited = "Too many requests. Please try again later."
	MessageInternal    = "Internal Server Error"
	StatusOperational  = "operational"

	defaultMaxBodyBytes = 64 << 10
)

// LeadIntaker runs the intake pipeline for one request.
type LeadIntaker interface {
	Intake(ctx context.Context, req service.IntakeRequest) service.Outcome
}

type LeadHandler struct {
	intake     LeadIntaker
	identity   ratelimit.IdentityFunc
	retryAfter time.Duration
	maxBody    int64
	logger     *logging.Logger
}

// NewLeadHandler wires the intake pipeline to HTTP. retryAfter is advertised
// on 429 responses; zero omits the header.
func NewLeadHandler(intake LeadIntaker, identity ratelimit.IdentityFunc, retryAfter time.Duration, maxBody int64, logger *logging.Logger) *LeadHandler {
	if identity == nil {
		identity = ratelimit.IdentityFromHeader(ratelimit.DefaultIdentityHeader)
	}
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &LeadHandler{
		intake:     intake,
		identity:   identity,
		retryAfter: retryAfter,
		maxBody:    maxBody,
		logger:     logger,
	}
}

// Submit handles POST /lead-intake.
func (h *LeadHandler) Submit(w http.ResponseWriter, r *http.Request) {
	out := h.intake.Intake(r.Context(), service.IntakeRequest{
		Identity:  h.identity(r),
		RequestID: middleware.GetReqID(r.Context()),
		Body:      http.MaxBytesReader(w, r.Body, h.maxBody),
	})

	switch out.State {
	case service.StateAccepted:
		respondWithJson(w, http.StatusOK, model.DTOLeadAccepted{Success: true, Message: MessageAccepted})

	case service.StateRejected:
		var fe validation.FieldErrors
		if !errors.As(out.Err, &fe) {
			respondWithError(w, http.StatusInternalServerError, MessageInternal)
			return
		}
		respondWithJson(w, http.StatusBadRequest, model.DTOError{Error: MessageInvalid, Details: fe.Messages()})

	case service.StateRateLimited:
		if h.retryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(h.retryAfter.Seconds()))))
		}
		respondWithError(w, http.StatusTooManyRequests, MessageRateLimited)

	default:
		respondWithError(w, http.StatusInternalServerError, MessageInternal)
	}
}

// Status handles GET /lead-intake.
func (h *LeadHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondWithJson(w, http.StatusOK, model.DTOStatus{Status: StatusOperational})
}
