package service

import (
	"errors"

	"github.com/suar-net/leadintake/internal/validation"
)

var (
	ErrMalformedPayload = errors.New("malformed payload")
	ErrRateLimited      = errors.New("rate limit exceeded")

	// ErrSchemaViolation matches every validation.FieldErrors value.
	ErrSchemaViolation = validation.ErrInvalidInput

	// Dispatch errors; callers report them as internal errors.
	ErrQueueFull        = errors.New("lead queue is full")
	ErrDispatcherClosed = errors.New("lead dispatcher is closed")
)
