package errors

import (
	"errors"
	"fmt"
	"time"
)

// Base error types
var (
	ErrMissingConfig    = errors.New("missing configuration")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrTimeout          = errors.New("timeout")
	ErrConnectionFailed = errors.New("connection failed")
	ErrMalformedBody    = errors.New("malformed response body")
	ErrDeliveryFailed   = errors.New("delivery failed")
)

// Kind categorizes a pipeline failure by the stage it belongs to.
type Kind string

const (
	KindConfig      Kind = "config"
	KindAPI         Kind = "api"
	KindAggregation Kind = "aggregation"
	KindDelivery    Kind = "delivery"
)

// PipelineError is a structured error for a single pipeline stage.
type PipelineError struct {
	Kind       Kind
	Op         string // operation that failed (e.g. "fetch_problems", "send_imessage")
	Endpoint   string // API endpoint path if applicable
	Channel    string // delivery channel name if applicable
	Err        error
	StatusCode int // HTTP status code if applicable
	Timestamp  time.Time
	Retryable  bool
}

func (e *PipelineError) Error() string {
	switch {
	case e.Endpoint != "":
		return fmt.Sprintf("%s failed for %s: %v", e.Op, e.Endpoint, e.Err)
	case e.Channel != "":
		return fmt.Sprintf("%s failed on channel %s: %v", e.Op, e.Channel, e.Err)
	default:
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support for the base error types.
func (e *PipelineError) Is(target error) bool {
	if target == nil {
		return false
	}

	switch target {
	case ErrMissingConfig:
		return e.Kind == KindConfig
	case ErrDeliveryFailed:
		return e.Kind == KindDelivery
	case ErrUnauthorized:
		return e.StatusCode == 401 || e.StatusCode == 403
	}

	return errors.Is(e.Err, target)
}

// New creates a PipelineError for the given kind and operation.
func New(kind Kind, op string, err error) *PipelineError {
	return &PipelineError{
		Kind:      kind,
		Op:        op,
		Err:       err,
		Timestamp: time.Now(),
		Retryable: kind == KindAPI,
	}
}

// WithEndpoint records the API endpoint the error originated from.
func (e *PipelineError) WithEndpoint(endpoint string) *PipelineError {
	e.Endpoint = endpoint
	return e
}

// WithChannel records the delivery channel the error originated from.
func (e *PipelineError) WithChannel(channel string) *PipelineError {
	e.Channel = channel
	return e
}

// WithStatusCode records the HTTP status and updates retryability.
func (e *PipelineError) WithStatusCode(code int) *PipelineError {
	e.StatusCode = code
	if code >= 500 || code == 429 || code == 408 {
		e.Retryable = true
	} else if code >= 400 && code < 500 {
		e.Retryable = false
	}
	return e
}

// Helper constructors

// NewConfigError wraps a startup configuration failure. Always fatal.
func NewConfigError(op string, err error) error {
	pe := New(KindConfig, op, err)
	pe.Retryable = false
	return pe
}

// WrapAPIError wraps a failed endpoint fetch with its status code.
func WrapAPIError(op, endpoint string, err error, statusCode int) error {
	return New(KindAPI, op, err).WithEndpoint(endpoint).WithStatusCode(statusCode)
}

// WrapDeliveryError wraps a failed channel delivery.
func WrapDeliveryError(op, channel string, err error) error {
	return New(KindDelivery, op, err).WithChannel(channel)
}

// IsRetryableError reports whether the fetch that produced err may be retried
// by a future run. The pipeline itself never retries within a run.
func IsRetryableError(err error) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrConnectionFailed)
}

// IsConfigError reports whether err is a fatal startup configuration error.
func IsConfigError(err error) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind == KindConfig
	}
	return errors.Is(err, ErrMissingConfig)
}

// StatusCode extracts the HTTP status from an API error, or 0.
func StatusCode(err error) int {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.StatusCode
	}
	return 0
}
