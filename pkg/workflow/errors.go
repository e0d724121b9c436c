package workflow

import (
	"errors"
	"fmt"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/llm"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/store"
)

// ErrorKind buckets a processing failure for the fallback record and the
// error surface.
type ErrorKind string

const (
	// ErrKindProviderUnavailable covers network failures, timeouts and 5xx
	ErrKindProviderUnavailable ErrorKind = "provider_unavailable"
	// ErrKindProviderRateLimited covers 429 responses
	ErrKindProviderRateLimited ErrorKind = "provider_rate_limited"
	// ErrKindProviderAuthFailed covers invalid keys and inactive billing
	ErrKindProviderAuthFailed ErrorKind = "provider_auth_failed"
	// ErrKindPersistenceFailed covers store load/save failures
	ErrKindPersistenceFailed ErrorKind = "persistence_failed"
	// ErrKindValidationFailed covers intra-step payload checks
	ErrKindValidationFailed ErrorKind = "validation_failed"
	// ErrKindGuardViolation covers invariants found broken after load
	ErrKindGuardViolation ErrorKind = "guard_violation"
	// ErrKindPayloadInvalid covers malformed inbound messages
	ErrKindPayloadInvalid ErrorKind = "payload_invalid"
	// ErrKindConcurrentConflict covers lock acquisition failures
	ErrKindConcurrentConflict ErrorKind = "concurrent_conflict"
	// ErrKindUnexpected covers everything else
	ErrKindUnexpected ErrorKind = "unexpected_exception"
)

// IsValid checks if the error kind is a known value.
func (k ErrorKind) IsValid() bool {
	switch k {
	case ErrKindProviderUnavailable,
		ErrKindProviderRateLimited,
		ErrKindProviderAuthFailed,
		ErrKindPersistenceFailed,
		ErrKindValidationFailed,
		ErrKindGuardViolation,
		ErrKindPayloadInvalid,
		ErrKindConcurrentConflict,
		ErrKindUnexpected:
		return true
	default:
		return false
	}
}

// ErrEmptyMessage is returned when an inbound message carries no usable
// identity or body.
var ErrEmptyMessage = errors.New("inbound message has no msg_id or from_email")

// ValidationError reports an intra-step payload check that failed. These
// are logged and the step continues best-effort; they never halt the run.
type ValidationError struct {
	Step  int
	Field string
	Msg   string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("step %d: %s: %s", e.Step, e.Field, e.Msg)
}

// ClassifyError maps an error to its kind for the fallback record.
func ClassifyError(err error) ErrorKind {
	var verr *ValidationError
	var ierr *store.InvariantError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, llm.ErrAuthFailed):
		return ErrKindProviderAuthFailed
	case errors.Is(err, llm.ErrRateLimited):
		return ErrKindProviderRateLimited
	case errors.Is(err, llm.ErrUnavailable),
		errors.Is(err, llm.ErrEmptyCompletion),
		errors.Is(err, llm.ErrProviderNotRegistered):
		return ErrKindProviderUnavailable
	case errors.Is(err, store.ErrLockNotAcquired):
		return ErrKindConcurrentConflict
	case errors.As(err, &ierr):
		return ErrKindGuardViolation
	case errors.As(err, &verr):
		return ErrKindValidationFailed
	case errors.Is(err, ErrEmptyMessage):
		return ErrKindPayloadInvalid
	default:
		return ErrKindUnexpected
	}
}
