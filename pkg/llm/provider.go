// Package llm routes language-model calls to configured providers and
// retries once on the alternate provider when the first choice fails.
// A deterministic stub provider keeps the engine fully offline for
// development and tests.
package llm

import (
	"context"
	"errors"
)

// Operation names one LLM call site. Provider routing and fallback are
// decided per operation.
type Operation string

const (
	// OpDetect is the unified single-call detection
	OpDetect Operation = "detect"
	// OpIntent is the legacy intent classification call
	OpIntent Operation = "intent"
	// OpEntity is the legacy entity extraction call
	OpEntity Operation = "entity"
	// OpVerbalize turns structured facts into client prose
	OpVerbalize Operation = "verbalize"
)

// IsValid checks if the operation is a known value.
func (o Operation) IsValid() bool {
	switch o {
	case OpDetect, OpIntent, OpEntity, OpVerbalize:
		return true
	default:
		return false
	}
}

// Request is one completion call. System carries the instructions and
// conversation context; User carries the raw payload (message body or
// facts JSON) so offline providers can parse it directly.
type Request struct {
	Op          Operation
	System      string
	User        string
	MaxTokens   int
	Temperature float64
	JSONMode    bool
}

// Response is the completion returned by a provider.
type Response struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// Provider is one LLM backend. Implementations must be safe for
// concurrent use and must classify transport failures into the
// sentinel errors below so the router can decide whether to fall back.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req Request) (Response, error)
}

// Sentinel errors adapters classify SDK failures into.
var (
	// ErrUnavailable covers network failures, timeouts and 5xx responses
	ErrUnavailable = errors.New("llm provider unavailable")
	// ErrRateLimited covers 429 responses
	ErrRateLimited = errors.New("llm provider rate limited")
	// ErrAuthFailed covers invalid keys and inactive billing; never retried
	ErrAuthFailed = errors.New("llm provider auth failed")
	// ErrEmptyCompletion means the provider answered with no usable text
	ErrEmptyCompletion = errors.New("llm provider returned empty completion")
	// ErrProviderNotRegistered means routing points at an unknown provider
	ErrProviderNotRegistered = errors.New("llm provider not registered")
)

// Critical reports whether the failure is an account-level problem that
// must surface verbatim instead of being masked by a fallback retry.
func Critical(err error) bool {
	return errors.Is(err, ErrAuthFailed)
}
