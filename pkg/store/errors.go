package store

import (
	"errors"
	"fmt"
)

var (
	// ErrEventNotFound is returned when no event matches the lookup
	ErrEventNotFound = errors.New("event not found")
	// ErrClientNotFound is returned when no client matches the email
	ErrClientNotFound = errors.New("client not found")
	// ErrTaskNotFound is returned when no task matches the id
	ErrTaskNotFound = errors.New("task not found")
	// ErrLockNotAcquired is returned when the file lock cannot be taken
	ErrLockNotAcquired = errors.New("store lock not acquired")
)

// SchemaVersionError is returned when the persisted document was written
// by a newer schema than this build understands.
type SchemaVersionError struct {
	Found     string
	Supported string
}

func (e *SchemaVersionError) Error() string {
	return fmt.Sprintf("unsupported store schema version %q (supported: %s)", e.Found, e.Supported)
}

// InvariantError reports a broken event invariant discovered after load.
// The router converts these into manual-review tasks, never panics.
type InvariantError struct {
	EventID   string
	Invariant string
	Detail    string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("event %s violates %s: %s", e.EventID, e.Invariant, e.Detail)
}
