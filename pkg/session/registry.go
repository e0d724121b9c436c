// Package session mirrors per-thread runtime state for the debug and
// admin surfaces. The registry is a bounded LRU so a long-running venue
// cannot grow it without limit; the store stays the source of truth and
// an evicted summary is only a cache miss.
package session

import (
	"log/slog"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
)

// DefaultSize bounds the registry when no size is configured.
const DefaultSize = 256

// Summary is the last known workflow position of one thread.
type Summary struct {
	ThreadID    string             `json:"thread_id"`
	EventID     string             `json:"event_id,omitempty"`
	ClientEmail string             `json:"client_email,omitempty"`
	CurrentStep int                `json:"current_step,omitempty"`
	ThreadState models.ThreadState `json:"thread_state,omitempty"`
	LastAction  string             `json:"last_action,omitempty"`
	LastMsgID   string             `json:"last_msg_id,omitempty"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// Registry holds recent thread summaries with LRU eviction.
type Registry struct {
	cache  *lru.Cache[string, Summary]
	logger *slog.Logger
}

// NewRegistry creates a registry bounded to size entries.
func NewRegistry(size int, logger *slog.Logger) (*Registry, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	cache, err := lru.New[string, Summary](size)
	if err != nil {
		return nil, err
	}
	return &Registry{
		cache:  cache,
		logger: logger.With("component", "session_registry"),
	}, nil
}

// Update records the thread's latest position.
func (r *Registry) Update(sum Summary) {
	if sum.ThreadID == "" {
		return
	}
	if sum.UpdatedAt.IsZero() {
		sum.UpdatedAt = time.Now().UTC()
	}
	if evicted := r.cache.Add(sum.ThreadID, sum); evicted {
		r.logger.Debug("session summary evicted", "thread_id", sum.ThreadID)
	}
}

// Get returns the summary for a thread.
func (r *Registry) Get(threadID string) (Summary, bool) {
	return r.cache.Get(threadID)
}

// List returns all cached summaries, most recently updated first.
func (r *Registry) List() []Summary {
	keys := r.cache.Keys()
	out := make([]Summary, 0, len(keys))
	for _, k := range keys {
		if sum, ok := r.cache.Peek(k); ok {
			out = append(out, sum)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// Len returns the number of cached summaries.
func (r *Registry) Len() int {
	return r.cache.Len()
}

// Reset drops all summaries. Test hook.
func (r *Registry) Reset() {
	r.cache.Purge()
}
