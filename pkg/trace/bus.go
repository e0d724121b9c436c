// Package trace keeps an in-memory, per-thread ordered log of workflow
// events. The bus backs the debug surface and the activity transformer;
// it is not a persistence layer and survives only for the process life.
package trace

import (
	"sync"
	"time"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
)

// Kind labels one trace entry.
type Kind string

const (
	// KindStepEnter marks a step handler starting
	KindStepEnter Kind = "STEP_ENTER"
	// KindStepExit marks a step handler finishing
	KindStepExit Kind = "STEP_EXIT"
	// KindGatePass marks a guard allowing progress
	KindGatePass Kind = "GATE_PASS"
	// KindGateFail marks a guard forcing a different step
	KindGateFail Kind = "GATE_FAIL"
	// KindDBRead marks the store load of a message cycle
	KindDBRead Kind = "DB_READ"
	// KindDBWrite marks the store save of a message cycle
	KindDBWrite Kind = "DB_WRITE"
	// KindEntityCapture marks entities merged into the event
	KindEntityCapture Kind = "ENTITY_CAPTURE"
	// KindDraftSend marks a draft emitted or queued
	KindDraftSend Kind = "DRAFT_SEND"
	// KindStateSnapshot marks a full state dump
	KindStateSnapshot Kind = "STATE_SNAPSHOT"
	// KindPromptIn marks a prompt sent to a provider
	KindPromptIn Kind = "AGENT_PROMPT_IN"
	// KindPromptOut marks a provider completion received
	KindPromptOut Kind = "AGENT_PROMPT_OUT"
)

// Entry is one row in a thread's trace.
type Entry struct {
	RowID     int64          `json:"row_id"`
	Ts        time.Time      `json:"ts"`
	Kind      Kind           `json:"kind"`
	Step      int            `json:"step,omitempty"`
	Detail    string         `json:"detail,omitempty"`
	Data      map[string]any `json:"data,omitempty"`
	OwnerStep int            `json:"owner_step,omitempty"`
}

// DefaultLimit is the per-thread retention when none is configured.
const DefaultLimit = 500

type threadLog struct {
	entries    []Entry
	nextRow    int64
	lastResult *models.ProcessResult
}

// Bus holds the per-thread rings.
type Bus struct {
	mu      sync.RWMutex
	limit   int
	threads map[string]*threadLog
}

// NewBus creates a bus retaining at most limit entries per thread.
func NewBus(limit int) *Bus {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Bus{
		limit:   limit,
		threads: make(map[string]*threadLog),
	}
}

// Record appends an entry to the thread's ring, assigning the next
// monotonic row id. Oldest entries are dropped past the limit; row ids
// keep counting.
func (b *Bus) Record(threadID string, e Entry) Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	tl := b.threads[threadID]
	if tl == nil {
		tl = &threadLog{nextRow: 1}
		b.threads[threadID] = tl
	}

	e.RowID = tl.nextRow
	tl.nextRow++
	if e.Ts.IsZero() {
		e.Ts = time.Now().UTC()
	}

	tl.entries = append(tl.entries, e)
	if over := len(tl.entries) - b.limit; over > 0 {
		tl.entries = tl.entries[over:]
	}
	return e
}

// Entries returns a copy of the thread's retained rows in order.
func (b *Bus) Entries(threadID string) []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	tl := b.threads[threadID]
	if tl == nil {
		return nil
	}
	out := make([]Entry, len(tl.entries))
	copy(out, tl.entries)
	return out
}

// SetLastResult remembers the final result of the thread's latest
// message, for duplicate replay.
func (b *Bus) SetLastResult(threadID string, res *models.ProcessResult) {
	if res == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	tl := b.threads[threadID]
	if tl == nil {
		tl = &threadLog{nextRow: 1}
		b.threads[threadID] = tl
	}
	cp := *res
	tl.lastResult = &cp
}

// LastResult returns a copy of the thread's last recorded result.
func (b *Bus) LastResult(threadID string) (*models.ProcessResult, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	tl := b.threads[threadID]
	if tl == nil || tl.lastResult == nil {
		return nil, false
	}
	cp := *tl.lastResult
	return &cp, true
}

// Drop forgets a thread's trace entirely.
func (b *Bus) Drop(threadID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.threads, threadID)
}

// Threads lists the thread ids currently holding a trace.
func (b *Bus) Threads() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]string, 0, len(b.threads))
	for id := range b.threads {
		out = append(out, id)
	}
	return out
}
