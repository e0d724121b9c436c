package session

import (
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
)

func newTestRegistry(t *testing.T, size int) *Registry {
	t.Helper()
	r, err := NewRegistry(size, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return r
}

func TestUpdateAndGet(t *testing.T) {
	r := newTestRegistry(t, 8)

	r.Update(Summary{ThreadID: "th-1", EventID: "ev-1", CurrentStep: 2, ThreadState: models.ThreadStateAwaitingClient})

	got, ok := r.Get("th-1")
	require.True(t, ok)
	assert.Equal(t, "ev-1", got.EventID)
	assert.Equal(t, 2, got.CurrentStep)
	assert.False(t, got.UpdatedAt.IsZero(), "a missing timestamp is filled in")

	_, ok = r.Get("th-unknown")
	assert.False(t, ok)
}

func TestUpdateIgnoresEmptyThreadID(t *testing.T) {
	r := newTestRegistry(t, 8)

	r.Update(Summary{EventID: "ev-1"})

	assert.Zero(t, r.Len())
}

func TestUpdateReplacesExisting(t *testing.T) {
	r := newTestRegistry(t, 8)

	r.Update(Summary{ThreadID: "th-1", CurrentStep: 2})
	r.Update(Summary{ThreadID: "th-1", CurrentStep: 4, LastAction: "offer_sent"})

	assert.Equal(t, 1, r.Len())
	got, _ := r.Get("th-1")
	assert.Equal(t, 4, got.CurrentStep)
	assert.Equal(t, "offer_sent", got.LastAction)
}

func TestEvictionBound(t *testing.T) {
	r := newTestRegistry(t, 3)

	for i := 1; i <= 5; i++ {
		r.Update(Summary{ThreadID: fmt.Sprintf("th-%d", i)})
	}

	assert.Equal(t, 3, r.Len())
	_, ok := r.Get("th-1")
	assert.False(t, ok, "oldest threads are evicted first")
	_, ok = r.Get("th-5")
	assert.True(t, ok)
}

func TestListMostRecentFirst(t *testing.T) {
	r := newTestRegistry(t, 8)
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	r.Update(Summary{ThreadID: "th-old", UpdatedAt: base})
	r.Update(Summary{ThreadID: "th-new", UpdatedAt: base.Add(2 * time.Minute)})
	r.Update(Summary{ThreadID: "th-mid", UpdatedAt: base.Add(time.Minute)})

	got := r.List()

	require.Len(t, got, 3)
	assert.Equal(t, "th-new", got[0].ThreadID)
	assert.Equal(t, "th-mid", got[1].ThreadID)
	assert.Equal(t, "th-old", got[2].ThreadID)
}

func TestReset(t *testing.T) {
	r := newTestRegistry(t, 8)
	r.Update(Summary{ThreadID: "th-1"})

	r.Reset()

	assert.Zero(t, r.Len())
	assert.Empty(t, r.List())
}

func TestDefaultSizeFallback(t *testing.T) {
	r, err := NewRegistry(0, nil)
	require.NoError(t, err)

	for i := 0; i < DefaultSize+10; i++ {
		r.Update(Summary{ThreadID: fmt.Sprintf("th-%d", i)})
	}

	assert.Equal(t, DefaultSize, r.Len())
}
