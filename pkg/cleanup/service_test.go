package cleanup

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/config"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/store"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/trace"
)

var testNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

// newTestService wires a service against a temp-file store seeded with
// the builtin settings (30 day task retention).
func newTestService(t *testing.T, seed func(*store.Database)) (*Service, *store.Store, *trace.Bus) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	st := store.New(filepath.Join(t.TempDir(), "events.json"))
	db, err := st.Load()
	require.NoError(t, err)
	db.SaveSettings(config.GetBuiltinConfig().Settings)
	if seed != nil {
		seed(db)
	}
	require.NoError(t, st.Save(db))

	bus := trace.NewBus(trace.DefaultLimit)
	svc := NewService(st, bus, logger)
	svc.now = func() time.Time { return testNow }
	return svc, st, bus
}

// resolvedTask builds a task resolved the given number of days before
// the test clock.
func resolvedTask(id string, status models.TaskStatus, daysAgo int) *models.Task {
	task := &models.Task{
		TaskID:    id,
		EventID:   "ev-1",
		Type:      models.TaskManualReview,
		Status:    status,
		CreatedAt: testNow.AddDate(0, 0, -daysAgo-1),
	}
	if status != models.TaskPending {
		task.Resolution = &models.TaskResolution{
			ResolvedBy: "lea",
			ResolvedAt: testNow.AddDate(0, 0, -daysAgo),
		}
	}
	return task
}

func TestSweepPrunesResolvedTasks(t *testing.T) {
	svc, st, _ := newTestService(t, func(db *store.Database) {
		db.EnqueueTask(resolvedTask("t-pending-old", models.TaskPending, 90))
		db.EnqueueTask(resolvedTask("t-approved-old", models.TaskApproved, 45))
		db.EnqueueTask(resolvedTask("t-rejected-fresh", models.TaskRejected, 5))
		db.EnqueueTask(resolvedTask("t-edited-past-window", models.TaskEdited, 31))
	})

	pruned, dropped, err := svc.sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, pruned)
	assert.Equal(t, 0, dropped)

	db, err := st.Load()
	require.NoError(t, err)
	var ids []string
	for _, task := range db.Tasks {
		ids = append(ids, task.TaskID)
	}
	assert.ElementsMatch(t, []string{"t-pending-old", "t-rejected-fresh"}, ids,
		"pending tasks never expire, fresh resolutions stay")
}

func TestSweepHonorsDisabledRetention(t *testing.T) {
	svc, st, _ := newTestService(t, func(db *store.Database) {
		db.Config.Retention.TaskRetentionDays = 0
		db.EnqueueTask(resolvedTask("t-ancient", models.TaskApproved, 400))
	})

	pruned, _, err := svc.sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, pruned, "retention 0 disables task pruning")

	db, err := st.Load()
	require.NoError(t, err)
	assert.Len(t, db.Tasks, 1)
}

func TestSweepDropsClosedTraces(t *testing.T) {
	svc, _, bus := newTestService(t, func(db *store.Database) {
		db.AddEvent(&models.Event{
			EventID:     "ev-dead",
			ThreadID:    "th-dead",
			ClientID:    "anna@acme.ch",
			CurrentStep: models.StepIntake,
			ThreadState: models.ThreadStateClosed,
			Status:      models.EventStatusCancelled,
		})
		db.AddEvent(&models.Event{
			EventID:     "ev-live",
			ThreadID:    "th-live",
			ClientID:    "ben@acme.ch",
			CurrentStep: models.StepDate,
			ThreadState: models.ThreadStateInProgress,
			Status:      models.EventStatusLead,
		})
		db.AddEvent(&models.Event{
			EventID:     "ev-won",
			ThreadID:    "th-won",
			ClientID:    "cleo@acme.ch",
			CurrentStep: models.StepConfirmation,
			ThreadState: models.ThreadStateConfirmed,
			Status:      models.EventStatusConfirmed,
		})
	})
	for _, id := range []string{"th-dead", "th-live", "th-won"} {
		bus.Record(id, trace.Entry{Kind: trace.KindStepEnter, Step: models.StepIntake})
	}

	_, dropped, err := svc.sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, dropped)

	assert.Empty(t, bus.Entries("th-dead"), "closed threads lose their ring")
	assert.NotEmpty(t, bus.Entries("th-live"), "open threads keep theirs")
	assert.NotEmpty(t, bus.Entries("th-won"),
		"confirmed threads keep theirs, they still take follow-ups")
}

func TestStartRunsSweepAndStops(t *testing.T) {
	svc, st, _ := newTestService(t, func(db *store.Database) {
		db.EnqueueTask(resolvedTask("t-expired", models.TaskApproved, 60))
	})

	svc.Start(context.Background())
	defer svc.Stop()

	require.Eventually(t, func() bool {
		db, err := st.Load()
		return err == nil && len(db.Tasks) == 0
	}, 2*time.Second, 10*time.Millisecond, "the initial sweep should prune the expired task")
}

func TestStopBeforeStartIsSafe(t *testing.T) {
	svc, _, _ := newTestService(t, nil)
	svc.Stop()
}
