package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
)

func TestCancellationClosesBooking(t *testing.T) {
	env := newTestEnv(t, nil)
	env.send("m1", "Hello! We would like to book our summer workshop at your venue. Do you have dates in October?")
	require.NotNil(t, env.database().FindEventByThread(env.thread))

	res := env.send("m2", "Unfortunately we have to cancel the event.")
	assert.Equal(t, ActionCancelled, res.Action)
	require.NotEmpty(t, res.DraftMessages)
	assert.Contains(t, res.DraftMessages[0].Body, "your booking is cancelled")

	e := env.event()
	assert.Equal(t, models.EventStatusCancelled, e.Status)
	assert.Equal(t, models.ThreadStateClosed, e.ThreadState)
}

func TestStandaloneMessages(t *testing.T) {
	t.Run("manager request goes to a human", func(t *testing.T) {
		env := newTestEnv(t, nil)
		res := env.send("m1", "I want to speak to a manager, please.")
		assert.Equal(t, ActionManualReview, res.Action)

		db := env.database()
		assert.Nil(t, db.FindEventByThread(env.thread), "a manager request is not a booking")
		tasks := db.PendingTasks()
		require.Len(t, tasks, 1)
		assert.Equal(t, models.TaskManualReview, tasks[0].Type)
	})

	t.Run("auto-replies are dropped silently", func(t *testing.T) {
		env := newTestEnv(t, nil)
		res := env.send("m1", "Automatic reply: Out of office until Monday.")
		assert.Equal(t, ActionNonEventIgnored, res.Action)
		assert.Empty(t, res.DraftMessages, "noise never gets an answer")
		assert.Nil(t, env.database().FindEventByThread(env.thread))
	})

	t.Run("cancellation without a booking asks for details", func(t *testing.T) {
		env := newTestEnv(t, nil)
		res := env.send("m1", "Unfortunately we have to cancel the event.")
		assert.Equal(t, ActionStandaloneQnA, res.Action)
		require.NotEmpty(t, res.DraftMessages)
		assert.Contains(t, res.DraftMessages[0].Body, "could not find an active booking")
	})

	t.Run("venue questions are answered from the catalog", func(t *testing.T) {
		env := newTestEnv(t, nil)
		res := env.send("m1", "What do your rooms cost for a day?")
		assert.Equal(t, ActionStandaloneQnA, res.Action)
		require.NotEmpty(t, res.DraftMessages)
		assert.Contains(t, res.DraftMessages[0].Body, "Our rooms and day rates:")
		assert.Contains(t, res.DraftMessages[0].Body, "Room A")
		assert.Nil(t, env.database().FindEventByThread(env.thread))
	})
}

// TestLowConfidenceEscalates routes an uncertain classification to manual
// review instead of guessing.
func TestLowConfidenceEscalates(t *testing.T) {
	env := newTestEnv(t, func(s *models.Settings) {
		s.LLMProvider.IntentProvider = models.ProviderPrimary
	})
	env.llm.Register(models.ProviderPrimary, &cannedProvider{
		text: `{"intent":"event_request","confidence":0.2,"language":"en"}`,
	})

	res := env.send("m1", "hmmmm")
	assert.Equal(t, ActionManualReview, res.Action)
	assert.Nil(t, env.database().FindEventByThread(env.thread), "no booking is created on a guess")

	tasks := env.database().PendingTasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, models.TaskManualReview, tasks[0].Type)
	assert.Contains(t, tasks[0].Context, "low confidence")
}

// TestEntityCaptureUpdatesRequirements merges newly mentioned details
// into the stored requirements and recomputes the hash.
func TestEntityCaptureUpdatesRequirements(t *testing.T) {
	env := newTestEnv(t, nil)
	env.send("m1", "Hello! We would like to book our summer workshop at your venue. Do you have dates in October?")

	e := env.event()
	require.Nil(t, e.Requirements.NumberOfParticipants)
	hashBefore := e.RequirementsHash

	env.send("m2", "We expect around 25 people, from 09:00 to 17:00.")
	e = env.event()
	require.NotNil(t, e.Requirements.NumberOfParticipants)
	assert.Equal(t, 25, *e.Requirements.NumberOfParticipants)
	require.NotNil(t, e.Requirements.Duration)
	assert.Equal(t, "09:00", e.Requirements.Duration.Start)
	assert.Equal(t, "17:00", e.Requirements.Duration.End)
	assert.NotEqual(t, hashBefore, e.RequirementsHash, "requirement changes must re-key the room evaluation")
}
