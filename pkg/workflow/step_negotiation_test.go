package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
)

// TestNegotiationEscalatesPriceCounter hands price pushback to a human:
// the agent never discounts on its own, so the reply is gated even with
// approval mode off.
func TestNegotiationEscalatesPriceCounter(t *testing.T) {
	env := offerStage(t)

	res := env.send("m3", "That is too expensive, can you give us a discount?")
	assert.Equal(t, ActionNegotiationQueued, res.Action)
	assert.Equal(t, models.StepNegotiation, res.CurrentStep)
	assert.True(t, res.Res.PendingHILApproval)
	require.NotEmpty(t, res.DraftMessages)
	assert.Contains(t, res.DraftMessages[0].Body, "events team will review")

	tasks, err := env.hil.List(context.Background(), models.TaskPending)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, models.TaskNegotiationDecision, tasks[0].Type)
	assert.Equal(t, models.ThreadStateWaitingOnHIL, env.event().ThreadState)
	assert.False(t, env.event().OfferAccepted)
}

// TestBillingCaptureOutranksStaleRoomCheck sends the invoice address
// together with a headcount bump. The billing flow must reach its owner
// step before the hash guard walks the event back for re-evaluation.
func TestBillingCaptureOutranksStaleRoomCheck(t *testing.T) {
	env := offerStage(t)
	env.send("m3", "That works for us, we accept the offer.")
	require.True(t, env.event().BillingRequirements.AwaitingBillingForAccept)

	res := env.send("m4", "Acme Events GmbH\nBahnhofstrasse 12\n8001 Zürich\nBy the way, we will now be 35 people.")
	assert.Equal(t, ActionAdvancedToConfirm, res.Action)
	assert.Equal(t, models.StepConfirmation, res.CurrentStep)
	assert.Contains(t, res.Actions, ActionBillingCaptured)
	assert.Contains(t, res.Actions, ActionRoomLocked, "the stale room check runs after billing clears")

	e := env.event()
	assert.False(t, e.BillingRequirements.AwaitingBillingForAccept)
	assert.Nil(t, e.CallerStep)
	assert.Equal(t, "Room A", e.LockedRoomID, "Room A still fits 35")
	assert.Equal(t, e.RequirementsHash, e.RoomEvalHash)
	assert.Len(t, e.Offers, 1, "a room-only offer does not change with headcount")
}

func TestDeclineKeepsThreadAlive(t *testing.T) {
	env := offerStage(t)

	res := env.send("m3", "That won't work for us, we pass.")
	assert.Equal(t, ActionOfferDeclined, res.Action)
	require.NotEmpty(t, res.DraftMessages)
	assert.Contains(t, res.DraftMessages[0].Body, "what would you like us to adjust")

	e := env.event()
	assert.Equal(t, "declined", e.OfferStatus)
	assert.Equal(t, models.ThreadStateAwaitingClientResponse, e.ThreadState, "a plain no is an invitation to adjust, not a cancellation")
	assert.False(t, e.OfferAccepted)
}

func TestOfferRecapOnQuestion(t *testing.T) {
	env := offerStage(t)

	res := env.send("m3", "What is included in the offer?")
	assert.Equal(t, ActionQnAAnswered, res.Action)
	require.NotEmpty(t, res.DraftMessages)
	assert.Contains(t, res.DraftMessages[0].Body, "Your current offer for 15.10.2026")
	assert.Len(t, env.event().Offers, 1, "a recap never recomposes the offer")
}
