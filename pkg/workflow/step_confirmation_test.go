package workflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/catalog"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/hashutil"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
)

// seedAcceptedAtConfirmation plants an event at step 7 with an accepted
// offer, skipping the conversational runway.
func seedAcceptedAtConfirmation(env *testEnv, withBilling bool) {
	env.t.Helper()
	participants := 30
	req := models.Requirements{NumberOfParticipants: &participants, PreferredRoom: "Room A"}
	room, err := env.cat.Room("Room A")
	require.NoError(env.t, err)
	items, unresolved := env.cat.ComposeLineItems(room, participants, nil)
	require.Empty(env.t, unresolved)

	e := &models.Event{
		EventID:          "ev-confirm",
		ClientID:         env.from,
		ThreadID:         env.thread,
		CurrentStep:      models.StepConfirmation,
		ThreadState:      models.ThreadStateAwaitingClientResponse,
		Status:           models.EventStatusAccepted,
		Requirements:     req,
		RequirementsHash: hashutil.RequirementsHash(req),
		RoomEvalHash:     hashutil.RequirementsHash(req),
		ChosenDate:       "15.10.2026",
		DateConfirmed:    true,
		LockedRoomID:     "Room A",
		Offers:           []models.Offer{{OfferID: 1, TotalAmount: catalog.Total(items), LineItems: items}},
		CurrentOfferID:   1,
		OfferHash:        hashutil.OfferHash(items),
		OfferAccepted:    true,
		OfferStatus:      "accepted",
	}
	if withBilling {
		e.BillingDetails = models.BillingDetails{
			NameOrCompany: "Acme Events GmbH",
			Street:        "Bahnhofstrasse 12",
			PostalCode:    "8001",
			City:          "Zürich",
		}
	}
	env.seedEvent(e)
}

// TestDepositFlow runs the journey with the deposit policy on: the
// confirmation demands a 30% deposit and the payment report finalizes
// the booking without another approval round.
func TestDepositFlow(t *testing.T) {
	env := newTestEnv(t, func(s *models.Settings) {
		s.GlobalDeposit.DepositEnabled = true
	})
	driveToOffer(env)

	res := env.send("m3", "We accept your offer.\nAcme Events GmbH\nBahnhofstrasse 12\n8001 Zürich")
	assert.Equal(t, ActionAdvancedToConfirm, res.Action)
	assert.Equal(t, models.StepConfirmation, res.CurrentStep)
	assert.Contains(t, res.Actions, ActionOfferAccepted)
	transition := draftWithTopic(t, res.DraftMessages, models.TopicTransitionMessage)
	assert.Contains(t, transition.Body, "a deposit will be due")

	res = env.send("m4", "Yes, we confirm.")
	assert.Equal(t, ActionDepositRequested, res.Action)
	deposit := draftWithTopic(t, res.DraftMessages, models.TopicDepositRequest)
	assert.Contains(t, deposit.Body, "One last step")

	e := env.event()
	require.True(t, e.DepositInfo.Required)
	assert.Equal(t, 240.0, e.DepositInfo.Amount, "30 percent of the 800 total")
	assert.Equal(t, "2026-03-16", e.DepositInfo.DueDate, "14 days out")
	assert.False(t, e.DepositInfo.Paid)
	require.NotNil(t, e.ConfirmationState.Pending)
	assert.Equal(t, "deposit", e.ConfirmationState.Pending.Kind)
	assert.NotEqual(t, models.EventStatusConfirmed, e.Status)

	res = env.send("m5", "We have just paid the deposit, thank you!")
	assert.Equal(t, ActionBookingConfirmed, res.Action)
	assert.Contains(t, res.Actions, ActionDepositPaid)
	assert.False(t, res.Res.PendingHILApproval, "a reported payment proves intent")

	e = env.event()
	assert.True(t, e.DepositInfo.Paid)
	assert.Equal(t, models.EventStatusConfirmed, e.Status)
	assert.Equal(t, models.ThreadStateConfirmed, e.ThreadState)
	assert.Nil(t, e.ConfirmationState.Pending)
}

// TestDepositPaymentSkipsApprovalGate confirms straight through even with
// hil_mode on when the transport flags the message as a deposit payment.
func TestDepositPaymentSkipsApprovalGate(t *testing.T) {
	env := newTestEnv(t, func(s *models.Settings) {
		s.HILMode.Enabled = true
		s.GlobalDeposit.DepositEnabled = true
	})
	seedAcceptedAtConfirmation(env, true)
	db := env.database()
	e := db.FindEventByThread(env.thread)
	require.NotNil(t, e)
	e.DepositInfo = models.DepositInfo{
		Required: true,
		Type:     models.DepositTypePercentage,
		Amount:   240,
		DueDate:  "2026-03-16",
	}
	require.NoError(t, env.store.Save(db))

	res, err := env.router.ProcessMessage(context.Background(), &models.InboundMessage{
		MsgID:           "m1",
		FromEmail:       env.from,
		FromName:        "Anna Keller",
		Body:            "Payment done.",
		ThreadID:        env.thread,
		DepositJustPaid: true,
	}, "")
	require.NoError(t, err)
	assert.Equal(t, ActionBookingConfirmed, res.Action)
	assert.False(t, res.Res.PendingHILApproval)

	tasks, err := env.hil.List(context.Background(), models.TaskPending)
	require.NoError(t, err)
	assert.Empty(t, tasks, "payment already proved intent; nothing to approve")

	final := env.event()
	assert.True(t, final.DepositInfo.Paid)
	assert.Equal(t, models.EventStatusConfirmed, final.Status)
	assert.Equal(t, models.ThreadStateConfirmed, final.ThreadState)
}

// TestDepositPaymentDateKeepsEventDate reads the date in a payment
// report as the transfer date, never as a request to move the event.
func TestDepositPaymentDateKeepsEventDate(t *testing.T) {
	env := newTestEnv(t, func(s *models.Settings) {
		s.GlobalDeposit.DepositEnabled = true
	})
	driveToOffer(env)
	env.send("m3", "We accept your offer.\nAcme Events GmbH\nBahnhofstrasse 12\n8001 Zürich")
	env.send("m4", "Yes, we confirm.")
	require.True(t, env.event().DepositInfo.Required)

	res := env.send("m5", "Quick update: we paid the deposit on 02.01.2026.")
	assert.Equal(t, ActionBookingConfirmed, res.Action)
	assert.Contains(t, res.Actions, ActionDepositPaid)
	assert.NotContains(t, res.Actions, ActionChangeDetour)

	e := env.event()
	assert.True(t, e.DepositInfo.Paid)
	assert.Equal(t, "15.10.2026", e.ChosenDate, "the payment date is not the event date")
	assert.True(t, e.DateConfirmed)
	assert.Equal(t, models.EventStatusConfirmed, e.Status)
}

// TestTentativeHold parks the booking on a no-obligation hold until the
// client commits.
func TestTentativeHold(t *testing.T) {
	env := newTestEnv(t, nil)
	driveToOffer(env)
	env.send("m3", "That works for us, we accept the offer.")
	env.send("m4", "Acme Events GmbH\nBahnhofstrasse 12\n8001 Zürich\nSwitzerland")
	require.Equal(t, models.StepConfirmation, env.event().CurrentStep)

	res := env.send("m5", "Yes, please pencil us in for now, we will confirm next week.")
	assert.Equal(t, ActionTentativeReserved, res.Action)
	require.NotEmpty(t, res.DraftMessages)
	assert.Contains(t, res.DraftMessages[0].Body, "hold 15.10.2026 for you without obligation")

	e := env.event()
	require.NotNil(t, e.ConfirmationState.Pending)
	assert.Equal(t, "final_confirmation", e.ConfirmationState.Pending.Kind)
	assert.Equal(t, "reserve", e.ConfirmationState.LastResponseType)
	assert.Equal(t, models.ThreadStateAwaitingClientResponse, e.ThreadState)
	assert.NotEqual(t, models.EventStatusConfirmed, e.Status, "a hold is not a confirmation")

	res = env.send("m6", "We confirm.")
	assert.Equal(t, ActionBookingConfirmed, res.Action)
	e = env.event()
	assert.Nil(t, e.ConfirmationState.Pending)
	assert.Equal(t, "confirm", e.ConfirmationState.LastResponseType)
	assert.Equal(t, models.EventStatusConfirmed, e.Status)
}

// TestConfirmationWaitsForBilling gates the final yes on a complete
// invoice address.
func TestConfirmationWaitsForBilling(t *testing.T) {
	env := newTestEnv(t, nil)
	seedAcceptedAtConfirmation(env, false)

	res := env.send("m1", "Yes, we confirm.")
	assert.Equal(t, ActionConfirmNeedsBilling, res.Action)
	draftWithTopic(t, res.DraftMessages, models.TopicBillingRequest)

	e := env.event()
	assert.True(t, e.BillingRequirements.AwaitingBillingForConfirmation)
	require.NotNil(t, e.ConfirmationState.Pending)
	assert.Equal(t, "final_confirmation", e.ConfirmationState.Pending.Kind)
	assert.NotEqual(t, models.EventStatusConfirmed, e.Status)

	res = env.send("m2", "Acme Events GmbH\nBahnhofstrasse 12\n8001 Zürich")
	assert.Equal(t, ActionBookingConfirmed, res.Action)
	assert.Contains(t, res.Actions, ActionBillingCaptured)

	e = env.event()
	assert.False(t, e.BillingRequirements.AwaitingBillingForConfirmation)
	assert.Equal(t, "8001", e.BillingDetails.PostalCode)
	assert.Equal(t, models.EventStatusConfirmed, e.Status)
}
