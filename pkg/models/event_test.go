package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClampStep(t *testing.T) {
	assert.Equal(t, StepMin, ClampStep(0))
	assert.Equal(t, StepMin, ClampStep(-3))
	assert.Equal(t, StepMax, ClampStep(8))
	assert.Equal(t, 4, ClampStep(4))
}

func TestBillingDetails(t *testing.T) {
	t.Run("missing fields listed in order", func(t *testing.T) {
		b := BillingDetails{City: "Zurich"}
		assert.Equal(t, []string{"name_or_company", "street", "postal_code"}, b.MissingFields())
		assert.False(t, b.Complete())
	})

	t.Run("country is optional", func(t *testing.T) {
		b := BillingDetails{
			NameOrCompany: "Acme GmbH",
			Street:        "Bahnhofstrasse 1",
			PostalCode:    "8001",
			City:          "Zurich",
		}
		assert.True(t, b.Complete())
	})
}

func TestEventOffers(t *testing.T) {
	e := &Event{
		Offers: []Offer{
			{OfferID: 1, TotalAmount: 1000},
			{OfferID: 2, TotalAmount: 1200},
		},
		CurrentOfferID: 2,
	}

	t.Run("current offer resolves by id", func(t *testing.T) {
		o := e.CurrentOffer()
		require.NotNil(t, o)
		assert.Equal(t, 1200.0, o.TotalAmount)
	})

	t.Run("next offer id is monotonic", func(t *testing.T) {
		assert.Equal(t, 3, e.NextOfferID())
	})

	t.Run("missing current offer returns nil", func(t *testing.T) {
		e2 := &Event{CurrentOfferID: 9}
		assert.Nil(t, e2.CurrentOffer())
	})
}

func TestEventHasMsg(t *testing.T) {
	e := &Event{Msgs: []string{"m1", "m2"}}
	assert.True(t, e.HasMsg("m1"))
	assert.False(t, e.HasMsg("m3"))
}

func TestEnumValidity(t *testing.T) {
	assert.True(t, ThreadStateWaitingOnHIL.IsValid())
	assert.False(t, ThreadState("nope").IsValid())

	assert.True(t, EventStatusCancelled.IsValid())
	assert.False(t, EventStatus("gone").IsValid())

	assert.True(t, SiteVisitScheduled.IsValid())
	assert.True(t, SiteVisitTimePending.Pending())
	assert.False(t, SiteVisitScheduled.Pending())

	assert.True(t, IntentEventRequest.IsValid())
	assert.False(t, Intent("greeting").IsValid())

	assert.True(t, TaskManualReview.IsValid())
	assert.True(t, TaskApproved.Terminal())
	assert.False(t, TaskPending.Terminal())
}

func TestDraftTopicGating(t *testing.T) {
	assert.True(t, TopicOfferSent.HILGated())
	assert.True(t, TopicTransitionMessage.HILGated())
	assert.False(t, TopicQnA.HILGated())
	assert.False(t, TopicBillingRequest.HILGated())
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@x.com", NormalizeEmail("  A@X.COM "))
}

func TestInboundMessageTime(t *testing.T) {
	t.Run("parses RFC3339", func(t *testing.T) {
		m := &InboundMessage{Ts: "2026-04-15T14:00:00Z"}
		assert.Equal(t, time.Date(2026, 4, 15, 14, 0, 0, 0, time.UTC), m.Time())
	})

	t.Run("falls back to now on garbage", func(t *testing.T) {
		m := &InboundMessage{Ts: "yesterday"}
		assert.WithinDuration(t, time.Now().UTC(), m.Time(), 5*time.Second)
	})
}
