package verbalizer

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/llm"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
)

// cannedProvider returns one fixed completion and counts calls.
type cannedProvider struct {
	text  string
	err   error
	calls int
}

func (p *cannedProvider) Name() string { return "canned" }

func (p *cannedProvider) Complete(_ context.Context, _ llm.Request) (llm.Response, error) {
	p.calls++
	if p.err != nil {
		return llm.Response{}, p.err
	}
	return llm.Response{Text: p.text, Model: "canned"}, nil
}

func newTestVerbalizer(t *testing.T, p llm.Provider) *Verbalizer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := llm.NewRouter(logger)
	if p != nil {
		router.Register(models.ProviderPrimary, p)
	}
	return New(router, logger)
}

func primaryRouting() models.Settings {
	return models.Settings{LLMProvider: models.ProviderRouting{
		IntentProvider:        models.ProviderPrimary,
		EntityProvider:        models.ProviderPrimary,
		VerbalizationProvider: models.ProviderPrimary,
	}}
}

func intPtr(n int) *int           { return &n }
func floatPtr(v float64) *float64 { return &v }

func offerFacts() *Facts {
	return &Facts{
		Language:     "en",
		DateISO:      "2026-10-15",
		Room:         "Room A",
		Participants: intPtr(30),
		LineItems: []models.LineItem{
			{Description: "Room A rental", Quantity: 1, UnitPrice: 1200, Unit: models.UnitPerEvent, Total: 1200},
		},
		TotalAmount: floatPtr(1200),
		Currency:    "CHF",
	}
}

func TestPolishReplacesBodyWithVerifiedProse(t *testing.T) {
	prose := "Thank you for your inquiry. Room A is available on 15.10.2026 for your 30 people. " +
		"The Room A rental comes to CHF 1'200.00 per event, CHF 1'200.00 in total."
	p := &cannedProvider{text: prose}
	v := newTestVerbalizer(t, p)
	draft := &models.Draft{Topic: models.TopicOfferSent, Body: "deterministic body"}

	v.Polish(context.Background(), draft, offerFacts(), primaryRouting())

	assert.Equal(t, prose, draft.Body)
	assert.Equal(t, 1, p.calls)
}

func TestPolishKeepsBodyWhenFactsDropped(t *testing.T) {
	p := &cannedProvider{text: "Room A is available on 15.10.2026. Best regards."}
	v := newTestVerbalizer(t, p)
	draft := &models.Draft{Topic: models.TopicOfferSent, Body: "deterministic body"}

	v.Polish(context.Background(), draft, offerFacts(), primaryRouting())

	assert.Equal(t, "deterministic body", draft.Body, "prose missing the total may not replace the draft")
}

func TestPolishKeepsBodyWhenProseInventsValues(t *testing.T) {
	prose := "Room A on 15.10.2026 for 30 people, CHF 1'200.00 per event, total CHF 1'200.00. " +
		"Please also note our cleaning fee of CHF 99.50."
	v := newTestVerbalizer(t, &cannedProvider{text: prose})
	draft := &models.Draft{Topic: models.TopicOfferSent, Body: "deterministic body"}

	v.Polish(context.Background(), draft, offerFacts(), primaryRouting())

	assert.Equal(t, "deterministic body", draft.Body, "invented amounts may not reach the client")
}

func TestPolishKeepsBodyWhenParticipantsDrift(t *testing.T) {
	prose := "Room A on 15.10.2026 for 25 people and 30 people, CHF 1'200.00 per event, total CHF 1'200.00."
	v := newTestVerbalizer(t, &cannedProvider{text: prose})
	draft := &models.Draft{Topic: models.TopicOfferSent, Body: "deterministic body"}

	v.Polish(context.Background(), draft, offerFacts(), primaryRouting())

	assert.Equal(t, "deterministic body", draft.Body)
}

func TestPolishPatchesWrongUnitLabel(t *testing.T) {
	prose := "Room A on 15.10.2026 for 30 people. The Room A rental is CHF 1'200.00 per person, total CHF 1'200.00."
	v := newTestVerbalizer(t, &cannedProvider{text: prose})
	draft := &models.Draft{Topic: models.TopicOfferSent, Body: "deterministic body"}

	v.Polish(context.Background(), draft, offerFacts(), primaryRouting())

	assert.Contains(t, draft.Body, "per event", "a drifting unit label is patched, not fatal")
	assert.NotContains(t, draft.Body, "per person")
}

func TestPolishStubRouteSkipsGeneration(t *testing.T) {
	p := &cannedProvider{text: "should never be used"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := llm.NewRouter(logger)
	router.Register(models.ProviderStub, p)
	v := New(router, logger)

	settings := models.Settings{LLMProvider: models.ProviderRouting{
		VerbalizationProvider: models.ProviderStub,
	}}
	draft := &models.Draft{Topic: models.TopicOfferSent, Body: "deterministic body"}

	v.Polish(context.Background(), draft, offerFacts(), settings)

	assert.Equal(t, "deterministic body", draft.Body)
	assert.Zero(t, p.calls, "the stub renders nothing better than the template")
}

func TestPolishProviderFailureKeepsBody(t *testing.T) {
	v := newTestVerbalizer(t, &cannedProvider{err: llm.ErrUnavailable})
	draft := &models.Draft{Topic: models.TopicOfferSent, Body: "deterministic body"}

	v.Polish(context.Background(), draft, offerFacts(), primaryRouting())

	assert.Equal(t, "deterministic body", draft.Body)
}

func TestPolishNothingToVerify(t *testing.T) {
	p := &cannedProvider{text: "prose"}
	v := newTestVerbalizer(t, p)
	draft := &models.Draft{Body: "deterministic body"}

	v.Polish(context.Background(), draft, &Facts{Language: "en"}, primaryRouting())
	v.Polish(context.Background(), nil, offerFacts(), primaryRouting())

	assert.Equal(t, "deterministic body", draft.Body)
	assert.Zero(t, p.calls, "empty facts mean there is nothing a model could improve")
}

func TestVerifyCandidateDatesAndSlots(t *testing.T) {
	facts := &Facts{
		CandidateDates: []string{"2026-10-15", "2026-10-22"},
		VisitSlots:     []string{"Tue 14:00", "Thu 16:00"},
	}

	ok := Verify("We can offer 15.10.2026 or 22.10.2026; visits Tue 14:00 or Thu 16:00.", facts)
	assert.True(t, ok.OK())

	missing := Verify("We can offer 15.10.2026; visits Tue 14:00 or Thu 16:00.", facts)
	assert.False(t, missing.OK())
	assert.Contains(t, missing.MissingFacts, "candidate_date 2026-10-22")
}

func TestVerifyAcceptsWrittenDateForms(t *testing.T) {
	facts := &Facts{DateISO: "2026-10-15"}

	for _, prose := range []string{
		"Confirmed for 15.10.2026.",
		"Confirmed for October 15, 2026.",
		"Confirmed for the 15th of October 2026.",
		"Bestätigt für den 15. Oktober 2026.",
	} {
		rep := Verify(prose, facts)
		assert.True(t, rep.OK(), "prose %q should satisfy the date fact", prose)
	}
}
