package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/workflow"
)

func TestPostMessageRunsWorkflow(t *testing.T) {
	ts := newTestServer(t, nil)

	res := ts.postMessage("m-1", "We are planning a company workshop for next summer.")
	assert.Equal(t, workflow.ActionDateOptionsSent, res.Action)
	assert.Equal(t, models.StepDate, res.CurrentStep)
	assert.NotEmpty(t, res.EventID)
	assert.NotEmpty(t, res.DraftMessages, "the client should get a reply")

	event := ts.database().FindEventByThread("th-1")
	require.NotNil(t, event, "the event should be persisted")
	assert.Equal(t, res.EventID, event.EventID)
}

func TestPostMessageSecondCycleAdvances(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.postMessage("m-1", "We are planning a company workshop for next summer.")

	res := ts.postMessage("m-2", "We would like the 15.10.2026, 30 people, Room A please.")
	assert.Equal(t, workflow.ActionSmartShortcut, res.Action)
	assert.Contains(t, res.Actions, workflow.ActionOfferSent)

	event := ts.database().FindEventByThread("th-1")
	require.NotNil(t, event)
	assert.True(t, event.DateConfirmed)
	assert.Len(t, event.Offers, 1)
}

func TestPostMessageValidation(t *testing.T) {
	ts := newTestServer(t, nil)

	t.Run("missing identity fields", func(t *testing.T) {
		w := ts.do(http.MethodPost, "/api/v1/messages", map[string]string{
			"body": "Hello there",
		})
		require.Equal(t, http.StatusBadRequest, w.Code)

		var envelope ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
		assert.NotEmpty(t, envelope.Error)
	})

	t.Run("malformed json", func(t *testing.T) {
		w := ts.doRaw(http.MethodPost, "/api/v1/messages", `{"msg_id": "m-1",`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
