package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
)

func TestConfigRoundTrip(t *testing.T) {
	ts := newTestServer(t, nil)

	w := ts.do(http.MethodGet, "/api/v1/config", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var before models.Settings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &before))
	assert.False(t, before.HILMode.Enabled)
	require.NotEmpty(t, before.Venue.Name)

	w = ts.doRaw(http.MethodPatch, "/api/v1/config",
		`{"hil_mode":{"enabled":true},"global_deposit":{"deposit_enabled":true}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var after models.Settings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &after))
	assert.True(t, after.HILMode.Enabled)
	assert.True(t, after.GlobalDeposit.DepositEnabled)
	assert.Equal(t, before.ConfigVersion+1, after.ConfigVersion, "patching bumps the version")
	assert.Equal(t, before.Venue.Name, after.Venue.Name, "untouched fields survive the merge")
	assert.Equal(t, before.SiteVisit.Slots, after.SiteVisit.Slots)

	w = ts.do(http.MethodGet, "/api/v1/config", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var persisted models.Settings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &persisted))
	assert.True(t, persisted.HILMode.Enabled, "the patch is persisted, not just echoed")
	assert.Equal(t, after.ConfigVersion, persisted.ConfigVersion)
}

func TestConfigPatchValidation(t *testing.T) {
	ts := newTestServer(t, nil)

	t.Run("empty body", func(t *testing.T) {
		w := ts.doRaw(http.MethodPatch, "/api/v1/config", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed json", func(t *testing.T) {
		w := ts.doRaw(http.MethodPatch, "/api/v1/config", `{"hil_mode":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("wrong field type", func(t *testing.T) {
		w := ts.doRaw(http.MethodPatch, "/api/v1/config", `{"hil_mode":{"enabled":"yes"}}`)
		require.Equal(t, http.StatusBadRequest, w.Code)

		var envelope ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
		assert.Contains(t, envelope.Error, "invalid config patch")
	})

	t.Run("rejected patch does not bump the version", func(t *testing.T) {
		w := ts.do(http.MethodGet, "/api/v1/config", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var settings models.Settings
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &settings))
		assert.Equal(t, 1, settings.ConfigVersion)
	})
}
