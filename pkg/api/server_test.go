package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/calendar"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/catalog"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/config"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/detect"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/hil"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/llm"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/store"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/verbalizer"
	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/workflow"
)

// testNow is a fixed Monday matching the workflow test clock; message
// bodies use dates well in its future.
var testNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type testServer struct {
	t       *testing.T
	handler http.Handler
	store   *store.Store
}

// newTestServer wires the full stack behind the HTTP surface: stub
// providers, a temp-file store with builtin venue config, and the
// workflow router. Approval mode and deposits default to off.
func newTestServer(t *testing.T, mutate func(*models.Settings)) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	builtin := config.GetBuiltinConfig()

	settings := builtin.Settings
	settings.HILMode.Enabled = false
	settings.GlobalDeposit.DepositEnabled = false
	settings.LLMProvider = models.ProviderRouting{
		IntentProvider:        models.ProviderStub,
		EntityProvider:        models.ProviderStub,
		VerbalizationProvider: models.ProviderStub,
	}
	if mutate != nil {
		mutate(&settings)
	}

	st := store.New(filepath.Join(t.TempDir(), "events.json"))
	db, err := st.Load()
	require.NoError(t, err)
	db.SaveSettings(settings)
	require.NoError(t, st.Save(db))

	llmRouter := llm.NewRouter(logger)
	llmRouter.Register(models.ProviderStub, llm.NewStubProvider())

	hilSvc := hil.NewService(st, nil, logger)
	wf := workflow.NewRouter(workflow.Options{
		Store:      st,
		Detector:   detect.New(llmRouter, logger),
		Verbalizer: verbalizer.New(llmRouter, logger),
		HIL:        hilSvc,
		Catalog:    catalog.New(config.NewRoomRegistry(builtin.Rooms), config.NewProductRegistry(builtin.Products)),
		Calendar:   calendar.New(builtin.Calendar, time.UTC),
		Logger:     logger,
		Now:        func() time.Time { return testNow },
	})
	hilSvc.SetResumer(wf)

	srv := NewServer(wf, st, hilSvc, config.EnvironmentDev, logger)
	return &testServer{t: t, handler: srv.Handler(), store: st}
}

// do sends one request with a JSON-encoded body (nil for none).
func (ts *testServer) do(method, target string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(ts.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

// doRaw sends one request with a verbatim body, for malformed payloads.
func (ts *testServer) doRaw(method, target, raw string) *httptest.ResponseRecorder {
	ts.t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader([]byte(raw)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, req)
	return w
}

// postMessage runs one inbound message through the workflow endpoint on
// the shared test thread and decodes the result.
func (ts *testServer) postMessage(id, body string) *models.ProcessResult {
	ts.t.Helper()
	w := ts.do(http.MethodPost, "/api/v1/messages", MessageRequest{
		MsgID:     id,
		FromName:  "Anna Keller",
		FromEmail: "anna@acme.ch",
		Body:      body,
		ThreadID:  "th-1",
	})
	require.Equal(ts.t, http.StatusOK, w.Code, "message %s should process: %s", id, w.Body.String())
	var res models.ProcessResult
	require.NoError(ts.t, json.Unmarshal(w.Body.Bytes(), &res))
	return &res
}

// database reloads the persisted state for assertions.
func (ts *testServer) database() *store.Database {
	ts.t.Helper()
	db, err := ts.store.Load()
	require.NoError(ts.t, err)
	return db
}
