package llm

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/models"
)

// fakeProvider scripts one provider's answer for routing tests.
type fakeProvider struct {
	name  string
	text  string
	err   error
	calls int
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Complete(_ context.Context, _ Request) (Response, error) {
	f.calls++
	if f.err != nil {
		return Response{}, f.err
	}
	return Response{Text: f.text, Model: f.name}, nil
}

func testRouting() models.ProviderRouting {
	return models.ProviderRouting{
		IntentProvider:        models.ProviderPrimary,
		EntityProvider:        models.ProviderPrimary,
		VerbalizationProvider: models.ProviderPrimary,
	}
}

func newTestRouter() *Router {
	return NewRouter(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestRouteFor(t *testing.T) {
	routing := models.ProviderRouting{
		IntentProvider:        models.ProviderStub,
		EntityProvider:        models.ProviderFallback,
		VerbalizationProvider: models.ProviderPrimary,
	}

	assert.Equal(t, models.ProviderStub, RouteFor(OpDetect, routing), "unified detection follows the intent route")
	assert.Equal(t, models.ProviderStub, RouteFor(OpIntent, routing))
	assert.Equal(t, models.ProviderFallback, RouteFor(OpEntity, routing))
	assert.Equal(t, models.ProviderPrimary, RouteFor(OpVerbalize, routing))

	assert.Equal(t, models.ProviderPrimary, RouteFor(OpDetect, models.ProviderRouting{}),
		"unset routes default to primary")
}

func TestCompleteHappyPath(t *testing.T) {
	r := newTestRouter()
	primary := &fakeProvider{name: "primary", text: `{"ok":true}`}
	r.Register(models.ProviderPrimary, primary)

	resp, err := r.Complete(context.Background(), testRouting(), Request{Op: OpDetect, User: "hello"})

	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, resp.Text)
	assert.Equal(t, 1, primary.calls)
}

func TestCompleteFallsBackOnUnavailable(t *testing.T) {
	r := newTestRouter()
	primary := &fakeProvider{name: "primary", err: ErrUnavailable}
	fallback := &fakeProvider{name: "fallback", text: "answer"}
	r.Register(models.ProviderPrimary, primary)
	r.Register(models.ProviderFallback, fallback)

	resp, err := r.Complete(context.Background(), testRouting(), Request{Op: OpDetect})

	require.NoError(t, err)
	assert.Equal(t, "answer", resp.Text)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestCompleteFallsBackOnEmptyCompletion(t *testing.T) {
	r := newTestRouter()
	r.Register(models.ProviderPrimary, &fakeProvider{name: "primary", text: ""})
	fallback := &fakeProvider{name: "fallback", text: "answer"}
	r.Register(models.ProviderFallback, fallback)

	resp, err := r.Complete(context.Background(), testRouting(), Request{Op: OpVerbalize})

	require.NoError(t, err, "an empty completion counts as failure and retries")
	assert.Equal(t, "answer", resp.Text)
	assert.Equal(t, 1, fallback.calls)
}

func TestCompleteAuthFailureIsNotRetried(t *testing.T) {
	r := newTestRouter()
	primary := &fakeProvider{name: "primary", err: ErrAuthFailed}
	fallback := &fakeProvider{name: "fallback", text: "answer"}
	r.Register(models.ProviderPrimary, primary)
	r.Register(models.ProviderFallback, fallback)

	_, err := r.Complete(context.Background(), testRouting(), Request{Op: OpDetect})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAuthFailed)
	assert.Equal(t, 0, fallback.calls, "auth failures must surface, not be masked by the alternate")
}

func TestCompleteCanceledContextIsNotRetried(t *testing.T) {
	r := newTestRouter()
	r.Register(models.ProviderPrimary, &fakeProvider{name: "primary", err: ErrUnavailable})
	fallback := &fakeProvider{name: "fallback", text: "answer"}
	r.Register(models.ProviderFallback, fallback)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Complete(ctx, testRouting(), Request{Op: OpDetect})

	require.Error(t, err)
	assert.Equal(t, 0, fallback.calls)
}

func TestCompleteStubHasNoAlternate(t *testing.T) {
	r := newTestRouter()
	r.Register(models.ProviderStub, &fakeProvider{name: "stub", err: ErrUnavailable})
	fallback := &fakeProvider{name: "fallback", text: "answer"}
	r.Register(models.ProviderFallback, fallback)

	routing := models.ProviderRouting{IntentProvider: models.ProviderStub}
	_, err := r.Complete(context.Background(), routing, Request{Op: OpIntent})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 0, fallback.calls)
}

func TestCompleteUnregisteredProvider(t *testing.T) {
	r := newTestRouter()

	_, err := r.Complete(context.Background(), testRouting(), Request{Op: OpDetect})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderNotRegistered)
}

func TestCompleteUnregisteredAlternateKeepsFirstError(t *testing.T) {
	r := newTestRouter()
	r.Register(models.ProviderPrimary, &fakeProvider{name: "primary", err: ErrRateLimited})

	_, err := r.Complete(context.Background(), testRouting(), Request{Op: OpDetect})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited, "with no fallback registered the original failure surfaces")
}

func TestCompleteBothProvidersFailing(t *testing.T) {
	r := newTestRouter()
	r.Register(models.ProviderPrimary, &fakeProvider{name: "primary", err: ErrUnavailable})
	r.Register(models.ProviderFallback, &fakeProvider{name: "fallback", err: ErrRateLimited})

	_, err := r.Complete(context.Background(), testRouting(), Request{Op: OpDetect})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRateLimited, "the fallback's failure is the one reported")
	assert.Contains(t, err.Error(), "fallback")
}

func TestCriticalClassification(t *testing.T) {
	assert.True(t, Critical(ErrAuthFailed))
	assert.True(t, Critical(errors.Join(errors.New("wrap"), ErrAuthFailed)))
	assert.False(t, Critical(ErrUnavailable))
	assert.False(t, Critical(ErrRateLimited))
	assert.False(t, Critical(nil))
}
