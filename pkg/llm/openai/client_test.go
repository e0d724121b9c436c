package openai

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/llm"
)

type fakeChat struct {
	resp  *sdk.ChatCompletion
	err   error
	got   sdk.ChatCompletionNewParams
	ctx   context.Context
	calls int
}

func (f *fakeChat) New(ctx context.Context, body sdk.ChatCompletionNewParams, _ ...option.RequestOption) (*sdk.ChatCompletion, error) {
	f.calls++
	f.ctx = ctx
	f.got = body
	return f.resp, f.err
}

func completion(text string) *sdk.ChatCompletion {
	return &sdk.ChatCompletion{
		Model: "gpt-4o-mini",
		Choices: []sdk.ChatCompletionChoice{
			{Message: sdk.ChatCompletionMessage{Content: text}},
		},
		Usage: sdk.CompletionUsage{PromptTokens: 21, CompletionTokens: 7},
	}
}

// apiError fabricates an SDK error the way the transport would deliver
// it. Request and Response must be set or Error() panics.
func apiError(status int) *sdk.Error {
	return &sdk.Error{
		StatusCode: status,
		Request:    httptest.NewRequest(http.MethodPost, "https://api.openai.com/v1/chat/completions", nil),
		Response:   &http.Response{StatusCode: status},
	}
}

func TestNewValidatesOptions(t *testing.T) {
	_, err := New(Options{Model: "gpt-4o-mini"})
	require.Error(t, err, "a chat client is required")

	_, err = New(Options{Client: &fakeChat{}})
	require.Error(t, err, "a model identifier is required")

	_, err = NewFromAPIKey("", "", Options{Model: "gpt-4o-mini"})
	require.Error(t, err, "an api key is required")
}

func TestCompleteBuildsChatRequest(t *testing.T) {
	fake := &fakeChat{resp: completion("  {\"intent\":\"qna\"}  ")}
	c, err := New(Options{Client: fake, Model: "gpt-4o-mini", Temperature: 0.2})
	require.NoError(t, err)

	resp, err := c.Complete(context.Background(), llm.Request{
		System:   "You classify venue booking mail.",
		User:     "Do you have parking?",
		JSONMode: true,
	})
	require.NoError(t, err)

	assert.Equal(t, `{"intent":"qna"}`, resp.Text, "completion text is trimmed")
	assert.Equal(t, "gpt-4o-mini", resp.Model)
	assert.Equal(t, 21, resp.InputTokens)
	assert.Equal(t, 7, resp.OutputTokens)

	assert.Equal(t, 1, fake.calls, "one request per completion")
	require.Len(t, fake.got.Messages, 2)
	assert.NotNil(t, fake.got.Messages[0].OfSystem, "system prompt rides first")
	assert.NotNil(t, fake.got.Messages[1].OfUser)
	assert.Equal(t, "gpt-4o-mini", string(fake.got.Model))
	assert.Equal(t, int64(defaultMaxTokens), fake.got.MaxTokens.Value, "unset budget falls back to the default")
	assert.InDelta(t, 0.2, fake.got.Temperature.Value, 1e-9)
	assert.NotNil(t, fake.got.ResponseFormat.OfJSONObject, "JSON mode requests the json_object format")
}

func TestCompleteRequestOverridesWin(t *testing.T) {
	fake := &fakeChat{resp: completion("ok")}
	c, err := New(Options{Client: fake, Model: "gpt-4o-mini", MaxTokens: 2048, Temperature: 0.2})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), llm.Request{User: "hi", MaxTokens: 64, Temperature: 0.7})
	require.NoError(t, err)

	assert.Equal(t, int64(64), fake.got.MaxTokens.Value)
	assert.InDelta(t, 0.7, fake.got.Temperature.Value, 1e-9)
	assert.Nil(t, fake.got.ResponseFormat.OfJSONObject, "plain completions set no response format")
}

func TestCompleteAppliesTimeout(t *testing.T) {
	fake := &fakeChat{resp: completion("ok")}
	c, err := New(Options{Client: fake, Model: "gpt-4o-mini", Timeout: time.Minute})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), llm.Request{User: "hi"})
	require.NoError(t, err)

	_, ok := fake.ctx.Deadline()
	assert.True(t, ok, "the adapter deadline bounds the SDK call")
}

func TestCompleteEmptyChoices(t *testing.T) {
	fake := &fakeChat{resp: &sdk.ChatCompletion{}}
	c, err := New(Options{Client: fake, Model: "gpt-4o-mini"})
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), llm.Request{User: "hi"})
	assert.ErrorIs(t, err, llm.ErrEmptyCompletion)
}

func TestCompleteClassifiesFailures(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"rate limit", apiError(http.StatusTooManyRequests), llm.ErrRateLimited},
		{"bad key", apiError(http.StatusUnauthorized), llm.ErrAuthFailed},
		{"billing hold", apiError(http.StatusPaymentRequired), llm.ErrAuthFailed},
		{"backend down", apiError(http.StatusBadGateway), llm.ErrUnavailable},
		{"transport failure", errors.New("connection reset"), llm.ErrUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fake := &fakeChat{err: tc.err}
			c, err := New(Options{Client: fake, Model: "gpt-4o-mini"})
			require.NoError(t, err)

			_, err = c.Complete(context.Background(), llm.Request{User: "hi"})
			assert.ErrorIs(t, err, tc.want)
		})
	}

	t.Run("request bug stays verbatim", func(t *testing.T) {
		fake := &fakeChat{err: apiError(http.StatusBadRequest)}
		c, err := New(Options{Client: fake, Model: "gpt-4o-mini"})
		require.NoError(t, err)

		_, err = c.Complete(context.Background(), llm.Request{User: "hi"})
		require.Error(t, err)
		assert.NotErrorIs(t, err, llm.ErrUnavailable, "a 4xx request bug must not read as transient")
		assert.NotErrorIs(t, err, llm.ErrRateLimited)
		assert.NotErrorIs(t, err, llm.ErrAuthFailed)
	})
}
