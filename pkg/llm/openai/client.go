// Package openai adapts the OpenAI Chat Completions API to the
// llm.Provider contract using github.com/openai/openai-go. JSON-mode
// requests use the response_format parameter so detection output parses
// without fence stripping.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/llm"
)

// ChatClient captures the subset of the OpenAI SDK client used by the
// adapter. It is satisfied by *sdk.ChatCompletionService so callers can
// pass either a real client or a mock in tests.
type ChatClient interface {
	New(ctx context.Context, body sdk.ChatCompletionNewParams, opts ...option.RequestOption) (*sdk.ChatCompletion, error)
}

// Options configures the adapter.
type Options struct {
	// Client is the chat completions client to call. Required by New.
	Client ChatClient

	// Model is the chat model identifier. Required.
	Model string

	// MaxTokens caps the completion when a request does not set its own.
	MaxTokens int

	// Temperature is used when a request does not specify one.
	Temperature float64

	// Timeout bounds each call; exceeding it reads as unavailability so
	// the router can fall back. Zero means no adapter-level deadline.
	Timeout time.Duration
}

const defaultMaxTokens = 1024

// Client implements llm.Provider on top of OpenAI Chat Completions.
type Client struct {
	chat    ChatClient
	model   string
	maxTok  int
	temp    float64
	timeout time.Duration
}

// New builds an OpenAI-backed provider from a chat client and
// configuration options.
func New(opts Options) (*Client, error) {
	if opts.Client == nil {
		return nil, errors.New("openai: chat client is required")
	}
	if opts.Model == "" {
		return nil, errors.New("openai: model identifier is required")
	}
	maxTok := opts.MaxTokens
	if maxTok <= 0 {
		maxTok = defaultMaxTokens
	}
	return &Client{
		chat:    opts.Client,
		model:   opts.Model,
		maxTok:  maxTok,
		temp:    opts.Temperature,
		timeout: opts.Timeout,
	}, nil
}

// NewFromAPIKey constructs a provider using the default OpenAI HTTP
// client. BaseURL overrides the API endpoint when non-empty.
func NewFromAPIKey(apiKey, baseURL string, opts Options) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("openai: api key is required")
	}
	ropts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		ropts = append(ropts, option.WithBaseURL(baseURL))
	}
	oc := sdk.NewClient(ropts...)
	opts.Client = &oc.Chat.Completions
	return New(opts)
}

// Name implements llm.Provider.
func (c *Client) Name() string { return "openai" }

// Complete issues a chat completion request and returns the first choice.
func (c *Client) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	messages := make([]sdk.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, sdk.SystemMessage(req.System))
	}
	messages = append(messages, sdk.UserMessage(req.User))

	maxTok := req.MaxTokens
	if maxTok <= 0 {
		maxTok = c.maxTok
	}
	params := sdk.ChatCompletionNewParams{
		Model:     shared.ChatModel(c.model),
		Messages:  messages,
		MaxTokens: sdk.Int(int64(maxTok)),
	}
	if t := effectiveTemperature(req.Temperature, c.temp); t > 0 {
		params.Temperature = sdk.Float(t)
	}
	if req.JSONMode {
		params.ResponseFormat = sdk.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	completion, err := c.chat.New(ctx, params)
	if err != nil {
		return llm.Response{}, classify(err)
	}
	if completion == nil || len(completion.Choices) == 0 {
		return llm.Response{}, llm.ErrEmptyCompletion
	}

	return llm.Response{
		Text:         strings.TrimSpace(completion.Choices[0].Message.Content),
		Model:        completion.Model,
		InputTokens:  int(completion.Usage.PromptTokens),
		OutputTokens: int(completion.Usage.CompletionTokens),
	}, nil
}

func effectiveTemperature(requested, configured float64) float64 {
	if requested > 0 {
		return requested
	}
	return configured
}

// classify maps SDK and transport failures onto the router's sentinel
// errors. 4xx request bugs surface verbatim; everything transient reads
// as unavailability.
func classify(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %v", llm.ErrRateLimited, err)
		case apiErr.StatusCode == http.StatusUnauthorized,
			apiErr.StatusCode == http.StatusForbidden,
			apiErr.StatusCode == http.StatusPaymentRequired:
			return fmt.Errorf("%w: %v", llm.ErrAuthFailed, err)
		case apiErr.StatusCode >= 500:
			return fmt.Errorf("%w: %v", llm.ErrUnavailable, err)
		default:
			return fmt.Errorf("openai chat.completions.new: %w", err)
		}
	}
	return fmt.Errorf("%w: %v", llm.ErrUnavailable, err)
}
