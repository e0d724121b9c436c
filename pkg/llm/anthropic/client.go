// Package anthropic adapts the Anthropic Claude Messages API to the
// llm.Provider contract. It translates requests into anthropic.Message
// calls using github.com/anthropics/anthropic-sdk-go and classifies SDK
// failures into the router's sentinel errors.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/shami-ah/OpenEvent-AI-sub002/pkg/llm"
)

// MessagesClient captures the subset of the Anthropic SDK client used by
// the adapter. It is satisfied by *sdk.MessageService so callers can pass
// either a real client or a mock in tests.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Options configures the adapter.
type Options struct {
	// Client is the Messages client to call. Required by New.
	Client MessagesClient

	// Model is the Claude model identifier. Required.
	Model string

	// MaxTokens caps the completion when a request does not set its own.
	MaxTokens int

	// Temperature is used when a request does not specify one.
	Temperature float64

	// Timeout bounds each call; exceeding it reads as unavailability so
	// the router can fall back. Zero means no adapter-level deadline.
	Timeout time.Duration
}

// defaultMaxTokens bounds completions when neither the request nor the
// options set a budget.
const defaultMaxTokens = 1024

// Client implements llm.Provider on top of Anthropic Claude Messages.
type Client struct {
	msg     MessagesClient
	model   string
	maxTok  int
	temp    float64
	timeout time.Duration
}

// New builds an Anthropic-backed provider from a Messages client and
// configuration options.
func New(opts Options) (*Client, error) {
	if opts.Client == nil {
		return nil, errors.New("anthropic: messages client is required")
	}
	if opts.Model == "" {
		return nil, errors.New("anthropic: model identifier is required")
	}
	maxTok := opts.MaxTokens
	if maxTok <= 0 {
		maxTok = defaultMaxTokens
	}
	return &Client{
		msg:     opts.Client,
		model:   opts.Model,
		maxTok:  maxTok,
		temp:    opts.Temperature,
		timeout: opts.Timeout,
	}, nil
}

// NewFromAPIKey constructs a provider using the default Anthropic HTTP
// client. BaseURL overrides the API endpoint when non-empty.
func NewFromAPIKey(apiKey, baseURL string, opts Options) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("anthropic: api key is required")
	}
	ropts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		ropts = append(ropts, option.WithBaseURL(baseURL))
	}
	ac := sdk.NewClient(ropts...)
	opts.Client = &ac.Messages
	return New(opts)
}

// Name implements llm.Provider.
func (c *Client) Name() string { return "anthropic" }

// Complete issues a non-streaming Messages.New request. Anthropic has no
// JSON response mode; requests that need JSON carry the format demand in
// their system instructions and the caller extracts the object.
func (c *Client) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	maxTok := req.MaxTokens
	if maxTok <= 0 {
		maxTok = c.maxTok
	}
	params := sdk.MessageNewParams{
		MaxTokens: int64(maxTok),
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(req.User))},
		Model:     sdk.Model(c.model),
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}
	if t := effectiveTemperature(req.Temperature, c.temp); t > 0 {
		params.Temperature = sdk.Float(t)
	}

	msg, err := c.msg.New(ctx, params)
	if err != nil {
		return llm.Response{}, classify(err)
	}
	if msg == nil {
		return llm.Response{}, llm.ErrEmptyCompletion
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	return llm.Response{
		Text:         strings.TrimSpace(sb.String()),
		Model:        string(msg.Model),
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
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
			return fmt.Errorf("anthropic messages.new: %w", err)
		}
	}
	return fmt.Errorf("%w: %v", llm.ErrUnavailable, err)
}
