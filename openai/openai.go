// Package openai provides an OpenAI-compatible judge model client.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/takaswie/flexeval/api"
	"github.com/takaswie/flexeval/config"
	"github.com/takaswie/flexeval/registry"
)

const defaultMaxTries = 3

// Client wraps the OpenAI chat completions API as an api.LanguageModel.
// It also serves OpenAI-compatible endpoints via WithBaseURL.
type Client struct {
	client   openai.Client
	model    string
	maxTries uint
}

// Option configures Client creation.
type Option func(*clientConfig)

type clientConfig struct {
	requestOpts []option.RequestOption
	maxTries    uint
}

// WithAPIKey sets the API key explicitly instead of reading OPENAI_API_KEY.
func WithAPIKey(key string) Option {
	return func(c *clientConfig) {
		c.requestOpts = append(c.requestOpts, option.WithAPIKey(key))
	}
}

// WithBaseURL points the client at an OpenAI-compatible endpoint.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.requestOpts = append(c.requestOpts, option.WithBaseURL(url))
	}
}

// WithHTTPClient overrides the transport, e.g. for replayed tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *clientConfig) {
		c.requestOpts = append(c.requestOpts, option.WithHTTPClient(hc))
	}
}

// WithMaxTries caps the total number of call attempts per Chat invocation.
func WithMaxTries(n uint) Option {
	return func(c *clientConfig) {
		if n > 0 {
			c.maxTries = n
		}
	}
}

// New creates an OpenAI client for the given model (e.g. "gpt-4o-mini").
func New(model string, opts ...Option) *Client {
	cfg := &clientConfig{maxTries: defaultMaxTries}
	for _, opt := range opts {
		opt(cfg)
	}
	// The SDK retries internally as well; keep one layer of policy here so
	// behavior matches the other backends.
	cfg.requestOpts = append(cfg.requestOpts, option.WithMaxRetries(0))
	return &Client{
		client:   openai.NewClient(cfg.requestOpts...),
		model:    model,
		maxTries: cfg.maxTries,
	}
}

// Chat implements api.LanguageModel. Transient failures are retried with
// exponential backoff; exhaustion surfaces api.ErrModelCall.
func (c *Client) Chat(ctx context.Context, system, prompt string) (string, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if system != "" {
		messages = append(messages, openai.SystemMessage(system))
	}
	messages = append(messages, openai.UserMessage(prompt))

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(c.model),
		Messages: messages,
	}

	attempt := func() (string, error) {
		completion, err := c.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return "", err
		}
		if len(completion.Choices) == 0 {
			return "", backoff.Permanent(fmt.Errorf("no choices returned"))
		}
		return completion.Choices[0].Message.Content, nil
	}

	text, err := backoff.Retry(ctx, attempt,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(c.maxTries),
		backoff.WithMaxElapsedTime(2*time.Minute),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", api.ErrModelCall, err)
	}
	return text, nil
}

var _ api.LanguageModel = (*Client)(nil)

// Options are the recognized init_args of the OpenAI component.
type Options struct {
	Model    string `config:"model"`
	APIKey   string `config:"api_key"`
	BaseURL  string `config:"base_url"`
	MaxTries int    `config:"max_tries"`
}

// Register adds the OpenAI backend to a registry under the class name the
// config schema uses.
func Register(r *registry.Registry) error {
	return r.Register("OpenAIChatAPI", registry.KindLanguageModel, func(args map[string]any) (any, error) {
		var opts Options
		if err := config.DecodeArgs(args, &opts); err != nil {
			return nil, err
		}
		if opts.Model == "" {
			return nil, fmt.Errorf("%w: model is required", api.ErrInvalidArguments)
		}
		var clientOpts []Option
		if opts.APIKey != "" {
			clientOpts = append(clientOpts, WithAPIKey(opts.APIKey))
		}
		if opts.BaseURL != "" {
			clientOpts = append(clientOpts, WithBaseURL(opts.BaseURL))
		}
		if opts.MaxTries > 0 {
			clientOpts = append(clientOpts, WithMaxTries(uint(opts.MaxTries)))
		}
		return New(opts.Model, clientOpts...), nil
	})
}
