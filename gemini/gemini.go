// Package gemini provides a Gemini-backed judge model client.
package gemini

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"google.golang.org/genai"

	"github.com/takaswie/flexeval/api"
	"github.com/takaswie/flexeval/config"
	"github.com/takaswie/flexeval/registry"
)

const defaultMaxTries = 3

// Client wraps a genai.Client as an api.LanguageModel.
type Client struct {
	client   *genai.Client
	model    string
	maxTries uint
}

// Option configures Client creation.
type Option func(*Client)

// WithMaxTries caps the total number of call attempts per Chat invocation.
func WithMaxTries(n uint) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxTries = n
		}
	}
}

// New creates a Gemini client.
// client: genai.Client from google.golang.org/genai
// model: the model to use (e.g., "gemini-2.5-flash")
func New(client *genai.Client, model string, opts ...Option) *Client {
	c := &Client{
		client:   client,
		model:    model,
		maxTries: defaultMaxTries,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Chat implements api.LanguageModel. Transient failures are retried with
// exponential backoff; exhaustion surfaces api.ErrModelCall.
func (c *Client) Chat(ctx context.Context, system, prompt string) (string, error) {
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}
	cfg := &genai.GenerateContentConfig{}
	if system != "" {
		cfg.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: system}},
		}
	}

	attempt := func() (string, error) {
		resp, err := c.client.Models.GenerateContent(ctx, c.model, contents, cfg)
		if err != nil {
			return "", err
		}
		if len(resp.Candidates) == 0 {
			return "", backoff.Permanent(fmt.Errorf("no candidates returned"))
		}
		if resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
			return "", backoff.Permanent(fmt.Errorf("no parts in response"))
		}
		return resp.Candidates[0].Content.Parts[0].Text, nil
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

// Options are the recognized init_args of the Gemini component.
type Options struct {
	Model    string `config:"model"`
	APIKey   string `config:"api_key"`
	Project  string `config:"project"`
	Location string `config:"location"`
	MaxTries int    `config:"max_tries"`
}

// Register adds the Gemini backend to a registry. The underlying genai
// client falls back to ambient credentials when api_key/project are not
// present in the config.
func Register(r *registry.Registry) error {
	return r.Register("GeminiChatAPI", registry.KindLanguageModel, func(args map[string]any) (any, error) {
		var opts Options
		if err := config.DecodeArgs(args, &opts); err != nil {
			return nil, err
		}
		if opts.Model == "" {
			return nil, fmt.Errorf("%w: model is required", api.ErrInvalidArguments)
		}
		cc := &genai.ClientConfig{
			APIKey:   opts.APIKey,
			Project:  opts.Project,
			Location: opts.Location,
		}
		if opts.Project != "" {
			cc.Backend = genai.BackendVertexAI
		}
		client, err := genai.NewClient(context.Background(), cc)
		if err != nil {
			return nil, fmt.Errorf("create genai client: %w", err)
		}
		var clientOpts []Option
		if opts.MaxTries > 0 {
			clientOpts = append(clientOpts, WithMaxTries(uint(opts.MaxTries)))
		}
		return New(client, opts.Model, clientOpts...), nil
	})
}
