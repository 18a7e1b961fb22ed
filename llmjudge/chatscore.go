// Package llmjudge contains metrics that let one language model judge the
// output of another. Each metric renders an evaluator prompt from the
// instance, sends it to the judge model, and extracts a numeric rating from
// the free-form response.
package llmjudge

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/takaswie/flexeval/api"
)

// ChatScoreOptions configures the ChatScore metric.
type ChatScoreOptions struct {
	// LanguageModel is the judge backend to query.
	LanguageModel api.LanguageModel
	// PromptTemplate renders the evaluator input from the instance.
	PromptTemplate api.PromptTemplate
	// ValidScoreRange are the inclusive bounds a parsed rating must
	// satisfy. Nil accepts any integer.
	ValidScoreRange *api.ScoreRange
	// SystemMessage optionally primes the judge before the rendered prompt.
	SystemMessage string
	// Logger receives parse-failure warnings. Defaults to a nop logger.
	Logger *zap.Logger
}

// ChatScore returns a metric that judges chat responses.
//
// Per evaluation it renders the prompt, makes exactly one chat call (no
// retries at this layer; retry policy belongs to the model client), parses
// the last [[n]] marker from the response and validates it against the
// configured range. The metric holds only its immutable sub-components and
// is safe for concurrent Evaluate calls.
func ChatScore(opts ChatScoreOptions) api.Metric {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &chatScoreMetric{opts: opts}
}

type chatScoreMetric struct {
	opts ChatScoreOptions
}

func (m *chatScoreMetric) Evaluate(ctx context.Context, instance api.ChatInstance) (api.ScoreResult, error) {
	if m.opts.LanguageModel == nil {
		return api.ScoreResult{}, fmt.Errorf("llmjudge: language model is required")
	}
	if m.opts.PromptTemplate == nil {
		return api.ScoreResult{}, fmt.Errorf("llmjudge: prompt template is required")
	}
	if len(instance.Messages) == 0 {
		return api.ScoreResult{}, fmt.Errorf("llmjudge: instance has no messages")
	}

	prompt, err := m.opts.PromptTemplate.Render(renderContext(instance))
	if err != nil {
		return api.ScoreResult{}, fmt.Errorf("render evaluator prompt: %w", err)
	}

	raw, err := m.opts.LanguageModel.Chat(ctx, m.opts.SystemMessage, prompt)
	if err != nil {
		return api.ScoreResult{}, fmt.Errorf("evaluator model: %w", err)
	}

	score, explanation := parseScore(raw, m.opts.ValidScoreRange)
	if score == nil {
		m.opts.Logger.Warn("failed to parse score from evaluator output",
			zap.String("output", raw))
	}
	return api.ScoreResult{
		Score:       score,
		Explanation: explanation,
		RawOutput:   raw,
		Prompt:      prompt,
	}, nil
}

// renderContext exposes the instance to the template under the names its
// expressions reference: messages, references, lm_output, plus any extra
// fields carried by the instance.
func renderContext(instance api.ChatInstance) map[string]any {
	ctx := make(map[string]any, len(instance.ExtraInfo)+3)
	for k, v := range instance.ExtraInfo {
		ctx[k] = v
	}

	messages := make([]any, len(instance.Messages))
	for i, msg := range instance.Messages {
		messages[i] = map[string]any{"role": msg.Role, "content": msg.Content}
	}
	references := make([]any, len(instance.References))
	for i, ref := range instance.References {
		references[i] = ref
	}

	lmOutput := instance.LMOutput
	if lmOutput == "" && len(instance.Messages) > 1 {
		lmOutput = instance.Messages[1].Content
	}

	ctx["messages"] = messages
	ctx["references"] = references
	ctx["lm_output"] = lmOutput
	return ctx
}
