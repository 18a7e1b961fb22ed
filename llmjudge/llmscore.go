package llmjudge

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/takaswie/flexeval/api"
)

// LLMScoreOptions configures the LLMScore metric.
type LLMScoreOptions struct {
	// LanguageModel is the judge backend to query.
	LanguageModel api.LanguageModel
	// PromptTemplate renders the evaluator input from the instance.
	PromptTemplate api.PromptTemplate
	// ValidScoreRange are the inclusive bounds a parsed rating must
	// satisfy. Nil accepts any integer.
	ValidScoreRange *api.ScoreRange
	// Logger receives parse-failure warnings. Defaults to a nop logger.
	Logger *zap.Logger
}

// LLMScore is the completion-mode variant of ChatScore: the rendered prompt
// is sent as-is without a system message, for judging plain text outputs
// rather than chat continuations.
func LLMScore(opts LLMScoreOptions) api.Metric {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &llmScoreMetric{opts: opts}
}

type llmScoreMetric struct {
	opts LLMScoreOptions
}

func (m *llmScoreMetric) Evaluate(ctx context.Context, instance api.ChatInstance) (api.ScoreResult, error) {
	if m.opts.LanguageModel == nil {
		return api.ScoreResult{}, fmt.Errorf("llmjudge: language model is required")
	}
	if m.opts.PromptTemplate == nil {
		return api.ScoreResult{}, fmt.Errorf("llmjudge: prompt template is required")
	}

	prompt, err := m.opts.PromptTemplate.Render(renderContext(instance))
	if err != nil {
		return api.ScoreResult{}, fmt.Errorf("render evaluator prompt: %w", err)
	}

	raw, err := m.opts.LanguageModel.Chat(ctx, "", prompt)
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
