package llmjudge

import (
	"fmt"

	"github.com/takaswie/flexeval/api"
	"github.com/takaswie/flexeval/config"
	"github.com/takaswie/flexeval/registry"
)

// chatScoreArgs enumerates the recognized init_args of the ChatLLMScore
// component. Nested specs arrive already resolved.
type chatScoreArgs struct {
	LanguageModel   api.LanguageModel  `config:"language_model"`
	PromptTemplate  api.PromptTemplate `config:"prompt_template"`
	ValidScoreRange []int              `config:"valid_score_range"`
	SystemMessage   string             `config:"system_message"`
}

type llmScoreArgs struct {
	LanguageModel   api.LanguageModel  `config:"language_model"`
	PromptTemplate  api.PromptTemplate `config:"prompt_template"`
	ValidScoreRange []int              `config:"valid_score_range"`
}

// Register adds the judge metrics to a registry under the class names the
// config schema uses.
func Register(r *registry.Registry) error {
	if err := r.Register("ChatLLMScore", registry.KindMetric, newChatScore); err != nil {
		return err
	}
	return r.Register("LLMScore", registry.KindMetric, newLLMScore)
}

func newChatScore(args map[string]any) (any, error) {
	var a chatScoreArgs
	if err := config.DecodeArgs(args, &a); err != nil {
		return nil, err
	}
	scoreRange, err := scoreRangeFromPair(a.ValidScoreRange)
	if err != nil {
		return nil, err
	}
	if a.LanguageModel == nil {
		return nil, fmt.Errorf("%w: language_model is required", api.ErrInvalidArguments)
	}
	if a.PromptTemplate == nil {
		return nil, fmt.Errorf("%w: prompt_template is required", api.ErrInvalidArguments)
	}
	return ChatScore(ChatScoreOptions{
		LanguageModel:   a.LanguageModel,
		PromptTemplate:  a.PromptTemplate,
		ValidScoreRange: scoreRange,
		SystemMessage:   a.SystemMessage,
	}), nil
}

func newLLMScore(args map[string]any) (any, error) {
	var a llmScoreArgs
	if err := config.DecodeArgs(args, &a); err != nil {
		return nil, err
	}
	scoreRange, err := scoreRangeFromPair(a.ValidScoreRange)
	if err != nil {
		return nil, err
	}
	if a.LanguageModel == nil {
		return nil, fmt.Errorf("%w: language_model is required", api.ErrInvalidArguments)
	}
	if a.PromptTemplate == nil {
		return nil, fmt.Errorf("%w: prompt_template is required", api.ErrInvalidArguments)
	}
	return LLMScore(LLMScoreOptions{
		LanguageModel:   a.LanguageModel,
		PromptTemplate:  a.PromptTemplate,
		ValidScoreRange: scoreRange,
	}), nil
}

// scoreRangeFromPair validates the two-element inclusive bounds form of
// valid_score_range. An absent range accepts any integer.
func scoreRangeFromPair(pair []int) (*api.ScoreRange, error) {
	if len(pair) == 0 {
		return nil, nil
	}
	if len(pair) != 2 {
		return nil, fmt.Errorf("%w: valid_score_range must have exactly two elements, got %d", api.ErrInvalidArguments, len(pair))
	}
	if pair[0] > pair[1] {
		return nil, fmt.Errorf("%w: valid_score_range min %d exceeds max %d", api.ErrInvalidArguments, pair[0], pair[1])
	}
	return &api.ScoreRange{Min: pair[0], Max: pair[1]}, nil
}
