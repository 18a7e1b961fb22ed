package api

import "context"

// Message is a single chat turn in the OpenAI chat-completions shape.
type Message struct {
	Role    string `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// ChatInstance is one conversation unit submitted for judging.
//
// Messages must be non-empty. The response under test is either LMOutput,
// when set, or Messages[1] for a pre-recorded continuation; exactly one of
// the two applies per evaluation call.
type ChatInstance struct {
	// Messages is the conversation so far, typically starting with the
	// user turn being responded to.
	Messages []Message
	// References are reference responses the judged output may be
	// compared against. May be empty.
	References []string
	// LMOutput is the model output under test when it is supplied
	// separately from Messages.
	LMOutput string
	// ExtraInfo carries additional fields exposed to the prompt template,
	// e.g. a category label used for summary breakdowns.
	ExtraInfo map[string]any
}

// ScoreRange is the inclusive range a parsed rating must fall in.
type ScoreRange struct {
	Min int
	Max int
}

// Contains reports whether score lies within the range, inclusive.
func (r ScoreRange) Contains(score int) bool {
	return score >= r.Min && score <= r.Max
}

// ScoreResult is the outcome of one metric invocation.
//
// Score is nil when no valid rating could be extracted from the judge
// output. The raw output is always preserved so callers can inspect
// failures; a nil score is a data-quality signal, not a process error.
type ScoreResult struct {
	// Score is the parsed rating, or nil when extraction or range
	// validation failed.
	Score *int
	// Explanation is the judge's free text with the rating marker and
	// trailing content removed.
	Explanation string
	// RawOutput is the unmodified judge output.
	RawOutput string
	// Prompt is the rendered evaluator input that produced RawOutput.
	Prompt string
}

// LanguageModel generates chat responses from a judge model.
// Implementations own transport, authentication and retry policy; after
// retries are exhausted they fail with an error wrapping ErrModelCall.
type LanguageModel interface {
	// Chat sends the prompt as a user message, preceded by the system
	// message when non-empty, and returns the model's text response.
	Chat(ctx context.Context, system, prompt string) (string, error)
}

// PromptTemplate renders evaluator prompts from a structured context.
type PromptTemplate interface {
	// Render evaluates the template against the context. It fails when
	// the template references a path missing from the context.
	Render(context map[string]any) (string, error)
}

// Metric scores a single chat instance.
type Metric interface {
	// Evaluate judges one instance. Extraction failures are reported via
	// a nil ScoreResult.Score; only render and model failures return an
	// error.
	Evaluate(ctx context.Context, instance ChatInstance) (ScoreResult, error)
}
