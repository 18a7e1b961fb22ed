// Package flexeval wires declarative judge-metric configurations into live
// component graphs.
//
// A configuration is a nested class_path/init_args document naming a
// metric, its judge model backend, its prompt template and its score
// bounds. NewMetricFromYAML resolves such a document against the default
// registry and returns a ready-to-use Metric.
package flexeval

import (
	"fmt"
	"sync"

	"github.com/takaswie/flexeval/api"
	"github.com/takaswie/flexeval/config"
	"github.com/takaswie/flexeval/gemini"
	"github.com/takaswie/flexeval/heuristic"
	"github.com/takaswie/flexeval/llmjudge"
	"github.com/takaswie/flexeval/openai"
	"github.com/takaswie/flexeval/registry"
	"github.com/takaswie/flexeval/template"
)

type Message = api.Message
type ChatInstance = api.ChatInstance
type ScoreRange = api.ScoreRange
type ScoreResult = api.ScoreResult
type LanguageModel = api.LanguageModel
type PromptTemplate = api.PromptTemplate
type Metric = api.Metric

var (
	ErrUnknownType      = api.ErrUnknownType
	ErrInvalidArguments = api.ErrInvalidArguments
	ErrModelCall        = api.ErrModelCall
)

var (
	defaultRegistryOnce sync.Once
	defaultRegistry     *registry.Registry
)

// DefaultRegistry returns the shared registry carrying the built-in
// components. Callers may register additional variants before resolving
// configurations; the table must not be mutated once evaluation starts.
func DefaultRegistry() *registry.Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = registry.New()
		registerBuiltins(defaultRegistry)
	})
	return defaultRegistry
}

func registerBuiltins(r *registry.Registry) {
	for _, register := range []func(*registry.Registry) error{
		template.Register,
		llmjudge.Register,
		heuristic.Register,
		gemini.Register,
		openai.Register,
	} {
		if err := register(r); err != nil {
			panic(err)
		}
	}
}

// NewMetricFromYAML resolves a YAML metric configuration against the
// default registry. Misconfiguration fails here, before any evaluation
// runs.
func NewMetricFromYAML(data []byte) (Metric, error) {
	spec, err := config.ParseYAML(data)
	if err != nil {
		return nil, err
	}
	return NewMetric(spec, DefaultRegistry())
}

// NewMetricFromJSON resolves a JSON metric configuration against the
// default registry.
func NewMetricFromJSON(data []byte) (Metric, error) {
	spec, err := config.ParseJSON(data)
	if err != nil {
		return nil, err
	}
	return NewMetric(spec, DefaultRegistry())
}

// NewMetric resolves an already-parsed spec against the given registry and
// checks that it built a metric.
func NewMetric(spec *config.Spec, r *registry.Registry) (Metric, error) {
	instance, err := config.NewResolver(r).Resolve(spec)
	if err != nil {
		return nil, err
	}
	metric, ok := instance.(api.Metric)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a metric", api.ErrInvalidArguments, spec.ClassPath)
	}
	return metric, nil
}
