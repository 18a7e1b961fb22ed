// Package heuristic contains metrics that score outputs without a judge
// model.
package heuristic

import (
	"context"
	"strings"

	"github.com/takaswie/flexeval/api"
	"github.com/takaswie/flexeval/config"
	"github.com/takaswie/flexeval/registry"
)

// SubstringMatchOptions configures the SubstringMatch metric.
type SubstringMatchOptions struct {
	// CaseInsensitive determines if the comparison should ignore case.
	CaseInsensitive bool
}

// SubstringMatch returns a metric that scores 1 when the output under test
// contains any of the instance's references, 0 otherwise. Instances with no
// references are unscored.
func SubstringMatch(opts SubstringMatchOptions) api.Metric {
	return &substringMatchMetric{opts: opts}
}

type substringMatchMetric struct {
	opts SubstringMatchOptions
}

func (m *substringMatchMetric) Evaluate(_ context.Context, instance api.ChatInstance) (api.ScoreResult, error) {
	output := instance.LMOutput
	if output == "" && len(instance.Messages) > 1 {
		output = instance.Messages[1].Content
	}
	if len(instance.References) == 0 {
		return api.ScoreResult{RawOutput: output}, nil
	}

	haystack := output
	if m.opts.CaseInsensitive {
		haystack = strings.ToLower(haystack)
	}
	score := 0
	for _, ref := range instance.References {
		if m.opts.CaseInsensitive {
			ref = strings.ToLower(ref)
		}
		if strings.Contains(haystack, ref) {
			score = 1
			break
		}
	}
	return api.ScoreResult{Score: &score, RawOutput: output}, nil
}

// Options are the recognized init_args of the SubstringMatch component.
type Options struct {
	CaseInsensitive bool `config:"case_insensitive"`
}

// Register adds the heuristic metrics to a registry.
func Register(r *registry.Registry) error {
	return r.Register("SubstringMatch", registry.KindMetric, func(args map[string]any) (any, error) {
		var opts Options
		if err := config.DecodeArgs(args, &opts); err != nil {
			return nil, err
		}
		return SubstringMatch(SubstringMatchOptions{CaseInsensitive: opts.CaseInsensitive}), nil
	})
}
