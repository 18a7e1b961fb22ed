// Package runner evaluates batches of chat instances against a metric.
//
// Instances are independent, so the batch fans out over a bounded worker
// pool; results stay correlated to their inputs by index. One failing
// instance never aborts the batch, and cancellation discards incomplete
// work without corrupting completed results.
package runner

import (
	"context"
	"fmt"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/takaswie/flexeval/api"
)

const defaultConcurrency = 4

// Outcome classifies a per-instance result.
type Outcome int

const (
	// OutcomeScored means a valid score was extracted.
	OutcomeScored Outcome = iota
	// OutcomeUnscored means the judge output carried no valid rating.
	OutcomeUnscored
	// OutcomeFailed means rendering or the model call failed.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeScored:
		return "scored"
	case OutcomeUnscored:
		return "unscored"
	case OutcomeFailed:
		return "failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// InstanceResult is one instance's evaluation outcome, correlated by Index.
type InstanceResult struct {
	Index   int
	Outcome Outcome
	Result  api.ScoreResult
	Err     error
}

// Summary aggregates scores across the batch.
type Summary struct {
	// MeanScore is the average over scored instances.
	MeanScore float64
	// NumScored counts instances with a valid score.
	NumScored int
	// NumFailedParses counts instances whose judge output had no valid rating.
	NumFailedParses int
	// NumFailed counts instances whose evaluation errored.
	NumFailed int
	// CategoryMeans holds per-category averages when a category key is
	// configured, keyed by the category value found in ExtraInfo.
	CategoryMeans map[string]float64
}

// BatchResult is the outcome of a batch run, ordered by instance index.
type BatchResult struct {
	Results []InstanceResult
	Summary Summary
}

// Option configures a batch run.
type Option func(*options)

type options struct {
	concurrency int
	categoryKey string
	logger      *zap.Logger
}

// WithConcurrency bounds the number of in-flight evaluations, e.g. to
// respect model-provider rate limits. Defaults to 4.
func WithConcurrency(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.concurrency = n
		}
	}
}

// WithCategoryKey enables per-category score means, looking the category up
// in each instance's ExtraInfo under the given key.
func WithCategoryKey(key string) Option {
	return func(o *options) {
		o.categoryKey = key
	}
}

// WithLogger sets the logger for per-instance failure warnings.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Run evaluates all instances and returns index-correlated results.
//
// The metric and its resolved component graph are shared read-only across
// workers. Run returns an error only for pool setup failure or context
// cancellation; per-instance failures are reported in the results.
func Run(ctx context.Context, metric api.Metric, instances []api.ChatInstance, opts ...Option) (*BatchResult, error) {
	o := &options{
		concurrency: defaultConcurrency,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}

	pool, err := ants.NewPool(o.concurrency)
	if err != nil {
		return nil, fmt.Errorf("runner: create worker pool: %w", err)
	}
	defer pool.Release()

	results := make([]InstanceResult, len(instances))
	var wg sync.WaitGroup
	for i := range instances {
		index := i
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			results[index] = evaluateOne(ctx, metric, instances[index], index, o.logger)
		}); err != nil {
			wg.Done()
			return nil, fmt.Errorf("runner: submit instance %d: %w", index, err)
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &BatchResult{
		Results: results,
		Summary: summarize(results, instances, o.categoryKey),
	}, nil
}

func evaluateOne(ctx context.Context, metric api.Metric, instance api.ChatInstance, index int, logger *zap.Logger) InstanceResult {
	if err := ctx.Err(); err != nil {
		return InstanceResult{Index: index, Outcome: OutcomeFailed, Err: err}
	}
	result, err := metric.Evaluate(ctx, instance)
	if err != nil {
		logger.Warn("instance evaluation failed",
			zap.Int("index", index),
			zap.Error(err))
		return InstanceResult{Index: index, Outcome: OutcomeFailed, Err: err}
	}
	outcome := OutcomeScored
	if result.Score == nil {
		outcome = OutcomeUnscored
	}
	return InstanceResult{Index: index, Outcome: outcome, Result: result}
}

func summarize(results []InstanceResult, instances []api.ChatInstance, categoryKey string) Summary {
	s := Summary{}
	var total int
	categoryScores := make(map[string][]int)
	for _, r := range results {
		switch r.Outcome {
		case OutcomeFailed:
			s.NumFailed++
		case OutcomeUnscored:
			s.NumFailedParses++
		case OutcomeScored:
			s.NumScored++
			total += *r.Result.Score
			if categoryKey != "" {
				if category, ok := instances[r.Index].ExtraInfo[categoryKey].(string); ok {
					categoryScores[category] = append(categoryScores[category], *r.Result.Score)
				}
			}
		}
	}
	if s.NumScored > 0 {
		s.MeanScore = float64(total) / float64(s.NumScored)
	}
	if len(categoryScores) > 0 {
		s.CategoryMeans = make(map[string]float64, len(categoryScores))
		for category, scores := range categoryScores {
			sum := 0
			for _, score := range scores {
				sum += score
			}
			s.CategoryMeans[category] = float64(sum) / float64(len(scores))
		}
	}
	return s
}
