package evaluator

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/mixseek/mixseek-core/pkg/model"
)

// MetricConfig names one configured metric, its weight, and optional
// per-metric overrides (model, plugin path for dynamic loading).
type MetricConfig struct {
	Name       string
	Weight     *float64 // nil → equal weighting across all configured metrics
	Params     MetricParams
	PluginPath string // filesystem fallback for a custom (not built-in) metric name
}

// Config is the Evaluator's resolved configuration: the metrics to run, in
// declared order, and the default LLM parameters metrics fall back to.
type Config struct {
	Metrics       []MetricConfig
	DefaultParams MetricParams
}

// Resolver builds (or dynamically loads) a Metric instance for one
// MetricConfig; pkg/evaluator/metrics.Resolve satisfies this, kept as an
// interface here so Evaluator has no import-time dependency on the
// plugin-loading package.
type Resolver func(cfg MetricConfig) (Metric, error)

// Request is one call to Evaluate.
type Request struct {
	UserQuery string
	Submission string
	TeamID    string
	Override  *Config // per-request configuration override, if any
}

// Evaluator runs configured scoring metrics sequentially against one
// submission (spec.md §4.3). Evaluations are sequential by design, not an
// optimization target.
type Evaluator struct {
	defaultConfig Config
	resolve       Resolver
}

// New constructs an Evaluator with its default configuration and a metric
// resolver.
func New(defaultConfig Config, resolve Resolver) *Evaluator {
	return &Evaluator{defaultConfig: defaultConfig, resolve: resolve}
}

// Evaluate scores one submission. The request override, if present,
// replaces the Evaluator's default configuration wholesale for this call.
func (e *Evaluator) Evaluate(ctx context.Context, req Request) (model.EvaluationResult, error) {
	if strings.TrimSpace(req.UserQuery) == "" {
		return model.EvaluationResult{}, fmt.Errorf("%w: user_query must not be empty or whitespace", model.ErrTaskValidation)
	}
	if strings.TrimSpace(req.Submission) == "" {
		return model.EvaluationResult{}, fmt.Errorf("%w: submission must not be empty or whitespace", model.ErrTaskValidation)
	}

	cfg := e.defaultConfig
	if req.Override != nil {
		cfg = *req.Override
	}
	if len(cfg.Metrics) == 0 {
		return model.EvaluationResult{}, fmt.Errorf("%w: evaluator configuration has no metrics", model.ErrConfiguration)
	}

	weights := resolveWeights(cfg.Metrics)

	results := make([]model.MetricScore, 0, len(cfg.Metrics))
	var overall float64
	for _, mc := range cfg.Metrics {
		metric, err := e.resolve(mc)
		if err != nil {
			return model.EvaluationResult{}, fmt.Errorf("%w: metric %s: %v", model.ErrEvaluator, mc.Name, err)
		}

		params := mc.Params
		params = fallbackParams(params, cfg.DefaultParams)

		res, err := metric.Evaluate(ctx, MetricRequest{
			UserQuery:  req.UserQuery,
			Submission: req.Submission,
			Params:     params,
		})
		if err != nil {
			return model.EvaluationResult{}, fmt.Errorf("%w: metric %s: %v", model.ErrEvaluator, mc.Name, err)
		}

		weight, ok := weights[mc.Name]
		if !ok {
			return model.EvaluationResult{}, fmt.Errorf("%w: metric %s has no configured weight", model.ErrEvaluator, mc.Name)
		}

		results = append(results, model.MetricScore{
			MetricName: mc.Name,
			Score:      res.Score,
			Comment:    res.Comment,
		})
		overall += res.Score * weight
	}

	return model.EvaluationResult{
		Metrics:      results,
		OverallScore: math.Round(overall*100) / 100,
	}, nil
}

// resolveWeights applies the "equal weights if all are nil" rule from
// spec.md §3's invariant on metric weight sums.
func resolveWeights(metrics []MetricConfig) map[string]float64 {
	allNil := true
	for _, m := range metrics {
		if m.Weight != nil {
			allNil = false
			break
		}
	}
	weights := make(map[string]float64, len(metrics))
	if allNil {
		equal := 1.0 / float64(len(metrics))
		for _, m := range metrics {
			weights[m.Name] = equal
		}
		return weights
	}
	for _, m := range metrics {
		if m.Weight != nil {
			weights[m.Name] = *m.Weight
		} else {
			weights[m.Name] = 0
		}
	}
	return weights
}

func fallbackParams(p, defaults MetricParams) MetricParams {
	if p.Model == "" {
		p.Model = defaults.Model
	}
	if p.Temperature == nil {
		p.Temperature = defaults.Temperature
	}
	if p.MaxTokens == nil {
		p.MaxTokens = defaults.MaxTokens
	}
	if p.TopP == nil {
		p.TopP = defaults.TopP
	}
	if p.Seed == nil {
		p.Seed = defaults.Seed
	}
	if len(p.StopSequences) == 0 {
		p.StopSequences = defaults.StopSequences
	}
	if p.TimeoutSeconds == nil {
		p.TimeoutSeconds = defaults.TimeoutSeconds
	}
	if p.MaxRetries == nil {
		p.MaxRetries = defaults.MaxRetries
	}
	if p.SystemInstruction == "" {
		p.SystemInstruction = defaults.SystemInstruction
	}
	return p
}
