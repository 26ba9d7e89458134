// Package evaluator implements the Evaluator (C3): sequential scoring of
// one submission across configured metrics, producing a weighted overall
// score.
package evaluator

import "context"

// MetricKind distinguishes LLM-judge metrics (which consume an LLM client)
// from statistical metrics (computed directly from text).
type MetricKind string

const (
	KindLLMJudge    MetricKind = "llm_judge"
	KindStatistical MetricKind = "statistical"
)

// MetricRequest is the input to one metric's Evaluate call.
type MetricRequest struct {
	UserQuery  string
	Submission string
	Params     MetricParams
}

// MetricParams carries the per-metric LLM call parameters, resolved by the
// Evaluator's fallback chain (per-metric override ≻ default) before being
// handed to an LLM-judge metric.
type MetricParams struct {
	Model             string
	Temperature       *float64
	MaxTokens         *int
	TopP              *float64
	Seed              *int
	StopSequences     []string
	TimeoutSeconds    *int
	MaxRetries        *int
	SystemInstruction string
}

// MetricResult is one metric's scored output.
type MetricResult struct {
	Score   float64
	Comment string
}

// Metric is one scoring axis. ClarityCoherence, Coverage, Relevance, and
// LLMPlain are the built-in implementations; custom metrics satisfy the
// same interface and are loaded dynamically (see metrics.Resolve).
type Metric interface {
	Name() string
	Kind() MetricKind
	Evaluate(ctx context.Context, req MetricRequest) (MetricResult, error)
}
