package evaluator

import (
	"context"
	"errors"
	"testing"

	"github.com/mixseek/mixseek-core/pkg/model"
)

type stubMetric struct {
	name  string
	score float64
	err   error
}

func (m stubMetric) Name() string     { return m.name }
func (m stubMetric) Kind() MetricKind { return KindStatistical }
func (m stubMetric) Evaluate(_ context.Context, _ MetricRequest) (MetricResult, error) {
	if m.err != nil {
		return MetricResult{}, m.err
	}
	return MetricResult{Score: m.score, Comment: "stub"}, nil
}

func resolverFor(metrics map[string]stubMetric) Resolver {
	return func(cfg MetricConfig) (Metric, error) {
		m, ok := metrics[cfg.Name]
		if !ok {
			return nil, errors.New("unknown metric " + cfg.Name)
		}
		return m, nil
	}
}

func weightOf(w float64) *float64 { return &w }

func TestEvaluateRejectsEmptyUserQuery(t *testing.T) {
	e := New(Config{Metrics: []MetricConfig{{Name: "a"}}}, resolverFor(map[string]stubMetric{"a": {name: "a", score: 50}}))
	_, err := e.Evaluate(context.Background(), Request{UserQuery: "  ", Submission: "answer"})
	if !errors.Is(err, model.ErrTaskValidation) {
		t.Errorf("expected ErrTaskValidation for empty user query, got %v", err)
	}
}

func TestEvaluateRejectsEmptySubmission(t *testing.T) {
	e := New(Config{Metrics: []MetricConfig{{Name: "a"}}}, resolverFor(map[string]stubMetric{"a": {name: "a", score: 50}}))
	_, err := e.Evaluate(context.Background(), Request{UserQuery: "question", Submission: ""})
	if !errors.Is(err, model.ErrTaskValidation) {
		t.Errorf("expected ErrTaskValidation for empty submission, got %v", err)
	}
}

func TestEvaluateRejectsNoMetrics(t *testing.T) {
	e := New(Config{}, resolverFor(nil))
	_, err := e.Evaluate(context.Background(), Request{UserQuery: "q", Submission: "s"})
	if !errors.Is(err, model.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for no metrics, got %v", err)
	}
}

func TestEvaluateEqualWeightingWhenAllNil(t *testing.T) {
	cfg := Config{Metrics: []MetricConfig{{Name: "a"}, {Name: "b"}}}
	e := New(cfg, resolverFor(map[string]stubMetric{
		"a": {name: "a", score: 100},
		"b": {name: "b", score: 0},
	}))
	res, err := e.Evaluate(context.Background(), Request{UserQuery: "q", Submission: "s"})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if res.OverallScore != 50 {
		t.Errorf("OverallScore = %v, want 50 (equal weighting of 100 and 0)", res.OverallScore)
	}
}

func TestEvaluateWeightedScoreNeverExceedsMax(t *testing.T) {
	cfg := Config{Metrics: []MetricConfig{
		{Name: "a", Weight: weightOf(0.7)},
		{Name: "b", Weight: weightOf(0.3)},
	}}
	e := New(cfg, resolverFor(map[string]stubMetric{
		"a": {name: "a", score: 100},
		"b": {name: "b", score: 100},
	}))
	res, err := e.Evaluate(context.Background(), Request{UserQuery: "q", Submission: "s"})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if res.OverallScore > 100 {
		t.Errorf("OverallScore = %v, must never exceed 100", res.OverallScore)
	}
	if res.OverallScore != 100 {
		t.Errorf("OverallScore = %v, want 100 when every metric scores 100 and weights sum to 1", res.OverallScore)
	}
}

func TestEvaluatePartialWeightsLeaveUnsetAtZero(t *testing.T) {
	cfg := Config{Metrics: []MetricConfig{
		{Name: "a", Weight: weightOf(0.5)},
		{Name: "b"}, // nil weight alongside a set one: gets zero, not equal share
	}}
	e := New(cfg, resolverFor(map[string]stubMetric{
		"a": {name: "a", score: 80},
		"b": {name: "b", score: 1000}, // would blow up the bound if it got any weight
	}))
	res, err := e.Evaluate(context.Background(), Request{UserQuery: "q", Submission: "s"})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if res.OverallScore != 40 {
		t.Errorf("OverallScore = %v, want 40 (0.5*80 + 0*1000)", res.OverallScore)
	}
}

func TestEvaluatePropagatesMetricError(t *testing.T) {
	cfg := Config{Metrics: []MetricConfig{{Name: "a"}}}
	e := New(cfg, resolverFor(map[string]stubMetric{"a": {name: "a", err: errors.New("judge unavailable")}}))
	_, err := e.Evaluate(context.Background(), Request{UserQuery: "q", Submission: "s"})
	if !errors.Is(err, model.ErrEvaluator) {
		t.Errorf("expected ErrEvaluator wrapping the metric failure, got %v", err)
	}
}

func TestEvaluateUnknownMetricNameErrors(t *testing.T) {
	cfg := Config{Metrics: []MetricConfig{{Name: "does-not-exist"}}}
	e := New(cfg, resolverFor(map[string]stubMetric{}))
	_, err := e.Evaluate(context.Background(), Request{UserQuery: "q", Submission: "s"})
	if !errors.Is(err, model.ErrEvaluator) {
		t.Errorf("expected ErrEvaluator for an unresolvable metric, got %v", err)
	}
}
