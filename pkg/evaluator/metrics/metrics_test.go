package metrics

import (
	"context"
	"errors"
	"testing"

	"github.com/mixseek/mixseek-core/pkg/evaluator"
	"github.com/mixseek/mixseek-core/pkg/model"
)

func TestListReturnsBuiltInsSorted(t *testing.T) {
	got := List()
	want := []string{"ClarityCoherence", "Coverage", "LLMPlain", "Relevance"}
	if len(got) != len(want) {
		t.Fatalf("List() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestParseJudgeScoreExtractsAndClamps(t *testing.T) {
	cases := []struct {
		text string
		want float64
		ok   bool
	}{
		{"great work [[85]]", 85, true},
		{"so-so [[72.5]]", 72.5, true},
		{"over the top [[150]]", 100, true},
		{"negative somehow [[-10]]", 0, true},
		{"no rating here", 0, false},
	}
	for _, tc := range cases {
		score, ok := parseJudgeScore(tc.text)
		if ok != tc.ok {
			t.Errorf("parseJudgeScore(%q) ok = %v, want %v", tc.text, ok, tc.ok)
			continue
		}
		if ok && score != tc.want {
			t.Errorf("parseJudgeScore(%q) = %v, want %v", tc.text, score, tc.want)
		}
	}
}

func TestCoverageMetricEmptyQueryIsFullCoverage(t *testing.T) {
	m := coverageMetric{}
	res, err := m.Evaluate(context.Background(), evaluator.MetricRequest{UserQuery: "   ", Submission: "anything"})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if res.Score != 100 {
		t.Errorf("Score = %v, want 100 for an empty query", res.Score)
	}
}

func TestCoverageMetricPartialOverlap(t *testing.T) {
	m := coverageMetric{}
	res, err := m.Evaluate(context.Background(), evaluator.MetricRequest{
		UserQuery:  "what is the capital of france",
		Submission: "the capital is paris",
	})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if res.Score <= 0 || res.Score >= 100 {
		t.Errorf("Score = %v, want a partial (0,100) score for partial term overlap", res.Score)
	}
}

func TestCoverageMetricFullOverlap(t *testing.T) {
	m := coverageMetric{}
	res, err := m.Evaluate(context.Background(), evaluator.MetricRequest{
		UserQuery:  "paris france",
		Submission: "paris is the capital of france",
	})
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if res.Score != 100 {
		t.Errorf("Score = %v, want 100 when every query term appears in the submission", res.Score)
	}
}

func TestResolveBuiltInRequiresClientForLLMJudge(t *testing.T) {
	_, err := Resolve("ClarityCoherence", "", nil, nil)
	if err == nil {
		t.Fatal("expected an error constructing an LLM-judge metric with a nil client")
	}
	if !errors.Is(err, model.ErrConfiguration) {
		t.Errorf("error = %v, want wrapping model.ErrConfiguration", err)
	}
}

func TestResolveCoverageNeedsNoClient(t *testing.T) {
	metric, err := Resolve("Coverage", "", nil, nil)
	if err != nil {
		t.Fatalf("Resolve(Coverage) returned error: %v", err)
	}
	if metric.Name() != "Coverage" {
		t.Errorf("Name() = %q, want Coverage", metric.Name())
	}
	if metric.Kind() != evaluator.KindStatistical {
		t.Errorf("Kind() = %q, want statistical", metric.Kind())
	}
}

func TestResolveUnknownNameNoPluginPathErrors(t *testing.T) {
	_, err := Resolve("DoesNotExist", "", nil, nil)
	if err == nil {
		t.Fatal("expected an error for an unregistered metric name with no plugin path fallback")
	}
}

func TestResolveUnknownNameBadPluginPathErrors(t *testing.T) {
	_, err := Resolve("DoesNotExist", "/no/such/plugin.so", nil, nil)
	if err == nil {
		t.Fatal("expected an error when the plugin path fallback cannot be opened")
	}
}
