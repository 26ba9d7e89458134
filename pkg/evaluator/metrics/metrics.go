// Package metrics holds the Evaluator's built-in metric implementations
// (ClarityCoherence, Coverage, Relevance, LLMPlain) and the registry +
// dynamic loader for custom metrics, mirroring the shape of the teacher's
// pkg/registry-backed detector/generator packages.
package metrics

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/mixseek/mixseek-core/pkg/evaluator"
	"github.com/mixseek/mixseek-core/pkg/llm"
	"github.com/mixseek/mixseek-core/pkg/model"
	"github.com/mixseek/mixseek-core/pkg/promptbuilder"
	"github.com/mixseek/mixseek-core/pkg/registry"
)

// Factory builds one Metric instance, given the shared LLM client (may be
// nil for statistical metrics) and prompt builder.
type Factory func(client llm.Client, builder *promptbuilder.Builder) (evaluator.Metric, error)

// Registry is the compile-time metric registry: the Go analogue of
// spec.md §4.3's "static map of built-in metric class names". It also
// backs the first tier of dynamic custom-metric lookup (see custom.go).
var Registry = registry.New[Factory]("metrics")

func init() {
	Registry.Register("ClarityCoherence", registry.FromMapNoConfig(func(registry.NoConfig) (Factory, error) {
		return newClarityCoherence, nil
	}))
	Registry.Register("Coverage", registry.FromMapNoConfig(func(registry.NoConfig) (Factory, error) {
		return newCoverage, nil
	}))
	Registry.Register("Relevance", registry.FromMapNoConfig(func(registry.NoConfig) (Factory, error) {
		return newRelevance, nil
	}))
	Registry.Register("LLMPlain", registry.FromMapNoConfig(func(registry.NoConfig) (Factory, error) {
		return newLLMPlain, nil
	}))
}

// List returns the built-in metric class names, sorted.
func List() []string {
	names := Registry.List()
	sort.Strings(names)
	return names
}

var ratingPattern = regexp.MustCompile(`\[\[(\d+(?:\.\d+)?)\]\]`)

// llmJudgeMetric is the shared implementation behind ClarityCoherence,
// Relevance, and LLMPlain: build a judge prompt, call the LLM, parse a
// `[[score]]` rating out of the reply. Grounded on the teacher's
// internal/detectors/judge.Judge.judgeOutput/parseJudgeScore pattern.
type llmJudgeMetric struct {
	name              string
	client            llm.Client
	builder           *promptbuilder.Builder
	systemInstruction string
}

func (m *llmJudgeMetric) Name() string          { return m.name }
func (m *llmJudgeMetric) Kind() evaluator.MetricKind { return evaluator.KindLLMJudge }

func (m *llmJudgeMetric) Evaluate(ctx context.Context, req evaluator.MetricRequest) (evaluator.MetricResult, error) {
	prompt, err := m.builder.RenderEvaluatorPrompt(req.UserQuery, req.Submission)
	if err != nil {
		return evaluator.MetricResult{}, fmt.Errorf("%s: %w", m.name, err)
	}

	sysInstruction := m.systemInstruction
	if req.Params.SystemInstruction != "" {
		sysInstruction = req.Params.SystemInstruction
	}

	resp, err := m.client.Generate(ctx, llm.Request{
		SystemInstruction: sysInstruction,
		Messages:          []llm.Message{{Role: "user", Content: prompt}},
		Params: llm.Params{
			Temperature:    req.Params.Temperature,
			MaxTokens:      req.Params.MaxTokens,
			TopP:           req.Params.TopP,
			Seed:           req.Params.Seed,
			StopSequences:  req.Params.StopSequences,
			TimeoutSeconds: req.Params.TimeoutSeconds,
			MaxRetries:     req.Params.MaxRetries,
		},
	})
	if err != nil {
		return evaluator.MetricResult{}, fmt.Errorf("%s: %w", m.name, err)
	}

	score, ok := parseJudgeScore(resp.Content)
	if !ok {
		// Conservative fallback: a metric that can't parse its own judge's
		// output should not abort the whole evaluation pipeline with a
		// parse error; it reports the lowest passing confidence instead,
		// mirroring the teacher judge detector's parseJudgeScore fallback.
		score = 0
	}
	return evaluator.MetricResult{Score: score, Comment: strings.TrimSpace(resp.Content)}, nil
}

func parseJudgeScore(text string) (float64, bool) {
	match := ratingPattern.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}
	var score float64
	if _, err := fmt.Sscanf(match[1], "%f", &score); err != nil {
		return 0, false
	}
	if score > 100 {
		score = 100
	}
	if score < 0 {
		score = 0
	}
	return score, true
}

func newClarityCoherence(client llm.Client, builder *promptbuilder.Builder) (evaluator.Metric, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: ClarityCoherence requires an llm client", model.ErrConfiguration)
	}
	return &llmJudgeMetric{
		name:    "ClarityCoherence",
		client:  client,
		builder: builder,
		systemInstruction: "You are evaluating the clarity and coherence of a submission. " +
			"Rate it from 0 to 100 and end your reply with the rating as [[score]].",
	}, nil
}

func newRelevance(client llm.Client, builder *promptbuilder.Builder) (evaluator.Metric, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: Relevance requires an llm client", model.ErrConfiguration)
	}
	return &llmJudgeMetric{
		name:    "Relevance",
		client:  client,
		builder: builder,
		systemInstruction: "You are evaluating how relevant a submission is to the user's query. " +
			"Rate it from 0 to 100 and end your reply with the rating as [[score]].",
	}, nil
}

func newLLMPlain(client llm.Client, builder *promptbuilder.Builder) (evaluator.Metric, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: LLMPlain requires an llm client", model.ErrConfiguration)
	}
	return &llmJudgeMetric{
		name:    "LLMPlain",
		client:  client,
		builder: builder,
		systemInstruction: "Rate the overall quality of this submission from 0 to 100 and end your reply with the rating as [[score]].",
	}, nil
}

// coverageMetric is statistical: it scores lexical overlap between the
// user query's salient terms and the submission, requiring no LLM client.
type coverageMetric struct{}

func (coverageMetric) Name() string              { return "Coverage" }
func (coverageMetric) Kind() evaluator.MetricKind { return evaluator.KindStatistical }

func (coverageMetric) Evaluate(_ context.Context, req evaluator.MetricRequest) (evaluator.MetricResult, error) {
	queryTerms := tokenize(req.UserQuery)
	if len(queryTerms) == 0 {
		return evaluator.MetricResult{Score: 100, Comment: "empty query: full coverage by default"}, nil
	}
	submissionTerms := tokenSet(tokenize(req.Submission))

	covered := 0
	for _, t := range queryTerms {
		if _, ok := submissionTerms[t]; ok {
			covered++
		}
	}
	score := 100 * float64(covered) / float64(len(queryTerms))
	return evaluator.MetricResult{
		Score:   score,
		Comment: fmt.Sprintf("%d/%d query terms covered", covered, len(queryTerms)),
	}, nil
}

func newCoverage(_ llm.Client, _ *promptbuilder.Builder) (evaluator.Metric, error) {
	return coverageMetric{}, nil
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9' || r > 127)
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

func tokenSet(tokens []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}
