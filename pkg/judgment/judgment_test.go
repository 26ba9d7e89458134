package judgment

import (
	"context"
	"errors"
	"testing"

	"github.com/mixseek/mixseek-core/pkg/llm"
	"github.com/mixseek/mixseek-core/pkg/model"
	"github.com/mixseek/mixseek-core/pkg/promptbuilder"
)

type fakeLLMClient struct {
	content string
	err     error
}

func (c fakeLLMClient) Generate(context.Context, llm.Request) (llm.Response, error) {
	if c.err != nil {
		return llm.Response{}, c.err
	}
	return llm.Response{Content: c.content}, nil
}
func (fakeLLMClient) SupportsTools() bool         { return true }
func (fakeLLMClient) SupportsWebFetch() bool      { return false }
func (fakeLLMClient) SupportsCodeExecution() bool { return false }

func newTestBuilder() *promptbuilder.Builder {
	return promptbuilder.New(promptbuilder.Templates{}, nil, nil)
}

func TestJudgeImprovementProspectsParsesResponse(t *testing.T) {
	client := fakeLLMClient{content: `Reasoning first. {"should_continue": true, "reasoning": "more improvement possible", "confidence_score": 0.8}`}
	c := New(Config{}, client, newTestBuilder())

	judgment, err := c.JudgeImprovementProspects(context.Background(), promptbuilder.RoundPromptContext{UserPrompt: "x", TeamID: "team-1"})
	if err != nil {
		t.Fatalf("JudgeImprovementProspects returned error: %v", err)
	}
	if !judgment.ShouldContinue {
		t.Error("ShouldContinue = false, want true")
	}
	if judgment.ConfidenceScore != 0.8 {
		t.Errorf("ConfidenceScore = %v, want 0.8", judgment.ConfidenceScore)
	}
	if judgment.Reasoning != "more improvement possible" {
		t.Errorf("Reasoning = %q", judgment.Reasoning)
	}
}

func TestJudgeImprovementProspectsClampsConfidence(t *testing.T) {
	client := fakeLLMClient{content: `{"should_continue": false, "reasoning": "done", "confidence_score": 5}`}
	c := New(Config{}, client, newTestBuilder())

	judgment, err := c.JudgeImprovementProspects(context.Background(), promptbuilder.RoundPromptContext{UserPrompt: "x"})
	if err != nil {
		t.Fatalf("JudgeImprovementProspects returned error: %v", err)
	}
	if judgment.ConfidenceScore != 1 {
		t.Errorf("ConfidenceScore = %v, want clamped to 1", judgment.ConfidenceScore)
	}
}

func TestJudgeImprovementProspectsNoJSONIsError(t *testing.T) {
	client := fakeLLMClient{content: "I have thought about it."}
	c := New(Config{}, client, newTestBuilder())

	_, err := c.JudgeImprovementProspects(context.Background(), promptbuilder.RoundPromptContext{UserPrompt: "x"})
	if !errors.Is(err, model.ErrJudgment) {
		t.Errorf("expected ErrJudgment for an unparseable response, got %v", err)
	}
}

func TestJudgeImprovementProspectsLLMErrorPropagates(t *testing.T) {
	client := fakeLLMClient{err: errors.New("provider down")}
	c := New(Config{}, client, newTestBuilder())

	_, err := c.JudgeImprovementProspects(context.Background(), promptbuilder.RoundPromptContext{UserPrompt: "x"})
	if !errors.Is(err, model.ErrJudgment) {
		t.Errorf("expected ErrJudgment wrapping the llm error, got %v", err)
	}
}
