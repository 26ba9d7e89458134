// Package judgment implements the Judgment Client (C4): decides whether a
// team should run another round, given its submission history and
// leader-board position.
package judgment

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/mixseek/mixseek-core/pkg/llm"
	"github.com/mixseek/mixseek-core/pkg/model"
	"github.com/mixseek/mixseek-core/pkg/promptbuilder"
)

// Config is the Judgment Client's resolved LLM parameters.
type Config struct {
	Model             string
	SystemInstruction string
	Params            llm.Params
}

// Client builds the judgment prompt, invokes a configured LLM, and parses
// the structured {should_continue, reasoning, confidence_score} reply.
type Client struct {
	cfg     Config
	llm     llm.Client
	builder *promptbuilder.Builder
}

// New constructs a Judgment Client.
func New(cfg Config, llmClient llm.Client, builder *promptbuilder.Builder) *Client {
	return &Client{cfg: cfg, llm: llmClient, builder: builder}
}

var jsonBlock = regexp.MustCompile(`(?s)\{.*\}`)

type judgmentResponse struct {
	ShouldContinue  bool    `json:"should_continue"`
	Reasoning       string  `json:"reasoning"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// JudgeImprovementProspects answers "should we run another round?" for the
// team described by pc. Any failure (prompt render, LLM call, parse) is the
// caller's responsibility to treat as non-fatal per spec.md §4.4 — this
// method returns the error rather than silently defaulting, so the Round
// Controller can log it and fall back to "continue".
func (c *Client) JudgeImprovementProspects(ctx context.Context, pc promptbuilder.RoundPromptContext) (model.ImprovementJudgment, error) {
	prompt, err := c.builder.RenderJudgmentPrompt(ctx, pc)
	if err != nil {
		return model.ImprovementJudgment{}, fmt.Errorf("%w: %v", model.ErrJudgment, err)
	}

	resp, err := c.llm.Generate(ctx, llm.Request{
		SystemInstruction: c.cfg.SystemInstruction,
		Messages: []llm.Message{{
			Role: "user",
			Content: prompt + "\n\nRespond with a single JSON object: " +
				`{"should_continue": bool, "reasoning": string, "confidence_score": number between 0 and 1}.`,
		}},
		Params: c.cfg.Params,
	})
	if err != nil {
		return model.ImprovementJudgment{}, fmt.Errorf("%w: %v", model.ErrJudgment, err)
	}

	judgment, err := parseJudgmentResponse(resp.Content)
	if err != nil {
		return model.ImprovementJudgment{}, fmt.Errorf("%w: %v", model.ErrJudgment, err)
	}
	return judgment, nil
}

func parseJudgmentResponse(text string) (model.ImprovementJudgment, error) {
	raw := strings.TrimSpace(text)
	block := jsonBlock.FindString(raw)
	if block == "" {
		return model.ImprovementJudgment{}, fmt.Errorf("judgment response has no JSON object: %q", raw)
	}
	var parsed judgmentResponse
	if err := json.Unmarshal([]byte(block), &parsed); err != nil {
		return model.ImprovementJudgment{}, fmt.Errorf("parsing judgment response: %w", err)
	}
	if parsed.ConfidenceScore < 0 {
		parsed.ConfidenceScore = 0
	}
	if parsed.ConfidenceScore > 1 {
		parsed.ConfidenceScore = 1
	}
	return model.ImprovementJudgment{
		ShouldContinue:  parsed.ShouldContinue,
		Reasoning:       parsed.Reasoning,
		ConfidenceScore: parsed.ConfidenceScore,
	}, nil
}
