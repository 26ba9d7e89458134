// Package plain implements the "plain" Member Agent variant: text-in,
// text-out, no tools.
package plain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mixseek/mixseek-core/pkg/llm"
	"github.com/mixseek/mixseek-core/pkg/members"
	"github.com/mixseek/mixseek-core/pkg/model"
	"github.com/mixseek/mixseek-core/pkg/registry"
)

func init() {
	members.Registry.Register(string(model.AgentPlain), New)
}

// Agent is a plain Member Agent: no tools, no search/fetch/exec
// capabilities.
type Agent struct {
	name              string
	client            llm.Client
	systemInstruction string
	params            llm.Params
}

// New constructs a plain Member Agent from registry.Config, matching the
// teacher's ConfigFromMap-then-typed-constructor convention.
func New(cfg registry.Config) (members.Agent, error) {
	name, err := registry.RequireString(cfg, "agent_name")
	if err != nil {
		return nil, fmt.Errorf("plain member: %w", err)
	}
	modelRef, err := registry.RequireString(cfg, "model")
	if err != nil {
		return nil, fmt.Errorf("plain member %s: %w", name, err)
	}
	client, err := llm.Dial(modelRef)
	if err != nil {
		return nil, fmt.Errorf("plain member %s: %w", name, err)
	}
	params, _ := cfg["params"].(llm.Params)

	return &Agent{
		name:              name,
		client:            client,
		systemInstruction: registry.GetString(cfg, "system_instruction", ""),
		params:            params,
	}, nil
}

func (a *Agent) Name() string              { return a.name }
func (a *Agent) Type() model.AgentType     { return model.AgentPlain }
func (a *Agent) Description() string       { return "Plain text-in, text-out member agent." }

func (a *Agent) Execute(ctx context.Context, task string, _ map[string]string) model.MemberAgentResult {
	if res, empty := members.CheckEmptyTask(a.name, model.AgentPlain, task); empty {
		return res
	}

	start := time.Now()
	resp, err := a.client.Generate(ctx, llm.Request{
		SystemInstruction: a.systemInstruction,
		Messages:          []llm.Message{{Role: "user", Content: task}},
		Params:            a.params,
	})
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		result := classifyError(a.name, err)
		result.ExecutionTimeMS = elapsed
		return result
	}

	result := model.NewSuccessResult(a.name, model.AgentPlain, resp.Content, resp.Usage, []model.ChatMessage{
		{Role: "user", Content: task},
		{Role: "assistant", Content: resp.Content},
	})
	result.ExecutionTimeMS = elapsed
	return result
}

// classifyError maps an llm error into the member result's error_code,
// per spec.md §4.5's terminal-vs-retried distinction (retries themselves
// are the llm.Client's responsibility; this only labels the outcome).
// Token-limit errors are terminal and never retried (retry_count=0).
func classifyError(agentName string, err error) model.MemberAgentResult {
	code := "PROVIDER_ERROR"
	if strings.Contains(strings.ToLower(err.Error()), "token_limit_exceeded") ||
		strings.Contains(strings.ToLower(err.Error()), "context length") {
		code = model.ErrCodeTokenLimitExceeded
	}
	result := model.NewErrorResult(agentName, model.AgentPlain, code, err.Error())
	if code == model.ErrCodeTokenLimitExceeded {
		result.RetryCount = 0
	}
	return result
}
