// Package codeexec implements the "code_execution" Member Agent variant,
// backed by a provider-controlled sandboxed code tool (spec.md §4.5).
// Security constraints (timeout, available modules, no network access) are
// documented on CodeExecutionToolConfig but enforced by the provider's
// sandbox, not by this package.
package codeexec

import (
	"context"
	"fmt"
	"time"

	"github.com/mixseek/mixseek-core/pkg/llm"
	"github.com/mixseek/mixseek-core/pkg/members"
	"github.com/mixseek/mixseek-core/pkg/model"
	"github.com/mixseek/mixseek-core/pkg/registry"
)

func init() {
	members.Registry.Register(string(model.AgentCodeExecution), New)
}

// Agent invokes a sandboxed code-execution tool.
type Agent struct {
	name              string
	client            llm.Client
	systemInstruction string
	params            llm.Params
	cfg               model.CodeExecutionToolConfig
	executor          members.ToolExecutor
}

// New constructs a code_execution Member Agent.
func New(cfg registry.Config) (members.Agent, error) {
	name, err := registry.RequireString(cfg, "agent_name")
	if err != nil {
		return nil, fmt.Errorf("code_execution member: %w", err)
	}
	modelRef, err := registry.RequireString(cfg, "model")
	if err != nil {
		return nil, fmt.Errorf("code_execution member %s: %w", name, err)
	}
	client, err := llm.Dial(modelRef)
	if err != nil {
		return nil, fmt.Errorf("code_execution member %s: %w", name, err)
	}
	if !client.SupportsCodeExecution() {
		return nil, fmt.Errorf("%w: provider does not support code execution", model.ErrToolMisconfiguration)
	}

	executor, _ := cfg["executor"].(members.ToolExecutor)
	if executor == nil {
		executor = members.NoopExecutor{}
	}

	params, _ := cfg["params"].(llm.Params)

	return &Agent{
		name:              name,
		client:            client,
		systemInstruction: registry.GetString(cfg, "system_instruction", ""),
		params:            params,
		cfg: model.CodeExecutionToolConfig{
			TimeoutSeconds: registry.GetInt(cfg, "timeout_seconds", 30),
			AllowedModules: registry.GetStringSlice(cfg, "allowed_modules", nil),
		},
		executor: executor,
	}, nil
}

func (a *Agent) Name() string          { return a.name }
func (a *Agent) Type() model.AgentType { return model.AgentCodeExecution }
func (a *Agent) Description() string   { return "Member agent with a sandboxed code execution tool." }

func (a *Agent) Execute(ctx context.Context, task string, _ map[string]string) model.MemberAgentResult {
	if res, empty := members.CheckEmptyTask(a.name, model.AgentCodeExecution, task); empty {
		return res
	}

	start := time.Now()
	resp, err := members.RunWithToolLoop(ctx, a.client, llm.Request{
		SystemInstruction: a.systemInstruction,
		Messages:          []llm.Message{{Role: "user", Content: task}},
		Params:            a.params,
		Tools: []llm.ToolSpec{{
			Name:        "code_execution",
			Description: "Execute code in a sandboxed interpreter and return its output.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"code": map[string]any{"type": "string"},
				},
				"required": []string{"code"},
			},
		}},
	}, a.executor)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		result := model.NewErrorResult(a.name, model.AgentCodeExecution, "PROVIDER_ERROR", err.Error())
		result.ExecutionTimeMS = elapsed
		return result
	}

	result := model.NewSuccessResult(a.name, model.AgentCodeExecution, resp.Content, resp.Usage, nil)
	result.ExecutionTimeMS = elapsed
	result.Metadata["capabilities"] = []string{"code_execution"}
	result.Metadata["timeout_seconds"] = a.cfg.TimeoutSeconds
	return result
}
