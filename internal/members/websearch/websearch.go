// Package websearch implements the "web_search" Member Agent variant.
package websearch

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
	members.Registry.Register(string(model.AgentWebSearch), New)
}

// Agent invokes a built-in search tool via the underlying provider.
type Agent struct {
	name              string
	client            llm.Client
	systemInstruction string
	params            llm.Params
	maxResults        int
	timeout           int
	executor          members.ToolExecutor
}

// New constructs a web_search Member Agent.
func New(cfg registry.Config) (members.Agent, error) {
	name, err := registry.RequireString(cfg, "agent_name")
	if err != nil {
		return nil, fmt.Errorf("web_search member: %w", err)
	}
	modelRef, err := registry.RequireString(cfg, "model")
	if err != nil {
		return nil, fmt.Errorf("web_search member %s: %w", name, err)
	}
	client, err := llm.Dial(modelRef)
	if err != nil {
		return nil, fmt.Errorf("web_search member %s: %w", name, err)
	}
	if !client.SupportsTools() {
		return nil, fmt.Errorf("%w: provider for %s does not support tool calling required by web_search", model.ErrToolMisconfiguration, name)
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
		maxResults:        registry.GetInt(cfg, "max_results", 5),
		timeout:           registry.GetInt(cfg, "timeout", 30),
		executor:          executor,
	}, nil
}

func (a *Agent) Name() string          { return a.name }
func (a *Agent) Type() model.AgentType { return model.AgentWebSearch }
func (a *Agent) Description() string   { return "Member agent with a built-in web search tool." }

func (a *Agent) Execute(ctx context.Context, task string, _ map[string]string) model.MemberAgentResult {
	if res, empty := members.CheckEmptyTask(a.name, model.AgentWebSearch, task); empty {
		return res
	}

	start := time.Now()
	resp, err := members.RunWithToolLoop(ctx, a.client, llm.Request{
		SystemInstruction: a.systemInstruction,
		Messages:          []llm.Message{{Role: "user", Content: task}},
		Params:            a.params,
		Tools: []llm.ToolSpec{{
			Name:        "web_search",
			Description: "Search the web and return relevant results.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{"type": "string"},
				},
				"required": []string{"query"},
			},
		}},
	}, a.executor)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		result := model.NewErrorResult(a.name, model.AgentWebSearch, "PROVIDER_ERROR", err.Error())
		result.ExecutionTimeMS = elapsed
		return result
	}

	result := model.NewSuccessResult(a.name, model.AgentWebSearch, resp.Content, resp.Usage, nil)
	result.ExecutionTimeMS = elapsed
	result.Metadata["capabilities"] = []string{"web_search"}
	result.Metadata["max_results"] = a.maxResults
	result.Metadata["timeout"] = a.timeout
	return result
}
