// Package webfetch implements the "web_fetch" Member Agent variant, which
// is only constructible against a provider exposing a native fetch tool
// (spec.md §4.5) — none of the three providers wired into pkg/llm
// (OpenAI, Bedrock, Replicate) advertise SupportsWebFetch, so construction
// always raises the documented tool-misconfiguration error today; the
// variant exists so a future provider backend (e.g. Anthropic or Google,
// both of which expose native fetch tools) can satisfy it without any
// change to this package.
package webfetch

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
	members.Registry.Register(string(model.AgentWebFetch), New)
}

// Agent invokes a provider-native URL-fetch tool.
type Agent struct {
	name              string
	client            llm.Client
	systemInstruction string
	params            llm.Params
	cfg               model.WebFetchToolConfig
	executor          members.ToolExecutor
}

// New constructs a web_fetch Member Agent. allowed_domains and
// blocked_domains are mutually exclusive, validated here at construction
// time (spec.md §4.5/§7 class 6: tool misconfiguration).
func New(cfg registry.Config) (members.Agent, error) {
	name, err := registry.RequireString(cfg, "agent_name")
	if err != nil {
		return nil, fmt.Errorf("web_fetch member: %w", err)
	}
	modelRef, err := registry.RequireString(cfg, "model")
	if err != nil {
		return nil, fmt.Errorf("web_fetch member %s: %w", name, err)
	}
	client, err := llm.Dial(modelRef)
	if err != nil {
		return nil, fmt.Errorf("web_fetch member %s: %w", name, err)
	}
	if !client.SupportsWebFetch() {
		return nil, fmt.Errorf("%w: provider does not support web-fetch", model.ErrToolMisconfiguration)
	}

	allowed := registry.GetStringSlice(cfg, "allowed_domains", nil)
	blocked := registry.GetStringSlice(cfg, "blocked_domains", nil)
	if len(allowed) > 0 && len(blocked) > 0 {
		return nil, fmt.Errorf("%w: web_fetch member %s: allowed_domains and blocked_domains are mutually exclusive", model.ErrToolMisconfiguration, name)
	}

	maxContentTokens := registry.GetInt(cfg, "max_content_tokens", 50000)
	if maxContentTokens > 50000 {
		return nil, fmt.Errorf("%w: web_fetch member %s: max_content_tokens must be <= 50000", model.ErrToolMisconfiguration, name)
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
		cfg: model.WebFetchToolConfig{
			MaxUses:          registry.GetInt(cfg, "max_uses", 5),
			AllowedDomains:   allowed,
			BlockedDomains:   blocked,
			EnableCitations:  registry.GetBool(cfg, "enable_citations", false),
			MaxContentTokens: maxContentTokens,
		},
		executor: executor,
	}, nil
}

func (a *Agent) Name() string          { return a.name }
func (a *Agent) Type() model.AgentType { return model.AgentWebFetch }
func (a *Agent) Description() string   { return "Member agent with a provider-native URL fetch tool." }

func (a *Agent) Execute(ctx context.Context, task string, _ map[string]string) model.MemberAgentResult {
	if res, empty := members.CheckEmptyTask(a.name, model.AgentWebFetch, task); empty {
		return res
	}

	start := time.Now()
	resp, err := members.RunWithToolLoop(ctx, a.client, llm.Request{
		SystemInstruction: a.systemInstruction,
		Messages:          []llm.Message{{Role: "user", Content: task}},
		Params:            a.params,
		Tools: []llm.ToolSpec{{
			Name:        "web_fetch",
			Description: "Fetch the content of a URL.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"url": map[string]any{"type": "string"},
				},
				"required": []string{"url"},
			},
		}},
	}, a.executor)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		result := model.NewErrorResult(a.name, model.AgentWebFetch, "PROVIDER_ERROR", err.Error())
		result.ExecutionTimeMS = elapsed
		return result
	}

	result := model.NewSuccessResult(a.name, model.AgentWebFetch, resp.Content, resp.Usage, nil)
	result.ExecutionTimeMS = elapsed
	result.Metadata["capabilities"] = []string{"web_fetch"}
	result.Metadata["max_uses"] = a.cfg.MaxUses
	return result
}
