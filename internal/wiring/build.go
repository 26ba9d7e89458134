// Package wiring converts loaded TOML configuration (pkg/config) into the
// runtime objects pkg/orchestrator drives: model.TeamConfig plus a per-team
// Leader, Member Agent set, Evaluator, and Judgment Client. It is the glue
// cmd/mixseek uses to turn a resolved OrchestratorFileConfig into an
// orchestrator.TeamBuilder, kept separate from cmd/mixseek so it can be
// unit-tested without a kong CLI context.
package wiring

import (
	"fmt"
	"path/filepath"

	"github.com/mixseek/mixseek-core/pkg/config"
	"github.com/mixseek/mixseek-core/pkg/evaluator"
	"github.com/mixseek/mixseek-core/pkg/evaluator/metrics"
	"github.com/mixseek/mixseek-core/pkg/judgment"
	"github.com/mixseek/mixseek-core/pkg/leader"
	"github.com/mixseek/mixseek-core/pkg/llm"
	"github.com/mixseek/mixseek-core/pkg/members"
	"github.com/mixseek/mixseek-core/pkg/model"
	"github.com/mixseek/mixseek-core/pkg/promptbuilder"
	"github.com/mixseek/mixseek-core/pkg/registry"
)

// TeamConfigFromSection converts one loaded team TOML document into the
// model.TeamConfig the Orchestrator and Round Controller operate on.
func TeamConfigFromSection(tc config.TeamFileConfig, traces map[string]model.SourceTrace) model.TeamConfig {
	team := model.TeamConfig{
		TeamID:   tc.Team.TeamID,
		TeamName: tc.Team.TeamName,
		Trace:    traces,
		Leader: model.LeaderDescriptor{
			Model:             tc.Team.Leader.Model,
			SystemInstruction: tc.Team.Leader.SystemInstruction,
			Temperature:       tc.Team.Leader.Temperature,
			MaxTokens:         tc.Team.Leader.MaxTokens,
			TopP:              tc.Team.Leader.TopP,
			Seed:              tc.Team.Leader.Seed,
			StopSequences:     tc.Team.Leader.StopSequences,
			TimeoutSeconds:    tc.Team.Leader.TimeoutSeconds,
			MaxRetries:        tc.Team.Leader.MaxRetries,
		},
	}
	for _, m := range tc.Team.Members {
		team.Members = append(team.Members, memberDescriptorFromSection(m))
	}
	return team
}

func memberDescriptorFromSection(m config.MemberSection) model.MemberAgentDescriptor {
	desc := model.MemberAgentDescriptor{
		AgentName:         m.AgentName,
		AgentType:         model.AgentType(m.AgentType),
		Model:             m.Model,
		SystemInstruction: m.SystemInstruction,
		ToolDescription:   m.ToolDescription,
		Temperature:       m.Temperature,
		MaxTokens:         m.MaxTokens,
		TopP:              m.TopP,
		Seed:              m.Seed,
		StopSequences:     m.StopSequences,
		TimeoutSeconds:    m.TimeoutSeconds,
		MaxRetries:        m.MaxRetries,
	}
	if ws := m.ToolSettings.WebSearch; ws != nil {
		desc.WebSearch = &model.WebSearchToolConfig{MaxResults: ws.MaxResults, Timeout: ws.Timeout}
	}
	if wf := m.ToolSettings.WebFetch; wf != nil {
		desc.WebFetch = &model.WebFetchToolConfig{
			MaxUses:          wf.MaxUses,
			AllowedDomains:   wf.AllowedDomains,
			BlockedDomains:   wf.BlockedDomains,
			EnableCitations:  wf.EnableCitations,
			MaxContentTokens: wf.MaxContentTokens,
		}
	}
	if ce := m.ToolSettings.CodeExecution; ce != nil {
		desc.CodeExecution = &model.CodeExecutionToolConfig{
			TimeoutSeconds: ce.TimeoutSeconds,
			AllowedModules: ce.AllowedModules,
		}
	}
	if m.Plugin != nil {
		desc.Plugin = &model.PluginDescriptor{
			AgentModule: m.Plugin.AgentModule,
			Path:        m.Plugin.Path,
			AgentClass:  m.Plugin.AgentClass,
		}
	}
	return desc
}

// BuildMemberAgent constructs one runtime members.Agent from its descriptor.
// agent_type "custom" is resolved via members.LoadCustom rather than
// members.Registry, matching pkg/members/custom_loader.go's isolation
// guarantee that a loaded custom class is never globally registered.
func BuildMemberAgent(desc model.MemberAgentDescriptor) (members.Agent, error) {
	cfg := registry.Config{
		"agent_name":         desc.AgentName,
		"model":              desc.Model,
		"system_instruction": desc.SystemInstruction,
		"params": llm.Params{
			Temperature:    desc.Temperature,
			MaxTokens:      desc.MaxTokens,
			TopP:           desc.TopP,
			Seed:           desc.Seed,
			StopSequences:  desc.StopSequences,
			TimeoutSeconds: desc.TimeoutSeconds,
			MaxRetries:     desc.MaxRetries,
		},
	}
	if desc.WebSearch != nil {
		cfg["max_results"] = desc.WebSearch.MaxResults
		cfg["timeout"] = desc.WebSearch.Timeout
	}
	if desc.WebFetch != nil {
		cfg["max_uses"] = desc.WebFetch.MaxUses
		cfg["allowed_domains"] = desc.WebFetch.AllowedDomains
		cfg["blocked_domains"] = desc.WebFetch.BlockedDomains
		cfg["enable_citations"] = desc.WebFetch.EnableCitations
		cfg["max_content_tokens"] = desc.WebFetch.MaxContentTokens
	}
	if desc.CodeExecution != nil {
		cfg["timeout_seconds"] = desc.CodeExecution.TimeoutSeconds
		cfg["allowed_modules"] = desc.CodeExecution.AllowedModules
	}

	if desc.AgentType == model.AgentCustom {
		if desc.Plugin == nil {
			return nil, fmt.Errorf("%w: custom member %s: plugin descriptor is required", model.ErrConfiguration, desc.AgentName)
		}
		return members.LoadCustom(*desc.Plugin, cfg)
	}

	ctor, ok := members.Registry.Get(string(desc.AgentType))
	if !ok {
		return nil, fmt.Errorf("%w: unknown agent_type %q for member %s", model.ErrConfiguration, desc.AgentType, desc.AgentName)
	}
	return ctor(cfg)
}

// BuildMembers constructs every member agent in team, in declared order.
func BuildMembers(team model.TeamConfig) ([]members.Agent, error) {
	agents := make([]members.Agent, 0, len(team.Members))
	for _, desc := range team.Members {
		agent, err := BuildMemberAgent(desc)
		if err != nil {
			return nil, fmt.Errorf("team %s: %w", team.TeamID, err)
		}
		agents = append(agents, agent)
	}
	return agents, nil
}

// BuildLeader constructs the per-team Leader Agent from its descriptor.
func BuildLeader(ld model.LeaderDescriptor) (*leader.Leader, error) {
	client, err := llm.Dial(ld.Model)
	if err != nil {
		return nil, fmt.Errorf("leader: %w", err)
	}
	params := llm.Params{
		Temperature:    ld.Temperature,
		MaxTokens:      ld.MaxTokens,
		TopP:           ld.TopP,
		Seed:           ld.Seed,
		StopSequences:  ld.StopSequences,
		TimeoutSeconds: ld.TimeoutSeconds,
		MaxRetries:     ld.MaxRetries,
	}
	return leader.New(client, ld.SystemInstruction, params), nil
}

// BuildEvaluator constructs an Evaluator from its loaded TOML config. The
// returned Evaluator's resolver dials a fresh llm.Client per metric call
// using either the metric's own model override or ec.DefaultModel.
func BuildEvaluator(ec config.EvaluatorFileConfig, builder *promptbuilder.Builder) (*evaluator.Evaluator, error) {
	cfg := evaluator.Config{
		DefaultParams: evaluator.MetricParams{Model: ec.DefaultModel, MaxRetries: intPtr(ec.MaxRetries)},
	}
	for _, m := range ec.Metrics {
		cfg.Metrics = append(cfg.Metrics, evaluator.MetricConfig{
			Name:   m.Name,
			Weight: m.Weight,
			Params: evaluator.MetricParams{Model: m.Model},
		})
	}

	resolve := func(mc evaluator.MetricConfig) (evaluator.Metric, error) {
		modelRef := mc.Params.Model
		if modelRef == "" {
			modelRef = ec.DefaultModel
		}
		var client llm.Client
		if modelRef != "" {
			var err error
			client, err = llm.Dial(modelRef)
			if err != nil {
				return nil, fmt.Errorf("metric %s: %w", mc.Name, err)
			}
		}
		return metrics.Resolve(mc.Name, mc.PluginPath, client, builder)
	}

	return evaluator.New(cfg, resolve), nil
}

// BuildJudgmentClient constructs the Judgment Client for one team, dialing
// modelRef; cmd/mixseek passes the team's Leader model here, as no
// per-team judgment section exists (spec.md §4.4 leaves judgment model selection
// unspecified beyond "configurable"; this resolves it to the team's
// leader model, kept as an Open Question entry in DESIGN.md).
func BuildJudgmentClient(modelRef string, builder *promptbuilder.Builder) (*judgment.Client, error) {
	client, err := llm.Dial(modelRef)
	if err != nil {
		return nil, fmt.Errorf("judgment client: %w", err)
	}
	return judgment.New(judgment.Config{Model: modelRef}, client, builder), nil
}

// ResolveTeamFilePath joins a team config's relative path against the
// workspace, the way OrchestratorTeam.ConfigPath is always interpreted.
func ResolveTeamFilePath(workspace, relPath string) string {
	if filepath.IsAbs(relPath) {
		return relPath
	}
	return filepath.Join(workspace, relPath)
}

func intPtr(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}
