// Package config implements MixSeek's layered configuration (CLI > env >
// dotenv > TOML > defaults), source-traced per field, and sensitive-value
// redaction for debug output.
package config

import (
	"fmt"
	"regexp"
	"strings"
)

var agentNamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// TeamFileConfig is one team's TOML document (spec.md §6 "Team TOML").
type TeamFileConfig struct {
	Team TeamSection `toml:"team" koanf:"team"`
}

// TeamSection is the [team] table.
type TeamSection struct {
	TeamID   string                `toml:"team_id" koanf:"team_id" validate:"required"`
	TeamName string                `toml:"team_name" koanf:"team_name" validate:"required"`
	Leader   LeaderSection         `toml:"leader" koanf:"leader"`
	Members  []MemberSection       `toml:"members" koanf:"members" validate:"required,min=1,dive"`
}

// LeaderSection configures the team's Leader Agent.
type LeaderSection struct {
	Model             string   `toml:"model" koanf:"model" validate:"required"`
	SystemInstruction string   `toml:"system_instruction" koanf:"system_instruction"`
	Temperature       *float64 `toml:"temperature" koanf:"temperature" validate:"omitempty,gte=0,lte=2"`
	MaxTokens         *int     `toml:"max_tokens" koanf:"max_tokens"`
	TopP              *float64 `toml:"top_p" koanf:"top_p"`
	Seed              *int     `toml:"seed" koanf:"seed"`
	StopSequences     []string `toml:"stop_sequences" koanf:"stop_sequences"`
	TimeoutSeconds    *int     `toml:"timeout_seconds" koanf:"timeout_seconds"`
	MaxRetries        *int     `toml:"max_retries" koanf:"max_retries"`
}

// MemberSection is one [[team.members]] entry.
type MemberSection struct {
	AgentName         string              `toml:"agent_name" koanf:"agent_name" validate:"required"`
	AgentType         string              `toml:"agent_type" koanf:"agent_type" validate:"required,oneof=plain web_search web_fetch code_execution custom"`
	Model             string              `toml:"model" koanf:"model" validate:"required"`
	SystemInstruction string              `toml:"system_instruction" koanf:"system_instruction"`
	ToolDescription   string              `toml:"tool_description" koanf:"tool_description"`
	Temperature       *float64            `toml:"temperature" koanf:"temperature" validate:"omitempty,gte=0,lte=2"`
	MaxTokens         *int                `toml:"max_tokens" koanf:"max_tokens"`
	TopP              *float64            `toml:"top_p" koanf:"top_p"`
	Seed              *int                `toml:"seed" koanf:"seed"`
	StopSequences     []string            `toml:"stop_sequences" koanf:"stop_sequences"`
	TimeoutSeconds    *int                `toml:"timeout_seconds" koanf:"timeout_seconds"`
	MaxRetries        *int                `toml:"max_retries" koanf:"max_retries"`
	ToolSettings      ToolSettingsSection `toml:"tool_settings" koanf:"tool_settings"`
	Plugin            *PluginSection      `toml:"plugin" koanf:"plugin"`
}

// ToolSettingsSection holds the conditional per-tool-type config tables.
type ToolSettingsSection struct {
	WebSearch     *WebSearchSection     `toml:"web_search" koanf:"web_search"`
	WebFetch      *WebFetchSection      `toml:"web_fetch" koanf:"web_fetch"`
	CodeExecution *CodeExecutionSection `toml:"code_execution" koanf:"code_execution"`
}

// CodeExecutionSection configures a code_execution member's sandboxed tool.
type CodeExecutionSection struct {
	TimeoutSeconds int      `toml:"timeout_seconds" koanf:"timeout_seconds" validate:"gte=1,lte=120"`
	AllowedModules []string `toml:"allowed_modules" koanf:"allowed_modules"`
}

// WebSearchSection configures a web_search member's tool call.
type WebSearchSection struct {
	MaxResults int `toml:"max_results" koanf:"max_results" validate:"gte=1,lte=50"`
	Timeout    int `toml:"timeout" koanf:"timeout" validate:"gte=1,lte=120"`
}

// WebFetchSection configures a web_fetch member's tool call.
// AllowedDomains and BlockedDomains are mutually exclusive (validated in
// Validate, not via a struct tag, since cross-field XOR needs the pair).
type WebFetchSection struct {
	MaxUses          int      `toml:"max_uses" koanf:"max_uses"`
	AllowedDomains   []string `toml:"allowed_domains" koanf:"allowed_domains"`
	BlockedDomains   []string `toml:"blocked_domains" koanf:"blocked_domains"`
	EnableCitations  bool     `toml:"enable_citations" koanf:"enable_citations"`
	MaxContentTokens int      `toml:"max_content_tokens" koanf:"max_content_tokens" validate:"lte=50000"`
}

// PluginSection names a custom Member Agent implementation.
type PluginSection struct {
	AgentModule string `toml:"agent_module" koanf:"agent_module"`
	Path        string `toml:"path" koanf:"path"`
	AgentClass  string `toml:"agent_class" koanf:"agent_class" validate:"required"`
}

// Validate applies the cross-field rules that struct tags can't express:
// web_fetch's allowed/blocked XOR and per-team agent_name uniqueness.
func (t TeamSection) Validate() error {
	if t.TeamID == "" {
		return fmt.Errorf("team.team_id is required")
	}
	seen := make(map[string]struct{}, len(t.Members))
	for _, m := range t.Members {
		if !agentNamePattern.MatchString(m.AgentName) {
			return fmt.Errorf("team %s: agent_name %q must match [A-Za-z0-9._-]+", t.TeamID, m.AgentName)
		}
		if _, dup := seen[m.AgentName]; dup {
			return fmt.Errorf("team %s: duplicate agent_name %q", t.TeamID, m.AgentName)
		}
		seen[m.AgentName] = struct{}{}

		if ws := m.ToolSettings.WebFetch; ws != nil {
			if len(ws.AllowedDomains) > 0 && len(ws.BlockedDomains) > 0 {
				return fmt.Errorf("team %s member %s: allowed_domains and blocked_domains are mutually exclusive", t.TeamID, m.AgentName)
			}
			if ws.MaxContentTokens > 50000 {
				return fmt.Errorf("team %s member %s: max_content_tokens must be <= 50000", t.TeamID, m.AgentName)
			}
		}
		if m.AgentType == "custom" && (m.Plugin == nil || m.Plugin.AgentClass == "") {
			return fmt.Errorf("team %s member %s: custom agents require [plugin] with agent_class", t.TeamID, m.AgentName)
		}
	}
	return nil
}

// OrchestratorFileConfig is the orchestrator.toml document.
type OrchestratorFileConfig struct {
	Orchestrator OrchestratorSection `toml:"orchestrator" koanf:"orchestrator"`
}

// OrchestratorSection is the [orchestrator] table.
type OrchestratorSection struct {
	TimeoutPerTeamSeconds    int                `toml:"timeout_per_team_seconds" koanf:"timeout_per_team_seconds"`
	MaxConcurrentTeams       int                `toml:"max_concurrent_teams" koanf:"max_concurrent_teams"`
	MaxRetriesPerTeam        int                `toml:"max_retries_per_team" koanf:"max_retries_per_team" validate:"gte=0,lte=10"`
	MaxRounds                int                `toml:"max_rounds" koanf:"max_rounds" validate:"gte=1"`
	MinRounds                int                `toml:"min_rounds" koanf:"min_rounds"`
	SubmissionTimeoutSeconds int                `toml:"submission_timeout_seconds" koanf:"submission_timeout_seconds"`
	JudgmentTimeoutSeconds   int                `toml:"judgment_timeout_seconds" koanf:"judgment_timeout_seconds"`
	EvaluatorConfig          string             `toml:"evaluator_config" koanf:"evaluator_config"`
	JudgmentConfig           string             `toml:"judgment_config" koanf:"judgment_config"`
	PromptBuilderConfig      string             `toml:"prompt_builder_config" koanf:"prompt_builder_config"`
	Teams                    []OrchestratorTeam `toml:"teams" koanf:"teams" validate:"required,min=1,dive"`
}

// OrchestratorTeam names one team's config file, relative to the workspace.
type OrchestratorTeam struct {
	ConfigPath string `toml:"config" koanf:"config" validate:"required"`
}

// Validate applies defaults and cross-field rules to the orchestrator
// section.
func (o *OrchestratorSection) Validate() error {
	if o.TimeoutPerTeamSeconds == 0 {
		o.TimeoutPerTeamSeconds = 300
	}
	if o.MaxConcurrentTeams == 0 {
		o.MaxConcurrentTeams = 4
	}
	if o.MinRounds == 0 {
		o.MinRounds = 1
	}
	if o.MinRounds > o.MaxRounds {
		return fmt.Errorf("orchestrator.min_rounds (%d) must be <= max_rounds (%d)", o.MinRounds, o.MaxRounds)
	}
	if len(o.Teams) == 0 {
		return fmt.Errorf("orchestrator.teams must name at least one team")
	}
	return nil
}

// EvaluatorFileConfig is the evaluator.toml document.
type EvaluatorFileConfig struct {
	DefaultModel string               `toml:"default_model" koanf:"default_model" validate:"required"`
	MaxRetries   int                  `toml:"max_retries" koanf:"max_retries"`
	Metrics      []EvaluatorMetric    `toml:"metrics" koanf:"metrics" validate:"required,min=1,dive"`
}

// EvaluatorMetric is one [[metrics]] entry.
type EvaluatorMetric struct {
	Name   string   `toml:"name" koanf:"name" validate:"required"`
	Weight *float64 `toml:"weight" koanf:"weight" validate:"omitempty,gte=0,lte=1"`
	Model  string   `toml:"model" koanf:"model"`
}

// Validate enforces the weight-sum-to-1.0 invariant (spec.md §6): either
// every metric has a weight and they sum to 1.0 ± 0.001, or none do (equal
// weighting is resolved later, by pkg/evaluator). Names must be unique.
func (e EvaluatorFileConfig) Validate() error {
	if len(e.Metrics) == 0 {
		return fmt.Errorf("evaluator: at least one metric is required")
	}
	seen := make(map[string]struct{}, len(e.Metrics))
	anySet, allSet := false, true
	var sum float64
	for _, m := range e.Metrics {
		if _, dup := seen[m.Name]; dup {
			return fmt.Errorf("evaluator: duplicate metric name %q", m.Name)
		}
		seen[m.Name] = struct{}{}
		if m.Weight != nil {
			anySet = true
			sum += *m.Weight
		} else {
			allSet = false
		}
	}
	if anySet && !allSet {
		return fmt.Errorf("evaluator: weights must be set for either all metrics or none")
	}
	if anySet {
		if diff := sum - 1.0; diff > 0.001 || diff < -0.001 {
			return fmt.Errorf("evaluator: metric weights must sum to 1.0 ± 0.001, got %f", sum)
		}
	}
	return nil
}

// PromptBuilderFileConfig is the optional prompt_builder.toml document
// named by orchestrator.prompt_builder_config, overriding one or more of
// the three built-in prompt templates (spec.md §4.2). Any field left
// empty keeps pkg/promptbuilder's built-in default for that template.
type PromptBuilderFileConfig struct {
	Team      string `toml:"team" koanf:"team"`
	Evaluator string `toml:"evaluator" koanf:"evaluator"`
	Judgment  string `toml:"judgment" koanf:"judgment"`
}

// interpolateEnvVars replaces ${VAR} with environment variable values,
// kept from the ambient config layer's original string-interpolation
// helper. None of this package's loaders call it.
func interpolateEnvVars(s string, getenv func(string) (string, bool)) (string, error) {
	result := s
	start := 0
	for {
		idx := strings.Index(result[start:], "${")
		if idx == -1 {
			break
		}
		idx += start

		endIdx := strings.Index(result[idx:], "}")
		if endIdx == -1 {
			return "", fmt.Errorf("unclosed environment variable reference at position %d", idx)
		}
		endIdx += idx

		varName := result[idx+2 : endIdx]
		value, ok := getenv(varName)
		if !ok {
			return "", fmt.Errorf("environment variable %q is not set", varName)
		}

		result = result[:idx] + value + result[endIdx+1:]
		start = idx + len(value)
	}
	return result, nil
}
