package config

import "testing"

func TestTeamSectionValidateDuplicateAgentName(t *testing.T) {
	team := TeamSection{
		TeamID:   "team-a",
		TeamName: "Team A",
		Members: []MemberSection{
			{AgentName: "writer", AgentType: "plain", Model: "openai:gpt-4o"},
			{AgentName: "writer", AgentType: "plain", Model: "openai:gpt-4o"},
		},
	}
	if err := team.Validate(); err == nil {
		t.Fatal("expected error for duplicate agent_name")
	}
}

func TestTeamSectionValidateBadAgentName(t *testing.T) {
	team := TeamSection{
		TeamID:   "team-a",
		TeamName: "Team A",
		Members: []MemberSection{
			{AgentName: "writer one!", AgentType: "plain", Model: "openai:gpt-4o"},
		},
	}
	if err := team.Validate(); err == nil {
		t.Fatal("expected error for invalid agent_name characters")
	}
}

func TestTeamSectionValidateWebFetchMutualExclusion(t *testing.T) {
	team := TeamSection{
		TeamID:   "team-a",
		TeamName: "Team A",
		Members: []MemberSection{
			{
				AgentName: "fetcher", AgentType: "web_fetch", Model: "openai:gpt-4o",
				ToolSettings: ToolSettingsSection{
					WebFetch: &WebFetchSection{
						AllowedDomains: []string{"example.com"},
						BlockedDomains: []string{"bad.com"},
					},
				},
			},
		},
	}
	if err := team.Validate(); err == nil {
		t.Fatal("expected error for mutually exclusive allowed/blocked domains")
	}
}

func TestTeamSectionValidateCustomRequiresPlugin(t *testing.T) {
	team := TeamSection{
		TeamID:   "team-a",
		TeamName: "Team A",
		Members: []MemberSection{
			{AgentName: "custom1", AgentType: "custom", Model: "openai:gpt-4o"},
		},
	}
	if err := team.Validate(); err == nil {
		t.Fatal("expected error for custom agent missing plugin.agent_class")
	}
}

func TestTeamSectionValidateOK(t *testing.T) {
	team := TeamSection{
		TeamID:   "team-a",
		TeamName: "Team A",
		Members: []MemberSection{
			{AgentName: "writer", AgentType: "plain", Model: "openai:gpt-4o"},
		},
	}
	if err := team.Validate(); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestOrchestratorSectionValidateDefaults(t *testing.T) {
	o := OrchestratorSection{
		MaxRounds: 5,
		Teams:     []OrchestratorTeam{{ConfigPath: "team-a.toml"}},
	}
	if err := o.Validate(); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if o.TimeoutPerTeamSeconds != 300 {
		t.Errorf("expected default timeout_per_team_seconds=300, got %d", o.TimeoutPerTeamSeconds)
	}
	if o.MaxConcurrentTeams != 4 {
		t.Errorf("expected default max_concurrent_teams=4, got %d", o.MaxConcurrentTeams)
	}
	if o.MinRounds != 1 {
		t.Errorf("expected default min_rounds=1, got %d", o.MinRounds)
	}
}

func TestOrchestratorSectionValidateMinGreaterThanMax(t *testing.T) {
	o := OrchestratorSection{
		MaxRounds: 2,
		MinRounds: 5,
		Teams:     []OrchestratorTeam{{ConfigPath: "team-a.toml"}},
	}
	if err := o.Validate(); err == nil {
		t.Fatal("expected error when min_rounds > max_rounds")
	}
}

func weight(v float64) *float64 { return &v }

func TestEvaluatorFileConfigValidateWeightSum(t *testing.T) {
	e := EvaluatorFileConfig{
		DefaultModel: "openai:gpt-4o",
		Metrics: []EvaluatorMetric{
			{Name: "ClarityCoherence", Weight: weight(0.5)},
			{Name: "Coverage", Weight: weight(0.4)},
		},
	}
	if err := e.Validate(); err == nil {
		t.Fatal("expected error: weights sum to 0.9, not 1.0")
	}
}

func TestEvaluatorFileConfigValidateEqualWeighting(t *testing.T) {
	e := EvaluatorFileConfig{
		DefaultModel: "openai:gpt-4o",
		Metrics: []EvaluatorMetric{
			{Name: "ClarityCoherence"},
			{Name: "Coverage"},
		},
	}
	if err := e.Validate(); err != nil {
		t.Fatalf("expected no error for all-nil weights, got: %v", err)
	}
}

func TestEvaluatorFileConfigValidateMixedWeights(t *testing.T) {
	e := EvaluatorFileConfig{
		DefaultModel: "openai:gpt-4o",
		Metrics: []EvaluatorMetric{
			{Name: "ClarityCoherence", Weight: weight(1.0)},
			{Name: "Coverage"},
		},
	}
	if err := e.Validate(); err == nil {
		t.Fatal("expected error: partial weights not allowed")
	}
}

func TestEvaluatorFileConfigValidateDuplicateNames(t *testing.T) {
	e := EvaluatorFileConfig{
		DefaultModel: "openai:gpt-4o",
		Metrics: []EvaluatorMetric{
			{Name: "ClarityCoherence"},
			{Name: "ClarityCoherence"},
		},
	}
	if err := e.Validate(); err == nil {
		t.Fatal("expected error for duplicate metric names")
	}
}

func TestIsSensitiveField(t *testing.T) {
	cases := map[string]bool{
		"api_key":            true,
		"OPENAI_API_KEY":     true,
		"password":           true,
		"max_tokens":         false,
		"auth_url":           false,
		"timeout_seconds":    false,
		"system_instruction": false,
	}
	for field, want := range cases {
		if got := IsSensitiveField(field); got != want {
			t.Errorf("IsSensitiveField(%q) = %v, want %v", field, got, want)
		}
	}
}

func TestRedactValue(t *testing.T) {
	if got := RedactValue("api_key", "sk-abc123"); got != redactedPlaceholder {
		t.Errorf("expected redacted value, got %q", got)
	}
	if got := RedactValue("max_tokens", "4096"); got != "4096" {
		t.Errorf("expected unredacted value, got %q", got)
	}
}
