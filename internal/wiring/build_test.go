package wiring

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/mixseek/mixseek-core/pkg/config"
	"github.com/mixseek/mixseek-core/pkg/evaluator"
	"github.com/mixseek/mixseek-core/pkg/llm"
	"github.com/mixseek/mixseek-core/pkg/model"
	"github.com/mixseek/mixseek-core/pkg/promptbuilder"

	_ "github.com/mixseek/mixseek-core/internal/members/plain"
)

type fakeLLMClient struct{ modelRef string }

func (c fakeLLMClient) Generate(context.Context, llm.Request) (llm.Response, error) {
	return llm.Response{Content: "fake response for " + c.modelRef}, nil
}
func (fakeLLMClient) SupportsTools() bool         { return true }
func (fakeLLMClient) SupportsWebFetch() bool      { return false }
func (fakeLLMClient) SupportsCodeExecution() bool { return false }

func init() {
	llm.RegisterProvider("fake", func(modelName string) (llm.Client, error) {
		return fakeLLMClient{modelRef: modelName}, nil
	})
}

func weightOf(w float64) *float64 { return &w }

func evaluatorRequest() evaluator.Request {
	return evaluator.Request{UserQuery: "what is the capital of France?", Submission: "Paris", TeamID: "team-a"}
}

func TestTeamConfigFromSectionMapsLeaderAndMembers(t *testing.T) {
	tc := config.TeamFileConfig{
		Team: config.TeamSection{
			TeamID:   "team-a",
			TeamName: "Team A",
			Leader: config.LeaderSection{
				Model:             "fake:leader-model",
				SystemInstruction: "lead well",
				Temperature:       weightOf(0.5),
			},
			Members: []config.MemberSection{
				{AgentName: "researcher", AgentType: "plain", Model: "fake:member-model"},
			},
		},
	}
	traces := map[string]model.SourceTrace{"team.team_id": {Origin: model.OriginTOML, Name: "team.toml"}}

	team := TeamConfigFromSection(tc, traces)

	if team.TeamID != "team-a" || team.TeamName != "Team A" {
		t.Errorf("TeamID/TeamName = %q/%q, want team-a/Team A", team.TeamID, team.TeamName)
	}
	if team.Leader.Model != "fake:leader-model" || team.Leader.SystemInstruction != "lead well" {
		t.Errorf("Leader = %+v, not mapped from section", team.Leader)
	}
	if team.Leader.Temperature == nil || *team.Leader.Temperature != 0.5 {
		t.Errorf("Leader.Temperature = %v, want 0.5", team.Leader.Temperature)
	}
	if len(team.Members) != 1 || team.Members[0].AgentName != "researcher" {
		t.Fatalf("Members = %+v, want one entry named researcher", team.Members)
	}
	if team.Members[0].AgentType != model.AgentPlain {
		t.Errorf("Members[0].AgentType = %q, want plain", team.Members[0].AgentType)
	}
	if team.Trace["team.team_id"].Origin != model.OriginTOML {
		t.Errorf("Trace not propagated: %+v", team.Trace)
	}
}

func TestMemberDescriptorFromSectionPopulatesToolSubStructs(t *testing.T) {
	m := config.MemberSection{
		AgentName: "fetcher",
		AgentType: "web_fetch",
		Model:     "fake:m",
		ToolSettings: config.ToolSettingsSection{
			WebFetch: &config.WebFetchSection{
				MaxUses:          3,
				AllowedDomains:   []string{"example.com"},
				EnableCitations:  true,
				MaxContentTokens: 1000,
			},
		},
		Plugin: &config.PluginSection{AgentClass: "New"},
	}

	desc := memberDescriptorFromSection(m)

	if desc.WebFetch == nil {
		t.Fatal("WebFetch sub-struct not populated")
	}
	if desc.WebFetch.MaxUses != 3 || desc.WebFetch.AllowedDomains[0] != "example.com" || !desc.WebFetch.EnableCitations {
		t.Errorf("WebFetch = %+v, not mapped from section", desc.WebFetch)
	}
	if desc.WebSearch != nil || desc.CodeExecution != nil {
		t.Error("unrelated tool sub-structs should stay nil")
	}
	if desc.Plugin == nil || desc.Plugin.AgentClass != "New" {
		t.Errorf("Plugin = %+v, not mapped from section", desc.Plugin)
	}
}

func TestBuildMemberAgentUnknownAgentTypeErrors(t *testing.T) {
	_, err := BuildMemberAgent(model.MemberAgentDescriptor{AgentName: "x", AgentType: "not-a-real-type"})
	if !errors.Is(err, model.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for unknown agent_type, got %v", err)
	}
}

func TestBuildMemberAgentCustomWithNilPluginErrors(t *testing.T) {
	_, err := BuildMemberAgent(model.MemberAgentDescriptor{AgentName: "x", AgentType: model.AgentCustom})
	if !errors.Is(err, model.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration for custom member with no plugin descriptor, got %v", err)
	}
}

func TestBuildMemberAgentPlainSucceeds(t *testing.T) {
	agent, err := BuildMemberAgent(model.MemberAgentDescriptor{
		AgentName: "researcher",
		AgentType: model.AgentPlain,
		Model:     "fake:member-model",
	})
	if err != nil {
		t.Fatalf("BuildMemberAgent returned error: %v", err)
	}
	if agent.Name() != "researcher" {
		t.Errorf("Name() = %q, want researcher", agent.Name())
	}
}

func TestBuildLeaderDialsConfiguredModel(t *testing.T) {
	ld, err := BuildLeader(model.LeaderDescriptor{Model: "fake:leader-model", SystemInstruction: "lead"})
	if err != nil {
		t.Fatalf("BuildLeader returned error: %v", err)
	}
	if ld == nil {
		t.Fatal("BuildLeader returned a nil Leader with no error")
	}
}

func TestBuildLeaderBadModelRefErrors(t *testing.T) {
	_, err := BuildLeader(model.LeaderDescriptor{Model: "not-a-valid-ref"})
	if err == nil {
		t.Fatal("expected an error for a malformed model reference")
	}
}

func TestBuildJudgmentClientDialsConfiguredModel(t *testing.T) {
	builder := promptbuilder.New(promptbuilder.Templates{}, nil, nil)
	client, err := BuildJudgmentClient("fake:judge-model", builder)
	if err != nil {
		t.Fatalf("BuildJudgmentClient returned error: %v", err)
	}
	if client == nil {
		t.Fatal("BuildJudgmentClient returned a nil Client with no error")
	}
}

func TestBuildEvaluatorCoverageOnlyNeedsNoModel(t *testing.T) {
	builder := promptbuilder.New(promptbuilder.Templates{}, nil, nil)
	ec := config.EvaluatorFileConfig{
		Metrics: []config.EvaluatorMetric{{Name: "Coverage"}},
	}

	ev, err := BuildEvaluator(ec, builder)
	if err != nil {
		t.Fatalf("BuildEvaluator returned error: %v", err)
	}

	result, err := ev.Evaluate(context.Background(), evaluatorRequest())
	if err != nil {
		t.Fatalf("Evaluate returned error: %v", err)
	}
	if result.OverallScore < 0 {
		t.Errorf("OverallScore = %v, want non-negative", result.OverallScore)
	}
}

func TestBuildEvaluatorDialsDefaultModelForLLMMetric(t *testing.T) {
	builder := promptbuilder.New(promptbuilder.Templates{}, nil, nil)
	ec := config.EvaluatorFileConfig{
		DefaultModel: "fake:judge-model",
		Metrics:      []config.EvaluatorMetric{{Name: "ClarityCoherence"}},
	}

	ev, err := BuildEvaluator(ec, builder)
	if err != nil {
		t.Fatalf("BuildEvaluator returned error: %v", err)
	}
	if ev == nil {
		t.Fatal("BuildEvaluator returned a nil Evaluator with no error")
	}
}

func TestResolveTeamFilePathAbsolutePassthrough(t *testing.T) {
	abs := filepath.Join(string(filepath.Separator), "etc", "team.toml")
	if got := ResolveTeamFilePath("/workspace", abs); got != abs {
		t.Errorf("ResolveTeamFilePath = %q, want %q unchanged", got, abs)
	}
}

func TestResolveTeamFilePathJoinsRelative(t *testing.T) {
	got := ResolveTeamFilePath("/workspace", "teams/a.toml")
	want := filepath.Join("/workspace", "teams/a.toml")
	if got != want {
		t.Errorf("ResolveTeamFilePath = %q, want %q", got, want)
	}
}
