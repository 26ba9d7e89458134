package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/mixseek/mixseek-core/internal/wiring"
	"github.com/mixseek/mixseek-core/pkg/config"
	"github.com/mixseek/mixseek-core/pkg/evaluator"
	"github.com/mixseek/mixseek-core/pkg/judgment"
	"github.com/mixseek/mixseek-core/pkg/leader"
	"github.com/mixseek/mixseek-core/pkg/logging"
	"github.com/mixseek/mixseek-core/pkg/members"
	"github.com/mixseek/mixseek-core/pkg/model"
	"github.com/mixseek/mixseek-core/pkg/promptbuilder"
	"github.com/mixseek/mixseek-core/pkg/store"
)

// loadedConfig bundles everything derived from the workspace + orchestrator
// TOML + team TOMLs + evaluator TOML, shared by the run/validate-config/
// list-teams subcommands so each loads configuration exactly one way.
type loadedConfig struct {
	workspace  string
	configPath string
	orch       config.OrchestratorFileConfig
	teams      []model.TeamConfig
	evalCfg    config.EvaluatorFileConfig
	builder    *promptbuilder.Builder
}

func configureLogging() {
	logging.Configure(logging.ParseLevel(CLI.LogLevel), CLI.LogFormat, nil)
}

// loadAll resolves the workspace, loads orchestrator.toml, every named team
// TOML, and the evaluator TOML, and constructs the shared Prompt Builder.
// st may be nil (list-teams and validate-config don't need ranking lookups
// against a live database).
func loadAll(st promptbuilder.RankingSource) (loadedConfig, error) {
	workspace, _, err := config.ResolveWorkspace(CLI.Workspace)
	if err != nil {
		return loadedConfig{}, err
	}
	configPath, _ := config.ConfigFilePath(CLI.Config, workspace)

	orch, _, err := config.LoadOrchestratorConfig(configPath, nil, CLI.Dotenv)
	if err != nil {
		return loadedConfig{}, err
	}

	var teams []model.TeamConfig
	for _, t := range orch.Orchestrator.Teams {
		teamPath := wiring.ResolveTeamFilePath(workspace, t.ConfigPath)
		teamCfg, traces, err := config.LoadTeamConfig(teamPath)
		if err != nil {
			return loadedConfig{}, fmt.Errorf("team config %s: %w", teamPath, err)
		}
		teams = append(teams, wiring.TeamConfigFromSection(teamCfg, traces))
	}

	var evalCfg config.EvaluatorFileConfig
	if orch.Orchestrator.EvaluatorConfig != "" {
		evalPath := wiring.ResolveTeamFilePath(workspace, orch.Orchestrator.EvaluatorConfig)
		evalCfg, _, err = config.LoadEvaluatorConfig(evalPath)
		if err != nil {
			return loadedConfig{}, fmt.Errorf("evaluator config %s: %w", evalPath, err)
		}
	}

	var promptPath string
	if orch.Orchestrator.PromptBuilderConfig != "" {
		promptPath = wiring.ResolveTeamFilePath(workspace, orch.Orchestrator.PromptBuilderConfig)
	}
	pbCfg, _, err := config.LoadPromptBuilderConfig(promptPath)
	if err != nil {
		return loadedConfig{}, fmt.Errorf("prompt builder config %s: %w", promptPath, err)
	}

	builder := promptbuilder.New(promptbuilder.Templates{
		Team:      pbCfg.Team,
		Evaluator: pbCfg.Evaluator,
		Judgment:  pbCfg.Judgment,
	}, st, time.Now)

	return loadedConfig{
		workspace:  workspace,
		configPath: configPath,
		orch:       orch,
		teams:      teams,
		evalCfg:    evalCfg,
		builder:    builder,
	}, nil
}

// buildTeamFunc returns the per-team builder function, built against the loaded
// evaluator config and prompt builder, sharing the team's leader model as
// its judgment model (see internal/wiring.BuildJudgmentClient).
func buildTeamFunc(lc loadedConfig) func(team model.TeamConfig) (*leader.Leader, []members.Agent, *evaluator.Evaluator, *judgment.Client, error) {
	return func(team model.TeamConfig) (*leader.Leader, []members.Agent, *evaluator.Evaluator, *judgment.Client, error) {
		ld, err := wiring.BuildLeader(team.Leader)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("team %s: %w", team.TeamID, err)
		}
		agents, err := wiring.BuildMembers(team)
		if err != nil {
			return nil, nil, nil, nil, err
		}
		eval, err := wiring.BuildEvaluator(lc.evalCfg, lc.builder)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("team %s: %w", team.TeamID, err)
		}
		judge, err := wiring.BuildJudgmentClient(team.Leader.Model, lc.builder)
		if err != nil {
			return nil, nil, nil, nil, fmt.Errorf("team %s: %w", team.TeamID, err)
		}
		return ld, agents, eval, judge, nil
	}
}

func newExecutionID() string {
	return uuid.NewString()
}

func openStore(workspace string) (*store.Store, error) {
	dir := filepath.Join(workspace, ".mixseek")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: creating %s: %v", model.ErrStore, dir, err)
	}
	return store.Open(filepath.Join(dir, "mixseek.db"))
}

func logFields(lc loadedConfig) []any {
	return []any{"workspace", lc.workspace, "config", lc.configPath, "teams", len(lc.teams)}
}
