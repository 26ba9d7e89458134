package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mixseek/mixseek-core/pkg/cli"
	"github.com/mixseek/mixseek-core/pkg/config"
	"github.com/mixseek/mixseek-core/pkg/model"
	"github.com/mixseek/mixseek-core/pkg/orchestrator"
)

// errAllTeamsFailed is returned by runExecution when every configured team
// failed, so main can map it to exit code 2 (spec.md §6's "all agents/all
// teams failed" class) rather than the generic configuration-error exit 1.
var errAllTeamsFailed = fmt.Errorf("all teams failed")

func runExecution(r *RunCmd) error {
	configureLogging()

	workspace, _, err := config.ResolveWorkspace(CLI.Workspace)
	if err != nil {
		return err
	}
	st, err := openStore(workspace)
	if err != nil {
		return err
	}
	defer st.Close()

	lc, err := loadAll(st)
	if err != nil {
		return err
	}

	teams := lc.teams
	if r.TeamsGlob != "" {
		teams, err = filterTeamsByGlob(teams, r.TeamsGlob)
		if err != nil {
			return err
		}
	}

	task := model.ExecutionTask{
		ExecutionID:              newExecutionID(),
		UserPrompt:               r.UserPrompt,
		Teams:                    teams,
		TimeoutPerTeamSeconds:    lc.orch.Orchestrator.TimeoutPerTeamSeconds,
		MaxRounds:                lc.orch.Orchestrator.MaxRounds,
		MinRounds:                lc.orch.Orchestrator.MinRounds,
		SubmissionTimeoutSeconds: lc.orch.Orchestrator.SubmissionTimeoutSeconds,
		JudgmentTimeoutSeconds:   lc.orch.Orchestrator.JudgmentTimeoutSeconds,
		MaxRetriesPerTeam:        lc.orch.Orchestrator.MaxRetriesPerTeam,
		MaxConcurrentTeams:       lc.orch.Orchestrator.MaxConcurrentTeams,
		Workspace:                lc.workspace,
	}
	if r.MaxConcurrentTeams > 0 {
		task.MaxConcurrentTeams = r.MaxConcurrentTeams
	}
	if r.TimeoutPerTeamSecond > 0 {
		task.TimeoutPerTeamSeconds = r.TimeoutPerTeamSecond
	}

	slog.Info("starting execution", append(logFields(lc), "execution_id", task.ExecutionID)...)

	orc, err := orchestrator.New(orchestrator.Config{
		Task:      task,
		Store:     st,
		Builder:   lc.builder,
		BuildTeam: buildTeamFunc(lc),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := orc.Run(ctx)
	if err != nil {
		return err
	}

	printSummary(summary)
	if r.SummaryOut != "" {
		if err := writeSummaryFile(r.SummaryOut, summary); err != nil {
			return err
		}
	}

	if summary.Status == model.ExecutionFailed {
		return errAllTeamsFailed
	}
	return nil
}

func filterTeamsByGlob(teams []model.TeamConfig, glob string) ([]model.TeamConfig, error) {
	ids := make([]string, 0, len(teams))
	byID := make(map[string]model.TeamConfig, len(teams))
	for _, t := range teams {
		ids = append(ids, t.TeamID)
		byID[t.TeamID] = t
	}
	matched, err := cli.ParseCommaSeparatedGlobs(glob, ids)
	if err != nil {
		return nil, fmt.Errorf("--teams-glob: %w", err)
	}
	if len(matched) == 0 {
		return nil, fmt.Errorf("%w: --teams-glob %q matched no configured team_id", model.ErrTaskValidation, glob)
	}
	out := make([]model.TeamConfig, 0, len(matched))
	for _, id := range matched {
		out = append(out, byID[id])
	}
	return out, nil
}

func printSummary(summary model.ExecutionSummary) {
	fmt.Printf("\nExecution %s: %s\n", summary.ExecutionID, summary.Status)
	fmt.Printf("%-12s %-10s %-8s %s\n", "team_id", "score", "rounds", "exit_reason")
	for _, r := range summary.TeamResults {
		if r.Failed {
			fmt.Printf("%-12s %-10s %-8d %s\n", r.TeamID, "-", r.RoundsCompleted, "failed: "+r.FailureReason)
			continue
		}
		fmt.Printf("%-12s %-10.2f %-8d %s\n", r.TeamID, r.Score, r.RoundsCompleted, r.ExitReason)
	}
	if summary.BestTeamID != "" {
		fmt.Printf("\nBest team: %s (score %.2f)\n", summary.BestTeamID, summary.BestScore)
	}
}

func writeSummaryFile(path string, summary model.ExecutionSummary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: creating %s: %v", model.ErrConfiguration, path, err)
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(summary)
}
