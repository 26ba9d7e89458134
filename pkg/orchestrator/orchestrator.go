// Package orchestrator implements the Orchestrator (C8): validates one
// ExecutionTask, pre-loads every team's configuration, and runs all teams
// concurrently, each through its own Round Controller.
//
// The concurrency shape is grounded on pkg/scanner.Scanner.Run: an
// errgroup.WithContext with SetLimit(max_concurrent_teams), a mutex-guarded
// result collector, and per-unit retry via pkg/retry.Do — generalized here
// from "probe" to "team".
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mixseek/mixseek-core/pkg/evaluator"
	"github.com/mixseek/mixseek-core/pkg/judgment"
	"github.com/mixseek/mixseek-core/pkg/leader"
	"github.com/mixseek/mixseek-core/pkg/members"
	"github.com/mixseek/mixseek-core/pkg/model"
	"github.com/mixseek/mixseek-core/pkg/promptbuilder"
	"github.com/mixseek/mixseek-core/pkg/retry"
	"github.com/mixseek/mixseek-core/pkg/roundcontroller"
	"github.com/mixseek/mixseek-core/pkg/store"
	"golang.org/x/sync/errgroup"
)

// TeamBuilder resolves one TeamConfig's Leader, Member Agents, Evaluator,
// and Judgment client. The Orchestrator itself is LLM-provider agnostic;
// this indirection keeps pkg/llm.Dial calls (and custom-plugin loading) out
// of the concurrency engine, matching the Resolver split already used
// between pkg/evaluator and pkg/evaluator/metrics.
type TeamBuilder func(team model.TeamConfig) (*leader.Leader, []members.Agent, *evaluator.Evaluator, *judgment.Client, error)

// Config is one Orchestrator run's resolved, validated input.
type Config struct {
	Task      model.ExecutionTask
	Store     *store.Store
	Builder   *promptbuilder.Builder
	BuildTeam TeamBuilder
}

// Orchestrator runs an ExecutionTask to completion.
type Orchestrator struct {
	cfg    Config
	status sync.Map // team_id -> model.TeamStatus
}

// New validates cfg and constructs an Orchestrator. It rejects an empty
// user_prompt, an unresolvable workspace, and duplicate team_ids before any
// team starts running — the pre-scan-all-then-build-seen-set pattern from
// the original implementation's startup validation.
func New(cfg Config) (*Orchestrator, error) {
	if strings.TrimSpace(cfg.Task.UserPrompt) == "" {
		return nil, fmt.Errorf("%w: user_prompt must not be empty", model.ErrTaskValidation)
	}
	if strings.TrimSpace(cfg.Task.Workspace) == "" {
		return nil, fmt.Errorf("%w: workspace must be set explicitly; no silent cwd fallback", model.ErrConfiguration)
	}
	if len(cfg.Task.Teams) == 0 {
		return nil, fmt.Errorf("%w: at least one team is required", model.ErrTaskValidation)
	}

	seen := make(map[string]struct{}, len(cfg.Task.Teams))
	for _, t := range cfg.Task.Teams {
		if strings.TrimSpace(t.TeamID) == "" {
			return nil, fmt.Errorf("%w: team_id must not be empty", model.ErrTaskValidation)
		}
		if _, dup := seen[t.TeamID]; dup {
			return nil, fmt.Errorf("%w: duplicate team_id %q", model.ErrDuplicateTeamID, t.TeamID)
		}
		seen[t.TeamID] = struct{}{}
	}

	if cfg.Task.MaxConcurrentTeams <= 0 {
		cfg.Task.MaxConcurrentTeams = len(cfg.Task.Teams)
	}

	return &Orchestrator{cfg: cfg}, nil
}

// TeamStatus returns a point-in-time snapshot of one team's execution, or
// false if the team has not yet been scheduled.
func (o *Orchestrator) TeamStatus(teamID string) (model.TeamStatus, bool) {
	v, ok := o.status.Load(teamID)
	if !ok {
		return model.TeamStatus{}, false
	}
	return v.(model.TeamStatus), true
}

// AllTeamStatuses returns every team's current snapshot, sorted by team_id
// for deterministic output.
func (o *Orchestrator) AllTeamStatuses() []model.TeamStatus {
	var out []model.TeamStatus
	o.status.Range(func(_, v any) bool {
		out = append(out, v.(model.TeamStatus))
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].TeamID < out[j].TeamID })
	return out
}

func (o *Orchestrator) setStatus(teamID, state string, round int, errMsg string) {
	o.status.Store(teamID, model.TeamStatus{TeamID: teamID, State: state, RoundNumber: round, Error: errMsg})
}

// Run drives every team concurrently, bounded by max_concurrent_teams, and
// assembles the final ExecutionSummary.
func (o *Orchestrator) Run(ctx context.Context) (model.ExecutionSummary, error) {
	started := time.Now()
	task := o.cfg.Task

	var mu sync.Mutex
	results := make([]model.TeamResult, 0, len(task.Teams))
	var failedTeams []model.FailedTeamInfo

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(task.MaxConcurrentTeams)

	for _, team := range task.Teams {
		team := team
		o.setStatus(team.TeamID, "idle", 0, "")

		g.Go(func() error {
			teamCtx := gctx
			var cancel context.CancelFunc
			if task.TimeoutPerTeamSeconds > 0 {
				teamCtx, cancel = context.WithTimeout(gctx, time.Duration(task.TimeoutPerTeamSeconds)*time.Second)
				defer cancel()
			}

			result, err := o.runTeamWithRetry(teamCtx, team)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				o.setStatus(team.TeamID, "failed", result.RoundsCompleted, err.Error())
				failedTeams = append(failedTeams, model.FailedTeamInfo{TeamID: team.TeamID, Reason: err.Error()})
				results = append(results, model.TeamResult{
					TeamID:        team.TeamID,
					TeamName:      team.TeamName,
					Failed:        true,
					FailureReason: err.Error(),
				})
				// A team's failure never stops sibling teams: swallow the
				// error here instead of returning it to the errgroup.
				return nil
			}
			o.setStatus(team.TeamID, "finalized", result.RoundsCompleted, "")
			results = append(results, result)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return model.ExecutionSummary{}, fmt.Errorf("orchestrator: %w", err)
	}

	summary := buildSummary(task.ExecutionID, results, failedTeams, time.Since(started))
	if o.cfg.Store != nil {
		if err := o.cfg.Store.SaveExecutionSummary(ctx, summary, task.UserPrompt); err != nil {
			slog.Error("save execution summary failed", "execution_id", task.ExecutionID, "error", err)
		}
	}
	return summary, nil
}

// runTeamWithRetry wraps one team's full round loop in pkg/retry.Do,
// retrying only on errors tagged transient (spec.md §7 class 5:
// ErrTransientProvider). Evaluator, judgment, and configuration errors are
// never retried.
func (o *Orchestrator) runTeamWithRetry(ctx context.Context, team model.TeamConfig) (model.TeamResult, error) {
	ld, teamMembers, eval, judgeClient, err := o.cfg.BuildTeam(team)
	if err != nil {
		return model.TeamResult{}, fmt.Errorf("build team %s: %w", team.TeamID, err)
	}

	rc := roundcontroller.New(roundcontroller.Config{
		ExecutionID: o.cfg.Task.ExecutionID,
		Team:        team,
		UserPrompt:  o.cfg.Task.UserPrompt,
		MaxRounds:   o.cfg.Task.MaxRounds,
		MinRounds:   o.cfg.Task.MinRounds,
		Workspace:   o.cfg.Task.Workspace,
	}, o.cfg.Store, o.cfg.Builder, ld, eval, judgeClient, teamMembers)

	var result model.TeamResult
	retryCfg := retry.Config{
		MaxAttempts:  maxInt(o.cfg.Task.MaxRetriesPerTeam, 1),
		InitialDelay: time.Second,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		Jitter:       0.1,
		RetryableFunc: func(err error) bool {
			return isTransient(err)
		},
	}

	err = retry.Do(ctx, retryCfg, func() error {
		r, runErr := rc.Run(ctx)
		if runErr != nil {
			return runErr
		}
		result = r
		return nil
	})
	if err != nil {
		return result, err
	}
	return result, nil
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func isTransient(err error) bool {
	return err != nil && errors.Is(err, model.ErrTransientProvider)
}

func buildSummary(executionID string, results []model.TeamResult, failed []model.FailedTeamInfo, elapsed time.Duration) model.ExecutionSummary {
	sort.Slice(results, func(i, j int) bool { return results[i].TeamID < results[j].TeamID })

	var bestID string
	var bestScore float64
	haveBest := false
	successCount := 0
	for _, r := range results {
		if r.Failed {
			continue
		}
		successCount++
		if !haveBest || r.Score > bestScore || (r.Score == bestScore && r.TeamID < bestID) {
			bestID = r.TeamID
			bestScore = r.Score
			haveBest = true
		}
	}

	status := model.ExecutionCompleted
	switch {
	case successCount == 0:
		status = model.ExecutionFailed
	case len(failed) > 0:
		status = model.ExecutionPartialFailure
	}

	return model.ExecutionSummary{
		ExecutionID:        executionID,
		Status:             status,
		TeamResults:        results,
		TotalTeams:         len(results),
		BestTeamID:         bestID,
		BestScore:          bestScore,
		TotalExecutionTime: elapsed,
		FailedTeamsInfo:    failed,
	}
}
