// Package roundcontroller implements the Round Controller (C7): the
// per-team state machine that drives rounds until a stopping condition is
// reached, persisting every round's artifacts to the Aggregation Store.
package roundcontroller

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mixseek/mixseek-core/pkg/evaluator"
	"github.com/mixseek/mixseek-core/pkg/judgment"
	"github.com/mixseek/mixseek-core/pkg/leader"
	"github.com/mixseek/mixseek-core/pkg/members"
	"github.com/mixseek/mixseek-core/pkg/model"
	"github.com/mixseek/mixseek-core/pkg/promptbuilder"
	"github.com/mixseek/mixseek-core/pkg/store"
)

// State is the Round Controller's lifecycle state for one team.
type State string

const (
	StateIdle            State = "idle"
	StateRunningRound     State = "running_round"
	StateMaxRoundsReached State = "max_rounds_reached"
	StateEvaluatorError   State = "evaluator_error"
	StateJudgmentStop     State = "judgment_stop"
	StateTimeout          State = "timeout"
	StateFinalized        State = "finalized"
)

// Config is everything one team's Round Controller needs, assembled by the
// Orchestrator from the shared ExecutionTask and the team's own
// TeamConfig.
type Config struct {
	ExecutionID string
	Team        model.TeamConfig
	UserPrompt  string
	MaxRounds   int
	MinRounds   int
	Workspace   string
}

// Controller runs rounds for exactly one team.
type Controller struct {
	cfg       Config
	store     *store.Store
	builder   *promptbuilder.Builder
	leader    *leader.Leader
	eval      *evaluator.Evaluator
	judge     *judgment.Client
	teamMembers []members.Agent

	mu      sync.Mutex
	state   State
	round   int
	lastErr error
}

// New constructs a Round Controller for one team. teamMembers must already
// be resolved (built-in or custom-loaded) Member Agent instances in the
// team's configured order.
func New(cfg Config, st *store.Store, builder *promptbuilder.Builder, ld *leader.Leader, eval *evaluator.Evaluator, judge *judgment.Client, teamMembers []members.Agent) *Controller {
	return &Controller{
		cfg:         cfg,
		store:       st,
		builder:     builder,
		leader:      ld,
		eval:        eval,
		judge:       judge,
		teamMembers: teamMembers,
		state:       StateIdle,
	}
}

// State reports the controller's current lifecycle state, safe to call
// concurrently with Run.
func (c *Controller) State() (State, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.round, c.lastErr
}

func (c *Controller) setState(s State, round int, err error) {
	c.mu.Lock()
	c.state = s
	c.round = round
	c.lastErr = err
	c.mu.Unlock()
}

// Run executes rounds until a stopping condition is reached: max_rounds,
// an evaluator error, a judgment stop (only once min_rounds has been
// reached), or ctx's deadline. It returns a TeamResult built from the
// team's best round, whose ExitReason records why the loop stopped.
func (c *Controller) Run(ctx context.Context) (model.TeamResult, error) {
	var history []model.RoundState
	var best model.RoundState
	bestSet := false

	for roundNumber := 1; ; roundNumber++ {
		c.setState(StateRunningRound, roundNumber, nil)

		select {
		case <-ctx.Done():
			c.setState(StateTimeout, roundNumber-1, ctx.Err())
			return c.finalize(ctx, best, bestSet, model.ExitTimeout, roundNumber-1)
		default:
		}

		round, err := c.runRound(ctx, roundNumber, history)
		if err != nil {
			c.setState(StateEvaluatorError, roundNumber, err)
			if bestSet {
				return c.finalize(ctx, best, bestSet, model.ExitEvaluatorError, roundNumber-1)
			}
			return model.TeamResult{}, fmt.Errorf("round controller: team %s round %d: %w", c.cfg.Team.TeamID, roundNumber, err)
		}

		history = append(history, round)
		if !bestSet || round.EvaluationScore >= best.EvaluationScore {
			best = round
			bestSet = true
		}

		if roundNumber >= c.cfg.MaxRounds {
			c.setState(StateMaxRoundsReached, roundNumber, nil)
			return c.finalize(ctx, best, bestSet, model.ExitMaxRoundsReached, roundNumber)
		}

		if roundNumber >= c.cfg.MinRounds && c.judge != nil {
			pc := c.promptContext(roundNumber, history)
			verdict, jErr := c.judge.JudgeImprovementProspects(ctx, pc)
			if jErr != nil {
				slog.Warn("judgment client call failed, continuing round loop",
					"team_id", c.cfg.Team.TeamID, "round", roundNumber, "error", jErr)
			} else if !verdict.ShouldContinue {
				c.setState(StateJudgmentStop, roundNumber, nil)
				return c.finalize(ctx, best, bestSet, model.ExitJudgmentStop, roundNumber)
			}
		}

		c.writeProgress(roundNumber, string(StateRunningRound))
	}
}

// runRound executes the nine-step per-round algorithm: build prompt, invoke
// the Leader, persist the submissions record, evaluate, write the
// leader-board row, and return the resulting RoundState.
func (c *Controller) runRound(ctx context.Context, roundNumber int, history []model.RoundState) (model.RoundState, error) {
	started := time.Now()
	pc := c.promptContext(roundNumber, history)

	prompt, err := c.builder.RenderTeamPrompt(ctx, pc)
	if err != nil {
		return model.RoundState{}, fmt.Errorf("render team prompt: %w", err)
	}

	leaderResult, err := c.leader.Run(ctx, c.cfg.Team.TeamID, roundNumber, prompt, c.teamMembers)
	if err != nil {
		return model.RoundState{}, fmt.Errorf("leader run: %w", err)
	}

	if c.store != nil {
		if err := c.store.SaveAggregation(ctx, c.cfg.ExecutionID, leaderResult.Record, leaderResult.Messages); err != nil {
			slog.Error("save aggregation failed", "team_id", c.cfg.Team.TeamID, "round", roundNumber, "error", err)
		}
	}

	evalResult, err := c.eval.Evaluate(ctx, evaluator.Request{
		UserQuery:  c.cfg.UserPrompt,
		Submission: leaderResult.Content,
		TeamID:     c.cfg.Team.TeamID,
	})
	if err != nil {
		return model.RoundState{}, fmt.Errorf("evaluate: %w", err)
	}

	ended := time.Now()
	scoreDetails := make(map[string]float64, len(evalResult.Metrics))
	for _, m := range evalResult.Metrics {
		scoreDetails[m.MetricName] = m.Score
	}

	entry := model.LeaderBoardEntry{
		ExecutionID:       c.cfg.ExecutionID,
		TeamID:            c.cfg.Team.TeamID,
		TeamName:          c.cfg.Team.TeamName,
		RoundNumber:       roundNumber,
		SubmissionContent: leaderResult.Content,
		SubmissionFormat:  "text",
		Score:             evalResult.OverallScore,
		ScoreDetails:      scoreDetails,
		CreatedAt:         ended,
	}
	if c.store != nil {
		if err := c.store.SaveToLeaderBoard(ctx, c.cfg.ExecutionID, entry); err != nil {
			slog.Error("save leader board row failed", "team_id", c.cfg.Team.TeamID, "round", roundNumber, "error", err)
		}
		if err := c.store.SaveRoundStatus(ctx, c.cfg.ExecutionID, c.cfg.Team.TeamID, roundNumber, started, ended, "completed", ""); err != nil {
			slog.Error("save round status failed", "team_id", c.cfg.Team.TeamID, "round", roundNumber, "error", err)
		}
	}

	return model.RoundState{
		RoundNumber:       roundNumber,
		SubmissionContent: leaderResult.Content,
		EvaluationScore:   evalResult.OverallScore,
		ScoreDetails:      scoreDetails,
		StartedAt:         started,
		EndedAt:           ended,
	}, nil
}

func (c *Controller) promptContext(roundNumber int, history []model.RoundState) promptbuilder.RoundPromptContext {
	return promptbuilder.RoundPromptContext{
		ExecutionID:  c.cfg.ExecutionID,
		TeamID:       c.cfg.Team.TeamID,
		TeamName:     c.cfg.Team.TeamName,
		UserPrompt:   c.cfg.UserPrompt,
		RoundNumber:  roundNumber,
		RoundHistory: history,
	}
}

// finalize marks the winning round final in the store (highest score wins,
// ties broken in favor of the latest round) and builds the team's result.
func (c *Controller) finalize(ctx context.Context, best model.RoundState, bestSet bool, reason model.ExitReason, roundsCompleted int) (model.TeamResult, error) {
	if !bestSet {
		return model.TeamResult{
			TeamID:        c.cfg.Team.TeamID,
			TeamName:      c.cfg.Team.TeamName,
			ExitReason:    reason,
			Failed:        true,
			FailureReason: "no round completed before stopping",
		}, fmt.Errorf("round controller: team %s: %w: no round completed", c.cfg.Team.TeamID, model.ErrEvaluator)
	}

	if c.store != nil {
		if err := c.store.MarkFinalSubmission(ctx, c.cfg.ExecutionID, c.cfg.Team.TeamID, best.RoundNumber, reason); err != nil {
			slog.Error("mark final submission failed", "team_id", c.cfg.Team.TeamID, "error", err)
		}
	}
	c.setState(StateFinalized, roundsCompleted, nil)
	c.writeProgress(roundsCompleted, string(StateFinalized))

	return model.TeamResult{
		TeamID:            c.cfg.Team.TeamID,
		TeamName:          c.cfg.Team.TeamName,
		Score:             best.EvaluationScore,
		SubmissionContent: best.SubmissionContent,
		ExitReason:        reason,
		RoundsCompleted:   roundsCompleted,
	}, nil
}

// progressFile mirrors the current state to
// <workspace>/.mixseek/progress/<team_id>.json on a best-effort basis;
// failures are logged at debug level and never surfaced to the caller
// (spec.md §9's diagnostics are advisory, not load-bearing).
type progressFile struct {
	TeamID      string `json:"team_id"`
	State       string `json:"state"`
	RoundNumber int    `json:"round_number"`
	UpdatedAt   string `json:"updated_at"`
}

func (c *Controller) writeProgress(roundNumber int, state string) {
	if c.cfg.Workspace == "" {
		return
	}
	dir := filepath.Join(c.cfg.Workspace, ".mixseek", "progress")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Debug("progress dir create failed", "team_id", c.cfg.Team.TeamID, "error", err)
		return
	}
	payload := progressFile{
		TeamID:      c.cfg.Team.TeamID,
		State:       state,
		RoundNumber: roundNumber,
		UpdatedAt:   time.Now().Format(time.RFC3339),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Debug("progress marshal failed", "team_id", c.cfg.Team.TeamID, "error", err)
		return
	}
	safeName := strings.ReplaceAll(c.cfg.Team.TeamID, string(filepath.Separator), "_")
	path := filepath.Join(dir, safeName+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		slog.Debug("progress write failed", "team_id", c.cfg.Team.TeamID, "error", err)
	}
}
