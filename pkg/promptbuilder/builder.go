package promptbuilder

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mixseek/mixseek-core/pkg/model"
)

// RankingSource is the read-only view of the Aggregation Store the Prompt
// Builder needs for cross-team ranking. pkg/store.Store satisfies it; tests
// may supply a fixed in-memory stand-in to pin ranking-dependent output, per
// the design note on the ranking feedback loop's documented
// non-determinism.
type RankingSource interface {
	GetLeaderBoardRanking(ctx context.Context, executionID string) ([]model.LeaderBoardRanking, error)
}

// Clock returns the current wall-clock time; injectable so tests can pin
// current_datetime.
type Clock func() time.Time

const (
	defaultTeamTemplate = "{{ user_prompt }}\n\n" +
		"ラウンド {{ round_number }}\n\n" +
		"{{ submission_history }}\n\n" +
		"{{ ranking_table }}\n\n" +
		"{{ team_position_message }}\n\n" +
		"現在時刻: {{ current_datetime }}"

	defaultEvaluatorTemplate = "ユーザーの質問:\n{{ user_query }}\n\n" +
		"提出内容:\n{{ submission }}"

	defaultJudgmentTemplate = defaultTeamTemplate

	noPriorSubmissions = "まだ過去のSubmissionはありません。"
	noRankingYet       = "まだランキング情報がありません。"
	noTeamPositionYet  = "まだあなたのチームの順位はありません。"
)

// Templates holds the three optionally user-overridden template strings.
type Templates struct {
	Team      string
	Evaluator string
	Judgment  string
}

// Builder renders the three prompt kinds the system consumes.
type Builder struct {
	templates Templates
	store     RankingSource
	clock     Clock
}

// New constructs a Builder. A zero-value Templates uses the built-in
// defaults for every unset field. A nil store is valid: ranking renders as
// empty (spec.md §4.2).
func New(templates Templates, store RankingSource, clock Clock) *Builder {
	if templates.Team == "" {
		templates.Team = defaultTeamTemplate
	}
	if templates.Evaluator == "" {
		templates.Evaluator = defaultEvaluatorTemplate
	}
	if templates.Judgment == "" {
		templates.Judgment = defaultJudgmentTemplate
	}
	if clock == nil {
		clock = time.Now
	}
	return &Builder{templates: templates, store: store, clock: clock}
}

// RoundPromptContext is the shared input to the team and judgment prompts.
type RoundPromptContext struct {
	ExecutionID  string
	TeamID       string
	TeamName     string
	UserPrompt   string
	RoundNumber  int
	RoundHistory []model.RoundState
}

// RenderTeamPrompt builds the per-round prompt for the team Leader.
func (b *Builder) RenderTeamPrompt(ctx context.Context, pc RoundPromptContext) (string, error) {
	vars, err := b.commonVars(ctx, pc)
	if err != nil {
		return "", err
	}
	return Render("team_prompt", b.templates.Team, vars)
}

// RenderJudgmentPrompt builds the prompt for the Judgment LLM; it consumes
// the same RoundPromptContext as the team prompt.
func (b *Builder) RenderJudgmentPrompt(ctx context.Context, pc RoundPromptContext) (string, error) {
	vars, err := b.commonVars(ctx, pc)
	if err != nil {
		return "", err
	}
	return Render("judgment_prompt", b.templates.Judgment, vars)
}

// RenderEvaluatorPrompt builds the prompt for the Evaluator's LLM-judge
// metrics, which consume only the user query and the submission text.
func (b *Builder) RenderEvaluatorPrompt(userQuery, submission string) (string, error) {
	vars := map[string]string{
		"user_query": userQuery,
		"submission": submission,
	}
	return Render("evaluator_prompt", b.templates.Evaluator, vars)
}

func (b *Builder) commonVars(ctx context.Context, pc RoundPromptContext) (map[string]string, error) {
	ranking, err := b.ranking(ctx, pc.ExecutionID)
	if err != nil {
		return nil, fmt.Errorf("prompt builder: %w", err)
	}
	return map[string]string{
		"user_prompt":            pc.UserPrompt,
		"round_number":           fmt.Sprintf("%d", pc.RoundNumber),
		"submission_history":     renderSubmissionHistory(pc.RoundHistory),
		"ranking_table":          renderRankingTable(ranking, pc.TeamID),
		"team_position_message":  renderTeamPosition(ranking, pc.TeamID),
		"current_datetime":       b.clock().Format(time.RFC3339),
	}, nil
}

func (b *Builder) ranking(ctx context.Context, executionID string) ([]model.LeaderBoardRanking, error) {
	if b.store == nil {
		return nil, nil
	}
	return b.store.GetLeaderBoardRanking(ctx, executionID)
}

func renderSubmissionHistory(history []model.RoundState) string {
	if len(history) == 0 {
		return noPriorSubmissions
	}
	sorted := make([]model.RoundState, len(history))
	copy(sorted, history)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].RoundNumber < sorted[j].RoundNumber })

	var sb strings.Builder
	for _, r := range sorted {
		fmt.Fprintf(&sb, "ラウンド %d\n", r.RoundNumber)
		fmt.Fprintf(&sb, "スコア: %.2f/100\n", r.EvaluationScore)
		sb.WriteString(r.SubmissionContent)
		sb.WriteString("\n\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderRankingTable(ranking []model.LeaderBoardRanking, teamID string) string {
	if len(ranking) == 0 {
		return noRankingYet
	}
	var sb strings.Builder
	for i, row := range ranking {
		marker := ""
		if row.TeamID == teamID {
			marker = " (あなたのチーム)"
		}
		fmt.Fprintf(&sb, "%d. %s: %.2f%s\n", i+1, row.TeamName, row.MaxScore, marker)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func renderTeamPosition(ranking []model.LeaderBoardRanking, teamID string) string {
	if len(ranking) == 0 {
		return noTeamPositionYet
	}
	rank := -1
	for i, row := range ranking {
		if row.TeamID == teamID {
			rank = i + 1
			break
		}
	}
	if rank == -1 {
		return noTeamPositionYet
	}
	total := len(ranking)
	switch {
	case rank == 1:
		return fmt.Sprintf("おめでとうございます！あなたのチームは%dチーム中1位です。", total)
	case rank == 2:
		return fmt.Sprintf("素晴らしい！あなたのチームは%dチーム中2位です。", total)
	case rank == total:
		return fmt.Sprintf("あなたのチームは%dチーム中最下位（%d位）です。", total, rank)
	default:
		return fmt.Sprintf("あなたのチームは%dチーム中%d位です。", total, rank)
	}
}
