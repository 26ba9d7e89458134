package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/mixseek/mixseek-core/pkg/model"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mixseek.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSaveAggregationIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rec := model.MemberSubmissionsRecord{
		TeamID:      "team-1",
		RoundNumber: 1,
		Submissions: []model.MemberSubmission{
			{AgentName: "a", Status: model.StatusSuccess, Content: "first"},
		},
	}
	require.NoError(t, s.SaveAggregation(ctx, "exec-1", rec, nil))

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM aggregations WHERE execution_id = ?`, "exec-1").Scan(&count))
	require.Equal(t, 1, count)

	// Same key, different content: must overwrite, not duplicate.
	rec.Submissions[0].Content = "second"
	require.NoError(t, s.SaveAggregation(ctx, "exec-1", rec, nil))
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM aggregations WHERE execution_id = ?`, "exec-1").Scan(&count))
	require.Equal(t, 1, count)

	var submissionsJSON string
	require.NoError(t, s.db.QueryRow(`SELECT submissions_json FROM aggregations WHERE execution_id = ?`, "exec-1").Scan(&submissionsJSON))
	require.Contains(t, submissionsJSON, "second")
	require.NotContains(t, submissionsJSON, "first")
}

func TestMarkFinalSubmissionExactlyOneRow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for round := 1; round <= 3; round++ {
		entry := model.LeaderBoardEntry{
			TeamID:      "team-1",
			TeamName:    "Team One",
			RoundNumber: round,
			Score:       float64(round) * 10,
			CreatedAt:   time.Now(),
		}
		require.NoError(t, s.SaveToLeaderBoard(ctx, "exec-1", entry))
	}

	require.NoError(t, s.MarkFinalSubmission(ctx, "exec-1", "team-1", 2, model.ExitMaxRoundsReached))

	var finalCount int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM leader_board WHERE execution_id = ? AND team_id = ? AND final_submission = 1`, "exec-1", "team-1").Scan(&finalCount))
	require.Equal(t, 1, finalCount)

	var finalRound int
	require.NoError(t, s.db.QueryRow(`SELECT round_number FROM leader_board WHERE execution_id = ? AND team_id = ? AND final_submission = 1`, "exec-1", "team-1").Scan(&finalRound))
	require.Equal(t, 2, finalRound)

	// Retrying with a different round must move the final flag, never
	// leave two rows marked final.
	require.NoError(t, s.MarkFinalSubmission(ctx, "exec-1", "team-1", 3, model.ExitJudgmentStop))
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM leader_board WHERE execution_id = ? AND team_id = ? AND final_submission = 1`, "exec-1", "team-1").Scan(&finalCount))
	require.Equal(t, 1, finalCount)
	require.NoError(t, s.db.QueryRow(`SELECT round_number FROM leader_board WHERE execution_id = ? AND team_id = ? AND final_submission = 1`, "exec-1", "team-1").Scan(&finalRound))
	require.Equal(t, 3, finalRound)
}

func TestMarkFinalSubmissionUnknownRoundErrors(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.MarkFinalSubmission(ctx, "exec-1", "team-1", 99, model.ExitMaxRoundsReached)
	require.Error(t, err)
	require.ErrorIs(t, err, model.ErrStore)
}

func TestGetLeaderBoardRankingOrdering(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rows := []model.LeaderBoardEntry{
		{TeamID: "team-b", TeamName: "B", RoundNumber: 1, Score: 50, CreatedAt: time.Now()},
		{TeamID: "team-a", TeamName: "A", RoundNumber: 1, Score: 90, CreatedAt: time.Now()},
		{TeamID: "team-a", TeamName: "A", RoundNumber: 2, Score: 70, CreatedAt: time.Now()},
		{TeamID: "team-c", TeamName: "C", RoundNumber: 1, Score: 90, CreatedAt: time.Now()},
	}
	for _, r := range rows {
		require.NoError(t, s.SaveToLeaderBoard(ctx, "exec-1", r))
	}

	ranking, err := s.GetLeaderBoardRanking(ctx, "exec-1")
	require.NoError(t, err)
	require.Len(t, ranking, 3)

	// team-a and team-c tie at max score 90; team_id ascending breaks the tie.
	require.Equal(t, "team-a", ranking[0].TeamID)
	require.Equal(t, 90.0, ranking[0].MaxScore)
	require.Equal(t, 2, ranking[0].TotalRounds)

	require.Equal(t, "team-c", ranking[1].TeamID)
	require.Equal(t, "team-b", ranking[2].TeamID)
}

func TestGetLeaderBoardRankingEmptyIsNotError(t *testing.T) {
	s := openTestStore(t)
	ranking, err := s.GetLeaderBoardRanking(context.Background(), "no-such-execution")
	require.NoError(t, err)
	require.Empty(t, ranking)
}

func TestSaveExecutionSummaryUpsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	summary := model.ExecutionSummary{
		ExecutionID: "exec-1",
		Status:      model.ExecutionCompleted,
		TotalTeams:  2,
		BestTeamID:  "team-a",
		BestScore:   90,
	}
	require.NoError(t, s.SaveExecutionSummary(ctx, summary, "do the thing"))

	summary.Status = model.ExecutionPartialFailure
	require.NoError(t, s.SaveExecutionSummary(ctx, summary, "do the thing"))

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM execution_summaries WHERE execution_id = ?`, "exec-1").Scan(&count))
	require.Equal(t, 1, count)

	var status string
	require.NoError(t, s.db.QueryRow(`SELECT status FROM execution_summaries WHERE execution_id = ?`, "exec-1").Scan(&status))
	require.Equal(t, string(model.ExecutionPartialFailure), status)
}

func TestSaveRoundStatus(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	start := time.Now()
	end := start.Add(time.Second)
	require.NoError(t, s.SaveRoundStatus(ctx, "exec-1", "team-1", 1, start, end, "completed", ""))

	var status string
	require.NoError(t, s.db.QueryRow(`SELECT status FROM round_status WHERE execution_id = ? AND team_id = ? AND round_number = ?`, "exec-1", "team-1", 1).Scan(&status))
	require.Equal(t, "completed", status)

	require.NoError(t, s.SaveRoundStatus(ctx, "exec-1", "team-1", 1, start, end, "failed", "boom"))
	var errMsg string
	require.NoError(t, s.db.QueryRow(`SELECT error_message FROM round_status WHERE execution_id = ? AND team_id = ? AND round_number = ?`, "exec-1", "team-1", 1).Scan(&errMsg))
	require.Equal(t, "boom", errMsg)
}
