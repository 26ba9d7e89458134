// Package store implements the Aggregation Store (C1): an embedded,
// process-lifetime analytical store of per-round records, final
// leader-board selections, and cross-team ranking queries.
//
// It is backed by modernc.org/sqlite, the pure-Go (CGO-free) SQLite driver
// also reached for by other repos in the retrieved example pack. The
// original Python implementation used DuckDB; no example repo in the pack
// carries a mature pure-Go DuckDB binding, so sqlite is the closest
// idiomatic Go substitute for "one embedded analytical store file in the
// workspace"; DESIGN.md records the choice under C1.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/mixseek/mixseek-core/pkg/model"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS round_status (
	execution_id TEXT NOT NULL,
	team_id TEXT NOT NULL,
	round_number INTEGER NOT NULL,
	started_at TEXT,
	ended_at TEXT,
	status TEXT,
	error_message TEXT,
	PRIMARY KEY (execution_id, team_id, round_number)
);

CREATE TABLE IF NOT EXISTS leader_board (
	execution_id TEXT NOT NULL,
	team_id TEXT NOT NULL,
	team_name TEXT,
	round_number INTEGER NOT NULL,
	submission_content TEXT,
	submission_format TEXT,
	score REAL,
	score_details TEXT,
	final_submission INTEGER NOT NULL DEFAULT 0,
	exit_reason TEXT,
	created_at TEXT,
	PRIMARY KEY (execution_id, team_id, round_number)
);

CREATE TABLE IF NOT EXISTS aggregations (
	execution_id TEXT NOT NULL,
	team_id TEXT NOT NULL,
	round_number INTEGER NOT NULL,
	submissions_json TEXT,
	leader_messages_json TEXT,
	PRIMARY KEY (execution_id, team_id, round_number)
);

CREATE TABLE IF NOT EXISTS execution_summaries (
	execution_id TEXT PRIMARY KEY,
	user_prompt TEXT,
	status TEXT,
	team_results_json TEXT,
	total_teams INTEGER,
	best_team_id TEXT,
	best_score REAL,
	total_execution_time_seconds REAL,
	created_at TEXT
);
`

// Store is the Aggregation Store. Safe for concurrent use by multiple
// Round Controllers; sqlite itself serializes writers, and
// mark_final_submission additionally holds mu across its read-then-write
// to guarantee the "exactly one final row" invariant atomically.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open creates or attaches to the sqlite file at path and ensures the
// logical tables described in spec.md §6 exist.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: open store: %v", model.ErrStore, err)
	}
	db.SetMaxOpenConns(1) // sqlite: single-writer discipline
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: migrate store: %v", model.ErrStore, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// SaveAggregation persists one MemberSubmissionsRecord and its leader
// messages. Idempotent per (execution_id, team_id, round_number): a second
// call with the same key overwrites, not duplicates.
func (s *Store) SaveAggregation(ctx context.Context, executionID string, rec model.MemberSubmissionsRecord, leaderMessages []model.ChatMessage) error {
	submissionsJSON, err := json.Marshal(rec.Submissions)
	if err != nil {
		return fmt.Errorf("%w: marshal submissions: %v", model.ErrStore, err)
	}
	messagesJSON, err := json.Marshal(leaderMessages)
	if err != nil {
		return fmt.Errorf("%w: marshal leader messages: %v", model.ErrStore, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO aggregations (execution_id, team_id, round_number, submissions_json, leader_messages_json)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(execution_id, team_id, round_number) DO UPDATE SET
			submissions_json = excluded.submissions_json,
			leader_messages_json = excluded.leader_messages_json
	`, executionID, rec.TeamID, rec.RoundNumber, string(submissionsJSON), string(messagesJSON))
	if err != nil {
		return fmt.Errorf("%w: save aggregation: %v", model.ErrStore, err)
	}
	return nil
}

// SaveToLeaderBoard appends (or, for the same key, overwrites) one row.
func (s *Store) SaveToLeaderBoard(ctx context.Context, executionID string, entry model.LeaderBoardEntry) error {
	detailsJSON, err := json.Marshal(entry.ScoreDetails)
	if err != nil {
		return fmt.Errorf("%w: marshal score details: %v", model.ErrStore, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO leader_board (execution_id, team_id, team_name, round_number, submission_content, submission_format, score, score_details, final_submission, exit_reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
		ON CONFLICT(execution_id, team_id, round_number) DO UPDATE SET
			team_name = excluded.team_name,
			submission_content = excluded.submission_content,
			submission_format = excluded.submission_format,
			score = excluded.score,
			score_details = excluded.score_details,
			exit_reason = excluded.exit_reason,
			created_at = excluded.created_at
	`, executionID, entry.TeamID, entry.TeamName, entry.RoundNumber, entry.SubmissionContent, entry.SubmissionFormat, entry.Score, string(detailsJSON), entry.ExitReason, entry.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("%w: save leader board row: %v", model.ErrStore, err)
	}
	return nil
}

// MarkFinalSubmission sets final_submission=true on exactly one row per
// (execution_id, team_id), clearing any prior final flag for that pair in
// the same transaction. Last call wins, satisfying the round-trip
// idempotence law even under retry-induced clock skew.
func (s *Store) MarkFinalSubmission(ctx context.Context, executionID, teamID string, roundNumber int, reason model.ExitReason) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin mark_final_submission: %v", model.ErrStore, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `UPDATE leader_board SET final_submission = 0 WHERE execution_id = ? AND team_id = ?`, executionID, teamID); err != nil {
		return fmt.Errorf("%w: clear prior final flag: %v", model.ErrStore, err)
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE leader_board SET final_submission = 1, exit_reason = ?
		WHERE execution_id = ? AND team_id = ? AND round_number = ?
	`, reason, executionID, teamID, roundNumber)
	if err != nil {
		return fmt.Errorf("%w: set final flag: %v", model.ErrStore, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: mark_final_submission: no leader_board row for team %q round %d", model.ErrStore, teamID, roundNumber)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit mark_final_submission: %v", model.ErrStore, err)
	}
	return nil
}

// GetLeaderBoardRanking returns the cross-team ranking: max score per team,
// descending, ties broken by team_id ascending. An empty result is a
// normal (not error) outcome.
func (s *Store) GetLeaderBoardRanking(ctx context.Context, executionID string) ([]model.LeaderBoardRanking, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT team_id, team_name, MAX(score) AS max_score, COUNT(*) AS total_rounds
		FROM leader_board
		WHERE execution_id = ?
		GROUP BY team_id
		ORDER BY max_score DESC, team_id ASC
	`, executionID)
	if err != nil {
		return nil, fmt.Errorf("%w: ranking query: %v", model.ErrStore, err)
	}
	defer rows.Close()

	var out []model.LeaderBoardRanking
	for rows.Next() {
		var r model.LeaderBoardRanking
		if err := rows.Scan(&r.TeamID, &r.TeamName, &r.MaxScore, &r.TotalRounds); err != nil {
			return nil, fmt.Errorf("%w: scan ranking row: %v", model.ErrStore, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveExecutionSummary persists one row per execution.
func (s *Store) SaveExecutionSummary(ctx context.Context, summary model.ExecutionSummary, userPrompt string) error {
	resultsJSON, err := json.Marshal(summary.TeamResults)
	if err != nil {
		return fmt.Errorf("%w: marshal team results: %v", model.ErrStore, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO execution_summaries (execution_id, user_prompt, status, team_results_json, total_teams, best_team_id, best_score, total_execution_time_seconds, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(execution_id) DO UPDATE SET
			status = excluded.status,
			team_results_json = excluded.team_results_json,
			total_teams = excluded.total_teams,
			best_team_id = excluded.best_team_id,
			best_score = excluded.best_score,
			total_execution_time_seconds = excluded.total_execution_time_seconds
	`, summary.ExecutionID, userPrompt, summary.Status, string(resultsJSON), summary.TotalTeams, summary.BestTeamID, summary.BestScore, summary.TotalExecutionTime.Seconds(), time.Now().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("%w: save execution summary: %v", model.ErrStore, err)
	}
	return nil
}

// SaveRoundStatus records one round_status row, used by the Round
// Controller's progress tracking alongside the best-effort progress file.
func (s *Store) SaveRoundStatus(ctx context.Context, executionID, teamID string, roundNumber int, startedAt, endedAt time.Time, status, errMsg string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO round_status (execution_id, team_id, round_number, started_at, ended_at, status, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(execution_id, team_id, round_number) DO UPDATE SET
			ended_at = excluded.ended_at,
			status = excluded.status,
			error_message = excluded.error_message
	`, executionID, teamID, roundNumber, startedAt.Format(time.RFC3339), endedAt.Format(time.RFC3339), status, errMsg)
	if err != nil {
		return fmt.Errorf("%w: save round status: %v", model.ErrStore, err)
	}
	return nil
}
