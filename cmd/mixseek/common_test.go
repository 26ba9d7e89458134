package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mixseek/mixseek-core/pkg/model"
)

func TestNewExecutionIDIsUniqueAndNonEmpty(t *testing.T) {
	a := newExecutionID()
	b := newExecutionID()
	if a == "" || b == "" {
		t.Fatal("newExecutionID returned an empty string")
	}
	if a == b {
		t.Errorf("newExecutionID returned the same id twice: %q", a)
	}
}

func TestLogFields(t *testing.T) {
	lc := loadedConfig{workspace: "/ws", configPath: "/ws/orchestrator.toml", teams: []model.TeamConfig{{TeamID: "a"}, {TeamID: "b"}}}
	fields := logFields(lc)

	got := map[any]any{}
	for i := 0; i+1 < len(fields); i += 2 {
		got[fields[i]] = fields[i+1]
	}
	if got["workspace"] != "/ws" || got["config"] != "/ws/orchestrator.toml" || got["teams"] != 2 {
		t.Errorf("logFields = %v, missing expected key/value pairs", got)
	}
}

func TestWriteSummaryFileRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "summary.json")
	summary := model.ExecutionSummary{ExecutionID: "exec-1", Status: model.ExecutionCompleted, BestTeamID: "team-a", BestScore: 88.5}

	if err := writeSummaryFile(path, summary); err != nil {
		t.Fatalf("writeSummaryFile returned error: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading back summary file: %v", err)
	}
	var got model.ExecutionSummary
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshalling summary file: %v", err)
	}
	if got.ExecutionID != "exec-1" || got.BestTeamID != "team-a" || got.BestScore != 88.5 {
		t.Errorf("round-tripped summary = %+v, want exec-1/team-a/88.5", got)
	}
}

func TestWriteSummaryFileBadPathErrors(t *testing.T) {
	err := writeSummaryFile(filepath.Join(t.TempDir(), "no-such-dir", "summary.json"), model.ExecutionSummary{})
	if err == nil {
		t.Fatal("expected an error when the parent directory does not exist")
	}
}

func TestFilterTeamsByGlobSelectsMatching(t *testing.T) {
	teams := []model.TeamConfig{
		{TeamID: "team-a", TeamName: "A"},
		{TeamID: "team-b", TeamName: "B"},
		{TeamID: "qa-1", TeamName: "QA"},
	}

	got, err := filterTeamsByGlob(teams, "team-*")
	if err != nil {
		t.Fatalf("filterTeamsByGlob returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("filterTeamsByGlob matched %d teams, want 2", len(got))
	}
	ids := map[string]bool{}
	for _, tc := range got {
		ids[tc.TeamID] = true
	}
	if !ids["team-a"] || !ids["team-b"] {
		t.Errorf("matched teams = %v, want team-a and team-b", ids)
	}
}

func TestFilterTeamsByGlobNoMatchErrors(t *testing.T) {
	teams := []model.TeamConfig{{TeamID: "team-a"}}
	_, err := filterTeamsByGlob(teams, "nothing-matches-*")
	if err == nil {
		t.Fatal("expected an error when the glob matches no configured team_id")
	}
}

func TestRedactedTraceNamespacesByTeamID(t *testing.T) {
	lc := loadedConfig{
		teams: []model.TeamConfig{
			{TeamID: "team-a", Trace: map[string]model.SourceTrace{"leader.model": {Origin: model.OriginTOML, RawValue: "fake:a"}}},
			{TeamID: "team-b", Trace: map[string]model.SourceTrace{"leader.model": {Origin: model.OriginTOML, RawValue: "fake:b"}}},
		},
	}

	got := redactedTrace(lc)
	if got["team-a.leader.model"] != "fake:a" || got["team-b.leader.model"] != "fake:b" {
		t.Errorf("redactedTrace = %v, want namespaced entries for both teams", got)
	}
}
