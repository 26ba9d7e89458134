package main

import (
	"fmt"

	"github.com/mixseek/mixseek-core/pkg/cli"
)

// listTeams prints every configured team_id, optionally filtered by a
// comma-separated glob (the same pattern language pkg/cli already applies
// to Augustus's probe/detector/buff selection).
func listTeams(glob string) error {
	configureLogging()

	lc, err := loadAll(nil)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(lc.teams))
	byID := make(map[string]string, len(lc.teams))
	for _, t := range lc.teams {
		ids = append(ids, t.TeamID)
		byID[t.TeamID] = t.TeamName
	}

	selected := ids
	if glob != "" {
		selected, err = cli.ParseCommaSeparatedGlobs(glob, ids)
		if err != nil {
			return fmt.Errorf("--glob: %w", err)
		}
	}

	for _, id := range selected {
		fmt.Printf("%s\t%s\n", id, byID[id])
	}
	return nil
}
