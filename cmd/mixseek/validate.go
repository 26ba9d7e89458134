package main

import (
	"fmt"
	"sort"

	"github.com/mixseek/mixseek-core/pkg/config"
)

// validateConfig loads the orchestrator TOML, every named team TOML, and
// the evaluator TOML, reporting success or the first validation error
// without executing any team. No live store is opened (promptbuilder's
// ranking lookups resolve to "no ranking yet" during validation).
func validateConfig() error {
	configureLogging()

	lc, err := loadAll(nil)
	if err != nil {
		return err
	}

	fmt.Printf("workspace: %s\n", lc.workspace)
	fmt.Printf("config:    %s\n", lc.configPath)
	fmt.Printf("teams (%d):\n", len(lc.teams))
	for _, t := range lc.teams {
		fmt.Printf("  - %s (%s): %d member(s)\n", t.TeamID, t.TeamName, len(t.Members))
	}

	redacted := redactedTrace(lc)
	names := make([]string, 0, len(redacted))
	for k := range redacted {
		names = append(names, k)
	}
	sort.Strings(names)
	fmt.Println("resolved configuration (sensitive values redacted):")
	for _, name := range names {
		fmt.Printf("  %-40s %s\n", name, redacted[name])
	}

	fmt.Println("configuration is valid")
	return nil
}

func redactedTrace(lc loadedConfig) map[string]string {
	merged := map[string]string{}
	for _, t := range lc.teams {
		for k, v := range config.RedactTraces(t.Trace) {
			merged[t.TeamID+"."+k] = v
		}
	}
	return merged
}
