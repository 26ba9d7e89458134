package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/alecthomas/kong"

	// Import for side effects: register each Member Agent variant via
	// init(), the same pattern the teacher uses to register probes,
	// generators, detectors, and harnesses.
	_ "github.com/mixseek/mixseek-core/internal/members/codeexec"
	_ "github.com/mixseek/mixseek-core/internal/members/custom"
	_ "github.com/mixseek/mixseek-core/internal/members/plain"
	_ "github.com/mixseek/mixseek-core/internal/members/webfetch"
	_ "github.com/mixseek/mixseek-core/internal/members/websearch"

	"github.com/mixseek/mixseek-core/pkg/model"
)

func main() {
	// Kong's own parse/usage errors are always a configuration problem
	// (spec.md §6 exit code 1), unlike the teacher's split between usage
	// errors (2) and runtime errors (1) — MixSeek's exit codes are:
	// 0 = success, 1 = configuration/validation error, 2 = all teams failed.
	ctx := kong.Parse(&CLI,
		kong.Name("mixseek"),
		kong.Description("MixSeek - multi-team competitive LLM evaluation runtime"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
		kong.Exit(func(code int) {
			if code != 0 {
				os.Exit(1)
			}
			os.Exit(0)
		}),
	)

	err := ctx.Run()
	if err == nil {
		os.Exit(0)
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	switch {
	case errors.Is(err, errAllTeamsFailed):
		os.Exit(2)
	case errors.Is(err, model.ErrConfiguration), errors.Is(err, model.ErrTaskValidation), errors.Is(err, model.ErrDuplicateTeamID):
		os.Exit(1)
	default:
		os.Exit(1)
	}
}
