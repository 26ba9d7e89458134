package main

import (
	"fmt"

	"github.com/alecthomas/kong"
)

// CLI is MixSeek's command-line surface (spec.md §6).
var CLI struct {
	Workspace string `help:"Workspace root directory." env:"MIXSEEK_WORKSPACE" name:"workspace"`
	Config    string `help:"Orchestrator TOML config path, relative to workspace unless absolute." name:"config"`
	Dotenv    string `help:"Path to a .env file layered between MIXSEEK_ env vars and the TOML file." name:"dotenv" type:"path"`
	LogLevel  string `help:"Log level." enum:"debug,info,warn,error" default:"info" name:"log-level"`
	LogFormat string `help:"Log output format." enum:"text,json" default:"text" name:"log-format"`

	Run            RunCmd            `cmd:"" help:"Execute one ExecutionTask across all configured teams."`
	ValidateConfig ValidateConfigCmd `cmd:"" name:"validate-config" help:"Load and validate configuration without executing."`
	ListTeams      ListTeamsCmd      `cmd:"" name:"list-teams" help:"List the teams named by the orchestrator config."`
	Version        VersionCmd        `cmd:"" help:"Print version information."`
	Help           HelpCmd           `cmd:"" hidden:"" default:"1"`
}

// HelpCmd prints top-level help, matching the teacher's PrintUsage idiom.
type HelpCmd struct{}

func (h *HelpCmd) Run(ctx *kong.Context) error {
	appCtx := *ctx
	if len(appCtx.Path) > 1 {
		appCtx.Path = appCtx.Path[:1]
	}
	return appCtx.PrintUsage(false)
}

// RunCmd executes an ExecutionTask.
type RunCmd struct {
	UserPrompt           string `help:"The shared task prompt every team competes on." name:"user-prompt" required:""`
	MaxConcurrentTeams   int    `help:"Override orchestrator.max_concurrent_teams." name:"max-concurrent-teams"`
	TimeoutPerTeamSecond int    `help:"Override orchestrator.timeout_per_team_seconds." name:"timeout-per-team-seconds"`
	TeamsGlob            string `help:"Comma-separated glob patterns selecting a subset of configured team_ids." name:"teams-glob"`
	SummaryOut           string `help:"Write the JSON ExecutionSummary to this path in addition to the workspace database." name:"summary-out" type:"path"`
}

func (r *RunCmd) Run() error {
	return runExecution(r)
}

// ValidateConfigCmd loads every configured file and reports validation
// errors without running any team.
type ValidateConfigCmd struct{}

func (v *ValidateConfigCmd) Run() error {
	return validateConfig()
}

// ListTeamsCmd lists the team_ids named by the orchestrator config,
// optionally filtered by a glob.
type ListTeamsCmd struct {
	Glob string `help:"Comma-separated glob patterns over team_id (e.g. 'team-a,qa-*')." name:"glob"`
}

func (l *ListTeamsCmd) Run() error {
	return listTeams(l.Glob)
}

func printVersion() {
	fmt.Printf("mixseek %s\n", version)
}
