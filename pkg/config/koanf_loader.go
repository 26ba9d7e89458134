package config

import (
	"fmt"
	"os"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/mixseek/mixseek-core/pkg/model"
)

// LoadTeamConfig loads and validates one team TOML file. It does not apply
// CLI/env/dotenv layering — team files are named by the orchestrator TOML
// and loaded directly by path (spec.md §6).
func LoadTeamConfig(path string) (TeamFileConfig, map[string]model.SourceTrace, error) {
	var cfg TeamFileConfig
	traces, err := Load(&cfg, path, nil, "")
	if err != nil {
		return TeamFileConfig{}, nil, err
	}
	if err := cfg.Team.Validate(); err != nil {
		return TeamFileConfig{}, nil, fmt.Errorf("%w: %v", model.ErrConfiguration, err)
	}
	return cfg, traces, nil
}

// LoadOrchestratorConfig loads the top-level orchestrator TOML, applying
// the standard CLI > env > dotenv precedence on top of it.
func LoadOrchestratorConfig(path string, flags *pflag.FlagSet, dotenvPath string) (OrchestratorFileConfig, map[string]model.SourceTrace, error) {
	var cfg OrchestratorFileConfig
	traces, err := Load(&cfg, path, flags, dotenvPath)
	if err != nil {
		return OrchestratorFileConfig{}, nil, err
	}
	if err := cfg.Orchestrator.Validate(); err != nil {
		return OrchestratorFileConfig{}, nil, fmt.Errorf("%w: %v", model.ErrConfiguration, err)
	}
	return cfg, traces, nil
}

// LoadEvaluatorConfig loads and validates one evaluator TOML file, given
// workspace-relative evaluatorPath as named by the orchestrator TOML.
func LoadEvaluatorConfig(evaluatorPath string) (EvaluatorFileConfig, map[string]model.SourceTrace, error) {
	var cfg EvaluatorFileConfig
	traces, err := Load(&cfg, evaluatorPath, nil, "")
	if err != nil {
		return EvaluatorFileConfig{}, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return EvaluatorFileConfig{}, nil, fmt.Errorf("%w: %v", model.ErrConfiguration, err)
	}
	return cfg, traces, nil
}

// LoadPromptBuilderConfig loads the optional prompt_builder.toml overrides.
// An empty path is valid and returns a zero-value config (all three
// templates fall back to pkg/promptbuilder's built-in defaults).
func LoadPromptBuilderConfig(path string) (PromptBuilderFileConfig, map[string]model.SourceTrace, error) {
	if path == "" {
		return PromptBuilderFileConfig{}, nil, nil
	}
	var cfg PromptBuilderFileConfig
	traces, err := Load(&cfg, path, nil, "")
	if err != nil {
		return PromptBuilderFileConfig{}, nil, err
	}
	return cfg, traces, nil
}

// readRawTOML returns the unvalidated raw TOML document for diagnostics
// without unmarshalling into a typed struct. Nothing in the module calls
// it; the CLI's validate-config subcommand goes through the typed loaders.
func readRawTOML(path string) (map[string]any, error) {
	k := koanf.New(".")
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrConfiguration, err)
	}
	if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrConfiguration, err)
	}
	return k.Raw(), nil
}
