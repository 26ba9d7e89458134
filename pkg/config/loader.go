package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/mixseek/mixseek-core/pkg/model"
)

// EnvPrefix is the MIXSEEK_ prefix env vars use for core configuration.
// Provider credentials (OPENAI_API_KEY etc.) deliberately bypass this
// prefix — see pkg/llm/auth.go.
const EnvPrefix = "MIXSEEK_"

// Load layers one TOML config file under CLI flags, MIXSEEK_ environment
// variables, and a .env file, in that precedence order (highest first),
// and unmarshals the result into dst. flags may be nil when no CLI flags
// apply to this config (e.g. a team TOML loaded purely by path).
//
// Precedence, highest to lowest: CLI flags > MIXSEEK_ env vars > .env file
// > the TOML file itself > dst's pre-set zero values (defaults).
func Load(dst any, tomlPath string, flags *pflag.FlagSet, dotenvPath string) (map[string]model.SourceTrace, error) {
	k := koanf.New(".")
	traces := make(map[string]model.SourceTrace)
	now := func() time.Time { return time.Now() }

	if tomlPath != "" {
		if _, err := os.Stat(tomlPath); err != nil {
			return nil, fmt.Errorf("%w: config file %s: %v", model.ErrConfiguration, tomlPath, err)
		}
		if err := k.Load(file.Provider(tomlPath), toml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: parsing %s: %v", model.ErrConfiguration, tomlPath, err)
		}
		for _, key := range k.Keys() {
			traces[key] = model.SourceTrace{Origin: model.OriginTOML, Name: tomlPath, RawValue: fmt.Sprintf("%v", k.Get(key)), LoadedAt: now()}
		}
	}

	if dotenvPath != "" {
		if _, err := os.Stat(dotenvPath); err == nil {
			vars, err := godotenv.Read(dotenvPath)
			if err != nil {
				return nil, fmt.Errorf("%w: parsing dotenv %s: %v", model.ErrConfiguration, dotenvPath, err)
			}
			for key, val := range vars {
				if err := k.Set(envKeyToPath(key), val); err != nil {
					return nil, fmt.Errorf("%w: dotenv key %s: %v", model.ErrConfiguration, key, err)
				}
				traces[envKeyToPath(key)] = model.SourceTrace{Origin: model.OriginDotenv, Name: key, RawValue: val, LoadedAt: now()}
			}
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKeyToPath), nil); err != nil {
		return nil, fmt.Errorf("%w: loading %s* environment variables: %v", model.ErrConfiguration, EnvPrefix, err)
	}
	for _, envVar := range os.Environ() {
		name, _, found := strings.Cut(envVar, "=")
		if !found || !strings.HasPrefix(name, EnvPrefix) {
			continue
		}
		traces[envKeyToPath(name)] = model.SourceTrace{Origin: model.OriginEnv, Name: name, RawValue: os.Getenv(name), LoadedAt: now()}
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("%w: loading CLI flags: %v", model.ErrConfiguration, err)
		}
		flags.Visit(func(f *pflag.Flag) {
			traces[f.Name] = model.SourceTrace{Origin: model.OriginCLI, Name: "--" + f.Name, RawValue: f.Value.String(), LoadedAt: now()}
		})
	}

	if err := k.UnmarshalWithConf("", dst, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: unmarshal: %v", model.ErrConfiguration, err)
	}

	v := validator.New()
	if err := v.Struct(dst); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrConfiguration, err)
	}

	return traces, nil
}

// envKeyToPath converts MIXSEEK_RUN__TIMEOUT-style env var names to
// run.timeout koanf paths: the MIXSEEK_ prefix is stripped, a double
// underscore becomes a dot, and the remainder is lowercased.
func envKeyToPath(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	s = strings.ReplaceAll(s, "__", ".")
	return strings.ToLower(s)
}

// ResolveWorkspace applies the "no implicit fallback" rule (spec.md §6/§7):
// MIXSEEK_WORKSPACE / MIXSEEK_WORKSPACE_PATH or an explicit CLI flag value
// must resolve the workspace; an empty result is always an error naming
// both expected sources, never a silent os.Getwd().
func ResolveWorkspace(cliValue string) (string, model.SourceTrace, error) {
	now := time.Now()
	if cliValue != "" {
		abs, err := filepath.Abs(cliValue)
		if err != nil {
			return "", model.SourceTrace{}, fmt.Errorf("%w: resolving workspace %q: %v", model.ErrConfiguration, cliValue, err)
		}
		return abs, model.SourceTrace{Origin: model.OriginCLI, Name: "--workspace", RawValue: cliValue, LoadedAt: now}, nil
	}
	for _, envVar := range []string{"MIXSEEK_WORKSPACE", "MIXSEEK_WORKSPACE_PATH"} {
		if v := os.Getenv(envVar); v != "" {
			abs, err := filepath.Abs(v)
			if err != nil {
				return "", model.SourceTrace{}, fmt.Errorf("%w: resolving workspace from %s: %v", model.ErrConfiguration, envVar, err)
			}
			return abs, model.SourceTrace{Origin: model.OriginEnv, Name: envVar, RawValue: v, LoadedAt: now}, nil
		}
	}
	return "", model.SourceTrace{}, fmt.Errorf("%w: workspace unresolvable: set --workspace or MIXSEEK_WORKSPACE/MIXSEEK_WORKSPACE_PATH", model.ErrConfiguration)
}

// ConfigFilePath resolves the orchestrator config file path: an explicit
// CLI value (relative to workspace unless absolute), else
// MIXSEEK_CONFIG_FILE, else the "config.toml" default relative to
// workspace.
func ConfigFilePath(cliValue, workspace string) (string, model.SourceTrace) {
	now := time.Now()
	if cliValue != "" {
		path := cliValue
		if !filepath.IsAbs(path) {
			path = filepath.Join(workspace, path)
		}
		return path, model.SourceTrace{Origin: model.OriginCLI, Name: "--config", RawValue: cliValue, LoadedAt: now}
	}
	if v := os.Getenv("MIXSEEK_CONFIG_FILE"); v != "" {
		return v, model.SourceTrace{Origin: model.OriginEnv, Name: "MIXSEEK_CONFIG_FILE", RawValue: v, LoadedAt: now}
	}
	path := filepath.Join(workspace, "config.toml")
	return path, model.SourceTrace{Origin: model.OriginDefault, Name: "config.toml", RawValue: path, LoadedAt: now}
}
