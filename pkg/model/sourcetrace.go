package model

import "time"

// SourceOrigin names which configuration layer resolved a field.
type SourceOrigin string

const (
	OriginCLI     SourceOrigin = "cli"
	OriginEnv     SourceOrigin = "env"
	OriginDotenv  SourceOrigin = "dotenv"
	OriginTOML    SourceOrigin = "toml"
	OriginDefault SourceOrigin = "default"
)

// SourceTrace records the provenance of one loaded configuration field.
// It is attached but never consulted by the core state machine; components
// must propagate it without dropping it.
type SourceTrace struct {
	Origin    SourceOrigin
	Name      string // e.g. file path, env var name, or "default"
	RawValue  string
	LoadedAt  time.Time
}
