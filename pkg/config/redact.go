package config

import (
	"strings"

	"github.com/mixseek/mixseek-core/pkg/model"
)

// sensitivePatterns are field-name substrings that mark a configuration
// value as sensitive (spec.md §9). Matching is case-insensitive and
// substring-based, so "api_key" also catches "openai_api_key" etc.
var sensitivePatterns = []string{"api_key", "password", "secret", "token", "credential", "private_key"}

// allowList names fields that would otherwise match a sensitive pattern
// but are not secrets (e.g. max_tokens contains "token").
var allowList = map[string]struct{}{
	"max_tokens":      {},
	"auth_url":        {},
	"timeout_seconds": {},
}

const redactedPlaceholder = "[REDACTED]"

// RedactValue returns placeholder redactedPlaceholder if fieldName looks
// sensitive, otherwise returns value unchanged. Intended for debug/log
// output only; it never mutates stored configuration.
func RedactValue(fieldName, value string) string {
	if IsSensitiveField(fieldName) {
		return redactedPlaceholder
	}
	return value
}

// IsSensitiveField reports whether fieldName matches a sensitive pattern
// and isn't on the allow list. fieldName may be a dotted trace key such as
// "team.leader.max_tokens"; the allow list is checked against its last
// segment.
func IsSensitiveField(fieldName string) bool {
	lower := strings.ToLower(fieldName)
	leaf := lower[strings.LastIndex(lower, ".")+1:]
	if _, allowed := allowList[leaf]; allowed {
		return false
	}
	for _, pattern := range sensitivePatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}

// RedactTraces returns a copy of traces with every sensitive RawValue
// replaced, safe to print in logs or CLI diagnostics.
func RedactTraces(traces map[string]model.SourceTrace) map[string]string {
	out := make(map[string]string, len(traces))
	for name, v := range traces {
		out[name] = RedactValue(name, v.RawValue)
	}
	return out
}
