package llm

import (
	"os"
	"strings"
)

// AuthInfo describes whether provider credentials are present for a model
// reference, without performing authentication itself. It exists purely
// for pre-flight diagnostics, mirroring the original orchestrator's
// get_auth_info debug hook.
type AuthInfo struct {
	Provider    string
	EnvVar      string
	CredentialPresent bool
}

var providerEnvVars = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"google":    "GOOGLE_API_KEY",
	"grok":      "GROK_API_KEY",
	"bedrock":   "AWS_REGION",
	"replicate": "REPLICATE_API_TOKEN",
}

// DescribeAuth reports which provider-native environment variable a model
// reference depends on and whether it is currently set. It performs no
// network calls and never returns the credential value itself.
func DescribeAuth(modelRef string) AuthInfo {
	provider, _, _ := strings.Cut(modelRef, ":")
	envVar, known := providerEnvVars[provider]
	if !known {
		return AuthInfo{Provider: provider}
	}
	return AuthInfo{
		Provider:          provider,
		EnvVar:            envVar,
		CredentialPresent: os.Getenv(envVar) != "",
	}
}
