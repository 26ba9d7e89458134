// Package members defines the Member Agent contract (C5): a uniform
// execute(task, context) → Result interface implemented by the plain,
// web_search, web_fetch, code_execution, and custom agent variants in
// internal/members/*.
package members

import (
	"context"
	"strings"

	"github.com/mixseek/mixseek-core/pkg/model"
	"github.com/mixseek/mixseek-core/pkg/registry"
)

// Agent is the uniform contract every Member Agent variant satisfies.
type Agent interface {
	// Execute runs task with the given context variables and returns a
	// uniform result regardless of the agent's underlying capabilities.
	Execute(ctx context.Context, task string, vars map[string]string) model.MemberAgentResult
	// Name is the agent's configured agent_name, unique within its team.
	Name() string
	// Type is the agent's configured agent_type.
	Type() model.AgentType
	// Description is shown to the Leader LLM as the delegated tool's
	// description.
	Description() string
}

// Registry is the compile-time registry of Member Agent constructors,
// keyed by agent_type. Custom plugins never register here (spec.md §4.5,
// §9): they are constructed directly by the plugin loader and handed to
// the Leader without ever touching this registry.
var Registry = registry.New[func(registry.Config) (Agent, error)]("members")

// CheckEmptyTask fails fast on an empty or whitespace-only task, per
// spec.md §4.5: no LLM call is made and usage.requests stays zero.
func CheckEmptyTask(agentName string, agentType model.AgentType, task string) (model.MemberAgentResult, bool) {
	if strings.TrimSpace(task) == "" {
		return model.NewErrorResult(agentName, agentType, model.ErrCodeEmptyTask, "task must not be empty or whitespace"), true
	}
	return model.MemberAgentResult{}, false
}
