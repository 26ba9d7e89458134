// Package llm is a thin multi-provider facade over the concrete LLM SDKs
// wired into MixSeek: OpenAI, Bedrock, and Replicate. It is consumed by the
// Leader Agent, the Member Agent set, the Evaluator's LLM-judge metrics, and
// the Judgment Client. Provider authentication and transport are themselves
// out of scope for the core (spec.md §1); this package only shapes the
// request/response contract those providers are expected to satisfy.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/mixseek/mixseek-core/pkg/model"
)

// ToolSpec describes one callable tool surfaced to the model, used by the
// Leader Agent to expose Member Agents as named tools.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any // JSON-schema-shaped parameter definition
}

// ToolCall is one invocation of a ToolSpec requested by the model.
type ToolCall struct {
	ID        string
	ToolName  string
	Arguments map[string]any
}

// Message is one turn of a conversation submitted to or returned from a
// provider, generalizing model.ChatMessage with tool-call linkage.
type Message struct {
	Role       string // "system" | "user" | "assistant" | "tool"
	Content    string
	ToolCallID string // set on role=="tool" replies
	ToolCalls  []ToolCall
}

// Params carries the per-call parameters spec.md §6 names on both Member
// and Leader descriptors.
type Params struct {
	Temperature    *float64
	MaxTokens      *int
	TopP           *float64
	Seed           *int
	StopSequences  []string
	TimeoutSeconds *int
	MaxRetries     *int
}

// Request is one call to Generate.
type Request struct {
	SystemInstruction string
	Messages          []Message
	Tools             []ToolSpec
	Params            Params
}

// Response is the provider's reply: text content and/or requested tool
// calls, plus token usage.
type Response struct {
	Content   string
	ToolCalls []ToolCall
	Usage     model.Usage
}

// Client is the uniform contract every provider backend satisfies.
type Client interface {
	// Generate sends req to the underlying model and returns its reply.
	Generate(ctx context.Context, req Request) (Response, error)
	// SupportsTools reports whether this provider can be given ToolSpecs.
	SupportsTools() bool
	// SupportsWebFetch reports whether this provider exposes a native
	// fetch tool (spec.md §4.5 web_fetch is "supported only on providers
	// that expose a native fetch tool").
	SupportsWebFetch() bool
	// SupportsCodeExecution reports whether this provider exposes a
	// sandboxed code-execution tool.
	SupportsCodeExecution() bool
}

// Factory builds a Client for one model name (the part after "provider:").
type Factory func(model string) (Client, error)

var factories = map[string]Factory{}

// RegisterProvider adds a provider factory under its "provider:" prefix.
// Called from each provider backend's init().
func RegisterProvider(provider string, f Factory) {
	factories[provider] = f
}

// Dial parses a "provider:model" reference and returns a Client for it.
func Dial(modelRef string) (Client, error) {
	provider, modelName, ok := strings.Cut(modelRef, ":")
	if !ok {
		return nil, fmt.Errorf("%w: model reference %q must be of the form provider:model", errBadModelRef, modelRef)
	}
	factory, ok := factories[provider]
	if !ok {
		return nil, fmt.Errorf("%w: no llm provider registered for %q", errBadModelRef, provider)
	}
	return factory(modelName)
}

var errBadModelRef = fmt.Errorf("invalid model reference")
