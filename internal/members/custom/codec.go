// Package custom provides a sample "custom" Member Agent registered under
// agent_module "mixseek.members.codec". It demonstrates the agent_module
// resolution path of the custom plugin loader (pkg/members.LoadCustom) and
// exercises two non-text payload codecs from the retrieved example pack:
// base2048 and ecoji. Neither codec is required by any other SPEC_FULL.md
// component; they are wired here specifically so the custom-agent loader
// has a real module to resolve, per DESIGN.md (the loader's own tests
// register stub modules instead of this one).
package custom

import (
	"bytes"
	"context"
	"fmt"
	"time"

	base2048 "github.com/Milly/go-base2048"
	"github.com/keith-turner/ecoji/v2"
	"github.com/mixseek/mixseek-core/pkg/llm"
	"github.com/mixseek/mixseek-core/pkg/members"
	"github.com/mixseek/mixseek-core/pkg/model"
	"github.com/mixseek/mixseek-core/pkg/registry"
)

const ModuleName = "mixseek.members.codec"

func init() {
	members.ModuleRegistry.Register(ModuleName, New)
}

// Encoding selects which codec wraps the agent's text output.
type Encoding string

const (
	EncodingBase2048 Encoding = "base2048"
	EncodingEcoji    Encoding = "ecoji"
	EncodingNone     Encoding = "none"
)

// Agent is a plain LLM call whose output is re-encoded through a
// non-text-safe transport codec, useful for teams whose downstream
// consumer requires emoji- or base2048-safe payloads.
type Agent struct {
	name              string
	client            llm.Client
	systemInstruction string
	encoding          Encoding
}

// New constructs the codec-wrapping custom agent from registry.Config.
func New(cfg registry.Config) (members.Agent, error) {
	name, err := registry.RequireString(cfg, "agent_name")
	if err != nil {
		return nil, fmt.Errorf("custom codec member: %w", err)
	}
	modelRef, err := registry.RequireString(cfg, "model")
	if err != nil {
		return nil, fmt.Errorf("custom codec member %s: %w", name, err)
	}
	client, err := llm.Dial(modelRef)
	if err != nil {
		return nil, fmt.Errorf("custom codec member %s: %w", name, err)
	}

	encoding := Encoding(registry.GetString(cfg, "encoding", string(EncodingEcoji)))
	switch encoding {
	case EncodingBase2048, EncodingEcoji, EncodingNone:
	default:
		return nil, fmt.Errorf("%w: custom codec member %s: unknown encoding %q", model.ErrConfiguration, name, encoding)
	}

	return &Agent{
		name:              name,
		client:            client,
		systemInstruction: registry.GetString(cfg, "system_instruction", ""),
		encoding:          encoding,
	}, nil
}

func (a *Agent) Name() string          { return a.name }
func (a *Agent) Type() model.AgentType { return model.AgentCustom }
func (a *Agent) Description() string {
	return fmt.Sprintf("Custom member agent; re-encodes output via %s.", a.encoding)
}

func (a *Agent) Execute(ctx context.Context, task string, _ map[string]string) model.MemberAgentResult {
	if res, empty := members.CheckEmptyTask(a.name, model.AgentCustom, task); empty {
		return res
	}

	start := time.Now()
	resp, err := a.client.Generate(ctx, llm.Request{
		SystemInstruction: a.systemInstruction,
		Messages:          []llm.Message{{Role: "user", Content: task}},
	})
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		result := model.NewErrorResult(a.name, model.AgentCustom, "PROVIDER_ERROR", err.Error())
		result.ExecutionTimeMS = elapsed
		return result
	}

	encoded, err := a.encode(resp.Content)
	if err != nil {
		result := model.NewErrorResult(a.name, model.AgentCustom, "ENCODE_ERROR", err.Error())
		result.ExecutionTimeMS = elapsed
		return result
	}

	result := model.NewSuccessResult(a.name, model.AgentCustom, encoded, resp.Usage, nil)
	result.ExecutionTimeMS = elapsed
	result.Metadata["encoding"] = string(a.encoding)
	return result
}

func (a *Agent) encode(text string) (string, error) {
	switch a.encoding {
	case EncodingBase2048:
		return base2048.DefaultEncoding.EncodeToString([]byte(text)), nil
	case EncodingEcoji:
		var buf bytes.Buffer
		if err := ecoji.EncodeV2(bytes.NewReader([]byte(text)), &buf, 0); err != nil {
			return "", fmt.Errorf("ecoji encode: %w", err)
		}
		return buf.String(), nil
	default:
		return text, nil
	}
}
