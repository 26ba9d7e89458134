package members

import (
	"context"
	"fmt"

	"github.com/mixseek/mixseek-core/pkg/llm"
	"github.com/mixseek/mixseek-core/pkg/model"
)

// ToolExecutor runs one provider tool call and returns its textual result.
// Concrete search/fetch/sandbox execution is an external collaborator
// (spec.md §1); this interface is the seam a deployment wires a real
// implementation into. NoopExecutor is the stub used when none is wired;
// it returns an error for every call.
type ToolExecutor interface {
	RunTool(ctx context.Context, call llm.ToolCall) (string, error)
}

// MaxToolHops bounds the single-tool resolution loop used by web_search,
// web_fetch and code_execution Member Agents: request → provider tool call →
// execute → feed result back → final text.
const MaxToolHops = 4

// RunWithToolLoop drives req through client until the provider stops
// requesting tool calls or MaxToolHops is reached, executing each
// requested call via executor. It accumulates usage across every hop.
func RunWithToolLoop(ctx context.Context, client llm.Client, req llm.Request, executor ToolExecutor) (llm.Response, error) {
	var total model.Usage
	for hop := 0; hop < MaxToolHops; hop++ {
		resp, err := client.Generate(ctx, req)
		if err != nil {
			return llm.Response{}, err
		}
		total.Add(resp.Usage)

		if len(resp.ToolCalls) == 0 {
			resp.Usage = total
			return resp, nil
		}

		req.Messages = append(req.Messages, llm.Message{Role: "assistant", ToolCalls: resp.ToolCalls})
		for _, call := range resp.ToolCalls {
			result, err := executor.RunTool(ctx, call)
			if err != nil {
				result = fmt.Sprintf("tool error: %v", err)
			}
			req.Messages = append(req.Messages, llm.Message{Role: "tool", Content: result, ToolCallID: call.ID})
		}
	}
	return llm.Response{}, fmt.Errorf("%w: tool loop did not converge after %d hops", model.ErrTerminalProvider, MaxToolHops)
}

// NoopExecutor reports that no tool executor has been wired, used as the
// default for deployments that have not supplied a real search/fetch/exec
// backend.
type NoopExecutor struct{}

func (NoopExecutor) RunTool(_ context.Context, call llm.ToolCall) (string, error) {
	return "", fmt.Errorf("no tool executor configured for %q", call.ToolName)
}
