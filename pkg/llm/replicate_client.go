package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mixseek/mixseek-core/pkg/model"
	replicatego "github.com/replicate/replicate-go"
)

func init() {
	RegisterProvider("replicate", newReplicateClient)
}

// replicateClient wraps replicate.Client for code_execution Member Agents
// backed by sandboxed model variants. Replicate's prediction API has no
// native function/tool-calling surface, so SupportsTools is false; the
// Leader Agent and Evaluator must not route tool-bearing requests here.
type replicateClient struct {
	client *replicatego.Client
	model  string
}

func newReplicateClient(modelRef string) (Client, error) {
	token := os.Getenv("REPLICATE_API_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("%w: REPLICATE_API_TOKEN", model.ErrTerminalProvider)
	}
	c, err := replicatego.NewClient(replicatego.WithToken(token))
	if err != nil {
		return nil, fmt.Errorf("replicate: %w", err)
	}
	return &replicateClient{client: c, model: modelRef}, nil
}

func (c *replicateClient) SupportsTools() bool         { return false }
func (c *replicateClient) SupportsWebFetch() bool      { return false }
func (c *replicateClient) SupportsCodeExecution() bool { return true }

func (c *replicateClient) Generate(ctx context.Context, req Request) (Response, error) {
	if len(req.Tools) > 0 {
		return Response{}, fmt.Errorf("%w: replicate provider does not support tool calling", model.ErrToolMisconfiguration)
	}

	input := replicatego.PredictionInput{"prompt": renderPrompt(req)}
	if req.Params.MaxTokens != nil {
		input["max_new_tokens"] = *req.Params.MaxTokens
	}
	if req.Params.Temperature != nil {
		input["temperature"] = *req.Params.Temperature
	}
	if req.Params.TopP != nil {
		input["top_p"] = *req.Params.TopP
	}

	output, err := c.client.Run(ctx, c.model, input, nil)
	if err != nil {
		return Response{}, classifyReplicateError(err)
	}

	return Response{
		Content: flattenReplicateOutput(output),
		Usage:   model.Usage{Requests: 1},
	}, nil
}

func renderPrompt(req Request) string {
	var sb strings.Builder
	if req.SystemInstruction != "" {
		sb.WriteString(req.SystemInstruction)
		sb.WriteString("\n\n")
	}
	for _, m := range req.Messages {
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}

func flattenReplicateOutput(out replicatego.PredictionOutput) string {
	switch v := out.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, "")
	case []any:
		var parts []string
		for _, elem := range v {
			if s, ok := elem.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, "")
	default:
		return fmt.Sprintf("%v", v)
	}
}

func classifyReplicateError(err error) error {
	if apiErr, ok := err.(*replicatego.APIError); ok {
		return fmt.Errorf("%w: replicate (status %d): %v", model.ErrTransientProvider, apiErr.Status, err)
	}
	return fmt.Errorf("%w: replicate: %v", model.ErrTransientProvider, err)
}
