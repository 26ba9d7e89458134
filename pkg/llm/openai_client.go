package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mixseek/mixseek-core/pkg/model"
	goopenai "github.com/sashabaranov/go-openai"
)

func init() {
	RegisterProvider("openai", newOpenAIClient)
}

type openAIClient struct {
	client *goopenai.Client
	model  string
}

func newOpenAIClient(modelName string) (Client, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("%w: OPENAI_API_KEY", model.ErrTerminalProvider)
	}
	return &openAIClient{
		client: goopenai.NewClient(apiKey),
		model:  modelName,
	}, nil
}

func (c *openAIClient) SupportsTools() bool         { return true }
func (c *openAIClient) SupportsWebFetch() bool      { return false }
func (c *openAIClient) SupportsCodeExecution() bool { return false }

func (c *openAIClient) Generate(ctx context.Context, req Request) (Response, error) {
	messages := make([]goopenai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.SystemInstruction != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: req.SystemInstruction,
		})
	}
	for _, m := range req.Messages {
		messages = append(messages, toOpenAIMessage(m))
	}

	chatReq := goopenai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	}
	if req.Params.Temperature != nil {
		chatReq.Temperature = float32(*req.Params.Temperature)
	}
	if req.Params.MaxTokens != nil {
		chatReq.MaxTokens = *req.Params.MaxTokens
	}
	if req.Params.TopP != nil {
		chatReq.TopP = float32(*req.Params.TopP)
	}
	if req.Params.Seed != nil {
		chatReq.Seed = req.Params.Seed
	}
	if len(req.Params.StopSequences) > 0 {
		chatReq.Stop = req.Params.StopSequences
	}
	if len(req.Tools) > 0 {
		chatReq.Tools = toOpenAITools(req.Tools)
	}

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return Response{}, classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, fmt.Errorf("%w: openai returned no choices", model.ErrTerminalProvider)
	}

	choice := resp.Choices[0]
	out := Response{
		Content: choice.Message.Content,
		Usage: model.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
			Requests:     1,
		},
	}
	for _, tc := range choice.Message.ToolCalls {
		var args map[string]any
		_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			ToolName:  tc.Function.Name,
			Arguments: args,
		})
	}
	return out, nil
}

func toOpenAIMessage(m Message) goopenai.ChatCompletionMessage {
	switch m.Role {
	case "tool":
		return goopenai.ChatCompletionMessage{
			Role:       goopenai.ChatMessageRoleTool,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
	case "assistant":
		msg := goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleAssistant,
			Content: m.Content,
		}
		for _, tc := range m.ToolCalls {
			args, _ := json.Marshal(tc.Arguments)
			msg.ToolCalls = append(msg.ToolCalls, goopenai.ToolCall{
				ID:   tc.ID,
				Type: goopenai.ToolTypeFunction,
				Function: goopenai.FunctionCall{
					Name:      tc.ToolName,
					Arguments: string(args),
				},
			})
		}
		return msg
	default:
		return goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: m.Content}
	}
}

func toOpenAITools(tools []ToolSpec) []goopenai.Tool {
	out := make([]goopenai.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, goopenai.Tool{
			Type: goopenai.ToolTypeFunction,
			Function: &goopenai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}

// classifyOpenAIError maps go-openai's error shapes onto the error
// taxonomy's transient/terminal split, mirroring the teacher's
// openaicompat.WrapError.
func classifyOpenAIError(err error) error {
	var apiErr *goopenai.APIError
	if ok := asAPIError(err, &apiErr); ok {
		switch apiErr.HTTPStatusCode {
		case 429, 500, 502, 503, 504:
			return fmt.Errorf("%w: openai: %s", model.ErrTransientProvider, apiErr.Message)
		case 401, 403:
			return fmt.Errorf("%w: openai authentication: %s", model.ErrTerminalProvider, apiErr.Message)
		case 413:
			return fmt.Errorf("%w: %s", model.ErrTerminalProvider, model.ErrCodeTokenLimitExceeded)
		}
	}
	return fmt.Errorf("%w: openai: %v", model.ErrTransientProvider, err)
}

func asAPIError(err error, target **goopenai.APIError) bool {
	apiErr, ok := err.(*goopenai.APIError)
	if ok {
		*target = apiErr
	}
	return ok
}
