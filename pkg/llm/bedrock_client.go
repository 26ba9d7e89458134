package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/aws/smithy-go/document"
	"github.com/mixseek/mixseek-core/pkg/model"
)

func init() {
	RegisterProvider("bedrock", newBedrockClient)
}

type bedrockClient struct {
	client  *bedrockruntime.Client
	modelID string
}

func newBedrockClient(modelID string) (Client, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = os.Getenv("AWS_DEFAULT_REGION")
	}
	if region == "" {
		return nil, fmt.Errorf("%w: AWS_REGION", model.ErrTerminalProvider)
	}
	ctx := context.Background()
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("bedrock: failed to load AWS config: %w", err)
	}
	return &bedrockClient{
		client:  bedrockruntime.NewFromConfig(awsCfg),
		modelID: modelID,
	}, nil
}

func (c *bedrockClient) SupportsTools() bool         { return true }
func (c *bedrockClient) SupportsWebFetch() bool      { return false }
func (c *bedrockClient) SupportsCodeExecution() bool { return false }

func (c *bedrockClient) Generate(ctx context.Context, req Request) (Response, error) {
	messages := make([]types.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, toBedrockMessage(m))
	}

	input := &bedrockruntime.ConverseInput{
		ModelId:  aws.String(c.modelID),
		Messages: messages,
	}
	if req.SystemInstruction != "" {
		input.System = []types.SystemContentBlock{&types.SystemContentBlockMemberText{Value: req.SystemInstruction}}
	}

	inferCfg := &types.InferenceConfiguration{}
	hasInfer := false
	if req.Params.Temperature != nil {
		t := float32(*req.Params.Temperature)
		inferCfg.Temperature = &t
		hasInfer = true
	}
	if req.Params.MaxTokens != nil {
		mt := int32(*req.Params.MaxTokens)
		inferCfg.MaxTokens = &mt
		hasInfer = true
	}
	if req.Params.TopP != nil {
		tp := float32(*req.Params.TopP)
		inferCfg.TopP = &tp
		hasInfer = true
	}
	if len(req.Params.StopSequences) > 0 {
		inferCfg.StopSequences = req.Params.StopSequences
		hasInfer = true
	}
	if hasInfer {
		input.InferenceConfig = inferCfg
	}

	if len(req.Tools) > 0 {
		input.ToolConfig = toBedrockToolConfig(req.Tools)
	}

	out, err := c.client.Converse(ctx, input)
	if err != nil {
		return Response{}, fmt.Errorf("%w: bedrock: %v", model.ErrTransientProvider, err)
	}

	resp := Response{}
	if out.Usage != nil {
		resp.Usage = model.Usage{
			InputTokens:  int(aws.ToInt32(out.Usage.InputTokens)),
			OutputTokens: int(aws.ToInt32(out.Usage.OutputTokens)),
			Requests:     1,
		}
	}

	msgOut, ok := out.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return Response{}, fmt.Errorf("%w: bedrock returned no assistant message", model.ErrTerminalProvider)
	}
	for _, block := range msgOut.Value.Content {
		switch b := block.(type) {
		case *types.ContentBlockMemberText:
			resp.Content += b.Value
		case *types.ContentBlockMemberToolUse:
			args, _ := toolUseInputToMap(b.Value.Input)
			resp.ToolCalls = append(resp.ToolCalls, ToolCall{
				ID:        aws.ToString(b.Value.ToolUseId),
				ToolName:  aws.ToString(b.Value.Name),
				Arguments: args,
			})
		}
	}
	return resp, nil
}

func toBedrockMessage(m Message) types.Message {
	role := types.ConversationRoleUser
	if m.Role == "assistant" {
		role = types.ConversationRoleAssistant
	}
	var content []types.ContentBlock
	if m.Content != "" {
		content = append(content, &types.ContentBlockMemberText{Value: m.Content})
	}
	if m.Role == "tool" {
		content = append(content, &types.ContentBlockMemberToolResult{
			Value: types.ToolResultBlock{
				ToolUseId: aws.String(m.ToolCallID),
				Content:   []types.ToolResultContentBlock{&types.ToolResultContentBlockMemberText{Value: m.Content}},
			},
		})
		role = types.ConversationRoleUser
	}
	for _, tc := range m.ToolCalls {
		content = append(content, &types.ContentBlockMemberToolUse{
			Value: types.ToolUseBlock{
				ToolUseId: aws.String(tc.ID),
				Name:      aws.String(tc.ToolName),
				Input:     mapToDocument(tc.Arguments),
			},
		})
	}
	return types.Message{Role: role, Content: content}
}

func toBedrockToolConfig(tools []ToolSpec) *types.ToolConfiguration {
	specs := make([]types.Tool, 0, len(tools))
	for _, t := range tools {
		specs = append(specs, &types.ToolMemberToolSpec{
			Value: types.ToolSpecification{
				Name:        aws.String(t.Name),
				Description: aws.String(t.Description),
				InputSchema: &types.ToolInputSchemaMemberJson{Value: mapToDocument(t.Parameters)},
			},
		})
	}
	return &types.ToolConfiguration{Tools: specs}
}

// documentMap is a minimal smithy document.Interface backing a map[string]any
// literal, since the SDK's document type requires marshal/unmarshal hooks.
type documentMap struct {
	v map[string]any
}

func mapToDocument(m map[string]any) document.Interface {
	if m == nil {
		m = map[string]any{}
	}
	return &documentMap{v: m}
}

func (d *documentMap) MarshalSmithyDocument() ([]byte, error) {
	return json.Marshal(d.v)
}

func (d *documentMap) UnmarshalSmithyDocument(b []byte) error {
	return json.Unmarshal(b, &d.v)
}

func toolUseInputToMap(doc document.Interface) (map[string]any, error) {
	if doc == nil {
		return nil, nil
	}
	raw, err := doc.MarshalSmithyDocument()
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}
