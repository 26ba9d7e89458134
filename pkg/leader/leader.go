// Package leader implements the Leader Agent (C6): the per-round delegator
// that exposes a team's Member Agents as named tools to its own LLM and
// records every delegated call into a shared submissions bag.
package leader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mixseek/mixseek-core/pkg/llm"
	"github.com/mixseek/mixseek-core/pkg/members"
	"github.com/mixseek/mixseek-core/pkg/model"
)

// MaxDelegationHops bounds how many tool-call round-trips the Leader's LLM
// may make in one round before the loop is forced to stop with whatever
// text it has produced so far.
const MaxDelegationHops = 8

// Leader drives one round's reasoning for one team.
type Leader struct {
	client            llm.Client
	systemInstruction string
	params            llm.Params
}

// New constructs a Leader Agent.
func New(client llm.Client, systemInstruction string, params llm.Params) *Leader {
	return &Leader{client: client, systemInstruction: systemInstruction, params: params}
}

// Result is the Leader's output for one round: its final text plus the
// MemberSubmissionsRecord reflecting exactly the member calls that
// occurred.
type Result struct {
	Content  string
	Record   model.MemberSubmissionsRecord
	Messages []model.ChatMessage
}

// Run invokes the Leader's LLM with prompt, exposing each of teamMembers as
// a tool named delegate_to_<agent_name> and described by the agent's
// Description(). The Round Controller does not impose a concurrency
// pattern on these calls (spec.md §4.6): Run executes them sequentially as
// the LLM requests them, since the underlying tool-call loop is itself
// sequential (spec.md §5's "one in-flight LLM call per cooperative task").
// The submissionsBag mutex exists to keep this safe even if a future
// provider resolves several tool calls in one batched response.
func (l *Leader) Run(ctx context.Context, teamID string, roundNumber int, prompt string, teamMembers []members.Agent) (Result, error) {
	byToolName := make(map[string]members.Agent, len(teamMembers))
	tools := make([]llm.ToolSpec, 0, len(teamMembers))
	for _, m := range teamMembers {
		toolName := fmt.Sprintf("delegate_to_%s", m.Name())
		byToolName[toolName] = m
		tools = append(tools, llm.ToolSpec{
			Name:        toolName,
			Description: m.Description(),
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"task": map[string]any{"type": "string"},
				},
				"required": []string{"task"},
			},
		})
	}

	bag := &submissionsBag{teamID: teamID, roundNumber: roundNumber}
	req := llm.Request{
		SystemInstruction: l.systemInstruction,
		Messages:          []llm.Message{{Role: "user", Content: prompt}},
		Tools:             tools,
		Params:            l.params,
	}

	var finalContent string
	var transcript []model.ChatMessage
	transcript = append(transcript, model.ChatMessage{Role: "user", Content: prompt})

	for hop := 0; hop < MaxDelegationHops; hop++ {
		resp, err := l.client.Generate(ctx, req)
		if err != nil {
			return Result{}, fmt.Errorf("leader: %w", err)
		}
		if resp.Content != "" {
			transcript = append(transcript, model.ChatMessage{Role: "assistant", Content: resp.Content})
		}

		if len(resp.ToolCalls) == 0 {
			finalContent = resp.Content
			break
		}

		req.Messages = append(req.Messages, llm.Message{Role: "assistant", ToolCalls: resp.ToolCalls})
		for _, call := range resp.ToolCalls {
			agent, ok := byToolName[call.ToolName]
			if !ok {
				errMsg := fmt.Sprintf("unknown delegated tool %q", call.ToolName)
				req.Messages = append(req.Messages, llm.Message{Role: "tool", Content: errMsg, ToolCallID: call.ID})
				continue
			}
			task, _ := call.Arguments["task"].(string)
			result := agent.Execute(ctx, task, nil)
			bag.add(result, time.Now())

			toolReply := result.Content
			if result.IsError() {
				// Status propagation invariant (spec.md §4.6): errors are
				// never silently mapped to success content.
				toolReply = fmt.Sprintf("error: %s", result.ErrorMessage)
			}
			req.Messages = append(req.Messages, llm.Message{Role: "tool", Content: toolReply, ToolCallID: call.ID})
		}
		finalContent = resp.Content
	}

	return Result{
		Content:  finalContent,
		Record:   bag.record(),
		Messages: transcript,
	}, nil
}

// submissionsBag collects MemberSubmissions produced during one Leader.Run
// call, guarded by a mutex per the design note on leader-delegated member
// calls.
type submissionsBag struct {
	mu          sync.Mutex
	teamID      string
	roundNumber int
	submissions []model.MemberSubmission
}

func (b *submissionsBag) add(result model.MemberAgentResult, ts time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.submissions = append(b.submissions, model.FromResult(result, ts))
}

func (b *submissionsBag) record() model.MemberSubmissionsRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return model.MemberSubmissionsRecord{
		TeamID:      b.teamID,
		RoundNumber: b.roundNumber,
		Submissions: append([]model.MemberSubmission(nil), b.submissions...),
	}
}
