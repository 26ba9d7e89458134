// Package model holds the shared data entities passed between MixSeek's
// components: execution tasks, team configuration, member submissions,
// round state, leader-board rows, and the configuration SourceTrace.
package model

import "time"

// SubmissionStatus is the outcome of a single MemberSubmission or
// MemberAgentResult.
type SubmissionStatus string

const (
	StatusSuccess SubmissionStatus = "SUCCESS"
	StatusError   SubmissionStatus = "ERROR"
	StatusWarning SubmissionStatus = "WARNING"
)

// AgentType enumerates the supported Member Agent variants.
type AgentType string

const (
	AgentPlain         AgentType = "plain"
	AgentWebSearch     AgentType = "web_search"
	AgentWebFetch      AgentType = "web_fetch"
	AgentCodeExecution AgentType = "code_execution"
	AgentCustom        AgentType = "custom"
)

// ExitReason names why a team's round loop stopped.
type ExitReason string

const (
	ExitMaxRoundsReached ExitReason = "max_rounds_reached"
	ExitJudgmentStop     ExitReason = "judgment_stop"
	ExitEvaluatorError   ExitReason = "evaluator_error"
	ExitTimeout          ExitReason = "timeout"
)

// ExecutionStatus summarizes the outcome of one Orchestrator run.
type ExecutionStatus string

const (
	ExecutionCompleted      ExecutionStatus = "completed"
	ExecutionPartialFailure ExecutionStatus = "partial_failure"
	ExecutionFailed         ExecutionStatus = "failed"
)

// Usage tracks token/request consumption for one or more LLM calls.
type Usage struct {
	InputTokens  int
	OutputTokens int
	Requests     int
}

// Add accumulates other into u and returns u for chaining.
func (u *Usage) Add(other Usage) *Usage {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.Requests += other.Requests
	return u
}

// ExecutionTask is the top-level, immutable work unit for one Orchestrator
// call.
type ExecutionTask struct {
	ExecutionID               string
	UserPrompt                string
	Teams                     []TeamConfig
	TimeoutPerTeamSeconds     int
	MaxRounds                 int
	MinRounds                 int
	SubmissionTimeoutSeconds  int
	JudgmentTimeoutSeconds    int
	MaxRetriesPerTeam         int
	MaxConcurrentTeams        int
	Workspace                 string
}

// TeamConfig is one team's identity and agent roster, loaded once per
// execution.
type TeamConfig struct {
	TeamID   string
	TeamName string
	Members  []MemberAgentDescriptor
	Leader   LeaderDescriptor
	Trace    map[string]SourceTrace
}

// LeaderDescriptor configures the per-team Leader Agent's model and
// call parameters.
type LeaderDescriptor struct {
	Model             string
	SystemInstruction string
	Temperature       *float64
	MaxTokens         *int
	TopP              *float64
	Seed              *int
	StopSequences     []string
	TimeoutSeconds    *int
	MaxRetries        *int
}

// PluginDescriptor names a custom Member Agent implementation.
type PluginDescriptor struct {
	AgentModule string // preferred: a compile-time registered name
	Path        string // fallback: filesystem path to a Go plugin (.so)
	AgentClass  string // required: exported constructor symbol / registry key
}

// WebSearchToolConfig configures a web_search Member Agent's tool call.
type WebSearchToolConfig struct {
	MaxResults int
	Timeout    int
}

// WebFetchToolConfig configures a web_fetch Member Agent's tool call.
// AllowedDomains and BlockedDomains are mutually exclusive.
type WebFetchToolConfig struct {
	MaxUses          int
	AllowedDomains   []string
	BlockedDomains   []string
	EnableCitations  bool
	MaxContentTokens int
}

// CodeExecutionToolConfig configures a code_execution Member Agent.
type CodeExecutionToolConfig struct {
	TimeoutSeconds  int
	AllowedModules  []string
}

// MemberAgentDescriptor configures one member agent within a team.
type MemberAgentDescriptor struct {
	AgentName         string
	AgentType         AgentType
	Model             string
	SystemInstruction string
	ToolDescription   string
	Temperature       *float64
	MaxTokens         *int
	TopP              *float64
	Seed              *int
	StopSequences     []string
	TimeoutSeconds    *int
	MaxRetries        *int
	WebSearch         *WebSearchToolConfig
	WebFetch          *WebFetchToolConfig
	CodeExecution     *CodeExecutionToolConfig
	Plugin            *PluginDescriptor
}

// MemberAgentResult is the uniform outcome of one MemberAgent.Execute call.
type MemberAgentResult struct {
	Status          SubmissionStatus
	Content         string
	AgentName       string
	AgentType       AgentType
	ExecutionTimeMS int64
	Usage           Usage
	ErrorMessage    string
	ErrorCode       string
	RetryCount      int
	Metadata        map[string]any
	Messages        []ChatMessage
}

// Error-code constants surfaced on MemberAgentResult.ErrorCode.
const (
	ErrCodeEmptyTask          = "EMPTY_TASK"
	ErrCodeTokenLimitExceeded = "TOKEN_LIMIT_EXCEEDED"
)

// NewSuccessResult builds a successful MemberAgentResult.
func NewSuccessResult(agentName string, agentType AgentType, content string, usage Usage, messages []ChatMessage) MemberAgentResult {
	return MemberAgentResult{
		Status:    StatusSuccess,
		Content:   content,
		AgentName: agentName,
		AgentType: agentType,
		Usage:     usage,
		Messages:  messages,
		Metadata:  map[string]any{},
	}
}

// NewErrorResult builds a failed MemberAgentResult.
func NewErrorResult(agentName string, agentType AgentType, errCode, errMsg string) MemberAgentResult {
	return MemberAgentResult{
		Status:       StatusError,
		AgentName:    agentName,
		AgentType:    agentType,
		ErrorCode:    errCode,
		ErrorMessage: errMsg,
		Metadata:     map[string]any{},
	}
}

// IsSuccess reports whether the result completed without error.
func (r MemberAgentResult) IsSuccess() bool { return r.Status == StatusSuccess }

// IsError reports whether the result failed.
func (r MemberAgentResult) IsError() bool { return r.Status == StatusError }

// ChatMessage is one turn of an LLM conversation, reused across Leader and
// Member history tracking.
type ChatMessage struct {
	Role    string
	Content string
}

// MemberSubmission is one member's output within one round.
type MemberSubmission struct {
	AgentName    string
	AgentType    AgentType
	Content      string
	Status       SubmissionStatus
	ErrorMessage string
	Usage        Usage
	Messages     []ChatMessage
	Timestamp    time.Time
}

// FromResult builds a MemberSubmission from the agent's raw result.
func FromResult(r MemberAgentResult, ts time.Time) MemberSubmission {
	return MemberSubmission{
		AgentName:    r.AgentName,
		AgentType:    r.AgentType,
		Content:      r.Content,
		Status:       r.Status,
		ErrorMessage: r.ErrorMessage,
		Usage:        r.Usage,
		Messages:     r.Messages,
		Timestamp:    ts,
	}
}

// MemberSubmissionsRecord aggregates all MemberSubmissions for one
// (team, round) pair.
type MemberSubmissionsRecord struct {
	TeamID      string
	RoundNumber int
	Submissions []MemberSubmission
}

// SuccessfulSubmissions returns only the submissions with StatusSuccess.
func (r MemberSubmissionsRecord) SuccessfulSubmissions() []MemberSubmission {
	return r.filterByStatus(StatusSuccess)
}

// FailedSubmissions returns only the submissions with StatusError.
func (r MemberSubmissionsRecord) FailedSubmissions() []MemberSubmission {
	return r.filterByStatus(StatusError)
}

func (r MemberSubmissionsRecord) filterByStatus(status SubmissionStatus) []MemberSubmission {
	out := make([]MemberSubmission, 0, len(r.Submissions))
	for _, s := range r.Submissions {
		if s.Status == status {
			out = append(out, s)
		}
	}
	return out
}

// TotalCount is the number of submissions recorded, success and failure.
func (r MemberSubmissionsRecord) TotalCount() int { return len(r.Submissions) }

// SuccessCount is the number of successful submissions.
func (r MemberSubmissionsRecord) SuccessCount() int { return len(r.SuccessfulSubmissions()) }

// FailureCount is the number of failed submissions.
func (r MemberSubmissionsRecord) FailureCount() int { return len(r.FailedSubmissions()) }

// TotalUsage sums usage across every submission, successes and failures
// alike.
func (r MemberSubmissionsRecord) TotalUsage() Usage {
	var total Usage
	for _, s := range r.Submissions {
		total.Add(s.Usage)
	}
	return total
}

// MetricScore is one metric's contribution to an EvaluationResult.
type MetricScore struct {
	MetricName string
	Score      float64
	Comment    string
}

// EvaluationResult is the Evaluator's output for one submission.
type EvaluationResult struct {
	Metrics      []MetricScore
	OverallScore float64
}

// RoundState is the observable, immutable state of one completed round.
type RoundState struct {
	RoundNumber       int
	SubmissionContent string
	EvaluationScore   float64
	ScoreDetails      map[string]float64
	StartedAt         time.Time
	EndedAt           time.Time
}

// LeaderBoardEntry is one (team, round) row in the shared aggregation
// store.
type LeaderBoardEntry struct {
	ExecutionID       string
	TeamID            string
	TeamName          string
	RoundNumber       int
	SubmissionContent string
	SubmissionFormat  string
	Score             float64
	ScoreDetails       map[string]float64
	FinalSubmission   bool
	ExitReason        ExitReason
	CreatedAt         time.Time
}

// LeaderBoardRanking is one row of the cross-team ranking query.
type LeaderBoardRanking struct {
	TeamID     string
	TeamName   string
	MaxScore   float64
	TotalRounds int
}

// ImprovementJudgment is the judgment LLM's structured decision.
type ImprovementJudgment struct {
	ShouldContinue  bool
	Reasoning       string
	ConfidenceScore float64
}

// TeamStatus is a point-in-time snapshot of one team's execution, exposed
// for diagnostics by the Orchestrator.
type TeamStatus struct {
	TeamID      string
	State       string
	RoundNumber int
	Error       string
}

// TeamResult is one team's contribution to the final ExecutionSummary.
type TeamResult struct {
	TeamID            string
	TeamName          string
	Score             float64
	SubmissionContent string
	ExitReason        ExitReason
	RoundsCompleted   int
	Failed            bool
	FailureReason     string
}

// ExecutionSummary is the Orchestrator's final output for one execution.
type ExecutionSummary struct {
	ExecutionID            string
	Status                 ExecutionStatus
	TeamResults            []TeamResult
	TotalTeams             int
	BestTeamID             string
	BestScore              float64
	TotalExecutionTime     time.Duration
	FailedTeamsInfo        []FailedTeamInfo
}

// FailedTeamInfo names one team that did not complete and why.
type FailedTeamInfo struct {
	TeamID string
	Reason string
}
