package ports

import (
	"context"
	"time"

	"fabbench/domain/core"
	"fabbench/domain/score"
)

// TaskEnvelope is what the core emits toward the agent-under-test. Ground
// truth never rides along.
type TaskEnvelope struct {
	TaskID   core.TaskID   `json:"task_id"`
	Prompt   string        `json:"prompt"`
	Category string        `json:"category"`
	Ticker   string        `json:"ticker"`
	Deadline time.Duration `json:"deadline_seconds"`
}

// SubmissionEnvelope is what the transport hands back.
type SubmissionEnvelope struct {
	TaskID    core.TaskID       `json:"task_id"`
	Payload   string            `json:"payload"`
	ToolTrace []score.ToolCall  `json:"tool_trace,omitempty"`
	Cost      score.CostMetrics `json:"cost_metrics"`
}

// ChallengeEnvelope carries one adversarial debate round trip. The rebuttal
// is collected on the same conversation as the original task.
type ChallengeEnvelope struct {
	TaskID          core.TaskID   `json:"task_id"`
	CounterArgument string        `json:"counter_argument"`
	Deadline        time.Duration `json:"deadline_seconds"`
}

// AgentTransport delivers tasks and collects submissions. Retries and wire
// encoding belong to implementations; the core only sees bounded
// request/response round trips. Both calls honor ctx cancellation, and a
// deadline overrun surfaces as an error the caller maps to its timeout
// policy.
type AgentTransport interface {
	SendTask(ctx context.Context, agent core.AgentID, env TaskEnvelope) (SubmissionEnvelope, error)
	SendChallenge(ctx context.Context, agent core.AgentID, env ChallengeEnvelope) (string, error)
}
