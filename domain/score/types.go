package score

import (
	"fmt"
	"math"

	"fabbench/domain/core"
)

// Component is one named sub-score with its weight. Score is bounded
// [0,100]; weights within a ScoreComponents must sum to 1.
type Component struct {
	Name   string  `json:"name"`
	Score  float64 `json:"score"`
	Weight float64 `json:"weight"`
}

// ScoreComponents is the full set of sub-scores for one category evaluation.
type ScoreComponents struct {
	Components []Component `json:"components"`
}

// Validate checks bounds and the weight-sum invariant.
func (s ScoreComponents) Validate() error {
	if len(s.Components) == 0 {
		return fmt.Errorf("no score components")
	}
	sum := 0.0
	for _, c := range s.Components {
		if c.Score < 0 || c.Score > 100 || math.IsNaN(c.Score) {
			return fmt.Errorf("component %q score %.4f outside [0,100]", c.Name, c.Score)
		}
		if c.Weight < 0 {
			return fmt.Errorf("component %q has negative weight", c.Name)
		}
		sum += c.Weight
	}
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("component weights sum to %.4f, want 1.0", sum)
	}
	return nil
}

// Total returns the weighted sum, clamped to [0,100].
func (s ScoreComponents) Total() float64 {
	total := 0.0
	for _, c := range s.Components {
		total += Clamp(c.Score) * c.Weight
	}
	return Clamp(total)
}

// Get returns the named component score, or 0 when absent.
func (s ScoreComponents) Get(name string) float64 {
	for _, c := range s.Components {
		if c.Name == name {
			return c.Score
		}
	}
	return 0
}

// Clamp bounds a score to [0,100]. NaN clamps to 0.
func Clamp(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// CostMetrics accumulate monotonically per task and are read-only to the
// scoring components.
type CostMetrics struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	ToolCalls        int     `json:"tool_calls"`
	CostUSD          float64 `json:"cost_usd"`
}

// TotalTokens returns prompt + completion tokens.
func (c CostMetrics) TotalTokens() int {
	return c.PromptTokens + c.CompletionTokens
}

// Validate rejects negative or non-finite cost before aggregation.
func (c CostMetrics) Validate() error {
	if c.PromptTokens < 0 || c.CompletionTokens < 0 || c.ToolCalls < 0 {
		return fmt.Errorf("negative cost counters")
	}
	if math.IsNaN(c.CostUSD) || math.IsInf(c.CostUSD, 0) || c.CostUSD < 0 {
		return fmt.Errorf("invalid cost USD %v", c.CostUSD)
	}
	return nil
}

// ToolCall is one entry of the agent's tool trace.
type ToolCall struct {
	Name       string `json:"name"`
	Argument   string `json:"argument,omitempty"`
	DurationMs int64  `json:"duration_ms,omitempty"`
}

// Submission is the agent's response to one task; immutable after receipt.
type Submission struct {
	TaskID         core.TaskID  `json:"task_id"`
	AgentID        core.AgentID `json:"agent_id"`
	Analysis       string       `json:"analysis"`
	Recommendation string       `json:"recommendation,omitempty"`
	ToolTrace      []ToolCall   `json:"tool_trace,omitempty"`
	Cost           CostMetrics  `json:"cost_metrics"`
}

// Debate multiplier bounds.
const (
	MinDebateMultiplier = 0.8
	MaxDebateMultiplier = 1.2
)

// DebateRound records one adversarial challenge round.
type DebateRound struct {
	CounterArgument string  `json:"counter_argument"`
	TargetClaim     string  `json:"target_claim,omitempty"`
	Rebuttal        string  `json:"rebuttal,omitempty"`
	Quality         float64 `json:"quality"` // [0,1]
	Multiplier      float64 `json:"multiplier"`
	TimedOut        bool    `json:"timed_out"`
}

// MultiplierFromQuality maps rebuttal quality linearly onto [0.8, 1.2]:
// quality 0 -> 0.8, 0.5 -> 1.0, 1 -> 1.2.
func MultiplierFromQuality(quality float64) float64 {
	if math.IsNaN(quality) || quality < 0 {
		quality = 0
	}
	if quality > 1 {
		quality = 1
	}
	// Lerp form is exact at both endpoints, unlike min + span*quality.
	return (1-quality)*MinDebateMultiplier + quality*MaxDebateMultiplier
}

// AlphaScore is the final composite metric. Computed once, immutable.
type AlphaScore struct {
	Base             float64 `json:"base"`              // category score [0,100]
	DebateMultiplier float64 `json:"debate_multiplier"` // [0.8,1.2]
	CostEfficiency   float64 `json:"cost_efficiency"`   // (0,1]
	Score            float64 `json:"score"`
}
