package report

import (
	"sort"

	"github.com/montanaflynn/stats"

	"fabbench/domain/core"
	"fabbench/domain/score"
	"fabbench/domain/task"
)

// Status classifies how a task evaluation ended. Every task yields a report
// entry; failures carry an explicit status and reason rather than an
// omission.
type Status string

const (
	StatusCompleted         Status = "completed"
	StatusGenerationFailed  Status = "generation_failed"
	StatusSubmissionTimeout Status = "submission_timeout"
	StatusMalformed         Status = "malformed_submission"
	StatusCancelled         Status = "cancelled"
)

// LookaheadAudit records the temporal-lock activity observed for one task:
// how many provider records were dropped at fetch time and whether the
// post-hoc audit of the bound snapshot found any violation.
type LookaheadAudit struct {
	DroppedRecords int      `json:"dropped_records"`
	DroppedIDs     []string `json:"dropped_ids,omitempty"`
	SnapshotClean  bool     `json:"snapshot_clean"`
}

// TaskReport is the per-task output record, suitable for downstream
// aggregation and export.
type TaskReport struct {
	TaskID           core.TaskID           `json:"task_id"`
	RunID            core.RunID            `json:"run_id"`
	Category         task.Category         `json:"category"`
	Difficulty       task.Difficulty       `json:"difficulty"`
	Ticker           string                `json:"ticker"`
	AsOf             core.SimClock         `json:"as_of"`
	Status           Status                `json:"status"`
	Reason           string                `json:"reason,omitempty"`
	Components       score.ScoreComponents `json:"score_components"`
	BaseScore        float64               `json:"base_score"`
	DebateMultiplier float64               `json:"debate_multiplier"`
	Alpha            score.AlphaScore      `json:"alpha_score"`
	Cost             score.CostMetrics     `json:"cost_metrics"`
	Lookahead        LookaheadAudit        `json:"lookahead_audit"`
	Fingerprint      core.TaskFingerprint  `json:"fingerprint,omitempty"`
}

// Succeeded reports whether the task produced a scored result.
func (r TaskReport) Succeeded() bool {
	return r.Status == StatusCompleted
}

// CategoryBreakdown aggregates one category within a run.
type CategoryBreakdown struct {
	Category  task.Category `json:"category"`
	Count     int           `json:"count"`
	MeanAlpha float64       `json:"mean_alpha"`
}

// RunSummary is the schema-versioned whole-run record.
type RunSummary struct {
	SchemaVersion string              `json:"schema_version"`
	RunID         core.RunID          `json:"run_id"`
	Benchmark     string              `json:"benchmark"`
	AgentID       core.AgentID        `json:"agent_id"`
	TasksTotal    int                 `json:"tasks_total"`
	TasksScored   int                 `json:"tasks_scored"`
	MeanAlpha     float64             `json:"mean_alpha"`
	MedianAlpha   float64             `json:"median_alpha"`
	StdDevAlpha   float64             `json:"stddev_alpha"`
	TotalCostUSD  float64             `json:"total_cost_usd"`
	TotalTokens   int                 `json:"total_tokens"`
	ByCategory    []CategoryBreakdown `json:"by_category"`
}

// Summarize folds per-task reports into a run summary. Partial results are
// included: unscored tasks count toward TasksTotal only.
func Summarize(runID core.RunID, agentID core.AgentID, reports []TaskReport) RunSummary {
	summary := RunSummary{
		SchemaVersion: "1.0",
		RunID:         runID,
		Benchmark:     "FAB++ Finance Agent Benchmark",
		AgentID:       agentID,
		TasksTotal:    len(reports),
	}

	var alphas []float64
	byCat := make(map[task.Category][]float64)
	for _, r := range reports {
		summary.TotalCostUSD += r.Cost.CostUSD
		summary.TotalTokens += r.Cost.TotalTokens()
		if !r.Succeeded() {
			continue
		}
		summary.TasksScored++
		alphas = append(alphas, r.Alpha.Score)
		byCat[r.Category] = append(byCat[r.Category], r.Alpha.Score)
	}

	if len(alphas) > 0 {
		// stats errors only on empty input, which is excluded above.
		summary.MeanAlpha, _ = stats.Mean(alphas)
		summary.MedianAlpha, _ = stats.Median(alphas)
		summary.StdDevAlpha, _ = stats.StandardDeviation(alphas)
	}

	cats := make([]task.Category, 0, len(byCat))
	for c := range byCat {
		cats = append(cats, c)
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	for _, c := range cats {
		mean, _ := stats.Mean(byCat[c])
		summary.ByCategory = append(summary.ByCategory, CategoryBreakdown{
			Category:  c,
			Count:     len(byCat[c]),
			MeanAlpha: mean,
		})
	}
	return summary
}
