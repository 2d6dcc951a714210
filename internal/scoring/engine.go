package scoring

import (
	"fabbench/domain/score"
	"fabbench/domain/task"
)

// Engine selects the scorer for a task's category and produces the base
// score components in [0,100].
type Engine struct {
	weights RoleWeights
}

// NewEngine returns an Engine with the given role weights; invalid weights
// fall back to the defaults.
func NewEngine(w RoleWeights) *Engine {
	if !w.Validate() {
		w = DefaultRoleWeights
	}
	return &Engine{weights: w}
}

// Score dispatches on category: options categories use the four-axis options
// scorer, everything else the role-based scorer.
func (e *Engine) Score(sub score.Submission, gt task.GroundTruth, category task.Category, rubric task.Rubric) score.ScoreComponents {
	if category.IsOptions() {
		return ScoreOptions(sub, gt)
	}
	return ScoreRole(sub, gt, rubric, e.weights)
}
