package scoring

import (
	"math"
	"strings"

	"fabbench/domain/score"
	"fabbench/domain/task"
)

// Role sub-score names.
const (
	ComponentThesis      = "thesis_quality"
	ComponentFundamental = "fundamental_accuracy"
	ComponentExecution   = "execution_quality"
)

// RoleWeights distribute the role-based category score across the three
// sub-scores. Must sum to 1.
type RoleWeights struct {
	Thesis      float64
	Fundamental float64
	Execution   float64
}

// DefaultRoleWeights mirror the benchmark defaults.
var DefaultRoleWeights = RoleWeights{Thesis: 0.4, Fundamental: 0.4, Execution: 0.2}

// Validate checks the weight-sum invariant.
func (w RoleWeights) Validate() bool {
	sum := w.Thesis + w.Fundamental + w.Execution
	return w.Thesis >= 0 && w.Fundamental >= 0 && w.Execution >= 0 &&
		sum > 0.999 && sum < 1.001
}

// ScoreRole grades a submission against ground truth for the non-options
// categories: thesis quality, fundamental accuracy and execution/tool-usage
// methodology, each in [0,100].
//
// Robust to partial submissions: a missing element zeroes the sub-score it
// feeds, never the whole evaluation.
func ScoreRole(sub score.Submission, gt task.GroundTruth, rubric task.Rubric, w RoleWeights) score.ScoreComponents {
	if !w.Validate() {
		w = DefaultRoleWeights
	}
	parsed := ParseSubmission(sub.Analysis)

	return score.ScoreComponents{
		Components: []score.Component{
			{Name: ComponentThesis, Score: score.Clamp(thesisScore(parsed, gt, rubric)), Weight: w.Thesis},
			{Name: ComponentFundamental, Score: score.Clamp(fundamentalScore(parsed, sub, gt)), Weight: w.Fundamental},
			{Name: ComponentExecution, Score: score.Clamp(executionScore(parsed, sub)), Weight: w.Execution},
		},
	}
}

// thesisScore rewards coverage of the expected themes plus basic analytical
// structure: sectioned argument, quantitative support.
func thesisScore(parsed ParsedSubmission, gt task.GroundTruth, rubric task.Rubric) float64 {
	if len(parsed.Claims) == 0 {
		return 0
	}

	full := strings.Join(collectSections(parsed), "\n")
	themeCredit := 100.0
	if len(gt.KeyThemes) > 0 {
		found := ContainsAny(full, gt.KeyThemes)
		themeCredit = CoverageCredit(found, len(gt.KeyThemes))
	}

	// Rubric descriptions name what the grader looks for; partial mention
	// counts toward rubric fit.
	rubricCredit := 100.0
	if len(rubric.Components) > 0 {
		terms := make([]string, 0, len(rubric.Components))
		for _, c := range rubric.Components {
			terms = append(terms, keywordOf(c.Name))
		}
		rubricCredit = CoverageCredit(ContainsAny(full, terms), len(terms))
	}

	structure := 0.0
	if len(parsed.Sections) >= 2 {
		structure += 50
	}
	if len(parsed.Numbers) > 0 {
		structure += 50
	}

	return 0.5*themeCredit + 0.3*rubricCredit + 0.2*structure
}

// fundamentalScore grades numeric accuracy against ground truth with the
// relative-error credit curve, blended with directional correctness when
// the category has one.
func fundamentalScore(parsed ParsedSubmission, sub score.Submission, gt task.GroundTruth) float64 {
	numericCredit := -1.0
	if gt.Numeric != nil {
		numericCredit = bestNumericCredit(parsed.Numbers, *gt.Numeric)
	}

	directionCredit := -1.0
	if gt.Direction != "" {
		rec := sub.Recommendation
		if rec == "" {
			rec = parsed.Recommendation
		}
		if strings.EqualFold(strings.TrimSpace(rec), gt.Direction) {
			directionCredit = 100
		} else if rec == "" {
			directionCredit = 0 // missing field degrades, not fails
		} else {
			directionCredit = 0
		}
	}

	switch {
	case numericCredit >= 0 && directionCredit >= 0:
		return 0.6*numericCredit + 0.4*directionCredit
	case numericCredit >= 0:
		return numericCredit
	case directionCredit >= 0:
		return directionCredit
	default:
		return 0
	}
}

// bestNumericCredit scores the extracted number closest to the expectation;
// an agent citing many figures is graded on its best match to the asked-for
// quantity.
func bestNumericCredit(numbers []float64, expected float64) float64 {
	if len(numbers) == 0 {
		return 0
	}
	best := math.Inf(1)
	for _, n := range numbers {
		if e := RelativeError(n, expected); e < best {
			best = e
		}
	}
	return CreditFromRelativeError(best)
}

// executionScore grades methodology: tool usage, a stated recommendation,
// and non-trivial analysis depth.
func executionScore(parsed ParsedSubmission, sub score.Submission) float64 {
	credit := 0.0

	if len(sub.ToolTrace) > 0 {
		credit += 40
		distinct := make(map[string]bool)
		for _, call := range sub.ToolTrace {
			distinct[call.Name] = true
		}
		if len(distinct) >= 2 {
			credit += 20
		}
	}

	if sub.Recommendation != "" || parsed.Recommendation != "" {
		credit += 20
	}
	if len(parsed.Claims) >= 3 {
		credit += 20
	}
	return credit
}

func collectSections(parsed ParsedSubmission) []string {
	out := make([]string, 0, len(parsed.Sections))
	for name, text := range parsed.Sections {
		out = append(out, name+"\n"+text)
	}
	return out
}

// keywordOf reduces a rubric component name to a searchable keyword.
func keywordOf(name string) string {
	parts := strings.Split(strings.ToLower(name), "_")
	// The last token is usually the discriminating word (accuracy, year...).
	if len(parts) == 0 {
		return name
	}
	return parts[0]
}
