package scoring

import (
	"fmt"
	"strings"

	"fabbench/domain/score"
	"fabbench/domain/task"
)

// Options sub-score names, weighted equally.
const (
	ComponentPnL      = "pnl_accuracy"
	ComponentGreeks   = "greeks_accuracy"
	ComponentStrategy = "strategy_quality"
	ComponentRisk     = "risk_management"
)

const optionsComponentWeight = 0.25

// ScoreOptions grades options-category submissions on four equally weighted
// axes: P&L accuracy, greeks accuracy, strategy construction, and risk
// management coverage. Each component is clamped to [0,100] before weighting
// so no axis can dominate or go negative.
func ScoreOptions(sub score.Submission, gt task.GroundTruth) score.ScoreComponents {
	parsed := ParseSubmission(sub.Analysis)

	return score.ScoreComponents{
		Components: []score.Component{
			{Name: ComponentPnL, Score: score.Clamp(pnlScore(parsed, gt)), Weight: optionsComponentWeight},
			{Name: ComponentGreeks, Score: score.Clamp(greeksScore(parsed, gt)), Weight: optionsComponentWeight},
			{Name: ComponentStrategy, Score: score.Clamp(strategyScore(parsed, gt)), Weight: optionsComponentWeight},
			{Name: ComponentRisk, Score: score.Clamp(riskScore(parsed, gt)), Weight: optionsComponentWeight},
		},
	}
}

func pnlScore(parsed ParsedSubmission, gt task.GroundTruth) float64 {
	// options_pricing tasks carry the fair value in Numeric rather than PnL.
	var expected float64
	switch {
	case gt.PnL != nil:
		expected = *gt.PnL
	case gt.Numeric != nil:
		expected = *gt.Numeric
	default:
		return 0
	}

	// Prefer an explicitly labeled p&l figure when the agent provides one.
	if v, ok := parsed.Fields["pnl"]; ok {
		return CreditFromValue(v, expected)
	}
	return bestNumericCredit(parsed.Numbers, expected)
}

// greeksScore averages the per-greek credit over the greeks ground truth
// defines. A greek the agent never states scores zero for that greek.
func greeksScore(parsed ParsedSubmission, gt task.GroundTruth) float64 {
	if gt.Greeks == nil {
		return 0
	}
	expected := map[string]float64{
		"delta": gt.Greeks.Delta,
		"gamma": gt.Greeks.Gamma,
		"theta": gt.Greeks.Theta,
		"vega":  gt.Greeks.Vega,
		"rho":   gt.Greeks.Rho,
	}

	total := 0.0
	for name, want := range expected {
		if got, ok := parsed.Fields[name]; ok {
			total += CreditFromValue(got, want)
		}
	}
	return total / float64(len(expected))
}

// strategyScore checks that the proposed structure matches the expected legs:
// option types, sides and strikes all named in the analysis.
func strategyScore(parsed ParsedSubmission, gt task.GroundTruth) float64 {
	full := strings.ToLower(strings.Join(collectSections(parsed), "\n"))
	if full == "" {
		return 0
	}
	if len(gt.Legs) == 0 {
		// No prescribed structure: credit any coherent strategy language.
		terms := []string{"straddle", "strangle", "spread", "collar", "call", "put"}
		if ContainsAny(full, terms) > 0 {
			return 70
		}
		return 0
	}

	matched := 0
	for _, leg := range gt.Legs {
		hits := 0
		if strings.Contains(full, strings.ToLower(leg.Type)) {
			hits++
		}
		if strings.Contains(full, strings.ToLower(leg.Side)) {
			hits++
		}
		if strings.Contains(full, trimFloat(leg.Strike)) {
			hits++
		}
		if hits >= 2 {
			matched++
		}
	}
	return CoverageCredit(matched, len(gt.Legs))
}

// riskScore requires a dedicated risk discussion plus coverage of the
// specific exposures ground truth flags. Absent risk section scores zero;
// the submission still earns its other three components.
func riskScore(parsed ParsedSubmission, gt task.GroundTruth) float64 {
	section := parsed.SectionContaining("risk")
	if section == "" {
		return 0
	}

	credit := 40.0 // risk section exists and is non-empty
	if len(gt.RiskNotes) > 0 {
		found := ContainsAny(section, gt.RiskNotes)
		credit += 0.6 * CoverageCredit(found, len(gt.RiskNotes))
	} else {
		terms := []string{"max loss", "maximum loss", "breakeven", "assignment", "volatility", "hedge"}
		if ContainsAny(section, terms) > 0 {
			credit += 60
		}
	}
	return credit
}

func trimFloat(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
