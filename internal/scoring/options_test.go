package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabbench/domain/score"
	"fabbench/domain/task"
)

func strategyGroundTruth() task.GroundTruth {
	pnl := -6.0
	return task.GroundTruth{
		Category: task.CategoryOptionsStrategy,
		Legs: []task.StrategyLeg{
			{Type: "call", Side: "long", Strike: 100, Quantity: 1},
			{Type: "put", Side: "long", Strike: 100, Quantity: 1},
		},
		PnL:       &pnl,
		RiskNotes: []string{"max loss", "breakeven", "volatility"},
	}
}

const strategyAnalysis = `# Strategy

## Structure

Long straddle: buy one call at the 100 strike and buy one put at the 100 strike, long both legs.

## P&L

pnl: -6 if the stock moves 10% higher by expiry.

## Risk

Max loss is the premium paid; breakeven sits at strike plus premium either side. Elevated
volatility is the main driver of the entry cost.
`

func TestScoreOptions_FullSubmission(t *testing.T) {
	sub := score.Submission{Analysis: strategyAnalysis}
	components := ScoreOptions(sub, strategyGroundTruth())
	require.NoError(t, components.Validate())

	assert.Equal(t, 100.0, components.Get(ComponentPnL))
	assert.Greater(t, components.Get(ComponentStrategy), 90.0)
	assert.Greater(t, components.Get(ComponentRisk), 90.0)
}

func TestScoreOptions_EqualWeights(t *testing.T) {
	components := ScoreOptions(score.Submission{Analysis: strategyAnalysis}, strategyGroundTruth())
	for _, c := range components.Components {
		assert.Equal(t, 0.25, c.Weight, c.Name)
	}

	// Total must equal the mean of the four clamped components.
	want := (components.Get(ComponentPnL) + components.Get(ComponentGreeks) +
		components.Get(ComponentStrategy) + components.Get(ComponentRisk)) / 4
	assert.InDelta(t, want, components.Total(), 1e-9)
}

func TestScoreOptions_MissingRiskSectionZerosOnlyRisk(t *testing.T) {
	noRisk := `## Structure

Long straddle: buy one call at the 100 strike and buy one put at the 100 strike.

## P&L

pnl: -6
`
	components := ScoreOptions(score.Submission{Analysis: noRisk}, strategyGroundTruth())

	assert.Equal(t, 0.0, components.Get(ComponentRisk))
	assert.Equal(t, 100.0, components.Get(ComponentPnL), "other components unaffected")
	assert.Greater(t, components.Get(ComponentStrategy), 90.0)
}

func TestScoreOptions_GreeksAccuracy(t *testing.T) {
	gt := task.GroundTruth{
		Category: task.CategoryOptionsGreeks,
		Greeks:   &task.GreekSet{Delta: 0.64, Gamma: 0.018, Theta: -0.02, Vega: 0.37, Rho: 0.53},
	}
	sub := score.Submission{
		Analysis: "## Greeks\n\ndelta: 0.64, gamma: 0.018, theta: -0.02, vega: 0.37, rho: 0.53\n\n## Risk\n\nGamma dominates near expiry.\n",
	}
	components := ScoreOptions(sub, gt)
	assert.Equal(t, 100.0, components.Get(ComponentGreeks))

	// Dropping two greeks loses exactly their share.
	partial := score.Submission{Analysis: "## Greeks\n\ndelta: 0.64, gamma: 0.018, theta: -0.02\n"}
	partialComponents := ScoreOptions(partial, gt)
	assert.InDelta(t, 60.0, partialComponents.Get(ComponentGreeks), 0.01)
}

func TestScoreOptions_EmptySubmission(t *testing.T) {
	components := ScoreOptions(score.Submission{}, strategyGroundTruth())
	require.NoError(t, components.Validate())
	assert.Equal(t, 0.0, components.Total())
}
