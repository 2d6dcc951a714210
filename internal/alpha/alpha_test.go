package alpha

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"fabbench/domain/score"
)

func TestCostEfficiency_Bounds(t *testing.T) {
	a := NewAggregator(DefaultConfig)

	assert.Equal(t, 1.0, a.CostEfficiency(score.CostMetrics{}), "zero cost is perfectly efficient")
	assert.InDelta(t, 0.5, a.CostEfficiency(score.CostMetrics{CostUSD: DefaultConfig.ReferenceCostUSD}), 1e-9)

	eff := a.CostEfficiency(score.CostMetrics{CostUSD: 100})
	assert.Greater(t, eff, 0.0)
	assert.Less(t, eff, 0.01)
}

func TestCostEfficiency_MonotoneNonIncreasing(t *testing.T) {
	a := NewAggregator(DefaultConfig)
	prev := 2.0
	for usd := 0.0; usd <= 10; usd += 0.1 {
		eff := a.CostEfficiency(score.CostMetrics{CostUSD: usd})
		assert.LessOrEqual(t, eff, prev, "efficiency must not rise with cost (usd=%.1f)", usd)
		prev = eff
	}
}

func TestCostEfficiency_WorseRatioGoverns(t *testing.T) {
	a := NewAggregator(DefaultConfig)

	// Dollar cost dominates when it is the heavier ratio.
	both := score.CostMetrics{CostUSD: 0.5, PromptTokens: 1}
	assert.InDelta(t, 0.5, a.CostEfficiency(both), 1e-9)

	// Tokens drive the ratio when no dollar cost is reported.
	tokensOnly := score.CostMetrics{PromptTokens: 10000, CompletionTokens: 10000}
	assert.InDelta(t, 0.5, a.CostEfficiency(tokensOnly), 1e-9)
}

func TestCostEfficiency_ExtraSignalNeverRaises(t *testing.T) {
	a := NewAggregator(DefaultConfig)

	tokenHeavy := score.CostMetrics{PromptTokens: 20000, CompletionTokens: 20000}
	withTinyUSD := tokenHeavy
	withTinyUSD.CostUSD = 0.01

	assert.LessOrEqual(t, a.CostEfficiency(withTinyUSD), a.CostEfficiency(tokenHeavy),
		"reporting a small dollar cost on top of heavy token usage must not improve efficiency")
}

func TestAggregate_Composition(t *testing.T) {
	a := NewAggregator(DefaultConfig)

	result := a.Aggregate(80, score.DebateRound{Multiplier: 1.1}, score.CostMetrics{})
	assert.Equal(t, 80.0, result.Base)
	assert.Equal(t, 1.1, result.DebateMultiplier)
	assert.Equal(t, 1.0, result.CostEfficiency)
	assert.InDelta(t, 88.0, result.Score, 1e-9)
}

func TestAggregate_ClampsInputs(t *testing.T) {
	a := NewAggregator(DefaultConfig)

	// Out-of-range multiplier falls to the floor rather than inflating.
	result := a.Aggregate(150, score.DebateRound{Multiplier: 3.0}, score.CostMetrics{})
	assert.Equal(t, 100.0, result.Base)
	assert.Equal(t, score.MinDebateMultiplier, result.DebateMultiplier)
	assert.InDelta(t, 80.0, result.Score, 1e-9)
}

func TestAggregate_ScoreMonotoneInCost(t *testing.T) {
	a := NewAggregator(DefaultConfig)
	round := score.DebateRound{Multiplier: 1.0}

	prev := 1e9
	for usd := 0.0; usd <= 5; usd += 0.25 {
		result := a.Aggregate(90, round, score.CostMetrics{CostUSD: usd})
		assert.LessOrEqual(t, result.Score, prev)
		prev = result.Score
	}
}

func TestNewAggregator_DefaultsInvalidConfig(t *testing.T) {
	a := NewAggregator(Config{ReferenceCostUSD: -1, ReferenceTokens: 0})
	assert.InDelta(t, 0.5, a.CostEfficiency(score.CostMetrics{CostUSD: DefaultConfig.ReferenceCostUSD}), 1e-9)
}
