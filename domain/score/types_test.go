package score

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreComponents_Validate(t *testing.T) {
	valid := ScoreComponents{Components: []Component{
		{Name: "a", Score: 80, Weight: 0.4},
		{Name: "b", Score: 60, Weight: 0.6},
	}}
	assert.NoError(t, valid.Validate())

	assert.Error(t, ScoreComponents{}.Validate(), "empty component set")

	badWeights := ScoreComponents{Components: []Component{
		{Name: "a", Score: 80, Weight: 0.4},
		{Name: "b", Score: 60, Weight: 0.4},
	}}
	assert.Error(t, badWeights.Validate(), "weights must sum to 1")

	outOfRange := ScoreComponents{Components: []Component{
		{Name: "a", Score: 120, Weight: 1.0},
	}}
	assert.Error(t, outOfRange.Validate())
}

func TestScoreComponents_TotalAndGet(t *testing.T) {
	s := ScoreComponents{Components: []Component{
		{Name: "thesis", Score: 100, Weight: 0.4},
		{Name: "fundamental", Score: 50, Weight: 0.4},
		{Name: "execution", Score: 0, Weight: 0.2},
	}}

	assert.InDelta(t, 60.0, s.Total(), 1e-9)
	assert.Equal(t, 50.0, s.Get("fundamental"))
	assert.Zero(t, s.Get("absent"))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-5))
	assert.Equal(t, 0.0, Clamp(math.NaN()))
	assert.Equal(t, 100.0, Clamp(150))
	assert.Equal(t, 73.5, Clamp(73.5))
}

func TestCostMetrics_Validate(t *testing.T) {
	require.NoError(t, CostMetrics{PromptTokens: 100, CompletionTokens: 50, CostUSD: 0.02}.Validate())
	assert.NoError(t, CostMetrics{}.Validate(), "zero cost is legitimate")

	assert.Error(t, CostMetrics{PromptTokens: -1}.Validate())
	assert.Error(t, CostMetrics{CostUSD: math.NaN()}.Validate())
	assert.Error(t, CostMetrics{CostUSD: math.Inf(1)}.Validate())
	assert.Error(t, CostMetrics{CostUSD: -0.01}.Validate())
}

func TestMultiplierFromQuality_Bounds(t *testing.T) {
	assert.Equal(t, MinDebateMultiplier, MultiplierFromQuality(0))
	assert.InDelta(t, 1.0, MultiplierFromQuality(0.5), 1e-9)
	assert.Equal(t, MaxDebateMultiplier, MultiplierFromQuality(1))

	assert.Equal(t, MinDebateMultiplier, MultiplierFromQuality(-0.3))
	assert.Equal(t, MaxDebateMultiplier, MultiplierFromQuality(2.5))
	assert.Equal(t, MinDebateMultiplier, MultiplierFromQuality(math.NaN()))
}

func TestMultiplierFromQuality_Monotone(t *testing.T) {
	prev := MultiplierFromQuality(0)
	for q := 0.05; q <= 1.0; q += 0.05 {
		m := MultiplierFromQuality(q)
		assert.GreaterOrEqual(t, m, prev)
		prev = m
	}
}
