// Package alpha aggregates the base score, debate multiplier and cost
// efficiency into the final alpha score for a task.
package alpha

import (
	"math"

	"fabbench/domain/score"
)

// Reference costs define the point at which cost efficiency halves.
type Config struct {
	ReferenceCostUSD float64
	ReferenceTokens  float64
}

var DefaultConfig = Config{
	ReferenceCostUSD: 0.50,
	ReferenceTokens:  20000,
}

type Aggregator struct {
	cfg Config
}

func NewAggregator(cfg Config) *Aggregator {
	if cfg.ReferenceCostUSD <= 0 {
		cfg.ReferenceCostUSD = DefaultConfig.ReferenceCostUSD
	}
	if cfg.ReferenceTokens <= 0 {
		cfg.ReferenceTokens = DefaultConfig.ReferenceTokens
	}
	return &Aggregator{cfg: cfg}
}

// CostEfficiency maps resource usage to (0,1], non-increasing in every
// cost component: zero cost maps to 1, the reference cost to 0.5. Dollar
// cost and token count are independent signals; the worse ratio governs,
// so reporting an extra signal can never raise the factor.
func (a *Aggregator) CostEfficiency(cost score.CostMetrics) float64 {
	usdRatio := cost.CostUSD / a.cfg.ReferenceCostUSD
	tokenRatio := float64(cost.TotalTokens()) / a.cfg.ReferenceTokens
	ratio := math.Max(usdRatio, tokenRatio)
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) || ratio < 0 {
		ratio = 0
	}
	return 1 / (1 + ratio)
}

// Aggregate computes the final alpha score:
//
//	alpha = base * debate_multiplier * cost_efficiency
//
// Base is in [0,100] and the multiplier in [0.8,1.2], so alpha lands in
// [0,120] before the efficiency discount.
func (a *Aggregator) Aggregate(base float64, round score.DebateRound, cost score.CostMetrics) score.AlphaScore {
	base = score.Clamp(base)

	mult := round.Multiplier
	if mult < score.MinDebateMultiplier || mult > score.MaxDebateMultiplier {
		mult = score.MinDebateMultiplier
	}

	eff := a.CostEfficiency(cost)
	return score.AlphaScore{
		Base:             base,
		DebateMultiplier: mult,
		CostEfficiency:   eff,
		Score:            base * mult * eff,
	}
}
