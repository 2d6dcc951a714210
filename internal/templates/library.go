// Package templates holds the builtin task template library: one template
// per category, each pairing a prompt renderer with a ground-truth
// derivation rule over the locked data snapshot.
package templates

import (
	"fmt"
	"math"
	"time"

	"fabbench/domain/core"
	"fabbench/domain/market"
	"fabbench/domain/task"
)

// Slot names shared between templates and the provider capability map.
const (
	SlotFiling      = "filing"
	SlotPriorFiling = "prior_filing"
	SlotEstimate    = "estimate"
	SlotPriceBars   = "price_bars"
	SlotOptionChain = "option_chain"
	SlotRiskMetrics = "risk_metrics"
	SlotTradeFills  = "trade_fills"
)

const (
	quarterLookback = 100 * 24 * time.Hour
	yearLookback    = 400 * 24 * time.Hour
	priceLookback   = 30 * 24 * time.Hour
)

// Builtin constructs the full template registry. It fails fast on any
// invalid template so a broken library never reaches generation.
func Builtin() (*task.Registry, error) {
	reg := task.NewRegistry()
	all := []task.Template{
		beatOrMiss(),
		quantitativeRetrieval(),
		qualitativeRetrieval(),
		earningsSurprise(),
		revenueGrowth(),
		marginAnalysis(),
		guidanceEvaluation(),
		valuation(),
		segmentAnalysis(),
		macroImpact(),
		riskAssessment(),
		priceTarget(),
		trendAnalysis(),
		portfolioAllocation(),
		tradeExecution(),
		optionsPricing(),
		optionsGreeks(),
		optionsStrategy(),
	}
	for _, t := range all {
		if err := reg.Register(t); err != nil {
			return nil, fmt.Errorf("builtin template library: %w", err)
		}
	}
	return reg, nil
}

// roleRubric is the grading scheme shared by all non-options categories.
func roleRubric() task.Rubric {
	return task.Rubric{
		MaxScore: 100,
		Components: []task.RubricComponent{
			{Name: "thesis_quality", Description: "coherent thesis covering the expected themes with structured argument", Weight: 0.4},
			{Name: "fundamental_accuracy", Description: "numeric and directional agreement with the derived ground truth", Weight: 0.4},
			{Name: "execution_quality", Description: "methodology: tool usage, stated recommendation, analytical depth", Weight: 0.2},
		},
	}
}

// optionsRubric is the fixed four-axis scheme for the options categories.
func optionsRubric() task.Rubric {
	return task.Rubric{
		MaxScore: 100,
		Components: []task.RubricComponent{
			{Name: "pnl_accuracy", Description: "profit/loss or fair value agreement with the pricing model", Weight: 0.25},
			{Name: "greeks_accuracy", Description: "per-greek agreement with the pricing model", Weight: 0.25},
			{Name: "strategy_quality", Description: "legs, sides and strikes of the proposed structure", Weight: 0.25},
			{Name: "risk_management", Description: "dedicated risk discussion covering the flagged exposures", Weight: 0.25},
		},
	}
}

// latestWith returns the newest record of the given kind that carries the
// field, or false.
func latestWith(snap market.Snapshot, kind market.RecordKind, field string) (market.DataRecord, bool) {
	var best market.DataRecord
	found := false
	for _, rec := range snap.ByKind(kind) {
		if _, ok := rec.Number(field); !ok {
			continue
		}
		if !found || rec.EffectiveTime.After(best.EffectiveTime) {
			best = rec
			found = true
		}
	}
	return best, found
}

// priorTo returns the newest record of the kind carrying the field that is
// strictly older than the reference record.
func priorTo(snap market.Snapshot, kind market.RecordKind, field string, ref market.DataRecord) (market.DataRecord, bool) {
	var best market.DataRecord
	found := false
	for _, rec := range snap.ByKind(kind) {
		if rec.ID == ref.ID {
			continue
		}
		if _, ok := rec.Number(field); !ok {
			continue
		}
		if !rec.EffectiveTime.Before(ref.EffectiveTime) {
			continue
		}
		if !found || rec.EffectiveTime.After(best.EffectiveTime) {
			best = rec
			found = true
		}
	}
	return best, found
}

func ptr(v float64) *float64 { return &v }

func pctChange(current, prior float64) float64 {
	denom := math.Abs(prior)
	if denom < 1e-9 {
		denom = 1e-9
	}
	return (current - prior) / denom * 100
}

func asOfDate(asOf core.SimClock) string {
	return asOf.Time().UTC().Format("2006-01-02")
}

func periodOf(rec market.DataRecord) string {
	if p, ok := rec.Label(market.LabelPeriod); ok {
		return p
	}
	return "the most recent reported period"
}

func needSlot(slot string) (task.GroundTruth, error) {
	return task.GroundTruth{}, core.NewInsufficientDataError(slot, "snapshot")
}
