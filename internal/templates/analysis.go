package templates

import (
	"fmt"
	"math"
	"sort"

	"fabbench/domain/core"
	"fabbench/domain/market"
	"fabbench/domain/task"
)

func valuation() task.Template {
	return task.Template{
		ID:         "valuation_v1",
		Category:   task.CategoryValuation,
		Difficulty: task.DifficultyHard,
		Slots: []task.SlotSpec{
			{Name: SlotFiling, Kind: market.KindFiling, MinRecords: 1, Lookback: yearLookback, Required: true},
			{Name: SlotPriceBars, Kind: market.KindPriceBar, MinRecords: 1, Lookback: priceLookback, Required: true},
		},
		Rubric: roleRubric(),
		Render: func(snap market.Snapshot, asOf core.SimClock, ticker string) string {
			return fmt.Sprintf(
				"As of %s, value %s on a trailing price-to-earnings basis using the latest "+
					"closing price and reported annualized EPS.\n\n"+
					"State the P/E multiple, compare it against a sensible range for the business, "+
					"and conclude whether the shares look cheap, fair or rich.",
				asOfDate(asOf), ticker)
		},
		Derive: func(snap market.Snapshot, asOf core.SimClock) (task.GroundTruth, error) {
			filing, ok := latestWith(snap, market.KindFiling, market.FieldEPS)
			if !ok {
				return needSlot(SlotFiling)
			}
			bar, ok := snap.Latest(market.KindPriceBar)
			if !ok {
				return needSlot(SlotPriceBars)
			}
			eps, _ := filing.Number(market.FieldEPS)
			closePx, hasClose := bar.Number(market.FieldClose)
			if !hasClose {
				return needSlot(SlotPriceBars)
			}
			// Quarterly EPS annualized; a filing already reporting annual EPS
			// carries fiscal_quarter = 0.
			annual := eps * 4
			if q, ok := filing.Number(market.FieldFiscalQtr); ok && q == 0 {
				annual = eps
			}
			if math.Abs(annual) < 1e-9 {
				return needSlot(SlotFiling)
			}
			pe := closePx / annual
			return task.GroundTruth{
				Category:  task.CategoryValuation,
				Numeric:   ptr(pe),
				Formatted: fmt.Sprintf("%.1fx", pe),
				KeyThemes: []string{"valuation", "multiple", "earnings"},
			}, nil
		},
	}
}

func segmentAnalysis() task.Template {
	return task.Template{
		ID:         "segment_analysis_v1",
		Category:   task.CategorySegmentAnalysis,
		Difficulty: task.DifficultyMedium,
		Slots: []task.SlotSpec{
			{Name: SlotFiling, Kind: market.KindFiling, MinRecords: 2, Lookback: quarterLookback, Required: true},
		},
		Rubric: roleRubric(),
		Render: func(snap market.Snapshot, asOf core.SimClock, ticker string) string {
			return fmt.Sprintf(
				"As of %s, break down %s's revenue by reporting segment.\n\n"+
					"Identify the largest segment, state its share of total revenue as a percentage, "+
					"and discuss concentration risk across the mix.",
				asOfDate(asOf), ticker)
		},
		Derive: func(snap market.Snapshot, asOf core.SimClock) (task.GroundTruth, error) {
			totals := make(map[string]float64)
			for _, rec := range snap.ByKind(market.KindFiling) {
				seg, ok := rec.Label(market.LabelSegment)
				if !ok {
					continue
				}
				if rev, ok := rec.Number(market.FieldRevenue); ok {
					totals[seg] += rev
				}
			}
			if len(totals) < 2 {
				return needSlot(SlotFiling)
			}

			names := make([]string, 0, len(totals))
			total := 0.0
			for seg, rev := range totals {
				names = append(names, seg)
				total += rev
			}
			sort.Strings(names)

			largest, largestRev := "", 0.0
			for _, seg := range names {
				if totals[seg] > largestRev {
					largest, largestRev = seg, totals[seg]
				}
			}
			share := largestRev / total * 100
			return task.GroundTruth{
				Category:  task.CategorySegmentAnalysis,
				Numeric:   ptr(share),
				Formatted: fmt.Sprintf("%.1f%%", share),
				Direction: largest,
				KeyThemes: append(names, "concentration"),
			}, nil
		},
	}
}

func macroImpact() task.Template {
	return task.Template{
		ID:         "macro_impact_v1",
		Category:   task.CategoryMacroImpact,
		Difficulty: task.DifficultyHard,
		Slots: []task.SlotSpec{
			{Name: SlotRiskMetrics, Kind: market.KindRiskMetrics, MinRecords: 1, Lookback: priceLookback, Required: true},
			{Name: SlotPriceBars, Kind: market.KindPriceBar, MinRecords: 1, Lookback: priceLookback, Required: false},
		},
		Rubric: roleRubric(),
		Render: func(snap market.Snapshot, asOf core.SimClock, ticker string) string {
			return fmt.Sprintf(
				"As of %s, estimate the expected move in %s shares if the broad equity market "+
					"declines 5%%, using the stock's market beta.\n\n"+
					"State the expected percentage move and discuss which macro channels (rates, "+
					"demand, currency) matter most for the name.",
				asOfDate(asOf), ticker)
		},
		Derive: func(snap market.Snapshot, asOf core.SimClock) (task.GroundTruth, error) {
			risk, ok := latestWith(snap, market.KindRiskMetrics, market.FieldBeta)
			if !ok {
				return needSlot(SlotRiskMetrics)
			}
			beta, _ := risk.Number(market.FieldBeta)
			move := -5.0 * beta
			return task.GroundTruth{
				Category:  task.CategoryMacroImpact,
				Numeric:   ptr(move),
				Formatted: fmt.Sprintf("%+.2f%%", move),
				Direction: "down",
				KeyThemes: []string{"beta", "rates", "demand"},
			}, nil
		},
	}
}

func riskAssessment() task.Template {
	return task.Template{
		ID:         "risk_assessment_v1",
		Category:   task.CategoryRiskAssessment,
		Difficulty: task.DifficultyHard,
		Slots: []task.SlotSpec{
			{Name: SlotRiskMetrics, Kind: market.KindRiskMetrics, MinRecords: 1, Lookback: priceLookback, Required: true},
		},
		Rubric: roleRubric(),
		Render: func(snap market.Snapshot, asOf core.SimClock, ticker string) string {
			return fmt.Sprintf(
				"As of %s, assess the risk profile of a long position in %s.\n\n"+
					"Report the one-day 95%% value-at-risk as a percentage of position value, put it "+
					"in context with realized volatility, and name the main downside scenarios.",
				asOfDate(asOf), ticker)
		},
		Derive: func(snap market.Snapshot, asOf core.SimClock) (task.GroundTruth, error) {
			risk, ok := latestWith(snap, market.KindRiskMetrics, market.FieldVaR95)
			if !ok {
				return needSlot(SlotRiskMetrics)
			}
			vaR, _ := risk.Number(market.FieldVaR95)
			return task.GroundTruth{
				Category:  task.CategoryRiskAssessment,
				Numeric:   ptr(vaR),
				Formatted: fmt.Sprintf("%.2f%%", vaR),
				KeyThemes: []string{"volatility", "drawdown", "value-at-risk"},
			}, nil
		},
	}
}

func priceTarget() task.Template {
	return task.Template{
		ID:         "price_target_v1",
		Category:   task.CategoryPriceTarget,
		Difficulty: task.DifficultyHard,
		Slots: []task.SlotSpec{
			{Name: SlotFiling, Kind: market.KindFiling, MinRecords: 1, Lookback: yearLookback, Required: true},
			{Name: SlotPriceBars, Kind: market.KindPriceBar, MinRecords: 1, Lookback: priceLookback, Required: true},
		},
		Rubric: roleRubric(),
		Render: func(snap market.Snapshot, asOf core.SimClock, ticker string) string {
			return fmt.Sprintf(
				"As of %s, set a 12-month price target for %s by applying the company's guided "+
					"EPS growth to the latest closing price.\n\n"+
					"State the target, the implied upside or downside versus the last close, and a "+
					"buy/sell/hold recommendation.",
				asOfDate(asOf), ticker)
		},
		Derive: func(snap market.Snapshot, asOf core.SimClock) (task.GroundTruth, error) {
			filing, ok := latestWith(snap, market.KindFiling, market.FieldGuidanceEPS)
			if !ok {
				return needSlot(SlotFiling)
			}
			eps, hasEPS := filing.Number(market.FieldEPS)
			if !hasEPS || math.Abs(eps) < 1e-9 {
				return needSlot(SlotFiling)
			}
			bar, ok := snap.Latest(market.KindPriceBar)
			if !ok {
				return needSlot(SlotPriceBars)
			}
			closePx, hasClose := bar.Number(market.FieldClose)
			if !hasClose {
				return needSlot(SlotPriceBars)
			}
			guidance, _ := filing.Number(market.FieldGuidanceEPS)
			growth := (guidance - eps) / math.Abs(eps)
			target := closePx * (1 + growth)

			direction := "hold"
			switch {
			case target > closePx*1.05:
				direction = "buy"
			case target < closePx*0.95:
				direction = "sell"
			}
			return task.GroundTruth{
				Category:  task.CategoryPriceTarget,
				Numeric:   ptr(target),
				Formatted: fmt.Sprintf("$%.2f", target),
				Direction: direction,
				KeyThemes: []string{"target", "upside", "earnings"},
			}, nil
		},
	}
}

func trendAnalysis() task.Template {
	return task.Template{
		ID:         "trend_analysis_v1",
		Category:   task.CategoryTrendAnalysis,
		Difficulty: task.DifficultyMedium,
		Slots: []task.SlotSpec{
			{Name: SlotPriceBars, Kind: market.KindPriceBar, MinRecords: 5, Lookback: priceLookback, Required: true},
		},
		Rubric: roleRubric(),
		Render: func(snap market.Snapshot, asOf core.SimClock, ticker string) string {
			n := len(snap.ByKind(market.KindPriceBar))
			return fmt.Sprintf(
				"As of %s, analyze the price trend in %s over the last %d trading sessions.\n\n"+
					"Is the trend up or down, and what is the cumulative percentage move from the "+
					"first to the last close in the window?",
				asOfDate(asOf), ticker, n)
		},
		Derive: func(snap market.Snapshot, asOf core.SimClock) (task.GroundTruth, error) {
			bars := snap.ByKind(market.KindPriceBar)
			if len(bars) < 2 {
				return needSlot(SlotPriceBars)
			}
			sort.Slice(bars, func(i, j int) bool {
				return bars[i].EffectiveTime.Before(bars[j].EffectiveTime)
			})
			first, ok1 := bars[0].Number(market.FieldClose)
			last, ok2 := bars[len(bars)-1].Number(market.FieldClose)
			if !ok1 || !ok2 {
				return needSlot(SlotPriceBars)
			}
			move := pctChange(last, first)

			direction := "up"
			if move < 0 {
				direction = "down"
			}
			return task.GroundTruth{
				Category:  task.CategoryTrendAnalysis,
				Numeric:   ptr(move),
				Formatted: fmt.Sprintf("%+.2f%%", move),
				Direction: direction,
				KeyThemes: []string{"trend", "momentum"},
			}, nil
		},
	}
}
