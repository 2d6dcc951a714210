package templates

import (
	"fmt"
	"strings"

	"fabbench/domain/core"
	"fabbench/domain/market"
	"fabbench/domain/task"
)

func beatOrMiss() task.Template {
	return task.Template{
		ID:         "beat_or_miss_v1",
		Category:   task.CategoryBeatOrMiss,
		Difficulty: task.DifficultyEasy,
		Slots: []task.SlotSpec{
			{Name: SlotFiling, Kind: market.KindFiling, MinRecords: 1, Lookback: quarterLookback, Required: true},
			{Name: SlotEstimate, Kind: market.KindEstimate, MinRecords: 1, Lookback: quarterLookback, Required: true},
		},
		Rubric: roleRubric(),
		Render: func(snap market.Snapshot, asOf core.SimClock, ticker string) string {
			filing, _ := latestWith(snap, market.KindFiling, market.FieldEPS)
			return fmt.Sprintf(
				"As of %s, analyze %s's earnings report for %s.\n\n"+
					"Did the company beat or miss the consensus EPS estimate? State your verdict "+
					"explicitly as \"beat\" or \"miss\", quantify the surprise in percent, and support "+
					"your answer with the reported and consensus figures.",
				asOfDate(asOf), ticker, periodOf(filing))
		},
		Derive: func(snap market.Snapshot, asOf core.SimClock) (task.GroundTruth, error) {
			filing, ok := latestWith(snap, market.KindFiling, market.FieldEPS)
			if !ok {
				return needSlot(SlotFiling)
			}
			estimate, ok := latestWith(snap, market.KindEstimate, market.FieldConsensusEPS)
			if !ok {
				return needSlot(SlotEstimate)
			}
			actual, _ := filing.Number(market.FieldEPS)
			consensus, _ := estimate.Number(market.FieldConsensusEPS)

			direction := "beat"
			if actual < consensus {
				direction = "miss"
			}
			surprise := pctChange(actual, consensus)
			return task.GroundTruth{
				Category:  task.CategoryBeatOrMiss,
				Numeric:   ptr(surprise),
				Formatted: fmt.Sprintf("%.2f%%", surprise),
				Direction: direction,
				KeyThemes: []string{"eps", "consensus", "surprise"},
			}, nil
		},
	}
}

func quantitativeRetrieval() task.Template {
	return task.Template{
		ID:         "quantitative_retrieval_v1",
		Category:   task.CategoryQuantitativeRetrieval,
		Difficulty: task.DifficultyEasy,
		Slots: []task.SlotSpec{
			{Name: SlotFiling, Kind: market.KindFiling, MinRecords: 1, Lookback: quarterLookback, Required: true},
		},
		Rubric: roleRubric(),
		Render: func(snap market.Snapshot, asOf core.SimClock, ticker string) string {
			filing, _ := latestWith(snap, market.KindFiling, market.FieldRevenue)
			return fmt.Sprintf(
				"As of %s, retrieve %s's reported total revenue for %s.\n\n"+
					"State the exact figure in dollars and name the filing it comes from.",
				asOfDate(asOf), ticker, periodOf(filing))
		},
		Derive: func(snap market.Snapshot, asOf core.SimClock) (task.GroundTruth, error) {
			filing, ok := latestWith(snap, market.KindFiling, market.FieldRevenue)
			if !ok {
				return needSlot(SlotFiling)
			}
			revenue, _ := filing.Number(market.FieldRevenue)
			return task.GroundTruth{
				Category:  task.CategoryQuantitativeRetrieval,
				Numeric:   ptr(revenue),
				Formatted: fmt.Sprintf("$%.0f", revenue),
				KeyThemes: []string{"revenue"},
			}, nil
		},
	}
}

func qualitativeRetrieval() task.Template {
	return task.Template{
		ID:         "qualitative_retrieval_v1",
		Category:   task.CategoryQualitativeRetrieval,
		Difficulty: task.DifficultyEasy,
		Slots: []task.SlotSpec{
			{Name: SlotFiling, Kind: market.KindFiling, MinRecords: 1, Lookback: yearLookback, Required: true},
		},
		Rubric: roleRubric(),
		Render: func(snap market.Snapshot, asOf core.SimClock, ticker string) string {
			section := "management discussion"
			for _, rec := range snap.ByKind(market.KindFiling) {
				if s, ok := rec.Label(market.LabelSection); ok {
					section = s
					break
				}
			}
			return fmt.Sprintf(
				"As of %s, summarize the key points %s disclosed in its %s section.\n\n"+
					"Cover every material theme and quote the disclosure where useful.",
				asOfDate(asOf), ticker, section)
		},
		Derive: func(snap market.Snapshot, asOf core.SimClock) (task.GroundTruth, error) {
			var themes []string
			for _, rec := range snap.ByKind(market.KindFiling) {
				text, ok := rec.Label(market.LabelText)
				if !ok {
					continue
				}
				themes = append(themes, qualitativeThemes(text)...)
			}
			if len(themes) == 0 {
				return needSlot(SlotFiling)
			}
			return task.GroundTruth{
				Category:  task.CategoryQualitativeRetrieval,
				KeyThemes: themes,
			}, nil
		},
	}
}

// qualitativeThemes extracts the substantive terms of a disclosure as the
// coverage checklist the grader counts against.
func qualitativeThemes(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, word := range strings.Fields(strings.ToLower(text)) {
		word = strings.Trim(word, `.,;:"'()?!`)
		if len(word) < 6 || seen[word] {
			continue
		}
		seen[word] = true
		out = append(out, word)
		if len(out) == 8 {
			break
		}
	}
	return out
}

func earningsSurprise() task.Template {
	return task.Template{
		ID:         "earnings_surprise_v1",
		Category:   task.CategoryEarningsSurprise,
		Difficulty: task.DifficultyMedium,
		Slots: []task.SlotSpec{
			{Name: SlotFiling, Kind: market.KindFiling, MinRecords: 1, Lookback: quarterLookback, Required: true},
			{Name: SlotEstimate, Kind: market.KindEstimate, MinRecords: 1, Lookback: quarterLookback, Required: true},
			{Name: SlotPriceBars, Kind: market.KindPriceBar, MinRecords: 1, Lookback: priceLookback, Required: false},
		},
		Rubric: roleRubric(),
		Render: func(snap market.Snapshot, asOf core.SimClock, ticker string) string {
			filing, _ := latestWith(snap, market.KindFiling, market.FieldEPS)
			return fmt.Sprintf(
				"As of %s, compute %s's earnings surprise for %s: the percentage by which "+
					"reported EPS deviated from consensus.\n\n"+
					"State the surprise as a signed percentage and discuss what likely drove the gap "+
					"and how the market would interpret it.",
				asOfDate(asOf), ticker, periodOf(filing))
		},
		Derive: func(snap market.Snapshot, asOf core.SimClock) (task.GroundTruth, error) {
			filing, ok := latestWith(snap, market.KindFiling, market.FieldEPS)
			if !ok {
				return needSlot(SlotFiling)
			}
			estimate, ok := latestWith(snap, market.KindEstimate, market.FieldConsensusEPS)
			if !ok {
				return needSlot(SlotEstimate)
			}
			actual, _ := filing.Number(market.FieldEPS)
			consensus, _ := estimate.Number(market.FieldConsensusEPS)
			surprise := pctChange(actual, consensus)

			direction := "beat"
			if surprise < 0 {
				direction = "miss"
			}
			return task.GroundTruth{
				Category:  task.CategoryEarningsSurprise,
				Numeric:   ptr(surprise),
				Formatted: fmt.Sprintf("%+.2f%%", surprise),
				Direction: direction,
				KeyThemes: []string{"surprise", "consensus", "guidance"},
			}, nil
		},
	}
}

func revenueGrowth() task.Template {
	return task.Template{
		ID:         "revenue_growth_v1",
		Category:   task.CategoryRevenueGrowth,
		Difficulty: task.DifficultyMedium,
		Slots: []task.SlotSpec{
			{Name: SlotFiling, Kind: market.KindFiling, MinRecords: 2, Lookback: yearLookback, Required: true},
		},
		Rubric: roleRubric(),
		Render: func(snap market.Snapshot, asOf core.SimClock, ticker string) string {
			latest, _ := latestWith(snap, market.KindFiling, market.FieldRevenue)
			return fmt.Sprintf(
				"As of %s, compute %s's revenue growth rate from the prior comparable period to %s.\n\n"+
					"State the growth as a percentage and assess whether the trajectory is accelerating "+
					"or decelerating.",
				asOfDate(asOf), ticker, periodOf(latest))
		},
		Derive: func(snap market.Snapshot, asOf core.SimClock) (task.GroundTruth, error) {
			latest, ok := latestWith(snap, market.KindFiling, market.FieldRevenue)
			if !ok {
				return needSlot(SlotFiling)
			}
			prior, ok := priorTo(snap, market.KindFiling, market.FieldRevenue, latest)
			if !ok {
				return needSlot(SlotPriorFiling)
			}
			cur, _ := latest.Number(market.FieldRevenue)
			prev, _ := prior.Number(market.FieldRevenue)
			growth := pctChange(cur, prev)

			direction := "up"
			if growth < 0 {
				direction = "down"
			}
			return task.GroundTruth{
				Category:  task.CategoryRevenueGrowth,
				Numeric:   ptr(growth),
				Formatted: fmt.Sprintf("%+.2f%%", growth),
				Direction: direction,
				KeyThemes: []string{"revenue", "growth"},
			}, nil
		},
	}
}

func marginAnalysis() task.Template {
	return task.Template{
		ID:         "margin_analysis_v1",
		Category:   task.CategoryMarginAnalysis,
		Difficulty: task.DifficultyMedium,
		Slots: []task.SlotSpec{
			{Name: SlotFiling, Kind: market.KindFiling, MinRecords: 1, Lookback: quarterLookback, Required: true},
		},
		Rubric: roleRubric(),
		Render: func(snap market.Snapshot, asOf core.SimClock, ticker string) string {
			filing, _ := latestWith(snap, market.KindFiling, market.FieldGrossMargin)
			return fmt.Sprintf(
				"As of %s, analyze %s's gross margin for %s.\n\n"+
					"State the margin as a percentage, compare it to the prior period if disclosed, and "+
					"explain the main cost or mix drivers behind the level.",
				asOfDate(asOf), ticker, periodOf(filing))
		},
		Derive: func(snap market.Snapshot, asOf core.SimClock) (task.GroundTruth, error) {
			filing, ok := latestWith(snap, market.KindFiling, market.FieldGrossMargin)
			if !ok {
				return needSlot(SlotFiling)
			}
			margin, _ := filing.Number(market.FieldGrossMargin)
			return task.GroundTruth{
				Category:  task.CategoryMarginAnalysis,
				Numeric:   ptr(margin),
				Formatted: fmt.Sprintf("%.1f%%", margin),
				KeyThemes: []string{"margin", "cost"},
			}, nil
		},
	}
}

func guidanceEvaluation() task.Template {
	return task.Template{
		ID:         "guidance_evaluation_v1",
		Category:   task.CategoryGuidanceEvaluation,
		Difficulty: task.DifficultyMedium,
		Slots: []task.SlotSpec{
			{Name: SlotFiling, Kind: market.KindFiling, MinRecords: 1, Lookback: quarterLookback, Required: true},
			{Name: SlotEstimate, Kind: market.KindEstimate, MinRecords: 1, Lookback: quarterLookback, Required: true},
		},
		Rubric: roleRubric(),
		Render: func(snap market.Snapshot, asOf core.SimClock, ticker string) string {
			return fmt.Sprintf(
				"As of %s, evaluate %s's forward EPS guidance against the prevailing consensus "+
					"estimate.\n\n"+
					"Is guidance above or below consensus, and by what percentage? Conclude whether "+
					"the guidance is conservative or aggressive.",
				asOfDate(asOf), ticker)
		},
		Derive: func(snap market.Snapshot, asOf core.SimClock) (task.GroundTruth, error) {
			filing, ok := latestWith(snap, market.KindFiling, market.FieldGuidanceEPS)
			if !ok {
				return needSlot(SlotFiling)
			}
			estimate, ok := latestWith(snap, market.KindEstimate, market.FieldConsensusEPS)
			if !ok {
				return needSlot(SlotEstimate)
			}
			guidance, _ := filing.Number(market.FieldGuidanceEPS)
			consensus, _ := estimate.Number(market.FieldConsensusEPS)
			gap := pctChange(guidance, consensus)

			direction := "above"
			if gap < 0 {
				direction = "below"
			}
			return task.GroundTruth{
				Category:  task.CategoryGuidanceEvaluation,
				Numeric:   ptr(gap),
				Formatted: fmt.Sprintf("%+.2f%%", gap),
				Direction: direction,
				KeyThemes: []string{"guidance", "consensus"},
			}, nil
		},
	}
}
