package templates

import (
	"fmt"

	"fabbench/domain/core"
	"fabbench/domain/market"
	"fabbench/domain/task"
)

// targetVol is the annualized portfolio volatility the sizing rule aims at.
const targetVol = 15.0

func portfolioAllocation() task.Template {
	return task.Template{
		ID:         "portfolio_allocation_v1",
		Category:   task.CategoryPortfolioAllocation,
		Difficulty: task.DifficultyHard,
		Slots: []task.SlotSpec{
			{Name: SlotRiskMetrics, Kind: market.KindRiskMetrics, MinRecords: 1, Lookback: priceLookback, Required: true},
			{Name: SlotPriceBars, Kind: market.KindPriceBar, MinRecords: 1, Lookback: priceLookback, Required: false},
		},
		Rubric: roleRubric(),
		Render: func(snap market.Snapshot, asOf core.SimClock, ticker string) string {
			return fmt.Sprintf(
				"As of %s, size a position in %s for a portfolio targeting %.0f%% annualized "+
					"volatility, using inverse-volatility scaling against the stock's realized "+
					"volatility.\n\n"+
					"State the allocation weight as a percentage (capped at 100%%) and discuss the "+
					"diversification trade-offs of the sizing.",
				asOfDate(asOf), ticker, targetVol)
		},
		Derive: func(snap market.Snapshot, asOf core.SimClock) (task.GroundTruth, error) {
			risk, ok := latestWith(snap, market.KindRiskMetrics, market.FieldRealizedVol)
			if !ok {
				return needSlot(SlotRiskMetrics)
			}
			vol, _ := risk.Number(market.FieldRealizedVol)
			if vol <= 0 {
				return needSlot(SlotRiskMetrics)
			}
			weight := targetVol / vol * 100
			if weight > 100 {
				weight = 100
			}
			return task.GroundTruth{
				Category:  task.CategoryPortfolioAllocation,
				Numeric:   ptr(weight),
				Formatted: fmt.Sprintf("%.1f%%", weight),
				KeyThemes: []string{"volatility", "diversification", "sizing"},
			}, nil
		},
	}
}

func tradeExecution() task.Template {
	return task.Template{
		ID:         "trade_execution_v1",
		Category:   task.CategoryTradeExecution,
		Difficulty: task.DifficultyMedium,
		Slots: []task.SlotSpec{
			{Name: SlotTradeFills, Kind: market.KindTradeFill, MinRecords: 2, Lookback: priceLookback, Required: true},
			{Name: SlotPriceBars, Kind: market.KindPriceBar, MinRecords: 1, Lookback: priceLookback, Required: true},
		},
		Rubric: roleRubric(),
		Render: func(snap market.Snapshot, asOf core.SimClock, ticker string) string {
			n := len(snap.ByKind(market.KindTradeFill))
			return fmt.Sprintf(
				"As of %s, evaluate the execution quality of a buy order in %s filled across %d "+
					"partial fills.\n\n"+
					"Compute the volume-weighted average fill price, the slippage versus the "+
					"session's closing price in basis points, and judge whether the execution was "+
					"acceptable.",
				asOfDate(asOf), ticker, n)
		},
		Derive: func(snap market.Snapshot, asOf core.SimClock) (task.GroundTruth, error) {
			fills := snap.ByKind(market.KindTradeFill)
			if len(fills) == 0 {
				return needSlot(SlotTradeFills)
			}
			bar, ok := snap.Latest(market.KindPriceBar)
			if !ok {
				return needSlot(SlotPriceBars)
			}
			closePx, hasClose := bar.Number(market.FieldClose)
			if !hasClose || closePx <= 0 {
				return needSlot(SlotPriceBars)
			}

			notional, qty := 0.0, 0.0
			for _, f := range fills {
				px, okP := f.Number(market.FieldFillPrice)
				q, okQ := f.Number(market.FieldFillQty)
				if !okP || !okQ || q <= 0 {
					continue
				}
				notional += px * q
				qty += q
			}
			if qty <= 0 {
				return needSlot(SlotTradeFills)
			}
			vwap := notional / qty
			slippageBps := (vwap - closePx) / closePx * 10000

			return task.GroundTruth{
				Category:  task.CategoryTradeExecution,
				Numeric:   ptr(slippageBps),
				Formatted: fmt.Sprintf("%+.1f bps", slippageBps),
				KeyThemes: []string{"vwap", "slippage", "execution"},
			}, nil
		},
	}
}
