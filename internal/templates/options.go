package templates

import (
	"fmt"
	"math"

	"fabbench/domain/core"
	"fabbench/domain/market"
	"fabbench/domain/task"
	"fabbench/internal/options"
)

// pricingInputFrom builds the model inputs from an option quote record.
func pricingInputFrom(rec market.DataRecord) (options.PricingInput, error) {
	spot, okSpot := rec.Number(market.FieldSpot)
	strike, okStrike := rec.Number(market.FieldStrike)
	vol, okVol := rec.Number(market.FieldImpliedVol)
	expiry, okExp := rec.Number(market.FieldExpiryDays)
	if !okSpot || !okStrike || !okVol || !okExp {
		return options.PricingInput{}, core.NewInsufficientDataError(SlotOptionChain, string(rec.Source))
	}
	rate, _ := rec.Number(market.FieldRate) // zero rate is valid
	optType, _ := rec.Label(market.LabelOptionType)

	in := options.PricingInput{
		Spot:     spot,
		Strike:   strike,
		Rate:     rate,
		Vol:      vol,
		TTMYears: expiry / 365.0,
		Call:     optType != "put",
	}
	if err := in.Validate(); err != nil {
		return options.PricingInput{}, fmt.Errorf("option quote %s: %w", rec.ID, err)
	}
	return in, nil
}

func describeQuote(rec market.DataRecord) string {
	strike, _ := rec.Number(market.FieldStrike)
	expiry, _ := rec.Number(market.FieldExpiryDays)
	vol, _ := rec.Number(market.FieldImpliedVol)
	spot, _ := rec.Number(market.FieldSpot)
	optType, _ := rec.Label(market.LabelOptionType)
	if optType == "" {
		optType = "call"
	}
	return fmt.Sprintf("the %.2f-strike %s expiring in %.0f days (spot %.2f, implied vol %.1f%%)",
		strike, optType, expiry, spot, vol*100)
}

func optionsPricing() task.Template {
	return task.Template{
		ID:         "options_pricing_v1",
		Category:   task.CategoryOptionsPricing,
		Difficulty: task.DifficultyMedium,
		Slots: []task.SlotSpec{
			{Name: SlotOptionChain, Kind: market.KindOptionQuote, MinRecords: 1, Lookback: priceLookback, Required: true},
		},
		Rubric: optionsRubric(),
		Render: func(snap market.Snapshot, asOf core.SimClock, ticker string) string {
			quote, _ := snap.Latest(market.KindOptionQuote)
			return fmt.Sprintf(
				"As of %s, price %s under the Black-Scholes model for %s.\n\n"+
					"State the fair value per contract, show the model inputs you used, and include "+
					"a risk section covering what would invalidate the valuation.",
				asOfDate(asOf), describeQuote(quote), ticker)
		},
		Derive: func(snap market.Snapshot, asOf core.SimClock) (task.GroundTruth, error) {
			quote, ok := snap.Latest(market.KindOptionQuote)
			if !ok {
				return needSlot(SlotOptionChain)
			}
			in, err := pricingInputFrom(quote)
			if err != nil {
				return task.GroundTruth{}, err
			}
			price, err := options.Price(in)
			if err != nil {
				return task.GroundTruth{}, err
			}
			return task.GroundTruth{
				Category:  task.CategoryOptionsPricing,
				Numeric:   ptr(price),
				Formatted: fmt.Sprintf("$%.2f", price),
				RiskNotes: []string{"volatility", "time decay", "rate"},
			}, nil
		},
	}
}

func optionsGreeks() task.Template {
	return task.Template{
		ID:         "options_greeks_v1",
		Category:   task.CategoryOptionsGreeks,
		Difficulty: task.DifficultyMedium,
		Slots: []task.SlotSpec{
			{Name: SlotOptionChain, Kind: market.KindOptionQuote, MinRecords: 1, Lookback: priceLookback, Required: true},
		},
		Rubric: optionsRubric(),
		Render: func(snap market.Snapshot, asOf core.SimClock, ticker string) string {
			quote, _ := snap.Latest(market.KindOptionQuote)
			return fmt.Sprintf(
				"As of %s, compute the full greek profile (delta, gamma, theta, vega, rho) for %s "+
					"on %s.\n\n"+
					"Report theta per calendar day and vega and rho per 1%% move. Add a risk section "+
					"explaining which greek dominates the position's P&L.",
				asOfDate(asOf), describeQuote(quote), ticker)
		},
		Derive: func(snap market.Snapshot, asOf core.SimClock) (task.GroundTruth, error) {
			quote, ok := snap.Latest(market.KindOptionQuote)
			if !ok {
				return needSlot(SlotOptionChain)
			}
			in, err := pricingInputFrom(quote)
			if err != nil {
				return task.GroundTruth{}, err
			}
			greeks, err := options.Greeks(in)
			if err != nil {
				return task.GroundTruth{}, err
			}
			return task.GroundTruth{
				Category:  task.CategoryOptionsGreeks,
				Greeks:    &greeks,
				RiskNotes: []string{"gamma", "time decay", "volatility"},
			}, nil
		},
	}
}

func optionsStrategy() task.Template {
	return task.Template{
		ID:         "options_strategy_v1",
		Category:   task.CategoryOptionsStrategy,
		Difficulty: task.DifficultyHard,
		Slots: []task.SlotSpec{
			{Name: SlotOptionChain, Kind: market.KindOptionQuote, MinRecords: 2, Lookback: priceLookback, Required: true},
		},
		Rubric: optionsRubric(),
		Render: func(snap market.Snapshot, asOf core.SimClock, ticker string) string {
			quote, _ := snap.Latest(market.KindOptionQuote)
			spot, _ := quote.Number(market.FieldSpot)
			return fmt.Sprintf(
				"As of %s, construct a long volatility strategy in %s options around the "+
					"current spot of %.2f, positioned for a large move in either direction.\n\n"+
					"Specify each leg (type, side, strike, quantity), estimate the P&L if the stock "+
					"moves 10%% higher by expiry, and include a risk section covering maximum loss "+
					"and breakevens.",
				asOfDate(asOf), ticker, spot)
		},
		Derive: func(snap market.Snapshot, asOf core.SimClock) (task.GroundTruth, error) {
			quote, hasQuote := atmQuote(snap)
			if !hasQuote {
				return needSlot(SlotOptionChain)
			}
			callIn, err := pricingInputFrom(quote)
			if err != nil {
				return task.GroundTruth{}, err
			}
			callIn.Call = true
			putIn := callIn
			putIn.Call = false

			callPx, err := options.Price(callIn)
			if err != nil {
				return task.GroundTruth{}, err
			}
			putPx, err := options.Price(putIn)
			if err != nil {
				return task.GroundTruth{}, err
			}
			premium := callPx + putPx
			pnl := options.StraddlePnL(callIn.Spot*1.10, callIn.Strike, premium)

			return task.GroundTruth{
				Category: task.CategoryOptionsStrategy,
				Legs: []task.StrategyLeg{
					{Type: "call", Side: "long", Strike: callIn.Strike, Quantity: 1},
					{Type: "put", Side: "long", Strike: callIn.Strike, Quantity: 1},
				},
				PnL:       ptr(pnl),
				RiskNotes: []string{"max loss", "breakeven", "volatility", "time decay"},
			}, nil
		},
	}
}

// atmQuote returns the quote whose strike sits closest to spot.
func atmQuote(snap market.Snapshot) (market.DataRecord, bool) {
	var best market.DataRecord
	bestDist := math.Inf(1)
	found := false
	for _, rec := range snap.ByKind(market.KindOptionQuote) {
		spot, okSpot := rec.Number(market.FieldSpot)
		strike, okStrike := rec.Number(market.FieldStrike)
		if !okSpot || !okStrike {
			continue
		}
		if d := math.Abs(strike - spot); d < bestDist {
			best, bestDist = rec, d
			found = true
		}
	}
	return best, found
}
