// Package testkit generates deterministic synthetic market data. The same
// (ticker, asOf, seed) always produces the same record set, which keeps the
// in-memory provider and the generator's determinism guarantees testable
// without live data feeds.
package testkit

import (
	"fmt"
	"math/rand"
	"time"

	"fabbench/domain/core"
	"fabbench/domain/market"
)

const providerID = core.ProviderID("synthetic")

// Universe produces every record kind for one ticker, all effective at or
// before asOf.
func Universe(ticker string, asOf time.Time, seed int64) []market.DataRecord {
	rng := rand.New(rand.NewSource(seed))
	asOf = asOf.UTC()

	var records []market.DataRecord
	records = append(records, filings(ticker, asOf, rng)...)
	records = append(records, estimates(ticker, asOf, rng)...)
	records = append(records, priceBars(ticker, asOf, rng)...)
	records = append(records, optionQuotes(ticker, asOf, rng)...)
	records = append(records, riskMetrics(ticker, asOf, rng))
	records = append(records, tradeFills(ticker, asOf, rng)...)
	return records
}

// FutureRecords fabricates records dated after asOf. They exist only to
// exercise the lookahead filter; no generation path should ever see them.
func FutureRecords(ticker string, asOf time.Time, seed int64, n int) []market.DataRecord {
	rng := rand.New(rand.NewSource(seed ^ 0x5f3759df))
	out := make([]market.DataRecord, 0, n)
	for i := 0; i < n; i++ {
		ahead := time.Duration(1+rng.Intn(90*24)) * time.Hour
		out = append(out, market.DataRecord{
			ID:            recID(ticker, "future", i),
			Source:        providerID,
			Kind:          market.KindPriceBar,
			Ticker:        ticker,
			EffectiveTime: core.NewTimestamp(asOf.Add(ahead)),
			Numbers: map[string]float64{
				market.FieldClose: 50 + rng.Float64()*500,
			},
		})
	}
	return out
}

func recID(ticker, kind string, i int) core.RecordID {
	return core.RecordID(fmt.Sprintf("%s-%s-%03d", ticker, kind, i))
}

func filings(ticker string, asOf time.Time, rng *rand.Rand) []market.DataRecord {
	baseRevenue := 5e9 + rng.Float64()*20e9
	baseEPS := 1 + rng.Float64()*4
	margin := 45 + rng.Float64()*30

	var out []market.DataRecord
	// Two comparable quarters, newest first ~30 days back, prior ~120 days.
	for q := 0; q < 2; q++ {
		age := time.Duration(30+90*q) * 24 * time.Hour
		growth := 1 - float64(q)*(0.05+rng.Float64()*0.15)
		eps := baseEPS * growth
		out = append(out, market.DataRecord{
			ID:            recID(ticker, "filing", q),
			Source:        providerID,
			Kind:          market.KindFiling,
			Ticker:        ticker,
			EffectiveTime: core.NewTimestamp(asOf.Add(-age)),
			Numbers: map[string]float64{
				market.FieldRevenue:     baseRevenue * growth,
				market.FieldEPS:         eps,
				market.FieldGrossMargin: margin - float64(q)*rng.Float64()*2,
				market.FieldGuidanceEPS: eps * (1 + 0.02 + rng.Float64()*0.1),
				market.FieldFiscalYear:  float64(asOf.Year()),
				market.FieldFiscalQtr:   float64(((int(asOf.Month())-1)/3+4-q-1)%4 + 1),
			},
			Labels: map[string]string{
				market.LabelPeriod: fmt.Sprintf("FY%dQ%d", asOf.Year(), ((int(asOf.Month())-1)/3+4-q-1)%4+1),
				market.LabelText: "Demand for datacenter accelerators outpaced supply while gaming revenue " +
					"stabilized; management flagged export controls and customer concentration as headwinds.",
				market.LabelSection: "management discussion",
			},
		})
	}

	// Segment detail rows for the latest quarter.
	segments := []string{"datacenter", "gaming", "automotive"}
	weights := []float64{0.55 + rng.Float64()*0.2, 0.2, 0.1}
	for i, seg := range segments {
		out = append(out, market.DataRecord{
			ID:            recID(ticker, "segment", i),
			Source:        providerID,
			Kind:          market.KindFiling,
			Ticker:        ticker,
			EffectiveTime: core.NewTimestamp(asOf.Add(-30 * 24 * time.Hour)),
			Numbers: map[string]float64{
				market.FieldRevenue: baseRevenue * weights[i],
			},
			Labels: map[string]string{
				market.LabelSegment: seg,
			},
		})
	}
	return out
}

func estimates(ticker string, asOf time.Time, rng *rand.Rand) []market.DataRecord {
	consensus := 1 + rng.Float64()*4
	return []market.DataRecord{{
		ID:            recID(ticker, "estimate", 0),
		Source:        providerID,
		Kind:          market.KindEstimate,
		Ticker:        ticker,
		EffectiveTime: core.NewTimestamp(asOf.Add(-35 * 24 * time.Hour)),
		Numbers: map[string]float64{
			market.FieldConsensusEPS: consensus,
		},
	}}
}

func priceBars(ticker string, asOf time.Time, rng *rand.Rand) []market.DataRecord {
	px := 100 + rng.Float64()*400
	out := make([]market.DataRecord, 0, 10)
	for d := 9; d >= 0; d-- {
		px *= 1 + (rng.Float64()-0.48)*0.03
		out = append(out, market.DataRecord{
			ID:            recID(ticker, "bar", 9-d),
			Source:        providerID,
			Kind:          market.KindPriceBar,
			Ticker:        ticker,
			EffectiveTime: core.NewTimestamp(asOf.Add(-time.Duration(d) * 24 * time.Hour)),
			Numbers: map[string]float64{
				market.FieldOpen:   px * 0.995,
				market.FieldHigh:   px * 1.01,
				market.FieldLow:    px * 0.985,
				market.FieldClose:  px,
				market.FieldVolume: float64(10_000_000 + rng.Intn(40_000_000)),
			},
		})
	}
	return out
}

func optionQuotes(ticker string, asOf time.Time, rng *rand.Rand) []market.DataRecord {
	spot := 100 + rng.Float64()*400
	vol := 0.25 + rng.Float64()*0.35
	strikes := []float64{spot * 0.9, spot, spot * 1.1}
	types := []string{"put", "call", "call"}

	out := make([]market.DataRecord, 0, len(strikes))
	for i, strike := range strikes {
		out = append(out, market.DataRecord{
			ID:            recID(ticker, "opt", i),
			Source:        providerID,
			Kind:          market.KindOptionQuote,
			Ticker:        ticker,
			EffectiveTime: core.NewTimestamp(asOf.Add(-time.Duration(1+i) * time.Hour)),
			Numbers: map[string]float64{
				market.FieldSpot:       spot,
				market.FieldStrike:     strike,
				market.FieldImpliedVol: vol,
				market.FieldExpiryDays: 30,
				market.FieldRate:       0.05,
				market.FieldBid:        spot * 0.03,
				market.FieldAsk:        spot * 0.035,
			},
			Labels: map[string]string{
				market.LabelOptionType: types[i],
			},
		})
	}
	return out
}

func riskMetrics(ticker string, asOf time.Time, rng *rand.Rand) market.DataRecord {
	return market.DataRecord{
		ID:            recID(ticker, "risk", 0),
		Source:        providerID,
		Kind:          market.KindRiskMetrics,
		Ticker:        ticker,
		EffectiveTime: core.NewTimestamp(asOf.Add(-24 * time.Hour)),
		Numbers: map[string]float64{
			market.FieldBeta:        0.8 + rng.Float64()*1.2,
			market.FieldRealizedVol: 20 + rng.Float64()*40,
			market.FieldVaR95:       1.5 + rng.Float64()*3,
		},
	}
}

func tradeFills(ticker string, asOf time.Time, rng *rand.Rand) []market.DataRecord {
	px := 100 + rng.Float64()*400
	out := make([]market.DataRecord, 0, 3)
	for i := 0; i < 3; i++ {
		out = append(out, market.DataRecord{
			ID:            recID(ticker, "fill", i),
			Source:        providerID,
			Kind:          market.KindTradeFill,
			Ticker:        ticker,
			EffectiveTime: core.NewTimestamp(asOf.Add(-time.Duration(3-i) * time.Hour)),
			Numbers: map[string]float64{
				market.FieldFillPrice: px * (1 + rng.Float64()*0.004),
				market.FieldFillQty:   float64(1000 + rng.Intn(5000)),
			},
		})
	}
	return out
}
