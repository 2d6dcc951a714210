package memory

import (
	"time"

	"fabbench/domain/market"
	"fabbench/internal/templates"
	"fabbench/internal/testkit"
	"fabbench/ports"
)

// DefaultSet wires the six provider roles over one synthetic universe:
// filings, estimates, prices, options, risk metrics and trade simulation,
// each behind its own capability-scoped provider.
func DefaultSet(ticker string, asOf time.Time, seed int64) ports.ProviderSet {
	universe := testkit.Universe(ticker, asOf, seed)

	byKind := func(kinds ...market.RecordKind) []market.DataRecord {
		want := make(map[market.RecordKind]bool, len(kinds))
		for _, k := range kinds {
			want[k] = true
		}
		var out []market.DataRecord
		for _, rec := range universe {
			if want[rec.Kind] {
				out = append(out, rec)
			}
		}
		return out
	}

	return NewSet(
		NewProvider("filings", market.Capability{
			Kinds: []market.RecordKind{market.KindFiling},
			Slots: []string{templates.SlotFiling, templates.SlotPriorFiling},
		}, byKind(market.KindFiling)),
		NewProvider("estimates", market.Capability{
			Kinds: []market.RecordKind{market.KindEstimate},
			Slots: []string{templates.SlotEstimate},
		}, byKind(market.KindEstimate)),
		NewProvider("prices", market.Capability{
			Kinds: []market.RecordKind{market.KindPriceBar},
			Slots: []string{templates.SlotPriceBars},
		}, byKind(market.KindPriceBar)),
		NewProvider("options", market.Capability{
			Kinds: []market.RecordKind{market.KindOptionQuote},
			Slots: []string{templates.SlotOptionChain},
		}, byKind(market.KindOptionQuote)),
		NewProvider("risk", market.Capability{
			Kinds: []market.RecordKind{market.KindRiskMetrics},
			Slots: []string{templates.SlotRiskMetrics},
		}, byKind(market.KindRiskMetrics)),
		NewProvider("trading", market.Capability{
			Kinds: []market.RecordKind{market.KindTradeFill},
			Slots: []string{templates.SlotTradeFills},
		}, byKind(market.KindTradeFill)),
	)
}
