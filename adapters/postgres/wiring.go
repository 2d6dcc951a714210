package postgres

import (
	"fabbench/domain/market"
	"fabbench/internal/templates"
	"fabbench/ports"
)

// Providers returns the six provider roles over the shared record store,
// matching the in-memory wiring: filings, estimates, prices, options, risk
// metrics and trade simulation.
func (s *RecordStore) Providers() []ports.DataProvider {
	return []ports.DataProvider{
		s.Provider("filings", market.Capability{
			Kinds: []market.RecordKind{market.KindFiling},
			Slots: []string{templates.SlotFiling, templates.SlotPriorFiling},
		}),
		s.Provider("estimates", market.Capability{
			Kinds: []market.RecordKind{market.KindEstimate},
			Slots: []string{templates.SlotEstimate},
		}),
		s.Provider("prices", market.Capability{
			Kinds: []market.RecordKind{market.KindPriceBar},
			Slots: []string{templates.SlotPriceBars},
		}),
		s.Provider("options", market.Capability{
			Kinds: []market.RecordKind{market.KindOptionQuote},
			Slots: []string{templates.SlotOptionChain},
		}),
		s.Provider("risk", market.Capability{
			Kinds: []market.RecordKind{market.KindRiskMetrics},
			Slots: []string{templates.SlotRiskMetrics},
		}),
		s.Provider("trading", market.Capability{
			Kinds: []market.RecordKind{market.KindTradeFill},
			Slots: []string{templates.SlotTradeFills},
		}),
	}
}
