package ports

import (
	"context"

	"fabbench/domain/core"
	"fabbench/domain/market"
)

// DataProvider is the single interface all six external data services sit
// behind (filings, estimates, prices, options chains, risk metrics, trading
// simulation). The core never depends on a provider's native protocol.
//
// Providers are fetch-only and must be safe for concurrent reads. Records
// they return are not trusted: the temporal lock manager re-checks every
// effective time against the as-of bound.
type DataProvider interface {
	ID() core.ProviderID
	Capability() market.Capability
	Fetch(ctx context.Context, q market.Query) ([]market.DataRecord, error)
}

// ProviderSet resolves template slots to the providers able to fill them.
type ProviderSet interface {
	// ForSlot returns the providers whose capability covers the slot, in a
	// deterministic order.
	ForSlot(slot string) []DataProvider
	// ByID looks a provider up directly.
	ByID(id core.ProviderID) (DataProvider, bool)
}
