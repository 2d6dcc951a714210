// Package memory implements an in-memory data provider backed by the
// synthetic market universe. It is the default provider wiring for local
// runs and the fixture provider for tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"fabbench/domain/core"
	"fabbench/domain/market"
	"fabbench/ports"
)

// Provider serves records for one capability slice from an in-memory store.
type Provider struct {
	id   core.ProviderID
	cap  market.Capability
	mu   sync.RWMutex
	recs []market.DataRecord
}

var _ ports.DataProvider = (*Provider)(nil)

// NewProvider creates a provider over a fixed record set. Records outside
// the declared kinds are rejected at query time, not load time, so one
// universe can back several capability-scoped providers.
func NewProvider(id core.ProviderID, cap market.Capability, records []market.DataRecord) *Provider {
	cap.Provider = id
	return &Provider{id: id, cap: cap, recs: records}
}

func (p *Provider) ID() core.ProviderID           { return p.id }
func (p *Provider) Capability() market.Capability { return p.cap }

// Add appends records after construction; used by tests to inject
// adversarial data.
func (p *Provider) Add(records ...market.DataRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.recs = append(p.recs, records...)
}

// Fetch returns records matching the query in deterministic ID order. It
// intentionally performs no as-of filtering beyond the query's End bound:
// the temporal lock manager owns that enforcement and treats provider
// output as untrusted.
func (p *Provider) Fetch(ctx context.Context, q market.Query) ([]market.DataRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !p.serves(q.Kind) {
		return nil, core.ErrProviderNotFound
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	var out []market.DataRecord
	for _, rec := range p.recs {
		if rec.Kind != q.Kind {
			continue
		}
		if q.Ticker != "" && rec.Ticker != q.Ticker {
			continue
		}
		et := rec.EffectiveTime.Time()
		if !q.Start.IsZero() && et.Before(q.Start) {
			continue
		}
		if !q.End.IsZero() && et.After(q.End) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (p *Provider) serves(kind market.RecordKind) bool {
	for _, k := range p.cap.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Set is a static ProviderSet over a fixed provider list.
type Set struct {
	providers []ports.DataProvider
}

var _ ports.ProviderSet = (*Set)(nil)

func NewSet(providers ...ports.DataProvider) *Set {
	sorted := make([]ports.DataProvider, len(providers))
	copy(sorted, providers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID() < sorted[j].ID() })
	return &Set{providers: sorted}
}

// ForSlot returns providers able to fill the slot, ordered by provider ID.
func (s *Set) ForSlot(slot string) []ports.DataProvider {
	var out []ports.DataProvider
	for _, p := range s.providers {
		if p.Capability().Satisfies(slot) {
			out = append(out, p)
		}
	}
	return out
}

func (s *Set) ByID(id core.ProviderID) (ports.DataProvider, bool) {
	for _, p := range s.providers {
		if p.ID() == id {
			return p, true
		}
	}
	return nil, false
}
