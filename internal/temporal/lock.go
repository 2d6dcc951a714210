// Package temporal implements the lock manager that gatekeeps all data
// access by a simulation timestamp. It is a pure filtering boundary: no
// record whose effective time lies after the lock ever reaches task
// generation or scoring.
package temporal

import (
	"context"

	"fabbench/domain/core"
	"fabbench/domain/market"
	"fabbench/internal"
	"fabbench/internal/errors"
	"fabbench/ports"
)

// FetchAudit records what the lock manager dropped during one fetch. The
// caller folds this into the task's lookahead audit.
type FetchAudit struct {
	Provider core.ProviderID
	Dropped  []core.RecordID
}

// LockManager filters provider responses against an as-of bound. Providers
// are not trusted to honor the bound themselves: every record is re-checked
// and any violator is dropped and logged, never passed through.
//
// Safe for concurrent use: it holds no mutable state between calls.
type LockManager struct {
	providers ports.ProviderSet
	logger    *internal.Logger
}

// NewLockManager creates a lock manager over a provider set.
func NewLockManager(providers ports.ProviderSet) *LockManager {
	return &LockManager{providers: providers, logger: internal.DefaultLogger}
}

// DetectLookahead reports whether a record violates the as-of bound. The
// bound is inclusive: a record effective exactly at the clock is visible.
// Exposed as a reusable predicate so generated tasks can be audited after
// the fact.
func DetectLookahead(rec market.DataRecord, asOf core.SimClock) bool {
	return !asOf.Covers(rec.EffectiveTime)
}

// Fetch queries one provider and returns only records satisfying
// effective_time <= asOf. Violating records are dropped and recorded in the
// audit; a partial drop never aborts the fetch. The caller decides whether
// the filtered result still satisfies its template slot.
func (m *LockManager) Fetch(ctx context.Context, providerID core.ProviderID, q market.Query, asOf core.SimClock) ([]market.DataRecord, FetchAudit, error) {
	audit := FetchAudit{Provider: providerID}
	if asOf.IsZero() {
		return nil, audit, core.ErrClockNotSet
	}

	provider, ok := m.providers.ByID(providerID)
	if !ok {
		return nil, audit, core.ErrProviderNotFound
	}

	// Cap the query window at the lock so well-behaved providers never see
	// a request reaching past it. Misbehaving ones are filtered below.
	if q.End.IsZero() || q.End.After(asOf.Time()) {
		q.End = asOf.Time()
	}

	records, err := provider.Fetch(ctx, q)
	if err != nil {
		return nil, audit, errors.ProviderError(providerID.String(), err)
	}

	kept := make([]market.DataRecord, 0, len(records))
	for _, rec := range records {
		if DetectLookahead(rec, asOf) {
			audit.Dropped = append(audit.Dropped, rec.ID)
			m.logger.Warn("[LockManager] dropped future record %s from %s: effective %s > as-of %s",
				rec.ID, providerID, rec.EffectiveTime.Time().Format("2006-01-02"), asOf)
			continue
		}
		kept = append(kept, rec)
	}
	return kept, audit, nil
}

// FetchForSlot fans a slot query out to every provider whose capability
// covers the slot, in deterministic provider order, merging the filtered
// results. Used by the generator to stay provider-agnostic.
func (m *LockManager) FetchForSlot(ctx context.Context, slot string, q market.Query, asOf core.SimClock) ([]market.DataRecord, []FetchAudit, error) {
	providers := m.providers.ForSlot(slot)
	if len(providers) == 0 {
		return nil, nil, core.NewInsufficientDataError(slot, "none")
	}

	var merged []market.DataRecord
	var audits []FetchAudit
	for _, p := range providers {
		records, audit, err := m.Fetch(ctx, p.ID(), q, asOf)
		if err != nil {
			return nil, audits, err
		}
		merged = append(merged, records...)
		if len(audit.Dropped) > 0 {
			audits = append(audits, audit)
		}
	}
	return merged, audits, nil
}

// AuditSnapshot re-checks a frozen snapshot against its clock. Returns the
// IDs of any violating records; an empty result means the snapshot is clean.
// Generation always produces clean snapshots, so a non-empty result points
// at a provider mutating records after the fact.
func AuditSnapshot(snap market.Snapshot, asOf core.SimClock) []core.RecordID {
	var violations []core.RecordID
	for _, rec := range snap.Records {
		if DetectLookahead(rec, asOf) {
			violations = append(violations, rec.ID)
		}
	}
	return violations
}
