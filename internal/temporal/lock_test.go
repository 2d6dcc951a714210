package temporal

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fabbench/adapters/providers/memory"
	"fabbench/domain/core"
	"fabbench/domain/market"
)

var testAsOf = time.Date(2024, 6, 14, 16, 0, 0, 0, time.UTC)

func barRecord(i int, effective time.Time) market.DataRecord {
	return market.DataRecord{
		ID:            core.RecordID(fmt.Sprintf("bar-%04d", i)),
		Source:        "prices",
		Kind:          market.KindPriceBar,
		Ticker:        "NVDA",
		EffectiveTime: core.NewTimestamp(effective),
		Numbers:       map[string]float64{market.FieldClose: 100 + float64(i)},
	}
}

func newPriceProvider(records []market.DataRecord) *memory.Provider {
	return memory.NewProvider("prices", market.Capability{
		Kinds: []market.RecordKind{market.KindPriceBar},
		Slots: []string{"price_bars"},
	}, records)
}

// rogueProvider ignores the query window entirely and returns everything it
// holds, simulating a feed that does not honor the as-of bound.
type rogueProvider struct {
	records []market.DataRecord
}

func (p *rogueProvider) ID() core.ProviderID { return "prices" }

func (p *rogueProvider) Capability() market.Capability {
	return market.Capability{
		Provider: "prices",
		Kinds:    []market.RecordKind{market.KindPriceBar},
		Slots:    []string{"price_bars"},
	}
}

func (p *rogueProvider) Fetch(context.Context, market.Query) ([]market.DataRecord, error) {
	return p.records, nil
}

func TestDetectLookahead_InclusiveBound(t *testing.T) {
	clock := core.NewSimClock(testAsOf)

	assert.False(t, DetectLookahead(barRecord(0, testAsOf.Add(-time.Hour)), clock))
	assert.False(t, DetectLookahead(barRecord(1, testAsOf), clock), "effective time equal to the clock is visible")
	assert.True(t, DetectLookahead(barRecord(2, testAsOf.Add(time.Nanosecond)), clock))
}

// Randomized property: whatever mix of past and future records a provider
// returns, nothing dated after the clock survives the fetch and everything
// dropped lands in the audit.
func TestFetch_FiltersAllFutureRecords(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	clock := core.NewSimClock(testAsOf)

	records := make([]market.DataRecord, 0, 1000)
	futureIDs := make(map[core.RecordID]bool)
	for i := 0; i < 1000; i++ {
		offset := time.Duration(rng.Intn(200*24)-100*24) * time.Hour
		rec := barRecord(i, testAsOf.Add(offset))
		if offset > 0 {
			futureIDs[rec.ID] = true
		}
		records = append(records, rec)
	}
	require.NotEmpty(t, futureIDs, "fixture must contain future records")

	lock := NewLockManager(memory.NewSet(&rogueProvider{records: records}))
	got, audit, err := lock.Fetch(context.Background(), "prices",
		market.Query{Ticker: "NVDA", Kind: market.KindPriceBar}, clock)
	require.NoError(t, err, "future records must be dropped, never abort the fetch")

	for _, rec := range got {
		assert.False(t, DetectLookahead(rec, clock), "record %s leaked past the lock", rec.ID)
		assert.False(t, futureIDs[rec.ID])
	}
	assert.Len(t, got, 1000-len(futureIDs))

	assert.Equal(t, core.ProviderID("prices"), audit.Provider)
	assert.Len(t, audit.Dropped, len(futureIDs))
	for _, id := range audit.Dropped {
		assert.True(t, futureIDs[id], "audited drop %s was not a future record", id)
	}
}

func TestFetch_CapsWindowForCompliantProviders(t *testing.T) {
	clock := core.NewSimClock(testAsOf)
	records := []market.DataRecord{
		barRecord(0, testAsOf.Add(-time.Hour)),
		barRecord(1, testAsOf.Add(time.Hour)),
	}
	lock := NewLockManager(memory.NewSet(newPriceProvider(records)))

	// A provider that honors the capped End never surfaces the future
	// record, so nothing needs dropping.
	got, audit, err := lock.Fetch(context.Background(), "prices",
		market.Query{Ticker: "NVDA", Kind: market.KindPriceBar}, clock)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, core.RecordID("bar-0000"), got[0].ID)
	assert.Empty(t, audit.Dropped)
}

func TestFetch_UnknownProvider(t *testing.T) {
	lock := NewLockManager(memory.NewSet())
	_, _, err := lock.Fetch(context.Background(), "nope",
		market.Query{Kind: market.KindPriceBar}, core.NewSimClock(testAsOf))
	assert.ErrorIs(t, err, core.ErrProviderNotFound)
}

func TestFetchForSlot_NoProviderIsInsufficientData(t *testing.T) {
	lock := NewLockManager(memory.NewSet())
	_, _, err := lock.FetchForSlot(context.Background(), "price_bars",
		market.Query{Kind: market.KindPriceBar}, core.NewSimClock(testAsOf))
	assert.ErrorIs(t, err, core.ErrInsufficientData)
}

func TestFetchForSlot_MergesAndAudits(t *testing.T) {
	clock := core.NewSimClock(testAsOf)
	records := []market.DataRecord{
		barRecord(0, testAsOf.Add(-time.Hour)),
		barRecord(1, testAsOf.Add(time.Hour)), // future, must be dropped
	}
	lock := NewLockManager(memory.NewSet(&rogueProvider{records: records}))

	got, audits, err := lock.FetchForSlot(context.Background(), "price_bars",
		market.Query{Ticker: "NVDA", Kind: market.KindPriceBar}, clock)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, core.RecordID("bar-0000"), got[0].ID)

	require.Len(t, audits, 1)
	assert.Equal(t, []core.RecordID{"bar-0001"}, audits[0].Dropped)
}

func TestAuditSnapshot(t *testing.T) {
	clock := core.NewSimClock(testAsOf)

	clean := market.NewSnapshot([]market.DataRecord{barRecord(0, testAsOf.Add(-time.Hour))})
	assert.Empty(t, AuditSnapshot(clean, clock))

	dirty := market.NewSnapshot([]market.DataRecord{
		barRecord(0, testAsOf.Add(-time.Hour)),
		barRecord(1, testAsOf.Add(time.Minute)),
	})
	violations := AuditSnapshot(dirty, clock)
	require.Len(t, violations, 1)
	assert.Equal(t, core.RecordID("bar-0001"), violations[0])
}
