// Package market defines the provider-agnostic market data model: every fact
// the benchmark consumes is a DataRecord tagged with its source and the time
// at which it became knowable.
package market

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"fabbench/domain/core"
)

// RecordKind classifies what a data record describes
type RecordKind string

const (
	KindFiling      RecordKind = "filing"       // regulatory filing facts (10-K/10-Q lines)
	KindEstimate    RecordKind = "estimate"     // analyst consensus estimates
	KindPriceBar    RecordKind = "price_bar"    // daily OHLCV bar
	KindOptionQuote RecordKind = "option_quote" // single option contract quote
	KindRiskMetrics RecordKind = "risk_metrics" // beta, realized vol, VaR
	KindTradeFill   RecordKind = "trade_fill"   // simulated execution fill
)

// Well-known numeric field names shared between providers and derivations.
const (
	FieldRevenue      = "revenue"
	FieldEPS          = "eps"
	FieldConsensusEPS = "consensus_eps"
	FieldNetIncome    = "net_income"
	FieldGrossMargin  = "gross_margin"
	FieldFCF          = "free_cash_flow"
	FieldGuidanceEPS  = "guidance_eps"
	FieldFiscalYear   = "fiscal_year"
	FieldFiscalQtr    = "fiscal_quarter"

	FieldOpen   = "open"
	FieldHigh   = "high"
	FieldLow    = "low"
	FieldClose  = "close"
	FieldVolume = "volume"

	FieldStrike     = "strike"
	FieldExpiryDays = "expiry_days"
	FieldBid        = "bid"
	FieldAsk        = "ask"
	FieldImpliedVol = "implied_vol"
	FieldSpot       = "spot"
	FieldRate       = "risk_free_rate"

	FieldBeta        = "beta"
	FieldRealizedVol = "realized_vol"
	FieldVaR95       = "var_95"

	FieldFillPrice = "fill_price"
	FieldFillQty   = "fill_qty"
)

// Well-known label field names.
const (
	LabelSegment    = "segment"
	LabelOptionType = "option_type" // "call" | "put"
	LabelPeriod     = "period"      // e.g. "FY2024Q3"
	LabelSection    = "section"     // filing section for qualitative facts
	LabelText       = "text"        // qualitative content
)

// DataRecord is a single fact from an external provider. EffectiveTime is
// the moment the fact became publicly knowable; the lock manager enforces
// EffectiveTime <= SimClock on every record surfaced to generation or scoring.
type DataRecord struct {
	ID            core.RecordID      `json:"id"`
	Source        core.ProviderID    `json:"source"`
	Kind          RecordKind         `json:"kind"`
	Ticker        string             `json:"ticker"`
	EffectiveTime core.Timestamp     `json:"effective_time"`
	Numbers       map[string]float64 `json:"numbers,omitempty"`
	Labels        map[string]string  `json:"labels,omitempty"`
}

// Number returns a numeric field and whether it is present.
func (r DataRecord) Number(field string) (float64, bool) {
	v, ok := r.Numbers[field]
	return v, ok
}

// Label returns a label field and whether it is present.
func (r DataRecord) Label(field string) (string, bool) {
	v, ok := r.Labels[field]
	return v, ok
}

// CanonicalString renders the record deterministically (sorted keys) for
// snapshot hashing.
func (r DataRecord) CanonicalString() string {
	var b strings.Builder
	b.WriteString(string(r.ID))
	b.WriteString("|")
	b.WriteString(string(r.Source))
	b.WriteString("|")
	b.WriteString(string(r.Kind))
	b.WriteString("|")
	b.WriteString(r.Ticker)
	b.WriteString("|")
	b.WriteString(r.EffectiveTime.Time().UTC().Format(time.RFC3339Nano))

	numKeys := make([]string, 0, len(r.Numbers))
	for k := range r.Numbers {
		numKeys = append(numKeys, k)
	}
	sort.Strings(numKeys)
	for _, k := range numKeys {
		fmt.Fprintf(&b, "|%s=%.10g", k, r.Numbers[k])
	}

	lblKeys := make([]string, 0, len(r.Labels))
	for k := range r.Labels {
		lblKeys = append(lblKeys, k)
	}
	sort.Strings(lblKeys)
	for _, k := range lblKeys {
		fmt.Fprintf(&b, "|%s=%s", k, r.Labels[k])
	}
	return b.String()
}

// Query selects records from a provider. Start/End bound effective time;
// the lock manager additionally caps End at the simulation clock.
type Query struct {
	Ticker string
	Kind   RecordKind
	Start  time.Time
	End    time.Time
	Limit  int
}

// Capability describes which record kinds and template slots a provider can
// satisfy. Providers are swappable behind this descriptor.
type Capability struct {
	Provider core.ProviderID
	Kinds    []RecordKind
	Slots    []string
}

// Satisfies reports whether the provider can fill a template slot.
func (c Capability) Satisfies(slot string) bool {
	for _, s := range c.Slots {
		if s == slot {
			return true
		}
	}
	return false
}

// Snapshot is the immutable record set bound to one generated task.
type Snapshot struct {
	Records []DataRecord
	Hash    core.SnapshotHash
}

// NewSnapshot freezes a record set and fingerprints it.
func NewSnapshot(records []DataRecord) Snapshot {
	sorted := make([]DataRecord, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	ids := make([]string, len(sorted))
	payloads := make(map[string]string, len(sorted))
	for i, rec := range sorted {
		ids[i] = string(rec.ID)
		payloads[string(rec.ID)] = rec.CanonicalString()
	}
	return Snapshot{
		Records: sorted,
		Hash:    core.ComputeSnapshotHash(ids, payloads),
	}
}

// ByKind returns the snapshot records of one kind, preserving ID order.
func (s Snapshot) ByKind(kind RecordKind) []DataRecord {
	var out []DataRecord
	for _, rec := range s.Records {
		if rec.Kind == kind {
			out = append(out, rec)
		}
	}
	return out
}

// Latest returns the record of the given kind with the greatest effective
// time, or false when the snapshot holds none.
func (s Snapshot) Latest(kind RecordKind) (DataRecord, bool) {
	var best DataRecord
	found := false
	for _, rec := range s.Records {
		if rec.Kind != kind {
			continue
		}
		if !found || rec.EffectiveTime.After(best.EffectiveTime) {
			best = rec
			found = true
		}
	}
	return best, found
}
