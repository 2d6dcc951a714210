package app

import (
	"context"
	"fmt"
	"time"

	"fabbench/domain/core"
	"fabbench/domain/market"
	"fabbench/domain/report"
	"fabbench/domain/task"
	"fabbench/internal"
	"fabbench/internal/temporal"
	"fabbench/ports"
)

// Widened lookback factors tried when the base window leaves a required
// slot under-filled.
var fallbackFactors = []int{1, 2, 4}

// GenerateService produces temporally locked tasks from the template
// registry. Given the same (template, as-of, seed) it yields byte-identical
// prompts, ground truth and fingerprints.
type GenerateService struct {
	registry *task.Registry
	lock     *temporal.LockManager
	rngPort  ports.RNGPort
	logger   *internal.Logger
}

// GenerateRequest defines inputs for one task generation
type GenerateRequest struct {
	Category task.Category
	Ticker   string
	AsOf     core.SimClock
	Seed     int64
}

// GenerateResult carries the task plus its temporal-lock audit trail
type GenerateResult struct {
	Task      task.GeneratedTask
	Lookahead report.LookaheadAudit
}

// NewGenerateService creates a task generation service
func NewGenerateService(registry *task.Registry, lock *temporal.LockManager, rngPort ports.RNGPort) *GenerateService {
	return &GenerateService{
		registry: registry,
		lock:     lock,
		rngPort:  rngPort,
		logger:   internal.DefaultLogger,
	}
}

// Generate binds one template to a frozen snapshot and derives its ground
// truth. The simulation clock is fixed before any data access and every
// record in the bound snapshot satisfies effective_time <= as-of.
func (s *GenerateService) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if req.AsOf.IsZero() {
		return nil, core.ErrClockNotSet
	}
	tmpl, err := s.registry.Lookup(req.Category)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrTemplateNotFound, err)
	}

	records, audit, err := s.bindSlots(ctx, tmpl, req)
	if err != nil {
		return nil, err
	}

	snapshot := market.NewSnapshot(records)
	if violations := temporal.AuditSnapshot(snapshot, req.AsOf); len(violations) > 0 {
		// bindSlots already filtered; a hit here means a provider handed
		// back mutated records.
		return nil, core.NewLookaheadError(violations[0].String(), "post-bind audit", req.AsOf.String())
	}
	audit.SnapshotClean = true

	groundTruth, err := tmpl.Derive(snapshot, req.AsOf)
	if err != nil {
		return nil, fmt.Errorf("ground truth derivation for %q: %w", tmpl.Category, err)
	}
	prompt := tmpl.Render(snapshot, req.AsOf, req.Ticker)

	generated := task.GeneratedTask{
		ID:          core.TaskID(core.NewID()),
		TemplateID:  tmpl.ID,
		Category:    tmpl.Category,
		Difficulty:  tmpl.Difficulty,
		Ticker:      req.Ticker,
		AsOf:        req.AsOf,
		Seed:        req.Seed,
		Snapshot:    snapshot,
		Prompt:      prompt,
		GroundTruth: groundTruth,
		Rubric:      tmpl.Rubric,
		Fingerprint: core.ComputeTaskFingerprint(
			tmpl.ID.String(), req.AsOf.String(), req.Seed, prompt, groundTruth.CanonicalJSON()),
	}

	s.logger.Info("[Generate] task %s category=%s snapshot=%d records fingerprint=%s",
		generated.ID, generated.Category, len(snapshot.Records), generated.Fingerprint)
	return &GenerateResult{Task: generated, Lookahead: audit}, nil
}

// bindSlots fills every template slot through the lock manager, widening
// the lookback window for under-filled required slots before giving up.
func (s *GenerateService) bindSlots(ctx context.Context, tmpl task.Template, req GenerateRequest) ([]market.DataRecord, report.LookaheadAudit, error) {
	var (
		records []market.DataRecord
		audit   report.LookaheadAudit
		seen    = make(map[core.RecordID]bool)
	)

	for _, slot := range tmpl.Slots {
		filled, slotAudits, err := s.bindSlot(ctx, slot, req)
		if err != nil {
			if slot.Required {
				return nil, audit, err
			}
			s.logger.Debug("[Generate] optional slot %q unfilled: %v", slot.Name, err)
			continue
		}
		for _, a := range slotAudits {
			audit.DroppedRecords += len(a.Dropped)
			for _, id := range a.Dropped {
				audit.DroppedIDs = append(audit.DroppedIDs, id.String())
			}
		}
		for _, rec := range filled {
			if !seen[rec.ID] {
				seen[rec.ID] = true
				records = append(records, rec)
			}
		}
	}
	return records, audit, nil
}

func (s *GenerateService) bindSlot(ctx context.Context, slot task.SlotSpec, req GenerateRequest) ([]market.DataRecord, []temporal.FetchAudit, error) {
	asOf := req.AsOf.Time()

	for _, factor := range fallbackFactors {
		window := slot.Lookback * time.Duration(factor)
		q := market.Query{
			Ticker: req.Ticker,
			Kind:   slot.Kind,
			Start:  asOf.Add(-window),
			End:    asOf,
		}
		records, audits, err := s.lock.FetchForSlot(ctx, slot.Name, q, req.AsOf)
		if err != nil {
			return nil, nil, err
		}
		if len(records) >= slot.MinRecords {
			return records, audits, nil
		}
		s.logger.Debug("[Generate] slot %q returned %d/%d records at %s lookback",
			slot.Name, len(records), slot.MinRecords, window)
	}

	if !slot.Required {
		return nil, nil, core.NewInsufficientDataError(slot.Name, "all")
	}
	return nil, nil, fmt.Errorf("%w: slot %q below %d records after widened lookback",
		core.ErrTemplateUnsatisfiable, slot.Name, slot.MinRecords)
}

// GenerateBatch produces one task per requested category. Each task's seed
// comes from a named random stream keyed on the category, so batches are
// reproducible and reordering categories never shifts another task's seed.
func (s *GenerateService) GenerateBatch(ctx context.Context, categories []task.Category, ticker string, asOf core.SimClock, baseSeed int64) ([]GenerateResult, []error) {
	var (
		results []GenerateResult
		errs    []error
	)
	for _, cat := range categories {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		stream, err := s.rngPort.SeededStream(ctx, "generate/"+string(cat), baseSeed)
		if err != nil {
			errs = append(errs, fmt.Errorf("category %s: %w", cat, err))
			continue
		}
		res, err := s.Generate(ctx, GenerateRequest{
			Category: cat,
			Ticker:   ticker,
			AsOf:     asOf,
			Seed:     stream.Int63(),
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("category %s: %w", cat, err))
			continue
		}
		results = append(results, *res)
	}
	return results, errs
}
