// Package reports provides the in-memory report sink used for local runs
// without a database and as the fixture sink in tests.
package reports

import (
	"context"
	"sort"
	"sync"

	"fabbench/domain/core"
	"fabbench/domain/report"
	"fabbench/ports"
)

// MemorySink stores reports and summaries in process memory.
type MemorySink struct {
	mu        sync.RWMutex
	reports   map[core.TaskID]report.TaskReport
	summaries map[core.RunID]report.RunSummary
}

var _ ports.ReportSink = (*MemorySink)(nil)

func NewMemorySink() *MemorySink {
	return &MemorySink{
		reports:   make(map[core.TaskID]report.TaskReport),
		summaries: make(map[core.RunID]report.RunSummary),
	}
}

func (s *MemorySink) SaveReport(_ context.Context, r report.TaskReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[r.TaskID] = r
	return nil
}

func (s *MemorySink) SaveSummary(_ context.Context, summary report.RunSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summaries[summary.RunID] = summary
	return nil
}

func (s *MemorySink) ListReports(_ context.Context, runID core.RunID) ([]report.TaskReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []report.TaskReport
	for _, r := range s.reports {
		if r.RunID == runID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TaskID < out[j].TaskID })
	return out, nil
}

func (s *MemorySink) GetSummary(_ context.Context, runID core.RunID) (*report.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary, ok := s.summaries[runID]
	if !ok {
		return nil, core.ErrReportNotFound
	}
	return &summary, nil
}
