package ports

import (
	"context"

	"fabbench/domain/core"
	"fabbench/domain/report"
)

// ReportSink persists per-task reports and run summaries. Implementations
// must tolerate partial runs: reports arrive one by one and a summary may
// cover fewer tasks than were planned.
type ReportSink interface {
	SaveReport(ctx context.Context, r report.TaskReport) error
	SaveSummary(ctx context.Context, s report.RunSummary) error
	ListReports(ctx context.Context, runID core.RunID) ([]report.TaskReport, error)
	GetSummary(ctx context.Context, runID core.RunID) (*report.RunSummary, error)
}
