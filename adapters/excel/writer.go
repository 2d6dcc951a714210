// Package excel exports run results as an Excel workbook: one summary
// sheet plus a per-task detail sheet, for analysts who consume benchmark
// output outside the API.
package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"fabbench/domain/report"
	"fabbench/internal/errors"
)

const (
	summarySheet = "Summary"
	tasksSheet   = "Tasks"
)

// Writer renders run results into a workbook on disk.
type Writer struct {
	path string
}

// NewWriter creates a writer targeting the given file path.
func NewWriter(path string) *Writer {
	return &Writer{path: path}
}

// Write creates the workbook. Any existing file at the path is replaced.
func (w *Writer) Write(summary report.RunSummary, reports []report.TaskReport) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := w.writeSummary(f, summary); err != nil {
		return err
	}
	if err := w.writeTasks(f, reports); err != nil {
		return err
	}
	// Drop the default sheet created by excelize.
	f.DeleteSheet("Sheet1")

	if err := f.SaveAs(w.path); err != nil {
		return errors.Wrapf(err, "failed to save workbook %s", w.path)
	}
	return nil
}

func (w *Writer) writeSummary(f *excelize.File, summary report.RunSummary) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return errors.Wrap(err, "failed to create summary sheet")
	}

	rows := [][]interface{}{
		{"Benchmark", summary.Benchmark},
		{"Run ID", summary.RunID.String()},
		{"Agent ID", summary.AgentID.String()},
		{"Tasks Total", summary.TasksTotal},
		{"Tasks Scored", summary.TasksScored},
		{"Mean Alpha", summary.MeanAlpha},
		{"Median Alpha", summary.MedianAlpha},
		{"StdDev Alpha", summary.StdDevAlpha},
		{"Total Cost USD", summary.TotalCostUSD},
		{"Total Tokens", summary.TotalTokens},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return errors.Wrap(err, "failed to write summary row")
		}
	}

	// Category breakdown below the headline block.
	start := len(rows) + 2
	header := []interface{}{"Category", "Count", "Mean Alpha"}
	cell, _ := excelize.CoordinatesToCellName(1, start)
	if err := f.SetSheetRow(summarySheet, cell, &header); err != nil {
		return errors.Wrap(err, "failed to write category header")
	}
	for i, cat := range summary.ByCategory {
		row := []interface{}{string(cat.Category), cat.Count, cat.MeanAlpha}
		cell, _ := excelize.CoordinatesToCellName(1, start+1+i)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return errors.Wrap(err, "failed to write category row")
		}
	}
	return nil
}

func (w *Writer) writeTasks(f *excelize.File, reports []report.TaskReport) error {
	if _, err := f.NewSheet(tasksSheet); err != nil {
		return errors.Wrap(err, "failed to create tasks sheet")
	}

	header := []interface{}{
		"Task ID", "Category", "Difficulty", "Status", "Base Score",
		"Debate Multiplier", "Cost Efficiency", "Alpha", "Cost USD",
		"Tokens", "Dropped Records", "Fingerprint",
	}
	if err := f.SetSheetRow(tasksSheet, "A1", &header); err != nil {
		return errors.Wrap(err, "failed to write tasks header")
	}

	for i, r := range reports {
		row := []interface{}{
			r.TaskID.String(),
			string(r.Category),
			string(r.Difficulty),
			string(r.Status),
			r.BaseScore,
			r.DebateMultiplier,
			r.Alpha.CostEfficiency,
			r.Alpha.Score,
			r.Cost.CostUSD,
			r.Cost.TotalTokens(),
			r.Lookahead.DroppedRecords,
			r.Fingerprint.String(),
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(tasksSheet, cell, &row); err != nil {
			return errors.Wrapf(err, "failed to write task row %d", i)
		}
	}
	return nil
}
