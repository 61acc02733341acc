package worker

import (
	"context"
	"fmt"
	"log/slog"

	"budget/internal/amqp"
	"budget/internal/analytics"
	"budget/internal/core"
	"budget/internal/sheets"
)

type (
	// SummarySource is implemented by *services.ReportService.
	SummarySource interface {
		Summary(ctx context.Context, monthID int64) (analytics.Summary, error)
	}

	// MonthLister is implemented by *services.MonthService.
	MonthLister interface {
		ListMonths(ctx context.Context) ([]core.MonthBudget, error)
	}
)

// ExportWorker writes the summaries of locked months to a report sheet.
type ExportWorker struct {
	reports SummarySource
	months  MonthLister
	writer  sheets.ReportWriter
	index   sheets.ExportIndex
}

// NewExportWorker builds a worker. index may be nil, which disables the
// startup backfill.
func NewExportWorker(reports SummarySource, months MonthLister, writer sheets.ReportWriter, index sheets.ExportIndex) *ExportWorker {
	return &ExportWorker{
		reports: reports,
		months:  months,
		writer:  writer,
		index:   index,
	}
}

// HandleMonthEvent exports the month on month.locked. Other events are
// acknowledged without work: an unlocked month is exported again when it is
// locked next.
func (w *ExportWorker) HandleMonthEvent(ctx context.Context, ev *amqp.MonthEvent) error {
	slog.InfoContext(ctx, "Processing month event",
		"id", ev.ID,
		"type", ev.Type,
		"period", ev.Period().String())

	if ev.Type != amqp.EventMonthLocked {
		return nil
	}
	return w.export(ctx, ev.MonthBudgetID)
}

func (w *ExportWorker) export(ctx context.Context, monthID int64) error {
	s, err := w.reports.Summary(ctx, monthID)
	if err != nil {
		return fmt.Errorf("load summary for month %d: %w", monthID, err)
	}
	if !s.Locked {
		slog.WarnContext(ctx, "Month was unlocked before export, skipping", "period", s.Period.String())
		return nil
	}

	ref, err := w.writer.WriteMonthSummary(ctx, s)
	if err != nil {
		return fmt.Errorf("write summary for %s: %w", s.Period, err)
	}

	slog.InfoContext(ctx, "Exported month summary",
		"period", s.Period.String(),
		"sheets_ref", ref,
		"total_cents", s.Total.Cents,
		"balance_cents", s.Balance.Cents)
	return nil
}

// StartupExportCheck exports every locked month missing from the index. It
// recovers events lost while the worker was down.
func (w *ExportWorker) StartupExportCheck(ctx context.Context) error {
	if w.index == nil {
		slog.InfoContext(ctx, "No export index configured, skipping startup export check")
		return nil
	}

	exported, err := w.index.ExportedPeriods(ctx)
	if err != nil {
		return fmt.Errorf("list exported periods: %w", err)
	}
	done := make(map[core.Period]bool, len(exported))
	for _, p := range exported {
		done[p] = true
	}

	months, err := w.months.ListMonths(ctx)
	if err != nil {
		return fmt.Errorf("list months: %w", err)
	}

	successCount, errorCount := 0, 0
	for _, m := range months {
		if !m.Locked || done[m.Period] {
			continue
		}
		if err := w.export(ctx, m.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to export month during startup",
				"period", m.Period.String(), "error", err)
			errorCount++
			continue
		}
		successCount++
	}

	slog.InfoContext(ctx, "Startup export check completed",
		"months", len(months),
		"exported", successCount,
		"errors", errorCount)
	return nil
}
