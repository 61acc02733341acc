package sheets

import (
	"context"

	"budget/internal/analytics"
	"budget/internal/core"
)

// Ports for outbound adapters.
type (
	// ReportWriter exports a month summary. Writing the same period twice
	// replaces the earlier export.
	ReportWriter interface {
		WriteMonthSummary(ctx context.Context, s analytics.Summary) (ref string, err error)
	}

	// ExportIndex lists the periods already exported.
	ExportIndex interface {
		ExportedPeriods(ctx context.Context) ([]core.Period, error)
	}
)
