package sheets

import (
	"context"

	"fintrack/internal/report"
)

// Ports for outbound adapters.
type (
	// ReportExporter publishes a built report to an external sheet.
	ReportExporter interface {
		Export(ctx context.Context, r report.Report) error
	}
)
