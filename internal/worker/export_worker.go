package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/metrics"
	"fintrack/internal/report"
	"fintrack/internal/sheets"
)

// ReportSource builds the current report of an owner.
type ReportSource interface {
	Report(ctx context.Context, ownerID string) (report.Report, error)
}

// OwnerLister lists every owner known to the store.
type OwnerLister interface {
	ListUserIDs(ctx context.Context) ([]string, error)
}

// ExportWorker keeps exported reports in step with the store: one owner on
// every change notice, and every owner on a timer to cover lost notices.
type ExportWorker struct {
	reports  ReportSource
	owners   OwnerLister
	exporter sheets.ReportExporter
}

func NewExportWorker(reports ReportSource, owners OwnerLister, exporter sheets.ReportExporter) *ExportWorker {
	return &ExportWorker{reports: reports, owners: owners, exporter: exporter}
}

// HandleSnapshotChanged re-exports the owner named in msg. A returned error
// makes the consumer requeue the notice.
func (w *ExportWorker) HandleSnapshotChanged(ctx context.Context, msg *amqp.SnapshotChangedMessage) error {
	metrics.ChangeNotices.WithLabelValues("consumed").Inc()
	slog.InfoContext(ctx, "Processing change notice",
		"owner_id", msg.OwnerID,
		"reason", msg.Reason,
		"timestamp", msg.Timestamp)

	if err := w.ExportOwner(ctx, msg.OwnerID); err != nil {
		return fmt.Errorf("export owner %s: %w", msg.OwnerID, err)
	}
	return nil
}

// ExportOwner builds and exports one owner's report.
func (w *ExportWorker) ExportOwner(ctx context.Context, ownerID string) error {
	r, err := w.reports.Report(ctx, ownerID)
	if err != nil {
		metrics.Exports.WithLabelValues("failed").Inc()
		return fmt.Errorf("build report: %w", err)
	}
	if err := w.exporter.Export(ctx, r); err != nil {
		metrics.Exports.WithLabelValues("failed").Inc()
		return fmt.Errorf("export report: %w", err)
	}
	metrics.Exports.WithLabelValues("succeeded").Inc()
	return nil
}

// ExportAll exports every owner, continuing past failures. It returns the
// number of successful exports and the joined errors.
func (w *ExportWorker) ExportAll(ctx context.Context) (int, error) {
	owners, err := w.owners.ListUserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list owners: %w", err)
	}

	var (
		done int
		errs []error
	)
	for _, owner := range owners {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if err := w.ExportOwner(ctx, owner); err != nil {
			slog.ErrorContext(ctx, "Failed to export report", "owner_id", owner, "error", err)
			errs = append(errs, fmt.Errorf("owner %s: %w", owner, err))
			continue
		}
		done++
	}

	slog.InfoContext(ctx, "Full export completed",
		"owners", len(owners),
		"exported", done,
		"failed", len(owners)-done)
	return done, errors.Join(errs...)
}

// Run exports every owner once, then again every interval until ctx ends.
// A non-positive interval only runs the startup export.
func (w *ExportWorker) Run(ctx context.Context, interval time.Duration) {
	slog.InfoContext(ctx, "Performing startup export")
	if _, err := w.ExportAll(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup export incomplete", "error", err)
	}
	if interval <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.ExportAll(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic export incomplete", "error", err)
			}
		}
	}
}
