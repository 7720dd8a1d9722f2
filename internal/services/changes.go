package services

import (
	"context"
	"log/slog"

	"fintrack/internal/metrics"
)

// Notifier is told synchronously that an owner's records changed.
type Notifier interface {
	Notify(ctx context.Context, ownerID string)
}

// Publisher forwards change notices to other processes.
type Publisher interface {
	PublishSnapshotChanged(ctx context.Context, ownerID, reason string) error
}

// Changes fans a successful mutation out to in-process notifiers, in order,
// and then to the broker. Either part may be nil.
type Changes struct {
	Notifiers []Notifier
	Publisher Publisher
}

func (c *Changes) changed(ctx context.Context, ownerID, reason string) {
	if c == nil {
		return
	}
	for _, n := range c.Notifiers {
		n.Notify(ctx, ownerID)
	}
	if c.Publisher == nil {
		slog.DebugContext(ctx, "AMQP publisher not available, skipping change notice", "owner_id", ownerID)
		return
	}
	if err := c.Publisher.PublishSnapshotChanged(ctx, ownerID, reason); err != nil {
		metrics.ChangeNotices.WithLabelValues("failed").Inc()
		// The record is stored; a lost notice only delays the next export.
		slog.ErrorContext(ctx, "Failed to publish change notice", "owner_id", ownerID, "reason", reason, "error", err)
		return
	}
	metrics.ChangeNotices.WithLabelValues("published").Inc()
}
