package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"fintrack/internal/core"
	"fintrack/internal/metrics"
	"fintrack/internal/ports"
	"fintrack/internal/report"
)

// ReportService loads owner snapshots and turns them into reports.
type ReportService struct {
	txs      ports.TransactionStore
	budgets  ports.BudgetStore
	profiles ports.ProfileStore
	memo     *report.Memo
	loads    singleflight.Group
	now      func() time.Time

	// gens counts changes per owner. It is part of the load key, so a load
	// started after a change never joins one started before it.
	mu   sync.Mutex
	gens map[string]uint64
}

func NewReportService(txs ports.TransactionStore, budgets ports.BudgetStore, profiles ports.ProfileStore, memo *report.Memo) *ReportService {
	return &ReportService{
		txs:      txs,
		budgets:  budgets,
		profiles: profiles,
		memo:     memo,
		now:      time.Now,
		gens:     make(map[string]uint64),
	}
}

// Snapshot loads every record of owner. Concurrent calls for the same owner
// share one load as long as no change was notified in between.
func (s *ReportService) Snapshot(ctx context.Context, ownerID string) (core.Snapshot, error) {
	s.mu.Lock()
	key := ownerID + "@" + strconv.FormatUint(s.gens[ownerID], 10)
	s.mu.Unlock()

	ch := s.loads.DoChan(key, func() (any, error) {
		// Detached so one caller giving up does not fail the others.
		return s.load(context.WithoutCancel(ctx), ownerID)
	})
	select {
	case <-ctx.Done():
		return core.Snapshot{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return core.Snapshot{}, res.Err
		}
		return res.Val.(core.Snapshot), nil
	}
}

func (s *ReportService) load(ctx context.Context, ownerID string) (core.Snapshot, error) {
	start := time.Now()
	defer func() { metrics.ReportBuildSeconds.Observe(time.Since(start).Seconds()) }()

	snap := core.Snapshot{OwnerID: ownerID}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		txs, err := s.txs.ListTransactions(gctx, ownerID)
		if err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}
		snap.Transactions = txs
		return nil
	})
	g.Go(func() error {
		budgets, err := s.budgets.ListBudgets(gctx, ownerID)
		if err != nil {
			return fmt.Errorf("load budgets: %w", err)
		}
		snap.Budgets = budgets
		return nil
	})
	g.Go(func() error {
		p, err := s.profiles.GetProfile(gctx, ownerID)
		switch {
		case errors.Is(err, ports.ErrNotFound):
			p = core.DefaultProfile(ownerID)
		case err != nil:
			return fmt.Errorf("load profile: %w", err)
		}
		snap.Profile = p
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.Snapshot{}, err
	}
	return snap, nil
}

// Build turns an already loaded snapshot into a report.
func (s *ReportService) Build(ctx context.Context, snap core.Snapshot) report.Report {
	r, cached := s.memo.Build(snap)
	if cached {
		metrics.ReportsBuilt.WithLabelValues("true").Inc()
	} else {
		metrics.ReportsBuilt.WithLabelValues("false").Inc()
		if len(r.Issues) > 0 {
			metrics.SkippedRecords.Add(float64(len(r.Skipped)))
			slog.WarnContext(ctx, "Report built with malformed records",
				"owner_id", snap.OwnerID,
				"skipped", r.Skipped,
				"error", r.Issues.Err())
		}
	}
	r.GeneratedAt = s.now().UTC()
	return r
}

// Report loads owner's snapshot and builds its report.
func (s *ReportService) Report(ctx context.Context, ownerID string) (report.Report, error) {
	snap, err := s.Snapshot(ctx, ownerID)
	if err != nil {
		return report.Report{}, err
	}
	return s.Build(ctx, snap), nil
}

// Notify drops the memoized reports of owner and makes later snapshot loads
// start afresh; the next build sees new data. It must run before anything
// that reloads the owner in response to the same change.
func (s *ReportService) Notify(ctx context.Context, ownerID string) {
	s.mu.Lock()
	s.gens[ownerID]++
	s.mu.Unlock()

	if n := s.memo.Forget(ownerID); n > 0 {
		slog.DebugContext(ctx, "Dropped cached reports", "owner_id", ownerID, "count", n)
	}
}
