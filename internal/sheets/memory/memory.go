package memory

import (
	"context"
	"sort"
	"sync"

	"fintrack/internal/report"
)

// Exporter keeps the latest exported report per owner in memory.
type Exporter struct {
	mu      sync.Mutex
	reports map[string]report.Report
	count   int
}

func New() *Exporter {
	return &Exporter{reports: make(map[string]report.Report)}
}

// Export replaces the stored report for r.OwnerID.
func (e *Exporter) Export(ctx context.Context, r report.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reports[r.OwnerID] = r
	e.count++
	return nil
}

// Last returns the most recent report exported for ownerID.
func (e *Exporter) Last(ownerID string) (report.Report, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.reports[ownerID]
	return r, ok
}

// Owners lists owners with an exported report, sorted.
func (e *Exporter) Owners() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.reports))
	for id := range e.reports {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Exports returns the total number of Export calls that succeeded.
func (e *Exporter) Exports() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count
}
