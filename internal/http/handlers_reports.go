package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	applog "fintrack/internal/log"
	"fintrack/internal/report"
)

// summaryResponse is a report with its chart series and display strings.
type summaryResponse struct {
	Report    report.Report   `json:"report"`
	Chart     report.Chart    `json:"chart"`
	Formatted formattedTotals `json:"formatted"`
}

type formattedTotals struct {
	TotalIncome  string `json:"total_income"`
	TotalExpense string `json:"total_expense"`
	NetSavings   string `json:"net_savings"`
}

func newSummary(r report.Report, kind report.ChartKind, source report.ChartSource) (summaryResponse, error) {
	var (
		f   formattedTotals
		err error
	)
	if f.TotalIncome, err = report.FormatCurrency(r.Totals.TotalIncome, r.Currency); err != nil {
		return summaryResponse{}, err
	}
	if f.TotalExpense, err = report.FormatCurrency(r.Totals.TotalExpense, r.Currency); err != nil {
		return summaryResponse{}, err
	}
	if f.NetSavings, err = report.FormatCurrency(r.Totals.NetSavings, r.Currency); err != nil {
		return summaryResponse{}, err
	}
	return summaryResponse{Report: r, Chart: report.BuildChart(kind, source, r), Formatted: f}, nil
}

func chartParams(r *http.Request) (report.ChartKind, report.ChartSource, error) {
	q := r.URL.Query()
	kind, err := report.ParseChartKind(q.Get("chart"))
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", errBadRequest, err)
	}
	source, err := report.ParseChartSource(q.Get("source"))
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return kind, source, nil
}

func (s *Server) handleReportSummary(w http.ResponseWriter, r *http.Request) {
	kind, source, err := chartParams(r)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	rep, err := s.deps.Reports.Report(r.Context(), ownerID(r.Context()))
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	resp, err := newSummary(rep, kind, source)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleReportStream sends the current summary, then a new one every time the
// owner's records change, as server-sent "report" events. The subscription is
// opened before the first load so no change in between is missed.
func (s *Server) handleReportStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "streaming not supported"})
		return
	}
	kind, source, err := chartParams(r)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}

	ctx := r.Context()
	owner := ownerID(ctx)
	logger := applog.FromContext(ctx).WithComponent(applog.ComponentFeed)

	updates, unsubscribe := s.deps.Feed.Subscribe(owner)
	defer unsubscribe()

	initial, err := s.deps.Reports.Report(ctx, owner)
	if err != nil {
		writeError(w, r, applog.OpRead, err)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	send := func(rep report.Report) bool {
		resp, err := newSummary(rep, kind, source)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to format streamed report", applog.FieldError, err)
			return false
		}
		data, err := json.Marshal(resp)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to encode streamed report", applog.FieldError, err)
			return false
		}
		if _, err := fmt.Fprintf(w, "event: report\ndata: %s\n\n", data); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}
	if !send(initial) {
		return
	}
	logger.InfoContext(ctx, "Report stream opened", applog.FieldSubscribers, s.deps.Feed.Subscribers(owner))

	heartbeat := time.NewTicker(s.opts.StreamHeartbeat)
	defer heartbeat.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.streams.Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case snap, ok := <-updates:
			if !ok || !send(s.deps.Reports.Build(ctx, snap)) {
				return
			}
		}
	}
}
