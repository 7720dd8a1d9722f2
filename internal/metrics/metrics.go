// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fintrack"

var ReportsBuilt = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "report",
	Name:      "built_total",
	Help:      "Reports produced, by whether the memo served them.",
}, []string{"cached"})

var SkippedRecords = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "report",
	Name:      "skipped_records_total",
	Help:      "Transactions left out of a freshly built report as malformed.",
})

var ReportBuildSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: namespace,
	Subsystem: "report",
	Name:      "snapshot_load_seconds",
	Help:      "Time spent loading an owner snapshot from the store.",
	Buckets:   prometheus.DefBuckets,
})

var FeedSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: namespace,
	Subsystem: "feed",
	Name:      "subscribers",
	Help:      "Open snapshot subscriptions.",
})

var FeedDeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "feed",
	Name:      "deliveries_total",
	Help:      "Snapshots handed to subscribers, by outcome (delivered or replaced).",
}, []string{"outcome"})

var HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "requests_total",
	Help:      "HTTP requests by route pattern, method and status code.",
}, []string{"route", "method", "status"})

var ChangeNotices = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "amqp",
	Name:      "change_notices_total",
	Help:      "Snapshot change notices, by outcome (published, failed, consumed, dropped).",
}, []string{"outcome"})

var Exports = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "export",
	Name:      "runs_total",
	Help:      "Report exports to Google Sheets, by result.",
}, []string{"result"})

var RateLimited = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: namespace,
	Subsystem: "http",
	Name:      "rate_limited_total",
	Help:      "Requests rejected by the per-client rate limiter.",
})
