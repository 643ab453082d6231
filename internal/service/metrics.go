package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	reportCompletion = "completion"
	reportLastPage   = "last_page_accessed"
	reportOutline    = "outline"
)

var (
	// reportsTotal counts report runs.
	// Labels: report, result (success, error)
	reportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "waypoint",
		Name:      "reports_total",
		Help:      "Total report runs by report and result",
	}, []string{"report", "result"})

	reportDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "waypoint",
		Name:      "report_duration_seconds",
		Help:      "Report run latency in seconds",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"report"})

	// coursesSkipped counts requested courses that produced no report.
	// Labels: reason (a domain.SkipReason)
	coursesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "waypoint",
		Name:      "courses_skipped_total",
		Help:      "Requested courses skipped by reason",
	}, []string{"reason"})
)

func recordReport(report string, seconds float64, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	reportsTotal.WithLabelValues(report, result).Inc()
	reportDuration.WithLabelValues(report).Observe(seconds)
}
