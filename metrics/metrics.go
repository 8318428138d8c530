package metrics

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const MetricsNamespace = "bdd_demo"

var (
	Debug bool = true

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"component",
	})

	testRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "test_runs_total",
		Help:      "Count of Behave test runs",
	}, []string{
		"run_id",
		"result",
	})

	scenariosTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "scenarios_total",
		Help:      "Count of executed scenarios by status",
	}, []string{
		"run_id",
		"status",
	})

	testRunDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "test_run_duration_seconds",
		Help:      "Wall-clock duration of Behave test runs",
	}, []string{
		"run_id",
	})

	qualityChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "quality_checks_total",
		Help:      "Count of data-quality expectations evaluated",
	}, []string{
		"result",
	})

	apiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "api_requests_total",
		Help:      "Count of mock API requests",
	}, []string{
		"endpoint",
		"status",
	})
)

func RecordError(component string) {
	if Debug {
		slog.Debug("metric inc", "m", "errors_total", "component", component)
	}
	errorsTotal.WithLabelValues(component).Inc()
}

func RecordTestRun(runID string, success bool, duration time.Duration) {
	result := "failure"
	if success {
		result = "success"
	}
	if Debug {
		slog.Debug("metric inc",
			"m", "test_runs_total",
			"run_id", runID,
			"result", result,
			"duration", duration)
	}
	testRunsTotal.WithLabelValues(runID, result).Inc()
	testRunDuration.WithLabelValues(runID).Set(duration.Seconds())
}

func RecordScenarios(runID string, passed, failed, skipped int) {
	scenariosTotal.WithLabelValues(runID, "passed").Add(float64(passed))
	scenariosTotal.WithLabelValues(runID, "failed").Add(float64(failed))
	scenariosTotal.WithLabelValues(runID, "skipped").Add(float64(skipped))
}

func RecordQualityCheck(success bool) {
	result := "failure"
	if success {
		result = "success"
	}
	qualityChecksTotal.WithLabelValues(result).Inc()
}

func RecordAPIRequest(endpoint string, status int) {
	apiRequestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func httpStatusBucket(status int) string {
	switch {
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
