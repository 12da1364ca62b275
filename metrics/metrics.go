// Package metrics exports run progress as Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/launchdarkly/suite-runner/framework"
	"github.com/launchdarkly/suite-runner/framework/lifecycle"
)

const MetricsNamespace = "suite_runner"

// Reporter is a lifecycle.Reporter that updates Prometheus collectors. All of its collectors are
// registered with the Registerer passed to NewReporter, so several Reporters can coexist as long
// as each has its own registry.
type Reporter struct {
	casesTotal      *prometheus.CounterVec
	caseDuration    *prometheus.HistogramVec
	hookFailures    *prometheus.CounterVec
	suitesStarted   prometheus.Counter
	activeSuites    prometheus.Gauge
	runsTotal       *prometheus.CounterVec
	lastRunFailures prometheus.Gauge
}

func NewReporter(reg prometheus.Registerer) *Reporter {
	factory := promauto.With(reg)
	return &Reporter{
		casesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "cases_total",
			Help:      "Count of finished cases",
		}, []string{
			"status",
		}),
		caseDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: MetricsNamespace,
			Name:      "case_duration_seconds",
			Help:      "Time taken by each case, including its hooks",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1, 2, 5},
		}, []string{
			"status",
		}),
		hookFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "hook_failures_total",
			Help:      "Count of hook failures that were not attributed to a case",
		}, []string{
			"hook",
		}),
		suitesStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "suites_started_total",
			Help:      "Count of suites that were activated",
		}),
		activeSuites: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "active_suites",
			Help:      "Number of suites currently open, counting enclosing suites",
		}),
		runsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: MetricsNamespace,
			Name:      "runs_total",
			Help:      "Count of finished runs",
		}, []string{
			"result",
		}),
		lastRunFailures: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: MetricsNamespace,
			Name:      "last_run_failures",
			Help:      "Number of failed cases in the most recent run",
		}),
	}
}

func (r *Reporter) SuiteStarted(lifecycle.Path) {
	r.suitesStarted.Inc()
	r.activeSuites.Inc()
}

func (r *Reporter) SuiteFinished(lifecycle.Path) {
	r.activeSuites.Dec()
}

func (r *Reporter) CaseStarted(lifecycle.Path) {}

func (r *Reporter) CaseError(lifecycle.Path, error) {}

func (r *Reporter) CaseFinished(result lifecycle.CaseResult, _ framework.CapturedOutput) {
	status := string(result.Outcome.Status)
	r.casesTotal.WithLabelValues(status).Inc()
	if result.Outcome.Status != lifecycle.StatusPending {
		r.caseDuration.WithLabelValues(status).Observe(result.Duration.Seconds())
	}
}

func (r *Reporter) HookFailed(diagnostic lifecycle.HookDiagnostic) {
	r.hookFailures.WithLabelValues(diagnostic.Kind.String()).Inc()
}

func (r *Reporter) EndLog(report lifecycle.Report) error {
	result := "pass"
	if !report.OK() {
		result = "fail"
	}
	r.runsTotal.WithLabelValues(result).Inc()
	r.lastRunFailures.Set(float64(len(report.Failures())))
	return nil
}
