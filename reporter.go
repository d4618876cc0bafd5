package sitesuite

import (
	"github.com/cs-au-dk/artemis-sitesuite/metrics"
	"github.com/cs-au-dk/artemis-sitesuite/runner"
)

// MetricsReporter is responsible for reporting metrics from suite results.
type MetricsReporter interface {
	ReportResults(result *runner.SuiteResult)
}

// DefaultMetricsReporter implements the MetricsReporter interface.
type DefaultMetricsReporter struct{}

// NewDefaultMetricsReporter creates a new DefaultMetricsReporter.
func NewDefaultMetricsReporter() *DefaultMetricsReporter {
	return &DefaultMetricsReporter{}
}

// ReportResults reports the suite results to metrics systems.
func (r *DefaultMetricsReporter) ReportResults(result *runner.SuiteResult) {
	if result == nil {
		return
	}
	metrics.RecordSuite(
		result.RunID,
		string(result.Status),
		result.Stats.Succeeded,
		result.Stats.Failed,
		result.Stats.Errored,
		result.Duration,
	)
}
