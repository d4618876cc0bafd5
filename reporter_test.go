package sitesuite

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestDefaultMetricsReporter_ReportResults(t *testing.T) {
	reporter := NewDefaultMetricsReporter()

	// a nil result is ignored
	reporter.ReportResults(nil)

	result := createSampleResult()
	reporter.ReportResults(result)

	// the suite gauges are process wide; scraping them must include this run
	count, err := testutil.GatherAndCount(prometheus.DefaultGatherer, "sitesuite_suite_cases")
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, count, 3)
}
