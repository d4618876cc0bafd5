package metrics

import (
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cs-au-dk/artemis-sitesuite/types"
)

const (
	MetricsNamespace = "sitesuite"
)

var (
	Debug                bool = true
	terminalStatuses          = []types.CaseStatus{types.CaseStatusSucceeded, types.CaseStatusFailed, types.CaseStatusErrored}
	nonAlphanumericRegex      = regexp.MustCompile(`[^a-zA-Z ]+`)

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "errors_total",
		Help:      "Count of errors",
	}, []string{
		"error",
	})

	casesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "cases_total",
		Help:      "Count of finished cases",
	}, []string{
		"run_id",
		"case",
		"status",
	})

	caseDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "case_duration_seconds",
		Help:      "Wall time of the analysis tool for a case",
	}, []string{
		"run_id",
		"case",
	})

	toolExitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "tool_exits_total",
		Help:      "Count of analysis tool exits by status code",
	}, []string{
		"exit_code",
	})

	salvagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "salvages_total",
		Help:      "Count of crash diagnostics collection attempts",
	}, []string{
		"result",
	})

	sheetOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "sheet_operations_total",
		Help:      "Count of operations against the results sheet",
	}, []string{
		"op",
		"result",
	})

	suiteResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "suite_results",
		Help:      "Result of suite runs",
	}, []string{
		"run_id",
		"result",
	})

	suiteCases = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "suite_cases",
		Help:      "Number of cases of a suite run by status",
	}, []string{
		"run_id",
		"status",
	})

	suiteDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "suite_duration_seconds",
		Help:      "Duration of suite runs",
	}, []string{
		"run_id",
	})
)

// errToLabel tries to make the error string a more valid Prometheus label
func errToLabel(err error) string {
	if err == nil {
		return "nil"
	}
	errClean := nonAlphanumericRegex.ReplaceAllString(err.Error(), "")
	errClean = strings.ReplaceAll(errClean, " ", "_")
	errClean = strings.ReplaceAll(errClean, "__", "_")
	return errClean
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func RecordError(error string) {
	if Debug {
		log.Debug("metric inc",
			"m", "errors_total",
			"error", error,
		)
	}
	errorsTotal.WithLabelValues(error).Inc()
}

// RecordErrorDetails concats the error message to the label
// and also tries to clean the label to be a valid Prometheus label
func RecordErrorDetails(label string, err error) {
	if err == nil {
		return
	}
	label = fmt.Sprintf("%s.%s", label, errToLabel(err))
	RecordError(label)
}

// RecordCase records the terminal status and tool wall time of a case
func RecordCase(runID string, caseID string, status types.CaseStatus, duration time.Duration) {
	if !slices.Contains(terminalStatuses, status) {
		log.Error("RecordCase - status is not terminal", "status", status)
		return
	}
	if Debug {
		log.Debug("metric inc",
			"m", "cases_total",
			"run_id", runID,
			"case", caseID,
			"status", status)
	}
	casesTotal.WithLabelValues(runID, caseID, string(status)).Inc()
	caseDuration.WithLabelValues(runID, caseID).Set(duration.Seconds())
}

// RecordToolExit counts an exit of the analysis tool
func RecordToolExit(exitCode int) {
	toolExitsTotal.WithLabelValues(strconv.Itoa(exitCode)).Inc()
}

// RecordSalvage counts a crash diagnostics attempt
func RecordSalvage(err error) {
	salvagesTotal.WithLabelValues(resultLabel(err)).Inc()
}

// RecordSheetOp counts an operation against the results sheet
func RecordSheetOp(op string, err error) {
	if Debug && err != nil {
		log.Debug("metric inc",
			"m", "sheet_operations_total",
			"op", op,
			"err", err)
	}
	sheetOpsTotal.WithLabelValues(op, resultLabel(err)).Inc()
}

func RecordSuite(
	runID string,
	result string,
	succeeded int,
	failed int,
	errored int,
	duration time.Duration,
) {
	suiteResults.WithLabelValues(runID, result).Set(1)
	suiteCases.WithLabelValues(runID, string(types.CaseStatusSucceeded)).Set(float64(succeeded))
	suiteCases.WithLabelValues(runID, string(types.CaseStatusFailed)).Set(float64(failed))
	suiteCases.WithLabelValues(runID, string(types.CaseStatusErrored)).Set(float64(errored))
	suiteDuration.WithLabelValues(runID).Set(duration.Seconds())
}
