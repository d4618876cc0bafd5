package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/sourcegraph/conc/panics"

	"github.com/cs-au-dk/artemis-sitesuite/metrics"
	"github.com/cs-au-dk/artemis-sitesuite/types"
)

const (
	DefaultMetricPrefix  = "concolic::"
	DefaultMetricExclude = "concolic::solver::constraint."
)

// RowLogger receives the record of every finished case
type RowLogger interface {
	Log(ctx context.Context, record types.RunRecord) error
}

// ToolFailureError reports a non-zero exit of the analysis tool
type ToolFailureError struct {
	ExitCode int
}

func (e *ToolFailureError) Error() string {
	return fmt.Sprintf("artemis returned exit status %d", e.ExitCode)
}

// IsToolFailure checks if the error is or wraps a ToolFailureError
func IsToolFailure(err error) bool {
	var toolErr *ToolFailureError
	return err != nil && errors.As(err, &toolErr)
}

// OrchestrationError is a failure of the harness itself while running a case.
// The original error is kept intact.
type OrchestrationError struct {
	Kind string
	Err  error
}

func (e *OrchestrationError) Error() string {
	return fmt.Sprintf("exception of type '%s' in the test suite: %v", e.Kind, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *OrchestrationError) Unwrap() error {
	return e.Err
}

// IsOrchestrationError checks if the error is or wraps an OrchestrationError
func IsOrchestrationError(err error) bool {
	var orchErr *OrchestrationError
	return err != nil && errors.As(err, &orchErr)
}

// PanicError carries a panic recovered while running a case
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap returns the panic value when it is an error
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// ErrorKind names the dynamic type of the first error in err's chain that
// carries more than a message. Wrappers and plain errors from the fmt and
// errors packages are skipped unless nothing else is left.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	kind := ""
	for e := err; e != nil; e = errors.Unwrap(e) {
		kind = strings.TrimPrefix(fmt.Sprintf("%T", e), "*")
		if !strings.HasPrefix(kind, "fmt.") && !strings.HasPrefix(kind, "errors.") {
			return kind
		}
	}
	return kind
}

// MetricFilter selects the tool statistics that become result columns
type MetricFilter struct {
	Prefix  string // Keys must start with this, case-insensitively
	Exclude string // Keys starting with this are dropped, case-insensitively
}

// DefaultMetricFilter keeps the concolic statistics without the per-constraint solver noise
func DefaultMetricFilter() MetricFilter {
	return MetricFilter{Prefix: DefaultMetricPrefix, Exclude: DefaultMetricExclude}
}

// Harvest turns the matching statistics into labelled fields. The label is the
// key without its prefix, broken after every "::" so the header wraps.
func (f MetricFilter) Harvest(stats map[string]string) map[string]string {
	fields := make(map[string]string)
	for key, value := range stats {
		if !hasPrefixFold(key, f.Prefix) {
			continue
		}
		if f.Exclude != "" && hasPrefixFold(key, f.Exclude) {
			continue
		}
		rest := key[len(f.Prefix):]
		if rest == "" {
			continue
		}
		fields[strings.ReplaceAll(rest, "::", "::\n")] = value
	}
	return fields
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// FormatRunningTime renders d as H:MM:SS with microseconds when there are any
func FormatRunningTime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	micros := d.Microseconds()
	secs := micros / 1e6
	micros %= 1e6

	out := fmt.Sprintf("%d:%02d:%02d", secs/3600, (secs%3600)/60, secs%60)
	if micros != 0 {
		out += fmt.Sprintf(".%06d", micros)
	}
	return out
}

// CaseRunnerConfig holds the collaborators of a CaseRunner
type CaseRunnerConfig struct {
	Executor      ToolExecutor
	ConstraintLog *ConstraintLog
	Salvager      *Salvager
	Logger        RowLogger // Nil disables remote logging and metric harvest
	Filter        MetricFilter
	RunDir        string // Parent of the per-case directories
	TestDate      string // Shared "Testing Run" value of every case
	Version       string // "Artemis Version" value of every case
	DryRun        bool
	Out           io.Writer // Receives the dry-run commands; defaults to stdout
	Log           log.Logger
}

// CaseRunner drives one case from pending to a terminal state
type CaseRunner struct {
	executor      ToolExecutor
	constraintLog *ConstraintLog
	salvager      *Salvager
	logger        RowLogger
	filter        MetricFilter
	runDir        string
	testDate      string
	version       string
	dryRun        bool
	out           io.Writer
	log           log.Logger
}

// NewCaseRunner creates a case runner
func NewCaseRunner(cfg CaseRunnerConfig) (*CaseRunner, error) {
	if cfg.Executor == nil {
		return nil, errors.New("executor cannot be nil")
	}
	if !cfg.DryRun && cfg.ConstraintLog == nil {
		return nil, errors.New("constraint log cannot be nil")
	}
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.Log == nil {
		cfg.Log = log.Root()
	}
	return &CaseRunner{
		executor:      cfg.Executor,
		constraintLog: cfg.ConstraintLog,
		salvager:      cfg.Salvager,
		logger:        cfg.Logger,
		filter:        cfg.Filter,
		runDir:        cfg.RunDir,
		testDate:      cfg.TestDate,
		version:       cfg.Version,
		dryRun:        cfg.DryRun,
		out:           cfg.Out,
		log:           cfg.Log,
	}, nil
}

// CaseDir returns the output directory of c
func (r *CaseRunner) CaseDir(c types.Case) string {
	return filepath.Join(r.runDir, c.Name)
}

// Run executes c and returns its terminal result. It never panics and never
// returns a non-terminal result.
func (r *CaseRunner) Run(ctx context.Context, c types.Case) *types.CaseResult {
	result := types.NewCaseResult(c)
	result.Record.Set(types.LabelTestingRun, r.testDate)
	result.Record.Set(types.LabelArtemisVersion, r.version)
	result.Record.Set(types.LabelSite, c.Name)
	result.Record.Set(types.LabelURL, c.URL)
	result.Record.Set(types.LabelEntryPoint, c.EntryPoint)

	caseDir := r.CaseDir(c)
	result.Command = r.executor.Command(c, caseDir)

	if r.dryRun {
		fmt.Fprintln(r.out, strings.Join(result.Command, " "))
		r.finish(result, types.CaseStatusSucceeded, nil)
		return result
	}

	if err := result.Transition(types.CaseStatusRunning); err != nil {
		r.log.Error("Invalid case transition", "case", c.ID(), "err", err)
	}
	r.log.Info("Running case", "case", c.ID(), "url", c.URL, "entryPoint", c.EntryPoint)

	var (
		status  types.CaseStatus
		caseErr error
		catcher panics.Catcher
	)
	catcher.Try(func() {
		status, caseErr = r.execute(ctx, result, caseDir)
	})
	if recovered := catcher.Recovered(); recovered != nil {
		status = types.CaseStatusErrored
		caseErr = &PanicError{Value: recovered.Value, Stack: recovered.Stack}
	}

	if status == types.CaseStatusErrored {
		kind := ErrorKind(caseErr)
		r.logAfterError(ctx, result, kind, caseErr)
		caseErr = &OrchestrationError{Kind: kind, Err: caseErr}
	}

	r.finish(result, status, caseErr)
	return result
}

// execute runs the tool and everything that depends on its outcome. Any
// returned error other than a ToolFailureError comes with the errored status.
func (r *CaseRunner) execute(ctx context.Context, result *types.CaseResult, caseDir string) (types.CaseStatus, error) {
	if err := r.constraintLog.Reset(); err != nil {
		return types.CaseStatusErrored, err
	}

	start := time.Now()
	report, err := r.executor.Execute(ctx, result.Case, caseDir)
	result.Duration = time.Since(start)
	if err != nil {
		return types.CaseStatusErrored, err
	}

	result.Report = report
	result.Record.Set(types.LabelRunningTime, FormatRunningTime(result.Duration))
	result.Record.Set(types.LabelExitCode, report.ExitCode)
	metrics.RecordToolExit(report.ExitCode)

	if _, err := r.constraintLog.Relocate(caseDir); err != nil {
		return types.CaseStatusErrored, err
	}

	if report.ExitCode != 0 && r.salvager != nil {
		result.Backtrace = r.salvager.Salvage(ctx, caseDir)
	}

	if r.logger != nil {
		result.Record.Merge(r.filter.Harvest(report.Stats))
		if err := r.logger.Log(ctx, result.Record); err != nil {
			return types.CaseStatusErrored, err
		}
	}

	if report.ExitCode != 0 {
		return types.CaseStatusFailed, &ToolFailureError{ExitCode: report.ExitCode}
	}
	return types.CaseStatusSucceeded, nil
}

// logAfterError makes a single attempt to log the record annotated with the
// error kind. Its own failure is only reported, never returned.
func (r *CaseRunner) logAfterError(ctx context.Context, result *types.CaseResult, kind string, caseErr error) {
	result.Record.Set(types.LabelAnalysis, fmt.Sprintf("Exception of type '%s' in the test suite.", kind))
	r.log.Error("Case errored", "case", result.Case.ID(), "kind", kind, "err", caseErr)

	if r.logger == nil {
		return
	}
	var catcher panics.Catcher
	catcher.Try(func() {
		if err := r.logger.Log(ctx, result.Record); err != nil {
			r.log.Warn("Failed to log errored case", "case", result.Case.ID(), "err", err)
		}
	})
	if recovered := catcher.Recovered(); recovered != nil {
		r.log.Warn("Panic while logging errored case", "case", result.Case.ID(), "panic", recovered.Value)
	}
}

func (r *CaseRunner) finish(result *types.CaseResult, status types.CaseStatus, err error) {
	if ferr := result.Finish(status, err); ferr != nil {
		r.log.Error("Failed to finish case", "case", result.Case.ID(), "err", ferr)
		return
	}
	r.log.Info("Case finished", "case", result.Case.ID(), "status", status, "duration", result.Duration, "err", err)
}
