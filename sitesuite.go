package sitesuite

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"google.golang.org/api/option"

	"github.com/cs-au-dk/artemis-sitesuite/caselist"
	"github.com/cs-au-dk/artemis-sitesuite/logging"
	"github.com/cs-au-dk/artemis-sitesuite/runner"
	"github.com/cs-au-dk/artemis-sitesuite/service"
	"github.com/cs-au-dk/artemis-sitesuite/sheets"
	"github.com/cs-au-dk/artemis-sitesuite/types"
	"github.com/cs-au-dk/artemis-sitesuite/version"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
)

// suite implements the cliapp.Lifecycle interface.
var _ cliapp.Lifecycle = &suite{}

// suite runs every case of a table once and reports the outcome.
type suite struct {
	ctx       context.Context
	config    *Config
	version   string
	cases     []types.Case
	formatter ResultFormatter
	reporter  MetricsReporter
	service   *service.Service
	result    *runner.SuiteResult

	// Overridable for tests
	out        io.Writer
	now        func() time.Time
	sheetsOpts []option.ClientOption

	running atomic.Bool

	shutdownCallback func(error) // Callback to signal application shutdown
}

// Option customises a suite
type Option func(*suite)

// WithOutput sends the console table, the summary and dry-run commands to out
func WithOutput(out io.Writer) Option {
	return func(s *suite) {
		s.out = out
	}
}

// WithClock fixes the time the run directory is named after
func WithClock(now func() time.Time) Option {
	return func(s *suite) {
		s.now = now
	}
}

// WithSheetsOptions passes extra client options to the spreadsheet service
func WithSheetsOptions(opts ...option.ClientOption) Option {
	return func(s *suite) {
		s.sheetsOpts = append(s.sheetsOpts, opts...)
	}
}

// New loads the case table. A malformed table is rejected here,
// before any directory, tool process or sheet session exists.
func New(ctx context.Context, config *Config, version string, shutdownCallback func(error), opts ...Option) (*suite, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	config.Log.Debug("Creating suite with config",
		"caseTable", config.CaseTable,
		"dryRun", config.DryRun,
		"remoteLog", config.RemoteLog,
		"outputRoot", config.OutputRoot)

	cases, err := caselist.Load(config.CaseTable)
	if err != nil {
		return nil, err
	}
	config.Log.Info("Loaded case table", "cases", len(cases))

	s := &suite{
		ctx:              ctx,
		config:           config,
		version:          version,
		cases:            cases,
		reporter:         NewDefaultMetricsReporter(),
		out:              os.Stdout,
		now:              time.Now,
		shutdownCallback: shutdownCallback,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.formatter = NewConsoleResultFormatter(config.Log, s.out)
	if config.Metrics.Enabled {
		s.service = service.New(config.Metrics.ListenAddr, config.Metrics.ListenPort, config.Log)
	}
	return s, nil
}

// Start runs the suite once.
// Start implements the cliapp.Lifecycle interface.
func (s *suite) Start(ctx context.Context) error {
	s.ctx = ctx
	s.running.Store(true)

	if s.service != nil {
		s.service.Start(ctx)
	}

	s.config.Log.Info("Starting sitesuite", "cases", len(s.cases), "dryRun", s.config.DryRun)
	if err := s.runSuite(ctx); err != nil {
		s.config.Log.Error("Suite aborted", "error", err)
		return NewAbortError(StageRun, err)
	}

	if !s.result.Passed() {
		s.config.Log.Warn("Suite completed with failures, returning exit code 1",
			"failed", s.result.Stats.Failed, "errored", s.result.Stats.Errored)
		return NewCasesFailedError(s.result.Stats.Failed, s.result.Stats.Errored, s.result.Stats.Total)
	}

	s.config.Log.Info("Suite completed, exiting")
	if s.shutdownCallback != nil {
		go func() {
			s.shutdownCallback(nil)
		}()
	}
	return nil
}

// runSuite sets up the collaborators of one run, runs every case and reports the outcome
func (s *suite) runSuite(ctx context.Context) error {
	cfg := s.config

	runDir, err := logging.NewRunDir(cfg.OutputRoot, s.now())
	if err != nil {
		return fmt.Errorf("failed to name run directory: %w", err)
	}

	var rowLogger runner.RowLogger
	if cfg.RemoteLog {
		auth := sheets.NewGoogleAuthenticator(cfg.Sheets, cfg.Log, s.sheetsOpts...)
		resultLogger := sheets.NewResultLogger(auth, cfg.Log)
		if err := resultLogger.Open(ctx); err != nil {
			return err
		}
		defer func() {
			if err := resultLogger.Close(); err != nil {
				cfg.Log.Warn("Failed to close results sheet", "err", err)
			}
		}()
		rowLogger = resultLogger
	} else {
		cfg.Log.Info("Remote logging disabled, results stay local")
	}

	if !cfg.DryRun {
		if err := runDir.Create(); err != nil {
			return err
		}
		cfg.Log.Info("Created run directory", "path", runDir.Path())
	}

	executor := runner.NewArtemisExecutor(cfg.ArtemisBinary, cfg.Log)
	caseRunner, err := runner.NewCaseRunner(runner.CaseRunnerConfig{
		Executor:      executor,
		ConstraintLog: runner.NewConstraintLog(cfg.ConstraintLog),
		Salvager:      runner.NewSalvager(cfg.GDBBinary, executor.Binary(), cfg.CoreFile, cfg.Log),
		Logger:        rowLogger,
		Filter:        cfg.MetricFilter,
		RunDir:        runDir.Path(),
		TestDate:      runDir.TestDate(),
		Version:       version.Lookup(cfg.RepoDir, cfg.RepoURL, cfg.Log),
		DryRun:        cfg.DryRun,
		Out:           s.out,
		Log:           cfg.Log,
	})
	if err != nil {
		return fmt.Errorf("failed to create case runner: %w", err)
	}

	harness := runner.NewHarness(caseRunner, "", cfg.Log)
	result := harness.Run(ctx, s.cases)
	s.result = result

	if err := s.formatter.FormatResults(result); err != nil {
		cfg.Log.Warn("Failed to print results table", "err", err)
	}
	summary := result.String()
	fmt.Fprint(s.out, summary)
	if !cfg.DryRun {
		if err := runDir.WriteSummary(summary); err != nil {
			cfg.Log.Warn("Failed to write run summary", "err", err)
		}
	}
	s.reporter.ReportResults(result)
	cfg.Log.Info("Suite run completed", "run_id", result.RunID, "status", result.Status)
	return nil
}

// Stop stops the sitesuite service.
// Stop implements the cliapp.Lifecycle interface.
func (s *suite) Stop(ctx context.Context) error {
	s.config.Log.Info("Stopping sitesuite")

	if !s.running.Load() {
		s.config.Log.Debug("Service already stopped, nothing to do")
		return nil
	}
	s.running.Store(false)

	if s.service != nil {
		s.service.Shutdown()
	}

	s.config.Log.Info("sitesuite stopped successfully")
	return nil
}

// Stopped returns true if the sitesuite service is stopped.
// Stopped implements the cliapp.Lifecycle interface.
func (s *suite) Stopped() bool {
	return !s.running.Load()
}

// Result returns the outcome of the last run, or nil before Start completes
func (s *suite) Result() *runner.SuiteResult {
	return s.result
}
