package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cs-au-dk/artemis-sitesuite/metrics"
	"github.com/cs-au-dk/artemis-sitesuite/types"
)

// CaseExecutor runs a single case to completion
type CaseExecutor interface {
	Run(ctx context.Context, c types.Case) *types.CaseResult
}

var _ CaseExecutor = (*CaseRunner)(nil)

// ResultStats counts case outcomes
type ResultStats struct {
	Total     int
	Succeeded int
	Failed    int
	Errored   int
	StartTime time.Time
	EndTime   time.Time
}

// SuiteResult captures the outcome of a whole run, cases in input order
type SuiteResult struct {
	RunID    string
	Cases    []*types.CaseResult
	Stats    ResultStats
	Status   types.CaseStatus
	Duration time.Duration
}

// Passed reports whether every case succeeded
func (r *SuiteResult) Passed() bool {
	return r.Stats.Failed == 0 && r.Stats.Errored == 0
}

// formatDuration formats the duration to seconds with 1 decimal place
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// String returns one summary line per case followed by the totals
func (r *SuiteResult) String() string {
	var b strings.Builder
	for _, c := range r.Cases {
		switch c.Status {
		case types.CaseStatusSucceeded:
			b.WriteString(fmt.Sprintf("--- PASS: %s (%s)\n", c.Case.ID(), formatDuration(c.Duration)))
		case types.CaseStatusFailed:
			b.WriteString(fmt.Sprintf("--- FAIL: %s (%s)\n", c.Case.ID(), formatDuration(c.Duration)))
			if c.Error != nil {
				b.WriteString(fmt.Sprintf("    %s\n", c.Error))
			}
		default:
			b.WriteString(fmt.Sprintf("--- ERROR: %s (%s)\n", c.Case.ID(), formatDuration(c.Duration)))
			if c.Error != nil {
				b.WriteString(fmt.Sprintf("    %s\n", c.Error))
			}
		}
	}
	b.WriteString(fmt.Sprintf("Ran %d cases in %s: %d passed, %d failed, %d errored\n",
		r.Stats.Total, formatDuration(r.Duration), r.Stats.Succeeded, r.Stats.Failed, r.Stats.Errored))
	return b.String()
}

// Harness runs every case of a table, one after the other
type Harness struct {
	runner CaseExecutor
	log    log.Logger
	runID  string
	tracer trace.Tracer
}

// NewHarness creates a harness. An empty runID gets a fresh one.
func NewHarness(runner CaseExecutor, runID string, logger log.Logger) *Harness {
	if runID == "" {
		runID = uuid.New().String()
	}
	if logger == nil {
		logger = log.Root()
	}
	return &Harness{
		runner: runner,
		log:    logger.New("run_id", runID),
		runID:  runID,
		tracer: otel.Tracer("sitesuite"),
	}
}

// RunID returns the identifier of this run
func (h *Harness) RunID() string {
	return h.runID
}

// Run executes cases sequentially in input order. A failed or errored case
// never stops the remaining ones.
func (h *Harness) Run(ctx context.Context, cases []types.Case) *SuiteResult {
	ctx, span := h.tracer.Start(ctx, "suite run")
	defer span.End()
	span.SetAttributes(attribute.String("run_id", h.runID), attribute.Int("cases", len(cases)))

	result := &SuiteResult{
		RunID: h.runID,
		Cases: make([]*types.CaseResult, 0, len(cases)),
		Stats: ResultStats{Total: len(cases), StartTime: time.Now()},
	}

	h.log.Info("Starting cases", "count", len(cases))
	for _, c := range cases {
		caseResult := h.runCase(ctx, c)
		result.Cases = append(result.Cases, caseResult)

		switch caseResult.Status {
		case types.CaseStatusSucceeded:
			result.Stats.Succeeded++
		case types.CaseStatusFailed:
			result.Stats.Failed++
		default:
			result.Stats.Errored++
		}
		metrics.RecordCase(h.runID, c.ID(), caseResult.Status, caseResult.Duration)
	}

	result.Stats.EndTime = time.Now()
	result.Duration = result.Stats.EndTime.Sub(result.Stats.StartTime)
	result.Status = types.CaseStatusSucceeded
	if !result.Passed() {
		result.Status = types.CaseStatusFailed
		span.SetStatus(codes.Error, "cases failed")
	}

	return result
}

func (h *Harness) runCase(ctx context.Context, c types.Case) *types.CaseResult {
	ctx, span := h.tracer.Start(ctx, fmt.Sprintf("case %s", c.ID()))
	defer span.End()
	span.SetAttributes(attribute.String("site", c.Name), attribute.String("url", c.URL))

	result := h.runner.Run(ctx, c)
	if result == nil {
		result = types.NewCaseResult(c)
		_ = result.Finish(types.CaseStatusErrored, &OrchestrationError{Kind: "nil result", Err: fmt.Errorf("no result for case %s", c.ID())})
	}

	span.SetAttributes(attribute.String("status", string(result.Status)))
	if result.Error != nil {
		span.RecordError(result.Error)
		span.SetStatus(codes.Error, result.Error.Error())
	}
	return result
}
