package sitesuite

import (
	"errors"
	"fmt"
)

// Stages a run can be aborted in
const (
	StageConfig = "config"
	StageSetup  = "setup"
	StageRun    = "run"
)

// AbortError is a run that stopped before every case could report: a bad
// case table, an unreachable results sheet, an unwritable output root.
// It exits with code 2.
type AbortError struct {
	Stage string
	Err   error
}

func (e *AbortError) Error() string {
	return fmt.Sprintf("suite aborted during %s: %v", e.Stage, e.Err)
}

func (e *AbortError) Unwrap() error {
	return e.Err
}

func NewAbortError(stage string, err error) *AbortError {
	return &AbortError{Stage: stage, Err: err}
}

// IsAbortError reports whether err is or wraps an AbortError
func IsAbortError(err error) bool {
	var abortErr *AbortError
	return err != nil && errors.As(err, &abortErr)
}

// CasesFailedError is a completed run in which some cases failed or errored.
// It exits with code 1.
type CasesFailedError struct {
	Failed  int
	Errored int
	Total   int
}

func (e *CasesFailedError) Error() string {
	return fmt.Sprintf("%d of %d cases did not succeed (%d failed, %d errored)",
		e.Failed+e.Errored, e.Total, e.Failed, e.Errored)
}

func NewCasesFailedError(failed, errored, total int) *CasesFailedError {
	return &CasesFailedError{Failed: failed, Errored: errored, Total: total}
}

// IsCasesFailedError reports whether err is or wraps a CasesFailedError
func IsCasesFailedError(err error) bool {
	var failedErr *CasesFailedError
	return err != nil && errors.As(err, &failedErr)
}

// UsageError is a malformed invocation. Usage is printed and it exits with code 3.
type UsageError struct {
	Message string
}

func (e *UsageError) Error() string {
	return fmt.Sprintf("usage error: %s", e.Message)
}

func NewUsageError(format string, args ...any) *UsageError {
	return &UsageError{Message: fmt.Sprintf(format, args...)}
}

// IsUsageError reports whether err is or wraps a UsageError
func IsUsageError(err error) bool {
	var usageErr *UsageError
	return err != nil && errors.As(err, &usageErr)
}
