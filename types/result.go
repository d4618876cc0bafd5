package types

import (
	"fmt"
	"time"
)

// CaseStatus represents the possible states of a case execution
type CaseStatus string

const (
	CaseStatusPending   CaseStatus = "pending"
	CaseStatusRunning   CaseStatus = "running"
	CaseStatusSucceeded CaseStatus = "succeeded"
	CaseStatusFailed    CaseStatus = "failed"
	CaseStatusErrored   CaseStatus = "errored"
)

// IsTerminal reports whether no further transition can happen from s
func (s CaseStatus) IsTerminal() bool {
	switch s {
	case CaseStatusSucceeded, CaseStatusFailed, CaseStatusErrored:
		return true
	}
	return false
}

// ToolReport is what the analysis tool hands back for one invocation
type ToolReport struct {
	Command  []string          // Full command line, binary first
	ExitCode int               // Process exit status; negative when killed by a signal
	Stats    map[string]string // Statistics keyed by their dotted/namespaced names
	Output   string            // Path to the captured console output, if any
}

// CaseResult captures the outcome of a single case run
type CaseResult struct {
	Case        Case
	Status      CaseStatus
	Error       error         // Nil on success; a tool failure or the orchestration error
	Duration    time.Duration // Wall time of the tool invocation
	Record      RunRecord     // Fields handed to the result logger
	Report      *ToolReport   // Nil when the tool never ran
	Command     []string      // Command that was (or would have been) executed
	Backtrace   string        // Path to the backtrace file, if one was produced
	Transitions []CaseStatus  // Every state the case went through, starting at pending
}

// NewCaseResult creates a pending result for c
func NewCaseResult(c Case) *CaseResult {
	return &CaseResult{
		Case:        c,
		Status:      CaseStatusPending,
		Record:      NewRunRecord(),
		Transitions: []CaseStatus{CaseStatusPending},
	}
}

// Transition moves the result into status. Leaving a terminal state is an error.
func (r *CaseResult) Transition(status CaseStatus) error {
	if r.Status.IsTerminal() {
		return fmt.Errorf("case %s already finished as %s, cannot move to %s", r.Case.ID(), r.Status, status)
	}
	r.Status = status
	r.Transitions = append(r.Transitions, status)
	return nil
}

// Finish moves the result into a terminal status and records err
func (r *CaseResult) Finish(status CaseStatus, err error) error {
	if !status.IsTerminal() {
		return fmt.Errorf("%s is not a terminal status", status)
	}
	if err := r.Transition(status); err != nil {
		return err
	}
	r.Error = err
	return nil
}

// Passed reports whether the case succeeded
func (r *CaseResult) Passed() bool {
	return r.Status == CaseStatusSucceeded
}
