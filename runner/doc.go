// Package runner executes the site cases against the Artemis binary.
//
// The main components are:
//   - ToolExecutor: Builds and runs one Artemis invocation and parses its statistics
//   - ConstraintLog: Truncates the solver's constraint log before a run and relocates it afterwards
//   - Salvager: Collects a gdb backtrace from a core dump left by a crashed run
//   - CaseRunner: Drives a single case through its states and logs the resulting row
//   - Harness: Runs every case in order and aggregates the outcomes
//
// A case never takes down the suite: tool failures, orchestration errors and
// panics are all confined to the case that caused them.
package runner
