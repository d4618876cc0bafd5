// Package exitcodes defines the exit codes used by sitesuite.
package exitcodes

// Exit code constants used by sitesuite:
//
// * Success (0): every case ran and Artemis exited cleanly for each of them
// * TestFailure (1): Artemis returned a non-zero exit status for at least one case
// * RuntimeErr (2): the harness itself failed, e.g. an unreadable case table or an unreachable sheet
// * UsageErr (3): the command line was malformed
const (
	Success     = 0 // All cases pass
	TestFailure = 1 // Tool failures
	RuntimeErr  = 2 // Runtime errors
	UsageErr    = 3 // Bad invocation
)
