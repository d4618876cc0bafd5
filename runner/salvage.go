package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/ethereum/go-ethereum/log"

	"github.com/cs-au-dk/artemis-sitesuite/metrics"
)

const (
	// DefaultGDBBinary is looked up on PATH when no debugger is configured
	DefaultGDBBinary = "gdb"
	// DefaultCoreFile is the core dump name, relative to the case directory
	DefaultCoreFile = "core"
	// BacktraceFileName holds the debugger output inside the case directory
	BacktraceFileName = "backtrace.txt"
)

// SecondaryDiagnosticError is a failure while collecting crash diagnostics.
// It never changes the outcome of the case.
type SecondaryDiagnosticError struct {
	Step string
	Err  error
}

func (e *SecondaryDiagnosticError) Error() string {
	return fmt.Sprintf("crash diagnostics %s failed: %v", e.Step, e.Err)
}

// Unwrap implements the errors.Unwrap interface
func (e *SecondaryDiagnosticError) Unwrap() error {
	return e.Err
}

// Salvager turns a core dump left by a crashed run into a backtrace
type Salvager struct {
	GDB        string
	ToolBinary string
	CorePath   string // Relative paths resolve against the case directory
	log        log.Logger
}

// NewSalvager creates a salvager for dumps of toolBinary
func NewSalvager(gdb, toolBinary, corePath string, logger log.Logger) *Salvager {
	if gdb == "" {
		gdb = DefaultGDBBinary
	}
	if corePath == "" {
		corePath = DefaultCoreFile
	}
	if logger == nil {
		logger = log.Root()
	}
	return &Salvager{GDB: gdb, ToolBinary: toolBinary, CorePath: corePath, log: logger}
}

func (s *Salvager) corePath(caseDir string) string {
	if filepath.IsAbs(s.CorePath) {
		return s.CorePath
	}
	return filepath.Join(caseDir, s.CorePath)
}

// Salvage writes a backtrace of the core dump in caseDir, if there is one, and
// removes the dump. It returns the backtrace path, or "" when no dump existed.
// The dump is removed even when the debugger fails. All failures are logged
// and swallowed.
func (s *Salvager) Salvage(ctx context.Context, caseDir string) string {
	core := s.corePath(caseDir)
	if _, err := os.Stat(core); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.warn(&SecondaryDiagnosticError{Step: "stat", Err: err})
		}
		return ""
	}

	backtrace := filepath.Join(caseDir, BacktraceFileName)
	err := s.backtrace(ctx, core, backtrace)
	metrics.RecordSalvage(err)
	if err != nil {
		s.warn(err)
	}

	if err := os.Remove(core); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.warn(&SecondaryDiagnosticError{Step: "remove core", Err: err})
	}

	if _, err := os.Stat(backtrace); err != nil {
		return ""
	}
	return backtrace
}

func (s *Salvager) backtrace(ctx context.Context, core, dest string) error {
	out, err := os.Create(dest)
	if err != nil {
		return &SecondaryDiagnosticError{Step: "create backtrace", Err: err}
	}
	defer out.Close()

	cmd := exec.CommandContext(ctx, s.GDB, "-q", "-n", "-ex", "bt", "-batch", s.ToolBinary, core)
	cmd.Stdout = out
	cmd.Stderr = out
	if err := cmd.Run(); err != nil {
		return &SecondaryDiagnosticError{Step: "gdb", Err: err}
	}
	return nil
}

func (s *Salvager) warn(err error) {
	s.log.Warn("Ignoring crash diagnostics failure", "err", err)
}
