package runner

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	// DefaultConstraintLogPath is where the solver writes its constraints
	DefaultConstraintLogPath = "/tmp/constraintlog"
	// ConstraintLogFileName is the name of the relocated log inside the case directory
	ConstraintLogFileName = "constraint-log.txt"
)

// ConstraintLog is the fixed-path file the solver appends to during a run
type ConstraintLog struct {
	Path string
}

// NewConstraintLog creates a handle on the log at path
func NewConstraintLog(path string) *ConstraintLog {
	if path == "" {
		path = DefaultConstraintLogPath
	}
	return &ConstraintLog{Path: path}
}

// Reset truncates the log, creating it if needed, so it only holds the next run's constraints
func (l *ConstraintLog) Reset() error {
	f, err := os.OpenFile(l.Path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to reset constraint log: %w", err)
	}
	return f.Close()
}

// Relocate copies the log into caseDir and returns the destination path
func (l *ConstraintLog) Relocate(caseDir string) (string, error) {
	dest := filepath.Join(caseDir, ConstraintLogFileName)
	if err := copyFile(l.Path, dest); err != nil {
		return "", fmt.Errorf("failed to relocate constraint log: %w", err)
	}
	return dest, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
