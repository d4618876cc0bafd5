// Package logging lays out the on-disk results of a suite run
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	RunDirectoryPrefix = "Test Suite Run " // Prefix of every run directory
	RunDirTimeLayout   = "2006-01-02_15-04-05"
	TestDateLayout     = "2006-01-02 15:04:05"
	SummaryFileName    = "summary.log"
)

// RunDir is the directory holding every case directory of one suite run
type RunDir struct {
	baseDir string
	path    string
	started time.Time
}

// NewRunDir names the run directory for a run started at started under
// baseDir. Nothing is created until Create is called.
func NewRunDir(baseDir string, started time.Time) (*RunDir, error) {
	if baseDir == "" {
		return nil, fmt.Errorf("baseDir cannot be empty")
	}
	return &RunDir{
		baseDir: baseDir,
		path:    filepath.Join(baseDir, RunDirectoryPrefix+started.Format(RunDirTimeLayout)),
		started: started,
	}, nil
}

// Path returns the run directory
func (d *RunDir) Path() string {
	return d.path
}

// TestDate returns the "Testing Run" value shared by every case of the run
func (d *RunDir) TestDate() string {
	return d.started.Format(TestDateLayout)
}

// CaseDir returns the directory of the named case
func (d *RunDir) CaseDir(name string) string {
	return filepath.Join(d.path, name)
}

// Create makes the run directory. It fails if the directory already exists so
// two runs never share one.
func (d *RunDir) Create() error {
	if err := os.MkdirAll(d.baseDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", d.baseDir, err)
	}
	if err := os.Mkdir(d.path, 0755); err != nil {
		return fmt.Errorf("failed to create run directory %s: %w", d.path, err)
	}
	return nil
}

// WriteSummary stores the console summary of the run next to the case directories
func (d *RunDir) WriteSummary(summary string) error {
	path := filepath.Join(d.path, SummaryFileName)
	if err := os.WriteFile(path, []byte(summary), 0644); err != nil {
		return fmt.Errorf("failed to write summary %s: %w", path, err)
	}
	return nil
}
