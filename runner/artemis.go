package runner

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/acarl005/stripansi"
	"github.com/ethereum-optimism/optimism/devnet-sdk/telemetry"
	"github.com/ethereum/go-ethereum/log"

	"github.com/cs-au-dk/artemis-sitesuite/types"
)

const (
	// DefaultArtemisBinary is looked up on PATH when no binary is configured
	DefaultArtemisBinary = "artemis"
	// OutputFileName holds the tool's console output inside the case directory
	OutputFileName = "artemis-output.txt"
	// StatisticsMarker starts the statistics section of the tool's output
	StatisticsMarker = "=== Statistics"
)

var _ ToolExecutor = (*ArtemisExecutor)(nil)

// ToolExecutor runs the analysis tool for one case
type ToolExecutor interface {
	// Command returns the full command line for c, binary first
	Command(c types.Case, caseDir string) []string
	// Execute runs the tool in caseDir. A non-zero exit is reported in the
	// returned report, not as an error.
	Execute(ctx context.Context, c types.Case, caseDir string) (*types.ToolReport, error)
}

// ArtemisExecutor runs Artemis in concolic mode
type ArtemisExecutor struct {
	binary string
	log    log.Logger
}

// NewArtemisExecutor creates an executor for the given binary
func NewArtemisExecutor(binary string, logger log.Logger) *ArtemisExecutor {
	if binary == "" {
		binary = DefaultArtemisBinary
	}
	if logger == nil {
		logger = log.Root()
	}
	return &ArtemisExecutor{binary: binary, log: logger}
}

// Binary returns the path of the tool binary
func (e *ArtemisExecutor) Binary() string {
	return e.binary
}

// Command implements ToolExecutor
func (e *ArtemisExecutor) Command(c types.Case, caseDir string) []string {
	args := []string{
		e.binary,
		"--major-mode", "concolic",
		"-i", "0",
		"--concolic-tree-output", "final-overview",
		"-v", "info",
	}
	if button := c.Button(); button != "" {
		args = append(args, "--concolic-button", button)
	}
	return append(args, c.URL)
}

// Execute implements ToolExecutor
func (e *ArtemisExecutor) Execute(ctx context.Context, c types.Case, caseDir string) (*types.ToolReport, error) {
	if err := os.MkdirAll(caseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create case directory: %w", err)
	}

	command := e.Command(c, caseDir)
	cmd := exec.CommandContext(ctx, command[0], command[1:]...)
	cmd.Dir = caseDir
	cmd.Env = telemetry.InstrumentEnvironment(ctx, os.Environ())

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	e.log.Debug("Running artemis", "case", c.ID(), "dir", caseDir, "command", cmd.String())

	runErr := cmd.Run()

	report := &types.ToolReport{
		Command: command,
		Output:  filepath.Join(caseDir, OutputFileName),
	}

	clean := stripansi.Strip(output.String())
	if err := os.WriteFile(report.Output, []byte(clean), 0644); err != nil {
		return nil, fmt.Errorf("failed to save tool output: %w", err)
	}

	exitCode, err := exitStatus(runErr)
	if err != nil {
		return nil, fmt.Errorf("failed to run %s: %w", e.binary, err)
	}
	report.ExitCode = exitCode
	report.Stats = ParseStatistics(clean)

	e.log.Debug("Artemis finished", "case", c.ID(), "exitCode", exitCode, "stats", len(report.Stats))
	return report, nil
}

// exitStatus turns the error of cmd.Run into the process exit status.
// Processes killed by a signal report the negated signal number.
func exitStatus(runErr error) (int, error) {
	if runErr == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if !errors.As(runErr, &exitErr) {
		return 0, runErr
	}
	if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return -int(ws.Signal()), nil
	}
	return exitErr.ExitCode(), nil
}

// ParseStatistics extracts the "Key::Path: value" lines printed after the
// statistics marker. Parsing stops at the next section marker.
func ParseStatistics(output string) map[string]string {
	stats := make(map[string]string)

	scanner := bufio.NewScanner(strings.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	inStats := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "===") {
			if inStats {
				break
			}
			inStats = strings.HasPrefix(line, StatisticsMarker)
			continue
		}
		if !inStats || line == "" {
			continue
		}
		idx := strings.LastIndex(line, ": ")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		if key == "" {
			continue
		}
		stats[key] = strings.TrimSpace(line[idx+2:])
	}

	return stats
}
