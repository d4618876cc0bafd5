package sitesuite

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/cs-au-dk/artemis-sitesuite/runner"
	"github.com/cs-au-dk/artemis-sitesuite/types"
)

// ResultFormatter is responsible for formatting and displaying suite results.
type ResultFormatter interface {
	FormatResults(result *runner.SuiteResult) error
}

// ConsoleResultFormatter implements the ResultFormatter interface.
type ConsoleResultFormatter struct {
	logger log.Logger
	out    io.Writer
}

// NewConsoleResultFormatter creates a new ConsoleResultFormatter writing to out, or stdout when out is nil.
func NewConsoleResultFormatter(logger log.Logger, out io.Writer) *ConsoleResultFormatter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleResultFormatter{
		logger: logger,
		out:    out,
	}
}

// FormatResults renders one row per case followed by the totals.
func (f *ConsoleResultFormatter) FormatResults(result *runner.SuiteResult) error {
	if result == nil {
		return fmt.Errorf("no result to format")
	}
	f.logger.Info("Printing results...")
	t := table.NewWriter()
	t.SetOutputMirror(f.out)
	t.SetTitle(fmt.Sprintf("Artemis Site Suite Results (%s)", formatDuration(result.Duration)))

	t.AppendHeader(table.Row{
		"ID", "Entry Point", "Duration", "Exit Code", "Status", "Error",
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "ID", WidthMax: 50, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Entry Point", WidthMax: 40, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Exit Code", Align: text.AlignRight},
		{Name: "Error", WidthMax: 80, WidthMaxEnforcer: text.WrapSoft},
	})

	for i, c := range result.Cases {
		prefix := "├──"
		if i == len(result.Cases)-1 {
			prefix = "└──"
		}
		t.AppendRow(table.Row{
			fmt.Sprintf("%s %s", prefix, c.Case.ID()),
			c.Case.EntryPoint,
			formatDuration(c.Duration),
			exitCodeString(c),
			getResultString(c.Status),
			extractKeyErrorMessage(c.Error),
		})
	}

	switch {
	case result.Passed():
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	case result.Stats.Errored > 0:
		t.SetStyle(table.StyleColoredBlackOnYellowWhite)
	default:
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}
	// footer counts keep their case
	t.Style().Format.Footer = text.FormatDefault

	t.AppendFooter(table.Row{
		"TOTAL",
		fmt.Sprintf("%d cases", result.Stats.Total),
		formatDuration(result.Duration),
		"",
		getResultString(result.Status),
		fmt.Sprintf("%d passed, %d failed, %d errored", result.Stats.Succeeded, result.Stats.Failed, result.Stats.Errored),
	})

	t.Render()
	return nil
}

func exitCodeString(c *types.CaseResult) string {
	if c.Report == nil {
		return "-"
	}
	return fmt.Sprintf("%d", c.Report.ExitCode)
}

// extractKeyErrorMessage keeps the first line of an error for display
func extractKeyErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if idx := strings.IndexByte(msg, '\n'); idx != -1 {
		msg = msg[:idx]
	}
	return msg
}

func getResultString(status types.CaseStatus) string {
	switch status {
	case types.CaseStatusSucceeded:
		return "PASS"
	case types.CaseStatusFailed:
		return "FAIL"
	case types.CaseStatusErrored:
		return "ERROR"
	default:
		return strings.ToUpper(string(status))
	}
}

// Helper function to format duration to seconds with 1 decimal place
func formatDuration(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
