package sitesuite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cs-au-dk/artemis-sitesuite/runner"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		wantTable string
		wantDry   bool
		wantErr   bool
	}{
		{name: "table only", args: []string{"sites.csv"}, wantTable: "sites.csv"},
		{name: "dry run", args: []string{"sites.csv", "dryrun"}, wantTable: "sites.csv", wantDry: true},
		{name: "dry run any case", args: []string{"sites.csv", "DryRun"}, wantTable: "sites.csv", wantDry: true},
		{name: "no args", args: nil, wantErr: true},
		{name: "unknown second arg", args: []string{"sites.csv", "fast"}, wantErr: true},
		{name: "too many args", args: []string{"sites.csv", "dryrun", "extra"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table, dry, err := parseArgs(tt.args)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsUsageError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTable, table)
			assert.Equal(t, tt.wantDry, dry)
		})
	}
}

func TestNewConfigDefaults(t *testing.T) {
	cfg, err := newTestConfig(t, "--spreadsheet-key", "sheet-key", "sites.csv")
	require.NoError(t, err)

	abs, err := filepath.Abs("sites.csv")
	require.NoError(t, err)
	assert.Equal(t, abs, cfg.CaseTable)
	assert.False(t, cfg.DryRun)
	assert.True(t, cfg.RemoteLog)
	assert.Equal(t, "artemis", cfg.ArtemisBinary, "a bare binary name is looked up on PATH")
	assert.Equal(t, "/tmp/constraintlog", cfg.ConstraintLog)
	assert.Equal(t, "core", cfg.CoreFile, "the core file stays relative to the case directory")
	assert.Equal(t, "od6", cfg.Sheets.WorksheetID)
	assert.Equal(t, 60, cfg.Sheets.RequestsPerMinute)
	assert.Equal(t, runner.DefaultMetricFilter(), cfg.MetricFilter)
	assert.True(t, filepath.IsAbs(cfg.OutputRoot))
	assert.True(t, filepath.IsAbs(cfg.RepoDir))
}

func TestNewConfigUsageError(t *testing.T) {
	_, err := newTestConfig(t, "sites.csv", "now")
	require.Error(t, err)
	assert.True(t, IsUsageError(err))
}

func TestNewConfigRequiresSpreadsheetKey(t *testing.T) {
	_, err := newTestConfig(t, "sites.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spreadsheet key")

	cfg, err := newTestConfig(t, "--no-remote-log", "sites.csv")
	require.NoError(t, err)
	assert.False(t, cfg.RemoteLog)

	cfg, err = newTestConfig(t, "sites.csv", "dryrun")
	require.NoError(t, err)
	assert.True(t, cfg.DryRun)
	assert.False(t, cfg.RemoteLog, "a dry run never reaches the sheet")
}

func TestNewConfigRelativeBinaryBecomesAbsolute(t *testing.T) {
	cfg, err := newTestConfig(t, "--no-remote-log", "--artemis-binary", "./bin/artemis", "sites.csv")
	require.NoError(t, err)

	abs, err := filepath.Abs("./bin/artemis")
	require.NoError(t, err)
	assert.Equal(t, abs, cfg.ArtemisBinary)
}

func TestNewConfigYAMLOverlay(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "sitesuite.yaml", `
artemis-binary: /opt/artemis/bin/artemis
spreadsheet-key: from-file
worksheet-id: "1234"
metrics-prefix: "concolic::solver::"
sheets-rate-limit: 0
no-remote-log: false
`, 0644)

	cfg, err := newTestConfig(t, "--config", path, "--worksheet-id", "Results", "sites.csv")
	require.NoError(t, err)

	assert.Equal(t, "/opt/artemis/bin/artemis", cfg.ArtemisBinary)
	assert.Equal(t, "from-file", cfg.Sheets.SpreadsheetKey)
	assert.Equal(t, "Results", cfg.Sheets.WorksheetID, "flags set on the command line win over the file")
	assert.Equal(t, "concolic::solver::", cfg.MetricFilter.Prefix)
	assert.Equal(t, 0, cfg.Sheets.RequestsPerMinute, "an explicit zero in the file disables the limit")
	assert.Equal(t, runner.DefaultMetricExclude, cfg.MetricFilter.Exclude)
	assert.True(t, cfg.RemoteLog)
}

func TestNewConfigYAMLErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := newTestConfig(t, "--config", filepath.Join(dir, "absent.yaml"), "sites.csv")
		assert.Error(t, err)
	})

	t.Run("unknown key", func(t *testing.T) {
		path := writeFile(t, dir, "typo.yaml", "spreadsheet_key: k\n", 0644)
		_, err := newTestConfig(t, "--config", path, "sites.csv")
		assert.Error(t, err)
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeFile(t, dir, "empty.yaml", "", 0644)
		cfg, err := newTestConfig(t, "--config", path, "--no-remote-log", "sites.csv")
		require.NoError(t, err)
		assert.Equal(t, "artemis", cfg.ArtemisBinary)
	})
}

func TestNewConfigRejectsNegativeRateLimit(t *testing.T) {
	_, err := newTestConfig(t, "--no-remote-log", "--sheets-rate-limit=-1", "sites.csv")
	assert.ErrorContains(t, err, "sheets-rate-limit")
}
