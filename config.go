package sitesuite

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/cs-au-dk/artemis-sitesuite/flags"
	"github.com/cs-au-dk/artemis-sitesuite/runner"
	"github.com/cs-au-dk/artemis-sitesuite/sheets"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
)

// DryRunArg is the optional second positional argument that only prints the commands
const DryRunArg = "dryrun"

// Config holds the application configuration
type Config struct {
	CaseTable     string // CSV of name, url, entry point
	DryRun        bool   // Print the tool commands instead of running them
	ArtemisBinary string
	OutputRoot    string // Parent of the timestamped run directory
	ConstraintLog string // Where the solver writes its constraint log
	CoreFile      string // Core dump name, relative to the case directory unless absolute
	GDBBinary     string
	RemoteLog     bool // Append results to the spreadsheet
	Sheets        sheets.GoogleConfig
	MetricFilter  runner.MetricFilter
	RepoURL       string
	RepoDir       string
	Metrics       opmetrics.CLIConfig
	Log           log.Logger
}

// fileConfig is the optional YAML overlay. Every field mirrors a flag of the same name.
type fileConfig struct {
	ArtemisBinary     string `yaml:"artemis-binary"`
	OutputRoot        string `yaml:"output-root"`
	ConstraintLog     string `yaml:"constraint-log"`
	CoreFile          string `yaml:"core-file"`
	GDBBinary         string `yaml:"gdb-binary"`
	SpreadsheetKey    string `yaml:"spreadsheet-key"`
	WorksheetID       string `yaml:"worksheet-id"`
	SheetsCredentials string `yaml:"sheets-credentials"`
	SheetsClientEmail string `yaml:"sheets-client-email"`
	SheetsPrivateKey  string `yaml:"sheets-private-key"`
	SheetsRateLimit   *int   `yaml:"sheets-rate-limit"`
	NoRemoteLog       *bool  `yaml:"no-remote-log"`
	MetricsPrefix     string `yaml:"metrics-prefix"`
	MetricsExclude    string `yaml:"metrics-exclude"`
	RepoURL           string `yaml:"repo-url"`
	RepoDir           string `yaml:"repo-dir"`
}

func loadFileConfig(path string) (*fileConfig, error) {
	fc := &fileConfig{}
	if path == "" {
		return fc, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(fc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return fc, nil
}

// parseArgs validates the positional arguments: the case table and an optional dryrun marker
func parseArgs(args []string) (string, bool, error) {
	switch len(args) {
	case 1:
		return args[0], false, nil
	case 2:
		if !strings.EqualFold(args[1], DryRunArg) {
			return "", false, NewUsageError("unexpected argument %q, the only valid second argument is %q", args[1], DryRunArg)
		}
		return args[0], true, nil
	default:
		return "", false, NewUsageError("expected a case table and an optional %q, got %d arguments", DryRunArg, len(args))
	}
}

// NewConfig creates a new Config from cli context. Values set on the command
// line or through the environment take precedence over the YAML overlay, which
// takes precedence over flag defaults.
func NewConfig(ctx *cli.Context, log log.Logger, args []string) (*Config, error) {
	caseTable, dryRun, err := parseArgs(args)
	if err != nil {
		return nil, err
	}
	if caseTable == "" {
		return nil, NewUsageError("case table path cannot be empty")
	}

	fc, err := loadFileConfig(ctx.String(flags.ConfigFile.Name))
	if err != nil {
		return nil, err
	}

	pick := func(flag *cli.StringFlag, fromFile string) string {
		if ctx.IsSet(flag.Name) || fromFile == "" {
			return ctx.String(flag.Name)
		}
		return fromFile
	}

	rateLimit := ctx.Int(flags.SheetsRateLimit.Name)
	if !ctx.IsSet(flags.SheetsRateLimit.Name) && fc.SheetsRateLimit != nil {
		rateLimit = *fc.SheetsRateLimit
	}
	if rateLimit < 0 {
		return nil, fmt.Errorf("--%s cannot be negative", flags.SheetsRateLimit.Name)
	}

	noRemoteLog := ctx.Bool(flags.NoRemoteLog.Name)
	if !ctx.IsSet(flags.NoRemoteLog.Name) && fc.NoRemoteLog != nil {
		noRemoteLog = *fc.NoRemoteLog
	}

	cfg := &Config{
		DryRun:        dryRun,
		ArtemisBinary: pick(flags.ArtemisBinary, fc.ArtemisBinary),
		OutputRoot:    pick(flags.OutputRoot, fc.OutputRoot),
		ConstraintLog: pick(flags.ConstraintLog, fc.ConstraintLog),
		CoreFile:      pick(flags.CoreFile, fc.CoreFile),
		GDBBinary:     pick(flags.GDBBinary, fc.GDBBinary),
		RemoteLog:     !dryRun && !noRemoteLog,
		Sheets: sheets.GoogleConfig{
			SpreadsheetKey:    pick(flags.SpreadsheetKey, fc.SpreadsheetKey),
			WorksheetID:       pick(flags.WorksheetID, fc.WorksheetID),
			CredentialsFile:   pick(flags.SheetsCredentials, fc.SheetsCredentials),
			ClientEmail:       pick(flags.SheetsClientEmail, fc.SheetsClientEmail),
			PrivateKeyFile:    pick(flags.SheetsPrivateKey, fc.SheetsPrivateKey),
			RequestsPerMinute: rateLimit,
		},
		MetricFilter: runner.MetricFilter{
			Prefix:  pick(flags.MetricsPrefix, fc.MetricsPrefix),
			Exclude: pick(flags.MetricsExclude, fc.MetricsExclude),
		},
		RepoURL: pick(flags.RepoURL, fc.RepoURL),
		RepoDir: pick(flags.RepoDir, fc.RepoDir),
		Metrics: opmetrics.ReadCLIConfig(ctx),
		Log:     log,
	}

	if cfg.RemoteLog && cfg.Sheets.SpreadsheetKey == "" {
		return nil, fmt.Errorf("a spreadsheet key is required unless --%s is set", flags.NoRemoteLog.Name)
	}

	// Resolve the absolute paths; the tool runs from inside each case directory
	paths := []*string{
		&caseTable,
		&cfg.OutputRoot,
		&cfg.ConstraintLog,
		&cfg.RepoDir,
		&cfg.Sheets.CredentialsFile,
		&cfg.Sheets.PrivateKeyFile,
	}
	if strings.ContainsRune(cfg.ArtemisBinary, filepath.Separator) {
		paths = append(paths, &cfg.ArtemisBinary)
	}
	if strings.ContainsRune(cfg.GDBBinary, filepath.Separator) {
		paths = append(paths, &cfg.GDBBinary)
	}
	for _, p := range paths {
		if *p == "" {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve absolute path for '%s': %w", *p, err)
		}
		*p = abs
	}
	cfg.CaseTable = caseTable

	return cfg, nil
}
