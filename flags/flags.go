package flags

import (
	"github.com/urfave/cli/v2"

	"github.com/cs-au-dk/artemis-sitesuite/runner"
	"github.com/cs-au-dk/artemis-sitesuite/sheets"
	"github.com/cs-au-dk/artemis-sitesuite/version"
	opservice "github.com/ethereum-optimism/optimism/op-service"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
	opmetrics "github.com/ethereum-optimism/optimism/op-service/metrics"
)

const EnvVarPrefix = "SITESUITE"

var (
	ArtemisBinary = &cli.StringFlag{
		Name:    "artemis-binary",
		Value:   runner.DefaultArtemisBinary,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "ARTEMIS_BINARY"),
		Usage:   "Path to the Artemis binary to test",
	}
	OutputRoot = &cli.StringFlag{
		Name:    "output-root",
		Value:   ".",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "OUTPUT_ROOT"),
		Usage:   "Directory in which the 'Test Suite Run <timestamp>' directory is created",
	}
	ConstraintLog = &cli.StringFlag{
		Name:    "constraint-log",
		Value:   runner.DefaultConstraintLogPath,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CONSTRAINT_LOG"),
		Usage:   "Path the solver writes its constraint log to",
	}
	CoreFile = &cli.StringFlag{
		Name:    "core-file",
		Value:   runner.DefaultCoreFile,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CORE_FILE"),
		Usage:   "Core dump left by a crashed run. Relative paths are resolved against the case directory",
	}
	GDBBinary = &cli.StringFlag{
		Name:    "gdb-binary",
		Value:   runner.DefaultGDBBinary,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "GDB_BINARY"),
		Usage:   "Path to the gdb binary used to extract backtraces from core dumps",
	}
	SpreadsheetKey = &cli.StringFlag{
		Name:    "spreadsheet-key",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SPREADSHEET_KEY"),
		Usage:   "Key of the Google spreadsheet results are logged to",
	}
	WorksheetID = &cli.StringFlag{
		Name:    "worksheet-id",
		Value:   sheets.LegacyDefaultWorksheet,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "WORKSHEET_ID"),
		Usage:   "Worksheet to log to: a numeric sheet id, a sheet title, or 'od6' for the first sheet",
	}
	SheetsCredentials = &cli.StringFlag{
		Name:    "sheets-credentials",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SHEETS_CREDENTIALS"),
		Usage:   "Path to a Google service account JSON credentials file",
	}
	SheetsClientEmail = &cli.StringFlag{
		Name:    "sheets-client-email",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SHEETS_CLIENT_EMAIL"),
		Usage:   "Service account email, used together with --sheets-private-key",
	}
	SheetsPrivateKey = &cli.StringFlag{
		Name:    "sheets-private-key",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SHEETS_PRIVATE_KEY"),
		Usage:   "Path to the PEM private key of the service account given by --sheets-client-email",
	}
	SheetsRateLimit = &cli.IntFlag{
		Name:    "sheets-rate-limit",
		Value:   sheets.DefaultRequestsPerMinute,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "SHEETS_RATE_LIMIT"),
		Usage:   "Maximum spreadsheet API requests per minute. 0 disables the limit",
	}
	ConfigFile = &cli.StringFlag{
		Name:    "config",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CONFIG"),
		Usage:   "Optional YAML file with tool and sheet settings. Flags set on the command line take precedence",
	}
	NoRemoteLog = &cli.BoolFlag{
		Name:    "no-remote-log",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "NO_REMOTE_LOG"),
		Usage:   "Run the cases without logging results to the spreadsheet",
	}
	MetricsPrefix = &cli.StringFlag{
		Name:    "metrics-prefix",
		Value:   runner.DefaultMetricPrefix,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "METRICS_PREFIX"),
		Usage:   "Only Artemis statistics starting with this prefix become result columns",
	}
	MetricsExclude = &cli.StringFlag{
		Name:    "metrics-exclude",
		Value:   runner.DefaultMetricExclude,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "METRICS_EXCLUDE"),
		Usage:   "Artemis statistics starting with this prefix are never logged",
	}
	RepoURL = &cli.StringFlag{
		Name:    "repo-url",
		Value:   version.DefaultRepoURL,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "REPO_URL"),
		Usage:   "Repository URL the 'Artemis Version' hyperlink points into",
	}
	RepoDir = &cli.StringFlag{
		Name:    "repo-dir",
		Value:   ".",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "REPO_DIR"),
		Usage:   "Directory inside the Artemis checkout whose HEAD identifies the version under test",
	}
)

var optionalFlags = []cli.Flag{
	ArtemisBinary,
	OutputRoot,
	ConstraintLog,
	CoreFile,
	GDBBinary,
	SpreadsheetKey,
	WorksheetID,
	SheetsCredentials,
	SheetsClientEmail,
	SheetsPrivateKey,
	SheetsRateLimit,
	ConfigFile,
	NoRemoteLog,
	MetricsPrefix,
	MetricsExclude,
	RepoURL,
	RepoDir,
}
var Flags []cli.Flag

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)
	optionalFlags = append(optionalFlags, opmetrics.CLIFlags(EnvVarPrefix)...)

	Flags = optionalFlags
}
