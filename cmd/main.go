package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/log"
	"github.com/honeycombio/otel-config-go/otelconfig"
	"github.com/urfave/cli/v2"

	sitesuite "github.com/cs-au-dk/artemis-sitesuite"
	"github.com/cs-au-dk/artemis-sitesuite/exitcodes"
	"github.com/cs-au-dk/artemis-sitesuite/flags"
	"github.com/ethereum-optimism/optimism/devnet-sdk/telemetry"
	"github.com/ethereum-optimism/optimism/op-service/cliapp"
	"github.com/ethereum-optimism/optimism/op-service/ctxinterrupt"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
	GitDate   = ""
)

func main() {
	app := newApp()

	// Start telemetry
	ctx, shutdown, err := telemetry.SetupOpenTelemetry(
		context.Background(),
		otelconfig.WithServiceName(app.Name),
		otelconfig.WithServiceVersion(app.Version),
	)
	if err != nil {
		log.Crit("Failed to setup open telemetry", "message", err)
	}
	defer shutdown()

	// Start CLI
	ctx = ctxinterrupt.WithSignalWaiterMain(ctx)
	err = app.RunContext(ctx, os.Args)
	if err != nil {
		log.Crit("Application failed", "message", err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Version = fmt.Sprintf("%s-%s-%s", Version, GitCommit, GitDate)
	app.Name = "sitesuite"
	app.Usage = "Artemis concolic real-site test suite"
	app.Description = "sitesuite runs Artemis against every site of a case table and logs the results to a spreadsheet"
	app.ArgsUsage = "<table.csv> [dryrun]"
	app.Flags = cliapp.ProtectFlags(flags.Flags)
	app.Action = cliapp.LifecycleCmd(run)
	app.ExitErrHandler = exitErrHandler
	return app
}

// exitCode maps an application error onto the process exit status
func exitCode(err error) int {
	var exitErr cli.ExitCoder
	switch {
	case err == nil:
		return exitcodes.Success
	case errors.As(err, &exitErr):
		return exitErr.ExitCode()
	case sitesuite.IsUsageError(err):
		return exitcodes.UsageErr
	case sitesuite.IsAbortError(err):
		return exitcodes.RuntimeErr
	case sitesuite.IsCasesFailedError(err):
		return exitcodes.TestFailure
	default:
		// For other unspecified errors, default to exit code 1
		return exitcodes.TestFailure
	}
}

func exitErrHandler(c *cli.Context, err error) {
	if err == nil {
		return
	}
	if sitesuite.IsUsageError(err) {
		_ = cli.ShowAppHelp(c)
	}
	var exitErr cli.ExitCoder
	if errors.As(err, &exitErr) {
		cli.HandleExitCoder(exitErr)
		return
	}
	cli.HandleExitCoder(cli.Exit(err.Error(), exitCode(err)))
}

func run(ctx *cli.Context, closeApp context.CancelCauseFunc) (cliapp.Lifecycle, error) {
	logCfg := oplog.ReadCLIConfig(ctx)
	log := oplog.NewLogger(oplog.AppOut(ctx), logCfg)
	oplog.SetGlobalLogHandler(log.Handler())
	oplog.SetupDefaults()

	cfg, err := sitesuite.NewConfig(ctx, log, ctx.Args().Slice())
	if err != nil {
		if sitesuite.IsUsageError(err) {
			return nil, err
		}
		return nil, sitesuite.NewAbortError(sitesuite.StageConfig, err)
	}

	cfg.Log.Debug("Config", "config", cfg)

	suite, err := sitesuite.New(ctx.Context, cfg, Version, closeApp)
	if err != nil {
		return nil, sitesuite.NewAbortError(sitesuite.StageSetup, err)
	}

	return suite, nil
}
