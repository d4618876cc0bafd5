package flags

import (
	"testing"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// TestOptionalFlagsDontSetRequired asserts that all flags deemed optional set
// the Required field to false.
func TestOptionalFlagsDontSetRequired(t *testing.T) {
	for _, flag := range optionalFlags {
		reqFlag, ok := flag.(cli.RequiredFlag)
		require.True(t, ok)
		require.False(t, reqFlag.IsRequired())
	}
}

// TestUniqueFlags asserts that all flag names are unique, to avoid accidental conflicts between the many flags.
func TestUniqueFlags(t *testing.T) {
	seenCLI := make(map[string]struct{})
	for _, flag := range Flags {
		name := flag.Names()[0]
		if _, ok := seenCLI[name]; ok {
			t.Errorf("duplicate flag %s", name)
			continue
		}
		seenCLI[name] = struct{}{}
	}
}

func TestEnvVarFormat(t *testing.T) {
	for _, flag := range Flags {
		flagName := flag.Names()[0]

		t.Run(flagName, func(t *testing.T) {
			envFlagGetter, ok := flag.(interface {
				GetEnvVars() []string
			})
			require.True(t, ok, "must be able to cast the flag to an EnvVar interface")
			envFlags := envFlagGetter.GetEnvVars()
			require.Equal(t, 1, len(envFlags), "flags should have exactly one env var")
			require.Equal(t, opservice.FlagNameToEnvVarName(flagName, EnvVarPrefix), envFlags[0])
		})
	}
}

func TestDefaults(t *testing.T) {
	app := &cli.App{
		Flags: Flags,
		Action: func(ctx *cli.Context) error {
			assert.Equal(t, "artemis", ctx.String(ArtemisBinary.Name))
			assert.Equal(t, "/tmp/constraintlog", ctx.String(ConstraintLog.Name))
			assert.Equal(t, "od6", ctx.String(WorksheetID.Name))
			assert.Equal(t, "concolic::", ctx.String(MetricsPrefix.Name))
			assert.False(t, ctx.Bool(NoRemoteLog.Name))
			return nil
		},
	}
	require.NoError(t, app.Run([]string{"sitesuite"}))
}

func TestEnvVarOverridesDefault(t *testing.T) {
	t.Setenv("SITESUITE_ARTEMIS_BINARY", "/opt/artemis/bin/artemis")
	t.Setenv("SITESUITE_NO_REMOTE_LOG", "true")

	app := &cli.App{
		Flags: Flags,
		Action: func(ctx *cli.Context) error {
			assert.Equal(t, "/opt/artemis/bin/artemis", ctx.String(ArtemisBinary.Name))
			assert.True(t, ctx.Bool(NoRemoteLog.Name))
			return nil
		},
	}
	require.NoError(t, app.Run([]string{"sitesuite"}))
}
