package sitesuite

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/cs-au-dk/artemis-sitesuite/flags"
)

func writeFile(t *testing.T, dir, name, content string, perm os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), perm))
	return path
}

// newTestConfig builds a Config from command line arguments the way the binary does
func newTestConfig(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	var (
		cfg    *Config
		cfgErr error
	)
	app := &cli.App{
		Name:  "sitesuite",
		Flags: flags.Flags,
		Action: func(ctx *cli.Context) error {
			cfg, cfgErr = NewConfig(ctx, log.New(), ctx.Args().Slice())
			return nil
		},
	}
	require.NoError(t, app.Run(append([]string{"sitesuite"}, args...)))
	return cfg, cfgErr
}
