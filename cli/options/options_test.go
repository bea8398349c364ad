package options

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/nspcc-dev/dot-go/pkg/config"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
	"go.uber.org/zap/zapcore"
)

func TestGetConfigFromContext(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, config.DefaultConfigFile)
	require.NoError(t, os.WriteFile(cfgFile, []byte("ApplicationConfiguration:\n  LogLevel: warn\n"), 0o644))

	t.Run("default", func(t *testing.T) {
		set := flag.NewFlagSet("flagSet", flag.ExitOnError)
		ctx := cli.NewContext(cli.NewApp(), set, nil)
		cfg, err := GetConfigFromContext(ctx)
		require.NoError(t, err)
		require.Equal(t, config.Default(), cfg)
	})
	t.Run("config-file", func(t *testing.T) {
		set := flag.NewFlagSet("flagSet", flag.ExitOnError)
		set.String("config-file", cfgFile, "")
		ctx := cli.NewContext(cli.NewApp(), set, nil)
		cfg, err := GetConfigFromContext(ctx)
		require.NoError(t, err)
		require.Equal(t, "warn", cfg.ApplicationConfiguration.LogLevel)
	})
	t.Run("config-path", func(t *testing.T) {
		set := flag.NewFlagSet("flagSet", flag.ExitOnError)
		set.String("config-path", dir, "")
		ctx := cli.NewContext(cli.NewApp(), set, nil)
		cfg, err := GetConfigFromContext(ctx)
		require.NoError(t, err)
		require.Equal(t, "warn", cfg.ApplicationConfiguration.LogLevel)
	})
	t.Run("missing", func(t *testing.T) {
		set := flag.NewFlagSet("flagSet", flag.ExitOnError)
		set.String("config-file", filepath.Join(dir, "nope.yml"), "")
		ctx := cli.NewContext(cli.NewApp(), set, nil)
		_, err := GetConfigFromContext(ctx)
		require.Error(t, err)
	})
}

func TestHandleLoggingParams(t *testing.T) {
	d := t.TempDir()
	testLog := filepath.Join(d, "file.log")

	t.Run("logdir is a file", func(t *testing.T) {
		logfile := filepath.Join(d, "logdir")
		require.NoError(t, os.WriteFile(logfile, []byte{1, 2, 3}, os.ModePerm))
		cfg := config.ApplicationConfiguration{
			LogPath: filepath.Join(logfile, "file.log"),
		}
		_, _, err := HandleLoggingParams(false, cfg)
		require.Error(t, err)
	})

	t.Run("invalid skip log level", func(t *testing.T) {
		cfg := config.ApplicationConfiguration{
			LogPath:  testLog,
			LogLevel: "qwerty",
		}
		_, _, err := HandleLoggingParams(false, cfg)
		require.Error(t, err)
	})

	t.Run("default", func(t *testing.T) {
		cfg := config.ApplicationConfiguration{
			LogPath: testLog,
		}
		logger, lvl, err := HandleLoggingParams(false, cfg)
		require.NoError(t, err)
		t.Cleanup(func() {
			if logger != nil {
				_ = logger.Sync()
			}
		})
		require.Equal(t, zapcore.InfoLevel, lvl.Level())
		require.True(t, logger.Core().Enabled(zapcore.InfoLevel))
		require.False(t, logger.Core().Enabled(zapcore.DebugLevel))
	})

	t.Run("warn", func(t *testing.T) {
		cfg := config.ApplicationConfiguration{
			LogPath:  testLog,
			LogLevel: "warn",
		}
		logger, lvl, err := HandleLoggingParams(false, cfg)
		require.NoError(t, err)
		require.Equal(t, zapcore.WarnLevel, lvl.Level())
		require.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	})

	t.Run("debug", func(t *testing.T) {
		cfg := config.ApplicationConfiguration{
			LogPath:     testLog,
			LogEncoding: "json",
		}
		logger, lvl, err := HandleLoggingParams(true, cfg)
		require.NoError(t, err)
		require.Equal(t, zapcore.DebugLevel, lvl.Level())
		require.True(t, logger.Core().Enabled(zapcore.DebugLevel))
	})
}
