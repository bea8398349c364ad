/*
Package options contains a set of common CLI options and helper functions to use them.
*/
package options

import (
	"fmt"

	"github.com/nspcc-dev/dot-go/pkg/config"
	"github.com/nspcc-dev/dot-go/pkg/io"
	"github.com/urfave/cli"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config is a set of flags used to get the configuration.
var Config = []cli.Flag{
	cli.StringFlag{
		Name:  "config-path",
		Usage: "path to the directory with " + config.DefaultConfigFile,
	},
	cli.StringFlag{
		Name:  "config-file",
		Usage: "path to the configuration file (overrides --config-path)",
	},
}

// Debug is a flag for commands that allow debug logging.
var Debug = cli.BoolFlag{
	Name:  "debug, d",
	Usage: "enable debug logging (LOTS of output, overrides configuration)",
}

// GetConfigFromContext looks at the path flags in the given context and
// returns an appropriate config. Default configuration is used if no flags
// are given.
func GetConfigFromContext(ctx *cli.Context) (config.Config, error) {
	if configFile := ctx.String("config-file"); len(configFile) != 0 {
		return config.LoadFile(configFile)
	}
	if configPath := ctx.String("config-path"); len(configPath) != 0 {
		return config.Load(configPath)
	}
	return config.Default(), nil
}

// HandleLoggingParams reads logging parameters.
// If a user selected debug level -- function enables it.
// If logPath is configured -- function creates a dir and a file for logging.
func HandleLoggingParams(debug bool, cfg config.ApplicationConfiguration) (*zap.Logger, *zap.AtomicLevel, error) {
	var (
		level = zapcore.InfoLevel
		err   error
	)
	if len(cfg.LogLevel) > 0 {
		level, err = zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, nil, fmt.Errorf("log setting: %w", err)
		}
	}
	if debug {
		level = zapcore.DebugLevel
	}

	cc := zap.NewProductionConfig()
	cc.DisableCaller = true
	cc.DisableStacktrace = true
	cc.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	cc.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cc.Encoding = "console"
	if cfg.LogEncoding != "" {
		cc.Encoding = cfg.LogEncoding
	}
	cc.Level = zap.NewAtomicLevelAt(level)
	cc.Sampling = nil

	if logPath := cfg.LogPath; logPath != "" {
		if err := io.MakeDirForFile(logPath, "logger"); err != nil {
			return nil, nil, err
		}
		cc.OutputPaths = []string{logPath}
	}

	log, err := cc.Build()
	return log, &cc.Level, err
}
