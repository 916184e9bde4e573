// Package cli provides the command-line interface for avagen-runner.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/labcitrus/avagen-runner/pkg/config"
	"github.com/labcitrus/avagen-runner/pkg/logger"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Usage:   "Path to workspace config.yaml (default: ./config.yaml if present)",
		EnvVars: []string{"AVAGEN_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "log-file",
		Usage:   "Write logs to this file (rotated)",
		EnvVars: []string{"AVAGEN_LOG_FILE"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable verbose logging to stderr",
		EnvVars: []string{"AVAGEN_VERBOSE"},
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

// NewApp builds the CLI application.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "avagen-runner",
		Usage:   "Run generated UI action plans on Android",
		Version: Version,
		Description: `avagen-runner executes action plans (ordered UI steps generated for one
method of an app) against a connected Android device or a page-source dump.

Examples:
  avagen-runner run --app hu.vmiklos.plees_tracker --method accessStatistics
  avagen-runner run --plans plan.json --method startSleep --source window.xml
  avagen-runner query --source window.xml 'withText("Login"), isClickable()'
  avagen-runner confirm --reply reply.json --answer yes`,
		Flags:  GlobalFlags,
		Before: setupLogging,
		After: func(*cli.Context) error {
			logger.Close()
			return nil
		},
		Commands: []*cli.Command{
			runCommand,
			queryCommand,
			plansCommand,
			confirmCommand,
			hierarchyCommand,
		},
	}
}

// Execute runs the CLI.
func Execute() {
	if err := NewApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogging(c *cli.Context) error {
	if c.Bool("no-ansi") {
		colorsEnabled = false
	}

	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}

	logPath := c.String("log-file")
	if logPath == "" {
		logPath = cfg.Log.File
	}
	level := cfg.Log.Level
	if c.Bool("verbose") {
		level = "debug"
	}
	return logger.Configure(logger.Options{
		Path:       logPath,
		Level:      level,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Console:    c.Bool("verbose"),
	})
}

// loadConfig reads --config, falling back to config.yaml in the working
// directory and then to defaults.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadFromDir(".")
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
