// Package cli provides the command-line interface for rulealign.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/rulealign/rulealign/internal/adapter"
	"github.com/rulealign/rulealign/internal/adapter/agentsmd"
	"github.com/rulealign/rulealign/internal/adapter/claudemd"
	"github.com/rulealign/rulealign/internal/adapter/cursor"
	"github.com/rulealign/rulealign/internal/config"
	"github.com/rulealign/rulealign/internal/logging"
	"github.com/rulealign/rulealign/internal/ui"
)

var (
	// Version is the current version of the application.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// BuildDate is the date and time of the build.
	BuildDate = "unknown"
)

// Run executes the CLI application with the given context and arguments.
func Run(ctx context.Context, args []string) error {
	app := &cli.Command{
		Name:    "rulealign",
		Usage:   "Keep AI coding-agent rule files aligned with one canonical rule document",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output (info level logging)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug output (debug level logging, implies verbose)",
			},
			&cli.BoolFlag{
				Name:  "no-color",
				Usage: "Disable colored output",
			},
			&cli.StringFlag{
				Name:    "project",
				Aliases: []string{"C"},
				Usage:   "Project directory (defaults to the working directory)",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			configureColors(cmd)
			return ctx, configureLogging(cmd)
		},
		Commands: []*cli.Command{
			versionCommand(),
			syncCommand(),
			checkCommand(),
			extractCommand(),
			hashCommand(),
			approveCommand(),
			configCommand(),
		},
	}
	return app.Run(ctx, args)
}

// defaultRegistry returns the adapter registry with every built-in format.
func defaultRegistry() *adapter.Registry {
	registry := adapter.NewRegistry()
	registry.Register(agentsmd.New())
	registry.Register(claudemd.New())
	registry.Register(cursor.New())
	return registry
}

// loadProjectConfig resolves the project directory and loads its
// configuration with all paths expanded.
func loadProjectConfig(cmd *cli.Command) (*config.Config, string, error) {
	projectDir := cmd.String("project")
	if projectDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, "", err
		}
		projectDir = wd
	}

	cfg, err := config.Load(projectDir)
	if err != nil {
		return nil, "", err
	}
	cfg.ResolvePaths(projectDir)
	return cfg, projectDir, nil
}

// configureColors sets up color output based on CLI flags.
func configureColors(cmd *cli.Command) {
	if cmd.Bool("no-color") {
		ui.DisableColors()
	}
}

// configureLogging sets up the logging level based on CLI flags.
func configureLogging(cmd *cli.Command) error {
	opts := logging.DefaultOptions()

	if cmd.Bool("debug") {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	} else if cmd.Bool("verbose") {
		opts.Level = slog.LevelInfo
	}

	logger := logging.New(opts)
	logging.SetDefault(logger)

	logging.Debug("logging configured", slog.String("level", opts.Level.String()))

	return nil
}
