package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/TheKhosa/vodarchiver/internal/config"
	"github.com/TheKhosa/vodarchiver/internal/supervisor"
)

// version is set at build time via ldflags.
var version = "dev"

// pidFilePath is fixed rather than configurable: one daemon instance per
// host, regardless of which recordings root it's been pointed at.
const pidFilePath = "/var/run/vodarchiver.pid"

// newRootCmd builds and returns the fully-assembled root command with all
// subcommands registered. Called once from main().
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "vodarchiver",
		Short:         "MediaMTX VOD archiver",
		Long:          "Captures live MediaMTX streams to disk and uploads finished segments to object storage.",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.AddCommand(newRunCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// newRunCmd builds the daemon's single long-running subcommand: load
// config, build the supervisor, and run until signaled.
func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the archiver until terminated",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDaemon(cmd)
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), version)

			return nil
		},
	}
}

func runDaemon(cmd *cobra.Command) error {
	bootstrapLogger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	cfg, err := config.Load(bootstrapLogger)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := buildLogger(cfg.LogLevel)

	cleanup, err := writePIDFile(pidFilePath)
	if err != nil {
		return err
	}
	defer cleanup()

	sup, err := supervisor.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("building supervisor: %w", err)
	}

	ctx := shutdownContext(cmd.Context(), logger)

	return sup.Run(ctx)
}

// buildLogger creates an slog.Logger at the level named by levelName,
// defaulting to info on an unrecognized value (config.Validate already
// rejects those, so this only covers the bootstrap-before-validation gap).
func buildLogger(levelName string) *slog.Logger {
	level := slog.LevelInfo

	switch levelName {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// exitOnError prints a user-friendly error message to stderr and exits.
func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
