package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set by build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "portal",
	Short:         "Serve microfrontend deployments to portal clients",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the portal HTTP server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import microfrontends from a YAML module file into the database",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "portal %s (built %s)\n", Version, BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	importCmd.Flags().Bool("dry-run", false, "Validate the file without writing to the database")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		var sErr *ServerError
		if errors.As(err, &sErr) {
			return sErr.ExitCode
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return ExitConfigError
	}
	return ExitSuccess
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return &ServerError{Op: "LoadConfig", Err: err, ExitCode: ExitConfigError}
	}

	logger := SetupLogger(cfg)
	slog.SetDefault(logger)
	logger.Info("starting portal",
		"version", Version,
		"config", configPath,
	)
	for _, w := range cfg.Warnings() {
		logger.Warn(w)
	}

	server, err := NewServer(cfg, logger)
	if err != nil {
		logServerError(logger, "failed to create server", err)
		return err
	}

	if err := server.Start(context.Background()); err != nil {
		logServerError(logger, "server error", err)
		return err
	}
	return nil
}

func logServerError(logger *slog.Logger, msg string, err error) {
	var sErr *ServerError
	if errors.As(err, &sErr) {
		logger.Error(msg,
			"error", sErr.Err,
			"operation", sErr.Op,
		)
		return
	}
	logger.Error(msg, "error", err)
}
