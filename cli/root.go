// Package cli implements the parity command line.
package cli

import (
	"context"
	"os"

	"github.com/gear6io/parity/display"
	"github.com/gear6io/parity/server/config"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// DefaultConfigFile is read when --config is not given
const DefaultConfigFile = "parity.yml"

type contextKey string

const loggerKey contextKey = "logger"

type rootOptions struct {
	configPath string
	format     string
}

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "parity",
		Short: "Load delimited files into a relational store and prove the Parquet export matches",
		Long: `Parity infers a schema for each CSV file, loads it into PostgreSQL, SQLite
or DuckDB, exports every table to Parquet in an object store and checks
that the artifact matches the table, both in data and in schema.

It also serves a small patient records API behind bearer tokens.

Examples:
  parity infer data/patients.csv
  parity run data/
  parity check patients
  parity exercise patients --key patient_id
  parity runs --limit 20
  parity serve`,
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	configFile := DefaultConfigFile
	if v := os.Getenv("PARITY_CONFIG"); v != "" {
		configFile = v
	}
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", configFile, "configuration file (env PARITY_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&opts.format, "format", string(display.FormatTable), "output format (table, csv, json)")

	rootCmd.AddCommand(
		newInferCommand(opts),
		newRunCommand(opts),
		newCheckCommand(opts),
		newExportCommand(opts),
		newExerciseCommand(opts),
		newRunsCommand(opts),
		newServeCommand(opts),
	)
	return rootCmd
}

// ExecuteWithContext runs the command tree with a context carrying the
// display and logger
func ExecuteWithContext(ctx context.Context, args ...string) error {
	rootCmd := NewRootCommand()
	if args != nil {
		rootCmd.SetArgs(args)
	}
	return rootCmd.ExecuteContext(ctx)
}

// WithLogger stores logger in ctx for the commands
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// getLoggerFromContext retrieves the logger from context, or a no-op logger
func getLoggerFromContext(ctx context.Context) zerolog.Logger {
	if logger, ok := ctx.Value(loggerKey).(zerolog.Logger); ok {
		return logger
	}
	return zerolog.Nop()
}

// getDisplayFromContext retrieves the display instance from context
func getDisplayFromContext(ctx context.Context) display.Display {
	return display.GetDisplayOrDefault(ctx)
}

// loadConfig reads the configuration file. A missing default file falls
// back to the built-in defaults with environment overrides.
func (o *rootOptions) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(o.configPath)
	if err == nil {
		return cfg, nil
	}
	if cmd.Flags().Changed("config") {
		return nil, err
	}

	cfg = config.LoadDefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (o *rootOptions) tableFormat() (display.Format, error) {
	return display.ParseFormat(o.format)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
