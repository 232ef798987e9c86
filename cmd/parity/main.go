package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/gear6io/parity/cli"
	"github.com/gear6io/parity/display"
	"github.com/gear6io/parity/pkg/errors"
	"github.com/gear6io/parity/server/config"
	"github.com/rs/zerolog"
	"golang.org/x/term"
)

func main() {
	if err := config.LoadEnvFiles(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
		os.Exit(1)
	}

	interactive := term.IsTerminal(int(os.Stdout.Fd()))
	if !interactive {
		display.DisableColor()
	}

	logger := setupLogger(interactive)

	ctx := context.Background()
	ctx = display.WithDisplay(ctx, display.New())
	ctx = cli.WithLogger(ctx, logger)

	logger.Debug().Str("cmd", "main").Msg("Starting parity")

	if err := cli.ExecuteWithContext(ctx); err != nil {
		logger.Error().Str("cmd", "main").Str("code", errors.GetCode(err)).Err(err).Msg("Command failed")
		fmt.Fprintln(os.Stderr, errors.FormatError(err))
		os.Exit(1)
	}
}

// setupLogger configures logging from the config file named by
// PARITY_CONFIG, or parity.yml, falling back to the defaults. Output that is
// not a terminal always gets JSON lines.
func setupLogger(interactive bool) zerolog.Logger {
	path := os.Getenv("PARITY_CONFIG")
	if path == "" {
		path = cli.DefaultConfigFile
	}

	cfg := logConfig(path, os.Stderr)
	if !interactive {
		cfg.Log.Format = "json"
	}

	logger, err := config.SetupLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	return logger
}

// logConfig loads path, falling back to the defaults when the file is
// missing or invalid. Environment overrides that cannot be applied to the
// defaults are reported on w and skipped.
func logConfig(path string, w io.Writer) *config.Config {
	cfg, err := config.LoadConfig(path)
	if err == nil {
		return cfg
	}

	cfg = config.LoadDefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		fmt.Fprintf(w, "Ignoring environment overrides: %v\n", err)
	}
	return cfg
}
