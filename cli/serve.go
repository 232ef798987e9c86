package cli

import (
	"context"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gear6io/parity/server"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand(root *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the patient records API",
		Long: `Serve GET /patients/{id}/records and GET /health. Requests must carry
"Authorization: Bearer <token>" with one of the tokens from api.tokens.

Examples:
  parity serve
  parity serve --addr 127.0.0.1:8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := commandContext(cmd)
			d := getDisplayFromContext(ctx)
			logger := getLoggerFromContext(ctx)

			cfg, err := root.loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr != "" {
				host, port, err := net.SplitHostPort(addr)
				if err != nil {
					return err
				}
				if cfg.API.Port, err = strconv.Atoi(port); err != nil {
					return err
				}
				cfg.API.Address = host
			}

			srv, err := server.New(cfg, nil, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.Start(ctx); err != nil {
				return err
			}
			d.Success("Serving patient records on %s", srv.APIAddr())

			<-ctx.Done()

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address, defaults to api.address:api.port")
	return cmd
}
