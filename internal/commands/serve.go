package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/ledgerd/internal/server"
)

func newServeCommand(open appOpener) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := open(cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, a)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override server.port")

	return cmd
}

func runServe(ctx context.Context, a *app) error {
	handler := server.NewRouter(a.logger, server.Dependencies{
		Engine:              a.engine,
		Accounts:            a.accounts,
		Health:              a.store,
		AccountNumberLength: a.cfg.Ledger.AccountNumberLength,
	})
	srv := server.New(a.logger, a.cfg.Server, handler)
	a.logger.Info("ledgerd ready", "driver", a.cfg.Storage.Driver, "addr", srv.Addr())
	return srv.Run(ctx)
}
