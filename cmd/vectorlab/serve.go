package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zeusync/vectorlab/internal/injector"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scene server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		srv, cleanup, err := injector.InitializeServer(cfg)
		if err != nil {
			return fmt.Errorf("failed to build server: %w", err)
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err = srv.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Stop(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().String("listen", "", "listen address (overrides server.listen_addr)")
	serveCmd.Flags().String("room", "", "default room name")
	_ = v.BindPFlag("server.listen_addr", serveCmd.Flags().Lookup("listen"))
	_ = v.BindPFlag("server.default_room", serveCmd.Flags().Lookup("room"))
}
