package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"courier-portal/internal/core/logger"
	"courier-portal/internal/core/server"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := setup()
	defer logger.Sync()
	l := logger.Get()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := newApplication(ctx, cfg)
	defer func() {
		if err := app.close(); err != nil {
			l.Error("Failed to release resources", zap.Error(err))
		}
	}()

	srv := server.New(cfg, server.WithMetrics(app.metrics))
	app.routes(srv)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.hub.Run(gctx)
	})
	g.Go(func() error {
		return srv.Run()
	})
	g.Go(func() error {
		<-gctx.Done()
		l.Info("Shutting down server")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	if err := g.Wait(); err != nil {
		l.Error("Server stopped with error", zap.Error(err))
		return err
	}
	l.Info("Server stopped")
	return nil
}
