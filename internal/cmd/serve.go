package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/RoyceAzure/lab/marketplace/internal/api/router"
	"github.com/RoyceAzure/lab/marketplace/internal/constants"
	"github.com/spf13/cobra"
)

var migrateOnStart bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the HTTP API server together with the background guest cart
sweeper. SIGINT or SIGTERM triggers a graceful shutdown: in-flight
requests finish, pending notifications are flushed, then connections
are closed.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&migrateOnStart, "migrate", false, "run schema migration before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	logger := app.Logger

	if migrateOnStart {
		if err := app.Migrate(ctx); err != nil {
			_ = app.Shutdown(context.Background())
			return fmt.Errorf("migrate: %w", err)
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", app.Cf.ServerPort),
		Handler:           router.SetupRouter(app.NewServer(), app.Limiter, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		app.CartSweeper.Run(ctx)
	}()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("received shutdown signal")
	case runErr = <-serveErr:
		logger.Error().Err(runErr).Msg("server stopped unexpectedly")
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.DefaultShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown error")
	}
	wg.Wait()
	if err := app.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("application shutdown error")
	}
	logger.Info().Msg("closed completed")
	return runErr
}
