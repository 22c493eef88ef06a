package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	skysync "github.com/skywatch-io/skysync"
	"github.com/skywatch-io/skysync/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the sync scheduler and HTTP API",
	Long: `Run SkySync as a long-lived service: periodic feed synchronization
plus the HTTP query API.

Example:
  skysync serve
  skysync serve --api-addr :9090`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger()

	service, err := buildService(cfg, logger)
	if err != nil {
		return err
	}
	defer service.Store().Close()

	if !cfg.HasSpaceTrack() {
		logger.Warn("space-track credentials not configured, satellite sync disabled")
	}

	scheduler := skysync.NewScheduler(service, cfg.Sync, logger)
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:    cfg.APIAddr,
		Handler: api.NewRouter(service, logger),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api listening", "addr", cfg.APIAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		return fmt.Errorf("api server: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
