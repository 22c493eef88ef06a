package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	skysync "github.com/skywatch-io/skysync"
	"github.com/skywatch-io/skysync/internal/feed"
)

var (
	cfgFile    string
	cfgDBPath  string
	cfgAPIAddr string
)

var rootCmd = &cobra.Command{
	Use:   "skysync",
	Short: "SkySync - satellite and earthquake feed synchronizer",
	Long: `SkySync keeps a local catalog of tracked satellites and recent
earthquakes in sync with the Space-Track and USGS public feeds.

It reconciles each feed record against the stored entity, preserving
stable internal identifiers while upstream identifiers churn.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to YAML config file (default: ./skysync.yaml)")
	rootCmd.PersistentFlags().StringVar(&cfgDBPath, "db-path", "", "Path to local database (default: ./data/skysync.db)")
	rootCmd.PersistentFlags().StringVar(&cfgAPIAddr, "api-addr", "", "HTTP API listen address (default: :8080)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(populateCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig() (skysync.Config, error) {
	path := cfgFile
	if path == "" {
		path = "skysync.yaml"
	}

	cfg, err := skysync.LoadConfig(path)
	if err != nil {
		return skysync.Config{}, fmt.Errorf("load config: %w", err)
	}

	// Flags win over file and environment.
	if cfgDBPath != "" {
		cfg.DBPath = cfgDBPath
	}
	if cfgAPIAddr != "" {
		cfg.APIAddr = cfgAPIAddr
	}

	if err := cfg.Validate(); err != nil {
		return skysync.Config{}, err
	}
	return cfg, nil
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, nil))
}

// buildService opens the store and wires the feed clients. The orbital
// source stays nil without Space-Track credentials; satellite sync is
// skipped in that case.
func buildService(cfg skysync.Config, logger *slog.Logger) (*skysync.Service, error) {
	store, err := skysync.NewStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	httpClient := &http.Client{Timeout: cfg.Sync.FetchTimeout.Std()}

	var orbital skysync.OrbitalSource
	if cfg.HasSpaceTrack() {
		session := feed.NewSessionCache(cfg.SpaceTrack.BaseURL, cfg.SpaceTrack.Username, cfg.SpaceTrack.Password, httpClient, logger)
		orbital = feed.NewSpaceTrackClient(cfg.SpaceTrack.BaseURL, session, httpClient, logger)
	}
	seismic := feed.NewUSGSClient(cfg.USGS.BaseURL, httpClient, logger)

	return skysync.NewService(cfg, store, orbital, seismic, feed.QueryAllActive(), logger), nil
}
