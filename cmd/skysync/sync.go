package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync [satellites|earthquakes]",
	Short: "Run a single synchronization pass",
	Long: `Run one synchronization pass against a feed and exit.

Example:
  skysync sync satellites
  skysync sync earthquakes`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"satellites", "earthquakes"},
	RunE:      runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
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

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	start := time.Now()
	switch args[0] {
	case "satellites":
		stats, err := service.SyncSatellites(ctx)
		if err != nil {
			return fmt.Errorf("sync satellites: %w", err)
		}
		printStats("Satellites", stats, time.Since(start))
	case "earthquakes":
		stats, err := service.SyncEarthquakes(ctx)
		if err != nil {
			return fmt.Errorf("sync earthquakes: %w", err)
		}
		printStats("Earthquakes", stats, time.Since(start))
	default:
		return fmt.Errorf("unknown feed %q", args[0])
	}
	return nil
}
