package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	skysync "github.com/skywatch-io/skysync"
	"github.com/skywatch-io/skysync/internal/feed"
)

var populateCmd = &cobra.Command{
	Use:   "populate [all|starlink|oneweb|iridium|history]",
	Short: "Populate the satellite catalog from Space-Track",
	Long: `Fetch a satellite group from Space-Track and reconcile it into
the local catalog.

Example:
  skysync populate all        # every active tracked object
  skysync populate starlink   # the Starlink constellation
  skysync populate history    # a curated set of notable satellites`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"all", "starlink", "oneweb", "iridium", "history"},
	RunE:      runPopulate,
}

func runPopulate(cmd *cobra.Command, args []string) error {
	var query string
	switch args[0] {
	case "all":
		query = feed.QueryAllActive()
	case "starlink":
		query = feed.QueryStarlink()
	case "oneweb":
		query = feed.QueryOneWeb()
	case "iridium":
		query = feed.QueryIridium()
	case "history":
		query = feed.QueryNoradIDs(feed.DefaultCatalogIDs)
	default:
		return fmt.Errorf("unknown group %q", args[0])
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.HasSpaceTrack() {
		return fmt.Errorf("SPACETRACK_USERNAME and SPACETRACK_PASSWORD not configured")
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
	stats, err := service.PopulateSatellites(ctx, query)
	if err != nil {
		return fmt.Errorf("populate: %w", err)
	}
	printStats("Satellites", stats, time.Since(start))
	return nil
}

func printStats(label string, stats skysync.PassStats, elapsed time.Duration) {
	fmt.Printf("%s: fetched=%d inserted=%d updated=%d unchanged=%d skipped=%d failed=%d (took %s)\n",
		label, stats.Fetched, stats.Inserted, stats.Updated, stats.NoOps, stats.Skipped, stats.Failed,
		elapsed.Round(time.Millisecond))
}
