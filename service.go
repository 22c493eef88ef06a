package skysync

import (
	"context"
	"log/slog"
	"time"
)

// OrbitalSource fetches GP element sets from the orbital feed. The
// skipped count reports records dropped for parse failures.
type OrbitalSource interface {
	Fetch(ctx context.Context, query string) (records []SatelliteRecord, skipped int, err error)
}

// SeismicSource fetches earthquake events from the seismic feed.
type SeismicSource interface {
	Fetch(ctx context.Context, start, end time.Time, minMagnitude float64) (records []EarthquakeRecord, skipped int, err error)
}

// Service ties the feeds, the reconciler and the store together. It is
// what the scheduler, the CLI and the HTTP API call.
type Service struct {
	cfg          Config
	store        *Store
	orbital      OrbitalSource
	seismic      SeismicSource
	reconciler   *Reconciler
	orbitalQuery string
	logger       *slog.Logger
}

// NewService creates the service. orbital may be nil when no feed
// credentials are configured; orbitalQuery is the query the scheduled
// satellite sync runs.
func NewService(cfg Config, store *Store, orbital OrbitalSource, seismic SeismicSource, orbitalQuery string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		cfg:          cfg,
		store:        store,
		orbital:      orbital,
		seismic:      seismic,
		reconciler:   NewReconciler(store, store, cfg.Sync.Workers, logger),
		orbitalQuery: orbitalQuery,
		logger:       logger.With("component", "service"),
	}
}

// Store exposes the underlying store for read queries.
func (s *Service) Store() *Store { return s.store }

// SyncSatellites runs one orbital reconciliation pass: fetch the
// configured catalog query, reconcile every record.
func (s *Service) SyncSatellites(ctx context.Context) (PassStats, error) {
	return s.PopulateSatellites(ctx, s.orbitalQuery)
}

// PopulateSatellites fetches the given catalog query and reconciles
// every record. Also backs the administrative re-population trigger.
func (s *Service) PopulateSatellites(ctx context.Context, query string) (PassStats, error) {
	if s.orbital == nil {
		return PassStats{}, &ValidationError{Field: "SpaceTrack", Message: "orbital feed not configured"}
	}

	records, skipped, err := s.orbital.Fetch(ctx, query)
	if err != nil {
		return PassStats{}, err
	}

	stats := s.reconciler.ReconcileSatellites(ctx, records)
	stats.Skipped = skipped
	s.logger.Info("satellite pass complete",
		"fetched", stats.Fetched, "noops", stats.NoOps, "updated", stats.Updated,
		"inserted", stats.Inserted, "skipped", stats.Skipped, "failed", stats.Failed,
		"duration", stats.Duration)
	return stats, nil
}

// SyncEarthquakes runs one seismic reconciliation pass over the
// configured fetch window.
func (s *Service) SyncEarthquakes(ctx context.Context) (PassStats, error) {
	end := time.Now()
	start := end.Add(-s.cfg.USGS.Window.Std())

	records, skipped, err := s.seismic.Fetch(ctx, start, end, s.cfg.USGS.MinMagnitude)
	if err != nil {
		return PassStats{}, err
	}

	stats := s.reconciler.ReconcileEarthquakes(ctx, records)
	stats.Skipped = skipped
	s.logger.Info("earthquake pass complete",
		"fetched", stats.Fetched, "noops", stats.NoOps, "updated", stats.Updated,
		"inserted", stats.Inserted, "skipped", stats.Skipped, "failed", stats.Failed,
		"duration", stats.Duration)
	return stats, nil
}

// RunRetention deletes earthquakes older than the retention window,
// referenced against event occurrence time.
func (s *Service) RunRetention(ctx context.Context) (int64, error) {
	deleted, err := s.store.DeleteEarthquakesOlderThan(ctx, s.cfg.Sync.RetentionWindow.Std())
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Info("retention pass complete", "deleted", deleted)
	}
	return deleted, nil
}

// RunMaintenance runs the retention pass and then reclaims storage.
func (s *Service) RunMaintenance(ctx context.Context) error {
	if _, err := s.RunRetention(ctx); err != nil {
		return err
	}
	if err := s.store.Vacuum(ctx); err != nil {
		return err
	}
	s.logger.Info("maintenance pass complete")
	return nil
}
