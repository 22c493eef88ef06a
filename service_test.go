package skysync

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubOrbitalSource struct {
	records []SatelliteRecord
	skipped int
	err     error
	queries []string
}

func (s *stubOrbitalSource) Fetch(ctx context.Context, query string) ([]SatelliteRecord, int, error) {
	s.queries = append(s.queries, query)
	return s.records, s.skipped, s.err
}

type stubSeismicSource struct {
	records []EarthquakeRecord
	skipped int
	err     error

	start, end   time.Time
	minMagnitude float64
}

func (s *stubSeismicSource) Fetch(ctx context.Context, start, end time.Time, minMagnitude float64) ([]EarthquakeRecord, int, error) {
	s.start, s.end, s.minMagnitude = start, end, minMagnitude
	return s.records, s.skipped, s.err
}

func testService(t *testing.T, orbital OrbitalSource, seismic SeismicSource) *Service {
	t.Helper()
	return NewService(DefaultConfig(), testStore(t), orbital, seismic, "query/all", nil)
}

// TestService_SyncSatellites verifies the scheduled pass runs the
// configured query and folds the feed's skip count into the stats.
func TestService_SyncSatellites(t *testing.T) {
	orbital := &stubOrbitalSource{
		records: []SatelliteRecord{sampleSatelliteRecord()},
		skipped: 3,
	}
	svc := testService(t, orbital, &stubSeismicSource{})

	stats, err := svc.SyncSatellites(context.Background())
	if err != nil {
		t.Fatalf("SyncSatellites failed: %v", err)
	}
	if len(orbital.queries) != 1 || orbital.queries[0] != "query/all" {
		t.Errorf("queries = %v", orbital.queries)
	}
	if stats.Inserted != 1 || stats.Skipped != 3 {
		t.Errorf("stats = %+v", stats)
	}
}

// TestService_PopulateSatellites_NoOrbitalFeed verifies population is
// rejected when no credentials are configured.
func TestService_PopulateSatellites_NoOrbitalFeed(t *testing.T) {
	svc := testService(t, nil, &stubSeismicSource{})

	_, err := svc.PopulateSatellites(context.Background(), "query/all")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

// TestService_SyncEarthquakes verifies the fetch window and magnitude
// floor come from the configuration.
func TestService_SyncEarthquakes(t *testing.T) {
	seismic := &stubSeismicSource{
		records: []EarthquakeRecord{sampleEarthquakeRecord()},
	}
	svc := testService(t, nil, seismic)

	stats, err := svc.SyncEarthquakes(context.Background())
	if err != nil {
		t.Fatalf("SyncEarthquakes failed: %v", err)
	}
	if stats.Inserted != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if seismic.minMagnitude != 2.5 {
		t.Errorf("minMagnitude = %v", seismic.minMagnitude)
	}
	window := seismic.end.Sub(seismic.start)
	if window != 24*time.Hour {
		t.Errorf("window = %v, want 24h", window)
	}
}

// TestService_SyncEarthquakes_FeedDown verifies a feed failure aborts
// the pass without touching the store.
func TestService_SyncEarthquakes_FeedDown(t *testing.T) {
	seismic := &stubSeismicSource{err: ErrFeedUnavailable}
	svc := testService(t, nil, seismic)

	_, err := svc.SyncEarthquakes(context.Background())
	if !errors.Is(err, ErrFeedUnavailable) {
		t.Fatalf("expected ErrFeedUnavailable, got %v", err)
	}

	_, quakes, err := svc.Store().Counts(context.Background())
	if err != nil {
		t.Fatalf("counts failed: %v", err)
	}
	if quakes != 0 {
		t.Errorf("store written on failed pass: %d rows", quakes)
	}
}

// TestService_RunMaintenance verifies retention and vacuum run together.
func TestService_RunMaintenance(t *testing.T) {
	svc := testService(t, nil, &stubSeismicSource{})
	ctx := context.Background()
	now := time.Now().UTC()

	stale := sampleEarthquakeRecord()
	stale.EventID = "old01"
	stale.IDs = []string{"old01"}
	stale.TimeMs = now.Add(-45 * 24 * time.Hour).UnixMilli()
	if err := svc.Store().UpsertEarthquake(ctx, newEarthquake(stale, now)); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if err := svc.RunMaintenance(ctx); err != nil {
		t.Fatalf("RunMaintenance failed: %v", err)
	}

	_, quakes, err := svc.Store().Counts(ctx)
	if err != nil {
		t.Fatalf("counts failed: %v", err)
	}
	if quakes != 0 {
		t.Errorf("stale earthquake survived maintenance")
	}
}
