package skysync

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingSeismicSource struct {
	calls atomic.Int32
}

func (s *countingSeismicSource) Fetch(ctx context.Context, start, end time.Time, minMagnitude float64) ([]EarthquakeRecord, int, error) {
	s.calls.Add(1)
	return nil, 0, nil
}

// TestScheduler_RunsEarthquakeAction verifies ticks drive the seismic
// pass and Stop terminates the loops.
func TestScheduler_RunsEarthquakeAction(t *testing.T) {
	seismic := &countingSeismicSource{}
	cfg := DefaultConfig()
	cfg.Sync.EarthquakeInterval = Duration(10 * time.Millisecond)
	cfg.Sync.MaintenanceInterval = Duration(time.Hour)

	svc := NewService(cfg, testStore(t), nil, seismic, "", nil)
	sched := NewScheduler(svc, cfg.Sync, nil)

	sched.Start()

	deadline := time.After(2 * time.Second)
	for seismic.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("earthquake action never ran")
		case <-time.After(5 * time.Millisecond):
		}
	}

	sched.Stop()
	// Stop is idempotent.
	sched.Stop()
}

// TestScheduler_SatelliteActionSkippedWithoutFeed verifies no satellite
// loop is scheduled when the orbital feed is nil and stopping is still
// clean.
func TestScheduler_SatelliteActionSkippedWithoutFeed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Sync.SatelliteInterval = Duration(5 * time.Millisecond)
	cfg.Sync.EarthquakeInterval = Duration(time.Hour)
	cfg.Sync.MaintenanceInterval = Duration(time.Hour)

	svc := NewService(cfg, testStore(t), nil, &countingSeismicSource{}, "", nil)
	sched := NewScheduler(svc, cfg.Sync, nil)

	sched.Start()
	time.Sleep(30 * time.Millisecond)
	sched.Stop()

	_, quakes, err := svc.Store().Counts(context.Background())
	if err != nil {
		t.Fatalf("counts failed: %v", err)
	}
	if quakes != 0 {
		t.Errorf("unexpected writes: %d", quakes)
	}
}
