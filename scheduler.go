package skysync

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Scheduler drives the three periodic actions: satellite sync,
// earthquake sync, and maintenance (retention then vacuum). Each action
// runs on its own cadence from its own ticker and never blocks the
// others. A tick that fires while the previous run of the same action is
// still going is allowed through but logged; overlapping runs resolve
// last-writer-wins at the store.
type Scheduler struct {
	service *Service
	cfg     SyncConfig
	logger  *slog.Logger

	stop chan struct{}
	done sync.WaitGroup
	once sync.Once
}

// NewScheduler creates a scheduler over the service.
func NewScheduler(service *Service, cfg SyncConfig, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		service: service,
		cfg:     cfg,
		logger:  logger.With("component", "scheduler"),
		stop:    make(chan struct{}),
	}
}

// Start launches the ticker loops. The satellite action is only
// scheduled when the orbital feed is configured.
func (s *Scheduler) Start() {
	if s.service.orbital != nil {
		s.run("satellite_sync", s.cfg.SatelliteInterval.Std(), func(ctx context.Context) error {
			_, err := s.service.SyncSatellites(ctx)
			return err
		})
	} else {
		s.logger.Warn("satellite sync disabled: orbital feed not configured")
	}

	s.run("earthquake_sync", s.cfg.EarthquakeInterval.Std(), func(ctx context.Context) error {
		_, err := s.service.SyncEarthquakes(ctx)
		return err
	})

	s.run("maintenance", s.cfg.MaintenanceInterval.Std(), s.service.RunMaintenance)
}

// Stop halts the tickers and waits for loops to exit. Action runs
// already in flight finish on their own timeouts.
func (s *Scheduler) Stop() {
	s.once.Do(func() { close(s.stop) })
	s.done.Wait()
}

func (s *Scheduler) run(name string, interval time.Duration, action func(context.Context) error) {
	s.done.Add(1)

	var inFlight atomic.Bool

	go func() {
		defer s.done.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				if !inFlight.CompareAndSwap(false, true) {
					s.logger.Warn("previous run still in flight", "action", name)
					// fall through: overlap is discouraged, not forbidden
					s.dispatch(name, action, nil)
					continue
				}
				s.dispatch(name, action, &inFlight)
			}
		}
	}()
}

// passTimeout bounds one action run end to end. Individual feed requests
// carry their own shorter timeout on the HTTP client.
const passTimeout = 10 * time.Minute

func (s *Scheduler) dispatch(name string, action func(context.Context) error, inFlight *atomic.Bool) {
	go func() {
		if inFlight != nil {
			defer inFlight.Store(false)
		}

		ctx, cancel := context.WithTimeout(context.Background(), passTimeout)
		defer cancel()

		s.logger.Debug("action starting", "action", name)
		if err := action(ctx); err != nil {
			// a failed run never blocks the next tick
			s.logger.Error("action failed", "action", name, "error", err)
			return
		}
		s.logger.Debug("action complete", "action", name)
	}()
}
