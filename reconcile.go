package skysync

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// SatelliteGateway is the persistence contract the reconciler needs for
// the orbital family.
type SatelliteGateway interface {
	SatelliteByNoradID(ctx context.Context, noradID int) (*Satellite, error)
	UpsertSatellite(ctx context.Context, sat *Satellite) error
}

// EarthquakeGateway is the persistence contract the reconciler needs for
// the seismic family. EarthquakeByAnyID consults the accumulated
// identifier sets, covering events the feed has reissued under a new id.
type EarthquakeGateway interface {
	EarthquakeByEventID(ctx context.Context, eventID string) (*Earthquake, error)
	EarthquakeByAnyID(ctx context.Context, id string) (*Earthquake, error)
	UpsertEarthquake(ctx context.Context, q *Earthquake) error
}

// SatelliteOutcome reports what reconciling one orbital record did.
type SatelliteOutcome struct {
	Kind   OutcomeKind
	Entity *Satellite
}

// EarthquakeOutcome reports what reconciling one seismic record did.
type EarthquakeOutcome struct {
	Kind   OutcomeKind
	Entity *Earthquake
}

// Reconciler pairs incoming feed records with persisted entities and
// applies the minimal write: nothing when the feed's own change signal
// says the record is unchanged, an in-place update when it changed, an
// insert when no entity matches under any known identifier.
//
// The find-then-write sequence is not atomic against an overlapping pass
// reconciling the same identifier; that race resolves last-writer-wins
// on the primary key.
type Reconciler struct {
	satellites  SatelliteGateway
	earthquakes EarthquakeGateway
	workers     int
	logger      *slog.Logger
	now         func() time.Time
}

// NewReconciler creates a reconciler with the given fan-out bound.
func NewReconciler(satellites SatelliteGateway, earthquakes EarthquakeGateway, workers int, logger *slog.Logger) *Reconciler {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		satellites:  satellites,
		earthquakes: earthquakes,
		workers:     workers,
		logger:      logger.With("component", "reconciler"),
		now:         time.Now,
	}
}

// ReconcileSatellite reconciles one orbital record. The orbital feed
// carries no explicit update stamp, so element-set equality (both TLE
// lines unchanged) stands in for the change signal.
func (r *Reconciler) ReconcileSatellite(ctx context.Context, rec SatelliteRecord) (SatelliteOutcome, error) {
	existing, err := r.satellites.SatelliteByNoradID(ctx, rec.NoradCatID)
	if err != nil && err != ErrNotFound {
		return SatelliteOutcome{}, err
	}

	if existing != nil {
		if existing.TLELine1 == rec.TLELine1 && existing.TLELine2 == rec.TLELine2 {
			return SatelliteOutcome{Kind: OutcomeNoOp, Entity: existing}, nil
		}

		changed := applySatelliteFields(existing, rec)
		existing.SyncedAt = r.now().UTC()
		if err := r.satellites.UpsertSatellite(ctx, existing); err != nil {
			return SatelliteOutcome{}, err
		}
		r.logger.Debug("satellite updated", "norad_cat_id", rec.NoradCatID, "fields", changed)
		return SatelliteOutcome{Kind: OutcomeUpdated, Entity: existing}, nil
	}

	sat := newSatellite(rec, r.now().UTC())
	if err := r.satellites.UpsertSatellite(ctx, sat); err != nil {
		return SatelliteOutcome{}, err
	}
	r.logger.Debug("satellite discovered", "norad_cat_id", rec.NoradCatID, "name", rec.ObjectName)
	return SatelliteOutcome{Kind: OutcomeInserted, Entity: sat}, nil
}

// ReconcileEarthquake reconciles one seismic record. The feed's own
// updated stamp is the change signal: a republished event with identical
// content but a bumped stamp is rewritten, a known imprecision accepted
// from the upstream behavior.
func (r *Reconciler) ReconcileEarthquake(ctx context.Context, rec EarthquakeRecord) (EarthquakeOutcome, error) {
	existing, err := r.earthquakes.EarthquakeByEventID(ctx, rec.EventID)
	if err != nil && err != ErrNotFound {
		return EarthquakeOutcome{}, err
	}

	if existing != nil {
		if existing.UpdatedMs == rec.UpdatedMs {
			return EarthquakeOutcome{Kind: OutcomeNoOp, Entity: existing}, nil
		}
		return r.updateEarthquake(ctx, existing, rec)
	}

	// The feed may have reissued the event under a new identifier while
	// keeping the old ones in its published history; try each in feed
	// order, first hit wins.
	for _, altID := range rec.IDs {
		match, err := r.earthquakes.EarthquakeByAnyID(ctx, altID)
		if err == ErrNotFound {
			continue
		}
		if err != nil {
			return EarthquakeOutcome{}, err
		}
		r.logger.Info("earthquake identifier reassigned",
			"old_event_id", match.EventID, "new_event_id", rec.EventID)
		match.EventID = rec.EventID
		return r.updateEarthquake(ctx, match, rec)
	}

	q := newEarthquake(rec, r.now().UTC())
	if err := r.earthquakes.UpsertEarthquake(ctx, q); err != nil {
		return EarthquakeOutcome{}, err
	}
	r.logger.Debug("earthquake discovered", "event_id", rec.EventID, "mag", rec.Mag)
	return EarthquakeOutcome{Kind: OutcomeInserted, Entity: q}, nil
}

func (r *Reconciler) updateEarthquake(ctx context.Context, existing *Earthquake, rec EarthquakeRecord) (EarthquakeOutcome, error) {
	changed := applyEarthquakeFields(existing, rec)
	existing.MergeKnownIDs(rec.IDs)
	existing.MergeKnownIDs([]string{rec.EventID})
	existing.SyncedAt = r.now().UTC()
	if err := r.earthquakes.UpsertEarthquake(ctx, existing); err != nil {
		return EarthquakeOutcome{}, err
	}
	r.logger.Debug("earthquake updated", "event_id", existing.EventID, "fields", changed)
	return EarthquakeOutcome{Kind: OutcomeUpdated, Entity: existing}, nil
}

// ReconcileSatellites reconciles a batch with bounded fan-out. Records
// are independent; one record's failure never blocks the rest.
func (r *Reconciler) ReconcileSatellites(ctx context.Context, recs []SatelliteRecord) PassStats {
	start := r.now()
	stats := PassStats{Fetched: len(recs)}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, r.workers)
	)

	for _, rec := range recs {
		wg.Add(1)
		sem <- struct{}{}
		go func(rec SatelliteRecord) {
			defer func() {
				<-sem
				wg.Done()
			}()

			outcome, err := r.ReconcileSatellite(ctx, rec)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.Failed++
				r.logger.Warn("satellite reconcile failed", "norad_cat_id", rec.NoradCatID, "error", err)
				return
			}
			countOutcome(&stats, outcome.Kind)
		}(rec)
	}
	wg.Wait()

	stats.Duration = r.now().Sub(start)
	return stats
}

// ReconcileEarthquakes reconciles a batch with bounded fan-out.
func (r *Reconciler) ReconcileEarthquakes(ctx context.Context, recs []EarthquakeRecord) PassStats {
	start := r.now()
	stats := PassStats{Fetched: len(recs)}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, r.workers)
	)

	for _, rec := range recs {
		wg.Add(1)
		sem <- struct{}{}
		go func(rec EarthquakeRecord) {
			defer func() {
				<-sem
				wg.Done()
			}()

			outcome, err := r.ReconcileEarthquake(ctx, rec)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				stats.Failed++
				r.logger.Warn("earthquake reconcile failed", "event_id", rec.EventID, "error", err)
				return
			}
			countOutcome(&stats, outcome.Kind)
		}(rec)
	}
	wg.Wait()

	stats.Duration = r.now().Sub(start)
	return stats
}

func countOutcome(stats *PassStats, kind OutcomeKind) {
	switch kind {
	case OutcomeNoOp:
		stats.NoOps++
	case OutcomeUpdated:
		stats.Updated++
	case OutcomeInserted:
		stats.Inserted++
	}
}

// applySatelliteFields overwrites the mutable fields of an existing
// satellite from a feed record and returns the names of the fields that
// changed. The primary key and SyncedAt are untouched.
func applySatelliteFields(e *Satellite, rec SatelliteRecord) []string {
	var changed []string

	setStr := func(name string, dst *string, v string) {
		if *dst != v {
			*dst = v
			changed = append(changed, name)
		}
	}
	setF64 := func(name string, dst *float64, v float64) {
		if *dst != v {
			*dst = v
			changed = append(changed, name)
		}
	}

	setStr("tle_line1", &e.TLELine1, rec.TLELine1)
	setStr("tle_line2", &e.TLELine2, rec.TLELine2)
	setStr("object_name", &e.ObjectName, rec.ObjectName)
	setStr("object_type", &e.ObjectType, rec.ObjectType)
	setStr("country_code", &e.CountryCode, rec.CountryCode)
	setStr("decay_date", &e.DecayDate, rec.DecayDate)
	setF64("inclination", &e.Inclination, rec.Inclination)
	setF64("eccentricity", &e.Eccentricity, rec.Eccentricity)
	setF64("period", &e.Period, rec.Period)
	setF64("apoapsis", &e.Apoapsis, rec.Apoapsis)
	setF64("periapsis", &e.Periapsis, rec.Periapsis)
	setF64("semimajor_axis", &e.SemimajorAxis, rec.SemimajorAxis)
	if !e.Epoch.Equal(rec.Epoch) {
		e.Epoch = rec.Epoch
		changed = append(changed, "epoch")
	}

	return changed
}

// applyEarthquakeFields overwrites the mutable fields of an existing
// earthquake from a feed record and returns the names of the fields that
// changed. Identifier bookkeeping is handled by the caller.
func applyEarthquakeFields(e *Earthquake, rec EarthquakeRecord) []string {
	var changed []string

	setStr := func(name string, dst *string, v string) {
		if *dst != v {
			*dst = v
			changed = append(changed, name)
		}
	}
	setF64 := func(name string, dst *float64, v float64) {
		if *dst != v {
			*dst = v
			changed = append(changed, name)
		}
	}
	setInt := func(name string, dst *int, v int) {
		if *dst != v {
			*dst = v
			changed = append(changed, name)
		}
	}
	setPtr := func(name string, dst **float64, v *float64) {
		if (*dst == nil) != (v == nil) || (*dst != nil && v != nil && **dst != *v) {
			*dst = v
			changed = append(changed, name)
		}
	}

	setF64("mag", &e.Mag, rec.Mag)
	setStr("place", &e.Place, rec.Place)
	setInt("tz_offset", &e.TzOffset, rec.TzOffset)
	setPtr("cdi", &e.Cdi, rec.Cdi)
	setPtr("mmi", &e.Mmi, rec.Mmi)
	setStr("alert", &e.Alert, rec.Alert)
	setStr("status", &e.Status, rec.Status)
	setInt("tsunami", &e.Tsunami, rec.Tsunami)
	setInt("significance", &e.Significance, rec.Significance)
	setInt("station_count", &e.StationCount, rec.StationCount)
	setPtr("dmin", &e.Dmin, rec.Dmin)
	setStr("event_type", &e.EventType, rec.EventType)
	setF64("longitude", &e.Longitude, rec.Longitude)
	setF64("latitude", &e.Latitude, rec.Latitude)
	setF64("depth_km", &e.DepthKm, rec.DepthKm)

	eventTime := time.UnixMilli(rec.TimeMs).UTC()
	if !e.EventTime.Equal(eventTime) {
		e.EventTime = eventTime
		changed = append(changed, "event_time")
	}
	if e.UpdatedMs != rec.UpdatedMs {
		e.UpdatedMs = rec.UpdatedMs
		changed = append(changed, "updated")
	}

	return changed
}
