package skysync

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const earthquakeColumns = `id, event_id, known_ids, mag, place, event_time_ms, updated_ms,
       tz_offset, cdi, mmi, alert, status, tsunami, significance,
       station_count, dmin, event_type, longitude, latitude, depth_km, synced_at`

// EarthquakeByEventID retrieves an earthquake by its current preferred
// identifier. Returns ErrNotFound when no row matches.
func (s *Store) EarthquakeByEventID(ctx context.Context, eventID string) (*Earthquake, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+earthquakeColumns+`
		FROM earthquakes WHERE event_id = ?
	`, eventID)
	return scanEarthquake(row)
}

// EarthquakeByAnyID retrieves an earthquake whose accumulated identifier
// set contains the given identifier, even if it is no longer the current
// one. Returns ErrNotFound when no row matches.
func (s *Store) EarthquakeByAnyID(ctx context.Context, id string) (*Earthquake, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	// known_ids is comma-separated; pad with commas so "us1" cannot
	// match "us10"
	row := s.db.QueryRowContext(ctx, `
		SELECT `+earthquakeColumns+`
		FROM earthquakes
		WHERE ',' || known_ids || ',' LIKE '%,' || ? || ',%'
	`, id)
	return scanEarthquake(row)
}

// UpsertEarthquake inserts a new earthquake or overwrites the row carrying
// the same primary key. The primary key itself is never reassigned; the
// event_id column may change when the feed reissues an identifier.
func (s *Store) UpsertEarthquake(ctx context.Context, q *Earthquake) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	var cdi, mmi, dmin any
	if q.Cdi != nil {
		cdi = *q.Cdi
	}
	if q.Mmi != nil {
		mmi = *q.Mmi
	}
	if q.Dmin != nil {
		dmin = *q.Dmin
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO earthquakes (id, event_id, known_ids, mag, place, event_time_ms, updated_ms,
			tz_offset, cdi, mmi, alert, status, tsunami, significance,
			station_count, dmin, event_type, longitude, latitude, depth_km, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			event_id = excluded.event_id,
			known_ids = excluded.known_ids,
			mag = excluded.mag,
			place = excluded.place,
			event_time_ms = excluded.event_time_ms,
			updated_ms = excluded.updated_ms,
			tz_offset = excluded.tz_offset,
			cdi = excluded.cdi,
			mmi = excluded.mmi,
			alert = excluded.alert,
			status = excluded.status,
			tsunami = excluded.tsunami,
			significance = excluded.significance,
			station_count = excluded.station_count,
			dmin = excluded.dmin,
			event_type = excluded.event_type,
			longitude = excluded.longitude,
			latitude = excluded.latitude,
			depth_km = excluded.depth_km,
			synced_at = excluded.synced_at
	`,
		q.ID,
		q.EventID,
		strings.Join(q.KnownIDs, ","),
		q.Mag,
		q.Place,
		q.EventTime.UnixMilli(),
		q.UpdatedMs,
		q.TzOffset,
		cdi,
		mmi,
		nullString(q.Alert),
		q.Status,
		q.Tsunami,
		q.Significance,
		q.StationCount,
		dmin,
		q.EventType,
		q.Longitude,
		q.Latitude,
		q.DepthKm,
		q.SyncedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("store: upsert earthquake %s: %w", q.EventID, err)
	}
	return nil
}

// Earthquakes returns every persisted earthquake, most recent first.
func (s *Store) Earthquakes(ctx context.Context) ([]Earthquake, error) {
	return s.queryEarthquakes(ctx, `
		SELECT `+earthquakeColumns+`
		FROM earthquakes ORDER BY event_time_ms DESC
	`)
}

// EarthquakesSince returns earthquakes whose origin time falls at or
// after the given instant, most recent first.
func (s *Store) EarthquakesSince(ctx context.Context, since time.Time) ([]Earthquake, error) {
	return s.queryEarthquakes(ctx, `
		SELECT `+earthquakeColumns+`
		FROM earthquakes
		WHERE event_time_ms >= ?
		ORDER BY event_time_ms DESC
	`, since.UnixMilli())
}

// DeleteEarthquakesOlderThan removes earthquakes whose origin time is
// older than the retention window and reports how many were deleted.
func (s *Store) DeleteEarthquakesOlderThan(ctx context.Context, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	cutoff := time.Now().Add(-window).UnixMilli()
	res, err := s.db.ExecContext(ctx, `DELETE FROM earthquakes WHERE event_time_ms < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("store: delete stale earthquakes: %w", err)
	}
	return res.RowsAffected()
}

func (s *Store) queryEarthquakes(ctx context.Context, query string, args ...any) ([]Earthquake, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query earthquakes: %w", err)
	}
	defer rows.Close()

	var results []Earthquake
	for rows.Next() {
		q, err := scanEarthquake(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *q)
	}
	return results, rows.Err()
}

func scanEarthquake(sc scanner) (*Earthquake, error) {
	var (
		q           Earthquake
		knownIDs    string
		eventTimeMs int64
		cdi         sql.NullFloat64
		mmi         sql.NullFloat64
		alert       sql.NullString
		dmin        sql.NullFloat64
		syncedAt    string
	)

	err := sc.Scan(
		&q.ID,
		&q.EventID,
		&knownIDs,
		&q.Mag,
		&q.Place,
		&eventTimeMs,
		&q.UpdatedMs,
		&q.TzOffset,
		&cdi,
		&mmi,
		&alert,
		&q.Status,
		&q.Tsunami,
		&q.Significance,
		&q.StationCount,
		&dmin,
		&q.EventType,
		&q.Longitude,
		&q.Latitude,
		&q.DepthKm,
		&syncedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if knownIDs != "" {
		q.KnownIDs = strings.Split(knownIDs, ",")
	}
	q.EventTime = time.UnixMilli(eventTimeMs).UTC()
	if cdi.Valid {
		q.Cdi = &cdi.Float64
	}
	if mmi.Valid {
		q.Mmi = &mmi.Float64
	}
	if alert.Valid {
		q.Alert = alert.String
	}
	if dmin.Valid {
		q.Dmin = &dmin.Float64
	}
	q.SyncedAt, _ = time.Parse(time.RFC3339, syncedAt)

	return &q, nil
}
