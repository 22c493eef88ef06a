package skysync

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

const satelliteColumns = `id, norad_cat_id, object_name, object_type, country_code,
       launch_date, decay_date, epoch, tle_line1, tle_line2,
       inclination, eccentricity, period, apoapsis, periapsis, semimajor_axis, synced_at`

// SatelliteByNoradID retrieves a satellite by catalog identifier.
// Returns ErrNotFound when no row matches.
func (s *Store) SatelliteByNoradID(ctx context.Context, noradID int) (*Satellite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT `+satelliteColumns+`
		FROM satellites WHERE norad_cat_id = ?
	`, noradID)
	return scanSatellite(row)
}

// UpsertSatellite inserts a new satellite or overwrites the row carrying
// the same primary key. The primary key itself is never reassigned.
func (s *Store) UpsertSatellite(ctx context.Context, sat *Satellite) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO satellites (id, norad_cat_id, object_name, object_type, country_code,
			launch_date, decay_date, epoch, tle_line1, tle_line2,
			inclination, eccentricity, period, apoapsis, periapsis, semimajor_axis, synced_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			norad_cat_id = excluded.norad_cat_id,
			object_name = excluded.object_name,
			object_type = excluded.object_type,
			country_code = excluded.country_code,
			launch_date = excluded.launch_date,
			decay_date = excluded.decay_date,
			epoch = excluded.epoch,
			tle_line1 = excluded.tle_line1,
			tle_line2 = excluded.tle_line2,
			inclination = excluded.inclination,
			eccentricity = excluded.eccentricity,
			period = excluded.period,
			apoapsis = excluded.apoapsis,
			periapsis = excluded.periapsis,
			semimajor_axis = excluded.semimajor_axis,
			synced_at = excluded.synced_at
	`,
		sat.ID,
		sat.NoradCatID,
		sat.ObjectName,
		sat.ObjectType,
		sat.CountryCode,
		nullString(sat.LaunchDate),
		nullString(sat.DecayDate),
		sat.Epoch.UTC().Format(time.RFC3339),
		sat.TLELine1,
		sat.TLELine2,
		sat.Inclination,
		sat.Eccentricity,
		sat.Period,
		sat.Apoapsis,
		sat.Periapsis,
		sat.SemimajorAxis,
		sat.SyncedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("store: upsert satellite %d: %w", sat.NoradCatID, err)
	}
	return nil
}

// Satellites returns every persisted satellite ordered by catalog id.
func (s *Store) Satellites(ctx context.Context) ([]Satellite, error) {
	return s.querySatellites(ctx, `
		SELECT `+satelliteColumns+`
		FROM satellites ORDER BY norad_cat_id
	`)
}

// SatellitesByName returns satellites whose name contains the given
// substring, case-insensitively.
func (s *Store) SatellitesByName(ctx context.Context, name string) ([]Satellite, error) {
	return s.querySatellites(ctx, `
		SELECT `+satelliteColumns+`
		FROM satellites
		WHERE object_name LIKE '%' || ? || '%' COLLATE NOCASE
		ORDER BY norad_cat_id
	`, name)
}

// SatellitesByNamePrefix returns satellites whose name starts with the
// given prefix, case-insensitively. Used for constellation groups such
// as STARLINK or ONEWEB.
func (s *Store) SatellitesByNamePrefix(ctx context.Context, prefix string) ([]Satellite, error) {
	return s.querySatellites(ctx, `
		SELECT `+satelliteColumns+`
		FROM satellites
		WHERE object_name LIKE ? || '%' COLLATE NOCASE
		ORDER BY norad_cat_id
	`, prefix)
}

// SatellitesByNoradIDs returns the satellites matching a fixed set of
// catalog identifiers.
func (s *Store) SatellitesByNoradIDs(ctx context.Context, noradIDs []int) ([]Satellite, error) {
	if len(noradIDs) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(noradIDs))
	args := make([]any, len(noradIDs))
	for i, id := range noradIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT `+satelliteColumns+`
		FROM satellites
		WHERE norad_cat_id IN (%s)
		ORDER BY norad_cat_id
	`, strings.Join(placeholders, ","))
	return s.querySatellites(ctx, query, args...)
}

func (s *Store) querySatellites(ctx context.Context, query string, args ...any) ([]Satellite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("store: query satellites: %w", err)
	}
	defer rows.Close()

	var results []Satellite
	for rows.Next() {
		sat, err := scanSatellite(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, *sat)
	}
	return results, rows.Err()
}

func scanSatellite(sc scanner) (*Satellite, error) {
	var (
		sat        Satellite
		launchDate sql.NullString
		decayDate  sql.NullString
		epoch      string
		syncedAt   string
	)

	err := sc.Scan(
		&sat.ID,
		&sat.NoradCatID,
		&sat.ObjectName,
		&sat.ObjectType,
		&sat.CountryCode,
		&launchDate,
		&decayDate,
		&epoch,
		&sat.TLELine1,
		&sat.TLELine2,
		&sat.Inclination,
		&sat.Eccentricity,
		&sat.Period,
		&sat.Apoapsis,
		&sat.Periapsis,
		&sat.SemimajorAxis,
		&syncedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if launchDate.Valid {
		sat.LaunchDate = launchDate.String
	}
	if decayDate.Valid {
		sat.DecayDate = decayDate.String
	}
	sat.Epoch, _ = time.Parse(time.RFC3339, epoch)
	sat.SyncedAt, _ = time.Parse(time.RFC3339, syncedAt)

	return &sat, nil
}
