package skysync

import (
	"time"

	"github.com/oklog/ulid/v2"
)

// newSatellite maps a feed record to a brand-new persisted satellite.
// Used only on the insert path; updates go through applySatelliteFields.
func newSatellite(rec SatelliteRecord, now time.Time) *Satellite {
	return &Satellite{
		ID:            ulid.Make().String(),
		NoradCatID:    rec.NoradCatID,
		ObjectName:    rec.ObjectName,
		ObjectType:    rec.ObjectType,
		CountryCode:   rec.CountryCode,
		LaunchDate:    rec.LaunchDate,
		DecayDate:     rec.DecayDate,
		Epoch:         rec.Epoch,
		TLELine1:      rec.TLELine1,
		TLELine2:      rec.TLELine2,
		Inclination:   rec.Inclination,
		Eccentricity:  rec.Eccentricity,
		Period:        rec.Period,
		Apoapsis:      rec.Apoapsis,
		Periapsis:     rec.Periapsis,
		SemimajorAxis: rec.SemimajorAxis,
		SyncedAt:      now,
	}
}

// newEarthquake maps a feed record to a brand-new persisted earthquake.
func newEarthquake(rec EarthquakeRecord, now time.Time) *Earthquake {
	q := &Earthquake{
		ID:           ulid.Make().String(),
		EventID:      rec.EventID,
		Mag:          rec.Mag,
		Place:        rec.Place,
		EventTime:    time.UnixMilli(rec.TimeMs).UTC(),
		UpdatedMs:    rec.UpdatedMs,
		TzOffset:     rec.TzOffset,
		Cdi:          rec.Cdi,
		Mmi:          rec.Mmi,
		Alert:        rec.Alert,
		Status:       rec.Status,
		Tsunami:      rec.Tsunami,
		Significance: rec.Significance,
		StationCount: rec.StationCount,
		Dmin:         rec.Dmin,
		EventType:    rec.EventType,
		Longitude:    rec.Longitude,
		Latitude:     rec.Latitude,
		DepthKm:      rec.DepthKm,
		SyncedAt:     now,
	}
	q.MergeKnownIDs(rec.IDs)
	q.MergeKnownIDs([]string{rec.EventID})
	return q
}
