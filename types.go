package skysync

import (
	"strings"
	"time"
)

// Satellite is a persisted orbital object. The ID is assigned by the
// store on first insert and never changes; NoradCatID is the feed's
// catalog identifier and is unique across live rows.
type Satellite struct {
	ID            string    `json:"id"`
	NoradCatID    int       `json:"norad_cat_id"`
	ObjectName    string    `json:"object_name"`
	ObjectType    string    `json:"object_type"`
	CountryCode   string    `json:"country_code"`
	LaunchDate    string    `json:"launch_date,omitempty"`
	DecayDate     string    `json:"decay_date,omitempty"`
	Epoch         time.Time `json:"epoch"`
	TLELine1      string    `json:"tle_line1"`
	TLELine2      string    `json:"tle_line2"`
	Inclination   float64   `json:"inclination"`
	Eccentricity  float64   `json:"eccentricity"`
	Period        float64   `json:"period"`
	Apoapsis      float64   `json:"apoapsis"`
	Periapsis     float64   `json:"periapsis"`
	SemimajorAxis float64   `json:"semimajor_axis"`
	SyncedAt      time.Time `json:"synced_at"`
}

// Earthquake is a persisted seismic event. EventID is the feed's current
// preferred identifier; KnownIDs accumulates every identifier the feed
// has ever published for the event and is always a superset of EventID.
type Earthquake struct {
	ID           string    `json:"id"`
	EventID      string    `json:"event_id"`
	KnownIDs     []string  `json:"known_ids"`
	Mag          float64   `json:"mag"`
	Place        string    `json:"place"`
	EventTime    time.Time `json:"event_time"`
	UpdatedMs    int64     `json:"updated_ms"`
	TzOffset     int       `json:"tz_offset"`
	Cdi          *float64  `json:"cdi,omitempty"`
	Mmi          *float64  `json:"mmi,omitempty"`
	Alert        string    `json:"alert,omitempty"`
	Status       string    `json:"status"`
	Tsunami      int       `json:"tsunami"`
	Significance int       `json:"significance"`
	StationCount int       `json:"station_count"`
	Dmin         *float64  `json:"dmin,omitempty"`
	EventType    string    `json:"event_type"`
	Longitude    float64   `json:"longitude"`
	Latitude     float64   `json:"latitude"`
	DepthKm      float64   `json:"depth_km"`
	SyncedAt     time.Time `json:"synced_at"`
}

// HasKnownID reports whether id appears in the accumulated identifier set.
func (e *Earthquake) HasKnownID(id string) bool {
	for _, known := range e.KnownIDs {
		if known == id {
			return true
		}
	}
	return false
}

// MergeKnownIDs adds any identifiers from ids not already tracked.
// The set only ever grows.
func (e *Earthquake) MergeKnownIDs(ids []string) {
	for _, id := range ids {
		if id != "" && !e.HasKnownID(id) {
			e.KnownIDs = append(e.KnownIDs, id)
		}
	}
}

// SatelliteRecord is one GP element set as reported by the orbital feed.
type SatelliteRecord struct {
	NoradCatID    int
	ObjectName    string
	ObjectType    string
	CountryCode   string
	LaunchDate    string
	DecayDate     string
	Epoch         time.Time
	TLELine1      string
	TLELine2      string
	Inclination   float64
	Eccentricity  float64
	Period        float64
	Apoapsis      float64
	Periapsis     float64
	SemimajorAxis float64
}

// EarthquakeRecord is one flattened feature from the seismic feed.
// IDs lists every identifier the feed has published for the event in
// feed order; the current identifier is EventID.
type EarthquakeRecord struct {
	EventID      string
	IDs          []string
	Mag          float64
	Place        string
	TimeMs       int64
	UpdatedMs    int64
	TzOffset     int
	Cdi          *float64
	Mmi          *float64
	Alert        string
	Status       string
	Tsunami      int
	Significance int
	StationCount int
	Dmin         *float64
	EventType    string
	Longitude    float64
	Latitude     float64
	DepthKm      float64
}

// SplitIDs parses the feed's comma-separated identifier list, trimming
// whitespace and dropping empty entries.
func SplitIDs(raw string) []string {
	parts := strings.Split(raw, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}

// OutcomeKind classifies what a reconciliation did with one record.
type OutcomeKind int

const (
	OutcomeNoOp OutcomeKind = iota
	OutcomeUpdated
	OutcomeInserted
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeNoOp:
		return "noop"
	case OutcomeUpdated:
		return "updated"
	case OutcomeInserted:
		return "inserted"
	default:
		return "unknown"
	}
}

// PassStats aggregates one reconciliation pass.
type PassStats struct {
	Fetched  int           `json:"fetched"`
	NoOps    int           `json:"noops"`
	Updated  int           `json:"updated"`
	Inserted int           `json:"inserted"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration"`
}
