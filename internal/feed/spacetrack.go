package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	skysync "github.com/skywatch-io/skysync"
)

// DefaultCatalogIDs is the fixed interest set of well-known objects the
// history endpoint serves.
var DefaultCatalogIDs = []int{
	20580, // Hubble
	25544, // ISS
	48274, // Tiangong
	39084, // Landsat 8
	49260, // Landsat 9
	27386, // Envisat
	27424, // Aqua
	25994, // Terra
	41240, // Jason-3
	39634, // Sentinel-1A
	41456, // Sentinel-1B
	40697, // Sentinel-2A
	42063, // Sentinel-2B
	43613, // ICESat-2
	41866, // GOES-16 (East)
	53106, // GOES-18 (West)
}

// GP query paths. All builders restrict to undecayed objects with an
// element set fresher than 30 days.
const gpQueryPrefix = "/basicspacedata/query/class/gp/decay_date/null-val/epoch/%3Enow-30"

// QueryAllActive selects every active object in the catalog.
func QueryAllActive() string {
	return gpQueryPrefix + "/orderby/norad_cat_id/format/json"
}

// QueryNameContains selects objects whose name contains the substring.
func QueryNameContains(name string) string {
	return gpQueryPrefix + "/OBJECT_NAME/~~" + url.PathEscape(name) + "/orderby/norad_cat_id/format/json"
}

// QueryNoradID selects a single object by catalog identifier.
func QueryNoradID(noradID int) string {
	return gpQueryPrefix + "/NORAD_CAT_ID/" + strconv.Itoa(noradID) + "/format/json"
}

// QueryNoradIDs selects a fixed set of catalog identifiers.
func QueryNoradIDs(noradIDs []int) string {
	parts := make([]string, len(noradIDs))
	for i, id := range noradIDs {
		parts[i] = strconv.Itoa(id)
	}
	return gpQueryPrefix + "/NORAD_CAT_ID/" + strings.Join(parts, ",") + "/orderby/norad_cat_id/format/json"
}

// Constellation group queries.
func QueryStarlink() string { return QueryNameContains("STARLINK") }
func QueryOneWeb() string   { return QueryNameContains("ONEWEB") }
func QueryIridium() string  { return QueryNameContains("IRIDIUM") }

// SpaceTrackClient fetches GP element sets from the authenticated
// orbital feed, attaching the cached session cookie to every request.
type SpaceTrackClient struct {
	baseURL    string
	session    *SessionCache
	httpClient *http.Client
	logger     *slog.Logger
}

// NewSpaceTrackClient creates a client over the given session cache.
func NewSpaceTrackClient(baseURL string, session *SessionCache, httpClient *http.Client, logger *slog.Logger) *SpaceTrackClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SpaceTrackClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		session:    session,
		httpClient: httpClient,
		logger:     logger.With("component", "spacetrack"),
	}
}

// Fetch runs a GP query. On an authentication rejection it clears the
// session cache and retries exactly once with a fresh cookie before
// surfacing ErrFeedUnavailable.
func (c *SpaceTrackClient) Fetch(ctx context.Context, query string) ([]skysync.SatelliteRecord, int, error) {
	body, status, err := c.get(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		c.logger.Warn("session rejected, retrying with fresh login", "status", status)
		c.session.Invalidate()
		body, status, err = c.get(ctx, query)
		if err != nil {
			return nil, 0, err
		}
	}

	if status < 200 || status >= 300 {
		return nil, 0, &skysync.FeedError{
			Feed:       "spacetrack",
			Operation:  "fetch",
			StatusCode: status,
			Err:        skysync.ErrFeedUnavailable,
		}
	}

	return c.decode(body)
}

// get performs one authenticated GET and returns the body and status.
// Transport failures and login failures surface as errors; HTTP status
// handling is the caller's.
func (c *SpaceTrackClient) get(ctx context.Context, query string) ([]byte, int, error) {
	cookie, err := c.session.Cookie(ctx)
	if err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+query, nil)
	if err != nil {
		return nil, 0, &skysync.FeedError{Feed: "spacetrack", Operation: "fetch", Err: err}
	}
	req.Header.Set("Cookie", cookie)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, &skysync.FeedError{Feed: "spacetrack", Operation: "fetch", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, &skysync.FeedError{Feed: "spacetrack", Operation: "fetch", Err: err}
	}
	return body, resp.StatusCode, nil
}

func (c *SpaceTrackClient) decode(body []byte) ([]skysync.SatelliteRecord, int, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, 0, &skysync.FeedError{Feed: "spacetrack", Operation: "decode", Err: err}
	}

	records := make([]skysync.SatelliteRecord, 0, len(raw))
	skipped := 0
	for _, msg := range raw {
		rec, err := parseGPElement(msg)
		if err != nil {
			skipped++
			c.logger.Warn("skipping malformed element set", "error", err)
			continue
		}
		records = append(records, rec)
	}

	if skipped > 0 {
		c.logger.Info("fetch complete with skips", "records", len(records), "skipped", skipped)
	}
	return records, skipped, nil
}

// gpElement mirrors the feed's wire format. The GP class reports every
// value as a JSON string, numerics included.
type gpElement struct {
	NoradCatID    string `json:"NORAD_CAT_ID"`
	ObjectName    string `json:"OBJECT_NAME"`
	ObjectType    string `json:"OBJECT_TYPE"`
	CountryCode   string `json:"COUNTRY_CODE"`
	LaunchDate    string `json:"LAUNCH_DATE"`
	DecayDate     string `json:"DECAY_DATE"`
	Epoch         string `json:"EPOCH"`
	TLELine1      string `json:"TLE_LINE1"`
	TLELine2      string `json:"TLE_LINE2"`
	Inclination   string `json:"INCLINATION"`
	Eccentricity  string `json:"ECCENTRICITY"`
	Period        string `json:"PERIOD"`
	Apoapsis      string `json:"APOAPSIS"`
	Periapsis     string `json:"PERIAPSIS"`
	SemimajorAxis string `json:"SEMIMAJOR_AXIS"`
}

func parseGPElement(msg json.RawMessage) (skysync.SatelliteRecord, error) {
	var el gpElement
	if err := json.Unmarshal(msg, &el); err != nil {
		return skysync.SatelliteRecord{}, err
	}

	noradID, err := strconv.Atoi(el.NoradCatID)
	if err != nil {
		return skysync.SatelliteRecord{}, fmt.Errorf("norad_cat_id %q: %w", el.NoradCatID, err)
	}
	if el.TLELine1 == "" || el.TLELine2 == "" {
		return skysync.SatelliteRecord{}, fmt.Errorf("object %d: missing element lines", noradID)
	}

	epoch, err := parseEpoch(el.Epoch)
	if err != nil {
		return skysync.SatelliteRecord{}, fmt.Errorf("object %d: %w", noradID, err)
	}

	rec := skysync.SatelliteRecord{
		NoradCatID:  noradID,
		ObjectName:  el.ObjectName,
		ObjectType:  el.ObjectType,
		CountryCode: el.CountryCode,
		LaunchDate:  el.LaunchDate,
		DecayDate:   el.DecayDate,
		Epoch:       epoch,
		TLELine1:    el.TLELine1,
		TLELine2:    el.TLELine2,
	}

	for _, f := range []struct {
		name string
		raw  string
		dst  *float64
	}{
		{"inclination", el.Inclination, &rec.Inclination},
		{"eccentricity", el.Eccentricity, &rec.Eccentricity},
		{"period", el.Period, &rec.Period},
		{"apoapsis", el.Apoapsis, &rec.Apoapsis},
		{"periapsis", el.Periapsis, &rec.Periapsis},
		{"semimajor_axis", el.SemimajorAxis, &rec.SemimajorAxis},
	} {
		if f.raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(f.raw, 64)
		if err != nil {
			return skysync.SatelliteRecord{}, fmt.Errorf("object %d: %s %q: %w", noradID, f.name, f.raw, err)
		}
		*f.dst = v
	}

	return rec, nil
}

// parseEpoch handles the feed's zoneless timestamps, with or without
// fractional seconds. Values are UTC.
func parseEpoch(raw string) (time.Time, error) {
	for _, layout := range []string{
		"2006-01-02T15:04:05.999999",
		"2006-01-02T15:04:05",
	} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("epoch %q: unrecognized format", raw)
}
