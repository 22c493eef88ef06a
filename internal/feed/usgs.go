package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	skysync "github.com/skywatch-io/skysync"
)

// USGSClient fetches earthquake events from the unauthenticated seismic
// feed. The feed wraps records in a GeoJSON feature collection; the
// client flattens the features and discards the envelope metadata.
type USGSClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewUSGSClient creates a seismic feed client.
func NewUSGSClient(baseURL string, httpClient *http.Client, logger *slog.Logger) *USGSClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &USGSClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: httpClient,
		logger:     logger.With("component", "usgs"),
	}
}

// Fetch retrieves events between start and end with at least the given
// magnitude.
func (c *USGSClient) Fetch(ctx context.Context, start, end time.Time, minMagnitude float64) ([]skysync.EarthquakeRecord, int, error) {
	q := url.Values{}
	q.Set("format", "geojson")
	q.Set("starttime", start.UTC().Format("2006-01-02"))
	q.Set("endtime", end.UTC().Format("2006-01-02"))
	q.Set("minmagnitude", fmt.Sprintf("%g", minMagnitude))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/query?"+q.Encode(), nil)
	if err != nil {
		return nil, 0, &skysync.FeedError{Feed: "usgs", Operation: "fetch", Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, &skysync.FeedError{Feed: "usgs", Operation: "fetch", Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, 0, &skysync.FeedError{
			Feed:       "usgs",
			Operation:  "fetch",
			StatusCode: resp.StatusCode,
			Err:        skysync.ErrFeedUnavailable,
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, &skysync.FeedError{Feed: "usgs", Operation: "fetch", Err: err}
	}

	return c.decode(body)
}

func (c *USGSClient) decode(body []byte) ([]skysync.EarthquakeRecord, int, error) {
	var envelope struct {
		Features []json.RawMessage `json:"features"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, 0, &skysync.FeedError{Feed: "usgs", Operation: "decode", Err: err}
	}

	records := make([]skysync.EarthquakeRecord, 0, len(envelope.Features))
	skipped := 0
	for _, msg := range envelope.Features {
		rec, err := parseFeature(msg)
		if err != nil {
			skipped++
			c.logger.Warn("skipping malformed feature", "error", err)
			continue
		}
		records = append(records, rec)
	}

	if skipped > 0 {
		c.logger.Info("fetch complete with skips", "records", len(records), "skipped", skipped)
	}
	return records, skipped, nil
}

// feature mirrors one GeoJSON feature from the feed. Pointer fields are
// nullable upstream.
type feature struct {
	ID         string `json:"id"`
	Properties struct {
		Mag     *float64 `json:"mag"`
		Place   string   `json:"place"`
		Time    *int64   `json:"time"`
		Updated *int64   `json:"updated"`
		Tz      int      `json:"tz"`
		Cdi     *float64 `json:"cdi"`
		Mmi     *float64 `json:"mmi"`
		Alert   string   `json:"alert"`
		Status  string   `json:"status"`
		Tsunami int      `json:"tsunami"`
		Sig     int      `json:"sig"`
		Nst     int      `json:"nst"`
		Dmin    *float64 `json:"dmin"`
		Type    string   `json:"type"`
		IDs     string   `json:"ids"`
	} `json:"properties"`
	Geometry struct {
		Coordinates []float64 `json:"coordinates"` // [longitude, latitude, depth]
	} `json:"geometry"`
}

func parseFeature(msg json.RawMessage) (skysync.EarthquakeRecord, error) {
	var f feature
	if err := json.Unmarshal(msg, &f); err != nil {
		return skysync.EarthquakeRecord{}, err
	}

	if f.ID == "" {
		return skysync.EarthquakeRecord{}, fmt.Errorf("feature missing id")
	}
	if f.Properties.Time == nil || f.Properties.Updated == nil {
		return skysync.EarthquakeRecord{}, fmt.Errorf("feature %s: missing time or updated", f.ID)
	}
	if len(f.Geometry.Coordinates) < 3 {
		return skysync.EarthquakeRecord{}, fmt.Errorf("feature %s: incomplete coordinates", f.ID)
	}

	rec := skysync.EarthquakeRecord{
		EventID:      f.ID,
		IDs:          skysync.SplitIDs(f.Properties.IDs),
		Place:        f.Properties.Place,
		TimeMs:       *f.Properties.Time,
		UpdatedMs:    *f.Properties.Updated,
		TzOffset:     f.Properties.Tz,
		Cdi:          f.Properties.Cdi,
		Mmi:          f.Properties.Mmi,
		Alert:        f.Properties.Alert,
		Status:       f.Properties.Status,
		Tsunami:      f.Properties.Tsunami,
		Significance: f.Properties.Sig,
		StationCount: f.Properties.Nst,
		Dmin:         f.Properties.Dmin,
		EventType:    f.Properties.Type,
		Longitude:    f.Geometry.Coordinates[0],
		Latitude:     f.Geometry.Coordinates[1],
		DepthKm:      f.Geometry.Coordinates[2],
	}
	if f.Properties.Mag != nil {
		rec.Mag = *f.Properties.Mag
	}
	return rec, nil
}
