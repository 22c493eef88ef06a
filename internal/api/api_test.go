package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	skysync "github.com/skywatch-io/skysync"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type noopSeismic struct{}

func (noopSeismic) Fetch(ctx context.Context, start, end time.Time, minMagnitude float64) ([]skysync.EarthquakeRecord, int, error) {
	return nil, 0, nil
}

func testRouter(t *testing.T) (*gin.Engine, *skysync.Store) {
	t.Helper()
	store, err := skysync.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	svc := skysync.NewService(skysync.DefaultConfig(), store, nil, noopSeismic{}, "", nil)
	return NewRouter(svc, nil), store
}

func seedSatellite(t *testing.T, store *skysync.Store, noradID int, name string) {
	t.Helper()
	sat := &skysync.Satellite{
		ID:         name + "-id",
		NoradCatID: noradID,
		ObjectName: name,
		ObjectType: "PAYLOAD",
		Epoch:      time.Now().UTC().Truncate(time.Second),
		TLELine1:   "1 ...",
		TLELine2:   "2 ...",
		SyncedAt:   time.Now().UTC(),
	}
	if err := store.UpsertSatellite(context.Background(), sat); err != nil {
		t.Fatalf("seed satellite %s: %v", name, err)
	}
}

func seedEarthquake(t *testing.T, store *skysync.Store, eventID string, age time.Duration) {
	t.Helper()
	now := time.Now().UTC()
	q := &skysync.Earthquake{
		ID:        eventID + "-id",
		EventID:   eventID,
		KnownIDs:  []string{eventID},
		Mag:       4.2,
		Place:     "somewhere",
		EventTime: now.Add(-age),
		UpdatedMs: now.UnixMilli(),
		Status:    "reviewed",
		EventType: "earthquake",
		SyncedAt:  now,
	}
	if err := store.UpsertEarthquake(context.Background(), q); err != nil {
		t.Fatalf("seed earthquake %s: %v", eventID, err)
	}
}

func doRequest(t *testing.T, router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// TestHealth verifies the health endpoint reports entity counts.
func TestHealth(t *testing.T) {
	router, store := testRouter(t)
	seedSatellite(t, store, 25544, "ISS (ZARYA)")

	w := doRequest(t, router, http.MethodGet, "/healthz")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
	if body["satellites"].(float64) != 1 {
		t.Errorf("satellites = %v", body["satellites"])
	}
}

// TestGetSatelliteByNoradID covers hit, miss, and bad input.
func TestGetSatelliteByNoradID(t *testing.T) {
	router, store := testRouter(t)
	seedSatellite(t, store, 25544, "ISS (ZARYA)")

	w := doRequest(t, router, http.MethodGet, "/api/satellites/norad/25544")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var sat skysync.Satellite
	if err := json.Unmarshal(w.Body.Bytes(), &sat); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if sat.ObjectName != "ISS (ZARYA)" {
		t.Errorf("name = %q", sat.ObjectName)
	}

	if w := doRequest(t, router, http.MethodGet, "/api/satellites/norad/99999"); w.Code != http.StatusNotFound {
		t.Errorf("miss status = %d, want 404", w.Code)
	}
	if w := doRequest(t, router, http.MethodGet, "/api/satellites/norad/iss"); w.Code != http.StatusBadRequest {
		t.Errorf("bad input status = %d, want 400", w.Code)
	}
}

// TestSatelliteGroups verifies search and the constellation routes.
func TestSatelliteGroups(t *testing.T) {
	router, store := testRouter(t)
	seedSatellite(t, store, 50001, "STARLINK-3001")
	seedSatellite(t, store, 50002, "STARLINK-3002")
	seedSatellite(t, store, 50003, "ONEWEB-0512")

	cases := []struct {
		path string
		want int
	}{
		{"/api/satellites", 3},
		{"/api/satellites/search/starlink", 2},
		{"/api/satellites/starlink", 2},
		{"/api/satellites/oneweb", 1},
		{"/api/satellites/iridium", 0},
	}
	for _, tc := range cases {
		w := doRequest(t, router, http.MethodGet, tc.path)
		if w.Code != http.StatusOK {
			t.Errorf("%s: status = %d", tc.path, w.Code)
			continue
		}
		var sats []skysync.Satellite
		if err := json.Unmarshal(w.Body.Bytes(), &sats); err != nil {
			t.Errorf("%s: decode: %v", tc.path, err)
			continue
		}
		if len(sats) != tc.want {
			t.Errorf("%s: got %d satellites, want %d", tc.path, len(sats), tc.want)
		}
	}
}

// TestGetRecentEarthquakes verifies the hours filter and its validation.
func TestGetRecentEarthquakes(t *testing.T) {
	router, store := testRouter(t)
	seedEarthquake(t, store, "fresh01", 2*time.Hour)
	seedEarthquake(t, store, "stale01", 72*time.Hour)

	w := doRequest(t, router, http.MethodGet, "/api/earthquakes/recent")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var quakes []skysync.Earthquake
	if err := json.Unmarshal(w.Body.Bytes(), &quakes); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(quakes) != 1 || quakes[0].EventID != "fresh01" {
		t.Errorf("default window returned %v", quakes)
	}

	w = doRequest(t, router, http.MethodGet, "/api/earthquakes/recent?hours=100")
	if err := json.Unmarshal(w.Body.Bytes(), &quakes); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if len(quakes) != 2 {
		t.Errorf("wide window returned %d quakes, want 2", len(quakes))
	}

	if w := doRequest(t, router, http.MethodGet, "/api/earthquakes/recent?hours=zero"); w.Code != http.StatusBadRequest {
		t.Errorf("bad hours status = %d, want 400", w.Code)
	}
}

// TestPopulateWithoutFeed verifies the admin trigger accepts the request
// even when the orbital feed is not configured; the failure surfaces in
// the background run, not the response.
func TestPopulateWithoutFeed(t *testing.T) {
	router, _ := testRouter(t)

	w := doRequest(t, router, http.MethodPost, "/api/satellites/populate")
	if w.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", w.Code)
	}
}
