package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	skysync "github.com/skywatch-io/skysync"
)

const sampleGPBody = `[
	{
		"NORAD_CAT_ID": "25544",
		"OBJECT_NAME": "ISS (ZARYA)",
		"OBJECT_TYPE": "PAYLOAD",
		"COUNTRY_CODE": "ISS",
		"LAUNCH_DATE": "1998-11-20",
		"EPOCH": "2026-08-29T12:00:00.123456",
		"TLE_LINE1": "1 25544U 98067A   26241.50000000  .00016717  00000-0  10270-3 0  9005",
		"TLE_LINE2": "2 25544  51.6400 208.9163 0006317  69.9862 290.2553 15.49556658 10000",
		"INCLINATION": "51.6400",
		"ECCENTRICITY": "0.0006317",
		"PERIOD": "92.900",
		"APOAPSIS": "421.400",
		"PERIAPSIS": "413.000",
		"SEMIMAJOR_AXIS": "6795.200"
	},
	{
		"NORAD_CAT_ID": "not-a-number",
		"OBJECT_NAME": "GARBAGE"
	},
	{
		"NORAD_CAT_ID": "20580",
		"OBJECT_NAME": "HST",
		"EPOCH": "2026-08-29T06:30:00",
		"TLE_LINE1": "1 20580U 90037B   26241.27083333  .00000900  00000-0  45000-4 0  9991",
		"TLE_LINE2": "2 20580  28.4690 120.1234 0002500 100.0000 260.1234 15.09300000 10002"
	}
]`

// newTestClient wires a client and session against one test server.
func newTestClient(t *testing.T, handler http.HandlerFunc) *SpaceTrackClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	session := NewSessionCache(srv.URL, "u", "p", srv.Client(), nil)
	return NewSpaceTrackClient(srv.URL, session, srv.Client(), nil)
}

// TestSpaceTrackClient_Fetch verifies GP decoding: string numerics are
// parsed, malformed element sets are skipped and counted, good ones
// survive.
func TestSpaceTrackClient_Fetch(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ajaxauth/login" {
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "ok"})
			return
		}
		if !strings.Contains(r.Header.Get("Cookie"), "session=ok") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(sampleGPBody))
	})

	records, skipped, err := client.Fetch(context.Background(), QueryAllActive())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}

	iss := records[0]
	if iss.NoradCatID != 25544 || iss.ObjectName != "ISS (ZARYA)" {
		t.Errorf("identity fields wrong: %+v", iss)
	}
	if iss.Inclination != 51.64 || iss.SemimajorAxis != 6795.2 {
		t.Errorf("numeric fields not parsed: %+v", iss)
	}
	wantEpoch := time.Date(2026, 8, 29, 12, 0, 0, 123456000, time.UTC)
	if !iss.Epoch.Equal(wantEpoch) {
		t.Errorf("epoch = %v, want %v", iss.Epoch, wantEpoch)
	}
}

// TestSpaceTrackClient_RetryOnRejectedSession verifies a rejected cookie
// triggers exactly one re-login and re-fetch.
func TestSpaceTrackClient_RetryOnRejectedSession(t *testing.T) {
	var logins, queries atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ajaxauth/login" {
			n := logins.Add(1)
			http.SetCookie(w, &http.Cookie{Name: "session", Value: map[int32]string{1: "stale", 2: "fresh"}[n]})
			return
		}
		queries.Add(1)
		if !strings.Contains(r.Header.Get("Cookie"), "session=fresh") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	})

	records, skipped, err := client.Fetch(context.Background(), QueryAllActive())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(records) != 0 || skipped != 0 {
		t.Errorf("records=%d skipped=%d, want 0/0", len(records), skipped)
	}
	if logins.Load() != 2 {
		t.Errorf("logins = %d, want 2", logins.Load())
	}
	if queries.Load() != 2 {
		t.Errorf("queries = %d, want 2", queries.Load())
	}
}

// TestSpaceTrackClient_PersistentRejection verifies the retry is
// attempted exactly once before surfacing ErrFeedUnavailable.
func TestSpaceTrackClient_PersistentRejection(t *testing.T) {
	var queries atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ajaxauth/login" {
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "any"})
			return
		}
		queries.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, _, err := client.Fetch(context.Background(), QueryAllActive())
	if !errors.Is(err, skysync.ErrFeedUnavailable) {
		t.Fatalf("expected ErrFeedUnavailable, got %v", err)
	}
	var feedErr *skysync.FeedError
	if !errors.As(err, &feedErr) || feedErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("unexpected error shape: %v", err)
	}
	if queries.Load() != 2 {
		t.Errorf("queries = %d, want 2 (one retry)", queries.Load())
	}
}

// TestSpaceTrackClient_ServerError verifies a non-auth failure does not
// trigger the re-login path.
func TestSpaceTrackClient_ServerError(t *testing.T) {
	var logins atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ajaxauth/login" {
			logins.Add(1)
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "ok"})
			return
		}
		w.WriteHeader(http.StatusBadGateway)
	})

	_, _, err := client.Fetch(context.Background(), QueryAllActive())
	if !errors.Is(err, skysync.ErrFeedUnavailable) {
		t.Fatalf("expected ErrFeedUnavailable, got %v", err)
	}
	if logins.Load() != 1 {
		t.Errorf("logins = %d, want 1", logins.Load())
	}
}

// TestQueryBuilders pins the query paths against the feed's URL grammar.
func TestQueryBuilders(t *testing.T) {
	cases := []struct {
		name string
		got  string
		want string
	}{
		{"all active", QueryAllActive(),
			"/basicspacedata/query/class/gp/decay_date/null-val/epoch/%3Enow-30/orderby/norad_cat_id/format/json"},
		{"single id", QueryNoradID(25544),
			"/basicspacedata/query/class/gp/decay_date/null-val/epoch/%3Enow-30/NORAD_CAT_ID/25544/format/json"},
		{"id set", QueryNoradIDs([]int{20580, 25544}),
			"/basicspacedata/query/class/gp/decay_date/null-val/epoch/%3Enow-30/NORAD_CAT_ID/20580,25544/orderby/norad_cat_id/format/json"},
		{"starlink", QueryStarlink(),
			"/basicspacedata/query/class/gp/decay_date/null-val/epoch/%3Enow-30/OBJECT_NAME/~~STARLINK/orderby/norad_cat_id/format/json"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.got != tc.want {
				t.Errorf("got  %s\nwant %s", tc.got, tc.want)
			}
		})
	}
}

func TestParseEpoch(t *testing.T) {
	if _, err := parseEpoch("29/08/2026"); err == nil {
		t.Error("expected error for unrecognized format")
	}

	got, err := parseEpoch("2026-08-29T06:30:00")
	if err != nil {
		t.Fatalf("parseEpoch failed: %v", err)
	}
	want := time.Date(2026, 8, 29, 6, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
