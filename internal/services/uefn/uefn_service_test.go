package uefn

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestService(handler http.Handler) (*Service, *httptest.Server) {
	srv := httptest.NewServer(handler)
	s := NewService("client-id", "client-secret")
	s.apiBase = srv.URL
	s.tokenURL = srv.URL + "/token"
	s.pageDelay = 0
	return s, srv
}

func tokenHandler(calls *int32) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if r.Header.Get("Authorization") == "" {
			http.Error(w, "missing basic auth", http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "tok-123",
			"expires_in":   3600,
		})
	}
}

func TestTokenCached(t *testing.T) {
	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/token", tokenHandler(&calls))
	s, srv := newTestService(mux)
	defer srv.Close()

	for i := 0; i < 3; i++ {
		tok, err := s.Token()
		if err != nil {
			t.Fatalf("Token: %v", err)
		}
		if tok != "tok-123" {
			t.Fatalf("token = %q", tok)
		}
	}
	if calls != 1 {
		t.Fatalf("expected 1 token request, got %d", calls)
	}
}

func TestTokenRefreshNearExpiry(t *testing.T) {
	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/token", tokenHandler(&calls))
	s, srv := newTestService(mux)
	defer srv.Close()

	if _, err := s.Token(); err != nil {
		t.Fatalf("Token: %v", err)
	}
	// Force the cached token to the edge of expiry.
	s.mu.Lock()
	s.tokenExpiry = time.Now().Add(30 * time.Second)
	s.mu.Unlock()

	if _, err := s.Token(); err != nil {
		t.Fatalf("Token: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected refresh near expiry, got %d token requests", calls)
	}
}

func islandPage(codes []string, cursors []string) string {
	items := make([]map[string]interface{}, len(codes))
	for i, code := range codes {
		items[i] = map[string]interface{}{
			"code":        code,
			"title":       "Island " + code,
			"creatorCode": "creator-" + code,
			"meta":        map[string]interface{}{"page": map[string]string{"cursor": cursors[i]}},
		}
	}
	b, _ := json.Marshal(map[string]interface{}{
		"data": items,
		"meta": map[string]int{"count": len(items)},
	})
	return string(b)
}

func TestListIslandsPaginatesAndDeduplicates(t *testing.T) {
	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/token", tokenHandler(&calls))
	mux.HandleFunc("/islands", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("cursor") {
		case "":
			fmt.Fprint(w, islandPage([]string{"aaa", "bbb"}, []string{"c1", "c2"}))
		case "c2":
			// bbb repeats across pages and must be deduplicated
			fmt.Fprint(w, islandPage([]string{"bbb", "ccc"}, []string{"c3", ""}))
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("cursor"))
		}
	})
	s, srv := newTestService(mux)
	defer srv.Close()

	islands, err := s.ListIslands(10)
	if err != nil {
		t.Fatalf("ListIslands: %v", err)
	}
	if len(islands) != 3 {
		t.Fatalf("expected 3 unique islands, got %d", len(islands))
	}
	if islands[0].Code != "aaa" || islands[2].Code != "ccc" {
		t.Fatalf("unexpected island order: %+v", islands)
	}
}

func TestListIslandsRespectsLimit(t *testing.T) {
	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/token", tokenHandler(&calls))
	mux.HandleFunc("/islands", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, islandPage([]string{"a", "b", "c"}, []string{"x", "y", "z"}))
	})
	s, srv := newTestService(mux)
	defer srv.Close()

	islands, err := s.ListIslands(2)
	if err != nil {
		t.Fatalf("ListIslands: %v", err)
	}
	if len(islands) != 2 {
		t.Fatalf("expected limit of 2, got %d", len(islands))
	}
}

func TestIslandMetricsLatest(t *testing.T) {
	var calls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/token", tokenHandler(&calls))
	mux.HandleFunc("/islands/abc123/metrics", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"plays":[{"timestamp":"2026-08-27T00:00:00Z","value":10},{"timestamp":"2026-08-28T00:00:00Z","value":15}],
			"uniquePlayers":[{"timestamp":"2026-08-28T00:00:00Z","value":7}],
			"averageMinutesPerPlayer":[{"timestamp":"2026-08-28T00:00:00Z","value":12.5}],
			"peakCCU":[{"timestamp":"2026-08-28T00:00:00Z","value":3}],
			"retention":[{"timestamp":"2026-08-28T00:00:00Z","d1":0.4,"d7":0.1}]
		}`)
	})
	s, srv := newTestService(mux)
	defer srv.Close()

	metrics, err := s.IslandMetrics("abc123")
	if err != nil {
		t.Fatalf("IslandMetrics: %v", err)
	}
	latest := metrics.Latest()
	if latest.Plays != 15 {
		t.Errorf("plays = %d, want 15 (latest point)", latest.Plays)
	}
	if latest.UniquePlayers != 7 || latest.PeakCCU != 3 {
		t.Errorf("unexpected latest: %+v", latest)
	}
	if latest.AvgMinutesPerPlayer != 12.5 {
		t.Errorf("avg minutes = %v", latest.AvgMinutesPerPlayer)
	}
	if latest.RetentionD1 != 0.4 || latest.RetentionD7 != 0.1 {
		t.Errorf("retention = %v/%v", latest.RetentionD1, latest.RetentionD7)
	}
	if latest.Timestamp == nil || latest.Timestamp.Day() != 28 {
		t.Errorf("timestamp = %v", latest.Timestamp)
	}
	if latest.MinutesPlayed != 0 || latest.Favorites != 0 {
		t.Errorf("missing series should be zero, got %+v", latest)
	}
}
