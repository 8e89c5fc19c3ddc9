package collector

import (
	"errors"
	"testing"
	"time"

	"game-pulse/internal/database"
	"game-pulse/internal/models"
	"game-pulse/internal/services/steam"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// newTestDB returns a migrated in-memory sqlite database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type stubSteamAPI struct {
	chart      []steam.ChartEntry
	chartErr   error
	details    map[int]*steam.AppDetails
	detailsErr map[int]error
	players    map[int]int
	playersErr map[int]error
	reviews    map[int]*steam.ReviewSummary
	reviewsErr map[int]error
}

func (s *stubSteamAPI) GetMostPlayedGames(limit int) ([]steam.ChartEntry, error) {
	if s.chartErr != nil {
		return nil, s.chartErr
	}
	if limit > 0 && len(s.chart) > limit {
		return s.chart[:limit], nil
	}
	return s.chart, nil
}

func (s *stubSteamAPI) GetAppDetails(appID int) (*steam.AppDetails, error) {
	if err := s.detailsErr[appID]; err != nil {
		return nil, err
	}
	return s.details[appID], nil
}

func (s *stubSteamAPI) GetCurrentPlayers(appID int) (int, error) {
	if err := s.playersErr[appID]; err != nil {
		return 0, err
	}
	return s.players[appID], nil
}

func (s *stubSteamAPI) GetReviewSummary(appID int) (*steam.ReviewSummary, error) {
	if err := s.reviewsErr[appID]; err != nil {
		return nil, err
	}
	if r, ok := s.reviews[appID]; ok {
		return r, nil
	}
	return nil, errors.New("no reviews")
}

func metacritic(score int) *int { return &score }

func twoGameStub() *stubSteamAPI {
	return &stubSteamAPI{
		chart: []steam.ChartEntry{
			{Rank: 1, AppID: 730, ConcurrentInGame: 900000, PeakInGame: 1400000},
			{Rank: 2, AppID: 440, ConcurrentInGame: 80000, PeakInGame: 100000},
		},
		details: map[int]*steam.AppDetails{
			730: {AppID: 730, Name: "Counter-Strike 2", Genres: []string{"Action"}, PriceUSD: 0, MetacriticScore: metacritic(83)},
			440: {AppID: 440, Name: "Team Fortress 2", Genres: []string{"Action", "Free to Play"}, PriceUSD: 9.99, MetacriticScore: metacritic(92)},
		},
		players: map[int]int{730: 912345, 440: 81234},
		reviews: map[int]*steam.ReviewSummary{
			730: {AppID: 730, ReviewScore: 8, ReviewDesc: "Very Positive", TotalPositive: 90, TotalNegative: 10, TotalReviews: 100},
		},
	}
}

func newSteamCollector(db *gorm.DB, api SteamAPI) *SteamCollector {
	return NewSteamCollector(db, api, SteamConfig{Interval: time.Hour, TopGames: 10})
}

func TestSteamCycleWritesSnapshots(t *testing.T) {
	db := newTestDB(t)
	c := newSteamCollector(db, twoGameStub())

	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	if err := c.RunCycle(now); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}

	var games []models.GameSnapshot
	if err := db.Order("app_id ASC").Find(&games).Error; err != nil {
		t.Fatalf("query games: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("expected 2 game snapshots, got %d", len(games))
	}
	if games[0].AppID != 440 || games[0].Name != "Team Fortress 2" {
		t.Fatalf("unexpected snapshot: %+v", games[0])
	}
	if !games[0].CollectedAt.Equal(games[1].CollectedAt) {
		t.Error("snapshots of one cycle must share a timestamp")
	}

	// Live player count, not the chart value.
	var ph models.PlayerHistory
	if err := db.Where("app_id = ?", 730).First(&ph).Error; err != nil {
		t.Fatalf("query player history: %v", err)
	}
	if ph.PlayerCount != 912345 {
		t.Errorf("player count = %d, want live value 912345", ph.PlayerCount)
	}

	var reviewCount int64
	db.Model(&models.ReviewSnapshot{}).Count(&reviewCount)
	if reviewCount != 1 {
		t.Errorf("expected 1 review snapshot (only 730 has reviews), got %d", reviewCount)
	}

	var benchCount int64
	db.Model(&models.GenreBenchmark{}).Count(&benchCount)
	if benchCount != 2 { // Action, Free to Play
		t.Errorf("expected 2 genre benchmarks, got %d", benchCount)
	}
}

func TestSteamCyclePartialFailure(t *testing.T) {
	db := newTestDB(t)
	stub := twoGameStub()
	stub.detailsErr = map[int]error{730: errors.New("store unavailable")}
	c := newSteamCollector(db, stub)

	if err := c.RunCycle(time.Now()); err != nil {
		t.Fatalf("a single failed app must not fail the cycle: %v", err)
	}

	var appIDs []int
	db.Model(&models.GameSnapshot{}).Pluck("app_id", &appIDs)
	if len(appIDs) != 1 || appIDs[0] != 440 {
		t.Fatalf("expected snapshot for 440 only, got %v", appIDs)
	}
}

func TestSteamCycleChartFailureAbortsCycle(t *testing.T) {
	db := newTestDB(t)
	stub := twoGameStub()
	stub.chartErr = errors.New("connection refused")
	c := newSteamCollector(db, stub)

	if err := c.RunCycle(time.Now()); err == nil {
		t.Fatal("expected error when the chart fetch fails")
	}
	var count int64
	db.Model(&models.GameSnapshot{}).Count(&count)
	if count != 0 {
		t.Fatalf("no rows should be written on an aborted cycle, got %d", count)
	}
}

func TestSteamCycleIdempotentAtSameTimestamp(t *testing.T) {
	db := newTestDB(t)
	c := newSteamCollector(db, twoGameStub())

	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	if err := c.RunCycle(now); err != nil {
		t.Fatalf("first cycle: %v", err)
	}
	if err := c.RunCycle(now); err != nil {
		t.Fatalf("repeated cycle must be a benign no-op: %v", err)
	}

	counts := map[string]interface{}{
		"games":            &models.GameSnapshot{},
		"player_history":   &models.PlayerHistory{},
		"price_history":    &models.PriceSnapshot{},
		"genre_benchmarks": &models.GenreBenchmark{},
	}
	want := map[string]int64{"games": 2, "player_history": 2, "price_history": 2, "genre_benchmarks": 2}
	for table, model := range counts {
		var n int64
		db.Model(model).Count(&n)
		if n != want[table] {
			t.Errorf("%s: %d rows after rerun, want %d", table, n, want[table])
		}
	}
}

func TestSteamCyclePlayerCountFallback(t *testing.T) {
	db := newTestDB(t)
	stub := twoGameStub()
	stub.playersErr = map[int]error{730: errors.New("timeout")}
	c := newSteamCollector(db, stub)

	if err := c.RunCycle(time.Now()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	var ph models.PlayerHistory
	if err := db.Where("app_id = ?", 730).First(&ph).Error; err != nil {
		t.Fatalf("query player history: %v", err)
	}
	if ph.PlayerCount != 900000 {
		t.Errorf("player count = %d, want chart fallback 900000", ph.PlayerCount)
	}
}
