// Package collector runs the scheduled fetch-aggregate-write loops that feed
// the snapshot tables.
package collector

import (
	"context"
	"fmt"
	"log"
	"time"

	"game-pulse/internal/models"
	"game-pulse/internal/services/steam"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SteamAPI is the slice of the Steam client the collector needs.
type SteamAPI interface {
	GetMostPlayedGames(limit int) ([]steam.ChartEntry, error)
	GetAppDetails(appID int) (*steam.AppDetails, error)
	GetCurrentPlayers(appID int) (int, error)
	GetReviewSummary(appID int) (*steam.ReviewSummary, error)
}

type SteamConfig struct {
	Interval     time.Duration
	TopGames     int
	RequestDelay time.Duration
}

// SteamCollector polls the most-played chart and writes append-only
// snapshots plus per-genre benchmarks.
type SteamCollector struct {
	db  *gorm.DB
	api SteamAPI
	cfg SteamConfig
}

func NewSteamCollector(db *gorm.DB, api SteamAPI, cfg SteamConfig) *SteamCollector {
	return &SteamCollector{db: db, api: api, cfg: cfg}
}

// fetchResult carries the outcome of fetching one tracked app. A cycle keeps
// every result, failed or not; aggregation and writes only consume the Ok ones.
type fetchResult struct {
	entry   steam.ChartEntry
	details *steam.AppDetails
	players int
	reviews *steam.ReviewSummary
	err     error
}

func (r fetchResult) ok() bool { return r.err == nil }

// Run executes collection cycles until ctx is cancelled. A failed cycle is
// logged and retried on the next tick.
func (c *SteamCollector) Run(ctx context.Context) {
	log.Printf("[steam-collector] starting (interval %s, top %d games)", c.cfg.Interval, c.cfg.TopGames)

	for {
		start := time.Now()
		if err := c.RunCycle(start); err != nil {
			log.Printf("[steam-collector] cycle failed: %v", err)
		} else {
			log.Printf("[steam-collector] cycle completed in %s, next in %s", time.Since(start).Round(time.Second), c.cfg.Interval)
		}

		select {
		case <-ctx.Done():
			log.Println("[steam-collector] stopped")
			return
		case <-time.After(c.cfg.Interval):
		}
	}
}

// RunCycle performs one Fetching -> Aggregating -> Writing pass. Every row
// written during the cycle shares one collection timestamp.
func (c *SteamCollector) RunCycle(now time.Time) error {
	collectedAt := now.UTC().Truncate(time.Second)

	entries, err := c.api.GetMostPlayedGames(c.cfg.TopGames)
	if err != nil {
		return fmt.Errorf("fetching most-played chart: %w", err)
	}
	log.Printf("[steam-collector] fetched chart with %d games", len(entries))

	results := c.fetchAll(entries)

	benchmarks := genreBenchmarks(results, collectedAt)

	if err := c.write(results, benchmarks, collectedAt); err != nil {
		return fmt.Errorf("writing snapshots: %w", err)
	}

	okCount := 0
	for _, r := range results {
		if r.ok() {
			okCount++
		}
	}
	log.Printf("[steam-collector] wrote %d/%d games, %d genre benchmarks", okCount, len(results), len(benchmarks))
	return nil
}

// fetchAll gathers per-app details sequentially, pacing requests with the
// configured delay. A failure for one app never aborts the cycle.
func (c *SteamCollector) fetchAll(entries []steam.ChartEntry) []fetchResult {
	results := make([]fetchResult, 0, len(entries))
	for i, entry := range entries {
		if i > 0 && c.cfg.RequestDelay > 0 {
			time.Sleep(c.cfg.RequestDelay)
		}

		r := fetchResult{entry: entry, players: entry.ConcurrentInGame}

		details, err := c.api.GetAppDetails(entry.AppID)
		if err != nil {
			r.err = err
			log.Printf("[steam-collector] skipping appid %d: %v", entry.AppID, err)
			results = append(results, r)
			continue
		}
		r.details = details

		// The chart value is a fallback if the live count is unavailable.
		if count, err := c.api.GetCurrentPlayers(entry.AppID); err == nil {
			r.players = count
		} else {
			log.Printf("[steam-collector] appid %d: live player count unavailable: %v", entry.AppID, err)
		}

		if reviews, err := c.api.GetReviewSummary(entry.AppID); err == nil {
			r.reviews = reviews
		} else {
			log.Printf("[steam-collector] appid %d: review summary unavailable: %v", entry.AppID, err)
		}

		results = append(results, r)
	}
	return results
}

// write persists one cycle's snapshots in a single transaction. Duplicate
// snapshots for the same (appid, collected_at) hit the uniqueness constraint
// and are skipped silently; benchmarks are upserted in place.
func (c *SteamCollector) write(results []fetchResult, benchmarks []models.GenreBenchmark, collectedAt time.Time) error {
	var (
		games   []models.GameSnapshot
		players []models.PlayerHistory
		prices  []models.PriceSnapshot
		reviews []models.ReviewSnapshot
	)

	for _, r := range results {
		if !r.ok() {
			continue
		}
		d := r.details
		games = append(games, models.GameSnapshot{
			AppID:           d.AppID,
			Name:            d.Name,
			CurrentPlayers:  r.players,
			PeakPlayers:     r.entry.PeakInGame,
			ReleaseDate:     d.ReleaseDate,
			Developer:       d.Developer,
			Publisher:       d.Publisher,
			Genres:          d.Genres,
			Categories:      d.Categories,
			Languages:       d.Languages,
			MetacriticScore: d.MetacriticScore,
			PriceUSD:        d.PriceUSD,
			CollectedAt:     collectedAt,
		})
		players = append(players, models.PlayerHistory{
			AppID:       d.AppID,
			PlayerCount: r.players,
			CollectedAt: collectedAt,
		})
		prices = append(prices, models.PriceSnapshot{
			AppID:           d.AppID,
			InitialPrice:    d.InitialPrice,
			FinalPrice:      d.FinalPrice,
			DiscountPercent: d.DiscountPercent,
			Currency:        d.Currency,
			CollectedAt:     collectedAt,
		})
		if r.reviews != nil {
			reviews = append(reviews, models.ReviewSnapshot{
				AppID:         d.AppID,
				ReviewScore:   r.reviews.ReviewScore,
				ReviewDesc:    r.reviews.ReviewDesc,
				TotalPositive: r.reviews.TotalPositive,
				TotalNegative: r.reviews.TotalNegative,
				TotalReviews:  r.reviews.TotalReviews,
				CollectedAt:   collectedAt,
			})
		}
	}

	return c.db.Transaction(func(tx *gorm.DB) error {
		skipDupes := clause.OnConflict{DoNothing: true}

		if len(games) > 0 {
			if err := tx.Clauses(skipDupes).Create(&games).Error; err != nil {
				return err
			}
		}
		if len(players) > 0 {
			if err := tx.Clauses(skipDupes).Create(&players).Error; err != nil {
				return err
			}
		}
		if len(prices) > 0 {
			if err := tx.Clauses(skipDupes).Create(&prices).Error; err != nil {
				return err
			}
		}
		if len(reviews) > 0 {
			if err := tx.Clauses(skipDupes).Create(&reviews).Error; err != nil {
				return err
			}
		}
		if len(benchmarks) > 0 {
			if err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "genre"}, {Name: "collected_at"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"total_games", "total_players", "avg_player_count",
					"avg_review_score", "avg_price", "market_activity_score",
					"community_engagement_score", "dlc_adoption_rate", "sentiment_score",
				}),
			}).Create(&benchmarks).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
