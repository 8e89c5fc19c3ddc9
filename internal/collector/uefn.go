package collector

import (
	"context"
	"fmt"
	"log"
	"time"

	"game-pulse/internal/models"
	"game-pulse/internal/services/fortnite"
	"game-pulse/internal/services/uefn"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// UEFNAPI is the slice of the Epic ecosystem client the collector needs.
type UEFNAPI interface {
	ListIslands(limit int) ([]uefn.Island, error)
	IslandMetrics(code string) (*uefn.Metrics, error)
}

// ShopAPI fetches the current Fortnite item shop.
type ShopAPI interface {
	GetShop() ([]fortnite.ShopEntry, error)
}

type UEFNConfig struct {
	Interval     time.Duration
	TopGames     int
	RequestDelay time.Duration
}

// UEFNCollector tracks creative islands and the item shop. Island metrics
// are a daily upsert keyed on (game_id, date): polling again the same day
// replaces the row. Shop history is append-only like the Steam tables.
type UEFNCollector struct {
	db   *gorm.DB
	api  UEFNAPI
	shop ShopAPI
	cfg  UEFNConfig
}

func NewUEFNCollector(db *gorm.DB, api UEFNAPI, shop ShopAPI, cfg UEFNConfig) *UEFNCollector {
	return &UEFNCollector{db: db, api: api, shop: shop, cfg: cfg}
}

// Run executes collection cycles until ctx is cancelled.
func (c *UEFNCollector) Run(ctx context.Context) {
	log.Printf("[uefn-collector] starting (interval %s, top %d islands)", c.cfg.Interval, c.cfg.TopGames)

	for {
		start := time.Now()
		if err := c.RunCycle(start); err != nil {
			log.Printf("[uefn-collector] cycle failed: %v", err)
		} else {
			log.Printf("[uefn-collector] cycle completed in %s, next in %s", time.Since(start).Round(time.Second), c.cfg.Interval)
		}

		select {
		case <-ctx.Done():
			log.Println("[uefn-collector] stopped")
			return
		case <-time.After(c.cfg.Interval):
		}
	}
}

// RunCycle refreshes the island list, upserts each island's daily metrics,
// and snapshots the item shop.
func (c *UEFNCollector) RunCycle(now time.Time) error {
	collectedAt := now.UTC().Truncate(time.Second)
	day := time.Date(now.UTC().Year(), now.UTC().Month(), now.UTC().Day(), 0, 0, 0, 0, time.UTC)

	islands, err := c.api.ListIslands(c.cfg.TopGames)
	if err != nil {
		return fmt.Errorf("listing islands: %w", err)
	}
	log.Printf("[uefn-collector] fetched %d islands", len(islands))

	if err := c.upsertIslands(islands); err != nil {
		return fmt.Errorf("saving islands: %w", err)
	}

	saved := 0
	for i, island := range islands {
		if i > 0 && c.cfg.RequestDelay > 0 {
			time.Sleep(c.cfg.RequestDelay)
		}

		metrics, err := c.api.IslandMetrics(island.Code)
		if err != nil {
			log.Printf("[uefn-collector] skipping island %s: %v", island.Code, err)
			continue
		}
		if err := c.upsertDailyMetrics(island.Code, day, metrics.Latest()); err != nil {
			log.Printf("[uefn-collector] saving metrics for island %s: %v", island.Code, err)
			continue
		}
		saved++
	}
	log.Printf("[uefn-collector] saved metrics for %d/%d islands", saved, len(islands))

	if c.shop != nil {
		if err := c.collectShop(collectedAt); err != nil {
			// Shop failures never fail the island cycle.
			log.Printf("[uefn-collector] shop snapshot failed: %v", err)
		}
	}
	return nil
}

func (c *UEFNCollector) upsertIslands(islands []uefn.Island) error {
	if len(islands) == 0 {
		return nil
	}
	rows := make([]models.UEFNGame, 0, len(islands))
	for _, island := range islands {
		rows = append(rows, models.UEFNGame{
			GameID:      island.Code,
			Title:       island.Title,
			CreatorName: island.CreatorCode,
		})
	}
	return c.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "game_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "creator_name", "updated_at"}),
	}).Create(&rows).Error
}

func (c *UEFNCollector) upsertDailyMetrics(gameID string, day time.Time, latest uefn.Latest) error {
	row := models.UEFNGameMetric{
		GameID:              gameID,
		Date:                day,
		Plays:               latest.Plays,
		UniquePlayers:       latest.UniquePlayers,
		MinutesPlayed:       latest.MinutesPlayed,
		Favorites:           latest.Favorites,
		Recommendations:     latest.Recommendations,
		AvgMinutesPerPlayer: latest.AvgMinutesPerPlayer,
		PeakCCU:             latest.PeakCCU,
		RetentionD1:         latest.RetentionD1,
		RetentionD7:         latest.RetentionD7,
		MetricsTimestamp:    latest.Timestamp,
	}
	return c.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "game_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"plays", "unique_players", "minutes_played", "favorites",
			"recommendations", "avg_minutes_per_player", "peak_ccu",
			"retention_d1", "retention_d7", "metrics_timestamp", "updated_at",
		}),
	}).Create(&row).Error
}

func (c *UEFNCollector) collectShop(collectedAt time.Time) error {
	entries, err := c.shop.GetShop()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	items := make([]models.ShopItem, 0, len(entries))
	history := make([]models.ShopHistory, 0, len(entries))
	for _, e := range entries {
		items = append(items, models.ShopItem{
			ItemID: e.ItemID,
			Name:   e.Name,
			Type:   e.Type,
			Rarity: e.Rarity,
		})
		history = append(history, models.ShopHistory{
			ItemID:      e.ItemID,
			VbucksPrice: e.VbucksPrice,
			Section:     e.Section,
			CollectedAt: collectedAt,
		})
	}

	return c.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "item_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "type", "rarity", "updated_at"}),
		}).Create(&items).Error; err != nil {
			return err
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&history).Error; err != nil {
			return err
		}
		log.Printf("[uefn-collector] snapshotted %d shop items", len(history))
		return nil
	})
}
