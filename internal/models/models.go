package models

import (
	"time"

	"gorm.io/datatypes"
)

// GameSnapshot is one timestamped observation of a Steam game. The table is
// append-only: every collection cycle inserts a fresh row keyed by
// (app_id, collected_at) and no row is ever updated.
type GameSnapshot struct {
	ID              uint                        `json:"id" gorm:"primaryKey"`
	AppID           int                         `json:"appid" gorm:"uniqueIndex:idx_games_app_ts;not null"`
	Name            string                      `json:"name"`
	CurrentPlayers  int                         `json:"current_players"`
	PeakPlayers     int                         `json:"peak_players"`
	ReleaseDate     *time.Time                  `json:"release_date"`
	Developer       string                      `json:"developer"`
	Publisher       string                      `json:"publisher"`
	Genres          datatypes.JSONSlice[string] `json:"genres"`
	Categories      datatypes.JSONSlice[string] `json:"categories"`
	Languages       datatypes.JSONSlice[string] `json:"supported_languages"`
	MetacriticScore *int                        `json:"metacritic_score"`
	PriceUSD        float64                     `json:"price_usd"`
	CollectedAt     time.Time                   `json:"collected_at" gorm:"uniqueIndex:idx_games_app_ts;index;not null"`
}

func (GameSnapshot) TableName() string { return "games" }

// PlayerHistory tracks concurrent player counts per app over time.
type PlayerHistory struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	AppID       int       `json:"appid" gorm:"uniqueIndex:idx_players_app_ts;not null"`
	PlayerCount int       `json:"player_count"`
	CollectedAt time.Time `json:"collected_at" gorm:"uniqueIndex:idx_players_app_ts;index;not null"`
}

func (PlayerHistory) TableName() string { return "player_history" }

// PriceSnapshot records store pricing and discounts per cycle.
type PriceSnapshot struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	AppID           int       `json:"appid" gorm:"uniqueIndex:idx_prices_app_ts;not null"`
	InitialPrice    int       `json:"initial_price"` // cents
	FinalPrice      int       `json:"final_price"`   // cents
	DiscountPercent int       `json:"discount_percent"`
	Currency        string    `json:"currency"`
	CollectedAt     time.Time `json:"collected_at" gorm:"uniqueIndex:idx_prices_app_ts;index;not null"`
}

func (PriceSnapshot) TableName() string { return "price_history" }

// ReviewSnapshot records the store review summary per cycle.
type ReviewSnapshot struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	AppID         int       `json:"appid" gorm:"uniqueIndex:idx_reviews_app_ts;not null"`
	ReviewScore   int       `json:"review_score"`
	ReviewDesc    string    `json:"review_score_desc"`
	TotalPositive int       `json:"total_positive"`
	TotalNegative int       `json:"total_negative"`
	TotalReviews  int       `json:"total_reviews"`
	CollectedAt   time.Time `json:"collected_at" gorm:"uniqueIndex:idx_reviews_app_ts;index;not null"`
}

func (ReviewSnapshot) TableName() string { return "review_snapshots" }

// GenreBenchmark is a per-genre aggregate recomputed each collection cycle
// from that cycle's fetched snapshots. Scores are normalized to 0-100.
type GenreBenchmark struct {
	ID                       uint      `json:"id" gorm:"primaryKey"`
	Genre                    string    `json:"genre" gorm:"uniqueIndex:idx_bench_genre_ts;not null"`
	TotalGames               int       `json:"total_games"`
	TotalPlayers             int       `json:"total_players"`
	AvgPlayerCount           float64   `json:"avg_player_count"`
	AvgReviewScore           float64   `json:"avg_review_score"`
	AvgPrice                 float64   `json:"avg_price"`
	MarketActivityScore      float64   `json:"market_activity_score"`
	CommunityEngagementScore float64   `json:"community_engagement_score"`
	DLCAdoptionRate          float64   `json:"dlc_adoption_rate"`
	SentimentScore           float64   `json:"sentiment_score"`
	CollectedAt              time.Time `json:"collected_at" gorm:"uniqueIndex:idx_bench_genre_ts;index;not null"`
}

func (GenreBenchmark) TableName() string { return "genre_benchmarks" }

// UEFNGame is a tracked Fortnite creative island, refreshed in place each
// cycle (game_id is the natural key).
type UEFNGame struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	GameID      string    `json:"game_id" gorm:"uniqueIndex;not null"`
	Title       string    `json:"title"`
	CreatorName string    `json:"creator_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (UEFNGame) TableName() string { return "uefn_games" }

// UEFNGameMetric holds one daily metrics row per island. Unlike the Steam
// tables this is a true upsert target: polling the same (game_id, date)
// again replaces the row, so the last poll of the day wins.
type UEFNGameMetric struct {
	ID                  uint       `json:"id" gorm:"primaryKey"`
	GameID              string     `json:"game_id" gorm:"uniqueIndex:idx_uefn_metrics_game_date;not null"`
	Date                time.Time  `json:"date" gorm:"uniqueIndex:idx_uefn_metrics_game_date;index;not null"`
	Plays               int64      `json:"plays"`
	UniquePlayers       int64      `json:"unique_players"`
	MinutesPlayed       int64      `json:"minutes_played"`
	Favorites           int64      `json:"favorites"`
	Recommendations     int64      `json:"recommendations"`
	AvgMinutesPerPlayer float64    `json:"average_minutes_per_player"`
	PeakCCU             int64      `json:"peak_ccu"`
	RetentionD1         float64    `json:"retention_d1"`
	RetentionD7         float64    `json:"retention_d7"`
	MetricsTimestamp    *time.Time `json:"metrics_timestamp"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

func (UEFNGameMetric) TableName() string { return "uefn_game_metrics" }

// ShopItem is a Fortnite item-shop entry (item natural key).
type ShopItem struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	ItemID    string    `json:"item_id" gorm:"uniqueIndex;not null"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	Rarity    string    `json:"rarity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ShopItem) TableName() string { return "shop_items" }

// ShopHistory records each shop appearance of an item with its vbucks price.
type ShopHistory struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	ItemID      string    `json:"item_id" gorm:"uniqueIndex:idx_shop_item_ts;not null"`
	VbucksPrice int       `json:"vbucks_price"`
	Section     string    `json:"section"`
	CollectedAt time.Time `json:"collected_at" gorm:"uniqueIndex:idx_shop_item_ts;index;not null"`
}

func (ShopHistory) TableName() string { return "shop_history" }

// All lists every model for migration.
func All() []interface{} {
	return []interface{}{
		&GameSnapshot{},
		&PlayerHistory{},
		&PriceSnapshot{},
		&ReviewSnapshot{},
		&GenreBenchmark{},
		&UEFNGame{},
		&UEFNGameMetric{},
		&ShopItem{},
		&ShopHistory{},
	}
}
