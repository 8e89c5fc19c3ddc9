package api

import (
	"net/http"
	"strconv"
	"time"

	"game-pulse/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// APIHandler serves the read-only dashboard queries. Every request hits the
// database directly; there is no cache between the collectors and the charts.
type APIHandler struct {
	db *gorm.DB
}

func SetupRoutes(r *gin.RouterGroup, db *gorm.DB) *APIHandler {
	handler := &APIHandler{db: db}

	steam := r.Group("/steam")
	{
		steam.GET("/games", handler.ListSteamGames)
		steam.GET("/games/:appid/players", handler.PlayerHistorySeries)
		steam.GET("/games/:appid/prices", handler.PriceHistorySeries)
		steam.GET("/benchmarks", handler.ListBenchmarks)
		steam.GET("/export", handler.ExportReport)
	}

	uefn := r.Group("/uefn")
	{
		uefn.GET("/games", handler.ListUEFNGames)
		uefn.GET("/games/:game_id/metrics", handler.UEFNMetricsSeries)
	}

	shop := r.Group("/shop")
	{
		shop.GET("/items", handler.ListShopItems)
		shop.GET("/items/:item_id/history", handler.ShopItemHistory)
	}

	return handler
}

// timeRange reads optional from/to RFC3339 query params.
func timeRange(c *gin.Context) (from, to *time.Time, err error) {
	if raw := c.Query("from"); raw != "" {
		t, perr := time.Parse(time.RFC3339, raw)
		if perr != nil {
			return nil, nil, perr
		}
		from = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, perr := time.Parse(time.RFC3339, raw)
		if perr != nil {
			return nil, nil, perr
		}
		to = &t
	}
	return from, to, nil
}

// ListSteamGames returns the newest snapshot of every tracked game, most
// played first.
func (h *APIHandler) ListSteamGames(c *gin.Context) {
	games := []models.GameSnapshot{}

	latest := h.db.Model(&models.GameSnapshot{}).
		Select("app_id AS latest_app_id, MAX(collected_at) AS latest_ts").
		Group("app_id")

	err := h.db.Model(&models.GameSnapshot{}).
		Joins("JOIN (?) latest ON games.app_id = latest.latest_app_id AND games.collected_at = latest.latest_ts", latest).
		Order("games.current_players DESC").
		Find(&games).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(games), "games": games})
}

type seriesPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// PlayerHistorySeries returns player counts for one app in timestamp order.
func (h *APIHandler) PlayerHistorySeries(c *gin.Context) {
	appID, err := strconv.Atoi(c.Param("appid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid appid"})
		return
	}
	from, to, err := timeRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid time range"})
		return
	}

	q := h.db.Model(&models.PlayerHistory{}).Where("app_id = ?", appID)
	if from != nil {
		q = q.Where("collected_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("collected_at <= ?", *to)
	}

	var rows []models.PlayerHistory
	if err := q.Order("collected_at ASC").Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	series := make([]seriesPoint, 0, len(rows))
	for _, row := range rows {
		series = append(series, seriesPoint{Timestamp: row.CollectedAt, Value: float64(row.PlayerCount)})
	}
	c.JSON(http.StatusOK, gin.H{"appid": appID, "series": series})
}

// PriceHistorySeries returns final prices (USD) for one app in timestamp order.
func (h *APIHandler) PriceHistorySeries(c *gin.Context) {
	appID, err := strconv.Atoi(c.Param("appid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid appid"})
		return
	}
	from, to, err := timeRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid time range"})
		return
	}

	q := h.db.Model(&models.PriceSnapshot{}).Where("app_id = ?", appID)
	if from != nil {
		q = q.Where("collected_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("collected_at <= ?", *to)
	}

	var rows []models.PriceSnapshot
	if err := q.Order("collected_at ASC").Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	series := make([]seriesPoint, 0, len(rows))
	for _, row := range rows {
		series = append(series, seriesPoint{Timestamp: row.CollectedAt, Value: float64(row.FinalPrice) / 100.0})
	}
	c.JSON(http.StatusOK, gin.H{"appid": appID, "series": series})
}

// ListBenchmarks returns genre benchmark rows, optionally filtered by genre
// and time range, oldest first.
func (h *APIHandler) ListBenchmarks(c *gin.Context) {
	from, to, err := timeRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid time range"})
		return
	}

	q := h.db.Model(&models.GenreBenchmark{})
	if genre := c.Query("genre"); genre != "" {
		q = q.Where("genre = ?", genre)
	}
	if from != nil {
		q = q.Where("collected_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("collected_at <= ?", *to)
	}

	benchmarks := []models.GenreBenchmark{}
	if err := q.Order("collected_at ASC, genre ASC").Find(&benchmarks).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(benchmarks), "benchmarks": benchmarks})
}

// ListUEFNGames returns the tracked creative islands.
func (h *APIHandler) ListUEFNGames(c *gin.Context) {
	games := []models.UEFNGame{}
	if err := h.db.Order("title ASC").Find(&games).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(games), "games": games})
}

// UEFNMetricsSeries returns an island's daily metric rows in date order.
func (h *APIHandler) UEFNMetricsSeries(c *gin.Context) {
	gameID := c.Param("game_id")
	from, to, err := timeRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid time range"})
		return
	}

	q := h.db.Model(&models.UEFNGameMetric{}).Where("game_id = ?", gameID)
	if from != nil {
		q = q.Where("date >= ?", *from)
	}
	if to != nil {
		q = q.Where("date <= ?", *to)
	}

	metrics := []models.UEFNGameMetric{}
	if err := q.Order("date ASC").Find(&metrics).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"game_id": gameID, "metrics": metrics})
}

// ListShopItems returns the known item-shop items.
func (h *APIHandler) ListShopItems(c *gin.Context) {
	items := []models.ShopItem{}
	if err := h.db.Order("name ASC").Find(&items).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(items), "items": items})
}

// ShopItemHistory returns the shop appearances of one item in timestamp order.
func (h *APIHandler) ShopItemHistory(c *gin.Context) {
	itemID := c.Param("item_id")

	history := []models.ShopHistory{}
	if err := h.db.Where("item_id = ?", itemID).Order("collected_at ASC").Find(&history).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"item_id": itemID, "history": history})
}
