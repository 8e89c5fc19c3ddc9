package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"game-pulse/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ExportReport writes the latest game snapshots and genre benchmarks to an
// xlsx workbook, one sheet per table.
func (h *APIHandler) ExportReport(c *gin.Context) {
	var games []models.GameSnapshot
	latest := h.db.Model(&models.GameSnapshot{}).
		Select("app_id AS latest_app_id, MAX(collected_at) AS latest_ts").
		Group("app_id")
	if err := h.db.Model(&models.GameSnapshot{}).
		Joins("JOIN (?) latest ON games.app_id = latest.latest_app_id AND games.collected_at = latest.latest_ts", latest).
		Order("games.current_players DESC").
		Find(&games).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var benchmarks []models.GenreBenchmark
	var latestBench models.GenreBenchmark
	switch err := h.db.Order("collected_at DESC").First(&latestBench).Error; {
	case err == nil:
		if err := h.db.Where("collected_at = ?", latestBench.CollectedAt).
			Order("genre ASC").Find(&benchmarks).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	const gamesSheet = "Games"
	f.SetSheetName("Sheet1", gamesSheet)
	_ = f.SetSheetRow(gamesSheet, "A1", &[]interface{}{
		"AppID", "Name", "Current Players", "Peak Players", "Developer",
		"Publisher", "Genres", "Metacritic", "Price USD", "Collected At",
	})
	for i, g := range games {
		metacritic := ""
		if g.MetacriticScore != nil {
			metacritic = fmt.Sprintf("%d", *g.MetacriticScore)
		}
		_ = f.SetSheetRow(gamesSheet, fmt.Sprintf("A%d", i+2), &[]interface{}{
			g.AppID, g.Name, g.CurrentPlayers, g.PeakPlayers, g.Developer,
			g.Publisher, strings.Join([]string(g.Genres), ", "), metacritic, g.PriceUSD,
			g.CollectedAt.Format(time.RFC3339),
		})
	}

	const benchSheet = "Genre Benchmarks"
	_, _ = f.NewSheet(benchSheet)
	_ = f.SetSheetRow(benchSheet, "A1", &[]interface{}{
		"Genre", "Total Games", "Total Players", "Avg Players", "Avg Review",
		"Avg Price", "Market Activity", "Community Engagement", "DLC Adoption",
		"Sentiment", "Collected At",
	})
	for i, b := range benchmarks {
		_ = f.SetSheetRow(benchSheet, fmt.Sprintf("A%d", i+2), &[]interface{}{
			b.Genre, b.TotalGames, b.TotalPlayers, b.AvgPlayerCount,
			b.AvgReviewScore, b.AvgPrice, b.MarketActivityScore,
			b.CommunityEngagementScore, b.DLCAdoptionRate, b.SentimentScore,
			b.CollectedAt.Format(time.RFC3339),
		})
	}

	filename := fmt.Sprintf("game-pulse-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := f.Write(c.Writer); err != nil {
		log.Printf("[dashboard] export write failed: %v", err)
	}
}
