package api

import (
	"log"
	"net/http"
	"time"

	"game-pulse/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// collectionStatus is the payload pushed over the live feed.
type collectionStatus struct {
	SteamGames      int64      `json:"steam_games"`
	PlayerSnapshots int64      `json:"player_snapshots"`
	UEFNGames       int64      `json:"uefn_games"`
	ShopItems       int64      `json:"shop_items"`
	LastCollectedAt *time.Time `json:"last_collected_at"`
	ServerTime      time.Time  `json:"server_time"`
}

func (h *APIHandler) status() collectionStatus {
	s := collectionStatus{ServerTime: time.Now().UTC()}
	h.db.Model(&models.GameSnapshot{}).Count(&s.SteamGames)
	h.db.Model(&models.PlayerHistory{}).Count(&s.PlayerSnapshots)
	h.db.Model(&models.UEFNGame{}).Count(&s.UEFNGames)
	h.db.Model(&models.ShopItem{}).Count(&s.ShopItems)

	var latest models.GameSnapshot
	if err := h.db.Order("collected_at DESC").First(&latest).Error; err == nil {
		s.LastCollectedAt = &latest.CollectedAt
	}
	return s
}

// LiveStatus upgrades to a websocket and pushes collection status every few
// seconds until the client goes away.
func (h *APIHandler) LiveStatus(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[dashboard] websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		if err := conn.WriteJSON(h.status()); err != nil {
			return
		}
		<-ticker.C
	}
}
