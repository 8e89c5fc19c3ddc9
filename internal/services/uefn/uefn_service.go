package uefn

import (
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"game-pulse/internal/services/fetch"

	"github.com/go-resty/resty/v2"
)

const (
	defaultAPIBase  = "https://api.fortnite.com/ecosystem/v1"
	defaultTokenURL = "https://api.epicgames.dev/epic/oauth/v1/token"

	pageSize = 100
)

// Service talks to the Epic ecosystem API for UEFN island stats.
type Service struct {
	clientID     string
	clientSecret string
	apiBase      string
	tokenURL     string
	pageDelay    time.Duration
	client       *resty.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewService(clientID, clientSecret string) *Service {
	client := resty.New()
	client.SetTimeout(30 * time.Second)

	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
		apiBase:      defaultAPIBase,
		tokenURL:     defaultTokenURL,
		pageDelay:    time.Second,
		client:       client,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// Token returns a cached Epic access token, requesting a fresh one when the
// current token is within a minute of expiring.
func (s *Service) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accessToken != "" && time.Until(s.tokenExpiry) > time.Minute {
		return s.accessToken, nil
	}

	basic := base64.StdEncoding.EncodeToString([]byte(s.clientID + ":" + s.clientSecret))
	headers := map[string]string{
		"Authorization": "Basic " + basic,
	}
	form := map[string]string{
		"grant_type": "client_credentials",
	}

	var out tokenResponse
	if err := fetch.PostForm(s.client, s.tokenURL, form, headers, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned empty access token")
	}

	s.accessToken = out.AccessToken
	s.tokenExpiry = time.Now().Add(time.Duration(out.ExpiresIn) * time.Second)
	return s.accessToken, nil
}

func (s *Service) authHeaders() (map[string]string, error) {
	headers := map[string]string{
		"Content-Type": "application/json",
	}
	if s.clientID == "" {
		// The ecosystem endpoints are public; auth is optional.
		return headers, nil
	}
	token, err := s.Token()
	if err != nil {
		return nil, err
	}
	headers["Authorization"] = "Bearer " + token
	return headers, nil
}

// Island is one UEFN creative map.
type Island struct {
	Code        string `json:"code"`
	Title       string `json:"title"`
	CreatorCode string `json:"creatorCode"`
	Meta        struct {
		Page struct {
			Cursor string `json:"cursor"`
		} `json:"page"`
	} `json:"meta"`
}

type islandsResponse struct {
	Data []Island `json:"data"`
	Meta struct {
		Count int `json:"count"`
	} `json:"meta"`
}

// ListIslands walks the cursor-paginated islands listing until limit unique
// islands have been seen or the listing runs out.
func (s *Service) ListIslands(limit int) ([]Island, error) {
	headers, err := s.authHeaders()
	if err != nil {
		return nil, err
	}

	url := s.apiBase + "/islands"
	seen := make(map[string]bool)
	var islands []Island
	cursor := ""

	for {
		params := map[string]string{"limit": fmt.Sprintf("%d", pageSize)}
		if cursor != "" {
			params["cursor"] = cursor
		}

		var page islandsResponse
		if err := fetch.GetJSON(s.client, url, params, headers, &page); err != nil {
			return nil, err
		}
		if len(page.Data) == 0 {
			break
		}

		for _, island := range page.Data {
			if !seen[island.Code] {
				seen[island.Code] = true
				islands = append(islands, island)
			}
		}

		if len(islands) >= limit {
			break
		}
		cursor = page.Data[len(page.Data)-1].Meta.Page.Cursor
		if cursor == "" {
			break
		}
		if s.pageDelay > 0 {
			time.Sleep(s.pageDelay)
		}
	}

	if len(islands) > limit {
		islands = islands[:limit]
	}
	return islands, nil
}

// MetricPoint is one point of a per-island metric series.
type MetricPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// RetentionPoint is one point of the retention series.
type RetentionPoint struct {
	Timestamp time.Time `json:"timestamp"`
	D1        float64   `json:"d1"`
	D7        float64   `json:"d7"`
}

// Metrics holds the raw series the metrics endpoint returns.
type Metrics struct {
	Plays                   []MetricPoint    `json:"plays"`
	UniquePlayers           []MetricPoint    `json:"uniquePlayers"`
	MinutesPlayed           []MetricPoint    `json:"minutesPlayed"`
	Favorites               []MetricPoint    `json:"favorites"`
	Recommendations         []MetricPoint    `json:"recommendations"`
	AverageMinutesPerPlayer []MetricPoint    `json:"averageMinutesPerPlayer"`
	PeakCCU                 []MetricPoint    `json:"peakCCU"`
	Retention               []RetentionPoint `json:"retention"`
}

// IslandMetrics fetches the metric series for one island.
func (s *Service) IslandMetrics(code string) (*Metrics, error) {
	headers, err := s.authHeaders()
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/islands/%s/metrics", s.apiBase, code)
	var out Metrics
	if err := fetch.GetJSON(s.client, url, nil, headers, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Latest collapses the series into the newest observation of each metric,
// which is what the daily metrics row stores.
type Latest struct {
	Plays               int64
	UniquePlayers       int64
	MinutesPlayed       int64
	Favorites           int64
	Recommendations     int64
	AvgMinutesPerPlayer float64
	PeakCCU             int64
	RetentionD1         float64
	RetentionD7         float64
	Timestamp           *time.Time
}

func (m *Metrics) Latest() Latest {
	l := Latest{
		Plays:               lastInt(m.Plays),
		UniquePlayers:       lastInt(m.UniquePlayers),
		MinutesPlayed:       lastInt(m.MinutesPlayed),
		Favorites:           lastInt(m.Favorites),
		Recommendations:     lastInt(m.Recommendations),
		AvgMinutesPerPlayer: lastFloat(m.AverageMinutesPerPlayer),
		PeakCCU:             lastInt(m.PeakCCU),
	}
	if n := len(m.Retention); n > 0 {
		l.RetentionD1 = m.Retention[n-1].D1
		l.RetentionD7 = m.Retention[n-1].D7
	}
	for _, series := range [][]MetricPoint{m.Plays, m.UniquePlayers, m.MinutesPlayed} {
		if n := len(series); n > 0 {
			ts := series[n-1].Timestamp
			l.Timestamp = &ts
			break
		}
	}
	return l
}

func lastInt(series []MetricPoint) int64 {
	if len(series) == 0 {
		return 0
	}
	return int64(series[len(series)-1].Value)
}

func lastFloat(series []MetricPoint) float64 {
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1].Value
}
