package steam

import (
	"fmt"
	"strings"
	"time"

	"game-pulse/internal/services/fetch"

	"github.com/go-resty/resty/v2"
)

const (
	defaultAPIBase   = "https://api.steampowered.com"
	defaultStoreBase = "https://store.steampowered.com"
)

// Service is a thin client over the Steam Web API and the store API. It does
// no retrying or pacing of its own; callers own that.
type Service struct {
	apiKey    string
	apiBase   string
	storeBase string
	client    *resty.Client
}

func NewService(apiKey string) *Service {
	client := resty.New()
	client.SetTimeout(30 * time.Second)

	return &Service{
		apiKey:    apiKey,
		apiBase:   defaultAPIBase,
		storeBase: defaultStoreBase,
		client:    client,
	}
}

// ChartEntry is one row of the most-played chart.
type ChartEntry struct {
	Rank             int `json:"rank"`
	AppID            int `json:"appid"`
	ConcurrentInGame int `json:"concurrent_in_game"`
	PeakInGame       int `json:"peak_in_game"`
}

type mostPlayedResponse struct {
	Response struct {
		Ranks []ChartEntry `json:"ranks"`
	} `json:"response"`
}

// GetMostPlayedGames fetches the current most-played chart, truncated to limit.
func (s *Service) GetMostPlayedGames(limit int) ([]ChartEntry, error) {
	url := s.apiBase + "/ISteamChartsService/GetMostPlayedGames/v1/"
	params := map[string]string{
		"key":    s.apiKey,
		"format": "json",
	}

	var out mostPlayedResponse
	if err := fetch.GetJSON(s.client, url, params, nil, &out); err != nil {
		return nil, err
	}

	ranks := out.Response.Ranks
	if limit > 0 && len(ranks) > limit {
		ranks = ranks[:limit]
	}
	return ranks, nil
}

// AppDetails is the subset of store appdetails we persist.
type AppDetails struct {
	AppID           int
	Name            string
	ReleaseDate     *time.Time
	Developer       string
	Publisher       string
	Genres          []string
	Categories      []string
	Languages       []string
	MetacriticScore *int
	PriceUSD        float64
	InitialPrice    int
	FinalPrice      int
	DiscountPercent int
	Currency        string
}

type appDetailsPayload struct {
	Success bool `json:"success"`
	Data    struct {
		Name        string `json:"name"`
		ReleaseDate struct {
			Date string `json:"date"`
		} `json:"release_date"`
		Developers []string `json:"developers"`
		Publishers []string `json:"publishers"`
		Genres     []struct {
			Description string `json:"description"`
		} `json:"genres"`
		Categories []struct {
			Description string `json:"description"`
		} `json:"categories"`
		Metacritic struct {
			Score *int `json:"score"`
		} `json:"metacritic"`
		PriceOverview struct {
			Initial         int    `json:"initial"`
			Final           int    `json:"final"`
			DiscountPercent int    `json:"discount_percent"`
			Currency        string `json:"currency"`
		} `json:"price_overview"`
		SupportedLanguages string `json:"supported_languages"`
	} `json:"data"`
}

// GetAppDetails fetches store details for one app. US region for consistent
// pricing; prices come back in cents.
func (s *Service) GetAppDetails(appID int) (*AppDetails, error) {
	url := s.storeBase + "/api/appdetails"
	params := map[string]string{
		"appids": fmt.Sprintf("%d", appID),
		"key":    s.apiKey,
		"cc":     "us",
		"l":      "en",
	}

	var out map[string]appDetailsPayload
	if err := fetch.GetJSON(s.client, url, params, nil, &out); err != nil {
		return nil, err
	}

	payload, ok := out[fmt.Sprintf("%d", appID)]
	if !ok || !payload.Success {
		return nil, fmt.Errorf("no store details for appid %d", appID)
	}

	d := payload.Data
	details := &AppDetails{
		AppID:           appID,
		Name:            d.Name,
		ReleaseDate:     parseReleaseDate(d.ReleaseDate.Date),
		Genres:          make([]string, 0, len(d.Genres)),
		Categories:      make([]string, 0, len(d.Categories)),
		Languages:       CleanLanguages(d.SupportedLanguages),
		MetacriticScore: d.Metacritic.Score,
		PriceUSD:        float64(d.PriceOverview.Final) / 100.0,
		InitialPrice:    d.PriceOverview.Initial,
		FinalPrice:      d.PriceOverview.Final,
		DiscountPercent: d.PriceOverview.DiscountPercent,
		Currency:        d.PriceOverview.Currency,
	}
	if len(d.Developers) > 0 {
		details.Developer = d.Developers[0]
	}
	if len(d.Publishers) > 0 {
		details.Publisher = d.Publishers[0]
	}
	for _, g := range d.Genres {
		details.Genres = append(details.Genres, g.Description)
	}
	for _, c := range d.Categories {
		details.Categories = append(details.Categories, c.Description)
	}
	return details, nil
}

type currentPlayersResponse struct {
	Response struct {
		PlayerCount int `json:"player_count"`
	} `json:"response"`
}

// GetCurrentPlayers returns the live concurrent player count for an app.
func (s *Service) GetCurrentPlayers(appID int) (int, error) {
	url := s.apiBase + "/ISteamUserStats/GetNumberOfCurrentPlayers/v1/"
	params := map[string]string{
		"appid": fmt.Sprintf("%d", appID),
		"key":   s.apiKey,
	}

	var out currentPlayersResponse
	if err := fetch.GetJSON(s.client, url, params, nil, &out); err != nil {
		return 0, err
	}
	return out.Response.PlayerCount, nil
}

// ReviewSummary is the store's aggregated review stats for an app.
type ReviewSummary struct {
	AppID         int
	ReviewScore   int
	ReviewDesc    string
	TotalPositive int
	TotalNegative int
	TotalReviews  int
}

type reviewsResponse struct {
	Success      int `json:"success"`
	QuerySummary struct {
		ReviewScore     int    `json:"review_score"`
		ReviewScoreDesc string `json:"review_score_desc"`
		TotalPositive   int    `json:"total_positive"`
		TotalNegative   int    `json:"total_negative"`
		TotalReviews    int    `json:"total_reviews"`
	} `json:"query_summary"`
}

// GetReviewSummary fetches the review summary for an app.
func (s *Service) GetReviewSummary(appID int) (*ReviewSummary, error) {
	url := fmt.Sprintf("%s/appreviews/%d", s.storeBase, appID)
	params := map[string]string{
		"json":          "1",
		"language":      "all",
		"purchase_type": "all",
		"key":           s.apiKey,
	}

	var out reviewsResponse
	if err := fetch.GetJSON(s.client, url, params, nil, &out); err != nil {
		return nil, err
	}
	if out.Success != 1 {
		return nil, fmt.Errorf("review summary unavailable for appid %d", appID)
	}
	q := out.QuerySummary
	return &ReviewSummary{
		AppID:         appID,
		ReviewScore:   q.ReviewScore,
		ReviewDesc:    q.ReviewScoreDesc,
		TotalPositive: q.TotalPositive,
		TotalNegative: q.TotalNegative,
		TotalReviews:  q.TotalReviews,
	}, nil
}

var releaseDateLayouts = []string{"2 Jan, 2006", "Jan 2, 2006", "2006-01-02"}

func parseReleaseDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	switch strings.ToLower(raw) {
	case "to be announced", "coming soon", "tba":
		return nil
	}
	for _, layout := range releaseDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t
		}
	}
	return nil
}

// CleanLanguages splits the store's HTML-flavored language string
// ("English<strong>*</strong>, French<br>...") into plain names.
func CleanLanguages(raw string) []string {
	raw = strings.ReplaceAll(raw, "<br>", ",")
	raw = strings.ReplaceAll(raw, "<strong>", "")
	raw = strings.ReplaceAll(raw, "</strong>", "")
	raw = strings.ReplaceAll(raw, "*", "")

	var langs []string
	for _, part := range strings.Split(raw, ",") {
		if lang := strings.TrimSpace(part); lang != "" {
			langs = append(langs, lang)
		}
	}
	return langs
}
