package collector

import (
	"sort"
	"time"

	"game-pulse/internal/models"
)

// Normalization caps for the 0-100 benchmark scores.
const (
	maxPlayersNorm = 1_000_000.0
	maxPriceNorm   = 100.0
)

type genreAccumulator struct {
	totalGames   int
	totalPlayers int
	playerCounts []float64
	reviewScores []float64
	prices       []float64
}

// genreBenchmarks recomputes the per-genre aggregates from one cycle's
// successful fetches. The computation is deterministic: the same result set
// always yields the same rows, in genre order.
func genreBenchmarks(results []fetchResult, collectedAt time.Time) []models.GenreBenchmark {
	acc := make(map[string]*genreAccumulator)

	for _, r := range results {
		if !r.ok() {
			continue
		}
		d := r.details
		for _, genre := range d.Genres {
			a := acc[genre]
			if a == nil {
				a = &genreAccumulator{}
				acc[genre] = a
			}
			a.totalGames++
			if r.entry.PeakInGame > 0 {
				a.totalPlayers += r.entry.PeakInGame
				a.playerCounts = append(a.playerCounts, float64(r.entry.PeakInGame))
			}
			if d.MetacriticScore != nil {
				a.reviewScores = append(a.reviewScores, float64(*d.MetacriticScore))
			}
			if d.PriceUSD > 0 {
				a.prices = append(a.prices, d.PriceUSD)
			}
		}
	}

	genres := make([]string, 0, len(acc))
	for genre := range acc {
		genres = append(genres, genre)
	}
	sort.Strings(genres)

	benchmarks := make([]models.GenreBenchmark, 0, len(genres))
	for _, genre := range genres {
		a := acc[genre]

		avgPlayers := mean(a.playerCounts)
		avgReview := mean(a.reviewScores)
		avgPrice := mean(a.prices)

		normPlayers := clamp01(avgPlayers/maxPlayersNorm) * 100
		normReview := avgReview // metacritic is already 0-100
		normPrice := clamp01(avgPrice/maxPriceNorm) * 100

		benchmarks = append(benchmarks, models.GenreBenchmark{
			Genre:                    genre,
			TotalGames:               a.totalGames,
			TotalPlayers:             a.totalPlayers,
			AvgPlayerCount:           avgPlayers,
			AvgReviewScore:           avgReview,
			AvgPrice:                 avgPrice,
			MarketActivityScore:      weighted(normReview, 0.7, normPrice, 0.3),
			CommunityEngagementScore: weighted(normPlayers, 0.8, normReview, 0.2),
			DLCAdoptionRate:          weighted(normPlayers, 0.5, normPrice, 0.5),
			SentimentScore:           weighted(normReview, 0.8, normPlayers, 0.2),
			CollectedAt:              collectedAt,
		})
	}
	return benchmarks
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func clamp01(v float64) float64 {
	if v > 1 {
		return 1
	}
	if v < 0 {
		return 0
	}
	return v
}

func weighted(a, wa, b, wb float64) float64 {
	if a == 0 && b == 0 {
		return 0
	}
	return a*wa + b*wb
}
