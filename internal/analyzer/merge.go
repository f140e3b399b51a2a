package analyzer

import (
	"sort"
	"strings"

	"github.com/cs2central/analytics-api/internal/models"
	"github.com/cs2central/analytics-api/internal/provider"
)

// mergeMapStats unions per-map records from all providers. A map present in
// more than one source is combined with a played-count-weighted average of
// its win rates, played counts summed, and bestSide recomputed from the
// merged side rates.
func mergeMapStats(lists [][]models.MapStats) []models.MapStats {
	merged := map[string]models.MapStats{}
	var order []string

	for _, list := range lists {
		for _, ms := range list {
			key := strings.ToLower(ms.Name)
			existing, ok := merged[key]
			if !ok {
				merged[key] = ms
				order = append(order, key)
				continue
			}
			merged[key] = combineMapStats(existing, ms)
		}
	}

	out := make([]models.MapStats, 0, len(order))
	for _, key := range order {
		out = append(out, merged[key])
	}
	return out
}

func combineMapStats(a, b models.MapStats) models.MapStats {
	total := a.PlayedCount + b.PlayedCount
	if total == 0 {
		// Neither source has games on record; keep the first entry.
		return a
	}

	weighted := func(ra, rb float64) float64 {
		return (ra*float64(a.PlayedCount) + rb*float64(b.PlayedCount)) / float64(total)
	}

	ct := weighted(a.CTWinRate, b.CTWinRate)
	t := weighted(a.TWinRate, b.TWinRate)

	return models.MapStats{
		Name:        a.Name,
		PlayedCount: total,
		WinRate:     weighted(a.WinRate, b.WinRate),
		CTWinRate:   ct,
		TWinRate:    t,
		BestSide:    provider.BestSide(ct, t),
	}
}

// mergePlayers deduplicates players across providers by lower-cased,
// trimmed name. Colliding entries average rating and K/D arithmetically
// and keep the higher recent-performance score. The result is capped.
func mergePlayers(lists [][]models.Player, limit int) []models.Player {
	merged := map[string]models.Player{}
	var order []string

	for _, list := range lists {
		for _, p := range list {
			key := strings.ToLower(strings.TrimSpace(p.Name))
			if key == "" {
				continue
			}
			existing, ok := merged[key]
			if !ok {
				merged[key] = p
				order = append(order, key)
				continue
			}
			combined := models.Player{
				Name:              existing.Name,
				Rating:            (existing.Rating + p.Rating) / 2,
				KD:                (existing.KD + p.KD) / 2,
				RecentPerformance: existing.RecentPerformance,
			}
			if p.RecentPerformance > combined.RecentPerformance {
				combined.RecentPerformance = p.RecentPerformance
			}
			merged[key] = combined
		}
	}

	out := make([]models.Player, 0, len(order))
	for _, key := range order {
		out = append(out, merged[key])
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// mergeH2H concatenates head-to-head lists, sorts newest first and
// truncates. No deduplication: the entries carry no identity.
func mergeH2H(lists [][]models.H2HMatch, limit int) []models.H2HMatch {
	merged := []models.H2HMatch{}
	for _, list := range lists {
		merged = append(merged, list...)
	}

	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Date > merged[j].Date })
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

// mergeNews concatenates news lists, sorts by recency and truncates.
func mergeNews(lists [][]models.News, limit int) []models.News {
	merged := []models.News{}
	for _, list := range lists {
		merged = append(merged, list...)
	}

	sort.SliceStable(merged, func(i, j int) bool { return merged[i].Timestamp > merged[j].Timestamp })
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}
