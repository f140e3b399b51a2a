package analyzer

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cs2central/analytics-api/internal/models"
)

// Thresholds for the deterministic strengths/weaknesses rule set.
const (
	strongMapWinRate   = 60.0
	weakMapWinRate     = 45.0
	strongPlayerRating = 1.1
	weakPlayerRating   = 0.95
	strongCTWinRate    = 55.0
	weakTWinRate       = 45.0
)

// strengths derives strength statements from the merged map pool and
// roster. When nothing qualifies, fixed generic filler keeps the output
// shape stable for consumers.
func strengths(mapStats []models.MapStats, players []models.Player) []string {
	var out []string

	best := filterMaps(mapStats, func(ms models.MapStats) bool { return ms.WinRate > strongMapWinRate })
	sort.SliceStable(best, func(i, j int) bool { return best[i].WinRate > best[j].WinRate })
	if len(best) > 0 {
		if len(best) > 2 {
			best = best[:2]
		}
		out = append(out, fmt.Sprintf("Strong performance on %s", joinMapNames(best)))
	}

	if top, ok := extremePlayer(players, func(a, b models.Player) bool { return a.Rating > b.Rating }); ok && top.Rating > strongPlayerRating {
		out = append(out, fmt.Sprintf("%s in excellent form (%.2f rating)", top.Name, top.Rating))
	}

	ctMaps := filterMaps(mapStats, func(ms models.MapStats) bool {
		return ms.BestSide == "CT" && ms.CTWinRate > strongCTWinRate
	})
	if len(ctMaps) >= 3 {
		out = append(out, "Excellent CT-side fundamentals across multiple maps")
	}

	if len(out) == 0 {
		out = append(out, "Consistent team performance", "Good map diversity in pool")
	}
	return out
}

// weaknesses is the symmetric rule set.
func weaknesses(mapStats []models.MapStats, players []models.Player) []string {
	var out []string

	weak := filterMaps(mapStats, func(ms models.MapStats) bool { return ms.WinRate < weakMapWinRate })
	sort.SliceStable(weak, func(i, j int) bool { return weak[i].WinRate < weak[j].WinRate })
	if len(weak) > 0 {
		if len(weak) > 2 {
			weak = weak[:2]
		}
		out = append(out, fmt.Sprintf("Struggles on %s", joinMapNames(weak)))
	}

	if worst, ok := extremePlayer(players, func(a, b models.Player) bool { return a.Rating < b.Rating }); ok && worst.Rating < weakPlayerRating {
		out = append(out, fmt.Sprintf("%s needs to improve performance", worst.Name))
	}

	tMaps := filterMaps(mapStats, func(ms models.MapStats) bool {
		return ms.BestSide == "T" && ms.TWinRate < weakTWinRate
	})
	if len(tMaps) >= 2 {
		out = append(out, "T-side execution needs work on several maps")
	}

	if len(out) == 0 {
		out = append(out, "Minor inconsistencies in pistol rounds", "Can struggle against aggressive playstyles")
	}
	return out
}

func filterMaps(stats []models.MapStats, keep func(models.MapStats) bool) []models.MapStats {
	var out []models.MapStats
	for _, ms := range stats {
		if keep(ms) {
			out = append(out, ms)
		}
	}
	return out
}

func joinMapNames(stats []models.MapStats) string {
	names := make([]string, 0, len(stats))
	for _, ms := range stats {
		names = append(names, ms.Name)
	}
	return strings.Join(names, " and ")
}

func extremePlayer(players []models.Player, better func(a, b models.Player) bool) (models.Player, bool) {
	if len(players) == 0 {
		return models.Player{}, false
	}
	pick := players[0]
	for _, p := range players[1:] {
		if better(p, pick) {
			pick = p
		}
	}
	return pick, true
}
