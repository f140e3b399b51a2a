// Package predict computes map-level and match-level predictions. Two
// strategies exist: an AI-backed one delegating to the gateway, and a
// deterministic statistical fallback. The AI path is always attempted
// first and falls back independently per call when it yields nothing
// usable.
package predict

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/cs2central/analytics-api/internal/models"
)

const (
	overUnderLine = 26.5
	baseRounds    = 26
	topPlayers    = 3
)

var predictions = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "cs2_predictions_total",
	Help: "Total predictions computed by level and strategy",
}, []string{"level", "strategy"})

// TextGenerator is the slice of the AI gateway the engine uses. A nil
// generator means every prediction takes the statistical path.
type TextGenerator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Rand supplies the bounded jitter in the statistical formulas. Injectable
// so tests can pin deterministic output.
type Rand interface {
	Intn(n int) int
}

type Engine struct {
	gen    TextGenerator
	rng    Rand
	logger *zap.SugaredLogger
}

func NewEngine(gen TextGenerator, rng Rand, logger *zap.Logger) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Engine{gen: gen, rng: rng, logger: logger.Sugar()}
}

// TeamInput bundles everything the engine needs to know about one side.
type TeamInput struct {
	Team     models.Team
	MapStats []models.MapStats
	Players  []models.Player
}

// PredictMap produces a prediction for a single map. AI output is trusted
// only after its winner matches one of the real team names; anything else
// counts as an AI failure and triggers the fallback.
func (e *Engine) PredictMap(ctx context.Context, mapName string, team1, team2 TeamInput) models.MapPrediction {
	if e.gen != nil {
		if p := e.aiMapPrediction(ctx, mapName, team1, team2); p != nil {
			predictions.WithLabelValues("map", "ai").Inc()
			return *p
		}
	}
	predictions.WithLabelValues("map", "statistical").Inc()
	return e.statisticalMapPrediction(mapName, team1, team2)
}

// PredictOverall produces the match-level prediction from the per-map
// results plus merged statistics.
func (e *Engine) PredictOverall(ctx context.Context, team1, team2 TeamInput, mapPreds []models.MapPrediction) models.OverallPrediction {
	if e.gen != nil {
		if p := e.aiOverallPrediction(ctx, team1, team2, mapPreds); p != nil {
			predictions.WithLabelValues("overall", "ai").Inc()
			return *p
		}
	}
	predictions.WithLabelValues("overall", "statistical").Inc()
	return e.statisticalOverallPrediction(team1, team2, mapPreds)
}

func (e *Engine) aiMapPrediction(ctx context.Context, mapName string, team1, team2 TeamInput) *models.MapPrediction {
	prompt := fmt.Sprintf(`Analyze the following CS2 match on %s:

TEAM 1: %s
%s

TEAM 2: %s
%s

Provide your analysis in this exact JSON format (ONLY JSON, no other text):
{
  "winner": "%s or %s",
  "probability": 65.5,
  "expectedRounds": 26,
  "reasoning": "Brief explanation of your prediction"
}`,
		mapName,
		team1.Team.Name, teamSummary(team1, mapName),
		team2.Team.Name, teamSummary(team2, mapName),
		team1.Team.Name, team2.Team.Name,
	)

	text, err := e.gen.Generate(ctx, systemPrompt, prompt)
	if err != nil {
		return nil
	}

	var parsed struct {
		Winner         string  `json:"winner"`
		Probability    float64 `json:"probability"`
		ExpectedRounds int     `json:"expectedRounds"`
		Reasoning      string  `json:"reasoning"`
	}
	if !parseModelJSON(text, &parsed) {
		e.logger.Warnw("Unparseable AI map prediction", "map", mapName)
		return nil
	}
	if parsed.Winner != team1.Team.Name && parsed.Winner != team2.Team.Name {
		e.logger.Warnw("AI map prediction named unknown winner, falling back",
			"map", mapName, "winner", parsed.Winner)
		return nil
	}

	rounds := parsed.ExpectedRounds
	if rounds <= 0 {
		rounds = baseRounds
	}

	return &models.MapPrediction{
		MapName:     mapName,
		Winner:      parsed.Winner,
		Probability: parsed.Probability,
		TotalRounds: rounds,
		OverUnder:   overUnderFor(rounds),
	}
}

func (e *Engine) aiOverallPrediction(ctx context.Context, team1, team2 TeamInput, mapPreds []models.MapPrediction) *models.OverallPrediction {
	var sb strings.Builder
	for _, p := range mapPreds {
		fmt.Fprintf(&sb, "%s: %s (%.1f%%)\n", p.MapName, p.Winner, p.Probability)
	}

	prompt := fmt.Sprintf(`Analyze the overall outcome of the CS2 match %s vs %s:

TEAM 1: %s
%s

TEAM 2: %s
%s

MAP PREDICTIONS:
%s
Based on all data, provide your overall match prediction in this exact JSON format (ONLY JSON):
{
  "winner": "%s or %s",
  "probability": 68.5,
  "totalMaps": 3,
  "confidence": 75.0,
  "reasoning": "Brief explanation considering all factors"
}`,
		team1.Team.Name, team2.Team.Name,
		team1.Team.Name, teamSummary(team1, ""),
		team2.Team.Name, teamSummary(team2, ""),
		sb.String(),
		team1.Team.Name, team2.Team.Name,
	)

	text, err := e.gen.Generate(ctx, systemPrompt, prompt)
	if err != nil {
		return nil
	}

	var parsed struct {
		Winner      string  `json:"winner"`
		Probability float64 `json:"probability"`
		TotalMaps   int     `json:"totalMaps"`
		Confidence  float64 `json:"confidence"`
		Reasoning   string  `json:"reasoning"`
	}
	if !parseModelJSON(text, &parsed) {
		e.logger.Warnw("Unparseable AI overall prediction")
		return nil
	}
	if parsed.Winner != team1.Team.Name && parsed.Winner != team2.Team.Name {
		e.logger.Warnw("AI overall prediction named unknown winner, falling back",
			"winner", parsed.Winner)
		return nil
	}

	totalMaps := parsed.TotalMaps
	if totalMaps <= 0 {
		totalMaps = len(mapPreds)
	}

	return &models.OverallPrediction{
		Winner:      parsed.Winner,
		Probability: parsed.Probability,
		TotalMaps:   totalMaps,
		Over2Maps:   totalMaps > 2,
		Confidence:  parsed.Confidence,
	}
}

// statisticalMapPrediction scores each team as map win rate plus twice its
// recent win count and converts the winner's share into a bounded
// probability.
func (e *Engine) statisticalMapPrediction(mapName string, team1, team2 TeamInput) models.MapPrediction {
	score1 := mapWinRate(team1.MapStats, mapName) + 2*float64(recentWins(team1.Team.RecentForm))
	score2 := mapWinRate(team2.MapStats, mapName) + 2*float64(recentWins(team2.Team.RecentForm))

	winner := team1.Team.Name
	winnerScore := score1
	if score2 > score1 {
		winner = team2.Team.Name
		winnerScore = score2
	}

	probability := 50.0
	if total := score1 + score2; total > 0 {
		probability = winnerScore / total * 100
	}
	probability = clamp(probability, 40, 75)

	rounds := baseRounds + e.rng.Intn(5) - 2

	return models.MapPrediction{
		MapName:     mapName,
		Winner:      winner,
		Probability: probability,
		TotalRounds: rounds,
		OverUnder:   overUnderFor(rounds),
	}
}

// statisticalOverallPrediction blends the per-map win count with the mean
// map probability and a recent-form bonus for the predicted winner.
func (e *Engine) statisticalOverallPrediction(team1, team2 TeamInput, mapPreds []models.MapPrediction) models.OverallPrediction {
	if len(mapPreds) == 0 {
		return models.OverallPrediction{
			Winner:      team1.Team.Name,
			Probability: 50,
			Confidence:  55,
		}
	}

	wins1, wins2 := 0, 0
	probSum := 0.0
	for _, p := range mapPreds {
		probSum += p.Probability
		switch p.Winner {
		case team1.Team.Name:
			wins1++
		case team2.Team.Name:
			wins2++
		}
	}

	totalMaps := len(mapPreds)
	winner, winnerForm := team1.Team.Name, team1.Team.RecentForm
	maxWins := wins1
	if wins2 > wins1 {
		winner, winnerForm = team2.Team.Name, team2.Team.RecentForm
		maxWins = wins2
	}

	raw := float64(maxWins) / float64(totalMaps) * 100
	avgMapProbability := probSum / float64(totalMaps)
	formBonus := 10 * winFraction(winnerForm)

	probability := clamp(0.5*raw+0.4*avgMapProbability+formBonus, 48, 82)
	confidence := clamp(50+40*math.Abs(float64(wins1-wins2))/float64(totalMaps), 55, 88)

	return models.OverallPrediction{
		Winner:      winner,
		Probability: probability,
		TotalMaps:   totalMaps,
		Over2Maps:   totalMaps > 2,
		Confidence:  confidence,
	}
}

const systemPrompt = "You are a professional CS2 esports analyst. Always respond with valid JSON only."

func teamSummary(in TeamInput, mapName string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Ranking: #%d\n", in.Team.Ranking)
	fmt.Fprintf(&sb, "Recent Form: %s\n", strings.Join(in.Team.RecentForm, ", "))

	if mapName != "" {
		if ms, ok := findMap(in.MapStats, mapName); ok {
			fmt.Fprintf(&sb, "Map Stats (%s): Win Rate: %.1f%%, Played: %d, CT: %.1f%%, T: %.1f%%\n",
				mapName, ms.WinRate, ms.PlayedCount, ms.CTWinRate, ms.TWinRate)
		} else {
			fmt.Fprintf(&sb, "Map Stats (%s): No data\n", mapName)
		}
	} else {
		fmt.Fprintf(&sb, "Overall Stats: %d maps tracked\n", len(in.MapStats))
	}

	top := topByRating(in.Players, topPlayers)
	parts := make([]string, 0, len(top))
	for _, p := range top {
		parts = append(parts, fmt.Sprintf("%s (Rating: %.2f, K/D: %.2f)", p.Name, p.Rating, p.KD))
	}
	fmt.Fprintf(&sb, "Top Players: %s", strings.Join(parts, ", "))
	return sb.String()
}

func overUnderFor(rounds int) models.OverUnder {
	prediction := "under"
	if float64(rounds) > overUnderLine {
		prediction = "over"
	}
	return models.OverUnder{
		Line:       overUnderLine,
		Prediction: prediction,
		Confidence: 50 + 8*math.Abs(float64(rounds)-overUnderLine),
	}
}

// mapWinRate returns the team's win rate on the named map, or 50 when the
// team has no record there.
func mapWinRate(stats []models.MapStats, mapName string) float64 {
	if ms, ok := findMap(stats, mapName); ok {
		return ms.WinRate
	}
	return 50
}

func findMap(stats []models.MapStats, mapName string) (models.MapStats, bool) {
	for _, ms := range stats {
		if strings.EqualFold(ms.Name, mapName) {
			return ms, true
		}
	}
	return models.MapStats{}, false
}

func recentWins(form []string) int {
	wins := 0
	for _, r := range form {
		if r == "W" {
			wins++
		}
	}
	return wins
}

func winFraction(form []string) float64 {
	if len(form) == 0 {
		return 0
	}
	return float64(recentWins(form)) / float64(len(form))
}

func topByRating(players []models.Player, n int) []models.Player {
	sorted := make([]models.Player, len(players))
	copy(sorted, players)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Rating > sorted[j].Rating })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
