package predict

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/cs2central/analytics-api/internal/models"
)

// MockGenerator implements TextGenerator.
type MockGenerator struct {
	GenerateFunc func(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

func (m *MockGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, systemPrompt, userPrompt)
	}
	return "", errors.New("no response")
}

// fixedRand pins the rounds jitter.
type fixedRand struct{ v int }

func (f fixedRand) Intn(n int) int { return f.v }

func teamInput(name string, form []string, maps []models.MapStats) TeamInput {
	return TeamInput{
		Team:     models.Team{Name: name, Ranking: 10, RecentForm: form},
		MapStats: maps,
	}
}

func newStatisticalEngine() *Engine {
	return NewEngine(nil, fixedRand{v: 2}, zap.NewNop())
}

func TestStatisticalMapPredictionPicksStrongerTeam(t *testing.T) {
	e := newStatisticalEngine()

	team1 := teamInput("Alpha", []string{"W", "W", "W"}, []models.MapStats{
		{Name: "Mirage", WinRate: 70, PlayedCount: 20},
	})
	team2 := teamInput("Beta", []string{"L", "L", "L"}, []models.MapStats{
		{Name: "Mirage", WinRate: 40, PlayedCount: 20},
	})

	p := e.PredictMap(context.Background(), "Mirage", team1, team2)

	if p.Winner != "Alpha" {
		t.Errorf("winner = %q, want Alpha", p.Winner)
	}
	if p.MapName != "Mirage" {
		t.Errorf("mapName = %q, want Mirage", p.MapName)
	}
	if p.Probability < 40 || p.Probability > 75 {
		t.Errorf("probability %.1f outside [40, 75]", p.Probability)
	}
	// fixedRand{2} gives rounds = 26 + 2 - 2 = 26.
	if p.TotalRounds != 26 {
		t.Errorf("totalRounds = %d, want 26", p.TotalRounds)
	}
	if p.OverUnder.Line != 26.5 {
		t.Errorf("line = %.1f, want 26.5", p.OverUnder.Line)
	}
	if p.OverUnder.Prediction != "under" {
		t.Errorf("prediction = %q, want under for 26 rounds", p.OverUnder.Prediction)
	}
}

func TestStatisticalMapPredictionNoData(t *testing.T) {
	e := newStatisticalEngine()

	// No map record on either side: both score from the 50 default, so the
	// probability collapses to the clamp floor region.
	p := e.PredictMap(context.Background(), "Ancient",
		teamInput("Alpha", nil, nil), teamInput("Beta", nil, nil))

	if p.Probability != 50 {
		t.Errorf("probability = %.1f, want 50 for symmetric inputs", p.Probability)
	}
	if p.Winner != "Alpha" {
		t.Errorf("winner = %q, want Alpha on tie", p.Winner)
	}
}

func TestStatisticalMapPredictionClampCeiling(t *testing.T) {
	e := newStatisticalEngine()

	team1 := teamInput("Alpha", []string{"W", "W", "W", "W", "W"}, []models.MapStats{
		{Name: "Dust2", WinRate: 95, PlayedCount: 30},
	})
	team2 := teamInput("Beta", nil, []models.MapStats{
		{Name: "Dust2", WinRate: 5, PlayedCount: 30},
	})

	p := e.PredictMap(context.Background(), "Dust2", team1, team2)

	if p.Probability != 75 {
		t.Errorf("probability = %.1f, want clamp ceiling 75", p.Probability)
	}
}

func TestStatisticalMapPredictionDeterministic(t *testing.T) {
	e := newStatisticalEngine()

	team1 := teamInput("Alpha", []string{"W", "L"}, []models.MapStats{{Name: "Inferno", WinRate: 55, PlayedCount: 12}})
	team2 := teamInput("Beta", []string{"W", "W"}, []models.MapStats{{Name: "Inferno", WinRate: 60, PlayedCount: 9}})

	a := e.PredictMap(context.Background(), "Inferno", team1, team2)
	b := e.PredictMap(context.Background(), "Inferno", team1, team2)

	if a != b {
		t.Errorf("identical inputs produced different predictions:\n%+v\n%+v", a, b)
	}
}

func TestAIMapPredictionAccepted(t *testing.T) {
	gen := &MockGenerator{
		GenerateFunc: func(ctx context.Context, sys, user string) (string, error) {
			return `{"winner": "Beta", "probability": 61.5, "expectedRounds": 28, "reasoning": "better T side"}`, nil
		},
	}
	e := NewEngine(gen, fixedRand{}, zap.NewNop())

	p := e.PredictMap(context.Background(), "Nuke",
		teamInput("Alpha", nil, nil), teamInput("Beta", nil, nil))

	if p.Winner != "Beta" {
		t.Errorf("winner = %q, want Beta", p.Winner)
	}
	if p.Probability != 61.5 {
		t.Errorf("probability = %.1f, want 61.5", p.Probability)
	}
	if p.TotalRounds != 28 {
		t.Errorf("totalRounds = %d, want 28", p.TotalRounds)
	}
	if p.OverUnder.Prediction != "over" {
		t.Errorf("prediction = %q, want over for 28 rounds", p.OverUnder.Prediction)
	}
}

func TestAIMapPredictionFencedJSON(t *testing.T) {
	gen := &MockGenerator{
		GenerateFunc: func(ctx context.Context, sys, user string) (string, error) {
			return "```json\n{\"winner\": \"Alpha\", \"probability\": 58, \"expectedRounds\": 25}\n```", nil
		},
	}
	e := NewEngine(gen, fixedRand{}, zap.NewNop())

	p := e.PredictMap(context.Background(), "Overpass",
		teamInput("Alpha", nil, nil), teamInput("Beta", nil, nil))

	if p.Winner != "Alpha" {
		t.Errorf("winner = %q, want Alpha from fenced JSON", p.Winner)
	}
}

func TestAIMapPredictionUnknownWinnerFallsBack(t *testing.T) {
	gen := &MockGenerator{
		GenerateFunc: func(ctx context.Context, sys, user string) (string, error) {
			return `{"winner": "Team Unknown", "probability": 90}`, nil
		},
	}
	e := NewEngine(gen, fixedRand{v: 2}, zap.NewNop())

	p := e.PredictMap(context.Background(), "Mirage",
		teamInput("Alpha", nil, nil), teamInput("Beta", nil, nil))

	// Fallback output, never the fabricated team.
	if p.Winner != "Alpha" && p.Winner != "Beta" {
		t.Errorf("winner = %q, want a real team name", p.Winner)
	}
	if p.Probability > 75 {
		t.Errorf("probability %.1f exceeds fallback ceiling", p.Probability)
	}
}

func TestAIMapPredictionGarbageFallsBack(t *testing.T) {
	gen := &MockGenerator{
		GenerateFunc: func(ctx context.Context, sys, user string) (string, error) {
			return "I think Alpha will probably win because they are better.", nil
		},
	}
	e := NewEngine(gen, fixedRand{v: 2}, zap.NewNop())

	p := e.PredictMap(context.Background(), "Mirage",
		teamInput("Alpha", []string{"W"}, nil), teamInput("Beta", nil, nil))

	if p.Winner != "Alpha" {
		t.Errorf("winner = %q, want statistical pick Alpha", p.Winner)
	}
}

func TestAIMapPredictionErrorFallsBack(t *testing.T) {
	gen := &MockGenerator{
		GenerateFunc: func(ctx context.Context, sys, user string) (string, error) {
			return "", errors.New("upstream timeout")
		},
	}
	e := NewEngine(gen, fixedRand{v: 2}, zap.NewNop())

	p := e.PredictMap(context.Background(), "Mirage",
		teamInput("Alpha", nil, nil), teamInput("Beta", nil, nil))

	if p.MapName != "Mirage" {
		t.Errorf("mapName = %q, want Mirage", p.MapName)
	}
}

func TestStatisticalOverallPrediction(t *testing.T) {
	e := newStatisticalEngine()

	team1 := teamInput("Alpha", []string{"W", "W", "W", "W", "W"}, nil)
	team2 := teamInput("Beta", []string{"L", "L"}, nil)

	preds := []models.MapPrediction{
		{MapName: "Dust2", Winner: "Alpha", Probability: 70},
		{MapName: "Mirage", Winner: "Alpha", Probability: 65},
		{MapName: "Inferno", Winner: "Beta", Probability: 55},
	}

	p := e.PredictOverall(context.Background(), team1, team2, preds)

	if p.Winner != "Alpha" {
		t.Errorf("winner = %q, want Alpha with 2 of 3 maps", p.Winner)
	}
	if p.Probability < 48 || p.Probability > 82 {
		t.Errorf("probability %.1f outside [48, 82]", p.Probability)
	}
	if p.Confidence < 55 || p.Confidence > 88 {
		t.Errorf("confidence %.1f outside [55, 88]", p.Confidence)
	}
	if p.TotalMaps != 3 {
		t.Errorf("totalMaps = %d, want 3", p.TotalMaps)
	}
	if !p.Over2Maps {
		t.Error("expected over2Maps for a 3-map series")
	}
}

func TestStatisticalOverallPredictionNoMaps(t *testing.T) {
	e := newStatisticalEngine()

	p := e.PredictOverall(context.Background(),
		teamInput("Alpha", nil, nil), teamInput("Beta", nil, nil), nil)

	if p.Winner != "Alpha" {
		t.Errorf("winner = %q, want team1 default", p.Winner)
	}
	if p.Probability != 50 || p.Confidence != 55 {
		t.Errorf("got probability %.1f confidence %.1f, want 50/55", p.Probability, p.Confidence)
	}
}

func TestAIOverallPredictionAccepted(t *testing.T) {
	gen := &MockGenerator{
		GenerateFunc: func(ctx context.Context, sys, user string) (string, error) {
			return `{"winner": "Beta", "probability": 64, "totalMaps": 3, "confidence": 71}`, nil
		},
	}
	e := NewEngine(gen, fixedRand{}, zap.NewNop())

	p := e.PredictOverall(context.Background(),
		teamInput("Alpha", nil, nil), teamInput("Beta", nil, nil),
		[]models.MapPrediction{{MapName: "Mirage", Winner: "Beta", Probability: 60}})

	if p.Winner != "Beta" {
		t.Errorf("winner = %q, want Beta", p.Winner)
	}
	if !p.Over2Maps {
		t.Error("expected over2Maps true for totalMaps 3")
	}
	if p.Confidence != 71 {
		t.Errorf("confidence = %.1f, want 71", p.Confidence)
	}
}

func TestAIOverallPredictionUnknownWinnerFallsBack(t *testing.T) {
	gen := &MockGenerator{
		GenerateFunc: func(ctx context.Context, sys, user string) (string, error) {
			return `{"winner": "Alpha Esports", "probability": 64, "confidence": 71}`, nil
		},
	}
	e := NewEngine(gen, fixedRand{}, zap.NewNop())

	p := e.PredictOverall(context.Background(),
		teamInput("Alpha", nil, nil), teamInput("Beta", nil, nil),
		[]models.MapPrediction{{MapName: "Mirage", Winner: "Alpha", Probability: 60}})

	// "Alpha Esports" is not an exact team name; fallback must own the result.
	if p.Winner != "Alpha" {
		t.Errorf("winner = %q, want Alpha from fallback", p.Winner)
	}
	if p.Probability > 82 {
		t.Errorf("probability %.1f exceeds fallback ceiling", p.Probability)
	}
}

func TestOverUnderConfidence(t *testing.T) {
	tests := []struct {
		rounds     int
		prediction string
		confidence float64
	}{
		{24, "under", 70},
		{26, "under", 54},
		{27, "over", 54},
		{30, "over", 78},
	}
	for _, tt := range tests {
		ou := overUnderFor(tt.rounds)
		if ou.Prediction != tt.prediction {
			t.Errorf("rounds %d: prediction = %q, want %q", tt.rounds, ou.Prediction, tt.prediction)
		}
		if ou.Confidence != tt.confidence {
			t.Errorf("rounds %d: confidence = %.1f, want %.1f", tt.rounds, ou.Confidence, tt.confidence)
		}
	}
}

func TestTopByRating(t *testing.T) {
	players := []models.Player{
		{Name: "low", Rating: 0.9},
		{Name: "high", Rating: 1.3},
		{Name: "mid", Rating: 1.1},
		{Name: "top", Rating: 1.4},
	}

	top := topByRating(players, 3)

	if len(top) != 3 {
		t.Fatalf("len = %d, want 3", len(top))
	}
	if top[0].Name != "top" || top[1].Name != "high" || top[2].Name != "mid" {
		t.Errorf("order = [%s %s %s], want [top high mid]", top[0].Name, top[1].Name, top[2].Name)
	}
	// Input slice is untouched.
	if players[0].Name != "low" {
		t.Error("topByRating mutated its input")
	}
}

func TestMapWinRateDefault(t *testing.T) {
	if got := mapWinRate(nil, "Mirage"); got != 50 {
		t.Errorf("mapWinRate with no data = %.1f, want 50", got)
	}
	stats := []models.MapStats{{Name: "mirage", WinRate: 63}}
	if got := mapWinRate(stats, "Mirage"); got != 63 {
		t.Errorf("mapWinRate case-insensitive lookup = %.1f, want 63", got)
	}
}
