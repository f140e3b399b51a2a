package models

// News importance levels.
const (
	ImportanceHigh   = "high"
	ImportanceMedium = "medium"
	ImportanceLow    = "low"
)

// Player identity for merge purposes is the lower-cased, trimmed name.
type Player struct {
	Name              string  `json:"name"`
	Rating            float64 `json:"rating"`
	KD                float64 `json:"kd"`
	RecentPerformance int     `json:"recentPerformance"`
}

// MapStats describes a team's record on a single map. Identity for merge
// purposes is the map name. BestSide is whichever side win rate is higher.
type MapStats struct {
	Name        string  `json:"name"`
	PlayedCount int     `json:"playedCount"`
	WinRate     float64 `json:"winRate"`
	CTWinRate   float64 `json:"ctWinRate"`
	TWinRate    float64 `json:"tWinRate"`
	BestSide    string  `json:"bestSide"`
}

// H2HMatch is a single head-to-head result. There is no unique identity;
// entries from multiple providers are concatenated, not deduplicated.
type H2HMatch struct {
	Date   string `json:"date"`
	Winner string `json:"winner"`
	Score  string `json:"score"`
	Event  string `json:"event"`
}

type News struct {
	ID         string `json:"id"`
	Timestamp  string `json:"timestamp"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	Importance string `json:"importance"`
	Source     string `json:"source"`
}

// OverUnder is a rounds-total verdict against a fixed betting line.
type OverUnder struct {
	Line       float64 `json:"line"`
	Prediction string  `json:"prediction"`
	Confidence float64 `json:"confidence"`
}

type MapPrediction struct {
	MapName     string    `json:"mapName"`
	Winner      string    `json:"winner"`
	Probability float64   `json:"probability"`
	TotalRounds int       `json:"totalRounds"`
	OverUnder   OverUnder `json:"overUnder"`
}

type OverallPrediction struct {
	Winner      string  `json:"winner"`
	Probability float64 `json:"probability"`
	TotalMaps   int     `json:"totalMaps"`
	Over2Maps   bool    `json:"over2Maps"`
	Confidence  float64 `json:"confidence"`
}

// TeamAnalysis is the per-team half of an analysis document.
type TeamAnalysis struct {
	Strengths  []string   `json:"strengths"`
	Weaknesses []string   `json:"weaknesses"`
	MapPool    []MapStats `json:"mapPool"`
	KeyPlayers []Player   `json:"keyPlayers"`
}

type TeamAnalysisPair struct {
	Team1 TeamAnalysis `json:"team1"`
	Team2 TeamAnalysis `json:"team2"`
}

// MatchAnalysis is constructed fresh per analysis request, cached by match
// id, and never mutated after construction.
type MatchAnalysis struct {
	TeamAnalysis      TeamAnalysisPair  `json:"teamAnalysis"`
	H2H               []H2HMatch        `json:"h2h"`
	MapPredictions    []MapPrediction   `json:"mapPredictions"`
	OverallPrediction OverallPrediction `json:"overallPrediction"`
	News              []News            `json:"news"`
	LastUpdated       string            `json:"lastUpdated"`
}
