package models

// Match status values as exposed on the wire.
const (
	StatusLive     = "live"
	StatusUpcoming = "upcoming"
	StatusFinished = "finished"
)

// Team is one side of a match. Ranking and RecentForm start at their zero
// values when a match is aggregated and are filled in during analysis.
type Team struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Logo       string   `json:"logo"`
	Ranking    int      `json:"ranking"`
	WinRate    float64  `json:"winRate"`
	RecentForm []string `json:"recentForm"`
}

// Score is a per-team integer score pair.
type Score struct {
	Team1 int `json:"team1"`
	Team2 int `json:"team2"`
}

// CurrentMap is the map in progress on a live match plus its sub-score.
type CurrentMap struct {
	Name  string `json:"name"`
	Score Score  `json:"score"`
}

// MapPick records which team picked a map and in what order.
type MapPick struct {
	Map      string `json:"map"`
	PickedBy string `json:"pickedBy"`
	Number   int    `json:"number"`
}

// Match is the canonical match entity. IDs are namespaced by the provider
// that produced them ("hltv_..." / "ps_...") and are stable across repeated
// fetches within a provider.
type Match struct {
	ID           string      `json:"id"`
	Team1        Team        `json:"team1"`
	Team2        Team        `json:"team2"`
	Status       string      `json:"status"`
	StartTime    string      `json:"startTime"`
	Event        string      `json:"event"`
	Format       string      `json:"format"`
	CurrentScore *Score      `json:"currentScore,omitempty"`
	CurrentMap   *CurrentMap `json:"currentMap,omitempty"`
	Maps         []string    `json:"maps,omitempty"`
	MapsPicks    []MapPick   `json:"mapsPicks,omitempty"`
	Stream       string      `json:"stream,omitempty"`
}

// PairKey is the dedup key used when merging match lists from multiple
// providers: exact, case-sensitive team-name pairing.
func (m *Match) PairKey() string {
	return m.Team1.Name + "_" + m.Team2.Name
}
