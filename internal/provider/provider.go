// Package provider defines the contract every match-data source adapter
// implements. Adapters are isolated failure domains: list and stats
// operations never return errors, they degrade to empty or nil results and
// log, so a failing upstream can never abort a request.
package provider

import (
	"context"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cs2central/analytics-api/internal/models"
)

// UpstreamRequests counts adapter calls by provider, operation and outcome.
var UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "cs2_upstream_requests_total",
	Help: "Total upstream provider calls by provider, operation and outcome",
}, []string{"provider", "op", "outcome"})

// PlaceholderTeam is substituted when upstream data is incomplete but the
// match is still worth surfacing.
const PlaceholderTeam = "TBD"

// TeamStats is the recent-form/ranking bundle returned by TeamStats.
type TeamStats struct {
	Ranking    int
	WinRate    float64
	RecentForm []string
	Roster     []string
}

// Provider is the shared shape of every source adapter.
type Provider interface {
	// Name identifies the provider ("hltv", "pandascore").
	Name() string
	// Prefix is the id namespace this provider stamps on its matches.
	Prefix() string

	// ListMatches returns current matches. Never errors; failures yield
	// an empty list.
	ListMatches(ctx context.Context) []models.Match
	// MatchByID resolves a single match by its namespaced id.
	MatchByID(ctx context.Context, id string) (*models.Match, bool)
	// TeamStats returns nil when the team cannot be resolved.
	TeamStats(ctx context.Context, name string) *TeamStats
	// TeamMapStats returns an empty list on failure.
	TeamMapStats(ctx context.Context, name string) []models.MapStats
	// PlayerStats returns an empty list on failure; roster size varies.
	PlayerStats(ctx context.Context, name string) []models.Player
	// H2H returns head-to-head history, empty on failure.
	H2H(ctx context.Context, nameA, nameB string) []models.H2HMatch
	// News returns at most 10 items whose titles mention any given name
	// (case-insensitive). Sorting is the caller's job.
	News(ctx context.Context, names []string) []models.News
}

// TitleMentions reports whether title mentions any of the team names,
// case-insensitively.
func TitleMentions(title string, names []string) bool {
	lower := strings.ToLower(title)
	for _, n := range names {
		if n == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

// BestSide returns "CT" or "T" from a pair of side win rates.
func BestSide(ctWinRate, tWinRate float64) string {
	if ctWinRate >= tWinRate {
		return "CT"
	}
	return "T"
}
