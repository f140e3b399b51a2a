// Package analyzer orchestrates a full match analysis: it pulls per-team
// statistics from every provider concurrently, merges them into one view,
// runs the prediction engine per map and overall, and assembles the
// analysis document.
package analyzer

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cs2central/analytics-api/internal/cache"
	"github.com/cs2central/analytics-api/internal/models"
	"github.com/cs2central/analytics-api/internal/predict"
	"github.com/cs2central/analytics-api/internal/provider"
)

const (
	// Upper bound on concurrent upstream calls per analysis.
	maxConcurrentFetches = 10

	maxRecentForm = 5
	maxKeyPlayers = 5
	maxH2HEntries = 10
	maxNewsItems  = 15
)

// defaultMapPool is analyzed when the match itself carries no usable map
// list.
var defaultMapPool = []string{"Dust2", "Mirage", "Inferno"}

type Service struct {
	providers []provider.Provider
	cache     *cache.Cache
	engine    *predict.Engine
	ttl       time.Duration
	logger    *zap.SugaredLogger
	now       func() time.Time
}

func New(providers []provider.Provider, c *cache.Cache, engine *predict.Engine, ttl time.Duration, logger *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = cache.TTLAnalysis
	}
	return &Service{
		providers: providers,
		cache:     c,
		engine:    engine,
		ttl:       ttl,
		logger:    logger.Sugar(),
		now:       time.Now,
	}
}

// teamFetch holds one provider's view of one team.
type teamFetch struct {
	stats    *provider.TeamStats
	mapStats []models.MapStats
	players  []models.Player
}

// providerFetch holds one provider's view of the whole match.
type providerFetch struct {
	team1 teamFetch
	team2 teamFetch
	h2h   []models.H2HMatch
	news  []models.News
}

// Analyze produces the full analysis document for a match. Results are
// cached by match id; a hit short-circuits all upstream and AI calls.
func (s *Service) Analyze(ctx context.Context, match models.Match) (*models.MatchAnalysis, bool) {
	cacheKey := "analysis_" + match.ID
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached.(*models.MatchAnalysis), true
	}

	s.logger.Infow("Starting analysis",
		"match", match.ID, "team1", match.Team1.Name, "team2", match.Team2.Name)

	fetches := s.fetchAll(ctx, match)

	s.populateTeamForm(&match, fetches)

	team1Maps := mergeMapStats(collect(fetches, func(f *providerFetch) []models.MapStats { return f.team1.mapStats }))
	team2Maps := mergeMapStats(collect(fetches, func(f *providerFetch) []models.MapStats { return f.team2.mapStats }))
	team1Players := mergePlayers(collect(fetches, func(f *providerFetch) []models.Player { return f.team1.players }), maxKeyPlayers)
	team2Players := mergePlayers(collect(fetches, func(f *providerFetch) []models.Player { return f.team2.players }), maxKeyPlayers)
	h2h := mergeH2H(collect(fetches, func(f *providerFetch) []models.H2HMatch { return f.h2h }), maxH2HEntries)
	news := mergeNews(collect(fetches, func(f *providerFetch) []models.News { return f.news }), maxNewsItems)

	team1Input := predict.TeamInput{Team: match.Team1, MapStats: team1Maps, Players: team1Players}
	team2Input := predict.TeamInput{Team: match.Team2, MapStats: team2Maps, Players: team2Players}

	// Per-map predictions run one at a time: each call's fallback decision
	// is independent and sequential issuance bounds burst load on the AI
	// gateway.
	mapPool := s.mapsToAnalyze(match)
	mapPredictions := make([]models.MapPrediction, 0, len(mapPool))
	for _, mapName := range mapPool {
		mapPredictions = append(mapPredictions, s.engine.PredictMap(ctx, mapName, team1Input, team2Input))
	}

	overall := s.engine.PredictOverall(ctx, team1Input, team2Input, mapPredictions)

	analysis := &models.MatchAnalysis{
		TeamAnalysis: models.TeamAnalysisPair{
			Team1: models.TeamAnalysis{
				Strengths:  strengths(team1Maps, team1Players),
				Weaknesses: weaknesses(team1Maps, team1Players),
				MapPool:    team1Maps,
				KeyPlayers: team1Players,
			},
			Team2: models.TeamAnalysis{
				Strengths:  strengths(team2Maps, team2Players),
				Weaknesses: weaknesses(team2Maps, team2Players),
				MapPool:    team2Maps,
				KeyPlayers: team2Players,
			},
		},
		H2H:               h2h,
		MapPredictions:    mapPredictions,
		OverallPrediction: overall,
		News:              news,
		LastUpdated:       s.now().UTC().Format(time.RFC3339),
	}

	s.cache.Set(cacheKey, analysis, s.ttl)
	s.logger.Infow("Analysis complete",
		"match", match.ID, "winner", overall.Winner, "maps", len(mapPredictions))
	return analysis, false
}

// fetchAll fans out every per-team fetch across every provider with an
// all-complete join. Each branch absorbs its own failures into empty or
// nil results, so a dead provider only thins the data.
func (s *Service) fetchAll(ctx context.Context, match models.Match) []*providerFetch {
	fetches := make([]*providerFetch, len(s.providers))
	for i := range fetches {
		fetches[i] = &providerFetch{}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFetches)

	name1, name2 := match.Team1.Name, match.Team2.Name
	for i, p := range s.providers {
		f := fetches[i]

		g.Go(func() error { f.team1.stats = p.TeamStats(gctx, name1); return nil })
		g.Go(func() error { f.team2.stats = p.TeamStats(gctx, name2); return nil })
		g.Go(func() error { f.team1.mapStats = p.TeamMapStats(gctx, name1); return nil })
		g.Go(func() error { f.team2.mapStats = p.TeamMapStats(gctx, name2); return nil })
		g.Go(func() error { f.team1.players = p.PlayerStats(gctx, name1); return nil })
		g.Go(func() error { f.team2.players = p.PlayerStats(gctx, name2); return nil })
		g.Go(func() error { f.h2h = p.H2H(gctx, name1, name2); return nil })
		g.Go(func() error { f.news = p.News(gctx, []string{name1, name2}); return nil })
	}
	g.Wait()

	return fetches
}

// populateTeamForm fills ranking and recent form, preferring the earliest
// provider that resolved the team and leaving defaults otherwise.
func (s *Service) populateTeamForm(match *models.Match, fetches []*providerFetch) {
	apply := func(team *models.Team, pick func(f *providerFetch) *provider.TeamStats) {
		for _, f := range fetches {
			stats := pick(f)
			if stats == nil {
				continue
			}
			team.Ranking = stats.Ranking
			team.WinRate = stats.WinRate
			if len(stats.RecentForm) > maxRecentForm {
				team.RecentForm = stats.RecentForm[:maxRecentForm]
			} else {
				team.RecentForm = stats.RecentForm
			}
			return
		}
	}

	apply(&match.Team1, func(f *providerFetch) *provider.TeamStats { return f.team1.stats })
	apply(&match.Team2, func(f *providerFetch) *provider.TeamStats { return f.team2.stats })
}

// mapsToAnalyze prefers the match's own map list, dropping placeholder
// entries, and falls back to a fixed default pool.
func (s *Service) mapsToAnalyze(match models.Match) []string {
	var maps []string
	for _, name := range match.Maps {
		if name != "" && name != provider.PlaceholderTeam {
			maps = append(maps, name)
		}
	}
	if len(maps) == 0 {
		return defaultMapPool
	}
	return maps
}

func collect[T any](fetches []*providerFetch, pick func(f *providerFetch) []T) [][]T {
	out := make([][]T, 0, len(fetches))
	for _, f := range fetches {
		out = append(out, pick(f))
	}
	return out
}
