// Package aggregator reconciles match lists from multiple source adapters
// into one canonical list.
package aggregator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cs2central/analytics-api/internal/cache"
	"github.com/cs2central/analytics-api/internal/models"
	"github.com/cs2central/analytics-api/internal/provider"
)

const (
	matchListCacheKey = "all_matches"

	// Below this many matches the primary provider is considered degraded
	// and the secondary's entries carry the list.
	degradedThreshold = 5
)

var degradedFetches = promauto.NewCounter(prometheus.CounterOpts{
	Name: "cs2_aggregator_degraded_primary_total",
	Help: "Times the primary provider returned fewer matches than the degraded threshold",
})

// ErrMatchNotFound is surfaced by the HTTP layer as a 404.
var ErrMatchNotFound = fmt.Errorf("match not found")

// Result is a canonical match list plus its provenance.
type Result struct {
	Matches []models.Match
	Sources map[string]int
	Cached  bool
}

// Service merges matches from an ordered provider list. Order is
// precedence: when two providers report the same team pairing, the entry
// from the earlier provider wins and the later one is discarded whole.
type Service struct {
	providers []provider.Provider
	cache     *cache.Cache
	ttl       time.Duration
	logger    *zap.SugaredLogger
}

func New(providers []provider.Provider, c *cache.Cache, ttl time.Duration, logger *zap.Logger) *Service {
	if ttl <= 0 {
		ttl = cache.TTLMatchList
	}
	return &Service{
		providers: providers,
		cache:     c,
		ttl:       ttl,
		logger:    logger.Sugar(),
	}
}

// ListAllMatches returns the deduplicated canonical match list. Both
// providers are queried concurrently with an all-complete join; a failed
// branch contributes an empty list and never poisons the other.
func (s *Service) ListAllMatches(ctx context.Context) Result {
	if cached, ok := s.cache.Get(matchListCacheKey); ok {
		res := cached.(Result)
		res.Cached = true
		return res
	}

	lists := make([][]models.Match, len(s.providers))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range s.providers {
		g.Go(func() error {
			lists[i] = p.ListMatches(gctx)
			return nil
		})
	}
	g.Wait()

	if len(lists) > 0 && len(lists[0]) < degradedThreshold {
		degradedFetches.Inc()
		s.logger.Warnw("Primary provider degraded, supplementing from secondary",
			"primary", s.providers[0].Name(),
			"primaryCount", len(lists[0]),
			"threshold", degradedThreshold,
		)
	}

	res := Result{
		Matches: s.merge(lists),
		Sources: map[string]int{},
	}
	for i, p := range s.providers {
		res.Sources[p.Name()] = len(lists[i])
	}

	s.cache.Set(matchListCacheKey, res, s.ttl)
	s.logger.Infow("Aggregated match list", "total", len(res.Matches), "sources", res.Sources)
	return res
}

// merge folds the per-provider lists, in precedence order, into one list
// keyed by the team-name pairing. First insertion wins; later duplicates
// are discarded entirely rather than merged field by field.
func (s *Service) merge(lists [][]models.Match) []models.Match {
	seen := map[string]bool{}
	merged := []models.Match{}

	for _, list := range lists {
		for _, m := range list {
			key := m.PairKey()
			if seen[key] {
				continue
			}
			seen[key] = true
			merged = append(merged, m)
		}
	}
	return merged
}

// MatchByID resolves one match. A namespaced id routes straight to its
// provider; otherwise the primary's list is scanned first, then the full
// merged list, before reporting not-found.
func (s *Service) MatchByID(ctx context.Context, id string) (*models.Match, error) {
	cacheKey := "match_" + id
	if cached, ok := s.cache.Get(cacheKey); ok {
		m := cached.(models.Match)
		return &m, nil
	}

	if m, ok := s.lookup(ctx, id); ok {
		s.cache.Set(cacheKey, *m, s.ttl)
		return m, nil
	}
	return nil, ErrMatchNotFound
}

func (s *Service) lookup(ctx context.Context, id string) (*models.Match, bool) {
	for _, p := range s.providers {
		if strings.HasPrefix(id, p.Prefix()) {
			return p.MatchByID(ctx, id)
		}
	}

	if len(s.providers) > 0 {
		for _, m := range s.providers[0].ListMatches(ctx) {
			if m.ID == id {
				return &m, true
			}
		}
	}

	for _, m := range s.ListAllMatches(ctx).Matches {
		if m.ID == id {
			return &m, true
		}
	}
	return nil, false
}

// Providers exposes the ordered provider list for the raw source probe.
func (s *Service) Providers() []provider.Provider {
	return s.providers
}
