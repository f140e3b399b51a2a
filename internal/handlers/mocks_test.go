package handlers

import (
	"context"

	"github.com/cs2central/analytics-api/internal/aggregator"
	"github.com/cs2central/analytics-api/internal/models"
	"github.com/cs2central/analytics-api/internal/provider"
)

// MockMatchService
type MockMatchService struct {
	ListAllMatchesFunc func(ctx context.Context) aggregator.Result
	MatchByIDFunc      func(ctx context.Context, id string) (*models.Match, error)
	ProvidersFunc      func() []provider.Provider
}

func (m *MockMatchService) ListAllMatches(ctx context.Context) aggregator.Result {
	if m.ListAllMatchesFunc != nil {
		return m.ListAllMatchesFunc(ctx)
	}
	return aggregator.Result{Matches: []models.Match{}, Sources: map[string]int{}}
}

func (m *MockMatchService) MatchByID(ctx context.Context, id string) (*models.Match, error) {
	if m.MatchByIDFunc != nil {
		return m.MatchByIDFunc(ctx, id)
	}
	return nil, aggregator.ErrMatchNotFound
}

func (m *MockMatchService) Providers() []provider.Provider {
	if m.ProvidersFunc != nil {
		return m.ProvidersFunc()
	}
	return nil
}

// MockAnalysisService
type MockAnalysisService struct {
	AnalyzeFunc func(ctx context.Context, match models.Match) (*models.MatchAnalysis, bool)
}

func (m *MockAnalysisService) Analyze(ctx context.Context, match models.Match) (*models.MatchAnalysis, bool) {
	if m.AnalyzeFunc != nil {
		return m.AnalyzeFunc(ctx, match)
	}
	return &models.MatchAnalysis{}, false
}

// MockProvider implements provider.Provider for the source probe.
type MockProvider struct {
	name   string
	prefix string

	ListMatchesFunc func(ctx context.Context) []models.Match
}

func (m *MockProvider) Name() string   { return m.name }
func (m *MockProvider) Prefix() string { return m.prefix }

func (m *MockProvider) ListMatches(ctx context.Context) []models.Match {
	if m.ListMatchesFunc != nil {
		return m.ListMatchesFunc(ctx)
	}
	return nil
}

func (m *MockProvider) MatchByID(ctx context.Context, id string) (*models.Match, bool) {
	return nil, false
}
func (m *MockProvider) TeamStats(ctx context.Context, name string) *provider.TeamStats { return nil }
func (m *MockProvider) TeamMapStats(ctx context.Context, name string) []models.MapStats {
	return nil
}
func (m *MockProvider) PlayerStats(ctx context.Context, name string) []models.Player { return nil }
func (m *MockProvider) H2H(ctx context.Context, a, b string) []models.H2HMatch       { return nil }
func (m *MockProvider) News(ctx context.Context, names []string) []models.News       { return nil }
