package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/cs2central/analytics-api/internal/aggregator"
	"github.com/cs2central/analytics-api/internal/cache"
	"github.com/cs2central/analytics-api/internal/models"
	"github.com/cs2central/analytics-api/internal/provider"
)

// MatchService is the aggregator surface the handlers depend on.
type MatchService interface {
	ListAllMatches(ctx context.Context) aggregator.Result
	MatchByID(ctx context.Context, id string) (*models.Match, error)
	Providers() []provider.Provider
}

// AnalysisService produces an analysis document for one match. The bool
// reports whether the result came from cache.
type AnalysisService interface {
	Analyze(ctx context.Context, match models.Match) (*models.MatchAnalysis, bool)
}

// KeyStatus reports which external credentials are configured. Booleans
// only; key values never leave the config package.
type KeyStatus struct {
	ScraperAPI bool `json:"scraperApiConfigured"`
	PandaScore bool `json:"pandascoreConfigured"`
	AI         bool `json:"aiConfigured"`
}

type Config struct {
	Matches     MatchService
	Analyzer    AnalysisService
	Cache       *cache.Cache
	Keys        KeyStatus
	Development bool
	Logger      *zap.Logger
}

type Handler struct {
	matches     MatchService
	analyzer    AnalysisService
	cache       *cache.Cache
	keys        KeyStatus
	development bool
	logger      *zap.SugaredLogger
}

func New(cfg Config) *Handler {
	return &Handler{
		matches:     cfg.Matches,
		analyzer:    cfg.Analyzer,
		cache:       cfg.Cache,
		keys:        cfg.Keys,
		development: cfg.Development,
		logger:      cfg.Logger.Sugar(),
	}
}

func (h *Handler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) errorResponse(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]interface{}{
		"success": false,
		"error":   message,
	})
}
