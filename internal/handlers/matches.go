package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cs2central/analytics-api/internal/aggregator"
)

// ListMatches returns the canonical deduplicated match list.
func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	res := h.matches.ListAllMatches(r.Context())

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"success":   true,
		"data":      res.Matches,
		"cached":    res.Cached,
		"sources":   res.Sources,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// GetMatch returns a single match by its namespaced id.
func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	match, err := h.matches.MatchByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, aggregator.ErrMatchNotFound) {
			h.errorResponse(w, http.StatusNotFound, "Match not found")
			return
		}
		h.logger.Errorw("Match lookup failed", "id", id, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to fetch match")
		return
	}

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    match,
	})
}

// AnalyzeMatch runs (or returns the cached) full analysis for a match.
func (h *Handler) AnalyzeMatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	match, err := h.matches.MatchByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, aggregator.ErrMatchNotFound) {
			h.errorResponse(w, http.StatusNotFound, "Match not found")
			return
		}
		h.logger.Errorw("Match lookup failed", "id", id, "error", err)
		h.errorResponse(w, http.StatusInternalServerError, "Failed to analyze match")
		return
	}

	analysis, cached := h.analyzer.Analyze(r.Context(), *match)

	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    analysis,
		"cached":  cached,
	})
}

// ProbeSource returns the first few raw matches straight from one
// provider. Debug/testing surface only.
func (h *Handler) ProbeSource(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "provider")

	for _, p := range h.matches.Providers() {
		if p.Name() != name {
			continue
		}
		matches := p.ListMatches(r.Context())
		sample := matches
		if len(sample) > 5 {
			sample = sample[:5]
		}
		h.jsonResponse(w, http.StatusOK, map[string]interface{}{
			"success":  true,
			"provider": name,
			"count":    len(matches),
			"data":     sample,
		})
		return
	}

	h.errorResponse(w, http.StatusNotFound, "Unknown provider")
}
