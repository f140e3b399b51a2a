package handlers

import (
	"net/http"
	"time"
)

var startedAt = time.Now()

// Root returns the service banner and endpoint index.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"name":      "CS2 Analytics Backend",
		"version":   "1.0.0",
		"status":    "running",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"endpoints": map[string]string{
			"health":       "/health",
			"matches":      "/api/matches",
			"matchDetails": "/api/matches/{id}",
			"analyze":      "/api/matches/{id}/analyze",
			"sources":      "/api/matches/sources/{provider}",
			"metrics":      "/metrics",
		},
	})
}

// Health reports liveness, cache statistics and which external keys are
// configured. Key values themselves are never exposed.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(startedAt).Seconds(),
		"cache":     h.cache.Stats(),
		"keys":      h.keys,
	})
}

// NotFound is the catch-all for unknown routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusNotFound, map[string]interface{}{
		"success": false,
		"error":   "Endpoint not found",
		"path":    r.URL.Path,
	})
}
