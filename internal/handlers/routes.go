package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Routes builds the HTTP router. The recoverer here is the outermost
// boundary: nothing below the route layer is allowed to panic outward, and
// anything that does becomes a structured 500.
func (h *Handler) Routes(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}))
	r.Use(h.requestLogger)
	r.Use(h.recoverer)

	r.Get("/", h.Root)
	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/matches", func(r chi.Router) {
		r.Get("/", h.ListMatches)
		r.Get("/sources/{provider}", h.ProbeSource)
		r.Get("/{id}", h.GetMatch)
		r.Post("/{id}/analyze", h.AnalyzeMatch)
	})

	r.NotFound(h.NotFound)

	return r
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		h.logger.Infow("Request handled",
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start),
		)
	})
}

// recoverer converts panics into 500 responses. The real message is only
// exposed in development.
func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.Errorw("Panic in request handler",
					"path", r.URL.Path, "panic", rec)

				message := "Something went wrong"
				if h.development {
					message = "panic: " + panicString(rec)
				}
				h.jsonResponse(w, http.StatusInternalServerError, map[string]interface{}{
					"success": false,
					"error":   "Internal server error",
					"message": message,
				})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func panicString(rec interface{}) string {
	switch v := rec.(type) {
	case error:
		return v.Error()
	case string:
		return v
	default:
		return "unknown"
	}
}
