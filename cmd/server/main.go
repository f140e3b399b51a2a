package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/cs2central/analytics-api/internal/aggregator"
	"github.com/cs2central/analytics-api/internal/ai"
	"github.com/cs2central/analytics-api/internal/analyzer"
	"github.com/cs2central/analytics-api/internal/cache"
	"github.com/cs2central/analytics-api/internal/config"
	"github.com/cs2central/analytics-api/internal/handlers"
	"github.com/cs2central/analytics-api/internal/predict"
	"github.com/cs2central/analytics-api/internal/provider"
	"github.com/cs2central/analytics-api/internal/provider/hltv"
	"github.com/cs2central/analytics-api/internal/provider/pandascore"
	"github.com/cs2central/analytics-api/internal/scrape"
)

func main() {
	cfg := config.Load()

	var logger *zap.Logger
	var err error
	if cfg.IsDevelopment() {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Cache lifecycle is explicit: sweep starts here, stops on shutdown.
	c := cache.New(logger)
	c.Start(ctx)
	defer c.Stop()

	// Provider order is precedence: the HTML-scraped site is primary, the
	// structured API supplements it.
	scraper := scrape.NewClient(cfg.ScraperAPIKey, cfg.ScraperAPIURL, logger)
	providers := []provider.Provider{
		hltv.New(scraper, cfg.HLTVBaseURL, logger),
		pandascore.New(cfg.PandaScoreAPIKey, cfg.PandaScoreBaseURL, cfg.PandaScoreRateLimit, logger),
	}

	var gen predict.TextGenerator
	if gateway := ai.New(cfg, logger); gateway != nil {
		gen = gateway
	}
	engine := predict.NewEngine(gen, nil, logger)

	matches := aggregator.New(providers, c, cfg.MatchCacheTTL, logger)
	analysis := analyzer.New(providers, c, engine, cfg.AnalysisCacheTTL, logger)

	handler := handlers.New(handlers.Config{
		Matches:  matches,
		Analyzer: analysis,
		Cache:    c,
		Keys: handlers.KeyStatus{
			ScraperAPI: cfg.ScraperAPIKey != "",
			PandaScore: cfg.PandaScoreAPIKey != "",
			AI:         gen != nil,
		},
		Development: cfg.IsDevelopment(),
		Logger:      logger,
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: handler.Routes(cfg.AllowedOrigins),
	}

	go func() {
		sugar.Infow("Server starting",
			"port", cfg.Port,
			"env", cfg.Env,
			"scraperApiConfigured", cfg.ScraperAPIKey != "",
			"pandascoreConfigured", cfg.PandaScoreAPIKey != "",
			"aiConfigured", gen != nil,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalw("Server failed", "error", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("Graceful shutdown failed", "error", err)
	}
	sugar.Info("Server stopped")
}
