package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AI backend selectors.
const (
	AIProviderDeepSeek = "deepseek"
	AIProviderOpenAI   = "openai"
)

type Config struct {
	// Server
	Port int
	Env  string

	// CORS
	AllowedOrigins []string

	// Rendered-page scraping proxy (HTML provider transport)
	ScraperAPIKey string
	ScraperAPIURL string
	HLTVBaseURL   string

	// PandaScore API
	PandaScoreAPIKey    string
	PandaScoreBaseURL   string
	PandaScoreRateLimit float64

	// AI backends
	AIProvider      string
	DeepSeekAPIKey  string
	DeepSeekBaseURL string
	OpenAIAPIKey    string
	OpenAIBaseURL   string

	// Cache TTL overrides
	MatchCacheTTL    time.Duration
	AnalysisCacheTTL time.Duration
}

// Load reads configuration from the environment. Nothing here is fatal:
// missing API keys degrade the relevant component (provider returns empty
// results, prediction engine takes the statistical path) rather than
// preventing startup.
func Load() *Config {
	// Best effort; a missing .env file is the normal production case.
	_ = godotenv.Load()

	cfg := &Config{
		Port: getEnvInt("PORT", 8080),
		Env:  getEnv("ENV", "development"),

		ScraperAPIKey: getEnv("SCRAPER_API_KEY", ""),
		ScraperAPIURL: getEnv("SCRAPER_API_URL", "https://api.scraperapi.com"),
		HLTVBaseURL:   getEnv("HLTV_BASE_URL", "https://www.hltv.org"),

		PandaScoreAPIKey:    getEnv("PANDASCORE_API_KEY", ""),
		PandaScoreBaseURL:   getEnv("PANDASCORE_BASE_URL", "https://api.pandascore.co"),
		PandaScoreRateLimit: getEnvFloat("PANDASCORE_RATE_LIMIT", 2),

		AIProvider:      getEnv("AI_PROVIDER", AIProviderDeepSeek),
		DeepSeekAPIKey:  getEnv("DEEPSEEK_API_KEY", ""),
		DeepSeekBaseURL: getEnv("DEEPSEEK_BASE_URL", "https://api.deepseek.com"),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", "https://api.openai.com"),

		MatchCacheTTL:    getEnvDuration("MATCH_CACHE_TTL", 2*time.Minute),
		AnalysisCacheTTL: getEnvDuration("ANALYSIS_CACHE_TTL", 10*time.Minute),
	}

	origins := getEnv("ALLOWED_ORIGINS", "*")
	for _, o := range strings.Split(origins, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	return cfg
}

// IsDevelopment controls whether internal error messages reach responses.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
