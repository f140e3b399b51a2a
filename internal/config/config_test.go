package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Errorf("env = %q, want development", cfg.Env)
	}
	if !cfg.IsDevelopment() {
		t.Error("IsDevelopment = false for default env")
	}
	if cfg.MatchCacheTTL != 2*time.Minute {
		t.Errorf("matchCacheTTL = %v, want 2m", cfg.MatchCacheTTL)
	}
	if cfg.AnalysisCacheTTL != 10*time.Minute {
		t.Errorf("analysisCacheTTL = %v, want 10m", cfg.AnalysisCacheTTL)
	}
	if cfg.AIProvider != AIProviderDeepSeek {
		t.Errorf("aiProvider = %q, want deepseek default", cfg.AIProvider)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Errorf("allowedOrigins = %v, want [*]", cfg.AllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("ALLOWED_ORIGINS", "https://a.test, https://b.test,")
	t.Setenv("MATCH_CACHE_TTL", "30s")
	t.Setenv("PANDASCORE_RATE_LIMIT", "5")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Port)
	}
	if cfg.IsDevelopment() {
		t.Error("IsDevelopment = true for production env")
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.test" {
		t.Errorf("allowedOrigins = %v, want two trimmed entries", cfg.AllowedOrigins)
	}
	if cfg.MatchCacheTTL != 30*time.Second {
		t.Errorf("matchCacheTTL = %v, want 30s", cfg.MatchCacheTTL)
	}
	if cfg.PandaScoreRateLimit != 5 {
		t.Errorf("rateLimit = %v, want 5", cfg.PandaScoreRateLimit)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	t.Setenv("MATCH_CACHE_TTL", "forever")

	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("port = %d, want fallback 8080", cfg.Port)
	}
	if cfg.MatchCacheTTL != 2*time.Minute {
		t.Errorf("matchCacheTTL = %v, want fallback 2m", cfg.MatchCacheTTL)
	}
}
