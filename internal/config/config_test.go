package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"CONFIG_FILE", "API_HOST", "API_PORT", "LOG_LEVEL", "CORS_ORIGINS",
		"CITE_ASSIST_API_URL", "GEMINI_MODEL", "AGENT_FILTER_THRESHOLD",
		"AGENT_MAX_CHUNKS", "AGENT_TIMEOUT_SECONDS", "FILTER_MAX_CONCURRENCY",
		"SEARCH_TIMEOUT_SECONDS", "RETRY_MAX_ATTEMPTS",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.APIHost != "0.0.0.0" || cfg.APIPort != "8001" {
		t.Fatalf("unexpected listen defaults: %s:%s", cfg.APIHost, cfg.APIPort)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected default log level info, got %q", cfg.LogLevel)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[0] != "https://script.google.com" {
		t.Fatalf("unexpected default CORS origins: %v", cfg.CORSOrigins)
	}
	if cfg.CiteAssistAPIURL != "http://localhost:8000" {
		t.Fatalf("unexpected default cite-assist url: %q", cfg.CiteAssistAPIURL)
	}
	if cfg.GeminiModel != "gemini-2.5-flash-lite" {
		t.Fatalf("unexpected default model: %q", cfg.GeminiModel)
	}
	if cfg.AgentFilterThreshold != 0.7 || cfg.AgentMaxChunks != 20 || cfg.AgentTimeoutSeconds != 5 {
		t.Fatalf("unexpected agent defaults: %+v", cfg)
	}
	if cfg.FilterMaxConcurrency != 8 {
		t.Fatalf("expected default filter concurrency 8, got %d", cfg.FilterMaxConcurrency)
	}
	if cfg.SearchTimeoutSeconds != 30 || cfg.RetryMaxAttempts != 3 {
		t.Fatalf("unexpected collaborator defaults: %+v", cfg)
	}
	if cfg.RetryInitialBackoff != 2*time.Second || cfg.RetryMaxBackoff != 10*time.Second {
		t.Fatalf("unexpected backoff defaults: %+v", cfg)
	}
	if cfg.APIRateLimitRPS != 0 || cfg.APIMaxInFlight != 0 {
		t.Fatalf("traffic control must be off by default: %+v", cfg)
	}
	if cfg.CacheEnabled || cfg.CacheTTLSeconds != 3600 {
		t.Fatalf("unexpected cache defaults: %+v", cfg)
	}
}

func TestLoadParsesEnvOverrides(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("API_PORT", "9000")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("AGENT_FILTER_THRESHOLD", "0.55")
	t.Setenv("AGENT_MAX_CHUNKS", "12")
	t.Setenv("RETRY_INITIAL_BACKOFF", "500ms")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("CACHE_ENABLED", "true")

	cfg := Load()
	if cfg.APIPort != "9000" {
		t.Fatalf("expected port override, got %q", cfg.APIPort)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("expected trimmed origin list, got %v", cfg.CORSOrigins)
	}
	if cfg.AgentFilterThreshold != 0.55 || cfg.AgentMaxChunks != 12 {
		t.Fatalf("expected agent overrides, got %+v", cfg)
	}
	if cfg.RetryInitialBackoff != 500*time.Millisecond {
		t.Fatalf("expected backoff override, got %v", cfg.RetryInitialBackoff)
	}
	if cfg.APIRateLimitRPS != 2.5 {
		t.Fatalf("expected rate limit override, got %v", cfg.APIRateLimitRPS)
	}
	if !cfg.CacheEnabled {
		t.Fatalf("expected cache enabled")
	}
}

func TestLoadIgnoresMalformedEnvValues(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("AGENT_MAX_CHUNKS", "lots")
	t.Setenv("AGENT_FILTER_THRESHOLD", "very high")
	t.Setenv("CACHE_ENABLED", "sure")

	cfg := Load()
	if cfg.AgentMaxChunks != 20 || cfg.AgentFilterThreshold != 0.7 || cfg.CacheEnabled {
		t.Fatalf("malformed values must fall back to defaults: %+v", cfg)
	}
}

func TestLoadAppliesYAMLOverlayUnderEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("api_port: \"7070\"\ngemini_model: gemini-exp\ncors_origins:\n  - https://only.example\nagent_max_chunks: 15\n")
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write overlay: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("API_PORT", "")
	t.Setenv("GEMINI_MODEL", "")
	t.Setenv("CORS_ORIGINS", "")
	t.Setenv("AGENT_MAX_CHUNKS", "25")

	cfg := Load()
	if cfg.APIPort != "7070" {
		t.Fatalf("expected overlay port, got %q", cfg.APIPort)
	}
	if cfg.GeminiModel != "gemini-exp" {
		t.Fatalf("expected overlay model, got %q", cfg.GeminiModel)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "https://only.example" {
		t.Fatalf("expected overlay origins, got %v", cfg.CORSOrigins)
	}
	// Environment still wins over the file.
	if cfg.AgentMaxChunks != 25 {
		t.Fatalf("env must override overlay, got %d", cfg.AgentMaxChunks)
	}
}
