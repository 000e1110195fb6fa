package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	APIHost  string
	APIPort  string
	LogLevel string
	Debug    bool

	CORSOrigins []string

	CiteAssistAPIURL string
	CiteAssistAPIKey string

	GoogleGenAIAPIKey string
	GeminiModel       string

	AgentFilterThreshold float64
	AgentMaxChunks       int
	AgentTimeoutSeconds  int
	FilterMaxConcurrency int

	SearchTimeoutSeconds int
	RetryMaxAttempts     int
	RetryInitialBackoff  time.Duration
	RetryMaxBackoff      time.Duration

	APIRateLimitRPS   float64
	APIRateLimitBurst int
	APIMaxInFlight    int

	CacheEnabled    bool
	CacheTTLSeconds int
}

func defaultConfig() Config {
	return Config{
		APIHost:  "0.0.0.0",
		APIPort:  "8001",
		LogLevel: "info",
		Debug:    false,

		CORSOrigins: []string{
			"https://script.google.com",
			"https://docs.google.com",
		},

		CiteAssistAPIURL: "http://localhost:8000",
		CiteAssistAPIKey: "",

		GoogleGenAIAPIKey: "",
		GeminiModel:       "gemini-2.5-flash-lite",

		AgentFilterThreshold: 0.7,
		AgentMaxChunks:       20,
		AgentTimeoutSeconds:  5,
		FilterMaxConcurrency: 8,

		SearchTimeoutSeconds: 30,
		RetryMaxAttempts:     3,
		RetryInitialBackoff:  2 * time.Second,
		RetryMaxBackoff:      10 * time.Second,

		APIRateLimitRPS:   0,
		APIRateLimitBurst: 0,
		APIMaxInFlight:    0,

		CacheEnabled:    false,
		CacheTTLSeconds: 3600,
	}
}

// Load builds the config in three layers: built-in defaults, an optional
// YAML file named by CONFIG_FILE, then environment variables. A .env file in
// the working directory is read into the environment first.
func Load() Config {
	_ = godotenv.Load()

	cfg := defaultConfig()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		applyYAMLOverlay(&cfg, path)
	}

	cfg.APIHost = mustEnv("API_HOST", cfg.APIHost)
	cfg.APIPort = mustEnv("API_PORT", cfg.APIPort)
	cfg.LogLevel = mustEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.Debug = mustEnvBool("DEBUG", cfg.Debug)

	if raw := os.Getenv("CORS_ORIGINS"); raw != "" {
		cfg.CORSOrigins = splitOrigins(raw)
	}

	cfg.CiteAssistAPIURL = mustEnv("CITE_ASSIST_API_URL", cfg.CiteAssistAPIURL)
	cfg.CiteAssistAPIKey = mustEnv("CITE_ASSIST_API_KEY", cfg.CiteAssistAPIKey)

	cfg.GoogleGenAIAPIKey = mustEnv("GOOGLE_GENAI_API_KEY", cfg.GoogleGenAIAPIKey)
	cfg.GeminiModel = mustEnv("GEMINI_MODEL", cfg.GeminiModel)

	cfg.AgentFilterThreshold = mustEnvFloat("AGENT_FILTER_THRESHOLD", cfg.AgentFilterThreshold)
	cfg.AgentMaxChunks = mustEnvInt("AGENT_MAX_CHUNKS", cfg.AgentMaxChunks)
	cfg.AgentTimeoutSeconds = mustEnvInt("AGENT_TIMEOUT_SECONDS", cfg.AgentTimeoutSeconds)
	cfg.FilterMaxConcurrency = mustEnvInt("FILTER_MAX_CONCURRENCY", cfg.FilterMaxConcurrency)

	cfg.SearchTimeoutSeconds = mustEnvInt("SEARCH_TIMEOUT_SECONDS", cfg.SearchTimeoutSeconds)
	cfg.RetryMaxAttempts = mustEnvInt("RETRY_MAX_ATTEMPTS", cfg.RetryMaxAttempts)
	cfg.RetryInitialBackoff = mustEnvDuration("RETRY_INITIAL_BACKOFF", cfg.RetryInitialBackoff)
	cfg.RetryMaxBackoff = mustEnvDuration("RETRY_MAX_BACKOFF", cfg.RetryMaxBackoff)

	cfg.APIRateLimitRPS = mustEnvFloat("API_RATE_LIMIT_RPS", cfg.APIRateLimitRPS)
	cfg.APIRateLimitBurst = mustEnvInt("API_RATE_LIMIT_BURST", cfg.APIRateLimitBurst)
	cfg.APIMaxInFlight = mustEnvInt("API_MAX_IN_FLIGHT", cfg.APIMaxInFlight)

	cfg.CacheEnabled = mustEnvBool("CACHE_ENABLED", cfg.CacheEnabled)
	cfg.CacheTTLSeconds = mustEnvInt("CACHE_TTL_SECONDS", cfg.CacheTTLSeconds)

	return cfg
}

// yamlOverlay mirrors Config with pointers so absent keys leave the base
// value untouched.
type yamlOverlay struct {
	APIHost  *string `yaml:"api_host"`
	APIPort  *string `yaml:"api_port"`
	LogLevel *string `yaml:"log_level"`
	Debug    *bool   `yaml:"debug"`

	CORSOrigins []string `yaml:"cors_origins"`

	CiteAssistAPIURL *string `yaml:"cite_assist_api_url"`
	CiteAssistAPIKey *string `yaml:"cite_assist_api_key"`

	GoogleGenAIAPIKey *string `yaml:"google_genai_api_key"`
	GeminiModel       *string `yaml:"gemini_model"`

	AgentFilterThreshold *float64 `yaml:"agent_filter_threshold"`
	AgentMaxChunks       *int     `yaml:"agent_max_chunks"`
	AgentTimeoutSeconds  *int     `yaml:"agent_timeout_seconds"`
	FilterMaxConcurrency *int     `yaml:"filter_max_concurrency"`

	SearchTimeoutSeconds *int `yaml:"search_timeout_seconds"`
	RetryMaxAttempts     *int `yaml:"retry_max_attempts"`

	APIRateLimitRPS   *float64 `yaml:"api_rate_limit_rps"`
	APIRateLimitBurst *int     `yaml:"api_rate_limit_burst"`
	APIMaxInFlight    *int     `yaml:"api_max_in_flight"`

	CacheEnabled    *bool `yaml:"cache_enabled"`
	CacheTTLSeconds *int  `yaml:"cache_ttl_seconds"`
}

func applyYAMLOverlay(cfg *Config, path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return
	}
	var overlay yamlOverlay
	if err := yaml.Unmarshal(raw, &overlay); err != nil {
		return
	}

	if overlay.APIHost != nil {
		cfg.APIHost = *overlay.APIHost
	}
	if overlay.APIPort != nil {
		cfg.APIPort = *overlay.APIPort
	}
	if overlay.LogLevel != nil {
		cfg.LogLevel = *overlay.LogLevel
	}
	if overlay.Debug != nil {
		cfg.Debug = *overlay.Debug
	}
	if overlay.CORSOrigins != nil {
		cfg.CORSOrigins = overlay.CORSOrigins
	}
	if overlay.CiteAssistAPIURL != nil {
		cfg.CiteAssistAPIURL = *overlay.CiteAssistAPIURL
	}
	if overlay.CiteAssistAPIKey != nil {
		cfg.CiteAssistAPIKey = *overlay.CiteAssistAPIKey
	}
	if overlay.GoogleGenAIAPIKey != nil {
		cfg.GoogleGenAIAPIKey = *overlay.GoogleGenAIAPIKey
	}
	if overlay.GeminiModel != nil {
		cfg.GeminiModel = *overlay.GeminiModel
	}
	if overlay.AgentFilterThreshold != nil {
		cfg.AgentFilterThreshold = *overlay.AgentFilterThreshold
	}
	if overlay.AgentMaxChunks != nil {
		cfg.AgentMaxChunks = *overlay.AgentMaxChunks
	}
	if overlay.AgentTimeoutSeconds != nil {
		cfg.AgentTimeoutSeconds = *overlay.AgentTimeoutSeconds
	}
	if overlay.FilterMaxConcurrency != nil {
		cfg.FilterMaxConcurrency = *overlay.FilterMaxConcurrency
	}
	if overlay.SearchTimeoutSeconds != nil {
		cfg.SearchTimeoutSeconds = *overlay.SearchTimeoutSeconds
	}
	if overlay.RetryMaxAttempts != nil {
		cfg.RetryMaxAttempts = *overlay.RetryMaxAttempts
	}
	if overlay.APIRateLimitRPS != nil {
		cfg.APIRateLimitRPS = *overlay.APIRateLimitRPS
	}
	if overlay.APIRateLimitBurst != nil {
		cfg.APIRateLimitBurst = *overlay.APIRateLimitBurst
	}
	if overlay.APIMaxInFlight != nil {
		cfg.APIMaxInFlight = *overlay.APIMaxInFlight
	}
	if overlay.CacheEnabled != nil {
		cfg.CacheEnabled = *overlay.CacheEnabled
	}
	if overlay.CacheTTLSeconds != nil {
		cfg.CacheTTLSeconds = *overlay.CacheTTLSeconds
	}
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if origin := strings.TrimSpace(part); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
