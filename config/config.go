package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	BackendPostgres = "postgres"
	BackendMemory   = "memory"

	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"
	ProviderFake       = "fake"
)

type Config struct {
	Port         string
	StoreBackend string
	DatabaseURL  string

	Generation GenerationConfig

	RevisionCost       int
	NewUserCredits     int
	PublishedCacheSize int
}

type GenerationConfig struct {
	Provider          string
	Model             string
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	GeminiAPIKey      string
	AppURL            string
	AppName           string
	Timeout           time.Duration
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:         firstNonEmpty(strings.TrimSpace(os.Getenv("PORT")), "8080"),
		StoreBackend: strings.ToLower(firstNonEmpty(strings.TrimSpace(os.Getenv("STORE_BACKEND")), BackendPostgres)),
		DatabaseURL:  strings.TrimSpace(os.Getenv("DATABASE_URL")),
		Generation: GenerationConfig{
			Provider:          strings.ToLower(firstNonEmpty(strings.TrimSpace(os.Getenv("GENERATION_PROVIDER")), ProviderOpenRouter)),
			Model:             strings.TrimSpace(os.Getenv("GENERATION_MODEL")),
			OpenRouterAPIKey:  strings.TrimSpace(os.Getenv("AI_API_KEY")),
			OpenRouterBaseURL: firstNonEmpty(strings.TrimSpace(os.Getenv("OPENROUTER_BASE_URL")), "https://openrouter.ai/api/v1"),
			GeminiAPIKey:      strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
			AppURL:            firstNonEmpty(strings.TrimSpace(os.Getenv("APP_URL")), "http://localhost:5173"),
			AppName:           firstNonEmpty(strings.TrimSpace(os.Getenv("APP_NAME")), "SiteBuilder"),
		},
	}

	var err error
	if cfg.RevisionCost, err = intEnv("REVISION_COST", 5); err != nil {
		return nil, err
	}
	if cfg.NewUserCredits, err = intEnv("NEW_USER_CREDITS", 20); err != nil {
		return nil, err
	}
	if cfg.PublishedCacheSize, err = intEnv("PUBLISHED_CACHE_SIZE", 256); err != nil {
		return nil, err
	}
	if cfg.Generation.Timeout, err = durationEnv("GENERATION_TIMEOUT", 3*time.Minute); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL not set")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}

	switch c.Generation.Provider {
	case ProviderOpenRouter, ProviderGemini, ProviderFake:
	default:
		return fmt.Errorf("unknown GENERATION_PROVIDER %q", c.Generation.Provider)
	}

	if c.RevisionCost <= 0 {
		return fmt.Errorf("REVISION_COST must be positive, got %d", c.RevisionCost)
	}
	return nil
}

func (c *Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func intEnv(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
