// internal/config/config.go
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the process settings. Every field can be set from the
// environment or a .env file in the working directory.
type Config struct {
	Port           string
	LogLevel       slog.Level
	LogFormat      string
	SeedFile       string
	JournalDSN     string
	OTLPEndpoint   string
	ServiceName    string
	RateLimitRPS   float64
	RateLimitBurst int
	CatalogURL     string
}

// Load reads .env (when present) and then the environment.
func Load() (*Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnv("PORT", "8081"),
		LogFormat:    strings.ToLower(getEnv("LOG_FORMAT", "text")),
		SeedFile:     getEnv("CATALOG_SEED_FILE", ""),
		JournalDSN:   getEnv("JOURNAL_DSN", ""),
		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		ServiceName:  getEnv("SERVICE_NAME", "libracatalog"),
		CatalogURL:   getEnv("CATALOG_URL", "http://localhost:8081"),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid LOG_FORMAT %q: want text or json", cfg.LogFormat)
	}

	rps, err := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "50"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}
	cfg.RateLimitRPS = rps

	burst, err := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}
	cfg.RateLimitBurst = burst

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// SeedBook is one entry of a seed file.
type SeedBook struct {
	ISBN     string `yaml:"isbn"`
	Title    string `yaml:"title"`
	Author   string `yaml:"author"`
	Year     int    `yaml:"year"`
	Borrowed bool   `yaml:"borrowed,omitempty"`
}

// SeedFile lists books to add at startup.
type SeedFile struct {
	Books []SeedBook `yaml:"books"`
}

// LoadSeed parses a YAML seed file.
func LoadSeed(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	for i, b := range seed.Books {
		if b.ISBN == "" {
			return nil, fmt.Errorf("seed file entry %d: isbn is required", i)
		}
	}
	return &seed, nil
}
