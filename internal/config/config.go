package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Environment string `envconfig:"ENVIRONMENT" default:"local"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	HTTPHost string `envconfig:"LIMPIARV_HTTP_HOST" default:"0.0.0.0"`
	HTTPPort int    `envconfig:"LIMPIARV_HTTP_PORT" default:"8080"`

	// Bcrypt hash of the shared access password. Empty disables the gate,
	// which is only acceptable for local runs.
	AccessPasswordHash string `envconfig:"LIMPIARV_ACCESS_PASSWORD_HASH" default:""`

	SimilarityThreshold float64 `envconfig:"LIMPIARV_SIMILARITY_THRESHOLD" default:"0.85"`
	SubstringMentions   bool    `envconfig:"LIMPIARV_SUBSTRING_MENTIONS" default:"false"`
	SortByTitle         bool    `envconfig:"LIMPIARV_SORT_BY_TITLE" default:"false"`
	DomainFallback      bool    `envconfig:"LIMPIARV_DOMAIN_FALLBACK" default:"true"`
	IncludeDigest       bool    `envconfig:"LIMPIARV_INCLUDE_DIGEST" default:"true"`

	MaxUploadMB        int    `envconfig:"LIMPIARV_MAX_UPLOAD_MB" default:"32"`
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:""`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("LIMPIARV_HTTP_PORT must be a valid port, got %d", c.HTTPPort)
	}
	if c.SimilarityThreshold <= 0 || c.SimilarityThreshold > 1 {
		return fmt.Errorf("LIMPIARV_SIMILARITY_THRESHOLD must be in (0, 1], got %v", c.SimilarityThreshold)
	}
	if c.MaxUploadMB < 1 {
		return fmt.Errorf("LIMPIARV_MAX_UPLOAD_MB must be >= 1, got %d", c.MaxUploadMB)
	}
	hash := strings.TrimSpace(c.AccessPasswordHash)
	if hash != "" && !strings.HasPrefix(hash, "$2") {
		return fmt.Errorf("LIMPIARV_ACCESS_PASSWORD_HASH must be a bcrypt hash")
	}
	return nil
}

func (c *Config) CORSAllowedOriginsList() []string {
	if c == nil {
		return nil
	}

	parts := strings.Split(c.CORSAllowedOrigins, ",")
	origins := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		origin := strings.TrimSpace(part)
		if origin == "" {
			continue
		}
		if _, exists := seen[origin]; exists {
			continue
		}
		seen[origin] = struct{}{}
		origins = append(origins, origin)
	}
	return origins
}
