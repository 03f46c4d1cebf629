// Package config loads the service configuration: generation defaults,
// archive database, server, and logging, from one YAML file overlaid on
// defaults.
package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oisee/emergent-adventure/internal/logger"
	"github.com/oisee/emergent-adventure/internal/store"
)

// Config is the top-level service configuration.
type Config struct {
	Generation GenerationConfig `yaml:"generation"`
	Database   store.Config     `yaml:"database"`
	Server     ServerConfig     `yaml:"server"`
	Logging    logger.Config    `yaml:"logging"`
}

// GenerationConfig holds the pipeline defaults and budgets.
type GenerationConfig struct {
	// Width and Height are the default grid dimensions.
	Width  int `yaml:"width"`
	Height int `yaml:"height"`

	// Genre selects the default tile weighting.
	Genre string `yaml:"genre"`

	// GenresFile optionally points at a YAML file with extra genres.
	GenresFile string `yaml:"genres_file"`

	// MaxAttempts bounds full pipeline retries per request.
	MaxAttempts int `yaml:"max_attempts"`

	// MaxPlanNodes bounds the plot graph size.
	MaxPlanNodes int `yaml:"max_plan_nodes"`

	// MaxGridRestarts bounds collapse restarts within one attempt.
	MaxGridRestarts int `yaml:"max_grid_restarts"`
}

// ServerConfig holds the generation service settings.
type ServerConfig struct {
	// ListenAddr is the HTTP listen address.
	ListenAddr string `yaml:"listen_addr"`

	WebSocket WebSocketConfig `yaml:"websocket"`

	// APITokenHash is a bcrypt hash of the API token. Empty disables
	// auth.
	APITokenHash string `yaml:"api_token_hash"`
}

// WebSocketConfig holds WebSocket-specific settings.
type WebSocketConfig struct {
	// AllowedOrigins lists origins allowed to connect. Empty enforces
	// same-origin; "*" allows all.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MaxMessageSize is the maximum request message size in bytes.
	MaxMessageSize int64 `yaml:"max_message_size"`
}

// DefaultConfig returns a Config with working defaults: an 8x8 standard
// world, sqlite archive, localhost service.
func DefaultConfig() *Config {
	return &Config{
		Generation: GenerationConfig{
			Width:           8,
			Height:          8,
			Genre:           "standard",
			MaxAttempts:     20,
			MaxPlanNodes:    24,
			MaxGridRestarts: 10,
		},
		Database: store.DefaultConfig("data/worlds.db"),
		Server: ServerConfig{
			ListenAddr: "localhost:8480",
			WebSocket: WebSocketConfig{
				AllowedOrigins: []string{},
				MaxMessageSize: 4096,
			},
		},
		Logging: logger.DefaultConfig(),
	}
}

// LoadConfig loads configuration from a YAML file over the defaults. A
// missing file yields the defaults; a malformed file is an error.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return DefaultConfig(), err
	}
	return config, nil
}

// IsOriginAllowed reports whether origin may connect. Allowed when the
// list contains "*" or the exact origin, or when the list is empty and
// origin matches the request host.
func (c *WebSocketConfig) IsOriginAllowed(origin, requestHost string) bool {
	if len(c.AllowedOrigins) == 0 {
		return isSameOrigin(origin, requestHost)
	}
	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// isSameOrigin checks origin against the request host. An absent origin
// header counts as same-origin (non-browser client).
func isSameOrigin(origin, requestHost string) bool {
	if origin == "" {
		return true
	}
	originHost := origin
	if idx := strings.Index(origin, "://"); idx != -1 {
		originHost = origin[idx+3:]
	}
	originHost = strings.TrimSuffix(originHost, "/")
	return originHost == requestHost
}
