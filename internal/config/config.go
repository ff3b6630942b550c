// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"pcbuild/core/compat"
	"pcbuild/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Rules tunes the compatibility rule engine
	Rules compat.Config `json:"rules"`

	// Catalog contains catalog provider configuration
	Catalog CatalogConfig `json:"catalog"`

	// Storage contains saved-configuration storage settings
	Storage StorageConfig `json:"storage"`

	// Server contains HTTP server settings
	Server ServerConfig `json:"server"`

	// Events contains event publishing settings
	Events EventsConfig `json:"events"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// CatalogConfig contains catalog-related settings
type CatalogConfig struct {
	// Path is an HCL or JSON catalog file; empty uses the built-in seed
	Path string `json:"path,omitempty"`

	// CacheSize is the number of categories held by the option cache
	CacheSize int `json:"cache_size"`
}

// StorageConfig contains persistence settings
type StorageConfig struct {
	// GuestBackend stores anonymous builds (file, memory)
	GuestBackend string `json:"guest_backend"`

	// AccountBackend stores builds of signed-in users (postgres, file, memory)
	AccountBackend string `json:"account_backend"`

	// Directory is the root of the file backend
	Directory string `json:"directory"`

	// PostgresDSN is used by the postgres backend
	PostgresDSN string `json:"postgres_dsn,omitempty"`
}

// ServerConfig contains HTTP settings
type ServerConfig struct {
	// Address to listen on
	Address string `json:"address"`

	// RateLimit is requests per second per server (0 disables)
	RateLimit float64 `json:"rate_limit"`

	// RateBurst is the limiter bucket size
	RateBurst int `json:"rate_burst"`

	// AllowedOrigin for CORS
	AllowedOrigin string `json:"allowed_origin"`

	// FetchTimeoutSeconds bounds catalog fetches
	FetchTimeoutSeconds int `json:"fetch_timeout_seconds"`
}

// EventsConfig contains event publishing settings
type EventsConfig struct {
	// NATSURL enables the NATS publisher when set
	NATSURL string `json:"nats_url,omitempty"`

	// SavedSubject is the subject for saved-configuration events
	SavedSubject string `json:"saved_subject"`
}

// Default returns a default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".pcbuild", "configurations")

	return &Config{
		Version: "1.0",
		Rules:   compat.DefaultConfig(),
		Catalog: CatalogConfig{
			CacheSize: 64,
		},
		Storage: StorageConfig{
			GuestBackend:   "file",
			AccountBackend: "file",
			Directory:      dataDir,
		},
		Server: ServerConfig{
			Address:             ":8080",
			RateLimit:           20,
			RateBurst:           40,
			AllowedOrigin:       "*",
			FetchTimeoutSeconds: 10,
		},
		Events: EventsConfig{
			SavedSubject: "configurator.saved",
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file, then applies environment overrides.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if err := json.Unmarshal(data, config); err != nil {
			return nil, err
		}
	}

	config.ApplyEnv()
	return config, nil
}

// ApplyEnv overlays PCBUILD_* environment variables, reading a .env file
// in the working directory first if one exists.
func (c *Config) ApplyEnv() {
	_ = godotenv.Load()

	c.Catalog.Path = firstNonEmpty(os.Getenv("PCBUILD_CATALOG_PATH"), c.Catalog.Path)
	c.Storage.GuestBackend = firstNonEmpty(os.Getenv("PCBUILD_GUEST_BACKEND"), c.Storage.GuestBackend)
	c.Storage.AccountBackend = firstNonEmpty(os.Getenv("PCBUILD_ACCOUNT_BACKEND"), c.Storage.AccountBackend)
	c.Storage.Directory = firstNonEmpty(os.Getenv("PCBUILD_STORAGE_DIR"), c.Storage.Directory)
	c.Storage.PostgresDSN = firstNonEmpty(os.Getenv("PCBUILD_PG_DSN"), c.Storage.PostgresDSN)
	c.Server.Address = firstNonEmpty(os.Getenv("PCBUILD_ADDR"), c.Server.Address)
	c.Events.NATSURL = firstNonEmpty(os.Getenv("PCBUILD_NATS_URL"), c.Events.NATSURL)
	c.Logging.Level = firstNonEmpty(os.Getenv("PCBUILD_LOG_LEVEL"), c.Logging.Level)

	if v, ok := envInt("PCBUILD_POWER_HEADROOM_WATTS"); ok {
		c.Rules.PowerHeadroomWatts = v
	}
	if v := os.Getenv("PCBUILD_FORM_FACTOR_SEPARATOR"); v != "" {
		c.Rules.FormFactorSeparator = v
	}
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func envInt(key string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
