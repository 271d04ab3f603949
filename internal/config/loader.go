package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a new configuration loader for the given root directory.
func NewLoader(rootDir string) Loader {
	return &loader{
		rootDir: rootDir,
	}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (PYSCOPE_*), including those from <root>/.env
// 2. Config file (.pyscope/config.yml or .pyscope/config.yaml)
// 3. Default values
func (l *loader) Load() (*Config, error) {
	// .env never overrides variables already set in the process environment.
	if err := godotenv.Load(filepath.Join(l.rootDir, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()

	configDir := filepath.Join(l.rootDir, ".pyscope")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	v.SetEnvPrefix("PYSCOPE")
	v.AutomaticEnv()
	// Replace . with _ in env var names (e.g., PYSCOPE_INDEX_WORKERS)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Paths configuration
	v.BindEnv("paths.include")
	v.BindEnv("paths.exclude")

	// Index configuration
	v.BindEnv("index.dir")
	v.BindEnv("index.workers")
	v.BindEnv("index.extensions")
	v.BindEnv("index.catalog")

	// Query configuration
	v.BindEnv("query.cache_size")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// Config file not found is acceptable - we'll use defaults + env vars
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("paths.include", defaults.Paths.Include)
	v.SetDefault("paths.exclude", defaults.Paths.Exclude)

	v.SetDefault("index.dir", defaults.Index.Dir)
	v.SetDefault("index.workers", defaults.Index.Workers)
	v.SetDefault("index.extensions", defaults.Index.Extensions)
	v.SetDefault("index.catalog", defaults.Index.Catalog)

	v.SetDefault("query.cache_size", defaults.Query.CacheSize)
}

// LoadConfig is a convenience function that creates a loader and loads config.
// It uses the current working directory as the root.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
