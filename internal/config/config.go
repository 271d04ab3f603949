package config

import (
	"path/filepath"
	"runtime"
)

// Config represents the complete pyscope configuration.
// It can be loaded from .pyscope/config.yml with environment variable overrides.
type Config struct {
	Paths PathsConfig `yaml:"paths" mapstructure:"paths"`
	Index IndexConfig `yaml:"index" mapstructure:"index"`
	Query QueryConfig `yaml:"query" mapstructure:"query"`
}

// PathsConfig defines which files are selected for indexing.
type PathsConfig struct {
	Include []string `yaml:"include" mapstructure:"include"` // globs; "!pattern" negates
	Exclude []string `yaml:"exclude" mapstructure:"exclude"` // globs; trailing '/' marks a directory rule
}

// IndexConfig defines where and how the index is built.
type IndexConfig struct {
	Dir        string   `yaml:"dir" mapstructure:"dir"`               // relative to the project root
	Workers    int      `yaml:"workers" mapstructure:"workers"`       // concurrent parses
	Extensions []string `yaml:"extensions" mapstructure:"extensions"` // parsed file extensions
	Catalog    bool     `yaml:"catalog" mapstructure:"catalog"`       // build the SQLite symbol catalog
}

// QueryConfig tunes the query engine.
type QueryConfig struct {
	CacheSize int `yaml:"cache_size" mapstructure:"cache_size"` // artifacts kept in memory
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Include: []string{"*.py"},
			Exclude: []string{
				".git/",
				"node_modules/",
				"__pycache__/",
				".venv/",
				"venv/",
				"build/",
				"dist/",
				".pyscope/",
			},
		},
		Index: IndexConfig{
			Dir:        filepath.Join(".pyscope", "index"),
			Workers:    runtime.NumCPU(),
			Extensions: []string{".py", ".pyi"},
			Catalog:    true,
		},
		Query: QueryConfig{
			CacheSize: 256,
		},
	}
}

// IndexDir resolves the index directory against rootDir.
func (c *Config) IndexDir(rootDir string) string {
	if filepath.IsAbs(c.Index.Dir) {
		return c.Index.Dir
	}
	return filepath.Join(rootDir, c.Index.Dir)
}
