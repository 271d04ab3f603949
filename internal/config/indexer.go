package config

import (
	"github.com/mvp-joe/pyscope/internal/indexer"
)

// ToIndexerConfig converts a Config to an indexer.Config.
// The rootDir parameter specifies the root directory of the source tree to index.
func (c *Config) ToIndexerConfig(rootDir string) *indexer.Config {
	return &indexer.Config{
		RootDir:      rootDir,
		Include:      c.Paths.Include,
		Exclude:      c.Paths.Exclude,
		Extensions:   c.Index.Extensions,
		IndexDir:     c.Index.Dir,
		Workers:      c.Index.Workers,
		BuildCatalog: c.Index.Catalog,
	}
}
