package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mvp-joe/pyscope/internal/indexer"
)

var (
	// ErrInvalidPattern indicates an include or exclude glob that does not compile
	ErrInvalidPattern = errors.New("invalid path pattern")

	// ErrInvalidWorkers indicates a non-positive worker count
	ErrInvalidWorkers = errors.New("invalid worker count")

	// ErrInvalidExtension indicates an extension without a leading dot
	ErrInvalidExtension = errors.New("invalid extension")

	// ErrEmptyIndexDir indicates a missing index directory
	ErrEmptyIndexDir = errors.New("empty index directory")

	// ErrInvalidCacheSize indicates a non-positive query cache size
	ErrInvalidCacheSize = errors.New("invalid cache size")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validatePaths(&cfg.Paths); err != nil {
		errs = append(errs, err)
	}

	if err := validateIndex(&cfg.Index); err != nil {
		errs = append(errs, err)
	}

	if err := validateQuery(&cfg.Query); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validatePaths(cfg *PathsConfig) error {
	// Empty lists are fine: no include rules selects every file.
	if _, err := indexer.NewPathFilter(cfg.Include, cfg.Exclude); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	return nil
}

func validateIndex(cfg *IndexConfig) error {
	var errs []error

	if strings.TrimSpace(cfg.Dir) == "" {
		errs = append(errs, fmt.Errorf("%w: index.dir is required", ErrEmptyIndexDir))
	}

	if cfg.Workers < 1 {
		errs = append(errs, fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidWorkers, cfg.Workers))
	}

	for _, ext := range cfg.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			errs = append(errs, fmt.Errorf("%w: %q must start with '.'", ErrInvalidExtension, ext))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}

	return nil
}

func validateQuery(cfg *QueryConfig) error {
	if cfg.CacheSize < 1 {
		return fmt.Errorf("%w: cache_size must be at least 1, got %d", ErrInvalidCacheSize, cfg.CacheSize)
	}
	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
