package indexer

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
)

// ErrInvalidRoot is returned when the root to walk is missing or not a directory.
var ErrInvalidRoot = errors.New("invalid root directory")

// filterRule is one compiled include or exclude pattern.
// Globs are compiled without separators so '*' also crosses '/'.
type filterRule struct {
	pattern string
	negated bool
	dirOnly bool
	glob    glob.Glob // file paths; for directory rules, paths under the directory
	dirGlob glob.Glob // directory rules only: the directory path with trailing '/'
}

func compileRule(pattern string, allowNegation bool) (filterRule, error) {
	rule := filterRule{pattern: pattern}
	if allowNegation && strings.HasPrefix(pattern, "!") {
		rule.negated = true
		pattern = pattern[1:]
	}
	rule.dirOnly = strings.HasSuffix(pattern, "/")

	expr := pattern
	if rule.dirOnly {
		g, err := CompileGlob(pattern)
		if err != nil {
			return filterRule{}, fmt.Errorf("invalid pattern %q: %w", rule.pattern, err)
		}
		rule.dirGlob = g
		expr = pattern + "*"
	}

	g, err := CompileGlob(expr)
	if err != nil {
		return filterRule{}, fmt.Errorf("invalid pattern %q: %w", rule.pattern, err)
	}
	rule.glob = g
	return rule, nil
}

// CompileGlob compiles a shell-style pattern. '*', '?' and '[seq]' are
// wildcards and '*' crosses '/'; braces, commas and backslashes match literally.
func CompileGlob(pattern string) (glob.Glob, error) {
	var b strings.Builder
	inClass := false
	for _, r := range pattern {
		switch {
		case inClass:
			if r == ']' {
				inClass = false
			}
		case r == '[':
			inClass = true
		case r == '{' || r == '}' || r == ',' || r == '\\':
			b.WriteRune('\\')
		}
		b.WriteRune(r)
	}
	return glob.Compile(b.String())
}

// PathFilter selects files under a root using include and exclude rules.
//
// Include rules: a non-empty list admits a file only when some positive rule
// matches and no "!negated" rule matches. An empty list admits every file.
// Exclude rules: a rule ending in '/' prunes matching directories and rejects
// every path under them; other rules reject paths they match.
type PathFilter struct {
	include []filterRule
	exclude []filterRule
}

// NewPathFilter compiles include and exclude rules.
func NewPathFilter(include, exclude []string) (*PathFilter, error) {
	pf := &PathFilter{}

	for _, pattern := range include {
		rule, err := compileRule(pattern, true)
		if err != nil {
			return nil, err
		}
		pf.include = append(pf.include, rule)
	}

	for _, pattern := range exclude {
		rule, err := compileRule(pattern, false)
		if err != nil {
			return nil, err
		}
		pf.exclude = append(pf.exclude, rule)
	}

	return pf, nil
}

// Select walks root and returns the sorted root-relative paths, using '/', of
// every file passing the rules.
func Select(root string, include, exclude []string) ([]string, error) {
	pf, err := NewPathFilter(include, exclude)
	if err != nil {
		return nil, err
	}
	return pf.Select(root)
}

// Select walks root and returns the selected files, sorted and deduplicated.
func (pf *PathFilter) Select(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidRoot, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrInvalidRoot, root)
	}

	seen := make(map[string]struct{})
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			log.Printf("Warning: skipping %s: %v", path, walkErr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if d.IsDir() {
			if relPath != "." && pf.PrunesDir(relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if !isRegularFile(path, d) {
			return nil
		}

		if pf.Matches(relPath) {
			seen[relPath] = struct{}{}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	files := make([]string, 0, len(seen))
	for p := range seen {
		files = append(files, p)
	}
	sort.Strings(files)
	return files, nil
}

// SelectText is Select without binary files.
func (pf *PathFilter) SelectText(root string) ([]string, error) {
	files, err := pf.Select(root)
	if err != nil {
		return nil, err
	}

	text := make([]string, 0, len(files))
	for _, relPath := range files {
		binary, err := IsBinaryFile(filepath.Join(root, filepath.FromSlash(relPath)))
		if err != nil {
			log.Printf("Warning: failed to read %s: %v", relPath, err)
			continue
		}
		if !binary {
			text = append(text, relPath)
		}
	}
	return text, nil
}

// PrunesDir reports whether a directory (root-relative, no trailing slash)
// is excluded before descent.
func (pf *PathFilter) PrunesDir(relDir string) bool {
	dir := strings.TrimSuffix(relDir, "/") + "/"
	for _, rule := range pf.exclude {
		if rule.dirOnly && rule.dirGlob.Match(dir) {
			return true
		}
	}
	return false
}

// Matches applies the include pass then the exclude pass to a root-relative file path.
func (pf *PathFilter) Matches(relPath string) bool {
	if len(pf.include) > 0 {
		included := false
		for _, rule := range pf.include {
			if !rule.glob.Match(relPath) {
				continue
			}
			if rule.negated {
				return false
			}
			included = true
		}
		if !included {
			return false
		}
	}

	for _, rule := range pf.exclude {
		if rule.dirOnly {
			if rule.glob.Match(relPath) {
				return false
			}
			continue
		}
		if rule.glob.Match(relPath) {
			return false
		}
	}
	return true
}

// isRegularFile accepts regular files and symlinks that resolve to one.
func isRegularFile(path string, d fs.DirEntry) bool {
	if d.Type().IsRegular() {
		return true
	}
	if d.Type()&fs.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
