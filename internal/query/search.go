package query

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mvp-joe/pyscope/internal/indexer"
	"github.com/mvp-joe/pyscope/internal/indexer/extraction"
)

// SearchByName returns indexed paths matching a glob pattern. '*' matches
// across '/' as it does in path filter rules.
func (e *Engine) SearchByName(pattern string) ([]string, error) {
	g, err := indexer.CompileGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	matches := []string{}
	for _, path := range e.ListFiles() {
		if g.Match(path) {
			matches = append(matches, path)
		}
	}
	return matches, nil
}

// SearchByText returns indexed paths whose recorded source matches pattern.
// A pattern that is not a valid regular expression is matched as a literal substring.
func (e *Engine) SearchByText(pattern string) ([]string, error) {
	match := textMatcher(pattern)

	matches := []string{}
	for _, path := range e.ListFiles() {
		fs, err := e.load(path)
		if err != nil {
			return nil, err
		}
		if fs == nil {
			continue
		}
		if match(recordedSource(fs)) {
			matches = append(matches, path)
		}
	}
	return matches, nil
}

func textMatcher(pattern string) func(string) bool {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return func(s string) bool { return strings.Contains(s, pattern) }
	}
	return re.MatchString
}

// recordedSource concatenates the source of every record in a file.
func recordedSource(fs *extraction.FileStructure) string {
	var b strings.Builder
	for _, c := range fs.Classes {
		b.WriteString(c.SourceCode)
		b.WriteByte('\n')
		for _, m := range c.Methods {
			b.WriteString(m.SourceCode)
			b.WriteByte('\n')
		}
	}
	for _, fn := range fs.Functions {
		b.WriteString(fn.SourceCode)
		b.WriteByte('\n')
	}
	for _, stmt := range fs.TopLevelStatements {
		b.WriteString(stmt.SourceCode)
		b.WriteByte('\n')
	}
	return b.String()
}
