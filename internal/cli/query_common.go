package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/mvp-joe/pyscope/internal/query"
)

// openEngine opens the query engine over the project's index.
func openEngine() (*query.Engine, error) {
	root, cfg, err := loadProject()
	if err != nil {
		return nil, err
	}

	engine, err := query.NewEngine(cfg.IndexDir(root), &query.Options{
		CacheSize: cfg.Query.CacheSize,
		Root:      root,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	return engine, nil
}

// printJSON writes v as indented JSON.
func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printList writes one item per line, or a muted placeholder when empty.
func printList(out io.Writer, items []string, empty string) {
	if len(items) == 0 {
		fmt.Fprintln(out, mutedStyle.Render(empty))
		return
	}
	for _, item := range items {
		fmt.Fprintln(out, item)
	}
}
