package cli

// Test Plan for CLI Commands:
// - index reports indexed and failed files, with failure locations in quiet mode
// - files, summary and show read the index written by index
// - show prints item source, highlighted with --color, and errors on misses
// - docstring and args answer per-item lookups
// - search covers name, text and keyword modes
// - symbols queries the catalog
// - --json prints machine-readable results
// - clean removes the index and tolerates a missing one
// - renderReport lists failures with their line
// Commands share package-level flag state, so these tests do not run in parallel.

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/pyscope/internal/indexer"
)

const geoSource = `"""Geometry helpers."""


class Point:
    """A 2D point."""

    def __init__(self, x: float = 0.0, y: float = 0.0):
        self.x = x
        self.y = y

    def norm(self):
        """Euclidean length."""
        return (self.x ** 2 + self.y ** 2) ** 0.5


def distance(a, b, *, squared=False):
    """Distance between two points."""
    return (a.norm() - b.norm())
`

func resetFlags() {
	rootFlag = ""
	verboseFlag = false
	jsonFlag = false
	quietFlag = false
	watchFlag = false
	includeFlag = nil
	excludeFlag = nil
	workersFlag = 0
	showClassFlag = ""
	showFunctionFlag = ""
	showMethodFlag = ""
	showColorFlag = false
	docstringKindFlag = "function"
	searchLimitFlag = 15
	symbolsKindFlag = ""
	cleanQuietFlag = false
}

// runCLI executes the root command and returns its combined output.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}

// indexedProject writes a small project and indexes it through the CLI.
func indexedProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkg"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "pkg", "geo.py"), []byte(geoSource), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "bad.py"), []byte("def broken(:\n    pass\n"), 0644))

	out, err := runCLI(t, "index", root, "--quiet")
	require.NoError(t, err)
	assert.Contains(t, out, "Indexed 1 of 2 files (1 failed)")
	assert.Contains(t, out, "  bad.py:")
	return root
}

func TestCLI_IndexAndBrowse(t *testing.T) {
	root := indexedProject(t)

	out, err := runCLI(t, "files", "--root", root)
	require.NoError(t, err)
	assert.Equal(t, "pkg/geo.py\n", out)

	out, err = runCLI(t, "summary", "pkg/geo.py", "--root", root)
	require.NoError(t, err)
	assert.Contains(t, out, "Point")
	assert.Contains(t, out, "distance")

	out, err = runCLI(t, "show", "pkg/geo.py", "--root", root)
	require.NoError(t, err)
	assert.Contains(t, out, "pkg/geo.py (18 lines)")
	assert.Contains(t, out, "Geometry helpers.")
	assert.Contains(t, out, "class Point")
	assert.Contains(t, out, "def norm")
	assert.Contains(t, out, "def distance")

	_, err = runCLI(t, "summary", "missing.py", "--root", root)
	assert.ErrorContains(t, err, "not indexed")
}

func TestCLI_Show(t *testing.T) {
	root := indexedProject(t)

	out, err := runCLI(t, "show", "pkg/geo.py", "--class", "Point", "--root", root)
	require.NoError(t, err)
	assert.Contains(t, out, "def norm(self):")
	assert.NotContains(t, out, "A 2D point.")

	out, err = runCLI(t, "show", "pkg/geo.py", "--method", "Point.norm", "--color", "--root", root)
	require.NoError(t, err)
	assert.Contains(t, out, "\x1b[")

	_, err = runCLI(t, "show", "pkg/geo.py", "--function", "nope", "--root", root)
	assert.ErrorContains(t, err, `function "nope" not found`)

	_, err = runCLI(t, "show", "pkg/geo.py", "--method", "norm", "--root", root)
	assert.ErrorContains(t, err, "Class.method")
}

func TestCLI_DocstringAndArgs(t *testing.T) {
	root := indexedProject(t)

	out, err := runCLI(t, "docstring", "pkg/geo.py", "Point", "--kind", "class", "--root", root)
	require.NoError(t, err)
	assert.Equal(t, "A 2D point.\n", out)

	out, err = runCLI(t, "docstring", "pkg/geo.py", "Point.norm", "--kind", "method", "--root", root)
	require.NoError(t, err)
	assert.Equal(t, "Euclidean length.\n", out)

	out, err = runCLI(t, "docstring", "pkg/geo.py", "Point.__init__", "--kind", "method", "--root", root)
	require.NoError(t, err)
	assert.Contains(t, out, "(no docstring)")

	out, err = runCLI(t, "args", "pkg/geo.py", "distance", "--root", root)
	require.NoError(t, err)
	assert.Contains(t, out, "def distance(a, b, *, squared=False)")
	assert.Contains(t, out, "squared = False")

	_, err = runCLI(t, "args", "pkg/geo.py", "norm", "--root", root)
	assert.ErrorContains(t, err, "not found")
}

func TestCLI_SearchAndSymbols(t *testing.T) {
	root := indexedProject(t)

	out, err := runCLI(t, "search", "name", "pkg/*", "--root", root)
	require.NoError(t, err)
	assert.Equal(t, "pkg/geo.py\n", out)

	out, err = runCLI(t, "search", "text", `\*\* 0\.5`, "--root", root)
	require.NoError(t, err)
	assert.Equal(t, "pkg/geo.py\n", out)

	out, err = runCLI(t, "search", "text", "no such text", "--root", root)
	require.NoError(t, err)
	assert.Contains(t, out, "No matches")

	out, err = runCLI(t, "search", "keyword", "docstring:euclidean", "--root", root)
	require.NoError(t, err)
	assert.Contains(t, out, "pkg/geo.py:11")
	assert.Contains(t, out, "Point.norm")

	_, err = runCLI(t, "search", "fuzzy", "x", "--root", root)
	assert.ErrorContains(t, err, "unknown search mode")

	out, err = runCLI(t, "symbols", "norm", "--root", root)
	require.NoError(t, err)
	assert.Contains(t, out, "pkg/geo.py:11")
	assert.Contains(t, out, "def norm(self)")

	out, err = runCLI(t, "symbols", "Point", "--kind", "function", "--root", root)
	require.NoError(t, err)
	assert.Contains(t, out, "No matches")
}

func TestCLI_JSONOutput(t *testing.T) {
	root := indexedProject(t)

	out, err := runCLI(t, "files", "--json", "--root", root)
	require.NoError(t, err)
	var files []string
	require.NoError(t, json.Unmarshal([]byte(out), &files))
	assert.Equal(t, []string{"pkg/geo.py"}, files)

	out, err = runCLI(t, "summary", "pkg/geo.py", "--json", "--root", root)
	require.NoError(t, err)
	var summary struct {
		Classes   []string `json:"classes"`
		Functions []string `json:"functions"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, []string{"Point"}, summary.Classes)
	assert.Equal(t, []string{"distance"}, summary.Functions)
}

func TestCLI_Clean(t *testing.T) {
	root := indexedProject(t)
	indexDir := filepath.Join(root, ".pyscope", "index")
	require.DirExists(t, indexDir)

	out, err := runCLI(t, "clean", "--root", root)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed")
	assert.NoDirExists(t, indexDir)

	out, err = runCLI(t, "clean", "--root", root)
	require.NoError(t, err)
	assert.Contains(t, out, "No index found")

	// Test: queries on a cleaned project report the missing index
	out, err = runCLI(t, "files", "--root", root)
	require.NoError(t, err)
	assert.Contains(t, out, "No files indexed")
}

func TestCLI_Version(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "pyscope "))
}

func TestRenderReport(t *testing.T) {
	report := &indexer.Report{
		Considered:    5,
		Indexed:       3,
		SkippedBinary: 1,
		Failed: []indexer.FileFailure{
			{Path: "bad.py", Reason: "invalid syntax", Line: 4},
			{Path: "gone.py", Reason: "source file not found"},
		},
		Duration: 1500 * time.Millisecond,
	}

	out := renderReport(report)
	assert.Contains(t, out, "Indexed 3 of 5 files in 1.5s")
	assert.Contains(t, out, "Skipped (binary):")
	assert.Contains(t, out, "bad.py:4")
	assert.Contains(t, out, "invalid syntax")
	assert.Contains(t, out, "gone.py")
	assert.NotContains(t, out, "gone.py:")
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatNumber(tt.in))
	}
}

func TestHighlightPython(t *testing.T) {
	out := highlightPython("def f(x):\n    return x\n")
	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, out, "return")
}
