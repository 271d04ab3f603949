package indexer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for PathFilter:
// - Exclude file globs and directory rules (scenario: logs, build/, node_modules/)
// - Whitelist of exact paths
// - Extension-only include crosses directories ('*' matches '/')
// - Empty rule lists select every file
// - Directory rule with catch-all include
// - Negated include always wins
// - Excluded directories are pruned before descent
// - Braces, commas and backslashes match literally; character classes stay wildcards
// - Invalid roots and invalid patterns are reported
// - SelectText drops binary files that Select keeps

// writeFixtureTree creates the shared fixture tree used by the selection scenarios.
func writeFixtureTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"file1.txt":           "content",
		"temp.log":            "log",
		"build/output.log":    "build log",
		"sub_dir/another.py":  "import os",
		".hidden_file":        "hidden",
		"important.txt":       "important",
		"docs/report.md":      "report",
		"node_modules/dep.js": "js",
		"tmp/readme.md":       "readme",
		"tmp/temp.txt":        "temp file in tmp",
		"important.log":       "important log content",
	}
	for rel, content := range files {
		writeFile(t, root, rel, content)
	}
	return root
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestSelect_Scenarios(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		include  []string
		exclude  []string
		expected []string
	}{
		{
			name:    "exclude logs build and node_modules",
			include: []string{"*.*"},
			exclude: []string{"*.log", "build/", "node_modules/"},
			expected: []string{
				".hidden_file",
				"docs/report.md",
				"file1.txt",
				"important.txt",
				"sub_dir/another.py",
				"tmp/readme.md",
				"tmp/temp.txt",
			},
		},
		{
			name:     "explicit whitelist",
			include:  []string{"important.txt", "sub_dir/another.py"},
			expected: []string{"important.txt", "sub_dir/another.py"},
		},
		{
			name:     "only txt files",
			include:  []string{"*.txt"},
			expected: []string{"file1.txt", "important.txt", "tmp/temp.txt"},
		},
		{
			name: "no rules selects everything",
			expected: []string{
				".hidden_file",
				"build/output.log",
				"docs/report.md",
				"file1.txt",
				"important.log",
				"important.txt",
				"node_modules/dep.js",
				"sub_dir/another.py",
				"temp.log",
				"tmp/readme.md",
				"tmp/temp.txt",
			},
		},
		{
			name:    "directory rule with catch-all include",
			include: []string{"*"},
			exclude: []string{"tmp/"},
			expected: []string{
				".hidden_file",
				"build/output.log",
				"docs/report.md",
				"file1.txt",
				"important.log",
				"important.txt",
				"node_modules/dep.js",
				"sub_dir/another.py",
				"temp.log",
			},
		},
		{
			name:     "negated include wins regardless of order",
			include:  []string{"*.txt", "!tmp/*"},
			expected: []string{"file1.txt", "important.txt"},
		},
		{
			name:     "negated include listed first",
			include:  []string{"!important*", "*.txt"},
			expected: []string{"file1.txt", "tmp/temp.txt"},
		},
		{
			name:     "include directory rule",
			include:  []string{"tmp/"},
			expected: []string{"tmp/readme.md", "tmp/temp.txt"},
		},
		{
			name:     "single character wildcard and character class",
			include:  []string{"file?.txt", "[i]mportant.log"},
			expected: []string{"file1.txt", "important.log"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			root := writeFixtureTree(t)

			files, err := Select(root, tt.include, tt.exclude)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, files)
		})
	}
}

func TestSelect_Deterministic(t *testing.T) {
	t.Parallel()

	root := writeFixtureTree(t)
	first, err := Select(root, []string{"*"}, nil)
	require.NoError(t, err)
	second, err := Select(root, []string{"*"}, nil)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPathFilter_PrunesExcludedDirectories(t *testing.T) {
	t.Parallel()

	root := writeFixtureTree(t)
	writeFile(t, root, "pkg/cache/deep/x.py", "x = 1")
	writeFile(t, root, "pkg/keep.py", "y = 2")

	pf, err := NewPathFilter([]string{"*.py"}, []string{"*/cache/"})
	require.NoError(t, err)

	// Test: nested directory rule prunes the whole subtree
	assert.True(t, pf.PrunesDir("pkg/cache"))
	assert.False(t, pf.PrunesDir("pkg"))

	files, err := pf.Select(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"pkg/keep.py", "sub_dir/another.py"}, files)
}

func TestPathFilter_ExclamationIsLiteralInExcludes(t *testing.T) {
	t.Parallel()

	pf, err := NewPathFilter(nil, []string{"!keep.py"})
	require.NoError(t, err)
	assert.True(t, pf.Matches("keep.py"))
	assert.False(t, pf.Matches("!keep.py"))
}

func TestSelect_LiteralBracesAndCommas(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	for _, rel := range []string{"a{b}.py", "ab.py", "a,b.py", "a.py", "b.py", "c1.py"} {
		writeFile(t, root, rel, "x = 1\n")
	}

	got, err := Select(root, []string{"a{b}.py"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a{b}.py"}, got)

	got, err = Select(root, []string{"{a,b}.py"}, nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = Select(root, []string{"a,b.py"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a,b.py"}, got)

	// Test: character classes and negated classes remain wildcards
	got, err = Select(root, []string{"[ab].py"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.py", "b.py"}, got)

	got, err = Select(root, []string{"[!ab]?.py"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1.py"}, got)
}

func TestSelect_Errors(t *testing.T) {
	t.Parallel()

	t.Run("missing root", func(t *testing.T) {
		t.Parallel()
		_, err := Select(filepath.Join(t.TempDir(), "missing"), nil, nil)
		assert.ErrorIs(t, err, ErrInvalidRoot)
	})

	t.Run("root is a file", func(t *testing.T) {
		t.Parallel()
		root := t.TempDir()
		writeFile(t, root, "a.py", "")
		_, err := Select(filepath.Join(root, "a.py"), nil, nil)
		assert.ErrorIs(t, err, ErrInvalidRoot)
	})

	t.Run("empty root", func(t *testing.T) {
		t.Parallel()
		files, err := Select(t.TempDir(), []string{"*.py"}, nil)
		require.NoError(t, err)
		assert.Empty(t, files)
	})

	t.Run("invalid pattern", func(t *testing.T) {
		t.Parallel()
		_, err := NewPathFilter([]string{"[unterminated"}, nil)
		require.Error(t, err)
		assert.True(t, strings.Contains(err.Error(), "[unterminated"))
	})
}

func TestPathFilter_SelectText(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "app.py", "print('hi')\n")
	require.NoError(t, os.WriteFile(filepath.Join(root, "blob.py"), []byte{0x89, 'P', 'N', 'G', 0x00, 0x01}, 0644))

	pf, err := NewPathFilter([]string{"*.py"}, nil)
	require.NoError(t, err)

	all, err := pf.Select(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"app.py", "blob.py"}, all)

	text, err := pf.SelectText(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"app.py"}, text)
}
