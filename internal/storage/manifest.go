package storage

import (
	"sort"
	"time"
)

// ManifestEntry maps one indexed source file to its artifact.
type ManifestEntry struct {
	Artifact   string `json:"artifact"`
	Path       string `json:"path"`
	SourceHash string `json:"source_hash"`
}

// Manifest lists every file indexed by one run, ordered by path.
// It is not safe for concurrent mutation; lookups on a loaded manifest are.
type Manifest struct {
	Files       []ManifestEntry `json:"files"`
	GeneratedAt time.Time       `json:"generated_at"`
	Root        string          `json:"root"`
	RunID       string          `json:"run_id"`

	byPath map[string]int
}

// NewManifest creates an empty manifest for a run.
func NewManifest(root, runID string, generatedAt time.Time) *Manifest {
	return &Manifest{
		Files:       []ManifestEntry{},
		GeneratedAt: generatedAt.UTC(),
		Root:        root,
		RunID:       runID,
	}
}

// Add records an entry; a repeated path replaces the earlier entry.
func (m *Manifest) Add(entry ManifestEntry) {
	idx := m.index()
	if i, ok := idx[entry.Path]; ok {
		m.Files[i] = entry
		return
	}
	idx[entry.Path] = len(m.Files)
	m.Files = append(m.Files, entry)
}

// Sort orders entries by path.
func (m *Manifest) Sort() {
	sort.Slice(m.Files, func(i, j int) bool { return m.Files[i].Path < m.Files[j].Path })
	m.byPath = nil
	m.index()
}

// Lookup returns the entry for a root-relative path.
func (m *Manifest) Lookup(path string) (ManifestEntry, bool) {
	i, ok := m.index()[path]
	if !ok {
		return ManifestEntry{}, false
	}
	return m.Files[i], true
}

// Paths returns the indexed paths in manifest order.
func (m *Manifest) Paths() []string {
	paths := make([]string, len(m.Files))
	for i, entry := range m.Files {
		paths[i] = entry.Path
	}
	return paths
}

// Artifacts returns the set of artifact names the manifest references.
func (m *Manifest) Artifacts() map[string]struct{} {
	set := make(map[string]struct{}, len(m.Files))
	for _, entry := range m.Files {
		set[entry.Artifact] = struct{}{}
	}
	return set
}

func (m *Manifest) index() map[string]int {
	if m.byPath == nil {
		m.byPath = make(map[string]int, len(m.Files))
		for i, entry := range m.Files {
			m.byPath[entry.Path] = i
		}
	}
	return m.byPath
}
