package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/mvp-joe/pyscope/internal/indexer/extraction"
)

const (
	// ManifestFile is the manifest name inside an index directory.
	ManifestFile = "manifest.json"
	// CatalogFile is the SQLite symbol catalog inside an index directory.
	CatalogFile = "catalog.db"
	// LockFile guards an index directory during a run.
	LockFile = ".lock"

	artifactPrefix = "environ_"
	artifactSuffix = ".json"
)

var (
	// ErrArtifactCorrupt is returned when an artifact is missing, unreadable or undecodable.
	ErrArtifactCorrupt = errors.New("artifact missing or corrupt")
	// ErrNoManifest is returned when an index directory holds no manifest.
	ErrNoManifest = errors.New("index has no manifest")
)

// ArtifactName flattens a root-relative path into an artifact file name:
// '%' and '@' are percent-escaped, '/' becomes '@' and the extension dot
// becomes '_'. "pkg/mod.py" maps to "environ_pkg@mod_py.json".
func ArtifactName(relPath string) string {
	relPath = filepath.ToSlash(relPath)
	ext := path.Ext(relPath)
	stem := strings.TrimSuffix(relPath, ext)

	flat := strings.NewReplacer("%", "%25", "@", "%40", "/", "@").Replace(stem)
	if ext != "" {
		flat += "_" + strings.NewReplacer("%", "%25", "@", "%40").Replace(ext[1:])
	}
	return artifactPrefix + flat + artifactSuffix
}

// IsArtifactName reports whether a file name belongs to the artifact namespace.
func IsArtifactName(name string) bool {
	return strings.HasPrefix(name, artifactPrefix) && strings.HasSuffix(name, artifactSuffix)
}

// ArtifactIndex stores one JSON artifact per parsed file plus the manifest
// that lists them.
type ArtifactIndex struct {
	dir    string
	writer *AtomicWriter
}

// Open prepares dir for writing, creating it when needed.
func Open(dir string) (*ArtifactIndex, error) {
	writer, err := NewAtomicWriter(dir)
	if err != nil {
		return nil, err
	}
	return &ArtifactIndex{dir: dir, writer: writer}, nil
}

// Dir returns the index directory.
func (ai *ArtifactIndex) Dir() string {
	return ai.dir
}

// TempDir returns the directory for in-progress files of this index.
func (ai *ArtifactIndex) TempDir() string {
	return ai.writer.TempDir()
}

// Write stores the structure of relPath and returns the artifact name.
func (ai *ArtifactIndex) Write(relPath string, structure *extraction.FileStructure) (string, error) {
	name := ArtifactName(relPath)
	if err := ai.writer.WriteJSON(name, structure); err != nil {
		return "", fmt.Errorf("failed to write artifact for %s: %w", relPath, err)
	}
	return name, nil
}

// Read loads an artifact by name.
func (ai *ArtifactIndex) Read(artifact string) (*extraction.FileStructure, error) {
	return ReadArtifact(ai.dir, artifact)
}

// WriteManifest replaces the manifest atomically.
func (ai *ArtifactIndex) WriteManifest(m *Manifest) error {
	m.Sort()
	if err := ai.writer.WriteJSON(ManifestFile, m); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Manifest loads the current manifest.
func (ai *ArtifactIndex) Manifest() (*Manifest, error) {
	return ReadManifest(ai.dir)
}

// Prune removes artifacts that keep does not reference and returns how many
// were removed.
func (ai *ArtifactIndex) Prune(keep *Manifest) (int, error) {
	entries, err := os.ReadDir(ai.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list index directory: %w", err)
	}

	referenced := keep.Artifacts()
	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !IsArtifactName(name) {
			continue
		}
		if _, ok := referenced[name]; ok {
			continue
		}
		if err := os.Remove(filepath.Join(ai.dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, fmt.Errorf("failed to remove stale artifact %s: %w", name, err)
		}
		removed++
	}
	return removed, nil
}

// Clean removes the index directory and everything in it.
func (ai *ArtifactIndex) Clean() error {
	return Clean(ai.dir)
}

// Clean removes an index directory. A missing directory is not an error.
func Clean(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove index directory: %w", err)
	}
	return nil
}

// ReadArtifact loads an artifact from an index directory without opening it for writing.
func ReadArtifact(dir, artifact string) (*extraction.FileStructure, error) {
	data, err := os.ReadFile(filepath.Join(dir, artifact))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifactCorrupt, artifact, err)
	}

	var structure extraction.FileStructure
	if err := json.Unmarshal(data, &structure); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArtifactCorrupt, artifact, err)
	}
	structure.Normalize()
	return &structure, nil
}

// ReadManifest loads the manifest of an index directory.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoManifest, dir)
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}
	if m.Files == nil {
		m.Files = []ManifestEntry{}
	}
	m.index()
	return &m, nil
}
