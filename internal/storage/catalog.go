package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mvp-joe/pyscope/internal/indexer/extraction"
)

// ErrNoCatalog is returned when an index directory has no symbol catalog.
var ErrNoCatalog = errors.New("index has no symbol catalog")

// Symbol kinds stored in the catalog.
const (
	KindClass    = "class"
	KindFunction = "function"
	KindMethod   = "method"
)

// Symbol is one catalog row: a class, module-level function or method.
type Symbol struct {
	Name          string  `json:"name"`
	QualifiedName string  `json:"qualified_name"` // Class.method for methods
	Kind          string  `json:"kind"`
	FilePath      string  `json:"file_path"`
	Parent        *string `json:"parent,omitempty"`
	LineStart     int     `json:"line_start"`
	LineEnd       int     `json:"line_end"`
	Signature     string  `json:"signature"`
	HasDocstring  bool    `json:"has_docstring"`
}

// CatalogWriter builds a fresh catalog in the temp directory and moves it
// into place on Commit. Safe for concurrent AddFile calls.
type CatalogWriter struct {
	mu        sync.Mutex
	db        *sql.DB
	tx        *sql.Tx
	tempPath  string
	finalPath string
	closed    bool
}

// NewCatalogWriter starts a catalog for the index at ai.
func NewCatalogWriter(ai *ArtifactIndex) (*CatalogWriter, error) {
	tmp, err := os.CreateTemp(ai.TempDir(), CatalogFile+".*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp catalog: %w", err)
	}
	tempPath := tmp.Name()
	tmp.Close()

	db, err := sql.Open("sqlite3", tempPath)
	if err != nil {
		os.Remove(tempPath)
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := CreateSchema(db); err != nil {
		db.Close()
		os.Remove(tempPath)
		return nil, err
	}

	tx, err := db.Begin()
	if err != nil {
		db.Close()
		os.Remove(tempPath)
		return nil, fmt.Errorf("failed to begin catalog transaction: %w", err)
	}

	return &CatalogWriter{
		db:        db,
		tx:        tx,
		tempPath:  tempPath,
		finalPath: filepath.Join(ai.Dir(), CatalogFile),
	}, nil
}

// AddFile records a file and its symbols.
func (w *CatalogWriter) AddFile(entry ManifestEntry, structure *extraction.FileStructure) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errors.New("catalog writer is closed")
	}

	_, err := sq.Insert("files").
		Columns("path", "artifact", "source_hash", "total_lines", "class_count", "function_count", "statement_count", "docstring").
		Values(
			entry.Path,
			entry.Artifact,
			entry.SourceHash,
			structure.TotalLines,
			len(structure.Classes),
			len(structure.Functions),
			len(structure.TopLevelStatements),
			structure.Docstring,
		).
		Options("OR REPLACE").
		RunWith(w.tx).
		Exec()
	if err != nil {
		return fmt.Errorf("failed to insert file %s: %w", entry.Path, err)
	}

	for _, sym := range symbolsOf(entry.Path, structure) {
		_, err := sq.Insert("symbols").
			Columns("name", "qualified_name", "kind", "file_path", "parent", "line_start", "line_end", "signature", "has_docstring").
			Values(sym.Name, sym.QualifiedName, sym.Kind, sym.FilePath, sym.Parent, sym.LineStart, sym.LineEnd, sym.Signature, sym.HasDocstring).
			RunWith(w.tx).
			Exec()
		if err != nil {
			return fmt.Errorf("failed to insert symbol %s: %w", sym.QualifiedName, err)
		}
	}
	return nil
}

// Commit finishes the catalog and replaces the previous one.
func (w *CatalogWriter) Commit() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return errors.New("catalog writer is closed")
	}
	w.closed = true

	if err := w.tx.Commit(); err != nil {
		w.db.Close()
		os.Remove(w.tempPath)
		return fmt.Errorf("failed to commit catalog: %w", err)
	}
	if err := w.db.Close(); err != nil {
		os.Remove(w.tempPath)
		return fmt.Errorf("failed to close catalog: %w", err)
	}
	if err := os.Rename(w.tempPath, w.finalPath); err != nil {
		os.Remove(w.tempPath)
		return fmt.Errorf("failed to move catalog into place: %w", err)
	}
	return nil
}

// Abort discards the catalog being built. Safe after Commit.
func (w *CatalogWriter) Abort() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}
	w.closed = true
	w.tx.Rollback()
	w.db.Close()
	os.Remove(w.tempPath)
}

// Catalog is a read-only view of a symbol catalog.
type Catalog struct {
	db *sql.DB
}

// OpenCatalog opens the catalog of an index directory read-only.
func OpenCatalog(dir string) (*Catalog, error) {
	dbPath := filepath.Join(dir, CatalogFile)
	if _, err := os.Stat(dbPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoCatalog, dir)
		}
		return nil, fmt.Errorf("failed to stat catalog: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	return &Catalog{db: db}, nil
}

// FindSymbols returns symbols whose name matches. Names containing '*', '?'
// or '[' are GLOB patterns; a qualified "Class.method" name matches methods.
// An empty kind matches every kind.
func (c *Catalog) FindSymbols(name, kind string) ([]Symbol, error) {
	column := "name"
	if strings.Contains(name, ".") {
		column = "qualified_name"
	}

	query := sq.Select("name", "qualified_name", "kind", "file_path", "parent", "line_start", "line_end", "signature", "has_docstring").
		From("symbols").
		OrderBy("file_path", "line_start")

	if strings.ContainsAny(name, "*?[") {
		query = query.Where(sq.Expr(column+" GLOB ?", name))
	} else {
		query = query.Where(sq.Eq{column: name})
	}
	if kind != "" {
		query = query.Where(sq.Eq{"kind": kind})
	}

	rows, err := query.RunWith(c.db).Query()
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	symbols := []Symbol{}
	for rows.Next() {
		var sym Symbol
		var parent sql.NullString
		if err := rows.Scan(&sym.Name, &sym.QualifiedName, &sym.Kind, &sym.FilePath, &parent,
			&sym.LineStart, &sym.LineEnd, &sym.Signature, &sym.HasDocstring); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		if parent.Valid {
			p := parent.String
			sym.Parent = &p
		}
		symbols = append(symbols, sym)
	}
	return symbols, rows.Err()
}

// Close releases the database handle.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// symbolsOf lists the catalog rows of one file.
func symbolsOf(path string, structure *extraction.FileStructure) []Symbol {
	var symbols []Symbol
	for _, class := range structure.Classes {
		symbols = append(symbols, Symbol{
			Name:          class.Name,
			QualifiedName: class.Name,
			Kind:          KindClass,
			FilePath:      path,
			LineStart:     class.LineStart,
			LineEnd:       class.LineEnd,
			Signature:     classSignature(class),
			HasDocstring:  class.Docstring != nil,
		})
		parent := class.Name
		for _, method := range class.Methods {
			symbols = append(symbols, Symbol{
				Name:          method.Name,
				QualifiedName: class.Name + "." + method.Name,
				Kind:          KindMethod,
				FilePath:      path,
				Parent:        &parent,
				LineStart:     method.LineStart,
				LineEnd:       method.LineEnd,
				Signature:     FunctionSignature(method),
				HasDocstring:  method.Docstring != nil,
			})
		}
	}
	for _, fn := range structure.Functions {
		symbols = append(symbols, Symbol{
			Name:          fn.Name,
			QualifiedName: fn.Name,
			Kind:          KindFunction,
			FilePath:      path,
			LineStart:     fn.LineStart,
			LineEnd:       fn.LineEnd,
			Signature:     FunctionSignature(fn),
			HasDocstring:  fn.Docstring != nil,
		})
	}
	return symbols
}

func classSignature(class extraction.ClassRecord) string {
	if len(class.BaseExpressions) == 0 {
		return "class " + class.Name
	}
	return "class " + class.Name + "(" + strings.Join(class.BaseExpressions, ", ") + ")"
}

// FunctionSignature renders a def line from a function record, e.g.
// "async def fetch(url, *args, timeout: float = 1.5) -> str".
func FunctionSignature(fn extraction.FunctionRecord) string {
	var params []string
	render := func(prefix string, arg extraction.ArgumentRecord) string {
		s := prefix + arg.Name
		if arg.TypeAnnotation != nil {
			s += ": " + *arg.TypeAnnotation
		}
		if arg.DefaultValue != nil {
			if arg.TypeAnnotation != nil {
				s += " = " + *arg.DefaultValue
			} else {
				s += "=" + *arg.DefaultValue
			}
		}
		return s
	}

	for _, arg := range fn.Arguments {
		params = append(params, render("", arg))
	}
	if fn.Vararg != nil {
		params = append(params, render("*", *fn.Vararg))
	} else if len(fn.KwonlyArguments) > 0 {
		params = append(params, "*")
	}
	for _, arg := range fn.KwonlyArguments {
		params = append(params, render("", arg))
	}
	if fn.Kwarg != nil {
		params = append(params, render("**", *fn.Kwarg))
	}

	sig := "def " + fn.Name + "(" + strings.Join(params, ", ") + ")"
	if fn.IsAsync {
		sig = "async " + sig
	}
	if fn.ReturnAnnotation != nil {
		sig += " -> " + *fn.ReturnAnnotation
	}
	return sig
}
