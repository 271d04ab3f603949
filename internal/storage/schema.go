package storage

import (
	"database/sql"
	"fmt"
)

const createFilesTable = `
CREATE TABLE IF NOT EXISTS files (
	path            TEXT PRIMARY KEY,
	artifact        TEXT NOT NULL,
	source_hash     TEXT NOT NULL,
	total_lines     INTEGER NOT NULL,
	class_count     INTEGER NOT NULL,
	function_count  INTEGER NOT NULL,
	statement_count INTEGER NOT NULL,
	docstring       TEXT
)`

const createSymbolsTable = `
CREATE TABLE IF NOT EXISTS symbols (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	name           TEXT NOT NULL,
	qualified_name TEXT NOT NULL,
	kind           TEXT NOT NULL CHECK (kind IN ('class', 'function', 'method')),
	file_path      TEXT NOT NULL REFERENCES files(path) ON DELETE CASCADE,
	parent         TEXT,
	line_start     INTEGER NOT NULL,
	line_end       INTEGER NOT NULL,
	signature      TEXT NOT NULL,
	has_docstring  INTEGER NOT NULL DEFAULT 0
)`

const createCatalogMetadataTable = `
CREATE TABLE IF NOT EXISTS catalog_metadata (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

func getAllIndexes() []string {
	return []string{
		"CREATE INDEX IF NOT EXISTS idx_symbols_name ON symbols(name)",
		"CREATE INDEX IF NOT EXISTS idx_symbols_kind ON symbols(kind)",
		"CREATE INDEX IF NOT EXISTS idx_symbols_file ON symbols(file_path)",
	}
}

// CreateSchema creates the catalog tables and indexes in one transaction.
func CreateSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin schema transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after commit

	if _, err := tx.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	tables := []struct {
		name string
		ddl  string
	}{
		{"files", createFilesTable},
		{"symbols", createSymbolsTable},
		{"catalog_metadata", createCatalogMetadataTable},
	}

	for _, table := range tables {
		if _, err := tx.Exec(table.ddl); err != nil {
			return fmt.Errorf("failed to create %s table: %w", table.name, err)
		}
	}

	for i, idx := range getAllIndexes() {
		if _, err := tx.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit schema: %w", err)
	}
	return nil
}
