package query

import (
	"github.com/mvp-joe/pyscope/internal/storage"
)

// FindSymbols looks name up in the symbol catalog across every indexed file.
// Returns storage.ErrNoCatalog when the index was built without one.
func (e *Engine) FindSymbols(name, kind string) ([]storage.Symbol, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	catalog, err := e.openCatalogLocked()
	if err != nil {
		return nil, err
	}
	return catalog.FindSymbols(name, kind)
}

// openCatalogLocked opens the catalog once per loaded manifest. Callers hold e.mu.
func (e *Engine) openCatalogLocked() (*storage.Catalog, error) {
	if e.catalog != nil {
		return e.catalog, nil
	}
	catalog, err := storage.OpenCatalog(e.dir)
	if err != nil {
		return nil, err
	}
	e.catalog = catalog
	return catalog, nil
}
