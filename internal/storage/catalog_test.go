package storage

import (
	"path/filepath"
	"testing"

	"github.com/mvp-joe/pyscope/internal/indexer/extraction"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for the symbol catalog:
// - Commit moves the catalog into the index directory
// - Exact, glob and qualified-name lookups
// - Kind filter
// - Abort leaves no catalog behind
// - Opening a directory without a catalog → ErrNoCatalog
// - FunctionSignature renders every parameter slot

func catalogStructure() *extraction.FileStructure {
	fs := extraction.NewFileStructure("shop/cart.py")
	fs.TotalLines = 20
	fs.Classes = append(fs.Classes, extraction.ClassRecord{
		BaseExpressions: []string{"Base"},
		Decorators:      []string{},
		LineEnd:         10,
		LineStart:       1,
		Name:            "Cart",
		Methods: []extraction.FunctionRecord{
			{Name: "add", LineStart: 3, LineEnd: 5, Arguments: []extraction.ArgumentRecord{{Name: "self"}, {Name: "item"}}},
			{Name: "total", LineStart: 7, LineEnd: 10, Arguments: []extraction.ArgumentRecord{{Name: "self"}}},
		},
	})
	fs.Functions = append(fs.Functions, extraction.FunctionRecord{Name: "add", LineStart: 12, LineEnd: 13})
	return fs
}

func TestCatalog_BuildAndQuery(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ai, err := Open(dir)
	require.NoError(t, err)

	w, err := NewCatalogWriter(ai)
	require.NoError(t, err)
	require.NoError(t, w.AddFile(ManifestEntry{Path: "shop/cart.py", Artifact: ArtifactName("shop/cart.py"), SourceHash: "abc"}, catalogStructure()))
	require.NoError(t, w.Commit())
	assert.FileExists(t, filepath.Join(dir, CatalogFile))

	catalog, err := OpenCatalog(dir)
	require.NoError(t, err)
	defer catalog.Close()

	// Test: exact name spans kinds
	syms, err := catalog.FindSymbols("add", "")
	require.NoError(t, err)
	require.Len(t, syms, 2)
	assert.Equal(t, KindMethod, syms[0].Kind)
	assert.Equal(t, "Cart.add", syms[0].QualifiedName)
	require.NotNil(t, syms[0].Parent)
	assert.Equal(t, "Cart", *syms[0].Parent)
	assert.Equal(t, KindFunction, syms[1].Kind)
	assert.Nil(t, syms[1].Parent)

	// Test: kind filter
	syms, err = catalog.FindSymbols("add", KindFunction)
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, 12, syms[0].LineStart)

	// Test: glob and qualified lookups
	syms, err = catalog.FindSymbols("Ca*", "")
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, "class Cart(Base)", syms[0].Signature)

	syms, err = catalog.FindSymbols("Cart.total", "")
	require.NoError(t, err)
	require.Len(t, syms, 1)
	assert.Equal(t, "def total(self)", syms[0].Signature)

	syms, err = catalog.FindSymbols("nothing", "")
	require.NoError(t, err)
	assert.Empty(t, syms)
}

func TestCatalog_AbortAndMissing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ai, err := Open(dir)
	require.NoError(t, err)

	w, err := NewCatalogWriter(ai)
	require.NoError(t, err)
	w.Abort()
	w.Abort()
	assert.NoFileExists(t, filepath.Join(dir, CatalogFile))

	_, err = OpenCatalog(dir)
	assert.ErrorIs(t, err, ErrNoCatalog)
}

func TestFunctionSignature(t *testing.T) {
	t.Parallel()

	str := "str"
	one := "1"
	fn := extraction.FunctionRecord{
		Name:             "fetch",
		IsAsync:          true,
		Arguments:        []extraction.ArgumentRecord{{Name: "url", TypeAnnotation: &str}, {Name: "n", DefaultValue: &one}},
		KwonlyArguments:  []extraction.ArgumentRecord{{Name: "timeout", DefaultValue: &one}},
		Kwarg:            &extraction.ArgumentRecord{Name: "kw"},
		ReturnAnnotation: &str,
	}
	assert.Equal(t, "async def fetch(url: str, n=1, *, timeout=1, **kw) -> str", FunctionSignature(fn))

	fn.Vararg = &extraction.ArgumentRecord{Name: "args"}
	assert.Equal(t, "async def fetch(url: str, n=1, *args, timeout=1, **kw) -> str", FunctionSignature(fn))
}
