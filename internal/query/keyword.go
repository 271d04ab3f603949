package query

import (
	"context"
	"fmt"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/mvp-joe/pyscope/internal/indexer/extraction"
)

// KeywordHit is one record matched by SearchKeyword.
type KeywordHit struct {
	FilePath   string   `json:"file_path"`
	Kind       string   `json:"kind"`
	Name       string   `json:"name"` // Class.method for methods
	LineStart  int      `json:"line_start"`
	LineEnd    int      `json:"line_end"`
	Score      float64  `json:"score"`
	Highlights []string `json:"highlights"`
}

// keywordIndex is an in-memory bleve index over classes, functions and methods.
type keywordIndex struct {
	index bleve.Index
}

type keywordDocument struct {
	id        string
	name      string
	kind      string
	filePath  string
	docstring string
	text      string
	lineStart int
	lineEnd   int
}

// SearchKeyword runs a bleve query-string search over record names,
// docstrings and source. Supports field scoping (name:, kind:, file_path:,
// docstring:, text:), boolean operators, phrases and wildcards.
func (e *Engine) SearchKeyword(ctx context.Context, queryStr string, limit int) ([]*KeywordHit, error) {
	if limit <= 0 || limit > 100 {
		limit = 15
	}

	ki, err := e.keywordIndex(ctx)
	if err != nil {
		return nil, err
	}

	req := bleve.NewSearchRequestOptions(bleve.NewQueryStringQuery(queryStr), limit, 0, false)
	highlightStyle := "html"
	req.Highlight = bleve.NewHighlight()
	req.Highlight.Style = &highlightStyle
	req.Highlight.Fields = highlightFields
	req.Fields = []string{"name", "kind", "file_path", "line_start", "line_end"}

	result, err := ki.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("keyword search failed: %w", err)
	}

	hits := make([]*KeywordHit, 0, len(result.Hits))
	for _, hit := range result.Hits {
		name, _ := hit.Fields["name"].(string)
		kind, _ := hit.Fields["kind"].(string)
		filePath, _ := hit.Fields["file_path"].(string)
		// bleve returns stored numbers as float64
		lineStart, _ := hit.Fields["line_start"].(float64)
		lineEnd, _ := hit.Fields["line_end"].(float64)

		hits = append(hits, &KeywordHit{
			FilePath:   filePath,
			Kind:       kind,
			Name:       name,
			LineStart:  int(lineStart),
			LineEnd:    int(lineEnd),
			Score:      hit.Score,
			Highlights: extractHighlights(hit.Fragments),
		})
	}
	return hits, nil
}

// keywordIndex returns the keyword index, building it on first use.
func (e *Engine) keywordIndex(ctx context.Context) (*keywordIndex, error) {
	e.mu.RLock()
	ki := e.keyword
	e.mu.RUnlock()
	if ki != nil {
		return ki, nil
	}

	var docs []keywordDocument
	for _, path := range e.ListFiles() {
		fs, err := e.load(path)
		if err != nil {
			return nil, err
		}
		if fs != nil {
			docs = append(docs, keywordDocuments(path, fs)...)
		}
	}

	built, err := newKeywordIndex(ctx, docs)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.keyword != nil {
		// Another caller finished first.
		built.index.Close()
		return e.keyword, nil
	}
	e.keyword = built
	return built, nil
}

// resetKeywordLocked drops the keyword index. Caller holds e.mu.
func (e *Engine) resetKeywordLocked() {
	if e.keyword != nil {
		e.keyword.index.Close()
		e.keyword = nil
	}
}

func keywordDocuments(path string, fs *extraction.FileStructure) []keywordDocument {
	var docs []keywordDocument

	add := func(kind, name string, docstring *string, text string, lineStart, lineEnd int) {
		doc := keywordDocument{
			id:        fmt.Sprintf("%s#%s#%s#%d", path, kind, name, lineStart),
			name:      name,
			kind:      kind,
			filePath:  path,
			text:      text,
			lineStart: lineStart,
			lineEnd:   lineEnd,
		}
		if docstring != nil {
			doc.docstring = *docstring
		}
		docs = append(docs, doc)
	}

	for _, c := range fs.Classes {
		add(KindClass, c.Name, c.Docstring, c.SourceCode, c.LineStart, c.LineEnd)
		for _, m := range c.Methods {
			add(KindMethod, c.Name+"."+m.Name, m.Docstring, m.SourceCode, m.LineStart, m.LineEnd)
		}
	}
	for _, fn := range fs.Functions {
		add(KindFunction, fn.Name, fn.Docstring, fn.SourceCode, fn.LineStart, fn.LineEnd)
	}
	return docs
}

func newKeywordIndex(ctx context.Context, docs []keywordDocument) (*keywordIndex, error) {
	index, err := bleve.NewMemOnly(buildKeywordMapping())
	if err != nil {
		return nil, fmt.Errorf("failed to create keyword index: %w", err)
	}

	const batchSize = 1000

	batch := index.NewBatch()
	for i, doc := range docs {
		if i%batchSize == 0 {
			if err := ctx.Err(); err != nil {
				index.Close()
				return nil, err
			}
		}

		if err := batch.Index(doc.id, map[string]interface{}{
			"name":       doc.name,
			"kind":       doc.kind,
			"file_path":  doc.filePath,
			"docstring":  doc.docstring,
			"text":       doc.text,
			"line_start": doc.lineStart,
			"line_end":   doc.lineEnd,
		}); err != nil {
			index.Close()
			return nil, fmt.Errorf("failed to add %s to batch: %w", doc.id, err)
		}

		if batch.Size() >= batchSize {
			if err := index.Batch(batch); err != nil {
				index.Close()
				return nil, fmt.Errorf("failed to execute batch: %w", err)
			}
			batch = index.NewBatch()
		}
	}

	if batch.Size() > 0 {
		if err := index.Batch(batch); err != nil {
			index.Close()
			return nil, fmt.Errorf("failed to execute final batch: %w", err)
		}
	}

	return &keywordIndex{index: index}, nil
}

// buildKeywordMapping indexes names, docstrings and source with the standard
// analyzer; kind is matched exactly.
func buildKeywordMapping() *mapping.IndexMappingImpl {
	indexMapping := bleve.NewIndexMapping()

	kindMapping := bleve.NewTextFieldMapping()
	kindMapping.Analyzer = "keyword"
	kindMapping.Store = true

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("name", standardTextMapping())
	docMapping.AddFieldMappingsAt("docstring", standardTextMapping())
	docMapping.AddFieldMappingsAt("text", standardTextMapping())
	docMapping.AddFieldMappingsAt("file_path", standardTextMapping())
	docMapping.AddFieldMappingsAt("kind", kindMapping)
	docMapping.AddFieldMappingsAt("line_start", storedNumberMapping())
	docMapping.AddFieldMappingsAt("line_end", storedNumberMapping())

	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

func standardTextMapping() *mapping.FieldMapping {
	m := bleve.NewTextFieldMapping()
	m.Analyzer = "standard"
	m.Store = true              // for highlighting
	m.IncludeTermVectors = true // phrase search
	return m
}

func storedNumberMapping() *mapping.FieldMapping {
	m := bleve.NewNumericFieldMapping()
	m.Store = true
	m.Index = false
	return m
}

// highlightFields lists highlighted fields in the order snippets are returned.
var highlightFields = []string{"text", "docstring"}

// extractHighlights returns up to 3 highlighted snippets, source before docstring.
func extractHighlights(fragments map[string][]string) []string {
	var highlights []string
	for _, field := range highlightFields {
		highlights = append(highlights, fragments[field]...)
	}
	if len(highlights) > 3 {
		highlights = highlights[:3]
	}
	return highlights
}
