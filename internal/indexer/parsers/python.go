package parsers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/mvp-joe/pyscope/internal/indexer/extraction"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// PythonParser builds FileStructure records from Python source.
// It is safe for concurrent use: every parse gets its own tree-sitter parser.
type PythonParser struct {
	language *sitter.Language
}

// NewPythonParser creates a new Python parser.
func NewPythonParser() *PythonParser {
	return &PythonParser{
		language: sitter.NewLanguage(python.Language()),
	}
}

// ParseFile reads and parses a Python source file. The returned structure
// records filePath as given.
func (p *PythonParser) ParseFile(ctx context.Context, filePath string) (*extraction.FileStructure, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	source, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, filePath)
		}
		return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	return p.ParseSource(filePath, source)
}

// ParseSource parses in-memory Python source recorded under path.
// Syntax errors and undecodable text yield a *ParseError.
func (p *PythonParser) ParseSource(path string, source []byte) (*extraction.FileStructure, error) {
	source = bytes.TrimPrefix(source, utf8BOM)
	if off := invalidUTF8Offset(source); off >= 0 {
		return nil, &ParseError{
			Path:    path,
			Line:    bytes.Count(source[:off], []byte("\n")) + 1,
			Message: "invalid UTF-8 sequence",
		}
	}
	source = bytes.ReplaceAll(source, []byte("\r\n"), []byte("\n"))

	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(p.language); err != nil {
		return nil, fmt.Errorf("failed to load python grammar: %w", err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("failed to parse python file: %s", path)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, syntaxError(path, root)
	}
	if perr := grammarError(path, root); perr != nil {
		return nil, perr
	}

	lines := splitLines(string(source))
	result := extraction.NewFileStructure(path)
	result.TotalLines = len(lines)

	if ds := docstringNode(root, source); ds != nil {
		doc := evaluateDocstring(ds, source)
		result.Docstring = &doc
	}

	for _, child := range namedChildren(root) {
		switch child.Kind() {
		case "class_definition":
			result.Classes = append(result.Classes, p.extractClass(child, []string{}, source, lines))
		case "function_definition":
			result.Functions = append(result.Functions, p.extractFunction(child, []string{}, source, lines))
		case "decorated_definition":
			def := child.ChildByFieldName("definition")
			decorators := extractDecorators(child, source)
			if def != nil && def.Kind() == "class_definition" {
				result.Classes = append(result.Classes, p.extractClass(def, decorators, source, lines))
			} else if def != nil {
				result.Functions = append(result.Functions, p.extractFunction(def, decorators, source, lines))
			}
		default:
			result.TopLevelStatements = appendStatement(result.TopLevelStatements, child, lines)
		}
	}

	return result, nil
}

// extractClass builds a ClassRecord. Only direct function children of the
// body become methods.
func (p *PythonParser) extractClass(node *sitter.Node, decorators []string, source []byte, lines []string) extraction.ClassRecord {
	start, end := startLine(node), endLine(node)
	record := extraction.ClassRecord{
		BaseExpressions: []string{},
		Decorators:      decorators,
		LineEnd:         end,
		LineStart:       start,
		Methods:         []extraction.FunctionRecord{},
		Name:            extractNodeText(node.ChildByFieldName("name"), source),
	}

	if supers := node.ChildByFieldName("superclasses"); supers != nil {
		for _, base := range namedChildren(supers) {
			record.BaseExpressions = append(record.BaseExpressions, extractNodeText(base, source))
		}
	}

	body := node.ChildByFieldName("body")
	ds := docstringNode(body, source)
	if ds != nil {
		doc := evaluateDocstring(ds, source)
		record.Docstring = &doc
	}

	for _, child := range namedChildren(body) {
		switch child.Kind() {
		case "function_definition":
			record.Methods = append(record.Methods, p.extractFunction(child, []string{}, source, lines))
		case "decorated_definition":
			def := child.ChildByFieldName("definition")
			if def != nil && def.Kind() == "function_definition" {
				record.Methods = append(record.Methods, p.extractFunction(def, extractDecorators(child, source), source, lines))
			}
		}
	}

	record.SourceCode = sourceWithoutDocstring(lines, start, end, ds)
	return record
}

// extractFunction builds a FunctionRecord. Nested definitions stay in the
// function's source text.
func (p *PythonParser) extractFunction(node *sitter.Node, decorators []string, source []byte, lines []string) extraction.FunctionRecord {
	start, end := startLine(node), endLine(node)
	record := extraction.FunctionRecord{
		Arguments:       []extraction.ArgumentRecord{},
		Decorators:      decorators,
		KwonlyArguments: []extraction.ArgumentRecord{},
		LineEnd:         end,
		LineStart:       start,
		Name:            extractNodeText(node.ChildByFieldName("name"), source),
	}

	if first := node.Child(0); first != nil && first.Kind() == "async" {
		record.IsAsync = true
	}

	if ret := node.ChildByFieldName("return_type"); ret != nil {
		annotation := extractNodeText(ret, source)
		record.ReturnAnnotation = &annotation
	}

	extractParameters(node.ChildByFieldName("parameters"), source, &record)

	body := node.ChildByFieldName("body")
	ds := docstringNode(body, source)
	if ds != nil {
		doc := evaluateDocstring(ds, source)
		record.Docstring = &doc
	}

	record.SourceCode = sourceWithoutDocstring(lines, start, end, ds)
	return record
}

// extractParameters sorts parameters into positional, *args, keyword-only and
// **kwargs slots in declaration order.
func extractParameters(params *sitter.Node, source []byte, record *extraction.FunctionRecord) {
	if params == nil {
		return
	}

	keywordOnly := false
	add := func(arg extraction.ArgumentRecord) {
		if keywordOnly {
			record.KwonlyArguments = append(record.KwonlyArguments, arg)
		} else {
			record.Arguments = append(record.Arguments, arg)
		}
	}

	for i := uint(0); i < params.ChildCount(); i++ {
		param := params.Child(i)
		switch param.Kind() {
		case "identifier":
			add(extraction.ArgumentRecord{Name: extractNodeText(param, source)})

		case "default_parameter", "typed_default_parameter":
			arg := extraction.ArgumentRecord{
				Name:           extractNodeText(param.ChildByFieldName("name"), source),
				TypeAnnotation: optionalText(param.ChildByFieldName("type"), source),
				DefaultValue:   optionalText(param.ChildByFieldName("value"), source),
			}
			add(arg)

		case "typed_parameter":
			target := param.NamedChild(0)
			annotation := optionalText(param.ChildByFieldName("type"), source)
			if target == nil {
				continue
			}
			switch target.Kind() {
			case "list_splat_pattern":
				record.Vararg = &extraction.ArgumentRecord{Name: splatName(target, source), TypeAnnotation: annotation}
				keywordOnly = true
			case "dictionary_splat_pattern":
				record.Kwarg = &extraction.ArgumentRecord{Name: splatName(target, source), TypeAnnotation: annotation}
			default:
				add(extraction.ArgumentRecord{Name: extractNodeText(target, source), TypeAnnotation: annotation})
			}

		case "list_splat_pattern":
			record.Vararg = &extraction.ArgumentRecord{Name: splatName(param, source)}
			keywordOnly = true

		case "dictionary_splat_pattern":
			record.Kwarg = &extraction.ArgumentRecord{Name: splatName(param, source)}

		case "keyword_separator", "*":
			keywordOnly = true

		case "tuple_pattern":
			add(extraction.ArgumentRecord{Name: extractNodeText(param, source)})
		}
	}
}

func splatName(node *sitter.Node, source []byte) string {
	if inner := node.NamedChild(0); inner != nil {
		return extractNodeText(inner, source)
	}
	return strings.TrimLeft(extractNodeText(node, source), "*")
}

func optionalText(node *sitter.Node, source []byte) *string {
	if node == nil {
		return nil
	}
	text := extractNodeText(node, source)
	return &text
}

// extractDecorators returns decorator expressions without the leading '@'.
func extractDecorators(node *sitter.Node, source []byte) []string {
	decorators := []string{}
	for _, child := range namedChildren(node) {
		if child.Kind() != "decorator" {
			continue
		}
		if expr := child.NamedChild(0); expr != nil {
			decorators = append(decorators, extractNodeText(expr, source))
		} else {
			decorators = append(decorators, strings.TrimSpace(strings.TrimPrefix(extractNodeText(child, source), "@")))
		}
	}
	return decorators
}

// appendStatement records a top-level statement. Statements sharing a line
// (semicolon separated) merge into one record so sibling spans stay disjoint.
func appendStatement(stmts []extraction.StatementRecord, node *sitter.Node, lines []string) []extraction.StatementRecord {
	start, end := startLine(node), endLine(node)
	if n := len(stmts); n > 0 && stmts[n-1].LineEnd >= start {
		prev := &stmts[n-1]
		if end > prev.LineEnd {
			prev.LineEnd = end
		}
		prev.SourceCode = extractLines(lines, prev.LineStart, prev.LineEnd)
		return stmts
	}

	return append(stmts, extraction.StatementRecord{
		LineEnd:       end,
		LineStart:     start,
		SourceCode:    extractLines(lines, start, end),
		StatementKind: statementKind(node),
	})
}

// statementKind maps a tree-sitter statement to its record kind.
func statementKind(node *sitter.Node) string {
	switch node.Kind() {
	case "import_statement", "import_from_statement", "future_import_statement":
		return "import"
	case "expression_statement":
		if expr := node.NamedChild(0); expr != nil {
			switch expr.Kind() {
			case "assignment", "augmented_assignment":
				return "assignment"
			}
		}
		return "expression"
	}
	return strings.TrimSuffix(node.Kind(), "_statement")
}

// sourceWithoutDocstring returns the span text with the docstring statement removed.
// A docstring on the header line is cut by column, keeping the header.
func sourceWithoutDocstring(lines []string, start, end int, ds *sitter.Node) string {
	if ds == nil {
		return extractLines(lines, start, end)
	}

	dsStart, dsEnd := startLine(ds), endLine(ds)
	if dsEnd > len(lines) {
		dsEnd = len(lines)
	}

	var kept []string
	if dsStart > start {
		kept = append(kept, lines[start-1:dsStart-1]...)
	} else {
		header := lines[dsStart-1]
		col := int(ds.StartPosition().Column)
		if col > len(header) {
			col = len(header)
		}
		line := strings.TrimRight(header[:col], " \t")

		tail := lines[dsEnd-1]
		endCol := int(ds.EndPosition().Column)
		if endCol < len(tail) {
			if rest := strings.TrimLeft(tail[endCol:], " \t;"); rest != "" {
				line += " " + rest
			}
		}
		kept = append(kept, line)
	}

	if dsEnd < end {
		last := end
		if last > len(lines) {
			last = len(lines)
		}
		kept = append(kept, lines[dsEnd:last]...)
	}
	return strings.Join(kept, "\n")
}

// syntaxError describes the first ERROR or MISSING node of a tree.
func syntaxError(path string, root *sitter.Node) *ParseError {
	node := firstSyntaxError(root)
	if node == nil {
		return &ParseError{Path: path, Line: 1, Message: "invalid syntax"}
	}
	msg := "invalid syntax"
	if node.IsMissing() {
		msg = fmt.Sprintf("missing %q", node.Kind())
	}
	return &ParseError{Path: path, Line: startLine(node), Message: msg}
}

// grammarError reports constructs the tree-sitter grammar accepts but the
// Python 3 compiler rejects: Python 2 print/exec statements and parameters
// without a default following ones with a default.
func grammarError(path string, root *sitter.Node) *ParseError {
	var perr *ParseError
	walkTree(root, func(n *sitter.Node) bool {
		if perr != nil {
			return false
		}
		switch n.Kind() {
		case "print_statement", "exec_statement":
			name := strings.TrimSuffix(n.Kind(), "_statement")
			perr = &ParseError{Path: path, Line: startLine(n), Message: fmt.Sprintf("Missing parentheses in call to '%s'", name)}
			return false
		case "parameters", "lambda_parameters":
			if bad := nonDefaultAfterDefault(n); bad != nil {
				perr = &ParseError{Path: path, Line: startLine(bad), Message: "parameter without a default follows parameter with a default"}
				return false
			}
		}
		return true
	})
	return perr
}

// nonDefaultAfterDefault returns the first positional parameter without a
// default that follows one with a default, or nil.
func nonDefaultAfterDefault(params *sitter.Node) *sitter.Node {
	seenDefault := false
	for i := uint(0); i < params.ChildCount(); i++ {
		param := params.Child(i)
		switch param.Kind() {
		case "default_parameter", "typed_default_parameter":
			seenDefault = true
		case "identifier", "tuple_pattern":
			if seenDefault {
				return param
			}
		case "typed_parameter":
			target := param.NamedChild(0)
			if target != nil && (target.Kind() == "list_splat_pattern" || target.Kind() == "dictionary_splat_pattern") {
				return nil
			}
			if seenDefault {
				return param
			}
		case "list_splat_pattern", "dictionary_splat_pattern", "keyword_separator", "*":
			// Keyword-only parameters may omit defaults in any order.
			return nil
		}
	}
	return nil
}

// invalidUTF8Offset returns the byte offset of the first invalid UTF-8 sequence, or -1.
func invalidUTF8Offset(b []byte) int {
	if utf8.Valid(b) {
		return -1
	}
	for off := 0; off < len(b); {
		r, size := utf8.DecodeRune(b[off:])
		if r == utf8.RuneError && size == 1 {
			return off
		}
		off += size
	}
	return -1
}
