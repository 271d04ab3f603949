package parsers

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	sitter "github.com/tree-sitter/go-tree-sitter"
)

// docstringNode returns the expression statement holding the docstring of a
// module or block, or nil. Only plain string literals qualify: f-strings and
// bytes literals are ordinary expressions.
func docstringNode(body *sitter.Node, source []byte) *sitter.Node {
	stmts := namedChildren(body)
	if len(stmts) == 0 {
		return nil
	}
	first := stmts[0]
	if first.Kind() != "expression_statement" {
		return nil
	}
	exprs := namedChildren(first)
	if len(exprs) != 1 {
		return nil
	}
	if _, ok := stringParts(exprs[0], source); !ok {
		return nil
	}
	return first
}

// stringParts returns the string nodes making up a plain string literal,
// following implicit concatenation.
func stringParts(expr *sitter.Node, source []byte) ([]*sitter.Node, bool) {
	var parts []*sitter.Node
	switch expr.Kind() {
	case "string":
		parts = []*sitter.Node{expr}
	case "concatenated_string":
		parts = namedChildren(expr)
	case "parenthesized_expression":
		inner := namedChildren(expr)
		if len(inner) != 1 {
			return nil, false
		}
		return stringParts(inner[0], source)
	default:
		return nil, false
	}
	for _, part := range parts {
		if part.Kind() != "string" {
			return nil, false
		}
		if findChildByType(part, "interpolation") != nil {
			return nil, false
		}
		prefix := stringPrefix(part, source)
		if strings.ContainsAny(prefix, "fFbBtT") {
			return nil, false
		}
	}
	return parts, len(parts) > 0
}

// stringPrefix returns the literal prefix letters, e.g. "r" for r"""...""".
func stringPrefix(str *sitter.Node, source []byte) string {
	start := findChildByType(str, "string_start")
	if start == nil {
		return ""
	}
	return strings.TrimRight(extractNodeText(start, source), `"'`)
}

// evaluateDocstring returns the cleaned value of the docstring statement.
func evaluateDocstring(stmt *sitter.Node, source []byte) string {
	expr := namedChildren(stmt)[0]
	parts, _ := stringParts(expr, source)

	var b strings.Builder
	for _, part := range parts {
		start := findChildByType(part, "string_start")
		end := findChildByType(part, "string_end")
		if start == nil || end == nil {
			continue
		}
		raw := string(source[start.EndByte():end.StartByte()])
		if strings.ContainsAny(stringPrefix(part, source), "rR") {
			b.WriteString(raw)
		} else {
			b.WriteString(unescape(raw))
		}
	}
	return cleandoc(b.String())
}

// unescape decodes backslash escapes of a non-raw string literal body.
// Unknown escapes are kept verbatim, as are named \N{...} escapes.
func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}

	var b strings.Builder
	for i := 0; i < len(s); {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			i++
			continue
		}

		next := s[i+1]
		switch next {
		case '\n':
			i += 2
		case '\\', '\'', '"':
			b.WriteByte(next)
			i += 2
		case 'a':
			b.WriteByte('\a')
			i += 2
		case 'b':
			b.WriteByte('\b')
			i += 2
		case 'f':
			b.WriteByte('\f')
			i += 2
		case 'n':
			b.WriteByte('\n')
			i += 2
		case 'r':
			b.WriteByte('\r')
			i += 2
		case 't':
			b.WriteByte('\t')
			i += 2
		case 'v':
			b.WriteByte('\v')
			i += 2
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i + 1
			for j < len(s) && j < i+4 && s[j] >= '0' && s[j] <= '7' {
				j++
			}
			v, _ := strconv.ParseUint(s[i+1:j], 8, 32)
			b.WriteRune(rune(v))
			i = j
		case 'x', 'u', 'U':
			width := map[byte]int{'x': 2, 'u': 4, 'U': 8}[next]
			hex := ""
			if i+2+width <= len(s) {
				hex = s[i+2 : i+2+width]
			}
			v, err := strconv.ParseUint(hex, 16, 32)
			if hex == "" || err != nil || !utf8.ValidRune(rune(v)) {
				b.WriteString(s[i : i+2])
				i += 2
				continue
			}
			b.WriteRune(rune(v))
			i += 2 + width
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// cleandoc normalises docstring indentation: tabs are expanded, the first
// line is left-stripped, the common margin of the remaining lines is removed
// and blank lines at both ends are dropped.
func cleandoc(doc string) string {
	lines := strings.Split(expandTabs(doc, 8), "\n")

	margin := -1
	for _, line := range lines[1:] {
		content := len(strings.TrimLeftFunc(line, unicode.IsSpace))
		if content == 0 {
			continue
		}
		indent := len(line) - content
		if margin < 0 || indent < margin {
			margin = indent
		}
	}

	lines[0] = strings.TrimLeftFunc(lines[0], unicode.IsSpace)
	if margin >= 0 {
		for i := 1; i < len(lines); i++ {
			if len(lines[i]) >= margin {
				lines[i] = lines[i][margin:]
			} else {
				lines[i] = strings.TrimLeftFunc(lines[i], unicode.IsSpace)
			}
		}
	}

	for len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	for len(lines) > 0 && lines[0] == "" {
		lines = lines[1:]
	}
	return strings.Join(lines, "\n")
}

// expandTabs replaces tabs with spaces up to the next multiple of size.
func expandTabs(s string, size int) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	var b strings.Builder
	col := 0
	for _, r := range s {
		switch r {
		case '\t':
			n := size - col%size
			b.WriteString(strings.Repeat(" ", n))
			col += n
		case '\n', '\r':
			b.WriteRune(r)
			col = 0
		default:
			b.WriteRune(r)
			col++
		}
	}
	return b.String()
}
