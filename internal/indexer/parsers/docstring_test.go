package parsers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnescape(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{`plain`, "plain"},
		{`a\nb`, "a\nb"},
		{`\x41\u00e9\U0001F600`, "Aé😀"},
		{`\101`, "A"},
		{`back\\slash`, `back\slash`},
		{`\q unknown`, `\q unknown`},
		{"line\\\ncontinued", "linecontinued"},
		{`\N{DASH}`, `\N{DASH}`},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, unescape(tt.in), "input %q", tt.in)
	}
}

func TestCleandoc(t *testing.T) {
	t.Parallel()

	// Test: common margin removed, first line stripped, blank ends dropped
	assert.Equal(t, "Summary.\n\nDetails\n  indented", cleandoc("  Summary.\n\n    Details\n      indented\n    "))
	assert.Equal(t, "One line", cleandoc("One line"))
	assert.Equal(t, "Lead", cleandoc("\n\n    Lead\n"))
	// Test: tabs expand to 8 columns before the margin is measured
	assert.Equal(t, "x\ny", cleandoc("x\n\ty"))
}
