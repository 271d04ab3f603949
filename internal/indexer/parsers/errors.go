package parsers

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the file to parse does not exist.
var ErrNotFound = errors.New("source file not found")

// ParseError reports a file that is not valid Python.
type ParseError struct {
	Path    string
	Line    int // 1-based
	Message string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
}
