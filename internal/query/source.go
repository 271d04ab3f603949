package query

import (
	"errors"
	"fmt"
)

// ErrSymbolNotFound is the failure reason of a SourceResult whose class or function is absent.
var ErrSymbolNotFound = errors.New("not found")

// SourceResult carries either the verbatim source of a record or the reason it is unavailable.
type SourceResult struct {
	Source string
	Err    error
}

// OK reports whether the result holds source.
func (r SourceResult) OK() bool {
	return r.Err == nil
}

// String returns the source, or the failure message.
func (r SourceResult) String() string {
	if r.Err != nil {
		return r.Err.Error()
	}
	return r.Source
}

// ClassSource returns the source of the first class named class.
func (e *Engine) ClassSource(path, class string) SourceResult {
	c, err := e.ClassDefinition(path, class)
	if err != nil {
		return SourceResult{Err: err}
	}
	if c == nil {
		return SourceResult{Err: fmt.Errorf("class %q %w in %s", class, ErrSymbolNotFound, path)}
	}
	return SourceResult{Source: c.SourceCode}
}

// FunctionSource returns the source of the first module-level function named function.
func (e *Engine) FunctionSource(path, function string) SourceResult {
	fn, err := e.FunctionDefinition(path, function)
	if err != nil {
		return SourceResult{Err: err}
	}
	if fn == nil {
		return SourceResult{Err: fmt.Errorf("function %q %w in %s", function, ErrSymbolNotFound, path)}
	}
	return SourceResult{Source: fn.SourceCode}
}

// MethodSource returns the source of method in class.
func (e *Engine) MethodSource(path, class, method string) SourceResult {
	fn, err := e.MethodDefinition(path, class, method)
	if err != nil {
		return SourceResult{Err: err}
	}
	if fn == nil {
		return SourceResult{Err: fmt.Errorf("method %q %w in %s", class+"."+method, ErrSymbolNotFound, path)}
	}
	return SourceResult{Source: fn.SourceCode}
}
