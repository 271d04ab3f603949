package query

import (
	"fmt"
	"strings"
)

// Item kinds accepted by Docstring.
const (
	KindClass    = "class"
	KindFunction = "function"
	KindMethod   = "method"
)

// Docstring returns the docstring of a class, module-level function or
// method; methods are named "Class.method". Absent items and items without a
// docstring yield nil.
func (e *Engine) Docstring(path, name, kind string) (*string, error) {
	switch kind {
	case KindClass:
		c, err := e.ClassDefinition(path, name)
		if err != nil || c == nil {
			return nil, err
		}
		return c.Docstring, nil

	case KindFunction:
		fn, err := e.FunctionDefinition(path, name)
		if err != nil || fn == nil {
			return nil, err
		}
		return fn.Docstring, nil

	case KindMethod:
		class, method, ok := strings.Cut(name, ".")
		if !ok {
			return nil, fmt.Errorf("%w: method %q must be written as Class.method", ErrInvalidName, name)
		}
		fn, err := e.MethodDefinition(path, class, method)
		if err != nil || fn == nil {
			return nil, err
		}
		return fn.Docstring, nil

	default:
		return nil, fmt.Errorf("%w: %q (want one of: class, function, method)", ErrUnknownKind, kind)
	}
}
