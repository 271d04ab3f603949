package extraction

// Language is the only language the structural parser understands.
const Language = "python"

// Struct fields are declared in JSON key order so encoded artifacts are key-sorted.

// FileStructure is the structural record of one Python source file.
type FileStructure struct {
	Classes            []ClassRecord     `json:"classes"`
	Docstring          *string           `json:"docstring"`
	FilePath           string            `json:"file_path"`
	Functions          []FunctionRecord  `json:"functions"`
	Language           string            `json:"language"`
	TopLevelStatements []StatementRecord `json:"top_level_statements"`
	TotalLines         int               `json:"total_lines"`
}

// ClassRecord describes a class defined at module level.
type ClassRecord struct {
	BaseExpressions []string         `json:"base_expressions"`
	Decorators      []string         `json:"decorators"`
	Docstring       *string          `json:"docstring"`
	LineEnd         int              `json:"line_end"`
	LineStart       int              `json:"line_start"`
	Methods         []FunctionRecord `json:"methods"`
	Name            string           `json:"name"`
	SourceCode      string           `json:"source_code"` // span text minus the docstring
}

// FunctionRecord describes a module-level function or a method.
type FunctionRecord struct {
	Arguments        []ArgumentRecord `json:"arguments"`
	Decorators       []string         `json:"decorators"`
	Docstring        *string          `json:"docstring"`
	IsAsync          bool             `json:"is_async"`
	Kwarg            *ArgumentRecord  `json:"kwarg"`
	KwonlyArguments  []ArgumentRecord `json:"kwonly_arguments"`
	LineEnd          int              `json:"line_end"`
	LineStart        int              `json:"line_start"`
	Name             string           `json:"name"`
	ReturnAnnotation *string          `json:"return_annotation"`
	SourceCode       string           `json:"source_code"`
	Vararg           *ArgumentRecord  `json:"vararg"`
}

// ArgumentRecord describes one parameter. Annotation and default are source text.
type ArgumentRecord struct {
	DefaultValue   *string `json:"default_value"`
	Name           string  `json:"name"`
	TypeAnnotation *string `json:"type_annotation"`
}

// StatementRecord describes a module-level statement that is neither a class nor a function.
type StatementRecord struct {
	LineEnd       int    `json:"line_end"`
	LineStart     int    `json:"line_start"`
	SourceCode    string `json:"source_code"`
	StatementKind string `json:"statement_kind"`
}

// NewFileStructure returns an empty structure for filePath with all lists allocated.
func NewFileStructure(filePath string) *FileStructure {
	return &FileStructure{
		Classes:            []ClassRecord{},
		FilePath:           filePath,
		Functions:          []FunctionRecord{},
		Language:           Language,
		TopLevelStatements: []StatementRecord{},
	}
}

// Normalize replaces nil lists with empty ones, recursively.
// Decoded artifacts written by older runs may omit lists.
func (fs *FileStructure) Normalize() {
	if fs.Classes == nil {
		fs.Classes = []ClassRecord{}
	}
	if fs.Functions == nil {
		fs.Functions = []FunctionRecord{}
	}
	if fs.TopLevelStatements == nil {
		fs.TopLevelStatements = []StatementRecord{}
	}
	if fs.Language == "" {
		fs.Language = Language
	}
	for i := range fs.Classes {
		c := &fs.Classes[i]
		if c.BaseExpressions == nil {
			c.BaseExpressions = []string{}
		}
		if c.Decorators == nil {
			c.Decorators = []string{}
		}
		if c.Methods == nil {
			c.Methods = []FunctionRecord{}
		}
		for j := range c.Methods {
			c.Methods[j].normalize()
		}
	}
	for i := range fs.Functions {
		fs.Functions[i].normalize()
	}
}

func (fn *FunctionRecord) normalize() {
	if fn.Arguments == nil {
		fn.Arguments = []ArgumentRecord{}
	}
	if fn.Decorators == nil {
		fn.Decorators = []string{}
	}
	if fn.KwonlyArguments == nil {
		fn.KwonlyArguments = []ArgumentRecord{}
	}
}

// Class returns the first class named name, or nil.
func (fs *FileStructure) Class(name string) *ClassRecord {
	for i := range fs.Classes {
		if fs.Classes[i].Name == name {
			return &fs.Classes[i]
		}
	}
	return nil
}

// Function returns the first module-level function named name, or nil.
func (fs *FileStructure) Function(name string) *FunctionRecord {
	for i := range fs.Functions {
		if fs.Functions[i].Name == name {
			return &fs.Functions[i]
		}
	}
	return nil
}

// Method returns the first method named name, or nil.
func (c *ClassRecord) Method(name string) *FunctionRecord {
	for i := range c.Methods {
		if c.Methods[i].Name == name {
			return &c.Methods[i]
		}
	}
	return nil
}

// AllArguments returns positional, vararg, keyword-only and kwarg parameters in declaration order.
func (fn *FunctionRecord) AllArguments() []ArgumentRecord {
	out := make([]ArgumentRecord, 0, len(fn.Arguments)+len(fn.KwonlyArguments)+2)
	out = append(out, fn.Arguments...)
	if fn.Vararg != nil {
		out = append(out, *fn.Vararg)
	}
	out = append(out, fn.KwonlyArguments...)
	if fn.Kwarg != nil {
		out = append(out, *fn.Kwarg)
	}
	return out
}
