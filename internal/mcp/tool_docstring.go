package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/pyscope/internal/indexer/extraction"
	"github.com/mvp-joe/pyscope/internal/query"
)

// AddPyscopeDocstringTool registers the pyscope_docstring tool with an MCP server.
func AddPyscopeDocstringTool(s *server.MCPServer, engine *query.Engine) {
	tool := mcp.NewTool(
		"pyscope_docstring",
		mcp.WithDescription("Return the cleaned docstring of a class, module-level function or method. The kind disambiguates a class and a function sharing a name. docstring is null when the item is absent or undocumented."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Root-relative path using '/'")),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Item name; methods are written Class.method")),
		mcp.WithString("kind",
			mcp.Required(),
			mcp.Description("One of 'class', 'function', 'method'")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createDocstringHandler(engine))
}

func createDocstringHandler(engine *query.Engine) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, errResult := parseToolArguments(request)
		if errResult != nil {
			return errResult, nil
		}
		path, errResult := requiredString(args, "path")
		if errResult != nil {
			return errResult, nil
		}
		name, errResult := requiredString(args, "name")
		if errResult != nil {
			return errResult, nil
		}
		kind, errResult := requiredString(args, "kind")
		if errResult != nil {
			return errResult, nil
		}

		docstring, err := engine.Docstring(path, name, kind)
		if err != nil {
			return queryErrorResult(err)
		}

		return marshalToolResponse(&DocstringResponse{
			Path:      path,
			Kind:      kind,
			Name:      name,
			Docstring: docstring,
		})
	}
}

// AddPyscopeArgumentsTool registers the pyscope_arguments tool with an MCP server.
func AddPyscopeArgumentsTool(s *server.MCPServer, engine *query.Engine) {
	tool := mcp.NewTool(
		"pyscope_arguments",
		mcp.WithDescription("List the parameters of a module-level function in declaration order: positional, *args, keyword-only, **kwargs. Type annotations and defaults are returned as source text."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Root-relative path using '/'")),
		mcp.WithString("function",
			mcp.Required(),
			mcp.Description("Module-level function name")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createArgumentsHandler(engine))
}

func createArgumentsHandler(engine *query.Engine) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, errResult := parseToolArguments(request)
		if errResult != nil {
			return errResult, nil
		}
		path, errResult := requiredString(args, "path")
		if errResult != nil {
			return errResult, nil
		}
		function, errResult := requiredString(args, "function")
		if errResult != nil {
			return errResult, nil
		}

		arguments, err := engine.FunctionArguments(path, function)
		if err != nil {
			return queryErrorResult(err)
		}

		response := &ArgumentsResponse{
			Path:      path,
			Function:  function,
			Found:     arguments != nil,
			Arguments: arguments,
		}
		if arguments == nil {
			response.Arguments = []extraction.ArgumentRecord{}
		}
		return marshalToolResponse(response)
	}
}
