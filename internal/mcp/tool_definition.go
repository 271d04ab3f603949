package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/pyscope/internal/query"
)

// AddPyscopeDefinitionTool registers the pyscope_definition tool with an MCP server.
func AddPyscopeDefinitionTool(s *server.MCPServer, engine *query.Engine) {
	tool := mcp.NewTool(
		"pyscope_definition",
		mcp.WithDescription("Look up a class, module-level function or method in one indexed file. Returns the structural record (line span, decorators, bases, arguments, docstring) or just its source."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Root-relative path using '/'")),
		mcp.WithString("kind",
			mcp.Required(),
			mcp.Description("One of 'class', 'function', 'method'")),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Item name; methods are written Class.method")),
		mcp.WithBoolean("source_only",
			mcp.Description("Return only the verbatim source (docstring excluded)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createDefinitionHandler(engine))
}

func createDefinitionHandler(engine *query.Engine) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, errResult := parseToolArguments(request)
		if errResult != nil {
			return errResult, nil
		}
		path, errResult := requiredString(args, "path")
		if errResult != nil {
			return errResult, nil
		}
		kind, errResult := requiredString(args, "kind")
		if errResult != nil {
			return errResult, nil
		}
		name, errResult := requiredString(args, "name")
		if errResult != nil {
			return errResult, nil
		}
		sourceOnly := optionalBool(args, "source_only")

		response := &DefinitionResponse{Path: path, Kind: kind, Name: name}

		switch kind {
		case query.KindClass:
			if sourceOnly {
				return sourceResponse(response, engine.ClassSource(path, name))
			}
			record, err := engine.ClassDefinition(path, name)
			if err != nil {
				return queryErrorResult(err)
			}
			if record != nil {
				response.Found = true
				response.Record = record
			}

		case query.KindFunction:
			if sourceOnly {
				return sourceResponse(response, engine.FunctionSource(path, name))
			}
			record, err := engine.FunctionDefinition(path, name)
			if err != nil {
				return queryErrorResult(err)
			}
			if record != nil {
				response.Found = true
				response.Record = record
			}

		case query.KindMethod:
			class, method, ok := strings.Cut(name, ".")
			if !ok {
				return mcp.NewToolResultError(fmt.Sprintf("method name %q must be written as Class.method", name)), nil
			}
			if sourceOnly {
				return sourceResponse(response, engine.MethodSource(path, class, method))
			}
			record, err := engine.MethodDefinition(path, class, method)
			if err != nil {
				return queryErrorResult(err)
			}
			if record != nil {
				response.Found = true
				response.Record = record
			}

		default:
			return mcp.NewToolResultError(fmt.Sprintf("unknown kind %q (want class, function or method)", kind)), nil
		}

		return marshalToolResponse(response)
	}
}

// sourceResponse fills response from a SourceResult. A missing item is a
// normal response with found=false.
func sourceResponse(response *DefinitionResponse, result query.SourceResult) (*mcp.CallToolResult, error) {
	if !result.OK() {
		if errors.Is(result.Err, query.ErrSymbolNotFound) {
			return marshalToolResponse(response)
		}
		return queryErrorResult(result.Err)
	}
	response.Found = true
	response.Source = result.Source
	return marshalToolResponse(response)
}
