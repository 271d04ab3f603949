package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/pyscope/internal/query"
)

// AddPyscopeSymbolsTool registers the pyscope_symbols tool with an MCP server.
func AddPyscopeSymbolsTool(s *server.MCPServer, engine *query.Engine) {
	tool := mcp.NewTool(
		"pyscope_symbols",
		mcp.WithDescription("Find classes, functions and methods by name across every indexed file. Names may be GLOB patterns (User*, *_handler); a dotted name such as Cart.add matches methods."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Symbol name or GLOB pattern")),
		mcp.WithString("kind",
			mcp.Description("Restrict to 'class', 'function' or 'method'")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createSymbolsHandler(engine))
}

func createSymbolsHandler(engine *query.Engine) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, errResult := parseToolArguments(request)
		if errResult != nil {
			return errResult, nil
		}
		name, errResult := requiredString(args, "name")
		if errResult != nil {
			return errResult, nil
		}
		kind := optionalString(args, "kind", "")

		symbols, err := engine.FindSymbols(name, kind)
		if err != nil {
			return queryErrorResult(err)
		}

		return marshalToolResponse(&SymbolsResponse{Symbols: symbols, Total: len(symbols)})
	}
}

// AddPyscopeRefreshTool registers the pyscope_refresh tool with an MCP server.
func AddPyscopeRefreshTool(s *server.MCPServer, engine *query.Engine) {
	tool := mcp.NewTool(
		"pyscope_refresh",
		mcp.WithDescription("Check whether an indexed file changed on disk since indexing and optionally re-parse it. Re-parsed structures are served from memory; the index on disk is not rewritten."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Root-relative path using '/'")),
		mcp.WithBoolean("reparse",
			mcp.Description("Re-parse the file when it is stale")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createRefreshHandler(engine))
}

func createRefreshHandler(engine *query.Engine) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, errResult := parseToolArguments(request)
		if errResult != nil {
			return errResult, nil
		}
		path, errResult := requiredString(args, "path")
		if errResult != nil {
			return errResult, nil
		}

		stale, err := engine.IsStale(path)
		if err != nil {
			return queryErrorResult(err)
		}
		response := &RefreshResponse{Path: path, Stale: stale}

		if stale && optionalBool(args, "reparse") {
			structure, err := engine.Refresh(path)
			if err != nil {
				return queryErrorResult(err)
			}
			response.Refreshed = true
			for _, c := range structure.Classes {
				response.Classes = append(response.Classes, c.Name)
			}
			for _, fn := range structure.Functions {
				response.Functions = append(response.Functions, fn.Name)
			}
		}

		return marshalToolResponse(response)
	}
}
