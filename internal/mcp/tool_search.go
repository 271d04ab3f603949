package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/pyscope/internal/query"
)

// Search modes accepted by pyscope_search.
const (
	searchModeName    = "name"
	searchModeText    = "text"
	searchModeKeyword = "keyword"
)

// AddPyscopeSearchTool registers the pyscope_search tool with an MCP server.
func AddPyscopeSearchTool(s *server.MCPServer, engine *query.Engine) {
	tool := mcp.NewTool(
		"pyscope_search",
		mcp.WithDescription(`Search the index.

Modes:
- name: glob over indexed paths ('*' crosses directories), e.g. "services/*_test.py"
- text: regular expression over recorded source of classes, methods, functions and top-level statements; an invalid expression is matched literally
- keyword: ranked full-text search over names, docstrings and source with field scoping (name:, kind:, file_path:, docstring:, text:), boolean operators, phrases and wildcards`),
		mcp.WithString("pattern",
			mcp.Required(),
			mcp.Description("Glob, regular expression or keyword query depending on mode")),
		mcp.WithString("mode",
			mcp.Description("One of 'name', 'text' (default), 'keyword'")),
		mcp.WithNumber("limit",
			mcp.Description("Maximum keyword hits (1-100, default: 15)")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createSearchHandler(engine))
}

func createSearchHandler(engine *query.Engine) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, errResult := parseToolArguments(request)
		if errResult != nil {
			return errResult, nil
		}
		pattern, errResult := requiredString(args, "pattern")
		if errResult != nil {
			return errResult, nil
		}
		mode := optionalString(args, "mode", searchModeText)

		limit := 15
		if l, ok := args["limit"].(float64); ok {
			limit = int(l)
		}

		response := &SearchResponse{Mode: mode, Pattern: pattern}

		switch mode {
		case searchModeName:
			paths, err := engine.SearchByName(pattern)
			if err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			response.Paths = paths
			response.Total = len(paths)

		case searchModeText:
			paths, err := engine.SearchByText(pattern)
			if err != nil {
				return queryErrorResult(err)
			}
			response.Paths = paths
			response.Total = len(paths)

		case searchModeKeyword:
			hits, err := engine.SearchKeyword(ctx, pattern, limit)
			if err != nil {
				return nil, fmt.Errorf("search failed: %w", err)
			}
			response.Hits = hits
			response.Total = len(hits)

		default:
			return mcp.NewToolResultError(fmt.Sprintf("unknown mode %q (want name, text or keyword)", mode)), nil
		}

		return marshalToolResponse(response)
	}
}
