package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/mvp-joe/pyscope/internal/query"
)

// AddPyscopeFilesTool registers the pyscope_files tool with an MCP server.
func AddPyscopeFilesTool(s *server.MCPServer, engine *query.Engine) {
	tool := mcp.NewTool(
		"pyscope_files",
		mcp.WithDescription(`List indexed Python files or inspect one of them.

Operations:
- list: every indexed path, sorted
- summary: class and function names of one file
- all: the full parsed structure of one file (classes, methods, functions, top-level statements)`),
		mcp.WithString("operation",
			mcp.Description("One of 'list' (default), 'summary', 'all'")),
		mcp.WithString("path",
			mcp.Description("Root-relative path using '/', required for 'summary' and 'all'")),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
	)

	s.AddTool(tool, createFilesHandler(engine))
}

func createFilesHandler(engine *query.Engine) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, errResult := parseToolArguments(request)
		if errResult != nil {
			return errResult, nil
		}

		operation := optionalString(args, "operation", "list")
		if operation == "list" {
			files := engine.ListFiles()
			return marshalToolResponse(&FilesResponse{Files: files, Total: len(files)})
		}

		path, errResult := requiredString(args, "path")
		if errResult != nil {
			return errResult, nil
		}

		switch operation {
		case "summary":
			summary, err := engine.FileSummary(path)
			if err != nil {
				return queryErrorResult(err)
			}
			response := &SummaryResponse{Path: path, Classes: []string{}, Functions: []string{}}
			if summary != nil {
				response.Classes = summary.Classes
				response.Functions = summary.Functions
			}
			return marshalToolResponse(response)

		case "all":
			structure, err := engine.FileAll(path)
			if err != nil {
				return queryErrorResult(err)
			}
			return marshalToolResponse(&FileResponse{Path: path, Structure: structure})

		default:
			return mcp.NewToolResultError(fmt.Sprintf("unknown operation %q (want list, summary or all)", operation)), nil
		}
	}
}
