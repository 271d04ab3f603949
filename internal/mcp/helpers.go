package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mvp-joe/pyscope/internal/indexer/parsers"
	"github.com/mvp-joe/pyscope/internal/query"
	"github.com/mvp-joe/pyscope/internal/storage"
)

// parseToolArguments validates and extracts the arguments map from an MCP tool request.
// Returns the arguments map or an error result if validation fails.
func parseToolArguments(request mcp.CallToolRequest) (map[string]interface{}, *mcp.CallToolResult) {
	argsMap, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, mcp.NewToolResultError("invalid arguments format")
	}
	return argsMap, nil
}

// requiredString extracts a non-empty string argument.
func requiredString(args map[string]interface{}, name string) (string, *mcp.CallToolResult) {
	value, ok := args[name].(string)
	if !ok || value == "" {
		return "", mcp.NewToolResultError(fmt.Sprintf("%s parameter is required", name))
	}
	return value, nil
}

// optionalString extracts a string argument, returning def when absent.
func optionalString(args map[string]interface{}, name, def string) string {
	if value, ok := args[name].(string); ok && value != "" {
		return value
	}
	return def
}

// optionalBool extracts a boolean argument, returning false when absent.
func optionalBool(args map[string]interface{}, name string) bool {
	value, _ := args[name].(bool)
	return value
}

// marshalToolResponse marshals a response object to JSON and returns it as an MCP tool result.
func marshalToolResponse(response interface{}) (*mcp.CallToolResult, error) {
	jsonData, err := json.Marshal(response)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return mcp.NewToolResultText(string(jsonData)), nil
}

// queryErrorResult turns errors the caller can correct into tool error
// results. Anything else is returned as a system error.
func queryErrorResult(err error) (*mcp.CallToolResult, error) {
	var parseErr *parsers.ParseError
	switch {
	case errors.Is(err, query.ErrNotIndexed),
		errors.Is(err, query.ErrUnknownKind),
		errors.Is(err, query.ErrInvalidName),
		errors.Is(err, query.ErrSymbolNotFound),
		errors.Is(err, storage.ErrNoCatalog),
		errors.As(err, &parseErr):
		return mcp.NewToolResultError(err.Error()), nil
	}
	return nil, err
}
