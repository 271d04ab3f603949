package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/pyscope/internal/indexer"
	"github.com/mvp-joe/pyscope/internal/query"
)

const ordersSource = `class Order:
    """A customer order."""

    def cancel(self, reason: str = "user"):
        """Cancel the order."""
        self.state = "cancelled"


def place(order, *items, notify=True):
    return order
`

type toolHandler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

// newIndexedEngine indexes a two-file project and returns an engine over it and the root.
func newIndexedEngine(t *testing.T) (*query.Engine, string) {
	t.Helper()
	root := t.TempDir()
	writeSource(t, root, "shop/orders.py", ordersSource)
	writeSource(t, root, "app.py", "from shop.orders import place\n\nplace(None)\n")

	cfg := indexer.DefaultConfig(root)
	cfg.Workers = 1
	idx, err := indexer.New(cfg)
	require.NoError(t, err)
	_, err = idx.Index(context.Background())
	require.NoError(t, err)

	engine, err := query.NewEngine(idx.Config().IndexDir, nil)
	require.NoError(t, err)
	t.Cleanup(func() { engine.Close() })
	return engine, root
}

func writeSource(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// callTool invokes handler and returns the result with its text content.
func callTool(t *testing.T, handler toolHandler, args interface{}) (*mcp.CallToolResult, string) {
	t.Helper()
	request := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}

	result, err := handler(context.Background(), request)
	require.NoError(t, err, "should not return system error")
	require.NotNil(t, result, "should return result")
	require.NotEmpty(t, result.Content)

	textContent, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok, "should be text content")
	return result, textContent.Text
}

// decodeTool calls handler, requires success and decodes the JSON response into v.
func decodeTool(t *testing.T, handler toolHandler, args map[string]interface{}, v interface{}) {
	t.Helper()
	result, text := callTool(t, handler, args)
	require.False(t, result.IsError, "unexpected tool error: %s", text)
	require.NoError(t, json.Unmarshal([]byte(text), v))
}
