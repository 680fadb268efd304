package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halu886/warehouse"
	"github.com/halu886/warehouse/pkg/domain"
	"github.com/halu886/warehouse/pkg/schema"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	books := schema.MustNew(schema.Declaration{
		"title": schema.Field{Type: schema.String, Options: schema.Options{Required: true}},
		"pages": schema.Number,
		"tags":  []any{schema.String},
	})
	c, err := warehouse.New("books", books)
	require.NoError(t, err)

	reg := warehouse.NewRegistry()
	require.NoError(t, reg.Register(c))
	return NewServer(reg)
}

// call invokes the registered handler of the named tool.
func call(t *testing.T, s *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	var tool *server.ServerTool
	for _, candidate := range s.tools() {
		if candidate.Tool.Name == name {
			tool = &candidate
			break
		}
	}
	require.NotNil(t, tool, "tool %q is not registered", name)

	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	res, err := tool.Handler(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])
	return text.Text
}

func decodeResult[T any](t *testing.T, res *mcp.CallToolResult) T {
	t.Helper()
	require.False(t, res.IsError, resultText(t, res))
	var out T
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &out))
	return out
}

func TestServer_Tools(t *testing.T) {
	s := newTestServer(t)

	var names []string
	for _, tool := range s.tools() {
		names = append(names, tool.Tool.Name)
		require.NotNil(t, tool.Handler, tool.Tool.Name)
	}
	assert.Equal(t, []string{
		"list_collections", "find_documents", "get_document",
		"insert_document", "update_document", "remove_document",
	}, names)
	assert.NotNil(t, s.MCPServer())

	assert.Equal(t, []string{"books"}, decodeResult[[]string](t, call(t, s, "list_collections", nil)))
}

func TestServer_DocumentLifecycle(t *testing.T) {
	s := newTestServer(t)

	created := decodeResult[map[string]any](t, call(t, s, "insert_document", map[string]any{
		"collection": "books",
		"document":   `{"title": "Dune", "pages": "412"}`,
	}))
	id, ok := created[domain.IDField].(string)
	require.True(t, ok)
	assert.Equal(t, 412.0, created["pages"])

	decodeResult[map[string]any](t, call(t, s, "insert_document", map[string]any{
		"collection": "books",
		"document":   map[string]any{"title": "Emma", "pages": 474},
	}))

	got := decodeResult[map[string]any](t, call(t, s, "get_document", map[string]any{"collection": "books", "id": id}))
	assert.Equal(t, "Dune", got["title"])

	found := decodeResult[[]map[string]any](t, call(t, s, "find_documents", map[string]any{
		"collection": "books",
		"filter":     `{"pages": {"$gt": 400}}`,
		"sort":       "pages",
		"desc":       true,
		"limit":      1,
	}))
	require.Len(t, found, 1)
	assert.Equal(t, "Emma", found[0]["title"])

	updated := decodeResult[map[string]any](t, call(t, s, "update_document", map[string]any{
		"collection": "books",
		"id":         id,
		"update":     `{"$push": {"tags": "scifi"}, "$inc": {"pages": 8}}`,
	}))
	assert.Equal(t, 420.0, updated["pages"])
	assert.Equal(t, []any{"scifi"}, updated["tags"])

	res := call(t, s, "remove_document", map[string]any{"collection": "books", "id": id})
	require.False(t, res.IsError, resultText(t, res))

	res = call(t, s, "get_document", map[string]any{"collection": "books", "id": id})
	assert.True(t, res.IsError)
}

func TestServer_ToolErrors(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		tool string
		args map[string]any
		want string
	}{
		{"unknown collection", "get_document", map[string]any{"collection": "films", "id": "x"}, "not found"},
		{"missing collection", "find_documents", map[string]any{}, "collection"},
		{"missing id", "get_document", map[string]any{"collection": "books"}, "id"},
		{"missing document", "get_document", map[string]any{"collection": "books", "id": "nope"}, "not found"},
		{"invalid filter", "find_documents", map[string]any{"collection": "books", "filter": "{"}, "invalid argument"},
		{"filter not an object", "find_documents", map[string]any{"collection": "books", "filter": 3}, "invalid argument"},
		{"unknown operator", "find_documents", map[string]any{"collection": "books", "filter": `{"pages": {"$near": 1}}`}, "unknown operator"},
		{"validation", "insert_document", map[string]any{"collection": "books", "document": `{"pages": 3}`}, "title"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := call(t, s, tt.tool, tt.args)
			assert.True(t, res.IsError)
			assert.Contains(t, resultText(t, res), tt.want)
		})
	}
}

func TestServer_SchemaResource(t *testing.T) {
	s := newTestServer(t)

	var req mcp.ReadResourceRequest
	req.Params.URI = "warehouse://collections/books/schema"
	contents, err := s.readSchema(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok, "contents is %T", contents[0])
	assert.Equal(t, "application/json", text.MIMEType)
	assert.JSONEq(t, `{"title": "string", "pages": "number", "tags": "[string]"}`, text.Text)

	req.Params.URI = "warehouse://collections/films/schema"
	_, err = s.readSchema(context.Background(), req)
	assert.Error(t, err)

	req.Params.URI = "warehouse://other"
	_, err = s.readSchema(context.Background(), req)
	assert.Error(t, err)
}
