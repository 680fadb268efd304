package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/halu886/warehouse"
	"github.com/halu886/warehouse/internal/logging"
	"github.com/halu886/warehouse/pkg/domain"
	"github.com/halu886/warehouse/pkg/schema"
)

const schemaURITemplate = "warehouse://collections/{name}/schema"

// Server exposes the collections of a registry as MCP tools.
type Server struct {
	collections *warehouse.Registry
	logger      *slog.Logger
	mcpServer   *server.MCPServer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger used for rejected tool calls.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates an MCP server for the collections of reg.
func NewServer(reg *warehouse.Registry, opts ...Option) *Server {
	s := &Server{
		collections: reg,
		logger:      logging.NewNop(),
		mcpServer: server.NewMCPServer("warehouse-mcp", warehouse.Version,
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.mcpServer.AddTools(s.tools()...)
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, e.g. to mount it on a custom transport.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio serves on Stdin/Stdout until the input is closed.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE serves on the given port using SSE until ctx is cancelled.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))
	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) tools() []server.ServerTool {
	collection := mcp.WithString("collection", mcp.Required(), mcp.Description("Collection name"))
	id := mcp.WithString("id", mcp.Required(), mcp.Description("Document identifier"))

	return []server.ServerTool{
		{
			Tool: mcp.NewTool("list_collections",
				mcp.WithDescription("List the names of the registered collections."),
			),
			Handler: s.handleListCollections,
		},
		{
			Tool: mcp.NewTool("find_documents",
				mcp.WithDescription("Find the documents of a collection matching a filter."),
				collection,
				mcp.WithString("filter", mcp.Description(`JSON filter, e.g. {"age": {"$gte": 18}} (optional)`)),
				mcp.WithString("sort", mcp.Description("Path to sort by (optional)")),
				mcp.WithBoolean("desc", mcp.Description("Sort in descending order")),
				mcp.WithNumber("limit", mcp.Description("Maximum number of documents, 0 for all")),
			),
			Handler: s.handleFind,
		},
		{
			Tool: mcp.NewTool("get_document",
				mcp.WithDescription("Get one document by identifier."),
				collection, id,
			),
			Handler: s.handleGet,
		},
		{
			Tool: mcp.NewTool("insert_document",
				mcp.WithDescription("Cast, validate and insert a document."),
				collection,
				mcp.WithString("document", mcp.Required(), mcp.Description("JSON object to insert")),
			),
			Handler: s.handleInsert,
		},
		{
			Tool: mcp.NewTool("update_document",
				mcp.WithDescription("Apply update operators to a document."),
				collection, id,
				mcp.WithString("update", mcp.Required(), mcp.Description(`JSON update, e.g. {"$inc": {"visits": 1}}`)),
			),
			Handler: s.handleUpdate,
		},
		{
			Tool: mcp.NewTool("remove_document",
				mcp.WithDescription("Remove a document by identifier."),
				collection, id,
			),
			Handler: s.handleRemove,
		},
	}
}

func (s *Server) handleListCollections(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(s.collections.Names())
}

func (s *Server) handleFind(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, res := s.collection(request)
	if res != nil {
		return res, nil
	}
	filter, err := objectArg(request, "filter")
	if err != nil {
		return s.reject("find", err), nil
	}
	opts := warehouse.FindOptions{
		Sort:  request.GetString("sort", ""),
		Desc:  request.GetBool("desc", false),
		Limit: request.GetInt("limit", 0),
	}

	docs, err := c.Find(ctx, filter, opts)
	if err != nil {
		return s.reject("find", err), nil
	}
	out := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		out = append(out, c.Schema().Value(doc))
	}
	return jsonResult(out)
}

func (s *Server) handleGet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, res := s.collection(request)
	if res != nil {
		return res, nil
	}
	id, err := request.RequireString("id")
	if err != nil {
		return s.reject("get", err), nil
	}
	doc, err := c.Get(ctx, id)
	if err != nil {
		return s.reject("get", err), nil
	}
	return jsonResult(c.Schema().Value(doc))
}

func (s *Server) handleInsert(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, res := s.collection(request)
	if res != nil {
		return res, nil
	}
	body, err := objectArg(request, "document")
	if err != nil {
		return s.reject("insert", err), nil
	}
	doc, err := c.Insert(ctx, body)
	if err != nil {
		return s.reject("insert", err), nil
	}
	return jsonResult(c.Schema().Value(doc))
}

func (s *Server) handleUpdate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, res := s.collection(request)
	if res != nil {
		return res, nil
	}
	id, err := request.RequireString("id")
	if err != nil {
		return s.reject("update", err), nil
	}
	update, err := objectArg(request, "update")
	if err != nil {
		return s.reject("update", err), nil
	}
	doc, err := c.Update(ctx, id, update)
	if err != nil {
		return s.reject("update", err), nil
	}
	return jsonResult(c.Schema().Value(doc))
}

func (s *Server) handleRemove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	c, res := s.collection(request)
	if res != nil {
		return res, nil
	}
	id, err := request.RequireString("id")
	if err != nil {
		return s.reject("remove", err), nil
	}
	if err := c.Remove(ctx, id); err != nil {
		return s.reject("remove", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("removed %s", id)), nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(
		mcp.NewResourceTemplate(schemaURITemplate, "Collection schema",
			mcp.WithTemplateDescription("Paths of a collection mapped to their type names"),
			mcp.WithTemplateMIMEType("application/json"),
		),
		s.readSchema,
	)
}

func (s *Server) readSchema(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	name, ok := strings.CutPrefix(uri, "warehouse://collections/")
	if ok {
		name, ok = strings.CutSuffix(name, "/schema")
	}
	if !ok || name == "" {
		return nil, fmt.Errorf("unknown resource %q", uri)
	}
	c, found := s.collections.Collection(name)
	if !found {
		return nil, fmt.Errorf("collection %q not found", name)
	}

	data, err := json.Marshal(c.Schema())
	if err != nil {
		return nil, fmt.Errorf("failed to describe schema: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// collection resolves the collection argument. A non-nil result is the
// error to hand back to the client.
func (s *Server) collection(request mcp.CallToolRequest) (*warehouse.Collection, *mcp.CallToolResult) {
	name, err := request.RequireString("collection")
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	c, ok := s.collections.Collection(name)
	if !ok {
		return nil, mcp.NewToolResultError(fmt.Sprintf("collection %q not found", name))
	}
	return c, nil
}

// reject turns err into a tool error result. Failures are reported to the
// client rather than as protocol errors.
func (s *Server) reject(op string, err error) *mcp.CallToolResult {
	level := slog.LevelDebug
	if !isClientError(err) {
		level = slog.LevelError
	}
	s.logger.Log(context.Background(), level, "MCP tool call failed", "op", op, "error", err)
	return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", op, err))
}

func isClientError(err error) bool {
	return errors.Is(err, domain.ErrDocumentNotFound) ||
		errors.Is(err, domain.ErrUnknownOperator) ||
		errors.Is(err, domain.ErrInvalidQuery) ||
		errors.Is(err, domain.ErrInvalidID) ||
		errors.Is(err, errInvalidArgument) ||
		schema.IsValidationError(err)
}

var errInvalidArgument = errors.New("invalid argument")

// objectArg reads a JSON object argument. Clients may send it encoded as a
// string or as an object. A missing argument yields nil.
func objectArg(request mcp.CallToolRequest, key string) (map[string]any, error) {
	raw, ok := request.GetArguments()[key]
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case map[string]any:
		return v, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		var out map[string]any
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			return nil, fmt.Errorf("%w: %s is not a JSON object: %v", errInvalidArgument, key, err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: %s must be a JSON object, got %T", errInvalidArgument, key, raw)
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
