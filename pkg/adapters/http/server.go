package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/halu886/warehouse"
	"github.com/halu886/warehouse/internal/logging"
	"github.com/halu886/warehouse/pkg/domain"
	"github.com/halu886/warehouse/pkg/schema"
)

// Server exposes the collections of a registry as a JSON API.
type Server struct {
	Collections *warehouse.Registry
	Streams     *StreamManager
	logger      *slog.Logger
	gatherer    prometheus.Gatherer
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsGatherer serves the metrics gathered by g on GET /metrics.
func WithMetricsGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// NewServer creates a server for the collections of reg.
func NewServer(reg *warehouse.Registry, opts ...Option) *Server {
	s := &Server{
		Collections: reg,
		Streams:     NewStreamManager(),
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger
	return s
}

// NewHandler creates a new HTTP handler serving the collections of reg.
func NewHandler(reg *warehouse.Registry, opts ...Option) http.Handler {
	return NewServer(reg, opts...).Handler()
}

// Handler routes the API:
//
//	GET    /health
//	GET    /collections
//	GET    /collections/{name}/schema
//	GET    /collections/{name}/documents?filter=&sort=&desc=&limit=
//	POST   /collections/{name}/documents
//	GET    /collections/{name}/documents/{id}
//	PATCH  /collections/{name}/documents/{id}
//	DELETE /collections/{name}/documents/{id}
//	GET    /collections/{name}/events?watch=
//	GET    /metrics (with WithMetricsGatherer)
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", s.GetHealth)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	r.Get("/collections", s.ListCollections)
	r.Route("/collections/{name}", func(r chi.Router) {
		r.Get("/schema", s.GetSchema)
		r.Get("/events", s.SubscribeEvents)
		r.Get("/documents", s.FindDocuments)
		r.Post("/documents", s.InsertDocument)
		r.Get("/documents/{id}", s.GetDocument)
		r.Patch("/documents/{id}", s.UpdateDocument)
		r.Delete("/documents/{id}", s.RemoveDocument)
	})
	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles GET /health.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListCollections handles GET /collections.
func (s *Server) ListCollections(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Collections.Names())
}

// GetSchema handles GET /collections/{name}/schema.
func (s *Server) GetSchema(w http.ResponseWriter, r *http.Request) {
	c, ok := s.collection(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, c.Schema())
}

// FindDocuments handles GET /collections/{name}/documents. The filter query
// parameter holds a JSON filter document.
func (s *Server) FindDocuments(w http.ResponseWriter, r *http.Request) {
	c, ok := s.collection(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	var filter warehouse.Filter
	if raw := q.Get("filter"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &filter); err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid filter: %w", err))
			return
		}
	}
	opts := warehouse.FindOptions{Sort: q.Get("sort"), Desc: q.Get("desc") == "true"}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", raw))
			return
		}
		opts.Limit = limit
	}

	docs, err := c.Find(r.Context(), filter, opts)
	if err != nil {
		s.fail(w, r, "find", err)
		return
	}
	out := make([]map[string]any, 0, len(docs))
	for _, doc := range docs {
		out = append(out, c.Schema().Value(doc))
	}
	s.writeJSON(w, http.StatusOK, out)
}

// InsertDocument handles POST /collections/{name}/documents.
func (s *Server) InsertDocument(w http.ResponseWriter, r *http.Request) {
	c, ok := s.collection(w, r)
	if !ok {
		return
	}
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	doc, err := c.Insert(r.Context(), body)
	if err != nil {
		s.fail(w, r, "insert", err)
		return
	}
	stored := c.Schema().Value(doc)
	s.broadcast(c.Name, domain.Diff(nil, stored))
	s.writeJSON(w, http.StatusCreated, stored)
}

// GetDocument handles GET /collections/{name}/documents/{id}.
func (s *Server) GetDocument(w http.ResponseWriter, r *http.Request) {
	c, ok := s.collection(w, r)
	if !ok {
		return
	}
	doc, err := c.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, "get", err)
		return
	}
	s.writeJSON(w, http.StatusOK, c.Schema().Value(doc))
}

// UpdateDocument handles PATCH /collections/{name}/documents/{id}. The body
// is an update document such as {"$inc": {"visits": 1}}.
func (s *Server) UpdateDocument(w http.ResponseWriter, r *http.Request) {
	c, ok := s.collection(w, r)
	if !ok {
		return
	}
	var update warehouse.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	after, diff, err := c.UpdateDiff(r.Context(), chi.URLParam(r, "id"), update)
	if err != nil {
		s.fail(w, r, "update", err)
		return
	}

	s.broadcast(c.Name, diff)
	s.writeJSON(w, http.StatusOK, c.Schema().Value(after))
}

// RemoveDocument handles DELETE /collections/{name}/documents/{id}.
func (s *Server) RemoveDocument(w http.ResponseWriter, r *http.Request) {
	c, ok := s.collection(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if err := c.Remove(r.Context(), id); err != nil {
		s.fail(w, r, "remove", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) collection(w http.ResponseWriter, r *http.Request) (*warehouse.Collection, bool) {
	name := chi.URLParam(r, "name")
	c, ok := s.Collections.Collection(name)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("collection %q not found", name))
	}
	return c, ok
}

func (s *Server) broadcast(collection string, diff *domain.DocumentDiff) {
	if diff.IsEmpty() {
		return
	}
	payload, err := json.Marshal(diff)
	if err != nil {
		s.logger.Error("diff encode failed", "collection", collection, "error", err)
		return
	}
	s.Streams.Broadcast(collection, string(payload))
}

// fail maps err to a status code and writes it.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), "request failed", "op", op, "path", r.URL.Path, "error", err)
	} else {
		s.logger.DebugContext(r.Context(), "request rejected", "op", op, "path", r.URL.Path, "error", err)
	}
	s.writeError(w, status, err)
}

func statusFor(err error) int {
	var ve *schema.ValidationError
	switch {
	case errors.Is(err, domain.ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrUnknownOperator),
		errors.Is(err, domain.ErrInvalidQuery),
		errors.Is(err, domain.ErrInvalidID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}
