package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cast"

	"github.com/halu886/warehouse/internal/logging"
	"github.com/halu886/warehouse/pkg/domain"
	"github.com/halu886/warehouse/pkg/observability"
	"github.com/halu886/warehouse/pkg/ports"
	"github.com/halu886/warehouse/pkg/schema"
)

// DefaultLockTTL bounds how long an update may hold a document lock.
const DefaultLockTTL = 5 * time.Second

// Engine runs the document lifecycle of one collection against a store.
type Engine struct {
	name    string
	schema  *schema.Schema
	store   ports.DocumentStore
	locker  ports.DistributedLocker
	logger  *slog.Logger
	metrics *observability.Metrics
	lockTTL time.Duration
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *observability.Metrics) EngineOption {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) EngineOption {
	return func(e *Engine) {
		if ttl > 0 {
			e.lockTTL = ttl
		}
	}
}

// NewEngine creates an engine for the named collection.
func NewEngine(name string, s *schema.Schema, store ports.DocumentStore, locker ports.DistributedLocker, opts ...EngineOption) *Engine {
	e := &Engine{
		name:    name,
		schema:  s,
		store:   store,
		locker:  locker,
		logger:  logging.NewNop(),
		lockTTL: DefaultLockTTL,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the collection name.
func (e *Engine) Name() string { return e.name }

// Schema returns the collection schema.
func (e *Engine) Schema() *schema.Schema { return e.schema }

// Insert casts doc, assigns an identifier when it has none, and saves it.
// The caller's map is left untouched; the returned document is the cast copy.
func (e *Engine) Insert(ctx context.Context, doc map[string]any) (map[string]any, error) {
	defer e.metrics.ObserveDuration(e.name, "insert", time.Now())

	working := e.schema.Cast(domain.Document(doc).Clone())
	if err := e.assignID(working); err != nil {
		return nil, err
	}
	if err := e.save(ctx, working, "insert"); err != nil {
		return nil, err
	}
	return working, nil
}

// Save validates and stores an already cast document, running the save hooks.
func (e *Engine) Save(ctx context.Context, doc map[string]any) error {
	defer e.metrics.ObserveDuration(e.name, "save", time.Now())
	e.schema.Cast(doc)
	if err := e.assignID(doc); err != nil {
		return err
	}
	return e.save(ctx, doc, "save")
}

// Get loads the document stored under id and parses it into memory form.
func (e *Engine) Get(ctx context.Context, id string) (map[string]any, error) {
	defer e.metrics.ObserveDuration(e.name, "get", time.Now())

	stored, err := e.store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load document %s: %w", id, err)
	}
	return e.schema.Parse(stored), nil
}

// Remove deletes the document stored under id, running the remove hooks
// around the deletion.
func (e *Engine) Remove(ctx context.Context, id string) error {
	defer e.metrics.ObserveDuration(e.name, "remove", time.Now())

	doc, err := e.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := e.runHooks(ctx, schema.HookPre, schema.EventRemove, doc); err != nil {
		return err
	}
	if err := e.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete document %s: %w", id, err)
	}
	e.metrics.DocumentWritten(e.name, "remove")
	e.logger.DebugContext(ctx, "document removed", "collection", e.name, "id", id)
	return e.runHooks(ctx, schema.HookPost, schema.EventRemove, doc)
}

// CallMethod invokes the instance method name on doc.
func (e *Engine) CallMethod(doc map[string]any, name string, args ...any) (any, error) {
	fn, ok := e.schema.LookupMethod(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrMethodNotFound, name)
	}
	return fn(doc, args...)
}

// CallStatic invokes the collection-level static name.
func (e *Engine) CallStatic(name string, args ...any) (any, error) {
	fn, ok := e.schema.LookupStatic(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrMethodNotFound, name)
	}
	return fn(args...)
}

// assignID gives doc an identifier: a schema ObjectID when _id is declared,
// a UUID string otherwise.
func (e *Engine) assignID(doc map[string]any) error {
	if cur := schema.GetPath(doc, domain.IDField); !schema.IsUndefined(cur) && cur != nil {
		return nil
	}
	if _, ok := e.schema.Path(domain.IDField); ok {
		return e.schema.Set(doc, domain.IDField, uuid.New())
	}
	doc[domain.IDField] = uuid.NewString()
	return nil
}

// save runs the save hooks around validate and persist.
func (e *Engine) save(ctx context.Context, doc map[string]any, op string) error {
	if err := e.runHooks(ctx, schema.HookPre, schema.EventSave, doc); err != nil {
		return err
	}
	if err := e.persist(ctx, doc, op); err != nil {
		return err
	}
	return e.runHooks(ctx, schema.HookPost, schema.EventSave, doc)
}

// persist validates doc, converts it to storage form and writes it.
func (e *Engine) persist(ctx context.Context, doc map[string]any, op string) error {
	if err := e.schema.Validate(doc); err != nil {
		var ve *schema.ValidationError
		if errors.As(err, &ve) {
			e.metrics.ValidationFailed(e.name, ve.Path)
		}
		e.logger.DebugContext(ctx, "document rejected", "collection", e.name, "op", op, "error", err)
		return err
	}

	stored := domain.Document(e.schema.Value(doc))
	id, err := cast.ToStringE(stored[domain.IDField])
	if err != nil || id == "" {
		return fmt.Errorf("%w: %v", domain.ErrInvalidID, stored[domain.IDField])
	}
	if err := e.store.Save(ctx, id, stored); err != nil {
		return fmt.Errorf("failed to save document %s: %w", id, err)
	}

	e.metrics.DocumentWritten(e.name, op)
	e.logger.DebugContext(ctx, "document saved", "collection", e.name, "id", id, "op", op)
	return nil
}
