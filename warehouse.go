package warehouse

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/halu886/warehouse/internal/logging"
	"github.com/halu886/warehouse/internal/runtime"
	"github.com/halu886/warehouse/pkg/adapters/memory"
	"github.com/halu886/warehouse/pkg/domain"
	"github.com/halu886/warehouse/pkg/observability"
	"github.com/halu886/warehouse/pkg/ports"
	"github.com/halu886/warehouse/pkg/registry"
	"github.com/halu886/warehouse/pkg/schema"
)

// Version is the library version reported by the server adapters.
const Version = "0.1.0"

// Filter selects documents in Find. See runtime.Filter.
type Filter = runtime.Filter

// Update lists update operators per path. See runtime.Update.
type Update = runtime.Update

// FindOptions orders and bounds the result of Find.
type FindOptions = runtime.FindOptions

// Collection is the high-level entry point of the library: a named set of
// documents governed by one schema.
type Collection struct {
	runtime *runtime.Engine
	store   ports.DocumentStore
	locker  ports.DistributedLocker
	logger  *slog.Logger
	metrics *observability.Metrics
	lockTTL time.Duration
	Name    string
}

// Option defines a functional option for configuring a Collection.
type Option func(*Collection)

// WithStore injects the document store. The default is an in-memory store.
func WithStore(store ports.DocumentStore) Option {
	return func(c *Collection) {
		c.store = store
	}
}

// WithLocker injects the lock used to serialise updates. Replicas sharing a
// store must share a locker too, e.g. the Redis one.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(c *Collection) {
		c.locker = locker
	}
}

// WithLogger sets a custom structured logger for the collection.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Collection) {
		c.logger = logger
	}
}

// WithLogLevel logs to stderr at level. It is ignored when WithLogger is
// also given.
func WithLogLevel(level slog.Level) Option {
	return func(c *Collection) {
		if c.logger == nil {
			c.logger = logging.New(level)
		}
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Collection) {
		c.metrics = m
	}
}

// WithLockTTL bounds how long an update may hold a document lock.
func WithLockTTL(ttl time.Duration) Option {
	return func(c *Collection) {
		c.lockTTL = ttl
	}
}

// New creates a collection. The schema is frozen: hooks, methods and paths
// must be registered before this call.
func New(name string, s *schema.Schema, opts ...Option) (*Collection, error) {
	if name == "" {
		return nil, errors.New("collection name is required")
	}
	if s == nil {
		return nil, errors.New("schema is required")
	}

	c := &Collection{Name: name}
	for _, opt := range opts {
		opt(c)
	}
	if c.store == nil {
		c.store = memory.NewStore()
	}
	if c.locker == nil {
		c.locker = memory.NewLocker()
	}
	if c.logger == nil {
		c.logger = logging.NewNop()
	}

	s.Freeze()
	c.runtime = runtime.NewEngine(name, s, c.store, c.locker,
		runtime.WithLogger(c.logger),
		runtime.WithMetrics(c.metrics),
		runtime.WithLockTTL(c.lockTTL),
	)
	return c, nil
}

// Schema returns the frozen schema of the collection.
func (c *Collection) Schema() *schema.Schema {
	return c.runtime.Schema()
}

// Insert casts doc, assigns an _id when missing, runs the save hooks and
// stores it. It returns the cast document.
func (c *Collection) Insert(ctx context.Context, doc map[string]any) (map[string]any, error) {
	return c.runtime.Insert(ctx, doc)
}

// Save stores doc, typically one returned by Get or Find and then modified.
// doc is cast in place.
func (c *Collection) Save(ctx context.Context, doc map[string]any) error {
	return c.runtime.Save(ctx, doc)
}

// Get returns the document stored under id.
func (c *Collection) Get(ctx context.Context, id string) (map[string]any, error) {
	return c.runtime.Get(ctx, id)
}

// Find returns the documents matching filter.
func (c *Collection) Find(ctx context.Context, filter Filter, opts FindOptions) ([]map[string]any, error) {
	return c.runtime.Find(ctx, filter, opts)
}

// FindOne returns the first document matching filter.
func (c *Collection) FindOne(ctx context.Context, filter Filter) (map[string]any, error) {
	return c.runtime.FindOne(ctx, filter)
}

// Count returns the number of documents matching filter.
func (c *Collection) Count(ctx context.Context, filter Filter) (int, error) {
	return c.runtime.Count(ctx, filter)
}

// Update applies update operators to the document stored under id.
func (c *Collection) Update(ctx context.Context, id string, update Update) (map[string]any, error) {
	return c.runtime.Update(ctx, id, update)
}

// UpdateDiff is Update that also returns the stored-form changes, computed
// under the document lock. The diff is nil when nothing changed.
func (c *Collection) UpdateDiff(ctx context.Context, id string, update Update) (map[string]any, *domain.DocumentDiff, error) {
	return c.runtime.UpdateDiff(ctx, id, update)
}

// Remove deletes the document stored under id.
func (c *Collection) Remove(ctx context.Context, id string) error {
	return c.runtime.Remove(ctx, id)
}

// CallMethod invokes a schema method on doc.
func (c *Collection) CallMethod(doc map[string]any, name string, args ...any) (any, error) {
	return c.runtime.CallMethod(doc, name, args...)
}

// CallStatic invokes a schema static.
func (c *Collection) CallStatic(name string, args ...any) (any, error) {
	return c.runtime.CallStatic(name, args...)
}

// Registry keeps collections by name.
type Registry struct {
	collections *registry.Registry[*Collection]
}

// NewRegistry creates an empty collection registry.
func NewRegistry() *Registry {
	return &Registry{collections: registry.NewRegistry[*Collection]()}
}

// Register adds c under its name. Names are write-once.
func (r *Registry) Register(c *Collection) error {
	return r.collections.Register(c.Name, c)
}

// Collection returns the collection registered under name.
func (r *Registry) Collection(name string) (*Collection, bool) {
	return r.collections.Lookup(name)
}

// Names returns the registered collection names, sorted.
func (r *Registry) Names() []string {
	return r.collections.Names()
}
