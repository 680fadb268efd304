package runtime

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/halu886/warehouse/pkg/domain"
	"github.com/halu886/warehouse/pkg/schema"
)

// Filter selects documents. Keys are dotted paths or the combinators $and,
// $or and $nor. A path maps either to a literal, matched with the path
// type's Match, or to a map of query operators such as {"$gt": 3}.
type Filter map[string]any

// FindOptions orders and bounds the result of Find.
type FindOptions struct {
	Sort  string
	Desc  bool
	Limit int
}

type predicate func(doc map[string]any) bool

// Find returns the parsed documents matching filter.
func (e *Engine) Find(ctx context.Context, filter Filter, opts FindOptions) ([]map[string]any, error) {
	defer e.metrics.ObserveDuration(e.name, "find", time.Now())

	match, err := e.compileFilter(filter)
	if err != nil {
		return nil, err
	}

	ids, err := e.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	sort.Strings(ids)

	var out []map[string]any
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		stored, err := e.store.Load(ctx, id)
		if errors.Is(err, domain.ErrDocumentNotFound) {
			// Removed between List and Load.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to load document %s: %w", id, err)
		}
		doc := e.schema.Parse(stored)
		if match(doc) {
			out = append(out, doc)
		}
	}

	if opts.Sort != "" {
		typ := e.pathType(opts.Sort)
		sort.SliceStable(out, func(i, j int) bool {
			c := typ.Compare(e.schema.Get(out[i], opts.Sort), e.schema.Get(out[j], opts.Sort))
			if opts.Desc {
				return c > 0
			}
			return c < 0
		})
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

// FindOne returns the first document matching filter, or
// domain.ErrDocumentNotFound.
func (e *Engine) FindOne(ctx context.Context, filter Filter) (map[string]any, error) {
	docs, err := e.Find(ctx, filter, FindOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, domain.ErrDocumentNotFound
	}
	return docs[0], nil
}

// Count returns how many documents match filter.
func (e *Engine) Count(ctx context.Context, filter Filter) (int, error) {
	docs, err := e.Find(ctx, filter, FindOptions{})
	return len(docs), err
}

// compileFilter turns filter into a predicate, resolving every operator up
// front so an unknown one fails before any document is read.
func (e *Engine) compileFilter(filter map[string]any) (predicate, error) {
	var preds []predicate
	for _, key := range sortedKeys(filter) {
		var (
			p   predicate
			err error
		)
		switch key {
		case "$and", "$or", "$nor":
			p, err = e.compileCombinator(key, filter[key])
		default:
			if strings.HasPrefix(key, "$") {
				return nil, fmt.Errorf("%w: %s", domain.ErrUnknownOperator, key)
			}
			p, err = e.compilePath(key, filter[key])
		}
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}
	return allOf(preds), nil
}

func (e *Engine) compileCombinator(key string, operand any) (predicate, error) {
	filters, ok := filterList(operand)
	if !ok || len(filters) == 0 {
		return nil, fmt.Errorf("%w: %s expects a non-empty list of filters", domain.ErrInvalidQuery, key)
	}
	preds := make([]predicate, 0, len(filters))
	for _, f := range filters {
		p, err := e.compileFilter(f)
		if err != nil {
			return nil, err
		}
		preds = append(preds, p)
	}

	switch key {
	case "$and":
		return allOf(preds), nil
	case "$or":
		return anyOf(preds), nil
	default:
		either := anyOf(preds)
		return func(doc map[string]any) bool { return !either(doc) }, nil
	}
}

func (e *Engine) compilePath(path string, operand any) (predicate, error) {
	typ := e.pathType(path)

	ops, isOps, err := operatorMap(operand)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if !isOps {
		return func(doc map[string]any) bool {
			return typ.Match(e.schema.Get(doc, path), operand, doc)
		}, nil
	}

	preds := make([]predicate, 0, len(ops))
	for _, key := range sortedKeys(ops) {
		name := schema.QueryName(key)
		fn, ok := typ.QueryOperator(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s on %s path %q", domain.ErrUnknownOperator, key, typ.Name(), path)
		}
		arg := ops[key]
		preds = append(preds, func(doc map[string]any) bool {
			e.metrics.OperatorCalled(e.name, string(name))
			return fn(e.schema.Get(doc, path), arg, doc)
		})
	}
	return allOf(preds), nil
}

// pathType returns the type bound to path, or a Mixed type for paths the
// schema does not declare.
func (e *Engine) pathType(path string) schema.Type {
	if t, ok := e.schema.Path(path); ok {
		return t
	}
	return schema.NewMixed(path, schema.Options{})
}

// operatorMap reports whether operand is an operator map. A map mixing
// operator and plain keys is rejected.
func operatorMap(operand any) (map[string]any, bool, error) {
	m, ok := asObject(operand)
	if !ok || len(m) == 0 {
		return nil, false, nil
	}
	dollar := 0
	for k := range m {
		if strings.HasPrefix(k, "$") {
			dollar++
		}
	}
	switch dollar {
	case 0:
		return nil, false, nil
	case len(m):
		return m, true, nil
	default:
		return nil, false, fmt.Errorf("%w: operators mixed with fields", domain.ErrInvalidQuery)
	}
}

func asObject(v any) (map[string]any, bool) {
	switch x := v.(type) {
	case map[string]any:
		return x, true
	case Filter:
		return x, true
	case domain.Document:
		return x, true
	default:
		return nil, false
	}
}

func filterList(v any) ([]map[string]any, bool) {
	var items []any
	switch x := v.(type) {
	case []any:
		items = x
	case []map[string]any:
		return x, true
	case []Filter:
		out := make([]map[string]any, len(x))
		for i, f := range x {
			out[i] = f
		}
		return out, true
	default:
		return nil, false
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		m, ok := asObject(item)
		if !ok {
			return nil, false
		}
		out = append(out, m)
	}
	return out, true
}

func allOf(preds []predicate) predicate {
	return func(doc map[string]any) bool {
		for _, p := range preds {
			if !p(doc) {
				return false
			}
		}
		return true
	}
}

func anyOf(preds []predicate) predicate {
	return func(doc map[string]any) bool {
		for _, p := range preds {
			if p(doc) {
				return true
			}
		}
		return false
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
