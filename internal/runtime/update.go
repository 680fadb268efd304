package runtime

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/halu886/warehouse/pkg/domain"
	"github.com/halu886/warehouse/pkg/schema"
)

// Update maps update operators to the paths they change, for example
// {"$inc": {"visits": 1}, "$push": {"tags": "new"}}.
type Update map[string]any

type pathUpdate struct {
	path    string
	name    schema.Operator
	fn      schema.UpdateFunc
	operand any
}

// Update applies update to the document stored under id while holding the
// document lock, then recasts, validates and stores the result.
func (e *Engine) Update(ctx context.Context, id string, update Update) (map[string]any, error) {
	doc, _, err := e.UpdateDiff(ctx, id, update)
	return doc, err
}

// UpdateDiff is Update that also returns the stored-form changes. Both
// versions are read while the lock is held, so concurrent updates never see
// each other's diffs. The diff is nil when nothing changed.
func (e *Engine) UpdateDiff(ctx context.Context, id string, update Update) (map[string]any, *domain.DocumentDiff, error) {
	defer e.metrics.ObserveDuration(e.name, "update", time.Now())

	steps, err := e.compileUpdate(update)
	if err != nil {
		return nil, nil, err
	}

	unlock, err := e.locker.Lock(ctx, e.lockKey(id), e.lockTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lock document %s: %w", id, err)
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			e.logger.WarnContext(ctx, "failed to release document lock", "collection", e.name, "id", id, "error", err)
		}
	}()

	doc, err := e.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	prior := domain.Document(e.schema.Value(doc)).Clone()

	for _, step := range steps {
		cur := e.schema.Get(doc, step.path)
		next := step.fn(cur, step.operand, doc)
		e.metrics.OperatorCalled(e.name, string(step.name))

		if schema.IsUndefined(next) {
			schema.UnsetPath(doc, step.path)
			continue
		}
		if err := e.schema.Set(doc, step.path, next); err != nil {
			return nil, nil, fmt.Errorf("%s %s: %w", step.name, step.path, err)
		}
	}

	e.schema.Cast(doc)
	if err := e.persist(ctx, doc, "update"); err != nil {
		return nil, nil, err
	}
	return doc, domain.Diff(prior, e.schema.Value(doc)), nil
}

// compileUpdate resolves every operator before the document is locked.
// Steps run in operator order, then path order.
func (e *Engine) compileUpdate(update Update) ([]pathUpdate, error) {
	if len(update) == 0 {
		return nil, fmt.Errorf("%w: empty update", domain.ErrInvalidQuery)
	}

	var steps []pathUpdate
	for _, key := range sortedKeys(update) {
		if !strings.HasPrefix(key, "$") {
			return nil, fmt.Errorf("%w: update key %q is not an operator", domain.ErrInvalidQuery, key)
		}
		fields, ok := asObject(update[key])
		if !ok {
			return nil, fmt.Errorf("%w: %s expects a map of paths", domain.ErrInvalidQuery, key)
		}

		name := schema.UpdateName(key)
		for _, path := range sortedKeys(fields) {
			if path == domain.IDField {
				return nil, fmt.Errorf("%w: %s cannot be updated", domain.ErrInvalidQuery, domain.IDField)
			}
			typ := e.pathType(path)
			fn, ok := typ.UpdateOperator(name)
			if !ok {
				return nil, fmt.Errorf("%w: %s on %s path %q", domain.ErrUnknownOperator, key, typ.Name(), path)
			}
			steps = append(steps, pathUpdate{path: path, name: name, fn: fn, operand: fields[path]})
		}
	}
	return steps, nil
}

func (e *Engine) lockKey(id string) string {
	return e.name + ":" + id
}
