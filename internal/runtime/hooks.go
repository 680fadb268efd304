package runtime

import (
	"context"
	"fmt"

	"github.com/halu886/warehouse/pkg/schema"
)

// runHooks runs the hooks registered for kind and event in registration
// order, stopping at the first error.
func (e *Engine) runHooks(ctx context.Context, kind schema.HookKind, event schema.Event, doc map[string]any) error {
	for i, hook := range e.schema.Hooks(kind, event) {
		if err := hook(ctx, doc); err != nil {
			e.logger.WarnContext(ctx, "hook failed", "collection", e.name, "hook", string(kind)+" "+string(event), "index", i, "error", err)
			return fmt.Errorf("%s %s hook: %w", kind, event, err)
		}
	}
	return nil
}
