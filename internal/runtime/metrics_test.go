package runtime_test

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/halu886/warehouse/internal/runtime"
	"github.com/halu886/warehouse/pkg/observability"
)

func TestEngine_Metrics(t *testing.T) {
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	engine, _ := newEngine(t, newPeopleSchema(t), runtime.WithMetrics(metrics))
	ctx := context.Background()

	id := insertAda(t, engine)
	if _, err := engine.Insert(ctx, map[string]any{"name": "Bad", "age": -5}); err == nil {
		t.Fatal("expected validation failure")
	}
	if _, err := engine.Update(ctx, id, runtime.Update{"$inc": map[string]any{"age": 1}}); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.Find(ctx, runtime.Filter{"age": map[string]any{"$gt": 1}}, runtime.FindOptions{}); err != nil {
		t.Fatal(err)
	}

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"inserted", testutil.ToFloat64(metrics.DocumentsWritten.WithLabelValues("people", "insert")), 1},
		{"updated", testutil.ToFloat64(metrics.DocumentsWritten.WithLabelValues("people", "update")), 1},
		{"validation failures", testutil.ToFloat64(metrics.ValidationFailures.WithLabelValues("people", "age")), 1},
		{"inc calls", testutil.ToFloat64(metrics.OperatorCalls.WithLabelValues("people", "u$inc")), 1},
		{"gt calls", testutil.ToFloat64(metrics.OperatorCalls.WithLabelValues("people", "q$gt")), 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}
