package tracing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartSpan_RecordsToExporter(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	require.NoError(t, InitWithExporter("troupe-test", "0.0.0", exporter))

	ctx, parent := StartSpan(context.Background(), "crew.cycle", map[string]string{"cycle.id": "c1"})
	_, child := StartSpan(ctx, "crew.task", map[string]string{"task.id": "t1"})
	child.AddEvent("attempt")
	child.End(errors.New("boom"))
	parent.End(nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "crew.task", spans[0].Name)
	assert.Equal(t, "crew.cycle", spans[1].Name)
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
}

func TestSpan_NilSafe(t *testing.T) {
	var s *Span
	s.SetAttributes(map[string]string{"k": "v"})
	s.AddEvent("e")
	s.End(nil)
}
