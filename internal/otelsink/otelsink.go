// Package otelsink implements workspace.Tracer on top of OpenTelemetry.
package otelsink

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tsworkspace/wsmanager/internal/workspace"
)

type tracer struct {
	tr trace.Tracer
}

// New wraps the named tracer from the global OTel provider as a
// workspace.Tracer. Call otel.SetTracerProvider before constructing this
// if you want spans to go anywhere other than the no-op default.
func New(name string) workspace.Tracer {
	return &tracer{tr: otel.Tracer(name)}
}

func (t *tracer) Start(ctx context.Context, name string) (context.Context, workspace.Span) {
	ctx, span := t.tr.Start(ctx, name)
	return ctx, &otelSpan{span: span}
}

type otelSpan struct {
	span trace.Span
}

func (s *otelSpan) Tag(key string, value any) {
	s.span.SetAttributes(attribute.String(key, toString(value)))
}

func (s *otelSpan) End() {
	s.span.End()
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
