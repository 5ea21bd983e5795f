package switchyard

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name of the default tracer.
const TracerName = "github.com/augustoroman/switchyard"

func defaultTracer() trace.Tracer { return otel.Tracer(TracerName) }

// startSpan opens the dispatch span of one request.
func startSpan(ctx context.Context, tracer trace.Tracer, t Target) (context.Context, trace.Span) {
	kind := trace.SpanKindServer
	if t.Type == Console {
		kind = trace.SpanKindInternal
	}
	return tracer.Start(ctx, "switchyard.dispatch",
		trace.WithSpanKind(kind),
		trace.WithAttributes(
			attribute.String("switchyard.method", t.Method),
			attribute.String("switchyard.path", t.Path),
			attribute.String("switchyard.request_type", string(t.Type)),
		),
	)
}

// endSpan records the matched route and the outcome, then ends span.
func endSpan(span trace.Span, c *Context, err error) {
	if r := c.Route(); r != nil {
		span.SetAttributes(
			attribute.String("switchyard.route", r.domain+r.uri),
			attribute.String("switchyard.action", r.action.String()),
			attribute.Bool("switchyard.not_found", c.Match.NotFound),
		)
	}
	span.SetAttributes(attribute.Int("switchyard.status_code", c.Response.StatusCode()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
