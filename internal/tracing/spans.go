package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys.
const (
	AttrFileName    = "document.file"
	AttrVersion     = "document.version"
	AttrAnnotator   = "annotate.name"
	AttrRangeCount  = "annotate.ranges"
	AttrCacheHit    = "annotate.cache_hit"
	AttrEnabled     = "highlight.enabled"
	AttrCommand     = "command.name"
	AttrEventKind   = "event.kind"
	AttrEditorCount = "editor.count"
)

// Span names.
const (
	SpanUpdate       = "provider.update"
	SpanToggle       = "provider.toggle"
	SpanConfigChange = "provider.config_change"
	SpanAnnotate     = "annotate."
	SpanEvent        = "extension.event"
	SpanScan         = "cli.scan"
)

// Event names.
const (
	EventRebuilt  = "decoration.rebuilt"
	EventDisposed = "decoration.disposed"
)

// Start opens a span with attrs.
func Start(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// End records err on span, if any, and ends it.
func End(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
