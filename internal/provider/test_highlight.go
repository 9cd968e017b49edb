package provider

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/reintest/internal/annotate"
	"github.com/zjrosen/reintest/internal/cachemanager"
	"github.com/zjrosen/reintest/internal/decoration"
	"github.com/zjrosen/reintest/internal/document"
	"github.com/zjrosen/reintest/internal/host"
	"github.com/zjrosen/reintest/internal/log"
	"github.com/zjrosen/reintest/internal/tracing"
)

// TestHighlight paints test and describe invocations in test files.
type TestHighlight struct {
	mu      sync.Mutex
	enabled bool

	tests     *decoration.Slot
	describes *decoration.Slot

	patterns *annotate.LinePatterns
	scanText func(*document.Document) (annotate.PatternRanges, error)
	ranges   *cachemanager.ReadThroughCache[CacheKey, annotate.PatternRanges, *document.Document]
	ttl      time.Duration
	tracer   trace.Tracer
}

var _ Provider = (*TestHighlight)(nil)

// NewTestHighlight creates an enabled provider. Decoration types are created
// on first paint.
func NewTestHighlight(factory decoration.Factory, cfg host.Configuration, opts ...Option) *TestHighlight {
	s := newSettings(opts)
	p := &TestHighlight{
		enabled:   true,
		tests:     decoration.NewSlot(decoration.TestHighlight, factory, cfg),
		describes: decoration.NewSlot(decoration.DescHighlight, factory, cfg),
		patterns:  annotate.NewLinePatterns(s.suffixes...),
		ttl:       s.ttl,
		tracer:    s.tracer,
	}
	p.scanText = p.patterns.Annotate
	p.ranges = newRangeCache("test-ranges", s, p.scan)
	return p
}

func (p *TestHighlight) Name() string { return "test" }

// Enabled reports the toggle state.
func (p *TestHighlight) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

// Update repaints editor. A disabled provider or a non-test file paints
// empty collections.
func (p *TestHighlight) Update(ctx context.Context, editor host.Editor) {
	if editor == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paint(ctx, editor)
}

// Toggle flips the state and repaints or clears editor.
func (p *TestHighlight) Toggle(ctx context.Context, editor host.Editor) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.enabled = !p.enabled
	ctx, span := tracing.Start(ctx, p.tracer, tracing.SpanToggle,
		attribute.String(tracing.AttrAnnotator, p.Name()),
		attribute.Bool(tracing.AttrEnabled, p.enabled))
	defer tracing.End(span, nil)

	log.Info(log.CatToggle, "test highlighting toggled", "enabled", p.enabled)

	if editor != nil {
		if p.enabled {
			p.paint(ctx, editor)
		} else {
			p.clear(editor)
		}
	}
	return p.enabled
}

// OnConfigurationChange recreates both decoration types from the current
// configuration and repaints editors.
func (p *TestHighlight) OnConfigurationChange(ctx context.Context, editors []host.Editor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, span := tracing.Start(ctx, p.tracer, tracing.SpanConfigChange,
		attribute.String(tracing.AttrAnnotator, p.Name()),
		attribute.Int(tracing.AttrEditorCount, len(editors)))
	defer tracing.End(span, nil)

	p.tests.Rebuild()
	p.describes.Rebuild()
	span.AddEvent(tracing.EventRebuilt)
	log.Debug(log.CatStyle, "test decoration types rebuilt", "editors", len(editors))

	for _, editor := range editors {
		if editor != nil {
			p.paint(ctx, editor)
		}
	}
}

// Dispose releases both decoration types and drops cached ranges.
func (p *TestHighlight) Dispose() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.tests.Release()
	p.describes.Release()
	if err := p.ranges.Invalidate(context.Background()); err != nil {
		log.ErrorErr(log.CatCache, "dropping cached test ranges failed", err)
	}
}

func (p *TestHighlight) paint(ctx context.Context, editor host.Editor) {
	doc := editor.Document()
	ctx, span := tracing.Start(ctx, p.tracer, tracing.SpanUpdate,
		attribute.String(tracing.AttrAnnotator, p.Name()),
		attribute.Bool(tracing.AttrEnabled, p.enabled))
	defer tracing.End(span, nil)

	if !p.enabled || !p.patterns.Applies(doc) {
		p.clear(editor)
		return
	}

	span.SetAttributes(
		attribute.String(tracing.AttrFileName, doc.FileName()),
		attribute.Int(tracing.AttrVersion, doc.Version()))

	ranges, hit, err := p.ranges.GetWithRefresh(ctx, cacheKey("tests", doc), doc, p.ttl)
	switch {
	case errors.Is(err, annotate.ErrScanIncomplete):
		log.Warn(log.CatScan, "painting incomplete test ranges", "file", doc.FileName(), "error", err.Error())
	case err != nil:
		log.ErrorErr(log.CatScan, "computing test ranges failed", err, "file", doc.FileName())
		p.clear(editor)
		return
	}
	span.SetAttributes(attribute.Bool(tracing.AttrCacheHit, hit))

	editor.SetDecorations(p.tests.Handle(), ranges.Tests)
	editor.SetDecorations(p.describes.Handle(), ranges.Describes)
}

func (p *TestHighlight) clear(editor host.Editor) {
	editor.SetDecorations(p.tests.Handle(), []annotate.Range{})
	editor.SetDecorations(p.describes.Handle(), []annotate.Range{})
}

func (p *TestHighlight) scan(ctx context.Context, doc *document.Document) (annotate.PatternRanges, error) {
	_, span := tracing.Start(ctx, p.tracer, tracing.SpanAnnotate+"tests")
	ranges, err := p.scanText(doc)
	span.SetAttributes(attribute.Int(tracing.AttrRangeCount, len(ranges.Tests)+len(ranges.Describes)))
	tracing.End(span, err)

	log.Debug(log.CatScan, "scanned test file", "file", doc.FileName(),
		"tests", len(ranges.Tests), "describes", len(ranges.Describes))
	return ranges, err
}
