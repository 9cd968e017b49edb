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

// BlockHighlight paints regions between matching @block-start and
// @block-end comments. It applies to every file.
type BlockHighlight struct {
	mu      sync.Mutex
	enabled bool

	blocks *decoration.Slot

	markers  *annotate.Blocks
	scanText func(*document.Document) ([]annotate.Range, error)
	ranges   *cachemanager.ReadThroughCache[CacheKey, []annotate.Range, *document.Document]
	ttl      time.Duration
	tracer   trace.Tracer
}

var _ Provider = (*BlockHighlight)(nil)

// NewBlockHighlight creates an enabled provider.
func NewBlockHighlight(factory decoration.Factory, cfg host.Configuration, opts ...Option) *BlockHighlight {
	s := newSettings(opts)
	p := &BlockHighlight{
		enabled: true,
		blocks:  decoration.NewSlot(decoration.BlockHighlight, factory, cfg),
		markers: annotate.NewBlocks(),
		ttl:     s.ttl,
		tracer:  s.tracer,
	}
	p.scanText = p.markers.Annotate
	p.ranges = newRangeCache("block-ranges", s, p.scan)
	return p
}

func (p *BlockHighlight) Name() string { return "block" }

func (p *BlockHighlight) Enabled() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.enabled
}

func (p *BlockHighlight) Update(ctx context.Context, editor host.Editor) {
	if editor == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paint(ctx, editor)
}

func (p *BlockHighlight) Toggle(ctx context.Context, editor host.Editor) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.enabled = !p.enabled
	ctx, span := tracing.Start(ctx, p.tracer, tracing.SpanToggle,
		attribute.String(tracing.AttrAnnotator, p.Name()),
		attribute.Bool(tracing.AttrEnabled, p.enabled))
	defer tracing.End(span, nil)

	log.Info(log.CatToggle, "block highlighting toggled", "enabled", p.enabled)

	if editor != nil {
		if p.enabled {
			p.paint(ctx, editor)
		} else {
			editor.SetDecorations(p.blocks.Handle(), []annotate.Range{})
		}
	}
	return p.enabled
}

func (p *BlockHighlight) OnConfigurationChange(ctx context.Context, editors []host.Editor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, span := tracing.Start(ctx, p.tracer, tracing.SpanConfigChange,
		attribute.String(tracing.AttrAnnotator, p.Name()),
		attribute.Int(tracing.AttrEditorCount, len(editors)))
	defer tracing.End(span, nil)

	p.blocks.Rebuild()
	span.AddEvent(tracing.EventRebuilt)

	for _, editor := range editors {
		if editor != nil {
			p.paint(ctx, editor)
		}
	}
}

func (p *BlockHighlight) Dispose() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.blocks.Release()
	if err := p.ranges.Invalidate(context.Background()); err != nil {
		log.ErrorErr(log.CatCache, "dropping cached block ranges failed", err)
	}
}

func (p *BlockHighlight) paint(ctx context.Context, editor host.Editor) {
	ctx, span := tracing.Start(ctx, p.tracer, tracing.SpanUpdate,
		attribute.String(tracing.AttrAnnotator, p.Name()),
		attribute.Bool(tracing.AttrEnabled, p.enabled))
	defer tracing.End(span, nil)

	doc := editor.Document()
	if !p.enabled || doc == nil {
		editor.SetDecorations(p.blocks.Handle(), []annotate.Range{})
		return
	}

	span.SetAttributes(
		attribute.String(tracing.AttrFileName, doc.FileName()),
		attribute.Int(tracing.AttrVersion, doc.Version()))

	ranges, hit, err := p.ranges.GetWithRefresh(ctx, cacheKey("blocks", doc), doc, p.ttl)
	switch {
	case errors.Is(err, annotate.ErrScanIncomplete):
		log.Warn(log.CatBlock, "painting incomplete block ranges", "file", doc.FileName(), "error", err.Error())
	case err != nil:
		log.ErrorErr(log.CatBlock, "computing block ranges failed", err, "file", doc.FileName())
		ranges = []annotate.Range{}
	}
	span.SetAttributes(attribute.Bool(tracing.AttrCacheHit, hit))

	editor.SetDecorations(p.blocks.Handle(), ranges)
}

func (p *BlockHighlight) scan(ctx context.Context, doc *document.Document) ([]annotate.Range, error) {
	_, span := tracing.Start(ctx, p.tracer, tracing.SpanAnnotate+"blocks")
	ranges, err := p.scanText(doc)
	span.SetAttributes(attribute.Int(tracing.AttrRangeCount, len(ranges)))
	tracing.End(span, err)
	return ranges, err
}
