// Package provider keeps one highlighting concern (test invocations or
// marker blocks) painted on editors: it owns the on/off state, the style
// slots and a cache of computed ranges.
package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/reintest/internal/annotate"
	"github.com/zjrosen/reintest/internal/cachemanager"
	"github.com/zjrosen/reintest/internal/document"
	"github.com/zjrosen/reintest/internal/host"
)

// Provider is implemented by TestHighlight and BlockHighlight.
type Provider interface {
	Name() string
	Update(ctx context.Context, editor host.Editor)
	Toggle(ctx context.Context, editor host.Editor) bool
	Enabled() bool
	OnConfigurationChange(ctx context.Context, editors []host.Editor)
	Dispose()
}

// CacheKey identifies computed ranges: annotator, file name and text hash.
type CacheKey string

func cacheKey(annotator string, doc *document.Document) CacheKey {
	return CacheKey(fmt.Sprintf("%s|%s|%016x", annotator, doc.FileName(), xxhash.Sum64String(doc.Text())))
}

// DefaultCacheTTL bounds how long ranges for a text stay cached.
const DefaultCacheTTL = 5 * time.Minute

type settings struct {
	tracer    trace.Tracer
	ttl       time.Duration
	skipCache bool
	suffixes  []string
}

// Option configures a provider.
type Option func(*settings)

// WithTracer records a span per pass.
func WithTracer(t trace.Tracer) Option {
	return func(s *settings) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithCacheTTL sets how long computed ranges stay cached.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *settings) { s.ttl = ttl }
}

// WithoutCache recomputes ranges on every pass.
func WithoutCache() Option {
	return func(s *settings) { s.skipCache = true }
}

// WithTestFileSuffixes replaces the file name suffixes that mark a test file.
// Only TestHighlight uses it.
func WithTestFileSuffixes(suffixes ...string) Option {
	return func(s *settings) { s.suffixes = suffixes }
}

func newSettings(opts []Option) settings {
	s := settings{
		tracer:   noop.NewTracerProvider().Tracer("noop"),
		ttl:      DefaultCacheTTL,
		suffixes: annotate.DefaultTestFileSuffixes,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func newRangeCache[V any](name string, s settings, fn func(ctx context.Context, doc *document.Document) (V, error)) *cachemanager.ReadThroughCache[CacheKey, V, *document.Document] {
	return cachemanager.NewReadThroughCache[CacheKey, V, *document.Document](
		cachemanager.NewInMemoryCacheManager[CacheKey, V](name, s.ttl, cachemanager.DefaultCleanupInterval),
		fn,
		s.skipCache,
	)
}
