package provider

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/zjrosen/reintest/internal/annotate"
	"github.com/zjrosen/reintest/internal/decoration"
	"github.com/zjrosen/reintest/internal/document"
	"github.com/zjrosen/reintest/internal/host"
)

type fakeEditor struct {
	mu      sync.Mutex
	doc     *document.Document
	painted map[string][]annotate.Range
	types   map[string]decoration.Type
	calls   int
}

func newFakeEditor(fileName, text string) *fakeEditor {
	return &fakeEditor{
		doc:     document.New(fileName, text),
		painted: make(map[string][]annotate.Range),
		types:   make(map[string]decoration.Type),
	}
}

func (e *fakeEditor) Document() *document.Document { return e.doc }

func (e *fakeEditor) SetDecorations(t decoration.Type, ranges []annotate.Range) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	e.painted[t.Key()] = ranges
	e.types[t.Key()] = t
}

// rangesFor returns what was last painted with the live type of a color.
func (e *fakeEditor) rangesFor(color string) []annotate.Range {
	e.mu.Lock()
	defer e.mu.Unlock()
	for key, t := range e.types {
		if t.Disposed() || t.Options().BackgroundColor != color {
			continue
		}
		return e.painted[key]
	}
	return nil
}

func editors(eds ...*fakeEditor) []host.Editor {
	out := make([]host.Editor, len(eds))
	for i, e := range eds {
		out[i] = e
	}
	return out
}

type fakeConfig map[string]string

func (c fakeConfig) GetString(key, def string) string {
	if v, ok := c[key]; ok {
		return v
	}
	return def
}

// failingFlush never stores anything and refuses to flush.
type failingFlush[V any] struct{}

func (failingFlush[V]) GetWithRefresh(context.Context, CacheKey, time.Duration) (V, bool) {
	var zero V
	return zero, false
}

func (failingFlush[V]) Set(context.Context, CacheKey, V, time.Duration) {}

func (failingFlush[V]) Flush(context.Context) error { return errors.New("flush refused") }
