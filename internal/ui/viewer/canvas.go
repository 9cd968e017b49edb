// Package viewer paints a document and its decorations in the terminal.
//
// Canvas plays the editor and the window for the extension: providers paint
// ranges onto it through SetDecorations and it remembers them, in first-paint
// order, until the owning decoration type is disposed. Rendering blends the
// translucent colors of every layer covering a line onto the terminal
// background, so overlapping test, describe and block ranges stay visible.
package viewer

import (
	"sync"

	"github.com/zjrosen/reintest/internal/annotate"
	"github.com/zjrosen/reintest/internal/decoration"
	"github.com/zjrosen/reintest/internal/document"
	"github.com/zjrosen/reintest/internal/host"
	"github.com/zjrosen/reintest/internal/log"
)

// Layer is one decoration type and the ranges last painted with it.
type Layer struct {
	Type   decoration.Type
	Ranges []annotate.Range
}

// Canvas is a single-editor window.
type Canvas struct {
	mu       sync.Mutex
	doc      *document.Document
	layers   []*Layer
	messages []string
}

var (
	_ host.Editor = (*Canvas)(nil)
	_ host.Window = (*Canvas)(nil)
)

// NewCanvas opens doc in a fresh canvas.
func NewCanvas(doc *document.Document) *Canvas {
	return &Canvas{doc: doc}
}

// Document returns the current snapshot.
func (c *Canvas) Document() *document.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doc
}

// SetDocument replaces the snapshot. Painted ranges are kept until the
// providers repaint.
func (c *Canvas) SetDocument(doc *document.Document) {
	c.mu.Lock()
	c.doc = doc
	c.mu.Unlock()
}

// SetDecorations replaces the ranges painted with t.
func (c *Canvas) SetDecorations(t decoration.Type, ranges []annotate.Range) {
	if t == nil {
		return
	}
	if t.Disposed() {
		log.Warn(log.CatHost, "paint with disposed decoration type ignored", "type", t.Key())
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.pruneLocked()
	cp := append([]annotate.Range(nil), ranges...)
	for _, l := range c.layers {
		if l.Type.Key() == t.Key() {
			l.Ranges = cp
			return
		}
	}
	c.layers = append(c.layers, &Layer{Type: t, Ranges: cp})
}

// pruneLocked drops layers whose type has been disposed. The host removes
// those decorations from the editor.
func (c *Canvas) pruneLocked() {
	kept := c.layers[:0]
	for _, l := range c.layers {
		if !l.Type.Disposed() {
			kept = append(kept, l)
		}
	}
	for i := len(kept); i < len(c.layers); i++ {
		c.layers[i] = nil
	}
	c.layers = kept
}

// Layers returns a copy of the live layers in paint order.
func (c *Canvas) Layers() []Layer {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.pruneLocked()
	out := make([]Layer, 0, len(c.layers))
	for _, l := range c.layers {
		out = append(out, Layer{Type: l.Type, Ranges: append([]annotate.Range(nil), l.Ranges...)})
	}
	return out
}

// RangeCount sums the ranges over live layers.
func (c *Canvas) RangeCount() int {
	n := 0
	for _, l := range c.Layers() {
		n += len(l.Ranges)
	}
	return n
}

// ActiveEditor returns the canvas itself.
func (c *Canvas) ActiveEditor() host.Editor { return c }

// VisibleEditors returns the canvas itself.
func (c *Canvas) VisibleEditors() []host.Editor { return []host.Editor{c} }

// ShowInformationMessage queues msg for the next DrainMessages.
func (c *Canvas) ShowInformationMessage(msg string) {
	c.mu.Lock()
	c.messages = append(c.messages, msg)
	c.mu.Unlock()
	log.Info(log.CatHost, "information message", "message", msg)
}

// DrainMessages returns and clears the queued messages.
func (c *Canvas) DrainMessages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.messages
	c.messages = nil
	return out
}
