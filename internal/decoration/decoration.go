// Package decoration describes how highlight ranges are painted and manages
// the lifetime of the host handles ("decoration types") that carry a style.
package decoration

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/zjrosen/reintest/internal/log"
)

// DefaultBorderRadius is applied to every decoration type reintest creates.
const DefaultBorderRadius = "2px"

// Options describes how a decoration type paints a range.
type Options struct {
	BackgroundColor string
	IsWholeLine     bool
	BorderRadius    string
}

// Type is a host resource that paints ranges with one style. A disposed
// Type must not be painted with again.
type Type interface {
	Key() string
	Options() Options
	Dispose()
	Disposed() bool
}

// Factory creates decoration types.
type Factory interface {
	CreateDecorationType(opts Options) Type
}

// handle is the in-memory Type produced by Registry.
type handle struct {
	key      string
	opts     Options
	registry *Registry

	mu       sync.Mutex
	disposed bool
}

func (h *handle) Key() string      { return h.key }
func (h *handle) Options() Options { return h.opts }

func (h *handle) Dispose() {
	h.mu.Lock()
	already := h.disposed
	h.disposed = true
	h.mu.Unlock()

	if !already && h.registry != nil {
		h.registry.forget(h.key)
	}
}

func (h *handle) Disposed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.disposed
}

func (h *handle) String() string {
	return fmt.Sprintf("decoration(%s %s)", h.key[:8], h.opts.BackgroundColor)
}

// Registry is an in-memory Factory that tracks live decoration types.
type Registry struct {
	mu      sync.Mutex
	live    map[string]Type
	created int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{live: make(map[string]Type)}
}

// CreateDecorationType allocates a new live Type with a fresh key.
func (r *Registry) CreateDecorationType(opts Options) Type {
	h := &handle{key: uuid.NewString(), opts: opts, registry: r}

	r.mu.Lock()
	r.live[h.key] = h
	r.created++
	r.mu.Unlock()

	log.Debug(log.CatStyle, "created decoration type", "key", h.key, "color", opts.BackgroundColor)
	return h
}

func (r *Registry) forget(key string) {
	r.mu.Lock()
	delete(r.live, key)
	r.mu.Unlock()

	log.Debug(log.CatStyle, "disposed decoration type", "key", key)
}

// Live returns the number of types created and not yet disposed.
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}

// Created returns the number of types ever created.
func (r *Registry) Created() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.created
}

// IsLive reports whether t was created by this registry and not disposed.
func (r *Registry) IsLive(t Type) bool {
	if t == nil {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.live[t.Key()]
	return ok
}
