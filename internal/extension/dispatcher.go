package extension

import (
	"context"
	"slices"
	"sync"

	"github.com/zjrosen/reintest/internal/host"
	"github.com/zjrosen/reintest/internal/log"
	"github.com/zjrosen/reintest/internal/pubsub"
)

// Dispatcher feeds host events from any goroutine into an Extension one at
// a time.
//
// Post never blocks. When the queue is full, editor and configuration events
// are coalesced per kind (the latest editor event wins, configuration keys
// are merged) and handled once the queue drains, so the last change is never
// lost. Dropped commands are only logged.
type Dispatcher struct {
	ext    *Extension
	broker *pubsub.Broker[host.Event]

	// afterHandle runs on the dispatch goroutine after every event.
	afterHandle func(host.Event, error)

	mu     sync.Mutex
	missed map[host.EventKind]host.Event

	wg sync.WaitGroup
}

// replayOrder fixes the order in which coalesced events are handled:
// configuration first so repaints use the new colors.
var replayOrder = []host.EventKind{
	host.ConfigurationChanged,
	host.DocumentOpened,
	host.ActiveEditorChanged,
	host.TextChanged,
}

// NewDispatcher creates a dispatcher with its own broker.
func NewDispatcher(ext *Extension, afterHandle func(host.Event, error)) *Dispatcher {
	return &Dispatcher{
		ext:         ext,
		broker:      pubsub.NewBroker[host.Event](),
		afterHandle: afterHandle,
		missed:      make(map[host.EventKind]host.Event),
	}
}

// Start subscribes and begins dispatching until ctx is done or Close is
// called. Events posted before Start are dropped.
func (d *Dispatcher) Start(ctx context.Context) {
	ch := d.broker.Subscribe(ctx)
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for evt := range ch {
			d.handle(ctx, evt.Payload)
			if len(ch) == 0 {
				for _, ev := range d.takeMissed() {
					d.handle(ctx, ev)
				}
			}
		}
	}()
}

func (d *Dispatcher) handle(ctx context.Context, ev host.Event) {
	err := d.ext.Handle(ctx, ev)
	if err != nil {
		log.ErrorErr(log.CatHost, "event handling failed", err, "kind", ev.Kind)
	}
	if d.afterHandle != nil {
		d.afterHandle(ev, err)
	}
}

// Post queues an event without blocking.
func (d *Dispatcher) Post(ev host.Event) {
	eventType := pubsub.ChangedEvent
	if ev.Kind == host.CommandInvoked {
		eventType = pubsub.CommandEvent
	}
	if d.broker.Publish(eventType, ev) == 0 {
		return
	}
	if ev.Kind == host.CommandInvoked {
		log.Warn(log.CatHost, "event queue full, command dropped", "command", ev.Command)
		return
	}
	log.Warn(log.CatHost, "event queue full, coalescing", "kind", ev.Kind)
	d.remember(ev)
}

func (d *Dispatcher) remember(ev host.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()

	prev, ok := d.missed[ev.Kind]
	if ok && ev.Kind == host.ConfigurationChanged {
		// no keys means every key changed
		if len(prev.Keys) == 0 || len(ev.Keys) == 0 {
			ev.Keys = nil
		} else {
			keys := slices.Concat(prev.Keys, ev.Keys)
			slices.Sort(keys)
			ev.Keys = slices.Compact(keys)
		}
	}
	d.missed[ev.Kind] = ev
}

func (d *Dispatcher) takeMissed() []host.Event {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(d.missed) == 0 {
		return nil
	}
	out := make([]host.Event, 0, len(d.missed))
	for _, kind := range replayOrder {
		if ev, ok := d.missed[kind]; ok {
			out = append(out, ev)
		}
	}
	clear(d.missed)
	return out
}

// Close stops dispatching and waits for the in-flight event.
func (d *Dispatcher) Close() {
	d.broker.Close()
	d.wg.Wait()
}
