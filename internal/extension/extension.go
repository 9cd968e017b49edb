// Package extension binds the highlight providers to a host: it routes host
// events to the providers and exposes the toggle commands.
package extension

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/reintest/internal/decoration"
	"github.com/zjrosen/reintest/internal/host"
	"github.com/zjrosen/reintest/internal/log"
	"github.com/zjrosen/reintest/internal/provider"
	"github.com/zjrosen/reintest/internal/tracing"
)

// Command names registered by Activate.
const (
	CommandToggleTestHighlight  = "reintest.toggleTestHighlight"
	CommandToggleBlockHighlight = "reintest.toggleBlockHighlight"
)

// ErrUnknownCommand is returned by ExecuteCommand for unregistered names.
var ErrUnknownCommand = errors.New("unknown command")

// Command runs against the active editor and returns the message to show.
type Command func(ctx context.Context, editor host.Editor) string

// Extension owns one provider per highlighting concern for its lifetime.
type Extension struct {
	window   host.Window
	tests    *provider.TestHighlight
	blocks   *provider.BlockHighlight
	commands map[string]Command
	tracer   trace.Tracer

	providerOpts []provider.Option
}

// Option configures an Extension.
type Option func(*Extension)

// WithTracer records a span per handled event. The same tracer is handed
// to the providers.
func WithTracer(t trace.Tracer) Option {
	return func(e *Extension) {
		if t != nil {
			e.tracer = t
		}
	}
}

// WithProviderOptions passes options to both providers.
func WithProviderOptions(opts ...provider.Option) Option {
	return func(e *Extension) {
		e.providerOpts = append(e.providerOpts, opts...)
	}
}

// New creates an extension with both providers enabled.
func New(window host.Window, factory decoration.Factory, cfg host.Configuration, opts ...Option) *Extension {
	e := &Extension{
		window:   window,
		commands: make(map[string]Command),
		tracer:   noop.NewTracerProvider().Tracer("noop"),
	}
	for _, opt := range opts {
		opt(e)
	}
	providerOpts := append([]provider.Option{provider.WithTracer(e.tracer)}, e.providerOpts...)
	e.tests = provider.NewTestHighlight(factory, cfg, providerOpts...)
	e.blocks = provider.NewBlockHighlight(factory, cfg, providerOpts...)

	e.commands[CommandToggleTestHighlight] = e.toggleCommand(e.tests)
	e.commands[CommandToggleBlockHighlight] = e.toggleCommand(e.blocks)
	return e
}

// ToggleMessage is the notification shown after toggling p.
func ToggleMessage(p provider.Provider, enabled bool) string {
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	return fmt.Sprintf("Reintest %s highlighting is now %s.", p.Name(), state)
}

func (e *Extension) toggleCommand(p provider.Provider) Command {
	return func(ctx context.Context, editor host.Editor) string {
		return ToggleMessage(p, p.Toggle(ctx, editor))
	}
}

// Providers returns the providers in paint order.
func (e *Extension) Providers() []provider.Provider {
	return []provider.Provider{e.tests, e.blocks}
}

// Commands lists registered command names, sorted.
func (e *Extension) Commands() []string {
	names := make([]string, 0, len(e.commands))
	for name := range e.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Activate paints the active editor, if any.
func (e *Extension) Activate(ctx context.Context) {
	log.Info(log.CatHost, "extension activated", "commands", len(e.commands))
	if editor := e.window.ActiveEditor(); editor != nil {
		e.update(ctx, editor)
	}
}

// Handle routes one host event.
func (e *Extension) Handle(ctx context.Context, ev host.Event) (err error) {
	ctx, span := tracing.Start(ctx, e.tracer, tracing.SpanEvent,
		attribute.String(tracing.AttrEventKind, string(ev.Kind)))
	defer func() { tracing.End(span, err) }()

	switch ev.Kind {
	case host.ConfigurationChanged:
		if !ev.AffectsConfiguration(decoration.Section) {
			log.Debug(log.CatConfig, "configuration change ignored", "keys", ev.Keys)
			return nil
		}
		editors := e.window.VisibleEditors()
		for _, p := range e.Providers() {
			p.OnConfigurationChange(ctx, editors)
		}
		log.Info(log.CatConfig, "decoration types rebuilt", "keys", ev.Keys, "editors", len(editors))

	case host.ActiveEditorChanged, host.DocumentOpened:
		if ev.Editor != nil {
			e.update(ctx, ev.Editor)
		}

	case host.TextChanged:
		active := e.window.ActiveEditor()
		if active != nil && sameDocument(active, ev.Editor) {
			e.update(ctx, active)
		}

	case host.CommandInvoked:
		span.SetAttributes(attribute.String(tracing.AttrCommand, ev.Command))
		return e.ExecuteCommand(ctx, ev.Command)

	default:
		log.Warn(log.CatHost, "unhandled event", "kind", ev.Kind)
	}
	return nil
}

// ExecuteCommand runs a registered command against the active editor and
// shows its message.
func (e *Extension) ExecuteCommand(ctx context.Context, name string) error {
	cmd, ok := e.commands[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	msg := cmd(ctx, e.window.ActiveEditor())
	e.window.ShowInformationMessage(msg)
	log.Debug(log.CatHost, "command executed", "command", name)
	return nil
}

// Dispose releases every decoration type.
func (e *Extension) Dispose() {
	for _, p := range e.Providers() {
		p.Dispose()
	}
	log.Info(log.CatHost, "extension disposed")
}

func (e *Extension) update(ctx context.Context, editor host.Editor) {
	for _, p := range e.Providers() {
		p.Update(ctx, editor)
	}
}

func sameDocument(a, b host.Editor) bool {
	if a == nil || b == nil {
		return false
	}
	if a == b {
		return true
	}
	da, db := a.Document(), b.Document()
	return da != nil && db != nil && da.FileName() == db.FileName()
}
