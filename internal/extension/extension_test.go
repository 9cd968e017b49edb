package extension

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/reintest/internal/annotate"
	"github.com/zjrosen/reintest/internal/decoration"
	"github.com/zjrosen/reintest/internal/document"
	"github.com/zjrosen/reintest/internal/host"
)

type fakeEditor struct {
	mu      sync.Mutex
	doc     *document.Document
	painted map[decoration.Type][]annotate.Range
}

func newFakeEditor(name, text string) *fakeEditor {
	return &fakeEditor{doc: document.New(name, text), painted: make(map[decoration.Type][]annotate.Range)}
}

func (e *fakeEditor) Document() *document.Document {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.doc
}

func (e *fakeEditor) edit(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.doc = e.doc.Edit(text)
}

func (e *fakeEditor) SetDecorations(t decoration.Type, ranges []annotate.Range) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.painted[t] = ranges
}

// live returns the ranges painted with each non-disposed type, by color.
func (e *fakeEditor) live() map[string][]annotate.Range {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make(map[string][]annotate.Range)
	for t, r := range e.painted {
		if !t.Disposed() {
			out[t.Options().BackgroundColor] = r
		}
	}
	return out
}

type fakeWindow struct {
	mu       sync.Mutex
	active   host.Editor
	visible  []host.Editor
	messages []string
}

func (w *fakeWindow) ActiveEditor() host.Editor { return w.active }

func (w *fakeWindow) VisibleEditors() []host.Editor { return w.visible }

func (w *fakeWindow) ShowInformationMessage(msg string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.messages = append(w.messages, msg)
}

func (w *fakeWindow) lastMessage() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.messages) == 0 {
		return ""
	}
	return w.messages[len(w.messages)-1]
}

type fakeConfig map[string]string

func (c fakeConfig) GetString(key, def string) string {
	if v, ok := c[key]; ok {
		return v
	}
	return def
}

const fixture = "test.describe('s', () => {\n  // @block-start:a\n  test('t', () => {});\n  // @block-end:a\n});"

var (
	testColor  = decoration.TestHighlight.Default
	descColor  = decoration.DescHighlight.Default
	blockColor = decoration.BlockHighlight.Default
)

func setup(t *testing.T, cfg fakeConfig, editors ...*fakeEditor) (*Extension, *fakeWindow, *decoration.Registry) {
	t.Helper()
	w := &fakeWindow{}
	for _, ed := range editors {
		w.visible = append(w.visible, ed)
	}
	if len(editors) > 0 {
		w.active = editors[0]
	}
	reg := decoration.NewRegistry()
	ext := New(w, reg, cfg)
	t.Cleanup(ext.Dispose)
	return ext, w, reg
}

func TestActivate_PaintsActiveEditor(t *testing.T) {
	ed := newFakeEditor("a.spec.ts", fixture)
	ext, _, reg := setup(t, fakeConfig{}, ed)

	ext.Activate(context.Background())

	live := ed.live()
	require.Equal(t, []annotate.Range{annotate.NewRange(2, 0, 2, 9)}, live[testColor])
	require.Equal(t, []annotate.Range{annotate.NewRange(0, 0, 0, 16)}, live[descColor])
	require.Equal(t, []annotate.Range{annotate.NewRange(1, 0, 3, 17)}, live[blockColor])
	require.Equal(t, 3, reg.Live())
}

func TestActivate_NoActiveEditor(t *testing.T) {
	ext, _, reg := setup(t, fakeConfig{})

	require.NotPanics(t, func() { ext.Activate(context.Background()) })
	require.Zero(t, reg.Created())
}

func TestExecuteCommand_ToggleTestHighlight(t *testing.T) {
	ed := newFakeEditor("a.spec.ts", fixture)
	ext, w, _ := setup(t, fakeConfig{}, ed)
	ext.Activate(context.Background())

	require.NoError(t, ext.ExecuteCommand(context.Background(), CommandToggleTestHighlight))
	require.Equal(t, "Reintest test highlighting is now disabled.", w.lastMessage())
	require.Empty(t, ed.live()[testColor])
	require.Empty(t, ed.live()[descColor])
	require.NotEmpty(t, ed.live()[blockColor], "block highlighting is independent")

	require.NoError(t, ext.ExecuteCommand(context.Background(), CommandToggleTestHighlight))
	require.Equal(t, "Reintest test highlighting is now enabled.", w.lastMessage())
	require.Equal(t, []annotate.Range{annotate.NewRange(2, 0, 2, 9)}, ed.live()[testColor])
}

func TestExecuteCommand_ToggleBlockHighlight(t *testing.T) {
	ed := newFakeEditor("a.spec.ts", fixture)
	ext, w, _ := setup(t, fakeConfig{}, ed)
	ext.Activate(context.Background())

	require.NoError(t, ext.ExecuteCommand(context.Background(), CommandToggleBlockHighlight))

	require.Equal(t, "Reintest block highlighting is now disabled.", w.lastMessage())
	require.Empty(t, ed.live()[blockColor])
	require.NotEmpty(t, ed.live()[testColor])
}

func TestExecuteCommand_NoActiveEditorStillAnnounces(t *testing.T) {
	ext, w, _ := setup(t, fakeConfig{})

	require.NoError(t, ext.ExecuteCommand(context.Background(), CommandToggleTestHighlight))
	require.Equal(t, "Reintest test highlighting is now disabled.", w.lastMessage())
}

func TestExecuteCommand_Unknown(t *testing.T) {
	ext, w, _ := setup(t, fakeConfig{})

	err := ext.ExecuteCommand(context.Background(), "reintest.nope")
	require.ErrorIs(t, err, ErrUnknownCommand)
	require.Empty(t, w.messages)
}

func TestCommands(t *testing.T) {
	ext, _, _ := setup(t, fakeConfig{})

	require.Equal(t, []string{CommandToggleBlockHighlight, CommandToggleTestHighlight}, ext.Commands())
}

func TestHandle_ActiveEditorChanged(t *testing.T) {
	first := newFakeEditor("a.spec.ts", fixture)
	second := newFakeEditor("b.spec.ts", "test('b', () => {});")
	ext, w, _ := setup(t, fakeConfig{}, first, second)

	w.active = second
	require.NoError(t, ext.Handle(context.Background(), host.Event{Kind: host.ActiveEditorChanged, Editor: second}))

	require.Equal(t, []annotate.Range{annotate.NewRange(0, 0, 0, 7)}, second.live()[testColor])
	require.Empty(t, first.live())
}

func TestHandle_ActiveEditorChangedToNone(t *testing.T) {
	ext, _, reg := setup(t, fakeConfig{})

	require.NoError(t, ext.Handle(context.Background(), host.Event{Kind: host.ActiveEditorChanged}))
	require.Zero(t, reg.Created())
}

func TestHandle_TextChangedOnlyRepaintsActive(t *testing.T) {
	active := newFakeEditor("a.spec.ts", fixture)
	other := newFakeEditor("b.spec.ts", "test('b', () => {});")
	ext, _, _ := setup(t, fakeConfig{}, active, other)
	ext.Activate(context.Background())

	require.NoError(t, ext.Handle(context.Background(), host.Event{Kind: host.TextChanged, Editor: other}))
	require.Empty(t, other.live())

	active.edit("test('only', () => {});")
	require.NoError(t, ext.Handle(context.Background(), host.Event{Kind: host.TextChanged, Editor: active}))
	require.Equal(t, []annotate.Range{annotate.NewRange(0, 0, 0, 10)}, active.live()[testColor])
	require.Empty(t, active.live()[blockColor])
}

func TestHandle_ConfigurationChanged(t *testing.T) {
	a := newFakeEditor("a.spec.ts", fixture)
	b := newFakeEditor("b.ts", "// @block-start:x\n// @block-end:x")
	cfg := fakeConfig{}
	ext, _, reg := setup(t, cfg, a, b)
	ext.Activate(context.Background())

	cfg["reintest.blockHighlightColor"] = "#00ff00"
	require.NoError(t, ext.Handle(context.Background(), host.Event{
		Kind: host.ConfigurationChanged,
		Keys: []string{"reintest.blockHighlightColor"},
	}))

	require.Equal(t, 3, reg.Live())
	require.Equal(t, 6, reg.Created(), "every type is rebuilt")
	require.Equal(t, []annotate.Range{annotate.NewRange(1, 0, 3, 17)}, a.live()["#00ff00"])
	require.Equal(t, []annotate.Range{annotate.NewRange(0, 0, 1, 15)}, b.live()["#00ff00"])
}

func TestHandle_ConfigurationChangedOtherSection(t *testing.T) {
	ed := newFakeEditor("a.spec.ts", fixture)
	ext, _, reg := setup(t, fakeConfig{}, ed)
	ext.Activate(context.Background())

	require.NoError(t, ext.Handle(context.Background(), host.Event{
		Kind: host.ConfigurationChanged,
		Keys: []string{"editor.fontSize"},
	}))

	require.Equal(t, 3, reg.Created())
}

func TestHandle_CommandInvoked(t *testing.T) {
	ext, w, _ := setup(t, fakeConfig{})

	require.NoError(t, ext.Handle(context.Background(), host.Event{Kind: host.CommandInvoked, Command: CommandToggleBlockHighlight}))
	require.Equal(t, "Reintest block highlighting is now disabled.", w.lastMessage())

	err := ext.Handle(context.Background(), host.Event{Kind: host.CommandInvoked, Command: "bogus"})
	require.ErrorIs(t, err, ErrUnknownCommand)
}

func TestDispose_ReleasesEverything(t *testing.T) {
	ed := newFakeEditor("a.spec.ts", fixture)
	ext, _, reg := setup(t, fakeConfig{}, ed)
	ext.Activate(context.Background())

	ext.Dispose()

	require.Zero(t, reg.Live())
}

func TestDispatcher_SerializesEvents(t *testing.T) {
	ed := newFakeEditor("a.spec.ts", fixture)
	ext, w, _ := setup(t, fakeConfig{}, ed)

	var mu sync.Mutex
	var handled []host.EventKind
	d := NewDispatcher(ext, func(ev host.Event, err error) {
		mu.Lock()
		defer mu.Unlock()
		handled = append(handled, ev.Kind)
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Post(host.Event{Kind: host.DocumentOpened, Editor: ed})
	d.Post(host.Event{Kind: host.CommandInvoked, Command: CommandToggleTestHighlight})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(handled) == 2
	}, time.Second, 5*time.Millisecond)
	d.Close()

	require.Equal(t, []host.EventKind{host.DocumentOpened, host.CommandInvoked}, handled)
	require.Equal(t, "Reintest test highlighting is now disabled.", w.lastMessage())
	require.Empty(t, ed.live()[testColor])
	require.NotEmpty(t, ed.live()[blockColor])
}

func TestDispatcher_StopsOnCancel(t *testing.T) {
	ext, _, _ := setup(t, fakeConfig{})
	d := NewDispatcher(ext, nil)
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	cancel()

	done := make(chan struct{})
	go func() {
		d.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop")
	}
}

func TestDispatcher_CoalescesEventsWhenQueueIsFull(t *testing.T) {
	ed := newFakeEditor("a.spec.ts", fixture)
	latest := newFakeEditor("b.spec.ts", fixture)
	ext, _, _ := setup(t, fakeConfig{}, ed)

	gate := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once
	var mu sync.Mutex
	var handled []host.Event
	d := NewDispatcher(ext, func(ev host.Event, _ error) {
		once.Do(func() {
			close(started)
			<-gate
		})
		mu.Lock()
		defer mu.Unlock()
		handled = append(handled, ev)
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Post(host.Event{Kind: host.DocumentOpened, Editor: ed})
	<-started
	for range 64 {
		d.Post(host.Event{Kind: host.TextChanged, Editor: ed})
	}
	d.Post(host.Event{Kind: host.ConfigurationChanged, Keys: []string{"ui.mode"}})
	d.Post(host.Event{Kind: host.TextChanged, Editor: latest})
	d.Post(host.Event{Kind: host.ConfigurationChanged, Keys: []string{"reintest.testHighlightColor", "ui.mode"}})
	close(gate)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(handled) == 67
	}, 2*time.Second, 5*time.Millisecond)
	d.Close()

	tail := handled[len(handled)-2:]
	require.Equal(t, host.ConfigurationChanged, tail[0].Kind)
	require.Equal(t, []string{"reintest.testHighlightColor", "ui.mode"}, tail[0].Keys)
	require.Equal(t, host.TextChanged, tail[1].Kind)
	require.Same(t, latest, tail[1].Editor)
}

func TestDispatcher_RememberMergesConfigurationKeys(t *testing.T) {
	ext, _, _ := setup(t, fakeConfig{})
	d := NewDispatcher(ext, nil)

	d.remember(host.Event{Kind: host.ConfigurationChanged, Keys: []string{"b"}})
	d.remember(host.Event{Kind: host.ConfigurationChanged, Keys: []string{"a", "b"}})
	require.Equal(t, []host.Event{{Kind: host.ConfigurationChanged, Keys: []string{"a", "b"}}}, d.takeMissed())

	d.remember(host.Event{Kind: host.ConfigurationChanged, Keys: []string{"a"}})
	d.remember(host.Event{Kind: host.ConfigurationChanged})
	require.Nil(t, d.takeMissed()[0].Keys)
	require.Nil(t, d.takeMissed())
}
