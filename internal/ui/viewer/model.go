package viewer

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/reintest/internal/document"
	"github.com/zjrosen/reintest/internal/extension"
	"github.com/zjrosen/reintest/internal/host"
	"github.com/zjrosen/reintest/internal/keys"
	"github.com/zjrosen/reintest/internal/log"
	"github.com/zjrosen/reintest/internal/pubsub"
)

// Options configures a viewer Model.
type Options struct {
	// Path is the file shown; Reload reads it again.
	Path   string
	Render RenderOptions

	// FileChanges delivers the path of the shown file each time it changes on
	// disk. ConfigChanges delivers changed configuration keys after the
	// configuration has been reloaded. Both are optional.
	FileChanges   <-chan string
	ConfigChanges <-chan []string

	// ShowLog tails the debug log in the status bar.
	ShowLog bool

	// ReadFile defaults to os.ReadFile.
	ReadFile      func(path string) ([]byte, error)
	ToastDuration time.Duration
}

// Messages driving the model.
type (
	fileChangedMsg   struct{ path string }
	configChangedMsg struct{ keys []string }
	fileLoadedMsg    struct {
		text string
		err  error
	}
)

// Model is the Bubble Tea model of the viewer.
type Model struct {
	ctx    context.Context
	ext    *extension.Extension
	canvas *Canvas
	opts   Options

	keys     keys.KeyMap
	help     help.Model
	viewport viewport.Model
	toast    toast

	logs    *pubsub.ContinuousListener[string]
	lastLog string

	width, height int
	ready         bool
}

// New creates a viewer over canvas. The extension must have been created
// with canvas as its window.
func New(ctx context.Context, ext *extension.Extension, canvas *Canvas, opts Options) Model {
	if opts.ReadFile == nil {
		opts.ReadFile = os.ReadFile
	}
	if opts.ToastDuration <= 0 {
		opts.ToastDuration = DefaultToastDuration
	}
	m := Model{
		ctx:      ctx,
		ext:      ext,
		canvas:   canvas,
		opts:     opts,
		keys:     keys.DefaultKeyMap(),
		help:     help.New(),
		viewport: viewport.New(0, 0),
	}
	if opts.ShowLog {
		m.logs = log.Listen(ctx)
	}
	return m
}

// Init starts the listeners.
func (m Model) Init() tea.Cmd {
	var cmds []tea.Cmd
	if m.opts.FileChanges != nil {
		cmds = append(cmds, waitForFile(m.opts.FileChanges))
	}
	if m.opts.ConfigChanges != nil {
		cmds = append(cmds, waitForConfig(m.opts.ConfigChanges))
	}
	if m.logs != nil {
		cmds = append(cmds, m.logs.Listen())
	}
	return tea.Batch(cmds...)
}

func waitForFile(ch <-chan string) tea.Cmd {
	return func() tea.Msg {
		p, ok := <-ch
		if !ok {
			return nil
		}
		return fileChangedMsg{path: p}
	}
}

func waitForConfig(ch <-chan []string) tea.Cmd {
	return func() tea.Msg {
		changed, ok := <-ch
		if !ok {
			return nil
		}
		return configChangedMsg{keys: changed}
	}
}

func (m Model) loadFile() tea.Cmd {
	read, path := m.opts.ReadFile, m.opts.Path
	return func() tea.Msg {
		data, err := read(path)
		if err != nil {
			return fileLoadedMsg{err: err}
		}
		return fileLoadedMsg{text: string(data)}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.layout()
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case fileChangedMsg:
		log.Debug(log.CatWatcher, "shown file changed", "path", msg.path)
		return m, tea.Batch(m.loadFile(), waitForFile(m.opts.FileChanges))

	case fileLoadedMsg:
		if msg.err != nil {
			log.ErrorErr(log.CatWatcher, "reloading file failed", msg.err, "path", m.opts.Path)
			m.toast = m.toast.show("Reload failed: "+msg.err.Error(), true)
			return m, m.toast.scheduleDismiss(m.opts.ToastDuration)
		}
		return m.applyText(msg.text)

	case configChangedMsg:
		m.handle(host.Event{Kind: host.ConfigurationChanged, Keys: msg.keys})
		m.refresh()
		return m, waitForConfig(m.opts.ConfigChanges)

	case pubsub.Event[string]:
		m.lastLog = msg.Payload
		if m.logs == nil {
			return m, nil
		}
		return m, m.logs.Listen()

	case dismissToastMsg:
		m.toast = m.toast.dismiss(msg.seq)
		return m, nil
	}
	return m, nil
}

func (m Model) applyText(text string) (tea.Model, tea.Cmd) {
	doc := m.canvas.Document()
	switch {
	case doc == nil:
		m.canvas.SetDocument(document.New(m.opts.Path, text))
	case doc.Text() == text:
		return m, nil
	default:
		m.canvas.SetDocument(doc.Edit(text))
	}
	m.handle(host.Event{Kind: host.TextChanged, Editor: m.canvas})
	m.refresh()
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.ToggleTests):
		return m.runCommand(extension.CommandToggleTestHighlight)
	case key.Matches(msg, m.keys.ToggleBlocks):
		return m.runCommand(extension.CommandToggleBlockHighlight)
	case key.Matches(msg, m.keys.Reload):
		return m, m.loadFile()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layout()
		return m, nil
	case key.Matches(msg, m.keys.Up):
		m.viewport.ScrollUp(1)
	case key.Matches(msg, m.keys.Down):
		m.viewport.ScrollDown(1)
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.PageUp()
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.PageDown()
	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if msg.Button == tea.MouseButtonLeft && msg.Action == tea.MouseActionRelease {
		if z := zone.Get(zoneToggleTests); z != nil && z.InBounds(msg) {
			return m.runCommand(extension.CommandToggleTestHighlight)
		}
		if z := zone.Get(zoneToggleBlocks); z != nil && z.InBounds(msg) {
			return m.runCommand(extension.CommandToggleBlockHighlight)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) runCommand(name string) (tea.Model, tea.Cmd) {
	m.handle(host.Event{Kind: host.CommandInvoked, Command: name})
	m.refresh()

	msgs := m.canvas.DrainMessages()
	if len(msgs) == 0 {
		return m, nil
	}
	m.toast = m.toast.show(msgs[len(msgs)-1], false)
	return m, m.toast.scheduleDismiss(m.opts.ToastDuration)
}

func (m Model) handle(ev host.Event) {
	if err := m.ext.Handle(m.ctx, ev); err != nil {
		log.ErrorErr(log.CatHost, "event failed", err, "kind", ev.Kind)
	}
}

// layout sizes the viewport to what the status bar and help leave over.
func (m *Model) layout() {
	if !m.ready {
		return
	}
	m.help.Width = m.width
	chrome := 1 + lipgloss.Height(m.help.View(m.keys))
	m.viewport.Width = m.width
	m.viewport.Height = max(m.height-chrome, 1)
}

// refresh re-renders the canvas into the viewport.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	opts := m.opts.Render
	opts.Width = m.width
	m.viewport.SetContent(strings.Join(Render(m.canvas, opts), "\n"))
}

func (m Model) providerEnabled(name string) bool {
	for _, p := range m.ext.Providers() {
		if p.Name() == name {
			return p.Enabled()
		}
	}
	return false
}

// View renders the model.
func (m Model) View() string {
	if !m.ready {
		return "loading…"
	}
	info := statusInfo{
		tests:  m.providerEnabled("test"),
		blocks: m.providerEnabled("block"),
		ranges: m.canvas.RangeCount(),
	}
	if doc := m.canvas.Document(); doc != nil {
		info.fileName = doc.FileName()
		info.version = doc.Version()
	}
	if m.opts.ShowLog {
		info.logLine = m.lastLog
	}

	view := lipgloss.JoinVertical(lipgloss.Left,
		m.viewport.View(),
		renderStatus(info, m.width),
		m.help.View(m.keys),
	)
	view = m.toast.overlay(view, m.width, m.height, 2)
	return zone.Scan(view)
}
