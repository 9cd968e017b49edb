package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/muesli/termenv"

	"github.com/zjrosen/reintest/internal/decoration"
	"github.com/zjrosen/reintest/internal/document"
	"github.com/zjrosen/reintest/internal/extension"
	"github.com/zjrosen/reintest/internal/flags"
	"github.com/zjrosen/reintest/internal/host"
	"github.com/zjrosen/reintest/internal/log"
	"github.com/zjrosen/reintest/internal/provider"
	"github.com/zjrosen/reintest/internal/tracing"
	"github.com/zjrosen/reintest/internal/ui/viewer"
)

// session is one opened file with its extension and decoration registry.
type session struct {
	path     string
	tracer   *tracing.Provider
	registry *decoration.Registry
	canvas   *viewer.Canvas
	ext      *extension.Extension
}

// openSession reads path and activates an extension over it.
func openSession(ctx context.Context, path string) (*session, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: user-supplied file to view
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	tp, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("starting tracing: %w", err)
	}

	s := &session{
		path:     path,
		tracer:   tp,
		registry: decoration.NewRegistry(),
		canvas:   viewer.NewCanvas(document.New(path, string(data))),
	}
	s.ext = extension.New(s.canvas, s.registry, configuration(),
		extension.WithTracer(tp.Tracer()),
		extension.WithProviderOptions(providerOptions()...),
	)
	s.ext.Activate(ctx)
	return s, nil
}

func configuration() host.Configuration {
	if store == nil {
		return defaultsOnly{}
	}
	return store
}

// defaultsOnly answers every lookup with the default.
type defaultsOnly struct{}

func (defaultsOnly) GetString(_, def string) string { return def }

func providerOptions() []provider.Option {
	var opts []provider.Option
	if !features.Enabled(flags.FlagRangeCache) {
		opts = append(opts, provider.WithoutCache())
	} else if cfg.CacheTTL > 0 {
		opts = append(opts, provider.WithCacheTTL(cfg.CacheTTL))
	}
	if len(cfg.TestFileSuffixes) > 0 {
		opts = append(opts, provider.WithTestFileSuffixes(cfg.TestFileSuffixes...))
	}
	return opts
}

// refreshDocument re-reads the file and installs the next document version.
// It reports false when the text did not change.
func (s *session) refreshDocument() (bool, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", s.path, err)
	}
	doc := s.canvas.Document()
	if doc.Text() == string(data) {
		return false, nil
	}
	s.canvas.SetDocument(doc.Edit(string(data)))
	return true, nil
}

func (s *session) close() {
	s.ext.Dispose()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.tracer.Shutdown(ctx); err != nil {
		log.ErrorErr(log.CatTrace, "tracing shutdown failed", err)
	}
}

func renderOptions(width int) viewer.RenderOptions {
	return viewer.RenderOptions{
		Width:       width,
		Dark:        darkBackground(),
		LineNumbers: cfg.UI.LineNumbers,
		TabWidth:    cfg.UI.TabWidth,
	}
}

// darkBackground honors ui.mode and otherwise asks the terminal.
func darkBackground() bool {
	switch cfg.UI.Mode {
	case "dark":
		return true
	case "light":
		return false
	default:
		return termenv.HasDarkBackground()
	}
}
