package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zjrosen/reintest/internal/extension"
	"github.com/zjrosen/reintest/internal/host"
	"github.com/zjrosen/reintest/internal/log"
	"github.com/zjrosen/reintest/internal/ui/viewer"
)

var watchWidth int

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Repaint a file to stdout whenever it or the config changes",
	Long: `Run without the interactive viewer: the file is painted once, then again
after every save of the file or the config file. Stop with Ctrl+C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().IntVarP(&watchWidth, "width", "w", 0, "clip and pad lines to this width (0: natural width)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx, args[0])
	if err != nil {
		return err
	}
	defer s.close()

	out := &syncWriter{w: cmd.OutOrStdout()}
	paint := func(reason string) {
		doc := s.canvas.Document()
		out.section(fmt.Sprintf("%s v%d (%s)", filepath.Base(doc.FileName()), doc.Version(), reason),
			viewer.Render(s.canvas, renderOptions(watchWidth)))
	}
	paint("opened")

	d := extension.NewDispatcher(s.ext, func(ev host.Event, err error) {
		if err != nil {
			out.line(fmt.Sprintf("error: %v", err))
			return
		}
		paint(string(ev.Kind))
	})
	d.Start(ctx)
	defer d.Close()

	files, stopWatch, err := watchFile(args[0])
	if err != nil {
		return err
	}
	defer stopWatch()

	return pumpEvents(ctx, s, d, files, watchConfig(ctx))
}

// pumpEvents turns watcher notifications into host events until ctx is done.
func pumpEvents(ctx context.Context, s *session, d *extension.Dispatcher, files <-chan string, configChanges <-chan []string) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-files:
			if !ok {
				return nil
			}
			changed, err := s.refreshDocument()
			if err != nil {
				log.ErrorErr(log.CatWatcher, "reading changed file", err, "path", s.path)
				continue
			}
			if !changed {
				continue
			}
			d.Post(host.Event{Kind: host.TextChanged, Editor: s.canvas})
		case keys, ok := <-configChanges:
			if !ok {
				configChanges = nil
				continue
			}
			d.Post(host.Event{Kind: host.ConfigurationChanged, Keys: keys})
		}
	}
}

// syncWriter serializes output from the dispatcher and the command goroutine.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) section(title string, lines []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintf(s.w, "── %s ──\n", title)
	for _, l := range lines {
		_, _ = fmt.Fprintln(s.w, l)
	}
}

func (s *syncWriter) line(l string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintln(s.w, l)
}
