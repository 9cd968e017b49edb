package cmd

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/zjrosen/reintest/internal/flags"
	"github.com/zjrosen/reintest/internal/log"
	"github.com/zjrosen/reintest/internal/ui/viewer"
	"github.com/zjrosen/reintest/internal/watcher"
)

var viewNoWatch bool

var viewCmd = &cobra.Command{
	Use:   "view <file>",
	Short: "Open a file in the interactive viewer",
	Long: `Open a file in the interactive viewer.

The file and the config file are watched; edits repaint immediately.

Keys:
  t        toggle test highlighting
  b        toggle block highlighting
  r        reload the file
  ?        show all keys
  q        quit

The "[t] tests" and "[b] blocks" entries in the status bar are clickable.`,
	Args: cobra.ExactArgs(1),
	RunE: runView,
}

func init() {
	viewCmd.Flags().BoolVar(&viewNoWatch, "no-watch", false, "do not watch the file and config for changes")
	rootCmd.Flags().BoolVar(&viewNoWatch, "no-watch", false, "do not watch the file and config for changes")
	rootCmd.AddCommand(viewCmd)
}

func runView(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	s, err := openSession(ctx, args[0])
	if err != nil {
		return err
	}
	defer s.close()

	opts := viewer.Options{
		Path:    args[0],
		Render:  renderOptions(0),
		ShowLog: debugEnabled(),
	}

	if !viewNoWatch {
		files, stop, err := watchFile(args[0])
		if err != nil {
			return err
		}
		defer stop()
		opts.FileChanges = files

		opts.ConfigChanges = watchConfig(ctx)
	}

	programOpts := []tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}
	if features.Enabled(flags.FlagMouse) {
		programOpts = append(programOpts, tea.WithMouseCellMotion())
	}
	p := tea.NewProgram(viewer.New(ctx, s.ext, s.canvas, opts), programOpts...)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// watchConfig follows the loaded config file. It returns nil when there is
// no file, the config-watch flag is off, or the watcher cannot start.
func watchConfig(ctx context.Context) <-chan []string {
	if store == nil || store.Path() == "" || !features.Enabled(flags.FlagConfigWatch) {
		return nil
	}
	changes, err := store.Watch(ctx, cfg.Watch.Debounce)
	if err != nil {
		log.ErrorErr(log.CatConfig, "config watch unavailable", err, "path", store.Path())
		return nil
	}
	return changes
}

// watchFile starts a debounced watcher on path.
func watchFile(path string) (<-chan string, func(), error) {
	wcfg := watcher.DefaultConfig(path)
	if cfg.Watch.Debounce > 0 {
		wcfg.DebounceDur = cfg.Watch.Debounce
	}
	w, err := watcher.New(wcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("watching %s: %w", path, err)
	}
	ch, err := w.Start()
	if err != nil {
		return nil, nil, fmt.Errorf("watching %s: %w", path, err)
	}
	return ch, func() { _ = w.Stop() }, nil
}

func debugEnabled() bool {
	return logCleanup != nil
}
