package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/zjrosen/reintest/internal/config"
	"github.com/zjrosen/reintest/internal/flags"
	"github.com/zjrosen/reintest/internal/log"
)

func init() {
	// Query the terminal background before any Bubble Tea program starts so
	// the OSC 11 response does not race the input loop.
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool

	store      *config.Store
	cfg        = config.Defaults()
	features   = flags.New(nil)
	logCleanup func()
)

var rootCmd = &cobra.Command{
	Use:   "reintest [file]",
	Short: "Highlight Playwright tests and marked blocks",
	Long: `reintest paints Playwright test invocations, test.describe suites and
"// @block-start:id" ... "// @block-end:id" regions with translucent
background colors.

With a file argument it opens the interactive viewer (same as "reintest view").`,
	Version:           version,
	Args:              cobra.MaximumNArgs(1),
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(_ *cobra.Command, _ []string) { teardown() },
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runView(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .reintest/config.yaml, then ~/.config/reintest/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"write a debug log to $REINTEST_LOG (default: debug.log)")
}

// setup enables logging and loads the configuration. Invalid values are
// reported and fall back to their defaults when used.
func setup(cmd *cobra.Command, _ []string) error {
	if os.Getenv("REINTEST_DEBUG") != "" || debugFlag {
		logPath := os.Getenv("REINTEST_LOG")
		if logPath == "" {
			logPath = "debug.log"
		}
		cleanup, err := log.InitWithTeaLog(logPath, "reintest")
		if err != nil {
			return fmt.Errorf("initializing logging: %w", err)
		}
		logCleanup = cleanup
		log.Info(log.CatConfig, "reintest starting", "version", version, "logPath", logPath)
	}

	s, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	c, err := s.Config()
	if err != nil {
		return err
	}
	if err := config.Validate(c); err != nil {
		log.Warn(log.CatConfig, "invalid configuration", "error", err.Error())
		cmd.PrintErrf("warning: %v\n", err)
	}
	store, cfg = s, c
	features = flags.New(c.Flags)
	return nil
}

func teardown() {
	if logCleanup != nil {
		logCleanup()
		logCleanup = nil
	}
	log.Reset()
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
