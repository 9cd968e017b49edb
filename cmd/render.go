package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/zjrosen/reintest/internal/ui/viewer"
)

var (
	renderWidth   int
	renderNoColor bool
)

var renderCmd = &cobra.Command{
	Use:   "render <file>",
	Short: "Print a file once with its highlights",
	Long: `Print a file to stdout with test, describe and block highlights painted
as background colors, then exit.

Examples:
  reintest render tests/login.spec.ts
  reintest render --width 100 tests/login.spec.ts | less -R`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openSession(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		defer s.close()

		if renderNoColor {
			lipgloss.SetColorProfile(termenv.Ascii)
		}
		return writeLines(cmd.OutOrStdout(), viewer.Render(s.canvas, renderOptions(renderWidth)))
	},
}

func init() {
	renderCmd.Flags().IntVarP(&renderWidth, "width", "w", 0, "clip and pad lines to this width (0: natural width)")
	renderCmd.Flags().BoolVar(&renderNoColor, "no-color", false, "print without ANSI colors")
	rootCmd.AddCommand(renderCmd)
}

func writeLines(w io.Writer, lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, strings.Join(lines, "\n")); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}
