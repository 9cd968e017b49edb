package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/zjrosen/reintest/internal/annotate"
	"github.com/zjrosen/reintest/internal/decoration"
	"github.com/zjrosen/reintest/internal/host"
	"github.com/zjrosen/reintest/internal/templates"
	"github.com/zjrosen/reintest/internal/ui/markdown"
)

var patternsWidth int

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Show what reintest highlights and with which colors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		plain := !isatty.IsTerminal(os.Stdout.Fd())
		r, err := markdown.New(patternsWidth, plain)
		if err != nil {
			return fmt.Errorf("creating markdown renderer: %w", err)
		}
		ref, err := patternReference(configuration(), cfg.TestFileSuffixes)
		if err != nil {
			return err
		}
		out, err := r.Render(ref)
		if err != nil {
			return fmt.Errorf("rendering patterns: %w", err)
		}
		if _, err := fmt.Fprint(cmd.OutOrStdout(), out); err != nil {
			return fmt.Errorf("writing output: %w", err)
		}
		return nil
	},
}

func init() {
	patternsCmd.Flags().IntVarP(&patternsWidth, "width", "w", 80, "wrap width")
	rootCmd.AddCommand(patternsCmd)
}

// patternReference builds the markdown shown by the patterns command.
func patternReference(c host.Configuration, suffixes []string) (string, error) {
	if len(suffixes) == 0 {
		suffixes = annotate.DefaultTestFileSuffixes
	}
	data := templates.PatternsData{Suffixes: suffixes}
	for _, p := range annotate.Patterns() {
		data.Expressions = append(data.Expressions, templates.Expression{
			Name:          p.Name,
			Expr:          p.Expr,
			TestFilesOnly: p.TestFilesOnly,
		})
	}
	for _, s := range decoration.Settings() {
		data.Colors = append(data.Colors, templates.Color{
			Key:     s.FullKey(),
			Value:   decoration.ResolveColor(c, s),
			Default: s.Default,
		})
	}

	var b strings.Builder
	if err := templates.RenderPatterns(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
