package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/zjrosen/reintest/internal/annotate"
	"github.com/zjrosen/reintest/internal/document"
	"github.com/zjrosen/reintest/internal/log"
	"github.com/zjrosen/reintest/internal/tracing"
)

var (
	scanFormat  string
	scanStrict  bool
	scanNoColor bool
)

// errUnmatchedMarkers is returned by scan --strict.
var errUnmatchedMarkers = errors.New("unmatched block markers")

var scanCmd = &cobra.Command{
	Use:   "scan <files...>",
	Short: "Print highlight ranges and unmatched block markers",
	Long: `Scan files and print the ranges reintest would paint: test invocations
and describe suites (test files only) and marked blocks (every file), plus
block markers that have no partner.

Text output uses 1-based line numbers; YAML output uses the 0-based
positions painted by the viewer.

Examples:
  reintest scan tests/*.spec.ts
  reintest scan --format yaml src/util.ts
  reintest scan --strict tests/*.ts   # exit 1 on unmatched markers`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if scanNoColor {
			color.NoColor = true
		}

		tp, err := tracing.NewProvider(cfg.Tracing)
		if err != nil {
			return fmt.Errorf("starting tracing: %w", err)
		}
		defer func() { _ = tp.Shutdown(context.Background()) }()

		reports, err := scanFiles(cmd.Context(), tp.Tracer(), args, cfg.TestFileSuffixes)
		if err != nil {
			return err
		}

		switch scanFormat {
		case "yaml":
			err = writeYAMLReports(cmd.OutOrStdout(), reports)
		case "text", "":
			err = writeTextReports(cmd.OutOrStdout(), reports)
		default:
			return fmt.Errorf("unknown format %q (want text or yaml)", scanFormat)
		}
		if err != nil {
			return err
		}

		if scanStrict {
			for _, r := range reports {
				if len(r.Unmatched) > 0 {
					return errUnmatchedMarkers
				}
			}
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().StringVarP(&scanFormat, "format", "f", "text", "output format: text or yaml")
	scanCmd.Flags().BoolVar(&scanStrict, "strict", false, "fail when any block marker is unmatched")
	scanCmd.Flags().BoolVar(&scanNoColor, "no-color", false, "print without colors")
	rootCmd.AddCommand(scanCmd)
}

type fileReport struct {
	File     string `yaml:"file"`
	TestFile bool   `yaml:"test_file"`
	// Incomplete is set when a scan timed out; the ranges are the ones
	// found before it stopped.
	Incomplete bool `yaml:"incomplete,omitempty"`

	annotate.PatternRanges `yaml:",inline"`
	Blocks                 []annotate.MatchedBlock `yaml:"blocks"`
	Unmatched              []markerReport          `yaml:"unmatched,omitempty"`
}

type markerReport struct {
	Identifier string `yaml:"identifier"`
	Kind       string `yaml:"kind"`
	Line       int    `yaml:"line"`
}

// scanFiles annotates every file concurrently. Reports keep the order of
// paths.
func scanFiles(ctx context.Context, tracer trace.Tracer, paths []string, suffixes []string) ([]fileReport, error) {
	patterns := annotate.NewLinePatterns(suffixes...)
	reports := make([]fileReport, len(paths))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(path) //nolint:gosec // G304: user-supplied file to scan
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			reports[i] = scanDocument(ctx, tracer, patterns, document.New(path, string(data)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func scanDocument(ctx context.Context, tracer trace.Tracer, patterns *annotate.LinePatterns, doc *document.Document) fileReport {
	_, span := tracing.Start(ctx, tracer, tracing.SpanScan, attribute.String(tracing.AttrFileName, doc.FileName()))
	defer span.End()

	r := fileReport{File: doc.FileName(), TestFile: patterns.Applies(doc)}
	pr, lineErr := patterns.Annotate(doc)
	r.PatternRanges = pr

	starts, startErr := annotate.ScanMarkers(doc, annotate.MarkerStart)
	ends, endErr := annotate.ScanMarkers(doc, annotate.MarkerEnd)
	blocks, unmatched := annotate.PairBlocks(starts, ends)
	r.Blocks = blocks
	if err := errors.Join(lineErr, startErr, endErr); err != nil {
		r.Incomplete = true
		log.Warn(log.CatScan, "scan incomplete", "file", doc.FileName(), "error", err.Error())
	}
	if r.Blocks == nil {
		r.Blocks = []annotate.MatchedBlock{}
	}
	for _, m := range unmatched {
		r.Unmatched = append(r.Unmatched, markerReport{Identifier: m.Identifier, Kind: m.Kind.String(), Line: m.Line})
	}
	if len(unmatched) > 0 {
		log.Warn(log.CatBlock, "unmatched block markers", "file", doc.FileName(), "count", len(unmatched))
	}

	span.SetAttributes(attribute.Int(tracing.AttrRangeCount, len(r.Tests)+len(r.Describes)+len(r.Blocks)))
	return r
}

func writeYAMLReports(w io.Writer, reports []fileReport) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(reports); err != nil {
		return fmt.Errorf("encoding yaml: %w", err)
	}
	return enc.Close()
}

func writeTextReports(w io.Writer, reports []fileReport) error {
	var (
		header   = color.New(color.Bold)
		test     = color.New(color.FgBlue)
		describe = color.New(color.FgMagenta)
		block    = color.New(color.FgGreen)
		warn     = color.New(color.FgYellow)
		muted    = color.New(color.Faint)
	)

	ew := &errWriter{w: w}
	for i, r := range reports {
		if i > 0 {
			ew.printf(nil, "\n")
		}
		ew.printf(header, "%s\n", r.File)
		if r.Incomplete {
			ew.printf(warn, "  (scan timed out: results incomplete)\n")
		}
		if !r.TestFile {
			ew.printf(muted, "  (not a test file: line patterns skipped)\n")
		}
		for _, rg := range r.Tests {
			ew.printf(test, "  test      L%d  cols %d-%d\n", rg.Start.Line+1, rg.Start.Column, rg.End.Column)
		}
		for _, rg := range r.Describes {
			ew.printf(describe, "  describe  L%d  cols %d-%d\n", rg.Start.Line+1, rg.Start.Column, rg.End.Column)
		}
		for _, b := range r.Blocks {
			ew.printf(block, "  block     L%d-L%d  %s\n", b.StartLine+1, b.EndLine+1, b.Identifier)
		}
		for _, m := range r.Unmatched {
			ew.printf(warn, "  unmatched L%d  %s marker %q\n", m.Line+1, m.Kind, m.Identifier)
		}
		if r.Empty() && len(r.Blocks)+len(r.Unmatched) == 0 {
			ew.printf(muted, "  no ranges\n")
		}
	}
	return ew.err
}

// errWriter keeps the first write error.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(c *color.Color, format string, args ...any) {
	if e.err != nil {
		return
	}
	if c == nil {
		_, e.err = fmt.Fprintf(e.w, format, args...)
		return
	}
	_, e.err = c.Fprintf(e.w, format, args...)
}
