package annotate

import (
	"errors"

	"github.com/zjrosen/reintest/internal/document"
	"github.com/zjrosen/reintest/internal/log"
)

// DefaultTestFileSuffixes lists the file name endings LinePatterns applies to.
var DefaultTestFileSuffixes = []string{".spec.ts"}

const quote = "['\"`]"

// Both patterns are anchored at a line start that is not a "//" comment. The
// lazy prefix stops at the first invocation on the line; the greedy string
// body runs to the last quote on that same line.
var (
	testPattern = compile(
		`^(?!\s*//).*?test(\.beforeEach|\.beforeAll|\(`+quote+`.*`+quote+`)`,
		regexpMultiline,
	)
	describePattern = compile(
		`^(?!\s*//).*?test\.describe\(`+quote+`.*`+quote,
		regexpMultiline,
	)
)

// PatternRanges holds one pass of line pattern matches.
type PatternRanges struct {
	Tests     []Range `yaml:"tests"`
	Describes []Range `yaml:"describes"`
}

// Empty reports whether no pattern matched.
func (p PatternRanges) Empty() bool {
	return len(p.Tests) == 0 && len(p.Describes) == 0
}

// LinePatterns highlights test and describe invocations line by line.
type LinePatterns struct {
	suffixes []string
}

// NewLinePatterns creates the annotator. With no suffixes it applies to
// DefaultTestFileSuffixes.
func NewLinePatterns(suffixes ...string) *LinePatterns {
	if len(suffixes) == 0 {
		suffixes = DefaultTestFileSuffixes
	}
	return &LinePatterns{suffixes: append([]string(nil), suffixes...)}
}

// Applies reports whether doc is a recognized test file.
func (a *LinePatterns) Applies(doc *document.Document) bool {
	return doc != nil && doc.HasSuffix(a.suffixes...)
}

// Annotate scans doc for both pattern classes. Documents that are not test
// files yield empty collections. An error wrapping ErrScanIncomplete comes
// with the ranges found before the scan stopped.
func (a *LinePatterns) Annotate(doc *document.Document) (PatternRanges, error) {
	out := PatternRanges{Tests: []Range{}, Describes: []Range{}}
	if !a.Applies(doc) {
		return out, nil
	}

	text := doc.Text()
	tests, testErr := findAll(testPattern, text, log.CatScan)
	describes, describeErr := findAll(describePattern, text, log.CatScan)
	out.Tests = trimmedRanges(doc, tests)
	out.Describes = trimmedRanges(doc, describes)

	log.Debug(log.CatScan, "line patterns scanned",
		"file", doc.FileName(), "tests", len(out.Tests), "describes", len(out.Describes))
	return out, errors.Join(testErr, describeErr)
}

// trimmedRanges converts each match to a range that stops one character
// short of the match end, leaving the closing quote unpainted.
func trimmedRanges(doc *document.Document, spans []span) []Range {
	ranges := make([]Range, 0, len(spans))
	for _, s := range spans {
		ranges = append(ranges, Range{
			Start: doc.PositionAt(s.index),
			End:   doc.PositionAt(s.index + s.length - 1),
		})
	}
	return ranges
}
