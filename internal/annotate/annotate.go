// Package annotate finds lexical markers in plain text and turns them into
// highlight ranges. It knows nothing about painting: callers hand the ranges
// to whatever host renders them.
//
// Two annotators live here. LinePatterns recognizes single-line test and
// describe invocations in test files. Blocks pairs "// @block-start:<id>"
// markers with the nearest following "// @block-end:<id>".
//
// Both scan with dlclark/regexp2 in ECMAScript mode, so offsets are rune
// offsets and \w, \s and \d use their ASCII meaning.
package annotate

import (
	"errors"
	"fmt"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/zjrosen/reintest/internal/document"
	"github.com/zjrosen/reintest/internal/log"
)

// MatchTimeout bounds a single regular expression evaluation.
const MatchTimeout = 2 * time.Second

// ErrScanIncomplete is wrapped by the error returned when a scan stops before
// the end of the text. The ranges returned with it are the ones found so far.
var ErrScanIncomplete = errors.New("scan incomplete")

// Range is a highlight span handed to the host. End is inclusive of the
// position it names for line purposes and exclusive for columns.
type Range struct {
	Start document.Position `yaml:"start"`
	End   document.Position `yaml:"end"`
}

// NewRange builds a range from line/column pairs.
func NewRange(startLine, startCol, endLine, endCol int) Range {
	return Range{
		Start: document.Position{Line: startLine, Column: startCol},
		End:   document.Position{Line: endLine, Column: endCol},
	}
}

// Contains reports whether line lies within the range.
func (r Range) Contains(line int) bool {
	return line >= r.Start.Line && line <= r.End.Line
}

const regexpMultiline = regexp2.Multiline

func compile(pattern string, opts regexp2.RegexOptions) *regexp2.Regexp {
	re := regexp2.MustCompile(pattern, regexp2.ECMAScript|opts)
	re.MatchTimeout = MatchTimeout
	return re
}

// span is one regexp match in rune offsets.
type span struct {
	index  int
	length int
	groups []string
}

// findAll runs re over text from the start every call. A timeout ends the
// scan early: the spans found so far are returned with an error wrapping
// ErrScanIncomplete.
func findAll(re *regexp2.Regexp, text string, cat log.Category) ([]span, error) {
	var spans []span

	m, err := re.FindStringMatch(text)
	for m != nil && err == nil {
		s := span{index: m.Index, length: m.Length}
		for _, g := range m.Groups()[1:] {
			s.groups = append(s.groups, g.String())
		}
		spans = append(spans, s)
		m, err = re.FindNextMatch(m)
	}
	if err != nil {
		// regexp2 reports match timeouts as plain errors
		log.Warn(cat, "scan stopped early", "pattern", re.String(), "found", len(spans), "error", err)
		return spans, fmt.Errorf("%w: %s: %w", ErrScanIncomplete, re.String(), err)
	}
	return spans, nil
}

// PatternInfo describes one scanner expression.
type PatternInfo struct {
	Name string
	Expr string
	// TestFilesOnly is set for patterns that only run on recognized test
	// files.
	TestFilesOnly bool
}

// Patterns lists the expressions the annotators scan with.
func Patterns() []PatternInfo {
	return []PatternInfo{
		{Name: "test", Expr: testPattern.String(), TestFilesOnly: true},
		{Name: "describe", Expr: describePattern.String(), TestFilesOnly: true},
		{Name: "block-start", Expr: blockStartPattern.String()},
		{Name: "block-end", Expr: blockEndPattern.String()},
	}
}
