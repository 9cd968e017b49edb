// Package document holds an in-memory text buffer with a line index that maps
// character offsets to line/column positions.
//
// Offsets and columns count runes, not bytes, so they line up with the match
// indices produced by the regexp2 scanners in package annotate.
package document

import (
	"sort"
	"strings"

	"fortio.org/safecast"

	"github.com/zjrosen/reintest/internal/log"
)

// Position is a 0-based line and a 0-based rune column.
type Position struct {
	Line   int `yaml:"line"`
	Column int `yaml:"column"`
}

// Line is one line of a document without its terminator.
type Line struct {
	Number int
	Text   string
}

// Document is an immutable snapshot of a named text buffer.
type Document struct {
	fileName string
	text     string
	version  int

	runes []rune
	// starts[i] is the rune offset where line i begins, ends[i] where its
	// content stops (before "\n", "\r\n" or "\r").
	starts []uint32
	ends   []uint32
}

// New creates version 1 of a document.
func New(fileName, text string) *Document {
	d := &Document{
		fileName: fileName,
		text:     text,
		version:  1,
		runes:    []rune(text),
	}
	d.buildLineIndex()
	return d
}

// Edit returns the next version of the document with new text.
func (d *Document) Edit(text string) *Document {
	next := New(d.fileName, text)
	next.version = d.version + 1
	return next
}

// FileName returns the logical file name the document was opened with.
func (d *Document) FileName() string { return d.fileName }

// Text returns the full text.
func (d *Document) Text() string { return d.text }

// Version increases by one on every Edit.
func (d *Document) Version() int { return d.version }

// LineCount returns the number of lines; an empty document has one line.
func (d *Document) LineCount() int { return len(d.starts) }

func (d *Document) buildLineIndex() {
	d.starts = append(d.starts[:0], 0)
	d.ends = d.ends[:0]

	n := len(d.runes)
	for i := 0; i < n; i++ {
		r := d.runes[i]
		if r != '\n' && r != '\r' {
			continue
		}
		end, err := safecast.Conv[uint32](i)
		if err != nil {
			log.ErrorErr(log.CatHost, "document too large to index", err, "file", d.fileName)
			break
		}
		if r == '\r' && i+1 < n && d.runes[i+1] == '\n' {
			i++
		}
		next, err := safecast.Conv[uint32](i + 1)
		if err != nil {
			log.ErrorErr(log.CatHost, "document too large to index", err, "file", d.fileName)
			break
		}
		d.ends = append(d.ends, end)
		d.starts = append(d.starts, next)
	}

	last, err := safecast.Conv[uint32](n)
	if err != nil {
		last = d.starts[len(d.starts)-1]
	}
	d.ends = append(d.ends, last)
}

// PositionAt converts a rune offset to a position. Offsets outside the text
// are clamped; an offset inside a "\r\n" pair maps to the end of its line.
func (d *Document) PositionAt(offset int) Position {
	if offset < 0 {
		offset = 0
	}
	if offset > len(d.runes) {
		offset = len(d.runes)
	}

	// largest line whose start <= offset
	line := sort.Search(len(d.starts), func(i int) bool {
		return int(d.starts[i]) > offset
	}) - 1
	if line < 0 {
		line = 0
	}

	start, end := int(d.starts[line]), int(d.ends[line])
	col := offset - start
	if col > end-start {
		col = end - start
	}
	return Position{Line: line, Column: col}
}

// LineAt returns the given line. Out of range lines return an empty Line
// carrying the requested number.
func (d *Document) LineAt(line int) Line {
	if line < 0 || line >= len(d.starts) {
		return Line{Number: line}
	}
	return Line{
		Number: line,
		Text:   string(d.runes[d.starts[line]:d.ends[line]]),
	}
}

// LineLength returns the length of a line in runes.
func (d *Document) LineLength(line int) int {
	if line < 0 || line >= len(d.starts) {
		return 0
	}
	return int(d.ends[line] - d.starts[line])
}

// HasSuffix reports whether the file name ends with any of the suffixes.
func (d *Document) HasSuffix(suffixes ...string) bool {
	for _, s := range suffixes {
		if s != "" && strings.HasSuffix(d.fileName, s) {
			return true
		}
	}
	return false
}
