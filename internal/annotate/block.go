package annotate

import (
	"errors"
	"sort"

	"github.com/dlclark/regexp2"

	"github.com/zjrosen/reintest/internal/document"
	"github.com/zjrosen/reintest/internal/log"
)

var (
	blockStartPattern = compile(`//\s*@block-start:(\w+)`, regexp2.None)
	blockEndPattern   = compile(`//\s*@block-end:(\w+)`, regexp2.None)
)

// MarkerKind tells start markers from end markers.
type MarkerKind int

const (
	MarkerStart MarkerKind = iota
	MarkerEnd
)

func (k MarkerKind) String() string {
	switch k {
	case MarkerStart:
		return "start"
	case MarkerEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Marker is one recognized block comment. Offset is the rune offset of the
// leading "//" and Line its line.
type Marker struct {
	Identifier string     `yaml:"identifier"`
	Kind       MarkerKind `yaml:"-"`
	Offset     int        `yaml:"offset"`
	Line       int        `yaml:"line"`
}

// MatchedBlock is a start marker paired with its end marker.
type MatchedBlock struct {
	Identifier string `yaml:"identifier"`
	StartLine  int    `yaml:"start_line"`
	EndLine    int    `yaml:"end_line"`
}

// ScanMarkers returns every marker of the given kind in order of appearance.
// An error wrapping ErrScanIncomplete comes with the markers found before
// the scan stopped.
func ScanMarkers(doc *document.Document, kind MarkerKind) ([]Marker, error) {
	if doc == nil {
		return nil, nil
	}

	re := blockStartPattern
	if kind == MarkerEnd {
		re = blockEndPattern
	}

	spans, err := findAll(re, doc.Text(), log.CatBlock)
	markers := make([]Marker, 0, len(spans))
	for _, s := range spans {
		m := Marker{
			Identifier: s.groups[0],
			Kind:       kind,
			Offset:     s.index,
			Line:       doc.PositionAt(s.index).Line,
		}
		log.Debug(log.CatBlock, "found marker", "kind", kind, "identifier", m.Identifier, "line", m.Line)
		markers = append(markers, m)
	}
	return markers, err
}

// PairBlocks pairs each start, in the given order, with the end marker of the
// same identifier that has the smallest offset greater than the start's.
// End markers are not consumed, so two starts may share one end. Starts
// without a partner are returned in unmatched.
func PairBlocks(starts, ends []Marker) (blocks []MatchedBlock, unmatched []Marker) {
	byID := make(map[string][]Marker)
	for _, e := range ends {
		byID[e.Identifier] = append(byID[e.Identifier], e)
	}
	for _, list := range byID {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Offset < list[j].Offset })
	}

	blocks = make([]MatchedBlock, 0, len(starts))
	for _, s := range starts {
		list := byID[s.Identifier]
		i := sort.Search(len(list), func(i int) bool { return list[i].Offset > s.Offset })
		if i == len(list) {
			unmatched = append(unmatched, s)
			continue
		}
		blocks = append(blocks, MatchedBlock{
			Identifier: s.Identifier,
			StartLine:  s.Line,
			EndLine:    list[i].Line,
		})
	}
	return blocks, unmatched
}

// Blocks highlights every paired block marker region as whole lines.
type Blocks struct{}

// NewBlocks creates the block annotator.
func NewBlocks() *Blocks {
	return &Blocks{}
}

// Annotate returns one range per paired block, from column 0 of the start
// marker's line to the end of the end marker's line. An error wrapping
// ErrScanIncomplete comes with the blocks paired from the markers found.
func (b *Blocks) Annotate(doc *document.Document) ([]Range, error) {
	ranges := []Range{}
	if doc == nil {
		return ranges, nil
	}

	starts, startErr := ScanMarkers(doc, MarkerStart)
	if len(starts) == 0 {
		return ranges, startErr
	}
	ends, endErr := ScanMarkers(doc, MarkerEnd)

	blocks, unmatched := PairBlocks(starts, ends)
	for _, m := range unmatched {
		log.Warn(log.CatBlock, "no matching end marker", "identifier", m.Identifier, "line", m.Line, "file", doc.FileName())
	}

	for _, blk := range blocks {
		log.Debug(log.CatBlock, "matched block", "identifier", blk.Identifier, "from", blk.StartLine, "to", blk.EndLine)
		ranges = append(ranges, NewRange(blk.StartLine, 0, blk.EndLine, doc.LineLength(blk.EndLine)))
	}
	return ranges, errors.Join(startErr, endErr)
}
