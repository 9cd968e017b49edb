package annotate

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/reintest/internal/document"
)

func textDoc(lines ...string) *document.Document {
	return document.New("fixture.ts", strings.Join(lines, "\n"))
}

func TestBlocks_WellFormedPairs(t *testing.T) {
	doc := textDoc(
		"// @block-start:setup",
		"const a = 1;",
		"// @block-end:setup",
		"",
		"//@block-start:teardown",
		"cleanup();",
		"// @block-end:teardown",
	)

	got := annotateBlocks(t, doc)

	require.Equal(t, []Range{
		NewRange(0, 0, 2, 19),
		NewRange(4, 0, 6, 22),
	}, got)
}

func TestBlocks_NoMarkers(t *testing.T) {
	got := annotateBlocks(t, textDoc("const a = 1;", "// just a comment"))

	require.NotNil(t, got)
	require.Empty(t, got)
}

func TestBlocks_EmptyText(t *testing.T) {
	require.Empty(t, annotateBlocks(t, document.New("empty.ts", "")))
	require.Empty(t, annotateBlocks(t, nil))
}

func TestBlocks_RepeatedIdentifierNearestForward(t *testing.T) {
	doc := textDoc(
		"// @block-start:x", // 0
		"a",
		"// @block-start:x", // 2
		"b",
		"// @block-end:x", // 4
		"c",
		"// @block-end:x", // 6
	)

	starts := scanMarkers(t, doc, MarkerStart)
	ends := scanMarkers(t, doc, MarkerEnd)
	blocks, unmatched := PairBlocks(starts, ends)

	require.Empty(t, unmatched)
	require.Equal(t, []MatchedBlock{
		{Identifier: "x", StartLine: 0, EndLine: 4},
		{Identifier: "x", StartLine: 2, EndLine: 4},
	}, blocks, "end markers are not consumed")

	require.Equal(t, []Range{
		NewRange(0, 0, 4, 15),
		NewRange(2, 0, 4, 15),
	}, annotateBlocks(t, doc))
}

func TestBlocks_SequentialReuse(t *testing.T) {
	doc := textDoc(
		"// @block-start:x",
		"// @block-end:x",
		"// @block-start:x",
		"middle",
		"// @block-end:x",
	)

	require.Equal(t, []Range{
		NewRange(0, 0, 1, 15),
		NewRange(2, 0, 4, 15),
	}, annotateBlocks(t, doc))
}

func TestBlocks_UnmatchedStartDoesNotAffectOthers(t *testing.T) {
	doc := textDoc(
		"// @block-start:orphan",
		"// @block-start:ok",
		"body",
		"// @block-end:ok",
	)

	starts := scanMarkers(t, doc, MarkerStart)
	blocks, unmatched := PairBlocks(starts, scanMarkers(t, doc, MarkerEnd))

	require.Equal(t, []MatchedBlock{{Identifier: "ok", StartLine: 1, EndLine: 3}}, blocks)
	require.Len(t, unmatched, 1)
	require.Equal(t, "orphan", unmatched[0].Identifier)
	require.Equal(t, []Range{NewRange(1, 0, 3, 16)}, annotateBlocks(t, doc))
}

func TestBlocks_EndBeforeStartIsIgnored(t *testing.T) {
	doc := textDoc(
		"// @block-end:x",
		"// @block-start:x",
	)

	require.Empty(t, annotateBlocks(t, doc))
}

func TestBlocks_SameLineEnd(t *testing.T) {
	doc := textDoc("// @block-start:a // @block-end:a", "tail")

	require.Equal(t, []Range{NewRange(0, 0, 0, 33)}, annotateBlocks(t, doc))
}

func TestScanMarkers_RejectsMissingIdentifier(t *testing.T) {
	doc := textDoc(
		"// @block-start:",
		"// @block-start: spaced",
		"# @block-start:hash",
		"//   @block-start:ok_1",
	)

	got := scanMarkers(t, doc, MarkerStart)

	require.Equal(t, []Marker{{Identifier: "ok_1", Kind: MarkerStart, Offset: 61, Line: 3}}, got)
}

func TestScanMarkers_IdentifierIsWholeWord(t *testing.T) {
	doc := textDoc(
		"// @block-start:setup",
		"// @block-end:setup2",
	)

	require.Equal(t, "setup2", scanMarkers(t, doc, MarkerEnd)[0].Identifier)
	require.Empty(t, annotateBlocks(t, doc))
}

func TestScanMarkers_Unicode(t *testing.T) {
	doc := textDoc(
		"const s = '→→→';",
		"// @block-start:u",
		"// @block-end:u",
	)

	starts := scanMarkers(t, doc, MarkerStart)

	require.Len(t, starts, 1)
	require.Equal(t, 1, starts[0].Line)
	require.Equal(t, 17, starts[0].Offset, "offsets count runes")
}

func TestPairBlocks_UnsortedEnds(t *testing.T) {
	starts := []Marker{{Identifier: "a", Kind: MarkerStart, Offset: 0, Line: 0}}
	ends := []Marker{
		{Identifier: "a", Kind: MarkerEnd, Offset: 90, Line: 9},
		{Identifier: "a", Kind: MarkerEnd, Offset: 30, Line: 3},
	}

	blocks, _ := PairBlocks(starts, ends)

	require.Equal(t, []MatchedBlock{{Identifier: "a", StartLine: 0, EndLine: 3}}, blocks)
}

func TestMarkerKind_String(t *testing.T) {
	require.Equal(t, "start", MarkerStart.String())
	require.Equal(t, "end", MarkerEnd.String())
	require.Equal(t, "unknown", MarkerKind(7).String())
}

// TestProperty_BlockPairing checks the pairing rule against a brute force
// search over generated marker layouts.
func TestProperty_BlockPairing(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 25).Draw(t, "lines")
		lines := make([]string, n)
		type mark struct {
			id    string
			start bool
		}
		marks := make(map[int]mark)
		for i := range lines {
			kind := rapid.IntRange(0, 2).Draw(t, fmt.Sprintf("kind-%d", i))
			id := rapid.SampledFrom([]string{"a", "b", "c"}).Draw(t, fmt.Sprintf("id-%d", i))
			switch kind {
			case 0:
				lines[i] = "// @block-start:" + id
				marks[i] = mark{id: id, start: true}
			case 1:
				lines[i] = "  // @block-end:" + id
				marks[i] = mark{id: id}
			default:
				lines[i] = "code();"
			}
		}
		doc := textDoc(lines...)

		var want []Range
		for i := 0; i < n; i++ {
			m, ok := marks[i]
			if !ok || !m.start {
				continue
			}
			for j := i + 1; j < n; j++ {
				if e, ok := marks[j]; ok && !e.start && e.id == m.id {
					want = append(want, NewRange(i, 0, j, len(lines[j])))
					break
				}
			}
		}

		got := annotateBlocks(t, doc)
		if len(want) == 0 {
			if len(got) != 0 {
				t.Fatalf("expected no ranges, got %v", got)
			}
			return
		}
		if fmt.Sprint(want) != fmt.Sprint(got) {
			t.Fatalf("want %v, got %v", want, got)
		}
		for _, r := range got {
			if r.End.Line < r.Start.Line {
				t.Fatalf("inverted range %v", r)
			}
		}
	})
}
