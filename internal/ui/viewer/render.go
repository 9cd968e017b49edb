package viewer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"

	"github.com/zjrosen/reintest/internal/annotate"
	"github.com/zjrosen/reintest/internal/decoration"
	"github.com/zjrosen/reintest/internal/document"
	"github.com/zjrosen/reintest/internal/log"
	"github.com/zjrosen/reintest/internal/ui/styles"
)

// DefaultTabWidth is used when RenderOptions.TabWidth is not positive.
const DefaultTabWidth = 4

// RenderOptions controls how a canvas is drawn.
type RenderOptions struct {
	// Width clips and pads every line. Zero leaves lines at their natural width.
	Width       int
	Dark        bool
	LineNumbers bool
	TabWidth    int
}

// Span is a column range painted with its own background. End is exclusive.
type Span struct {
	Start      int
	End        int
	Background string
}

// PaintedLine is the resolved paint for one document line.
type PaintedLine struct {
	Number int
	Text   string
	// Background is the blended whole-line color, empty when no whole-line
	// decoration covers the line.
	Background string
	Spans      []Span
}

type parsedLayer struct {
	color decoration.Color
	Layer
	wholeLine bool
}

func parseLayers(layers []Layer) []parsedLayer {
	out := make([]parsedLayer, 0, len(layers))
	for _, l := range layers {
		opts := l.Type.Options()
		c, err := decoration.ParseColor(opts.BackgroundColor)
		if err != nil {
			log.Warn(log.CatStyle, "unpaintable decoration color", "type", l.Type.Key(), "color", opts.BackgroundColor)
			continue
		}
		out = append(out, parsedLayer{color: c, Layer: l, wholeLine: opts.IsWholeLine})
	}
	return out
}

// Paint resolves the background of every line of doc. Layers blend in
// order, each at most once per line.
func Paint(doc *document.Document, layers []Layer, dark bool) []PaintedLine {
	if doc == nil {
		return nil
	}
	base := decoration.LightBackground
	if dark {
		base = decoration.DarkBackground
	}
	parsed := parseLayers(layers)

	out := make([]PaintedLine, doc.LineCount())
	for i := range out {
		line := doc.LineAt(i)
		pl := PaintedLine{Number: i, Text: line.Text}

		bg := base
		covered := false
		for _, l := range parsed {
			if l.wholeLine && covers(l.Ranges, i) {
				bg = l.color.Over(bg)
				covered = true
			}
		}
		if covered {
			pl.Background = bg.Hex()
		}

		n := doc.LineLength(i)
		for _, l := range parsed {
			if l.wholeLine {
				continue
			}
			pl.Spans = append(pl.Spans, spansOn(l, i, n, bg)...)
		}
		out[i] = pl
	}
	return out
}

func covers(ranges []annotate.Range, line int) bool {
	for _, r := range ranges {
		if r.Contains(line) {
			return true
		}
	}
	return false
}

func spansOn(l parsedLayer, line, length int, under colorful.Color) []Span {
	var out []Span
	for _, r := range l.Ranges {
		if !r.Contains(line) {
			continue
		}
		start, end := 0, length
		if line == r.Start.Line {
			start = r.Start.Column
		}
		if line == r.End.Line {
			end = r.End.Column
		}
		if end > length {
			end = length
		}
		if end > start {
			out = append(out, Span{Start: start, End: end, Background: l.color.Over(under).Hex()})
		}
	}
	return out
}

// Render draws every line of the canvas.
func Render(c *Canvas, opts RenderOptions) []string {
	doc := c.Document()
	painted := Paint(doc, c.Layers(), opts.Dark)
	if len(painted) == 0 {
		return nil
	}

	tab := opts.TabWidth
	if tab <= 0 {
		tab = DefaultTabWidth
	}
	numWidth := len(strconv.Itoa(len(painted)))

	out := make([]string, len(painted))
	for i, pl := range painted {
		var gutter string
		if opts.LineNumbers {
			gutter = styles.GutterStyle.Render(fmt.Sprintf("%*d ", numWidth, pl.Number+1))
		}
		out[i] = gutter + renderBody(pl, tab, opts.Width-lipgloss.Width(gutter), opts.Width > 0)
	}
	return out
}

type segment struct {
	text       string
	background string
}

func renderBody(pl PaintedLine, tab, width int, clip bool) string {
	var b strings.Builder
	for _, seg := range segments(pl, tab) {
		b.WriteString(paint(seg.text, seg.background))
	}
	body := b.String()
	if !clip {
		return body
	}
	if width < 1 {
		return ""
	}
	body = ansi.Truncate(body, width, "…")
	if pad := width - ansi.StringWidth(body); pad > 0 {
		body += paint(strings.Repeat(" ", pad), pl.Background)
	}
	return body
}

func paint(s, background string) string {
	if background == "" || s == "" {
		return s
	}
	return lipgloss.NewStyle().Background(lipgloss.Color(background)).Render(s)
}

// segments splits a line into runs of equal background and expands tabs
// to the next tab stop.
func segments(pl PaintedLine, tab int) []segment {
	runes := []rune(pl.Text)
	bgAt := func(i int) string {
		bg := pl.Background
		for _, s := range pl.Spans {
			if i >= s.Start && i < s.End {
				bg = s.Background
			}
		}
		return bg
	}

	var out []segment
	var cur strings.Builder
	curBg := pl.Background
	col := 0
	for i, r := range runes {
		if bg := bgAt(i); bg != curBg {
			if cur.Len() > 0 {
				out = append(out, segment{text: cur.String(), background: curBg})
				cur.Reset()
			}
			curBg = bg
		}
		if r == '\t' {
			n := tab - col%tab
			cur.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		cur.WriteRune(r)
		col += runewidth.RuneWidth(r)
	}
	if cur.Len() > 0 || len(out) == 0 {
		out = append(out, segment{text: cur.String(), background: curBg})
	}
	return out
}
