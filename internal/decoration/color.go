package decoration

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is an sRGB color with an alpha channel in [0,1].
type Color struct {
	colorful.Color
	Alpha float64
}

// Backgrounds used to flatten translucent colors on terminals.
var (
	DarkBackground  = colorful.Color{R: 0x1e / 255.0, G: 0x1e / 255.0, B: 0x1e / 255.0}
	LightBackground = colorful.Color{R: 1, G: 1, B: 1}
)

// ParseColor accepts "#rgb", "#rrggbb", "#rrggbbaa", "rgb(r,g,b)" and
// "rgba(r,g,b,a)". Channel values are 0-255, alpha is 0-1.
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "#"):
		return parseHex(s)
	case strings.HasPrefix(strings.ToLower(s), "rgba("), strings.HasPrefix(strings.ToLower(s), "rgb("):
		return parseFunctional(s)
	default:
		return Color{}, fmt.Errorf("unsupported color %q", s)
	}
}

func parseHex(s string) (Color, error) {
	alpha := 1.0
	hex := s
	switch len(s) {
	case 4:
		// #rgb -> #rrggbb
		hex = "#" + strings.Repeat(s[1:2], 2) + strings.Repeat(s[2:3], 2) + strings.Repeat(s[3:4], 2)
	case 7:
	case 9:
		a, err := strconv.ParseUint(s[7:9], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("invalid alpha in %q: %w", s, err)
		}
		alpha = float64(a) / 255
		hex = s[:7]
	default:
		return Color{}, fmt.Errorf("invalid hex color %q", s)
	}

	c, err := colorful.Hex(hex)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return Color{Color: c, Alpha: alpha}, nil
}

func parseFunctional(s string) (Color, error) {
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return Color{}, fmt.Errorf("invalid color %q", s)
	}
	name := strings.ToLower(strings.TrimSpace(s[:open]))
	parts := strings.Split(s[open+1:len(s)-1], ",")

	want := 3
	if name == "rgba" {
		want = 4
	}
	if len(parts) != want {
		return Color{}, fmt.Errorf("%s expects %d components, got %d in %q", name, want, len(parts), s)
	}

	var ch [3]float64
	for i := 0; i < 3; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(parts[i]), 64)
		if err != nil || v < 0 || v > 255 {
			return Color{}, fmt.Errorf("invalid channel %q in %q", strings.TrimSpace(parts[i]), s)
		}
		ch[i] = v / 255
	}

	alpha := 1.0
	if want == 4 {
		a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
		if err != nil || a < 0 || a > 1 {
			return Color{}, fmt.Errorf("invalid alpha %q in %q", strings.TrimSpace(parts[3]), s)
		}
		alpha = a
	}

	return Color{Color: colorful.Color{R: ch[0], G: ch[1], B: ch[2]}, Alpha: alpha}, nil
}

// Over flattens c onto an opaque background.
func (c Color) Over(bg colorful.Color) colorful.Color {
	return bg.BlendRgb(c.Color, c.Alpha).Clamped()
}

// TerminalHex returns the opaque hex color a terminal should use to paint c
// over the given background.
func (c Color) TerminalHex(dark bool) string {
	bg := LightBackground
	if dark {
		bg = DarkBackground
	}
	return c.Over(bg).Hex()
}
