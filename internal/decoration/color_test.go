package decoration

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseColor_Valid(t *testing.T) {
	tests := []struct {
		in    string
		hex   string
		alpha float64
	}{
		{"#336699", "#336699", 1},
		{"#abc", "#aabbcc", 1},
		{"#11223380", "#112233", 128.0 / 255},
		{"rgb(255, 0, 0)", "#ff0000", 1},
		{"rgba(123,169,255,0.18)", "#7ba9ff", 0.18},
		{"  RGBA(0, 0, 255, 1) ", "#0000ff", 1},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			c, err := ParseColor(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.hex, c.Hex())
			require.InDelta(t, tt.alpha, c.Alpha, 1e-9)
		})
	}
}

func TestParseColor_Invalid(t *testing.T) {
	for _, in := range []string{
		"",
		"blue",
		"#12",
		"#gggggg",
		"rgb(1,2)",
		"rgba(1,2,3)",
		"rgba(1,2,3,1.5)",
		"rgb(300,0,0)",
		"rgb(a,b,c)",
		"rgba(1,2,3,0.5",
	} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseColor(in)
			require.Error(t, err)
		})
	}
}

func TestColor_TerminalHex(t *testing.T) {
	c, err := ParseColor("rgba(255,0,0,0.25)")
	require.NoError(t, err)
	require.Equal(t, "#ffbfbf", c.TerminalHex(false))

	opaque, err := ParseColor("#336699")
	require.NoError(t, err)
	require.Equal(t, "#336699", opaque.TerminalHex(true))
}

func TestColor_TranslucentOverDarkStaysDark(t *testing.T) {
	c, err := ParseColor(BlockHighlight.Default)
	require.NoError(t, err)

	flat := c.Over(DarkBackground)
	l, _, _ := flat.Lab()
	bl, _, _ := DarkBackground.Lab()
	require.InDelta(t, bl, l, 0.1, "a 5 percent alpha barely moves the background")
}
