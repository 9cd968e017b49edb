// Package styles contains Lip Gloss style definitions for the viewer.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Text hierarchy
	TextPrimaryColor   = lipgloss.AdaptiveColor{Light: "#2D3436", Dark: "#CCCCCC"}
	TextSecondaryColor = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#BBBBBB"}
	TextMutedColor     = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#696969"}

	// Status
	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#FECA57", Dark: "#FECA57"}
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}

	// Toast notification colors
	ToastBorderInfoColor  = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"}
	ToastBorderErrorColor = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}

	// Gutter holds line numbers.
	GutterStyle = lipgloss.NewStyle().Foreground(TextMutedColor)

	// Status bar
	StatusBarStyle = lipgloss.NewStyle().
			Foreground(TextSecondaryColor).
			Padding(0, 1)

	FileNameStyle = lipgloss.NewStyle().
			Foreground(TextPrimaryColor).
			Bold(true)

	ToggleOnStyle = lipgloss.NewStyle().
			Foreground(StatusSuccessColor).
			Bold(true)

	ToggleOffStyle = lipgloss.NewStyle().
			Foreground(TextMutedColor).
			Strikethrough(true)

	LogLineStyle = lipgloss.NewStyle().
			Foreground(TextMutedColor).
			Italic(true)

	// Scan report
	ErrorStyle = lipgloss.NewStyle().
			Foreground(StatusErrorColor).
			Bold(true)
)

// Toggle renders a labelled on/off indicator.
func Toggle(label string, on bool) string {
	if on {
		return ToggleOnStyle.Render(label + ": on")
	}
	return ToggleOffStyle.Render(label + ": off")
}
