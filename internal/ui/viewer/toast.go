package viewer

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/zjrosen/reintest/internal/ui/styles"
)

// DefaultToastDuration is how long an information message stays up.
const DefaultToastDuration = 3 * time.Second

// toast shows one information message above the bottom edge of the view.
type toast struct {
	message string
	isError bool
	// seq distinguishes dismiss ticks of replaced messages.
	seq int
}

// dismissToastMsg hides the toast if it is still the one with seq.
type dismissToastMsg struct{ seq int }

func (t toast) visible() bool { return t.message != "" }

func (t toast) show(message string, isError bool) toast {
	return toast{message: message, isError: isError, seq: t.seq + 1}
}

func (t toast) dismiss(seq int) toast {
	if seq != t.seq {
		return t
	}
	t.message = ""
	return t
}

func (t toast) scheduleDismiss(d time.Duration) tea.Cmd {
	seq := t.seq
	return tea.Tick(d, func(time.Time) tea.Msg {
		return dismissToastMsg{seq: seq}
	})
}

func (t toast) view() string {
	if !t.visible() {
		return ""
	}
	color := styles.ToastBorderInfoColor
	if t.isError {
		color = styles.ToastBorderErrorColor
	}
	return lipgloss.NewStyle().
		Padding(0, 1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Render(t.message)
}

// overlay draws the toast centered horizontally, padY rows above the
// bottom of bg. bg keeps its styling on both sides of the box.
func (t toast) overlay(bg string, width, height, padY int) string {
	fg := t.view()
	if fg == "" {
		return bg
	}
	fgLines := strings.Split(fg, "\n")
	bgLines := strings.Split(bg, "\n")
	for len(bgLines) < height {
		bgLines = append(bgLines, strings.Repeat(" ", width))
	}

	x := max((width-lipgloss.Width(fg))/2, 0)
	y := max(height-len(fgLines)-padY, 0)

	for i, line := range fgLines {
		row := y + i
		if row >= len(bgLines) {
			break
		}
		under := bgLines[row]
		left := ansi.Truncate(under, x, "")
		if w := ansi.StringWidth(left); w < x {
			left += strings.Repeat(" ", x-w)
		}
		var right string
		if end := x + ansi.StringWidth(line); end < ansi.StringWidth(under) {
			right = ansi.TruncateLeft(under, end, "")
		}
		bgLines[row] = left + line + right
	}
	return strings.Join(bgLines, "\n")
}
