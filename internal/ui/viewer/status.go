package viewer

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/muesli/reflow/truncate"

	"github.com/zjrosen/reintest/internal/ui/styles"
)

// Zone IDs for the clickable status bar toggles.
const (
	zoneToggleTests  = "reintest-toggle-tests"
	zoneToggleBlocks = "reintest-toggle-blocks"
)

type statusInfo struct {
	fileName string
	version  int
	tests    bool
	blocks   bool
	ranges   int
	logLine  string
}

const statusSep = " │ "

func renderStatus(s statusInfo, width int) string {
	parts := []string{
		styles.FileNameStyle.Render(filepath.Base(s.fileName)) + fmt.Sprintf(" v%d", s.version),
		zone.Mark(zoneToggleTests, styles.Toggle("[t] tests", s.tests)),
		zone.Mark(zoneToggleBlocks, styles.Toggle("[b] blocks", s.blocks)),
		fmt.Sprintf("%d ranges", s.ranges),
	}
	if s.logLine != "" {
		parts = append(parts, styles.LogLineStyle.Render(s.logLine))
	}
	line := strings.Join(parts, statusSep)

	inner := width - styles.StatusBarStyle.GetHorizontalPadding()
	if inner < 1 {
		return ""
	}
	if lipgloss.Width(line) > inner {
		line = truncate.StringWithTail(line, uint(inner), "…") //nolint:gosec // inner > 0
	}
	return styles.StatusBarStyle.Width(width).Render(line)
}
