package components

import (
	"strings"

	"github.com/theirongolddev/ratewatch/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Tab represents a single tab in the tab bar.
type Tab struct {
	Name   string
	Key    string
	KeyPos int // position of the shortcut letter in the name
}

// Tabs defines all available tabs.
var Tabs = []Tab{
	{Name: "Overview", Key: "o", KeyPos: 0},
	{Name: "History", Key: "h", KeyPos: 0},
	{Name: "Settings", Key: "s", KeyPos: 0},
}

// TabIdxByKey returns the tab index for a shortcut key, or -1.
func TabIdxByKey(key string) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}

// TabVisualWidth returns the rendered width of a tab, including the
// shortcut brackets shown on inactive tabs.
func TabVisualWidth(tab Tab, active bool) int {
	w := lipgloss.Width(tab.Name) + 2 // horizontal padding
	if !active {
		w += 2 // "[" and "]" around the shortcut letter
	}
	return w
}

// RenderTabBar renders the tab bar with the given active index on one line.
func RenderTabBar(activeIdx int, width int) string {
	t := theme.Active

	activeStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.SurfaceBright).
		Bold(true).
		Padding(0, 1)

	inactiveStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	padStyle := lipgloss.NewStyle().Background(t.Surface)

	parts := make([]string, len(Tabs))
	for i, tab := range Tabs {
		if i == activeIdx {
			parts[i] = activeStyle.Render(tab.Name)
			continue
		}
		before := tab.Name[:tab.KeyPos]
		key := tab.Name[tab.KeyPos : tab.KeyPos+1]
		after := tab.Name[tab.KeyPos+1:]
		parts[i] = padStyle.Render(" ") +
			inactiveStyle.Render(before) +
			dimStyle.Render("[") + keyStyle.Render(key) + dimStyle.Render("]") +
			inactiveStyle.Render(after) +
			padStyle.Render(" ")
	}

	bar := strings.Join(parts, padStyle.Render(" "))
	return lipgloss.NewStyle().Background(t.Surface).Width(width).Render(bar)
}
