package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/fueltank/fueltank/internal/tui/theme"
)

// Tab is a single entry in the tab bar. KeyPos is the index of the
// shortcut letter within Name.
type Tab struct {
	Name   string
	Key    rune
	KeyPos int
}

// Tabs defines all dashboard tabs, in display order.
var Tabs = []Tab{
	{Name: "Dashboard", Key: 'd', KeyPos: 0},
	{Name: "Expenses", Key: 'e', KeyPos: 0},
	{Name: "Bills", Key: 'b', KeyPos: 0},
	{Name: "Alerts", Key: 'a', KeyPos: 0},
	{Name: "Tips", Key: 't', KeyPos: 0},
	{Name: "Goals", Key: 'g', KeyPos: 0},
}

// RenderTabBar renders the tab bar with activeIdx highlighted. badges adds
// a count after a tab name, keyed by tab index.
func RenderTabBar(activeIdx, width int, badges map[int]int) string {
	t := theme.Active

	activeStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.SurfaceHover).
		Bold(true).
		Padding(0, 1)
	inactiveStyle := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)
	keyStyle := lipgloss.NewStyle().
		Foreground(t.Accent).
		Background(t.Surface).
		Bold(true)
	badgeStyle := lipgloss.NewStyle().
		Foreground(t.Orange).
		Background(t.Surface).
		Bold(true)
	sep := lipgloss.NewStyle().Background(t.Surface).Render(" ")

	row := ""
	for i, tab := range Tabs {
		if i > 0 {
			row += sep
		}
		if i == activeIdx {
			row += activeStyle.Render(tab.Name)
		} else {
			before, key, after := tab.Name[:tab.KeyPos], string(tab.Name[tab.KeyPos]), tab.Name[tab.KeyPos+1:]
			row += inactiveStyle.Render(" "+before) + keyStyle.Render(key) + inactiveStyle.Render(after+" ")
		}
		if n := badges[i]; n > 0 {
			row += badgeStyle.Render(fmt.Sprintf("(%d)", n))
		}
	}

	return lipgloss.NewStyle().Background(t.Surface).Width(width).Render(row)
}

// TabVisualWidth returns the rendered width of one tab, badge included.
func TabVisualWidth(tab Tab, badge int) int {
	w := lipgloss.Width(tab.Name) + 2
	if badge > 0 {
		w += len(fmt.Sprintf("(%d)", badge))
	}
	return w
}

// TabIdxByKey returns the tab index for a shortcut key, or -1.
func TabIdxByKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}
