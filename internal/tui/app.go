// Package tui provides the interactive Bubble Tea dashboard for fueltank.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/fueltank/fueltank/internal/cli"
	"github.com/fueltank/fueltank/internal/engine"
	"github.com/fueltank/fueltank/internal/ledger"
	"github.com/fueltank/fueltank/internal/metrics"
	"github.com/fueltank/fueltank/internal/model"
	"github.com/fueltank/fueltank/internal/tui/components"
	"github.com/fueltank/fueltank/internal/tui/theme"
)

const (
	tabDashboard = iota
	tabExpenses
	tabBills
	tabAlerts
	tabTips
	tabGoals
)

const (
	minTerminalWidth = 60
	compactWidth     = 100
	maxContentWidth  = 160
	minContentHeight = 5

	refreshInterval = 2 * time.Second
	messageTTL      = 4 * time.Second
)

// snapshotMsg carries a consistent read of the engine.
type snapshotMsg struct {
	at           time.Time
	metrics      model.Metrics
	state        ledger.State
	analytics    metrics.SpendingAnalytics
	context      metrics.FinancialContext
	notes        []model.Notification
	suggestions  []model.Suggestion
	history      []model.Suggestion
	achievements []model.Achievement
}

// actionMsg reports the outcome of a user action.
type actionMsg struct {
	text string
	err  error
}

type tickMsg time.Time

// App is the root Bubble Tea model.
type App struct {
	engine *engine.Engine

	snap   snapshotMsg
	loaded bool

	width     int
	height    int
	activeTab int
	showHelp  bool
	cursors   [tabGoals + 1]int

	// Transient status line message.
	message   string
	messageAt time.Time

	generating bool
	spinner    spinner.Model

	form     *huh.Form
	formKind formKind
	expense  *expenseValues
}

// NewApp returns a dashboard over eng.
func NewApp(eng *engine.Engine) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	return App{engine: eng, spinner: sp}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		a.snapshotCmd(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (a App) snapshotCmd() tea.Cmd {
	eng := a.engine
	return func() tea.Msg {
		return takeSnapshot(eng)
	}
}

func takeSnapshot(eng *engine.Engine) snapshotMsg {
	return snapshotMsg{
		at:           time.Now(),
		metrics:      eng.Metrics(),
		state:        eng.State(),
		analytics:    eng.Analytics(),
		context:      eng.FinancialContext(),
		notes:        eng.Notifications(),
		suggestions:  eng.Suggestions(),
		history:      eng.SuggestionHistory(),
		achievements: eng.Achievements(),
	}
}

// act runs fn against the engine off the UI goroutine and reports back.
func (a App) act(fn func(*engine.Engine) (string, error)) tea.Cmd {
	eng := a.engine
	return func() tea.Msg {
		text, err := fn(eng)
		return actionMsg{text: text, err: err}
	}
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.form != nil {
		switch msg := msg.(type) {
		case tea.KeyMsg:
			if msg.String() == "ctrl+c" {
				return a, tea.Quit
			}
			return a.updateForm(msg)
		case tea.WindowSizeMsg:
			a.width, a.height = msg.Width, msg.Height
			a.form = a.form.WithWidth(min(msg.Width, 72)).WithHeight(msg.Height)
			return a, nil
		case snapshotMsg, actionMsg, tickMsg, spinner.TickMsg:
			// Background updates continue under the form.
		default:
			return a.updateForm(msg)
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case snapshotMsg:
		a.snap = msg
		a.loaded = true
		a.clampCursors()
		return a, nil

	case actionMsg:
		a.generating = false
		switch {
		case errors.Is(msg.err, engine.ErrStale):
			a.setMessage("Data changed while generating; showing rule tips")
		case msg.err != nil:
			a.setMessage("Error: " + msg.err.Error())
		case msg.text != "":
			a.setMessage(msg.text)
		}
		return a, a.snapshotCmd()

	case tickMsg:
		if a.message != "" && time.Since(a.messageAt) > messageTTL {
			a.message = ""
		}
		return a, tea.Batch(tickCmd(), a.snapshotCmd())

	case spinner.TickMsg:
		if !a.generating {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.MouseMsg:
		return a.updateMouse(msg)

	case tea.KeyMsg:
		return a.updateKey(msg)
	}
	return a, nil
}

func (a App) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	if !a.loaded || a.showHelp {
		return a, nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		a.moveCursor(-1)
	case tea.MouseButtonWheelDown:
		a.moveCursor(1)
	case tea.MouseButtonLeft:
		if msg.Action == tea.MouseActionPress && msg.Y == 0 {
			if tab := a.tabAtX(msg.X); tab >= 0 {
				a.activeTab = tab
			}
		}
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return a, tea.Quit
	}
	if !a.loaded {
		return a, nil
	}
	if key == "?" {
		a.showHelp = !a.showHelp
		return a, nil
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch key {
	case "q":
		return a, tea.Quit
	case "left", "h":
		a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		return a, nil
	case "right", "l", "tab":
		a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		return a, nil
	case "j", "down":
		a.moveCursor(1)
		return a, nil
	case "k", "up":
		a.moveCursor(-1)
		return a, nil
	case "r":
		return a, a.act(func(e *engine.Engine) (string, error) {
			e.Refresh()
			return "Refreshed", nil
		})
	case "n":
		return a.openExpenseForm()
	}

	if cmd := a.tabAction(key); cmd != nil {
		if key == "G" {
			a.generating = true
			return a, tea.Batch(cmd, a.spinner.Tick)
		}
		return a, cmd
	}

	if len(key) == 1 {
		if idx := components.TabIdxByKey(rune(key[0])); idx >= 0 {
			a.activeTab = idx
		}
	}
	return a, nil
}

// tabAction handles the keys that act on the selected row of the active tab.
func (a *App) tabAction(key string) tea.Cmd {
	cur := a.cursors[a.activeTab]
	switch a.activeTab {
	case tabExpenses:
		if key == "x" && cur < len(a.expenses()) {
			exp := a.expenses()[cur]
			return a.act(func(e *engine.Engine) (string, error) {
				e.DeleteExpense(exp.ID)
				return "Deleted " + cli.FormatMoney(exp.Amount) + " expense", nil
			})
		}
	case tabBills:
		switch {
		case key == "x" && cur < len(a.snap.state.Bills):
			bill := a.snap.state.Bills[cur]
			return a.act(func(e *engine.Engine) (string, error) {
				e.DeleteRecurringBill(bill.ID)
				return "Deleted " + bill.Name, nil
			})
		case key == " " && cur < len(a.snap.state.Bills):
			bill := a.snap.state.Bills[cur]
			active := !bill.IsActive
			return a.act(func(e *engine.Engine) (string, error) {
				return "Updated " + bill.Name, e.UpdateRecurringBill(bill.ID, ledger.BillPatch{IsActive: &active})
			})
		case key == "p":
			return a.act(func(e *engine.Engine) (string, error) {
				return fmt.Sprintf("%d bills processed", len(e.ProcessDueBills())), nil
			})
		}
	case tabAlerts:
		notes := a.snap.notes
		switch {
		case key == "enter" && cur < len(notes):
			id := notes[cur].ID
			return a.act(func(e *engine.Engine) (string, error) {
				e.MarkAsRead(id)
				return "", nil
			})
		case key == "x" && cur < len(notes):
			id := notes[cur].ID
			return a.act(func(e *engine.Engine) (string, error) {
				e.DeleteNotification(id)
				return "Notification deleted", nil
			})
		case key == "A":
			return a.act(func(e *engine.Engine) (string, error) {
				return fmt.Sprintf("%d marked read", e.MarkAllAsRead()), nil
			})
		}
	case tabTips:
		tips := a.snap.suggestions
		switch {
		case key == "enter" && cur < len(tips):
			id := tips[cur].ID
			return a.act(func(e *engine.Engine) (string, error) {
				s, ok := e.ApplySuggestion(id)
				if !ok {
					return "Tip is no longer active", nil
				}
				return "Applied: " + s.Title, nil
			})
		case key == "x" && cur < len(tips):
			id := tips[cur].ID
			return a.act(func(e *engine.Engine) (string, error) {
				if _, ok := e.DismissSuggestion(id); !ok {
					return "Tip is no longer active", nil
				}
				return "Dismissed", nil
			})
		case key == "G" && !a.generating:
			return a.act(func(e *engine.Engine) (string, error) {
				out, err := e.GenerateSuggestions(context.Background())
				return fmt.Sprintf("%d tips", len(out)), err
			})
		}
	}
	return nil
}

func (a *App) moveCursor(delta int) {
	n := a.rowCount(a.activeTab)
	c := a.cursors[a.activeTab] + delta
	a.cursors[a.activeTab] = max(0, min(c, n-1))
}

func (a *App) clampCursors() {
	for tab := range a.cursors {
		a.cursors[tab] = max(0, min(a.cursors[tab], a.rowCount(tab)-1))
	}
}

func (a App) rowCount(tab int) int {
	switch tab {
	case tabExpenses:
		return len(a.snap.state.Expenses)
	case tabBills:
		return len(a.snap.state.Bills)
	case tabAlerts:
		return len(a.snap.notes)
	case tabTips:
		return len(a.snap.suggestions)
	case tabGoals:
		return len(a.snap.achievements)
	}
	return 0
}

// expenses returns the ledger's expenses, newest first.
func (a App) expenses() []model.Expense {
	src := a.snap.state.Expenses
	out := make([]model.Expense, len(src))
	for i := range src {
		out[len(src)-1-i] = src[i]
	}
	return out
}

func (a *App) setMessage(s string) {
	a.message = s
	a.messageAt = time.Now()
}

func (a App) unread() int {
	n := 0
	for _, note := range a.snap.notes {
		if !note.IsRead {
			n++
		}
	}
	return n
}

func (a App) badges() map[int]int {
	return map[int]int{tabAlerts: a.unread(), tabTips: len(a.snap.suggestions)}
}

// tabAtX returns the tab index under column x, or -1.
func (a App) tabAtX(x int) int {
	badges := a.badges()
	pos := 0
	for i, tab := range components.Tabs {
		w := components.TabVisualWidth(tab, badges[i])
		if x >= pos && x < pos+w {
			return i
		}
		pos += w + 1 // separator
	}
	return -1
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return fmt.Sprintf("\n  Terminal too narrow (%d cols)\n\n  fueltank needs at least %d columns.\n", a.width, minTerminalWidth)
	}
	if a.form != nil {
		return a.form.View()
	}
	if !a.loaded {
		return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, "Loading ledger...")
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewMain() string {
	t := theme.Active
	w, h := a.width, a.height
	cw := a.contentWidth()

	header := components.RenderTabBar(a.activeTab, w, a.badges())

	message := a.message
	if a.generating {
		message = a.spinner.View() + " generating tips"
	}
	age := "updated " + cli.FormatAgo(a.snap.at, time.Now())
	status := components.RenderStatusBar(w, a.hints(), message, age)

	contentH := max(minContentHeight, h-lipgloss.Height(header)-lipgloss.Height(status))

	var content string
	switch a.activeTab {
	case tabDashboard:
		content = a.renderDashboardTab(cw)
	case tabExpenses:
		content = a.renderExpensesTab(cw, contentH)
	case tabBills:
		content = a.renderBillsTab(cw, contentH)
	case tabAlerts:
		content = a.renderAlertsTab(cw, contentH)
	case tabTips:
		content = a.renderTipsTab(cw, contentH)
	case tabGoals:
		content = a.renderGoalsTab(cw)
	}

	content = padHeight(truncateHeight(content, contentH), contentH)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	return lipgloss.JoinVertical(lipgloss.Left, header, content, status)
}

func (a App) hints() string {
	switch a.activeTab {
	case tabExpenses:
		return "[n]ew  [x]delete  [?]help  [q]uit"
	case tabBills:
		return "[space]toggle  [x]delete  [p]rocess due  [?]help"
	case tabAlerts:
		return "[enter]read  [A]ll read  [x]delete  [?]help"
	case tabTips:
		return "[enter]apply  [x]dismiss  [G]enerate  [?]help"
	}
	return "[n]ew expense  [r]efresh  [?]help  [q]uit"
}

func (a App) viewHelp() string {
	t := theme.Active

	card := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	title := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	desc := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)

	bindings := []struct{ key, desc string }{
		{"d e b a t g", "Jump to tab"},
		{"← →", "Previous / next tab"},
		{"j k", "Move selection"},
		{"n", "Add an expense"},
		{"enter", "Mark read / apply tip"},
		{"x", "Delete or dismiss selection"},
		{"A", "Mark all alerts read"},
		{"G", "Generate tips"},
		{"p", "Process due bills"},
		{"r", "Recompute metrics"},
		{"q", "Quit"},
	}

	var b strings.Builder
	b.WriteString(title.Render("Keyboard Shortcuts"))
	b.WriteString("\n\n")
	for _, bind := range bindings {
		fmt.Fprintf(&b, "%s  %s\n", keyStyle.Render(fmt.Sprintf("%-12s", bind.key)), desc.Render(bind.desc))
	}
	b.WriteString("\n")
	b.WriteString(desc.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, card.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

// selectable renders rows with the cursor row highlighted, scrolled so the
// cursor stays within height lines.
func selectable(rows []string, cursor, width, height int) string {
	if len(rows) == 0 {
		return ""
	}
	t := theme.Active
	height = max(1, height)
	offset := 0
	if cursor >= height {
		offset = cursor - height + 1
	}
	end := min(len(rows), offset+height)

	normal := lipgloss.NewStyle().Background(t.Surface).Width(width)
	active := lipgloss.NewStyle().Background(t.SurfaceHover).Foreground(t.AccentBright).Width(width)

	out := make([]string, 0, end-offset)
	for i := offset; i < end; i++ {
		if i == cursor {
			out = append(out, active.Render("▸ "+rows[i]))
		} else {
			out = append(out, normal.Render("  "+rows[i]))
		}
	}
	return strings.Join(out, "\n")
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}
