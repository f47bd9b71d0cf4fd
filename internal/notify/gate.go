// Package notify decides which alerts reach the user and delivers them.
//
// The Gate turns fuel level transitions and large expenses into notification
// records, applying per-type toggles, quiet hours and deduplication. Records
// are handed to a Notifier for delivery by the caller.
package notify

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fueltank/fueltank/internal/ledger"
	"github.com/fueltank/fueltank/internal/model"
)

// HistoryLimit caps the stored notification history.
const HistoryLimit = 50

// BigSpendRatio is the share of the pre-expense balance above which an
// expense counts as a big spend.
const BigSpendRatio = 0.10

// Gate records notifications. It is not safe for concurrent use.
type Gate struct {
	settings model.NotificationSettings
	level    model.FuelLevel
	primed   bool

	history []model.Notification // oldest first
	unread  int

	now   func() time.Time
	newID func(time.Time) string
}

// NewGate returns a gate with the given settings.
func NewGate(settings model.NotificationSettings, now func() time.Time) *Gate {
	if now == nil {
		now = time.Now
	}
	return &Gate{settings: settings, now: now, newID: ledger.NewID}
}

// Prime sets the last observed fuel level without emitting anything.
func (g *Gate) Prime(level model.FuelLevel) {
	g.level = level
	g.primed = true
}

// Level returns the last observed fuel level.
func (g *Gate) Level() model.FuelLevel {
	return g.level
}

// ObserveFuel records a fuel warning when st is a downgrade from the last
// observed level. The level is tracked even when the alert is suppressed.
func (g *Gate) ObserveFuel(st model.FuelStatus) (model.Notification, bool) {
	prev, primed := g.level, g.primed
	g.Prime(st.Level)
	if !primed || !st.Level.Below(prev) {
		return model.Notification{}, false
	}

	n, ok := downgradeAlert(st)
	if !ok {
		return model.Notification{}, false
	}
	return g.Add(n)
}

func downgradeAlert(st model.FuelStatus) (model.Notification, bool) {
	n := model.Notification{
		Type:       model.NotifyFuelWarning,
		ActionData: map[string]string{"level": string(st.Level), "days_remaining": strconv.Itoa(st.DaysRemaining)},
	}
	switch st.Level {
	case model.FuelEmpty:
		n.Priority = model.PriorityUrgent
		n.Title = "Tank Empty!"
		n.Message = "You've run out of fuel. Stop all non-essential spending until your next salary."
	case model.FuelCritical:
		n.Priority = model.PriorityHigh
		n.Title = "Critical Fuel Level"
		n.Message = fmt.Sprintf("Only %.0f%% fuel left, about %d days. Cut back to essentials now.", st.Percentage, st.DaysRemaining)
	case model.FuelLow:
		n.Priority = model.PriorityHigh
		n.Title = "Low Fuel Warning"
		n.Message = fmt.Sprintf("Fuel is down to %.0f%%. Time to slow down spending.", st.Percentage)
	case model.FuelMedium:
		n.Priority = model.PriorityNormal
		n.Title = "Fuel Check"
		n.Message = fmt.Sprintf("You're at %.0f%% of your salary. Keep an eye on spending.", st.Percentage)
	case model.FuelHigh, model.FuelFull:
		return model.Notification{}, false
	default:
		return model.Notification{}, false
	}
	return n, true
}

// ObserveExpense records a big spend alert when e exceeds 10% of the balance
// held before it was added. Once the balance is empty every expense counts.
func (g *Gate) ObserveExpense(e model.Expense, preBalance float64, preDays, postDays int) (model.Notification, bool) {
	if e.Amount <= preBalance*BigSpendRatio {
		return model.Notification{}, false
	}
	delta := preDays - postDays

	var msg string
	if preBalance > 0 {
		msg = fmt.Sprintf("%.0f is %.0f%% of your remaining balance.", e.Amount, e.Amount/preBalance*100)
	} else {
		msg = fmt.Sprintf("%.0f spent with the tank already empty.", e.Amount)
	}
	if delta > 0 {
		msg += fmt.Sprintf(" That cost you %d days of runway.", delta)
	}
	return g.Add(model.Notification{
		Type:     model.NotifyBigSpend,
		Title:    "Big Spend Alert",
		Message:  msg,
		Priority: model.PriorityHigh,
		DedupKey: "big_spend:" + e.ID,
		ActionData: map[string]string{
			"expense_id": e.ID,
			"amount":     strconv.FormatFloat(e.Amount, 'f', 2, 64),
			"days_delta": strconv.Itoa(delta),
		},
	})
}

// Add gates n and records it. ID, CreatedAt and IsRead are assigned here.
// It reports false when the notification was suppressed.
func (g *Gate) Add(n model.Notification) (model.Notification, bool) {
	if !g.allowed(n) {
		return model.Notification{}, false
	}

	now := g.now()
	if n.Priority == "" {
		n.Priority = model.PriorityNormal
	}
	if n.Type == "" {
		n.Type = model.NotifyGeneral
	}
	n.ID = g.newID(now)
	n.CreatedAt = now
	n.IsRead = false
	n.ActionData = cloneData(n.ActionData)

	g.history = append(g.history, n)
	g.unread++
	g.trim()
	return n, true
}

func (g *Gate) allowed(n model.Notification) bool {
	if !g.settings.Allows(n.Type) {
		return false
	}
	if n.Priority != model.PriorityUrgent && InQuietHours(g.settings.QuietHours, g.now()) {
		return false
	}
	if n.DedupKey != "" {
		for _, h := range g.history {
			if !h.IsRead && h.DedupKey == n.DedupKey {
				return false
			}
		}
	}
	return true
}

func (g *Gate) trim() {
	if len(g.history) <= HistoryLimit {
		return
	}
	drop := len(g.history) - HistoryLimit
	for _, n := range g.history[:drop] {
		if !n.IsRead {
			g.unread--
		}
	}
	g.history = append([]model.Notification(nil), g.history[drop:]...)
}

// MarkAsRead marks one notification read. It reports whether anything changed.
func (g *Gate) MarkAsRead(id string) bool {
	for i := range g.history {
		if g.history[i].ID == id {
			if g.history[i].IsRead {
				return false
			}
			g.history[i].IsRead = true
			g.unread--
			return true
		}
	}
	return false
}

// MarkAllAsRead marks everything read and returns how many changed.
func (g *Gate) MarkAllAsRead() int {
	n := 0
	for i := range g.history {
		if !g.history[i].IsRead {
			g.history[i].IsRead = true
			n++
		}
	}
	g.unread = 0
	return n
}

// Delete removes a notification. It reports whether id was found.
func (g *Gate) Delete(id string) bool {
	for i := range g.history {
		if g.history[i].ID != id {
			continue
		}
		if !g.history[i].IsRead {
			g.unread--
		}
		g.history = append(g.history[:i], g.history[i+1:]...)
		return true
	}
	return false
}

// UnreadCount returns the number of unread notifications.
func (g *Gate) UnreadCount() int {
	return g.unread
}

// List returns the history, newest first.
func (g *Gate) List() []model.Notification {
	out := make([]model.Notification, len(g.history))
	for i, n := range g.history {
		n.ActionData = cloneData(n.ActionData)
		out[len(g.history)-1-i] = n
	}
	return out
}

// Restore replaces the history with items (newest first, as List returns)
// and recounts unread records.
func (g *Gate) Restore(items []model.Notification) {
	g.history = g.history[:0]
	g.unread = 0
	for i := len(items) - 1; i >= 0; i-- {
		n := items[i]
		if n.ID == "" {
			continue
		}
		g.history = append(g.history, n)
		if !n.IsRead {
			g.unread++
		}
	}
	g.trim()
}

// Settings returns the current notification settings.
func (g *Gate) Settings() model.NotificationSettings {
	return g.settings
}

// UpdateSettings replaces the settings after validating quiet hours.
func (g *Gate) UpdateSettings(s model.NotificationSettings) error {
	if err := ValidateQuietHours(s.QuietHours); err != nil {
		return err
	}
	g.settings = s
	return nil
}

func cloneData(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
