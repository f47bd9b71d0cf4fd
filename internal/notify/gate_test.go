package notify

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fueltank/fueltank/internal/model"
)

var noon = time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)

func newTestGate(t *testing.T, at time.Time) *Gate {
	t.Helper()
	return NewGate(model.DefaultNotificationSettings(), func() time.Time { return at })
}

func status(level model.FuelLevel) model.FuelStatus {
	return model.FuelStatus{Level: level, Percentage: 50, DaysRemaining: 3}
}

func TestObserveFuel_OnlyDowngradesAlert(t *testing.T) {
	g := newTestGate(t, noon)
	g.Prime(model.FuelFull)

	_, ok := g.ObserveFuel(status(model.FuelHigh))
	assert.False(t, ok, "high is silent")

	n, ok := g.ObserveFuel(status(model.FuelMedium))
	require.True(t, ok)
	assert.Equal(t, "Fuel Check", n.Title)
	assert.Equal(t, model.PriorityNormal, n.Priority)

	_, ok = g.ObserveFuel(status(model.FuelMedium))
	assert.False(t, ok, "same level is silent")

	_, ok = g.ObserveFuel(status(model.FuelFull))
	assert.False(t, ok, "upgrade is silent")

	n, ok = g.ObserveFuel(status(model.FuelLow))
	require.True(t, ok)
	assert.Equal(t, "Low Fuel Warning", n.Title)
	assert.Equal(t, model.PriorityHigh, n.Priority)

	n, ok = g.ObserveFuel(status(model.FuelCritical))
	require.True(t, ok)
	assert.Equal(t, "Critical Fuel Level", n.Title)

	n, ok = g.ObserveFuel(status(model.FuelEmpty))
	require.True(t, ok)
	assert.Equal(t, "Tank Empty!", n.Title)
	assert.Equal(t, model.PriorityUrgent, n.Priority)

	assert.Equal(t, 4, g.UnreadCount())
}

func TestObserveFuel_UnprimedIsSilent(t *testing.T) {
	g := newTestGate(t, noon)
	_, ok := g.ObserveFuel(status(model.FuelCritical))
	assert.False(t, ok)
	assert.Equal(t, model.FuelCritical, g.Level())
}

func TestObserveFuel_RepeatedCriticalAlertsOnce(t *testing.T) {
	g := newTestGate(t, noon)
	g.Prime(model.FuelLow)

	_, ok := g.ObserveFuel(status(model.FuelCritical))
	require.True(t, ok)
	_, ok = g.ObserveFuel(status(model.FuelCritical))
	assert.False(t, ok)
	assert.Len(t, g.List(), 1)
}

func TestObserveFuel_DisabledStillTracksLevel(t *testing.T) {
	g := newTestGate(t, noon)
	s := g.Settings()
	s.FuelAlerts = false
	require.NoError(t, g.UpdateSettings(s))
	g.Prime(model.FuelFull)

	_, ok := g.ObserveFuel(status(model.FuelLow))
	assert.False(t, ok)
	assert.Equal(t, model.FuelLow, g.Level())

	s.FuelAlerts = true
	require.NoError(t, g.UpdateSettings(s))
	_, ok = g.ObserveFuel(status(model.FuelLow))
	assert.False(t, ok, "no transition, no alert")
}

func TestObserveExpense(t *testing.T) {
	g := newTestGate(t, noon)

	e := model.Expense{ID: "x1", Amount: 1500}
	n, ok := g.ObserveExpense(e, 10000, 999, 5)
	require.True(t, ok)
	assert.Contains(t, n.Title, "Big Spend Alert")
	assert.Equal(t, model.NotifyBigSpend, n.Type)
	assert.Equal(t, "994", n.ActionData["days_delta"])
	assert.Equal(t, "x1", n.ActionData["expense_id"])

	_, ok = g.ObserveExpense(model.Expense{ID: "x2", Amount: 1000}, 10000, 10, 9)
	assert.False(t, ok, "exactly 10% is not big")

	n, ok = g.ObserveExpense(model.Expense{ID: "x3", Amount: 50}, 0, 0, 0)
	require.True(t, ok, "any spend on an empty tank is big")
	assert.Contains(t, n.Message, "already empty")
	assert.Equal(t, "0", n.ActionData["days_delta"])
}

func TestObserveFuel_AlertsAgainAfterRecovery(t *testing.T) {
	g := newTestGate(t, noon)
	g.Prime(model.FuelFull)

	_, ok := g.ObserveFuel(status(model.FuelCritical))
	require.True(t, ok)
	_, ok = g.ObserveFuel(status(model.FuelFull))
	require.False(t, ok)
	_, ok = g.ObserveFuel(status(model.FuelCritical))
	require.True(t, ok, "a second downgrade alerts even while the first is unread")

	assert.Len(t, g.List(), 2)
	assert.Equal(t, 2, g.UnreadCount())
}

func TestQuietHoursSuppressNonUrgent(t *testing.T) {
	late := time.Date(2025, 6, 15, 23, 30, 0, 0, time.Local)
	g := newTestGate(t, late)
	s := g.Settings()
	s.QuietHours.Enabled = true
	require.NoError(t, g.UpdateSettings(s))

	_, ok := g.Add(model.Notification{Title: "hi", Priority: model.PriorityHigh})
	assert.False(t, ok)

	_, ok = g.Add(model.Notification{Title: "empty", Priority: model.PriorityUrgent})
	assert.True(t, ok)
	assert.Equal(t, 1, g.UnreadCount())
}

func TestInQuietHours(t *testing.T) {
	at := func(h, m int) time.Time { return time.Date(2025, 6, 15, h, m, 0, 0, time.Local) }
	tests := []struct {
		name       string
		start, end string
		at         time.Time
		want       bool
	}{
		{"wrap late", "22:00", "07:00", at(23, 0), true},
		{"wrap early", "22:00", "07:00", at(6, 59), true},
		{"wrap end exclusive", "22:00", "07:00", at(7, 0), false},
		{"wrap midday", "22:00", "07:00", at(12, 0), false},
		{"same day inside", "13:00", "15:00", at(14, 0), true},
		{"same day outside", "13:00", "15:00", at(15, 30), false},
		{"equal is empty", "10:00", "10:00", at(10, 0), false},
		{"malformed", "25:99", "07:00", at(23, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := model.QuietHours{Enabled: true, StartTime: tt.start, EndTime: tt.end}
			assert.Equal(t, tt.want, InQuietHours(q, tt.at))
		})
	}

	assert.False(t, InQuietHours(model.QuietHours{StartTime: "00:00", EndTime: "23:59"}, at(12, 0)), "disabled")
}

func TestUpdateSettings_RejectsBadClock(t *testing.T) {
	g := newTestGate(t, noon)
	s := g.Settings()
	s.QuietHours.StartTime = "10pm"
	err := g.UpdateSettings(s)
	require.ErrorIs(t, err, ErrBadClock)
	assert.Equal(t, "22:00", g.Settings().QuietHours.StartTime)
}

func TestDedupByUnreadKey(t *testing.T) {
	g := newTestGate(t, noon)

	n, ok := g.Add(model.Notification{Title: "a", DedupKey: "k"})
	require.True(t, ok)
	_, ok = g.Add(model.Notification{Title: "b", DedupKey: "k"})
	assert.False(t, ok)

	require.True(t, g.MarkAsRead(n.ID))
	_, ok = g.Add(model.Notification{Title: "c", DedupKey: "k"})
	assert.True(t, ok)
}

func TestUnreadCounting(t *testing.T) {
	g := newTestGate(t, noon)

	var ids []string
	for i := 0; i < 3; i++ {
		n, ok := g.Add(model.Notification{Title: fmt.Sprint(i)})
		require.True(t, ok)
		ids = append(ids, n.ID)
	}
	assert.Equal(t, 3, g.UnreadCount())

	assert.True(t, g.MarkAsRead(ids[0]))
	assert.False(t, g.MarkAsRead(ids[0]), "already read")
	assert.False(t, g.MarkAsRead("missing"))
	assert.Equal(t, 2, g.UnreadCount())

	assert.True(t, g.Delete(ids[1]))
	assert.Equal(t, 1, g.UnreadCount())
	assert.True(t, g.Delete(ids[0]))
	assert.Equal(t, 1, g.UnreadCount(), "deleting a read item keeps the count")
	assert.False(t, g.Delete("missing"))

	assert.Equal(t, 1, g.MarkAllAsRead())
	assert.Zero(t, g.UnreadCount())
}

func TestHistoryCap(t *testing.T) {
	g := newTestGate(t, noon)
	first, ok := g.Add(model.Notification{Title: "first"})
	require.True(t, ok)
	require.True(t, g.MarkAsRead(first.ID))

	for i := 0; i < HistoryLimit+5; i++ {
		_, ok := g.Add(model.Notification{Title: fmt.Sprint(i)})
		require.True(t, ok)
	}

	list := g.List()
	require.Len(t, list, HistoryLimit)
	assert.Equal(t, fmt.Sprint(HistoryLimit+4), list[0].Title, "newest first")
	assert.Equal(t, HistoryLimit, g.UnreadCount())
}

func TestRestore(t *testing.T) {
	g := newTestGate(t, noon)
	g.Restore([]model.Notification{
		{ID: "3", Title: "c"},
		{ID: "2", Title: "b", IsRead: true},
		{ID: "", Title: "corrupt"},
		{ID: "1", Title: "a"},
	})
	assert.Equal(t, 2, g.UnreadCount())
	list := g.List()
	require.Len(t, list, 3)
	assert.Equal(t, "3", list[0].ID)
	assert.Equal(t, "1", list[2].ID)
}
