package engine

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/fueltank/fueltank/internal/ledger"
	"github.com/fueltank/fueltank/internal/model"
	"github.com/fueltank/fueltank/internal/notify"
)

// Notifications returns the history, newest first.
func (e *Engine) Notifications() []model.Notification {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gate.List()
}

// UnreadCount returns the number of unread notifications.
func (e *Engine) UnreadCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gate.UnreadCount()
}

// AddNotification gates and records n, then delivers it. It reports false
// when settings, quiet hours or deduplication suppressed it.
func (e *Engine) AddNotification(n model.Notification) (model.Notification, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	out, ok := e.gate.Add(n)
	if !ok {
		return model.Notification{}, false
	}
	e.deliverLocked(out)
	e.persistLocked()
	return out, true
}

// MarkAsRead marks one notification read.
func (e *Engine) MarkAsRead(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.gate.MarkAsRead(id) {
		return false
	}
	e.persistLocked()
	return true
}

// MarkAllAsRead marks every notification read and returns how many changed.
func (e *Engine) MarkAllAsRead() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := e.gate.MarkAllAsRead()
	if n > 0 {
		e.persistLocked()
	}
	return n
}

// DeleteNotification removes a notification.
func (e *Engine) DeleteNotification(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.gate.Delete(id) {
		return false
	}
	e.persistLocked()
	return true
}

// Settings returns the notification settings.
func (e *Engine) Settings() model.NotificationSettings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gate.Settings()
}

// UpdateSettings replaces the notification settings. Malformed quiet hours
// are reported as a *ledger.ValidationError.
func (e *Engine) UpdateSettings(s model.NotificationSettings) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.gate.UpdateSettings(s); err != nil {
		if errors.Is(err, notify.ErrBadClock) {
			return &ledger.ValidationError{Field: "quiet_hours", Message: err.Error()}
		}
		return err
	}
	e.log.WithField("quiet_hours", s.QuietHours.Enabled).Info("notification settings updated")
	e.persistLocked()
	return nil
}

// DailyReminder records the daily check-in notification. It is off unless
// daily reminders are enabled.
func (e *Engine) DailyReminder() (model.Notification, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.metricsLocked()
	now := e.now()
	msg := fmt.Sprintf("Balance %.2f, about %d days of fuel left. Log today's expenses.", m.Balance, m.DaysRemaining)
	n, ok := e.gate.Add(model.Notification{
		Type:     model.NotifyDailyReminder,
		Title:    "Daily Check-in",
		Message:  msg,
		Priority: model.PriorityLow,
		DedupKey: "daily:" + now.Format(time.DateOnly),
		ActionData: map[string]string{
			"balance":        strconv.FormatFloat(m.Balance, 'f', 2, 64),
			"days_remaining": strconv.Itoa(m.DaysRemaining),
		},
	})
	if !ok {
		return model.Notification{}, false
	}
	e.deliverLocked(n)
	e.persistLocked()
	return n, true
}

// ScheduleBillReminders replaces every scheduled delivery with one reminder
// per active bill, fired the day before it is due. It returns how many were
// scheduled.
func (e *Engine) ScheduleBillReminders(ctx context.Context) (int, error) {
	e.mu.Lock()
	notifier := e.notifier
	settings := e.gate.Settings()
	state := e.ledger.Snapshot()
	now := e.now()
	e.mu.Unlock()

	if notifier == nil {
		return 0, nil
	}
	if err := notifier.CancelAll(ctx); err != nil {
		return 0, fmt.Errorf("cancelling scheduled reminders: %w", err)
	}
	if !settings.BillReminders {
		return 0, nil
	}

	var errs []error
	count := 0
	for _, b := range state.Bills {
		if !b.IsActive {
			continue
		}
		trigger := b.NextDueDate.AddDate(0, 0, -1)
		if trigger.Before(now) {
			trigger = now
		}
		n := billReminder(b)
		if _, err := notifier.Schedule(ctx, n.Title, n.Message, trigger, n.ActionData); err != nil {
			errs = append(errs, fmt.Errorf("scheduling %s: %w", b.Name, err))
			continue
		}
		count++
	}
	return count, errors.Join(errs...)
}
