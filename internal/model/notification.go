package model

import "time"

// Priority ranks notifications and suggestions.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank orders priorities: low is 0, urgent is 3.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityNormal:
		return 1
	case PriorityHigh:
		return 2
	case PriorityUrgent:
		return 3
	}
	return -1
}

// NotificationType classifies a notification for per-type toggles.
type NotificationType string

const (
	NotifyFuelWarning   NotificationType = "fuel_warning"
	NotifyBigSpend      NotificationType = "big_spend"
	NotifyAchievement   NotificationType = "achievement"
	NotifyBillReminder  NotificationType = "bill_reminder"
	NotifyDailyReminder NotificationType = "daily_reminder"
	NotifySuggestion    NotificationType = "suggestion"
	NotifyGeneral       NotificationType = "general"
)

// Notification is a user-facing alert. Only IsRead changes after creation.
type Notification struct {
	ID         string            `json:"id"`
	Type       NotificationType  `json:"type"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	Priority   Priority          `json:"priority"`
	IsRead     bool              `json:"is_read"`
	CreatedAt  time.Time         `json:"created_at"`
	ActionData map[string]string `json:"action_data,omitempty"`
	DedupKey   string            `json:"dedup_key,omitempty"`
}

// QuietHours is a local time-of-day window, "HH:MM" on both ends.
type QuietHours struct {
	Enabled   bool   `json:"enabled" toml:"enabled"`
	StartTime string `json:"start_time" toml:"start_time"`
	EndTime   string `json:"end_time" toml:"end_time"`
}

// NotificationSettings holds the per-type toggles and quiet hours.
type NotificationSettings struct {
	FuelAlerts        bool       `json:"fuel_alerts" toml:"fuel_alerts"`
	BigSpendAlerts    bool       `json:"big_spend_alerts" toml:"big_spend_alerts"`
	AchievementAlerts bool       `json:"achievement_alerts" toml:"achievement_alerts"`
	BillReminders     bool       `json:"bill_reminders" toml:"bill_reminders"`
	DailyReminders    bool       `json:"daily_reminders" toml:"daily_reminders"`
	QuietHours        QuietHours `json:"quiet_hours" toml:"quiet_hours"`
	SoundEnabled      bool       `json:"sound_enabled" toml:"sound_enabled"`
	VibrationEnabled  bool       `json:"vibration_enabled" toml:"vibration_enabled"`
}

// DefaultNotificationSettings enables every alert with quiet hours 22:00-07:00 off.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		FuelAlerts:        true,
		BigSpendAlerts:    true,
		AchievementAlerts: true,
		BillReminders:     true,
		DailyReminders:    false,
		QuietHours: QuietHours{
			Enabled:   false,
			StartTime: "22:00",
			EndTime:   "07:00",
		},
		SoundEnabled:     true,
		VibrationEnabled: true,
	}
}

// Allows reports whether notifications of type t are switched on.
func (s NotificationSettings) Allows(t NotificationType) bool {
	switch t {
	case NotifyFuelWarning:
		return s.FuelAlerts
	case NotifyBigSpend:
		return s.BigSpendAlerts
	case NotifyAchievement:
		return s.AchievementAlerts
	case NotifyBillReminder:
		return s.BillReminders
	case NotifyDailyReminder:
		return s.DailyReminders
	case NotifySuggestion, NotifyGeneral:
		return true
	}
	return true
}
