package model

import "time"

// Progress tracks an achievement towards its target.
type Progress struct {
	Current    float64 `json:"current"`
	Target     float64 `json:"target"`
	Percentage int     `json:"percentage"`
}

// Achievement is a badge unlocked once its progress reaches the target.
type Achievement struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Progress    Progress   `json:"progress"`
	UnlockedAt  *time.Time `json:"unlocked_at,omitempty"`
}

// Unlocked reports whether the achievement has been earned.
func (a Achievement) Unlocked() bool {
	return a.UnlockedAt != nil
}
