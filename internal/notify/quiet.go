package notify

import (
	"errors"
	"fmt"
	"time"

	"github.com/fueltank/fueltank/internal/model"
)

// ErrBadClock reports a quiet-hours time that is not "HH:MM".
var ErrBadClock = errors.New("time must be HH:MM")

// parseClock returns minutes since midnight for "HH:MM".
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, ErrBadClock)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ValidateQuietHours checks both ends of the window.
func ValidateQuietHours(q model.QuietHours) error {
	if _, err := parseClock(q.StartTime); err != nil {
		return fmt.Errorf("quiet hours start: %w", err)
	}
	if _, err := parseClock(q.EndTime); err != nil {
		return fmt.Errorf("quiet hours end: %w", err)
	}
	return nil
}

// InQuietHours reports whether at falls inside the window, in local time.
// A window with start after end wraps past midnight; start equal to end is
// empty. Disabled or malformed windows never match.
func InQuietHours(q model.QuietHours, at time.Time) bool {
	if !q.Enabled {
		return false
	}
	start, err := parseClock(q.StartTime)
	if err != nil {
		return false
	}
	end, err := parseClock(q.EndTime)
	if err != nil {
		return false
	}

	local := at.Local()
	m := local.Hour()*60 + local.Minute()
	switch {
	case start < end:
		return m >= start && m < end
	case start > end:
		return m >= start || m < end
	default:
		return false
	}
}
