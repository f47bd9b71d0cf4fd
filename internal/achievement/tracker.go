// Package achievement tracks progress badges. Progress only moves forward
// and each badge unlocks once.
package achievement

import (
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fueltank/fueltank/internal/ledger"
	"github.com/fueltank/fueltank/internal/model"
)

// Achievement ids.
const (
	FirstExpense  = "first_expense"
	ExpenseLogger = "expense_logger"
	FuelUp        = "fuel_up"
	BillBoss      = "bill_boss"
	LongRunway    = "long_runway"
	SmartMover    = "smart_mover"
)

// Definition describes a catalog entry.
type Definition struct {
	ID          string
	Title       string
	Description string
	Target      float64
}

// Catalog is the fixed set of achievements.
var Catalog = []Definition{
	{FirstExpense, "First Drop", "Log your first expense", 1},
	{ExpenseLogger, "Expense Logger", "Log 50 expenses", 50},
	{FuelUp, "Fuel Up", "Set your salary", 1},
	{BillBoss, "Bill Boss", "Track 5 recurring bills", 5},
	{LongRunway, "Long Runway", "Reach 30 days of runway", 30},
	{SmartMover, "Smart Mover", "Apply 5 suggestions", 5},
}

// Tracker holds achievement progress. It is not safe for concurrent use.
type Tracker struct {
	items  []model.Achievement
	index  map[string]int
	now    func() time.Time
	logger *logrus.Logger
}

// NewTracker builds a tracker from defs. Entries with a non-positive target
// or a duplicate id are skipped and logged.
func NewTracker(defs []Definition, now func() time.Time, logger *logrus.Logger) *Tracker {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	t := &Tracker{index: make(map[string]int), now: now, logger: logger}
	for _, d := range defs {
		if d.Target <= 0 || math.IsNaN(d.Target) || math.IsInf(d.Target, 0) {
			logger.WithFields(logrus.Fields{"id": d.ID, "target": d.Target}).Warn("achievement: invalid target, skipping")
			continue
		}
		if _, dup := t.index[d.ID]; dup {
			logger.WithField("id", d.ID).Warn("achievement: duplicate id, skipping")
			continue
		}
		t.index[d.ID] = len(t.items)
		t.items = append(t.items, model.Achievement{
			ID:          d.ID,
			Title:       d.Title,
			Description: d.Description,
			Progress:    model.Progress{Target: d.Target},
		})
	}
	return t
}

// List returns every achievement in catalog order.
func (t *Tracker) List() []model.Achievement {
	out := make([]model.Achievement, len(t.items))
	copy(out, t.items)
	return out
}

// Get returns one achievement.
func (t *Tracker) Get(id string) (model.Achievement, bool) {
	i, ok := t.index[id]
	if !ok {
		return model.Achievement{}, false
	}
	return t.items[i], true
}

// UpdateProgress adds delta to an achievement's progress, clamped to its
// target. Non-positive deltas are ignored. It returns the achievement and
// whether this call unlocked it.
func (t *Tracker) UpdateProgress(id string, delta float64) (model.Achievement, bool) {
	i, ok := t.index[id]
	if !ok {
		return model.Achievement{}, false
	}
	a := &t.items[i]
	if delta <= 0 || math.IsNaN(delta) {
		return *a, false
	}
	return t.setProgress(a, a.Progress.Current+delta)
}

// raise moves progress up to value if it is higher than the current value.
func (t *Tracker) raise(id string, value float64) (model.Achievement, bool) {
	i, ok := t.index[id]
	if !ok {
		return model.Achievement{}, false
	}
	a := &t.items[i]
	if value <= a.Progress.Current {
		return *a, false
	}
	return t.setProgress(a, value)
}

func (t *Tracker) setProgress(a *model.Achievement, value float64) (model.Achievement, bool) {
	a.Progress.Current = math.Min(value, a.Progress.Target)
	a.Progress.Percentage = int(math.Round(100 * a.Progress.Current / a.Progress.Target))
	if a.Progress.Percentage >= 100 && a.UnlockedAt == nil {
		now := t.now()
		a.UnlockedAt = &now
		return *a, true
	}
	return *a, false
}

// Observe maps ledger events and current metrics onto progress and returns
// the achievements unlocked by this call.
func (t *Tracker) Observe(events []ledger.Event, m model.Metrics, s ledger.State, applied int) []model.Achievement {
	var unlocked []model.Achievement
	collect := func(a model.Achievement, ok bool) {
		if ok {
			unlocked = append(unlocked, a)
		}
	}

	for _, ev := range events {
		switch ev.Kind {
		case ledger.EventExpenseAdded:
			collect(t.UpdateProgress(FirstExpense, 1))
			collect(t.UpdateProgress(ExpenseLogger, 1))
		case ledger.EventSalarySet:
			collect(t.UpdateProgress(FuelUp, 1))
		}
	}

	active := 0
	for _, b := range s.Bills {
		if b.IsActive {
			active++
		}
	}
	collect(t.raise(BillBoss, float64(active)))

	if s.Salary != nil && m.AverageDailySpend > 0 {
		collect(t.raise(LongRunway, float64(m.DaysRemaining)))
	}
	collect(t.raise(SmartMover, float64(applied)))

	return unlocked
}

// Restore overlays persisted progress onto the catalog. Unknown ids are
// ignored and progress is clamped to the current target.
func (t *Tracker) Restore(saved []model.Achievement) {
	for _, sa := range saved {
		i, ok := t.index[sa.ID]
		if !ok {
			continue
		}
		a := &t.items[i]
		cur := sa.Progress.Current
		if cur < 0 || math.IsNaN(cur) {
			t.logger.WithField("id", sa.ID).Warn("achievement: corrupt progress, resetting")
			cur = 0
		}
		a.Progress.Current = math.Min(cur, a.Progress.Target)
		a.Progress.Percentage = int(math.Round(100 * a.Progress.Current / a.Progress.Target))
		a.UnlockedAt = sa.UnlockedAt
		if a.UnlockedAt == nil && a.Progress.Percentage >= 100 {
			now := t.now()
			a.UnlockedAt = &now
		}
	}
}
