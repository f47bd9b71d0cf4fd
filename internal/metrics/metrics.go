// Package metrics derives balance, burn rate, runway and fuel status from a
// ledger snapshot. Every function is pure given its inputs.
package metrics

import (
	"math"
	"time"

	"github.com/fueltank/fueltank/internal/ledger"
	"github.com/fueltank/fueltank/internal/model"
)

// RunwaySentinel is reported as days remaining when nothing is being spent.
const RunwaySentinel = 999

// SpendWindow is the trailing window used for the average daily spend.
const SpendWindow = 30 * 24 * time.Hour

// NoSalaryWarning is shown on the gauge until a salary has been set.
const NoSalaryWarning = "Set your salary to start tracking fuel"

// Balance returns salary minus expenses and auto-deducted bills, floored at zero.
func Balance(s ledger.State) float64 {
	if s.Salary == nil {
		return 0
	}
	b := s.Salary.Amount - TotalExpenses(s) - AutoDeducted(s)
	if b < 0 {
		return 0
	}
	return b
}

// TotalExpenses sums every expense amount.
func TotalExpenses(s ledger.State) float64 {
	var total float64
	for _, e := range s.Expenses {
		total += e.Amount
	}
	return total
}

// AutoDeducted sums active bills that deduct automatically.
func AutoDeducted(s ledger.State) float64 {
	var total float64
	for _, b := range s.Bills {
		if b.Deducts() {
			total += b.Amount
		}
	}
	return total
}

// RecurringTotal sums every active bill, deducted or not.
func RecurringTotal(s ledger.State) float64 {
	var total float64
	for _, b := range s.Bills {
		if b.IsActive {
			total += b.Amount
		}
	}
	return total
}

// AverageDailySpend is the burn rate over the trailing 30 days. Recurring
// expenses are excluded. The sum is divided by the number of calendar days
// from the oldest qualifying expense through today, inclusive.
func AverageDailySpend(s ledger.State, now time.Time) float64 {
	since := now.Add(-SpendWindow)

	var (
		total  float64
		oldest time.Time
		found  bool
	)
	for _, e := range s.Expenses {
		if e.Source == model.SourceRecurring {
			continue
		}
		if e.Date.Before(since) || e.Date.After(now) {
			continue
		}
		total += e.Amount
		if !found || e.Date.Before(oldest) {
			oldest = e.Date
		}
		found = true
	}
	if !found {
		return 0
	}

	span := math.Max(1, math.Ceil(spanDays(oldest, now)))
	return total / span
}

// spanDays counts local calendar days from the day of from through the day of to.
func spanDays(from, to time.Time) float64 {
	start := startOfDay(from)
	end := startOfDay(to)
	// Round absorbs DST shifts.
	return math.Round(end.Sub(start).Hours()/24) + 1
}

func startOfDay(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// DaysRemaining floors balance/avg. With no spending it returns
// RunwaySentinel while money remains and 0 otherwise.
func DaysRemaining(balance, avg float64) int {
	if avg <= 0 {
		if balance > 0 {
			return RunwaySentinel
		}
		return 0
	}
	return int(math.Floor(balance / avg))
}

// FuelPercentage is the balance as a share of salary, clamped to [0, 100].
func FuelPercentage(balance float64, salary *model.SalaryRecord) float64 {
	if salary == nil || salary.Amount <= 0 {
		return 0
	}
	p := balance / salary.Amount * 100
	return math.Max(0, math.Min(100, p))
}

// LevelFor buckets a fuel percentage.
func LevelFor(pct float64) model.FuelLevel {
	switch {
	case pct > 75:
		return model.FuelFull
	case pct > 50:
		return model.FuelHigh
	case pct > 25:
		return model.FuelMedium
	case pct > 10:
		return model.FuelLow
	case pct > 5:
		return model.FuelCritical
	default:
		return model.FuelEmpty
	}
}

// FuelStatusOf builds the gauge reading.
func FuelStatusOf(balance float64, days int, salary *model.SalaryRecord) model.FuelStatus {
	pct := FuelPercentage(balance, salary)
	level := LevelFor(pct)
	st := model.FuelStatus{
		Level:          level,
		Percentage:     pct,
		DaysRemaining:  days,
		Color:          level.Color(),
		WarningMessage: level.Warning(),
	}
	if salary == nil {
		st.WarningMessage = NoSalaryWarning
	}
	return st
}

// Compute derives every metric from s at now.
func Compute(s ledger.State, now time.Time) model.Metrics {
	balance := Balance(s)
	avg := AverageDailySpend(s, now)
	days := DaysRemaining(balance, avg)
	return model.Metrics{
		Balance:           balance,
		AverageDailySpend: avg,
		DaysRemaining:     days,
		Fuel:              FuelStatusOf(balance, days, s.Salary),
	}
}
