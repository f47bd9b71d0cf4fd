package metrics

import (
	"sort"
	"time"

	"github.com/fueltank/fueltank/internal/ledger"
	"github.com/fueltank/fueltank/internal/model"
)

// TopCategoryLimit caps FinancialContext.TopCategories.
const TopCategoryLimit = 3

// CategorySpend is one category's share of total spending.
type CategorySpend struct {
	Category model.Category `json:"category"`
	Amount   float64        `json:"amount"`
	Share    float64        `json:"share"` // 0..1 of total expenses
}

// FinancialContext is the read-only view the suggestion rules run against.
type FinancialContext struct {
	Balance              float64         `json:"balance"`
	DaysLeft             int             `json:"days_left"`
	Salary               float64         `json:"salary"`
	AvgDailySpend        float64         `json:"avg_daily_spend"`
	TopCategories        []CategorySpend `json:"top_categories"`
	TotalExpenses        float64         `json:"total_expenses"`
	RecurringBillsAmount float64         `json:"recurring_bills_amount"`
}

// DailySpend is the spending total for one local calendar day.
type DailySpend struct {
	Date  time.Time `json:"date"`
	Total float64   `json:"total"`
}

// SpendingAnalytics compares recent spending against the week before.
type SpendingAnalytics struct {
	Last7Days          float64        `json:"last_7_days"`
	Previous7Days      float64        `json:"previous_7_days"`
	WeekOverWeekChange float64        `json:"week_over_week_change"` // fraction; 0.3 is +30%
	Daily              []DailySpend   `json:"daily"`                 // most recent first, 14 entries
	Largest            *model.Expense `json:"largest,omitempty"`
}

// FinancialContextOf builds the suggestion input from s at now.
func FinancialContextOf(s ledger.State, now time.Time) FinancialContext {
	m := Compute(s, now)
	ctx := FinancialContext{
		Balance:              m.Balance,
		DaysLeft:             m.DaysRemaining,
		AvgDailySpend:        m.AverageDailySpend,
		TopCategories:        TopCategories(s, TopCategoryLimit),
		TotalExpenses:        TotalExpenses(s),
		RecurringBillsAmount: RecurringTotal(s),
	}
	if s.Salary != nil {
		ctx.Salary = s.Salary.Amount
	}
	return ctx
}

// TopCategories ranks categories by total spend, largest first, and returns
// at most limit entries. Ties keep the category declaration order.
func TopCategories(s ledger.State, limit int) []CategorySpend {
	total := TotalExpenses(s)
	if total <= 0 {
		return nil
	}

	byCat := make(map[model.Category]float64)
	for _, e := range s.Expenses {
		byCat[e.Category] += e.Amount
	}

	out := make([]CategorySpend, 0, len(byCat))
	for _, c := range model.Categories {
		amt, ok := byCat[c]
		if !ok {
			continue
		}
		out = append(out, CategorySpend{Category: c, Amount: amt, Share: amt / total})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount > out[j].Amount
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// AnalyticsOf summarizes the last 14 days of non-recurring spending.
func AnalyticsOf(s ledger.State, now time.Time) SpendingAnalytics {
	today := startOfDay(now)
	weekAgo := today.AddDate(0, 0, -6)
	twoWeeksAgo := today.AddDate(0, 0, -13)

	dayMap := make(map[string]float64)
	var a SpendingAnalytics
	for i := range s.Expenses {
		e := s.Expenses[i]
		if e.Source == model.SourceRecurring || e.Date.After(now) {
			continue
		}
		day := startOfDay(e.Date)
		if day.Before(twoWeeksAgo) {
			continue
		}
		if day.Before(weekAgo) {
			a.Previous7Days += e.Amount
		} else {
			a.Last7Days += e.Amount
		}
		dayMap[day.Format("2006-01-02")] += e.Amount
		if a.Largest == nil || e.Amount > a.Largest.Amount {
			a.Largest = &e
		}
	}

	for day := today; !day.Before(twoWeeksAgo); day = day.AddDate(0, 0, -1) {
		a.Daily = append(a.Daily, DailySpend{Date: day, Total: dayMap[day.Format("2006-01-02")]})
	}

	if a.Previous7Days > 0 {
		a.WeekOverWeekChange = (a.Last7Days - a.Previous7Days) / a.Previous7Days
	}
	return a
}
