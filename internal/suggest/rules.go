package suggest

import (
	"fmt"
	"strings"
	"time"

	"github.com/fueltank/fueltank/internal/metrics"
	"github.com/fueltank/fueltank/internal/model"
)

// Rule identifiers. Only one active suggestion per rule exists at a time.
const (
	RuleEmergency            = "emergency"
	RuleLowFuel              = "low_fuel"
	RuleBudgetAdjustment     = "budget_adjustment"
	RuleInvestment           = "investment"
	RuleSavings              = "savings"
	RuleCategoryOptimization = "category_optimization"
	RuleBillReview           = "bill_review"
	RuleFuelWarning          = "fuel_warning"
	RuleSpendingTrend        = "spending_trend"
)

// Thresholds, as fractions of salary unless noted.
const (
	emergencyRatio      = 0.05
	lowFuelRatio        = 0.10
	lowFuelDays         = 7
	budgetDays          = 20
	investRatio         = 0.5
	investDays          = 25
	investShare         = 0.3
	savingsLowRatio     = 0.3
	savingsDays         = 20
	savingsShare        = 0.2
	categoryShare       = 0.4
	categoryCut         = 0.2
	billRatio           = 0.4
	billCut             = 0.1
	fuelWarningDays     = 10
	fuelWarningLifetime = 24 * time.Hour
	trendIncrease       = 0.30
)

// Source values for Suggestion.Source.
const (
	SourceRules    = "rules"
	SourceExternal = "external"
	SourceManual   = "manual"
)

// Candidates evaluates every rule against ctx. Rules are independent, so
// several may fire together. Nothing fires without a salary.
func Candidates(ctx metrics.FinancialContext, a *metrics.SpendingAnalytics, now time.Time) []model.Suggestion {
	if ctx.Salary <= 0 {
		return nil
	}

	var out []model.Suggestion
	add := func(s model.Suggestion) {
		s.Source = SourceRules
		out = append(out, s)
	}

	salary := ctx.Salary
	if ctx.Balance < emergencyRatio*salary {
		add(model.Suggestion{
			Rule:     RuleEmergency,
			Type:     model.SuggestEmergency,
			Title:    "Emergency: stop non-essential spending",
			Action:   "Your tank is almost dry. Pause everything except rent, food and transport until payday.",
			Priority: model.PriorityUrgent,
			Impact:   model.Impact{ConfidenceScore: 0.95},
		})
	}

	if (ctx.Balance >= emergencyRatio*salary && ctx.Balance < lowFuelRatio*salary) || ctx.DaysLeft < lowFuelDays {
		add(model.Suggestion{
			Rule:     RuleLowFuel,
			Type:     model.SuggestWarning,
			Title:    "Low fuel",
			Action:   fmt.Sprintf("Only %d days of runway left. Trim daily spending to stretch it.", ctx.DaysLeft),
			Priority: model.PriorityHigh,
			Impact:   model.Impact{ConfidenceScore: 0.9},
		})
	}

	if ctx.AvgDailySpend > salary/30 && ctx.DaysLeft < budgetDays {
		budget := ctx.Balance / budgetDays
		saved := (ctx.AvgDailySpend - budget) * budgetDays
		gained := budgetDays - ctx.DaysLeft
		add(model.Suggestion{
			Rule:     RuleBudgetAdjustment,
			Type:     model.SuggestBudget,
			Title:    "Adjust your daily budget",
			Action:   fmt.Sprintf("Spend at most %.0f a day to make your balance last %d days.", budget, budgetDays),
			Priority: model.PriorityHigh,
			Impact: model.Impact{
				DaysGained:      &gained,
				MoneySaved:      positive(saved),
				ConfidenceScore: 0.85,
			},
		})
	}

	if ctx.Balance > investRatio*salary && ctx.DaysLeft > investDays {
		amount := investShare * ctx.Balance
		add(model.Suggestion{
			Rule:     RuleInvestment,
			Type:     model.SuggestInvestment,
			Title:    "Put surplus to work",
			Action:   fmt.Sprintf("You're well fuelled. Consider investing %.0f.", amount),
			Priority: model.PriorityNormal,
			Impact:   model.Impact{MoneySaved: &amount, ConfidenceScore: 0.7},
		})
	}

	if ctx.Balance > savingsLowRatio*salary && ctx.Balance <= investRatio*salary && ctx.DaysLeft > savingsDays {
		amount := savingsShare * ctx.Balance
		add(model.Suggestion{
			Rule:     RuleSavings,
			Type:     model.SuggestSavings,
			Title:    "Top up your savings",
			Action:   fmt.Sprintf("Move %.0f to savings while you have runway.", amount),
			Priority: model.PriorityNormal,
			Impact:   model.Impact{MoneySaved: &amount, ConfidenceScore: 0.75},
		})
	}

	if len(ctx.TopCategories) > 0 && ctx.TopCategories[0].Share > categoryShare {
		top := ctx.TopCategories[0]
		saved := categoryCut * top.Amount
		add(model.Suggestion{
			Rule:     RuleCategoryOptimization,
			Type:     model.SuggestCategory,
			Title:    fmt.Sprintf("%s is %.0f%% of your spending", top.Category.Label(), top.Share*100),
			Action:   strings.Join(Tips(top.Category), ". ") + ".",
			Priority: model.PriorityNormal,
			Impact:   model.Impact{MoneySaved: &saved, ConfidenceScore: 0.65},
		})
	}

	if ctx.RecurringBillsAmount > billRatio*salary {
		saved := billCut * ctx.RecurringBillsAmount
		add(model.Suggestion{
			Rule:     RuleBillReview,
			Type:     model.SuggestBillReview,
			Title:    "Review your recurring bills",
			Action:   fmt.Sprintf("Bills take %.0f%% of your salary. Cancel or renegotiate what you can.", ctx.RecurringBillsAmount/salary*100),
			Priority: model.PriorityNormal,
			Impact:   model.Impact{MoneySaved: &saved, ConfidenceScore: 0.6},
		})
	}

	if ctx.DaysLeft > 0 && ctx.DaysLeft < fuelWarningDays {
		expires := now.Add(fuelWarningLifetime)
		add(model.Suggestion{
			Rule:      RuleFuelWarning,
			Type:      model.SuggestFuelWarning,
			Title:     fmt.Sprintf("%d days of fuel left", ctx.DaysLeft),
			Action:    "Skip one discretionary purchase today.",
			Priority:  model.PriorityHigh,
			Impact:    model.Impact{ConfidenceScore: 0.8},
			ExpiresAt: &expires,
		})
	}

	if a != nil && a.Previous7Days > 0 && a.WeekOverWeekChange > trendIncrease {
		extra := a.Last7Days - a.Previous7Days
		add(model.Suggestion{
			Rule:     RuleSpendingTrend,
			Type:     model.SuggestTrend,
			Title:    fmt.Sprintf("Spending up %.0f%% this week", a.WeekOverWeekChange*100),
			Action:   fmt.Sprintf("You spent %.0f more than last week. Check what changed.", extra),
			Priority: model.PriorityNormal,
			Impact:   model.Impact{MoneySaved: &extra, ConfidenceScore: 0.6},
		})
	}

	return out
}

func positive(v float64) *float64 {
	if v <= 0 {
		return nil
	}
	return &v
}
