package suggest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fueltank/fueltank/internal/metrics"
	"github.com/fueltank/fueltank/internal/model"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)

func rules(list []model.Suggestion) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, s.Rule)
	}
	return out
}

func find(list []model.Suggestion, rule string) *model.Suggestion {
	for i := range list {
		if list[i].Rule == rule {
			return &list[i]
		}
	}
	return nil
}

func TestCandidates(t *testing.T) {
	tests := []struct {
		name    string
		ctx     metrics.FinancialContext
		want    []string
		notWant []string
	}{
		{
			name: "no salary",
			ctx:  metrics.FinancialContext{Balance: 0, DaysLeft: 0},
			want: nil,
		},
		{
			name:    "emergency",
			ctx:     metrics.FinancialContext{Salary: 10000, Balance: 400, DaysLeft: 2, AvgDailySpend: 400},
			want:    []string{RuleEmergency, RuleLowFuel, RuleBudgetAdjustment, RuleFuelWarning},
			notWant: []string{RuleInvestment, RuleSavings},
		},
		{
			name:    "low fuel band",
			ctx:     metrics.FinancialContext{Salary: 10000, Balance: 700, DaysLeft: 30, AvgDailySpend: 20},
			want:    []string{RuleLowFuel},
			notWant: []string{RuleEmergency, RuleFuelWarning},
		},
		{
			name: "investment",
			ctx:  metrics.FinancialContext{Salary: 10000, Balance: 8000, DaysLeft: 40, AvgDailySpend: 200},
			want: []string{RuleInvestment},
		},
		{
			name:    "savings",
			ctx:     metrics.FinancialContext{Salary: 10000, Balance: 4000, DaysLeft: 22, AvgDailySpend: 180},
			want:    []string{RuleSavings},
			notWant: []string{RuleInvestment},
		},
		{
			name:    "savings boundary is inclusive at half",
			ctx:     metrics.FinancialContext{Salary: 10000, Balance: 5000, DaysLeft: 30},
			want:    []string{RuleSavings},
			notWant: []string{RuleInvestment},
		},
		{
			name: "category and bills",
			ctx: metrics.FinancialContext{
				Salary: 10000, Balance: 5000, DaysLeft: 15, AvgDailySpend: 400,
				TopCategories:        []metrics.CategorySpend{{Category: model.CategoryFood, Amount: 3000, Share: 0.6}},
				RecurringBillsAmount: 4500,
			},
			want: []string{RuleCategoryOptimization, RuleBillReview, RuleBudgetAdjustment},
		},
		{
			name:    "fuel warning excludes zero days",
			ctx:     metrics.FinancialContext{Salary: 10000, Balance: 0, DaysLeft: 0},
			want:    []string{RuleEmergency, RuleLowFuel},
			notWant: []string{RuleFuelWarning},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rules(Candidates(tt.ctx, nil, now))
			if tt.want == nil {
				assert.Empty(t, got)
			}
			for _, r := range tt.want {
				assert.Contains(t, got, r)
			}
			for _, r := range tt.notWant {
				assert.NotContains(t, got, r)
			}
		})
	}
}

func TestCandidates_Details(t *testing.T) {
	ctx := metrics.FinancialContext{Salary: 10000, Balance: 2000, DaysLeft: 5, AvgDailySpend: 400}
	list := Candidates(ctx, nil, now)

	budget := find(list, RuleBudgetAdjustment)
	require.NotNil(t, budget)
	assert.Contains(t, budget.Action, "100 a day")
	require.NotNil(t, budget.Impact.DaysGained)
	assert.Equal(t, 15, *budget.Impact.DaysGained)

	fw := find(list, RuleFuelWarning)
	require.NotNil(t, fw)
	require.NotNil(t, fw.ExpiresAt)
	assert.Equal(t, now.Add(24*time.Hour), *fw.ExpiresAt)

	for _, s := range list {
		assert.Equal(t, SourceRules, s.Source)
		assert.GreaterOrEqual(t, s.Impact.ConfidenceScore, 0.0)
		assert.LessOrEqual(t, s.Impact.ConfidenceScore, 1.0)
	}
}

func TestCandidates_Investment(t *testing.T) {
	list := Candidates(metrics.FinancialContext{Salary: 10000, Balance: 9000, DaysLeft: 999}, nil, now)
	inv := find(list, RuleInvestment)
	require.NotNil(t, inv)
	require.NotNil(t, inv.Impact.MoneySaved)
	assert.InDelta(t, 2700, *inv.Impact.MoneySaved, 0.001)
}

func TestCandidates_SpendingTrend(t *testing.T) {
	ctx := metrics.FinancialContext{Salary: 10000, Balance: 9000, DaysLeft: 999}

	up := &metrics.SpendingAnalytics{Last7Days: 1400, Previous7Days: 1000, WeekOverWeekChange: 0.4}
	assert.NotNil(t, find(Candidates(ctx, up, now), RuleSpendingTrend))

	flat := &metrics.SpendingAnalytics{Last7Days: 1200, Previous7Days: 1000, WeekOverWeekChange: 0.2}
	assert.Nil(t, find(Candidates(ctx, flat, now), RuleSpendingTrend))
}

func TestTipsCoverEveryCategory(t *testing.T) {
	for _, c := range model.Categories {
		assert.NotEmpty(t, Tips(c), c)
	}
}
