package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fueltank/fueltank/internal/model"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)

func ptr[T any](v T) *T { return &v }

func TestSetSalary(t *testing.T) {
	l := New(fixedClock(testNow))

	events, err := l.SetSalary(10000, model.FrequencyMonthly)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventSalarySet, events[0].Kind)

	s := l.Snapshot()
	require.NotNil(t, s.Salary)
	assert.InDelta(t, 10000, s.Salary.Amount, 0.001)
	assert.Equal(t, testNow, s.Salary.LastUpdated)
	assert.Equal(t, testNow.AddDate(0, 1, 0), s.Salary.NextCycleDate)
}

func TestSetSalary_Rejects(t *testing.T) {
	l := New(fixedClock(testNow))

	_, err := l.SetSalary(0, model.FrequencyMonthly)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))

	_, err = l.SetSalary(100, model.Frequency("hourly"))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "frequency", ve.Field)

	assert.Nil(t, l.Snapshot().Salary)
}

func TestAddExpense(t *testing.T) {
	l := New(fixedClock(testNow))

	e, events, err := l.AddExpense(ExpenseInput{Amount: 1500, Category: model.CategoryFood, Description: "  groceries "})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, EventExpenseAdded, events[0].Kind)
	assert.Equal(t, e.ID, events[0].Expense.ID)

	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "groceries", e.Description)
	assert.Equal(t, model.SourceManual, e.Source)
	assert.Equal(t, testNow, e.Date)
	assert.Equal(t, testNow, e.CreatedAt)
	assert.Equal(t, testNow, e.UpdatedAt)
}

func TestAddExpense_RejectsBadAmount(t *testing.T) {
	l := New(fixedClock(testNow))

	for _, amount := range []float64{0, -5} {
		_, events, err := l.AddExpense(ExpenseInput{Amount: amount, Category: model.CategoryFood})
		require.Error(t, err, "amount %v", amount)
		assert.Nil(t, events)
	}
	assert.Empty(t, l.Snapshot().Expenses)
}

func TestAddExpense_DefaultsCategory(t *testing.T) {
	l := New(fixedClock(testNow))
	e, _, err := l.AddExpense(ExpenseInput{Amount: 10})
	require.NoError(t, err)
	assert.Equal(t, model.CategoryOther, e.Category)

	_, _, err = l.AddExpense(ExpenseInput{Amount: 10, Category: "FUEL"})
	require.Error(t, err)
}

func TestUpdateExpense(t *testing.T) {
	clock := testNow
	l := New(func() time.Time { return clock })
	e, _, err := l.AddExpense(ExpenseInput{Amount: 1500, Category: model.CategoryFood})
	require.NoError(t, err)

	clock = testNow.Add(time.Hour)
	events, err := l.UpdateExpense(e.ID, ExpensePatch{Amount: ptr(1200.0), Description: ptr("lunch")})
	require.NoError(t, err)
	require.Len(t, events, 1)

	got := l.Snapshot().Expenses[0]
	assert.InDelta(t, 1200, got.Amount, 0.001)
	assert.Equal(t, "lunch", got.Description)
	assert.Equal(t, testNow, got.CreatedAt)
	assert.Equal(t, clock, got.UpdatedAt)
}

func TestUpdateExpense_UnknownIDIsNoop(t *testing.T) {
	l := New(fixedClock(testNow))
	events, err := l.UpdateExpense("missing", ExpensePatch{Amount: ptr(5.0)})
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestUpdateExpense_RejectsBadAmount(t *testing.T) {
	l := New(fixedClock(testNow))
	e, _, err := l.AddExpense(ExpenseInput{Amount: 100})
	require.NoError(t, err)

	_, err = l.UpdateExpense(e.ID, ExpensePatch{Amount: ptr(-1.0)})
	require.Error(t, err)
	assert.InDelta(t, 100, l.Snapshot().Expenses[0].Amount, 0.001)
}

func TestDeleteExpense(t *testing.T) {
	l := New(fixedClock(testNow))
	e, _, err := l.AddExpense(ExpenseInput{Amount: 100})
	require.NoError(t, err)

	assert.Empty(t, l.DeleteExpense("missing"))
	events := l.DeleteExpense(e.ID)
	require.Len(t, events, 1)
	assert.Equal(t, e.ID, events[0].Expense.ID)
	assert.Empty(t, l.Snapshot().Expenses)
}

func TestRecurringBills(t *testing.T) {
	l := New(fixedClock(testNow))

	_, _, err := l.AddRecurringBill(BillInput{Name: " ", Amount: 10})
	require.Error(t, err)

	b, events, err := l.AddRecurringBill(BillInput{Name: "Rent", Amount: 8000, AutoDeduct: true, IsActive: true})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, model.FrequencyMonthly, b.Frequency)
	assert.Equal(t, model.CategoryBills, b.Category)
	assert.Equal(t, testNow.AddDate(0, 1, 0), b.NextDueDate)
	assert.True(t, b.Deducts())

	events, err = l.UpdateRecurringBill(b.ID, BillPatch{AutoDeduct: ptr(false)})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.False(t, l.Snapshot().Bills[0].Deducts())

	events, err = l.UpdateRecurringBill("missing", BillPatch{AutoDeduct: ptr(true)})
	require.NoError(t, err)
	assert.Empty(t, events)

	require.Len(t, l.DeleteRecurringBill(b.ID), 1)
	assert.Empty(t, l.Snapshot().Bills)
}

func TestAdvanceDueBills(t *testing.T) {
	clock := testNow
	l := New(func() time.Time { return clock })
	b, _, err := l.AddRecurringBill(BillInput{
		Name: "Phone", Amount: 50, IsActive: true,
		Frequency:   model.FrequencyWeekly,
		NextDueDate: testNow.AddDate(0, 0, 1),
	})
	require.NoError(t, err)
	_, _, err = l.AddRecurringBill(BillInput{
		Name: "Gym", Amount: 30, IsActive: false,
		NextDueDate: testNow.AddDate(0, 0, 1),
	})
	require.NoError(t, err)

	assert.Empty(t, l.AdvanceDueBills())

	clock = testNow.AddDate(0, 0, 16)
	events := l.AdvanceDueBills()
	require.Len(t, events, 1)
	assert.Equal(t, b.ID, events[0].Bill.ID)
	assert.True(t, l.Snapshot().Bills[0].NextDueDate.After(clock))
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	l := New(fixedClock(testNow))
	_, err := l.SetSalary(1000, model.FrequencyMonthly)
	require.NoError(t, err)
	_, _, err = l.AddExpense(ExpenseInput{Amount: 10})
	require.NoError(t, err)

	s := l.Snapshot()
	s.Salary.Amount = 1
	s.Expenses[0].Amount = 999

	again := l.Snapshot()
	assert.InDelta(t, 1000, again.Salary.Amount, 0.001)
	assert.InDelta(t, 10, again.Expenses[0].Amount, 0.001)
}

func TestRestoreDropsInvalid(t *testing.T) {
	l := New(fixedClock(testNow))
	dropped := l.Restore(State{
		Salary: &model.SalaryRecord{Amount: 5000},
		Expenses: []model.Expense{
			{ID: "a", Amount: 10, Category: model.CategoryFood, Source: model.SourceManual},
			{ID: "b", Amount: -3},
			{ID: "", Amount: 4},
		},
		Bills: []model.RecurringBill{{ID: "r", Amount: 0}},
	})
	assert.Equal(t, 3, dropped)

	s := l.Snapshot()
	require.NotNil(t, s.Salary)
	assert.Equal(t, model.FrequencyMonthly, s.Salary.Frequency)
	require.Len(t, s.Expenses, 1)
	assert.Empty(t, s.Bills)
}

func TestNewIDUnique(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 1000; i++ {
		id := NewID(testNow)
		_, dup := seen[id]
		require.False(t, dup, "duplicate id %s", id)
		seen[id] = struct{}{}
	}
}
