// Package ledger holds the canonical salary, expense and recurring bill
// records. Every mutation returns the domain events it produced; derived
// values are computed elsewhere from Snapshot.
package ledger

import (
	"math"
	"strings"
	"time"

	"github.com/fueltank/fueltank/internal/model"
)

// State is the full set of financial records.
type State struct {
	Salary   *model.SalaryRecord   `json:"salary,omitempty"`
	Expenses []model.Expense       `json:"expenses"`
	Bills    []model.RecurringBill `json:"bills"`
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	out := State{
		Expenses: make([]model.Expense, len(s.Expenses)),
		Bills:    make([]model.RecurringBill, len(s.Bills)),
	}
	if s.Salary != nil {
		sal := *s.Salary
		out.Salary = &sal
	}
	copy(out.Expenses, s.Expenses)
	copy(out.Bills, s.Bills)
	return out
}

// ExpenseInput holds the fields for a new expense.
type ExpenseInput struct {
	Amount      float64
	Category    model.Category
	Description string
	Date        time.Time
	Source      model.Source
}

// ExpensePatch holds optional replacements for an existing expense.
type ExpensePatch struct {
	Amount      *float64
	Category    *model.Category
	Description *string
	Date        *time.Time
}

// BillInput holds the fields for a new recurring bill.
type BillInput struct {
	Name        string
	Amount      float64
	Frequency   model.Frequency
	NextDueDate time.Time
	Category    model.Category
	AutoDeduct  bool
	IsActive    bool
}

// BillPatch holds optional replacements for an existing bill.
type BillPatch struct {
	Name        *string
	Amount      *float64
	Frequency   *model.Frequency
	NextDueDate *time.Time
	Category    *model.Category
	AutoDeduct  *bool
	IsActive    *bool
}

// Ledger owns the financial records. It is not safe for concurrent use;
// callers serialize mutations (see engine.Engine).
type Ledger struct {
	state State
	now   func() time.Time
	newID func(time.Time) string
}

// New returns an empty ledger using now as its clock.
func New(now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{now: now, newID: NewID}
}

// Snapshot returns a deep copy of the current state.
func (l *Ledger) Snapshot() State {
	return l.state.Clone()
}

// Restore replaces the state wholesale, dropping records that fail validation.
// It returns the number of records dropped.
func (l *Ledger) Restore(s State) int {
	dropped := 0
	next := State{}
	if s.Salary != nil {
		if validAmount(s.Salary.Amount) {
			sal := *s.Salary
			if !sal.Frequency.Valid() {
				sal.Frequency = model.FrequencyMonthly
			}
			next.Salary = &sal
		} else {
			dropped++
		}
	}
	for _, e := range s.Expenses {
		if e.ID == "" || !validAmount(e.Amount) {
			dropped++
			continue
		}
		if !e.Category.Valid() {
			e.Category = model.CategoryOther
		}
		if !e.Source.Valid() {
			e.Source = model.SourceManual
		}
		next.Expenses = append(next.Expenses, e)
	}
	for _, b := range s.Bills {
		if b.ID == "" || !validAmount(b.Amount) {
			dropped++
			continue
		}
		if !b.Frequency.Valid() {
			b.Frequency = model.FrequencyMonthly
		}
		if !b.Category.Valid() {
			b.Category = model.CategoryBills
		}
		next.Bills = append(next.Bills, b)
	}
	l.state = next
	return dropped
}

// SetSalary replaces the salary record.
func (l *Ledger) SetSalary(amount float64, freq model.Frequency) ([]Event, error) {
	if !validAmount(amount) {
		return nil, invalid("amount", "salary must be greater than zero")
	}
	if freq == "" {
		freq = model.FrequencyMonthly
	}
	if !freq.Valid() {
		return nil, invalid("frequency", "unknown frequency %q", freq)
	}

	now := l.now()
	sal := model.SalaryRecord{
		Amount:        amount,
		Frequency:     freq,
		LastUpdated:   now,
		NextCycleDate: freq.Next(now),
	}
	l.state.Salary = &sal

	out := sal
	return []Event{{Kind: EventSalarySet, At: now, Salary: &out}}, nil
}

// AddExpense validates and appends a new expense.
func (l *Ledger) AddExpense(in ExpenseInput) (model.Expense, []Event, error) {
	if !validAmount(in.Amount) {
		return model.Expense{}, nil, invalid("amount", "amount must be greater than zero")
	}
	if in.Category == "" {
		in.Category = model.CategoryOther
	}
	if !in.Category.Valid() {
		return model.Expense{}, nil, invalid("category", "unknown category %q", in.Category)
	}
	if in.Source == "" {
		in.Source = model.SourceManual
	}
	if !in.Source.Valid() {
		return model.Expense{}, nil, invalid("source", "unknown source %q", in.Source)
	}

	now := l.now()
	date := in.Date
	if date.IsZero() {
		date = now
	}
	e := model.Expense{
		ID:          l.newID(now),
		Amount:      in.Amount,
		Category:    in.Category,
		Description: strings.TrimSpace(in.Description),
		Date:        date,
		Source:      in.Source,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	l.state.Expenses = append(l.state.Expenses, e)

	out := e
	return e, []Event{{Kind: EventExpenseAdded, At: now, Expense: &out}}, nil
}

// UpdateExpense applies patch to the expense with id. An unknown id is a no-op.
func (l *Ledger) UpdateExpense(id string, patch ExpensePatch) ([]Event, error) {
	if patch.Amount != nil && !validAmount(*patch.Amount) {
		return nil, invalid("amount", "amount must be greater than zero")
	}
	if patch.Category != nil && !patch.Category.Valid() {
		return nil, invalid("category", "unknown category %q", *patch.Category)
	}

	idx := l.expenseIndex(id)
	if idx < 0 {
		return nil, nil
	}

	now := l.now()
	e := &l.state.Expenses[idx]
	if patch.Amount != nil {
		e.Amount = *patch.Amount
	}
	if patch.Category != nil {
		e.Category = *patch.Category
	}
	if patch.Description != nil {
		e.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Date != nil && !patch.Date.IsZero() {
		e.Date = *patch.Date
	}
	e.UpdatedAt = now

	out := *e
	return []Event{{Kind: EventExpenseUpdated, At: now, Expense: &out}}, nil
}

// DeleteExpense removes the expense with id. An unknown id is a no-op.
func (l *Ledger) DeleteExpense(id string) []Event {
	idx := l.expenseIndex(id)
	if idx < 0 {
		return nil
	}
	removed := l.state.Expenses[idx]
	l.state.Expenses = append(l.state.Expenses[:idx], l.state.Expenses[idx+1:]...)
	return []Event{{Kind: EventExpenseDeleted, At: l.now(), Expense: &removed}}
}

// AddRecurringBill validates and appends a new bill.
func (l *Ledger) AddRecurringBill(in BillInput) (model.RecurringBill, []Event, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.RecurringBill{}, nil, invalid("name", "bill name is required")
	}
	if !validAmount(in.Amount) {
		return model.RecurringBill{}, nil, invalid("amount", "amount must be greater than zero")
	}
	if in.Frequency == "" {
		in.Frequency = model.FrequencyMonthly
	}
	if !in.Frequency.Valid() {
		return model.RecurringBill{}, nil, invalid("frequency", "unknown frequency %q", in.Frequency)
	}
	if in.Category == "" {
		in.Category = model.CategoryBills
	}
	if !in.Category.Valid() {
		return model.RecurringBill{}, nil, invalid("category", "unknown category %q", in.Category)
	}

	now := l.now()
	due := in.NextDueDate
	if due.IsZero() {
		due = in.Frequency.Next(now)
	}
	b := model.RecurringBill{
		ID:          l.newID(now),
		Name:        name,
		Amount:      in.Amount,
		Frequency:   in.Frequency,
		NextDueDate: due,
		Category:    in.Category,
		AutoDeduct:  in.AutoDeduct,
		IsActive:    in.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	l.state.Bills = append(l.state.Bills, b)

	out := b
	return b, []Event{{Kind: EventBillAdded, At: now, Bill: &out}}, nil
}

// UpdateRecurringBill applies patch to the bill with id. An unknown id is a no-op.
func (l *Ledger) UpdateRecurringBill(id string, patch BillPatch) ([]Event, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, invalid("name", "bill name is required")
	}
	if patch.Amount != nil && !validAmount(*patch.Amount) {
		return nil, invalid("amount", "amount must be greater than zero")
	}
	if patch.Frequency != nil && !patch.Frequency.Valid() {
		return nil, invalid("frequency", "unknown frequency %q", *patch.Frequency)
	}
	if patch.Category != nil && !patch.Category.Valid() {
		return nil, invalid("category", "unknown category %q", *patch.Category)
	}

	idx := l.billIndex(id)
	if idx < 0 {
		return nil, nil
	}

	now := l.now()
	b := &l.state.Bills[idx]
	if patch.Name != nil {
		b.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Amount != nil {
		b.Amount = *patch.Amount
	}
	if patch.Frequency != nil {
		b.Frequency = *patch.Frequency
	}
	if patch.NextDueDate != nil && !patch.NextDueDate.IsZero() {
		b.NextDueDate = *patch.NextDueDate
	}
	if patch.Category != nil {
		b.Category = *patch.Category
	}
	if patch.AutoDeduct != nil {
		b.AutoDeduct = *patch.AutoDeduct
	}
	if patch.IsActive != nil {
		b.IsActive = *patch.IsActive
	}
	b.UpdatedAt = now

	out := *b
	return []Event{{Kind: EventBillUpdated, At: now, Bill: &out}}, nil
}

// DeleteRecurringBill removes the bill with id. An unknown id is a no-op.
func (l *Ledger) DeleteRecurringBill(id string) []Event {
	idx := l.billIndex(id)
	if idx < 0 {
		return nil
	}
	removed := l.state.Bills[idx]
	l.state.Bills = append(l.state.Bills[:idx], l.state.Bills[idx+1:]...)
	return []Event{{Kind: EventBillDeleted, At: l.now(), Bill: &removed}}
}

// AdvanceDueBills rolls every active bill whose due date has passed forward
// to its next future occurrence and reports one bill_due event per bill.
func (l *Ledger) AdvanceDueBills() []Event {
	now := l.now()
	var events []Event
	for i := range l.state.Bills {
		b := &l.state.Bills[i]
		if !b.IsActive || b.NextDueDate.After(now) {
			continue
		}
		due := *b
		for !b.NextDueDate.After(now) {
			b.NextDueDate = b.Frequency.Next(b.NextDueDate)
		}
		b.UpdatedAt = now
		events = append(events, Event{Kind: EventBillDue, At: now, Bill: &due})
	}
	return events
}

func (l *Ledger) expenseIndex(id string) int {
	for i := range l.state.Expenses {
		if l.state.Expenses[i].ID == id {
			return i
		}
	}
	return -1
}

func (l *Ledger) billIndex(id string) int {
	for i := range l.state.Bills {
		if l.state.Bills[i].ID == id {
			return i
		}
	}
	return -1
}

func validAmount(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
