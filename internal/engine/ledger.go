package engine

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fueltank/fueltank/internal/ledger"
	"github.com/fueltank/fueltank/internal/model"
)

// SetSalary replaces the salary record.
func (e *Engine) SetSalary(amount float64, freq model.Frequency) (model.Metrics, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pre := e.metricsLocked()
	events, err := e.ledger.SetSalary(amount, freq)
	if err != nil {
		return pre, err
	}
	e.log.WithFields(logrus.Fields{"amount": amount, "frequency": freq}).Info("salary set")
	return e.commit(events, pre), nil
}

// AddExpense records a new expense.
func (e *Engine) AddExpense(in ledger.ExpenseInput) (model.Expense, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.addExpenseLocked(in)
}

func (e *Engine) addExpenseLocked(in ledger.ExpenseInput) (model.Expense, error) {
	pre := e.metricsLocked()
	exp, events, err := e.ledger.AddExpense(in)
	if err != nil {
		return model.Expense{}, err
	}
	e.log.WithFields(logrus.Fields{
		"id":       exp.ID,
		"amount":   exp.Amount,
		"category": exp.Category,
		"source":   exp.Source,
	}).Info("expense added")
	e.commit(events, pre)
	return exp, nil
}

// UpdateExpense patches an expense. An unknown id changes nothing.
func (e *Engine) UpdateExpense(id string, patch ledger.ExpensePatch) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	pre := e.metricsLocked()
	events, err := e.ledger.UpdateExpense(id, patch)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		e.log.WithField("id", id).Debug("update of unknown expense ignored")
		return nil
	}
	e.commit(events, pre)
	return nil
}

// DeleteExpense removes an expense. An unknown id changes nothing.
func (e *Engine) DeleteExpense(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pre := e.metricsLocked()
	events := e.ledger.DeleteExpense(id)
	if len(events) == 0 {
		e.log.WithField("id", id).Debug("delete of unknown expense ignored")
		return
	}
	e.commit(events, pre)
}

// AddRecurringBill records a new recurring bill.
func (e *Engine) AddRecurringBill(in ledger.BillInput) (model.RecurringBill, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pre := e.metricsLocked()
	bill, events, err := e.ledger.AddRecurringBill(in)
	if err != nil {
		return model.RecurringBill{}, err
	}
	e.log.WithFields(logrus.Fields{"id": bill.ID, "name": bill.Name, "amount": bill.Amount}).Info("recurring bill added")
	e.commit(events, pre)
	return bill, nil
}

// UpdateRecurringBill patches a bill. An unknown id changes nothing.
func (e *Engine) UpdateRecurringBill(id string, patch ledger.BillPatch) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	pre := e.metricsLocked()
	events, err := e.ledger.UpdateRecurringBill(id, patch)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		e.log.WithField("id", id).Debug("update of unknown bill ignored")
		return nil
	}
	e.commit(events, pre)
	return nil
}

// DeleteRecurringBill removes a bill. An unknown id changes nothing.
func (e *Engine) DeleteRecurringBill(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pre := e.metricsLocked()
	events := e.ledger.DeleteRecurringBill(id)
	if len(events) == 0 {
		e.log.WithField("id", id).Debug("delete of unknown bill ignored")
		return
	}
	e.commit(events, pre)
}

// ProcessDueBills rolls due bills forward and records a reminder for each.
// It returns the bills that were due.
func (e *Engine) ProcessDueBills() []model.RecurringBill {
	e.mu.Lock()
	defer e.mu.Unlock()

	pre := e.metricsLocked()
	events := e.ledger.AdvanceDueBills()
	if len(events) == 0 {
		return nil
	}

	due := make([]model.RecurringBill, 0, len(events))
	for _, ev := range events {
		b := *ev.Bill
		due = append(due, b)
		if n, ok := e.gate.Add(billReminder(b)); ok {
			e.deliverLocked(n)
		}
	}
	e.log.WithField("count", len(due)).Info("processed due bills")
	e.commit(events, pre)
	return due
}

func billReminder(b model.RecurringBill) model.Notification {
	verb := "is due"
	if b.AutoDeduct {
		verb = "was auto-deducted"
	}
	return model.Notification{
		Type:     model.NotifyBillReminder,
		Title:    "Bill Due: " + b.Name,
		Message:  fmt.Sprintf("%s (%.2f) %s on %s.", b.Name, b.Amount, verb, b.NextDueDate.Format("Jan 2")),
		Priority: model.PriorityNormal,
		DedupKey: "bill_due:" + b.ID + ":" + b.NextDueDate.Format(time.DateOnly),
		ActionData: map[string]string{
			"bill_id":  b.ID,
			"due_date": b.NextDueDate.Format(time.DateOnly),
		},
	}
}
