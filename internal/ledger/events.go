package ledger

import (
	"time"

	"github.com/fueltank/fueltank/internal/model"
)

// EventKind names what a mutation did.
type EventKind string

const (
	EventSalarySet      EventKind = "salary_set"
	EventExpenseAdded   EventKind = "expense_added"
	EventExpenseUpdated EventKind = "expense_updated"
	EventExpenseDeleted EventKind = "expense_deleted"
	EventBillAdded      EventKind = "bill_added"
	EventBillUpdated    EventKind = "bill_updated"
	EventBillDeleted    EventKind = "bill_deleted"
	EventBillDue        EventKind = "bill_due"
)

// Event is a domain event produced by a ledger mutation. Exactly one of
// Salary, Expense or Bill is set, holding the record after the mutation
// (or the removed record for deletes).
type Event struct {
	Kind    EventKind
	At      time.Time
	Salary  *model.SalaryRecord
	Expense *model.Expense
	Bill    *model.RecurringBill
}

// Touches reports whether any event in events has kind k.
func Touches(events []Event, k EventKind) bool {
	for _, ev := range events {
		if ev.Kind == k {
			return true
		}
	}
	return false
}
