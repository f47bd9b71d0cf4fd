// Package model defines domain types for the fuel tank ledger, its derived
// metrics and the records produced from them.
package model

import "time"

// Frequency is how often a salary or bill recurs.
type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// Valid reports whether f is one of the known frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly:
		return true
	}
	return false
}

// Next returns t advanced by one period of f.
func (f Frequency) Next(t time.Time) time.Time {
	switch f {
	case FrequencyWeekly:
		return t.AddDate(0, 0, 7)
	case FrequencyBiweekly:
		return t.AddDate(0, 0, 14)
	case FrequencyQuarterly:
		return t.AddDate(0, 3, 0)
	case FrequencyYearly:
		return t.AddDate(1, 0, 0)
	default:
		return t.AddDate(0, 1, 0)
	}
}

// Frequencies lists every frequency in display order.
var Frequencies = []Frequency{
	FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly, FrequencyQuarterly, FrequencyYearly,
}

// Category classifies an expense or bill.
type Category string

const (
	CategoryFood          Category = "FOOD"
	CategoryTransport     Category = "TRANSPORT"
	CategoryShopping      Category = "SHOPPING"
	CategoryEntertainment Category = "ENTERTAINMENT"
	CategoryBills         Category = "BILLS"
	CategoryHealth        Category = "HEALTH"
	CategoryEducation     Category = "EDUCATION"
	CategoryOther         Category = "OTHER"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryFood, CategoryTransport, CategoryShopping, CategoryEntertainment,
	CategoryBills, CategoryHealth, CategoryEducation, CategoryOther,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryFood, CategoryTransport, CategoryShopping, CategoryEntertainment,
		CategoryBills, CategoryHealth, CategoryEducation, CategoryOther:
		return true
	}
	return false
}

// Label returns the human-readable name of c.
func (c Category) Label() string {
	switch c {
	case CategoryFood:
		return "Food & Dining"
	case CategoryTransport:
		return "Transport"
	case CategoryShopping:
		return "Shopping"
	case CategoryEntertainment:
		return "Entertainment"
	case CategoryBills:
		return "Bills & Utilities"
	case CategoryHealth:
		return "Health"
	case CategoryEducation:
		return "Education"
	case CategoryOther:
		return "Other"
	}
	return string(c)
}

// Source records where an expense came from.
type Source string

const (
	SourceManual    Source = "manual"
	SourceParsed    Source = "parsed"
	SourceRecurring Source = "recurring"
)

// Valid reports whether s is a known source.
func (s Source) Valid() bool {
	switch s {
	case SourceManual, SourceParsed, SourceRecurring:
		return true
	}
	return false
}

// SalaryRecord is the single active income record.
type SalaryRecord struct {
	Amount            float64   `json:"amount"`
	Frequency         Frequency `json:"frequency"`
	LastUpdated       time.Time `json:"last_updated"`
	NextCycleDate     time.Time `json:"next_cycle_date"`
	RecurringDeducted bool      `json:"recurring_deducted"`
}

// Expense is one spending record.
type Expense struct {
	ID          string    `json:"id"`
	Amount      float64   `json:"amount"`
	Category    Category  `json:"category"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Source      Source    `json:"source"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RecurringBill is a bill that repeats on a fixed frequency.
type RecurringBill struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Amount      float64   `json:"amount"`
	Frequency   Frequency `json:"frequency"`
	NextDueDate time.Time `json:"next_due_date"`
	Category    Category  `json:"category"`
	AutoDeduct  bool      `json:"auto_deduct"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Deducts reports whether the bill is subtracted from the balance.
func (b RecurringBill) Deducts() bool {
	return b.IsActive && b.AutoDeduct
}
