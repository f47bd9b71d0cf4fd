package model

import "time"

// SuggestionType groups suggestions by intent.
type SuggestionType string

const (
	SuggestEmergency   SuggestionType = "emergency"
	SuggestWarning     SuggestionType = "warning"
	SuggestBudget      SuggestionType = "budget"
	SuggestInvestment  SuggestionType = "investment"
	SuggestSavings     SuggestionType = "savings"
	SuggestCategory    SuggestionType = "category"
	SuggestBillReview  SuggestionType = "bill_review"
	SuggestFuelWarning SuggestionType = "fuel_warning"
	SuggestTrend       SuggestionType = "trend"
	SuggestGeneral     SuggestionType = "general"
)

// Impact estimates what acting on a suggestion is worth.
type Impact struct {
	DaysGained      *int     `json:"days_gained,omitempty"`
	MoneySaved      *float64 `json:"money_saved,omitempty"`
	ConfidenceScore float64  `json:"confidence_score"`
}

// Suggestion is a ranked recommendation. Rule identifies the generator of
// equivalent suggestions so they are not re-triggered while one is active.
type Suggestion struct {
	ID          string         `json:"id"`
	Rule        string         `json:"rule"`
	Type        SuggestionType `json:"type"`
	Title       string         `json:"title"`
	Action      string         `json:"action"`
	Priority    Priority       `json:"priority"`
	Impact      Impact         `json:"impact"`
	IsApplied   bool           `json:"is_applied"`
	IsDismissed bool           `json:"is_dismissed"`
	CreatedAt   time.Time      `json:"created_at"`
	ExpiresAt   *time.Time     `json:"expires_at,omitempty"`
	Source      string         `json:"source,omitempty"`
	ResolvedAt  *time.Time     `json:"resolved_at,omitempty"`
}

// Expired reports whether s has an expiry at or before now.
func (s Suggestion) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}

// Active reports whether s is neither applied, dismissed nor expired.
func (s Suggestion) Active(now time.Time) bool {
	return !s.IsApplied && !s.IsDismissed && !s.Expired(now)
}
