package model

// FuelLevel buckets the fuel percentage. Levels are ordered from empty to full.
type FuelLevel string

const (
	FuelEmpty    FuelLevel = "empty"
	FuelCritical FuelLevel = "critical"
	FuelLow      FuelLevel = "low"
	FuelMedium   FuelLevel = "medium"
	FuelHigh     FuelLevel = "high"
	FuelFull     FuelLevel = "full"
)

// FuelLevels lists every level from lowest to highest.
var FuelLevels = []FuelLevel{FuelEmpty, FuelCritical, FuelLow, FuelMedium, FuelHigh, FuelFull}

// Rank orders levels: empty is 0, full is 5. Unknown levels rank -1.
func (l FuelLevel) Rank() int {
	switch l {
	case FuelEmpty:
		return 0
	case FuelCritical:
		return 1
	case FuelLow:
		return 2
	case FuelMedium:
		return 3
	case FuelHigh:
		return 4
	case FuelFull:
		return 5
	}
	return -1
}

// Below reports whether l is strictly lower than other.
func (l FuelLevel) Below(other FuelLevel) bool {
	return l.Rank() < other.Rank()
}

// Color returns the gauge color for l.
func (l FuelLevel) Color() string {
	switch l {
	case FuelFull:
		return "#4CAF50"
	case FuelHigh:
		return "#8BC34A"
	case FuelMedium:
		return "#FFC107"
	case FuelLow:
		return "#FF9800"
	case FuelCritical:
		return "#FF5722"
	case FuelEmpty:
		return "#F44336"
	}
	return "#9E9E9E"
}

// Warning returns the user-facing warning for l, empty for healthy levels.
func (l FuelLevel) Warning() string {
	switch l {
	case FuelEmpty:
		return "Your tank is empty. Stop all non-essential spending."
	case FuelCritical:
		return "Fuel critically low. Only essential expenses from here."
	case FuelLow:
		return "Fuel running low. Time to slow down spending."
	case FuelMedium, FuelHigh, FuelFull:
		return ""
	}
	return ""
}

// FuelStatus is the gauge reading derived from the balance.
type FuelStatus struct {
	Level          FuelLevel `json:"level"`
	Percentage     float64   `json:"percentage"`
	DaysRemaining  int       `json:"days_remaining"`
	Color          string    `json:"color"`
	WarningMessage string    `json:"warning_message,omitempty"`
}

// Metrics holds every derived value. It is recomputed on each read and never persisted.
type Metrics struct {
	Balance           float64    `json:"balance"`
	AverageDailySpend float64    `json:"average_daily_spend"`
	DaysRemaining     int        `json:"days_remaining"`
	Fuel              FuelStatus `json:"fuel"`
}
