// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/fueltank/fueltank/internal/metrics"
)

// Currency is the symbol prefixed to money values. Set from config at startup.
var Currency = "₹"

// FormatMoney formats an amount with the currency symbol and thousands separators.
// e.g., 1234567.5 -> "₹1,234,567.50", 42 -> "₹42.00"
func FormatMoney(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	cents := int64(math.Round(amount * 100))
	return fmt.Sprintf("%s%s%s.%02d", sign, Currency, FormatNumber(cents/100), cents%100)
}

// FormatMoneyShort drops the fraction for large amounts.
// e.g., 15000 -> "₹15K", 2500000 -> "₹2.5M", 950 -> "₹950"
func FormatMoneyShort(amount float64) string {
	abs := math.Abs(amount)
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%s%sM", Currency, trimZero(amount/1_000_000))
	case abs >= 10_000:
		return fmt.Sprintf("%s%sK", Currency, trimZero(amount/1_000))
	default:
		return Currency + strconv.FormatFloat(math.Round(amount), 'f', 0, 64)
	}
}

func trimZero(v float64) string {
	s := strconv.FormatFloat(v, 'f', 1, 64)
	return strings.TrimSuffix(s, ".0")
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatDays formats a runway in days. The no-spending sentinel reads as "∞".
func FormatDays(days int) string {
	switch {
	case days >= metrics.RunwaySentinel:
		return "∞"
	case days == 1:
		return "1 day"
	default:
		return fmt.Sprintf("%d days", days)
	}
}

// FormatPercent formats a 0-100 value.
func FormatPercent(pct float64) string {
	return fmt.Sprintf("%.0f%%", pct)
}

// FormatChange formats a fractional change with a sign.
// e.g., 0.25 -> "+25%", -0.1 -> "-10%"
func FormatChange(ratio float64) string {
	pct := math.Round(ratio * 100)
	if pct >= 0 {
		return fmt.Sprintf("+%.0f%%", pct)
	}
	return fmt.Sprintf("%.0f%%", pct)
}

// FormatAgo formats t relative to now.
// e.g., 45s -> "just now", 3725s -> "1h ago", 3 days -> "3d ago"
func FormatAgo(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 30*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}

// FormatDate formats a calendar date.
func FormatDate(t time.Time) string {
	return t.Format("Mon Jan 2")
}

// ShortID returns the trailing characters of an id, enough to type back.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[len(id)-8:]
}
