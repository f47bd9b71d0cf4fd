package parser

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// SMSParser reads bank transaction alerts, one message per line or
// paragraph. Credits and messages without an amount are ignored.
type SMSParser struct{}

const merchantName = `([A-Za-z0-9][A-Za-z0-9&'._* -]{1,40}?)(?:\s+(?:on|via|using|ref|avl|avail|bal|for|from)\b|[.,;]|$)`

var (
	amountRe   = regexp.MustCompile(`(?i)(?:\b(?:rs\.?|inr|usd|eur)|₹|\$|€)\s*([0-9][0-9,]*(?:\.[0-9]{1,2})?)`)
	bareAmount = regexp.MustCompile(`\b([0-9][0-9,]*\.[0-9]{2})\b`)
	merchantRe = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:\bat|@)\s+` + merchantName),
		regexp.MustCompile(`(?i)\b(?:to|towards)\s+` + merchantName),
	}
	debitWords = []string{"debited", "spent", "paid", "purchase", "withdrawn", "sent", "charged", "payment of"}
	creditWord = []string{"credited", "received", "refund", "deposited", "cashback"}
)

// Format returns the parser name.
func (p *SMSParser) Format() string { return "sms" }

// Parse extracts one candidate per debit message in text.
func (p *SMSParser) Parse(text string) ([]Candidate, error) {
	var out []Candidate
	for _, msg := range splitMessages(text) {
		if c, ok := parseMessage(msg); ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func splitMessages(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func parseMessage(msg string) (Candidate, bool) {
	lower := strings.ToLower(msg)
	if containsAny(lower, creditWord) && !containsAny(lower, debitWords) {
		return Candidate{}, false
	}

	confidence := 0.4
	var raw string
	if m := amountRe.FindStringSubmatch(msg); m != nil {
		raw = m[1]
		confidence += 0.2
	} else if m := bareAmount.FindStringSubmatch(msg); m != nil {
		raw = m[1]
	} else {
		return Candidate{}, false
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
	if err != nil {
		return Candidate{}, false
	}

	if containsAny(lower, debitWords) {
		confidence += 0.2
	}

	desc := ""
	for _, re := range merchantRe {
		if m := re.FindStringSubmatch(msg); m != nil {
			desc = strings.TrimSpace(m[1])
			confidence += 0.1
			break
		}
	}
	if desc == "" {
		desc = truncate(msg, 40)
	}

	cat, matched := Categorize(msg)
	if matched {
		confidence += 0.1
	}
	if confidence > 1 {
		confidence = 1
	}

	return Candidate{
		Amount:      amount.Round(2),
		Description: desc,
		Category:    cat,
		Confidence:  confidence,
	}, true
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
