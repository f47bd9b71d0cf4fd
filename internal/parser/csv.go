package parser

import (
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CSVParser reads a simple statement export with a header row and the
// columns date (YYYY-MM-DD), description, amount. Negative amounts are
// debits; positive rows are treated as income and skipped.
type CSVParser struct{}

const (
	csvDateFormat = "2006-01-02"
	csvNumFields  = 3
	csvColDate    = 0
	csvColDesc    = 1
	csvColAmount  = 2
)

// Format returns the parser name.
func (p *CSVParser) Format() string { return "csv" }

// Parse reads rows and returns a candidate for every debit.
func (p *CSVParser) Parse(text string) ([]Candidate, error) {
	cr := csv.NewReader(strings.NewReader(text))
	cr.FieldsPerRecord = csvNumFields
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	var out []Candidate
	for i, rec := range records[1:] {
		date, err := time.ParseInLocation(csvDateFormat, rec[csvColDate], time.Local)
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing date %q: %w", i+2, rec[csvColDate], err)
		}
		amount, err := decimal.NewFromString(strings.ReplaceAll(rec[csvColAmount], ",", ""))
		if err != nil {
			return nil, fmt.Errorf("row %d: parsing amount %q: %w", i+2, rec[csvColAmount], err)
		}
		if !amount.IsNegative() {
			continue
		}

		desc := strings.TrimSpace(rec[csvColDesc])
		cat, matched := Categorize(desc)
		confidence := 0.8
		if matched {
			confidence = 0.9
		}
		out = append(out, Candidate{
			Amount:      amount.Neg().Round(2),
			Description: desc,
			Category:    cat,
			Confidence:  confidence,
			Date:        date,
		})
	}
	return out, nil
}
