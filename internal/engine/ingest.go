package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fueltank/fueltank/internal/ledger"
	"github.com/fueltank/fueltank/internal/model"
	"github.com/fueltank/fueltank/internal/parser"
)

// ErrUnknownFormat is returned by IngestMessage for an unregistered parser.
var ErrUnknownFormat = errors.New("unknown message format")

// ErrUnparseable wraps parser failures on malformed input.
var ErrUnparseable = errors.New("unparseable input")

// MinIngestConfidence is the lowest parser confidence accepted as an expense.
const MinIngestConfidence = 0.5

// Rejection is a parsed candidate that did not become an expense.
type Rejection struct {
	Candidate parser.Candidate
	Reason    string
}

// IngestResult reports what IngestMessage did with each candidate.
type IngestResult struct {
	Added    []model.Expense
	Rejected []Rejection
	Skipped  int // rows already recorded by an earlier import

	// Rows holds the row keys of every added or skipped candidate.
	Rows []string `json:"-"`
}

// IngestMessage parses text with the named parser and adds every valid
// candidate as an expense with source "parsed". Each candidate is its own
// mutation, so big spend and fuel alerts behave as for manual entry.
func (e *Engine) IngestMessage(format, text string) (IngestResult, error) {
	return e.ingest(format, text, nil)
}

// IngestNew is IngestMessage for re-read sources: candidates whose row key
// (see parser.RowKeys) is in seen are skipped instead of added again.
func (e *Engine) IngestNew(format, text string, seen map[string]bool) (IngestResult, error) {
	return e.ingest(format, text, seen)
}

func (e *Engine) ingest(format, text string, seen map[string]bool) (IngestResult, error) {
	p := e.parsers.Get(format)
	if p == nil {
		return IngestResult{}, fmt.Errorf("%w %q (have %s)", ErrUnknownFormat, format, strings.Join(e.parsers.Formats(), ", "))
	}
	candidates, err := p.Parse(text)
	if err != nil {
		return IngestResult{}, fmt.Errorf("%w: %s: %w", ErrUnparseable, p.Format(), err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var res IngestResult
	keys := parser.RowKeys(candidates)
	for i, c := range candidates {
		if seen[keys[i]] {
			res.Skipped++
			res.Rows = append(res.Rows, keys[i])
			continue
		}
		if err := parser.Validate(c); err != nil {
			res.Rejected = append(res.Rejected, Rejection{Candidate: c, Reason: err.Error()})
			continue
		}
		if c.Confidence < MinIngestConfidence {
			res.Rejected = append(res.Rejected, Rejection{
				Candidate: c,
				Reason:    fmt.Sprintf("confidence %.2f below %.2f", c.Confidence, MinIngestConfidence),
			})
			continue
		}

		exp, err := e.addExpenseLocked(ledger.ExpenseInput{
			Amount:      c.Amount.InexactFloat64(),
			Category:    c.Category,
			Description: c.Description,
			Date:        c.Date,
			Source:      model.SourceParsed,
		})
		if err != nil {
			res.Rejected = append(res.Rejected, Rejection{Candidate: c, Reason: err.Error()})
			continue
		}
		res.Added = append(res.Added, exp)
		res.Rows = append(res.Rows, keys[i])
	}

	e.log.WithFields(logrus.Fields{
		"format":   p.Format(),
		"added":    len(res.Added),
		"rejected": len(res.Rejected),
		"skipped":  res.Skipped,
	}).Info("message ingested")
	return res, nil
}
