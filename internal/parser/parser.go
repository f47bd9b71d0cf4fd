// Package parser turns bank messages and statement exports into expense
// candidates. Candidates are only suggestions; callers validate them before
// adding anything to the ledger.
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fueltank/fueltank/internal/model"
)

// MaxAmount is the exclusive upper bound for a candidate amount.
var MaxAmount = decimal.NewFromInt(1_000_000)

// ErrRejected marks a candidate that failed validation.
var ErrRejected = errors.New("candidate rejected")

// Candidate is a possible expense found in input text.
type Candidate struct {
	Amount      decimal.Decimal
	Description string
	Category    model.Category
	Confidence  float64
	Date        time.Time // zero when the input carried no date
}

// Parser converts raw input into candidates.
type Parser interface {
	Parse(text string) ([]Candidate, error)
	Format() string
}

// Validate checks a candidate before it may become an expense.
func Validate(c Candidate) error {
	if !c.Amount.IsPositive() || c.Amount.GreaterThanOrEqual(MaxAmount) {
		return fmt.Errorf("amount %s out of range: %w", c.Amount.StringFixed(2), ErrRejected)
	}
	if strings.TrimSpace(c.Description) == "" {
		return fmt.Errorf("empty description: %w", ErrRejected)
	}
	if c.Confidence < 0 || c.Confidence > 1 {
		return fmt.Errorf("confidence %.2f out of range: %w", c.Confidence, ErrRejected)
	}
	if !c.Category.Valid() {
		return fmt.Errorf("unknown category %q: %w", c.Category, ErrRejected)
	}
	return nil
}

// RowKeys returns a stable key per candidate built from its date, amount and
// description. Identical rows are told apart by their occurrence count, so
// re-parsing a file that only grew yields the same keys for the old rows.
func RowKeys(cs []Candidate) []string {
	seen := make(map[string]int, len(cs))
	out := make([]string, len(cs))
	for i, c := range cs {
		date := "-"
		if !c.Date.IsZero() {
			date = c.Date.Format(time.DateOnly)
		}
		base := date + "|" + c.Amount.StringFixed(2) + "|" + strings.ToLower(strings.Join(strings.Fields(c.Description), " "))
		out[i] = base + "|" + strconv.Itoa(seen[base])
		seen[base]++
	}
	return out
}

// Registry holds named parsers.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry creates an empty parser registry.
func NewRegistry() *Registry {
	return &Registry{parsers: make(map[string]Parser)}
}

// Register adds a parser. Panics on duplicate format.
func (r *Registry) Register(p Parser) {
	key := strings.ToLower(p.Format())
	if _, ok := r.parsers[key]; ok {
		panic("duplicate parser format: " + key)
	}
	r.parsers[key] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format string) Parser {
	return r.parsers[strings.ToLower(format)]
}

// Formats lists registered formats.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.parsers))
	for k := range r.parsers {
		out = append(out, k)
	}
	return out
}

// DefaultRegistry returns a registry with all built-in parsers.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&SMSParser{})
	r.Register(&CSVParser{})
	return r
}

type categoryHint struct {
	category model.Category
	words    []string
}

var categoryHints = []categoryHint{
	{model.CategoryFood, []string{"swiggy", "zomato", "restaurant", "cafe", "coffee", "pizza", "grocery", "groceries", "food", "bakery", "supermarket", "doordash", "ubereats"}},
	{model.CategoryTransport, []string{"uber", "ola", "lyft", "fuel", "petrol", "diesel", "metro", "railway", "irctc", "parking", "taxi", "toll"}},
	{model.CategoryShopping, []string{"amazon", "flipkart", "myntra", "store", "mall", "mart", "shop"}},
	{model.CategoryEntertainment, []string{"netflix", "spotify", "prime video", "cinema", "movie", "pvr", "steam", "hotstar"}},
	{model.CategoryBills, []string{"electricity", "water bill", "broadband", "recharge", "airtel", "jio", "insurance", "rent", "gas bill", "utility"}},
	{model.CategoryHealth, []string{"pharmacy", "hospital", "clinic", "apollo", "medical", "doctor", "gym"}},
	{model.CategoryEducation, []string{"udemy", "coursera", "school", "college", "tuition", "books", "university"}},
}

// Categorize guesses a category from free text. It reports false when no
// keyword matched.
func Categorize(text string) (model.Category, bool) {
	lower := strings.ToLower(text)
	for _, h := range categoryHints {
		for _, w := range h.words {
			if strings.Contains(lower, w) {
				return h.category, true
			}
		}
	}
	return model.CategoryOther, false
}
