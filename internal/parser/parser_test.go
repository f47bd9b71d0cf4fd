package parser

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fueltank/fueltank/internal/model"
)

func TestSMSParser_Parse(t *testing.T) {
	text := `Rs.1,500.00 debited from A/c XX1234 at SWIGGY on 15-06-25. Avl bal Rs 10,000
Your a/c is credited with Rs 5000 salary
You have spent USD 42.50 on your card ending 1234 at Netflix.

Paid 250.00 to Uber India via UPI
Hello there`

	p := &SMSParser{}
	got, err := p.Parse(text)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "1500.00", got[0].Amount.StringFixed(2))
	assert.Equal(t, "SWIGGY", got[0].Description)
	assert.Equal(t, model.CategoryFood, got[0].Category)
	assert.InDelta(t, 1.0, got[0].Confidence, 0.0001)

	assert.Equal(t, "42.50", got[1].Amount.StringFixed(2))
	assert.Equal(t, "Netflix", got[1].Description)
	assert.Equal(t, model.CategoryEntertainment, got[1].Category)

	assert.Equal(t, "250.00", got[2].Amount.StringFixed(2))
	assert.Equal(t, "Uber India", got[2].Description)
	assert.Equal(t, model.CategoryTransport, got[2].Category)
	assert.InDelta(t, 0.8, got[2].Confidence, 0.0001)

	for _, c := range got {
		assert.NoError(t, Validate(c))
	}
}

func TestSMSParser_Empty(t *testing.T) {
	got, err := (&SMSParser{}).Parse("   \n\n")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCSVParser_Parse(t *testing.T) {
	csv := "date,description,amount\n" +
		"2025-06-01,Electricity board,-1200.50\n" +
		"2025-06-02,Salary,50000\n" +
		"2025-06-03,Corner stand,-80\n"

	got, err := (&CSVParser{}).Parse(csv)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "1200.50", got[0].Amount.StringFixed(2))
	assert.Equal(t, model.CategoryBills, got[0].Category)
	assert.Equal(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.Local), got[0].Date)
	assert.InDelta(t, 0.9, got[0].Confidence, 0.0001)

	assert.Equal(t, model.CategoryOther, got[1].Category)
	assert.InDelta(t, 0.8, got[1].Confidence, 0.0001)
}

func TestCSVParser_Errors(t *testing.T) {
	_, err := (&CSVParser{}).Parse("date,description,amount\nNOTADATE,x,-1\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing date")

	_, err = (&CSVParser{}).Parse("date,description,amount\n2025-06-01,x,abc\n")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing amount")

	got, err := (&CSVParser{}).Parse("date,description,amount\n")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestValidate(t *testing.T) {
	ok := Candidate{Amount: decimal.NewFromInt(10), Description: "tea", Category: model.CategoryFood, Confidence: 0.5}
	require.NoError(t, Validate(ok))

	tests := []struct {
		name   string
		mutate func(*Candidate)
	}{
		{"zero amount", func(c *Candidate) { c.Amount = decimal.Zero }},
		{"negative amount", func(c *Candidate) { c.Amount = decimal.NewFromInt(-4) }},
		{"too large", func(c *Candidate) { c.Amount = decimal.NewFromInt(1_000_000) }},
		{"blank description", func(c *Candidate) { c.Description = "  " }},
		{"confidence high", func(c *Candidate) { c.Confidence = 1.5 }},
		{"confidence low", func(c *Candidate) { c.Confidence = -0.1 }},
		{"bad category", func(c *Candidate) { c.Category = "FUEL" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := ok
			tt.mutate(&c)
			assert.ErrorIs(t, Validate(c), ErrRejected)
		})
	}

	almost := ok
	almost.Amount = decimal.RequireFromString("999999.99")
	assert.NoError(t, Validate(almost))
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.NotNil(t, r.Get("SMS"))
	assert.NotNil(t, r.Get("csv"))
	assert.Nil(t, r.Get("ofx"))
	assert.ElementsMatch(t, []string{"sms", "csv"}, r.Formats())

	assert.Panics(t, func() { r.Register(&SMSParser{}) })
}

func TestCategorize(t *testing.T) {
	c, ok := Categorize("Apollo Pharmacy")
	assert.True(t, ok)
	assert.Equal(t, model.CategoryHealth, c)

	c, ok = Categorize("xyz")
	assert.False(t, ok)
	assert.Equal(t, model.CategoryOther, c)
}

func TestRowKeys(t *testing.T) {
	day := time.Date(2025, 6, 15, 0, 0, 0, 0, time.Local)
	rows := []Candidate{
		{Amount: decimal.NewFromInt(450), Description: "Swiggy  dinner", Date: day},
		{Amount: decimal.NewFromInt(450), Description: "swiggy dinner", Date: day},
		{Amount: decimal.NewFromInt(120), Description: "Uber ride"},
	}
	keys := RowKeys(rows)
	assert.Equal(t, []string{
		"2025-06-15|450.00|swiggy dinner|0",
		"2025-06-15|450.00|swiggy dinner|1",
		"-|120.00|uber ride|0",
	}, keys)

	// A grown file keeps the keys of its earlier rows.
	grown := RowKeys(append(rows[:1:1], rows[2]))
	assert.Equal(t, keys[0], grown[0])
	assert.Empty(t, RowKeys(nil))
}
