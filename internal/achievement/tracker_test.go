package achievement

import (
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fueltank/fueltank/internal/ledger"
	"github.com/fueltank/fueltank/internal/model"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	return NewTracker(Catalog, func() time.Time { return now }, logger)
}

func TestCatalogLoads(t *testing.T) {
	tr := newTestTracker(t)
	list := tr.List()
	require.Len(t, list, len(Catalog))
	for _, a := range list {
		assert.Zero(t, a.Progress.Current)
		assert.False(t, a.Unlocked())
	}
}

func TestInvalidDefinitionsSkipped(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	tr := NewTracker([]Definition{
		{ID: "ok", Target: 2},
		{ID: "neg", Target: -1},
		{ID: "zero", Target: 0},
		{ID: "ok", Target: 3},
	}, nil, logger)

	require.Len(t, tr.List(), 1)
	assert.Len(t, hook.AllEntries(), 3)
	_, ok := tr.Get("neg")
	assert.False(t, ok)
}

func TestUpdateProgress(t *testing.T) {
	tr := newTestTracker(t)

	a, unlocked := tr.UpdateProgress(BillBoss, 2)
	assert.False(t, unlocked)
	assert.InDelta(t, 2, a.Progress.Current, 0.001)
	assert.Equal(t, 40, a.Progress.Percentage)

	a, unlocked = tr.UpdateProgress(BillBoss, -5)
	assert.False(t, unlocked)
	assert.InDelta(t, 2, a.Progress.Current, 0.001, "progress never decreases")

	a, unlocked = tr.UpdateProgress(BillBoss, 10)
	require.True(t, unlocked)
	assert.InDelta(t, 5, a.Progress.Current, 0.001, "clamped to target")
	assert.Equal(t, 100, a.Progress.Percentage)
	require.NotNil(t, a.UnlockedAt)
	assert.Equal(t, now, *a.UnlockedAt)

	_, unlocked = tr.UpdateProgress(BillBoss, 1)
	assert.False(t, unlocked, "unlock is idempotent")

	_, unlocked = tr.UpdateProgress("nope", 1)
	assert.False(t, unlocked)
}

func TestProgressMonotonic(t *testing.T) {
	tr := newTestTracker(t)
	deltas := []float64{3, -2, 0, 10, 1, -100, 40}
	prev := 0.0
	unlocks := 0
	for _, d := range deltas {
		a, unlocked := tr.UpdateProgress(ExpenseLogger, d)
		require.GreaterOrEqual(t, a.Progress.Current, prev)
		require.LessOrEqual(t, a.Progress.Percentage, 100)
		prev = a.Progress.Current
		if unlocked {
			unlocks++
		}
	}
	assert.Equal(t, 1, unlocks)
}

func TestObserve(t *testing.T) {
	tr := newTestTracker(t)
	state := ledger.State{
		Salary: &model.SalaryRecord{Amount: 1000},
		Bills:  []model.RecurringBill{{IsActive: true}, {IsActive: false}},
	}

	got := tr.Observe([]ledger.Event{{Kind: ledger.EventSalarySet}, {Kind: ledger.EventExpenseAdded}},
		model.Metrics{AverageDailySpend: 10, DaysRemaining: 45}, state, 0)

	var ids []string
	for _, a := range got {
		ids = append(ids, a.ID)
	}
	assert.ElementsMatch(t, []string{FuelUp, FirstExpense, LongRunway}, ids)

	bb, _ := tr.Get(BillBoss)
	assert.InDelta(t, 1, bb.Progress.Current, 0.001)

	el, _ := tr.Get(ExpenseLogger)
	assert.InDelta(t, 1, el.Progress.Current, 0.001)

	// A smaller runway later never lowers progress.
	tr.Observe(nil, model.Metrics{AverageDailySpend: 10, DaysRemaining: 3}, state, 0)
	lr, _ := tr.Get(LongRunway)
	assert.InDelta(t, 30, lr.Progress.Current, 0.001)
}

func TestObserve_SentinelRunwayIgnored(t *testing.T) {
	tr := newTestTracker(t)
	tr.Observe(nil, model.Metrics{DaysRemaining: 999}, ledger.State{Salary: &model.SalaryRecord{Amount: 1}}, 0)
	lr, _ := tr.Get(LongRunway)
	assert.Zero(t, lr.Progress.Current)
}

func TestObserve_AppliedSuggestions(t *testing.T) {
	tr := newTestTracker(t)
	got := tr.Observe(nil, model.Metrics{}, ledger.State{}, 5)
	require.Len(t, got, 1)
	assert.Equal(t, SmartMover, got[0].ID)
}

func TestRestore(t *testing.T) {
	tr := newTestTracker(t)
	earlier := now.Add(-time.Hour)
	tr.Restore([]model.Achievement{
		{ID: FirstExpense, Progress: model.Progress{Current: 1}, UnlockedAt: &earlier},
		{ID: ExpenseLogger, Progress: model.Progress{Current: 500}},
		{ID: BillBoss, Progress: model.Progress{Current: -3}},
		{ID: "retired", Progress: model.Progress{Current: 1}},
	})

	fe, _ := tr.Get(FirstExpense)
	assert.Equal(t, earlier, *fe.UnlockedAt)

	el, _ := tr.Get(ExpenseLogger)
	assert.InDelta(t, 50, el.Progress.Current, 0.001)
	assert.True(t, el.Unlocked())

	bb, _ := tr.Get(BillBoss)
	assert.Zero(t, bb.Progress.Current)

	_, unlocked := tr.UpdateProgress(FirstExpense, 1)
	assert.False(t, unlocked)
}
