package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fueltank/fueltank/internal/ledger"
	"github.com/fueltank/fueltank/internal/model"
)

func backends(t *testing.T) map[string]Storage {
	t.Helper()
	sq, err := OpenSQLite(filepath.Join(t.TempDir(), "sub", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sq.Close() })
	return map[string]Storage{
		"memory": NewMemory(),
		"sqlite": sq,
	}
}

func TestStorageContract(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			v, err := st.Get(ctx, "missing")
			require.NoError(t, err)
			assert.Nil(t, v)

			require.NoError(t, st.Set(ctx, "k", []byte("one")))
			require.NoError(t, st.Set(ctx, "k", []byte("two")))
			v, err = st.Get(ctx, "k")
			require.NoError(t, err)
			assert.Equal(t, "two", string(v))

			require.NoError(t, st.Remove(ctx, "k"))
			require.NoError(t, st.Remove(ctx, "k"))
			v, err = st.Get(ctx, "k")
			require.NoError(t, err)
			assert.Nil(t, v)
		})
	}
}

func TestSQLiteSetManyAndKeys(t *testing.T) {
	ctx := context.Background()
	sq, err := OpenSQLite(filepath.Join(t.TempDir(), "kv.db"))
	require.NoError(t, err)
	defer func() { _ = sq.Close() }()

	require.NoError(t, sq.SetMany(ctx, map[string][]byte{"b": []byte("2"), "a": []byte("1")}))
	keys, err := sq.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)
}

func TestSQLitePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")

	sq, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, sq.Set(ctx, KeySalary, []byte(`{"amount":1}`)))
	require.NoError(t, sq.Close())

	sq, err = OpenSQLite(path)
	require.NoError(t, err)
	defer func() { _ = sq.Close() }()
	v, err := sq.Get(ctx, KeySalary)
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":1}`, string(v))
}

func sampleSnapshot() Snapshot {
	at := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	settings := model.DefaultNotificationSettings()
	return Snapshot{
		Ledger: ledger.State{
			Salary: &model.SalaryRecord{Amount: 10000, Frequency: model.FrequencyMonthly, LastUpdated: at, NextCycleDate: at.AddDate(0, 1, 0)},
			Expenses: []model.Expense{
				{ID: "e1", Amount: 1500, Category: model.CategoryFood, Source: model.SourceManual, Date: at, CreatedAt: at, UpdatedAt: at},
			},
			Bills: []model.RecurringBill{
				{ID: "b1", Name: "Rent", Amount: 4000, Frequency: model.FrequencyMonthly, Category: model.CategoryBills, AutoDeduct: true, IsActive: true, NextDueDate: at, CreatedAt: at, UpdatedAt: at},
			},
		},
		Notifications: []model.Notification{{ID: "n1", Type: model.NotifyBigSpend, Title: "Big Spend Alert", Priority: model.PriorityHigh, CreatedAt: at}},
		Suggestions:   []model.Suggestion{{ID: "s1", Rule: "savings", Title: "Save", Priority: model.PriorityNormal, IsApplied: true, CreatedAt: at}},
		Manual:        []model.Suggestion{{ID: "m1", Rule: "manual:m1", Title: "Call the bank", Priority: model.PriorityHigh, Source: "manual", CreatedAt: at}},
		Settings:      &settings,
		Achievements:  []model.Achievement{{ID: "first_expense", Progress: model.Progress{Current: 1, Target: 1, Percentage: 100}, UnlockedAt: &at}},
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, st := range backends(t) {
		t.Run(name, func(t *testing.T) {
			want := sampleSnapshot()
			require.NoError(t, Save(ctx, st, want))

			got, err := Load(ctx, st)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestLoadEmpty(t *testing.T) {
	got, err := Load(context.Background(), NewMemory())
	require.NoError(t, err)
	assert.Nil(t, got.Ledger.Salary)
	assert.Empty(t, got.Ledger.Expenses)
	assert.Nil(t, got.Settings)
}

func TestLoadCorruptKeyFallsBack(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	require.NoError(t, Save(ctx, st, sampleSnapshot()))
	require.NoError(t, st.Set(ctx, KeyExpenses, []byte(`[{"id":"x","amount":"lots"}]`)))

	got, err := Load(ctx, st)
	require.Error(t, err)

	var ke *KeyError
	require.True(t, errors.As(err, &ke))
	assert.Equal(t, KeyExpenses, ke.Key)

	assert.Nil(t, got.Ledger.Expenses)
	require.NotNil(t, got.Ledger.Salary)
	assert.InDelta(t, 10000, got.Ledger.Salary.Amount, 0.001)
	assert.Len(t, got.Ledger.Bills, 1)
}

type failingStore struct{ *Memory }

func (failingStore) Set(context.Context, string, []byte) error { return errors.New("disk full") }

func TestSaveReportsErrors(t *testing.T) {
	err := Save(context.Background(), failingStore{NewMemory()}, sampleSnapshot())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	st, closer, err := Open(ctx, Options{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, st)
	require.NoError(t, closer.Close())

	st, closer, err = Open(ctx, Options{Backend: "sqlite", Path: filepath.Join(t.TempDir(), "x.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, st)
	require.NoError(t, closer.Close())

	_, _, err = Open(ctx, Options{Backend: "etcd"})
	assert.Error(t, err)
}
