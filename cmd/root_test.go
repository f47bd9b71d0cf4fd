package cmd

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fueltank/fueltank/internal/engine"
	"github.com/fueltank/fueltank/internal/model"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		err  bool
	}{
		{"1500", 1500, false},
		{" 1,250.505 ", 1250.51, false},
		{"₹99", 99, false},
		{"abc", 0, true},
		{"", 0, true},
	}
	for _, tc := range cases {
		got, err := parseAmount(tc.in)
		if tc.err {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.InDelta(t, tc.want, got, 0.001, tc.in)
	}
}

func TestParseEnums(t *testing.T) {
	c, err := parseCategory("food")
	require.NoError(t, err)
	assert.Equal(t, model.CategoryFood, c)

	c, err = parseCategory("")
	require.NoError(t, err)
	assert.Equal(t, model.CategoryOther, c)

	_, err = parseCategory("snacks")
	assert.ErrorContains(t, err, "transport")

	f, err := parseFrequency("Weekly")
	require.NoError(t, err)
	assert.Equal(t, model.FrequencyWeekly, f)

	_, err = parseFrequency("daily")
	assert.Error(t, err)
}

func TestResolveID(t *testing.T) {
	ids := []string{"exp-1111aaaa", "exp-2222bbbb", "exp-3333bbbb"}

	id, err := resolveID(ids, "exp-2222bbbb")
	require.NoError(t, err)
	assert.Equal(t, "exp-2222bbbb", id)

	id, err = resolveID(ids, "1111aaaa")
	require.NoError(t, err)
	assert.Equal(t, "exp-1111aaaa", id)

	_, err = resolveID(ids, "bbbb")
	assert.ErrorContains(t, err, "ambiguous")

	_, err = resolveID(ids, "zzzz")
	assert.ErrorContains(t, err, "no record")
}

func TestCommandsPersistToSQLite(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmp, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(tmp, "data"))
	db := filepath.Join(tmp, "fueltank.db")

	run := func(args ...string) {
		t.Helper()
		rootCmd.SetArgs(append([]string{"--db", db, "--log-level", "error"}, args...))
		require.NoError(t, rootCmd.Execute(), args)
	}

	run("salary", "set", "30000", "--frequency", "monthly")
	run("expense", "add", "1,200", "--category", "food", "--description", "groceries")
	run("bill", "add", "Rent", "10000", "--category", "bills")

	eng, _, closeAll, err := openEngine(context.Background(), engine.Options{})
	require.NoError(t, err)
	defer closeAll()

	state := eng.State()
	require.NotNil(t, state.Salary)
	assert.InDelta(t, 30000, state.Salary.Amount, 0.001)
	require.Len(t, state.Expenses, 1)
	assert.Equal(t, "groceries", state.Expenses[0].Description)
	require.Len(t, state.Bills, 1)
	assert.InDelta(t, 18800, eng.Metrics().Balance, 0.001)
}
