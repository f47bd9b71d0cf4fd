package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fueltank/fueltank/internal/ledger"
	"github.com/fueltank/fueltank/internal/model"
)

// Snapshot is everything the engine persists. Derived values are not
// stored; they are recomputed after loading.
type Snapshot struct {
	Ledger        ledger.State
	Notifications []model.Notification
	Suggestions   []model.Suggestion // resolved history, newest first
	Manual        []model.Suggestion // active hand-added suggestions
	Settings      *model.NotificationSettings
	Achievements  []model.Achievement
}

// KeyError reports a key that could not be read or decoded.
type KeyError struct {
	Key string
	Err error
}

func (e *KeyError) Error() string { return fmt.Sprintf("%s: %v", e.Key, e.Err) }

func (e *KeyError) Unwrap() error { return e.Err }

// Encode serializes snap into one JSON blob per key.
func Encode(snap Snapshot) (map[string][]byte, error) {
	out := make(map[string][]byte, len(Keys))
	put := func(key string, v any) error {
		b, err := json.Marshal(v)
		if err != nil {
			return &KeyError{Key: key, Err: err}
		}
		out[key] = b
		return nil
	}

	expenses := snap.Ledger.Expenses
	if expenses == nil {
		expenses = []model.Expense{}
	}
	bills := snap.Ledger.Bills
	if bills == nil {
		bills = []model.RecurringBill{}
	}

	err := errors.Join(
		put(KeySalary, snap.Ledger.Salary),
		put(KeyExpenses, expenses),
		put(KeyBills, bills),
		put(KeyNotifications, snap.Notifications),
		put(KeySuggestions, snap.Suggestions),
		put(KeyManual, snap.Manual),
		put(KeySettings, snap.Settings),
		put(KeyAchievements, snap.Achievements),
	)
	return out, err
}

// Save writes snap to st, atomically when the backend supports it.
func Save(ctx context.Context, st Storage, snap Snapshot) error {
	blobs, err := Encode(snap)
	if err != nil {
		return err
	}
	if b, ok := st.(batchSetter); ok {
		return b.SetMany(ctx, blobs)
	}
	var errs []error
	for _, k := range Keys {
		if err := st.Set(ctx, k, blobs[k]); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Load reads every key. Missing keys leave the zero value. Keys that fail
// to read or decode also leave the zero value and are reported as
// *KeyError values joined into the returned error; the snapshot is still
// usable.
func Load(ctx context.Context, st Storage) (Snapshot, error) {
	var errs []error
	snap := Snapshot{
		Ledger: ledger.State{
			Salary:   loadKey[*model.SalaryRecord](ctx, st, KeySalary, &errs),
			Expenses: loadKey[[]model.Expense](ctx, st, KeyExpenses, &errs),
			Bills:    loadKey[[]model.RecurringBill](ctx, st, KeyBills, &errs),
		},
		Notifications: loadKey[[]model.Notification](ctx, st, KeyNotifications, &errs),
		Suggestions:   loadKey[[]model.Suggestion](ctx, st, KeySuggestions, &errs),
		Manual:        loadKey[[]model.Suggestion](ctx, st, KeyManual, &errs),
		Settings:      loadKey[*model.NotificationSettings](ctx, st, KeySettings, &errs),
		Achievements:  loadKey[[]model.Achievement](ctx, st, KeyAchievements, &errs),
	}
	return snap, errors.Join(errs...)
}

func loadKey[T any](ctx context.Context, st Storage, key string, errs *[]error) T {
	var zero, v T
	b, err := st.Get(ctx, key)
	if err != nil {
		*errs = append(*errs, &KeyError{Key: key, Err: err})
		return zero
	}
	if len(b) == 0 {
		return zero
	}
	if err := json.Unmarshal(b, &v); err != nil {
		*errs = append(*errs, &KeyError{Key: key, Err: err})
		return zero
	}
	return v
}
