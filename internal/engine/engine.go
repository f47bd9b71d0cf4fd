// Package engine coordinates the ledger with the subsystems that react to it.
//
// Engine is the single logical writer: every public operation takes one
// mutex, so a mutation, its metrics recomputation and every notification,
// suggestion and achievement side effect finish before the next operation
// starts. Persistence and notifier delivery happen in the background and
// never fail the operation that triggered them.
package engine

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fueltank/fueltank/internal/achievement"
	"github.com/fueltank/fueltank/internal/ledger"
	"github.com/fueltank/fueltank/internal/metrics"
	"github.com/fueltank/fueltank/internal/model"
	"github.com/fueltank/fueltank/internal/notify"
	"github.com/fueltank/fueltank/internal/parser"
	"github.com/fueltank/fueltank/internal/store"
	"github.com/fueltank/fueltank/internal/suggest"
)

const (
	defaultDeliveryTimeout = 10 * time.Second
	defaultPersistTimeout  = 5 * time.Second
)

// Options configures an Engine. Zero values get working defaults.
type Options struct {
	Storage   store.Storage
	Notifier  notify.Notifier
	Generator suggest.Generator
	Parsers   *parser.Registry

	// Settings seed the notification gate when nothing is persisted yet.
	Settings *model.NotificationSettings

	// OnChange is called with fresh metrics after every committed mutation.
	// It runs under the engine lock and must not block or call back in.
	OnChange func(model.Metrics)

	Logger          *logrus.Logger
	Now             func() time.Time
	DeliveryTimeout time.Duration
	GenerateTimeout time.Duration
}

// Engine owns the ledger and every derived subsystem.
type Engine struct {
	mu sync.Mutex

	ledger       *ledger.Ledger
	gate         *notify.Gate
	suggestions  *suggest.Engine
	achievements *achievement.Tracker
	external     []model.Suggestion

	parsers   *parser.Registry
	generator suggest.Generator
	notifier  notify.Notifier
	storage   store.Storage
	onChange  func(model.Metrics)

	log             *logrus.Logger
	now             func() time.Time
	deliveryTimeout time.Duration
	generateTimeout time.Duration

	generation uint64
	closed     bool

	pmu        sync.Mutex
	pending    *store.Snapshot
	dirty      chan struct{}
	writerDone chan struct{}
	deliveries sync.WaitGroup
}

// New builds an engine with empty state. Call Load to restore persisted data.
func New(opts Options) *Engine {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Storage == nil {
		opts.Storage = store.NewMemory()
	}
	if opts.Parsers == nil {
		opts.Parsers = parser.DefaultRegistry()
	}
	if opts.DeliveryTimeout <= 0 {
		opts.DeliveryTimeout = defaultDeliveryTimeout
	}
	if opts.GenerateTimeout <= 0 {
		opts.GenerateTimeout = suggest.DefaultTimeout
	}
	settings := model.DefaultNotificationSettings()
	if opts.Settings != nil && notify.ValidateQuietHours(opts.Settings.QuietHours) == nil {
		settings = *opts.Settings
	}

	e := &Engine{
		ledger:          ledger.New(opts.Now),
		gate:            notify.NewGate(settings, opts.Now),
		suggestions:     suggest.NewEngine(opts.Now),
		achievements:    achievement.NewTracker(achievement.Catalog, opts.Now, opts.Logger),
		parsers:         opts.Parsers,
		generator:       opts.Generator,
		notifier:        opts.Notifier,
		storage:         opts.Storage,
		onChange:        opts.OnChange,
		log:             opts.Logger,
		now:             opts.Now,
		deliveryTimeout: opts.DeliveryTimeout,
		generateTimeout: opts.GenerateTimeout,
		dirty:           make(chan struct{}, 1),
		writerDone:      make(chan struct{}),
	}
	e.gate.Prime(e.metricsLocked().Fuel.Level)
	go e.writeLoop()
	return e
}

// Load restores persisted state, replacing whatever the engine holds.
// Unreadable keys and invalid records fall back to empty values and are
// logged; the engine stays usable either way.
func (e *Engine) Load(ctx context.Context) error {
	snap, err := store.Load(ctx, e.storage)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		e.logLoadErrors(err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if dropped := e.ledger.Restore(snap.Ledger); dropped > 0 {
		e.log.WithField("dropped", dropped).Warn("skipped invalid ledger records on load")
	}
	e.gate.Restore(snap.Notifications)
	if snap.Settings != nil {
		if err := e.gate.UpdateSettings(*snap.Settings); err != nil {
			e.log.WithError(err).Warn("ignoring persisted notification settings")
		}
	}
	e.suggestions.Restore(snap.Suggestions)
	e.suggestions.RestoreManual(snap.Manual)
	e.achievements.Restore(snap.Achievements)

	state := e.ledger.Snapshot()
	now := e.now()
	e.gate.Prime(metrics.Compute(state, now).Fuel.Level)
	e.regenerateLocked(state, now)
	e.generation++

	e.log.WithFields(logrus.Fields{
		"expenses":      len(state.Expenses),
		"bills":         len(state.Bills),
		"notifications": len(snap.Notifications),
		"salary_set":    state.Salary != nil,
	}).Debug("engine state loaded")
	return nil
}

func (e *Engine) logLoadErrors(err error) {
	type unwrapper interface{ Unwrap() []error }
	errs := []error{err}
	if u, ok := err.(unwrapper); ok {
		errs = u.Unwrap()
	}
	for _, err := range errs {
		var ke *store.KeyError
		if errors.As(err, &ke) {
			e.log.WithError(ke.Err).WithField("key", ke.Key).Warn("persisted data unreadable, using defaults")
			continue
		}
		e.log.WithError(err).Warn("loading persisted state")
	}
}

// Close stops accepting background work, flushes the latest snapshot and
// waits for in-flight deliveries. The engine must not be used afterwards.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	close(e.dirty)
	e.mu.Unlock()

	<-e.writerDone
	e.deliveries.Wait()
	return nil
}

// commit runs every side effect of a ledger mutation. pre holds the metrics
// from before the mutation. Callers hold e.mu.
func (e *Engine) commit(events []ledger.Event, pre model.Metrics) model.Metrics {
	// Only ledger changes invalidate an in-flight suggestion generation.
	if len(events) > 0 {
		e.generation++
	}
	now := e.now()
	state := e.ledger.Snapshot()
	post := metrics.Compute(state, now)

	for _, ev := range events {
		if ev.Kind != ledger.EventExpenseAdded || ev.Expense == nil || state.Salary == nil {
			continue
		}
		if n, ok := e.gate.ObserveExpense(*ev.Expense, pre.Balance, pre.DaysRemaining, post.DaysRemaining); ok {
			e.deliverLocked(n)
		}
	}
	if n, ok := e.gate.ObserveFuel(post.Fuel); ok {
		e.deliverLocked(n)
	}
	for _, a := range e.achievements.Observe(events, post, state, e.suggestions.AppliedCount()) {
		e.announceLocked(a)
	}
	e.regenerateLocked(state, now)
	e.persistLocked()

	if e.onChange != nil {
		e.onChange(post)
	}
	return post
}

// regenerateLocked refreshes rule-based suggestions, keeping the last
// external batch in the running.
func (e *Engine) regenerateLocked(state ledger.State, now time.Time) {
	fc := metrics.FinancialContextOf(state, now)
	an := metrics.AnalyticsOf(state, now)
	e.suggestions.Generate(fc, &an, e.external)
}

func (e *Engine) metricsLocked() model.Metrics {
	return metrics.Compute(e.ledger.Snapshot(), e.now())
}

func (e *Engine) snapshotLocked() store.Snapshot {
	settings := e.gate.Settings()
	return store.Snapshot{
		Ledger:        e.ledger.Snapshot(),
		Notifications: e.gate.List(),
		Suggestions:   e.suggestions.History(),
		Manual:        e.suggestions.Manual(),
		Settings:      &settings,
		Achievements:  e.achievements.List(),
	}
}

// persistLocked hands the current snapshot to the writer. Only the newest
// pending snapshot is kept.
func (e *Engine) persistLocked() {
	if e.closed {
		return
	}
	snap := e.snapshotLocked()
	e.pmu.Lock()
	e.pending = &snap
	e.pmu.Unlock()
	select {
	case e.dirty <- struct{}{}:
	default:
	}
}

func (e *Engine) writeLoop() {
	defer close(e.writerDone)
	for range e.dirty {
		e.pmu.Lock()
		snap := e.pending
		e.pending = nil
		e.pmu.Unlock()
		if snap == nil {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), defaultPersistTimeout)
		err := store.Save(ctx, e.storage, *snap)
		cancel()
		if err != nil {
			e.log.WithError(err).Error("persisting engine state")
		}
	}
}

// deliverLocked sends n to the notifier in the background.
func (e *Engine) deliverLocked(n model.Notification) {
	if e.notifier == nil || e.closed {
		return
	}
	settings := e.gate.Settings()
	data := make(map[string]string, len(n.ActionData)+5)
	for k, v := range n.ActionData {
		data[k] = v
	}
	data["id"] = n.ID
	data["type"] = string(n.Type)
	data["priority"] = string(n.Priority)
	data["sound"] = strconv.FormatBool(settings.SoundEnabled)
	data["vibration"] = strconv.FormatBool(settings.VibrationEnabled)

	e.deliveries.Add(1)
	go func() {
		defer e.deliveries.Done()
		ctx, cancel := context.WithTimeout(context.Background(), e.deliveryTimeout)
		defer cancel()
		if err := e.notifier.SendImmediate(ctx, n.Title, n.Message, data); err != nil {
			e.log.WithError(err).WithFields(logrus.Fields{
				"notification": n.ID,
				"type":         n.Type,
			}).Warn("notification delivery failed")
		}
	}()
}

// Metrics returns freshly computed metrics.
func (e *Engine) Metrics() model.Metrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.metricsLocked()
}

// Refresh recomputes metrics and runs the fuel gate against them. Time
// passing changes the average daily spend, so long-running callers refresh
// periodically.
func (e *Engine) Refresh() model.Metrics {
	e.mu.Lock()
	defer e.mu.Unlock()
	pre := e.metricsLocked()
	return e.commit(nil, pre)
}

// State returns a copy of the ledger records.
func (e *Engine) State() ledger.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ledger.Snapshot()
}

// FinancialContext returns the summary suggestion rules run against.
func (e *Engine) FinancialContext() metrics.FinancialContext {
	e.mu.Lock()
	defer e.mu.Unlock()
	return metrics.FinancialContextOf(e.ledger.Snapshot(), e.now())
}

// Analytics returns week-over-week spending analytics.
func (e *Engine) Analytics() metrics.SpendingAnalytics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return metrics.AnalyticsOf(e.ledger.Snapshot(), e.now())
}
