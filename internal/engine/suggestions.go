package engine

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/fueltank/fueltank/internal/metrics"
	"github.com/fueltank/fueltank/internal/model"
	"github.com/fueltank/fueltank/internal/suggest"
)

// ErrStale is returned by GenerateSuggestions when the ledger changed while
// the external generator was running. The result was discarded.
var ErrStale = errors.New("ledger changed during suggestion generation")

// Suggestions returns the active ranked suggestions.
func (e *Engine) Suggestions() []model.Suggestion {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.suggestions.Active()
}

// SuggestionHistory returns applied and dismissed suggestions, newest first.
func (e *Engine) SuggestionHistory() []model.Suggestion {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.suggestions.History()
}

// AddSuggestion inserts a manual suggestion into the ranking. It reports
// false when the suggestion ranked below the active limit and was dropped.
func (e *Engine) AddSuggestion(s model.Suggestion) (model.Suggestion, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	added, ok := e.suggestions.Add(s)
	if !ok {
		e.log.WithField("title", added.Title).Info("manual suggestion ranked out of the active list")
		return added, false
	}
	e.persistLocked()
	return added, true
}

// ApplySuggestion marks a suggestion applied. It reports false for an
// unknown or already resolved id.
func (e *Engine) ApplySuggestion(id string) (model.Suggestion, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.suggestions.Apply(id)
	if !ok {
		return model.Suggestion{}, false
	}
	e.dropExternalLocked(s.Rule)
	e.log.WithFields(logrus.Fields{"id": id, "rule": s.Rule}).Info("suggestion applied")

	for _, a := range e.achievements.Observe(nil, e.metricsLocked(), e.ledger.Snapshot(), e.suggestions.AppliedCount()) {
		e.announceLocked(a)
	}
	e.persistLocked()
	return s, true
}

// DismissSuggestion dismisses a suggestion and silences its rule for a day.
func (e *Engine) DismissSuggestion(id string) (model.Suggestion, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	s, ok := e.suggestions.Dismiss(id)
	if !ok {
		return model.Suggestion{}, false
	}
	e.dropExternalLocked(s.Rule)
	e.log.WithFields(logrus.Fields{"id": id, "rule": s.Rule}).Info("suggestion dismissed")
	e.persistLocked()
	return s, true
}

func (e *Engine) dropExternalLocked(rule string) {
	kept := e.external[:0]
	for _, s := range e.external {
		if s.Rule != rule {
			kept = append(kept, s)
		}
	}
	e.external = kept
}

// GenerateSuggestions reruns the rules and, when a generator is configured,
// merges its candidates. The generator runs without the engine lock under
// a timeout; its failure degrades to rule-based suggestions only. If any
// mutation lands while it runs, the result is discarded and ErrStale is
// returned alongside the current suggestions.
func (e *Engine) GenerateSuggestions(ctx context.Context) ([]model.Suggestion, error) {
	e.mu.Lock()
	state := e.ledger.Snapshot()
	now := e.now()
	gen := e.generation
	generator := e.generator
	e.mu.Unlock()

	var external []model.Suggestion
	if generator != nil {
		fc := metrics.FinancialContextOf(state, now)
		an := metrics.AnalyticsOf(state, now)

		gctx, cancel := context.WithTimeout(ctx, e.generateTimeout)
		out, err := generator.Generate(gctx, fc, &an)
		cancel()
		if err != nil {
			e.log.WithError(err).Warn("suggestion generator unavailable, using rules only")
		} else {
			external = out
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.generation != gen {
		e.log.Debug("discarding stale suggestion generation")
		return e.suggestions.Active(), ErrStale
	}
	e.external = external
	e.regenerateLocked(state, e.now())
	active := e.suggestions.Active()

	merged := 0
	for _, s := range active {
		if s.Source == suggest.SourceExternal {
			merged++
		}
	}
	e.log.WithFields(logrus.Fields{"active": len(active), "external": merged}).Debug("suggestions generated")
	return active, nil
}
