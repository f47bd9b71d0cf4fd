// Package suggest produces ranked spending suggestions from a financial
// context and tracks their lifecycle from active to applied or dismissed.
package suggest

import (
	"sort"
	"strings"
	"time"

	"github.com/fueltank/fueltank/internal/ledger"
	"github.com/fueltank/fueltank/internal/metrics"
	"github.com/fueltank/fueltank/internal/model"
)

const (
	// MaxActive caps the ranked active list.
	MaxActive = 5
	// HistoryLimit caps applied and dismissed suggestions kept.
	HistoryLimit = 20
	// DismissCooldown keeps a dismissed rule quiet for this long.
	DismissCooldown = 24 * time.Hour
)

// Rank sorts by priority then confidence, both descending, and truncates to
// MaxActive. Equal suggestions keep their input order.
func Rank(list []model.Suggestion) []model.Suggestion {
	out := make([]model.Suggestion, len(list))
	copy(out, list)
	sort.SliceStable(out, func(i, j int) bool {
		pi, pj := out[i].Priority.Rank(), out[j].Priority.Rank()
		if pi != pj {
			return pi > pj
		}
		return out[i].Impact.ConfidenceScore > out[j].Impact.ConfidenceScore
	})
	if len(out) > MaxActive {
		out = out[:MaxActive]
	}
	return out
}

// Engine holds the active suggestions and the resolved history.
// It is not safe for concurrent use.
type Engine struct {
	active    []model.Suggestion
	history   []model.Suggestion // oldest first
	dismissed map[string]time.Time

	now   func() time.Time
	newID func(time.Time) string
}

// NewEngine returns an engine with no suggestions.
func NewEngine(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{
		dismissed: make(map[string]time.Time),
		now:       now,
		newID:     ledger.NewID,
	}
}

// Generate runs the rules, merges external candidates and replaces the
// active list with the ranked result. A rule that is still active keeps its
// existing suggestion. Manual suggestions stay until resolved or expired.
func (e *Engine) Generate(ctx metrics.FinancialContext, a *metrics.SpendingAnalytics, external []model.Suggestion) []model.Suggestion {
	now := e.now()

	existing := make(map[string]model.Suggestion, len(e.active))
	var pool []model.Suggestion
	for _, s := range e.active {
		if !s.Active(now) {
			continue
		}
		if s.Source == SourceManual {
			pool = append(pool, s)
			continue
		}
		existing[s.Rule] = s
	}

	seen := make(map[string]bool)
	consider := func(c model.Suggestion) {
		if seen[c.Rule] || e.cooling(c.Rule, now) {
			return
		}
		seen[c.Rule] = true
		if prev, ok := existing[c.Rule]; ok {
			pool = append(pool, prev)
			return
		}
		c.ID = e.newID(now)
		c.CreatedAt = now
		c.IsApplied, c.IsDismissed, c.ResolvedAt = false, false, nil
		pool = append(pool, c)
	}

	for _, c := range Candidates(ctx, a, now) {
		consider(c)
	}
	for _, c := range external {
		if c, ok := normalizeExternal(c); ok {
			consider(c)
		}
	}

	e.active = Rank(pool)
	return e.Active()
}

func (e *Engine) cooling(rule string, now time.Time) bool {
	at, ok := e.dismissed[rule]
	if !ok {
		return false
	}
	if now.Sub(at) >= DismissCooldown {
		delete(e.dismissed, rule)
		return false
	}
	return true
}

func normalizeExternal(s model.Suggestion) (model.Suggestion, bool) {
	s.Title = strings.TrimSpace(s.Title)
	if s.Title == "" {
		return s, false
	}
	if s.Priority.Rank() < 0 {
		s.Priority = model.PriorityNormal
	}
	if s.Type == "" {
		s.Type = model.SuggestGeneral
	}
	if s.Rule == "" {
		s.Rule = SourceExternal + ":" + strings.ToLower(s.Title)
	}
	switch c := s.Impact.ConfidenceScore; {
	case c < 0:
		s.Impact.ConfidenceScore = 0
	case c > 1:
		s.Impact.ConfidenceScore = 1
	}
	s.Source = SourceExternal
	return s, true
}

// Add inserts a manual suggestion and re-ranks the active list. It reports
// false when the suggestion ranked below MaxActive and was not kept.
func (e *Engine) Add(s model.Suggestion) (model.Suggestion, bool) {
	now := e.now()
	s.ID = e.newID(now)
	s.CreatedAt = now
	s.IsApplied, s.IsDismissed, s.ResolvedAt = false, false, nil
	if s.Source == "" {
		s.Source = SourceManual
	}
	if s.Rule == "" {
		s.Rule = SourceManual + ":" + s.ID
	}
	if s.Priority.Rank() < 0 {
		s.Priority = model.PriorityNormal
	}
	if s.Type == "" {
		s.Type = model.SuggestGeneral
	}
	e.active = Rank(append(e.active, s))
	for _, a := range e.active {
		if a.ID == s.ID {
			return s, true
		}
	}
	return s, false
}

// Manual returns the active suggestions that were added by hand.
func (e *Engine) Manual() []model.Suggestion {
	now := e.now()
	var out []model.Suggestion
	for _, s := range e.active {
		if s.Source == SourceManual && s.Active(now) {
			out = append(out, s)
		}
	}
	return out
}

// RestoreManual puts persisted manual suggestions back into the active list.
// Expired, resolved and id-less entries are skipped.
func (e *Engine) RestoreManual(list []model.Suggestion) {
	now := e.now()
	pool := make([]model.Suggestion, 0, len(e.active)+len(list))
	for _, s := range e.active {
		if s.Source != SourceManual {
			pool = append(pool, s)
		}
	}
	for _, s := range list {
		if s.ID == "" || !s.Active(now) {
			continue
		}
		s.Source = SourceManual
		pool = append(pool, s)
	}
	e.active = Rank(pool)
}

// Apply marks a suggestion applied and moves it to history.
func (e *Engine) Apply(id string) (model.Suggestion, bool) {
	return e.resolve(id, true)
}

// Dismiss marks a suggestion dismissed, moves it to history and silences
// its rule for DismissCooldown.
func (e *Engine) Dismiss(id string) (model.Suggestion, bool) {
	s, ok := e.resolve(id, false)
	if ok {
		e.dismissed[s.Rule] = *s.ResolvedAt
	}
	return s, ok
}

func (e *Engine) resolve(id string, applied bool) (model.Suggestion, bool) {
	for i, s := range e.active {
		if s.ID != id {
			continue
		}
		now := e.now()
		s.IsApplied = applied
		s.IsDismissed = !applied
		s.ResolvedAt = &now
		e.active = append(e.active[:i:i], e.active[i+1:]...)
		e.history = append(e.history, s)
		if len(e.history) > HistoryLimit {
			e.history = e.history[len(e.history)-HistoryLimit:]
		}
		return s, true
	}
	return model.Suggestion{}, false
}

// Active returns the current ranked suggestions, skipping expired ones.
func (e *Engine) Active() []model.Suggestion {
	now := e.now()
	out := make([]model.Suggestion, 0, len(e.active))
	for _, s := range e.active {
		if s.Active(now) {
			out = append(out, s)
		}
	}
	return out
}

// History returns resolved suggestions, newest first.
func (e *Engine) History() []model.Suggestion {
	out := make([]model.Suggestion, len(e.history))
	for i, s := range e.history {
		out[len(e.history)-1-i] = s
	}
	return out
}

// AppliedCount returns how many suggestions in history were applied.
func (e *Engine) AppliedCount() int {
	n := 0
	for _, s := range e.history {
		if s.IsApplied {
			n++
		}
	}
	return n
}

// Restore loads history (newest first) and rebuilds dismiss cooldowns from it.
func (e *Engine) Restore(history []model.Suggestion) {
	now := e.now()
	e.history = e.history[:0]
	e.dismissed = make(map[string]time.Time)
	for i := len(history) - 1; i >= 0; i-- {
		s := history[i]
		if s.ID == "" {
			continue
		}
		e.history = append(e.history, s)
		if s.IsDismissed && s.ResolvedAt != nil && now.Sub(*s.ResolvedAt) < DismissCooldown {
			e.dismissed[s.Rule] = *s.ResolvedAt
		}
	}
	if len(e.history) > HistoryLimit {
		e.history = e.history[len(e.history)-HistoryLimit:]
	}
}
