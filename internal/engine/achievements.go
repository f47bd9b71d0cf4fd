package engine

import (
	"github.com/sirupsen/logrus"

	"github.com/fueltank/fueltank/internal/model"
)

// Achievements returns every achievement in catalog order.
func (e *Engine) Achievements() []model.Achievement {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.achievements.List()
}

// UpdateAchievement adds delta to an achievement's progress. It reports
// false for an unknown id.
func (e *Engine) UpdateAchievement(id string, delta float64) (model.Achievement, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, unlocked := e.achievements.UpdateProgress(id, delta)
	if a.ID == "" {
		return model.Achievement{}, false
	}
	if unlocked {
		e.announceLocked(a)
	}
	e.persistLocked()
	return a, true
}

func (e *Engine) announceLocked(a model.Achievement) {
	e.log.WithFields(logrus.Fields{"achievement": a.ID}).Info("achievement unlocked")
	n, ok := e.gate.Add(model.Notification{
		Type:       model.NotifyAchievement,
		Title:      "Achievement Unlocked: " + a.Title,
		Message:    a.Description,
		Priority:   model.PriorityNormal,
		DedupKey:   "achievement:" + a.ID,
		ActionData: map[string]string{"achievement_id": a.ID},
	})
	if ok {
		e.deliverLocked(n)
	}
}
