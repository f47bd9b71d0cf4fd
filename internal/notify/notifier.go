package notify

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Notifier delivers notifications outside the process.
type Notifier interface {
	SendImmediate(ctx context.Context, title, message string, data map[string]string) error
	Schedule(ctx context.Context, title, message string, trigger time.Time, data map[string]string) (string, error)
	CancelAll(ctx context.Context) error
}

// TimerScheduler runs callbacks at a wall-clock time. Pending callbacks can
// be cancelled together.
type TimerScheduler struct {
	mu     sync.Mutex
	nextID int64
	timers map[string]*time.Timer
}

// NewTimerScheduler returns an empty scheduler.
func NewTimerScheduler() *TimerScheduler {
	return &TimerScheduler{timers: make(map[string]*time.Timer)}
}

// At schedules fn for trigger and returns its id. Past triggers fire immediately.
func (s *TimerScheduler) At(trigger time.Time, fn func()) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := "sched-" + strconv.FormatInt(s.nextID, 10)
	delay := time.Until(trigger)
	if delay < 0 {
		delay = 0
	}
	s.timers[id] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		_, live := s.timers[id]
		delete(s.timers, id)
		s.mu.Unlock()
		if live {
			fn()
		}
	})
	return id
}

// Pending returns the number of callbacks that have not fired.
func (s *TimerScheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

// CancelAll stops every pending callback.
func (s *TimerScheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// LogNotifier writes notifications to a logrus logger.
type LogNotifier struct {
	logger *logrus.Logger
	sched  *TimerScheduler
}

// NewLogNotifier returns a notifier that logs at info level.
func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	return &LogNotifier{logger: logger, sched: NewTimerScheduler()}
}

func (n *LogNotifier) SendImmediate(_ context.Context, title, message string, data map[string]string) error {
	fields := logrus.Fields{"title": title}
	for k, v := range data {
		fields["data."+k] = v
	}
	n.logger.WithFields(fields).Info(message)
	return nil
}

func (n *LogNotifier) Schedule(_ context.Context, title, message string, trigger time.Time, data map[string]string) (string, error) {
	data = cloneData(data)
	id := n.sched.At(trigger, func() {
		_ = n.SendImmediate(context.Background(), title, message, data)
	})
	n.logger.WithFields(logrus.Fields{"title": title, "id": id, "at": trigger}).Debug("notification scheduled")
	return id, nil
}

func (n *LogNotifier) CancelAll(_ context.Context) error {
	n.sched.CancelAll()
	return nil
}

// Fanout delivers to every notifier in order. Errors are joined; one
// failing notifier does not stop the rest.
type Fanout []Notifier

func (f Fanout) SendImmediate(ctx context.Context, title, message string, data map[string]string) error {
	var errs []error
	for _, n := range f {
		if err := n.SendImmediate(ctx, title, message, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Schedule returns the ids of every successful schedule joined by commas.
func (f Fanout) Schedule(ctx context.Context, title, message string, trigger time.Time, data map[string]string) (string, error) {
	var (
		ids  []string
		errs []error
	)
	for _, n := range f {
		id, err := n.Schedule(ctx, title, message, trigger, data)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ids = append(ids, id)
	}
	return strings.Join(ids, ","), errors.Join(errs...)
}

func (f Fanout) CancelAll(ctx context.Context) error {
	var errs []error
	for _, n := range f {
		if err := n.CancelAll(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
