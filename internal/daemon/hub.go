package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fueltank/fueltank/internal/model"
	"github.com/fueltank/fueltank/internal/notify"
)

// Event types published on the stream.
const (
	EventSnapshot     = "snapshot"
	EventMetrics      = "metrics"
	EventNotification = "notification"
)

// Alert is a delivered notification as carried on the stream.
type Alert struct {
	Title   string            `json:"title"`
	Message string            `json:"message"`
	Data    map[string]string `json:"data,omitempty"`
}

// Event is emitted on every committed mutation and every delivered alert.
type Event struct {
	ID        int64          `json:"id"`
	Type      string         `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Metrics   *model.Metrics `json:"metrics,omitempty"`
	Alert     *Alert         `json:"alert,omitempty"`
}

// Hub keeps a ring buffer of recent events and fans them out to stream
// subscribers. It is also a notify.Notifier, so engine alerts reach
// connected clients.
type Hub struct {
	mu          sync.RWMutex
	buffer      int
	nextEventID int64
	events      []Event
	nextSubID   int
	subs        map[int]chan Event

	sched *notify.TimerScheduler
	now   func() time.Time
}

// NewHub returns a hub retaining up to buffer events.
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 200
	}
	return &Hub{
		buffer: buffer,
		subs:   make(map[int]chan Event),
		sched:  notify.NewTimerScheduler(),
		now:    time.Now,
	}
}

// PublishMetrics emits a metrics event. It never blocks, so it is safe to
// use as the engine's change hook.
func (h *Hub) PublishMetrics(m model.Metrics) {
	h.publish(Event{Type: EventMetrics, Metrics: &m})
}

func (h *Hub) publish(ev Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextEventID++
	ev.ID = h.nextEventID
	if ev.Timestamp.IsZero() {
		ev.Timestamp = h.now()
	}
	h.events = append(h.events, ev)
	if len(h.events) > h.buffer {
		h.events = h.events[len(h.events)-h.buffer:]
	}

	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Events returns a copy of the buffered events, oldest first.
func (h *Hub) Events() []Event {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]Event, len(h.events))
	copy(out, h.events)
	return out
}

func (h *Hub) subscribe(ch chan Event) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.nextSubID++
	id := h.nextSubID
	h.subs[id] = ch
	return id
}

func (h *Hub) unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, id)
}

func (h *Hub) counts() (events, subscribers int) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.events), len(h.subs)
}

// SendImmediate publishes a notification event.
func (h *Hub) SendImmediate(_ context.Context, title, message string, data map[string]string) error {
	h.publish(Event{Type: EventNotification, Alert: &Alert{Title: title, Message: message, Data: data}})
	return nil
}

// Schedule publishes a notification event at trigger.
func (h *Hub) Schedule(_ context.Context, title, message string, trigger time.Time, data map[string]string) (string, error) {
	alert := &Alert{Title: title, Message: message, Data: data}
	return h.sched.At(trigger, func() {
		h.publish(Event{Type: EventNotification, Alert: alert})
	}), nil
}

// CancelAll drops every scheduled notification.
func (h *Hub) CancelAll(_ context.Context) error {
	h.sched.CancelAll()
	return nil
}

// Pending returns the number of scheduled notifications.
func (h *Hub) Pending() int {
	return h.sched.Pending()
}

func writeSSE(w io.Writer, ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "id: %d\n", ev.ID)
	_, _ = fmt.Fprintf(w, "event: %s\n", ev.Type)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}
