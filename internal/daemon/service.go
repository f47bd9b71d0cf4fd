// Package daemon serves the engine over HTTP with a server-sent event
// stream, and runs the scheduled reminder and bill jobs.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/fueltank/fueltank/internal/engine"
	"github.com/fueltank/fueltank/internal/inbox"
)

// Config controls the daemon runtime behavior.
type Config struct {
	Addr          string
	EventsBuffer  int
	ReminderCron  string
	BillCheckCron string
	SuggestCron   string
	// RefreshCron reruns the fuel gate as the average daily spend drifts.
	RefreshCron string

	// Inbox, when set, is scanned on InboxCron for new statement exports.
	Inbox     *inbox.Importer
	InboxCron string
}

// Status is served at /v1/status.
type Status struct {
	StartedAt       time.Time `json:"started_at"`
	Addr            string    `json:"addr"`
	Jobs            []string  `json:"jobs"`
	LastJobAt       time.Time `json:"last_job_at,omitempty"`
	JobRuns         int64     `json:"job_runs"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
	ScheduledAlerts int       `json:"scheduled_alerts"`
	UnreadCount     int       `json:"unread_count"`
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg    Config
	engine *engine.Engine
	hub    *Hub
	log    *logrus.Logger

	mu        sync.RWMutex
	startedAt time.Time
	jobs      []string
	lastJobAt time.Time
	jobRuns   int64
	lastError string
}

// New returns a daemon service. The hub should be the engine's notifier
// (or part of it) and its PublishMetrics the engine's change hook.
func New(cfg Config, eng *engine.Engine, hub *Hub, logger *logrus.Logger) *Service {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8765"
	}
	if cfg.RefreshCron == "" {
		cfg.RefreshCron = "@every 15m"
	}
	if hub == nil {
		hub = NewHub(cfg.EventsBuffer)
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		cfg:       cfg,
		engine:    eng,
		hub:       hub,
		log:       logger,
		startedAt: time.Now(),
	}
}

// Run starts the HTTP endpoints and scheduled jobs until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	c, err := s.scheduler(ctx)
	if err != nil {
		return err
	}
	c.Start()
	defer func() { <-c.Stop().Done() }()

	server := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", s.cfg.Addr).Info("daemon listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Seed the stream and the reminder schedule so both are useful immediately.
	s.engine.Refresh()
	s.scheduleBills(ctx)

	select {
	case <-ctx.Done():
		s.log.Info("daemon shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return fmt.Errorf("daemon http server: %w", err)
	}
}

type job struct {
	name string
	spec string
	fn   func()
}

// scheduler registers the periodic jobs. Empty specs disable a job.
func (s *Service) scheduler(ctx context.Context) (*cron.Cron, error) {
	c := cron.New()
	jobs := []job{
		{"daily_reminder", s.cfg.ReminderCron, func() { s.engine.DailyReminder() }},
		{"bill_check", s.cfg.BillCheckCron, func() {
			if due := s.engine.ProcessDueBills(); len(due) > 0 {
				s.log.WithField("count", len(due)).Info("bills came due")
			}
			s.scheduleBills(ctx)
		}},
		{"suggestions", s.cfg.SuggestCron, func() {
			if _, err := s.engine.GenerateSuggestions(ctx); err != nil {
				s.recordError(err)
			}
		}},
		{"refresh", s.cfg.RefreshCron, func() { s.engine.Refresh() }},
	}
	if s.cfg.Inbox != nil {
		jobs = append(jobs, job{"inbox", s.cfg.InboxCron, func() { s.importInbox(ctx) }})
	}

	for _, j := range jobs {
		if j.spec == "" {
			continue
		}
		name, fn := j.name, j.fn
		if _, err := c.AddFunc(j.spec, func() { s.runJob(name, fn) }); err != nil {
			return nil, fmt.Errorf("scheduling %s (%q): %w", name, j.spec, err)
		}
		s.jobs = append(s.jobs, name)
	}
	return c, nil
}

func (s *Service) runJob(name string, fn func()) {
	s.log.WithField("job", name).Debug("running scheduled job")
	fn()
	s.mu.Lock()
	s.lastJobAt = time.Now()
	s.jobRuns++
	s.mu.Unlock()
}

func (s *Service) scheduleBills(ctx context.Context) {
	n, err := s.engine.ScheduleBillReminders(ctx)
	if err != nil {
		s.recordError(err)
		return
	}
	s.log.WithField("count", n).Debug("bill reminders scheduled")
}

func (s *Service) importInbox(ctx context.Context) {
	res, err := s.cfg.Inbox.Run(ctx, nil)
	if err != nil {
		s.recordError(err)
		return
	}
	if len(res.Errors) > 0 {
		s.recordError(fmt.Errorf("inbox: %s: %s", res.Errors[0].Path, res.Errors[0].Err))
	}
}

func (s *Service) recordError(err error) {
	s.log.WithError(err).Warn("daemon job failed")
	s.mu.Lock()
	s.lastError = err.Error()
	s.mu.Unlock()
}

func (s *Service) status() Status {
	events, subs := s.hub.counts()

	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		StartedAt:       s.startedAt,
		Addr:            s.cfg.Addr,
		Jobs:            append([]string(nil), s.jobs...),
		LastJobAt:       s.lastJobAt,
		JobRuns:         s.jobRuns,
		LastError:       s.lastError,
		EventCount:      events,
		SubscriberCount: subs,
		ScheduledAlerts: s.hub.Pending(),
		UnreadCount:     s.engine.UnreadCount(),
	}
}

// Router returns the HTTP handler with every route registered.
func (s *Service) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	api := r.PathPrefix("/v1").Subrouter()
	api.Use(s.logRequests)
	api.HandleFunc("/status", s.handleStatus).Methods("GET")
	api.HandleFunc("/events", s.handleEvents).Methods("GET")
	api.HandleFunc("/stream", s.handleStream).Methods("GET")

	s.registerLedgerRoutes(api)
	s.registerNotificationRoutes(api.PathPrefix("/notifications").Subrouter())
	s.registerSuggestionRoutes(api.PathPrefix("/suggestions").Subrouter())
	s.registerAchievementRoutes(api.PathPrefix("/achievements").Subrouter())
	return r
}

func (s *Service) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start),
		}).Debug("request")
	})
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

func (s *Service) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Service) handleEvents(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.hub.Events())
}

func (s *Service) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := make(chan Event, 16)
	id := s.hub.subscribe(ch)
	defer s.hub.unsubscribe(id)

	// Send current metrics immediately.
	m := s.engine.Metrics()
	writeSSE(w, Event{Type: EventSnapshot, Timestamp: time.Now(), Metrics: &m})
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev := <-ch:
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}
