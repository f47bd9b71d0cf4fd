package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fueltank/fueltank/internal/engine"
	"github.com/fueltank/fueltank/internal/inbox"
	"github.com/fueltank/fueltank/internal/model"
	"github.com/fueltank/fueltank/internal/store"
	"github.com/fueltank/fueltank/internal/suggest"
)

var testNow = time.Date(2025, 6, 15, 18, 0, 0, 0, time.Local)

func newTestService(t *testing.T, cfg Config) (*Service, *Hub) {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	hub := NewHub(cfg.EventsBuffer)
	eng := engine.New(engine.Options{
		Storage:  store.NewMemory(),
		Notifier: hub,
		OnChange: hub.PublishMetrics,
		Logger:   logger,
		Now:      func() time.Time { return testNow },
	})
	t.Cleanup(func() { _ = eng.Close() })
	return New(cfg, eng, hub, logger), hub
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHubRingBuffer(t *testing.T) {
	h := NewHub(2)
	for i := 0; i < 3; i++ {
		h.PublishMetrics(model.Metrics{Balance: float64(i)})
	}

	events := h.Events()
	require.Len(t, events, 2)
	assert.Equal(t, int64(2), events[0].ID)
	assert.Equal(t, int64(3), events[1].ID)
	assert.InDelta(t, 2, events[1].Metrics.Balance, 0.001)
}

func TestHubFanout(t *testing.T) {
	h := NewHub(10)
	ch := make(chan Event, 1)
	id := h.subscribe(ch)

	require.NoError(t, h.SendImmediate(context.Background(), "Low Fuel", "slow down", nil))
	ev := <-ch
	assert.Equal(t, EventNotification, ev.Type)
	assert.Equal(t, "Low Fuel", ev.Alert.Title)

	// A full subscriber never blocks publishing.
	h.PublishMetrics(model.Metrics{})
	h.PublishMetrics(model.Metrics{})

	h.unsubscribe(id)
	_, subs := h.counts()
	assert.Zero(t, subs)
}

func TestHubSchedule(t *testing.T) {
	h := NewHub(10)
	ctx := context.Background()

	_, err := h.Schedule(ctx, "Bill Due: Rent", "due tomorrow", time.Now().Add(time.Hour), nil)
	require.NoError(t, err)
	assert.Equal(t, 1, h.Pending())

	require.NoError(t, h.CancelAll(ctx))
	assert.Zero(t, h.Pending())

	_, err = h.Schedule(ctx, "Bill Due: Rent", "due now", time.Now(), nil)
	require.NoError(t, err)
	assert.Eventually(t, func() bool {
		events := h.Events()
		return len(events) == 1 && events[0].Alert.Message == "due now"
	}, time.Second, 10*time.Millisecond)
}

func TestWriteSSE(t *testing.T) {
	var buf bytes.Buffer
	writeSSE(&buf, Event{ID: 7, Type: EventMetrics, Metrics: &model.Metrics{Balance: 10}})

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "id: 7\nevent: metrics\ndata: {"), out)
	assert.True(t, strings.HasSuffix(out, "}\n\n"))
	assert.Contains(t, out, `"balance":10`)
}

func TestHealth(t *testing.T) {
	s, _ := newTestService(t, Config{})
	rec := do(t, s.Router(), "GET", "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())
}

func TestLedgerFlow(t *testing.T) {
	s, hub := newTestService(t, Config{})
	r := s.Router()

	rec := do(t, r, "PUT", "/v1/salary", salaryRequest{Amount: 10000, Frequency: model.FrequencyMonthly})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.InDelta(t, 10000, decodeBody[model.Metrics](t, rec).Balance, 0.001)

	rec = do(t, r, "POST", "/v1/expenses", expenseRequest{Amount: 1500, Category: model.CategoryShopping})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	exp := decodeBody[model.Expense](t, rec)
	assert.NotEmpty(t, exp.ID)
	assert.Equal(t, model.SourceManual, exp.Source)

	rec = do(t, r, "GET", "/v1/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 8500, decodeBody[model.Metrics](t, rec).Balance, 0.001)

	amount := 1000.0
	rec = do(t, r, "PATCH", "/v1/expenses/"+exp.ID, expensePatchRequest{Amount: &amount})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = do(t, r, "GET", "/v1/expenses", nil)
	list := decodeBody[[]model.Expense](t, rec)
	require.Len(t, list, 1)
	assert.InDelta(t, 1000, list[0].Amount, 0.001)

	rec = do(t, r, "DELETE", "/v1/expenses/"+exp.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, r, "GET", "/v1/expenses", nil)
	assert.Empty(t, decodeBody[[]model.Expense](t, rec))

	rec = do(t, r, "GET", "/v1/notifications", nil)
	var big int
	for _, n := range decodeBody[[]model.Notification](t, rec) {
		if n.Type == model.NotifyBigSpend {
			big++
		}
	}
	assert.Equal(t, 1, big)

	// Every commit reached the stream.
	var metricsEvents int
	for _, ev := range hub.Events() {
		if ev.Type == EventMetrics {
			metricsEvents++
		}
	}
	assert.GreaterOrEqual(t, metricsEvents, 4)
}

func TestValidationErrors(t *testing.T) {
	s, _ := newTestService(t, Config{})
	r := s.Router()

	rec := do(t, r, "POST", "/v1/expenses", expenseRequest{Amount: -5})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decodeBody[errorResponse](t, rec)
	assert.Equal(t, "amount", resp.Field)

	rec = do(t, r, "PUT", "/v1/salary", salaryRequest{Amount: 100, Frequency: "hourly"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "frequency", decodeBody[errorResponse](t, rec).Field)

	req := httptest.NewRequest("POST", "/v1/expenses", strings.NewReader(`{"amount": "lots"}`))
	raw := httptest.NewRecorder()
	r.ServeHTTP(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)

	rec = do(t, r, "POST", "/v1/ingest", ingestRequest{Format: "fax", Text: "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnknownIDs(t *testing.T) {
	s, _ := newTestService(t, Config{})
	r := s.Router()

	amount := 10.0
	rec := do(t, r, "PATCH", "/v1/expenses/missing", expensePatchRequest{Amount: &amount})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, http.StatusNotFound, do(t, r, "POST", "/v1/notifications/missing/read", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, "DELETE", "/v1/notifications/missing", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, "POST", "/v1/suggestions/missing/apply", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, "POST", "/v1/achievements/missing/progress", progressRequest{Delta: 1}).Code)
}

func TestBillsAndProcess(t *testing.T) {
	s, _ := newTestService(t, Config{})
	r := s.Router()

	do(t, r, "PUT", "/v1/salary", salaryRequest{Amount: 20000, Frequency: model.FrequencyMonthly})
	due := testNow.Add(-time.Hour)
	rec := do(t, r, "POST", "/v1/bills", billRequest{
		Name:        "Rent",
		Amount:      5000,
		Frequency:   model.FrequencyMonthly,
		NextDueDate: &due,
		Category:    model.CategoryBills,
		AutoDeduct:  true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	bill := decodeBody[model.RecurringBill](t, rec)
	assert.True(t, bill.IsActive)

	rec = do(t, r, "POST", "/v1/bills/process", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]model.RecurringBill](t, rec), 1)

	rec = do(t, r, "GET", "/v1/metrics", nil)
	assert.InDelta(t, 15000, decodeBody[model.Metrics](t, rec).Balance, 0.001)

	rec = do(t, r, "GET", "/v1/bills", nil)
	bills := decodeBody[[]model.RecurringBill](t, rec)
	require.Len(t, bills, 1)
	assert.True(t, bills[0].NextDueDate.After(testNow))
}

func TestNotificationRoutes(t *testing.T) {
	s, _ := newTestService(t, Config{})
	r := s.Router()

	rec := do(t, r, "POST", "/v1/notifications", model.Notification{
		Type:     model.NotifyGeneral,
		Title:    "Hello",
		Message:  "world",
		Priority: model.PriorityNormal,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	n := decodeBody[model.Notification](t, rec)

	assert.Equal(t, http.StatusNoContent, do(t, r, "POST", "/v1/notifications/"+n.ID+"/read", nil).Code)

	rec = do(t, r, "POST", "/v1/notifications/read-all", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decodeBody[map[string]int](t, rec)["marked"])

	settings := model.DefaultNotificationSettings()
	settings.QuietHours = model.QuietHours{Enabled: true, StartTime: "25:00", EndTime: "07:00"}
	rec = do(t, r, "PUT", "/v1/notifications/settings", settings)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "quiet_hours", decodeBody[errorResponse](t, rec).Field)

	settings.QuietHours.StartTime = "22:00"
	rec = do(t, r, "PUT", "/v1/notifications/settings", settings)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "22:00", decodeBody[model.NotificationSettings](t, rec).QuietHours.StartTime)

	assert.Equal(t, http.StatusNoContent, do(t, r, "DELETE", "/v1/notifications/"+n.ID, nil).Code)
}

func TestAddSuggestionRankedOut(t *testing.T) {
	s, _ := newTestService(t, Config{})
	r := s.Router()

	for i := 0; i < suggest.MaxActive; i++ {
		rec := do(t, r, "POST", "/v1/suggestions", model.Suggestion{Title: fmt.Sprint("urgent ", i), Priority: model.PriorityUrgent})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}
	rec := do(t, r, "POST", "/v1/suggestions", model.Suggestion{Title: "Someday", Priority: model.PriorityLow})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, r, "GET", "/v1/suggestions", nil)
	assert.Len(t, decodeBody[[]model.Suggestion](t, rec), suggest.MaxActive)
}

func TestSuggestionRoutes(t *testing.T) {
	s, _ := newTestService(t, Config{})
	r := s.Router()

	rec := do(t, r, "POST", "/v1/suggestions", model.Suggestion{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, r, "POST", "/v1/suggestions", model.Suggestion{Title: "Cook at home", Priority: model.PriorityLow})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sg := decodeBody[model.Suggestion](t, rec)

	rec = do(t, r, "POST", "/v1/suggestions/"+sg.ID+"/apply", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[model.Suggestion](t, rec).IsApplied)

	rec = do(t, r, "GET", "/v1/suggestions/history", nil)
	assert.Len(t, decodeBody[[]model.Suggestion](t, rec), 1)

	do(t, r, "PUT", "/v1/salary", salaryRequest{Amount: 10000, Frequency: model.FrequencyMonthly})
	rec = do(t, r, "POST", "/v1/suggestions/generate", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	active := decodeBody[[]model.Suggestion](t, rec)
	require.NotEmpty(t, active)

	rec = do(t, r, "POST", "/v1/suggestions/"+active[0].ID+"/dismiss", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decodeBody[model.Suggestion](t, rec).IsDismissed)
}

func TestStatus(t *testing.T) {
	s, _ := newTestService(t, Config{Addr: "127.0.0.1:0"})
	_, err := s.scheduler(context.Background())
	require.NoError(t, err)

	rec := do(t, s.Router(), "GET", "/v1/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	st := decodeBody[Status](t, rec)
	assert.Equal(t, "127.0.0.1:0", st.Addr)
	assert.Equal(t, []string{"refresh"}, st.Jobs)
}

func TestSchedulerRejectsBadSpec(t *testing.T) {
	s, _ := newTestService(t, Config{ReminderCron: "every tuesday"})
	_, err := s.scheduler(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "daily_reminder")
}

func TestInboxJob(t *testing.T) {
	svc, _ := newTestService(t, Config{})
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "june.csv"),
		[]byte("date,description,amount\n2025-06-15,Uber ride,-320\n"), 0o600))
	logger, _ := logtest.NewNullLogger()
	svc.cfg.Inbox = inbox.New(dir, store.NewMemory(), svc.engine, logger)
	svc.cfg.InboxCron = "@every 1h"

	_, err := svc.scheduler(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"refresh", "inbox"}, svc.status().Jobs)

	svc.importInbox(context.Background())
	assert.Len(t, svc.engine.State().Expenses, 1)
	assert.Empty(t, svc.status().LastError)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.csv"), []byte("date,description,amount\nnope,x,-1\n"), 0o600))
	svc.importInbox(context.Background())
	assert.Contains(t, svc.status().LastError, "broken.csv")
	assert.Len(t, svc.engine.State().Expenses, 1)
}
