package daemon

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/fueltank/fueltank/internal/engine"
	"github.com/fueltank/fueltank/internal/ledger"
	"github.com/fueltank/fueltank/internal/model"
)

const maxRequestBody = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps validation failures to 400 and everything else to 500.
func writeError(w http.ResponseWriter, err error) {
	var ve *ledger.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Message, Field: ve.Field})
	case errors.Is(err, engine.ErrUnknownFormat), errors.Is(err, engine.ErrUnparseable):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return false
	}
	return true
}

type salaryRequest struct {
	Amount    float64         `json:"amount"`
	Frequency model.Frequency `json:"frequency"`
}

type expenseRequest struct {
	Amount      float64        `json:"amount"`
	Category    model.Category `json:"category"`
	Description string         `json:"description"`
	Date        *time.Time     `json:"date,omitempty"`
}

type expensePatchRequest struct {
	Amount      *float64        `json:"amount,omitempty"`
	Category    *model.Category `json:"category,omitempty"`
	Description *string         `json:"description,omitempty"`
	Date        *time.Time      `json:"date,omitempty"`
}

type billRequest struct {
	Name        string          `json:"name"`
	Amount      float64         `json:"amount"`
	Frequency   model.Frequency `json:"frequency"`
	NextDueDate *time.Time      `json:"next_due_date,omitempty"`
	Category    model.Category  `json:"category"`
	AutoDeduct  bool            `json:"auto_deduct"`
	IsActive    *bool           `json:"is_active,omitempty"`
}

type billPatchRequest struct {
	Name        *string          `json:"name,omitempty"`
	Amount      *float64         `json:"amount,omitempty"`
	Frequency   *model.Frequency `json:"frequency,omitempty"`
	NextDueDate *time.Time       `json:"next_due_date,omitempty"`
	Category    *model.Category  `json:"category,omitempty"`
	AutoDeduct  *bool            `json:"auto_deduct,omitempty"`
	IsActive    *bool            `json:"is_active,omitempty"`
}

type ingestRequest struct {
	Format string `json:"format"`
	Text   string `json:"text"`
}

type ingestResponse struct {
	Added    []model.Expense `json:"added"`
	Rejected []string        `json:"rejected"`
}

func (s *Service) registerLedgerRoutes(r *mux.Router) {
	r.HandleFunc("/metrics", s.handleMetrics).Methods("GET")
	r.HandleFunc("/context", s.handleContext).Methods("GET")
	r.HandleFunc("/analytics", s.handleAnalytics).Methods("GET")
	r.HandleFunc("/salary", s.handleSetSalary).Methods("PUT")
	r.HandleFunc("/expenses", s.handleListExpenses).Methods("GET")
	r.HandleFunc("/expenses", s.handleAddExpense).Methods("POST")
	r.HandleFunc("/expenses/{id}", s.handleUpdateExpense).Methods("PATCH")
	r.HandleFunc("/expenses/{id}", s.handleDeleteExpense).Methods("DELETE")
	r.HandleFunc("/bills", s.handleListBills).Methods("GET")
	r.HandleFunc("/bills", s.handleAddBill).Methods("POST")
	r.HandleFunc("/bills/process", s.handleProcessBills).Methods("POST")
	r.HandleFunc("/bills/{id}", s.handleUpdateBill).Methods("PATCH")
	r.HandleFunc("/bills/{id}", s.handleDeleteBill).Methods("DELETE")
	r.HandleFunc("/ingest", s.handleIngest).Methods("POST")
}

func (s *Service) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Metrics())
}

func (s *Service) handleContext(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.FinancialContext())
}

func (s *Service) handleAnalytics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Analytics())
}

func (s *Service) handleSetSalary(w http.ResponseWriter, r *http.Request) {
	var req salaryRequest
	if !decode(w, r, &req) {
		return
	}
	m, err := s.engine.SetSalary(req.Amount, req.Frequency)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Service) handleListExpenses(w http.ResponseWriter, _ *http.Request) {
	expenses := s.engine.State().Expenses
	if expenses == nil {
		expenses = []model.Expense{}
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (s *Service) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if !decode(w, r, &req) {
		return
	}
	in := ledger.ExpenseInput{
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
		Source:      model.SourceManual,
	}
	if req.Date != nil {
		in.Date = *req.Date
	}
	exp, err := s.engine.AddExpense(in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, exp)
}

func (s *Service) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var req expensePatchRequest
	if !decode(w, r, &req) {
		return
	}
	err := s.engine.UpdateExpense(mux.Vars(r)["id"], ledger.ExpensePatch{
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
		Date:        req.Date,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	s.engine.DeleteExpense(mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleListBills(w http.ResponseWriter, _ *http.Request) {
	bills := s.engine.State().Bills
	if bills == nil {
		bills = []model.RecurringBill{}
	}
	writeJSON(w, http.StatusOK, bills)
}

func (s *Service) handleAddBill(w http.ResponseWriter, r *http.Request) {
	var req billRequest
	if !decode(w, r, &req) {
		return
	}
	in := ledger.BillInput{
		Name:       req.Name,
		Amount:     req.Amount,
		Frequency:  req.Frequency,
		Category:   req.Category,
		AutoDeduct: req.AutoDeduct,
		IsActive:   req.IsActive == nil || *req.IsActive,
	}
	if req.NextDueDate != nil {
		in.NextDueDate = *req.NextDueDate
	}
	bill, err := s.engine.AddRecurringBill(in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, bill)
}

func (s *Service) handleUpdateBill(w http.ResponseWriter, r *http.Request) {
	var req billPatchRequest
	if !decode(w, r, &req) {
		return
	}
	err := s.engine.UpdateRecurringBill(mux.Vars(r)["id"], ledger.BillPatch{
		Name:        req.Name,
		Amount:      req.Amount,
		Frequency:   req.Frequency,
		NextDueDate: req.NextDueDate,
		Category:    req.Category,
		AutoDeduct:  req.AutoDeduct,
		IsActive:    req.IsActive,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleDeleteBill(w http.ResponseWriter, r *http.Request) {
	s.engine.DeleteRecurringBill(mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleProcessBills(w http.ResponseWriter, r *http.Request) {
	due := s.engine.ProcessDueBills()
	if due == nil {
		due = []model.RecurringBill{}
	}
	s.scheduleBills(r.Context())
	writeJSON(w, http.StatusOK, due)
}

func (s *Service) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := s.engine.IngestMessage(req.Format, req.Text)
	if err != nil {
		writeError(w, err)
		return
	}
	out := ingestResponse{Added: res.Added, Rejected: make([]string, 0, len(res.Rejected))}
	if out.Added == nil {
		out.Added = []model.Expense{}
	}
	for _, rej := range res.Rejected {
		out.Rejected = append(out.Rejected, rej.Reason)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Service) registerNotificationRoutes(r *mux.Router) {
	r.HandleFunc("", s.handleListNotifications).Methods("GET")
	r.HandleFunc("", s.handleAddNotification).Methods("POST")
	r.HandleFunc("/read-all", s.handleMarkAllRead).Methods("POST")
	r.HandleFunc("/settings", s.handleGetSettings).Methods("GET")
	r.HandleFunc("/settings", s.handleUpdateSettings).Methods("PUT")
	r.HandleFunc("/{id}/read", s.handleMarkRead).Methods("POST")
	r.HandleFunc("/{id}", s.handleDeleteNotification).Methods("DELETE")
}

func (s *Service) handleListNotifications(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Notifications())
}

func (s *Service) handleAddNotification(w http.ResponseWriter, r *http.Request) {
	var req model.Notification
	if !decode(w, r, &req) {
		return
	}
	n, ok := s.engine.AddNotification(req)
	if !ok {
		// Suppressed by settings, quiet hours or deduplication.
		w.WriteHeader(http.StatusAccepted)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (s *Service) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	if !s.engine.MarkAsRead(mux.Vars(r)["id"]) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "notification not found or already read"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleMarkAllRead(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]int{"marked": s.engine.MarkAllAsRead()})
}

func (s *Service) handleDeleteNotification(w http.ResponseWriter, r *http.Request) {
	if !s.engine.DeleteNotification(mux.Vars(r)["id"]) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "notification not found"})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Settings())
}

func (s *Service) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	req := s.engine.Settings()
	if !decode(w, r, &req) {
		return
	}
	if err := s.engine.UpdateSettings(req); err != nil {
		writeError(w, err)
		return
	}
	s.scheduleBills(r.Context())
	writeJSON(w, http.StatusOK, s.engine.Settings())
}

type progressRequest struct {
	Delta float64 `json:"delta"`
}

func (s *Service) registerSuggestionRoutes(r *mux.Router) {
	r.HandleFunc("", s.handleListSuggestions).Methods("GET")
	r.HandleFunc("", s.handleAddSuggestion).Methods("POST")
	r.HandleFunc("/history", s.handleSuggestionHistory).Methods("GET")
	r.HandleFunc("/generate", s.handleGenerateSuggestions).Methods("POST")
	r.HandleFunc("/{id}/apply", s.handleApplySuggestion).Methods("POST")
	r.HandleFunc("/{id}/dismiss", s.handleDismissSuggestion).Methods("POST")
}

func (s *Service) handleListSuggestions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Suggestions())
}

func (s *Service) handleSuggestionHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.SuggestionHistory())
}

func (s *Service) handleAddSuggestion(w http.ResponseWriter, r *http.Request) {
	var req model.Suggestion
	if !decode(w, r, &req) {
		return
	}
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "title is required", Field: "title"})
		return
	}
	added, ok := s.engine.AddSuggestion(req)
	if !ok {
		writeJSON(w, http.StatusConflict, errorResponse{Error: "suggestion ranked below the active limit"})
		return
	}
	writeJSON(w, http.StatusCreated, added)
}

func (s *Service) handleGenerateSuggestions(w http.ResponseWriter, r *http.Request) {
	active, err := s.engine.GenerateSuggestions(r.Context())
	if err != nil && !errors.Is(err, engine.ErrStale) {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, active)
}

func (s *Service) handleApplySuggestion(w http.ResponseWriter, r *http.Request) {
	sg, ok := s.engine.ApplySuggestion(mux.Vars(r)["id"])
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "suggestion not active"})
		return
	}
	writeJSON(w, http.StatusOK, sg)
}

func (s *Service) handleDismissSuggestion(w http.ResponseWriter, r *http.Request) {
	sg, ok := s.engine.DismissSuggestion(mux.Vars(r)["id"])
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "suggestion not active"})
		return
	}
	writeJSON(w, http.StatusOK, sg)
}

func (s *Service) registerAchievementRoutes(r *mux.Router) {
	r.HandleFunc("", s.handleListAchievements).Methods("GET")
	r.HandleFunc("/{id}/progress", s.handleAchievementProgress).Methods("POST")
}

func (s *Service) handleListAchievements(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Achievements())
}

func (s *Service) handleAchievementProgress(w http.ResponseWriter, r *http.Request) {
	var req progressRequest
	if !decode(w, r, &req) {
		return
	}
	a, ok := s.engine.UpdateAchievement(mux.Vars(r)["id"], req.Delta)
	if !ok {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown achievement"})
		return
	}
	writeJSON(w, http.StatusOK, a)
}
