package web

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/aerele/taskstream/internal/config"
	"github.com/aerele/taskstream/internal/ics"
	appLog "github.com/aerele/taskstream/internal/log"
	"github.com/aerele/taskstream/internal/model"
	"github.com/aerele/taskstream/internal/recurrence"
	"github.com/aerele/taskstream/internal/store"
	"github.com/aerele/taskstream/internal/workitem"
)

// maxBodyBytes bounds request bodies; recurrence configs are tiny.
const maxBodyBytes = 1 << 20

// Server exposes the recurrence engine and work items over HTTP.
type Server struct {
	cfg *config.Config
	svc *workitem.Service
	mux *http.ServeMux
	now func() time.Time
}

// NewServer constructs a new Server.
func NewServer(cfg *config.Config, svc *workitem.Service) *Server {
	s := &Server{
		cfg: cfg,
		svc: svc,
		mux: http.NewServeMux(),
		now: time.Now,
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	h := http.Handler(s.mux)
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		return s.basicAuthMiddleware(h)
	}
	return h
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured with both
// a username and a password.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// basicAuthMiddleware wraps all handlers except /health with HTTP Basic Auth.
func (s *Server) basicAuthMiddleware(next http.Handler) http.Handler {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		u, p, ok := r.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			w.Header().Set("WWW-Authenticate", `Basic realm="taskstream", charset="UTF-8"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// Run serves on cfg.Listen until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+s.cfg.Listen)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		appLog.Info("HTTP server stopped")
		return nil
	}
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /api/recurrence/describe", s.handleDescribe)
	s.mux.HandleFunc("POST /api/recurrence/validate/month-date", s.handleValidateMonthDate)
	s.mux.HandleFunc("POST /api/recurrence/validate/time", s.handleValidateTime)

	s.mux.HandleFunc("GET /api/work-items", s.handleListWorkItems)
	s.mux.HandleFunc("POST /api/work-items", s.handleSaveWorkItem)
	s.mux.HandleFunc("GET /api/work-items/{id}", s.handleGetWorkItem)
	s.mux.HandleFunc("PUT /api/work-items/{id}", s.handleSaveWorkItem)
	s.mux.HandleFunc("DELETE /api/work-items/{id}", s.handleDeleteWorkItem)
	s.mux.HandleFunc("GET /api/work-items/{id}/reminders", s.handleReminders)
	s.mux.HandleFunc("GET /api/work-items/{id}/ics", s.handleWorkItemICS)
	s.mux.HandleFunc("GET /api/calendar.ics", s.handleCalendarICS)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// describeResponse is the JSON response shape for /api/recurrence/describe.
type describeResponse struct {
	Anchors     recurrence.Descriptions `json:"anchors"`
	Description string                  `json:"description"`
}

func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	var cfg model.RecurrenceConfig
	if !decodeJSON(w, r, &cfg) {
		return
	}
	d := recurrence.Describe(cfg)
	writeJSON(w, http.StatusOK, describeResponse{Anchors: d, Description: d.Text()})
}

// rowRequest is the body of the row validation endpoints: the edited row
// and every row currently in the same table.
type rowRequest[T any] struct {
	Row  T   `json:"row"`
	Rows []T `json:"rows"`
}

func (s *Server) handleValidateMonthDate(w http.ResponseWriter, r *http.Request) {
	var req rowRequest[model.MonthDateRow]
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, recurrence.ValidateMonthDate(req.Row, req.Rows))
}

func (s *Server) handleValidateTime(w http.ResponseWriter, r *http.Request) {
	var req rowRequest[model.TimeRow]
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, recurrence.ValidateTime(req.Row, req.Rows))
}

func (s *Server) handleListWorkItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.List(r.Context())
	if err != nil {
		s.writeServiceError(w, "list work items", err)
		return
	}
	if items == nil {
		items = []model.WorkItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleSaveWorkItem(w http.ResponseWriter, r *http.Request) {
	var wi model.WorkItem
	if !decodeJSON(w, r, &wi) {
		return
	}
	status := http.StatusCreated
	if id := r.PathValue("id"); id != "" {
		if _, err := s.svc.Get(r.Context(), id); err != nil {
			s.writeServiceError(w, "load work item", err)
			return
		}
		wi.ID = id
		status = http.StatusOK
	}

	saved, err := s.svc.Save(r.Context(), wi)
	if err != nil {
		s.writeServiceError(w, "save work item", err)
		return
	}
	writeJSON(w, status, saved)
}

func (s *Server) handleGetWorkItem(w http.ResponseWriter, r *http.Request) {
	wi, err := s.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, "get work item", err)
		return
	}
	writeJSON(w, http.StatusOK, wi)
}

func (s *Server) handleDeleteWorkItem(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, "delete work item", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReminders(w http.ResponseWriter, r *http.Request) {
	rems, err := s.svc.Reminders(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, "list reminders", err)
		return
	}
	if rems == nil {
		rems = []model.Reminder{}
	}
	writeJSON(w, http.StatusOK, rems)
}

func (s *Server) handleWorkItemICS(w http.ResponseWriter, r *http.Request) {
	wi, err := s.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, "get work item", err)
		return
	}
	s.writeCalendar(w, []model.WorkItem{wi})
}

func (s *Server) handleCalendarICS(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.List(r.Context())
	if err != nil {
		s.writeServiceError(w, "list work items", err)
		return
	}
	s.writeCalendar(w, items)
}

func (s *Server) writeCalendar(w http.ResponseWriter, items []model.WorkItem) {
	body, err := ics.Export(items, ics.ExportOptions{
		Location: s.cfg.Location(),
		Now:      s.now(),
	})
	if err != nil {
		appLog.Error("ics export failed", err)
		writeError(w, http.StatusInternalServerError, "failed to export calendar")
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, body)
}

// writeServiceError maps service/store errors onto HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, workitem.ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		appLog.Error("api: "+op+" failed", err)
		writeError(w, http.StatusInternalServerError, "failed to "+op)
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
