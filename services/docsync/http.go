package docsync

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"zendocs-backend/internal/components/chrono"
	"zendocs-backend/internal/settings"
)

const (
	defaultLogLines = 200
	maxLogLines     = 5000
)

type ScheduleInput struct {
	Frequency string `json:"frequency"`
	Time      string `json:"time"`
	Cron      string `json:"cron"`
}

func (in ScheduleInput) build() (string, error) {
	freq, err := chrono.ParseFrequency(in.Frequency)
	if err != nil {
		return "", &InputError{Field: "frequency", Reason: err.Error()}
	}
	schedule, err := chrono.BuildSchedule(freq, in.Time, in.Cron)
	if err != nil {
		return "", &InputError{Field: "schedule", Reason: err.Error()}
	}
	return schedule, nil
}

type BulkScheduleInput struct {
	IDs []int64 `json:"ids"`
	ScheduleInput
}

type SyncResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Article ArticleView `json:"article"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Routes registers every endpoint of the service on mux.
func (s Service) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/articles", s.handleListArticles)
	mux.HandleFunc("POST /api/articles", s.handleCreateArticle)
	mux.HandleFunc("GET /api/articles/{id}", s.handleGetArticle)
	mux.HandleFunc("PUT /api/articles/{id}", s.handleUpdateArticle)
	mux.HandleFunc("DELETE /api/articles/{id}", s.handleDeleteArticle)
	mux.HandleFunc("PUT /api/articles/{id}/schedule", s.handleSetSchedule)
	mux.HandleFunc("DELETE /api/articles/{id}/schedule", s.handleClearSchedule)
	mux.HandleFunc("PUT /api/schedules", s.handleBulkSchedule)
	mux.HandleFunc("POST /api/articles/{id}/sync", s.handleSync)

	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("PUT /api/settings", s.handlePutSettings)

	mux.HandleFunc("GET /api/scheduler", s.handleSchedulerStatus)
	mux.HandleFunc("POST /api/scheduler/start", s.handleSchedulerStart)
	mux.HandleFunc("POST /api/scheduler/stop", s.handleSchedulerStop)

	mux.HandleFunc("GET /api/logs", s.handleLogs)
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(value)
	if err != nil {
		slog.Warn("write json response", "err", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	var inputErr *InputError
	var missingErr *settings.MissingError
	switch {
	case errors.Is(err, ErrArticleNotFound):
		status = http.StatusNotFound
	case errors.As(err, &inputErr), errors.As(err, &missingErr):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		slog.Error("request failed", "err", err)
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func decode[T any](r *http.Request) (T, error) {
	var out T
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	err := decoder.Decode(&out)
	if err != nil {
		return out, &InputError{Field: "body", Reason: err.Error()}
	}
	return out, nil
}

func pathId(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, &InputError{Field: "id", Reason: fmt.Sprintf("%q is not an article id", r.PathValue("id"))}
	}
	return id, nil
}

func (s Service) handleListArticles(w http.ResponseWriter, r *http.Request) {
	articles, err := s.store.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, articles)
}

func (s Service) handleCreateArticle(w http.ResponseWriter, r *http.Request) {
	in, err := decode[ArticleInput](r)
	if err != nil {
		writeError(w, err)
		return
	}
	article, err := s.store.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, article)
}

func (s Service) handleGetArticle(w http.ResponseWriter, r *http.Request) {
	id, err := pathId(r)
	if err != nil {
		writeError(w, err)
		return
	}
	article, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, article)
}

func (s Service) handleUpdateArticle(w http.ResponseWriter, r *http.Request) {
	id, err := pathId(r)
	if err != nil {
		writeError(w, err)
		return
	}
	in, err := decode[ArticleInput](r)
	if err != nil {
		writeError(w, err)
		return
	}
	article, err := s.store.Update(r.Context(), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, article)
}

func (s Service) handleDeleteArticle(w http.ResponseWriter, r *http.Request) {
	id, err := pathId(r)
	if err != nil {
		writeError(w, err)
		return
	}
	err = s.store.Delete(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s Service) handleSetSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathId(r)
	if err != nil {
		writeError(w, err)
		return
	}
	in, err := decode[ScheduleInput](r)
	if err != nil {
		writeError(w, err)
		return
	}
	schedule, err := in.build()
	if err != nil {
		writeError(w, err)
		return
	}
	err = s.store.SetSchedule(r.Context(), []int64{id}, schedule)
	if err != nil {
		writeError(w, err)
		return
	}
	article, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, article)
}

func (s Service) handleClearSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := pathId(r)
	if err != nil {
		writeError(w, err)
		return
	}
	err = s.store.ClearSchedule(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s Service) handleBulkSchedule(w http.ResponseWriter, r *http.Request) {
	in, err := decode[BulkScheduleInput](r)
	if err != nil {
		writeError(w, err)
		return
	}
	schedule, err := in.build()
	if err != nil {
		writeError(w, err)
		return
	}
	err = s.store.SetSchedule(r.Context(), in.IDs, schedule)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"updated":              len(uniqueIds(in.IDs)),
		"cron_schedule":        schedule,
		"schedule_description": chrono.DescribeSchedule(schedule),
	})
}

func (s Service) handleSync(w http.ResponseWriter, r *http.Request) {
	id, err := pathId(r)
	if err != nil {
		writeError(w, err)
		return
	}
	result, err := s.SyncArticle(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	article, err := s.store.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if !result.Success {
		status = http.StatusBadGateway
	}
	writeJSON(w, status, SyncResponse{
		Success: result.Success,
		Message: result.Message,
		Article: article,
	})
}

func (s Service) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	current, err := s.MaskedSettings()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, current)
}

func (s Service) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	in, err := decode[settings.Settings](r)
	if err != nil {
		writeError(w, err)
		return
	}
	saved, err := s.UpdateSettings(in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s Service) handleSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.SchedulerStatus())
}

func (s Service) handleSchedulerStart(w http.ResponseWriter, r *http.Request) {
	changed := s.StartScheduler()
	writeJSON(w, http.StatusOK, map[string]bool{"running": true, "changed": changed})
}

func (s Service) handleSchedulerStop(w http.ResponseWriter, r *http.Request) {
	changed := s.StopScheduler()
	writeJSON(w, http.StatusOK, map[string]bool{"running": false, "changed": changed})
}

func (s Service) handleLogs(w http.ResponseWriter, r *http.Request) {
	n := defaultLogLines
	if raw := r.URL.Query().Get("lines"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, &InputError{Field: "lines", Reason: "must be a non-negative integer"})
			return
		}
		n = min(parsed, maxLogLines)
	}
	lines, err := s.Logs(n)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lines": lines})
}
