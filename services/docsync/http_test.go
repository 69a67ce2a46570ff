package docsync

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"zendocs-backend/internal/components/telemetry"
	pipeline "zendocs-backend/internal/docsync"
	"zendocs-backend/internal/scheduler"
	"zendocs-backend/internal/settings"
	"zendocs-backend/services/docsync/db"

	"github.com/stretchr/testify/require"
)

type fakeSyncer struct {
	mutex    sync.Mutex
	requests []pipeline.Request
	result   pipeline.Result
}

func (s *fakeSyncer) Run(ctx context.Context, req pipeline.Request) pipeline.Result {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.requests = append(s.requests, req)
	return s.result
}

type apiHarness struct {
	store    Store
	syncer   *fakeSyncer
	settings settings.File
	logPath  string
	handler  http.Handler
}

func newApiHarness(t *testing.T) *apiHarness {
	store, clock := newTestStore(t)
	dir := t.TempDir()

	file, err := settings.EnsureFile(dir)
	require.NoError(t, err)
	logPath := filepath.Join(dir, "syncapp.log")

	syncer := &fakeSyncer{result: pipeline.Result{Success: true, Message: pipeline.MessageSuccess}}
	tel := &telemetry.Recorder{}
	controller := scheduler.NewController(clock, store, syncer, store, tel, scheduler.Options{
		TickInterval: 10 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		controller.Wait()
	})

	service := NewService(ctx, Params{
		Store:     store,
		Syncer:    syncer,
		Scheduler: controller,
		Settings:  file,
		LogPath:   logPath,
		Clock:     clock,
		Tel:       tel,
	})
	mux := http.NewServeMux()
	service.Routes(mux)

	return &apiHarness{
		store:    store,
		syncer:   syncer,
		settings: file,
		logPath:  logPath,
		handler:  mux,
	}
}

func (h *apiHarness) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestArticlesApi(t *testing.T) {
	h := newApiHarness(t)

	rec := h.do(t, http.MethodPost, "/api/articles", ArticleInput{
		ArticleID: "360001",
		SourceURL: "https://docs.acme.com/install",
		Title:     "Install",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[ArticleView](t, rec)
	require.Equal(t, db.StatusPending, created.Status)

	rec = h.do(t, http.MethodGet, "/api/articles", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeBody[[]ArticleView](t, rec), 1)

	rec = h.do(t, http.MethodPut, "/api/articles/1", ArticleInput{
		ArticleID: "360001",
		SourceURL: "https://docs.acme.com/setup",
		Title:     "Setup",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Setup", decodeBody[ArticleView](t, rec).Title)

	rec = h.do(t, http.MethodPost, "/api/articles", map[string]string{"article_id": "1"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = h.do(t, http.MethodPost, "/api/articles", map[string]string{"unknown": "1"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodGet, "/api/articles/abc", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = h.do(t, http.MethodGet, "/api/articles/42", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "article not found", decodeBody[errorResponse](t, rec).Error)

	rec = h.do(t, http.MethodDelete, "/api/articles/1", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = h.do(t, http.MethodDelete, "/api/articles/1", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScheduleApi(t *testing.T) {
	h := newApiHarness(t)
	a := mustCreate(t, h.store, "a")
	b := mustCreate(t, h.store, "b")

	rec := h.do(t, http.MethodPut, "/api/articles/1/schedule", ScheduleInput{Frequency: "weekly", Time: "08:15"})
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeBody[ArticleView](t, rec)
	require.Equal(t, "0 15 8 * * 0", view.CronSchedule)
	require.Equal(t, "Weekly on Sunday at 08:15", view.ScheduleDescription)

	rec = h.do(t, http.MethodPut, "/api/articles/1/schedule", ScheduleInput{Frequency: "Custom", Cron: "*/5 * * * *"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	rec = h.do(t, http.MethodPut, "/api/articles/1/schedule", ScheduleInput{Frequency: "hourly", Time: "08:15"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.do(t, http.MethodPut, "/api/schedules", BulkScheduleInput{
		IDs:           []int64{a.ID, b.ID},
		ScheduleInput: ScheduleInput{Frequency: "Custom", Cron: " 0 0 6 * * 1 "},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	bulk := decodeBody[map[string]any](t, rec)
	require.Equal(t, float64(2), bulk["updated"])
	require.Equal(t, "Custom: 0 0 6 * * 1", bulk["schedule_description"])

	jobs, err := h.store.ListScheduled(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	require.Equal(t, "0 0 6 * * 1", jobs[1].Schedule)

	rec = h.do(t, http.MethodDelete, "/api/articles/2/schedule", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	jobs, err = h.store.ListScheduled(context.Background())
	require.NoError(t, err)
	require.Len(t, jobs, 1)
}

func TestSyncApi(t *testing.T) {
	h := newApiHarness(t)
	mustCreate(t, h.store, "360001")

	rec := h.do(t, http.MethodPost, "/api/articles/1/sync", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decodeBody[SyncResponse](t, rec)
	require.True(t, res.Success)
	require.Equal(t, pipeline.MessageSuccess, res.Message)
	require.Equal(t, db.StatusSuccess, res.Article.Status)
	require.Equal(t, "2026-10-14 09:05:30", res.Article.LastSynced)
	require.Equal(t, []pipeline.Request{{
		ArticleID: "360001",
		SourceURL: "https://docs.acme.com/360001",
		Title:     "Article 360001",
	}}, h.syncer.requests)

	h.syncer.result = pipeline.Result{Message: "Sync failed: fetch: boom"}
	rec = h.do(t, http.MethodPost, "/api/articles/1/sync", nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	res = decodeBody[SyncResponse](t, rec)
	require.False(t, res.Success)
	require.Equal(t, db.StatusFailed, res.Article.Status)

	rec = h.do(t, http.MethodPost, "/api/articles/7/sync", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSettingsApi(t *testing.T) {
	h := newApiHarness(t)

	rec := h.do(t, http.MethodGet, "/api/settings", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, settings.Settings{
		APIToken: "(not set)",
		Locale:   "en-us",
	}, decodeBody[settings.Settings](t, rec))

	rec = h.do(t, http.MethodPut, "/api/settings", settings.Settings{
		ZendeskDomain: " acme.zendesk.com ",
		Email:         "docs@acme.com",
		APIToken:      "abcdefxyz",
		Locale:        "fr",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "abc****yz", decodeBody[settings.Settings](t, rec).APIToken)

	// sending the masked token back keeps the real one
	rec = h.do(t, http.MethodPut, "/api/settings", settings.Settings{
		ZendeskDomain: "acme.zendesk.com",
		Email:         "help@acme.com",
		APIToken:      "abc****yz",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := h.settings.Load()
	require.NoError(t, err)
	require.Equal(t, settings.Settings{
		ZendeskDomain: "acme.zendesk.com",
		Email:         "help@acme.com",
		APIToken:      "abcdefxyz",
		Locale:        "en-us",
	}, stored)
}

func TestSchedulerApi(t *testing.T) {
	h := newApiHarness(t)

	rec := h.do(t, http.MethodGet, "/api/scheduler", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, decodeBody[scheduler.Status](t, rec).Running)

	rec = h.do(t, http.MethodPost, "/api/scheduler/start", nil)
	require.Equal(t, map[string]bool{"running": true, "changed": true}, decodeBody[map[string]bool](t, rec))
	rec = h.do(t, http.MethodPost, "/api/scheduler/start", nil)
	require.Equal(t, map[string]bool{"running": true, "changed": false}, decodeBody[map[string]bool](t, rec))

	rec = h.do(t, http.MethodGet, "/api/scheduler", nil)
	require.True(t, decodeBody[scheduler.Status](t, rec).Running)

	rec = h.do(t, http.MethodPost, "/api/scheduler/stop", nil)
	require.Equal(t, map[string]bool{"running": false, "changed": true}, decodeBody[map[string]bool](t, rec))
}

func TestLogsApi(t *testing.T) {
	h := newApiHarness(t)

	rec := h.do(t, http.MethodGet, "/api/logs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, map[string][]string{"lines": {}}, decodeBody[map[string][]string](t, rec))

	require.NoError(t, os.WriteFile(h.logPath, []byte("one\ntwo\nthree\n"), 0644))
	rec = h.do(t, http.MethodGet, "/api/logs?lines=2", nil)
	require.Equal(t, map[string][]string{"lines": {"two", "three"}}, decodeBody[map[string][]string](t, rec))

	rec = h.do(t, http.MethodGet, "/api/logs?lines=-1", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
