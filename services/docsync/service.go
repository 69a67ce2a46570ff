package docsync

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"zendocs-backend/internal/components/chrono"
	"zendocs-backend/internal/components/telemetry"
	pipeline "zendocs-backend/internal/docsync"
	"zendocs-backend/internal/scheduler"
	"zendocs-backend/internal/settings"
	libtelemetry "zendocs-backend/lib/telemetry"

	"go.opentelemetry.io/otel/attribute"
)

const (
	report_sync_article = "sync.article"
	report_sync_record  = "sync.record"
)

type Syncer interface {
	Run(ctx context.Context, req pipeline.Request) pipeline.Result
}

type SettingsFile interface {
	Load() (settings.Settings, error)
	Save(s settings.Settings) error
}

type Service struct {
	ctx       context.Context
	store     Store
	syncer    Syncer
	scheduler *scheduler.Controller
	settings  SettingsFile
	logPath   string
	clock     chrono.TimeAPI
	tel       telemetry.API
}

type Params struct {
	Store     Store
	Syncer    Syncer
	Scheduler *scheduler.Controller
	Settings  SettingsFile
	// LogPath is the application log file served by the logs endpoint.
	LogPath string
	Clock   chrono.TimeAPI
	Tel     telemetry.API
}

// NewService builds the article service, ctx bounds any scheduler it starts.
func NewService(ctx context.Context, params Params) Service {
	return Service{
		ctx:       ctx,
		store:     params.Store,
		syncer:    params.Syncer,
		scheduler: params.Scheduler,
		settings:  params.Settings,
		logPath:   params.LogPath,
		clock:     params.Clock,
		tel:       telemetry.NewScopedAPI("service", params.Tel),
	}
}

// SyncArticle runs a manual sync of one stored article and records the outcome.
func (s Service) SyncArticle(ctx context.Context, id int64) (pipeline.Result, error) {
	ctx, span := tracer.Start(ctx, "SyncArticle")
	defer span.End()
	span.SetAttributes(attribute.Int64("id", id))

	article, err := s.store.Get(ctx, id)
	if err != nil {
		return pipeline.Result{}, err
	}
	err = s.store.MarkSyncing(ctx, id)
	if err != nil {
		return pipeline.Result{}, err
	}

	result := s.syncer.Run(ctx, pipeline.Request{
		ArticleID: article.ArticleID,
		SourceURL: article.SourceURL,
		Title:     article.Title,
	})
	s.tel.ReportDebug(report_sync_article, id, result.Success, result.Message)

	// the request may have been cancelled mid sync, the outcome is still recorded
	err = s.store.RecordResult(context.WithoutCancel(ctx), id, result, s.clock.Now())
	if err != nil {
		s.tel.ReportBroken(report_sync_record, err, id)
		return result, err
	}
	return result, nil
}

// MaskedSettings returns the current settings with the token hidden.
func (s Service) MaskedSettings() (settings.Settings, error) {
	current, err := s.settings.Load()
	if err != nil {
		return settings.Settings{}, err
	}
	return current.Masked(), nil
}

// UpdateSettings saves next. An empty or still masked token keeps the stored one.
func (s Service) UpdateSettings(next settings.Settings) (settings.Settings, error) {
	current, err := s.settings.Load()
	if err != nil {
		return settings.Settings{}, err
	}

	next.ZendeskDomain = strings.TrimSpace(next.ZendeskDomain)
	next.Email = strings.TrimSpace(next.Email)
	next.Locale = strings.TrimSpace(next.Locale)
	if next.APIToken == "" || next.APIToken == current.Masked().APIToken {
		next.APIToken = current.APIToken
	}
	if next.Locale == "" {
		next.Locale = settings.DefaultLocale
	}

	err = s.settings.Save(next)
	if err != nil {
		return settings.Settings{}, err
	}
	return next.Masked(), nil
}

// StartScheduler returns false when it was already running.
func (s Service) StartScheduler() bool {
	return s.scheduler.Start(s.ctx)
}

// StopScheduler returns false when it was not running.
func (s Service) StopScheduler() bool {
	return s.scheduler.Stop()
}

func (s Service) SchedulerStatus() scheduler.Status {
	return s.scheduler.Status()
}

// Logs returns the last n lines of the application log.
func (s Service) Logs(n int) ([]string, error) {
	if s.logPath == "" {
		return []string{}, nil
	}
	lines, err := libtelemetry.TailLines(filepath.Clean(s.logPath), n)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	return lines, err
}
