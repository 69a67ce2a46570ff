package docsync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"zendocs-backend/internal/components/chrono"
	pipeline "zendocs-backend/internal/docsync"
	"zendocs-backend/internal/scheduler"
	"zendocs-backend/services/docsync/db"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("zendocs.services.docsync")

var ErrArticleNotFound = errors.New("article not found")

// InputError is a request that can never succeed as sent.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

type ArticleInput struct {
	ArticleID string `json:"article_id"`
	SourceURL string `json:"source_url"`
	Title     string `json:"title"`
}

func (in ArticleInput) normalize() (ArticleInput, error) {
	in.ArticleID = strings.TrimSpace(in.ArticleID)
	in.SourceURL = strings.TrimSpace(in.SourceURL)
	in.Title = strings.TrimSpace(in.Title)

	if in.ArticleID == "" {
		return in, &InputError{Field: "article_id", Reason: "is required"}
	}
	if in.Title == "" {
		return in, &InputError{Field: "title", Reason: "is required"}
	}
	u, err := url.Parse(in.SourceURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return in, &InputError{Field: "source_url", Reason: "must be an http(s) url"}
	}
	return in, nil
}

type ArticleView struct {
	ID                  int64  `json:"id"`
	ArticleID           string `json:"article_id"`
	SourceURL           string `json:"source_url"`
	Title               string `json:"title"`
	Status              string `json:"status"`
	LastSynced          string `json:"last_synced,omitempty"`
	CronSchedule        string `json:"cron_schedule,omitempty"`
	ScheduleDescription string `json:"schedule_description"`
	LastCronUpdate      string `json:"last_cron_update,omitempty"`
}

func viewArticle(a db.Article) ArticleView {
	status := a.Status.String
	if status == "" {
		status = db.StatusPending
	}
	return ArticleView{
		ID:                  a.ID,
		ArticleID:           a.ArticleID,
		SourceURL:           a.SourceUrl,
		Title:               a.Title,
		Status:              status,
		LastSynced:          a.LastSynced.String,
		CronSchedule:        a.CronSchedule.String,
		ScheduleDescription: chrono.DescribeSchedule(a.CronSchedule.String),
		LastCronUpdate:      a.LastCronUpdate.String,
	}
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: true}
}

func statusOf(result pipeline.Result) string {
	if result.Success {
		return db.StatusSuccess
	}
	return db.StatusFailed
}

// Store keeps the list of synchronized articles.
type Store struct {
	db    *sql.DB
	qry   *db.Queries
	clock chrono.TimeAPI
}

func NewStore(database *sql.DB, clock chrono.TimeAPI) Store {
	return Store{
		db:    database,
		qry:   db.New(database),
		clock: clock,
	}
}

func expectRow(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrArticleNotFound
	}
	return nil
}

func (s Store) Create(ctx context.Context, in ArticleInput) (ArticleView, error) {
	in, err := in.normalize()
	if err != nil {
		return ArticleView{}, err
	}
	article, err := s.qry.CreateArticle(ctx, db.CreateArticleParams{
		ArticleID: in.ArticleID,
		SourceUrl: in.SourceURL,
		Title:     in.Title,
	})
	if err != nil {
		return ArticleView{}, fmt.Errorf("create article: %w", err)
	}
	return viewArticle(article), nil
}

func (s Store) article(ctx context.Context, id int64) (db.Article, error) {
	article, err := s.qry.GetArticle(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return db.Article{}, ErrArticleNotFound
	}
	if err != nil {
		return db.Article{}, fmt.Errorf("get article: %w", err)
	}
	return article, nil
}

func (s Store) Get(ctx context.Context, id int64) (ArticleView, error) {
	article, err := s.article(ctx, id)
	if err != nil {
		return ArticleView{}, err
	}
	return viewArticle(article), nil
}

func (s Store) List(ctx context.Context) ([]ArticleView, error) {
	articles, err := s.qry.ListArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	out := make([]ArticleView, len(articles))
	for i, a := range articles {
		out[i] = viewArticle(a)
	}
	return out, nil
}

func (s Store) Update(ctx context.Context, id int64, in ArticleInput) (ArticleView, error) {
	in, err := in.normalize()
	if err != nil {
		return ArticleView{}, err
	}
	err = expectRow(s.qry.UpdateArticle(ctx, db.UpdateArticleParams{
		ArticleID: in.ArticleID,
		SourceUrl: in.SourceURL,
		Title:     in.Title,
		ID:        id,
	}))
	if err != nil {
		return ArticleView{}, err
	}
	return s.Get(ctx, id)
}

func (s Store) Delete(ctx context.Context, id int64) error {
	return expectRow(s.qry.DeleteArticle(ctx, id))
}

// SetSchedule assigns one schedule to every article in ids, all of them must exist.
func (s Store) SetSchedule(ctx context.Context, ids []int64, schedule string) error {
	ctx, span := tracer.Start(ctx, "SetSchedule")
	defer span.End()

	if len(ids) == 0 {
		return &InputError{Field: "ids", Reason: "at least one article is required"}
	}
	_, err := chrono.ParseSchedule(schedule)
	if err != nil {
		return &InputError{Field: "schedule", Reason: err.Error()}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	n, err := txqry.SetSchedule(ctx, db.SetScheduleParams{
		CronSchedule:   nullString(schedule),
		LastCronUpdate: nullString(db.FormatTime(s.clock.Now())),
		Ids:            ids,
	})
	if err != nil {
		return fmt.Errorf("set schedule: %w", err)
	}
	if n != int64(len(uniqueIds(ids))) {
		return ErrArticleNotFound
	}
	return tx.Commit()
}

func uniqueIds(ids []int64) map[int64]struct{} {
	out := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}

func (s Store) ClearSchedule(ctx context.Context, id int64) error {
	return expectRow(s.qry.ClearSchedule(ctx, id))
}

func (s Store) ListScheduled(ctx context.Context) ([]scheduler.Job, error) {
	articles, err := s.qry.ListScheduledArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list scheduled articles: %w", err)
	}
	jobs := make([]scheduler.Job, len(articles))
	for i, a := range articles {
		jobs[i] = scheduler.Job{
			ID:        a.ID,
			ArticleID: a.ArticleID,
			SourceURL: a.SourceUrl,
			Title:     a.Title,
			Schedule:  a.CronSchedule.String,
		}
	}
	return jobs, nil
}

func (s Store) MarkSyncing(ctx context.Context, id int64) error {
	return expectRow(s.qry.SetStatus(ctx, db.SetStatusParams{
		Status: nullString(db.StatusSyncing),
		ID:     id,
	}))
}

func (s Store) RecordResult(ctx context.Context, id int64, result pipeline.Result, at time.Time) error {
	return expectRow(s.qry.RecordSyncResult(ctx, db.RecordSyncResultParams{
		Status:     nullString(statusOf(result)),
		LastSynced: nullString(db.FormatTime(at)),
		ID:         id,
	}))
}

func (s Store) RecordScheduledResult(ctx context.Context, id int64, result pipeline.Result, at time.Time) error {
	stamp := nullString(db.FormatTime(at))
	return expectRow(s.qry.RecordScheduledResult(ctx, db.RecordScheduledResultParams{
		Status:         nullString(statusOf(result)),
		LastSynced:     stamp,
		LastCronUpdate: stamp,
		ID:             id,
	}))
}
