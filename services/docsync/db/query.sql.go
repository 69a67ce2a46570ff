package db

import (
	"context"
	"database/sql"
	"strings"
)

const articleColumns = `id, article_id, source_url, title, status, last_synced, cron_schedule, last_cron_update`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanArticle(row rowScanner) (Article, error) {
	var i Article
	err := row.Scan(
		&i.ID,
		&i.ArticleID,
		&i.SourceUrl,
		&i.Title,
		&i.Status,
		&i.LastSynced,
		&i.CronSchedule,
		&i.LastCronUpdate,
	)
	return i, err
}

func (q *Queries) listArticles(ctx context.Context, query string, args ...interface{}) ([]Article, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Article
	for rows.Next() {
		i, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (q *Queries) execRows(ctx context.Context, query string, args ...interface{}) (int64, error) {
	result, err := q.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const createArticle = `-- name: CreateArticle :one
INSERT INTO articles (article_id, source_url, title)
VALUES (?, ?, ?)
RETURNING ` + articleColumns

type CreateArticleParams struct {
	ArticleID string
	SourceUrl string
	Title     string
}

func (q *Queries) CreateArticle(ctx context.Context, arg CreateArticleParams) (Article, error) {
	row := q.db.QueryRowContext(ctx, createArticle, arg.ArticleID, arg.SourceUrl, arg.Title)
	return scanArticle(row)
}

const getArticle = `-- name: GetArticle :one
SELECT ` + articleColumns + ` FROM articles
WHERE id = ?`

func (q *Queries) GetArticle(ctx context.Context, id int64) (Article, error) {
	row := q.db.QueryRowContext(ctx, getArticle, id)
	return scanArticle(row)
}

const listArticles = `-- name: ListArticles :many
SELECT ` + articleColumns + ` FROM articles
ORDER BY id`

func (q *Queries) ListArticles(ctx context.Context) ([]Article, error) {
	return q.listArticles(ctx, listArticles)
}

const updateArticle = `-- name: UpdateArticle :execrows
UPDATE articles
SET article_id = ?, source_url = ?, title = ?
WHERE id = ?`

type UpdateArticleParams struct {
	ArticleID string
	SourceUrl string
	Title     string
	ID        int64
}

func (q *Queries) UpdateArticle(ctx context.Context, arg UpdateArticleParams) (int64, error) {
	return q.execRows(ctx, updateArticle, arg.ArticleID, arg.SourceUrl, arg.Title, arg.ID)
}

const deleteArticle = `-- name: DeleteArticle :execrows
DELETE FROM articles
WHERE id = ?`

func (q *Queries) DeleteArticle(ctx context.Context, id int64) (int64, error) {
	return q.execRows(ctx, deleteArticle, id)
}

const setSchedule = `-- name: SetSchedule :execrows
UPDATE articles
SET cron_schedule = ?, last_cron_update = ?
WHERE id IN (/*SLICE:ids*/?)`

type SetScheduleParams struct {
	CronSchedule   sql.NullString
	LastCronUpdate sql.NullString
	Ids            []int64
}

func (q *Queries) SetSchedule(ctx context.Context, arg SetScheduleParams) (int64, error) {
	if len(arg.Ids) == 0 {
		return 0, nil
	}
	query := setSchedule
	var queryParams []interface{}
	queryParams = append(queryParams, arg.CronSchedule)
	queryParams = append(queryParams, arg.LastCronUpdate)
	for _, v := range arg.Ids {
		queryParams = append(queryParams, v)
	}
	query = strings.Replace(query, "/*SLICE:ids*/?", strings.Repeat(",?", len(arg.Ids))[1:], 1)
	return q.execRows(ctx, query, queryParams...)
}

const clearSchedule = `-- name: ClearSchedule :execrows
UPDATE articles
SET cron_schedule = NULL
WHERE id = ?`

func (q *Queries) ClearSchedule(ctx context.Context, id int64) (int64, error) {
	return q.execRows(ctx, clearSchedule, id)
}

const listScheduledArticles = `-- name: ListScheduledArticles :many
SELECT ` + articleColumns + ` FROM articles
WHERE cron_schedule IS NOT NULL AND cron_schedule != ''
ORDER BY id`

func (q *Queries) ListScheduledArticles(ctx context.Context) ([]Article, error) {
	return q.listArticles(ctx, listScheduledArticles)
}

const setStatus = `-- name: SetStatus :execrows
UPDATE articles
SET status = ?
WHERE id = ?`

type SetStatusParams struct {
	Status sql.NullString
	ID     int64
}

func (q *Queries) SetStatus(ctx context.Context, arg SetStatusParams) (int64, error) {
	return q.execRows(ctx, setStatus, arg.Status, arg.ID)
}

const recordSyncResult = `-- name: RecordSyncResult :execrows
UPDATE articles
SET status = ?, last_synced = ?
WHERE id = ?`

type RecordSyncResultParams struct {
	Status     sql.NullString
	LastSynced sql.NullString
	ID         int64
}

func (q *Queries) RecordSyncResult(ctx context.Context, arg RecordSyncResultParams) (int64, error) {
	return q.execRows(ctx, recordSyncResult, arg.Status, arg.LastSynced, arg.ID)
}

const recordScheduledResult = `-- name: RecordScheduledResult :execrows
UPDATE articles
SET status = ?, last_synced = ?, last_cron_update = ?
WHERE id = ?`

type RecordScheduledResultParams struct {
	Status         sql.NullString
	LastSynced     sql.NullString
	LastCronUpdate sql.NullString
	ID             int64
}

func (q *Queries) RecordScheduledResult(ctx context.Context, arg RecordScheduledResultParams) (int64, error) {
	return q.execRows(ctx, recordScheduledResult, arg.Status, arg.LastSynced, arg.LastCronUpdate, arg.ID)
}
