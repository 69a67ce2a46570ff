package docsync

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"zendocs-backend/internal/components/telemetry"
	"zendocs-backend/internal/offload"
	"zendocs-backend/internal/settings"
	"zendocs-backend/lib/textutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("zendocs.internal.docsync")

const (
	report_pipeline_failed  = "pipeline.failed"
	report_pipeline_verify  = "pipeline.verify"
	report_pipeline_success = "pipeline.success"
)

const (
	MessageSuccess = "Sync process completed successfully!"
	previewLength  = 500
)

var errEmptyBody = errors.New("translation body is empty")

type Stage string

const (
	StageFetch  Stage = "fetch"
	StageSubmit Stage = "submit"
	StageVerify Stage = "verify"
)

// ExternalError is a failure of a collaborator outside this process.
type ExternalError struct {
	Stage Stage
	Err   error
}

func (e *ExternalError) Error() string {
	return fmt.Sprintf("%s: %s", e.Stage, e.Err.Error())
}

func (e *ExternalError) Unwrap() error {
	return e.Err
}

type Request struct {
	ArticleID string
	SourceURL string
	Title     string
}

type Result struct {
	Success bool
	Message string
}

func Failed(err error) Result {
	return Result{Message: fmt.Sprintf("Sync failed: %s", err.Error())}
}

type Fetcher interface {
	FetchPage(ctx context.Context, url string) (string, error)
}

type Transformer interface {
	Transform(ctx context.Context, raw string) (string, error)
}

type Publisher interface {
	SubmitTranslation(ctx context.Context, articleId, locale, title, body string) error
	VerifyTranslation(ctx context.Context, articleId, locale string) (string, error)
}

type SettingsLoader interface {
	Load() (settings.Settings, error)
}

// PublisherFactory builds a publisher for the credentials in effect at the
// start of a sync.
type PublisherFactory func(s settings.Settings) Publisher

type Pipeline struct {
	settings    SettingsLoader
	fetcher     Fetcher
	pool        offload.Pool
	transformer Transformer
	publisher   PublisherFactory
	tel         telemetry.API
}

func NewPipeline(
	settings SettingsLoader,
	fetcher Fetcher,
	pool offload.Pool,
	transformer Transformer,
	publisher PublisherFactory,
	tel telemetry.API,
) Pipeline {
	return Pipeline{
		settings:    settings,
		fetcher:     fetcher,
		pool:        pool,
		transformer: transformer,
		publisher:   publisher,
		tel:         telemetry.NewScopedAPI("docsync", tel),
	}
}

// Run syncs one article and folds any error into the result.
func (p Pipeline) Run(ctx context.Context, req Request) Result {
	err := p.Sync(ctx, req)
	if err != nil {
		p.tel.ReportWarning(report_pipeline_failed, err, req.ArticleID, req.SourceURL)
		return Failed(err)
	}
	p.tel.ReportDebug(report_pipeline_success, req.ArticleID)
	return Result{Success: true, Message: MessageSuccess}
}

// Sync fetches req.SourceURL, transforms it and publishes it as the
// translation of req.ArticleID in the configured locale.
func (p Pipeline) Sync(ctx context.Context, req Request) (err error) {
	ctx, span := tracer.Start(ctx, "Sync")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()
	span.SetAttributes(
		attribute.String("article_id", req.ArticleID),
		attribute.String("source_url", req.SourceURL),
	)

	s, err := p.settings.Load()
	if err != nil {
		return err
	}
	err = s.Validate()
	if err != nil {
		return err
	}

	raw, err := offload.Run(ctx, p.pool, func(ctx context.Context) (string, error) {
		return p.fetcher.FetchPage(ctx, req.SourceURL)
	})
	if err != nil {
		return &ExternalError{Stage: StageFetch, Err: err}
	}

	body, err := p.transformer.Transform(ctx, raw)
	if err != nil {
		return err
	}

	publisher := p.publisher(s)
	err = publisher.SubmitTranslation(ctx, req.ArticleID, s.Locale, req.Title, body)
	if err != nil {
		return &ExternalError{Stage: StageSubmit, Err: err}
	}

	verified, err := publisher.VerifyTranslation(ctx, req.ArticleID, s.Locale)
	if err != nil {
		return &ExternalError{Stage: StageVerify, Err: err}
	}
	if strings.TrimSpace(verified) == "" {
		return &ExternalError{Stage: StageVerify, Err: errEmptyBody}
	}
	p.tel.ReportDebug(report_pipeline_verify, req.ArticleID, preview(verified))

	return nil
}

func preview(body string) string {
	return textutil.Truncate(body, previewLength)
}
