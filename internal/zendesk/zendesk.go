package zendesk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"zendocs-backend/internal/components/telemetry"
	"zendocs-backend/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("zendocs.internal.zendesk")

const (
	report_translation_submit = "translation.submit"
	report_translation_verify = "translation.verify"
)

// HTTPError is returned when Zendesk answers with anything other than 200.
type HTTPError struct {
	Op     string
	Status int
	Body   string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("zendesk %s: status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("zendesk %s: status %d: %s", e.Op, e.Status, e.Body)
}

type Credentials struct {
	Domain   string
	Email    string
	APIToken string
}

type Options struct {
	// BaseURL replaces https://{domain}, mostly useful for tests.
	BaseURL string
	Timeout time.Duration
	Dump    restyutil.Output
}

type Client struct {
	http *resty.Client
	tel  telemetry.API
}

func NewClient(creds Credentials, tel telemetry.API, opts Options) *Client {
	baseUrl := opts.BaseURL
	if baseUrl == "" {
		baseUrl = "https://" + creds.Domain
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	tel = telemetry.NewScopedAPI("zendesk", tel)

	client := resty.New()
	client.SetBaseURL(baseUrl)
	client.SetTimeout(timeout)
	client.SetBasicAuth(creds.Email+"/token", creds.APIToken)
	client.SetHeader("Accept", "application/json")
	telemetry.InstrumentResty(client, tel, "zendocs.internal.zendesk.http")
	restyutil.DumpExchanges(client, "zendesk", opts.Dump)

	return &Client{http: client, tel: tel}
}

type translation struct {
	Title string `json:"title,omitempty"`
	Body  string `json:"body"`
}

type translationEnvelope struct {
	Translation translation `json:"translation"`
}

func translationPath(articleId, locale string) string {
	return fmt.Sprintf(
		"/api/v2/help_center/articles/%s/translations/%s.json",
		url.PathEscape(articleId),
		url.PathEscape(locale),
	)
}

// SubmitTranslation replaces the title and body of an article's translation.
func (c *Client) SubmitTranslation(ctx context.Context, articleId, locale, title, body string) error {
	ctx, span := tracer.Start(ctx, "SubmitTranslation")
	defer span.End()
	span.SetAttributes(
		attribute.String("article_id", articleId),
		attribute.String("locale", locale),
	)

	res, err := c.http.R().
		SetContext(ctx).
		SetBody(translationEnvelope{
			Translation: translation{Title: title, Body: body},
		}).
		Put(translationPath(articleId, locale))
	if err != nil {
		return fmt.Errorf("submit translation: %w", err)
	}
	if res.StatusCode() != http.StatusOK {
		err := &HTTPError{Op: "submit", Status: res.StatusCode(), Body: res.String()}
		c.tel.ReportBroken(report_translation_submit, err, articleId, locale)
		return err
	}

	c.tel.ReportDebug(report_translation_submit, articleId, locale, len(body))
	return nil
}

// VerifyTranslation fetches the stored body of an article's translation.
func (c *Client) VerifyTranslation(ctx context.Context, articleId, locale string) (string, error) {
	ctx, span := tracer.Start(ctx, "VerifyTranslation")
	defer span.End()
	span.SetAttributes(
		attribute.String("article_id", articleId),
		attribute.String("locale", locale),
	)

	var envelope translationEnvelope
	res, err := c.http.R().
		SetContext(ctx).
		SetResult(&envelope).
		Get(translationPath(articleId, locale))
	if err != nil {
		return "", fmt.Errorf("verify translation: %w", err)
	}
	if res.StatusCode() != http.StatusOK {
		err := &HTTPError{Op: "verify", Status: res.StatusCode(), Body: res.String()}
		c.tel.ReportBroken(report_translation_verify, err, articleId, locale)
		return "", err
	}

	return envelope.Translation.Body, nil
}
