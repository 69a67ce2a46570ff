package docsync

import (
	"context"
	"errors"
	"strings"
	"testing"

	"zendocs-backend/internal/components/telemetry"
	"zendocs-backend/internal/offload"
	"zendocs-backend/internal/settings"
	"zendocs-backend/internal/transform"

	"github.com/stretchr/testify/require"
)

type staticSettings struct {
	s   settings.Settings
	err error
}

func (s staticSettings) Load() (settings.Settings, error) {
	return s.s, s.err
}

type fakeFetcher struct {
	pages map[string]string
	err   error
}

func (f fakeFetcher) FetchPage(ctx context.Context, url string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.pages[url], nil
}

type fakePublisher struct {
	submitErr error
	verifyErr error
	// overrides what verify returns when non-nil
	verified *string

	submitted map[string]string
	titles    map[string]string
}

func (p *fakePublisher) SubmitTranslation(ctx context.Context, articleId, locale, title, body string) error {
	if p.submitErr != nil {
		return p.submitErr
	}
	p.submitted[articleId+"/"+locale] = body
	p.titles[articleId+"/"+locale] = title
	return nil
}

func (p *fakePublisher) VerifyTranslation(ctx context.Context, articleId, locale string) (string, error) {
	if p.verifyErr != nil {
		return "", p.verifyErr
	}
	if p.verified != nil {
		return *p.verified, nil
	}
	return p.submitted[articleId+"/"+locale], nil
}

var validSettings = settings.Settings{
	ZendeskDomain: "acme.zendesk.com",
	Email:         "docs@acme.com",
	APIToken:      "tok123",
	Locale:        "fr",
}

const docsPage = `<html><body><main><div class="theme-doc-markdown">` +
	`<h1>Install</h1><button>Copy</button><p>Run <code>make</code></p>` +
	`</div></main></body></html>`

type harness struct {
	settings  staticSettings
	fetcher   fakeFetcher
	publisher *fakePublisher
	tel       *telemetry.Recorder
	creds     []settings.Settings
}

func newHarness() *harness {
	return &harness{
		settings: staticSettings{s: validSettings},
		fetcher:  fakeFetcher{pages: map[string]string{"https://docs.acme.com/install": docsPage}},
		publisher: &fakePublisher{
			submitted: map[string]string{},
			titles:    map[string]string{},
		},
		tel: &telemetry.Recorder{},
	}
}

func (h *harness) pipeline() Pipeline {
	return NewPipeline(
		h.settings,
		h.fetcher,
		offload.NewPool(1),
		transform.NewEngine(h.tel, transform.DefaultRules()...),
		func(s settings.Settings) Publisher {
			h.creds = append(h.creds, s)
			return h.publisher
		},
		h.tel,
	)
}

var installRequest = Request{
	ArticleID: "360001",
	SourceURL: "https://docs.acme.com/install",
	Title:     "Install",
}

func TestRunSuccess(t *testing.T) {
	h := newHarness()
	result := h.pipeline().Run(context.Background(), installRequest)

	require.Equal(t, Result{Success: true, Message: MessageSuccess}, result)
	require.Equal(t, "<h1>Install</h1><p>Run <strong>make</strong></p>", h.publisher.submitted["360001/fr"])
	require.Equal(t, "Install", h.publisher.titles["360001/fr"])
	require.Equal(t, []settings.Settings{validSettings}, h.creds)
	require.NotEmpty(t, h.tel.Find(telemetry.KindDebug, report_pipeline_verify))
}

func TestRunMissingSettings(t *testing.T) {
	h := newHarness()
	h.settings = staticSettings{s: settings.Settings{Locale: "en-us"}}

	result := h.pipeline().Run(context.Background(), installRequest)
	require.False(t, result.Success)
	require.Equal(t, "Sync failed: missing settings: ZENDESK_DOMAIN, EMAIL, API_TOKEN", result.Message)
	require.Empty(t, h.creds)
}

func TestSyncStages(t *testing.T) {
	boom := errors.New("boom")
	empty := "  "

	cases := []struct {
		name  string
		setup func(h *harness)
		stage Stage
	}{
		{
			name:  "fetch",
			setup: func(h *harness) { h.fetcher.err = boom },
			stage: StageFetch,
		},
		{
			name:  "submit",
			setup: func(h *harness) { h.publisher.submitErr = boom },
			stage: StageSubmit,
		},
		{
			name:  "verify",
			setup: func(h *harness) { h.publisher.verifyErr = boom },
			stage: StageVerify,
		},
		{
			name:  "empty verified body",
			setup: func(h *harness) { h.publisher.verified = &empty },
			stage: StageVerify,
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			h := newHarness()
			test.setup(h)

			err := h.pipeline().Sync(context.Background(), installRequest)
			var external *ExternalError
			require.True(t, errors.As(err, &external))
			require.Equal(t, test.stage, external.Stage)

			result := Failed(err)
			require.True(t, strings.HasPrefix(result.Message, "Sync failed: "+string(test.stage)))
		})
	}
}

func TestSyncMissingContent(t *testing.T) {
	h := newHarness()
	h.fetcher.pages[installRequest.SourceURL] = "<html><body><main><p>no docs</p></main></body></html>"

	err := h.pipeline().Sync(context.Background(), installRequest)
	require.ErrorIs(t, err, transform.ErrNotFound)
	require.Empty(t, h.publisher.submitted)
}

func TestPreview(t *testing.T) {
	require.Equal(t, "short", preview("short"))
	require.Len(t, preview(strings.Repeat("a", 800)), previewLength)

	multibyte := strings.Repeat("a", previewLength-1) + "é"
	cut := preview(multibyte + "tail")
	require.Equal(t, strings.Repeat("a", previewLength-1), cut)
}
