package transform

import (
	"context"
	"errors"
	"strings"
	"testing"
	"zendocs-backend/internal/components/telemetry"

	_ "embed"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

//go:embed testdata/docusaurus_page.html
var docusaurusPage string

func parseOutput(t testing.TB, out string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(out))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

func wrapContent(body string) string {
	return `<html><body><main><div class="theme-doc-markdown">` + body + `</div></main></body></html>`
}

func TestTransformDocusaurusPage(t *testing.T) {
	engine := NewEngine(&telemetry.Recorder{})

	out, err := engine.Transform(context.Background(), docusaurusPage)
	require.NoError(t, err)
	doc := parseOutput(t, out)

	require.Equal(t, 0, doc.Find("button").Length())
	require.NotContains(t, out, "nav-code")

	require.Equal(t, 0, doc.Find("div[class*='theme-admonition-info'] img").Length())
	require.Contains(t, doc.Find("div[class*='theme-admonition-info']").Text(), "Agents need network access.")
	require.Equal(t, 1, doc.Find("div[class*='theme-admonition-warning'] img").Length())

	headings := doc.Find("h2").Map(func(_ int, s *goquery.Selection) string { return s.Text() })
	require.Equal(t, []string{"INFO", "WARNING"}, headings)
	require.Equal(t, 0, doc.Find("[class*='admonitionHeading']").Length())

	require.Equal(t, 0, doc.Find("#prerequisites").Length())
	require.Equal(t, 1, doc.Find("#keep").Length())

	require.Equal(t, 0, doc.Find("div[class*='tabs-container']").Length())
	require.Contains(t, out, "<h3>Linux</h3><blockquote><p>Content 1</p></blockquote><h3>Windows</h3><blockquote><p>Content 2</p></blockquote>")

	pres := doc.Find("pre")
	require.Equal(t, 2, pres.Length())
	pres.Each(func(_ int, pre *goquery.Selection) {
		require.Empty(t, pre.Nodes[0].Attr)
		code := pre.ChildrenFiltered("code")
		require.Equal(t, 1, code.Length())
		require.Empty(t, code.Nodes[0].Attr)
	})
	require.Equal(t, "curl -sSL https://example.com/install.sh | sh", pres.First().Text())
	require.Contains(t, out, "<pre><code>echo &lt;hello&gt;</code></pre>")

	require.Contains(t, out, "<p>Run <strong>agent install</strong> to get started.</p>")
	require.Contains(t, out, "<p>Finally call <strong>agent start</strong>.</p>")
	doc.Find("code").Each(func(_ int, code *goquery.Selection) {
		require.Equal(t, 1, code.Closest("pre").Length())
	})
}

func TestTransformConsumesEveryTarget(t *testing.T) {
	engine := NewEngine(&telemetry.Recorder{})

	first, err := engine.Transform(context.Background(), docusaurusPage)
	require.NoError(t, err)

	second, err := engine.Transform(context.Background(), wrapContent(first))
	require.NoError(t, err)

	doc := parseOutput(t, second)
	require.Equal(t, 0, doc.Find("div[class*='tabs-container']").Length())
	require.Equal(t, 0, doc.Find("button").Length())
	doc.Find("code").Each(func(_ int, code *goquery.Selection) {
		require.Equal(t, 1, code.Closest("pre").Length())
	})
	require.Equal(t, first, second)
}

func TestTransformMissingLandmarks(t *testing.T) {
	testCases := []struct {
		page     string
		landmark string
	}{
		{
			page:     `<html><body><div class="theme-doc-markdown"><p>x</p></div></body></html>`,
			landmark: LandmarkMain,
		},
		{
			page:     `<html><body><main><div class="markdown"><p>x</p></div></main></body></html>`,
			landmark: LandmarkContent,
		},
		{
			page:     ``,
			landmark: LandmarkMain,
		},
	}

	engine := NewEngine(&telemetry.Recorder{})
	for _, test := range testCases {
		out, err := engine.Transform(context.Background(), test.page)
		require.Empty(t, out)
		require.ErrorIs(t, err, ErrNotFound)

		var landmarkErr *LandmarkError
		require.True(t, errors.As(err, &landmarkErr))
		require.Equal(t, test.landmark, landmarkErr.Landmark)
	}
}

func TestTransformContentOutsideMainIsIgnored(t *testing.T) {
	page := `<html><body>
	<div class="theme-doc-markdown"><p>outside</p></div>
	<main><div class="theme-doc-markdown"><p>inside</p></div></main>
	</body></html>`

	out, err := NewEngine(&telemetry.Recorder{}).Transform(context.Background(), page)
	require.NoError(t, err)
	require.Equal(t, "<p>inside</p>", out)
}

type recordingRule struct {
	name  string
	order *[]string
}

func (r recordingRule) Name() string { return r.name }

func (r recordingRule) Apply(_ context.Context, _ *goquery.Selection, _ telemetry.API) (int, error) {
	*r.order = append(*r.order, r.name)
	return 0, nil
}

type failingRule struct{}

func (failingRule) Name() string { return "failing" }

func (failingRule) Apply(_ context.Context, _ *goquery.Selection, _ telemetry.API) (int, error) {
	return 0, errors.New("boom")
}

func TestEngineAppliesRulesInOrder(t *testing.T) {
	var order []string
	engine := NewEngine(
		&telemetry.Recorder{},
		recordingRule{name: "a", order: &order},
		recordingRule{name: "b", order: &order},
		recordingRule{name: "c", order: &order},
	)

	_, err := engine.Transform(context.Background(), wrapContent("<p>x</p>"))
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, order)
}

func TestEngineStopsOnRuleFailure(t *testing.T) {
	var order []string
	rec := &telemetry.Recorder{}
	engine := NewEngine(
		rec,
		failingRule{},
		recordingRule{name: "after", order: &order},
	)

	_, err := engine.Transform(context.Background(), wrapContent("<p>x</p>"))
	require.ErrorContains(t, err, "boom")
	require.Empty(t, order)
	require.Len(t, rec.Find(telemetry.KindBroken, report_engine_rule), 1)
}

func TestDefaultRuleOrder(t *testing.T) {
	var names []string
	for _, rule := range NewEngine(&telemetry.Recorder{}).Rules() {
		names = append(names, rule.Name())
	}
	require.Equal(t, []string{
		"strip-buttons",
		"strip-info-images",
		"promote-admonition-headings",
		"remove-sticky-anchors",
		"flatten-tabs",
		"normalize-code-blocks",
		"bold-inline-code",
	}, names)
}
