package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"zendocs-backend/internal/components/telemetry"
	"zendocs-backend/lib/restyutil"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
)

type HTTPOptions struct {
	Timeout time.Duration
	Dump    restyutil.Output
}

// HTTPFetcher downloads pages without running their scripts, it is only
// suitable for sites that render their content on the server.
type HTTPFetcher struct {
	http *resty.Client
}

func NewHTTPFetcher(opts HTTPOptions, tel telemetry.API) *HTTPFetcher {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	client := resty.New()
	client.SetTimeout(timeout)
	client.SetHeader("Accept", "text/html")
	telemetry.InstrumentResty(
		client,
		telemetry.NewScopedAPI("fetcher", tel),
		"zendocs.internal.fetcher.http",
	)
	restyutil.DumpExchanges(client, "page", opts.Dump)

	return &HTTPFetcher{http: client}
}

func (f *HTTPFetcher) FetchPage(ctx context.Context, url string) (string, error) {
	ctx, span := tracer.Start(ctx, "HTTPFetcher.FetchPage")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	res, err := f.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	if res.StatusCode() == http.StatusNotFound {
		return "", fmt.Errorf("fetch %s: %w", url, ErrNotFound)
	}
	if res.IsError() {
		return "", fmt.Errorf("fetch %s: status %d", url, res.StatusCode())
	}
	return res.String(), nil
}

func (f *HTTPFetcher) Close() error {
	return nil
}
