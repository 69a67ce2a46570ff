package fetcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"zendocs-backend/internal/components/telemetry"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"
	"go.opentelemetry.io/otel/attribute"
)

const (
	report_browser_launch    = "browser.launch"
	report_browser_wait_load = "browser.wait-load"
	report_browser_close     = "browser.close"
)

type BrowserOptions struct {
	// RemoteURL is the websocket url of an already running Chrome, when empty
	// a local headless Chrome is launched.
	RemoteURL string
	// SettleDelay is how long to wait after load for client side rendering.
	SettleDelay time.Duration
	Timeout     time.Duration
}

func (o *BrowserOptions) defaults() {
	if o.SettleDelay < 0 {
		o.SettleDelay = 0
	}
	if o.Timeout <= 0 {
		o.Timeout = 60 * time.Second
	}
}

// BrowserFetcher renders pages in headless Chrome. The browser is started on
// the first fetch and reused until Close.
type BrowserFetcher struct {
	opts BrowserOptions
	tel  telemetry.API

	mutex   sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

func NewBrowserFetcher(opts BrowserOptions, tel telemetry.API) *BrowserFetcher {
	opts.defaults()
	return &BrowserFetcher{
		opts: opts,
		tel:  telemetry.NewScopedAPI("fetcher", tel),
	}
}

func (f *BrowserFetcher) connect() (*rod.Browser, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	if f.closed {
		return nil, fmt.Errorf("browser fetcher is closed")
	}
	if f.browser != nil {
		return f.browser, nil
	}

	wsUrl := f.opts.RemoteURL
	var lnch *launcher.Launcher
	if wsUrl == "" {
		lnch = launcher.New().
			Headless(true).
			Set("disable-blink-features", "AutomationControlled")
		u, err := lnch.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch browser: %w", err)
		}
		wsUrl = u
	}

	b := rod.New().ControlURL(wsUrl)
	err := b.Connect()
	if err != nil {
		if lnch != nil {
			lnch.Cleanup()
		}
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	f.tel.ReportDebug(report_browser_launch, wsUrl)

	f.browser = b
	f.lnch = lnch
	return b, nil
}

func (f *BrowserFetcher) FetchPage(ctx context.Context, url string) (string, error) {
	ctx, span := tracer.Start(ctx, "BrowserFetcher.FetchPage")
	defer span.End()
	span.SetAttributes(attribute.String("url", url))

	b, err := f.connect()
	if err != nil {
		return "", err
	}

	page, err := stealth.Page(b)
	if err != nil {
		return "", fmt.Errorf("create page: %w", err)
	}
	defer page.Close()

	ctx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	err = page.Context(ctx).Navigate(url)
	if err != nil {
		return "", fmt.Errorf("navigate %s: %w", url, err)
	}
	err = page.Context(ctx).WaitLoad()
	if err != nil {
		f.tel.ReportWarning(report_browser_wait_load, err, url)
	}

	err = settle(ctx, f.opts.SettleDelay)
	if err != nil {
		return "", err
	}

	res, err := page.Context(ctx).Eval(`() => document.documentElement.outerHTML`)
	if err != nil {
		return "", fmt.Errorf("read document: %w", err)
	}
	return res.Value.Str(), nil
}

// settle waits for d or until ctx is done.
func settle(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (f *BrowserFetcher) Close() error {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	f.closed = true
	var err error
	if f.browser != nil {
		err = f.browser.Close()
		if err != nil {
			f.tel.ReportWarning(report_browser_close, err)
		}
		f.browser = nil
	}
	if f.lnch != nil {
		f.lnch.Cleanup()
		f.lnch = nil
	}
	return err
}
