package fetcher

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("zendocs.internal.fetcher")

var ErrNotFound = errors.New("page not found")

type Fetcher interface {
	// FetchPage returns the fully rendered document at url.
	FetchPage(ctx context.Context, url string) (string, error)
	Close() error
}

type Mode string

const (
	ModeBrowser Mode = "browser"
	ModeHTTP    Mode = "http"
)

func ParseMode(value string) (Mode, error) {
	switch Mode(value) {
	case "", ModeBrowser:
		return ModeBrowser, nil
	case ModeHTTP:
		return ModeHTTP, nil
	}
	return "", fmt.Errorf("unknown fetch mode %q", value)
}
