package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"zendocs-backend/internal/components/chrono"
	"zendocs-backend/internal/components/telemetry"
	pipeline "zendocs-backend/internal/docsync"
	"zendocs-backend/internal/fetcher"
	"zendocs-backend/internal/offload"
	"zendocs-backend/internal/settings"
	"zendocs-backend/internal/transform"
	"zendocs-backend/internal/zendesk"
	"zendocs-backend/lib/restyutil"
	"zendocs-backend/services/docsync"
	"zendocs-backend/services/docsync/db"
)

// app is everything a command needs to work on the article store.
type app struct {
	clock    chrono.TimeAPI
	tel      telemetry.API
	settings settings.File
	db       *sql.DB
	store    docsync.Store
	fetcher  fetcher.Fetcher
	pipeline pipeline.Pipeline
}

func openApp(ctx context.Context, cfg Config) (*app, error) {
	tel := telemetry.SlogAPI{Logger: slog.Default()}
	location, err := cfg.location()
	if err != nil {
		return nil, err
	}
	clock := chrono.NewStandardTime(location)

	settingsFile, err := settings.EnsureFile(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	database, err := cfg.Database.OpenAndMigrate(ctx, db.Schema, db.Columns...)
	if err != nil {
		return nil, err
	}

	var dump restyutil.Output
	if cfg.HttpDumpDir != "" {
		output, err := restyutil.NewFilesystemOutput(cfg.HttpDumpDir)
		if err != nil {
			database.Close()
			return nil, err
		}
		dump = output
	}

	pageFetcher, err := newFetcher(cfg.Fetch, dump, tel)
	if err != nil {
		database.Close()
		return nil, err
	}

	engine := transform.NewEngine(tel, transform.DefaultRules()...)
	publisher := func(s settings.Settings) pipeline.Publisher {
		return zendesk.NewClient(zendesk.Credentials{
			Domain:   s.ZendeskDomain,
			Email:    s.Email,
			APIToken: s.APIToken,
		}, tel, zendesk.Options{Dump: dump})
	}

	return &app{
		clock:    clock,
		tel:      tel,
		settings: settingsFile,
		db:       database,
		store:    docsync.NewStore(database, clock),
		fetcher:  pageFetcher,
		pipeline: pipeline.NewPipeline(
			settingsFile,
			pageFetcher,
			offload.NewPool(cfg.Workers),
			engine,
			publisher,
			tel,
		),
	}, nil
}

func newFetcher(cfg FetchConfig, dump restyutil.Output, tel telemetry.API) (fetcher.Fetcher, error) {
	mode, err := fetcher.ParseMode(cfg.Mode)
	if err != nil {
		return nil, err
	}
	switch mode {
	case fetcher.ModeHTTP:
		return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			Timeout: cfg.timeout(),
			Dump:    dump,
		}, tel), nil
	case fetcher.ModeBrowser:
		return fetcher.NewBrowserFetcher(fetcher.BrowserOptions{
			RemoteURL:   cfg.RemoteUrl,
			SettleDelay: cfg.settleDelay(),
			Timeout:     cfg.timeout(),
		}, tel), nil
	}
	return nil, fmt.Errorf("unknown fetch mode %q", cfg.Mode)
}

func (a *app) Close() error {
	return errors.Join(a.fetcher.Close(), a.db.Close())
}
