package chrono

import (
	"context"
	"fmt"
	"time"

	"zendocs-backend/internal/components/telemetry"

	"github.com/robfig/cron/v3"
)

const (
	report_cron = "cron"
)

// cronParser reads `{seconds minute hour day month weekday}` schedules.
var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow,
)

// CronAPI is the interface that anything depending on things to happen on a cron job should use.
type CronAPI interface {
	// Cron runs callback whenever spec fires, until the returned remove func is called.
	Cron(spec string, callback func()) (remove func(), err error)
}

// StandardCron is the standard implementation of CronAPI using `github.com/robfig/cron/v3`.
type StandardCron struct {
	cron *cron.Cron
}

// NewStandardCron starts a cron runner firing in location, a nil location means local time.
func NewStandardCron(tel telemetry.API, location *time.Location) StandardCron {
	if location == nil {
		location = time.Local
	}
	cronner := cron.New(
		cron.WithParser(cronParser),
		cron.WithLogger(cronLogger{tel: tel}),
		cron.WithLocation(location),
	)
	cronner.Start()

	return StandardCron{cron: cronner}
}

func (s StandardCron) Cron(spec string, callback func()) (func(), error) {
	id, err := s.cron.AddFunc(spec, callback)
	if err != nil {
		return nil, err
	}
	return func() { s.cron.Remove(id) }, nil
}

// Stop stops the runner, the returned context is done once running callbacks return.
func (s StandardCron) Stop() context.Context {
	return s.cron.Stop()
}

type cronLogger struct {
	tel telemetry.API
}

func (l cronLogger) formatParams(keysAndValues []any) []any {
	params := []any{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		params = append(params, fmt.Sprintf("%v: %v", keysAndValues[i], keysAndValues[i+1]))
	}
	return params
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.tel.ReportDebug(fmt.Sprintf("cron: %s", msg), l.formatParams(keysAndValues)...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.tel.ReportBroken(report_cron, append([]any{fmt.Errorf("%s: %w", msg, err)}, l.formatParams(keysAndValues)...)...)
}
