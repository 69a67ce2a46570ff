// Package scheduler runs scheduled article syncs. Once per wall clock minute
// it lists every scheduled article, and syncs the ones whose schedule matches
// that minute, one after another.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"zendocs-backend/internal/components/chrono"
	"zendocs-backend/internal/components/telemetry"
	"zendocs-backend/internal/docsync"
)

const (
	report_scan_list    = "scan.list"
	report_scan_overrun = "scan.overrun"
	report_scan_record  = "scan.record"
	report_scan_panic   = "scan.panic"
	report_scan_matched = "scan.matched"
	report_scan_stopped = "scan.stopped"
	report_cron         = "cron"
	report_state        = "state"
)

// Job is one scheduled article.
type Job struct {
	ID        int64
	ArticleID string
	SourceURL string
	Title     string
	Schedule  string
}

type Source interface {
	ListScheduled(ctx context.Context) ([]Job, error)
}

type Recorder interface {
	RecordScheduledResult(ctx context.Context, id int64, result docsync.Result, at time.Time) error
}

type Syncer interface {
	Run(ctx context.Context, req docsync.Request) docsync.Result
}

// minuteSpec fires at the start of every minute.
const minuteSpec = "0 * * * * *"

type Options struct {
	// TickInterval is how often the clock is checked for a new minute when
	// Cron is nil.
	TickInterval time.Duration
	// Cron, when set, drives the checks from a once a minute cron job.
	Cron chrono.CronAPI
}

type ScanReport struct {
	Checked   int
	Matched   int
	Succeeded int
	Failed    int
}

type Status struct {
	Running    bool       `json:"running"`
	Scanning   bool       `json:"scanning"`
	LastScan   time.Time  `json:"last_scan"`
	LastReport ScanReport `json:"last_report"`
}

type Controller struct {
	clock    chrono.TimeAPI
	source   Source
	syncer   Syncer
	recorder Recorder
	matcher  chrono.Matcher
	tel      telemetry.API
	interval time.Duration
	cron     chrono.CronAPI

	mutex   sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}

	tickMutex  sync.Mutex
	lastMinute time.Time
	scanning   atomic.Bool
	scans      sync.WaitGroup

	lastMutex  sync.Mutex
	lastScan   time.Time
	lastReport ScanReport
}

func NewController(
	clock chrono.TimeAPI,
	source Source,
	syncer Syncer,
	recorder Recorder,
	tel telemetry.API,
	opts Options,
) *Controller {
	if opts.TickInterval <= 0 {
		opts.TickInterval = time.Second
	}
	tel = telemetry.NewScopedAPI("scheduler", tel)
	return &Controller{
		clock:    clock,
		source:   source,
		syncer:   syncer,
		recorder: recorder,
		matcher:  chrono.NewMatcher(tel),
		tel:      tel,
		interval: opts.TickInterval,
		cron:     opts.Cron,
	}
}

// Start begins ticking on a background goroutine, it returns false if the
// controller was already running.
func (c *Controller) Start(ctx context.Context) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.running {
		return false
	}
	c.running = true
	c.stop = make(chan struct{})
	c.done = make(chan struct{})
	go c.loop(ctx, c.stop, c.done)

	c.tel.ReportDebug(report_state, "started")
	return true
}

// Stop prevents any further scans from starting, a scan that is already
// running is left to finish.
func (c *Controller) Stop() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.running {
		return false
	}
	c.running = false
	close(c.stop)

	c.tel.ReportDebug(report_state, "stopped")
	return true
}

func (c *Controller) IsRunning() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.running
}

// Wait blocks until the tick loop has exited and every started scan is done.
func (c *Controller) Wait() {
	c.mutex.Lock()
	done := c.done
	c.mutex.Unlock()

	if done != nil {
		<-done
	}
	c.scans.Wait()
}

func (c *Controller) Status() Status {
	c.lastMutex.Lock()
	defer c.lastMutex.Unlock()
	return Status{
		Running:    c.IsRunning(),
		Scanning:   c.scanning.Load(),
		LastScan:   c.lastScan,
		LastReport: c.lastReport,
	}
}

func (c *Controller) loop(ctx context.Context, stop, done chan struct{}) {
	defer close(done)

	ticks, release := c.ticks()
	defer release()

	c.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			c.mutex.Lock()
			if c.stop == stop && c.running {
				c.running = false
				close(stop)
			}
			c.mutex.Unlock()
			return
		case <-stop:
			return
		case <-ticks:
			c.tick(ctx)
		}
	}
}

// ticks returns the channel that wakes the loop up, from the cron job when
// there is one and from a ticker otherwise.
func (c *Controller) ticks() (<-chan time.Time, func()) {
	if c.cron != nil {
		ch := make(chan time.Time, 1)
		remove, err := c.cron.Cron(minuteSpec, func() {
			select {
			case ch <- time.Now():
			default:
			}
		})
		if err == nil {
			return ch, remove
		}
		c.tel.ReportBroken(report_cron, err, minuteSpec)
	}
	ticker := time.NewTicker(c.interval)
	return ticker.C, ticker.Stop
}

// tick starts a scan if the clock has entered a minute that has not been
// scanned yet.
func (c *Controller) tick(ctx context.Context) {
	c.tickMutex.Lock()
	defer c.tickMutex.Unlock()

	now := c.clock.Now()
	minute := now.Truncate(time.Minute)
	if !minute.After(c.lastMinute) {
		return
	}
	c.lastMinute = minute

	if !c.scanning.CompareAndSwap(false, true) {
		c.tel.ReportWarning(report_scan_overrun, fmt.Errorf("previous scan is still running"), minute.Format(time.DateTime))
		return
	}

	c.scans.Add(1)
	go func() {
		defer c.scans.Done()
		defer c.scanning.Store(false)
		c.Scan(ctx, now)
	}()
}

// Scan syncs every scheduled article whose schedule matches now. A failing
// article does not prevent the others from syncing.
//
// Once ctx is done no further article is started, the one already syncing
// runs to completion and its result is still recorded.
func (c *Controller) Scan(ctx context.Context, now time.Time) ScanReport {
	var report ScanReport
	defer func() {
		c.lastMutex.Lock()
		c.lastScan = now
		c.lastReport = report
		c.lastMutex.Unlock()
	}()

	jobs, err := c.source.ListScheduled(ctx)
	if err != nil {
		c.tel.ReportBroken(report_scan_list, err)
		return report
	}

	report.Checked = len(jobs)
	for _, job := range jobs {
		if job.Schedule == "" || !c.matcher.Matches(job.Schedule, now) {
			continue
		}
		if ctx.Err() != nil {
			c.tel.ReportWarning(report_scan_stopped, ctx.Err(), job.ID)
			break
		}
		report.Matched++
		c.tel.ReportDebug(report_scan_matched, job.ID, job.ArticleID, job.Schedule)

		syncCtx := context.WithoutCancel(ctx)
		result := c.run(syncCtx, job)
		if result.Success {
			report.Succeeded++
		} else {
			report.Failed++
		}

		err := c.recorder.RecordScheduledResult(syncCtx, job.ID, result, c.clock.Now())
		if err != nil {
			c.tel.ReportBroken(report_scan_record, err, job.ID)
		}
	}

	c.tel.ReportCount(report_scan_matched, int64(report.Matched))
	return report
}

func (c *Controller) run(ctx context.Context, job Job) (result docsync.Result) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("sync panicked: %v", r)
			c.tel.ReportBroken(report_scan_panic, err, job.ID)
			result = docsync.Failed(err)
		}
	}()
	return c.syncer.Run(ctx, docsync.Request{
		ArticleID: job.ArticleID,
		SourceURL: job.SourceURL,
		Title:     job.Title,
	})
}
