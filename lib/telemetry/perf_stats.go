package telemetry

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"go.opentelemetry.io/otel"
)

var meter = otel.Meter("zendocs.perf_stats")
var cpuGauge, _ = meter.Float64Gauge("cpu_usage")
var memoryGauge, _ = meter.Int64Gauge("allocated_mb")
var liveObjectsGauge, _ = meter.Int64Gauge("live_objects")
var goroutineGauge, _ = meter.Int64Gauge("goroutine_count")

// PerfStats is one sample of process resource usage.
type PerfStats struct {
	CpuPercent  float64 `json:"cpu_percent"`
	AllocatedMB int64   `json:"allocated_mb"`
	LiveObjects int64   `json:"live_objects"`
	Goroutines  int64   `json:"goroutines"`
}

// SamplePerfStats blocks for interval while measuring cpu usage.
func SamplePerfStats(interval time.Duration) PerfStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := PerfStats{
		AllocatedMB: int64(memStats.Alloc / 1_000_000),
		LiveObjects: int64(memStats.Mallocs) - int64(memStats.Frees),
		Goroutines:  int64(runtime.NumGoroutine()),
	}

	cpuUsage, err := cpu.Percent(interval, false)
	if err == nil && len(cpuUsage) > 0 {
		stats.CpuPercent = cpuUsage[0]
	} else if err != nil {
		slog.Warn("failed to read cpu usage", "err", err)
	}
	return stats
}

// InstrumentPerfStats records a sample to the global meter every 30 seconds
// until ctx is done.
func InstrumentPerfStats(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(time.Second * 30)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				stats := SamplePerfStats(time.Second)
				cpuGauge.Record(ctx, stats.CpuPercent)
				memoryGauge.Record(ctx, stats.AllocatedMB)
				liveObjectsGauge.Record(ctx, stats.LiveObjects)
				goroutineGauge.Record(ctx, stats.Goroutines)
			case <-ctx.Done():
				return
			}
		}
	}()
}
