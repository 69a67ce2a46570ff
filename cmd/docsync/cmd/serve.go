package cmd

import (
	"context"
	"log/slog"
	"net/http"
	"path/filepath"

	"zendocs-backend/internal/components/chrono"
	"zendocs-backend/internal/scheduler"
	libtelemetry "zendocs-backend/lib/telemetry"
	"zendocs-backend/lib/util/serviceutil"
	"zendocs-backend/services/docsync"

	"github.com/spf13/cobra"
)

var noScheduler bool

func init() {
	serveCmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "Do not start the scheduler, it can still be started through the API.")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the HTTP API and the sync scheduler.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := serviceutil.SignalContext()
		defer cancel()

		providers, err := libtelemetry.SetupFromEnv(ctx, "docsync")
		if err != nil {
			slog.Warn("telemetry setup failed, continuing without it", "err", err)
		}
		defer providers.Shutdown(context.WithoutCancel(ctx))
		if providers.Enabled() {
			libtelemetry.InstrumentPerfStats(ctx)
		}

		a, err := openApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		cronner := chrono.NewStandardCron(a.tel, a.clock.Location())
		defer cronner.Stop()

		controller := scheduler.NewController(
			a.clock,
			a.store,
			a.pipeline,
			a.store,
			a.tel,
			scheduler.Options{Cron: cronner},
		)
		service := docsync.NewService(ctx, docsync.Params{
			Store:     a.store,
			Syncer:    a.pipeline,
			Scheduler: controller,
			Settings:  a.settings,
			LogPath:   filepath.Join(cfg.DataDir, libtelemetry.LogFileName),
			Clock:     a.clock,
			Tel:       a.tel,
		})
		if !noScheduler {
			service.StartScheduler()
		}

		mux := http.NewServeMux()
		service.Routes(mux)

		slog.Info(
			"docsync started",
			"data_dir", cfg.DataDir,
			"settings", a.settings.Path(),
			"fetch_mode", cfg.Fetch.Mode,
			"scheduler", !noScheduler,
		)
		err = serviceutil.StartHttpServer(ctx, cfg.HttpPort, mux)

		service.StopScheduler()
		controller.Wait()
		return err
	},
}
