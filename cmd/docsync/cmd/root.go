package cmd

import (
	"io"
	"log/slog"
	"os"

	"zendocs-backend/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	configPath string
	verbose    bool

	cfg     Config
	logFile io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "docsync",
	Short: "docsync publishes documentation pages as Zendesk help center articles.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = LoadConfig(configPath)
		if err != nil {
			return err
		}

		level, err := telemetry.ParseLevel(cfg.LogLevel)
		if err != nil {
			return err
		}
		if verbose {
			level = slog.LevelDebug
		}

		writers := []io.Writer{os.Stderr}
		f, err := telemetry.OpenLogFile(cfg.DataDir)
		if err == nil {
			writers = append(writers, f)
			logFile = f
		}
		telemetry.InitSlog(level, writers...)
		if err != nil {
			slog.Warn("could not open log file, logging to stderr only", "dir", cfg.DataDir, "err", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			logFile.Close()
		}
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json5", "Path to the service config file.")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging.")
}

func Execute() error {
	return rootCmd.Execute()
}
