package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"zendocs-backend/internal/components/telemetry"
	"zendocs-backend/internal/transform"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(transformCmd)
}

var transformCmd = &cobra.Command{
	Use:   "transform <file>",
	Short: "Prints the Zendesk body produced from a saved documentation page, - reads stdin.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var raw []byte
		var err error
		if args[0] == "-" {
			raw, err = io.ReadAll(cmd.InOrStdin())
		} else {
			raw, err = os.ReadFile(args[0])
		}
		if err != nil {
			return err
		}

		engine := transform.NewEngine(
			telemetry.SlogAPI{Logger: slog.Default()},
			transform.DefaultRules()...,
		)
		body, err := engine.Transform(cmd.Context(), string(raw))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), body)
		return nil
	},
}
