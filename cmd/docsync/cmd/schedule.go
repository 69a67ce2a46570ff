package cmd

import (
	"fmt"

	"zendocs-backend/internal/components/chrono"

	"github.com/spf13/cobra"
)

var (
	scheduleFrequency string
	scheduleTime      string
	scheduleCron      string
)

func init() {
	scheduleSetCmd.Flags().StringVarP(&scheduleFrequency, "frequency", "f", string(chrono.Daily), "Daily, Weekly, Monthly or Custom.")
	scheduleSetCmd.Flags().StringVarP(&scheduleTime, "time", "t", "09:00", "Time of day as HH:MM.")
	scheduleSetCmd.Flags().StringVar(&scheduleCron, "cron", "", "Six field schedule, used with --frequency Custom.")
	scheduleCmd.AddCommand(scheduleSetCmd, scheduleClearCmd)
	rootCmd.AddCommand(scheduleCmd)
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manages when articles are synced automatically.",
}

var scheduleSetCmd = &cobra.Command{
	Use:   "set <id>...",
	Short: "Gives one schedule to every article listed.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIds(args)
		if err != nil {
			return err
		}
		freq, err := chrono.ParseFrequency(scheduleFrequency)
		if err != nil {
			return err
		}
		schedule, err := chrono.BuildSchedule(freq, scheduleTime, scheduleCron)
		if err != nil {
			return err
		}

		return withApp(cmd.Context(), func(a *app) error {
			err := a.store.SetSchedule(cmd.Context(), ids, schedule)
			if err != nil {
				return err
			}
			fmt.Fprintf(
				cmd.OutOrStdout(),
				"scheduled %d article(s): %s (%s)\n",
				len(ids), chrono.DescribeSchedule(schedule), schedule,
			)
			return nil
		})
	},
}

var scheduleClearCmd = &cobra.Command{
	Use:   "clear <id>...",
	Short: "Removes the schedule of every article listed.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIds(args)
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(a *app) error {
			for _, id := range ids {
				err := a.store.ClearSchedule(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("clear %d: %w", id, err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %d schedule(s)\n", len(ids))
			return nil
		})
	},
}
