package cmd

import (
	"fmt"

	"zendocs-backend/internal/settings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var settingsFlags struct {
	domain string
	email  string
	token  string
	locale string
}

func init() {
	settingsSetCmd.Flags().StringVar(&settingsFlags.domain, "domain", "", "Zendesk domain, like acme.zendesk.com.")
	settingsSetCmd.Flags().StringVar(&settingsFlags.email, "email", "", "Email of the Zendesk agent.")
	settingsSetCmd.Flags().StringVar(&settingsFlags.token, "token", "", "Zendesk API token.")
	settingsSetCmd.Flags().StringVar(&settingsFlags.locale, "locale", "", "Translation locale, like en-us.")
	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Shows or changes the Zendesk credentials.",
}

func renderSettings(cmd *cobra.Command, file settings.File, s settings.Settings) {
	t := newTable(cmd.OutOrStdout())
	t.AppendHeader(table.Row{"Key", "Value"})
	t.AppendRows([]table.Row{
		{"ZENDESK_DOMAIN", s.ZendeskDomain},
		{"EMAIL", s.Email},
		{"API_TOKEN", s.Masked().APIToken},
		{"LOCAL", s.Locale},
	})
	t.SetCaption("%s", file.Path())
	t.Render()

	err := s.Validate()
	if err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), err.Error())
	}
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Prints the current settings, the token is masked.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := settings.EnsureFile(cfg.DataDir)
		if err != nil {
			return err
		}
		s, err := file.Load()
		if err != nil {
			return err
		}
		renderSettings(cmd, file, s)
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Changes the settings given as flags, the rest are kept.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := settings.EnsureFile(cfg.DataDir)
		if err != nil {
			return err
		}
		s, err := file.Load()
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		if flags.Changed("domain") {
			s.ZendeskDomain = settingsFlags.domain
		}
		if flags.Changed("email") {
			s.Email = settingsFlags.email
		}
		if flags.Changed("token") {
			s.APIToken = settingsFlags.token
		}
		if flags.Changed("locale") {
			s.Locale = settingsFlags.locale
		}

		err = file.Save(s)
		if err != nil {
			return err
		}
		renderSettings(cmd, file, s)
		return nil
	},
}
