package cmd

import (
	"fmt"

	pipeline "zendocs-backend/internal/docsync"
	"zendocs-backend/lib/util/serviceutil"
	"zendocs-backend/services/docsync"

	"github.com/spf13/cobra"
)

var (
	syncUrl       string
	syncArticleId string
	syncTitle     string
	syncId        int64
)

func init() {
	syncCmd.Flags().StringVar(&syncUrl, "url", "", "Documentation page to publish.")
	syncCmd.Flags().StringVar(&syncArticleId, "article-id", "", "Zendesk article id to publish to.")
	syncCmd.Flags().StringVar(&syncTitle, "title", "", "Title of the translation.")
	syncCmd.Flags().Int64Var(&syncId, "id", 0, "Sync a stored article by its id instead, its status is updated.")
	rootCmd.AddCommand(syncCmd)
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Publishes one documentation page to Zendesk right now.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if syncId == 0 && (syncUrl == "" || syncArticleId == "" || syncTitle == "") {
			return fmt.Errorf("either --id or all of --url, --article-id and --title are required")
		}

		ctx, cancel := serviceutil.SignalContext()
		defer cancel()

		a, err := openApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		var result pipeline.Result
		if syncId != 0 {
			service := docsync.NewService(ctx, docsync.Params{
				Store:    a.store,
				Syncer:   a.pipeline,
				Settings: a.settings,
				Clock:    a.clock,
				Tel:      a.tel,
			})
			result, err = service.SyncArticle(ctx, syncId)
			if err != nil {
				return err
			}
		} else {
			result = a.pipeline.Run(ctx, pipeline.Request{
				ArticleID: syncArticleId,
				SourceURL: syncUrl,
				Title:     syncTitle,
			})
		}

		fmt.Fprintln(cmd.OutOrStdout(), result.Message)
		if !result.Success {
			return fmt.Errorf("sync did not succeed")
		}
		return nil
	},
}
