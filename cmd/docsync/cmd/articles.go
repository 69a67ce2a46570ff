package cmd

import (
	"context"
	"fmt"
	"strconv"

	"zendocs-backend/services/docsync"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var articleInput docsync.ArticleInput

func init() {
	for _, c := range []*cobra.Command{articlesAddCmd, articlesUpdateCmd} {
		c.Flags().StringVar(&articleInput.ArticleID, "article-id", "", "Zendesk article id.")
		c.Flags().StringVar(&articleInput.SourceURL, "url", "", "Documentation page url.")
		c.Flags().StringVar(&articleInput.Title, "title", "", "Article title.")
	}
	articlesCmd.AddCommand(articlesListCmd, articlesAddCmd, articlesUpdateCmd, articlesRemoveCmd)
	rootCmd.AddCommand(articlesCmd)
}

var articlesCmd = &cobra.Command{
	Use:   "articles",
	Short: "Manages the articles that are kept in sync.",
}

// withApp runs fn with an app that is closed afterwards.
func withApp(ctx context.Context, fn func(a *app) error) error {
	a, err := openApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func parseIds(args []string) ([]int64, error) {
	ids := make([]int64, len(args))
	for i, arg := range args {
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an article id", arg)
		}
		ids[i] = id
	}
	return ids, nil
}

func renderArticles(t table.Writer, articles []docsync.ArticleView) {
	t.AppendHeader(table.Row{"ID", "Article ID", "Title", "Source URL", "Status", "Last synced", "Schedule"})
	for _, a := range articles {
		t.AppendRow(table.Row{
			a.ID,
			a.ArticleID,
			a.Title,
			a.SourceURL,
			a.Status,
			a.LastSynced,
			a.ScheduleDescription,
		})
	}
	t.Render()
}

var articlesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Prints every stored article.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			articles, err := a.store.List(cmd.Context())
			if err != nil {
				return err
			}
			renderArticles(newTable(cmd.OutOrStdout()), articles)
			return nil
		})
	},
}

var articlesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Stores a new article.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd.Context(), func(a *app) error {
			article, err := a.store.Create(cmd.Context(), articleInput)
			if err != nil {
				return err
			}
			renderArticles(newTable(cmd.OutOrStdout()), []docsync.ArticleView{article})
			return nil
		})
	},
}

var articlesUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Replaces the article id, url and title of a stored article.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIds(args)
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(a *app) error {
			article, err := a.store.Update(cmd.Context(), ids[0], articleInput)
			if err != nil {
				return err
			}
			renderArticles(newTable(cmd.OutOrStdout()), []docsync.ArticleView{article})
			return nil
		})
	},
}

var articlesRemoveCmd = &cobra.Command{
	Use:   "remove <id>...",
	Short: "Deletes stored articles.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids, err := parseIds(args)
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), func(a *app) error {
			for _, id := range ids {
				err := a.store.Delete(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("remove %d: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed article %d\n", id)
			}
			return nil
		})
	},
}
