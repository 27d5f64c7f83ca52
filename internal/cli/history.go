package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Browse finished games",
	}

	cmd.AddCommand(newHistoryListCmd())
	cmd.AddCommand(newHistoryGetCmd())

	return cmd
}

func newHistoryListCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent finished games",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result GameList

			if err := client.Get(fmt.Sprintf("/api/v1/games?limit=%d", limit), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of games (1-100)")

	return cmd
}

func newHistoryGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <game-id>",
		Short: "Show one finished game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Game

			if err := client.Get("/api/v1/games/"+url.PathEscape(args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
