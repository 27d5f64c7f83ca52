package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "game",
		Aliases: []string{"g"},
		Short:   "In-game commands",
	}

	cmd.AddCommand(newGameKillCmd())
	cmd.AddCommand(newGameVoteCmd())
	cmd.AddCommand(newGameVerdictCmd())
	cmd.AddCommand(newGamePauseCmd())
	cmd.AddCommand(newGameEndPhaseCmd())

	return cmd
}

// postCommand sends a game command and prints the resulting session. A session that
// no longer exists afterwards yields an empty body.
func postCommand(path string, body any) error {
	var result Session

	if err := client.Post(path, body, &result); err != nil {
		return err
	}

	out := NewOutput(cfg.Output)
	if result.ID == "" {
		out.PrintMessage("Session closed")
		return nil
	}
	out.Print(result)
	return nil
}

func newGameKillCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kill <session> <player-id>",
		Short: "Choose tonight's victim (ghoul only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postCommand(sessionPath(args[0], "kill"), map[string]string{"target_id": args[1]})
		},
	}
}

func newGameVoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vote <session> <player-id>",
		Short: "Accuse a player during the day",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postCommand(sessionPath(args[0], "vote"), map[string]string{"target_id": args[1]})
		},
	}
}

func newGameVerdictCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verdict <session> <guilty|innocent>",
		Short: "Cast your final vote on the accused",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			guilty, err := parseVerdict(args[1])
			if err != nil {
				return err
			}
			return postCommand(sessionPath(args[0], "verdict"), map[string]bool{"guilty": guilty})
		},
	}
}

func parseVerdict(s string) (bool, error) {
	switch s {
	case "guilty":
		return true, nil
	case "innocent", "not-guilty":
		return false, nil
	}
	guilty, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid verdict %q: use guilty or innocent", s)
	}
	return guilty, nil
}

func newGamePauseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pause <session>",
		Short: "Stop the day timer (owner only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postCommand(sessionPath(args[0], "pause"), nil)
		},
	}
}

func newGameEndPhaseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "end-phase <session>",
		Short: "End the current day or night early (owner only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postCommand(sessionPath(args[0], "end-phase"), nil)
		},
	}
}
