package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newConnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "connect",
		Short: "Open a connection and save its token",
		Long: `Open a connection to the server. The token is saved to the token file and
used by every later command. Connections idle for too long are closed by the server.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Connection

			if err := client.Post("/api/v1/connections", nil, &result); err != nil {
				return err
			}

			if err := cfg.SaveToken(result.Token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newDisconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect",
		Short: "Close the connection, leaving any session it is in",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Token == "" {
				return fmt.Errorf("not connected: run 'ghoul connect' first")
			}

			if err := client.Delete("/api/v1/connections/me"); err != nil {
				return err
			}
			if err := cfg.ClearToken(); err != nil {
				return fmt.Errorf("failed to remove token: %w", err)
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Disconnected")
			return nil
		},
	}
}
