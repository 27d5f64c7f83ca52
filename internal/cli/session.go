package cli

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "session",
		Aliases: []string{"s"},
		Short:   "Session commands",
	}

	cmd.AddCommand(newSessionListCmd())
	cmd.AddCommand(newSessionCreateCmd())
	cmd.AddCommand(newSessionGetCmd())
	cmd.AddCommand(newSessionJoinCmd())
	cmd.AddCommand(newSessionLeaveCmd())
	cmd.AddCommand(newSessionStartCmd())
	cmd.AddCommand(newSessionQRCmd())

	return cmd
}

func sessionPath(id string, parts ...string) string {
	path := "/api/v1/sessions/" + url.PathEscape(strings.ToUpper(strings.TrimSpace(id)))
	for _, p := range parts {
		path += "/" + p
	}
	return path
}

func newSessionListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List sessions waiting for players",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result SessionList

			if err := client.Get("/api/v1/sessions", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newSessionCreateCmd() *cobra.Command {
	var name, nickname, password string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a session and join it as owner",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"name":     name,
				"nickname": nickname,
				"password": password,
			}
			var result Membership

			if err := client.Post("/api/v1/sessions", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Session name (default: server chosen)")
	cmd.Flags().StringVar(&nickname, "nickname", "", "Your nickname (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password other players must give to join")
	_ = cmd.MarkFlagRequired("nickname")

	return cmd
}

func newSessionGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Session

			if err := client.Get(sessionPath(args[0]), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newSessionJoinCmd() *cobra.Command {
	var nickname, password string

	cmd := &cobra.Command{
		Use:   "join <id>",
		Short: "Join a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{
				"nickname": nickname,
				"password": password,
			}
			var result Membership

			if err := client.Post(sessionPath(args[0], "join"), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&nickname, "nickname", "", "Your nickname (required)")
	cmd.Flags().StringVar(&password, "password", "", "Session password, if it has one")
	_ = cmd.MarkFlagRequired("nickname")

	return cmd
}

func newSessionLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leave <id>",
		Short: "Leave a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post(sessionPath(args[0], "leave"), nil, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Left session " + strings.ToUpper(args[0]))
			return nil
		},
	}
}

func newSessionStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start <id>",
		Short: "Deal roles and start the game (owner only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Session

			if err := client.Post(sessionPath(args[0], "start"), nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newSessionQRCmd() *cobra.Command {
	var file string
	var size int

	cmd := &cobra.Command{
		Use:   "qr <id>",
		Short: "Save a QR code that links to the session's join page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := sessionPath(args[0], "qr")
			if size > 0 {
				path += fmt.Sprintf("?size=%d", size)
			}

			png, err := client.GetRaw(path)
			if err != nil {
				return err
			}

			if file == "" {
				file = strings.ToUpper(args[0]) + ".png"
			}
			if err := os.WriteFile(file, png, 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", file, err)
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Saved QR code to " + file)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Output file (default: <id>.png)")
	cmd.Flags().IntVar(&size, "size", 0, "Image size in pixels (default: server chosen)")

	return cmd
}
