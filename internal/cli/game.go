package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newHandCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hand",
		Short: "Show the current hand and drawn cards",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Hand

			if err := client.Get("/api/v1/hand", &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

// newActionCmd sends a single action over a fresh game session
func newActionCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := client.Dial(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = session.Close() }()

			result, err := session.Send(action)
			if err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(*result)
			if result.Failed() {
				return fmt.Errorf("%s failed: %s", action, result.Message)
			}
			return nil
		},
	}
}

func newPlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "play",
		Short: "Play interactively over one game session",
		Long: `Play over one game session, reading one action per line from stdin.

Actions are join, hit and stand. Blank lines are skipped and quit ends
the session. Rejected actions are printed and play continues.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := client.Dial(cmd.Context())
			if err != nil {
				return err
			}
			defer func() { _ = session.Close() }()

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				action := strings.ToLower(strings.TrimSpace(scanner.Text()))
				switch action {
				case "":
					continue
				case "quit", "exit":
					return nil
				}

				result, err := session.Send(action)
				if err != nil {
					return err
				}
				out.Print(*result)
			}
			return scanner.Err()
		},
	}
}
