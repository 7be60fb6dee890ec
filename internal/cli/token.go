package cli

import (
	"fmt"
	"time"

	"diskwarden/internal/middleware"
	"diskwarden/internal/services"

	"github.com/spf13/cobra"
)

func newTokenCmd(load loader) *cobra.Command {
	c := &cobra.Command{
		Use:   "token <agent>",
		Short: "Issue a websocket access token for an agent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			agent := args[0]
			if !middleware.ValidateAgentName(agent) {
				return fmt.Errorf("invalid agent name %q: use letters, digits, '-', '_' or '.'", agent)
			}

			cfg, _, err := load()
			if err != nil {
				return err
			}
			if _, err := services.InitAuthService(cfg.AuthSecret, cfg.TokenExpiry); err != nil {
				return err
			}

			token, expiresAt, err := services.GenerateToken(agent)
			if err != nil {
				return fmt.Errorf("failed to generate token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			cmd.PrintErrf("expires %s, connect with ws://%s/ws?token=<token>\n", expiresAt.Format(time.RFC3339), cfg.Address)
			return nil
		},
	}
	return c
}
