package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/edumeal/edumeal-api/internal/pkg/jwt"
)

func newTokenCommand() *cobra.Command {
	var (
		userID string
		email  string
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development access token signed with JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			if role != "" && role != jwt.RoleAdmin && role != jwt.RoleScanner {
				return fmt.Errorf("unknown role %q", role)
			}
			token, err := jwt.NewService(cfg.JWTSecret, ttl).GenerateAccessToken(userID, email, role)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "dev-admin", "Subject (operator id)")
	cmd.Flags().StringVar(&email, "email", "", "Operator email")
	cmd.Flags().StringVar(&role, "role", "", "App role: admin or scanner (empty means admin)")
	cmd.Flags().DurationVar(&ttl, "ttl", 12*time.Hour, "Token lifetime")

	return cmd
}
