package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ehr/recorder/internal/platform/auth"
)

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development bearer token signed with AUTH_SIGNING_KEY",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd)
			if err != nil {
				return err
			}
			subject, _ := cmd.Flags().GetString("subject")
			ttl, _ := cmd.Flags().GetDuration("ttl")
			roles, _ := cmd.Flags().GetStringSlice("role")

			tok, err := auth.IssueToken([]byte(a.cfg.AuthSigningKey), a.cfg.AuthIssuer, subject, roles, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().String("subject", "recorder-cli", "Token subject")
	cmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")
	cmd.Flags().StringSlice("role", []string{"editor"}, "Roles to embed")
	return cmd
}
