package main

import (
	"fmt"
	"time"

	"voice-campaigns/internal/auth"
	"voice-campaigns/internal/rbac"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func tokenCmd() *cobra.Command {
	var userID, role string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an API access token (requires AUTH_JWT_SECRET)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !rbac.Valid(role) {
				return fmt.Errorf("role must be %q or %q", rbac.RoleOperator, rbac.RoleViewer)
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			m, err := auth.NewManager(cfg.Auth)
			if err != nil {
				return err
			}
			tok, exp, err := m.IssueAccess(time.Now(), userID, role)
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(map[string]any{"access_token": tok, "expires_at": exp})
			}
			fmt.Println(tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id placed in the token")
	cmd.Flags().StringVar(&role, "role", rbac.RoleViewer, "operator or viewer")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
