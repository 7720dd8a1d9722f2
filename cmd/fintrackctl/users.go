package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"fintrack/internal/identity"
	"fintrack/internal/storage"
)

func signupCmd(s *settings) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := storage.NewSQLiteRepository(s.dbPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			ids := identity.NewProvider(repo, repo, identity.Options{SessionTTL: s.cfg.SessionTTL})
			user, err := ids.SignUp(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("sign up %s: %w", email, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func usersCmd(s *settings) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List account ids",
		RunE: func(cmd *cobra.Command, _ []string) error {
			repo, err := storage.NewSQLiteRepository(s.dbPath)
			if err != nil {
				return err
			}
			defer repo.Close()

			ids, err := repo.ListUserIDs(cmd.Context())
			if err != nil {
				return err
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}
