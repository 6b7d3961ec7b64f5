package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/printdaily/press"
)

const cliAddr = "cli"

func registerCmd() *cobra.Command {
	var reg press.Registration
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a reader account with a first edition",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			u, err := engine.Register(cmd.Context(), reg, cliAddr)
			if err != nil {
				return err
			}
			return newFormatter().OutputUser(u)
		},
	}
	cmd.Flags().StringVar(&reg.Username, "username", "", "username (3-20 letters, digits or underscores)")
	cmd.Flags().StringVar(&reg.Email, "email", "", "email address")
	cmd.Flags().StringVar(&reg.Password, "password", "", "password (at least 6 characters)")
	cmd.Flags().StringVar(&reg.DisplayName, "display-name", "", "display name (default: username)")
	for _, name := range []string{"username", "email", "password"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func deleteAccountCmd() *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "delete-account",
		Short: "Delete a user and everything they wrote, follow or received",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			if err := engine.DeleteAccount(cmd.Context(), userID, cliAddr); err != nil {
				return err
			}
			fmt.Printf("Deleted user %d\n", userID)
			return nil
		},
	}
	cmd.Flags().Int64VarP(&userID, "user", "u", 0, "user ID to delete")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func auditCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show recent security events",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			entries, err := engine.AuditLog(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return newFormatter().OutputAuditLog(entries)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "maximum number of entries to show")
	return cmd
}

func seedWelcomeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-welcome",
		Short: "Create the system user and welcome prints if missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			res, err := engine.SeedWelcome(cmd.Context())
			if err != nil {
				return err
			}
			return newFormatter().OutputSeedResult(res)
		},
	}
}

func backfillWelcomeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backfill-welcome",
		Short: "Add the welcome prints to every existing reader's first edition",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			res, err := engine.BackfillWelcome(cmd.Context())
			if err != nil {
				return err
			}
			return newFormatter().OutputBackfillResult(res)
		},
	}
}
