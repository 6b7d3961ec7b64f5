package main

import (
	"github.com/spf13/cobra"
)

func editionsCmd() *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "editions",
		Short: "List a reader's editions, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			editions, err := engine.ListEditions(cmd.Context(), userID)
			if err != nil {
				return err
			}
			return newFormatter().OutputEditionList(editions)
		},
	}
	cmd.Flags().Int64VarP(&userID, "user", "u", 0, "reader's user ID")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func editionCmd() *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "edition <YYYY-MM-DD>",
		Short: "Show one of a reader's editions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			edition, err := engine.GetEdition(cmd.Context(), userID, args[0])
			if err != nil {
				return err
			}
			return newFormatter().OutputEdition(edition)
		},
	}
	cmd.Flags().Int64VarP(&userID, "user", "u", 0, "reader's user ID")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
