package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/printdaily/press"
)

func parseID(s, what string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s ID: %w", what, err)
	}
	return id, nil
}

func printCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "print",
		Short: "Write, edit and list prints",
	}
	cmd.AddCommand(printCreateCmd())
	cmd.AddCommand(printEditCmd())
	cmd.AddCommand(printDeleteCmd())
	cmd.AddCommand(printListCmd())
	cmd.AddCommand(clippingsCmd())
	return cmd
}

func printCreateCmd() *cobra.Command {
	var (
		authorID int64
		title    string
		content  string
		images   []string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Queue a print for the next publication",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			p, err := engine.CreatePrint(cmd.Context(), authorID, title, content, images)
			if err != nil {
				return err
			}
			return newFormatter().OutputPrintList([]press.Print{*p})
		},
	}
	cmd.Flags().Int64VarP(&authorID, "user", "u", 0, "author's user ID")
	cmd.Flags().StringVarP(&title, "title", "t", "", "print title")
	cmd.Flags().StringVar(&content, "content", "", "print body")
	cmd.Flags().StringSliceVar(&images, "image", nil, "image URL (repeatable)")
	for _, name := range []string{"user", "title", "content"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func printEditCmd() *cobra.Command {
	var (
		authorID int64
		title    string
		content  string
		images   []string
	)
	cmd := &cobra.Command{
		Use:   "edit <print-id>",
		Short: "Edit a print that has not been published yet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printID, err := parseID(args[0], "print")
			if err != nil {
				return err
			}

			var patch press.PrintPatch
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			if cmd.Flags().Changed("content") {
				patch.Content = &content
			}
			if cmd.Flags().Changed("image") {
				patch.Images = &images
			}

			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			p, err := engine.UpdatePrint(cmd.Context(), authorID, printID, patch)
			if err != nil {
				return err
			}
			return newFormatter().OutputPrintList([]press.Print{*p})
		},
	}
	cmd.Flags().Int64VarP(&authorID, "user", "u", 0, "author's user ID")
	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVar(&content, "content", "", "new body")
	cmd.Flags().StringSliceVar(&images, "image", nil, "replacement image URLs (repeatable)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func printDeleteCmd() *cobra.Command {
	var authorID int64
	cmd := &cobra.Command{
		Use:   "delete <print-id>",
		Short: "Delete a print that has not been published yet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printID, err := parseID(args[0], "print")
			if err != nil {
				return err
			}

			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			if err := engine.DeletePrint(cmd.Context(), authorID, printID); err != nil {
				return err
			}
			fmt.Printf("Deleted print %d\n", printID)
			return nil
		},
	}
	cmd.Flags().Int64VarP(&authorID, "user", "u", 0, "author's user ID")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func printListCmd() *cobra.Command {
	var (
		authorID int64
		status   string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List an author's prints, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			prints, err := engine.ListPrints(cmd.Context(), authorID, status)
			if err != nil {
				return err
			}
			return newFormatter().OutputPrintList(prints)
		},
	}
	cmd.Flags().Int64VarP(&authorID, "user", "u", 0, "author's user ID")
	cmd.Flags().StringVarP(&status, "status", "s", "", "PENDING or PUBLISHED (default: both)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func clippingsCmd() *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "clippings",
		Short: "List the prints a reader clipped",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			prints, err := engine.Clippings(cmd.Context(), userID)
			if err != nil {
				return err
			}
			return newFormatter().OutputPrintList(prints)
		},
	}
	cmd.Flags().Int64VarP(&userID, "user", "u", 0, "reader's user ID")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func followCmd() *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   "follow <user-id>",
		Short: "Follow or unfollow another user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := parseID(args[0], "user")
			if err != nil {
				return err
			}

			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			following, err := engine.ToggleFollow(cmd.Context(), userID, target)
			if err != nil {
				return err
			}
			if following {
				fmt.Printf("User %d now follows user %d\n", userID, target)
			} else {
				fmt.Printf("User %d no longer follows user %d\n", userID, target)
			}
			return nil
		},
	}
	cmd.Flags().Int64VarP(&userID, "user", "u", 0, "follower's user ID")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func likeCmd() *cobra.Command {
	return toggleCmd("like", "Like or unlike a print", "liked", (*press.Engine).ToggleLike)
}

func clipCmd() *cobra.Command {
	return toggleCmd("clip", "Clip or unclip a print", "clipped", (*press.Engine).ToggleClip)
}

type toggleFunc func(*press.Engine, context.Context, int64, int64) (bool, error)

func toggleCmd(name, short, verb string, toggle toggleFunc) *cobra.Command {
	var userID int64
	cmd := &cobra.Command{
		Use:   name + " <print-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printID, err := parseID(args[0], "print")
			if err != nil {
				return err
			}

			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			on, err := toggle(engine, cmd.Context(), userID, printID)
			if err != nil {
				return err
			}
			if on {
				fmt.Printf("Print %d %s\n", printID, verb)
			} else {
				fmt.Printf("Print %d un%s\n", printID, verb)
			}
			return nil
		},
	}
	cmd.Flags().Int64VarP(&userID, "user", "u", 0, "user ID")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
