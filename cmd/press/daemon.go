package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func publishCmd() *cobra.Command {
	var resume bool
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish all pending prints and deliver them to editions",
		Long: `Runs one publication cycle with operator access: every PENDING print is
published and added to the author's and each follower's edition for today (UTC).

With --resume nothing new is published; today's published prints are delivered
again, which repairs a cycle that failed after publishing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			ctx := cmd.Context()
			if resume {
				res, err := engine.ResumePublish(ctx)
				if err != nil {
					return err
				}
				return newFormatter().OutputPublishResult(res)
			}
			res, err := engine.Publish(ctx)
			if err != nil {
				return err
			}
			return newFormatter().OutputPublishResult(res)
		},
	}
	cmd.Flags().BoolVar(&resume, "resume", false, "redo today's fan-out without publishing new prints")
	return cmd
}

func daemonCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Publish once a day at a fixed UTC time",
		Long: `Runs the publication cycle every day at --at (HH:MM, UTC), retrying failed
cycles with backoff. Designed for running inside a Docker container or as a
background service. Handles SIGINT/SIGTERM for graceful shutdown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("at") && cfg.Publish.At != "" {
				at = cfg.Publish.At
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			engine, err := openEngine()
			if err != nil {
				return err
			}
			defer engine.Close()

			log.Printf("press daemon: publishing daily at %s UTC", at)
			if err := engine.RunDaily(ctx, at); err != nil {
				return err
			}
			log.Println("press daemon: received shutdown signal, exiting")
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "06:00", "daily publication time, HH:MM in UTC")
	return cmd
}
