// press-mcp is a standalone MCP server for PRINT. It opens the configured
// database directly and serves publication and reader tools over stdio.
// With --daily it also runs the daily publication in-process.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/printdaily/press"
)

func main() {
	configPath := flag.String("config", "./config/config.yaml", "path to config file (yaml or toml)")
	username := flag.String("user", "", "default username for reader tools")
	daily := flag.Bool("daily", false, "run the daily publication in this process")
	at := flag.String("at", "", "daily publication time, HH:MM UTC (default: publish.at from config)")
	flag.Parse()

	log.SetOutput(os.Stderr)

	cfg, err := press.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	engine, err := press.NewEngine(press.EngineConfigFrom(cfg))
	if err != nil {
		log.Fatalf("create press engine: %v", err)
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := newServer(engine, 0)
	if *username != "" {
		u, err := engine.GetUserByUsername(ctx, *username)
		if err != nil {
			log.Fatalf("default user %q: %v", *username, err)
		}
		srv.userID = u.ID
	}

	if *daily {
		if *at == "" {
			*at = cfg.Publish.At
		}
		srv.scheduler = newScheduler(engine, *at)
		if err := srv.scheduler.start(ctx); err != nil {
			log.Fatalf("start scheduler: %v", err)
		}
		defer srv.scheduler.stop()
	}

	if err := srv.run(ctx); err != nil {
		log.Printf("server error: %v", err)
	}
}
