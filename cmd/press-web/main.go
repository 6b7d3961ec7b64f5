package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/printdaily/press"
)

func main() {
	configPath := flag.String("config", "./config/config.yaml", "path to config file (yaml or toml)")
	addr := flag.String("addr", "", "listen address (default: server.addr from config)")
	flag.Parse()

	cfg, err := press.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "press-web: %v\n", err)
		os.Exit(1)
	}
	if *addr == "" {
		*addr = cfg.Server.Addr
	}
	if cfg.Publish.Secret == "" {
		log.Println("press-web: no publish secret configured, /api/cron/publish is open")
	}

	engine, err := press.NewEngine(press.EngineConfigFrom(cfg))
	if err != nil {
		fmt.Fprintf(os.Stderr, "press-web: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	// New accounts only get welcome prints that already exist.
	if seed, err := engine.SeedWelcome(context.Background()); err != nil {
		log.Printf("press-web: seed welcome content: %v", err)
	} else {
		log.Printf("press-web: %d welcome prints ready", len(seed.PrintIDs))
	}

	mux := newRouter(engine)

	srv := &http.Server{
		Addr:         *addr,
		Handler:      requestID(logging(recovery(mux))),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // a publication with retries can take a while
		IdleTimeout:  60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("press-web: listening on %s", *addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("press-web: %v", err)
		}
	}()

	<-done
	log.Println("press-web: shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("press-web: shutdown error: %v", err)
	}
	log.Println("press-web: stopped")
}
