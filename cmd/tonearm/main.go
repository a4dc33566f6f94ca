// Package main is the production entry point for the Tonearm player daemon.
//
// Tonearm is a headless playback scheduling engine for a local music library:
// - Event-driven communication (no callbacks)
// - Dependency injection for testability
// - Hexagonal ports/adapters around the scheduling core
//
// Build:
//
//	go build -o build/tonearm ./cmd/tonearm
//
// Run:
//
//	./build/tonearm -config config.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/tonearm-player/tonearm/internal/app"
	"github.com/tonearm-player/tonearm/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to YAML configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(app.GetVersionInfo().FullString())
		return
	}

	// A missing .env file is fine; environment overrides are optional.
	_ = godotenv.Load()

	var (
		cfg *config.Config
		err error
	)
	if *configPath != "" {
		cfg, err = config.Load(*configPath)
	} else {
		cfg, err = config.Default()
	}
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to create application: %v", err)
	}

	// Ensure a graceful shutdown
	defer func() {
		fmt.Println("\nShutting down...")
		application.Shutdown()
		fmt.Println("Shutdown complete")
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Run application (blocks until interrupted)
	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Application error: %v", err)
	}

	fmt.Println("Application exited cleanly")
}
