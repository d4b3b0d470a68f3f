// Package main is the entry point for the fretpad API server
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/james-see/fretpad/pkg/api"
	"github.com/james-see/fretpad/pkg/config"
	"github.com/james-see/fretpad/pkg/fretboard"
	"github.com/james-see/fretpad/pkg/notepad"
)

func main() {
	configPath := flag.String("config", config.DefaultPath(), "Configuration file")
	port := flag.Int("port", 0, "Server port (default from config)")
	flag.Parse()

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	board, err := fretboard.New(cfg.Board, notepad.NewAllocator(), logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Board error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Starting fretpad API server on port %d...\n", cfg.Server.Port)
	fmt.Printf("Swagger docs available at http://localhost:%d/swagger/index.html\n", cfg.Server.Port)

	err = api.New(board, logger).Run(ctx, cfg.Server.Port)
	board.ReleaseAll()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
