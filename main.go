package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"shiny/service/config"
	"shiny/service/server"
	"shiny/service/util"

	"github.com/joho/godotenv"
)

var (
	version = "dev"
)

func init() {
	_ = godotenv.Load() //nolint:errcheck
}

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("Shiny %s\n", version)
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := util.NewLogger(cfg.VerboseLogging)
	logger.Info("Starting Shiny", "version", version, "store", cfg.StoreBackend)

	if err := runServer(cfg, logger); err != nil {
		logger.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}

// runServer blocks until SIGINT or SIGTERM. Start shuts the server down
// itself once ctx is cancelled.
func runServer(cfg *config.Config, logger *slog.Logger) error {
	srv, err := server.New(cfg, version, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		logger.Info("Received shutdown signal")
	}()

	return srv.Start(ctx)
}
