package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"chainlist/internal/config"
	"chainlist/internal/fetch"
	"chainlist/internal/logging"
	"chainlist/internal/refresh"
	"chainlist/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)
	must(cfg.Validate())

	logger, err := logging.New(cfg.LogLevel)
	must(err)
	defer logger.Sync()

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	fetcher, err := fetch.NewFetcher(cfg, logger)
	must(err)

	svc := refresh.NewService(db, cfg, fetcher, logger)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	must(svc.Run(ctx))
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
