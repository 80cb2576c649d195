package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"impulsetracker/config"
	"impulsetracker/internal/app"
	"impulsetracker/logger"

	"go.uber.org/zap"
)

func main() {
	// viper config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	// zap logger
	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	tracker, err := app.New(cfg, log)
	if err != nil {
		log.Fatal("failed to start tracker", zap.Error(err))
	}
	defer tracker.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := tracker.Run(ctx); err != nil {
		log.Error("tracker stopped with error", zap.Error(err))
	}
}
