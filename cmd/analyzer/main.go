package main

import (
	"flag"
	"fmt"
	"os"

	"impulsetracker/config"
	"impulsetracker/internal/analyzer"
	"impulsetracker/logger"

	"go.uber.org/zap"
)

func main() {
	dir := flag.String("dir", "", "records directory (default: records.dir from config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to load config:", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer log.Sync()

	if *dir == "" {
		*dir = cfg.Records.Dir
	}

	report, err := analyzer.Load(*dir)
	if err != nil {
		log.Fatal("failed to read records", zap.String("dir", *dir), zap.Error(err))
	}
	analyzer.LogReport(log, report)
}
