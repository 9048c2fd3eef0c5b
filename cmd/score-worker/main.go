package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/BearBump/ScoreBox/config"
	"github.com/BearBump/ScoreBox/internal/logger"
)

func main() {
	cfg, err := config.LoadConfig(os.Getenv("configPath"))
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}
	log, err := logger.New(cfg.ScoreBox.LogLevel, "json")
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := RunScoreWorker(ctx, cfg, defaultWorkerFactories(), log); err != nil && !errors.Is(err, context.Canceled) {
		panic(err)
	}
}
