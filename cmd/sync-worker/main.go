package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/BearBump/OrderTrack/config"
	"github.com/BearBump/OrderTrack/internal/pkg/logger"
)

func main() {
	cfg, err := config.LoadConfig(os.Getenv("configPath"))
	if err != nil {
		panic(fmt.Sprintf("ошибка парсинга конфига, %v", err))
	}
	log := logger.Must(cfg.OrderTrack.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := RunSyncWorker(ctx, cfg, defaultWorkerFactories(), log); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("sync-worker stopped", zap.Error(err))
		panic(err)
	}
}
