package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"todoTracker/internal/app"
	"todoTracker/internal/config"
	"todoTracker/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("загрузка конфигурации: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(cfg).Init(ctx)
	if err != nil {
		log.Fatalf("инициализация приложения: %v", err)
	}

	if err := a.Run(ctx); err != nil {
		logger.Error("Приложение завершилось с ошибкой", err)
		os.Exit(1)
	}
}
