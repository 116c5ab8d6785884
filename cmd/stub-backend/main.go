// Package main запускает стаб бэкенда DealerFlow Pro для локальной разработки.
//
// Стаб реализует контракт настоящего бэкенда в памяти: регистрацию и вход,
// тарифы и платежи, генерацию контента, настройку скрапинга и библиотеку
// изображений. Состояние живёт до перезапуска процесса.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dealerflowpro/dealerflow-client/internal/config"
	"github.com/dealerflowpro/dealerflow-client/internal/stub"
)

func main() {
	cfg := config.MustLoad()
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	logger.Info("starting stub backend", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := stub.NewApp(cfg.Stub, logger)
	if err := app.Run(ctx); err != nil {
		logger.Error("stub backend stopped with error", slog.Any("err", err))
		os.Exit(1)
	}

	logger.Info("stub backend stopped gracefully")
}
