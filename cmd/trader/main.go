package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Leer002/Algorithm/internal/app"
	"github.com/Leer002/Algorithm/internal/config"
	"github.com/Leer002/Algorithm/internal/log"
	"github.com/Leer002/Algorithm/internal/store"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "مسیر فایل تنظیمات؛ پیش‌فرض configs/config.yaml")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "بارگذاری تنظیمات ناموفق بود: %v\n", err)
		os.Exit(1)
	}

	logger, err := log.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "راه‌اندازی لاگ ناموفق بود: %v\n", err)
		os.Exit(1)
	}
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	sqliteStore, err := store.NewSQLite(cfg.Database)
	if err != nil {
		logger.Error("راه‌اندازی پایگاه‌داده ناموفق بود", zap.Error(err))
		os.Exit(1)
	}
	defer func() {
		if closeErr := sqliteStore.Close(); closeErr != nil {
			logger.Warn("بستن پایگاه‌داده ناموفق بود", zap.Error(closeErr))
		}
	}()

	traderApp := app.New(cfg, logger, sqliteStore)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := traderApp.Run(ctx); err != nil {
		logger.Error("اجرای سامانه با خطا پایان یافت", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("سامانه با موفقیت پایان یافت")
}
