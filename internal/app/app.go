package app

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Leer002/Algorithm/internal/broker"
	"github.com/Leer002/Algorithm/internal/calendar"
	"github.com/Leer002/Algorithm/internal/config"
	"github.com/Leer002/Algorithm/internal/execution"
	"github.com/Leer002/Algorithm/internal/ledger"
	"github.com/Leer002/Algorithm/internal/store"
)

// App وابستگی‌های اصلی را کنار هم می‌گذارد و چرخه‌ی عمر برنامه را
// هدایت می‌کند.
type App struct {
	cfg    *config.Config
	logger *zap.Logger
	store  *store.Store
}

// New نمونه‌ی App را می‌سازد.
func New(cfg *config.Config, logger *zap.Logger, store *store.Store) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
		store:  store,
	}
}

// Run اجزای سامانه را سیم‌کشی می‌کند، وضعیت بازار را یک بار پیش از
// پذیرش هر فرمانی می‌سنجد و سپس نشست اپراتور را اجرا می‌کند.
func (a *App) Run(ctx context.Context) error {
	cal, err := calendar.New(a.cfg.Market)
	if err != nil {
		return err
	}

	led, err := ledger.New(a.store.DB(), a.logger)
	if err != nil {
		return err
	}

	gateway := broker.NewGateway(a.cfg.Broker, a.logger)
	client := broker.NewClient(gateway, a.cfg.Broker.Retry, a.logger)
	exec := execution.NewExecutor(client, client, led, cal, a.logger)

	a.logger.Info("سامانه‌ی ثبت سفارش آماده شد",
		zap.String("environment", a.cfg.App.Environment),
		zap.String("market", a.cfg.Market.Name),
		zap.String("broker", a.cfg.Broker.BaseURL),
	)

	if !cal.IsOpen(time.Now()) {
		a.logger.Warn("بازار بسته است؛ نشست بدون پذیرش سفارش پایان یافت",
			zap.String("market", a.cfg.Market.Name),
		)
		return nil
	}

	sess := newSession(exec, led, a.cfg.Market, cal.Location(), os.Stdin, os.Stdout, a.logger)
	return sess.Run(ctx)
}
