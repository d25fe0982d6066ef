package config

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/multierr"
)

// Config تمام تنظیمات مورد نیاز برنامه را یک‌جا نگه می‌دارد.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Broker   BrokerConfig   `mapstructure:"broker"`
	Market   MarketConfig   `mapstructure:"market"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// AppConfig پارامترهای سطح برنامه را کنترل می‌کند.
type AppConfig struct {
	Environment string `mapstructure:"environment"`
}

// BrokerConfig مشخصات اتصال به سامانه‌ی کارگزاری را توصیف می‌کند.
type BrokerConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
	Retry   RetryConfig   `mapstructure:"retry"`
}

// RetryConfig سقف تلاش‌ها و فاصله‌ی انتظار بین آن‌ها را تعیین می‌کند.
// سقف ثبت سفارش و سقف استعلام قیمت عمداً از هم جدا هستند.
type RetryConfig struct {
	SubmitAttempts int           `mapstructure:"submit_attempts"`
	QuoteAttempts  int           `mapstructure:"quote_attempts"`
	Backoff        time.Duration `mapstructure:"backoff"`
}

// MarketConfig تقویم و ساعات کاری بازار هدف را توصیف می‌کند.
// تعطیلات به تقویم جلالی و با قالب YYYY/MM/DD وارد می‌شوند.
type MarketConfig struct {
	Name      string   `mapstructure:"name"`
	Timezone  string   `mapstructure:"timezone"`
	Open      string   `mapstructure:"open"`
	Close     string   `mapstructure:"close"`
	AlgoOpen  string   `mapstructure:"algo_open"`
	AlgoClose string   `mapstructure:"algo_close"`
	RestDays  []string `mapstructure:"rest_days"`
	Holidays  []string `mapstructure:"holidays"`
}

// DatabaseConfig اتصال پایگاه‌داده را مدیریت می‌کند.
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	InMemory        bool          `mapstructure:"in_memory"`
}

// LoggingConfig خروجی لاگ را کنترل می‌کند.
type LoggingConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding"`
	Development      bool     `mapstructure:"development"`
	OutputPaths      []string `mapstructure:"output_paths"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths"`
}

// Validate صحت پایه‌ی تنظیمات را بررسی می‌کند.
func (c *Config) Validate() error {
	var err error

	if c.App.Environment == "" {
		err = multierr.Append(err, errors.New("app.environment نباید خالی باشد"))
	}
	if c.Broker.BaseURL == "" {
		err = multierr.Append(err, errors.New("broker.base_url نباید خالی باشد"))
	}
	if c.Broker.APIKey == "" {
		err = multierr.Append(err, errors.New("broker.api_key نباید خالی باشد"))
	}
	if c.Broker.Timeout <= 0 {
		err = multierr.Append(err, errors.New("broker.timeout باید بزرگ‌تر از صفر باشد"))
	}
	if c.Broker.Retry.SubmitAttempts <= 0 {
		err = multierr.Append(err, errors.New("broker.retry.submit_attempts باید بزرگ‌تر از صفر باشد"))
	}
	if c.Broker.Retry.QuoteAttempts <= 0 {
		err = multierr.Append(err, errors.New("broker.retry.quote_attempts باید بزرگ‌تر از صفر باشد"))
	}
	if c.Broker.Retry.Backoff < 0 {
		err = multierr.Append(err, errors.New("broker.retry.backoff نباید منفی باشد"))
	}
	if c.Market.Timezone == "" {
		err = multierr.Append(err, errors.New("market.timezone نباید خالی باشد"))
	}
	if c.Market.Open == "" || c.Market.Close == "" {
		err = multierr.Append(err, errors.New("market.open و market.close نباید خالی باشند"))
	}
	if c.Market.AlgoOpen == "" || c.Market.AlgoClose == "" {
		err = multierr.Append(err, errors.New("market.algo_open و market.algo_close نباید خالی باشند"))
	}
	if len(c.Market.RestDays) == 0 {
		err = multierr.Append(err, errors.New("market.rest_days باید دست‌کم یک روز داشته باشد"))
	}
	if c.Database.Path == "" && !c.Database.InMemory {
		err = multierr.Append(err, errors.New("database.path نباید خالی باشد"))
	}
	if c.Database.MaxOpenConns <= 0 {
		err = multierr.Append(err, errors.New("database.max_open_conns باید بزرگ‌تر از صفر باشد"))
	}
	if c.Database.MaxIdleConns < 0 {
		err = multierr.Append(err, errors.New("database.max_idle_conns نباید منفی باشد"))
	}
	if c.Database.ConnMaxLifetime < 0 {
		err = multierr.Append(err, errors.New("database.conn_max_lifetime نباید منفی باشد"))
	}
	if c.Logging.Level == "" {
		err = multierr.Append(err, errors.New("logging.level نباید خالی باشد"))
	}
	if c.Logging.Encoding == "" {
		err = multierr.Append(err, errors.New("logging.encoding نباید خالی باشد"))
	}
	if len(c.Logging.OutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.output_paths باید دست‌کم یک مقصد داشته باشد"))
	}
	if len(c.Logging.ErrorOutputPaths) == 0 {
		err = multierr.Append(err, errors.New("logging.error_output_paths باید دست‌کم یک مقصد داشته باشد"))
	}

	if err != nil {
		return fmt.Errorf("اعتبارسنجی تنظیمات ناموفق بود: %w", err)
	}

	return nil
}
