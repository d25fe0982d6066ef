package config

import (
	"errors"
	"fmt"
	"strings"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	defaultConfigPath = "configs/config.yaml"
	envPrefix         = "trader"
)

// Load فایل تنظیمات را می‌خواند و با متغیرهای محیطی ترکیب می‌کند.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path == "" {
		path = defaultConfigPath
	}

	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix(envPrefix)
	replacer := strings.NewReplacer(".", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("فایل تنظیمات %q پیدا نشد: %w", path, err)
		}
		return nil, fmt.Errorf("خواندن فایل تنظیمات ناموفق بود: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("تجزیه‌ی تنظیمات ناموفق بود: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.environment", "development")

	v.SetDefault("broker.base_url", "")
	v.SetDefault("broker.api_key", "")
	v.SetDefault("broker.timeout", "10s")
	v.SetDefault("broker.retry.submit_attempts", 3)
	v.SetDefault("broker.retry.quote_attempts", 2)
	v.SetDefault("broker.retry.backoff", "2s")

	v.SetDefault("market.name", "TSE")
	v.SetDefault("market.timezone", "Asia/Tehran")
	v.SetDefault("market.open", "08:45")
	v.SetDefault("market.close", "12:30")
	v.SetDefault("market.algo_open", "08:45")
	v.SetDefault("market.algo_close", "09:00")
	v.SetDefault("market.rest_days", []string{"Thursday", "Friday"})
	v.SetDefault("market.holidays", []string{})

	v.SetDefault("database.path", "data/trades.db")
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.max_idle_conns", 4)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.in_memory", false)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.encoding", "console")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.output_paths", []string{"stdout"})
	v.SetDefault("logging.error_output_paths", []string{"stderr"})
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
