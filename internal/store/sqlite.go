package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Leer002/Algorithm/internal/config"
)

// Store اتصال SQLite را کپسوله می‌کند.
type Store struct {
	db *sql.DB
}

// NewSQLite بر اساس تنظیمات، پایگاه‌داده‌ی SQLite را آماده می‌کند.
func NewSQLite(cfg config.DatabaseConfig) (*Store, error) {
	dsn := cfg.Path
	if cfg.InMemory {
		dsn = ":memory:"
	} else {
		if err := ensureDir(filepath.Dir(cfg.Path)); err != nil {
			return nil, err
		}
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=5000&_foreign_keys=on", dsn))
	if err != nil {
		return nil, fmt.Errorf("باز کردن پایگاه‌داده ناموفق بود: %w", err)
	}

	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if _, err := conn.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("فعال‌سازی حالت WAL ناموفق بود: %w", err)
	}

	if _, err := conn.Exec("PRAGMA synchronous=NORMAL;"); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("تنظیم سطح همگام‌سازی ناموفق بود: %w", err)
	}

	return &Store{db: conn}, nil
}

// DB پایگاه‌داده‌ی زیرین را برمی‌گرداند.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close اتصال پایگاه‌داده را می‌بندد.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("ساخت پوشه‌ی %q ناموفق بود: %w", path, err)
	}
	return nil
}
