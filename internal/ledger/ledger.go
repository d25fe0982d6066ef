// Package ledger دفتر ثبت افزایشی معاملات تاییدشده است. هر رکورد
// دقیقاً با یک تاییدیه‌ی موفق سامانه‌ی کارگزاری متناظر است و پس از
// درج هرگز تغییر نمی‌کند.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TradeRecord نتیجه‌ی ماندگار یک عملیات تاییدشده است.
type TradeRecord struct {
	TradeID      string
	Action       string
	Market       string
	SecurityType string
	Symbol       string
	Quantity     int64
	Amount       decimal.Decimal
	WindowStart  time.Time
	WindowEnd    time.Time
	Label        string
	CreatedAt    time.Time
}

// Ledger دسترسی فقط-درج به جدول معاملات را فراهم می‌کند.
type Ledger struct {
	db     *sql.DB
	logger *zap.Logger
}

// New دفتر را می‌سازد و ساختار جدول را آماده می‌کند.
func New(db *sql.DB, logger *zap.Logger) (*Ledger, error) {
	if db == nil {
		return nil, errors.New("ledger: پایگاه‌داده نباید تهی باشد")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	l := &Ledger{db: db, logger: logger}

	if err := l.initSchema(); err != nil {
		return nil, err
	}

	return l, nil
}

func (l *Ledger) initSchema() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS trades (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			trade_id TEXT NOT NULL UNIQUE,
			action TEXT NOT NULL,
			market TEXT NOT NULL,
			security_type TEXT NOT NULL,
			symbol TEXT NOT NULL,
			quantity INTEGER NOT NULL,
			amount TEXT NOT NULL,
			window_start TEXT NOT NULL,
			window_end TEXT NOT NULL,
			label TEXT NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);`,
		`CREATE INDEX IF NOT EXISTS idx_trades_created_at ON trades(created_at);`,
	}

	for _, stmt := range schema {
		if _, err := l.db.Exec(stmt); err != nil {
			return fmt.Errorf("ledger: آماده‌سازی ساختار جدول ناموفق بود: %w", err)
		}
	}

	return nil
}

// Append رکورد را در یک تراکنش مستقل درج می‌کند. این دفتر هیچ
// عملیات به‌روزرسانی یا حذف روی سطرهای موجود ندارد.
func (l *Ledger) Append(ctx context.Context, rec TradeRecord) error {
	if rec.TradeID == "" {
		return errors.New("ledger: trade_id نباید خالی باشد")
	}

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ledger: شروع تراکنش ناموفق بود: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO trades (trade_id, action, market, security_type, symbol, quantity, amount, window_start, window_end, label, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.TradeID,
		rec.Action,
		rec.Market,
		rec.SecurityType,
		rec.Symbol,
		rec.Quantity,
		rec.Amount.String(),
		rec.WindowStart.UTC().Format(time.RFC3339),
		rec.WindowEnd.UTC().Format(time.RFC3339),
		rec.Label,
		rec.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("ledger: درج رکورد معامله ناموفق بود: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ledger: نهایی‌سازی تراکنش ناموفق بود: %w", err)
	}

	l.logger.Debug("رکورد معامله ثبت شد",
		zap.String("trade_id", rec.TradeID),
		zap.String("action", rec.Action),
		zap.String("symbol", rec.Symbol),
	)

	return nil
}

// ListRecent آخرین رکوردها را به ترتیب نزولی درج برمی‌گرداند.
func (l *Ledger) ListRecent(ctx context.Context, limit int) ([]TradeRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := l.db.QueryContext(ctx,
		`SELECT trade_id, action, market, security_type, symbol, quantity, amount, window_start, window_end, label, created_at
		 FROM trades ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("ledger: خواندن رکوردها ناموفق بود: %w", err)
	}
	defer rows.Close()

	var records []TradeRecord
	for rows.Next() {
		var (
			rec         TradeRecord
			amount      string
			windowStart string
			windowEnd   string
			createdAt   string
		)

		if err := rows.Scan(
			&rec.TradeID, &rec.Action, &rec.Market, &rec.SecurityType, &rec.Symbol,
			&rec.Quantity, &amount, &windowStart, &windowEnd, &rec.Label, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("ledger: خواندن سطر ناموفق بود: %w", err)
		}

		if rec.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("ledger: مقدار مبلغ %q نامعتبر است: %w", amount, err)
		}
		if rec.WindowStart, err = time.Parse(time.RFC3339, windowStart); err != nil {
			return nil, fmt.Errorf("ledger: زمان شروع %q نامعتبر است: %w", windowStart, err)
		}
		if rec.WindowEnd, err = time.Parse(time.RFC3339, windowEnd); err != nil {
			return nil, fmt.Errorf("ledger: زمان پایان %q نامعتبر است: %w", windowEnd, err)
		}
		if rec.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("ledger: زمان ثبت %q نامعتبر است: %w", createdAt, err)
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ledger: پیمایش رکوردها ناموفق بود: %w", err)
	}

	return records, nil
}
