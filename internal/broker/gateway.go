// Package broker تنها مسیر ارتباط با سامانه‌ی کارگزاری است: یک درگاه
// HTTP با سقف تلاش محدود و روی آن استعلام قیمت و عملیات سفارش.
package broker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Leer002/Algorithm/internal/config"
)

// ErrExhausted نشان می‌دهد که همه‌ی تلاش‌های مجاز یک فراخوانی شکست خورده‌اند.
var ErrExhausted = errors.New("broker: retry budget exhausted")

// Method مجموعه‌ی بسته‌ی فعل‌های HTTP مجاز برای درگاه است.
type Method int

const (
	Get Method = iota
	Post
	Put
	Delete
)

// String نام استاندارد فعل HTTP را برمی‌گرداند.
func (m Method) String() string {
	switch m {
	case Get:
		return http.MethodGet
	case Post:
		return http.MethodPost
	case Put:
		return http.MethodPut
	case Delete:
		return http.MethodDelete
	}
	return fmt.Sprintf("Method(%d)", int(m))
}

// Response نتیجه‌ی یک فراخوانی موفق درگاه است.
type Response struct {
	Status int
	Body   []byte
}

// Gateway تمام فراخوانی‌های خروجی را با سقف تلاش مشخص و فاصله‌ی
// انتظار ثابت بین تلاش‌ها انجام می‌دهد. هیچ فراخوانی شبکه‌ای نباید
// این نقطه را دور بزند.
type Gateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
	backoff time.Duration
	logger  *zap.Logger
}

// NewGateway درگاه را از تنظیمات کارگزاری می‌سازد.
func NewGateway(cfg config.BrokerConfig, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Gateway{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
		backoff: cfg.Retry.Backoff,
		logger:  logger,
	}
}

// Call فراخوانی داده‌شده را حداکثر attempts بار انجام می‌دهد. تنها
// وضعیت ۲۰۰ موفقیت است؛ هر وضعیت دیگر و هر خطای انتقال، شکست یک
// تلاش محسوب می‌شود. پس از اتمام سقف تلاش‌ها خطایی برمی‌گردد که با
// ErrExhausted قابل تشخیص است؛ هیچ خطایی از این مرز عبور نمی‌کند.
func (g *Gateway) Call(ctx context.Context, method Method, path string, form url.Values, attempts int) (Response, error) {
	if attempts <= 0 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Response{}, ctxErr
		}

		start := time.Now()
		resp, err := g.do(ctx, method, path, form)
		latency := time.Since(start)

		if err == nil && resp.Status == http.StatusOK {
			if attempt > 1 {
				g.logger.Info("فراخوانی کارگزاری پس از تلاش مجدد موفق شد",
					zap.String("method", method.String()),
					zap.String("path", path),
					zap.Int("attempts", attempt),
					zap.Duration("latency", latency),
				)
			}
			return resp, nil
		}

		if err == nil {
			err = fmt.Errorf("broker: وضعیت غیرمنتظره %d", resp.Status)
		}
		lastErr = err

		g.logger.Warn("تلاش فراخوانی کارگزاری شکست خورد",
			zap.String("method", method.String()),
			zap.String("path", path),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Duration("latency", latency),
			zap.Error(err),
		)

		if attempt == attempts {
			break
		}

		timer := time.NewTimer(g.backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Response{}, ctx.Err()
		case <-timer.C:
		}
	}

	return Response{}, fmt.Errorf("%w: %s %s پس از %d تلاش: %v", ErrExhausted, method, path, attempts, lastErr)
}

func (g *Gateway) do(ctx context.Context, method Method, path string, form url.Values) (Response, error) {
	endpoint := g.baseURL + path

	var body io.Reader
	switch method {
	case Get, Delete:
		if len(form) > 0 {
			endpoint = endpoint + "?" + form.Encode()
		}
	case Post, Put:
		if form != nil {
			body = strings.NewReader(form.Encode())
		}
	default:
		return Response{}, fmt.Errorf("broker: فعل HTTP پشتیبانی نمی‌شود: %s", method)
	}

	req, err := http.NewRequestWithContext(ctx, method.String(), endpoint, body)
	if err != nil {
		return Response{}, fmt.Errorf("broker: ساخت درخواست ناموفق بود: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return Response{}, fmt.Errorf("broker: خواندن بدنه‌ی پاسخ ناموفق بود: %w", err)
	}

	return Response{Status: resp.StatusCode, Body: payload}, nil
}
