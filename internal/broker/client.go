package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Leer002/Algorithm/internal/config"
)

// PriceQuote قیمت لحظه‌ای یک نماد است و تنها برای یک تلاش ثبت سفارش
// اعتبار دارد.
type PriceQuote struct {
	Symbol string
	Price  decimal.Decimal
}

// OrderInfo وضعیت فعلی یک سفارش ثبت‌شده در سمت کارگزاری است.
type OrderInfo struct {
	Price   decimal.Decimal
	TradeID string
}

// Client عملیات دامنه‌ی کارگزاری را روی درگاه سوار می‌کند. استعلام
// قیمت سقف تلاش جداگانه‌ای نسبت به ثبت سفارش دارد.
type Client struct {
	gateway *Gateway
	retry   config.RetryConfig
	logger  *zap.Logger
}

// NewClient کلاینت کارگزاری را می‌سازد.
func NewClient(gateway *Gateway, retry config.RetryConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		gateway: gateway,
		retry:   retry,
		logger:  logger,
	}
}

type priceResponse struct {
	Price decimal.Decimal `json:"price"`
}

type orderResponse struct {
	Price   decimal.Decimal `json:"price"`
	TradeID string          `json:"trade_id"`
}

// FetchPrice قیمت لحظه‌ای نماد را برای جهت داده‌شده می‌گیرد. خطای
// برگشتی یعنی «قیمت در دسترس نیست» و لایه‌ی بالاتر نباید دوباره تلاش کند.
func (c *Client) FetchPrice(ctx context.Context, action, symbol string) (decimal.Decimal, error) {
	path := fmt.Sprintf("/%s/%s/price", action, symbol)

	resp, err := c.gateway.Call(ctx, Get, path, nil, c.retry.QuoteAttempts)
	if err != nil {
		return decimal.Decimal{}, err
	}

	var parsed priceResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return decimal.Decimal{}, fmt.Errorf("broker: پاسخ سرویس قیمت نامعتبر است: %w", err)
	}

	c.logger.Debug("قیمت لحظه‌ای دریافت شد",
		zap.String("symbol", symbol),
		zap.String("action", action),
		zap.String("price", parsed.Price.String()),
	)

	return parsed.Price, nil
}

// SubmitOrder سفارش را با فعل POST به سامانه‌ی کارگزاری می‌فرستد.
func (c *Client) SubmitOrder(ctx context.Context, action string, form url.Values) error {
	_, err := c.gateway.Call(ctx, Post, "/"+action, form, c.retry.SubmitAttempts)
	return err
}

// FetchOrder قیمت و شناسه‌ی فعلی یک سفارش موجود را برمی‌گرداند.
func (c *Client) FetchOrder(ctx context.Context, orderID string) (OrderInfo, error) {
	resp, err := c.gateway.Call(ctx, Get, "/update/"+orderID, nil, c.retry.QuoteAttempts)
	if err != nil {
		return OrderInfo{}, err
	}

	var parsed orderResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return OrderInfo{}, fmt.Errorf("broker: پاسخ استعلام سفارش نامعتبر است: %w", err)
	}

	return OrderInfo{Price: parsed.Price, TradeID: parsed.TradeID}, nil
}

// ReplaceOrder سفارش موجود را با مقادیر جایگزین از طریق PUT اصلاح می‌کند.
func (c *Client) ReplaceOrder(ctx context.Context, orderID string, form url.Values) error {
	_, err := c.gateway.Call(ctx, Put, "/update/"+orderID, form, c.retry.SubmitAttempts)
	return err
}

// CancelOrder سفارش موجود را با یک فراخوانی DELETE حذف می‌کند.
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	_, err := c.gateway.Call(ctx, Delete, "/delete/"+orderID, nil, c.retry.SubmitAttempts)
	return err
}
