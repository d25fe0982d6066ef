package execution

import "context"

// Agent انتزاع مجری معاملات است تا نشست اپراتور بتواند اجرای واقعی
// یا آزمایشی را جابه‌جا کند.
type Agent interface {
	SubmitBuy(ctx context.Context, req TradeRequest) (Result, error)
	SubmitSell(ctx context.Context, req TradeRequest) (Result, error)
	Update(ctx context.Context, orderID string, req TradeRequest) (Result, error)
	Delete(ctx context.Context, orderID string) bool
}

var _ Agent = (*Executor)(nil)
