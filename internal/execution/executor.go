package execution

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Leer002/Algorithm/internal/broker"
	"github.com/Leer002/Algorithm/internal/ledger"
)

// wireTimeLayout قالب متنی ثابت زمان در بدنه‌ی درخواست‌های ارسالی است.
const wireTimeLayout = "2006-01-02 15:04:05"

type priceSource interface {
	FetchPrice(ctx context.Context, action, symbol string) (decimal.Decimal, error)
}

type orderGateway interface {
	SubmitOrder(ctx context.Context, action string, form url.Values) error
	FetchOrder(ctx context.Context, orderID string) (broker.OrderInfo, error)
	ReplaceOrder(ctx context.Context, orderID string, form url.Values) error
	CancelOrder(ctx context.Context, orderID string) error
}

type tradeLedger interface {
	Append(ctx context.Context, rec ledger.TradeRecord) error
}

type marketClock interface {
	InAlgoWindow(t time.Time) bool
}

// Executor یک درخواست را از استعلام قیمت تا ثبت در دفتر پیش می‌برد:
// Priced → BandChecked → Submitted → Classified → Recorded و در هر
// شکست به حالت پایانی Rejected می‌رود. هر عملیات تا پایان کامل انجام
// می‌شود و پردازش هم‌زمان سفارش‌ها وجود ندارد.
type Executor struct {
	prices  priceSource
	orders  orderGateway
	records tradeLedger
	clock   marketClock
	now     func() time.Time
	newID   func() string
	logger  *zap.Logger
}

// NewExecutor مجری معاملات را می‌سازد.
func NewExecutor(prices priceSource, orders orderGateway, records tradeLedger, clock marketClock, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{
		prices:  prices,
		orders:  orders,
		records: records,
		clock:   clock,
		now:     time.Now,
		newID:   uuid.NewString,
		logger:  logger,
	}
}

// SubmitBuy سفارش خرید را از ابتدا تا انتها پردازش می‌کند.
func (e *Executor) SubmitBuy(ctx context.Context, req TradeRequest) (Result, error) {
	req.Action = ActionBuy
	return e.submit(ctx, req)
}

// SubmitSell سفارش فروش را از ابتدا تا انتها پردازش می‌کند.
func (e *Executor) SubmitSell(ctx context.Context, req TradeRequest) (Result, error) {
	req.Action = ActionSell
	return e.submit(ctx, req)
}

func (e *Executor) submit(ctx context.Context, req TradeRequest) (Result, error) {
	price, err := e.prices.FetchPrice(ctx, string(req.Action), req.Symbol)
	if err != nil {
		e.logger.Warn("خطا در دریافت قیمت",
			zap.String("symbol", req.Symbol),
			zap.String("action", string(req.Action)),
			zap.Error(err),
		)
		return Result{State: StateRejected, Reason: ReasonPriceUnavailable}, nil
	}

	// بررسی بازه‌ی قیمت تنها دروازه پیش از فراخوانی‌های پول‌ساز است.
	if !req.PriceBand.Contains(price) {
		e.logger.Warn("قیمت خارج از بازه‌ی تعیین‌شده است",
			zap.String("symbol", req.Symbol),
			zap.String("price", price.String()),
			zap.String("min", req.PriceBand.Min.String()),
			zap.String("max", req.PriceBand.Max.String()),
		)
		return Result{State: StateRejected, Reason: ReasonPriceOutOfBand, Price: price}, nil
	}

	form := buildForm(req, price)
	if err := e.orders.SubmitOrder(ctx, string(req.Action), form); err != nil {
		e.logger.Warn("ثبت سفارش ناموفق بود",
			zap.String("symbol", req.Symbol),
			zap.String("action", string(req.Action)),
			zap.Error(err),
		)
		return Result{State: StateRejected, Reason: ReasonSubmitFailed, Price: price}, nil
	}

	return e.record(ctx, req, price)
}

// Update قیمت و شناسه‌ی فعلی سفارش را از کارگزاری می‌گیرد، بازه‌ی
// جایگزین را با همان قیمت می‌سنجد و در صورت موفقیتِ PUT یک رکورد
// تازه با عملیات update ثبت می‌کند؛ رکورد قبلی دست نمی‌خورد.
func (e *Executor) Update(ctx context.Context, orderID string, req TradeRequest) (Result, error) {
	req.Action = ActionUpdate

	info, err := e.orders.FetchOrder(ctx, orderID)
	if err != nil {
		e.logger.Warn("خطا در استعلام سفارش",
			zap.String("order_id", orderID),
			zap.Error(err),
		)
		return Result{State: StateRejected, Reason: ReasonPriceUnavailable}, nil
	}

	if !req.PriceBand.Contains(info.Price) {
		e.logger.Warn("قیمت خارج از بازه‌ی تعیین‌شده است",
			zap.String("order_id", orderID),
			zap.String("price", info.Price.String()),
			zap.String("min", req.PriceBand.Min.String()),
			zap.String("max", req.PriceBand.Max.String()),
		)
		return Result{State: StateRejected, Reason: ReasonPriceOutOfBand, Price: info.Price}, nil
	}

	form := buildForm(req, info.Price)
	if info.TradeID != "" {
		form.Set("trade_id", info.TradeID)
	}

	if err := e.orders.ReplaceOrder(ctx, orderID, form); err != nil {
		e.logger.Warn("اصلاح سفارش ناموفق بود",
			zap.String("order_id", orderID),
			zap.Error(err),
		)
		return Result{State: StateRejected, Reason: ReasonSubmitFailed, Price: info.Price}, nil
	}

	return e.record(ctx, req, info.Price)
}

// Delete سفارش را با یک فراخوانی DELETE حذف می‌کند. موفقیت فقط یک
// مقدار بولی است و هیچ رکوردی در دفتر ثبت نمی‌شود.
func (e *Executor) Delete(ctx context.Context, orderID string) bool {
	if err := e.orders.CancelOrder(ctx, orderID); err != nil {
		e.logger.Warn("حذف سفارش ناموفق بود",
			zap.String("order_id", orderID),
			zap.Error(err),
		)
		return false
	}

	e.logger.Info("سفارش حذف شد", zap.String("order_id", orderID))
	return true
}

// record پس از تاییدیه‌ی کارگزاری اجرا می‌شود: شناسه‌ی یکتا می‌سازد،
// لحظه‌ی ثبت را طبقه‌بندی می‌کند و رکورد را در دفتر می‌نویسد. شکست
// دفتر پس از تایید کارگزاری مهلک است و نباید بی‌صدا گم شود.
func (e *Executor) record(ctx context.Context, req TradeRequest, price decimal.Decimal) (Result, error) {
	submittedAt := e.now()
	label := e.classify(submittedAt)

	rec := ledger.TradeRecord{
		TradeID:      e.newID(),
		Action:       string(req.Action),
		Market:       req.Market,
		SecurityType: req.SecurityType,
		Symbol:       req.Symbol,
		Quantity:     req.Quantity,
		Amount:       req.Amount,
		WindowStart:  req.Window.Start,
		WindowEnd:    req.Window.End,
		Label:        string(label),
		CreatedAt:    submittedAt,
	}

	if err := e.records.Append(ctx, rec); err != nil {
		return Result{}, fmt.Errorf("execution: ثبت معامله‌ی تاییدشده در دفتر ناموفق بود: %w", err)
	}

	e.logger.Info("معامله انجام و ثبت شد",
		zap.String("trade_id", rec.TradeID),
		zap.String("action", rec.Action),
		zap.String("symbol", rec.Symbol),
		zap.String("price", price.String()),
		zap.String("label", rec.Label),
	)

	return Result{
		State:       StateRecorded,
		Price:       price,
		Record:      &rec,
		SubmittedAt: submittedAt,
	}, nil
}

// classify برچسب معامله را از لحظه‌ی تایید تعیین می‌کند: داخل بازه‌ی
// روزانه‌ی الگوریتمی برچسب algorithmic و بیرون آن non_algorithmic.
func (e *Executor) classify(t time.Time) Label {
	if e.clock.InAlgoWindow(t) {
		return LabelAlgorithmic
	}
	return LabelNonAlgorithmic
}

func buildForm(req TradeRequest, price decimal.Decimal) url.Values {
	form := url.Values{}
	form.Set("action", string(req.Action))
	form.Set("market", req.Market)
	form.Set("security_type", req.SecurityType)
	form.Set("symbol", req.Symbol)
	form.Set("quantity", strconv.FormatInt(req.Quantity, 10))
	form.Set("price", price.String())
	form.Set("amount", req.Amount.String())
	form.Set("min_price", req.PriceBand.Min.String())
	form.Set("max_price", req.PriceBand.Max.String())
	form.Set("min_stock", strconv.FormatInt(req.StockBand.Min, 10))
	form.Set("max_stock", strconv.FormatInt(req.StockBand.Max, 10))
	form.Set("start", req.Window.Start.Format(wireTimeLayout))
	form.Set("end", req.Window.End.Format(wireTimeLayout))
	return form
}
