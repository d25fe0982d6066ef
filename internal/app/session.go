package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Leer002/Algorithm/internal/config"
	"github.com/Leer002/Algorithm/internal/execution"
	"github.com/Leer002/Algorithm/internal/ledger"
)

const (
	inputTimeLayout = "2006-01-02 15:04:05"
	inputDateLayout = "2006-01-02"
)

type recentLister interface {
	ListRecent(ctx context.Context, limit int) ([]ledger.TradeRecord, error)
}

// session حلقه‌ی تعاملی اپراتور است: ورودی خام را می‌گیرد، همان‌جا
// اعتبارسنجی می‌کند و فقط درخواست‌های سالم را به مجری می‌سپارد.
// ورودی نامعتبر هرگز به هسته نمی‌رسد و فقط دوباره پرسیده می‌شود.
type session struct {
	agent   execution.Agent
	records recentLister
	market  config.MarketConfig
	loc     *time.Location
	in      *bufio.Scanner
	out     io.Writer
	logger  *zap.Logger
}

func newSession(agent execution.Agent, records recentLister, market config.MarketConfig, loc *time.Location, in io.Reader, out io.Writer, logger *zap.Logger) *session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &session{
		agent:   agent,
		records: records,
		market:  market,
		loc:     loc,
		in:      bufio.NewScanner(in),
		out:     out,
		logger:  logger,
	}
}

// Run تا لغو اپراتور یا بسته شدن ورودی، فرمان می‌پذیرد. هر سفارش
// پیش از پذیرش سفارش بعدی تا انتها پردازش می‌شود.
func (s *session) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		choice, ok := s.prompt("خرید: b / فروش: s / اصلاح: u / حذف: d / فهرست: l / لغو: c : ")
		if !ok {
			return nil
		}

		var err error
		switch strings.ToLower(choice) {
		case "b":
			err = s.handleSubmit(ctx, execution.ActionBuy)
		case "s":
			err = s.handleSubmit(ctx, execution.ActionSell)
		case "u":
			err = s.handleUpdate(ctx)
		case "d":
			s.handleDelete(ctx)
		case "l":
			s.handleList(ctx)
		case "c":
			s.printf("لغو شد\n")
			return nil
		default:
			s.printf("انتخاب نامعتبر است\n")
		}

		if err != nil {
			return err
		}
	}
}

func (s *session) handleSubmit(ctx context.Context, action execution.Action) error {
	req, ok := s.collectRequest(action)
	if !ok {
		return nil
	}

	var (
		result execution.Result
		err    error
	)
	if action == execution.ActionBuy {
		result, err = s.agent.SubmitBuy(ctx, req)
	} else {
		result, err = s.agent.SubmitSell(ctx, req)
	}
	if err != nil {
		return err
	}

	s.printOutcome(action, req.Symbol, result)
	return nil
}

func (s *session) handleUpdate(ctx context.Context) error {
	orderID, ok := s.prompt("شناسه‌ی سفارش: ")
	if !ok || orderID == "" {
		s.printf("شناسه‌ی سفارش نباید خالی باشد\n")
		return nil
	}

	req, ok := s.collectRequest(execution.ActionUpdate)
	if !ok {
		return nil
	}

	result, err := s.agent.Update(ctx, orderID, req)
	if err != nil {
		return err
	}

	s.printOutcome(execution.ActionUpdate, req.Symbol, result)
	return nil
}

func (s *session) handleDelete(ctx context.Context) {
	orderID, ok := s.prompt("شناسه‌ی سفارش: ")
	if !ok || orderID == "" {
		s.printf("شناسه‌ی سفارش نباید خالی باشد\n")
		return
	}

	if s.agent.Delete(ctx, orderID) {
		s.printf("سفارش %s حذف شد\n", orderID)
	} else {
		s.printf("حذف سفارش %s ناموفق بود\n", orderID)
	}
}

func (s *session) handleList(ctx context.Context) {
	records, err := s.records.ListRecent(ctx, 10)
	if err != nil {
		s.logger.Warn("خواندن دفتر معاملات ناموفق بود", zap.Error(err))
		s.printf("خواندن فهرست معاملات ناموفق بود\n")
		return
	}

	if len(records) == 0 {
		s.printf("هنوز معامله‌ای ثبت نشده است\n")
		return
	}

	for _, rec := range records {
		s.printf("%s  %s  %s  تعداد=%d  مبلغ=%s  %s\n",
			rec.TradeID, rec.Action, rec.Symbol, rec.Quantity, rec.Amount.String(), rec.Label)
	}
}

// collectRequest فیلدهای سفارش را یکی‌یکی می‌پرسد و در پایان صحت کل
// درخواست را می‌سنجد. هر خطای ورودی همین‌جا گزارش می‌شود و false
// برمی‌گرداند تا اپراتور دوباره شروع کند.
func (s *session) collectRequest(action execution.Action) (execution.TradeRequest, bool) {
	var req execution.TradeRequest
	req.Action = action

	market, ok := s.prompt(fmt.Sprintf("بازار (پیش‌فرض %s): ", s.market.Name))
	if !ok {
		return req, false
	}
	if market == "" {
		market = s.market.Name
	}
	req.Market = market

	if req.SecurityType, ok = s.prompt("نوع اوراق: "); !ok {
		return req, false
	}
	if req.Symbol, ok = s.prompt("نماد سهام: "); !ok {
		return req, false
	}
	if req.Quantity, ok = s.promptInt("تعداد سهام: "); !ok {
		return req, false
	}
	if req.Amount, ok = s.promptDecimal("مبلغ: "); !ok {
		return req, false
	}
	if req.PriceBand.Min, ok = s.promptDecimal("حداقل قیمت: "); !ok {
		return req, false
	}
	if req.PriceBand.Max, ok = s.promptDecimal("حداکثر قیمت: "); !ok {
		return req, false
	}
	if req.StockBand.Min, ok = s.promptInt("حداقل تعداد: "); !ok {
		return req, false
	}
	if req.StockBand.Max, ok = s.promptInt("حداکثر تعداد: "); !ok {
		return req, false
	}
	if req.Window.Start, ok = s.promptTime("شروع (YYYY-MM-DD): "); !ok {
		return req, false
	}
	if req.Window.End, ok = s.promptTime("پایان (YYYY-MM-DD): "); !ok {
		return req, false
	}

	if err := req.Validate(); err != nil {
		s.printf("%v\n", err)
		return req, false
	}

	return req, true
}

func (s *session) printOutcome(action execution.Action, symbol string, result execution.Result) {
	if result.Recorded() {
		switch action {
		case execution.ActionBuy:
			s.printf("خرید %s انجام شد\n", symbol)
		case execution.ActionSell:
			s.printf("فروش %s انجام شد\n", symbol)
		case execution.ActionUpdate:
			s.printf("اصلاح %s انجام شد\n", symbol)
		}
		return
	}

	switch result.Reason {
	case execution.ReasonPriceUnavailable:
		s.printf("خطا در دریافت قیمت\n")
	case execution.ReasonPriceOutOfBand:
		s.printf("قیمت خارج از بازه‌ی تعیین‌شده است\n")
	case execution.ReasonSubmitFailed:
		s.printf("ثبت سفارش ناموفق بود\n")
	default:
		s.printf("درخواست رد شد\n")
	}
}

func (s *session) prompt(label string) (string, bool) {
	s.printf("%s", label)
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

func (s *session) promptInt(label string) (int64, bool) {
	raw, ok := s.prompt(label)
	if !ok {
		return 0, false
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.printf("عدد %q نامعتبر است\n", raw)
		return 0, false
	}
	return value, true
}

func (s *session) promptDecimal(label string) (decimal.Decimal, bool) {
	raw, ok := s.prompt(label)
	if !ok {
		return decimal.Decimal{}, false
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		s.printf("مقدار %q نامعتبر است\n", raw)
		return decimal.Decimal{}, false
	}
	return value, true
}

func (s *session) promptTime(label string) (time.Time, bool) {
	raw, ok := s.prompt(label)
	if !ok {
		return time.Time{}, false
	}

	if value, err := time.ParseInLocation(inputTimeLayout, raw, s.loc); err == nil {
		return value, true
	}
	value, err := time.ParseInLocation(inputDateLayout, raw, s.loc)
	if err != nil {
		s.printf("فرمت تاریخ نامعتبر است\n")
		return time.Time{}, false
	}
	return value, true
}

func (s *session) printf(format string, args ...interface{}) {
	fmt.Fprintf(s.out, format, args...)
}
