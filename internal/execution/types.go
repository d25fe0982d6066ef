package execution

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/Leer002/Algorithm/internal/ledger"
)

// Action جهت یا نوع عملیات سفارش است.
type Action string

const (
	ActionBuy    Action = "buy"
	ActionSell   Action = "sell"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Label برچسب طبقه‌بندی معامله بر اساس لحظه‌ی ثبت است و پس از ایجاد
// هرگز دوباره محاسبه نمی‌شود.
type Label string

const (
	LabelAlgorithmic    Label = "algorithmic"
	LabelNonAlgorithmic Label = "non_algorithmic"
)

// State وضعیت ماشین حالت اجرای یک درخواست است.
type State string

const (
	StatePriced      State = "priced"
	StateBandChecked State = "band_checked"
	StateSubmitted   State = "submitted"
	StateClassified  State = "classified"
	StateRecorded    State = "recorded"
	StateRejected    State = "rejected"
)

// Reason دلیل رد شدن یک درخواست است.
type Reason string

const (
	ReasonPriceUnavailable Reason = "price_unavailable"
	ReasonPriceOutOfBand   Reason = "price_out_of_band"
	ReasonSubmitFailed     Reason = "submit_failed"
)

// PriceBand بازه‌ی قیمتی مجاز برای انجام معامله است.
type PriceBand struct {
	Min decimal.Decimal
	Max decimal.Decimal
}

// Contains مشخص می‌کند که قیمت داده‌شده داخل بازه‌ی بسته [Min, Max] است.
func (b PriceBand) Contains(price decimal.Decimal) bool {
	return price.GreaterThanOrEqual(b.Min) && price.LessThanOrEqual(b.Max)
}

// StockBand بازه‌ی مجاز تعداد سهام است.
type StockBand struct {
	Min int64
	Max int64
}

// Window بازه‌ی زمانی اعتبار سفارش است.
type Window struct {
	Start time.Time
	End   time.Time
}

// TradeRequest واحد کار ورودی مجری است. بعد از ساخته شدن توسط نشست
// اپراتور تغییر نمی‌کند و پس از بازگشت مجری دور ریخته می‌شود.
type TradeRequest struct {
	Action       Action
	Market       string
	SecurityType string
	Symbol       string
	Quantity     int64
	PriceBand    PriceBand
	Amount       decimal.Decimal
	StockBand    StockBand
	Window       Window
}

// Validate صحت محلی درخواست را پیش از رسیدن به مجری بررسی می‌کند.
func (r TradeRequest) Validate() error {
	var err error

	switch r.Action {
	case ActionBuy, ActionSell, ActionUpdate, ActionDelete:
	default:
		err = multierr.Append(err, fmt.Errorf("نوع عملیات %q نامعتبر است", r.Action))
	}
	if r.Market == "" {
		err = multierr.Append(err, errors.New("نام بازار نباید خالی باشد"))
	}
	if r.SecurityType == "" {
		err = multierr.Append(err, errors.New("نوع اوراق نباید خالی باشد"))
	}
	if r.Symbol == "" {
		err = multierr.Append(err, errors.New("نماد نباید خالی باشد"))
	}
	if r.Quantity <= 0 {
		err = multierr.Append(err, errors.New("تعداد سهام باید بزرگ‌تر از صفر باشد"))
	}
	if !r.Amount.IsPositive() {
		err = multierr.Append(err, errors.New("مبلغ باید بزرگ‌تر از صفر باشد"))
	}
	if r.PriceBand.Min.GreaterThan(r.PriceBand.Max) {
		err = multierr.Append(err, errors.New("حداقل قیمت نباید از حداکثر قیمت بیشتر باشد"))
	}
	if r.StockBand.Min > r.StockBand.Max {
		err = multierr.Append(err, errors.New("حداقل تعداد نباید از حداکثر تعداد بیشتر باشد"))
	}
	if r.Window.Start.After(r.Window.End) {
		err = multierr.Append(err, errors.New("تاریخ شروع نمی‌تواند بعد از پایان باشد"))
	}

	if err != nil {
		return fmt.Errorf("execution: درخواست نامعتبر است: %w", err)
	}

	return nil
}

// Result خلاصه‌ی نتیجه‌ی اجرای یک درخواست است. رد شدن‌های تجاری با
// State و Reason برمی‌گردند، نه با خطا؛ خطای برگشتی فقط برای شکست‌های
// مهلک (مثل شکست ثبت در دفتر پس از تایید کارگزاری) است.
type Result struct {
	State       State
	Reason      Reason
	Price       decimal.Decimal
	Record      *ledger.TradeRecord
	SubmittedAt time.Time
}

// Recorded مشخص می‌کند که درخواست به حالت پایانی موفق رسیده است.
func (r Result) Recorded() bool {
	return r.State == StateRecorded
}
