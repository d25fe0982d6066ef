// Package calendar تقویم بازگشایی بازار را پیاده‌سازی می‌کند:
// روزهای تعطیل هفتگی، بازه‌ی ساعات معاملاتی روزانه و فهرست ثابت
// تعطیلات رسمی که به تقویم جلالی وارد و هنگام ساخت به میلادی
// تبدیل می‌شوند.
package calendar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	ptime "github.com/yaa110/go-persian-calendar"

	"github.com/Leer002/Algorithm/internal/config"
)

const dateKeyLayout = "2006-01-02"

// Calendar یک تابع خالص از زمان جاری است و هیچ ورودی/خروجی ندارد.
type Calendar struct {
	loc          *time.Location
	openSec      int
	closeSec     int
	algoOpenSec  int
	algoCloseSec int
	restDays     map[time.Weekday]struct{}
	holidays     map[string]struct{}
}

// New تقویم را از تنظیمات می‌سازد. داده‌ی ایستای خراب (ساعت یا تاریخ
// جلالی بدقالب) خطای ساخت برمی‌گرداند و باید در شروع برنامه مهلک باشد.
func New(cfg config.MarketConfig) (*Calendar, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("calendar: منطقه‌ی زمانی %q نامعتبر است: %w", cfg.Timezone, err)
	}

	openSec, err := parseClock(cfg.Open)
	if err != nil {
		return nil, fmt.Errorf("calendar: market.open نامعتبر است: %w", err)
	}
	closeSec, err := parseClock(cfg.Close)
	if err != nil {
		return nil, fmt.Errorf("calendar: market.close نامعتبر است: %w", err)
	}
	if openSec >= closeSec {
		return nil, fmt.Errorf("calendar: ساعت بازگشایی %q باید قبل از ساعت بسته‌شدن %q باشد", cfg.Open, cfg.Close)
	}

	algoOpenSec, err := parseClock(cfg.AlgoOpen)
	if err != nil {
		return nil, fmt.Errorf("calendar: market.algo_open نامعتبر است: %w", err)
	}
	algoCloseSec, err := parseClock(cfg.AlgoClose)
	if err != nil {
		return nil, fmt.Errorf("calendar: market.algo_close نامعتبر است: %w", err)
	}
	if algoOpenSec >= algoCloseSec {
		return nil, fmt.Errorf("calendar: بازه‌ی الگوریتمی %q-%q نامعتبر است", cfg.AlgoOpen, cfg.AlgoClose)
	}

	restDays := make(map[time.Weekday]struct{}, len(cfg.RestDays))
	for _, name := range cfg.RestDays {
		day, err := parseWeekday(name)
		if err != nil {
			return nil, err
		}
		restDays[day] = struct{}{}
	}

	holidays := make(map[string]struct{}, len(cfg.Holidays))
	for _, entry := range cfg.Holidays {
		gregorian, err := jalaliToGregorian(entry, loc)
		if err != nil {
			return nil, err
		}
		holidays[gregorian.Format(dateKeyLayout)] = struct{}{}
	}

	return &Calendar{
		loc:          loc,
		openSec:      openSec,
		closeSec:     closeSec,
		algoOpenSec:  algoOpenSec,
		algoCloseSec: algoCloseSec,
		restDays:     restDays,
		holidays:     holidays,
	}, nil
}

// Location منطقه‌ی زمانی بازار را برمی‌گرداند.
func (c *Calendar) Location() *time.Location {
	return c.loc
}

// IsOpen تعیین می‌کند که در لحظه‌ی داده‌شده معامله مجاز است یا نه.
// بازار باز است اگر و تنها اگر روز هفته تعطیل نباشد، تاریخ در فهرست
// تعطیلات نباشد و ساعت در بازه‌ی [open, close) قرار بگیرد.
func (c *Calendar) IsOpen(now time.Time) bool {
	local := now.In(c.loc)

	if _, rest := c.restDays[local.Weekday()]; rest {
		return false
	}
	if _, holiday := c.holidays[local.Format(dateKeyLayout)]; holiday {
		return false
	}

	sec := secondOfDay(local)
	return sec >= c.openSec && sec < c.closeSec
}

// InAlgoWindow مشخص می‌کند که لحظه‌ی داده‌شده داخل بازه‌ی روزانه‌ی
// سفارش‌های الگوریتمی [algo_open, algo_close) است یا نه.
func (c *Calendar) InAlgoWindow(now time.Time) bool {
	sec := secondOfDay(now.In(c.loc))
	return sec >= c.algoOpenSec && sec < c.algoCloseSec
}

func secondOfDay(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}

func parseClock(value string) (int, error) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("قالب ساعت %q باید HH:MM یا HH:MM:SS باشد", value)
	}

	numbers := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return 0, fmt.Errorf("قالب ساعت %q نامعتبر است: %w", value, err)
		}
		numbers[i] = n
	}

	hour, minute, second := numbers[0], numbers[1], numbers[2]
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 || second < 0 || second > 59 {
		return 0, fmt.Errorf("قالب ساعت %q خارج از محدوده است", value)
	}

	return hour*3600 + minute*60 + second, nil
}

func parseWeekday(name string) (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "saturday":
		return time.Saturday, nil
	case "sunday":
		return time.Sunday, nil
	case "monday":
		return time.Monday, nil
	case "tuesday":
		return time.Tuesday, nil
	case "wednesday":
		return time.Wednesday, nil
	case "thursday":
		return time.Thursday, nil
	case "friday":
		return time.Friday, nil
	}
	return 0, fmt.Errorf("calendar: نام روز هفته %q شناخته نشد", name)
}

// jalaliToGregorian یک تاریخ جلالی با قالب YYYY/MM/DD را به تاریخ
// میلادی در منطقه‌ی زمانی بازار تبدیل می‌کند.
func jalaliToGregorian(entry string, loc *time.Location) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(entry), "/")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("calendar: تاریخ جلالی %q باید قالب YYYY/MM/DD داشته باشد", entry)
	}

	numbers := make([]int, 3)
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return time.Time{}, fmt.Errorf("calendar: تاریخ جلالی %q نامعتبر است: %w", entry, err)
		}
		numbers[i] = n
	}

	year, month, day := numbers[0], numbers[1], numbers[2]
	if year < 1300 || year > 1500 || month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("calendar: تاریخ جلالی %q خارج از محدوده است", entry)
	}

	pt := ptime.Date(year, ptime.Month(month), day, 0, 0, 0, 0, loc)
	gregorian := pt.Time()

	// تاریخ‌هایی مثل ۳۱ اسفند در سال غیرکبیسه هنگام تبدیل جابه‌جا
	// می‌شوند؛ رفت‌وبرگشت باید همان روز را برگرداند.
	back := ptime.New(gregorian)
	if back.Year() != year || int(back.Month()) != month || back.Day() != day {
		return time.Time{}, fmt.Errorf("calendar: تاریخ جلالی %q وجود ندارد", entry)
	}

	return gregorian, nil
}
