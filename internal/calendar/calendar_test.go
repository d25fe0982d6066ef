package calendar

import (
	"testing"
	"time"

	"github.com/Leer002/Algorithm/internal/config"
)

func testMarketConfig() config.MarketConfig {
	return config.MarketConfig{
		Name:      "TSE",
		Timezone:  "Asia/Tehran",
		Open:      "08:45",
		Close:     "12:30",
		AlgoOpen:  "08:45",
		AlgoClose: "09:00",
		RestDays:  []string{"Thursday", "Friday"},
		Holidays:  []string{"1403/01/01"},
	}
}

func mustCalendar(t *testing.T) *Calendar {
	t.Helper()
	cal, err := New(testMarketConfig())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return cal
}

func TestIsOpenBoundaries(t *testing.T) {
	cal := mustCalendar(t)
	loc := cal.Location()

	// 2024-04-02 یک سه‌شنبه‌ی عادی است.
	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"at open", time.Date(2024, 4, 2, 8, 45, 0, 0, loc), true},
		{"one second before open", time.Date(2024, 4, 2, 8, 44, 59, 0, loc), false},
		{"one second before close", time.Date(2024, 4, 2, 12, 29, 59, 0, loc), true},
		{"at close", time.Date(2024, 4, 2, 12, 30, 0, 0, loc), false},
		{"mid session", time.Date(2024, 4, 2, 10, 0, 0, 0, loc), true},
		{"before dawn", time.Date(2024, 4, 2, 3, 0, 0, 0, loc), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := cal.IsOpen(tc.at); got != tc.want {
				t.Errorf("IsOpen(%s) = %v, want %v", tc.at, got, tc.want)
			}
		})
	}
}

func TestIsOpenRestDays(t *testing.T) {
	cal := mustCalendar(t)
	loc := cal.Location()

	thursday := time.Date(2024, 4, 4, 10, 0, 0, 0, loc)
	friday := time.Date(2024, 4, 5, 10, 0, 0, 0, loc)

	if cal.IsOpen(thursday) {
		t.Errorf("expected market closed on Thursday %s", thursday)
	}
	if cal.IsOpen(friday) {
		t.Errorf("expected market closed on Friday %s", friday)
	}
}

func TestIsOpenConvertedJalaliHoliday(t *testing.T) {
	cal := mustCalendar(t)
	loc := cal.Location()

	// ۱ فروردین ۱۴۰۳ برابر است با چهارشنبه ۲۰ مارس ۲۰۲۴.
	nowruz := time.Date(2024, 3, 20, 10, 0, 0, 0, loc)
	if cal.IsOpen(nowruz) {
		t.Errorf("expected market closed on converted holiday %s", nowruz)
	}

	dayAfter := time.Date(2024, 3, 27, 10, 0, 0, 0, loc)
	if !cal.IsOpen(dayAfter) {
		t.Errorf("expected market open on regular Wednesday %s", dayAfter)
	}
}

func TestIsOpenOtherTimezoneInput(t *testing.T) {
	cal := mustCalendar(t)

	// ۱۰:۰۰ تهران به وقت UTC؛ تبدیل باید داخل ساعات کاری بیفتد.
	utc := time.Date(2024, 4, 2, 6, 30, 0, 0, time.UTC)
	if !cal.IsOpen(utc) {
		t.Errorf("expected market open for %s expressed in UTC", utc)
	}
}

func TestInAlgoWindow(t *testing.T) {
	cal := mustCalendar(t)
	loc := cal.Location()

	cases := []struct {
		name string
		at   time.Time
		want bool
	}{
		{"window start", time.Date(2024, 4, 2, 8, 45, 0, 0, loc), true},
		{"inside window", time.Date(2024, 4, 2, 8, 50, 0, 0, loc), true},
		{"window end", time.Date(2024, 4, 2, 9, 0, 0, 0, loc), false},
		{"mid morning", time.Date(2024, 4, 2, 10, 0, 0, 0, loc), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := cal.InAlgoWindow(tc.at); got != tc.want {
				t.Errorf("InAlgoWindow(%s) = %v, want %v", tc.at, got, tc.want)
			}
		})
	}
}

func TestNewRejectsMalformedStaticData(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.MarketConfig)
	}{
		{"bad timezone", func(c *config.MarketConfig) { c.Timezone = "Nowhere/Nowhere" }},
		{"bad open clock", func(c *config.MarketConfig) { c.Open = "8h45" }},
		{"open after close", func(c *config.MarketConfig) { c.Open = "13:00" }},
		{"bad algo window", func(c *config.MarketConfig) { c.AlgoClose = "08:00" }},
		{"unknown weekday", func(c *config.MarketConfig) { c.RestDays = []string{"Someday"} }},
		{"holiday wrong separator", func(c *config.MarketConfig) { c.Holidays = []string{"1403-01-01"} }},
		{"holiday month out of range", func(c *config.MarketConfig) { c.Holidays = []string{"1403/13/01"} }},
		{"holiday not a number", func(c *config.MarketConfig) { c.Holidays = []string{"1403/ab/01"} }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testMarketConfig()
			tc.mutate(&cfg)
			if _, err := New(cfg); err == nil {
				t.Errorf("expected construction error for %s", tc.name)
			}
		})
	}
}
