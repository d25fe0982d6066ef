package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/Leer002/Algorithm/internal/config"
	"github.com/Leer002/Algorithm/internal/execution"
	"github.com/Leer002/Algorithm/internal/ledger"
)

type fakeAgent struct {
	calls    []string
	requests []execution.TradeRequest
	result   execution.Result
	deleted  bool
}

func (f *fakeAgent) SubmitBuy(ctx context.Context, req execution.TradeRequest) (execution.Result, error) {
	f.calls = append(f.calls, "SubmitBuy")
	f.requests = append(f.requests, req)
	return f.result, nil
}

func (f *fakeAgent) SubmitSell(ctx context.Context, req execution.TradeRequest) (execution.Result, error) {
	f.calls = append(f.calls, "SubmitSell")
	f.requests = append(f.requests, req)
	return f.result, nil
}

func (f *fakeAgent) Update(ctx context.Context, orderID string, req execution.TradeRequest) (execution.Result, error) {
	f.calls = append(f.calls, "Update")
	f.requests = append(f.requests, req)
	return f.result, nil
}

func (f *fakeAgent) Delete(ctx context.Context, orderID string) bool {
	f.calls = append(f.calls, "Delete")
	return f.deleted
}

type fakeLister struct{}

func (fakeLister) ListRecent(ctx context.Context, limit int) ([]ledger.TradeRecord, error) {
	return nil, nil
}

func newTestSession(t *testing.T, agent *fakeAgent, script string) (*session, *strings.Builder) {
	t.Helper()

	loc, err := time.LoadLocation("Asia/Tehran")
	if err != nil {
		t.Fatalf("LoadLocation returned error: %v", err)
	}

	market := config.MarketConfig{Name: "TSE"}
	out := &strings.Builder{}
	sess := newSession(agent, fakeLister{}, market, loc, strings.NewReader(script), out, nil)
	return sess, out
}

func TestSessionSubmitsValidBuyOrder(t *testing.T) {
	agent := &fakeAgent{result: execution.Result{State: execution.StateRecorded}}

	// بازار خالی می‌ماند تا پیش‌فرض تنظیمات استفاده شود.
	script := strings.Join([]string{
		"b",
		"",
		"equity",
		"XYZ",
		"10",
		"500",
		"100",
		"200",
		"5",
		"50",
		"2024-04-02",
		"2024-04-09",
		"c",
	}, "\n") + "\n"

	sess, out := newTestSession(t, agent, script)
	if err := sess.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(agent.calls) != 1 || agent.calls[0] != "SubmitBuy" {
		t.Fatalf("unexpected agent calls %v", agent.calls)
	}

	req := agent.requests[0]
	if req.Market != "TSE" {
		t.Errorf("market = %q, want default TSE", req.Market)
	}
	if req.Symbol != "XYZ" || req.Quantity != 10 {
		t.Errorf("unexpected request %+v", req)
	}
	if !req.Window.Start.Before(req.Window.End) {
		t.Errorf("unexpected window %s..%s", req.Window.Start, req.Window.End)
	}

	if !strings.Contains(out.String(), "خرید XYZ انجام شد") {
		t.Errorf("missing confirmation message in output:\n%s", out.String())
	}
}

func TestSessionRejectsInvalidInputBeforeCore(t *testing.T) {
	agent := &fakeAgent{result: execution.Result{State: execution.StateRecorded}}

	// تعداد سهام غیرعددی؛ درخواست نباید به مجری برسد.
	script := strings.Join([]string{
		"b",
		"TSE",
		"equity",
		"XYZ",
		"ده",
		"c",
	}, "\n") + "\n"

	sess, out := newTestSession(t, agent, script)
	if err := sess.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(agent.calls) != 0 {
		t.Fatalf("invalid input must never reach the executor, got calls %v", agent.calls)
	}
	if !strings.Contains(out.String(), "نامعتبر") {
		t.Errorf("missing validation message in output:\n%s", out.String())
	}
}

func TestSessionRejectsInvertedWindow(t *testing.T) {
	agent := &fakeAgent{result: execution.Result{State: execution.StateRecorded}}

	script := strings.Join([]string{
		"s",
		"TSE",
		"equity",
		"XYZ",
		"10",
		"500",
		"100",
		"200",
		"5",
		"50",
		"2024-04-09",
		"2024-04-02",
		"c",
	}, "\n") + "\n"

	sess, out := newTestSession(t, agent, script)
	if err := sess.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(agent.calls) != 0 {
		t.Fatalf("inverted window must never reach the executor, got calls %v", agent.calls)
	}
	if !strings.Contains(out.String(), "تاریخ شروع") {
		t.Errorf("missing window validation message in output:\n%s", out.String())
	}
}

func TestSessionDeleteReportsFailure(t *testing.T) {
	agent := &fakeAgent{deleted: false}

	script := "d\n42\nc\n"
	sess, out := newTestSession(t, agent, script)
	if err := sess.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(agent.calls) != 1 || agent.calls[0] != "Delete" {
		t.Fatalf("unexpected agent calls %v", agent.calls)
	}
	if !strings.Contains(out.String(), "ناموفق") {
		t.Errorf("missing failure message in output:\n%s", out.String())
	}
}

func TestSessionUnknownCommand(t *testing.T) {
	agent := &fakeAgent{}

	sess, out := newTestSession(t, agent, "x\nc\n")
	if err := sess.Run(context.Background()); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if !strings.Contains(out.String(), "انتخاب نامعتبر است") {
		t.Errorf("missing unknown-command message in output:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "لغو شد") {
		t.Errorf("missing cancel message in output:\n%s", out.String())
	}
}
