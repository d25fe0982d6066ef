package broker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Leer002/Algorithm/internal/config"
)

func testGateway(baseURL string) *Gateway {
	cfg := config.BrokerConfig{
		BaseURL: baseURL,
		APIKey:  "test-token",
		Timeout: time.Second,
		Retry: config.RetryConfig{
			SubmitAttempts: 3,
			QuoteAttempts:  2,
			Backoff:        time.Millisecond,
		},
	}
	return NewGateway(cfg, nil)
}

func TestCallSucceedsAfterTwoFailures(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	gw := testGateway(srv.URL)

	resp, err := gw.Call(context.Background(), Get, "/status", nil, 3)
	if err != nil {
		t.Fatalf("Call returned error: %v", err)
	}
	if resp.Status != http.StatusOK {
		t.Errorf("unexpected status %d", resp.Status)
	}
	if got := hits.Load(); got != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", got)
	}
}

func TestCallExhaustsSubmitBound(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	gw := testGateway(srv.URL)

	_, err := gw.Call(context.Background(), Post, "/buy", url.Values{"symbol": {"XYZ"}}, 3)
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	if got := hits.Load(); got != 3 {
		t.Errorf("expected exactly 3 attempts, got %d", got)
	}
}

func TestCallExhaustsQuoteBound(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	gw := testGateway(srv.URL)

	_, err := gw.Call(context.Background(), Get, "/buy/XYZ/price", nil, 2)
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	if got := hits.Load(); got != 2 {
		t.Errorf("expected exactly 2 attempts, got %d", got)
	}
}

func TestCallNonOKStatusIsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// حتی ۲۰۱ هم موفقیت محسوب نمی‌شود؛ فقط ۲۰۰.
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	gw := testGateway(srv.URL)

	if _, err := gw.Call(context.Background(), Get, "/x", nil, 1); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted for status 201, got %v", err)
	}
}

func TestCallSendsBearerAndFormBody(t *testing.T) {
	var gotAuth, gotContentType, gotSymbol, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		gotMethod = r.Method
		_ = r.ParseForm()
		gotSymbol = r.PostFormValue("symbol")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	gw := testGateway(srv.URL)

	form := url.Values{}
	form.Set("symbol", "XYZ")
	form.Set("quantity", "10")

	if _, err := gw.Call(context.Background(), Post, "/buy", form, 1); err != nil {
		t.Fatalf("Call returned error: %v", err)
	}

	if gotAuth != "Bearer test-token" {
		t.Errorf("unexpected Authorization header %q", gotAuth)
	}
	if gotContentType != "application/x-www-form-urlencoded" {
		t.Errorf("unexpected Content-Type %q", gotContentType)
	}
	if gotMethod != http.MethodPost {
		t.Errorf("unexpected method %q", gotMethod)
	}
	if gotSymbol != "XYZ" {
		t.Errorf("unexpected symbol field %q", gotSymbol)
	}
}

func TestCallUsesClosedVerbSet(t *testing.T) {
	var gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	gw := testGateway(srv.URL)

	cases := []struct {
		method Method
		want   string
	}{
		{Get, http.MethodGet},
		{Post, http.MethodPost},
		{Put, http.MethodPut},
		{Delete, http.MethodDelete},
	}

	for _, tc := range cases {
		if _, err := gw.Call(context.Background(), tc.method, "/x", nil, 1); err != nil {
			t.Fatalf("Call(%s) returned error: %v", tc.want, err)
		}
		if gotMethod != tc.want {
			t.Errorf("method %v sent %q, want %q", tc.method, gotMethod, tc.want)
		}
	}
}

func TestCallStopsOnContextCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := config.BrokerConfig{
		BaseURL: srv.URL,
		APIKey:  "test-token",
		Timeout: time.Second,
		Retry:   config.RetryConfig{Backoff: time.Minute},
	}
	gw := NewGateway(cfg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := gw.Call(ctx, Get, "/x", nil, 3)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("cancellation took too long: %s", elapsed)
	}
}
