package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// newClientRequest は指定したクライアントアドレスからのGETリクエストを生成する。
func newClientRequest(remoteAddr string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/sessions/abc", nil)
	req.RemoteAddr = remoteAddr
	return req
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// --- RateLimiter.Middleware のテスト ---

func TestRateLimitMiddleware_AllowsRequestsWithinLimit(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Rate:            2, // 2 req/sec
		Burst:           5, // バースト5
		CleanupInterval: 1 * time.Minute,
	}, discardLogger())
	defer rl.Stop()

	handlerCallCount := 0
	handler := rl.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCallCount++
		w.WriteHeader(http.StatusOK)
	}))

	// バースト内の5リクエストは全て通る
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, newClientRequest("203.0.113.1:40000"))

		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i, w.Result().StatusCode, http.StatusOK)
		}
	}

	if handlerCallCount != 5 {
		t.Errorf("handler call count = %d, want 5", handlerCallCount)
	}
}

func TestRateLimitMiddleware_Returns429WithRetryAfterHeader(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Rate:            0.5, // 2秒に1回
		Burst:           1,
		CleanupInterval: 1 * time.Minute,
	}, discardLogger())
	defer rl.Stop()

	handler := rl.Middleware()(okHandler())

	w1 := httptest.NewRecorder()
	handler.ServeHTTP(w1, newClientRequest("203.0.113.2:40000"))
	if w1.Result().StatusCode != http.StatusOK {
		t.Fatalf("first request: status = %d, want %d", w1.Result().StatusCode, http.StatusOK)
	}

	w2 := httptest.NewRecorder()
	handler.ServeHTTP(w2, newClientRequest("203.0.113.2:40000"))

	resp := w2.Result()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusTooManyRequests)
	}

	retryAfter, err := strconv.Atoi(resp.Header.Get("Retry-After"))
	if err != nil {
		t.Fatalf("Retry-After is not a number: %q", resp.Header.Get("Retry-After"))
	}
	if retryAfter != 2 {
		t.Errorf("Retry-After = %d, want 2", retryAfter)
	}
}

func TestRateLimitMiddleware_429ResponseIsJSON(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Rate:            1,
		Burst:           1,
		CleanupInterval: 1 * time.Minute,
	}, discardLogger())
	defer rl.Stop()

	handler := rl.Middleware()(okHandler())

	handler.ServeHTTP(httptest.NewRecorder(), newClientRequest("203.0.113.3:40000"))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, newClientRequest("203.0.113.3:40000"))

	resp := w.Result()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusTooManyRequests)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}

	var body ErrorResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Code != "RATE_LIMIT_EXCEEDED" {
		t.Errorf("code = %q, want %q", body.Code, "RATE_LIMIT_EXCEEDED")
	}
	if body.Message == "" || body.Category == "" || body.Action == "" {
		t.Errorf("expected all fields to be set: %+v", body)
	}
}

func TestRateLimitMiddleware_IsolatesClients(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Rate:            1,
		Burst:           1,
		CleanupInterval: 1 * time.Minute,
	}, discardLogger())
	defer rl.Stop()

	handler := rl.Middleware()(okHandler())

	wA := httptest.NewRecorder()
	handler.ServeHTTP(wA, newClientRequest("198.51.100.10:1111"))
	if wA.Result().StatusCode != http.StatusOK {
		t.Errorf("client A first request: status = %d, want %d", wA.Result().StatusCode, http.StatusOK)
	}

	// 同じIPならポートが違っても同じクライアントとして扱う
	wA2 := httptest.NewRecorder()
	handler.ServeHTTP(wA2, newClientRequest("198.51.100.10:2222"))
	if wA2.Result().StatusCode != http.StatusTooManyRequests {
		t.Errorf("client A second request: status = %d, want %d", wA2.Result().StatusCode, http.StatusTooManyRequests)
	}

	// クライアントBはAのレートに影響されない
	wB := httptest.NewRecorder()
	handler.ServeHTTP(wB, newClientRequest("198.51.100.20:1111"))
	if wB.Result().StatusCode != http.StatusOK {
		t.Errorf("client B first request: status = %d, want %d", wB.Result().StatusCode, http.StatusOK)
	}

	if rl.LimiterCount() != 2 {
		t.Errorf("LimiterCount = %d, want 2", rl.LimiterCount())
	}
}

func TestRateLimitMiddleware_UsesRealIPBehindProxy(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Rate:            1,
		Burst:           1,
		CleanupInterval: 1 * time.Minute,
	}, discardLogger())
	defer rl.Stop()

	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(rl.Middleware())
	r.Get("/*", okHandler().ServeHTTP)

	// 同じプロキシ経由でも X-Forwarded-For が違えば別クライアント
	for _, ip := range []string{"192.0.2.50", "192.0.2.51"} {
		req := newClientRequest("10.0.0.1:5555")
		req.Header.Set("X-Forwarded-For", ip)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Result().StatusCode != http.StatusOK {
			t.Errorf("client %s: status = %d, want %d", ip, w.Result().StatusCode, http.StatusOK)
		}
	}
}

// --- クリーンアップのテスト ---

func TestRateLimiter_CleanupRemovesExpiredEntries(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Rate:            2,
		Burst:           5,
		CleanupInterval: 50 * time.Millisecond, // テスト用に短く
	}, discardLogger())
	defer rl.Stop()

	handler := rl.Middleware()(okHandler())
	handler.ServeHTTP(httptest.NewRecorder(), newClientRequest("203.0.113.9:40000"))

	if rl.LimiterCount() == 0 {
		t.Fatal("expected at least one limiter entry")
	}

	// TTLはCleanupIntervalの2倍（100ms）。200ms待てば削除されている
	time.Sleep(200 * time.Millisecond)

	if count := rl.LimiterCount(); count != 0 {
		t.Errorf("expected 0 limiter entries after cleanup, got %d", count)
	}
}

func TestRateLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewRateLimiter(NewRateLimiterConfig(120), discardLogger())
	rl.Stop()
	rl.Stop()
}

// --- 設定値のテスト ---

func TestNewRateLimiterConfig_PerMinute(t *testing.T) {
	cfg := NewRateLimiterConfig(120)

	if cfg.Rate != 2.0 { // 120/60 = 2
		t.Errorf("Rate = %f, want 2.0", cfg.Rate)
	}
	if cfg.Burst != 120 {
		t.Errorf("Burst = %d, want 120", cfg.Burst)
	}
	if cfg.CleanupInterval != 5*time.Minute {
		t.Errorf("CleanupInterval = %v, want 5m", cfg.CleanupInterval)
	}
}

func TestNewRateLimiterConfig(t *testing.T) {
	cfg := NewRateLimiterConfig(30)
	if cfg.Rate != 0.5 {
		t.Errorf("Rate = %f, want 0.5", cfg.Rate)
	}
	if cfg.Burst != 30 {
		t.Errorf("Burst = %d, want 30", cfg.Burst)
	}

	clamped := NewRateLimiterConfig(0)
	if clamped.Burst != 1 {
		t.Errorf("Burst = %d, want 1", clamped.Burst)
	}
}

func TestRateLimitMiddleware_LogsToInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	rl := NewRateLimiter(RateLimiterConfig{
		Rate:            0.001,
		Burst:           1,
		CleanupInterval: time.Minute,
	}, logger)
	defer rl.Stop()

	handler := rl.Middleware()(okHandler())
	for i := 0; i < 2; i++ {
		handler.ServeHTTP(httptest.NewRecorder(), newClientRequest("203.0.113.9:40000"))
	}

	out := buf.String()
	if !strings.Contains(out, `"msg":"rate limit exceeded"`) {
		t.Fatalf("レート制限超過が注入したロガーに出力されること: got %s", out)
	}
	if !strings.Contains(out, `"client":"203.0.113.9"`) {
		t.Errorf("クライアントIPが記録されること: got %s", out)
	}
}
