package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func testRateLimiterConfig() RateLimiterConfig {
	return RateLimiterConfig{
		GeneralRate:     rate.Limit(1),
		GeneralBurst:    2,
		MutationRate:    rate.Limit(1),
		MutationBurst:   1,
		CleanupInterval: time.Hour,
	}
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

// TestRateLimiter_GeneralAllowsWithinBurst はバースト内のリクエストが
// 通過することを検証する。
func TestRateLimiter_GeneralAllowsWithinBurst(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/customers", nil)
		req = req.WithContext(ContextWithSession(req.Context(), testSession()))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i+1, rec.Code)
		}
	}
}

// TestRateLimiter_GeneralRejectsOverBurst はバースト超過のリクエストが
// 429とRetry-Afterヘッダーで拒否されることを検証する。
func TestRateLimiter_GeneralRejectsOverBurst(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/customers", nil)
		req = req.WithContext(ContextWithSession(req.Context(), testSession()))
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", last.Code)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Error("Retry-Afterヘッダーが設定されていない")
	}
}

// TestRateLimiter_SeparateClients は別クライアントのリクエストが
// 独立したリミッターで管理されることを検証する。
func TestRateLimiter_SeparateClients(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	handler := rl.MutationMiddleware()(okHandler())

	// クライアント1がバーストを使い切る
	req1 := httptest.NewRequest(http.MethodPost, "/customers", nil)
	req1.RemoteAddr = "10.0.0.1:12345"
	handler.ServeHTTP(httptest.NewRecorder(), req1)

	rec1 := httptest.NewRecorder()
	req1b := httptest.NewRequest(http.MethodPost, "/customers", nil)
	req1b.RemoteAddr = "10.0.0.1:12345"
	handler.ServeHTTP(rec1, req1b)
	if rec1.Code != http.StatusTooManyRequests {
		t.Fatalf("client1 second request: status = %d, want 429", rec1.Code)
	}

	// クライアント2は影響を受けない
	req2 := httptest.NewRequest(http.MethodPost, "/customers", nil)
	req2.RemoteAddr = "10.0.0.2:12345"
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusOK {
		t.Errorf("client2: status = %d, want 200", rec2.Code)
	}

	if rl.MutationLimiterCount() != 2 {
		t.Errorf("リミッターエントリ数 = %d, want 2", rl.MutationLimiterCount())
	}
}

// TestRateLimiter_SessionKeyPreferred は認証済みリクエストのキーが
// 接続元IPではなくセッションIDになることを検証する。
func TestRateLimiter_SessionKeyPreferred(t *testing.T) {
	rl := NewRateLimiter(testRateLimiterConfig())
	defer rl.Stop()

	handler := rl.MutationMiddleware()(okHandler())

	// 同一IPでも別セッションなら独立のリミッター
	for _, sessionID := range []string{"sess-a", "sess-b"} {
		req := httptest.NewRequest(http.MethodPost, "/customers", nil)
		req.RemoteAddr = "10.0.0.1:12345"
		session := testSession()
		session.ID = sessionID
		req = req.WithContext(ContextWithSession(req.Context(), session))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("session %s: status = %d, want 200", sessionID, rec.Code)
		}
	}

	if rl.MutationLimiterCount() != 2 {
		t.Errorf("リミッターエントリ数 = %d, want 2", rl.MutationLimiterCount())
	}
}

// TestRateLimiter_Cleanup は期限切れエントリがクリーンアップで
// 削除されることを検証する。
func TestRateLimiter_Cleanup(t *testing.T) {
	config := testRateLimiterConfig()
	config.CleanupInterval = 10 * time.Millisecond
	rl := NewRateLimiter(config)
	defer rl.Stop()

	handler := rl.GeneralMiddleware()(okHandler())
	req := httptest.NewRequest(http.MethodGet, "/customers", nil)
	req.RemoteAddr = "10.0.0.1:12345"
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if rl.GeneralLimiterCount() != 1 {
		t.Fatalf("リミッターエントリ数 = %d, want 1", rl.GeneralLimiterCount())
	}

	// クリーンアップ（TTL = interval * 2 = 20ms）を待つ
	deadline := time.Now().Add(2 * time.Second)
	for rl.GeneralLimiterCount() > 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if rl.GeneralLimiterCount() != 0 {
		t.Error("期限切れエントリが削除されていない")
	}
}
