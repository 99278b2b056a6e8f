package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func csrfHandler() http.Handler {
	return NewCSRFMiddleware(CSRFConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
}

// TestCSRF_SafeMethodSetsCookie はGETリクエストでCSRFトークンCookieが
// 設定され、トークンがコンテキスト経由で取得できることを検証する。
func TestCSRF_SafeMethodSetsCookie(t *testing.T) {
	var ctxToken string
	handler := NewCSRFMiddleware(CSRFConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxToken = CSRFTokenFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/customers", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var cookieToken string
	for _, c := range rec.Result().Cookies() {
		if c.Name == csrfCookieName {
			cookieToken = c.Value
		}
	}
	if cookieToken == "" {
		t.Fatal("CSRFトークンCookieが設定されていない")
	}
	if ctxToken != cookieToken {
		t.Errorf("コンテキストのトークンとCookieのトークンが一致しない: %s != %s", ctxToken, cookieToken)
	}
}

// TestCSRF_PostWithValidToken はCookieとフォームフィールドのトークンが
// 一致するPOSTが通過することを検証する。
func TestCSRF_PostWithValidToken(t *testing.T) {
	form := url.Values{}
	form.Set(CSRFFieldName, "token-abc")

	req := httptest.NewRequest(http.MethodPost, "/customers", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "token-abc"})

	rec := httptest.NewRecorder()
	csrfHandler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

// TestCSRF_PostWithoutToken はフォームフィールドのトークンがないPOSTが
// 403で拒否されることを検証する。
func TestCSRF_PostWithoutToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/customers", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "token-abc"})

	rec := httptest.NewRecorder()
	csrfHandler().ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

// TestCSRF_PostWithMismatchedToken はトークン不一致のPOSTが403で
// 拒否されることを検証する。
func TestCSRF_PostWithMismatchedToken(t *testing.T) {
	form := url.Values{}
	form.Set(CSRFFieldName, "token-xyz")

	req := httptest.NewRequest(http.MethodPost, "/customers", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "token-abc"})

	rec := httptest.NewRecorder()
	csrfHandler().ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

// TestCSRF_PostWithoutCookie はCookieなしのPOSTが403で拒否されることを検証する。
func TestCSRF_PostWithoutCookie(t *testing.T) {
	form := url.Values{}
	form.Set(CSRFFieldName, "token-abc")

	req := httptest.NewRequest(http.MethodPost, "/customers", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := httptest.NewRecorder()
	csrfHandler().ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

// TestCSRF_ExistingCookieReused は既存のCSRFトークンCookieがあるGETで
// 新しいCookieが発行されないことを検証する。
func TestCSRF_ExistingCookieReused(t *testing.T) {
	var ctxToken string
	handler := NewCSRFMiddleware(CSRFConfig{})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctxToken = CSRFTokenFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/customers", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "existing-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name == csrfCookieName {
			t.Error("既存トークンがある場合は新しいCookieを発行してはならない")
		}
	}
	if ctxToken != "existing-token" {
		t.Errorf("既存トークンがコンテキストに注入されるはず: %s", ctxToken)
	}
}
