package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/shopman/internal/middleware"
	"github.com/hitoshi/shopman/internal/model"
	"github.com/hitoshi/shopman/internal/session"
	"github.com/hitoshi/shopman/internal/view"
)

// SessionServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type SessionServiceInterface interface {
	// Login は認証してセッションを発行する。
	Login(ctx context.Context, email, password string) (*model.Session, error)
	// Signup は新規登録する。有効化待ちの場合SignupResult.Sessionはnil。
	Signup(ctx context.Context, name, email, password, passwordConfirm string) (*session.SignupResult, error)
	// Activate はアカウントを有効化してセッションを発行する。
	Activate(ctx context.Context, activationToken string) (*model.Session, error)
	// Logout はセッションを破棄する。
	Logout(ctx context.Context, sessionID string) error
}

// StoreDeleter はログアウト時にセッションの画面状態を破棄するためのインターフェース。
type StoreDeleter interface {
	Delete(sessionID string)
}

// AuthHandlerConfig は認証ハンドラーの設定。
type AuthHandlerConfig struct {
	SessionMaxAge int // セッションCookieの有効期間（秒）
	CookieSecure  bool
	CookieDomain  string
}

// AuthHandler はログイン・サインアップ・有効化・ログアウトのHTTPハンドラー。
type AuthHandler struct {
	service  SessionServiceInterface
	stores   StoreDeleter
	renderer *view.Renderer
	config   AuthHandlerConfig
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service SessionServiceInterface, stores StoreDeleter, renderer *view.Renderer, config AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		service:  service,
		stores:   stores,
		renderer: renderer,
		config:   config,
	}
}

// ShowLogin はログインページを表示する。
// GET /login
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "login", loginPage(r, view.LoginData{
		From: safeReturnPath(r.URL.Query().Get("from")),
	}))
}

// Login はログインフォームの送信を処理する。
// POST /login
// 成功時はfromパラメータのページ（なければ顧客一覧）へリダイレクトする。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	email := formValue(r, "email")
	password := r.PostFormValue("password")
	from := safeReturnPath(r.PostFormValue("from"))

	sess, err := h.service.Login(r.Context(), email, password)
	if err != nil {
		h.renderer.Render(w, http.StatusUnprocessableEntity, "login", loginPage(r, view.LoginData{
			Email: email,
			From:  from,
			Err:   model.AsAPIError(err).Message,
		}))
		return
	}

	setSessionCookie(w, sess.ID, h.config.SessionMaxAge, h.config.CookieSecure, h.config.CookieDomain)

	if from == "" {
		from = "/customers"
	}
	http.Redirect(w, r, from, http.StatusSeeOther)
}

// ShowSignup はサインアップページを表示する。
// GET /signup
func (h *AuthHandler) ShowSignup(w http.ResponseWriter, r *http.Request) {
	h.renderer.Render(w, http.StatusOK, "signup", signupPage(r, view.SignupData{}))
}

// Signup はサインアップフォームの送信を処理する。
// POST /signup
// 即時有効化された場合はそのままログイン状態にし、
// 有効化待ちの場合は確認メール案内ページを表示する。
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	name := formValue(r, "name")
	email := formValue(r, "email")
	password := r.PostFormValue("password")
	passwordConfirm := r.PostFormValue("passwordConfirm")

	result, err := h.service.Signup(r.Context(), name, email, password, passwordConfirm)
	if err != nil {
		h.renderer.Render(w, http.StatusUnprocessableEntity, "signup", signupPage(r, view.SignupData{
			Name:  name,
			Email: email,
			Err:   model.AsAPIError(err).Message,
		}))
		return
	}

	if result.Session == nil {
		page := pageFor(r, "アカウント有効化", "")
		page.Content = view.ActivateData{Pending: true}
		h.renderer.Render(w, http.StatusOK, "activate", page)
		return
	}

	setSessionCookie(w, result.Session.ID, h.config.SessionMaxAge, h.config.CookieSecure, h.config.CookieDomain)
	http.Redirect(w, r, "/customers", http.StatusSeeOther)
}

// Activate は有効化メールのリンクを処理する。
// GET /activate/{token}
// 成功時はログイン状態にして顧客一覧へリダイレクトする。
func (h *AuthHandler) Activate(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	sess, err := h.service.Activate(r.Context(), token)
	if err != nil {
		page := pageFor(r, "アカウント有効化", "")
		page.Content = view.ActivateData{Err: model.AsAPIError(err).Message}
		h.renderer.Render(w, http.StatusUnprocessableEntity, "activate", page)
		return
	}

	setSessionCookie(w, sess.ID, h.config.SessionMaxAge, h.config.CookieSecure, h.config.CookieDomain)
	http.Redirect(w, r, "/customers", http.StatusSeeOther)
}

// Logout はログアウトを処理する。
// POST /logout
// セッションと画面状態を破棄し、Cookieを失効させてログインページへリダイレクトする。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if sess := middleware.SessionFromContext(r.Context()); sess != nil {
		if err := h.service.Logout(r.Context(), sess.ID); err != nil {
			slog.Error("logout failed",
				slog.String("session_id", sess.ID),
				slog.String("error", err.Error()),
			)
		}
		h.stores.Delete(sess.ID)
	}

	clearSessionCookie(w, h.config.CookieSecure, h.config.CookieDomain)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// loginPage はログインページのレイアウトデータを組み立てる。
func loginPage(r *http.Request, data view.LoginData) view.Page {
	page := pageFor(r, "ログイン", "")
	page.UserName = "" // 認証ページではナビゲーションを出さない
	page.Content = data
	return page
}

// signupPage はサインアップページのレイアウトデータを組み立てる。
func signupPage(r *http.Request, data view.SignupData) view.Page {
	page := pageFor(r, "サインアップ", "")
	page.UserName = ""
	page.Content = data
	return page
}

// safeReturnPath はログイン後のリダイレクト先を同一サイト内のパスに制限する。
// オープンリダイレクト防止のため、先頭が単一の "/" 以外の値は破棄する。
func safeReturnPath(from string) string {
	if from == "" || !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") {
		return ""
	}
	return from
}
