package middleware

import (
	"net/http"
	"net/url"
	"strings"
)

// Visibility はページの認証要件を表す。
type Visibility int

const (
	// VisibilityNeutral は認証状態にかかわらず表示できるページ。
	VisibilityNeutral Visibility = iota
	// VisibilityProtected はログイン必須のページ。
	// 未認証の場合はログインページへリダイレクトする。
	VisibilityProtected
	// VisibilityPublicOnly は未認証時のみ表示するページ（ログイン、サインアップ等）。
	// 認証済みの場合はデフォルトページへリダイレクトする。
	VisibilityPublicOnly
)

const (
	// loginPath は未認証時のリダイレクト先。
	loginPath = "/login"
	// defaultPath は認証済みユーザーのデフォルトページ。
	defaultPath = "/customers"
)

// NewAuthGateMiddleware はページの可視性に応じたリダイレクトを行うミドルウェアを返す。
// SessionMiddlewareの後に配置する。
// Protectedページへの未認証アクセスは、ログイン後に元のページへ戻れるよう
// 要求パスをfromクエリに載せてログインページへ303リダイレクトする。
func NewAuthGateMiddleware(visibility Visibility) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authenticated := SessionFromContext(r.Context()) != nil

			switch visibility {
			case VisibilityProtected:
				if !authenticated {
					http.Redirect(w, r, loginRedirectURL(r), http.StatusSeeOther)
					return
				}
			case VisibilityPublicOnly:
				if authenticated {
					http.Redirect(w, r, authenticatedRedirectURL(r), http.StatusSeeOther)
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

// authenticatedRedirectURL は認証済みユーザーの行き先を返す。
// fromクエリに元のページが載っている場合（期限切れリンクからの再訪等）は
// そこへ戻し、なければデフォルトページへ誘導する。
func authenticatedRedirectURL(r *http.Request) string {
	if from := sameSitePath(r.URL.Query().Get("from")); from != "" {
		return from
	}
	return defaultPath
}

// sameSitePath はリダイレクト先を同一サイト内のパスに制限する。
// オープンリダイレクト防止のため、先頭が単一の "/" 以外の値は破棄する。
func sameSitePath(from string) string {
	if from == "" || !strings.HasPrefix(from, "/") || strings.HasPrefix(from, "//") {
		return ""
	}
	return from
}

// loginRedirectURL は元のページへ戻るためのfromクエリ付きログインURLを生成する。
func loginRedirectURL(r *http.Request) string {
	from := r.URL.Path
	if r.URL.RawQuery != "" {
		from += "?" + r.URL.RawQuery
	}
	if from == "" || from == "/" {
		return loginPath
	}
	return loginPath + "?from=" + url.QueryEscape(from)
}
