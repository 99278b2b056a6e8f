package handler

import (
	"log/slog"
	"net/http"
	"net/url"

	"github.com/hitoshi/shopman/internal/apiclient"
	"github.com/hitoshi/shopman/internal/middleware"
	"github.com/hitoshi/shopman/internal/model"
	"github.com/hitoshi/shopman/internal/security"
	"github.com/hitoshi/shopman/internal/state"
	"github.com/hitoshi/shopman/internal/view"
)

// Deps はリソースハンドラーが共有する依存関係。
type Deps struct {
	Registry  *state.Registry
	API       *apiclient.Client
	Renderer  *view.Renderer
	Sanitizer security.TextSanitizerService
	Logger    *slog.Logger

	PageLimit    int // 一覧の1ページあたりの件数
	CookieSecure bool
	CookieDomain string
}

// storeFor はリクエストのセッションに対応する画面状態を返す。
// 認証ゲートを通過したリクエストでのみ呼び出すこと。
func (d *Deps) storeFor(r *http.Request) (*state.Store, *model.Session) {
	sess := middleware.SessionFromContext(r.Context())
	if sess == nil {
		return nil, nil
	}
	return d.Registry.Get(sess.ID, sess.Token), sess
}

// handleUnauthorized は上流トークン失効時の強制ログアウトを行う。
// セッションCookieを失効させ、元のページへ戻れるようfromクエリ付きで
// ログインページへリダイレクトする。
func (d *Deps) handleUnauthorized(w http.ResponseWriter, r *http.Request) {
	if sess := middleware.SessionFromContext(r.Context()); sess != nil {
		d.Registry.Delete(sess.ID)
	}
	clearSessionCookie(w, d.CookieSecure, d.CookieDomain)

	from := r.URL.Path
	if r.URL.RawQuery != "" && r.Method == http.MethodGet {
		from += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, "/login?from="+url.QueryEscape(from), http.StatusSeeOther)
}

// renderNotFound は404ページを表示する。
func (d *Deps) renderNotFound(w http.ResponseWriter, r *http.Request, apiErr *model.APIError) {
	d.Renderer.RenderError(w, http.StatusNotFound, pageFor(r, "", ""), apiErr.Message)
}

// sanitize はユーザー入力の自由記述テキストを無害化する。
func (d *Deps) sanitize(raw string) string {
	return d.Sanitizer.Sanitize(raw)
}
