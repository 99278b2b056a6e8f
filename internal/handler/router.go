package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/shopman/internal/apiclient"
	"github.com/hitoshi/shopman/internal/middleware"
	"github.com/hitoshi/shopman/internal/security"
	"github.com/hitoshi/shopman/internal/state"
	"github.com/hitoshi/shopman/internal/view"
)

// HealthChecker はヘルスチェック時の依存先疎通確認のインターフェースを定義する。
// *sql.DBがそのまま実装する。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Logger   *slog.Logger
	Renderer *view.Renderer

	// ヘルスチェック
	HealthChecker HealthChecker

	// ミドルウェア依存
	SessionFinder middleware.SessionFinder
	RateLimiter   *middleware.RateLimiter
	CSRFConfig    middleware.CSRFConfig

	// 認証
	SessionService SessionServiceInterface
	AuthConfig     AuthHandlerConfig

	// リソースページ
	Registry  *state.Registry
	API       *apiclient.Client
	Sanitizer security.TextSanitizerService
	PageLimit int

	// 運用エンドポイント
	MetricsHandler http.Handler
}

// NewRouter は全ページのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → Session → CSRF → RateLimit(General)
//
// 運用エンドポイント（/healthz, /metrics）と静的ファイルはチェーンの外に配置する。
// ページはAuthGateの可視性（Protected / PublicOnly / Neutral）でグループ分けする。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// --- 運用エンドポイント（ミドルウェアチェーンの外） ---
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if deps.HealthChecker != nil {
			if err := deps.HealthChecker.PingContext(req.Context()); err != nil {
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}
	r.Handle("/static/*", view.StaticHandler())

	resourceDeps := &Deps{
		Registry:     deps.Registry,
		API:          deps.API,
		Renderer:     deps.Renderer,
		Sanitizer:    deps.Sanitizer,
		Logger:       deps.Logger,
		PageLimit:    deps.PageLimit,
		CookieSecure: deps.AuthConfig.CookieSecure,
		CookieDomain: deps.AuthConfig.CookieDomain,
	}

	authHandler := NewAuthHandler(deps.SessionService, deps.Registry, deps.Renderer, deps.AuthConfig)
	customerHandler := NewCustomerHandler(resourceDeps)
	productHandler := NewProductHandler(resourceDeps)
	orderHandler := NewOrderHandler(resourceDeps)
	saleHandler := NewSaleHandler(resourceDeps)

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewRecoveryMiddleware())
		r.Use(middleware.NewLoggingMiddleware(deps.Logger))
		r.Use(middleware.NewSecurityHeadersMiddleware())
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		mutation := deps.RateLimiter.MutationMiddleware()

		// --- 未認証時のみ表示するページ ---
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewAuthGateMiddleware(middleware.VisibilityPublicOnly))

			r.Get("/login", authHandler.ShowLogin)
			r.With(mutation).Post("/login", authHandler.Login)
			r.Get("/signup", authHandler.ShowSignup)
			r.With(mutation).Post("/signup", authHandler.Signup)
		})

		// --- 認証状態にかかわらず表示するページ ---
		r.Get("/activate/{token}", authHandler.Activate)

		// --- ログイン必須のページ ---
		r.Group(func(r chi.Router) {
			r.Use(middleware.NewAuthGateMiddleware(middleware.VisibilityProtected))

			// デフォルトページ
			r.Get("/", func(w http.ResponseWriter, req *http.Request) {
				http.Redirect(w, req, "/customers", http.StatusSeeOther)
			})

			r.Post("/logout", authHandler.Logout)

			// 顧客
			r.Route("/customers", func(r chi.Router) {
				r.Get("/", customerHandler.List)
				r.Get("/new", customerHandler.New)
				r.With(mutation).Post("/", customerHandler.Create)
				r.Get("/{id}/edit", customerHandler.Edit)
				r.With(mutation).Post("/{id}", customerHandler.Update)
				r.With(mutation).Post("/{id}/delete", customerHandler.Delete)
			})

			// 商品
			r.Route("/products", func(r chi.Router) {
				r.Get("/", productHandler.List)
				r.Get("/new", productHandler.New)
				r.With(mutation).Post("/", productHandler.Create)
				r.Get("/{id}/edit", productHandler.Edit)
				r.With(mutation).Post("/{id}", productHandler.Update)
				r.With(mutation).Post("/{id}/delete", productHandler.Delete)
			})

			// 注文
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", orderHandler.List)
				r.Get("/new", orderHandler.New)
				r.With(mutation).Post("/", orderHandler.Create)
				r.Get("/{id}/edit", orderHandler.Edit)
				r.With(mutation).Post("/{id}", orderHandler.Update)
				r.With(mutation).Post("/{id}/delete", orderHandler.Delete)
			})

			// 販売
			r.Route("/sales", func(r chi.Router) {
				r.Get("/", saleHandler.List)
				r.Get("/new", saleHandler.New)
				r.With(mutation).Post("/", saleHandler.Create)
				r.Get("/{id}/edit", saleHandler.Edit)
				r.With(mutation).Post("/{id}", saleHandler.Update)
				r.With(mutation).Post("/{id}/delete", saleHandler.Delete)
			})
		})

		// 未定義のページは404
		r.NotFound(func(w http.ResponseWriter, req *http.Request) {
			deps.Renderer.RenderError(w, http.StatusNotFound, pageFor(req, "", ""), "ページが見つかりません。")
		})
	})

	return r
}
