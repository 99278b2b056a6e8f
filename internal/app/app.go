package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/shopman/internal/apiclient"
	"github.com/hitoshi/shopman/internal/config"
	"github.com/hitoshi/shopman/internal/database"
	"github.com/hitoshi/shopman/internal/handler"
	"github.com/hitoshi/shopman/internal/logger"
	"github.com/hitoshi/shopman/internal/metrics"
	"github.com/hitoshi/shopman/internal/middleware"
	"github.com/hitoshi/shopman/internal/repository"
	"github.com/hitoshi/shopman/internal/security"
	"github.com/hitoshi/shopman/internal/session"
	"github.com/hitoshi/shopman/internal/state"
	"github.com/hitoshi/shopman/internal/view"
)

// storeMaxIdle はセッションごとの画面状態キャッシュを破棄するまでのアイドル時間。
const storeMaxIdle = 30 * time.Minute

// sessionCleanupInterval は期限切れセッション行の削除間隔。
const sessionCleanupInterval = 1 * time.Hour

// Init はアプリケーションの初期化を行う。
// .envファイル（存在する場合）と環境変数からConfigを読み込み、
// JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. .envファイルの読み込み（ローカル開発用。存在しなくてもエラーにしない）
	_ = godotenv.Load()

	// 2. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 3. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
		slog.String("api_base_url", cfg.APIBaseURL),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はWebサーバーモードで起動する。
// セッションDB接続を開き、上流APIクライアントと全依存関係をワイヤリングし、
// HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. セッションDB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	sessionRepo := repository.NewPostgresSessionRepo(db)

	// 2. 上流APIクライアントの構築
	// STRICT_OUTBOUND構成ではSSRF防止クライアントを使用する。
	guard := security.NewOutboundGuard()
	if err := guard.ValidateBaseURL(cfg.APIBaseURL, cfg.StrictOutbound); err != nil {
		return fmt.Errorf("invalid API base URL: %w", err)
	}

	var httpClient *http.Client
	if cfg.StrictOutbound {
		httpClient = guard.NewSafeClient(cfg.APITimeout)
	} else {
		httpClient = &http.Client{Timeout: cfg.APITimeout}
	}

	promRegistry := prometheus.NewRegistry()
	collector := metrics.NewCollector(promRegistry)

	api := apiclient.NewClient(httpClient, cfg.APIBaseURL, slog.Default(), collector)

	// 3. セッションごとの画面状態レジストリ
	registry := state.NewRegistry(api, storeMaxIdle, slog.Default())
	defer registry.Stop()

	// 4. セッションサービスとビュー
	sessionService := session.NewService(api, sessionRepo, session.ServiceConfig{
		SessionMaxAge: cfg.SessionMaxAge,
	})

	renderer, err := view.NewRenderer(collector, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to build renderer: %w", err)
	}

	// 5. ルーターの構築
	// configのレート制限はreq/min単位なのでreq/secに変換する
	rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		GeneralRate:     rate.Limit(float64(cfg.RateLimitGeneral) / 60.0),
		GeneralBurst:    cfg.RateLimitGeneral,
		MutationRate:    rate.Limit(float64(cfg.RateLimitMutation) / 60.0),
		MutationBurst:   cfg.RateLimitMutation,
		CleanupInterval: 5 * time.Minute,
	})

	deps := &handler.RouterDeps{
		Logger:        slog.Default(),
		Renderer:      renderer,
		HealthChecker: db,

		SessionFinder: sessionRepo,
		RateLimiter:   rateLimiter,
		CSRFConfig: middleware.CSRFConfig{
			CookieSecure: cfg.CookieSecure,
			CookieDomain: cfg.CookieDomain,
		},

		SessionService: sessionService,
		AuthConfig: handler.AuthHandlerConfig{
			SessionMaxAge: cfg.SessionMaxAge,
			CookieSecure:  cfg.CookieSecure,
			CookieDomain:  cfg.CookieDomain,
		},

		Registry:  registry,
		API:       api,
		Sanitizer: security.NewTextSanitizer(),
		PageLimit: cfg.PageLimit,

		MetricsHandler: metrics.Handler(promRegistry),
	}

	router := handler.NewRouter(deps)

	// 6. 期限切れセッションの定期削除
	cleanupCtx, cancelCleanup := context.WithCancel(context.Background())
	defer cancelCleanup()
	go cleanupExpiredSessions(cleanupCtx, sessionRepo)

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("web server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down web server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("web server stopped gracefully")
	return nil
}

// cleanupExpiredSessions は期限切れセッション行を定期的に削除する。
// 起動直後に1回実行し、以降は一定間隔で繰り返す。
func cleanupExpiredSessions(ctx context.Context, repo repository.SessionRepository) {
	run := func() {
		deleted, err := repo.DeleteExpired(ctx, time.Now())
		if err != nil {
			slog.Error("session cleanup failed", slog.String("error", err.Error()))
			return
		}
		if deleted > 0 {
			slog.Info("expired sessions deleted", slog.Int64("count", deleted))
		}
	}

	run()

	ticker := time.NewTicker(sessionCleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run()
		}
	}
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /healthz エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/healthz", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
