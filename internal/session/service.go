// Package session はログインセッションの発行と破棄を提供する。
// 上流APIのベアラートークンをサーバー側セッションに保持し、
// ブラウザにはセッションIDのみを渡す。
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/shopman/internal/apiclient"
	"github.com/hitoshi/shopman/internal/model"
	"github.com/hitoshi/shopman/internal/repository"
)

// UpstreamAuth は上流APIの認証エンドポイントへのインターフェース。
type UpstreamAuth interface {
	// Login はメールアドレスとパスワードで認証し、ユーザーとトークンを返す。
	Login(ctx context.Context, email, password string) (*apiclient.AuthResult, error)
	// Signup は新規ユーザーを登録する。
	Signup(ctx context.Context, name, email, password string) (*apiclient.AuthResult, error)
	// Activate は有効化トークンでアカウントを有効化する。
	Activate(ctx context.Context, activationToken string) (*apiclient.AuthResult, error)
	// Me はトークンに対応するユーザーを返す。
	Me(ctx context.Context, token string) (*model.User, error)
	// Logout は上流APIのログアウトを呼び出す。
	Logout(ctx context.Context, token string) error
}

// ServiceConfig はセッションサービスの設定。
type ServiceConfig struct {
	SessionMaxAge int // セッション有効期間（秒）
}

// Service はセッションに関するビジネスロジックを提供する。
type Service struct {
	upstream    UpstreamAuth
	sessionRepo repository.SessionRepository
	config      ServiceConfig
}

// NewService はServiceを生成する。
func NewService(upstream UpstreamAuth, sessionRepo repository.SessionRepository, config ServiceConfig) *Service {
	return &Service{
		upstream:    upstream,
		sessionRepo: sessionRepo,
		config:      config,
	}
}

// Login は上流APIで認証し、成功した場合セッションを発行する。
// 認証失敗は資格情報エラーとして返る（フォームにエラー表示するため）。
func (s *Service) Login(ctx context.Context, email, password string) (*model.Session, error) {
	if email == "" || password == "" {
		return nil, model.NewValidationError("メールアドレスとパスワードを入力してください。")
	}

	result, err := s.upstream.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}

	session, err := s.createSession(ctx, result)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("user logged in",
		slog.String("user_id", session.UserID),
		slog.String("session_id", session.ID),
	)
	return session, nil
}

// SignupResult はサインアップの結果を表す。
// アカウントが未有効化の場合Sessionはnilとなり、有効化メールの案内を表示する。
type SignupResult struct {
	User    model.User
	Session *model.Session
}

// Signup は上流APIで新規ユーザーを登録する。
// パスワードと確認用パスワードの一致はネットワーク到達前に検証する。
// 登録と同時にトークンが発行された場合はそのままセッションを発行する。
func (s *Service) Signup(ctx context.Context, name, email, password, passwordConfirm string) (*SignupResult, error) {
	if name == "" || email == "" || password == "" {
		return nil, model.NewValidationError("すべての項目を入力してください。")
	}
	if password != passwordConfirm {
		return nil, model.NewPasswordMismatchError()
	}

	result, err := s.upstream.Signup(ctx, name, email, password)
	if err != nil {
		return nil, err
	}

	out := &SignupResult{User: result.User}

	// トークンなしの応答は有効化待ちを意味する
	if result.Token != "" {
		session, err := s.createSession(ctx, result)
		if err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
		out.Session = session
	}

	slog.Info("user signed up",
		slog.String("user_id", result.User.ID),
		slog.Bool("activated", out.Session != nil),
	)
	return out, nil
}

// Activate は有効化トークンでアカウントを有効化し、セッションを発行する。
func (s *Service) Activate(ctx context.Context, activationToken string) (*model.Session, error) {
	if activationToken == "" {
		return nil, model.NewValidationError("有効化トークンが指定されていません。")
	}

	result, err := s.upstream.Activate(ctx, activationToken)
	if err != nil {
		return nil, err
	}

	session, err := s.createSession(ctx, result)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	slog.Info("account activated",
		slog.String("user_id", session.UserID),
	)
	return session, nil
}

// Logout は上流APIのログアウトを呼び出し、ローカルセッションを破棄する。
// 上流側の失敗はログに留め、ローカルセッションの削除は常に行う。
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID is required")
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to find session: %w", err)
	}

	if session != nil {
		if err := s.upstream.Logout(ctx, session.Token); err != nil {
			slog.Warn("upstream logout failed",
				slog.String("session_id", sessionID),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := s.sessionRepo.DeleteByID(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	slog.Info("user logged out", slog.String("session_id", sessionID))
	return nil
}

// CurrentUser はセッションのトークンで上流APIに認証状態を確認する。
// トークンが失効していた場合はローカルセッションを破棄し、
// model.ErrUnauthorizedを返す。
func (s *Service) CurrentUser(ctx context.Context, sessionID string) (*model.User, error) {
	if sessionID == "" {
		return nil, model.ErrUnauthorized
	}

	session, err := s.sessionRepo.FindByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session: %w", err)
	}
	if session == nil {
		return nil, model.ErrUnauthorized
	}

	user, err := s.upstream.Me(ctx, session.Token)
	if err != nil {
		if model.IsUnauthorized(err) {
			if delErr := s.sessionRepo.DeleteByID(ctx, sessionID); delErr != nil {
				slog.Warn("failed to delete stale session",
					slog.String("session_id", sessionID),
					slog.String("error", delErr.Error()),
				)
			}
		}
		return nil, err
	}

	return user, nil
}

// createSession はセッションを作成し永続化する。
func (s *Service) createSession(ctx context.Context, result *apiclient.AuthResult) (*model.Session, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := time.Now()
	session := &model.Session{
		ID:        sessionID,
		UserID:    result.User.ID,
		UserName:  result.User.Name,
		UserEmail: result.User.Email,
		Token:     result.Token,
		ExpiresAt: now.Add(time.Duration(s.config.SessionMaxAge) * time.Second),
		CreatedAt: now,
	}

	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	return session, nil
}

// generateSessionID は暗号的に安全なセッションIDを生成する。
func generateSessionID() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}
