package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/hitoshi/shopman/internal/model"
)

// AuthResult は認証エンドポイントの応答を表す。
// 認証操作のたびにユーザー情報は丸ごと置き換えられる。
type AuthResult struct {
	User  model.User `json:"user"`
	Token string     `json:"token"`
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// signupRequest はサインアップリクエストのボディ。
type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login はメールアドレスとパスワードでログインし、ユーザー情報とトークンを返す。
// 認証失敗（401）はmodel.ErrUnauthorizedではなく資格情報エラーとして返す
// （セッション破棄ではなくフォームへのエラー表示が正しい動作のため）。
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var result AuthResult
	err := c.do(ctx, http.MethodPost, "/users/login", "", nil, loginRequest{Email: email, Password: password}, &result)
	if err != nil {
		if model.IsUnauthorized(err) {
			return nil, model.NewValidationError("メールアドレスまたはパスワードが正しくありません。")
		}
		return nil, err
	}
	return &result, nil
}

// Signup は新規ユーザーを登録する。
// 登録直後はアカウントが未有効化の場合があり、その場合Tokenは空になる。
func (c *Client) Signup(ctx context.Context, name, email, password string) (*AuthResult, error) {
	var result AuthResult
	err := c.do(ctx, http.MethodPost, "/users/signup", "", nil, signupRequest{Name: name, Email: email, Password: password}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Activate は有効化トークンでアカウントを有効化し、ログイン済み状態を返す。
func (c *Client) Activate(ctx context.Context, activationToken string) (*AuthResult, error) {
	var result AuthResult
	err := c.do(ctx, http.MethodPost, "/users/activate/"+url.PathEscape(activationToken), "", nil, nil, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Me は現在のトークンに対応するユーザーを返す（認証状態の確認）。
// トークンが無効な場合はmodel.ErrUnauthorizedを返す。
func (c *Client) Me(ctx context.Context, token string) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodGet, "/users/me", token, nil, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout は上流APIのログアウトを呼び出す。
// 上流側の失敗はローカルセッション破棄を妨げない（呼び出し元はエラーをログに留める）。
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/users/logout", token, nil, nil, nil)
}
