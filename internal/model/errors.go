// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError は統一エラーフォーマットを表す。
// 上流APIのHTTPステータスと、UIに表示するメッセージ・対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Status   int    // 上流APIのHTTPステータス（ローカル検証エラーの場合は0）
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, resource, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeUpstreamFailed   = "UPSTREAM_FAILED"
	ErrCodeResourceNotFound = "RESOURCE_NOT_FOUND"
	ErrCodeInvalidRequest   = "INVALID_REQUEST"
	ErrCodePasswordMismatch = "PASSWORD_MISMATCH"
	ErrCodeInvalidBaseURL   = "INVALID_BASE_URL"
)

// ErrUnauthorized は上流APIが401を返したことを示すセンチネルエラー。
// このエラーを受け取った呼び出し元はセッションを破棄し、ログイン画面へ誘導する。
var ErrUnauthorized = &APIError{
	Code:     ErrCodeUnauthorized,
	Status:   http.StatusUnauthorized,
	Message:  "認証の有効期限が切れました。",
	Category: "auth",
	Action:   "もう一度ログインしてください。",
}

// IsUnauthorized はエラーが上流401に由来するかどうかを判定する。
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code == ErrCodeUnauthorized
	}
	return false
}

// AsAPIError はエラーをAPIErrorに変換する。
// APIError以外のエラー（ネットワーク断など）はシステムエラーとして包む。
func AsAPIError(err error) *APIError {
	if err == nil {
		return nil
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return &APIError{
		Code:     ErrCodeUpstreamFailed,
		Message:  "サーバーとの通信に失敗しました。",
		Category: "system",
		Action:   "時間をおいて再度お試しください。",
	}
}

// NewUpstreamError は上流APIの非2xx応答からエラーを生成する。
// serverMessageが空の場合はステータスに応じた既定メッセージを使用する。
func NewUpstreamError(status int, serverMessage string) *APIError {
	if status == http.StatusUnauthorized {
		return ErrUnauthorized
	}

	msg := serverMessage
	if msg == "" {
		msg = fmt.Sprintf("サーバーがエラーを返しました（ステータス %d）。", status)
	}

	category := "system"
	if status >= 400 && status < 500 {
		category = "validation"
	}

	return &APIError{
		Code:     ErrCodeUpstreamFailed,
		Status:   status,
		Message:  msg,
		Category: category,
		Action:   "入力内容を確認し、再度お試しください。",
	}
}

// NewResourceNotFoundError はリソース未検出エラーを生成する。
func NewResourceNotFoundError(resource, id string) *APIError {
	return &APIError{
		Code:     ErrCodeResourceNotFound,
		Status:   http.StatusNotFound,
		Message:  fmt.Sprintf("指定された%sが見つかりません: %s", resourceLabel(resource), id),
		Category: "resource",
		Action:   "一覧から対象を選び直してください。",
	}
}

// NewValidationError は入力検証エラーを生成する。ネットワーク呼び出し前に使用する。
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  message,
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewPasswordMismatchError はパスワード確認の不一致エラーを生成する。
func NewPasswordMismatchError() *APIError {
	return &APIError{
		Code:     ErrCodePasswordMismatch,
		Message:  "パスワードと確認用パスワードが一致しません。",
		Category: "validation",
		Action:   "同じパスワードを2回入力してください。",
	}
}

// NewInvalidBaseURLError は上流APIベースURLの検証エラーを生成する。
// 起動時のAPI_BASE_URL検証で使用し、失敗した場合サーバーは起動を中止する。
func NewInvalidBaseURLError(detail string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidBaseURL,
		Message:  fmt.Sprintf("上流APIのベースURLが不正です: %s", detail),
		Category: "system",
		Action:   "API_BASE_URLの設定を確認してください。",
	}
}

// resourceLabel はリソース名の日本語表記を返す。
func resourceLabel(resource string) string {
	switch resource {
	case "customers":
		return "顧客"
	case "products":
		return "商品"
	case "orders":
		return "注文"
	case "sales":
		return "販売"
	default:
		return "リソース"
	}
}
