// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TextSanitizerService はユーザーが入力したテキストフィールド
// （顧客名・備考など）をサニタイズし、画面描画時のXSSからユーザーを保護する。
// bluemondayのStrictPolicyを使用し、HTMLタグをすべて除去してプレーンテキスト
// のみを通過させる。業務データのフィールドにマークアップは不要なため、
// 許可リスト方式ではなく全除去方式を採用する。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizerService はテキストのサニタイズ機能のインターフェースを定義する。
// フォーム入力の受理時と画面描画前に使用される。
type TextSanitizerService interface {
	// Sanitize は入力テキストからHTMLタグをすべて除去し、前後の空白を取り除く。
	// 空文字列の入力には空文字列を返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	Sanitize(raw string) string
}

// textSanitizer はTextSanitizerServiceの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerServiceの新しいインスタンスを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{
		// StrictPolicy: タグをすべて除去しテキストのみを残す
		policy: bluemonday.StrictPolicy(),
	}
}

// Sanitize は入力テキストからHTMLタグを除去して返す。
func (s *textSanitizer) Sanitize(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(s.policy.Sanitize(raw))
}

// compile-time interface check
var _ TextSanitizerService = (*textSanitizer)(nil)
