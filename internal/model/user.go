// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
// 認証操作のたびに上流APIの応答で丸ごと置き換えられる。
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Session はユーザーのログインセッションを表す。
// 上流APIのベアラートークンはサーバー側のセッション行にのみ保存し、
// ブラウザにはHttpOnlyのセッションID Cookieだけを渡す。
type Session struct {
	ID        string
	UserID    string
	UserName  string
	UserEmail string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
}
