package view

import "github.com/hitoshi/shopman/internal/model"

// ListData は一覧ページの共通データ。
type ListData[T any] struct {
	Items       []T
	Total       int    // フィルタ一致件数（取得済み件数ではない）
	HasMore     bool   // 未取得のページが残っているか
	LoadMoreURL string // 「さらに読み込む」リンクのURL（HasMoreが偽なら空）
	Search      string
	SortBy      string
	Direction   string
	Filters     any    // リソース固有のフィルタ値
	Err         string // 取得に失敗した場合のエラーメッセージ
}

// SaleListFilters は販売一覧のフィルタ値。
// チェックボックス・日付入力の値をフォームに戻すための文字列表現。
type SaleListFilters struct {
	From          string
	To            string
	Owes          bool
	ThirteenDozen bool
}

// OrderListFilters は注文一覧のフィルタ値。
type OrderListFilters struct {
	From       string
	To         string
	CustomerID string
	Customers  []model.Customer // 顧客フィルタの選択肢
}

// ProductListFilters は商品一覧のフィルタ値。
type ProductListFilters struct {
	Type  string
	Types []string // 商品種別フィルタの選択肢
}

// LoginData はログインページのデータ。
type LoginData struct {
	Email string
	From  string // ログイン後に戻るページのパス
	Err   string
}

// SignupData はサインアップページのデータ。
type SignupData struct {
	Name  string
	Email string
	Err   string
}

// ActivateData は有効化ページのデータ。
type ActivateData struct {
	Pending bool // サインアップ直後の有効化メール案内表示
	Err     string
}

// CustomerFormData は顧客フォームのデータ。
type CustomerFormData struct {
	Customer   model.Customer
	IsEdit     bool
	Localities []string
	Err        string
}

// ProductFormData は商品フォームのデータ。
type ProductFormData struct {
	Product       model.Product
	IsEdit        bool
	Types         []string
	Presentations []string
	Err           string
}

// OrderFormData は注文フォームのデータ。
type OrderFormData struct {
	Order     model.Order
	IsEdit    bool
	Customers []model.Customer
	Products  []model.Product
	Err       string
}

// SaleFormData は販売フォームのデータ。
type SaleFormData struct {
	Sale      model.Sale
	IsEdit    bool
	Customers []model.Customer
	Products  []model.Product
	Err       string
}
