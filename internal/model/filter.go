package model

import (
	"net/url"
	"strconv"
	"time"
)

// SortDirection はソート方向を表すタグ付き列挙。
// 文字列キーによるダックタイピングを避け、検証済みの値のみを受け付ける。
type SortDirection string

const (
	// SortAsc は昇順ソートを示す。
	SortAsc SortDirection = "asc"
	// SortDesc は降順ソートを示す。
	SortDesc SortDirection = "desc"
)

// ParseSortDirection は文字列をSortDirectionに変換する。
// 未知の値は昇順として扱う。
func ParseSortDirection(s string) SortDirection {
	if s == string(SortDesc) {
		return SortDesc
	}
	return SortAsc
}

// ListQuery は一覧取得のフィルタ条件を表す。
// ページごとにローカルに保持され、変更時は一覧をリセットしてskip=0から再取得する。
type ListQuery struct {
	Limit     int
	Skip      int
	Search    string
	SortBy    string
	Direction SortDirection

	// ドメイン固有フィルタ（使用しないリソースではゼロ値のまま）
	From          time.Time
	To            time.Time
	Owes          *bool
	ThirteenDozen *bool
	CustomerID    string
	ProductType   string
}

// Values は上流APIのクエリパラメータ表現を返す。
// ゼロ値のフィールドはパラメータに含めない。
func (q ListQuery) Values() url.Values {
	v := url.Values{}
	v.Set("limit", strconv.Itoa(q.Limit))
	v.Set("skip", strconv.Itoa(q.Skip))

	if q.Search != "" {
		v.Set("textQuery", q.Search)
	}
	if q.SortBy != "" {
		v.Set("sortBy", q.SortBy)
		v.Set("direction", string(q.Direction))
	}
	if !q.From.IsZero() {
		v.Set("from", q.From.Format(time.RFC3339))
	}
	if !q.To.IsZero() {
		v.Set("to", q.To.Format(time.RFC3339))
	}
	if q.Owes != nil {
		v.Set("owes", strconv.FormatBool(*q.Owes))
	}
	if q.ThirteenDozen != nil {
		v.Set("isThirteenDozen", strconv.FormatBool(*q.ThirteenDozen))
	}
	if q.CustomerID != "" {
		v.Set("customer", q.CustomerID)
	}
	if q.ProductType != "" {
		v.Set("type", q.ProductType)
	}

	return v
}

// Key はフィルタの同一性判定用キーを返す。
// skipを除いた全条件を含み、世代ガードのフィルタ変更検出に使用する。
func (q ListQuery) Key() string {
	k := q
	k.Skip = 0
	k.Limit = 0
	return k.Values().Encode()
}
