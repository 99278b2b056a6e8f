package model

import "time"

// Sale は販売を表す。
// IsThirteenDozenが真の場合、明細行の金額計算に「13個で1ダース」ルールが適用される
// （13個ごとに1個が無償になる）。
type Sale struct {
	ID              string     `json:"id"`
	CustomerID      string     `json:"customerId"`
	CustomerName    string     `json:"customerName,omitempty"`
	Products        []LineItem `json:"products"`
	IsThirteenDozen bool       `json:"isThirteenDozen"`
	Owes            bool       `json:"owes"`
	PartialPayment  float64    `json:"partialPayment"`
	TotalPrice      float64    `json:"totalPrice"`
	SoldAt          time.Time  `json:"soldAt,omitzero"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}
