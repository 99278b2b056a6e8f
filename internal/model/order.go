package model

import "time"

// LineItem は注文・販売の明細行を表す。
// LineTotalはpricingパッケージで計算済みの値を保持する（サーバー順序を維持）。
type LineItem struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	UnitPrice   float64 `json:"unitPrice"`
	Quantity    float64 `json:"quantity"`
	LineTotal   float64 `json:"lineTotal"`
}

// Order は注文を表す。
type Order struct {
	ID           string     `json:"id"`
	CustomerID   string     `json:"customerId"`
	CustomerName string     `json:"customerName,omitempty"`
	Products     []LineItem `json:"products"`
	TotalPrice   float64    `json:"totalPrice"`
	DeliveryDate time.Time  `json:"deliveryDate,omitzero"`
	Notes        string     `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}
