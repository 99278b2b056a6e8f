package pricing

import (
	"math"
	"testing"
)

// TestLineTotal_Standard は通常計算が price * trunc(quantity) になることを検証する。
func TestLineTotal_Standard(t *testing.T) {
	tests := []struct {
		name     string
		price    float64
		quantity float64
		want     float64
	}{
		{"整数数量", 100, 3, 300},
		{"端数は切り捨て", 100, 3.9, 300},
		{"数量1", 250, 1, 250},
		{"大きい数量", 50, 120, 6000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LineTotal(tt.price, tt.quantity, false)
			if got != tt.want {
				t.Errorf("LineTotal(%v, %v, false) = %v, want %v", tt.price, tt.quantity, got, tt.want)
			}
		})
	}
}

// TestLineTotal_ZeroTruncation は切り捨て後の数量が0の場合に
// quantity引数がそのまま返ることを検証する（移行元システムの挙動の踏襲）。
func TestLineTotal_ZeroTruncation(t *testing.T) {
	tests := []struct {
		name     string
		price    float64
		quantity float64
	}{
		{"数量0", 100, 0},
		{"1未満の端数", 100, 0.5},
		{"負の端数", 100, -0.3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LineTotal(tt.price, tt.quantity, false)
			if got != tt.quantity {
				t.Errorf("LineTotal(%v, %v, false) = %v, want %v (数量がそのまま返るべき)", tt.price, tt.quantity, got, tt.quantity)
			}
		})
	}
}

// TestLineTotal_ThirteenDozen は13の倍数の数量で
// price * (quantity - quantity/13) になることを検証する。
func TestLineTotal_ThirteenDozen(t *testing.T) {
	tests := []struct {
		quantity float64
	}{
		{13},
		{26},
		{39},
		{130},
	}

	const price = 80.0
	for _, tt := range tests {
		want := price * (tt.quantity - tt.quantity/13)
		got := LineTotal(price, tt.quantity, true)
		if got != want {
			t.Errorf("LineTotal(%v, %v, true) = %v, want %v", price, tt.quantity, got, want)
		}
	}
}

// TestLineTotal_ThirteenDozen_NonMultiple は13の倍数でない数量では
// 完全な13個のまとまりごとにのみ1個が無償になることを検証する。
func TestLineTotal_ThirteenDozen_NonMultiple(t *testing.T) {
	// 14個: 無償1個、課金13個
	got := LineTotal(100, 14, true)
	want := 100.0 * (14 - math.Floor(14.0/13))
	if got != want {
		t.Errorf("LineTotal(100, 14, true) = %v, want %v", got, want)
	}

	// 12個: 無償なし
	got = LineTotal(100, 12, true)
	if got != 1200 {
		t.Errorf("LineTotal(100, 12, true) = %v, want 1200", got)
	}
}

// TestOrderTotal は明細合計の加算を検証する。
func TestOrderTotal(t *testing.T) {
	got := OrderTotal([]float64{100, 250.5, 49.5})
	if got != 400 {
		t.Errorf("OrderTotal = %v, want 400", got)
	}

	if got := OrderTotal(nil); got != 0 {
		t.Errorf("OrderTotal(nil) = %v, want 0", got)
	}
}
