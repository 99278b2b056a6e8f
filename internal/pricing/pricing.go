// Package pricing は販売金額の計算ルールを提供する。
package pricing

import "math"

// thirteenDozenSize は「13個で1ダース」ルールの単位数。
// 13個ごとに1個が無償になる。
const thirteenDozenSize = 13

// LineTotal は明細行の金額を計算する。
// thirteenDozenが真の場合、課金数量は quantity - floor(quantity/13) となる
// （13個ごとに1個無償）。それ以外は数量を整数に切り捨てて課金する。
//
// 切り捨て後の数量が0になる場合はquantity引数をそのまま返す。
// これは移行元システムの挙動の踏襲であり、意図的な仕様かは未確認
// （変更する場合は業務側への確認が必要）。
func LineTotal(price, quantity float64, thirteenDozen bool) float64 {
	if thirteenDozen {
		billable := quantity - math.Floor(quantity/thirteenDozenSize)
		return price * billable
	}

	billable := math.Trunc(quantity)
	if billable == 0 {
		return quantity
	}
	return price * billable
}

// OrderTotal は明細行の合計金額を返す。
func OrderTotal(lineTotals []float64) float64 {
	var total float64
	for _, t := range lineTotals {
		total += t
	}
	return total
}
