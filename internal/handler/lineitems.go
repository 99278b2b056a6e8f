package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/hitoshi/shopman/internal/model"
	"github.com/hitoshi/shopman/internal/pricing"
)

// selectionLimit はフォームの選択肢として取得する件数の上限。
const selectionLimit = 1000

// lineItemsFromForm はフォームのproductId/quantityの組から明細行を組み立てる。
// 商品未選択の行と数量0以下の行は無視する。
// 各行の金額と合計はサーバー側で計算し直す（クライアントの値は信用しない）。
func lineItemsFromForm(r *http.Request, products []model.Product, thirteenDozen bool) ([]model.LineItem, float64) {
	productIDs := r.PostForm["productId"]
	quantities := r.PostForm["quantity"]

	byID := make(map[string]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var items []model.LineItem
	var lineTotals []float64

	for i, productID := range productIDs {
		if productID == "" || i >= len(quantities) {
			continue
		}
		quantity, err := strconv.ParseFloat(quantities[i], 64)
		if err != nil || quantity <= 0 {
			continue
		}
		product, ok := byID[productID]
		if !ok {
			continue
		}

		lineTotal := pricing.LineTotal(product.Price, quantity, thirteenDozen)
		items = append(items, model.LineItem{
			ProductID:   productID,
			ProductName: product.Name,
			UnitPrice:   product.Price,
			Quantity:    quantity,
			LineTotal:   lineTotal,
		})
		lineTotals = append(lineTotals, lineTotal)
	}

	return items, pricing.OrderTotal(lineTotals)
}

// allCustomers はフォームの顧客選択肢を取得する。失敗時は空の選択肢で継続する。
func (d *Deps) allCustomers(r *http.Request, token string) []model.Customer {
	result, err := d.API.ListCustomers(r.Context(), token, model.ListQuery{Limit: selectionLimit})
	if err != nil {
		d.Logger.Warn("failed to fetch customers for selection",
			slog.String("error", err.Error()),
		)
		return nil
	}
	return result.Items
}

// allProducts はフォームの商品選択肢を取得する。失敗時は空の選択肢で継続する。
func (d *Deps) allProducts(r *http.Request, token string) []model.Product {
	result, err := d.API.ListProducts(r.Context(), token, model.ListQuery{Limit: selectionLimit})
	if err != nil {
		d.Logger.Warn("failed to fetch products for selection",
			slog.String("error", err.Error()),
		)
		return nil
	}
	return result.Items
}
