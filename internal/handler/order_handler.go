package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/shopman/internal/changeset"
	"github.com/hitoshi/shopman/internal/model"
	"github.com/hitoshi/shopman/internal/view"
)

// OrderHandler は注文ページのHTTPハンドラー。
type OrderHandler struct {
	deps *Deps
}

// NewOrderHandler はOrderHandlerを生成する。
func NewOrderHandler(deps *Deps) *OrderHandler {
	return &OrderHandler{deps: deps}
}

// List は注文一覧を表示する。
// GET /orders
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	store, sess := h.deps.storeFor(r)
	q := parseListQuery(r, h.deps.PageLimit)

	if err := store.Orders.Fetch(r.Context(), q); err != nil && model.IsUnauthorized(err) {
		h.deps.handleUnauthorized(w, r)
		return
	}

	data := listData(r, store.Orders)
	data.Filters = view.OrderListFilters{
		From:       r.URL.Query().Get("from"),
		To:         r.URL.Query().Get("to"),
		CustomerID: q.CustomerID,
		Customers:  h.deps.allCustomers(r, sess.Token),
	}

	page := pageFor(r, "注文一覧", "orders")
	page.Content = data
	h.deps.Renderer.Render(w, http.StatusOK, "order_list", page)
}

// New は新規注文フォームを表示する。
// GET /orders/new
func (h *OrderHandler) New(w http.ResponseWriter, r *http.Request) {
	_, sess := h.deps.storeFor(r)

	h.renderForm(w, r, http.StatusOK, view.OrderFormData{
		Customers: h.deps.allCustomers(r, sess.Token),
		Products:  h.deps.allProducts(r, sess.Token),
	})
}

// Create は新規注文フォームの送信を処理する。
// 明細行の金額と合計はサーバー側で計算する。
// POST /orders
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	_, sess := h.deps.storeFor(r)

	products := h.deps.allProducts(r, sess.Token)
	order := h.orderFromForm(r, products)

	if len(order.Products) == 0 {
		h.renderForm(w, r, http.StatusUnprocessableEntity, view.OrderFormData{
			Order:     order,
			Customers: h.deps.allCustomers(r, sess.Token),
			Products:  products,
			Err:       "明細を1行以上入力してください。",
		})
		return
	}

	if _, err := h.deps.API.CreateOrder(r.Context(), sess.Token, order); err != nil {
		if model.IsUnauthorized(err) {
			h.deps.handleUnauthorized(w, r)
			return
		}
		h.renderForm(w, r, http.StatusUnprocessableEntity, view.OrderFormData{
			Order:     order,
			Customers: h.deps.allCustomers(r, sess.Token),
			Products:  products,
			Err:       model.AsAPIError(err).Message,
		})
		return
	}

	store, _ := h.deps.storeFor(r)
	store.Orders.Reset()

	http.Redirect(w, r, "/orders?notice=created", http.StatusSeeOther)
}

// Edit は注文編集フォームを表示する。
// GET /orders/{id}/edit
func (h *OrderHandler) Edit(w http.ResponseWriter, r *http.Request) {
	store, sess := h.deps.storeFor(r)
	id := chi.URLParam(r, "id")

	order, err := store.OrderView.FetchOne(r.Context(), id)
	if err != nil {
		h.handleFetchOneError(w, r, err)
		return
	}

	h.renderForm(w, r, http.StatusOK, view.OrderFormData{
		Order:     *order,
		IsEdit:    true,
		Customers: h.deps.allCustomers(r, sess.Token),
		Products:  h.deps.allProducts(r, sess.Token),
	})
}

// Update は注文編集フォームの送信を処理する。
// POST /orders/{id}
func (h *OrderHandler) Update(w http.ResponseWriter, r *http.Request) {
	store, sess := h.deps.storeFor(r)
	id := chi.URLParam(r, "id")

	original, err := store.OrderView.FetchOne(r.Context(), id)
	if err != nil {
		h.handleFetchOneError(w, r, err)
		return
	}

	products := h.deps.allProducts(r, sess.Token)
	updated := h.orderFromForm(r, products)
	patch := changeset.Changed(orderFields(*original), orderFields(updated))

	// 明細は差分比較の対象外とし、変更があった場合は丸ごと送る
	if !lineItemsEqual(original.Products, updated.Products) {
		patch["products"] = updated.Products
		patch["totalPrice"] = updated.TotalPrice
	}

	if len(patch) > 0 {
		if _, err := h.deps.API.UpdateOrder(r.Context(), sess.Token, id, patch); err != nil {
			if model.IsUnauthorized(err) {
				h.deps.handleUnauthorized(w, r)
				return
			}
			updated.ID = id
			h.renderForm(w, r, http.StatusUnprocessableEntity, view.OrderFormData{
				Order:     updated,
				IsEdit:    true,
				Customers: h.deps.allCustomers(r, sess.Token),
				Products:  products,
				Err:       model.AsAPIError(err).Message,
			})
			return
		}
		store.Orders.Reset()
		store.OrderView.Reset()
	}

	http.Redirect(w, r, "/orders?notice=updated", http.StatusSeeOther)
}

// Delete は注文の削除を処理する。
// POST /orders/{id}/delete
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	store, _ := h.deps.storeFor(r)
	id := chi.URLParam(r, "id")

	if err := store.Orders.Delete(r.Context(), id); err != nil && model.IsUnauthorized(err) {
		h.deps.handleUnauthorized(w, r)
		return
	}

	http.Redirect(w, r, "/orders?notice=deleted", http.StatusSeeOther)
}

// renderForm は注文フォームをレンダリングする。
func (h *OrderHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, data view.OrderFormData) {
	title := "新規注文"
	if data.IsEdit {
		title = "注文を編集"
	}
	page := pageFor(r, title, "orders")
	page.Content = data
	h.deps.Renderer.Render(w, status, "order_form", page)
}

// handleFetchOneError は単一取得の失敗を種別に応じて処理する。
func (h *OrderHandler) handleFetchOneError(w http.ResponseWriter, r *http.Request, err error) {
	if model.IsUnauthorized(err) {
		h.deps.handleUnauthorized(w, r)
		return
	}
	apiErr := model.AsAPIError(err)
	if apiErr.Code == model.ErrCodeResourceNotFound {
		h.deps.renderNotFound(w, r, apiErr)
		return
	}
	h.deps.Renderer.RenderError(w, http.StatusBadGateway, pageFor(r, "", "orders"), apiErr.Message)
}

// orderFromForm はフォーム値から注文エンティティを組み立てる。
// 注文の明細には13個ダースルールを適用しない。
func (h *OrderHandler) orderFromForm(r *http.Request, products []model.Product) model.Order {
	r.ParseForm()
	items, total := lineItemsFromForm(r, products, false)

	order := model.Order{
		CustomerID: formValue(r, "customerId"),
		Products:   items,
		TotalPrice: total,
		Notes:      h.deps.sanitize(formValue(r, "notes")),
	}
	if deliveryDate, err := time.Parse("2006-01-02", formValue(r, "deliveryDate")); err == nil {
		order.DeliveryDate = deliveryDate
	}
	return order
}

// orderFields は差分算出用のフィールドマップを返す（明細を除く）。
func orderFields(o model.Order) map[string]any {
	return map[string]any{
		"customerId":   o.CustomerID,
		"deliveryDate": view.FormatDate(o.DeliveryDate),
		"notes":        o.Notes,
	}
}

// lineItemsEqual は明細行の内容（商品と数量）が等しいかを判定する。
func lineItemsEqual(before, after []model.LineItem) bool {
	if len(before) != len(after) {
		return false
	}
	for i := range before {
		if before[i].ProductID != after[i].ProductID || before[i].Quantity != after[i].Quantity {
			return false
		}
	}
	return true
}
