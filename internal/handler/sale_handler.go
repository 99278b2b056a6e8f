package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/shopman/internal/changeset"
	"github.com/hitoshi/shopman/internal/model"
	"github.com/hitoshi/shopman/internal/view"
)

// SaleHandler は販売ページのHTTPハンドラー。
type SaleHandler struct {
	deps *Deps
}

// NewSaleHandler はSaleHandlerを生成する。
func NewSaleHandler(deps *Deps) *SaleHandler {
	return &SaleHandler{deps: deps}
}

// List は販売一覧を表示する。
// GET /sales
func (h *SaleHandler) List(w http.ResponseWriter, r *http.Request) {
	store, _ := h.deps.storeFor(r)
	q := parseListQuery(r, h.deps.PageLimit)

	if err := store.Sales.Fetch(r.Context(), q); err != nil && model.IsUnauthorized(err) {
		h.deps.handleUnauthorized(w, r)
		return
	}

	data := listData(r, store.Sales)
	data.Filters = view.SaleListFilters{
		From:          r.URL.Query().Get("from"),
		To:            r.URL.Query().Get("to"),
		Owes:          q.Owes != nil && *q.Owes,
		ThirteenDozen: q.ThirteenDozen != nil && *q.ThirteenDozen,
	}

	page := pageFor(r, "販売一覧", "sales")
	page.Content = data
	h.deps.Renderer.Render(w, http.StatusOK, "sale_list", page)
}

// New は新規販売フォームを表示する。
// GET /sales/new
func (h *SaleHandler) New(w http.ResponseWriter, r *http.Request) {
	_, sess := h.deps.storeFor(r)

	h.renderForm(w, r, http.StatusOK, view.SaleFormData{
		Customers: h.deps.allCustomers(r, sess.Token),
		Products:  h.deps.allProducts(r, sess.Token),
	})
}

// Create は新規販売フォームの送信を処理する。
// 13個ダース指定時は明細の金額計算に13個ごと1個無償のルールを適用する。
// POST /sales
func (h *SaleHandler) Create(w http.ResponseWriter, r *http.Request) {
	_, sess := h.deps.storeFor(r)

	products := h.deps.allProducts(r, sess.Token)
	sale := h.saleFromForm(r, products)

	if len(sale.Products) == 0 {
		h.renderForm(w, r, http.StatusUnprocessableEntity, view.SaleFormData{
			Sale:      sale,
			Customers: h.deps.allCustomers(r, sess.Token),
			Products:  products,
			Err:       "明細を1行以上入力してください。",
		})
		return
	}

	if _, err := h.deps.API.CreateSale(r.Context(), sess.Token, sale); err != nil {
		if model.IsUnauthorized(err) {
			h.deps.handleUnauthorized(w, r)
			return
		}
		h.renderForm(w, r, http.StatusUnprocessableEntity, view.SaleFormData{
			Sale:      sale,
			Customers: h.deps.allCustomers(r, sess.Token),
			Products:  products,
			Err:       model.AsAPIError(err).Message,
		})
		return
	}

	store, _ := h.deps.storeFor(r)
	store.Sales.Reset()

	http.Redirect(w, r, "/sales?notice=created", http.StatusSeeOther)
}

// Edit は販売編集フォームを表示する。
// GET /sales/{id}/edit
func (h *SaleHandler) Edit(w http.ResponseWriter, r *http.Request) {
	store, sess := h.deps.storeFor(r)
	id := chi.URLParam(r, "id")

	sale, err := store.SaleView.FetchOne(r.Context(), id)
	if err != nil {
		h.handleFetchOneError(w, r, err)
		return
	}

	h.renderForm(w, r, http.StatusOK, view.SaleFormData{
		Sale:      *sale,
		IsEdit:    true,
		Customers: h.deps.allCustomers(r, sess.Token),
		Products:  h.deps.allProducts(r, sess.Token),
	})
}

// Update は販売編集フォームの送信を処理する。
// POST /sales/{id}
func (h *SaleHandler) Update(w http.ResponseWriter, r *http.Request) {
	store, sess := h.deps.storeFor(r)
	id := chi.URLParam(r, "id")

	original, err := store.SaleView.FetchOne(r.Context(), id)
	if err != nil {
		h.handleFetchOneError(w, r, err)
		return
	}

	products := h.deps.allProducts(r, sess.Token)
	updated := h.saleFromForm(r, products)
	patch := changeset.Changed(saleFields(*original), saleFields(updated))

	// 明細は差分比較の対象外とし、変更があった場合は丸ごと送る。
	// 13個ダース指定の切り替えも金額が変わるため明細ごと送り直す。
	if !lineItemsEqual(original.Products, updated.Products) ||
		original.IsThirteenDozen != updated.IsThirteenDozen {
		patch["products"] = updated.Products
		patch["totalPrice"] = updated.TotalPrice
	}

	if len(patch) > 0 {
		if _, err := h.deps.API.UpdateSale(r.Context(), sess.Token, id, patch); err != nil {
			if model.IsUnauthorized(err) {
				h.deps.handleUnauthorized(w, r)
				return
			}
			updated.ID = id
			h.renderForm(w, r, http.StatusUnprocessableEntity, view.SaleFormData{
				Sale:      updated,
				IsEdit:    true,
				Customers: h.deps.allCustomers(r, sess.Token),
				Products:  products,
				Err:       model.AsAPIError(err).Message,
			})
			return
		}
		store.Sales.Reset()
		store.SaleView.Reset()
	}

	http.Redirect(w, r, "/sales?notice=updated", http.StatusSeeOther)
}

// Delete は販売の削除を処理する。
// POST /sales/{id}/delete
func (h *SaleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	store, _ := h.deps.storeFor(r)
	id := chi.URLParam(r, "id")

	if err := store.Sales.Delete(r.Context(), id); err != nil && model.IsUnauthorized(err) {
		h.deps.handleUnauthorized(w, r)
		return
	}

	http.Redirect(w, r, "/sales?notice=deleted", http.StatusSeeOther)
}

// renderForm は販売フォームをレンダリングする。
func (h *SaleHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, data view.SaleFormData) {
	title := "新規販売"
	if data.IsEdit {
		title = "販売を編集"
	}
	page := pageFor(r, title, "sales")
	page.Content = data
	h.deps.Renderer.Render(w, status, "sale_form", page)
}

// handleFetchOneError は単一取得の失敗を種別に応じて処理する。
func (h *SaleHandler) handleFetchOneError(w http.ResponseWriter, r *http.Request, err error) {
	if model.IsUnauthorized(err) {
		h.deps.handleUnauthorized(w, r)
		return
	}
	apiErr := model.AsAPIError(err)
	if apiErr.Code == model.ErrCodeResourceNotFound {
		h.deps.renderNotFound(w, r, apiErr)
		return
	}
	h.deps.Renderer.RenderError(w, http.StatusBadGateway, pageFor(r, "", "sales"), apiErr.Message)
}

// saleFromForm はフォーム値から販売エンティティを組み立てる。
func (h *SaleHandler) saleFromForm(r *http.Request, products []model.Product) model.Sale {
	r.ParseForm()
	thirteenDozen := r.PostFormValue("isThirteenDozen") == "true"
	items, total := lineItemsFromForm(r, products, thirteenDozen)
	partialPayment, _ := strconv.ParseFloat(formValue(r, "partialPayment"), 64)

	sale := model.Sale{
		CustomerID:      formValue(r, "customerId"),
		Products:        items,
		IsThirteenDozen: thirteenDozen,
		Owes:            r.PostFormValue("owes") == "true",
		PartialPayment:  partialPayment,
		TotalPrice:      total,
		Notes:           h.deps.sanitize(formValue(r, "notes")),
	}
	if soldAt, err := time.Parse("2006-01-02", formValue(r, "soldAt")); err == nil {
		sale.SoldAt = soldAt
	}
	return sale
}

// saleFields は差分算出用のフィールドマップを返す（明細を除く）。
func saleFields(s model.Sale) map[string]any {
	return map[string]any{
		"customerId":      s.CustomerID,
		"isThirteenDozen": s.IsThirteenDozen,
		"owes":            s.Owes,
		"partialPayment":  s.PartialPayment,
		"soldAt":          view.FormatDate(s.SoldAt),
		"notes":           s.Notes,
	}
}
