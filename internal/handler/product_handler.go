package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/shopman/internal/changeset"
	"github.com/hitoshi/shopman/internal/model"
	"github.com/hitoshi/shopman/internal/view"
)

// ProductHandler は商品ページのHTTPハンドラー。
type ProductHandler struct {
	deps *Deps
}

// NewProductHandler はProductHandlerを生成する。
func NewProductHandler(deps *Deps) *ProductHandler {
	return &ProductHandler{deps: deps}
}

// List は商品一覧を表示する。
// GET /products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	store, sess := h.deps.storeFor(r)
	q := parseListQuery(r, h.deps.PageLimit)

	if err := store.Products.Fetch(r.Context(), q); err != nil && model.IsUnauthorized(err) {
		h.deps.handleUnauthorized(w, r)
		return
	}

	data := listData(r, store.Products)
	data.Filters = view.ProductListFilters{
		Type:  q.ProductType,
		Types: h.productTypes(r, sess.Token),
	}

	page := pageFor(r, "商品一覧", "products")
	page.Content = data
	h.deps.Renderer.Render(w, http.StatusOK, "product_list", page)
}

// New は新規商品フォームを表示する。
// GET /products/new
func (h *ProductHandler) New(w http.ResponseWriter, r *http.Request) {
	_, sess := h.deps.storeFor(r)

	h.renderForm(w, r, http.StatusOK, view.ProductFormData{
		Types:         h.productTypes(r, sess.Token),
		Presentations: h.presentations(r, sess.Token),
	})
}

// Create は新規商品フォームの送信を処理する。
// POST /products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	_, sess := h.deps.storeFor(r)
	product := h.productFromForm(r)

	if _, err := h.deps.API.CreateProduct(r.Context(), sess.Token, product); err != nil {
		if model.IsUnauthorized(err) {
			h.deps.handleUnauthorized(w, r)
			return
		}
		h.renderForm(w, r, http.StatusUnprocessableEntity, view.ProductFormData{
			Product:       product,
			Types:         h.productTypes(r, sess.Token),
			Presentations: h.presentations(r, sess.Token),
			Err:           model.AsAPIError(err).Message,
		})
		return
	}

	store, _ := h.deps.storeFor(r)
	store.Products.Reset()

	http.Redirect(w, r, "/products?notice=created", http.StatusSeeOther)
}

// Edit は商品編集フォームを表示する。
// GET /products/{id}/edit
func (h *ProductHandler) Edit(w http.ResponseWriter, r *http.Request) {
	store, sess := h.deps.storeFor(r)
	id := chi.URLParam(r, "id")

	product, err := store.ProductView.FetchOne(r.Context(), id)
	if err != nil {
		h.handleFetchOneError(w, r, err)
		return
	}

	h.renderForm(w, r, http.StatusOK, view.ProductFormData{
		Product:       *product,
		IsEdit:        true,
		Types:         h.productTypes(r, sess.Token),
		Presentations: h.presentations(r, sess.Token),
	})
}

// Update は商品編集フォームの送信を処理する。
// POST /products/{id}
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	store, sess := h.deps.storeFor(r)
	id := chi.URLParam(r, "id")

	original, err := store.ProductView.FetchOne(r.Context(), id)
	if err != nil {
		h.handleFetchOneError(w, r, err)
		return
	}

	updated := h.productFromForm(r)
	patch := changeset.Changed(productFields(*original), productFields(updated))

	if len(patch) > 0 {
		if _, err := h.deps.API.UpdateProduct(r.Context(), sess.Token, id, patch); err != nil {
			if model.IsUnauthorized(err) {
				h.deps.handleUnauthorized(w, r)
				return
			}
			updated.ID = id
			h.renderForm(w, r, http.StatusUnprocessableEntity, view.ProductFormData{
				Product:       updated,
				IsEdit:        true,
				Types:         h.productTypes(r, sess.Token),
				Presentations: h.presentations(r, sess.Token),
				Err:           model.AsAPIError(err).Message,
			})
			return
		}
		store.Products.Reset()
		store.ProductView.Reset()
	}

	http.Redirect(w, r, "/products?notice=updated", http.StatusSeeOther)
}

// Delete は商品の削除を処理する。
// POST /products/{id}/delete
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	store, _ := h.deps.storeFor(r)
	id := chi.URLParam(r, "id")

	if err := store.Products.Delete(r.Context(), id); err != nil && model.IsUnauthorized(err) {
		h.deps.handleUnauthorized(w, r)
		return
	}

	http.Redirect(w, r, "/products?notice=deleted", http.StatusSeeOther)
}

// renderForm は商品フォームをレンダリングする。
func (h *ProductHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, data view.ProductFormData) {
	title := "新規商品"
	if data.IsEdit {
		title = "商品を編集"
	}
	page := pageFor(r, title, "products")
	page.Content = data
	h.deps.Renderer.Render(w, status, "product_form", page)
}

// handleFetchOneError は単一取得の失敗を種別に応じて処理する。
func (h *ProductHandler) handleFetchOneError(w http.ResponseWriter, r *http.Request, err error) {
	if model.IsUnauthorized(err) {
		h.deps.handleUnauthorized(w, r)
		return
	}
	apiErr := model.AsAPIError(err)
	if apiErr.Code == model.ErrCodeResourceNotFound {
		h.deps.renderNotFound(w, r, apiErr)
		return
	}
	h.deps.Renderer.RenderError(w, http.StatusBadGateway, pageFor(r, "", "products"), apiErr.Message)
}

// productFromForm はフォーム値から商品エンティティを組み立てる。
func (h *ProductHandler) productFromForm(r *http.Request) model.Product {
	price, _ := strconv.ParseFloat(formValue(r, "price"), 64)
	stock, _ := strconv.Atoi(formValue(r, "stock"))

	return model.Product{
		Name:         h.deps.sanitize(formValue(r, "name")),
		Type:         formValue(r, "type"),
		Presentation: formValue(r, "presentation"),
		Price:        price,
		Stock:        stock,
		Notes:        h.deps.sanitize(formValue(r, "notes")),
	}
}

// productFields は差分算出用のフィールドマップを返す。
func productFields(p model.Product) map[string]any {
	return map[string]any{
		"name":         p.Name,
		"type":         p.Type,
		"presentation": p.Presentation,
		"price":        p.Price,
		"stock":        p.Stock,
		"notes":        p.Notes,
	}
}

// productTypes は商品種別の選択肢を取得する。失敗時は空の選択肢で継続する。
func (h *ProductHandler) productTypes(r *http.Request, token string) []string {
	values, err := h.deps.API.ProductTypes(r.Context(), token)
	if err != nil {
		h.deps.Logger.Warn("failed to fetch product types",
			slog.String("error", err.Error()),
		)
		return nil
	}
	return values
}

// presentations は商品形態の選択肢を取得する。失敗時は空の選択肢で継続する。
func (h *ProductHandler) presentations(r *http.Request, token string) []string {
	values, err := h.deps.API.Presentations(r.Context(), token)
	if err != nil {
		h.deps.Logger.Warn("failed to fetch presentations",
			slog.String("error", err.Error()),
		)
		return nil
	}
	return values
}
