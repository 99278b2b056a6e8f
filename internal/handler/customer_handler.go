package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/shopman/internal/changeset"
	"github.com/hitoshi/shopman/internal/model"
	"github.com/hitoshi/shopman/internal/view"
)

// CustomerHandler は顧客ページのHTTPハンドラー。
type CustomerHandler struct {
	deps *Deps
}

// NewCustomerHandler はCustomerHandlerを生成する。
func NewCustomerHandler(deps *Deps) *CustomerHandler {
	return &CustomerHandler{deps: deps}
}

// List は顧客一覧を表示する。
// GET /customers
// skipクエリ付きのリクエストは取得済み一覧への追記読み込みとなる。
func (h *CustomerHandler) List(w http.ResponseWriter, r *http.Request) {
	store, _ := h.deps.storeFor(r)
	q := parseListQuery(r, h.deps.PageLimit)

	if err := store.Customers.Fetch(r.Context(), q); err != nil && model.IsUnauthorized(err) {
		h.deps.handleUnauthorized(w, r)
		return
	}

	page := pageFor(r, "顧客一覧", "customers")
	page.Content = listData(r, store.Customers)
	h.deps.Renderer.Render(w, http.StatusOK, "customer_list", page)
}

// New は新規顧客フォームを表示する。
// GET /customers/new
func (h *CustomerHandler) New(w http.ResponseWriter, r *http.Request) {
	_, sess := h.deps.storeFor(r)

	h.renderForm(w, r, http.StatusOK, view.CustomerFormData{
		Localities: h.localities(r, sess.Token),
	})
}

// Create は新規顧客フォームの送信を処理する。
// POST /customers
func (h *CustomerHandler) Create(w http.ResponseWriter, r *http.Request) {
	_, sess := h.deps.storeFor(r)
	customer := h.customerFromForm(r)

	if _, err := h.deps.API.CreateCustomer(r.Context(), sess.Token, customer); err != nil {
		if model.IsUnauthorized(err) {
			h.deps.handleUnauthorized(w, r)
			return
		}
		h.renderForm(w, r, http.StatusUnprocessableEntity, view.CustomerFormData{
			Customer:   customer,
			Localities: h.localities(r, sess.Token),
			Err:        model.AsAPIError(err).Message,
		})
		return
	}

	// 一覧の取得済み状態は古くなったため次回表示時に再取得させる
	store, _ := h.deps.storeFor(r)
	store.Customers.Reset()

	http.Redirect(w, r, "/customers?notice=created", http.StatusSeeOther)
}

// Edit は顧客編集フォームを表示する。
// GET /customers/{id}/edit
func (h *CustomerHandler) Edit(w http.ResponseWriter, r *http.Request) {
	store, sess := h.deps.storeFor(r)
	id := chi.URLParam(r, "id")

	customer, err := store.CustomerView.FetchOne(r.Context(), id)
	if err != nil {
		h.handleFetchOneError(w, r, err)
		return
	}

	h.renderForm(w, r, http.StatusOK, view.CustomerFormData{
		Customer:   *customer,
		IsEdit:     true,
		Localities: h.localities(r, sess.Token),
	})
}

// Update は顧客編集フォームの送信を処理する。
// PATCHは取得済みの値とフォーム値の差分フィールドのみを送る。
// POST /customers/{id}
func (h *CustomerHandler) Update(w http.ResponseWriter, r *http.Request) {
	store, sess := h.deps.storeFor(r)
	id := chi.URLParam(r, "id")

	original, err := store.CustomerView.FetchOne(r.Context(), id)
	if err != nil {
		h.handleFetchOneError(w, r, err)
		return
	}

	updated := h.customerFromForm(r)
	patch := changeset.Changed(customerFields(*original), customerFields(updated))

	if len(patch) > 0 {
		if _, err := h.deps.API.UpdateCustomer(r.Context(), sess.Token, id, patch); err != nil {
			if model.IsUnauthorized(err) {
				h.deps.handleUnauthorized(w, r)
				return
			}
			updated.ID = id
			h.renderForm(w, r, http.StatusUnprocessableEntity, view.CustomerFormData{
				Customer:   updated,
				IsEdit:     true,
				Localities: h.localities(r, sess.Token),
				Err:        model.AsAPIError(err).Message,
			})
			return
		}
		store.Customers.Reset()
		store.CustomerView.Reset()
	}

	http.Redirect(w, r, "/customers?notice=updated", http.StatusSeeOther)
}

// Delete は顧客の削除を処理する。
// POST /customers/{id}/delete
// 上流の削除成功を確認してから一覧状態を更新する。
func (h *CustomerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	store, _ := h.deps.storeFor(r)
	id := chi.URLParam(r, "id")

	if err := store.Customers.Delete(r.Context(), id); err != nil && model.IsUnauthorized(err) {
		h.deps.handleUnauthorized(w, r)
		return
	}

	http.Redirect(w, r, "/customers?notice=deleted", http.StatusSeeOther)
}

// renderForm は顧客フォームをレンダリングする。
func (h *CustomerHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, data view.CustomerFormData) {
	title := "新規顧客"
	if data.IsEdit {
		title = "顧客を編集"
	}
	page := pageFor(r, title, "customers")
	page.Content = data
	h.deps.Renderer.Render(w, status, "customer_form", page)
}

// handleFetchOneError は単一取得の失敗を種別に応じて処理する。
func (h *CustomerHandler) handleFetchOneError(w http.ResponseWriter, r *http.Request, err error) {
	if model.IsUnauthorized(err) {
		h.deps.handleUnauthorized(w, r)
		return
	}
	apiErr := model.AsAPIError(err)
	if apiErr.Code == model.ErrCodeResourceNotFound {
		h.deps.renderNotFound(w, r, apiErr)
		return
	}
	h.deps.Renderer.RenderError(w, http.StatusBadGateway, pageFor(r, "", "customers"), apiErr.Message)
}

// customerFromForm はフォーム値から顧客エンティティを組み立てる。
// 自由記述フィールドはHTMLタグを除去してから上流へ送る。
func (h *CustomerHandler) customerFromForm(r *http.Request) model.Customer {
	return model.Customer{
		Name:     h.deps.sanitize(formValue(r, "name")),
		Email:    formValue(r, "email"),
		Phone:    formValue(r, "phone"),
		Locality: formValue(r, "locality"),
		Owes:     r.PostFormValue("owes") == "true",
		Notes:    h.deps.sanitize(formValue(r, "notes")),
	}
}

// customerFields は差分算出用のフィールドマップを返す。
// キーは上流APIのJSONフィールド名に合わせる。
func customerFields(c model.Customer) map[string]any {
	return map[string]any{
		"name":     c.Name,
		"email":    c.Email,
		"phone":    c.Phone,
		"locality": c.Locality,
		"owes":     c.Owes,
		"notes":    c.Notes,
	}
}

// localities は地域の選択肢を取得する。失敗時は空の選択肢で継続する。
func (h *CustomerHandler) localities(r *http.Request, token string) []string {
	values, err := h.deps.API.Localities(r.Context(), token)
	if err != nil {
		h.deps.Logger.Warn("failed to fetch localities",
			slog.String("error", err.Error()),
		)
		return nil
	}
	return values
}
