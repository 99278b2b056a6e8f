package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/hitoshi/shopman/internal/model"
)

// ListResult は一覧エンドポイントの応答を表す。
// Itemsの並び順はサーバーが返した順序を維持する。
type ListResult[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

// newUpstreamError は非2xx応答のステータスとメッセージからAPIErrorを生成する。
func newUpstreamError(status int, serverMessage string) *model.APIError {
	return model.NewUpstreamError(status, serverMessage)
}

// resourceFromPath はメトリクスラベル用にパスの先頭セグメントを返す。
func resourceFromPath(path string) string {
	trimmed := strings.TrimPrefix(path, "/")
	if i := strings.IndexByte(trimmed, '/'); i >= 0 {
		return trimmed[:i]
	}
	return trimmed
}

// --- リソース共通のCRUD呼び出し ---
// 各リソースのメソッドはパステンプレートを固定した薄いラッパーで、
// 実装はこれらのジェネリック関数に集約する。

func listResource[T any](ctx context.Context, c *Client, resource, token string, q model.ListQuery) (*ListResult[T], error) {
	var result ListResult[T]
	if err := c.do(ctx, http.MethodGet, "/"+resource, token, q.Values(), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func getResource[T any](ctx context.Context, c *Client, resource, token, id string) (*T, error) {
	var entity T
	err := c.do(ctx, http.MethodGet, "/"+resource+"/"+url.PathEscape(id), token, nil, nil, &entity)
	if err != nil {
		if apiErr := model.AsAPIError(err); apiErr.Status == http.StatusNotFound {
			return nil, model.NewResourceNotFoundError(resource, id)
		}
		return nil, err
	}
	return &entity, nil
}

func createResource[T any](ctx context.Context, c *Client, resource, token string, data T) (*T, error) {
	var created T
	if err := c.do(ctx, http.MethodPost, "/"+resource, token, nil, data, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

func updateResource[T any](ctx context.Context, c *Client, resource, token, id string, patch map[string]any) (*T, error) {
	var updated T
	err := c.do(ctx, http.MethodPatch, "/"+resource+"/"+url.PathEscape(id), token, nil, patch, &updated)
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func deleteResource(ctx context.Context, c *Client, resource, token, id string) error {
	return c.do(ctx, http.MethodDelete, "/"+resource+"/"+url.PathEscape(id), token, nil, nil, nil)
}

// --- 顧客 ---

// ListCustomers は顧客一覧を取得する。
func (c *Client) ListCustomers(ctx context.Context, token string, q model.ListQuery) (*ListResult[model.Customer], error) {
	return listResource[model.Customer](ctx, c, "customers", token, q)
}

// GetCustomer は顧客詳細を取得する。404の場合はRESOURCE_NOT_FOUNDエラーを返す。
func (c *Client) GetCustomer(ctx context.Context, token, id string) (*model.Customer, error) {
	return getResource[model.Customer](ctx, c, "customers", token, id)
}

// CreateCustomer は顧客を作成し、作成済みエンティティを返す。
func (c *Client) CreateCustomer(ctx context.Context, token string, customer model.Customer) (*model.Customer, error) {
	return createResource(ctx, c, "customers", token, customer)
}

// UpdateCustomer は顧客を部分更新する。patchには変更されたフィールドのみを含める。
func (c *Client) UpdateCustomer(ctx context.Context, token, id string, patch map[string]any) (*model.Customer, error) {
	return updateResource[model.Customer](ctx, c, "customers", token, id, patch)
}

// DeleteCustomer は顧客を削除する。
func (c *Client) DeleteCustomer(ctx context.Context, token, id string) error {
	return deleteResource(ctx, c, "customers", token, id)
}

// --- 商品 ---

// ListProducts は商品一覧を取得する。
func (c *Client) ListProducts(ctx context.Context, token string, q model.ListQuery) (*ListResult[model.Product], error) {
	return listResource[model.Product](ctx, c, "products", token, q)
}

// GetProduct は商品詳細を取得する。
func (c *Client) GetProduct(ctx context.Context, token, id string) (*model.Product, error) {
	return getResource[model.Product](ctx, c, "products", token, id)
}

// CreateProduct は商品を作成する。
func (c *Client) CreateProduct(ctx context.Context, token string, product model.Product) (*model.Product, error) {
	return createResource(ctx, c, "products", token, product)
}

// UpdateProduct は商品を部分更新する。
func (c *Client) UpdateProduct(ctx context.Context, token, id string, patch map[string]any) (*model.Product, error) {
	return updateResource[model.Product](ctx, c, "products", token, id, patch)
}

// DeleteProduct は商品を削除する。
func (c *Client) DeleteProduct(ctx context.Context, token, id string) error {
	return deleteResource(ctx, c, "products", token, id)
}

// --- 注文 ---

// ListOrders は注文一覧を取得する。
func (c *Client) ListOrders(ctx context.Context, token string, q model.ListQuery) (*ListResult[model.Order], error) {
	return listResource[model.Order](ctx, c, "orders", token, q)
}

// GetOrder は注文詳細を取得する。
func (c *Client) GetOrder(ctx context.Context, token, id string) (*model.Order, error) {
	return getResource[model.Order](ctx, c, "orders", token, id)
}

// CreateOrder は注文を作成する。
func (c *Client) CreateOrder(ctx context.Context, token string, order model.Order) (*model.Order, error) {
	return createResource(ctx, c, "orders", token, order)
}

// UpdateOrder は注文を部分更新する。
func (c *Client) UpdateOrder(ctx context.Context, token, id string, patch map[string]any) (*model.Order, error) {
	return updateResource[model.Order](ctx, c, "orders", token, id, patch)
}

// DeleteOrder は注文を削除する。
func (c *Client) DeleteOrder(ctx context.Context, token, id string) error {
	return deleteResource(ctx, c, "orders", token, id)
}

// --- 販売 ---

// ListSales は販売一覧を取得する。
func (c *Client) ListSales(ctx context.Context, token string, q model.ListQuery) (*ListResult[model.Sale], error) {
	return listResource[model.Sale](ctx, c, "sales", token, q)
}

// GetSale は販売詳細を取得する。
func (c *Client) GetSale(ctx context.Context, token, id string) (*model.Sale, error) {
	return getResource[model.Sale](ctx, c, "sales", token, id)
}

// CreateSale は販売を作成する。
func (c *Client) CreateSale(ctx context.Context, token string, sale model.Sale) (*model.Sale, error) {
	return createResource(ctx, c, "sales", token, sale)
}

// UpdateSale は販売を部分更新する。
func (c *Client) UpdateSale(ctx context.Context, token, id string, patch map[string]any) (*model.Sale, error) {
	return updateResource[model.Sale](ctx, c, "sales", token, id, patch)
}

// DeleteSale は販売を削除する。
func (c *Client) DeleteSale(ctx context.Context, token, id string) error {
	return deleteResource(ctx, c, "sales", token, id)
}
