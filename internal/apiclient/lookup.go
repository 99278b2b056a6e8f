package apiclient

import (
	"context"
	"net/http"
)

// ルックアップエンドポイントはセレクト入力の候補として使う文字列配列を返す。

// Localities は地域名の候補一覧を取得する。
func (c *Client) Localities(ctx context.Context, token string) ([]string, error) {
	return c.lookup(ctx, token, "/utils/localities")
}

// Presentations は商品の荷姿候補一覧を取得する。
func (c *Client) Presentations(ctx context.Context, token string) ([]string, error) {
	return c.lookup(ctx, token, "/utils/presentations")
}

// ProductTypes は商品種別の候補一覧を取得する。
func (c *Client) ProductTypes(ctx context.Context, token string) ([]string, error) {
	return c.lookup(ctx, token, "/utils/productTypes")
}

func (c *Client) lookup(ctx context.Context, token, path string) ([]string, error) {
	var values []string
	if err := c.do(ctx, http.MethodGet, path, token, nil, nil, &values); err != nil {
		return nil, err
	}
	return values, nil
}
