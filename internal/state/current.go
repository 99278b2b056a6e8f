package state

import (
	"context"
	"sync"

	"github.com/hitoshi/shopman/internal/model"
)

// GetFunc は単一エンティティ取得の上流呼び出しを表す。
type GetFunc[T any] func(ctx context.Context, id string) (*T, error)

// Current は表示中の単一エンティティを保持するコンテナ。
// 編集画面の読み込みで設定され、画面離脱時にリセットされる。
type Current[T any] struct {
	mu     sync.Mutex
	entity *T
	err    *model.APIError

	get GetFunc[T]
}

// NewCurrent はCurrentを生成する。
func NewCurrent[T any](get GetFunc[T]) *Current[T] {
	return &Current[T]{get: get}
}

// FetchOne は指定IDのエンティティを取得して保持する。
// 取得前に既存のエンティティをクリアし、前の画面の内容が見えないようにする。
func (c *Current[T]) FetchOne(ctx context.Context, id string) (*T, error) {
	c.mu.Lock()
	c.entity = nil
	c.err = nil
	c.mu.Unlock()

	entity, err := c.get(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		c.err = model.AsAPIError(err)
		return nil, err
	}

	c.entity = entity
	return entity, nil
}

// Get は保持中のエンティティとエラーを返す。未取得の場合はnilを返す。
func (c *Current[T]) Get() (*T, *model.APIError) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.entity, c.err
}

// Reset は保持中のエンティティをクリアする。
func (c *Current[T]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entity = nil
	c.err = nil
}
