// Package state はリソースごとの一覧・詳細状態コンテナを提供する。
//
// 移行元の画面ステートに相当する層で、セッションごとに
// 顧客・商品・注文・販売の一覧（items / total / skip / error）と
// 表示中の単一エンティティを保持する。すべての変更は名前付きの操作
// （Fetch, Delete, Reset）を通じて行う。
package state

import (
	"context"
	"log/slog"
	"sync"

	"github.com/hitoshi/shopman/internal/apiclient"
	"github.com/hitoshi/shopman/internal/model"
)

// FetchFunc は一覧取得の上流呼び出しを表す。
type FetchFunc[T any] func(ctx context.Context, q model.ListQuery) (*apiclient.ListResult[T], error)

// DeleteFunc は削除の上流呼び出しを表す。
type DeleteFunc func(ctx context.Context, id string) error

// List は1リソースの一覧状態を保持するコンテナ。
//
// 不変条件: フェッチ完了後は len(items) <= total、かつ skip は
// 現在のフィルタで取得済みの件数に等しい。
//
// skip > 0 のフェッチは追記となるためシリアライズが必要で、
// fetchingフラグによるシングルフライトガードを持つ。さらに各フェッチには
// 世代番号を付与し、フィルタ変更後に遅れて到着した応答を破棄する
// （古いフィルタの応答が新しい状態を上書きする競合の防止）。
type List[T any] struct {
	mu sync.Mutex

	items      []T
	total      int
	skip       int
	err        *model.APIError
	fetching   bool
	generation uint64
	filterKey  string

	fetch  FetchFunc[T]
	delete DeleteFunc
	idOf   func(T) string
	logger *slog.Logger
}

// NewList はListを生成する。idOfはエンティティのIDを返す関数を指定する。
func NewList[T any](fetch FetchFunc[T], del DeleteFunc, idOf func(T) string, logger *slog.Logger) *List[T] {
	return &List[T]{
		fetch:  fetch,
		delete: del,
		idOf:   idOf,
		logger: logger,
	}
}

// Snapshot は現在の一覧状態のコピーを返す。
func (l *List[T]) Snapshot() (items []T, total, skip int, err *model.APIError) {
	l.mu.Lock()
	defer l.mu.Unlock()

	items = make([]T, len(l.items))
	copy(items, l.items)
	return items, l.total, l.skip, l.err
}

// HasMore はまだ取得していない項目がサーバーに残っているかを返す。
func (l *List[T]) HasMore() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items) < l.total
}

// IsEmpty はフェッチ済みで項目が0件かどうかを返す。
func (l *List[T]) IsEmpty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.items) == 0
}

// Fetching はフェッチが進行中かどうかを返す。
func (l *List[T]) Fetching() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fetching
}

// Fetch は一覧を取得して状態を更新する。
// q.Skip == 0 の場合は一覧を置き換え、q.Skip > 0 の場合は追記してskipを進める。
// フィルタ（skipを除くクエリ条件）が前回と異なる場合は一覧をリセットし、
// skip=0からの取得として扱う。
//
// 追記フェッチは以下の場合に黙ってスキップする（シングルフライトガード）:
//   - 別のフェッチが進行中
//   - 既に全件取得済み（len(items) >= total）
func (l *List[T]) Fetch(ctx context.Context, q model.ListQuery) error {
	l.mu.Lock()

	key := q.Key()
	if key != l.filterKey {
		// フィルタ変更: 取得済みの別フィルタの結果を見せないようリセットし、
		// 進行中の古いフェッチを世代番号で無効化する
		l.resetLocked()
		l.filterKey = key
		q.Skip = 0
	}

	if q.Skip > 0 {
		if l.fetching || len(l.items) >= l.total {
			l.mu.Unlock()
			return nil
		}
		// 追記位置は常に取得済み件数に合わせる
		q.Skip = l.skip
	}

	l.fetching = true
	gen := l.generation
	l.mu.Unlock()

	result, err := l.fetch(ctx, q)

	l.mu.Lock()
	defer l.mu.Unlock()

	if gen != l.generation {
		// フィルタ変更後に到着した古い応答は反映しない
		l.logger.Debug("stale list response discarded",
			slog.Uint64("generation", gen),
			slog.Uint64("current", l.generation),
		)
		return nil
	}

	l.fetching = false

	if err != nil {
		l.err = model.AsAPIError(err)
		l.logger.Warn("list fetch failed",
			slog.Int("skip", q.Skip),
			slog.String("error", err.Error()),
		)
		return err
	}

	l.err = nil
	if q.Skip == 0 {
		l.items = result.Items
	} else {
		l.items = append(l.items, result.Items...)
	}
	l.total = result.Total
	l.skip = len(l.items)

	return nil
}

// Delete は指定IDのエンティティを削除する。
// 上流の削除成功を確認してから一覧から取り除く（失敗時に偽の状態を見せない）。
// 他の項目の順序は変更しない。
func (l *List[T]) Delete(ctx context.Context, id string) error {
	if err := l.delete(ctx, id); err != nil {
		l.mu.Lock()
		l.err = model.AsAPIError(err)
		l.mu.Unlock()
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for i, item := range l.items {
		if l.idOf(item) == id {
			l.items = append(l.items[:i], l.items[i+1:]...)
			l.total--
			l.skip = len(l.items)
			break
		}
	}
	l.err = nil

	return nil
}

// Reset は一覧を初期状態に戻す。
// ページ離脱時とフィルタ変更時に呼び出し、別フィルタの結果の残留を防ぐ。
func (l *List[T]) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.resetLocked()
	l.filterKey = ""
}

// resetLocked はロック保持中に一覧を初期化し、世代番号を進める。
func (l *List[T]) resetLocked() {
	l.items = nil
	l.total = 0
	l.skip = 0
	l.err = nil
	l.fetching = false
	l.generation++
}
