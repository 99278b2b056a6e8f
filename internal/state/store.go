package state

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/shopman/internal/apiclient"
	"github.com/hitoshi/shopman/internal/model"
)

// Store は1セッション分の全リソース状態を束ねる。
// 移行元のグローバルストアに相当するが、アンビエントなシングルトンではなく
// セッションIDをキーにRegistryが明示的に管理する。
type Store struct {
	Customers    *List[model.Customer]
	CustomerView *Current[model.Customer]

	Products    *List[model.Product]
	ProductView *Current[model.Product]

	Orders    *List[model.Order]
	OrderView *Current[model.Order]

	Sales    *List[model.Sale]
	SaleView *Current[model.Sale]
}

// NewStore は上流APIクライアントとセッションのトークンからStoreを生成する。
func NewStore(api *apiclient.Client, token string, logger *slog.Logger) *Store {
	return &Store{
		Customers: NewList(
			func(ctx context.Context, q model.ListQuery) (*apiclient.ListResult[model.Customer], error) {
				return api.ListCustomers(ctx, token, q)
			},
			func(ctx context.Context, id string) error {
				return api.DeleteCustomer(ctx, token, id)
			},
			func(c model.Customer) string { return c.ID },
			logger,
		),
		CustomerView: NewCurrent(func(ctx context.Context, id string) (*model.Customer, error) {
			return api.GetCustomer(ctx, token, id)
		}),

		Products: NewList(
			func(ctx context.Context, q model.ListQuery) (*apiclient.ListResult[model.Product], error) {
				return api.ListProducts(ctx, token, q)
			},
			func(ctx context.Context, id string) error {
				return api.DeleteProduct(ctx, token, id)
			},
			func(p model.Product) string { return p.ID },
			logger,
		),
		ProductView: NewCurrent(func(ctx context.Context, id string) (*model.Product, error) {
			return api.GetProduct(ctx, token, id)
		}),

		Orders: NewList(
			func(ctx context.Context, q model.ListQuery) (*apiclient.ListResult[model.Order], error) {
				return api.ListOrders(ctx, token, q)
			},
			func(ctx context.Context, id string) error {
				return api.DeleteOrder(ctx, token, id)
			},
			func(o model.Order) string { return o.ID },
			logger,
		),
		OrderView: NewCurrent(func(ctx context.Context, id string) (*model.Order, error) {
			return api.GetOrder(ctx, token, id)
		}),

		Sales: NewList(
			func(ctx context.Context, q model.ListQuery) (*apiclient.ListResult[model.Sale], error) {
				return api.ListSales(ctx, token, q)
			},
			func(ctx context.Context, id string) error {
				return api.DeleteSale(ctx, token, id)
			},
			func(s model.Sale) string { return s.ID },
			logger,
		),
		SaleView: NewCurrent(func(ctx context.Context, id string) (*model.Sale, error) {
			return api.GetSale(ctx, token, id)
		}),
	}
}

// storeEntry はセッションごとのStoreと最終アクセス時刻を保持する。
type storeEntry struct {
	store      *Store
	token      string
	lastAccess time.Time
}

// Registry はセッションIDごとのStoreを管理する。
// 一定時間アクセスのないStoreはバックグラウンドで回収する。
type Registry struct {
	mu      sync.Mutex
	entries map[string]*storeEntry

	api     *apiclient.Client
	logger  *slog.Logger
	maxIdle time.Duration
	stopCh  chan struct{}
}

// NewRegistry はRegistryを生成し、回収ゴルーチンを開始する。
func NewRegistry(api *apiclient.Client, maxIdle time.Duration, logger *slog.Logger) *Registry {
	r := &Registry{
		entries: make(map[string]*storeEntry),
		api:     api,
		logger:  logger,
		maxIdle: maxIdle,
		stopCh:  make(chan struct{}),
	}

	go r.cleanupLoop()

	return r
}

// Get はセッションのStoreを返す。存在しない場合は生成する。
// トークンが変わった場合（再ログイン）は古い状態を捨てて作り直す。
func (r *Registry) Get(sessionID, token string) *Store {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.entries[sessionID]
	if !ok || entry.token != token {
		entry = &storeEntry{
			store: NewStore(r.api, token, r.logger),
			token: token,
		}
		r.entries[sessionID] = entry
	}
	entry.lastAccess = time.Now()

	return entry.store
}

// Delete はセッションのStoreを破棄する。ログアウト時に呼び出す。
func (r *Registry) Delete(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, sessionID)
}

// Stop は回収ゴルーチンを停止する。
func (r *Registry) Stop() {
	close(r.stopCh)
}

// cleanupLoop はアイドル状態のStoreを定期的に回収する。
func (r *Registry) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ticker.C:
			r.cleanup()
		}
	}
}

// cleanup は最終アクセスからmaxIdleを超えたエントリを削除する。
func (r *Registry) cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-r.maxIdle)
	removed := 0
	for id, entry := range r.entries {
		if entry.lastAccess.Before(cutoff) {
			delete(r.entries, id)
			removed++
		}
	}

	if removed > 0 {
		r.logger.Debug("idle session stores reclaimed", slog.Int("count", removed))
	}
}
