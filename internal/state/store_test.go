package state

import (
	"context"
	"testing"
	"time"

	"github.com/hitoshi/shopman/internal/model"
)

// TestCurrent_FetchOne は単一エンティティの取得と保持を検証する。
func TestCurrent_FetchOne(t *testing.T) {
	c := NewCurrent(func(ctx context.Context, id string) (*model.Product, error) {
		return &model.Product{ID: id, Name: "卵 Lサイズ"}, nil
	})

	entity, err := c.FetchOne(context.Background(), "p1")
	if err != nil {
		t.Fatalf("FetchOne がエラーを返した: %v", err)
	}
	if entity.ID != "p1" {
		t.Errorf("ID = %q, want p1", entity.ID)
	}

	held, errState := c.Get()
	if held == nil || held.ID != "p1" {
		t.Errorf("保持中のエンティティ = %+v, want p1", held)
	}
	if errState != nil {
		t.Errorf("err = %v, want nil", errState)
	}
}

// TestCurrent_FetchOneFailureClearsEntity は取得失敗時に
// 前のエンティティが残らないことを検証する。
func TestCurrent_FetchOneFailureClearsEntity(t *testing.T) {
	fail := false
	c := NewCurrent(func(ctx context.Context, id string) (*model.Product, error) {
		if fail {
			return nil, model.NewResourceNotFoundError("products", id)
		}
		return &model.Product{ID: id}, nil
	})

	if _, err := c.FetchOne(context.Background(), "p1"); err != nil {
		t.Fatalf("FetchOne がエラーを返した: %v", err)
	}

	fail = true
	if _, err := c.FetchOne(context.Background(), "p2"); err == nil {
		t.Fatal("取得失敗でエラーが返らなかった")
	}

	held, errState := c.Get()
	if held != nil {
		t.Errorf("失敗後もエンティティが残っている: %+v", held)
	}
	if errState == nil {
		t.Error("失敗がerr状態に反映されていない")
	}
}

// TestCurrent_Reset はResetでエンティティがクリアされることを検証する。
func TestCurrent_Reset(t *testing.T) {
	c := NewCurrent(func(ctx context.Context, id string) (*model.Customer, error) {
		return &model.Customer{ID: id}, nil
	})

	if _, err := c.FetchOne(context.Background(), "c1"); err != nil {
		t.Fatalf("FetchOne がエラーを返した: %v", err)
	}
	c.Reset()

	held, _ := c.Get()
	if held != nil {
		t.Errorf("Reset後もエンティティが残っている: %+v", held)
	}
}

// TestRegistry_GetCreatesPerSession はセッションごとに独立したStoreが
// 生成されることを検証する。
func TestRegistry_GetCreatesPerSession(t *testing.T) {
	r := NewRegistry(nil, time.Hour, testLogger())
	defer r.Stop()

	s1 := r.Get("sess-1", "token-1")
	s2 := r.Get("sess-2", "token-2")
	if s1 == s2 {
		t.Error("別セッションが同じStoreを共有している")
	}

	// 同じセッション・同じトークンでは同じStoreが返る
	if r.Get("sess-1", "token-1") != s1 {
		t.Error("同一セッションでStoreが再生成された")
	}
}

// TestRegistry_TokenChangeRecreatesStore は再ログインでトークンが変わった場合に
// 古い状態が破棄されることを検証する。
func TestRegistry_TokenChangeRecreatesStore(t *testing.T) {
	r := NewRegistry(nil, time.Hour, testLogger())
	defer r.Stop()

	s1 := r.Get("sess-1", "token-1")
	s2 := r.Get("sess-1", "token-2")
	if s1 == s2 {
		t.Error("トークン変更後も古いStoreが返っている")
	}
}

// TestRegistry_Delete はログアウトでStoreが破棄されることを検証する。
func TestRegistry_Delete(t *testing.T) {
	r := NewRegistry(nil, time.Hour, testLogger())
	defer r.Stop()

	s1 := r.Get("sess-1", "token-1")
	r.Delete("sess-1")

	if r.Get("sess-1", "token-1") == s1 {
		t.Error("Delete後も同じStoreが返っている")
	}
}

// TestRegistry_CleanupReclaimsIdleStores はアイドル期限を超えたStoreが
// 回収されることを検証する。
func TestRegistry_CleanupReclaimsIdleStores(t *testing.T) {
	r := NewRegistry(nil, 10*time.Millisecond, testLogger())
	defer r.Stop()

	s1 := r.Get("sess-1", "token-1")

	time.Sleep(20 * time.Millisecond)
	r.cleanup()

	if r.Get("sess-1", "token-1") == s1 {
		t.Error("アイドル期限切れのStoreが回収されていない")
	}
}
