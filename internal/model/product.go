package model

import "time"

// Product は商品を表す。
// TypeとPresentationは上流APIのルックアップエンドポイントが返す候補から選択される。
type Product struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Type         string    `json:"type,omitempty"`
	Presentation string    `json:"presentation,omitempty"`
	Price        float64   `json:"price"`
	Stock        int       `json:"stock"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
