package changeset

import "testing"

// TestChanged_EqualValuesExcluded は値が等しいキーが差分に含まれないことを検証する。
func TestChanged_EqualValuesExcluded(t *testing.T) {
	original := map[string]any{
		"name":  "田中青果店",
		"phone": "03-1234-5678",
		"owes":  false,
	}
	updated := map[string]any{
		"name":  "田中青果店",
		"phone": "03-9999-0000",
		"owes":  false,
	}

	diff := Changed(original, updated)

	if len(diff) != 1 {
		t.Fatalf("差分のキー数 = %d, want 1: %v", len(diff), diff)
	}
	if diff["phone"] != "03-9999-0000" {
		t.Errorf("phone = %v, want 03-9999-0000", diff["phone"])
	}
}

// TestChanged_NilEmptyStringEquivalence はnilと空文字列が双方向で
// 変更なしとして扱われることを検証する。
func TestChanged_NilEmptyStringEquivalence(t *testing.T) {
	tests := []struct {
		name     string
		original map[string]any
		updated  map[string]any
	}{
		{
			name:     "元がnil、編集後が空文字列",
			original: map[string]any{"notes": nil},
			updated:  map[string]any{"notes": ""},
		},
		{
			name:     "元が空文字列、編集後がnil",
			original: map[string]any{"notes": ""},
			updated:  map[string]any{"notes": nil},
		},
		{
			name:     "元にキーなし、編集後が空文字列",
			original: map[string]any{},
			updated:  map[string]any{"notes": ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diff := Changed(tt.original, tt.updated)
			if len(diff) != 0 {
				t.Errorf("差分 = %v, want 空", diff)
			}
		})
	}
}

// TestChanged_RealChanges は実際の変更が差分に含まれることを検証する。
func TestChanged_RealChanges(t *testing.T) {
	original := map[string]any{
		"name":  "卵 Lサイズ",
		"price": 300.0,
		"notes": nil,
	}
	updated := map[string]any{
		"name":  "卵 LLサイズ",
		"price": 350.0,
		"notes": "数量限定",
	}

	diff := Changed(original, updated)

	if len(diff) != 3 {
		t.Fatalf("差分のキー数 = %d, want 3: %v", len(diff), diff)
	}
	if diff["price"] != 350.0 {
		t.Errorf("price = %v, want 350", diff["price"])
	}
	if diff["notes"] != "数量限定" {
		t.Errorf("notes = %v, want 数量限定", diff["notes"])
	}
}

// TestChanged_EmptyInputs は空の入力で空の差分が返ることを検証する。
func TestChanged_EmptyInputs(t *testing.T) {
	diff := Changed(map[string]any{}, map[string]any{})
	if len(diff) != 0 {
		t.Errorf("差分 = %v, want 空", diff)
	}
}
