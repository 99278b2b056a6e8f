// Package changeset は編集フォーム送信時の最小差分計算を提供する。
//
// 編集画面は読み込んだ元レコードと編集後レコードの差分のみをPATCHで送信する。
// 変更のないフィールドを送らないことで、上流APIでの無意味な更新と
// フォーム既定値（空文字列）による誤った「変更あり」判定を避ける。
package changeset

// Changed は元レコードと編集後レコードの差分を返す。
// 値が等しいキーは含まない。片方がnil（未設定）でもう片方が空文字列の場合は
// 変更なしとして扱う（その逆も同様）。副作用のない純粋関数。
func Changed(original, updated map[string]any) map[string]any {
	diff := make(map[string]any)

	for key, after := range updated {
		before, ok := original[key]
		if !ok {
			before = nil
		}
		if equivalent(before, after) {
			continue
		}
		diff[key] = after
	}

	return diff
}

// equivalent は2つの値が「変更なし」とみなせるかを判定する。
func equivalent(before, after any) bool {
	if before == after {
		return true
	}

	// nil と空文字列は同値として扱う（フォームライブラリの既定値対策）
	if before == nil && after == "" {
		return true
	}
	if before == "" && after == nil {
		return true
	}

	return false
}
