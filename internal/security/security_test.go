package security

import (
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/shopman/internal/model"
)

// TestValidateBaseURL_ErrorCarriesCode は検証エラーが統一エラーフォーマットで
// INVALID_BASE_URLコードを持つことを検証する。
func TestValidateBaseURL_ErrorCarriesCode(t *testing.T) {
	g := NewOutboundGuard()

	err := g.ValidateBaseURL("ftp://api.example.com", false)
	if err == nil {
		t.Fatal("不正スキームはエラーを返すべき")
	}
	apiErr := model.AsAPIError(err)
	if apiErr.Code != model.ErrCodeInvalidBaseURL {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeInvalidBaseURL)
	}
	if apiErr.Category != "system" {
		t.Errorf("Category = %q, want system", apiErr.Category)
	}
}

// TestValidateBaseURL_NonStrict は非strict構成でlocalhostが許可されることを検証する。
func TestValidateBaseURL_NonStrict(t *testing.T) {
	g := NewOutboundGuard()

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"localhostを許可", "http://localhost:3000", false},
		{"プライベートIPを許可", "http://192.168.1.10:8080", false},
		{"公開ホストを許可", "https://api.example.com", false},
		{"空URLを拒否", "", true},
		{"不正スキームを拒否", "ftp://api.example.com", true},
		{"ホストなしを拒否", "http://", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.ValidateBaseURL(tt.url, false)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBaseURL(%q, false) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

// TestValidateBaseURL_Strict はstrict構成でプライベート領域が拒否されることを検証する。
func TestValidateBaseURL_Strict(t *testing.T) {
	g := NewOutboundGuard()

	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"localhostを拒否", "http://localhost:3000", true},
		{"ループバックIPを拒否", "http://127.0.0.1:8080", true},
		{"プライベートIPを拒否", "http://10.0.0.5", true},
		{"リンクローカル（メタデータIP）を拒否", "http://169.254.169.254", true},
		{"公開ホストを許可", "https://api.example.com", false},
		{"公開IPを許可", "http://203.0.113.10", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.ValidateBaseURL(tt.url, true)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBaseURL(%q, true) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

// TestNewSafeClient はSSRF防止クライアントが生成されることを検証する。
func TestNewSafeClient(t *testing.T) {
	g := NewOutboundGuard()
	client := g.NewSafeClient(5 * time.Second)

	if client == nil {
		t.Fatal("NewSafeClient は nil を返してはならない")
	}
	if client.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", client.Timeout)
	}
}

// TestSanitize_RemovesTags はHTMLタグがすべて除去されることを検証する。
func TestSanitize_RemovesTags(t *testing.T) {
	s := NewTextSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"プレーンテキストはそのまま", "田中青果店", "田中青果店"},
		{"scriptタグを除去", `<script>alert("x")</script>配達は午前中`, "配達は午前中"},
		{"装飾タグも除去", "<b>重要</b>な備考", "重要な備考"},
		{"imgタグを除去", `<img src="https://evil.example/x.png">メモ`, "メモ"},
		{"空文字列", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Sanitize(tt.input)
			if got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestSanitize_Idempotent は同一入力に対して常に同一出力が返ることを検証する。
func TestSanitize_Idempotent(t *testing.T) {
	s := NewTextSanitizer()

	input := `<div onclick="evil()">備考 <em>です</em></div>`
	first := s.Sanitize(input)
	second := s.Sanitize(first)

	if first != second {
		t.Errorf("冪等性が破れている: 1回目 %q, 2回目 %q", first, second)
	}
	if strings.Contains(first, "<") {
		t.Errorf("タグが残っている: %q", first)
	}
}
