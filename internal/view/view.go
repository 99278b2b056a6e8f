// Package view は埋め込みテンプレートによるHTMLページのレンダリングを提供する。
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"
)

//go:embed templates/*.html
var templatesFS embed.FS

// pageNames はレンダリング可能なページの一覧。
// 各ページはlayout.htmlと組み合わせてパースされる。
var pageNames = []string{
	"login",
	"signup",
	"activate",
	"error",
	"customer_list",
	"customer_form",
	"product_list",
	"product_form",
	"order_list",
	"order_form",
	"sale_list",
	"sale_form",
}

// RenderRecorder はページレンダリングのメトリクス記録インターフェース。
type RenderRecorder interface {
	RecordPageRender(template string)
	RecordRenderFailure()
}

// Renderer はページごとにパース済みのテンプレートを保持する。
type Renderer struct {
	pages    map[string]*template.Template
	recorder RenderRecorder
	logger   *slog.Logger
}

// NewRenderer は埋め込みテンプレートをパースしてRendererを生成する。
// recorderはnilでもよい（メトリクス記録をスキップする）。
func NewRenderer(recorder RenderRecorder, logger *slog.Logger) (*Renderer, error) {
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		tmpl, err := template.New("layout.html").Funcs(funcMap()).ParseFS(
			templatesFS,
			"templates/layout.html",
			"templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		pages[name] = tmpl
	}

	return &Renderer{
		pages:    pages,
		recorder: recorder,
		logger:   logger,
	}, nil
}

// Page はレイアウトに渡す共通データ。
type Page struct {
	Title     string // ページタイトル
	Active    string // ナビゲーションの強調対象（customers, products, orders, sales）
	UserName  string // ログイン中のユーザー名（未認証なら空）
	CSRFToken string // フォーム隠しフィールド用のCSRFトークン
	Flash     string // ページ上部に表示する操作完了の通知メッセージ
	Content   any    // ページ固有のデータ
}

// Render はページをレンダリングしてレスポンスを書き込む。
// テンプレート実行はバッファに対して行い、失敗時は部分出力せず500を返す。
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, page Page) {
	tmpl, ok := r.pages[name]
	if !ok {
		r.logger.Error("unknown template", slog.String("template", name))
		r.recordFailure()
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout.html", page); err != nil {
		r.logger.Error("failed to render template",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
		r.recordFailure()
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if r.recorder != nil {
		r.recorder.RecordPageRender(name)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// RenderError はエラーページをレンダリングする。
func (r *Renderer) RenderError(w http.ResponseWriter, status int, page Page, message string) {
	page.Title = "エラー"
	page.Content = ErrorData{Status: status, Message: message}
	r.Render(w, status, "error", page)
}

func (r *Renderer) recordFailure() {
	if r.recorder != nil {
		r.recorder.RecordRenderFailure()
	}
}

// ErrorData はエラーページのデータ。
type ErrorData struct {
	Status  int
	Message string
}

// funcMap はテンプレートから利用できる整形関数を返す。
func funcMap() template.FuncMap {
	return template.FuncMap{
		"money":    FormatMoney,
		"date":     FormatDate,
		"datetime": FormatDateTime,
		"quantity": FormatQuantity,
		"seq":      sequence,
	}
}

// FormatMoney は金額を3桁区切り・小数2桁で整形する。
func FormatMoney(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign = "-"
		s = s[1:]
	}

	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}

	return sign + b.String() + "." + fracPart
}

// FormatDate は日付をYYYY-MM-DD形式で整形する。ゼロ値は空文字を返す。
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// FormatDateTime は日時をYYYY-MM-DD HH:MM形式で整形する。ゼロ値は空文字を返す。
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

// FormatQuantity は数量を末尾のゼロを省いた小数表記で整形する。
func FormatQuantity(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// sequence は0からn-1までの整数スライスを返す。
// テンプレートで固定回数の繰り返し（空の明細行など）に使用する。
func sequence(n int) []int {
	s := make([]int, n)
	for i := range s {
		s[i] = i
	}
	return s
}
