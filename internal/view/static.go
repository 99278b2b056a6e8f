package view

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var staticFS embed.FS

// StaticHandler は埋め込み静的ファイル（CSS）を配信するハンドラーを返す。
// /static/ プレフィックスでマウントすることを想定する。
func StaticHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// go:embedのパスはビルド時に固定されるため到達しない
		panic(err)
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}
