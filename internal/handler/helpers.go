// Package handler はHTMLページのHTTPハンドラーを提供する。
package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/shopman/internal/middleware"
	"github.com/hitoshi/shopman/internal/model"
	"github.com/hitoshi/shopman/internal/state"
	"github.com/hitoshi/shopman/internal/view"
)

// pageFor はリクエストのセッション・CSRFトークンからレイアウト共通データを組み立てる。
func pageFor(r *http.Request, title, active string) view.Page {
	page := view.Page{
		Title:     title,
		Active:    active,
		CSRFToken: middleware.CSRFTokenFromContext(r.Context()),
	}
	if session := middleware.SessionFromContext(r.Context()); session != nil {
		page.UserName = session.UserName
	}
	page.Flash = noticeMessage(r.URL.Query().Get("notice"))
	return page
}

// noticeMessage はリダイレクト時のnoticeクエリパラメータを表示文言に変換する。
// 許可リスト方式とし、未知の値は表示しない。
func noticeMessage(notice string) string {
	switch notice {
	case "created":
		return "登録しました。"
	case "updated":
		return "更新しました。"
	case "deleted":
		return "削除しました。"
	default:
		return ""
	}
}

// clearSessionCookie はセッションCookieを失効させる。
func clearSessionCookie(w http.ResponseWriter, secure bool, domain string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		Domain:   domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// setSessionCookie はセッションIDをHTTP Only Cookieに設定する。
func setSessionCookie(w http.ResponseWriter, sessionID string, maxAge int, secure bool, domain string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sessionID,
		Path:     "/",
		Domain:   domain,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// parseListQuery はクエリ文字列から一覧取得条件を組み立てる。
// skipは0以上、limitはページサイズ固定。
func parseListQuery(r *http.Request, limit int) model.ListQuery {
	q := model.ListQuery{
		Limit:  limit,
		Search: strings.TrimSpace(r.URL.Query().Get("textQuery")),
		SortBy: r.URL.Query().Get("sortBy"),
	}

	if skip, err := strconv.Atoi(r.URL.Query().Get("skip")); err == nil && skip > 0 {
		q.Skip = skip
	}
	q.Direction = model.ParseSortDirection(r.URL.Query().Get("direction"))
	if from, err := time.Parse("2006-01-02", r.URL.Query().Get("from")); err == nil {
		q.From = from
	}
	if to, err := time.Parse("2006-01-02", r.URL.Query().Get("to")); err == nil {
		q.To = to
	}
	if r.URL.Query().Get("owes") == "true" {
		owes := true
		q.Owes = &owes
	}
	if r.URL.Query().Get("isThirteenDozen") == "true" {
		thirteenDozen := true
		q.ThirteenDozen = &thirteenDozen
	}
	q.CustomerID = r.URL.Query().Get("customer")
	q.ProductType = r.URL.Query().Get("type")

	return q
}

// loadMoreURL は現在のフィルタを維持したまま次ページを指すURLを生成する。
func loadMoreURL(r *http.Request, nextSkip int) string {
	values := url.Values{}
	for key, vs := range r.URL.Query() {
		// 通知は初回表示のみ。次ページのURLには引き継がない
		if key == "skip" || key == "notice" {
			continue
		}
		for _, v := range vs {
			values.Add(key, v)
		}
	}
	values.Set("skip", strconv.Itoa(nextSkip))
	return r.URL.Path + "?" + values.Encode()
}

// listData は取得済みの一覧状態をページデータへ写し取る。
func listData[T any](r *http.Request, list *state.List[T]) view.ListData[T] {
	items, total, skip, apiErr := list.Snapshot()

	data := view.ListData[T]{
		Items:     items,
		Total:     total,
		HasMore:   list.HasMore(),
		Search:    r.URL.Query().Get("textQuery"),
		SortBy:    r.URL.Query().Get("sortBy"),
		Direction: r.URL.Query().Get("direction"),
	}
	if data.HasMore {
		data.LoadMoreURL = loadMoreURL(r, skip)
	}
	if apiErr != nil {
		data.Err = apiErr.Message
	}
	return data
}

// formValue はフォーム値の前後空白を除去して返す。
func formValue(r *http.Request, name string) string {
	return strings.TrimSpace(r.PostFormValue(name))
}
