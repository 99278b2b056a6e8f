// Package apiclient は業務管理REST API（上流）のHTTPクライアントを提供する。
//
// リソース（顧客・商品・注文・販売）ごとのCRUD呼び出しと認証・ルックアップの
// 呼び出しを持つ。トークンが渡された場合はAuthorization: Bearerヘッダーを付与し、
// 非2xx応答はHTTPステータスとサーバーメッセージを持つ*model.APIErrorに正規化する。
// 401はmodel.ErrUnauthorizedとして返し、呼び出し元が強制ログアウトを行う。
// リトライは行わない。失敗はすべて呼び出し元に伝播する。
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// maxResponseBody は上流応答ボディの読み取り上限（バイト）。
const maxResponseBody = 4 << 20

// Recorder は上流API呼び出しのメトリクス記録インターフェース。
// metricsパッケージのCollectorが実装する。
type Recorder interface {
	RecordUpstreamCall(resource, operation string, statusCode int, duration time.Duration)
}

// Client は上流業務APIのクライアント。
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	recorder   Recorder // nilの場合は記録しない
}

// NewClient はClientの新しいインスタンスを生成する。
// baseURLは末尾スラッシュなしの上流APIホストを指定する。
func NewClient(httpClient *http.Client, baseURL string, logger *slog.Logger, recorder Recorder) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		logger:     logger,
		recorder:   recorder,
	}
}

// errorBody は上流APIのエラー応答ボディ。
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// do は上流APIへのHTTP呼び出しを1回実行する。
// tokenが空でない場合はベアラートークンを付与する。
// 2xx応答のボディをoutにデコードして返す（outがnilの場合はボディを捨てる）。
func (c *Client) do(ctx context.Context, method, path, token string, query url.Values, body, out any) error {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("リクエストボディのエンコードに失敗しました: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		c.logger.Error("upstream request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		c.record(path, method, 0, duration)
		return fmt.Errorf("上流APIの呼び出しに失敗しました: %w", err)
	}
	defer resp.Body.Close()

	c.record(path, method, resp.StatusCode, duration)

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return fmt.Errorf("レスポンスボディの読み取りに失敗しました: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.normalizeError(method, path, resp.StatusCode, data)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("レスポンスJSONのパースに失敗しました: %w", err)
	}

	return nil
}

// normalizeError は非2xx応答を*model.APIErrorに正規化する。
// ボディがJSONでない場合はサーバーメッセージなしとして扱う。
func (c *Client) normalizeError(method, path string, status int, data []byte) error {
	var eb errorBody
	_ = json.Unmarshal(data, &eb)

	msg := eb.Message
	if msg == "" {
		msg = eb.Error
	}

	level := slog.LevelWarn
	if status >= 500 {
		level = slog.LevelError
	}
	c.logger.Log(context.Background(), level, "upstream error response",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("http_status", status),
	)

	return newUpstreamError(status, msg)
}

// record はメトリクスレコーダーが設定されている場合に呼び出しを記録する。
func (c *Client) record(path, method string, status int, duration time.Duration) {
	if c.recorder == nil {
		return
	}
	c.recorder.RecordUpstreamCall(resourceFromPath(path), method, status, duration)
}
