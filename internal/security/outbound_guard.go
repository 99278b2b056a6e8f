// Package security はアプリケーションのセキュリティ機能を提供する。
package security

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/doyensec/safeurl"

	"github.com/hitoshi/shopman/internal/model"
)

// OutboundGuardService は上流APIへの外向き通信の保護機能のインターフェースを定義する。
// 起動時のベースURL検証と、必要に応じたSSRF防止クライアントの生成に使用する。
type OutboundGuardService interface {
	// NewSafeClient はSSRF防止機能付きのHTTPクライアントを生成する。
	// safeurlライブラリにより、プライベートIP、ループバック、リンクローカル、
	// メタデータIPへのリクエストが自動的にブロックされる。
	// 上流APIをホスティング環境の外部ホストに向ける構成（STRICT_OUTBOUND）で使用する。
	NewSafeClient(timeout time.Duration) *http.Client

	// ValidateBaseURL は設定された上流APIベースURLの妥当性を事前に検証する。
	// スキームと空ホストの検証を行い、strictの場合はプライベートIP・
	// localhostも拒否する。
	ValidateBaseURL(rawURL string, strict bool) error
}

// allowedSchemes は上流APIベースURLで許可されるスキーム。
var allowedSchemes = []string{"http", "https"}

// blockedNetworks はstrict構成でブロックされるネットワーク範囲。
// パッケージ初期化時に1回だけパースする。
var blockedNetworks []net.IPNet

func init() {
	cidrs := []string{
		// プライベートIPアドレス (RFC 1918)
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		// ループバック (RFC 1122)
		"127.0.0.0/8",
		// リンクローカル (RFC 3927) - クラウドメタデータIP (169.254.169.254) を含む
		"169.254.0.0/16",
		// IPv6ループバック
		"::1/128",
		// IPv6リンクローカル
		"fe80::/10",
		// IPv6ユニークローカル
		"fc00::/7",
	}
	for _, cidr := range cidrs {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			panic(fmt.Sprintf("invalid CIDR in blockedNetworks: %s: %v", cidr, err))
		}
		blockedNetworks = append(blockedNetworks, *network)
	}
}

// outboundGuard はOutboundGuardServiceの実装。
type outboundGuard struct{}

// NewOutboundGuard はOutboundGuardServiceの新しいインスタンスを生成する。
func NewOutboundGuard() *outboundGuard {
	return &outboundGuard{}
}

// NewSafeClient はSSRF防止機能付きのHTTPクライアントを生成する。
// safeurlはnet.DialerのControlフックでDNS解決後のIPアドレスを検証するため、
// DNS再バインディング攻撃にも対応している。
func (g *outboundGuard) NewSafeClient(timeout time.Duration) *http.Client {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(allowedSchemes...).
		SetAllowedPorts(80, 443).
		Build()

	wrappedClient := safeurl.Client(config)
	return wrappedClient.Client
}

// ValidateBaseURL は上流APIベースURLを静的に検証する。
// 検証に失敗した場合はErrCodeInvalidBaseURLを持つAPIErrorを返す。
// strictがfalseの場合はスキームと空ホストのみを検証する
// （ローカル開発では上流がlocalhostを向くため）。
// strictの場合の検証はDNS解決前の静的チェックであり、DNS再バインディング攻撃は
// NewSafeClientが生成するHTTPクライアント側のDialer検証で防止される。
func (g *outboundGuard) ValidateBaseURL(rawURL string, strict bool) error {
	if rawURL == "" {
		return model.NewInvalidBaseURLError("empty base URL")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return model.NewInvalidBaseURLError(fmt.Sprintf("invalid base URL: %v", err))
	}

	scheme := strings.ToLower(parsed.Scheme)
	if !isAllowedScheme(scheme) {
		return model.NewInvalidBaseURLError(fmt.Sprintf("disallowed scheme: %s (allowed: %v)", scheme, allowedSchemes))
	}

	host := parsed.Hostname()
	if host == "" {
		return model.NewInvalidBaseURLError(fmt.Sprintf("empty host in base URL: %s", rawURL))
	}

	if !strict {
		return nil
	}

	if ip := net.ParseIP(host); ip != nil {
		if isBlockedIP(ip) {
			return model.NewInvalidBaseURLError(fmt.Sprintf("blocked IP address: %s", ip.String()))
		}
		return nil
	}

	if isBlockedHostname(host) {
		return model.NewInvalidBaseURLError(fmt.Sprintf("blocked host: %s", host))
	}

	return nil
}

// isAllowedScheme はURLスキームが許可リストに含まれるかを検証する。
func isAllowedScheme(scheme string) bool {
	for _, allowed := range allowedSchemes {
		if strings.EqualFold(scheme, allowed) {
			return true
		}
	}
	return false
}

// isBlockedIP はIPアドレスがブロック対象のネットワーク範囲に含まれるかを検証する。
func isBlockedIP(ip net.IP) bool {
	for _, network := range blockedNetworks {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// blockedHostnames はstrict構成でブロックされるホスト名。
var blockedHostnames = []string{
	"localhost",
}

// isBlockedHostname はホスト名がブロック対象かを検証する。
func isBlockedHostname(host string) bool {
	lower := strings.ToLower(host)
	for _, blocked := range blockedHostnames {
		if lower == blocked {
			return true
		}
	}
	return false
}
