// Package util provides small shared helpers for the googledocs tools:
// proxy-aware HTTP client construction, log level switching, and API key
// masking for log output.
package util

import (
	"context"
	"net"
	"net/http"
	"net/url"

	"github.com/noamross/googledocs/internal/config"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/proxy"
)

// SetProxy routes the client's transport through the proxy named in the
// configuration. SOCKS5 (with optional userinfo credentials) and HTTP(S)
// proxies are supported; an empty or unparseable proxy URL leaves the client
// untouched.
func SetProxy(cfg *config.Config, httpClient *http.Client) *http.Client {
	proxyURL, err := url.Parse(cfg.ProxyURL)
	if err != nil {
		log.Warnf("ignoring malformed proxy url: %v", err)
		return httpClient
	}

	switch proxyURL.Scheme {
	case "socks5":
		username := proxyURL.User.Username()
		password, _ := proxyURL.User.Password()
		dialer, errSOCKS5 := proxy.SOCKS5("tcp", proxyURL.Host, &proxy.Auth{User: username, Password: password}, proxy.Direct)
		if errSOCKS5 != nil {
			log.Errorf("create SOCKS5 dialer failed: %v", errSOCKS5)
			return httpClient
		}
		httpClient.Transport = &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			},
		}
	case "http", "https":
		httpClient.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	}
	return httpClient
}
