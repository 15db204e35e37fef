// Package httpclient builds the outbound HTTP clients shared by scrapers and
// metadata lookups, optionally routed through an HTTP or SOCKS5 proxy.
package httpclient

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// DefaultTimeout bounds a single request when callers do not configure one.
const DefaultTimeout = 10 * time.Second

// New returns a client with the given timeout. An empty proxyURL means a
// direct connection; socks5:// URLs dial through golang.org/x/net/proxy and
// anything else is treated as an HTTP proxy.
func New(timeout time.Duration, proxyURL string) (*http.Client, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := &http.Client{Timeout: timeout}

	proxyURL = strings.TrimSpace(proxyURL)
	if proxyURL == "" {
		return client, nil
	}

	parsed, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("parse proxy url: %w", err)
	}

	switch strings.ToLower(parsed.Scheme) {
	case "socks5", "socks5h":
		dialer, err := proxy.FromURL(parsed, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("create socks5 dialer: %w", err)
		}
		transport := &http.Transport{}
		if ctxDialer, ok := dialer.(proxy.ContextDialer); ok {
			transport.DialContext = ctxDialer.DialContext
		} else {
			transport.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			}
		}
		client.Transport = transport
	case "http", "https":
		client.Transport = &http.Transport{Proxy: http.ProxyURL(parsed)}
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q", parsed.Scheme)
	}
	return client, nil
}

// MustNew is New for callers that already validated the proxy URL; a bad
// proxy falls back to a direct client.
func MustNew(timeout time.Duration, proxyURL string) *http.Client {
	client, err := New(timeout, proxyURL)
	if err != nil {
		return &http.Client{Timeout: timeoutOrDefault(timeout)}
	}
	return client
}

func timeoutOrDefault(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return DefaultTimeout
	}
	return timeout
}
