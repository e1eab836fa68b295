package tlsutil

import (
	"crypto/tls"
	"net"
	"net/http"
	"time"
)

// DefaultTLSConfig returns a hardened TLS configuration.
// MinVersion TLS 1.2, AEAD-only cipher suites.
func DefaultTLSConfig() *tls.Config {
	return &tls.Config{
		MinVersion: tls.VersionTLS12,
		CipherSuites: []uint16{
			tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
			tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
		},
	}
}

// ClientOptions tunes the transport built by NewHTTPClient.
type ClientOptions struct {
	// MaxConnsPerHost bounds concurrent connections to one upstream.
	// Extraction workers and RxNorm lookups all target a single host.
	MaxConnsPerHost int
	DialTimeout     time.Duration
	IdleConnTimeout time.Duration
}

// DefaultClientOptions returns the options used by SecureHTTPClient.
func DefaultClientOptions() ClientOptions {
	return ClientOptions{
		MaxConnsPerHost: 16,
		DialTimeout:     30 * time.Second,
		IdleConnTimeout: 90 * time.Second,
	}
}

// SecureTransport returns an http.Transport with TLS hardening and the
// default client options.
func SecureTransport() *http.Transport {
	return newTransport(DefaultClientOptions())
}

func newTransport(opts ClientOptions) *http.Transport {
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 30 * time.Second
	}
	if opts.IdleConnTimeout <= 0 {
		opts.IdleConnTimeout = 90 * time.Second
	}
	return &http.Transport{
		Proxy:           http.ProxyFromEnvironment,
		TLSClientConfig: DefaultTLSConfig(),
		DialContext: (&net.Dialer{
			Timeout:   opts.DialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   opts.MaxConnsPerHost,
		MaxConnsPerHost:       opts.MaxConnsPerHost,
		IdleConnTimeout:       opts.IdleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}

// NewHTTPClient returns an http.Client with TLS hardening and the given
// transport options.
func NewHTTPClient(timeout time.Duration, opts ClientOptions) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: newTransport(opts),
	}
}

// SecureHTTPClient returns an http.Client with TLS hardening.
// Drop-in replacement for &http.Client{Timeout: timeout}.
func SecureHTTPClient(timeout time.Duration) *http.Client {
	return NewHTTPClient(timeout, DefaultClientOptions())
}
