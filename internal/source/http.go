package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// ErrStatus is wrapped by errors for responses with status >= 400.
var ErrStatus = errors.New("unexpected response status")

const (
	defaultEndpoint  = "127.0.0.1:8080"
	defaultPath      = "/view-log"
	defaultUserAgent = "rill/0.1"
	dialTimeout      = 5 * time.Second
	headerTimeout    = 10 * time.Second
)

// HTTP streams a chunked response body from a log endpoint.
type HTTP struct {
	url       *url.URL
	http      *http.Client
	userAgent string
}

// NewHTTP builds an HTTP source for endpoint, which may be a bare host:port.
func NewHTTP(endpoint string) (*HTTP, error) {
	u, err := parseEndpoint(endpoint)
	if err != nil {
		return nil, err
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   dialTimeout,
		ResponseHeaderTimeout: headerTimeout,
		// Content-Encoding is handled in Open so zstd works too.
		DisableCompression: true,
	}
	return &HTTP{
		url: u,
		// No overall timeout: the body is open-ended.
		http:      &http.Client{Transport: transport},
		userAgent: defaultUserAgent,
	}, nil
}

// String returns the resolved stream URL.
func (h *HTTP) String() string {
	return h.url.String()
}

// Open issues the GET request and returns the (decompressed) body.
// Cancelling ctx aborts the request and any blocked Read.
func (h *HTTP) Open(ctx context.Context) (io.ReadCloser, error) {
	if h == nil {
		return nil, fmt.Errorf("source is nil")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/plain, */*")
	req.Header.Set("Accept-Encoding", "gzip, zstd")
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	if resp.StatusCode >= 400 {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: %s returned status %d", ErrStatus, h.url.Path, resp.StatusCode)
	}

	body, err := decodeBody(resp)
	if err != nil {
		_ = resp.Body.Close()
		return nil, err
	}
	return &ctxBody{ReadCloser: body, ctx: ctx}, nil
}

func decodeBody(resp *http.Response) (io.ReadCloser, error) {
	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	switch encoding {
	case "", "identity":
		return resp.Body, nil
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		return &layeredBody{Reader: zr, closers: []func() error{zr.Close, resp.Body.Close}}, nil
	case "zstd":
		// One goroutine keeps decoding in step with Read calls.
		zr, err := zstd.NewReader(resp.Body, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("open zstd stream: %w", err)
		}
		return &layeredBody{Reader: zr, closers: []func() error{
			func() error { zr.Close(); return nil },
			resp.Body.Close,
		}}, nil
	default:
		return nil, fmt.Errorf("unsupported content encoding %q", encoding)
	}
}

// layeredBody closes the decompressor and then the transport body.
type layeredBody struct {
	io.Reader
	closers []func() error
}

func (b *layeredBody) Close() error {
	var errs []error
	for _, closeFn := range b.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func parseEndpoint(endpoint string) (*url.URL, error) {
	trimmed := strings.TrimSpace(endpoint)
	if trimmed == "" {
		trimmed = defaultEndpoint
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse endpoint %q: %w", endpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse endpoint %q: unsupported scheme %q", endpoint, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse endpoint %q: missing host", endpoint)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = defaultPath
	}
	u.Fragment = ""
	return u, nil
}
