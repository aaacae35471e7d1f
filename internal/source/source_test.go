package source

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

func TestParseEndpoint_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseEndpoint("")
	if err != nil {
		t.Fatalf("parseEndpoint returned error: %v", err)
	}
	if u.Scheme != "http" || u.Host != defaultEndpoint || u.Path != defaultPath {
		t.Fatalf("parseEndpoint(\"\") = %q, want http://%s%s", u.String(), defaultEndpoint, defaultPath)
	}

	u, err = parseEndpoint("  logs.example.com:9000  ")
	if err != nil {
		t.Fatalf("parseEndpoint returned error: %v", err)
	}
	if u.String() != "http://logs.example.com:9000/view-log" {
		t.Fatalf("parseEndpoint host:port = %q", u.String())
	}

	u, err = parseEndpoint("https://example.com/stream?since=0#frag")
	if err != nil {
		t.Fatalf("parseEndpoint returned error: %v", err)
	}
	if u.Path != "/stream" || u.RawQuery != "since=0" || u.Fragment != "" {
		t.Fatalf("parseEndpoint kept wrong parts: %q", u.String())
	}
}

func TestParseEndpoint_Rejects(t *testing.T) {
	for _, endpoint := range []string{"ftp://example.com/x", "http://"} {
		if _, err := parseEndpoint(endpoint); err == nil {
			t.Fatalf("parseEndpoint(%q) returned nil error", endpoint)
		}
	}
}

func TestParse_SelectsSource(t *testing.T) {
	tests := []struct {
		endpoint string
		want     string
	}{
		{"-", "stdin"},
		{"file:///var/log/app.log", "/var/log/app.log"},
		{"/tmp/app.log", "/tmp/app.log"},
		{"example.com:81", "http://example.com:81/view-log"},
	}
	for _, tt := range tests {
		t.Run(tt.endpoint, func(t *testing.T) {
			src, err := Parse(tt.endpoint)
			if err != nil {
				t.Fatalf("Parse returned error: %v", err)
			}
			if src.String() != tt.want {
				t.Fatalf("Parse(%q).String() = %q, want %q", tt.endpoint, src.String(), tt.want)
			}
		})
	}
}

func TestHTTP_StreamsBodyWithHeaders(t *testing.T) {
	t.Parallel()

	var gotUserAgent, gotAccept, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept-Encoding")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "text/plain")
		flusher := w.(http.Flusher)
		for _, chunk := range []string{"hel", "lo\nwor", "ld\n"} {
			_, _ = io.WriteString(w, chunk)
			flusher.Flush()
		}
	}))
	t.Cleanup(server.Close)

	src, err := NewHTTP(server.URL)
	if err != nil {
		t.Fatalf("NewHTTP returned error: %v", err)
	}
	body, err := src.Open(context.Background())
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("ReadAll returned error: %v", err)
	}
	if string(data) != "hello\nworld\n" {
		t.Fatalf("body = %q, want hello\\nworld\\n", data)
	}
	if gotPath != defaultPath {
		t.Fatalf("path = %q, want %q", gotPath, defaultPath)
	}
	if !strings.HasPrefix(gotUserAgent, "rill/") {
		t.Fatalf("User-Agent = %q, want rill/*", gotUserAgent)
	}
	if !strings.Contains(gotAccept, "zstd") || !strings.Contains(gotAccept, "gzip") {
		t.Fatalf("Accept-Encoding = %q, want gzip and zstd", gotAccept)
	}
}

func TestHTTP_DecompressesBodies(t *testing.T) {
	t.Parallel()

	const payload = "first line\nsecond line\n"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/gzip":
			w.Header().Set("Content-Encoding", "gzip")
			zw := gzip.NewWriter(w)
			_, _ = io.WriteString(zw, payload)
			_ = zw.Close()
		case "/zstd":
			w.Header().Set("Content-Encoding", "zstd")
			zw, err := zstd.NewWriter(w)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			_, _ = io.WriteString(zw, payload)
			_ = zw.Close()
		case "/brotli":
			w.Header().Set("Content-Encoding", "br")
			_, _ = io.WriteString(w, "??")
		}
	}))
	t.Cleanup(server.Close)

	for _, path := range []string{"/gzip", "/zstd"} {
		t.Run(path, func(t *testing.T) {
			src, err := NewHTTP(server.URL + path)
			if err != nil {
				t.Fatalf("NewHTTP returned error: %v", err)
			}
			body, err := src.Open(context.Background())
			if err != nil {
				t.Fatalf("Open returned error: %v", err)
			}
			data, err := io.ReadAll(body)
			if err != nil {
				t.Fatalf("ReadAll returned error: %v", err)
			}
			if err := body.Close(); err != nil {
				t.Fatalf("Close returned error: %v", err)
			}
			if string(data) != payload {
				t.Fatalf("body = %q, want %q", data, payload)
			}
		})
	}

	src, err := NewHTTP(server.URL + "/brotli")
	if err != nil {
		t.Fatalf("NewHTTP returned error: %v", err)
	}
	if _, err := src.Open(context.Background()); err == nil || !strings.Contains(err.Error(), "unsupported content encoding") {
		t.Fatalf("Open error = %v, want unsupported content encoding", err)
	}
}

func TestHTTP_StatusError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	src, err := NewHTTP(server.URL)
	if err != nil {
		t.Fatalf("NewHTTP returned error: %v", err)
	}
	_, err = src.Open(context.Background())
	if !errors.Is(err, ErrStatus) {
		t.Fatalf("Open error = %v, want ErrStatus", err)
	}
	if !strings.Contains(err.Error(), "returned status 502") {
		t.Fatalf("Open error = %q, want status 502", err.Error())
	}
}

func TestHTTP_CancelAbortsBlockedRead(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "partial")
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	t.Cleanup(func() {
		close(release)
		server.Close()
	})

	src, err := NewHTTP(server.URL)
	if err != nil {
		t.Fatalf("NewHTTP returned error: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	body, err := src.Open(ctx)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	defer body.Close()

	buf := make([]byte, 64)
	if _, err := io.ReadAtLeast(body, buf, len("partial")); err != nil {
		t.Fatalf("first read returned error: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := body.Read(buf)
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("read error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("read did not return after cancel")
	}
}

func TestFile_ReopensFromStart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	if err := os.WriteFile(path, []byte("a\nb\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	src := File(path)
	for i := 0; i < 2; i++ {
		body, err := src.Open(context.Background())
		if err != nil {
			t.Fatalf("Open #%d returned error: %v", i, err)
		}
		data, err := io.ReadAll(body)
		if err != nil {
			t.Fatalf("ReadAll returned error: %v", err)
		}
		_ = body.Close()
		if string(data) != "a\nb\n" {
			t.Fatalf("Open #%d body = %q", i, data)
		}
	}

	if _, err := File(filepath.Join(t.TempDir(), "missing.log")).Open(context.Background()); err == nil {
		t.Fatalf("Open on missing file returned nil error")
	}
}

func TestReader_CancelUnblocksPipe(t *testing.T) {
	pr, pw, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	t.Cleanup(func() { _ = pw.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	body, err := NewReader("pipe", pr).Open(ctx)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := body.Read(make([]byte, 16))
		done <- err
	}()
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("read error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("read did not return after cancel")
	}
	if err := body.Close(); err != nil {
		t.Fatalf("Close after cancel returned error: %v", err)
	}
}

func TestReader_OpenWithCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewReader("buf", bytes.NewBufferString("x")).Open(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Open error = %v, want context.Canceled", err)
	}
}

func TestReader_OneShotRefusesSecondOpen(t *testing.T) {
	r := NewReader("stdin", bytes.NewBufferString("once\n"))
	if CanReopen(r) {
		t.Fatalf("CanReopen(NewReader) = true, want false")
	}

	body, err := r.Open(context.Background())
	if err != nil {
		t.Fatalf("first Open returned error: %v", err)
	}
	_ = body.Close()

	if _, err := r.Open(context.Background()); !errors.Is(err, ErrConsumed) {
		t.Fatalf("second Open error = %v, want ErrConsumed", err)
	}
}

func TestCanReopen_FilesAndHTTP(t *testing.T) {
	httpSrc, err := NewHTTP("127.0.0.1:8080")
	if err != nil {
		t.Fatalf("NewHTTP returned error: %v", err)
	}
	for _, src := range []Source{File("/var/log/app.log"), httpSrc} {
		if !CanReopen(src) {
			t.Fatalf("CanReopen(%s) = false, want true", src)
		}
	}
}
