package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"
)

// ErrConsumed is returned when a one-shot stream is opened a second time.
var ErrConsumed = errors.New("stream already consumed")

// Source opens a byte stream. Each Open starts a fresh read of the stream;
// cancelling ctx must abort a blocked Read on the returned body.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	String() string
}

// Reopener is implemented by sources that can tell whether another Open
// starts the stream over.
type Reopener interface {
	Reopenable() bool
}

// CanReopen reports whether src can be opened again after a session ends.
// Sources that do not say are assumed to be reopenable.
func CanReopen(src Source) bool {
	if r, ok := src.(Reopener); ok {
		return r.Reopenable()
	}
	return true
}

// Parse picks a Source for endpoint: "-" reads stdin, file:// URLs and
// absolute paths open local files, anything else is an HTTP(S) stream.
func Parse(endpoint string) (Source, error) {
	trimmed := strings.TrimSpace(endpoint)
	switch {
	case trimmed == "-":
		return Stdin(), nil
	case strings.HasPrefix(trimmed, "file://"):
		u, err := url.Parse(trimmed)
		if err != nil {
			return nil, fmt.Errorf("parse endpoint %q: %w", endpoint, err)
		}
		return File(u.Path), nil
	case strings.HasPrefix(trimmed, "/"):
		return File(trimmed), nil
	default:
		return NewHTTP(trimmed)
	}
}

// Reader adapts a local io.Reader (pipe, file, stdin) to Source.
type Reader struct {
	name    string
	open    func() (io.ReadCloser, error)
	oneShot bool

	mu     sync.Mutex
	opened bool
}

// NewReader wraps r. The stream can only be consumed once: a second Open
// returns ErrConsumed.
func NewReader(name string, r io.Reader) *Reader {
	return &Reader{
		name:    name,
		oneShot: true,
		open: func() (io.ReadCloser, error) {
			if rc, ok := r.(io.ReadCloser); ok {
				return rc, nil
			}
			return io.NopCloser(r), nil
		},
	}
}

// Stdin reads the process's standard input.
func Stdin() *Reader {
	return NewReader("stdin", os.Stdin)
}

// File reads the file at path from the beginning on every Open.
func File(path string) *Reader {
	return &Reader{
		name: path,
		open: func() (io.ReadCloser, error) {
			f, err := os.Open(path)
			if err != nil {
				return nil, fmt.Errorf("open %s: %w", path, err)
			}
			return f, nil
		},
	}
}

// Open returns the underlying reader. Cancelling ctx closes it, which
// unblocks pending reads on pipes and files that support it.
func (r *Reader) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if r.oneShot {
		r.mu.Lock()
		opened := r.opened
		r.opened = true
		r.mu.Unlock()
		if opened {
			return nil, fmt.Errorf("open %s: %w", r.name, ErrConsumed)
		}
	}
	rc, err := r.open()
	if err != nil {
		return nil, err
	}
	stop := context.AfterFunc(ctx, func() { _ = rc.Close() })
	return &ctxBody{ReadCloser: rc, ctx: ctx, stop: stop}, nil
}

// Reopenable reports false for readers wrapped by NewReader.
func (r *Reader) Reopenable() bool {
	return !r.oneShot
}

func (r *Reader) String() string {
	return r.name
}

// ctxBody reports context cancellation instead of whatever error the
// aborted read produced (closed descriptor, reset connection).
type ctxBody struct {
	io.ReadCloser
	ctx  context.Context
	stop func() bool
}

func (c *ctxBody) Read(p []byte) (int, error) {
	n, err := c.ReadCloser.Read(p)
	if err != nil && c.ctx.Err() != nil {
		return n, c.ctx.Err()
	}
	return n, err
}

func (c *ctxBody) Close() error {
	if c.stop != nil && !c.stop() {
		// AfterFunc already closed it.
		return nil
	}
	return c.ReadCloser.Close()
}
