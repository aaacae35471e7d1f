package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/five82/rill/internal/logbuf"
	"github.com/five82/rill/internal/source"
	"github.com/five82/rill/internal/state"
)

// ErrNoSource is returned by Start when no source is given.
var ErrNoSource = errors.New("no byte source")

const (
	// DefaultFlushInterval is how often framed lines are published.
	DefaultFlushInterval = 100 * time.Millisecond

	// DefaultChunkSize is the read size used for the byte stream.
	DefaultChunkSize = 32 * 1024
)

// Options configure an Ingestor.
type Options struct {
	Buffer *logbuf.Buffer
	Status *state.Store // optional; a private store is used when nil
	Logger *slog.Logger // optional

	// FlushInterval batches publication to Buffer. Zero publishes every
	// chunk as soon as it is framed.
	FlushInterval time.Duration
	ChunkSize     int // zero uses DefaultChunkSize
	Encoding      string
	TrimCR        bool
	MaxLineBytes  int // longer lines are split; zero keeps them whole

	// Notify is called after lines are published. It runs on an ingestion
	// goroutine and must not block.
	Notify func()
}

// Ingestor owns the connection lifecycle. At most one session runs at a
// time.
type Ingestor struct {
	opts Options

	mu      sync.Mutex
	current *session
}

// New validates opts and returns an idle Ingestor.
func New(opts Options) (*Ingestor, error) {
	if opts.Buffer == nil {
		return nil, fmt.Errorf("ingest requires a buffer")
	}
	if _, err := lookupEncoding(opts.Encoding); err != nil {
		return nil, err
	}
	if opts.Status == nil {
		opts.Status = &state.Store{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.FlushInterval < 0 {
		opts.FlushInterval = 0
	}
	return &Ingestor{opts: opts}, nil
}

// Status returns the store sessions report into.
func (in *Ingestor) Status() *state.Store {
	return in.opts.Status
}

// Start stops any running session and begins reading src. It returns once
// the new session is launched; the stream is opened asynchronously.
func (in *Ingestor) Start(ctx context.Context, src source.Source) error {
	if src == nil {
		return ErrNoSource
	}
	decoder, err := NewDecoder(in.opts.Encoding)
	if err != nil {
		return err
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	if in.current != nil {
		in.current.stop()
		in.current = nil
	}

	in.opts.Status.Begin(src.String())
	sess := newSession(ctx, in.opts, decoder, src)
	in.current = sess
	sess.launch()
	return nil
}

// Stop cancels the running session and waits for it to exit. Lines framed
// but not yet published are discarded; the buffer keeps what it already
// holds. Stop is safe to call repeatedly or with no session.
func (in *Ingestor) Stop() {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.current == nil {
		return
	}
	in.current.stop()
	in.current = nil
}

// Done returns a channel closed when the current session exits. With no
// session the channel is already closed.
func (in *Ingestor) Done() <-chan struct{} {
	in.mu.Lock()
	defer in.mu.Unlock()

	if in.current == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return in.current.done
}
