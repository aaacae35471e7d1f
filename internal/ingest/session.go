package ingest

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/five82/rill/internal/source"
	"github.com/five82/rill/internal/state"
)

// session is one connection attempt. The decoder and framer belong to the
// read goroutine; pending is shared with the flush loop under mu.
type session struct {
	opts    Options
	src     source.Source
	decoder *Decoder
	framer  *Framer
	logger  *slog.Logger

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	readDone chan struct{}
	done     chan struct{}

	mu      sync.Mutex
	pending []string
	stopped bool
}

func newSession(parent context.Context, opts Options, decoder *Decoder, src source.Source) *session {
	ctx, cancel := context.WithCancel(parent)
	return &session{
		opts:     opts,
		src:      src,
		decoder:  decoder,
		framer:   NewFramer(opts.TrimCR, opts.MaxLineBytes),
		logger:   opts.Logger.With("source", src.String()),
		ctx:      ctx,
		cancel:   cancel,
		readDone: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (s *session) launch() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(s.readDone)
		s.read()
	}()

	if s.opts.FlushInterval > 0 {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.flushLoop(s.opts.FlushInterval)
		}()
	}

	go func() {
		s.wg.Wait()
		s.cancel()
		close(s.done)
	}()
}

// stop blocks until both goroutines have exited. No append happens after the
// stopped flag is set.
func (s *session) stop() {
	s.mu.Lock()
	s.stopped = true
	s.pending = nil
	s.mu.Unlock()

	s.cancel()
	<-s.done
}

func (s *session) read() {
	s.logger.Debug("opening stream")
	body, err := s.src.Open(s.ctx)
	if err != nil {
		s.finish(err)
		return
	}
	defer func() { _ = body.Close() }()

	s.opts.Status.Connected()
	s.logger.Info("stream connected")

	buf := make([]byte, s.opts.ChunkSize)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			lines := s.framer.Push(s.decoder.Decode(buf[:n]))
			s.opts.Status.Chunk(n, len(lines))
			s.enqueue(lines)
		}
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) {
			lines := s.framer.Push(s.decoder.Flush())
			if rest, ok := s.framer.Finish(); ok {
				lines = append(lines, rest)
			}
			s.enqueue(lines)
			s.finish(nil)
			return
		}
		s.finish(err)
		return
	}
}

// finish classifies how the read ended: cancellation is silent, anything
// else publishes what was already framed.
func (s *session) finish(err error) {
	if s.ctx.Err() != nil || errors.Is(err, context.Canceled) {
		s.mu.Lock()
		s.pending = nil
		s.mu.Unlock()
		s.opts.Status.End(state.PhaseStopped, nil)
		s.logger.Debug("stream cancelled")
		return
	}

	s.publish()
	if err != nil {
		s.logger.Error("stream failed", "error", err)
		s.opts.Status.End(state.PhaseFailed, err)
		return
	}
	s.logger.Info("stream ended")
	s.opts.Status.End(state.PhaseEnded, nil)
}

func (s *session) enqueue(lines []string) {
	if len(lines) == 0 {
		return
	}
	s.mu.Lock()
	if !s.stopped {
		s.pending = append(s.pending, lines...)
	}
	s.mu.Unlock()

	if s.opts.FlushInterval <= 0 {
		s.publish()
	}
}

func (s *session) flushLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-s.readDone:
			return
		case <-ticker.C:
			s.publish()
		}
	}
}

// publish moves pending lines into the buffer in arrival order. Holding mu
// across the append keeps concurrent publishers from reordering batches.
func (s *session) publish() {
	s.mu.Lock()
	if s.stopped || len(s.pending) == 0 {
		s.mu.Unlock()
		return
	}
	batch := s.pending
	s.pending = nil
	s.opts.Buffer.Append(batch...)
	s.mu.Unlock()

	if s.opts.Notify != nil {
		s.opts.Notify()
	}
}
