package ingest

import (
	"context"
	"errors"
	"io"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/five82/rill/internal/logbuf"
	"github.com/five82/rill/internal/state"
)

// chunkSource serves a fixed list of chunks, one per Read, then either ends,
// fails or blocks until the session is cancelled.
type chunkSource struct {
	chunks  []string
	block   bool
	failErr error
	openErr error

	opened    atomic.Int32
	cancelled chan struct{}
}

func newChunkSource(chunks ...string) *chunkSource {
	return &chunkSource{chunks: chunks, cancelled: make(chan struct{}, 8)}
}

func (s *chunkSource) String() string { return "chunks" }

func (s *chunkSource) Open(ctx context.Context) (io.ReadCloser, error) {
	s.opened.Add(1)
	if s.openErr != nil {
		return nil, s.openErr
	}
	return &chunkReader{ctx: ctx, src: s}, nil
}

type chunkReader struct {
	ctx context.Context
	src *chunkSource
	i   int
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if r.i < len(r.src.chunks) {
		n := copy(p, r.src.chunks[r.i])
		r.i++
		return n, nil
	}
	if r.src.failErr != nil {
		return 0, r.src.failErr
	}
	if r.src.block {
		<-r.ctx.Done()
		r.src.cancelled <- struct{}{}
		return 0, r.ctx.Err()
	}
	return 0, io.EOF
}

func (r *chunkReader) Close() error { return nil }

func newTestIngestor(t *testing.T, capacity int, interval time.Duration) (*Ingestor, *logbuf.Buffer) {
	t.Helper()
	buf := logbuf.New(capacity)
	in, err := New(Options{Buffer: buf, FlushInterval: interval, TrimCR: true})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(in.Stop)
	return in, buf
}

func waitDone(t *testing.T, in *Ingestor) {
	t.Helper()
	select {
	case <-in.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("session did not finish")
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNew_Validates(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatalf("New without buffer returned nil error")
	}
	if _, err := New(Options{Buffer: logbuf.New(1), Encoding: "nope-42"}); err == nil {
		t.Fatalf("New with unknown encoding returned nil error")
	}
}

func TestStart_RequiresSource(t *testing.T) {
	in, _ := newTestIngestor(t, 10, 0)
	if err := in.Start(context.Background(), nil); !errors.Is(err, ErrNoSource) {
		t.Fatalf("Start(nil) error = %v, want ErrNoSource", err)
	}
}

func TestIngest_EndToEndChunkBoundaries(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
	}{
		{"reference split", []string{"hel", "lo\nwor", "ld\n"}},
		{"whole", []string{"hello\nworld\n"}},
		{"per byte", []string{"h", "e", "l", "l", "o", "\n", "w", "o", "r", "l", "d", "\n"}},
		{"terminator first", []string{"hello", "\nworld", "\n"}},
	}
	for _, interval := range []time.Duration{0, 10 * time.Millisecond, time.Hour} {
		for _, tt := range tests {
			t.Run(tt.name+"/"+interval.String(), func(t *testing.T) {
				in, buf := newTestIngestor(t, 100, interval)
				if err := in.Start(context.Background(), newChunkSource(tt.chunks...)); err != nil {
					t.Fatalf("Start returned error: %v", err)
				}
				waitDone(t, in)

				want := []string{"hello", "world"}
				if got := buf.Snapshot(); !reflect.DeepEqual(got, want) {
					t.Fatalf("buffer = %q, want %q", got, want)
				}
				if phase := in.Status().Snapshot().Phase; phase != state.PhaseEnded {
					t.Fatalf("phase = %v, want ended", phase)
				}
			})
		}
	}
}

func TestIngest_MultiByteSplitAcrossChunks(t *testing.T) {
	in, buf := newTestIngestor(t, 10, 0)
	raw := "naïve → ok\n"
	cut := len("naï") - 1 // inside the two-byte ï
	src := newChunkSource(raw[:cut], raw[cut:cut+3], raw[cut+3:])
	if err := in.Start(context.Background(), src); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	waitDone(t, in)

	if got := buf.Snapshot(); !reflect.DeepEqual(got, []string{"naïve → ok"}) {
		t.Fatalf("buffer = %q, want [naïve → ok]", got)
	}
}

func TestIngest_TrailingFragmentEmittedAtEOF(t *testing.T) {
	in, buf := newTestIngestor(t, 10, 10*time.Millisecond)
	if err := in.Start(context.Background(), newChunkSource("a\r\nb\r\n\r\nlast")); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	waitDone(t, in)

	want := []string{"a", "b", "", "last"}
	if got := buf.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Fatalf("buffer = %q, want %q", got, want)
	}
}

func TestIngest_MaxLineBytesSplitsUnterminatedStream(t *testing.T) {
	buf := logbuf.New(10)
	in, err := New(Options{Buffer: buf, MaxLineBytes: 4})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(in.Stop)

	if err := in.Start(context.Background(), newChunkSource("abcdef", "ghij", "k\nxy")); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	waitDone(t, in)

	want := []string{"abcd", "efgh", "ijk", "xy"}
	if got := buf.Snapshot(); !reflect.DeepEqual(got, want) {
		t.Fatalf("buffer = %q, want %q", got, want)
	}
}

func TestIngest_RespectsCapacity(t *testing.T) {
	in, buf := newTestIngestor(t, 3, 0)
	if err := in.Start(context.Background(), newChunkSource("1\n2\n", "3\n4\n5\n")); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	waitDone(t, in)

	if got := buf.Snapshot(); !reflect.DeepEqual(got, []string{"3", "4", "5"}) {
		t.Fatalf("buffer = %q, want [3 4 5]", got)
	}
	if snap := in.Status().Snapshot(); snap.LinesFramed != 5 || snap.BytesRead != 10 {
		t.Fatalf("status = %#v, want 5 lines 10 bytes", snap)
	}
}

func TestStop_MidStreamLeavesBufferUnchanged(t *testing.T) {
	in, buf := newTestIngestor(t, 10, 5*time.Millisecond)
	src := newChunkSource("a\nb\n")
	src.block = true
	if err := in.Start(context.Background(), src); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	waitFor(t, "first flush", func() bool { return buf.Len() == 2 })

	before := buf.Snapshot()
	in.Stop()

	select {
	case <-src.cancelled:
	case <-time.After(2 * time.Second):
		t.Fatalf("in-flight read was not aborted")
	}
	if got := buf.Snapshot(); !reflect.DeepEqual(got, before) {
		t.Fatalf("buffer after Stop = %q, want %q", got, before)
	}
	snap := in.Status().Snapshot()
	if snap.Phase != state.PhaseStopped || snap.LastError != nil {
		t.Fatalf("status after Stop = %v / %v, want stopped without error", snap.Phase, snap.LastError)
	}

	// Stop is idempotent.
	in.Stop()
	in.Stop()
}

func TestStop_DiscardsUnpublishedLines(t *testing.T) {
	in, buf := newTestIngestor(t, 10, time.Hour)
	src := newChunkSource("x\ny\n")
	src.block = true
	if err := in.Start(context.Background(), src); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	waitFor(t, "chunk framed", func() bool { return in.Status().Snapshot().LinesFramed == 2 })

	in.Stop()
	if buf.Len() != 0 {
		t.Fatalf("buffer after Stop = %q, want empty", buf.Snapshot())
	}
}

func TestStop_WithoutSession(t *testing.T) {
	in, _ := newTestIngestor(t, 10, 0)
	in.Stop()
	select {
	case <-in.Done():
	default:
		t.Fatalf("Done() should be closed with no session")
	}
}

func TestParentContextCancelStopsSilently(t *testing.T) {
	in, _ := newTestIngestor(t, 10, 0)
	src := newChunkSource("a\n")
	src.block = true

	ctx, cancel := context.WithCancel(context.Background())
	if err := in.Start(ctx, src); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	cancel()
	waitDone(t, in)

	if snap := in.Status().Snapshot(); snap.Phase != state.PhaseStopped || snap.LastError != nil {
		t.Fatalf("status = %v / %v, want stopped without error", snap.Phase, snap.LastError)
	}
}

func TestIngest_TransportErrorKeepsFramedLines(t *testing.T) {
	in, buf := newTestIngestor(t, 10, time.Hour)
	boom := errors.New("connection reset by peer")
	src := newChunkSource("ok\npart")
	src.failErr = boom
	if err := in.Start(context.Background(), src); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	waitDone(t, in)

	if got := buf.Snapshot(); !reflect.DeepEqual(got, []string{"ok"}) {
		t.Fatalf("buffer = %q, want [ok]", got)
	}
	snap := in.Status().Snapshot()
	if snap.Phase != state.PhaseFailed || !errors.Is(snap.LastError, boom) {
		t.Fatalf("status = %v / %v, want failed with %v", snap.Phase, snap.LastError, boom)
	}
}

func TestIngest_OpenErrorIsReported(t *testing.T) {
	in, buf := newTestIngestor(t, 10, 0)
	src := newChunkSource()
	src.openErr = errors.New("dial tcp: connection refused")
	if err := in.Start(context.Background(), src); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	waitDone(t, in)

	if buf.Len() != 0 {
		t.Fatalf("buffer = %q, want empty", buf.Snapshot())
	}
	if snap := in.Status().Snapshot(); snap.Phase != state.PhaseFailed || snap.LastError == nil {
		t.Fatalf("status = %v / %v, want failed", snap.Phase, snap.LastError)
	}
}

func TestStart_ReplacesRunningSessionAndKeepsHistory(t *testing.T) {
	in, buf := newTestIngestor(t, 10, 0)

	first := newChunkSource("one\n")
	first.block = true
	if err := in.Start(context.Background(), first); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	waitFor(t, "first line", func() bool { return buf.Len() == 1 })

	second := newChunkSource("two\n")
	if err := in.Start(context.Background(), second); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}

	select {
	case <-first.cancelled:
	default:
		t.Fatalf("prior session was still running after Start returned")
	}
	waitDone(t, in)

	if got := buf.Snapshot(); !reflect.DeepEqual(got, []string{"one", "two"}) {
		t.Fatalf("buffer = %q, want [one two]", got)
	}
	if sessions := in.Status().Snapshot().Sessions; sessions != 2 {
		t.Fatalf("Sessions = %d, want 2", sessions)
	}
}

func TestNotify_CalledAfterPublish(t *testing.T) {
	var calls atomic.Int32
	buf := logbuf.New(10)
	in, err := New(Options{Buffer: buf, Notify: func() { calls.Add(1) }})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	t.Cleanup(in.Stop)

	if err := in.Start(context.Background(), newChunkSource("a\n", "partial", " more\n", "")); err != nil {
		t.Fatalf("Start returned error: %v", err)
	}
	waitDone(t, in)

	// Only the two chunks that completed a line publish.
	if got := calls.Load(); got != 2 {
		t.Fatalf("Notify calls = %d, want 2", got)
	}
}
