package state

import (
	"fmt"
	"sync"
	"time"
)

// Phase is the lifecycle stage of the current ingestion session.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseConnecting
	PhaseStreaming
	PhaseEnded
	PhaseStopped
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseConnecting:
		return "connecting"
	case PhaseStreaming:
		return "streaming"
	case PhaseEnded:
		return "ended"
	case PhaseStopped:
		return "stopped"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Active reports whether a session is connecting or streaming.
func (p Phase) Active() bool {
	return p == PhaseConnecting || p == PhaseStreaming
}

// Snapshot is the ingestion status visible to the UI.
type Snapshot struct {
	Phase       Phase
	Source      string
	Sessions    int // sessions started since launch
	BytesRead   uint64
	LinesFramed uint64
	StartedAt   time.Time
	LastChunkAt time.Time
	EndedAt     time.Time
	LastError   error
}

// Store coordinates concurrent status updates from the ingestor.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Begin records a new session against source. Counters carry over so the
// totals span reconnects; the last error is cleared.
func (s *Store) Begin(source string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Phase = PhaseConnecting
	s.snapshot.Source = source
	s.snapshot.Sessions++
	s.snapshot.StartedAt = time.Now()
	s.snapshot.EndedAt = time.Time{}
	s.snapshot.LastError = nil
}

// Chunk records bytesRead bytes that framed lines lines.
func (s *Store) Chunk(bytesRead, lines int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Phase = PhaseStreaming
	s.snapshot.BytesRead += uint64(bytesRead)
	s.snapshot.LinesFramed += uint64(lines)
	s.snapshot.LastChunkAt = time.Now()
}

// Connected marks the stream open before the first chunk arrives.
func (s *Store) Connected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot.Phase = PhaseStreaming
}

// End records how the session finished. A non-nil err marks it failed and
// is kept for display; the previous counters are preserved.
func (s *Store) End(phase Phase, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshot.Phase = phase
	s.snapshot.EndedAt = time.Now()
	if err != nil {
		s.snapshot.Phase = PhaseFailed
		s.snapshot.LastError = err
	}
}

// Snapshot returns a copy of the current status.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}
