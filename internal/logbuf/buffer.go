package logbuf

import "sync"

// DefaultCapacity is the number of lines retained when no capacity is given.
const DefaultCapacity = 1000

// Buffer is a fixed-capacity, append-ordered store of log lines.
type Buffer struct {
	mu      sync.RWMutex
	ring    []string
	head    int // index of the oldest line
	count   int
	total   uint64
	dropped uint64
}

// New allocates a Buffer holding at most capacity lines. Non-positive values
// fall back to DefaultCapacity.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{ring: make([]string, capacity)}
}

// Append adds lines in order and evicts the oldest entries so Len never
// exceeds Cap. Eviction and insertion happen under the same lock.
func (b *Buffer) Append(lines ...string) {
	if len(lines) == 0 {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	capacity := len(b.ring)
	b.total += uint64(len(lines))

	// Only the last capacity lines of an oversized batch can survive.
	if skip := len(lines) - capacity; skip > 0 {
		b.dropped += uint64(skip)
		lines = lines[skip:]
	}

	for _, line := range lines {
		if b.count == capacity {
			b.ring[b.head] = ""
			b.head = (b.head + 1) % capacity
			b.count--
			b.dropped++
		}
		b.ring[(b.head+b.count)%capacity] = line
		b.count++
	}
}

// Len returns the number of retained lines.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Cap returns the fixed capacity.
func (b *Buffer) Cap() int {
	return len(b.ring)
}

// Total returns how many lines have ever been appended.
func (b *Buffer) Total() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.total
}

// Dropped returns how many lines have been evicted. The absolute position of
// retained line i is Dropped()+i.
func (b *Buffer) Dropped() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dropped
}

// Line returns the retained line at index i, oldest first.
func (b *Buffer) Line(i int) (string, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if i < 0 || i >= b.count {
		return "", false
	}
	return b.ring[(b.head+i)%len(b.ring)], true
}

// Slice returns a copy of the lines in [start, end), clamped to the retained
// range.
func (b *Buffer) Slice(start, end int) []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sliceLocked(start, end)
}

// Snapshot returns a copy of every retained line in order.
func (b *Buffer) Snapshot() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sliceLocked(0, b.count)
}

// Window returns a consistent view of the lines in [start, end) together
// with the retained length and eviction count observed under one lock.
func (b *Buffer) Window(start, end int) (lines []string, length int, dropped uint64) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sliceLocked(start, end), b.count, b.dropped
}

func (b *Buffer) sliceLocked(start, end int) []string {
	start = max(start, 0)
	end = min(end, b.count)
	if start >= end {
		return nil
	}
	out := make([]string, end-start)
	capacity := len(b.ring)
	for i := range out {
		out[i] = b.ring[(b.head+start+i)%capacity]
	}
	return out
}
