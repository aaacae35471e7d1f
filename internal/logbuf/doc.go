// Package logbuf holds the bounded line store shared by ingestion and the
// viewer.
//
// # Overview
//
// A Buffer is a ring of fixed capacity (DefaultCapacity lines unless
// configured). Lines are appended in arrival order; once the ring is full
// each append overwrites the oldest slot. The capacity is chosen at
// construction and never changes, so the bound is enforced by the data
// structure itself rather than by callers trimming a slice.
//
// # Ring Layout
//
//	ring:  [ e | f | b | c | d ]
//	                ^head
//	count = 5, capacity = 5
//
// Logical index i maps to ring[(head+i) % capacity]. Evicting the oldest
// line advances head and clears the slot so the string can be collected.
//
// # Concurrency
//
// The ingestion flush step is the only writer; the renderer reads. Both run
// on their own goroutines, so every method takes the buffer's RWMutex.
// Snapshot, Slice and Window return copies and can never observe a partial
// append.
//
// # Line Numbers
//
// Total counts every line ever appended and Dropped counts evictions.
// Dropped()+i is the absolute line number of retained index i, which keeps
// displayed numbering stable while old lines fall off the front.
package logbuf
