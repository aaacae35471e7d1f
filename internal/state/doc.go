// Package state holds the ingestion status shared between the ingestor and
// the UI.
//
// # Overview
//
// A Store is written by the session goroutines and read by the UI on every
// growth event and status tick:
//
//	Producer (ingest session):     Consumer (UI):
//	┌─────────────────────┐       ┌──────────────────┐
//	│ Begin(source)       │       │                  │
//	│ Connected()         │       │                  │
//	│ Chunk(bytes, lines) │──────→│ store.Snapshot() │
//	│ End(phase, err)     │(mutex)│      ↓           │
//	└─────────────────────┘       │  status bar      │
//	                              └──────────────────┘
//
// # Phases
//
//	idle ──Begin──> connecting ──Connected/Chunk──> streaming
//	                    │                               │
//	                    └──────────End──────────────────┴──> ended | stopped | failed
//
// End with a non-nil error always records failed. A stopped session, from
// Stop or a cancelled parent context, carries no error.
//
// # Counters
//
// BytesRead and LinesFramed accumulate across sessions, so a restart
// continues the totals while Sessions counts the attempts. LinesFramed
// counts lines framed, not lines retained; the buffer may have evicted
// some of them.
//
// # Concurrency
//
// The Store uses a sync.RWMutex and is safe to use as a zero value.
// Snapshot returns a copy whose LastError wraps the stored error, so
// errors.Is still matches the original.
package state
