// Package ingest turns an open-ended byte stream into framed log lines and
// publishes them to a bounded buffer.
//
// # Overview
//
// An Ingestor runs one session at a time. A session opens its source, reads
// chunks, decodes them, frames lines and queues them for publication:
//
//	source.Open ──> Read chunk ──> Decoder.Decode ──> Framer.Push ──> pending
//	                                                                    │
//	                        flush ticker (FlushInterval) ──> Buffer.Append
//
// Framing happens as soon as a chunk arrives. Publication is batched on a
// ticker (100ms by default) so a chatty source cannot force a redraw per
// chunk. A zero FlushInterval publishes every chunk immediately.
//
// # Decoding
//
// Chunk boundaries are arbitrary, so a multi-byte character can be split
// between two reads. The Decoder keeps the incomplete tail and prepends it
// to the next chunk. Malformed input is replaced with U+FFFD; decoding
// never fails. Any WHATWG charset label accepted by
// golang.org/x/text/encoding/htmlindex can be configured.
//
// # Framing
//
// Extract is the pure splitting step: every segment before the last "\n"
// is a line, the last segment is kept for the next call. Empty lines are
// preserved. Framer applies the same rule incrementally for one session,
// scanning only newly pushed text, and cuts lines longer than
// Options.MaxLineBytes into pieces so the accumulator stays bounded.
//
// # Session Lifecycle
//
//   - Start stops the previous session before the new one touches the
//     buffer, so two sessions never publish concurrently.
//   - End of stream flushes the decoder, emits a non-empty trailing
//     fragment as a final line and publishes everything pending.
//   - A transport error is logged and recorded in the status store. Lines
//     already framed are published; the partial fragment is dropped.
//   - Stop (or cancelling the parent context) aborts the in-flight read,
//     stops the ticker and discards unpublished lines. It is not reported
//     as an error and it never clears the buffer.
//
// # Error Handling
//
// Start only fails for a missing source or an unknown charset. Stream
// failures are asynchronous and surface through state.Store and the
// logger.
package ingest
