// Package app is the composition root for rill.
//
// # Overview
//
// Run wires configuration, logging, the byte source, the bounded buffer,
// the ingestor and the UI:
//
//  1. Load ~/.config/rill/config.toml and apply command-line overrides
//  2. Open the slog text logger on log_file (the terminal belongs to the UI)
//  3. Parse the endpoint into a source.Source
//  4. Create the logbuf.Buffer, the state.Store and the ingest.Ingestor
//  5. Start the first session
//  6. Run the Bubble Tea program, or in print mode wait for the stream to
//     end and write the retained lines to stdout
//
// # Components
//
//   - app.go: Run, overrides, print mode and logger set-up
//   - pump.go: non-blocking bridge from ingest.Options.Notify to
//     tea.Program.Send
//
// # Data Flow
//
//	┌──────────────┐   Notify    ┌──────────┐  GrowthMsg  ┌────────────┐
//	│ ingest       │────────────>│ notifier │────────────>│ ui.Model   │
//	│ session      │ (cap 1 chan)│ run()    │ (p.Send)    │ Update     │
//	└──────┬───────┘             └──────────┘             └─────┬──────┘
//	       │ Append                                             │ Slice
//	       ▼                                                    ▼
//	┌──────────────────────────────────────────────────────────────────┐
//	│                     logbuf.Buffer (RWMutex)                      │
//	└──────────────────────────────────────────────────────────────────┘
//
// The notifier holds at most one pending signal, so bursts of publications
// collapse into one redraw and Notify never waits on the UI.
//
// # Shutdown
//
// Quitting the UI or cancelling the context stops the pump, then stops the
// ingestor, which aborts the in-flight read and waits for its goroutines.
// A signal-cancelled program is not reported as an error.
package app
