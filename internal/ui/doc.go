// Package ui provides the Bubble Tea viewer for rill.
//
// # Architecture Overview
//
// The viewer is a single Bubble Tea model. It never touches the byte
// stream; it reads the line store through the Lines interface and the
// session status through StatusSource.
//
//	ingest session ──Notify──> app pump ──Program.Send(GrowthMsg)──> Model.Update
//	                                                                    │
//	                                      viewport.Model.Sync(len) <────┘
//	                                                                    │
//	                     View: Renderer.Render(Lines.Window(visible)) <─┘
//
// # Package Structure
//
//   - app.go: Model, Options, Update loop, messages and Run
//   - keys.go: key bindings (bubbles/key) and help groups
//   - status.go: status bar and main layout
//   - help.go: help overlay built from the key map
//   - theme.go: color themes and lipgloss styles
//   - layout.go: layout and timing constants
//
// # Follow Mode
//
// The auto-scroll mode lives in viewport.Model. f or space toggles it and
// the choice is written to the prefs file. Scrolling (keys or mouse wheel)
// moves the viewport but never changes the mode; while following, the next
// growth event pins the view to the newest line again.
//
// # Restart
//
// r restarts ingestion against the same source. The restart runs in a
// tea.Cmd because stopping a session waits for its goroutines.
//
// # Refresh
//
// GrowthMsg arrives after each publication. A one second tick refreshes
// the status bar when nothing is published and samples memory when
// show_memory is enabled.
package ui
