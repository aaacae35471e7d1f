// Package config loads rill's TOML configuration.
//
// # Configuration Discovery
//
// Load follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/rill/config.toml
//  3. If the file doesn't exist, return Default()
//  4. If the file exists but fields are missing or empty, use defaults
//
// Command-line flags are applied on top by cmd/rill.
//
// # TOML Format
//
//	endpoint = "http://127.0.0.1:8080/view-log"  # or "-" for stdin
//	capacity = 1000          # lines retained
//	row_height = 1           # terminal cells per line
//	flush_interval = "100ms" # "0s" publishes on every chunk
//	chunk_size = 32768       # bytes per read
//	encoding = "utf-8"       # any WHATWG label
//	trim_cr = true
//	show_memory = false
//	log_file = "~/.local/state/rill/rill.log"
//
// Strings are trimmed and non-positive numbers fall back to the default.
// A malformed file or an unparseable flush_interval is an error; the
// caller decides whether to abort.
//
// # Path Expansion
//
// Paths may be absolute, relative (made absolute against the working
// directory) or start with ~ for the home directory.
package config
