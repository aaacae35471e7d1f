package ui

import "time"

// Screen rows not available to the log body.
const (
	// StatusBarRows is the height of the status bar.
	StatusBarRows = 1

	// HelpBarRows is the height of the short help line.
	HelpBarRows = 1
)

// MouseWheelRows is how many rows one wheel notch scrolls.
const MouseWheelRows = 3

// DefaultStatusInterval is how often the status bar and memory readout
// refresh when no growth event arrives.
const DefaultStatusInterval = time.Second

func bodyHeight(screen int) int {
	return max(screen-StatusBarRows-HelpBarRows, 0)
}
