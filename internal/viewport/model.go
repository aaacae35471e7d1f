package viewport

// Mode is the auto-scroll state.
type Mode int

const (
	// Following pins the viewport to the newest line on every growth event.
	Following Mode = iota
	// Manual leaves the scroll position under user control.
	Manual
)

func (m Mode) String() string {
	if m == Following {
		return "following"
	}
	return "manual"
}

// DefaultRowHeight is the height of one row in terminal cells.
const DefaultRowHeight = 1

// Model tracks the scroll position over a list of fixed-height rows. All
// positions are in cells; indexes are derived from the list length passed
// in by the caller, so the model never holds line data.
type Model struct {
	rowHeight int
	height    int
	scrollTop int
	mode      Mode
}

// New returns a Model with the given row height (cells per row).
func New(rowHeight int, follow bool) *Model {
	if rowHeight <= 0 {
		rowHeight = DefaultRowHeight
	}
	mode := Manual
	if follow {
		mode = Following
	}
	return &Model{rowHeight: rowHeight, mode: mode}
}

// SetHeight sets the visible height in cells.
func (m *Model) SetHeight(cells int) {
	m.height = max(cells, 0)
}

func (m *Model) Height() int    { return m.height }
func (m *Model) RowHeight() int { return m.rowHeight }
func (m *Model) Mode() Mode     { return m.mode }

// Following reports whether auto-scroll is on.
func (m *Model) Following() bool {
	return m.mode == Following
}

// ScrollTop returns the scroll offset in cells.
func (m *Model) ScrollTop() int {
	return m.scrollTop
}

// Toggle flips between Following and Manual and returns the new mode. It is
// the only way the mode changes; scrolling never does. Callers should Sync
// afterwards so a switch to Following jumps to the newest line.
func (m *Model) Toggle() Mode {
	if m.mode == Following {
		m.mode = Manual
	} else {
		m.mode = Following
	}
	return m.mode
}

// Rows returns how many rows fit in the viewport, counting a partial row.
func (m *Model) Rows() int {
	if m.height == 0 {
		return 0
	}
	return (m.height + m.rowHeight - 1) / m.rowHeight
}

// VisibleRange returns the half-open index range [start, end) of rows
// intersecting the viewport for a list of length rows.
func (m *Model) VisibleRange(length int) (start, end int) {
	if length <= 0 || m.height == 0 {
		return 0, 0
	}
	top := min(m.scrollTop, m.maxScrollTop(length))
	start = top / m.rowHeight
	end = (top + m.height + m.rowHeight - 1) / m.rowHeight
	return start, min(end, length)
}

// Anchor returns the index the viewport is pinned to, or -1 for an empty
// list. Following pins the last visible index to the newest line; Manual
// pins the first visible index to the scroll offset, so growth below a
// short list does not move it.
func (m *Model) Anchor(length int) int {
	start, end := m.VisibleRange(length)
	if start == end {
		return -1
	}
	if m.mode == Manual {
		return start
	}
	return end - 1
}

// Sync reacts to the list length changing. Following scrolls so the last
// index sits at the bottom edge; Manual only clamps to the new bounds.
func (m *Model) Sync(length int) {
	if m.mode == Following {
		m.scrollTop = m.maxScrollTop(length)
		return
	}
	m.clamp(length)
}

// ScrollBy moves the viewport by rows (negative scrolls up).
func (m *Model) ScrollBy(rows, length int) {
	m.scrollTop += rows * m.rowHeight
	m.clamp(length)
}

// PageDown scrolls by one page, keeping one row of overlap.
func (m *Model) PageDown(length int) {
	m.ScrollBy(max(m.height/m.rowHeight-1, 1), length)
}

// PageUp scrolls back by one page, keeping one row of overlap.
func (m *Model) PageUp(length int) {
	m.ScrollBy(-max(m.height/m.rowHeight-1, 1), length)
}

// Top scrolls to the first row.
func (m *Model) Top() {
	m.scrollTop = 0
}

// Bottom scrolls so the last row is visible.
func (m *Model) Bottom(length int) {
	m.scrollTop = m.maxScrollTop(length)
}

func (m *Model) maxScrollTop(length int) int {
	return max(length*m.rowHeight-m.height, 0)
}

func (m *Model) clamp(length int) {
	m.scrollTop = min(max(m.scrollTop, 0), m.maxScrollTop(length))
}
