package viewport

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"
)

// LineSource is the renderer's view of the line store. Window must return
// the rows, the retained length and the eviction count from one consistent
// state of the store.
type LineSource interface {
	Len() int
	Window(start, end int) (lines []string, length int, dropped uint64)
}

// windowRetries bounds how often Render re-reads a store that keeps
// growing between the length probe and the fetch.
const windowRetries = 3

// Styles used when drawing rows.
type Styles struct {
	Gutter lipgloss.Style
	Line   lipgloss.Style
}

// Renderer draws the visible rows of a LineSource.
type Renderer struct {
	Styles      Styles
	LineNumbers bool
	TabWidth    int
}

// Render returns exactly vp.Height() terminal lines. Only rows inside
// vp.VisibleRange are fetched from src.
func (r Renderer) Render(src LineSource, vp *Model, width int) string {
	height := vp.Height()
	if height == 0 {
		return ""
	}
	w := fetch(src, vp)
	start, rows, length, dropped := w.start, w.rows, w.length, w.dropped

	gutterWidth := 0
	if r.LineNumbers {
		gutterWidth = len(strconv.FormatUint(dropped+uint64(length), 10))
	}
	textWidth := width
	if r.LineNumbers {
		textWidth -= gutterWidth + 3 // " │ "
	}

	// Skip the part of the first row scrolled above the edge.
	skip := min(vp.ScrollTop(), max(w.ranged*vp.RowHeight()-height, 0)) - start*vp.RowHeight()

	out := make([]string, 0, height)
	for i, row := range rows {
		text := r.fitLine(row, textWidth)
		if r.LineNumbers {
			number := fmt.Sprintf("%*d │ ", gutterWidth, dropped+uint64(start+i)+1)
			text = r.Styles.Gutter.Render(number) + r.Styles.Line.Render(text)
		} else {
			text = r.Styles.Line.Render(text)
		}
		for cell := 0; cell < vp.RowHeight(); cell++ {
			if skip > 0 {
				skip--
				continue
			}
			if cell == 0 {
				out = append(out, text)
			} else {
				out = append(out, "")
			}
		}
	}
	if len(out) > height {
		out = out[:height]
	}
	for len(out) < height {
		out = append(out, "")
	}
	return strings.Join(out, "\n")
}

// window is one consistent read of the store. ranged is the length the
// visible range was computed for.
type window struct {
	start   int
	rows    []string
	length  int
	dropped uint64
	ranged  int
}

// fetch reads the visible rows. Rows and numbering always come from the
// same Window call; the range is recomputed when the length moved since it
// was probed.
func fetch(src LineSource, vp *Model) window {
	probe := src.Len()
	for attempt := 1; ; attempt++ {
		start, end := vp.VisibleRange(probe)
		rows, length, dropped := src.Window(start, end)
		if length == probe || attempt == windowRetries {
			return window{start: start, rows: rows, length: length, dropped: dropped, ranged: probe}
		}
		probe = length
	}
}
