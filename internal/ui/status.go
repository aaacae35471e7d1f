package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/muesli/reflow/truncate"
)

const statusSeparator = " │ "

// renderMain renders the log body, the status bar and the short help.
func (m Model) renderMain() string {
	var b strings.Builder
	if m.lines != nil && m.vp.Height() > 0 {
		b.WriteString(m.renderer.Render(m.lines, m.vp, m.width))
		b.WriteString("\n")
	}
	b.WriteString(m.renderStatus())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// renderStatus renders the one-line status bar: phase badge, follow badge,
// then source, counters, error and memory as space permits.
func (m Model) renderStatus() string {
	styles := m.theme.Styles()
	snap := m.snapshot

	phase := styles.PhaseStyle(snap.Phase).Render(strings.ToUpper(snap.Phase.String()))
	mode := styles.Follow.Render("FOLLOW")
	if !m.vp.Following() {
		mode = styles.Manual.Render("MANUAL")
	}
	if m.restarting {
		mode += styles.WarningText.Render(" restarting")
	}

	parts := make([]string, 0, 5)
	if snap.Source != "" {
		parts = append(parts, snap.Source)
	}
	parts = append(parts, m.linesLabel())
	parts = append(parts, humanize.IBytes(snap.BytesRead)+" read")
	if m.showMemory && !m.memory.SampledAt.IsZero() {
		parts = append(parts, m.memory.String())
	}
	info := styles.MutedText.Render(" " + strings.Join(parts, statusSeparator))

	if snap.LastError != nil {
		info += styles.DangerText.Render(statusSeparator + snap.LastError.Error())
	}

	left := phase + " " + mode
	room := m.width - lipgloss.Width(left)
	if room > 0 {
		left += truncate.StringWithTail(info, uint(room), "…")
	}
	return styles.Footer.Width(m.width).MaxWidth(m.width).Render(left)
}

// linesLabel shows retained lines against capacity and, once lines have
// been evicted, the absolute range held.
func (m Model) linesLabel() string {
	if m.lines == nil {
		return "0 lines"
	}
	_, length, dropped := m.lines.Window(0, 0)
	label := fmt.Sprintf("%s/%s lines", humanize.Comma(int64(length)), humanize.Comma(int64(m.lines.Cap())))
	if dropped > 0 && length > 0 {
		first := dropped + 1
		last := dropped + uint64(length)
		label += fmt.Sprintf(" (%s-%s)", humanize.Comma(int64(first)), humanize.Comma(int64(last)))
	}
	return label
}
