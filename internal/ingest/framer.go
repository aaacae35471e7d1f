package ingest

import (
	"strings"
	"unicode/utf8"
)

// Terminator separates lines in the decoded stream.
const Terminator = "\n"

// Extract splits acc on Terminator. Every segment but the last is a complete
// line; the last segment, possibly empty, is returned as the new accumulator.
// Empty lines are preserved.
func Extract(acc string) (lines []string, rest string) {
	if !strings.Contains(acc, Terminator) {
		return nil, acc
	}
	parts := strings.Split(acc, Terminator)
	return parts[:len(parts)-1], parts[len(parts)-1]
}

// Framer holds the incomplete trailing fragment between chunks. Each Push
// scans only the new text, and a fragment longer than the line limit is
// cut into limit-sized lines so the accumulator stays bounded.
type Framer struct {
	acc     []byte
	trimCR  bool
	maxLine int
}

// NewFramer returns a Framer. With trimCR set, a "\r" left at the end of a
// line by CRLF terminators is removed. maxLine caps a line in bytes; zero
// or less means unlimited.
func NewFramer(trimCR bool, maxLine int) *Framer {
	return &Framer{trimCR: trimCR, maxLine: max(maxLine, 0)}
}

// Push appends decoded text and returns the lines it completed.
func (f *Framer) Push(text string) []string {
	if text == "" {
		return nil
	}
	var lines []string
	for {
		i := strings.Index(text, Terminator)
		if i < 0 {
			break
		}
		f.acc = append(f.acc, text[:i]...)
		lines = f.spill(lines)
		lines = append(lines, f.trim(string(f.acc)))
		f.acc = f.acc[:0]
		text = text[i+len(Terminator):]
	}
	f.acc = append(f.acc, text...)
	return f.spill(lines)
}

// spill emits leading pieces of an overlong fragment. Cuts land on rune
// boundaries, so a piece can be short of maxLine by up to three bytes.
func (f *Framer) spill(lines []string) []string {
	if f.maxLine == 0 {
		return lines
	}
	for len(f.acc) > f.maxLine {
		cut := runeCut(f.acc, f.maxLine)
		lines = append(lines, string(f.acc[:cut]))
		f.acc = append(f.acc[:0], f.acc[cut:]...)
	}
	return lines
}

// runeCut returns the largest rune boundary in b at or before n, or the end
// of the first rune when n falls inside it.
func runeCut(b []byte, n int) int {
	for cut := n; cut > 0; cut-- {
		if utf8.RuneStart(b[cut]) {
			return cut
		}
	}
	_, size := utf8.DecodeRune(b)
	return size
}

func (f *Framer) trim(line string) string {
	if f.trimCR {
		return strings.TrimSuffix(line, "\r")
	}
	return line
}

// Remainder returns the pending fragment without consuming it.
func (f *Framer) Remainder() string {
	return string(f.acc)
}

// Finish consumes the pending fragment at end of stream. It reports false
// when nothing was pending.
func (f *Framer) Finish() (string, bool) {
	rest := f.trim(string(f.acc))
	f.acc = f.acc[:0]
	return rest, rest != ""
}
