package diag

import (
	"strings"
	"testing"
)

func TestSample_ReportsHeap(t *testing.T) {
	s := Sample()
	if s.HeapAlloc == 0 || s.Sys == 0 {
		t.Fatalf("Sample = %+v, want non-zero heap and sys", s)
	}
	if s.Goroutines < 1 {
		t.Fatalf("Goroutines = %d, want >= 1", s.Goroutines)
	}
	if s.SampledAt.IsZero() {
		t.Fatalf("SampledAt is zero")
	}
}

func TestStats_String(t *testing.T) {
	tests := []struct {
		heap uint64
		want string
	}{
		{heap: 512, want: "heap 512 B"},
		{heap: 3 << 20, want: "heap 3.0 MiB"},
	}
	for _, tt := range tests {
		if got := (Stats{HeapAlloc: tt.heap}).String(); got != tt.want {
			t.Fatalf("String(%d) = %q, want %q", tt.heap, got, tt.want)
		}
	}
}

func TestStats_Detail(t *testing.T) {
	got := Stats{HeapAlloc: 1 << 10, Sys: 8 << 20, NumGC: 1200, Goroutines: 7}.Detail()
	for _, part := range []string{"heap 1.0 KiB", "sys 8.0 MiB", "gc 1,200", "goroutines 7"} {
		if !strings.Contains(got, part) {
			t.Fatalf("Detail = %q, want it to contain %q", got, part)
		}
	}
}
