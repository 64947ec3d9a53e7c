package sqlite

import (
	"fmt"
	"testing"

	"tracewave/internal/domain"
)

func benchRecords(videos, frames int) []domain.Record {
	var records []domain.Record
	for v := 0; v < videos; v++ {
		for f := 0; f < frames; f++ {
			records = append(records, domain.Record{
				VideoID:  fmt.Sprintf("vid_%08d", v),
				FrameIdx: f,
				ObjID:    1,
				Points:   []domain.Point{{X: f, Y: f}},
				Labels:   []int{1},
				Box:      &domain.Box{X: 0, Y: 0, W: 10, H: 10},
				Class:    "object",
			})
		}
	}
	return records
}

// BenchmarkSync benchmarks a full resync of a medium project (DB already open)
func BenchmarkSync(b *testing.B) {
	b.Setenv("XDG_DATA_HOME", b.TempDir())

	idx := NewIndex()
	if err := idx.Open(b.TempDir()); err != nil {
		b.Fatalf("failed to open index: %v", err)
	}
	defer func() {
		if err := idx.Close(); err != nil {
			b.Fatalf("failed to close index: %v", err)
		}
	}()

	records := benchRecords(10, 500)
	b.ResetTimer()
	for b.Loop() {
		if _, err := idx.Sync(records); err != nil {
			b.Fatalf("sync failed: %v", err)
		}
	}
}
